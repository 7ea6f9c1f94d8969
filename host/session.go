package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Session routes orders and position queries to the platform's local HTTP
// order endpoint.
type Session struct {
	orderURL string
	client   *http.Client
}

func NewSession(orderURL string) *Session {
	return &Session{
		orderURL: orderURL,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type orderRequest struct {
	Symbol   string  `json:"symbol"`
	Action   string  `json:"action"`
	Quantity uint32  `json:"quantity"`
	Type     string  `json:"type"`
	Price    float64 `json:"price,omitempty"`
}

type orderResponse struct {
	OrderID   int64   `json:"order_id"`
	FillPrice float64 `json:"fill_price"`
	Message   string  `json:"message"`
}

// SubmitOrder posts the order to the platform and returns its result. A
// non-2xx reply or transport failure is an error; a negative order_id in a
// 2xx reply is the platform's own rejection code and is passed through.
func (s *Session) SubmitOrder(ctx context.Context, order Order) (SubmitResult, error) {
	payload, err := json.Marshal(orderRequest{
		Symbol:   order.Symbol,
		Action:   order.Action,
		Quantity: order.Quantity,
		Type:     order.Kind,
		Price:    order.Price,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.orderURL, bytes.NewReader(payload))
	if err != nil {
		return SubmitResult{}, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SubmitResult{}, fmt.Errorf("order endpoint returned %s", resp.Status)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SubmitResult{}, fmt.Errorf("decode order response: %w", err)
	}
	return SubmitResult{OrderID: out.OrderID, FillPrice: out.FillPrice}, nil
}

type positionResponse struct {
	Quantity int64 `json:"quantity"`
}

// Position queries the platform's net position for a symbol.
func (s *Session) Position(symbol string) (int64, error) {
	req, err := http.NewRequest(http.MethodGet, s.orderURL+"/position?symbol="+symbol, nil)
	if err != nil {
		return 0, fmt.Errorf("build position request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("query position: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("position endpoint returned %s", resp.Status)
	}
	var out positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode position response: %w", err)
	}
	return out.Quantity, nil
}
