// Package trade maps validated commands onto host order submissions and
// host results onto response outcomes. All host-call failures are absorbed
// into the outcome; nothing escapes the executor boundary.
package trade

import (
	"context"
	"fmt"

	"sierra_bridge/host"
	"sierra_bridge/middleware"
	"sierra_bridge/models"

	"github.com/sony/gobreaker"
)

// Outcome is the result of executing one command, ready to be turned into
// a TradeResponse.
type Outcome struct {
	Status    string
	Message   string
	FillPrice *float64
	OrderID   int64
}

type Options struct {
	TradingEnabled  bool
	MaxPositionSize uint32
}

// Executor submits validated commands through the injected order router.
// The trading gate is separate from data-export mode and defaults to off.
type Executor struct {
	opts    Options
	router  host.OrderRouter
	quotes  host.QuoteReader
	breaker *gobreaker.CircuitBreaker
}

func NewExecutor(opts Options, router host.OrderRouter, quotes host.QuoteReader) *Executor {
	return &Executor{
		opts:    opts,
		router:  router,
		quotes:  quotes,
		breaker: middleware.NewOrderBreaker(),
	}
}

// Execute checks preconditions, submits the order and maps the host result.
// Rejections happen before any host call; host failures come back as a
// FAILED outcome with the raw code preserved in the message.
func (e *Executor) Execute(ctx context.Context, cmd models.TradeCommand) Outcome {
	if !e.opts.TradingEnabled {
		return Outcome{Status: models.StatusRejected, Message: "trading is disabled"}
	}
	if cmd.Quantity == 0 || cmd.Quantity > e.opts.MaxPositionSize {
		return Outcome{
			Status:  models.StatusRejected,
			Message: fmt.Sprintf("quantity %d outside bounds [1, %d]", cmd.Quantity, e.opts.MaxPositionSize),
		}
	}

	bid, ask, ok := e.quotes.BestBidAsk(cmd.Symbol)
	if !ok || bid <= 0 || ask <= 0 {
		return Outcome{Status: models.StatusRejected, Message: "no valid bid/ask data"}
	}

	order := host.Order{
		Symbol:   cmd.Symbol,
		Action:   cmd.Action,
		Quantity: cmd.Quantity,
		Kind:     cmd.OrderKind,
	}

	// Nominal fill: market orders fill at the touch, limit/stop orders at
	// the requested price until the host reports otherwise.
	var nominal float64
	switch cmd.OrderKind {
	case models.OrderKindMarket:
		if cmd.Action == models.ActionBuy {
			nominal = ask
		} else {
			nominal = bid
		}
	default:
		nominal = cmd.LimitPrice
		order.Price = cmd.LimitPrice
	}

	res, err := e.submit(ctx, order)
	if err != nil {
		return Outcome{Status: models.StatusFailed, Message: "order submission failed: " + err.Error()}
	}
	if res.OrderID <= 0 {
		return Outcome{
			Status:  models.StatusFailed,
			Message: fmt.Sprintf("host declined order, code %d", res.OrderID),
			OrderID: res.OrderID,
		}
	}

	fill := res.FillPrice
	message := fmt.Sprintf("order %d accepted", res.OrderID)
	if fill <= 0 {
		fill = nominal
		if cmd.OrderKind != models.OrderKindMarket {
			message = fmt.Sprintf("order %d accepted, fill price estimated from requested price", res.OrderID)
		}
	}

	status := models.StatusFilled
	if cmd.OrderKind != models.OrderKindMarket {
		status = models.StatusSubmitted
	}
	return Outcome{Status: status, Message: message, FillPrice: &fill, OrderID: res.OrderID}
}

func (e *Executor) submit(ctx context.Context, order host.Order) (host.SubmitResult, error) {
	out, err := e.breaker.Execute(func() (interface{}, error) {
		return e.router.SubmitOrder(ctx, order)
	})
	if err != nil {
		return host.SubmitResult{}, err
	}
	return out.(host.SubmitResult), nil
}
