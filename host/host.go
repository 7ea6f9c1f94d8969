// Package host defines the capabilities the bridge needs from the trading
// platform it runs against. The core only ever talks to these interfaces;
// live adapters and test fakes both implement them.
package host

import "context"

// Order is one instruction handed to the platform's order API.
type Order struct {
	Symbol   string
	Action   string // BUY or SELL
	Quantity uint32
	Kind     string // MARKET, LIMIT or STOP
	Price    float64
}

// SubmitResult is what the platform reports back for a submission. OrderID
// follows the platform convention: positive means accepted, zero or
// negative is the raw failure code. FillPrice is 0 when the platform does
// not report one.
type SubmitResult struct {
	OrderID   int64
	FillPrice float64
}

// OrderRouter submits orders to the platform.
type OrderRouter interface {
	SubmitOrder(ctx context.Context, order Order) (SubmitResult, error)
}

// QuoteReader reads the platform's current best bid/ask for a symbol.
type QuoteReader interface {
	BestBidAsk(symbol string) (bid, ask float64, ok bool)
}

// PositionReader reads the platform's net position for a symbol.
type PositionReader interface {
	Position(symbol string) (int64, error)
}
