package models

// Actions accepted on the command channel.
const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Order kinds accepted on the command channel.
const (
	OrderKindMarket = "MARKET"
	OrderKindLimit  = "LIMIT"
	OrderKindStop   = "STOP"
)

// Response statuses written back to the external consumer.
const (
	StatusFilled    = "FILLED"
	StatusSubmitted = "SUBMITTED"
	StatusRejected  = "REJECTED"
	StatusFailed    = "FAILED"
)

// TradeCommand is one validated trade instruction. Consumed at most once;
// never persisted beyond the response write.
type TradeCommand struct {
	CommandID  string
	Action     string
	Symbol     string
	Quantity   uint32
	OrderKind  string
	LimitPrice float64 // 0 when unset
}

// TradeResponse is the outcome written back for one command.
type TradeResponse struct {
	CommandID   string   `json:"command_id"`
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	FillPrice   *float64 `json:"fill_price"`
	Timestamp   uint64   `json:"timestamp"`
	TimestampUs uint64   `json:"timestamp_us"`
}
