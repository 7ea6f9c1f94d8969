package models

// MarketSnapshot is the per-symbol JSON document exported after each new
// trade. Field set and names are fixed by the external consumer.
type MarketSnapshot struct {
	Symbol      string  `json:"symbol"`
	Timestamp   uint64  `json:"timestamp"`
	TimestampUs uint64  `json:"timestamp_us"`
	Price       float64 `json:"price"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Volume      uint32  `json:"volume"`
	TotalVolume uint64  `json:"total_volume"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	BidSize     uint32  `json:"bid_size"`
	AskSize     uint32  `json:"ask_size"`
	LastSize    uint32  `json:"last_size"`
	VWAP        float64 `json:"vwap"`
	Trades      uint32  `json:"trades"`
	TradeSide   string  `json:"trade_side"`
	Sequence    uint64  `json:"sequence"`
	Source      string  `json:"source"`
}

// SnapshotFromTick builds the exported view of a tick.
func SnapshotFromTick(symbol string, t Tick) MarketSnapshot {
	return MarketSnapshot{
		Symbol:      symbol,
		Timestamp:   t.TimestampUs / 1000000,
		TimestampUs: t.TimestampUs,
		Price:       t.Price,
		Open:        t.Open,
		High:        t.High,
		Low:         t.Low,
		Volume:      t.Size,
		TotalVolume: t.CumulativeVolume,
		Bid:         t.Bid,
		Ask:         t.Ask,
		BidSize:     t.BidSize,
		AskSize:     t.AskSize,
		LastSize:    t.Size,
		VWAP:        t.VWAP,
		Trades:      t.TradeCount,
		TradeSide:   t.Side.String(),
		Sequence:    t.Sequence,
		Source:      "sierra_bridge",
	}
}
