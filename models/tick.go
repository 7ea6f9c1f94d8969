package models

// Side is the inferred aggressor direction of a trade.
type Side byte

const (
	SideBuy     Side = 'B'
	SideSell    Side = 'S'
	SideUnknown Side = 'U'
)

func (s Side) String() string {
	return string([]byte{byte(s)})
}

// HostSnapshot is one raw observation from the host platform: the latest
// price/volume pair plus whatever quote and bar context the feed carries.
type HostSnapshot struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Volume      uint32  `json:"volume"`
	Bid         float64 `json:"bid"`
	Ask         float64 `json:"ask"`
	BidSize     uint32  `json:"bid_size"`
	AskSize     uint32  `json:"ask_size"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	TimestampUs uint64  `json:"timestamp_us"`
}

// Tick is one normalized unit of market activity. Immutable once built;
// Sequence is assigned by the history buffer on push.
type Tick struct {
	Sequence         uint64
	TimestampUs      uint64
	Price            float64
	Size             uint32
	Side             Side
	Bid              float64
	Ask              float64
	BidSize          uint32
	AskSize          uint32
	Open             float64
	High             float64
	Low              float64
	CumulativeVolume uint64
	VWAP             float64
	TradeCount       uint32
}
