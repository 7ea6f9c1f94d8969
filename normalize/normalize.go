// Package normalize converts raw host snapshots into validated ticks. It
// owns the per-symbol instrument state and applies the configured volume
// sourcing policy, new-trade detection, bid/ask resolution and trade-side
// classification.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"sierra_bridge/clock"
	"sierra_bridge/config"
	"sierra_bridge/models"
)

// ErrSkip marks a valid snapshot that carries no new trade. Not an error
// condition; the caller drops the cycle without side effects.
var ErrSkip = errors.New("no new trade")

// InvalidSnapshotError reports market data that failed validation. No state
// is mutated when it is returned.
type InvalidSnapshotError struct {
	Reason string
}

func (e *InvalidSnapshotError) Error() string {
	return "invalid snapshot: " + e.Reason
}

// Volume estimation bounds for the estimate policy: k contracts per tick of
// displacement, clamped to [1, cap].
const (
	estimateContractsPerTick = 10
	estimateVolumeCap        = 1000
)

// Quote resolution tiers, recorded for diagnostics only.
const (
	QuoteTierHost      = "host"
	QuoteTierDepth     = "depth"
	QuoteTierSynthetic = "synthetic"
)

// DepthProber reads resting volume at a price level from the host's market
// depth data, when the host exposes it.
type DepthProber interface {
	VolumeAt(symbol string, price float64) (size uint32, ok bool)
}

type Options struct {
	VolumePolicy     string
	TickSize         float64
	MaxChangePercent float64
	UseMarketDepth   bool
}

// Normalizer holds per-symbol instrument state and turns host snapshots
// into ticks. Single writer; the scheduler guarantees invocations do not
// overlap.
type Normalizer struct {
	opts   Options
	ts     clock.TimeSource
	depth  DepthProber
	states map[string]*models.InstrumentState

	// LastQuoteTier names the bid/ask resolution tier of the most recent
	// successful Normalize call. Diagnostics only.
	LastQuoteTier string
}

func New(opts Options, ts clock.TimeSource, depth DepthProber) *Normalizer {
	if opts.TickSize <= 0 {
		opts.TickSize = 0.25
	}
	if opts.MaxChangePercent <= 0 {
		opts.MaxChangePercent = 50.0
	}
	if opts.VolumePolicy == "" {
		opts.VolumePolicy = config.VolumePolicyEstimate
	}
	return &Normalizer{
		opts:   opts,
		ts:     ts,
		depth:  depth,
		states: make(map[string]*models.InstrumentState),
	}
}

// Normalize validates the snapshot and builds a tick from it. Returns
// ErrSkip when the data is valid but carries no new trade, or an
// *InvalidSnapshotError when the data itself is bad. Instrument state is
// mutated only on success, together with the returned tick.
func (n *Normalizer) Normalize(snap models.HostSnapshot) (models.Tick, error) {
	state, known := n.states[snap.Symbol]

	if err := n.validate(snap, state); err != nil {
		return models.Tick{}, err
	}

	size, err := n.resolveVolume(snap, state, known)
	if err != nil {
		return models.Tick{}, err
	}

	first := !known
	lastPrice := 0.0
	if known {
		lastPrice = state.LastPrice
	}
	if !first && snap.Price == lastPrice && size == 0 {
		return models.Tick{}, ErrSkip
	}

	bid, ask, bidSize, askSize, tier := n.resolveQuote(snap, size)
	n.LastQuoteTier = tier

	tsUs := snap.TimestampUs
	if tsUs == 0 {
		tsUs = n.ts.WallMicros()
	}

	if state == nil {
		state = &models.InstrumentState{}
		n.states[snap.Symbol] = state
	}
	state.LastPrice = snap.Price
	state.CumulativeVolume += uint64(size)
	state.TradeCount++

	tick := models.Tick{
		TimestampUs:      tsUs,
		Price:            snap.Price,
		Size:             size,
		Side:             ClassifySide(snap.Price, bid, ask, lastPrice),
		Bid:              bid,
		Ask:              ask,
		BidSize:          bidSize,
		AskSize:          askSize,
		Open:             snap.Open,
		High:             snap.High,
		Low:              snap.Low,
		CumulativeVolume: state.CumulativeVolume,
		TradeCount:       state.TradeCount,
	}
	return tick, nil
}

// State returns a copy of the instrument state for a symbol.
func (n *Normalizer) State(symbol string) (models.InstrumentState, bool) {
	s, ok := n.states[symbol]
	if !ok {
		return models.InstrumentState{}, false
	}
	return *s, true
}

func (n *Normalizer) validate(snap models.HostSnapshot, state *models.InstrumentState) error {
	if snap.Price <= 0 {
		return &InvalidSnapshotError{Reason: fmt.Sprintf("price %v <= 0", snap.Price)}
	}
	if snap.High > 0 || snap.Low > 0 {
		if snap.High < snap.Low {
			return &InvalidSnapshotError{Reason: fmt.Sprintf("high %v < low %v", snap.High, snap.Low)}
		}
		if snap.Price < snap.Low || snap.Price > snap.High {
			return &InvalidSnapshotError{Reason: fmt.Sprintf("price %v outside [%v, %v]", snap.Price, snap.Low, snap.High)}
		}
	}
	if state != nil && state.LastPrice > 0 {
		changePct := math.Abs(snap.Price-state.LastPrice) / state.LastPrice * 100.0
		if changePct > n.opts.MaxChangePercent {
			return &InvalidSnapshotError{Reason: fmt.Sprintf("price change %.2f%% exceeds %.2f%%", changePct, n.opts.MaxChangePercent)}
		}
	}
	return nil
}

func (n *Normalizer) resolveVolume(snap models.HostSnapshot, state *models.InstrumentState, known bool) (uint32, error) {
	switch n.opts.VolumePolicy {
	case config.VolumePolicyReported:
		if snap.Volume == 0 {
			return 0, ErrSkip
		}
		return snap.Volume, nil
	default: // estimate
		if snap.Volume > 0 {
			return snap.Volume, nil
		}
		if !known {
			return 1, nil
		}
		return estimateVolume(snap.Price, state.LastPrice, n.opts.TickSize), nil
	}
}

// estimateVolume derives a size from price displacement when the host
// reports none: estimateContractsPerTick per tick of movement, clamped.
func estimateVolume(price, lastPrice, tickSize float64) uint32 {
	delta := math.Abs(price - lastPrice)
	if delta == 0 {
		return 0
	}
	est := uint32(math.Round(delta / tickSize * estimateContractsPerTick))
	if est < 1 {
		est = 1
	}
	if est > estimateVolumeCap {
		est = estimateVolumeCap
	}
	return est
}

// resolveQuote picks bid/ask for the tick: host-reported quote first, then
// a market-depth probe one tick either side of the trade, then a synthetic
// spread from the bar range.
func (n *Normalizer) resolveQuote(snap models.HostSnapshot, size uint32) (bid, ask float64, bidSize, askSize uint32, tier string) {
	// Tier 1: host quote, rejected when crossed.
	if snap.Bid > 0 && snap.Ask > 0 && snap.Ask >= snap.Bid {
		bidSize, askSize = snap.BidSize, snap.AskSize
		if bidSize == 0 && askSize == 0 {
			bidSize = uint32(float64(size) * 0.4)
			askSize = uint32(float64(size) * 0.6)
		}
		return snap.Bid, snap.Ask, bidSize, askSize, QuoteTierHost
	}

	// Tier 2: volume-at-price probe one tick either side.
	if n.opts.UseMarketDepth && n.depth != nil {
		below, okB := n.depth.VolumeAt(snap.Symbol, snap.Price-n.opts.TickSize)
		above, okA := n.depth.VolumeAt(snap.Symbol, snap.Price+n.opts.TickSize)
		if okB && okA && below > 0 && above > 0 {
			return snap.Price - n.opts.TickSize, snap.Price + n.opts.TickSize, below, above, QuoteTierDepth
		}
	}

	// Tier 3: synthetic spread from 10% of the bar range, floored at one tick.
	spread := (snap.High - snap.Low) * 0.1
	if spread < n.opts.TickSize {
		spread = n.opts.TickSize
	}
	return snap.Price - spread, snap.Price + spread, size / 2, size / 2, QuoteTierSynthetic
}
