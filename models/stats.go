package models

import "time"

// InstrumentState is the per-symbol running state owned by the normalizer.
// Single writer; reset only on process restart.
type InstrumentState struct {
	LastPrice        float64
	CumulativeVolume uint64
	TradeCount       uint32
}

// BridgeStats accumulates per-process counters for periodic status logging.
type BridgeStats struct {
	TicksExported    uint64
	TicksSkipped     uint64
	ValidationErrors uint64
	TradesExecuted   uint64
	WriteFailures    uint64
	LastExport       time.Time
	StartTime        time.Time
}
