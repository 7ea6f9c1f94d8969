// Package bridge owns the invocation cycle: one market data event in, at
// most one exported snapshot out, plus the independent command/response
// exchange. All mutable state lives here, constructed once and passed into
// each invocation; the scheduler guarantees invocations never overlap.
package bridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"sierra_bridge/clock"
	"sierra_bridge/command"
	"sierra_bridge/config"
	"sierra_bridge/export"
	"sierra_bridge/history"
	"sierra_bridge/metrics"
	"sierra_bridge/middleware"
	"sierra_bridge/models"
	"sierra_bridge/normalize"
	"sierra_bridge/trade"
	"sierra_bridge/utils"
)

type Engine struct {
	cfg        *config.Config
	ts         clock.TimeSource
	norm       *normalize.Normalizer
	buffers    map[string]*history.TickBuffer
	snapWriter *export.SnapshotWriter
	respWriter *export.ResponseWriter
	channel    *command.Channel
	executor   *trade.Executor

	filter       []string
	activeSymbol string
	lastExport   map[string]time.Time
	stats        models.BridgeStats
}

func NewEngine(
	cfg *config.Config,
	ts clock.TimeSource,
	norm *normalize.Normalizer,
	snapWriter *export.SnapshotWriter,
	respWriter *export.ResponseWriter,
	channel *command.Channel,
	executor *trade.Executor,
) *Engine {
	return &Engine{
		cfg:        cfg,
		ts:         ts,
		norm:       norm,
		buffers:    make(map[string]*history.TickBuffer),
		snapWriter: snapWriter,
		respWriter: respWriter,
		channel:    channel,
		executor:   executor,
		filter:     cfg.SymbolFilterList(),
		lastExport: make(map[string]time.Time),
		stats:      models.BridgeStats{StartTime: time.Now()},
	}
}

// OnMarketData runs one data cycle: filter, throttle, normalize, push to
// history, export. Every failure is absorbed here; nothing propagates to
// the scheduler.
func (e *Engine) OnMarketData(snap models.HostSnapshot) {
	middleware.RecoverCycle(func() {
		start := e.ts.MonotonicMicros()
		e.processSnapshot(snap)
		e.observeLatency(start)
	})
}

func (e *Engine) processSnapshot(snap models.HostSnapshot) {
	if !e.symbolAccepted(snap.Symbol) {
		return
	}
	e.activeSymbol = snap.Symbol

	// Throttle exports per symbol to the configured update interval.
	now := time.Now()
	if last, ok := e.lastExport[snap.Symbol]; ok && now.Sub(last) < e.cfg.Bridge.UpdateInterval {
		return
	}

	tick, err := e.norm.Normalize(snap)
	if err != nil {
		var inv *normalize.InvalidSnapshotError
		switch {
		case errors.Is(err, normalize.ErrSkip):
			e.stats.TicksSkipped++
			metrics.IncrementSkipped()
		case errors.As(err, &inv):
			e.stats.ValidationErrors++
			metrics.IncrementInvalid()
			utils.Logger.Warnw("Invalid market data, skipping",
				"symbol", snap.Symbol,
				"reason", inv.Reason)
		default:
			utils.Error(err, "Normalization failed", "symbol", snap.Symbol)
		}
		return
	}

	buf := e.buffer(snap.Symbol)
	tick.VWAP = buf.WindowedVWAP(e.cfg.Bridge.VWAPWindow, tick.Price)
	tick = buf.Push(tick)
	metrics.SetBufferSequence(buf.Sequence())
	metrics.RecordQuoteTier(e.norm.LastQuoteTier)

	e.lastExport[snap.Symbol] = now

	if !e.cfg.Bridge.TickCapture {
		return
	}

	if err := e.snapWriter.Write(models.SnapshotFromTick(snap.Symbol, tick)); err != nil {
		e.stats.WriteFailures++
		metrics.IncrementWriteFailures()
		utils.Error(err, "Snapshot write failed", "symbol", snap.Symbol)
		return
	}

	e.stats.TicksExported++
	e.stats.LastExport = now
	metrics.IncrementExported()

	if e.cfg.Bridge.BatchSize > 0 && e.stats.TicksExported%uint64(e.cfg.Bridge.BatchSize) == 0 {
		utils.Logger.Infow("Bridge status",
			"ticks_exported", e.stats.TicksExported,
			"ticks_skipped", e.stats.TicksSkipped,
			"trades_executed", e.stats.TradesExecuted,
			"validation_errors", e.stats.ValidationErrors,
			"write_failures", e.stats.WriteFailures,
			"buffer_len", buf.Len(),
			"buffer_capacity", buf.Capacity())
	}
}

// PollCommands runs one command cycle: at most one instruction is consumed
// per poll, and exactly one response is written for each consumed
// instruction. Only active when the trading gate is on.
func (e *Engine) PollCommands(ctx context.Context) {
	if !e.cfg.Bridge.TradingEnabled {
		return
	}
	middleware.RecoverCycle(func() {
		start := e.ts.MonotonicMicros()
		e.processCommand(ctx)
		e.observeLatency(start)
	})
}

func (e *Engine) processCommand(ctx context.Context) {
	found, cmd, perr, err := e.channel.Poll()
	if err != nil {
		utils.Error(err, "Command poll failed")
		return
	}
	if !found {
		return
	}

	if perr != nil {
		utils.Logger.Warnw("Rejected malformed command",
			"command_id", perr.CommandID,
			"reason", perr.Reason)
		e.writeResponse(perr.CommandID, models.StatusRejected, perr.Reason, nil)
		return
	}

	if verr := e.channel.Validate(cmd, e.activeSymbol); verr != nil {
		utils.Logger.Warnw("Rejected command",
			"command_id", cmd.CommandID,
			"reason", verr.Reason)
		e.writeResponse(cmd.CommandID, models.StatusRejected, verr.Reason, nil)
		return
	}

	outcome := e.executor.Execute(ctx, cmd)
	if outcome.Status == models.StatusFilled || outcome.Status == models.StatusSubmitted {
		e.stats.TradesExecuted++
		utils.Logger.Infow("Trade executed",
			"command_id", cmd.CommandID,
			"action", cmd.Action,
			"quantity", cmd.Quantity,
			"symbol", cmd.Symbol,
			"order_id", outcome.OrderID,
			"status", outcome.Status)
	} else {
		utils.Logger.Warnw("Trade not executed",
			"command_id", cmd.CommandID,
			"status", outcome.Status,
			"message", outcome.Message)
	}
	e.writeResponse(cmd.CommandID, outcome.Status, outcome.Message, outcome.FillPrice)
}

func (e *Engine) writeResponse(commandID, status, message string, fillPrice *float64) {
	nowUs := e.ts.WallMicros()
	resp := models.TradeResponse{
		CommandID:   commandID,
		Status:      status,
		Message:     message,
		FillPrice:   fillPrice,
		Timestamp:   nowUs / 1000000,
		TimestampUs: nowUs,
	}
	metrics.IncrementCommands(status)
	if err := e.respWriter.Write(resp); err != nil {
		e.stats.WriteFailures++
		metrics.IncrementWriteFailures()
		utils.Error(err, "Response write failed", "command_id", commandID)
	}
}

func (e *Engine) observeLatency(startUs uint64) {
	latencyUs := e.ts.MonotonicMicros() - startUs
	metrics.RecordCycleLatency(time.Duration(latencyUs) * time.Microsecond)
	if e.cfg.Bridge.MaxLatencyUs > 0 && latencyUs > e.cfg.Bridge.MaxLatencyUs {
		metrics.IncrementLatencyOverruns()
		utils.Logger.Warnw("Cycle exceeded latency budget",
			"latency_us", latencyUs,
			"budget_us", e.cfg.Bridge.MaxLatencyUs)
	}
}

func (e *Engine) symbolAccepted(symbol string) bool {
	if len(e.filter) == 0 {
		return true
	}
	upper := strings.ToUpper(symbol)
	for _, entry := range e.filter {
		if strings.Contains(upper, entry) {
			return true
		}
	}
	return false
}

// Buffer returns the tick history for a symbol, for diagnostics and tests.
func (e *Engine) Buffer(symbol string) *history.TickBuffer {
	return e.buffer(symbol)
}

func (e *Engine) buffer(symbol string) *history.TickBuffer {
	buf, ok := e.buffers[symbol]
	if !ok {
		buf = history.NewTickBuffer(e.cfg.Bridge.BufferCapacity)
		e.buffers[symbol] = buf
	}
	return buf
}

// Stats returns a copy of the accumulated counters.
func (e *Engine) Stats() models.BridgeStats { return e.stats }
