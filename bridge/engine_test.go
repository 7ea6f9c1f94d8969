package bridge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sierra_bridge/command"
	"sierra_bridge/config"
	"sierra_bridge/export"
	"sierra_bridge/host"
	"sierra_bridge/models"
	"sierra_bridge/normalize"
	"sierra_bridge/trade"
	"sierra_bridge/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	utils.InitNopLogger()
	m.Run()
}

type fakeClock struct {
	wall uint64
	mono uint64
}

func (c *fakeClock) WallMicros() uint64 { return c.wall }

func (c *fakeClock) MonotonicMicros() uint64 {
	c.mono += 10
	return c.mono
}

type fakeRouter struct {
	calls  int
	result host.SubmitResult
	err    error
}

func (r *fakeRouter) SubmitOrder(ctx context.Context, order host.Order) (host.SubmitResult, error) {
	r.calls++
	return r.result, r.err
}

type fakeQuotes struct {
	bid, ask float64
	ok       bool
}

func (q *fakeQuotes) BestBidAsk(symbol string) (float64, float64, bool) {
	return q.bid, q.ask, q.ok
}

type testHarness struct {
	engine  *Engine
	router  *fakeRouter
	channel *command.Channel
	respDir string
	snapDir string
}

func newHarness(t *testing.T, tradingEnabled bool) *testHarness {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Bridge.OutputDir = dir
	cfg.Bridge.TickCapture = true
	cfg.Bridge.TradingEnabled = tradingEnabled
	cfg.Bridge.SymbolFilter = "NQ,ES"
	cfg.Bridge.UpdateInterval = 0
	cfg.Bridge.MaxPositionSize = 10
	cfg.Bridge.BufferCapacity = 100
	cfg.Bridge.VWAPWindow = 10
	cfg.Bridge.VolumePolicy = config.VolumePolicyReported
	cfg.Bridge.TickSize = 0.25
	cfg.Bridge.MaxChangePercent = 50.0

	ts := &fakeClock{wall: 1724660000000000}
	norm := normalize.New(normalize.Options{
		VolumePolicy:     cfg.Bridge.VolumePolicy,
		TickSize:         cfg.Bridge.TickSize,
		MaxChangePercent: cfg.Bridge.MaxChangePercent,
	}, ts, nil)

	snapWriter, err := export.NewSnapshotWriter(dir)
	require.NoError(t, err)
	respWriter, err := export.NewResponseWriter(dir)
	require.NoError(t, err)

	ch := command.NewChannel(dir, cfg.Bridge.MaxPositionSize)
	router := &fakeRouter{result: host.SubmitResult{OrderID: 7}}
	executor := trade.NewExecutor(trade.Options{
		TradingEnabled:  tradingEnabled,
		MaxPositionSize: cfg.Bridge.MaxPositionSize,
	}, router, &fakeQuotes{bid: 100.0, ask: 101.0, ok: true})

	return &testHarness{
		engine:  NewEngine(cfg, ts, norm, snapWriter, respWriter, ch, executor),
		router:  router,
		channel: ch,
		respDir: dir,
		snapDir: dir,
	}
}

func snapshot(symbol string, price float64, volume uint32) models.HostSnapshot {
	return models.HostSnapshot{
		Symbol:      symbol,
		Price:       price,
		Volume:      volume,
		Bid:         price - 0.25,
		Ask:         price + 0.25,
		BidSize:     12,
		AskSize:     9,
		Open:        price,
		High:        price + 1,
		Low:         price - 1,
		TimestampUs: 1724660000000000,
	}
}

func writeCommand(t *testing.T, h *testHarness, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.channel.Path(), []byte(body), 0644))
}

func readResponse(t *testing.T, h *testHarness, id string) models.TradeResponse {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.respDir, "trade_response_"+id+".json"))
	require.NoError(t, err)
	var resp models.TradeResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestFirstObservationExportsSnapshot(t *testing.T) {
	h := newHarness(t, false)

	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))

	buf := h.engine.Buffer("NQ")
	assert.Equal(t, uint64(1), buf.Sequence())

	data, err := os.ReadFile(filepath.Join(h.snapDir, "NQ.json"))
	require.NoError(t, err)

	var snap models.MarketSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "NQ", snap.Symbol)
	assert.Equal(t, 100.25, snap.Price)
	assert.Equal(t, uint32(5), snap.Volume)
	assert.Equal(t, uint64(5), snap.TotalVolume)
	assert.Equal(t, "B", snap.TradeSide, "quote-present tie at the midpoint classifies as buy")
	assert.Equal(t, 100.25, snap.VWAP, "single-tick window VWAP equals the trade price")

	stats := h.engine.Stats()
	assert.Equal(t, uint64(1), stats.TicksExported)
}

func TestUnchangedSnapshotSkipped(t *testing.T) {
	h := newHarness(t, false)

	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))
	h.engine.OnMarketData(snapshot("NQ", 100.25, 0))

	buf := h.engine.Buffer("NQ")
	assert.Equal(t, uint64(1), buf.Sequence(), "skipped event must not advance the sequence")

	stats := h.engine.Stats()
	assert.Equal(t, uint64(1), stats.TicksExported)
	assert.Equal(t, uint64(1), stats.TicksSkipped)
}

func TestInvalidSnapshotCounted(t *testing.T) {
	h := newHarness(t, false)

	bad := snapshot("NQ", -1, 5)
	h.engine.OnMarketData(bad)

	assert.Equal(t, uint64(0), h.engine.Buffer("NQ").Sequence())
	assert.Equal(t, uint64(1), h.engine.Stats().ValidationErrors)
}

func TestSymbolFilterRejectsUnconfiguredInstrument(t *testing.T) {
	h := newHarness(t, false)

	h.engine.OnMarketData(snapshot("GC", 2400.0, 5))

	assert.Equal(t, uint64(0), h.engine.Buffer("GC").Sequence())
	_, err := os.Stat(filepath.Join(h.snapDir, "GC.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestCommandExecutedAndResponseWritten(t *testing.T) {
	h := newHarness(t, true)

	// Set the active instrument before any command is accepted.
	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))

	writeCommand(t, h, `{"command_id":"cmd-1","action":"BUY","symbol":"NQ","quantity":2,"order_type":"MARKET"}`)
	h.engine.PollCommands(context.Background())

	assert.Equal(t, 1, h.router.calls)

	resp := readResponse(t, h, "cmd_1")
	assert.Equal(t, "cmd-1", resp.CommandID)
	assert.Equal(t, models.StatusFilled, resp.Status)
	require.NotNil(t, resp.FillPrice)
	assert.Equal(t, 101.0, *resp.FillPrice, "market buy fills at the ask")

	_, err := os.Stat(h.channel.Path())
	assert.True(t, os.IsNotExist(err), "consumed command artifact must be deleted")
	assert.Equal(t, uint64(1), h.engine.Stats().TradesExecuted)
}

func TestZeroQuantityCommandRejected(t *testing.T) {
	h := newHarness(t, true)
	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))

	writeCommand(t, h, `{"command_id":"cmd-2","action":"BUY","symbol":"NQ","quantity":0}`)
	h.engine.PollCommands(context.Background())

	assert.Zero(t, h.router.calls, "rejected command must not reach the host")
	resp := readResponse(t, h, "cmd_2")
	assert.Equal(t, models.StatusRejected, resp.Status)
	assert.Nil(t, resp.FillPrice)
}

func TestMalformedCommandRejectedWithSyntheticID(t *testing.T) {
	h := newHarness(t, true)

	writeCommand(t, h, `{not json`)
	h.engine.PollCommands(context.Background())

	resp := readResponse(t, h, "invalid")
	assert.Equal(t, models.StatusRejected, resp.Status)

	_, err := os.Stat(h.channel.Path())
	assert.True(t, os.IsNotExist(err), "malformed artifact is still consumed")
}

func TestSymbolMismatchRejected(t *testing.T) {
	h := newHarness(t, true)
	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))

	writeCommand(t, h, `{"command_id":"cmd-3","action":"SELL","symbol":"ES","quantity":1}`)
	h.engine.PollCommands(context.Background())

	assert.Zero(t, h.router.calls)
	resp := readResponse(t, h, "cmd_3")
	assert.Equal(t, models.StatusRejected, resp.Status)
}

func TestTradingDisabledLeavesArtifactUntouched(t *testing.T) {
	h := newHarness(t, false)

	writeCommand(t, h, `{"command_id":"cmd-4","action":"BUY","symbol":"NQ","quantity":1}`)
	h.engine.PollCommands(context.Background())

	data, err := os.ReadFile(h.channel.Path())
	require.NoError(t, err, "gate off must not consume the artifact")
	assert.Contains(t, string(data), "cmd-4")
	assert.Zero(t, h.router.calls)
}

func TestConsumedCommandNotReprocessed(t *testing.T) {
	h := newHarness(t, true)
	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))

	writeCommand(t, h, `{"command_id":"cmd-5","action":"BUY","symbol":"NQ","quantity":1}`)
	h.engine.PollCommands(context.Background())
	h.engine.PollCommands(context.Background())

	assert.Equal(t, 1, h.router.calls, "a consumed instruction is never executed twice")
}

func TestThrottleSuppressesRapidUpdates(t *testing.T) {
	h := newHarness(t, false)
	h.engine.cfg.Bridge.UpdateInterval = time.Minute

	h.engine.OnMarketData(snapshot("NQ", 100.25, 5))
	h.engine.OnMarketData(snapshot("NQ", 100.50, 3))

	assert.Equal(t, uint64(1), h.engine.Buffer("NQ").Sequence())
	assert.Equal(t, uint64(1), h.engine.Stats().TicksExported)
}
