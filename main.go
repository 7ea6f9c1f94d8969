package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sierra_bridge/bridge"
	"sierra_bridge/clock"
	"sierra_bridge/command"
	"sierra_bridge/config"
	"sierra_bridge/export"
	"sierra_bridge/host"
	"sierra_bridge/metrics"
	"sierra_bridge/monitoring"
	"sierra_bridge/normalize"
	"sierra_bridge/parser"
	"sierra_bridge/trade"
	"sierra_bridge/utils"
	"sierra_bridge/ws"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// lastQuotes caches the most recent bid/ask per symbol from the feed. Only
// the engine loop goroutine touches it.
type lastQuotes struct {
	quotes map[string][2]float64
}

func newLastQuotes() *lastQuotes {
	return &lastQuotes{quotes: make(map[string][2]float64)}
}

func (q *lastQuotes) update(symbol string, bid, ask float64) {
	q.quotes[symbol] = [2]float64{bid, ask}
}

func (q *lastQuotes) BestBidAsk(symbol string) (float64, float64, bool) {
	pair, ok := q.quotes[symbol]
	if !ok {
		return 0, 0, false
	}
	return pair[0], pair[1], true
}

func main() {
	// Load environment variables; a missing .env file is fine in production.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Could not load .env file: %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if cfg.App.LoggingEnabled {
		if err := utils.InitLogger(cfg.App.LogLevel); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		utils.InitNopLogger()
	}

	runID := uuid.New().String()
	utils.Logger.Infow("Bridge starting",
		"run_id", runID,
		"output_dir", cfg.Bridge.OutputDir,
		"tick_capture", cfg.Bridge.TickCapture,
		"trading_enabled", cfg.Bridge.TradingEnabled,
		"volume_policy", cfg.Bridge.VolumePolicy,
		"symbol_filter", cfg.Bridge.SymbolFilter)
	if cfg.Bridge.TradingEnabled {
		utils.Logger.Infow("TRADING ENABLED - commands will be executed")
	} else {
		utils.Logger.Infow("Trading disabled - market data only mode")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Writers and command channel share the output directory.
	snapWriter, err := export.NewSnapshotWriter(cfg.Bridge.OutputDir)
	if err != nil {
		utils.Logger.Fatalw("Failed to prepare output directory", "error", err)
	}
	respWriter, err := export.NewResponseWriter(cfg.Bridge.OutputDir)
	if err != nil {
		utils.Logger.Fatalw("Failed to prepare output directory", "error", err)
	}
	channel := command.NewChannel(cfg.Bridge.OutputDir, cfg.Bridge.MaxPositionSize)

	ts := clock.NewSystem()
	// The feed carries no depth book, so the bid/ask probe tier is
	// unavailable and resolution falls through to the synthetic spread.
	norm := normalize.New(normalize.Options{
		VolumePolicy:     cfg.Bridge.VolumePolicy,
		TickSize:         cfg.Bridge.TickSize,
		MaxChangePercent: cfg.Bridge.MaxChangePercent,
		UseMarketDepth:   cfg.Bridge.UseMarketDepth,
	}, ts, nil)

	session := host.NewSession(cfg.Host.OrderURL)
	quotes := newLastQuotes()
	executor := trade.NewExecutor(trade.Options{
		TradingEnabled:  cfg.Bridge.TradingEnabled,
		MaxPositionSize: cfg.Bridge.MaxPositionSize,
	}, session, quotes)

	engine := bridge.NewEngine(cfg, ts, norm, snapWriter, respWriter, channel, executor)

	// Feed frames funnel into the engine loop; drops are counted, never
	// blocked on.
	frames := make(chan *parser.FeedFrame, 256)
	feed := ws.NewFeedClient(cfg.Host.FeedURL, nil)
	feed.OnFrame = func(data []byte) {
		frame, err := parser.ParseFeedFrame(data)
		if err != nil {
			utils.Logger.Warnw("Dropping unparseable feed frame", "error", err)
			return
		}
		select {
		case frames <- frame:
		default:
			utils.Logger.Warnw("Feed frame dropped, engine loop is behind",
				"symbol", frame.Symbol)
		}
	}

	monitoring.RegisterHealthCheck("feed", feed.Connected)
	monitoring.RegisterHealthCheck("output_dir", func() bool {
		info, err := os.Stat(cfg.Bridge.OutputDir)
		return err == nil && info.IsDir()
	})
	monitoring.StartMetricsCollection()

	// Metrics and health endpoint.
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/health", monitoring.HealthCheckHandler)
	metricsMux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.App.MetricsPort),
		Handler: utils.RequestLogger(metricsMux),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Error(err, "Metrics server error")
		}
	}()

	// Initial feed connection with exponential backoff, then the client
	// reconnects on its own.
	connect := func() error { return feed.Connect() }
	if err := backoff.RetryNotify(connect, utils.NewFeedBackoff(),
		func(err error, duration time.Duration) {
			utils.Logger.Warnw("Feed connect failed, retrying",
				"error", err,
				"retry_in", duration)
		}); err != nil {
		utils.Logger.Fatalw("Could not connect to host feed", "error", err)
	}
	go func() {
		if err := feed.Listen(ctx); err != nil && ctx.Err() == nil {
			utils.Error(err, "Feed listener stopped")
		}
	}()

	// Engine loop. A single goroutine drives both data and command cycles
	// so invocations never overlap.
	tradeTicker := time.NewTicker(cfg.Bridge.TradePollEvery)
	defer tradeTicker.Stop()

	for {
		select {
		case frame := <-frames:
			quotes.update(frame.Symbol, frame.GetBid(), frame.GetAsk())
			engine.OnMarketData(frame.Snapshot())
		case <-tradeTicker.C:
			engine.PollCommands(ctx)
		case <-ctx.Done():
			exported, errors, _, uptime := metrics.GetStats()
			utils.Logger.Infow("Bridge stopping",
				"run_id", runID,
				"ticks_exported", exported,
				"errors", errors,
				"uptime", uptime.String())
			feed.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
			return
		}
	}
}
