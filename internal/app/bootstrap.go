package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/domain"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/engine"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/execution"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/infra/clob"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/ledger"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/storage"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/strategy"
	"github.com/sajid2024x/Polymarket-crypto-5min-arbitrage-bot/internal/telemetry"
)

// App wires config, storage, ledger, exchange, executor, strategy, telemetry,
// and the cycle engine together.
type App struct {
	Config *infra.Config

	store     *storage.FillStore
	ledger    *ledger.Ledger
	executor  *execution.Executor
	engine    *engine.Engine
	publisher telemetry.Publisher

	clobClient *clob.Client
	fillStream *clob.FillStreamWorker
	fillInbox  chan domain.Fill

	unlock func()
}

// New creates an uninitialized App.
func New() *App {
	return &App{}
}

// Initialize performs the startup sequence: config, logging, workspace,
// journal, ledger recovery, exchange wiring, and engine assembly.
func (a *App) Initialize(ctx context.Context, configPath string) error {
	slog.Info("🚀 Bootstrapping poly-arb...")

	// 1. Config
	if configPath == "" {
		configPath = infra.ResolveConfigPath()
	}
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	a.Config = cfg

	// 2. Logger
	slog.SetDefault(infra.NewLogger(cfg))

	// 3. Workspace layout, per-mode data isolation
	mode := strings.ToLower(cfg.Trading.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// 3.1 Single instance: two bots on one journal would corrupt positions.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	a.unlock = unlock

	// 4. Fill journal
	dbPath := filepath.Join(dataDir, "journal.db")
	store, err := storage.NewFillStore(dbPath)
	if err != nil {
		return err
	}
	a.store = store
	slog.Info("✅ Fill journal opened (WAL-mode)", slog.String("path", dbPath), slog.String("mode", mode))

	// 5. Ledger recovery from the journal
	a.ledger = ledger.New(store)
	if err := a.ledger.Recover(ctx); err != nil {
		return err
	}

	// 6. Exchange wiring
	a.clobClient = clob.NewClient(cfg)

	var exchange execution.Exchange
	var positions engine.PositionSource
	if mode == "real" {
		exchange = a.clobClient
		positions = a.clobClient

		a.fillInbox = make(chan domain.Fill, 256)
		a.fillStream = clob.NewFillStreamWorker(cfg, a.fillInbox)
	} else {
		paper := execution.NewPaperExchange()
		exchange = paper
		positions = paper
		slog.Info("📝 Paper trading mode, orders never leave the process")
	}

	// 7. Executor recovery: UNKNOWN orders from the last run come back and
	// block their markets until resolved.
	a.executor = execution.NewExecutor(exchange, a.ledger, store)
	if err := a.executor.Recover(ctx); err != nil {
		return err
	}

	// 8. Telemetry
	sinks := telemetry.MultiPublisher{telemetry.LogPublisher{}}
	if cfg.Telemetry.RedisAddr != "" {
		redisSink, err := telemetry.NewRedisPublisher(ctx, cfg.Telemetry.RedisAddr, cfg.Telemetry.Stream)
		if err != nil {
			slog.Warn("Redis telemetry sink unavailable, continuing without it", slog.Any("error", err))
		} else {
			sinks = append(sinks, redisSink)
		}
	}
	a.publisher = sinks

	// 9. Strategy and engine
	scalper := strategy.NewScalper(cfg)
	risk := strategy.NewRiskGuard(cfg)
	a.engine = engine.New(cfg, engine.SystemClock(), a.clobClient, positions,
		a.executor, a.ledger, scalper, risk, a.publisher)

	if cfg.Trading.KillSwitch {
		slog.Warn("🛑 KILL SWITCH ACTIVE: every cycle will skip trading")
	}

	slog.Info("✨ poly-arb initialized",
		slog.Any("symbols", cfg.Engine.Symbols),
		slog.Int64("window_secs", cfg.Engine.WindowSecs),
	)
	return nil
}

// Run starts the fill stream (real mode) and drives the engine until the
// context is cancelled, then winds down open orders.
func (a *App) Run(ctx context.Context) error {
	if a.fillStream != nil {
		if err := a.fillStream.Connect(ctx); err != nil {
			return fmt.Errorf("fill stream: %w", err)
		}
		go a.consumeFills(ctx)
	}

	err := a.engine.Run(ctx)

	a.windDown()
	return err
}

// consumeFills applies streamed fills in arrival order.
func (a *App) consumeFills(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fill := <-a.fillInbox:
			if err := a.executor.ApplyStreamFill(context.WithoutCancel(ctx), fill); err != nil {
				slog.Error("Stream fill apply failed",
					slog.String("fill_id", fill.FillID),
					slog.Any("error", err),
				)
			}
		}
	}
}

// windDown cancels whatever is still open so no order outlives the process
// unsupervised.
func (a *App) windDown() {
	slog.Info("👋 Winding down open orders...")
	ctx := context.Background()

	for _, marketID := range a.executor.OpenMarkets() {
		if err := a.executor.CancelOpen(ctx, marketID); err != nil {
			slog.Warn("Wind-down cancel failed",
				slog.String("market", marketID),
				slog.Any("error", err),
			)
		}
	}
}

// Close releases every resource in reverse initialization order.
func (a *App) Close() {
	if a.fillStream != nil {
		a.fillStream.Disconnect()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			slog.Warn("Telemetry close failed", slog.Any("error", err))
		}
	}
	if a.clobClient != nil {
		a.clobClient.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("Journal close failed", slog.Any("error", err))
		}
	}
	if a.unlock != nil {
		a.unlock()
	}
}
