package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/gwentfree/gwent-server-go/internal/config"
	"github.com/gwentfree/gwent-server-go/internal/escrow"
	"github.com/gwentfree/gwent-server-go/internal/game"
	"github.com/gwentfree/gwent-server-go/internal/game/ai"
	"github.com/gwentfree/gwent-server-go/internal/repository"
	"github.com/gwentfree/gwent-server-go/internal/scheduler"
	"github.com/gwentfree/gwent-server-go/internal/server"
	"github.com/gwentfree/gwent-server-go/internal/session"
)

var (
	configPath = flag.String("config", "config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting gwent server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: Postgres when configured, the built-in demo content and
	// an in-memory ledger otherwise.
	var (
		ledger  escrow.CurrencyLedger
		catalog game.Catalog
		decks   game.DeckSource
		aiDecks game.DeckSource
		collab  game.Collaborators
	)
	if cfg.Database.URL != "" {
		pool, err := repository.NewPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		store := repository.NewCardStore(pool, logger)
		loaded, err := store.LoadCatalog(ctx)
		if err != nil {
			logger.Fatal("failed to load card catalog", zap.Error(err))
		}
		logger.Info("card catalog loaded", zap.Int("cards", len(loaded)))

		ledger = repository.NewLedgerRepository(pool, logger)
		catalog = loaded
		decks = store
		// AI opponents have no registered decks; deal them from the
		// loaded catalog instead.
		aiDecks = repository.NewCatalogDecks(loaded)
	} else {
		logger.Warn("no database configured, using in-memory ledger and demo cards")
		ledger = repository.NewMemoryLedger()
		catalog = repository.DemoCatalog()
		decks = repository.NewDemoDecks()
		aiDecks = decks
		collab.Effects = repository.DemoEffects{}
	}

	collab.Notifier = game.NewReplayRecorder(logger, "replays")

	sched := scheduler.New(logger)
	engine := ai.NewEngine(logger)

	var mgr *session.Manager
	esc := escrow.New(ledger, logger,
		escrow.WithBounds(cfg.Escrow.MinStake, cfg.Escrow.MaxStake),
		escrow.WithLockTTL(cfg.Escrow.LockTTL),
		escrow.WithActiveCheck(func(id game.ParticipantID) bool {
			return mgr.HasActiveMatch(id)
		}),
	)
	mgr = session.NewManager(logger, catalog, decks, esc, sched, engine)
	mgr.ProvisionAIDecks(aiDecks)

	hub := server.NewHub(logger, mgr, cfg.Game, collab)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCancel(hub.Run(ctx))
	})
	tick := cfg.Game.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	g.Go(func() error {
		return ignoreCancel(sched.Run(ctx, tick))
	})
	g.Go(func() error {
		return ignoreCancel(mgr.Run(ctx, time.Minute))
	})
	g.Go(func() error {
		return ignoreCancel(esc.Run(ctx, 10*time.Minute))
	})
	g.Go(func() error {
		logger.Info("websocket server listening", zap.String("address", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("server stopped")
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// initLogger builds the zap logger for the configured level.
func initLogger(levelName string) (*zap.Logger, error) {
	var level zapcore.Level
	switch levelName {
	case "debug":
		level = zapcore.DebugLevel
	case "info", "":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", levelName)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
