package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aevon-lab/salespulse/internal/aggregation"
	coreagg "github.com/aevon-lab/salespulse/internal/core/aggregation"
	corecfg "github.com/aevon-lab/salespulse/internal/core/config"
	"github.com/aevon-lab/salespulse/internal/core/logging"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/aevon-lab/salespulse/internal/core/storage/memory"
	"github.com/aevon-lab/salespulse/internal/core/storage/mongodb"
	"github.com/aevon-lab/salespulse/internal/core/storage/postgres"
	"github.com/aevon-lab/salespulse/internal/history"
	"github.com/aevon-lab/salespulse/internal/ingestion"
	"github.com/aevon-lab/salespulse/internal/live"
	"github.com/aevon-lab/salespulse/internal/migrations"
	"github.com/aevon-lab/salespulse/internal/projection"
	"github.com/aevon-lab/salespulse/internal/server"
	"github.com/joho/godotenv"
)

const primeTimeout = time.Minute

func main() {
	configPath := flag.String("config", "salespulse.yaml", "Path to configuration file")
	envFile := flag.String("env-file", ".env", "Optional dotenv file loaded before config")
	flag.Parse()

	// 0. Environment overrides from .env (missing file is fine)
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load env file", "path", *envFile, "error", err)
	}

	// 1. Load Configuration
	cfg, err := corecfg.Load(configFileOrEmpty(*configPath))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	_, logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.Info("Loaded config", "database", cfg.Database.Type, "addr", cfg.Server.Addr(), "live", cfg.Live.Enabled)

	// 3. Initialize Storage
	store, archive, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "type", cfg.Database.Type, "error", err)
		os.Exit(1)
	}
	defer closeStore.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Batch aggregation
	aggregator := aggregation.NewAggregator(store, aggregation.Options{
		JoinWorkers:  cfg.Aggregation.JoinWorkers,
		QueryTimeout: cfg.Database.QueryTimeout,
		TopN:         cfg.Aggregation.TopN,
	})

	// 5. Live cache, websocket hub and change-feed dispatcher
	var (
		hub        *live.Hub
		dispatcher *live.Dispatcher
		primer     projection.LivePrimer
		liveView   projection.LiveView
		feedState  func() string
	)
	if cfg.Live.Enabled {
		window, err := cfg.Live.Window()
		if err != nil {
			slog.Error("Invalid live window", "error", err)
			os.Exit(1)
		}

		cache := live.NewCache(window, cfg.Aggregation.TopN)
		hub = live.NewHub(live.HubOptions{
			SubscriberBuffer: cfg.Live.SubscriberBuffer,
			WriteTimeout:     cfg.Live.WriteTimeout,
			PongTimeout:      cfg.Live.PongTimeout,
			CheckOrigin:      server.OriginChecker(cfg.Server.CORSOrigins),
		})
		dispatcher = live.NewDispatcher(store, cache, hub, live.DispatcherOptions{
			MinReconnect:   cfg.Feed.MinReconnect,
			MaxReconnect:   cfg.Feed.MaxReconnect,
			DedupWindow:    cfg.Feed.DedupWindow,
			ResolveTimeout: cfg.Feed.ResolveTimeout,
		})

		// Subscribe before the initial batch so no insert falls between them.
		if err := dispatcher.Start(ctx); err != nil {
			slog.Error("Failed to subscribe to sale inserts", "error", err)
			os.Exit(1)
		}
		if err := primeLive(ctx, aggregator, dispatcher, window); err != nil {
			slog.Error("Failed to prime live cache", "error", err)
			os.Exit(1)
		}

		primer, liveView = dispatcher, cache
		feedState = func() string { return dispatcher.State().String() }
	} else {
		slog.Info("Live cache disabled by config")
	}

	// 6. Report archiving
	scheduler := aggregation.NewArchiveScheduler(cfg.Archive.Interval, cfg.Archive.Lookback, aggregator, archive)

	// 7. HTTP services
	projectionSvc := projection.NewService(aggregator, primer, liveView)
	historySvc := history.NewService(archive)
	ingestionSvc := ingestion.NewService(store, cfg.Server.MaxBodySizeMB)

	srv := server.New(server.Options{
		Addr:           cfg.Server.Addr(),
		Mode:           cfg.Server.Mode,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		FeedState:      feedState,
	}, store)
	projectionSvc.RegisterRoutes(srv.API())
	historySvc.RegisterRoutes(srv.API())
	ingestionSvc.RegisterRoutes(srv.API())
	if hub != nil {
		srv.MountWebsocket(hub)
	}

	// 8. Start Services
	if cfg.Archive.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Archive scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Report archiving disabled by config")
	}

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
		cancel()
	}

	if dispatcher != nil {
		<-dispatcher.Done()
	}
	if hub != nil {
		hub.Close()
	}
	slog.Info("Shutdown complete")
}

// openStore returns the sales store and report archive for database.type,
// plus a closer for the underlying connection.
func openStore(cfg *corecfg.Config) (storage.EventStore, storage.ReportArchive, io.Closer, error) {
	switch cfg.Database.Type {
	case corecfg.DatabaseMongo:
		st, err := mongodb.Connect(mongodb.Options{
			URI:          cfg.Database.Mongo.URI,
			Database:     cfg.Database.Mongo.Database,
			MaxPoolSize:  cfg.Database.Mongo.MaxPoolSize,
			MinPoolSize:  cfg.Database.Mongo.MinPoolSize,
			StreamBuffer: cfg.Feed.StreamBuffer,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := st.EnsureIndexes(ctx); err != nil {
			st.Close() //nolint:errcheck
			return nil, nil, nil, err
		}
		return st, st, st, nil

	case corecfg.DatabaseMemory:
		st := memory.NewStore(cfg.Feed.StreamBuffer)
		slog.Warn("Using in-memory store; data is lost on exit")
		return st, st, st, nil

	default:
		adapter, err := postgres.NewAdapter(postgres.Options{
			DSN:                  cfg.Database.DSN,
			MaxOpenConns:         cfg.Database.MaxOpenConns,
			MaxIdleConns:         cfg.Database.MaxIdleConns,
			ListenerMinReconnect: cfg.Feed.MinReconnect,
			ListenerMaxReconnect: cfg.Feed.MaxReconnect,
			StreamBuffer:         cfg.Feed.StreamBuffer,
			Migrate: func(db *sql.DB) error {
				return migrations.RunMigrations(db, cfg.Database.AutoMigrate)
			},
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return adapter, postgres.NewReportAdapter(adapter.DB()), adapter, nil
	}
}

// primeLive computes the live window in batch and hands it to the cache.
func primeLive(ctx context.Context, aggregator *aggregation.Aggregator, dispatcher *live.Dispatcher, window coreagg.Window) error {
	ctx, cancel := context.WithTimeout(ctx, primeTimeout)
	defer cancel()

	tally, err := aggregator.Aggregate(ctx, window)
	if err != nil {
		return err
	}
	snap, err := dispatcher.Prime(ctx, tally)
	if err != nil {
		return err
	}
	slog.Info("Live cache primed",
		"total_revenue", snap.TotalRevenue.String(),
		"orders", snap.OrderCount,
		"version", snap.Version)
	return nil
}

func configFileOrEmpty(path string) string {
	if _, err := os.Stat(path); err != nil {
		slog.Info("Config file not found, using defaults and environment", "path", path)
		return ""
	}
	return path
}
