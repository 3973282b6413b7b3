package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"fxsim/config"
	"fxsim/internal/adapters/binancefeed"
	"fxsim/internal/adapters/logger"
	"fxsim/internal/adapters/sqlite"
	"fxsim/internal/adapters/yourbourse"
	"fxsim/internal/app"
	"fxsim/internal/feed"
	"fxsim/internal/history"
	"fxsim/internal/ledger"
	"fxsim/internal/ports"
	"fxsim/internal/risk"
	"fxsim/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewSlogLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Store (Database Adapter)
	store, err := sqlite.NewStore(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize ledger store")
		log.Fatalf("FATAL: Failed to initialize ledger store: %v", err) // Also log to stderr
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing ledger store")
		}
	}()
	appLogger.Info(context.Background(), "Ledger store initialized")

	// 4. Initialize Ledger (hydrates from the store)
	book, err := ledger.New(context.Background(), ledger.Config{
		Store:          store,
		Logger:         appLogger,
		InitialBalance: cfg.InitialBalance,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize ledger")
		log.Fatalf("FATAL: Failed to initialize ledger: %v", err)
	}

	// 5. Initialize Tick Recorder and Risk Profile
	recorder := history.NewRecorder(0)

	profile, err := risk.ProfileByName(cfg.RiskProfile)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Unknown risk profile")
		log.Fatalf("FATAL: Unknown risk profile: %v", err)
	}
	appLogger.Info(context.Background(), "Risk profile selected", map[string]interface{}{"profile": profile.Name, "maxLots": profile.MaxLots})

	// 6. Initialize Price Feed
	priceFeed, err := buildFeed(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize price feed")
		log.Fatalf("FATAL: Failed to initialize price feed: %v", err)
	}
	appLogger.Info(context.Background(), "Price feed initialized", map[string]interface{}{"mode": cfg.FeedMode, "symbols": cfg.Symbols})

	// 7. Initialize API Server
	apiServer, err := server.New(server.Config{
		Logger:   appLogger,
		Ledger:   book,
		Recorder: recorder,
		Profile:  profile,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize API server")
		log.Fatalf("FATAL: Failed to initialize API server: %v", err)
	}

	// 8. Initialize Application Service
	service, err := app.NewService(app.Config{
		Logger:   appLogger,
		Ledger:   book,
		Recorder: recorder,
		Feed:     priceFeed,
		Handler:  apiServer.Routes(),
		HTTPAddr: cfg.HTTPAddr,
		Sink:     apiServer,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize application service")
		log.Fatalf("FATAL: Failed to initialize application service: %v", err)
	}

	// 9. Start the Service
	if err := service.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Service exited with error")
		log.Fatalf("FATAL: Service exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// buildFeed selects the price source by FEED_MODE.
func buildFeed(cfg *config.Config, appLogger ports.Logger) (ports.PriceFeed, error) {
	switch cfg.FeedMode {
	case config.FeedModeSimulator:
		return feed.NewSimulator(feed.SimulatorConfig{
			Symbols:  cfg.Symbols,
			Interval: cfg.TickInterval,
			Logger:   appLogger,
		})
	case config.FeedModeYourBourse:
		return yourbourse.New(yourbourse.Config{
			WSURL:          cfg.YBWSURL,
			APIKey:         cfg.YBAPIKey,
			Symbols:        cfg.Symbols,
			Logger:         appLogger,
			ReconnectDelay: cfg.ReconnectDelay,
			MaxAttempts:    cfg.MaxReconnectAttempts,
		})
	case config.FeedModeBinance:
		return binancefeed.New(binancefeed.Config{
			Symbols:        cfg.Symbols,
			Logger:         appLogger,
			ReconnectDelay: cfg.ReconnectDelay,
			MaxAttempts:    cfg.MaxReconnectAttempts,
		})
	default:
		return nil, fmt.Errorf("unknown feed mode %q", cfg.FeedMode)
	}
}
