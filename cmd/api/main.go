// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"prospector/internal/adapter/storage"
	"prospector/internal/config"
	domainsignal "prospector/internal/domain/signal"
	"prospector/internal/server"
	"prospector/internal/service/competition"
	"prospector/internal/service/discovery"
	"prospector/internal/service/scoring"
	"prospector/internal/service/scout"
	"prospector/internal/service/trends"
	"prospector/internal/service/validation"
)

func main() {
	// Load .env if present, then configuration from environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, logger)
	if err != nil {
		logger.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer natsConn.Close()

	// Initialize storage adapters
	opportunityStore := storage.NewOpportunityStore(db)
	if err := opportunityStore.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure database schema", zap.Error(err))
	}

	// Initialize signal sources. The Grok scout is the primary X source; the
	// recent-search scout takes over when only a bearer token is configured.
	var primaryScout domainsignal.SocialScout = scout.NewXScout(scout.XConfig{
		APIKey:  cfg.Sources.XAPIKey,
		BaseURL: cfg.Sources.XBaseURL,
		Model:   cfg.Sources.XModel,
	}, logger)
	if cfg.Sources.XAPIKey == "" && cfg.Sources.TwitterBearer != "" {
		primaryScout = scout.NewTwitterScout(scout.TwitterConfig{
			BearerToken: cfg.Sources.TwitterBearer,
		}, logger)
	}

	redditScout := scout.NewRedditScout(scout.RedditConfig{
		BaseURL:   cfg.Sources.RedditBaseURL,
		UserAgent: cfg.Sources.RedditUserAgent,
		Enabled:   cfg.Sources.RedditEnabled,
	}, logger)

	gumroadScout := scout.NewGumroadScout(scout.GumroadConfig{
		BaseURL:   cfg.Sources.GumroadBaseURL,
		UserAgent: cfg.Sources.RedditUserAgent,
	}, logger)

	trendsScout := scout.NewTrendsScout(scout.TrendsConfig{}, logger)

	// Initialize enrichment services
	trendCache := trends.NewCache(trendsScout, trends.Config{
		Timeout:   cfg.Trends.Timeout,
		TTL:       cfg.Trends.CacheTTL,
		Cooldown:  cfg.Trends.Cooldown,
		Region:    cfg.Trends.Region,
		Timeframe: cfg.Trends.Timeframe,
	}, logger)

	competitionAnalyzer := competition.NewAnalyzer(gumroadScout, competition.Config{
		ListingLimit: cfg.Competition.ListingLimit,
	}, logger)

	scorer := scoring.NewScorer(logger)

	// Initialize the discovery aggregator
	aggregator := discovery.NewAggregator(
		primaryScout,
		redditScout,
		trendCache,
		competitionAnalyzer,
		scorer,
		opportunityStore,
		natsConn,
		discovery.Config{
			Topics:           cfg.Discovery.Topics,
			TimeFilter:       cfg.Discovery.TimeFilter,
			MinScore:         cfg.Discovery.MinScore,
			MaxOpportunities: cfg.Discovery.MaxOpportunities,
			CheckDuplicates:  cfg.Discovery.CheckDuplicates,
			LookbackDays:     cfg.Discovery.LookbackDays,
			UseTrends:        cfg.Discovery.UseTrends,
			TopicConcurrency: cfg.Discovery.TopicConcurrency,
			EventsTopic:      cfg.Discovery.EventsTopic,
		},
		logger,
	)

	// Optionally start scheduled discovery runs
	var scheduler *discovery.Scheduler
	if cfg.Discovery.ScheduleEnabled {
		scheduler = discovery.NewScheduler(aggregator, cfg.Discovery.Schedule, cfg.Discovery.RunTimeout, logger)
		if err := scheduler.Start(); err != nil {
			logger.Fatal("failed to start discovery scheduler", zap.Error(err))
		}
	}

	// Validation campaign tracker
	tracker := validation.NewTracker(cfg.Validation.Window, logger)

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		cfg.Discovery.EventsTopic,
		natsConn,
		aggregator,
		scheduler,
		opportunityStore,
		tracker,
		logger,
	)

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server",
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	logger.Info("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	logger.Info("shutdown complete")
}

// Initialize the logger per environment
func initLogger(cfg config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
