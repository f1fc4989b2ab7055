package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/ledgerkit/invoicing/internal/config"
	"github.com/ledgerkit/invoicing/internal/email"
	httpadapter "github.com/ledgerkit/invoicing/internal/interfaces/http"
	"github.com/ledgerkit/invoicing/internal/reminder"
	"github.com/ledgerkit/invoicing/internal/store"
	"github.com/ledgerkit/invoicing/internal/worker"
	"github.com/ledgerkit/invoicing/pkg/database"
	"github.com/ledgerkit/invoicing/pkg/utils"
)

func main() {
	// Local .env for development; absent in production
	_ = gotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoicing service",
		zap.String("store_backend", cfg.Store.Backend),
		zap.Int("port", cfg.Server.Port))

	invoices, cleanup, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize invoice store", zap.Error(err))
	}
	defer cleanup()

	notifier := email.NewSender(email.Config{
		APIURL:      cfg.Email.APIURL,
		APIKey:      cfg.Email.APIKey,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		Timeout:     cfg.Email.Timeout,
	}, logger)

	// The engine reads the raw store so escalation decisions never see a
	// stale reminder history. The TTL cache only fronts the read-heavy
	// CRUD listing paths.
	engine := reminder.NewEngine(invoices, notifier, logger)
	cached := store.NewCachedStore(invoices, cfg.Store.CacheTTL, nil)

	messageOpts := reminder.MessageOptions{
		PaymentLinkBase: cfg.Reminder.PaymentLinkBase,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workers := worker.NewManager(logger)
	if cfg.Reminder.Interval > 0 {
		workers.Register(worker.NewReminderScheduler(engine, cfg.Reminder.Interval, messageOpts, logger))
	}
	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, cached, engine, cfg.Reminder.RunToken, logger)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("Shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	workers.StopAll()
	logger.Info("Server exited")
}

// buildStore constructs the configured store backend and returns a
// cleanup function for resources that need closing.
func buildStore(cfg *config.Config, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), func() {}, nil

	case config.BackendFile:
		fs, err := store.NewFileStore(cfg.Store.FilePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil

	case config.BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Database.Path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := database.New(database.Config{
			Path:            cfg.Store.Database.Path,
			MaxOpenConns:    cfg.Store.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Store.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Store.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.NewMigrator(db, logger).Run(); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store.NewSQLiteStore(db, logger), func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %q", cfg.Store.Backend)
	}
}
