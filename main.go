// main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lambo313/auralumic-sub001/cmd"
	"github.com/lambo313/auralumic-sub001/internal/data/repository"
	"github.com/lambo313/auralumic-sub001/internal/data/repository/memory"
	"github.com/lambo313/auralumic-sub001/internal/wire"
	"github.com/lambo313/auralumic-sub001/pkg/database"
	"github.com/lambo313/auralumic-sub001/pkg/notify"
	"github.com/lambo313/auralumic-sub001/pkg/tracing"
	"github.com/lambo313/auralumic-sub001/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("store", config.App.StoreDriver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracing, err := tracing.Setup(ctx, config.Otel.Endpoint, config.Otel.ServiceName)
	if err != nil {
		logger.Fatal("Failed to set up tracing", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	// Storage
	repos, closeStore := openStore(ctx, config, logger)
	defer closeStore()

	// Notifications
	notifier, closeNotifier := openNotifier(config, logger)
	defer closeNotifier()

	// Wire all dependencies
	app := wire.Wiring(repos, config, notifier, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}

func openStore(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func()) {
	if config.App.StoreDriver == "memory" {
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.New().Repository(), func() {}
	}

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	logger.Info("Database connected successfully")

	return repository.NewRepository(db, logger), db.Close
}

func openNotifier(config *utils.Config, logger *zap.Logger) (notify.Notifier, func()) {
	if config.AMQP.URL == "" {
		logger.Info("AMQP_URL not set, notifications are logged only")
		return notify.NewLogNotifier(logger), func() {}
	}

	notifier, err := notify.NewAMQPNotifier(config.AMQP.URL, config.AMQP.Exchange)
	if err != nil {
		logger.Fatal("Failed to connect to message broker", zap.Error(err))
	}

	logger.Info("Publishing notifications to AMQP", zap.String("exchange", config.AMQP.Exchange))

	return notifier, func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("Failed to close AMQP connection", zap.Error(err))
		}
	}
}
