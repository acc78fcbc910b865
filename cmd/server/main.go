package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/trogers1052/skill-exchange-service/internal/api"
	"github.com/trogers1052/skill-exchange-service/internal/config"
	"github.com/trogers1052/skill-exchange-service/internal/database"
	"github.com/trogers1052/skill-exchange-service/internal/kafka"
	"github.com/trogers1052/skill-exchange-service/internal/logger"
	"github.com/trogers1052/skill-exchange-service/internal/messaging"
	"github.com/trogers1052/skill-exchange-service/internal/metrics"
	"github.com/trogers1052/skill-exchange-service/internal/middleware"
	"github.com/trogers1052/skill-exchange-service/internal/redis"
	"github.com/trogers1052/skill-exchange-service/internal/trading"
)

func main() {
	log := logger.New("skill-exchange-service")
	defer log.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "error", err)
	}
	if !cfg.App.DotEnvLoaded {
		log.Debug("No .env file found, using environment only")
	}

	// Connect to database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := runMigrations(log, cfg.Database.MigrationsPath, cfg.Database.ConnectionString()); err != nil {
		log.Fatal("Failed to run database migrations", "error", err)
	}
	log.Info("Connected to PostgreSQL database", "host", cfg.Database.Host, "db", cfg.Database.DBName)

	m := metrics.New()

	deps := api.Deps{DB: db, Log: log, KafkaEnabled: cfg.Kafka.Enabled}

	// Connect to Redis. Without it messages are still stored but not streamed.
	var notifier messaging.Notifier
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Warn("Failed to connect to Redis, continuing without live messages", "error", err)
	} else {
		defer redisClient.Close()
		notifier = redisClient
		deps.Redis = redisClient
		deps.Streams = api.RedisSubscriber{Client: redisClient}
		log.Info("Connected to Redis", "addr", cfg.Redis.Address())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events trading.EventPublisher
	var skillsConsumer *kafka.SkillsConsumer
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
		defer producer.Close()
		events = producer
		log.Info("Kafka producer initialized", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.EventsTopic)

		skillsConsumer = kafka.NewSkillsConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.SkillsTopic,
			cfg.Kafka.ConsumerGroup,
			db,
			log,
		)
		go func() {
			log.Info("Starting Kafka skills consumer",
				"topic", cfg.Kafka.SkillsTopic, "group", cfg.Kafka.ConsumerGroup)
			if err := skillsConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Kafka skills consumer error", "error", err)
			}
		}()
	} else {
		log.Info("Kafka disabled, trade events will not be published")
	}

	tradingSvc := trading.NewService(db, events, m, log)
	deps.Trades = tradingSvc
	deps.Messages = messaging.NewService(tradingSvc, db, notifier, log)

	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret)
	router := api.SetupRoutes(api.NewHandler(deps), auth, m, log)

	addr := cfg.Server.Address()
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting server", "addr", addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Stop the Kafka consumer loop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if skillsConsumer != nil {
		if err := skillsConsumer.Close(); err != nil {
			log.Error("Error closing Kafka skills consumer", "error", err)
		}
	}

	log.Info("Server stopped")
}

func runMigrations(log *logger.Logger, sourceURL, databaseURL string) error {
	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("No migrations to apply; database is up to date")
			return nil
		}
		return err
	}
	log.Info("Database migrations applied")
	return nil
}
