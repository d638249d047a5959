package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"sensor-alert-service/internal/api"
	"sensor-alert-service/internal/auth"
	"sensor-alert-service/internal/cache"
	"sensor-alert-service/internal/config"
	"sensor-alert-service/internal/db"
	"sensor-alert-service/internal/kafka"
	"sensor-alert-service/internal/logging"
	"sensor-alert-service/internal/models"
	"sensor-alert-service/internal/mqtt"
	"sensor-alert-service/internal/notification"
	"sensor-alert-service/internal/providers"
	"sensor-alert-service/internal/services"
	"sensor-alert-service/internal/simulator"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	dbConn, err := db.New(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	if err := dbConn.Migrate(ctx); err != nil {
		logger.Fatalf("Schema migration failed: %v", err)
	}
	if err := seed(ctx, dbConn, cfg); err != nil {
		logger.Fatalf("Seeding failed: %v", err)
	}

	// Threshold config, optionally behind Redis
	var configs services.ConfigRepository = dbConn
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("Redis at %s unreachable, config reads will fall through: %v", cfg.Redis.Addr, err)
		}
		configs = cache.NewCachedConfigStore(dbConn, cache.NewRedisKVStore(rdb), cfg.Redis.TTL, logger)
		logger.Infof("Config cache enabled at %s (ttl %s)", cfg.Redis.Addr, cfg.Redis.TTL)
	}

	// Notification sinks
	hub := notification.NewHub(cfg.Notification.MaxConnections, logger)
	sinks := []notification.Sink{hub}

	if cfg.Kafka.Broker != "" {
		producer, err := kafka.NewProducer(cfg.Kafka.Broker, cfg.Kafka.Topic)
		if err != nil {
			logger.Fatalf("Kafka producer init failed: %v", err)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Errorf("Kafka producer close failed: %v", err)
			}
		}()
		sinks = append(sinks, producer)
		logger.Infof("Kafka producer initialized with topic: %s", cfg.Kafka.Topic)
	}

	if cfg.Telegram.BotToken != "" {
		tg, err := providers.NewTelegramSink(cfg.Telegram.BotToken, cfg.Telegram.ChatIDs, cfg.Telegram.RateLimit, logger)
		if err != nil {
			logger.Warnf("Telegram notifications disabled: %v", err)
		} else {
			sinks = append(sinks, tg)
			logger.Infof("Telegram notifications enabled for %d chats", len(cfg.Telegram.ChatIDs))
		}
	}

	var wg sync.WaitGroup
	dispatcher := notification.NewDispatcher(cfg.Notification.QueueSize, cfg.Notification.MaxWorkers, logger, sinks...)
	dispatcher.Start(ctx, &wg)

	// Sensor feed
	if cfg.Simulator.Enabled {
		sim := simulator.New(configs, dbConn, dispatcher, simulator.Options{
			Warmup:      cfg.Simulator.Warmup,
			MinInterval: cfg.Simulator.MinInterval,
			MaxInterval: cfg.Simulator.MaxInterval,
			Backoff:     cfg.Simulator.Backoff,
		}, logger)

		if cfg.MQTT.Broker != "" {
			pub, err := mqtt.NewPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic, logger)
			if err != nil {
				logger.Warnf("Reading mirror disabled: %v", err)
			} else {
				defer pub.Close()
				sim.WithPublisher(pub)
				logger.Infof("Mirroring readings to MQTT topic %s", cfg.MQTT.Topic)
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			sim.Run(ctx)
		}()
	}

	// Start API server
	tokens := auth.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)
	svc := services.New(configs, dbConn, dbConn, tokens, logger)
	router := api.NewRouter(svc, tokens, hub, logger, cfg)

	srv := &http.Server{
		Addr:              cfg.API.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting API server on %s", cfg.API.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("API server failed: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Infof("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("API shutdown failed: %v", err)
	}
	logger.Infof("Closing %d dashboard subscribers", hub.Count())
	hub.Close()
	wg.Wait()
	logger.Infof("Service stopped")
}

// seed creates the first config version and the first user on an empty database.
func seed(ctx context.Context, dbConn *db.DB, cfg config.Config) error {
	initial, err := models.NewThresholdConfig(cfg.Seed.TempMax, cfg.Seed.HumidityMax)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(cfg.Seed.Password)
	if err != nil {
		return err
	}
	user, err := models.NewUser(cfg.Seed.Username, hash)
	if err != nil {
		return err
	}
	return dbConn.Seed(ctx, initial, user)
}
