// @title                       Mechanic Tracking API
// @version                     1.0
// @description                 Live location tracking between customers and mechanics of a job.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mechanicapp/tracking-system/internal/api"
	"github.com/mechanicapp/tracking-system/internal/api/handler"
	"github.com/mechanicapp/tracking-system/internal/api/stream"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
	"github.com/mechanicapp/tracking-system/internal/core/service"
	"github.com/mechanicapp/tracking-system/internal/infrastructure/backend"
	"github.com/mechanicapp/tracking-system/internal/infrastructure/config"
	mongodb "github.com/mechanicapp/tracking-system/internal/infrastructure/db/mongo"
	redisdb "github.com/mechanicapp/tracking-system/internal/infrastructure/db/redis"
	"github.com/mechanicapp/tracking-system/internal/infrastructure/geocoding"
	"github.com/mechanicapp/tracking-system/internal/infrastructure/messaging/kafka"
	"github.com/mechanicapp/tracking-system/internal/infrastructure/queue"
	"github.com/mechanicapp/tracking-system/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load(logger.New(logger.Options{Output: os.Stderr, Service: "tracker"}))
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.Env == "development",
		Service: "tracker",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect mongodb")
		}
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}()

	// --- Adapters ---
	sessions := mongodb.NewSessionRepository(db)
	if err := sessions.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create session indexes")
	}

	fixStream := redisdb.NewFixStream(rdb, log)
	geocoder := redisdb.NewGeocodeCache(
		geocoding.NewGoogleGeocoder(geocoding.Config{
			APIKey:            cfg.Geocoder.APIKey,
			BaseURL:           cfg.Geocoder.BaseURL,
			Timeout:           cfg.Geocoder.Timeout,
			RequestsPerSecond: cfg.Geocoder.RPS,
		}, log),
		rdb, cfg.Geocoder.CacheTTL, log,
	)

	var jobs ports.JobDirectory
	if cfg.Backend.BaseURL != "" {
		jobs = backend.NewJobClient(backend.Config{
			BaseURL: cfg.Backend.BaseURL,
			Token:   cfg.Backend.Token,
			Timeout: cfg.Backend.Timeout,
		}, log)
	} else {
		log.Warn().Msg("BACKEND_BASE_URL not set, job checks disabled")
	}

	hub := stream.NewHub(handler.EncodeUpdate, log)
	publishers := []ports.UpdatePublisher{hub}

	var kafkaPublisher *kafka.UpdatePublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = kafka.NewUpdatePublisher(kafka.NewWriter(cfg.Kafka.Brokers), cfg.Kafka.Topic, log)
		publishers = append(publishers, kafkaPublisher)
	}

	// --- Core ---
	gate := service.NewPermissionGate(service.StaticPrompter{Grant: cfg.PermissionGranted}, log)
	tracker := service.NewTracker(service.TrackerDeps{
		Registry:   service.NewRegistry(),
		Gate:       gate,
		Provider:   fixStream,
		Geocoder:   geocoder,
		Jobs:       jobs,
		Store:      sessions,
		Publishers: publishers,
		Dedup:      redisdb.NewDedupChecker(rdb, cfg.Redis.DedupTTL),
	}, service.TrackerConfig{
		InitialFixTimeout:   cfg.Tracking.InitialFixTimeout,
		AssumedSpeedKmh:     cfg.Tracking.AssumedSpeedKmh,
		ArrivalRadiusMeters: cfg.Tracking.ArrivalRadiusMeters,
	}, log)

	workerCtx, stopWorkers := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.Tracking.Workers, cfg.Tracking.QueueSize, tracker, log)
	dispatcher.Start(workerCtx)
	tracker.AttachQueue(dispatcher)

	var fixConsumer *kafka.FixConsumer
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		fixConsumer = kafka.NewFixConsumer(kafka.NewReader(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.FixTopic), dispatcher, log)
		go func() {
			defer close(consumerDone)
			fixConsumer.Run(workerCtx)
		}()
	} else {
		close(consumerDone)
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Tracking:   tracker,
		Dispatcher: dispatcher,
		Hub:        hub,
		Jobs:       jobs,
		Checks: map[string]handler.Check{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) },
		},
		JWTSecret: cfg.JWTSecret,
		Log:       log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("tracker listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	tracker.Shutdown(shutdownCtx)
	fixStream.Close()

	stopWorkers()
	<-consumerDone
	dispatcher.Wait()

	if fixConsumer != nil {
		if err := fixConsumer.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka consumer")
		}
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka publisher")
		}
	}

	log.Info().Msg("tracker stopped")
}
