package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/feed"
	"github.com/feudcast/feudcast/internal/gateway"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	database, dsn, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up database")
	}
	defer database.Close()

	services := setupServices(database)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Change feed: Postgres NOTIFY -> JetStream
	publisherCfg := feed.DefaultJetStreamConfig()
	if config.NATS.URL != "" {
		publisherCfg.URL = config.NATS.URL
	}
	if config.NATS.StreamName != "" {
		publisherCfg.StreamName = config.NATS.StreamName
	}
	if config.Feed.SubjectPrefix != "" {
		publisherCfg.SubjectPrefix = config.Feed.SubjectPrefix
	}
	publisher, err := feed.NewJetStreamPublisher(publisherCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create publisher")
	}
	defer publisher.Close()

	listenerCfg := feed.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dsn
	if config.Feed.NotifyChannel != "" {
		listenerCfg.NotifyChannel = config.Feed.NotifyChannel
	}
	listener, err := feed.NewListener(publisher, listenerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create listener")
	}

	// Gateway: JetStream -> screens
	consumerCfg := gateway.DefaultConsumerConfig()
	consumerCfg.URL = publisherCfg.URL
	consumerCfg.StreamName = publisherCfg.StreamName
	consumerCfg.SubjectFilter = publisherCfg.SubjectPrefix + ".>"
	if config.NATS.Consumer != "" {
		consumerCfg.ConsumerName = config.NATS.Consumer
	}
	consumer, err := gateway.NewChangeConsumer(services.ConnectionManager, services.StateManager, consumerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create change consumer")
	}
	defer consumer.Stop()

	go services.ConnectionManager.Start(ctx)
	go func() {
		if err := listener.Start(ctx); err != nil {
			log.Error().Err(err).Msg("change feed listener failed")
		}
	}()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("change consumer failed")
		}
	}()

	server := setupServer(services)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
