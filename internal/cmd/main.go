package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pickten/pickten/internal/dbconfig"
	"github.com/pickten/pickten/internal/game"
	gamedb "github.com/pickten/pickten/internal/game/db"
	"github.com/pickten/pickten/internal/game/gateway"
	"github.com/pickten/pickten/internal/game/outbox"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := LoadAppConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable is required")
	}

	// Database configuration
	dbCfg := dbconfig.NewConfigFromEnv()

	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}

	log.Info().
		Str("database", dbCfg.Database).
		Str("nats_url", cfg.NATS.URL).
		Str("port", cfg.Server.Port).
		Dur("session_duration", cfg.Game.SessionDuration.Std()).
		Msg("starting pickten")

	// Wire up dependency injection chain
	// Database layer → Repository layer → App layer
	queries := gamedb.New(db)
	gameRepo := game.NewRepository(queries, db)
	outboxRepo := outbox.NewRepository(queries)

	engine := game.NewApp(gameRepo, outboxRepo, game.Config{
		SessionDuration: cfg.Game.SessionDuration.Std(),
		PostClosePause:  cfg.Game.PostClosePause.Std(),
	})

	// Outbox relay: engine emissions reach NATS through here.
	publisherCfg := outbox.DefaultJetStreamConfig()
	publisherCfg.URL = cfg.NATS.URL
	publisher, err := outbox.NewJetStreamPublisher(publisherCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create JetStream publisher")
	}
	defer publisher.Close()

	workerCfg := outbox.DefaultConfig()
	if cfg.Outbox.PollInterval > 0 {
		workerCfg.PollInterval = cfg.Outbox.PollInterval.Std()
	}
	if cfg.Outbox.BatchSize > 0 {
		workerCfg.BatchSize = cfg.Outbox.BatchSize
	}
	worker := outbox.NewWorker(outboxRepo, publisher, workerCfg,
		slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// Gateway: WebSocket room fed by the JetStream consumer.
	gatewayCfg := gateway.DefaultConfig()
	gatewayCfg.JetStreamConfig.URL = cfg.NATS.URL
	gatewayCfg.JWTSecret = jwtSecret
	gatewayService, err := gateway.NewService(gatewayCfg, engine)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway service")
	}

	driver := game.NewDriver(engine, cfg.Game.TickInterval.Std())

	server := setupServer(cfg, gatewayService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start outbox worker")
	}

	go func() {
		if err := gatewayService.Start(ctx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	go func() {
		if err := driver.Run(ctx); err != nil {
			log.Error().Err(err).Msg("game driver failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()

	if err := worker.Stop(); err != nil {
		log.Error().Err(err).Msg("outbox worker stop failed")
	}

	log.Info().Msg("pickten shutdown complete")
}

func setupServer(cfg *AppConfig, gatewayService *gateway.Service) *http.Server {
	mux := http.NewServeMux()

	gatewayService.RegisterRoutes(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	mux.HandleFunc("/info", func(w http.ResponseWriter, r *http.Request) {
		stats := gatewayService.GetStats()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"service":"pickten","connections":%d}`,
			stats["total_connections"])
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      c.Handler(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
