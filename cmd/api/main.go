package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/analysisengine/internal/analysis"
	"example.com/analysisengine/internal/api"
	"example.com/analysisengine/internal/auth"
	"example.com/analysisengine/internal/cache"
	"example.com/analysisengine/internal/classify"
	"example.com/analysisengine/internal/config"
	"example.com/analysisengine/internal/lockpool"
	"example.com/analysisengine/internal/messaging"
	persistence "example.com/analysisengine/internal/persistence/postgres"
	httptransport "example.com/analysisengine/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := persistence.Migrate(ctx, pool); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	repo := persistence.NewRepository(pool)
	sink := messaging.NewKafkaSink(cfg.KafkaBrokers, cfg.ConflictTopic)
	defer sink.Close()

	engine := analysis.NewEngine(
		repo,
		repo,
		classify.NewClassifier(repo),
		repo,
		repo.WeekStore(),
		cache.NewMemory(),
		lockpool.NewPool(),
		sink,
		analysis.Config{
			UpdateSkipWindow:      cfg.UpdateSkipWindow,
			ConflictInterval:      cfg.ConflictInterval,
			DeviceClockSkewMargin: cfg.DeviceClockSkewMargin,
		},
	)

	handler := api.NewHandler(engine)
	router := handler.Router()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	root := handlers.LoggingHandler(os.Stdout, authMiddleware.Wrap(router))

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}, root)

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("analysis-engine listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
