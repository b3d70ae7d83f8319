package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/silaschege/salescompass-sub004/internal/config"
	"github.com/silaschege/salescompass-sub004/internal/infra"
	"github.com/silaschege/salescompass-sub004/internal/repository"
	"github.com/silaschege/salescompass-sub004/internal/router"
	"github.com/silaschege/salescompass-sub004/internal/service"
	"github.com/silaschege/salescompass-sub004/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Suite collaborators and outbound clients
	ledger := infra.NewLedgerClient(cfg.LedgerServiceURL, cfg.LedgerJournal)
	suite := infra.NewSuiteClient(cfg.SuiteServiceURL)
	renderer := infra.NewReceiptPDF(cfg.StoreName)
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)

	// Worker handlers are wired here (composition root) so that the pool has
	// full access to all infrastructure dependencies.
	receiptRepo := repository.NewReceiptRepository(db)
	txRepo := repository.NewTransactionRepository(db)
	handlers := map[string]worker.Handler{
		worker.QueueReceiptEmail: worker.NewReceiptEmailWorker(receiptRepo, txRepo, renderer, mailer, cfg.StoreName),
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)

	// Terminals with stale heartbeats get flipped offline in the background
	terminalSvc := service.NewTerminalService(repository.NewTerminalRepository(db))
	cutoff := time.Duration(cfg.TerminalHeartbeatCutoffMin) * time.Minute
	worker.StartHeartbeatCron(ctx, terminalSvc, cutoff)

	r := router.New(cfg, db, rdb, ledger, suite, renderer, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("POS engine listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
