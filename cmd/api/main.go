package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/smartpause/internal/api/handlers"
	"github.com/dvloznov/smartpause/internal/api/middleware"
	"github.com/dvloznov/smartpause/internal/app"
	"github.com/dvloznov/smartpause/internal/config"
	"github.com/dvloznov/smartpause/internal/logger"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", os.Getenv("SMARTPAUSE_CONFIG"), "Path to YAML config (or set SMARTPAUSE_CONFIG env)")
		addr       = flag.String("addr", "", "HTTP listen address, overrides server.addr")
		txSource   = flag.String("transactions", "", "Transaction source: local JSON file or gs:// URI, overrides transactions.source")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *txSource != "" {
		cfg.Transactions.Source = *txSource
	}

	// Initialize logger
	log, err := logger.NewWithOptions(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Invalid log configuration")
	}

	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	log.Info().
		Int("transactions", a.Transactions.Len()).
		Str("recoverable_spend", a.State.RecoverableSpend().String()).
		Msg("Loaded bootstrap analyses")

	// Fetch generated assets in background; clients use their defaults until then
	assetsCtx, cancelAssets := context.WithCancel(ctx)
	defer cancelAssets()
	go a.Assets.LoadAll(assetsCtx, a.State)

	// Create router
	mux := http.NewServeMux()
	handlers.Register(mux, handlers.Handlers{
		Transactions: handlers.NewTransactionsHandler(a.Transactions),
		Analyses:     handlers.NewAnalysesHandler(a.State, a.Runner, log),
		Runs:         handlers.NewRunsHandler(a.Recorder, log),
		Assets:       handlers.NewAssetsHandler(a.State),
		Events:       handlers.NewEventsHandler(a.State, log),
	})

	// RequestID runs first so panics and access logs carry the same id.
	handler := middleware.RequestID(
		middleware.Recovery(log)(
			middleware.Logger(log)(
				middleware.CORS(cfg.Server.AllowedOrigin)(mux),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelAssets()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if a.Runner.InFlight() {
		log.Warn().Msg("Analysis run still in flight at shutdown; its result is discarded")
	}

	log.Info().Msg("Server exited")
}
