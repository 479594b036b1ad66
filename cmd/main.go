package main

//
//  @title           carteira API
//  @version         1.0
//  @description     Fund portfolio ingestion, position ledger and administration-cost service.
//  @termsOfService  https://github.com/gmendes/carteira
//  @contact.name    API Support
//  @contact.url     https://github.com/gmendes/carteira
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        positions
//  @tag.description Trade replay into per-ticker positions and realized P&L
//
//  @tag.name        costs
//  @tag.description Administration-cost breakdown of funds
//
//  @tag.name        health
//  @tag.description Liveness and readiness probes

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gmendes/carteira/config"
	_ "github.com/gmendes/carteira/docs" // swagger docs
	"github.com/gmendes/carteira/internal/app"
	"github.com/gmendes/carteira/internal/ingestion"
	"github.com/gmendes/carteira/internal/logger"
)

// startServer initializes and starts the HTTP server in a separate goroutine.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Fatal().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// main is the entry point of the carteira application.
//
// Modes (selected via --mode flag):
//   - cda:      Ingests monthly CDA archives (cda_fi_YYYYMM.zip) from --dir.
//   - registry: Ingests a cad_fi fund-registry export given by --file.
//   - trades:   Ingests daily trade-note exports (DD-MM-YYYY_NEGOCIOS.csv) from --dir.
//   - api:      Starts the REST API exposing positions and costs.
//
// Flags:
//   - --mode:     Execution mode ("cda", "registry", "trades" or "api"). Default: "api".
//   - --dir:      Input directory for cda/trades modes. Defaults from config.
//   - --file:     Registry CSV path for registry mode. Default: "./data/cad_fi.csv".
//   - --months:   Number of competence months to ingest in cda mode (1-24).
//   - --days:     Number of last business days to ingest in trades mode.
//   - --parallel: How many archives to process concurrently in cda mode (0=auto, max 6).
//   - --force:    Reprocess periods/days even if already ingested.
//   - --port:     Port for API mode. Defaults to value from config (SERVER_PORT).
func main() {
	ctx := context.Background()

	config.LoadConfig()
	logger.Init()

	mode := flag.String("mode", "api", "Mode: cda, registry, trades or api")
	dir := flag.String("dir", "", "Input directory (defaults per mode from config)")
	file := flag.String("file", "./data/cad_fi.csv", "Registry CSV path for registry mode")
	months := flag.Int("months", 12, "Number of competence months to ingest (1-24)")
	days := flag.Int("days", 7, "Number of last business days to ingest")
	parallel := flag.Int("parallel", 0, "How many archives to process concurrently (0=auto, max 6)")
	force := flag.Bool("force", false, "Reprocess even if already ingested (deletes existing rows first)")
	port := flag.String("port", config.AppConfig.Server.Port, "Port for API mode")
	flag.Parse()

	switch *mode {
	case "cda":
		logger.L().Info().Msg("running CDA ingestion")
		cdaDir := *dir
		if cdaDir == "" {
			cdaDir = config.AppConfig.Data.CDADir
		}

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		if err := ingestion.ProcessCDADir(ctx, cdaDir, db, *months, *parallel, *force); err != nil {
			logger.L().Fatal().Err(err).Msg("cda ingestion failed")
		}
		logger.L().Info().Msg("cda ingestion completed successfully")

	case "registry":
		logger.L().Info().Msg("running registry ingestion")

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		if err := ingestion.ProcessRegistryFile(ctx, *file, db); err != nil {
			logger.L().Fatal().Err(err).Msg("registry ingestion failed")
		}
		logger.L().Info().Msg("registry ingestion completed successfully")

	case "trades":
		logger.L().Info().Msg("running trade-note ingestion")
		tradesDir := *dir
		if tradesDir == "" {
			tradesDir = config.AppConfig.Data.TradesDir
		}

		db, err := app.InitPostgres(config.AppConfig)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("db connect error")
		}
		defer func() { _ = db.Close() }()

		if err := ingestion.ProcessTradesDir(ctx, tradesDir, db, *days, *force); err != nil {
			logger.L().Fatal().Err(err).Msg("trade ingestion failed")
		}
		logger.L().Info().Msg("trade ingestion completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")

		router, cleanup, err := app.InitializeApp()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("app init error")
		}

		server := startServer(router, *port)
		gracefulShutdown(ctx, server, cleanup)

	default:
		logger.L().Fatal().Str("mode", *mode).Msg("unknown mode")
	}
}
