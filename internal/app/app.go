package app

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gmendes/carteira/config"
	"github.com/gmendes/carteira/internal/api"
	"github.com/gmendes/carteira/internal/ledger"
	"github.com/gmendes/carteira/internal/service"
	"github.com/gmendes/carteira/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Connects to PostgreSQL using InitPostgres().
//   - Initializes the repository layer.
//   - Creates the position and cost services.
//   - Configures the Gin router with all API routes.
//   - Registers health and readiness probes.
//   - Provides a cleanup function to close resources (e.g., DB connection).
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	// indirection for unit testing
	db, err := postgresOpener(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	repo := storage.NewRepository(db)

	positions := service.NewPositionService(repo, ledger.ModeLastPrice)
	costs := service.NewCostService(repo, nil, cfg.Fees.MaxDepth)

	handler := api.NewHandler(positions, costs)
	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(db.Ping)
	healthHandler.Register(router)

	cleanup := func() {
		_ = db.Close()
	}

	return router, cleanup, nil
}
