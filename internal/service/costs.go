package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gmendes/carteira/internal/domain/models"
	"github.com/gmendes/carteira/internal/fees"
	"github.com/gmendes/carteira/internal/ingestion"
	"github.com/gmendes/carteira/internal/logger"
	"github.com/gmendes/carteira/internal/storage"
)

// CostService defines business logic for the administration-cost
// breakdown of funds.
type CostService interface {
	GetBreakdown(ctx context.Context, cnpj, period string) (models.CostBreakdown, error)
	GetSeries(ctx context.Context, cnpj string, months int) ([]models.CostBreakdown, error)
}

type costService struct {
	repo     storage.Repository
	resolver *fees.Resolver
}

// NewCostService wires the fee resolver onto the database-backed
// registry and snapshot source. overrides may be nil.
func NewCostService(repo storage.Repository, overrides map[string]float64, maxDepth int) CostService {
	s := &costService{repo: repo}
	s.resolver = fees.NewResolver(
		registryAdapter{repo: repo},
		snapshotAdapter{repo: repo},
		overrides,
		maxDepth,
	)
	return s
}

// registryAdapter exposes the fund_registry table as a fees.Registry.
type registryAdapter struct {
	repo storage.Repository
}

func (a registryAdapter) NominalFee(cnpj string) (*float64, error) {
	return a.repo.GetRegistryFee(cnpj)
}

// snapshotAdapter exposes fund_holdings / fund_pl as a
// fees.SnapshotSource. An empty holdings result means the fund filed
// nothing for the period and maps to fees.ErrSnapshotNotFound.
type snapshotAdapter struct {
	repo storage.Repository
}

func (a snapshotAdapter) Holdings(cnpj, period string) ([]models.Holding, error) {
	holdings, err := a.repo.GetHoldings(cnpj, period)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, fees.ErrSnapshotNotFound
	}
	return holdings, nil
}

func (a snapshotAdapter) NetAssets(cnpj, period string) (float64, error) {
	return a.repo.GetFundPL(cnpj, period)
}

// GetBreakdown resolves one fund's cost breakdown for one reference
// month (period in YYYY-MM).
func (s *costService) GetBreakdown(_ context.Context, cnpj, period string) (models.CostBreakdown, error) {
	return s.resolver.Breakdown(cnpj, period)
}

// GetSeries resolves the breakdown for the last N reference months.
// Months without a filed snapshot are logged and skipped rather than
// failing the whole series.
func (s *costService) GetSeries(ctx context.Context, cnpj string, months int) ([]models.CostBreakdown, error) {
	periods := ingestion.LastNPeriods(months, time.Now())
	out := make([]models.CostBreakdown, 0, len(periods))
	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bd, err := s.resolver.Breakdown(cnpj, period)
		if errors.Is(err, fees.ErrSnapshotNotFound) {
			logger.L().Warn().Str("cnpj", cnpj).Str("period", period).Msg("no snapshot for period, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("breakdown %s at %s: %w", cnpj, period, err)
		}
		out = append(out, bd)
	}
	return out, nil
}
