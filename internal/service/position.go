package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gmendes/carteira/internal/domain/models"
	"github.com/gmendes/carteira/internal/ledger"
	"github.com/gmendes/carteira/internal/storage"
)

// PositionService defines business logic for replaying trades into
// positions and realized P&L.
type PositionService interface {
	GetPositions(ctx context.Context, ticker string, startDate, endDate *time.Time) ([]models.Position, float64, error)
}

type positionService struct {
	repo storage.Repository
	mode ledger.AveragingMode
}

// NewPositionService builds a PositionService replaying trades with the
// given averaging mode.
func NewPositionService(repo storage.Repository, mode ledger.AveragingMode) PositionService {
	return &positionService{repo: repo, mode: mode}
}

// GetPositions replays every stored trade in the range (optionally for
// a single ticker) through a fresh ledger and returns the resulting
// positions plus the cumulative realized P&L of the range.
func (s *positionService) GetPositions(_ context.Context, ticker string, startDate, endDate *time.Time) ([]models.Position, float64, error) {
	trades, err := s.repo.GetTrades(ticker, startDate, endDate)
	if err != nil {
		return nil, 0, fmt.Errorf("load trades: %w", err)
	}

	l := ledger.New(s.mode)
	l.ApplyAll(trades)
	return l.Positions(), l.CumulativeRealized(), nil
}
