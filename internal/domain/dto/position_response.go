package dto

import "github.com/gmendes/carteira/internal/domain/models"

// PositionsResponse represents the JSON structure returned by the
// GET /api/v1/positions endpoint.
//
// Fields match the API contract and may differ from internal domain models.
type PositionsResponse struct {
	From        string            `json:"from" example:"2025-06-02"`     // First trade date included
	To          string            `json:"to" example:"2025-06-30"`       // Last trade date included
	Positions   []models.Position `json:"positions"`                     // Open (and flat) positions per ticker
	RealizedPnL float64           `json:"realized_pnl" example:"350.00"` // Cumulative realized P&L over the range
}
