package models

// Position is the running state the ledger keeps per ticker.
//
// Quantity is signed: positive while long, negative while short.
// AveragePrice is the cost basis per unit and is only meaningful while
// Quantity != 0; it resets to 0 whenever the position crosses exactly
// to flat. Short mirrors the sign of Quantity and is kept explicit
// because reports consume it directly.
type Position struct {
	Ticker       string  `json:"ticker" example:"PETR4"`
	Quantity     float64 `json:"quantity" example:"100"`
	AveragePrice float64 `json:"average_price" example:"32.15"`
	Short        bool    `json:"short" example:"false"`
	RealizedPnL  float64 `json:"realized_pnl" example:"250.00"` // cumulative, per ticker
}

// Flat reports whether the position holds no exposure.
func (p *Position) Flat() bool { return p.Quantity == 0 }
