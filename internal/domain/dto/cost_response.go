package dto

// CostResponse represents one period of the administration-cost
// breakdown returned by GET /api/v1/costs.
type CostResponse struct {
	CNPJ        string  `json:"cnpj" example:"11222333000144"` // Holder fund CNPJ (digits only)
	Period      string  `json:"period" example:"2025-06"`      // Reference month (YYYY-MM)
	Nivel1      float64 `json:"nivel1" example:"1000.00"`      // Direct fee accrual for the month
	Nivel2      float64 `json:"nivel2" example:"1250.00"`      // Nivel1 plus nominal fees of held funds
	Nivel3      float64 `json:"nivel3" example:"1310.00"`      // Nivel1 plus effective (look-through) fees
	WeightedFee float64 `json:"weighted_fee" example:"1.25"`   // Value-weighted average fee of the portfolio (% a.a.)
	TotalValue  float64 `json:"total_value" example:"1000000"` // Sum of known market values
	Pct         float64 `json:"pct" example:"0.131"`           // Nivel3 as % of net assets
	Annualized  float64 `json:"annualized" example:"15720.00"` // Nivel3 projected over 12 months
}

// CostSeriesResponse wraps the breakdowns of the last N reference
// months for a fund, most recent first. Months with no snapshot are
// omitted rather than zero-filled.
type CostSeriesResponse struct {
	CNPJ    string         `json:"cnpj" example:"11222333000144"`
	Periods []CostResponse `json:"periods"`
}
