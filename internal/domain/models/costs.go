package models

// CostBreakdown holds the three escalating administration-cost
// estimates for one fund and one competence month, all in currency
// units per month.
//
//   - Nivel1: direct fee on the vehicle itself.
//   - Nivel2: Nivel1 plus the nominal registry fee of every held fund.
//   - Nivel3: like Nivel2, but held funds with zero/unknown fee get an
//     effective fee resolved from their own portfolio.
//
// Nivel1 <= Nivel2 <= Nivel3 is the expected shape but is not enforced:
// negative fees in the source data can break it.
//
// swagger:model CostBreakdown
type CostBreakdown struct {
	CNPJ        string  `json:"cnpj" example:"11222333000144"`
	Period      string  `json:"period" example:"2025-06"`
	Nivel1      float64 `json:"nivel_1" example:"1000.00"`
	Nivel2      float64 `json:"nivel_2" example:"1430.55"`
	Nivel3      float64 `json:"nivel_3" example:"1512.10"`
	WeightedFee float64 `json:"weighted_fee" example:"1.25"` // % a.a., value-weighted
	TotalValue  float64 `json:"total_value" example:"1000000.00"`
	Pct         float64 `json:"pct" example:"0.15"`         // monthly cost over PL, in %
	Annualized  float64 `json:"annualized" example:"18145"` // Nivel3 * 12
}
