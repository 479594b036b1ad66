package models

import "time"

// Asset categories as reported in the CDA blocks (TP_APLIC collapsed
// into coarse classes). Only Fund matters to the fee waterfall; the
// rest are kept for reporting.
const (
	CategoryFund       = "FUNDO"
	CategoryEquity     = "ACAO"
	CategoryBond       = "TITULO"
	CategoryDerivative = "DERIVATIVO"
	CategoryCash       = "CAIXA"
	CategoryOther      = "OUTRO"
)

// Holding is one line of a fund's portfolio snapshot for a period:
// one asset (possibly another fund) held by HolderCNPJ at the end of
// the competence month.
//
// AdminFee is the nominal annual administration fee in percent
// (e.g. 1.2 for 1.2% a.a.). It is a pointer because the CDA and the
// registry both leave it blank for many funds; nil means "unknown,
// look-through needed", which is not the same as an explicit 0.
type Holding struct {
	HolderCNPJ  string
	AssetCNPJ   string // CNPJ of the held fund; empty for non-fund assets
	AssetName   string
	Category    string
	MarketValue float64
	AdminFee    *float64
	Period      string // competence month, "2006-01" layout
}

// IsFund reports whether the holding is itself a fund quota and
// therefore subject to fee look-through.
func (h *Holding) IsFund() bool { return h.Category == CategoryFund && h.AssetCNPJ != "" }

// RegistryEntry is one row of the CVM fund registry (cad_fi):
// a fund and its registered nominal administration fee.
type RegistryEntry struct {
	CNPJ      string
	Name      string
	Status    string
	AdminFee  *float64
	UpdatedAt time.Time
}

// FundPL is a fund's reported net asset value (patrimônio líquido)
// for a competence month, from the CDA PL block.
type FundPL struct {
	CNPJ       string
	Period     string
	NetAssets  float64
	Competence time.Time
}
