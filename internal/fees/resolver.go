package fees

import (
	"errors"
	"fmt"
	"math"

	"github.com/gmendes/carteira/internal/domain/models"
)

// ErrSnapshotNotFound is returned by SnapshotSource implementations
// when no portfolio was filed for a (CNPJ, period) pair. The resolver
// treats it as "fall back to the nominal fee", never as a hard stop.
var ErrSnapshotNotFound = errors.New("portfolio snapshot not found")

// Registry resolves a fund's registered nominal administration fee.
// A nil fee means the registry has no value for that fund, which is
// different from an explicit 0.
type Registry interface {
	NominalFee(cnpj string) (*float64, error)
}

// SnapshotSource fetches a fund's own portfolio so the resolver can
// look through it. NetAssets returns the fund's reported PL for the
// period (0 when not filed).
type SnapshotSource interface {
	Holdings(cnpj, period string) ([]models.Holding, error)
	NetAssets(cnpj, period string) (float64, error)
}

// Resolver computes the three escalating administration-cost levels
// for a fund's portfolio:
//
//	nivel 1: direct fee on the vehicle itself.
//	nivel 2: nivel 1 + nominal registry fees of held funds.
//	nivel 3: nivel 2, with zero/unknown fees replaced by an effective
//	         fee resolved from the held fund's own portfolio.
//
// All fees are annual percentages; costs are monthly (annual / 12).
// The resolver performs no retries and no parallel fan-out: one call
// resolves one fund synchronously.
type Resolver struct {
	registry  Registry
	source    SnapshotSource
	overrides map[string]float64 // manual CNPJ → fee, takes precedence over the registry
	maxDepth  int
}

// NewResolver builds a resolver. overrides may be nil. maxDepth bounds
// the effective-fee look-through; values below 1 are clamped to 1,
// matching the single-level resolution the reports were built on.
func NewResolver(registry Registry, source SnapshotSource, overrides map[string]float64, maxDepth int) *Resolver {
	if maxDepth < 1 {
		maxDepth = 1
	}
	if overrides == nil {
		overrides = map[string]float64{}
	}
	return &Resolver{
		registry:  registry,
		source:    source,
		overrides: overrides,
		maxDepth:  maxDepth,
	}
}

// Nivel1 is the monthly accrual of an annual percentage fee on a
// holding value: value × fee% / 12.
func Nivel1(value, feePct float64) float64 {
	return value * feePct / 100 / 12
}

// feeOrZero is the single place where "missing fee" becomes 0 for
// aggregation. Everywhere else a missing fee stays nil.
func feeOrZero(fee *float64) float64 {
	if fee == nil {
		return 0
	}
	return *fee
}

// knownFee reports a usable fee: present and non-zero. A literal 0 in
// the registry means "unknown / look-through needed" in CVM data.
func knownFee(fee *float64) bool {
	return fee != nil && *fee != 0 && !math.IsNaN(*fee)
}

// feeFor resolves a fund's nominal fee: manual override first, then
// the registry. The bool reports whether a usable fee was found.
func (r *Resolver) feeFor(cnpj string) (float64, bool, error) {
	if fee, ok := r.overrides[cnpj]; ok {
		return fee, true, nil
	}
	fee, err := r.registry.NominalFee(cnpj)
	if err != nil {
		return 0, false, fmt.Errorf("registry fee for %s: %w", cnpj, err)
	}
	if !knownFee(fee) {
		return feeOrZero(fee), false, nil
	}
	return *fee, true, nil
}

// Breakdown computes the full cost breakdown for one fund and period.
// The fund's own snapshot must exist; nested snapshots are best-effort
// with the nominal-fee fallback.
func (r *Resolver) Breakdown(cnpj, period string) (models.CostBreakdown, error) {
	holdings, err := r.source.Holdings(cnpj, period)
	if err != nil {
		return models.CostBreakdown{}, fmt.Errorf("holdings of %s at %s: %w", cnpj, period, err)
	}

	directFee, _, err := r.feeFor(cnpj)
	if err != nil {
		return models.CostBreakdown{}, err
	}

	var totalValue, feeNum float64
	for _, h := range holdings {
		if math.IsNaN(h.MarketValue) {
			continue // excluded from numerator and denominator alike
		}
		totalValue += h.MarketValue
	}

	out := models.CostBreakdown{
		CNPJ:       cnpj,
		Period:     period,
		Nivel1:     Nivel1(totalValue, directFee),
		TotalValue: totalValue,
	}
	out.Nivel2 = out.Nivel1
	out.Nivel3 = out.Nivel1

	for _, h := range holdings {
		if math.IsNaN(h.MarketValue) {
			continue
		}

		if !h.IsFund() {
			feeNum += h.MarketValue * feeOrZero(h.AdminFee)
			continue
		}

		nominal, known, err := r.nominalOf(&h)
		if err != nil {
			return models.CostBreakdown{}, err
		}
		out.Nivel2 += Nivel1(h.MarketValue, nominal)

		resolved := nominal
		if !known {
			if eff, ok, err := r.effectiveFee(h.AssetCNPJ, period, r.maxDepth); err != nil {
				return models.CostBreakdown{}, err
			} else if ok {
				resolved = eff
			}
			// Neither an effective fee nor a nominal one: the fund
			// contributes zero cost for the period. Likely an
			// undercount, but preferable to aborting the report.
		}
		out.Nivel3 += Nivel1(h.MarketValue, resolved)
		feeNum += h.MarketValue * resolved
	}

	if totalValue != 0 {
		out.WeightedFee = feeNum / totalValue
	}

	pl, err := r.source.NetAssets(cnpj, period)
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		return models.CostBreakdown{}, fmt.Errorf("net assets of %s at %s: %w", cnpj, period, err)
	}
	if pl == 0 {
		pl = totalValue
	}
	if pl != 0 {
		out.Pct = out.Nivel3 / pl * 100
	}
	out.Annualized = out.Nivel3 * 12

	return out, nil
}

// nominalOf resolves the nominal fee of a held fund: the snapshot row
// itself first, then override/registry.
func (r *Resolver) nominalOf(h *models.Holding) (float64, bool, error) {
	if knownFee(h.AdminFee) {
		return *h.AdminFee, true, nil
	}
	fee, known, err := r.feeFor(h.AssetCNPJ)
	if err != nil {
		return 0, false, err
	}
	return fee, known, nil
}

// effectiveFee computes the value-weighted average fee of a fund's own
// holdings for the period. depth bounds how far nested zero-fee funds
// are themselves re-resolved. The bool is false when the fund's
// portfolio could not be located, which triggers the nominal-fee
// fallback at the call site.
func (r *Resolver) effectiveFee(cnpj, period string, depth int) (float64, bool, error) {
	if depth <= 0 {
		return 0, false, nil
	}

	holdings, err := r.source.Holdings(cnpj, period)
	if errors.Is(err, ErrSnapshotNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("look-through holdings of %s at %s: %w", cnpj, period, err)
	}

	var num, den float64
	for _, h := range holdings {
		if math.IsNaN(h.MarketValue) {
			continue
		}

		var fee float64
		if h.IsFund() {
			nominal, known, err := r.nominalOf(&h)
			if err != nil {
				return 0, false, err
			}
			fee = nominal
			if !known {
				if eff, ok, err := r.effectiveFee(h.AssetCNPJ, period, depth-1); err != nil {
					return 0, false, err
				} else if ok {
					fee = eff
				}
			}
		} else {
			fee = feeOrZero(h.AdminFee)
		}

		num += h.MarketValue * fee
		den += h.MarketValue
	}

	if den == 0 {
		return 0, true, nil // degenerate portfolio reports 0, never NaN
	}
	return num / den, true, nil
}

// WeightedAverageFee is the plain value-weighted fee over a set of
// rows, with missing values excluded from both sums and a zero total
// reported as 0. Exposed for reports that only need the average.
func WeightedAverageFee(holdings []models.Holding) float64 {
	var num, den float64
	for _, h := range holdings {
		if math.IsNaN(h.MarketValue) {
			continue
		}
		num += h.MarketValue * feeOrZero(h.AdminFee)
		den += h.MarketValue
	}
	if den == 0 {
		return 0
	}
	return num / den
}
