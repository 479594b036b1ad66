package ledger

import (
	"sort"

	"github.com/gmendes/carteira/internal/domain/models"
)

// AveragingMode selects how the cost basis reacts to a trade that
// extends an existing position in the same direction.
type AveragingMode int

const (
	// ModeLastPrice overwrites the average price with the newest trade
	// price on same-direction trades. This matches the historical
	// behavior of the spreadsheets this service replaced, and some
	// downstream reports still expect it, so it is the default.
	ModeLastPrice AveragingMode = iota

	// ModeWeighted computes a proper quantity-weighted blended cost on
	// same-direction trades.
	ModeWeighted
)

// Ledger consumes an ordered stream of trades (many tickers
// interleaved) and maintains one running Position per ticker, emitting
// realized P&L on every trade that reduces or reverses exposure.
//
// The ledger performs no I/O and never reorders input: feeding trades
// sorted by date is the caller's contract. It is not safe for
// concurrent use; processing is strictly sequential.
//
// Malformed rows (NaN price or quantity) are not rejected: NaN
// propagates through the arithmetic, mirroring the best-effort policy
// of the rest of the pipeline.
type Ledger struct {
	mode      AveragingMode
	positions map[string]*models.Position
	realized  float64
}

// New creates an empty ledger. Every ticker starts flat.
func New(mode AveragingMode) *Ledger {
	return &Ledger{
		mode:      mode,
		positions: make(map[string]*models.Position),
	}
}

// Apply processes one trade and returns the P&L realized by it
// (0 when the trade only opens or extends a position).
//
// State machine per ticker: FLAT, LONG, SHORT.
//   - Extending the current direction never realizes P&L.
//   - Reducing realizes (price − avg) × overlap for sells, the mirror
//     for buys closing a short, where overlap = min(|position|, qty).
//   - Crossing exactly to zero resets the average price to 0.
//   - Reversing resets the average price to the trade price and flips
//     the short flag.
func (l *Ledger) Apply(t models.Trade) float64 {
	pos, ok := l.positions[t.Ticker]
	if !ok {
		pos = &models.Position{Ticker: t.Ticker}
		l.positions[t.Ticker] = pos
	}

	var realized float64
	switch t.Side {
	case models.Buy:
		realized = l.applyBuy(pos, t)
	case models.Sell:
		realized = l.applySell(pos, t)
	}

	pos.RealizedPnL += realized
	l.realized += realized
	return realized
}

// applyBuy handles FLAT→LONG, LONG→LONG, SHORT→{SHORT,FLAT,LONG}.
func (l *Ledger) applyBuy(pos *models.Position, t models.Trade) float64 {
	if pos.Quantity >= 0 {
		// Long or flat: extend, no realized P&L.
		pos.AveragePrice = l.blend(pos.Quantity, pos.AveragePrice, t.Quantity, t.Price)
		pos.Quantity += t.Quantity
		pos.Short = false
		return 0
	}

	// Short: the buy covers up to |position| units.
	overlap := min(-pos.Quantity, t.Quantity)
	realized := (pos.AveragePrice - t.Price) * overlap

	pos.Quantity += t.Quantity
	switch {
	case pos.Quantity > 0:
		// Reversal: remainder opens a long at the trade price.
		pos.AveragePrice = t.Price
		pos.Short = false
	case pos.Quantity == 0:
		pos.AveragePrice = 0
		pos.Short = false
	}
	// Still short: cost basis of the remaining short is unchanged.
	return realized
}

// applySell handles FLAT→SHORT, SHORT→SHORT, LONG→{LONG,FLAT,SHORT}.
func (l *Ledger) applySell(pos *models.Position, t models.Trade) float64 {
	if pos.Quantity <= 0 {
		// Short or flat: extend the short, no realized P&L.
		pos.AveragePrice = l.blend(-pos.Quantity, pos.AveragePrice, t.Quantity, t.Price)
		pos.Quantity -= t.Quantity
		pos.Short = pos.Quantity < 0
		return 0
	}

	overlap := min(pos.Quantity, t.Quantity)
	realized := (t.Price - pos.AveragePrice) * overlap

	pos.Quantity -= t.Quantity
	switch {
	case pos.Quantity < 0:
		pos.AveragePrice = t.Price
		pos.Short = true
	case pos.Quantity == 0:
		pos.AveragePrice = 0
		pos.Short = false
	}
	return realized
}

// blend computes the post-trade cost basis for a same-direction trade.
// Quantities are passed unsigned. A flat position always takes the
// trade price regardless of mode.
func (l *Ledger) blend(curQty, curAvg, addQty, price float64) float64 {
	if curQty == 0 || l.mode == ModeLastPrice {
		return price
	}
	return (curQty*curAvg + addQty*price) / (curQty + addQty)
}

// ApplyAll feeds a slice of trades through the ledger in order and
// returns the total P&L realized by them.
func (l *Ledger) ApplyAll(trades []models.Trade) float64 {
	var total float64
	for _, t := range trades {
		total += l.Apply(t)
	}
	return total
}

// Position returns a copy of the current state for a ticker. A ticker
// that never traded reports as flat.
func (l *Ledger) Position(ticker string) (models.Position, bool) {
	pos, ok := l.positions[ticker]
	if !ok {
		return models.Position{Ticker: ticker}, false
	}
	return *pos, true
}

// Positions returns copies of every tracked position, sorted by
// ticker. Flat positions that traded before are included: the ledger
// never forgets a ticker.
func (l *Ledger) Positions() []models.Position {
	out := make([]models.Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, *pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// CumulativeRealized returns the total realized P&L across all tickers
// since the ledger was created.
func (l *Ledger) CumulativeRealized() float64 { return l.realized }
