package models

import "time"

// Side of a trade as recorded in the manual trade-note exports.
type Side string

const (
	Buy  Side = "C" // compra
	Sell Side = "V" // venda
)

// Trade represents a single buy/sell event from a trade-note export.
//
// Trades are immutable once recorded. The ledger expects them in
// chronological order; sorting by TradeDate is the caller's obligation
// (the repository query does it, the engine does not re-check).
type Trade struct {
	Ticker    string
	Side      Side
	Quantity  float64 // always positive; Side carries the direction
	Price     float64
	TradeDate time.Time
}
