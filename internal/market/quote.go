package market

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Side selects which side of the order book to query.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Quote is one advertiser's price and trading terms. Immutable once
// fetched; a fresh list replaces the previous one wholesale every cycle.
type Quote struct {
	Price              decimal.Decimal
	Seller             string
	CompletedOrders    int
	SuccessRatePercent decimal.Decimal
	MinAmount          decimal.Decimal
	MaxAmount          decimal.Decimal
}

// QuoteSource retrieves the current advertised quotes for one side.
type QuoteSource interface {
	FetchQuotes(ctx context.Context, side Side, limit int) ([]Quote, error)
}

// Rank returns the quotes sorted ascending by price, cheapest first.
// The sort is stable, so equal prices keep their input order. The input
// slice is not modified.
func Rank(quotes []Quote) []Quote {
	ranked := make([]Quote, len(quotes))
	copy(ranked, quotes)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.LessThan(ranked[j].Price)
	})
	return ranked
}
