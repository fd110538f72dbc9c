package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/market"
)

var (
	decOne     = decimal.NewFromInt(1)
	decHundred = decimal.NewFromInt(100)
)

// Threshold is the price level that defines an opportunity: the reference
// rate discounted by the configured fraction.
func Threshold(rate, discountFraction decimal.Decimal) decimal.Decimal {
	return rate.Mul(decOne.Sub(discountFraction))
}

// RankedQuote augments a quote with its position relative to the threshold.
// Derived every cycle, never stored.
type RankedQuote struct {
	market.Quote
	DistanceToThreshold decimal.Decimal
	DiscountPercent     decimal.Decimal
}

// Evaluate derives the threshold distance and reference-rate discount for
// a single quote.
func Evaluate(q market.Quote, rate, threshold decimal.Decimal) RankedQuote {
	return RankedQuote{
		Quote:               q,
		DistanceToThreshold: q.Price.Sub(threshold).Abs(),
		DiscountPercent:     rate.Sub(q.Price).Div(rate).Mul(decHundred),
	}
}

// NearestToThreshold returns at most k quotes ordered by distance to the
// threshold, closest first. Ties keep the input order.
func NearestToThreshold(quotes []market.Quote, rate, threshold decimal.Decimal, k int) []RankedQuote {
	ranked := make([]RankedQuote, 0, len(quotes))
	for _, q := range quotes {
		ranked = append(ranked, Evaluate(q, rate, threshold))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceToThreshold.LessThan(ranked[j].DistanceToThreshold)
	})

	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked
}

// Tag is the qualitative digest classification of a quote.
type Tag int

const (
	// TagOpportunity marks a price at or below the threshold.
	TagOpportunity Tag = iota
	// TagVeryClose marks a price within the near distance of the threshold.
	TagVeryClose
	// TagClose marks everything else in the digest.
	TagClose
)

// Classify applies the fixed digest tagging rule. nearDistance is an
// absolute currency-unit band above the threshold.
func Classify(price, threshold, distance, nearDistance decimal.Decimal) Tag {
	switch {
	case price.LessThanOrEqual(threshold):
		return TagOpportunity
	case distance.LessThanOrEqual(nearDistance):
		return TagVeryClose
	default:
		return TagClose
	}
}
