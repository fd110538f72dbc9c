package rate

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Reading is the latest known reference rate.
type Reading struct {
	Value         decimal.Decimal
	EffectiveDate string
	FetchedAt     time.Time
}

// OutcomeKind classifies the result of a successful refresh.
type OutcomeKind int

const (
	// OutcomeUnchanged means the refreshed value equals the stored one.
	OutcomeUnchanged OutcomeKind = iota
	// OutcomeChanged means the stored value was replaced by a different one.
	OutcomeChanged
	// OutcomeFirst means the store adopted its first value ever.
	OutcomeFirst
)

// Outcome reports what a refresh did to the store.
type Outcome struct {
	Kind OutcomeKind
	Old  decimal.Decimal
	New  decimal.Decimal
	// Degraded marks a first value that came from the static default
	// rather than a live source.
	Degraded bool
}

// DeltaPct returns the signed percentage change for a Changed outcome.
func (o Outcome) DeltaPct() decimal.Decimal {
	if o.Kind != OutcomeChanged || o.Old.IsZero() {
		return decimal.Zero
	}
	return o.New.Sub(o.Old).Div(o.Old).Mul(decimal.NewFromInt(100))
}

// Source retrieves the reference rate from one provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (decimal.Decimal, string, error)
}
