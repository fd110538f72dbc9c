package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Gate is the hysteresis filter for instant alerts. It remembers the last
// price that triggered a successful alert and only fires again on a
// sufficient improvement. State is process-scoped: a restart loses the
// memory, so the first qualifying price after restart always fires.
type Gate struct {
	minImprovement decimal.Decimal

	lastAlerted decimal.Decimal
	armed       bool
}

// NewGate builds a gate with the given minimum absolute improvement.
func NewGate(minImprovement decimal.Decimal) *Gate {
	return &Gate{minImprovement: minImprovement}
}

// ShouldAlert reports whether the best price warrants an instant alert.
// Prices above the threshold never alert. With no prior alert, any
// qualifying price passes; otherwise the price must undercut the last
// alerted one by at least the minimum improvement.
func (g *Gate) ShouldAlert(bestPrice, threshold decimal.Decimal) bool {
	if bestPrice.GreaterThan(threshold) {
		return false
	}
	if !g.armed {
		return true
	}
	return g.lastAlerted.Sub(bestPrice).GreaterThanOrEqual(g.minImprovement)
}

// MarkAlerted records a successfully delivered alert. Callers must not
// invoke it when delivery failed, so the same improvement retries next cycle.
func (g *Gate) MarkAlerted(price decimal.Decimal) {
	g.lastAlerted = price
	g.armed = true
}

// LastAlerted returns the price behind the last successful alert, if any.
func (g *Gate) LastAlerted() (decimal.Decimal, bool) {
	return g.lastAlerted, g.armed
}

// Due implements the coarse elapsed-wall-clock timer check shared by the
// digest and rate-refresh schedulers. A fire can be late by up to one
// cycle length; that slack is part of the contract.
func Due(now, last time.Time, interval time.Duration) bool {
	return now.Sub(last) >= interval
}
