package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/engine"
	"github.com/distrobmj-cmd/julianarbitraje/internal/rate"
)

// Snapshot is a read-only view of the service state for the status
// surface. It never exposes anything mutable.
type Snapshot struct {
	HasRate       bool
	Rate          rate.Reading
	Threshold     decimal.Decimal
	InstantAlerts int
	Digests       int
	Cycles        int
	NextRefreshIn time.Duration
	NextDigestIn  time.Duration
	StartedAt     time.Time
	LastCycleAt   time.Time
}

// Snapshot captures the current state for display.
func (s *Service) Snapshot() Snapshot {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		InstantAlerts: s.instantAlerts,
		Digests:       s.digests,
		Cycles:        s.cycles,
		NextRefreshIn: remaining(now, s.lastRefreshAt, s.refreshInterval),
		NextDigestIn:  remaining(now, s.lastDigestAt, s.digestInterval),
		StartedAt:     s.startedAt,
		LastCycleAt:   s.lastCycleAt,
	}

	if reading, ok := s.rates.Current(); ok {
		snap.HasRate = true
		snap.Rate = reading
		snap.Threshold = engine.Threshold(reading.Value, s.discountFraction)
	}
	return snap
}

func remaining(now, last time.Time, interval time.Duration) time.Duration {
	left := interval - now.Sub(last)
	if left < 0 {
		return 0
	}
	return left
}
