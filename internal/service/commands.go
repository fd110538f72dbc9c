package service

import (
	"context"

	"github.com/distrobmj-cmd/julianarbitraje/internal/engine"
	"github.com/distrobmj-cmd/julianarbitraje/internal/market"
	"github.com/distrobmj-cmd/julianarbitraje/internal/report"
)

// registerCommands binds the closed command set to report generators.
// Every handler reads current state and re-runs the ranker and threshold
// evaluator on demand; none of them mutates alerting state.
func (s *Service) registerCommands() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Register("precios", s.handlePrices)
	s.dispatcher.Register("prices", s.handlePrices)
	s.dispatcher.Register("trm", s.handleRate)
	s.dispatcher.Register("estado", s.handleStatus)
	s.dispatcher.Register("status", s.handleStatus)
	s.dispatcher.Register("ayuda", s.handleHelp)
	s.dispatcher.Register("help", s.handleHelp)
	s.dispatcher.Register("start", s.handleHelp)
}

func (s *Service) handlePrices(_ context.Context) string {
	reading, ok := s.rates.Current()
	if !ok {
		return report.Unavailable()
	}

	s.mu.RLock()
	quotes := make([]market.Quote, len(s.lastRanked))
	copy(quotes, s.lastRanked)
	s.mu.RUnlock()

	if len(quotes) == 0 {
		return report.Unavailable()
	}

	threshold := engine.Threshold(reading.Value, s.discountFraction)
	nearest := engine.NearestToThreshold(market.Rank(quotes), reading.Value, threshold, s.topK)
	return report.Digest(nearest, reading, threshold, s.discountFraction, s.nearDistance, s.digestInterval)
}

func (s *Service) handleRate(_ context.Context) string {
	reading, ok := s.rates.Current()
	if !ok {
		return report.Unavailable()
	}
	threshold := engine.Threshold(reading.Value, s.discountFraction)
	return report.RateSummary(reading, threshold, s.discountFraction, s.refreshInterval, s.digestInterval)
}

func (s *Service) handleStatus(_ context.Context) string {
	snap := s.Snapshot()
	return report.Status(report.StatusData{
		Rate:          snap.Rate,
		HasRate:       snap.HasRate,
		Threshold:     snap.Threshold,
		InstantAlerts: snap.InstantAlerts,
		Digests:       snap.Digests,
		NextRefreshIn: snap.NextRefreshIn,
		NextDigestIn:  snap.NextDigestIn,
		StartedAt:     snap.StartedAt,
	})
}

func (s *Service) handleHelp(_ context.Context) string {
	return report.Help()
}
