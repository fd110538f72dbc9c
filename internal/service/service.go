package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/distrobmj-cmd/julianarbitraje/internal/command"
	"github.com/distrobmj-cmd/julianarbitraje/internal/config"
	"github.com/distrobmj-cmd/julianarbitraje/internal/engine"
	"github.com/distrobmj-cmd/julianarbitraje/internal/market"
	"github.com/distrobmj-cmd/julianarbitraje/internal/metrics"
	"github.com/distrobmj-cmd/julianarbitraje/internal/notify"
	"github.com/distrobmj-cmd/julianarbitraje/internal/rate"
	"github.com/distrobmj-cmd/julianarbitraje/internal/report"
	"github.com/distrobmj-cmd/julianarbitraje/internal/scheduler"
)

// Service runs the sequential monitoring cycle: refresh the reference
// rate when due, fetch and rank quotes, run the instant-alert gate, emit
// the periodic digest, and poll inbound commands. All state is touched by
// this single loop; the mutex only guards reads from the status server.
type Service struct {
	scheduler  *scheduler.Scheduler
	rates      *rate.Store
	quotes     market.QuoteSource
	notifier   notify.Notifier
	dispatcher *command.Dispatcher
	logger     zerolog.Logger

	discountFraction decimal.Decimal
	nearDistance     decimal.Decimal
	topK             int
	side             market.Side
	limit            int
	refreshInterval  time.Duration
	digestInterval   time.Duration
	compareLogEvery  int
	rateChangeOn     bool
	rateChangeMinPct decimal.Decimal

	mu            sync.RWMutex
	gate          *engine.Gate
	lastRefreshAt time.Time
	lastDigestAt  time.Time
	lastCycleAt   time.Time
	lastRanked    []market.Quote
	instantAlerts int
	digests       int
	cycles        int
	startedAt     time.Time
}

// New constructs the monitoring service. The dispatcher may be nil when
// command polling is disabled.
func New(cfg *config.Config, sched *scheduler.Scheduler, rates *rate.Store, quotes market.QuoteSource, notifier notify.Notifier, dispatcher *command.Dispatcher, logger zerolog.Logger) *Service {
	s := &Service{
		scheduler:        sched,
		rates:            rates,
		quotes:           quotes,
		notifier:         notifier,
		dispatcher:       dispatcher,
		logger:           logger.With().Str("component", "service").Logger(),
		discountFraction: decimal.NewFromFloat(cfg.Alerting.DiscountFraction),
		nearDistance:     decimal.NewFromFloat(cfg.Alerting.NearDistance),
		topK:             cfg.Alerting.DigestTopK,
		side:             market.Side(strings.ToUpper(cfg.Market.TradeType)),
		limit:            cfg.Market.Rows,
		refreshInterval:  cfg.Rate.RefreshInterval,
		digestInterval:   cfg.Alerting.DigestInterval,
		compareLogEvery:  cfg.Monitor.CompareLogEvery,
		rateChangeOn:     cfg.Alerting.RateChangeEnabled,
		rateChangeMinPct: decimal.NewFromFloat(cfg.Alerting.RateChangeMinPct),
		gate:             engine.NewGate(decimal.NewFromFloat(cfg.Alerting.MinImprovement)),
	}
	s.registerCommands()
	return s
}

// Start obtains the initial reference rate. The monitoring loop must not
// be entered without one, since every downstream computation depends on it.
func (s *Service) Start(ctx context.Context) error {
	now := time.Now()
	s.refreshRate(ctx, now)
	if _, ok := s.rates.Current(); !ok {
		return errors.New("unable to obtain an initial reference rate")
	}

	s.mu.Lock()
	s.lastDigestAt = now
	s.startedAt = now
	s.mu.Unlock()
	return nil
}

// Run starts the polling loop and sends a best-effort shutdown notice on exit.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	err := s.scheduler.Run(ctx, s.Cycle)
	s.sendShutdown()
	return err
}

// Cycle executes one polling iteration.
func (s *Service) Cycle(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	s.lastCycleAt = now
	s.cycles++
	cycle := s.cycles
	s.mu.Unlock()

	if engine.Due(now, s.lastRefreshAt, s.refreshInterval) {
		s.refreshRate(ctx, now)
	}

	// Commands are answered even on a cycle with no market data.
	defer s.pollCommands(ctx)

	reading, ok := s.rates.Current()
	if !ok {
		s.logger.Warn().Msg("no reference rate available; skipping evaluation")
		return nil
	}

	quotes, err := s.quotes.FetchQuotes(ctx, s.side, s.limit)
	if err != nil {
		metrics.FetchFailuresTotal.WithLabelValues("market").Inc()
		s.logger.Warn().Err(err).Msg("quote fetch failed; skipping evaluation")
		return nil
	}

	ranked := market.Rank(quotes)
	if len(ranked) == 0 {
		s.logger.Warn().Msg("empty quote book; skipping evaluation")
		return nil
	}
	threshold := engine.Threshold(reading.Value, s.discountFraction)

	s.mu.Lock()
	s.lastRanked = ranked
	s.mu.Unlock()

	best := ranked[0]
	metrics.BestPrice.Set(best.Price.InexactFloat64())

	if s.compareLogEvery > 0 && cycle%s.compareLogEvery == 1 {
		s.logComparison(reading.Value, best.Price, threshold)
	}

	if s.gate.ShouldAlert(best.Price, threshold) {
		evaluated := engine.Evaluate(best, reading.Value, threshold)
		if s.send(ctx, "instant", report.InstantAlert(evaluated, reading, threshold, s.discountFraction, now)) {
			s.gate.MarkAlerted(best.Price)
			metrics.InstantAlertsTotal.Inc()

			s.mu.Lock()
			s.instantAlerts++
			count := s.instantAlerts
			s.mu.Unlock()
			s.logger.Info().Int("count", count).Str("price", best.Price.String()).Msg("instant alert sent")
		}
	}

	if engine.Due(now, s.lastDigestAt, s.digestInterval) {
		nearest := engine.NearestToThreshold(ranked, reading.Value, threshold, s.topK)
		if len(nearest) > 0 {
			if s.send(ctx, "digest", report.Digest(nearest, reading, threshold, s.discountFraction, s.nearDistance, s.digestInterval)) {
				metrics.DigestsTotal.Inc()

				s.mu.Lock()
				s.lastDigestAt = now
				s.digests++
				count := s.digests
				s.mu.Unlock()
				s.logger.Info().Int("count", count).Msg("digest sent")
			}
		}
	}

	return nil
}

func (s *Service) refreshRate(ctx context.Context, now time.Time) {
	outcome, err := s.rates.Refresh(ctx)
	if err != nil {
		metrics.RateRefreshTotal.WithLabelValues("failed").Inc()
		s.logger.Warn().Err(err).Msg("rate refresh failed; keeping previous value")
		return
	}
	metrics.RateRefreshTotal.WithLabelValues(outcomeLabel(outcome)).Inc()

	s.mu.Lock()
	s.lastRefreshAt = now
	s.mu.Unlock()

	reading, _ := s.rates.Current()
	threshold := engine.Threshold(reading.Value, s.discountFraction)
	metrics.ReferenceRate.Set(reading.Value.InexactFloat64())
	metrics.AlertThreshold.Set(threshold.InexactFloat64())

	s.send(ctx, "summary", report.RateSummary(reading, threshold, s.discountFraction, s.refreshInterval, s.digestInterval))

	if outcome.Kind == rate.OutcomeChanged && s.rateChangeOn {
		if outcome.DeltaPct().Abs().GreaterThanOrEqual(s.rateChangeMinPct) {
			s.send(ctx, "rate_change", report.RateChange(outcome))
		}
	}
}

func (s *Service) pollCommands(ctx context.Context) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Poll(ctx); err != nil {
		metrics.FetchFailuresTotal.WithLabelValues("updates").Inc()
		s.logger.Warn().Err(err).Msg("command poll failed")
	}
}

// send delivers a message and reports success. A delivery failure is
// logged and absorbed so the caller leaves its timer or gate state
// unadvanced and retries next cycle. With no notifier configured the
// message is logged and counted as delivered.
func (s *Service) send(ctx context.Context, kind, text string) bool {
	if s.notifier == nil {
		s.logger.Info().Str("kind", kind).Msg("notifier disabled; message dropped")
		return true
	}
	if err := s.notifier.Send(ctx, text); err != nil {
		metrics.SendFailuresTotal.WithLabelValues(kind).Inc()
		s.logger.Error().Err(err).Str("kind", kind).Msg("failed to deliver message")
		return false
	}
	return true
}

func (s *Service) sendShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	instant, digests := s.instantAlerts, s.digests
	s.mu.RUnlock()
	s.send(ctx, "shutdown", report.Shutdown(instant, digests))
}

func (s *Service) logComparison(rateValue, bestPrice, threshold decimal.Decimal) {
	diffPct := bestPrice.Sub(rateValue).Div(rateValue).Mul(decimal.NewFromInt(100))
	status := "expensive"
	switch {
	case bestPrice.LessThanOrEqual(threshold):
		status = "cheap"
	case bestPrice.LessThan(rateValue):
		status = "normal"
	}
	s.logger.Info().
		Str("trm", rateValue.StringFixed(0)).
		Str("best", bestPrice.StringFixed(0)).
		Str("diff_pct", diffPct.StringFixed(1)).
		Str("status", status).
		Msg("market comparison")
}

func outcomeLabel(o rate.Outcome) string {
	switch o.Kind {
	case rate.OutcomeFirst:
		if o.Degraded {
			return "first_degraded"
		}
		return "first"
	case rate.OutcomeChanged:
		return "changed"
	default:
		return "unchanged"
	}
}
