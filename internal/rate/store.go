package rate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StaticDefaultSentinel marks a reading that fell back to the
// last-known-good constant because every live source failed.
const StaticDefaultSentinel = "Valor por defecto"

// Store holds the latest known reference rate. Sources are tried in order;
// the static default is adopted only when every source fails and no value
// was ever stored.
type Store struct {
	sources       []Source
	staticDefault decimal.Decimal
	logger        zerolog.Logger

	// Refreshed by the single polling loop; the mutex only covers reads
	// from the status server.
	mu      sync.RWMutex
	current *Reading
}

// NewStore builds a store over an ordered source chain.
func NewStore(sources []Source, staticDefault decimal.Decimal, logger zerolog.Logger) *Store {
	return &Store{
		sources:       sources,
		staticDefault: staticDefault,
		logger:        logger.With().Str("component", "rate_store").Logger(),
	}
}

// Current returns the stored reading, if any.
func (s *Store) Current() (Reading, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Reading{}, false
	}
	return *s.current, true
}

// Refresh walks the source chain and adopts the first valid value. When
// every source fails and a value already exists, the store is left
// untouched and the error is returned; the caller treats it as recoverable.
func (s *Store) Refresh(ctx context.Context) (Outcome, error) {
	var errs []error
	for _, src := range s.sources {
		value, effective, err := src.Fetch(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Str("source", src.Name()).Msg("rate source failed")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}
		if !value.IsPositive() {
			s.logger.Warn().Str("source", src.Name()).Str("value", value.String()).Msg("rate source returned non-positive value")
			errs = append(errs, fmt.Errorf("%s: non-positive value %s", src.Name(), value))
			continue
		}
		return s.adopt(value, effective, src.Name()), nil
	}

	if s.current == nil {
		s.logger.Warn().Str("value", s.staticDefault.String()).Msg("all rate sources failed, adopting static default")
		out := s.adopt(s.staticDefault, StaticDefaultSentinel, "static-default")
		out.Degraded = true
		return out, nil
	}

	return Outcome{}, fmt.Errorf("refresh reference rate: %w", errors.Join(errs...))
}

func (s *Store) adopt(value decimal.Decimal, effective, source string) Outcome {
	reading := Reading{Value: value, EffectiveDate: effective, FetchedAt: time.Now().UTC()}

	s.mu.Lock()
	prev := s.current
	s.current = &reading
	s.mu.Unlock()

	if prev == nil {
		s.logger.Info().Str("source", source).Str("value", value.String()).Str("effective", effective).Msg("first reference rate stored")
		return Outcome{Kind: OutcomeFirst, New: value}
	}

	old := prev.Value
	if old.Equal(value) {
		return Outcome{Kind: OutcomeUnchanged, Old: old, New: value}
	}

	s.logger.Info().Str("source", source).Str("old", old.String()).Str("new", value.String()).Msg("reference rate changed")
	return Outcome{Kind: OutcomeChanged, Old: old, New: value}
}
