package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InstantAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trmwatcher",
		Subsystem: "alerts",
		Name:      "instant_total",
		Help:      "Instant alerts successfully delivered.",
	})

	DigestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "trmwatcher",
		Subsystem: "alerts",
		Name:      "digest_total",
		Help:      "Periodic digests successfully delivered.",
	})

	SendFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trmwatcher",
		Subsystem: "alerts",
		Name:      "send_failures_total",
		Help:      "Notifier delivery failures by message kind.",
	}, []string{"kind"})

	RateRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trmwatcher",
		Subsystem: "rate",
		Name:      "refresh_total",
		Help:      "Reference-rate refresh attempts by outcome.",
	}, []string{"outcome"})

	FetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "trmwatcher",
		Subsystem: "fetch",
		Name:      "failures_total",
		Help:      "Collaborator fetch failures by source.",
	}, []string{"source"})

	ReferenceRate = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trmwatcher",
		Subsystem: "rate",
		Name:      "reference_cop",
		Help:      "Current reference rate in COP.",
	})

	AlertThreshold = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trmwatcher",
		Subsystem: "rate",
		Name:      "threshold_cop",
		Help:      "Current alert threshold in COP.",
	})

	BestPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "trmwatcher",
		Subsystem: "market",
		Name:      "best_price_cop",
		Help:      "Best quoted price observed in the last cycle.",
	})
)
