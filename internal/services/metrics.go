package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Metrics groups the engine and tracker collectors. Collectors that are
// already registered are reused so several engines can share a registry.
type Metrics struct {
	Recommendations   *prometheus.CounterVec
	Fallbacks         *prometheus.CounterVec
	Duration          *prometheus.HistogramVec
	InteractionsTotal *prometheus.CounterVec
}

func NewMetrics(logger *logrus.Logger) *Metrics {
	return &Metrics{
		Recommendations: registerCounterVec(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stayrank_recommendations_total",
			Help: "Recommendation lists served, by path",
		}, []string{"path"})),
		Fallbacks: registerCounterVec(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stayrank_recommendation_fallbacks_total",
			Help: "Personalized requests answered by the fallback list, by cause",
		}, []string{"reason"})),
		Duration: registerHistogramVec(logger, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stayrank_recommendation_duration_seconds",
			Help:    "Time spent building a recommendation list",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"})),
		InteractionsTotal: registerCounterVec(logger, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stayrank_interactions_tracked_total",
			Help: "Tracked interaction events, by type and outcome",
		}, []string{"type", "status"})),
	}
}

func registerCounterVec(logger *logrus.Logger, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("Failed to register counter")
	}
	return c
}

func registerHistogramVec(logger *logrus.Logger, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("Failed to register histogram")
	}
	return h
}

func registerGaugeVec(logger *logrus.Logger, g *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := prometheus.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing
			}
		}
		logger.WithError(err).Warn("Failed to register gauge")
	}
	return g
}
