package services

import (
	"context"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/database"
)

type HealthCheck func(ctx context.Context) error

type HealthService struct {
	logger      *logrus.Logger
	critical    map[string]HealthCheck
	nonCritical map[string]HealthCheck

	healthCheckStatus *prometheus.GaugeVec
	lastHealthCheck   *prometheus.GaugeVec
}

type HealthStatus struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Services    map[string]string `json:"services"`
	Critical    []string          `json:"critical_failures,omitempty"`
	NonCritical []string          `json:"non_critical_failures,omitempty"`
	Latency     time.Duration     `json:"latency,omitempty"`
}

// NewHealthService checks PostgreSQL and the hot Redis as critical
// dependencies, Neo4j and the warm Redis as non-critical ones.
func NewHealthService(logger *logrus.Logger, db *database.Database) *HealthService {
	critical := map[string]HealthCheck{
		"postgresql": func(ctx context.Context) error { return db.PG.Ping(ctx) },
		"redis_hot":  func(ctx context.Context) error { return db.Redis.Hot.Ping(ctx).Err() },
	}
	nonCritical := map[string]HealthCheck{
		"neo4j":      func(ctx context.Context) error { return db.Neo4j.VerifyConnectivity(ctx) },
		"redis_warm": func(ctx context.Context) error { return db.Redis.Warm.Ping(ctx).Err() },
	}
	return newHealthService(logger, critical, nonCritical)
}

func newHealthService(logger *logrus.Logger, critical, nonCritical map[string]HealthCheck) *HealthService {
	hs := &HealthService{
		logger:      logger,
		critical:    critical,
		nonCritical: nonCritical,
	}

	hs.healthCheckStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_status",
		Help: "Health check status (1 = healthy, 0 = unhealthy)",
	}, []string{"service"})
	hs.lastHealthCheck = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "health_check_timestamp",
		Help: "Timestamp of last health check",
	}, []string{"service"})

	// Register metrics with error handling - reuse if already registered
	hs.healthCheckStatus = registerGaugeVec(logger, hs.healthCheckStatus)
	hs.lastHealthCheck = registerGaugeVec(logger, hs.lastHealthCheck)

	return hs
}

func (s *HealthService) CheckHealth(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{
		Timestamp: start,
		Services:  make(map[string]string),
	}

	status.Critical = s.run(ctx, s.critical, status, logrus.ErrorLevel)
	status.NonCritical = s.run(ctx, s.nonCritical, status, logrus.WarnLevel)

	switch {
	case len(status.Critical) > 0:
		status.Status = "unhealthy"
	case len(status.NonCritical) > 0:
		status.Status = "degraded"
	default:
		status.Status = "healthy"
	}
	status.Latency = time.Since(start)
	return status
}

// run executes the checks in name order and returns the failing names.
func (s *HealthService) run(ctx context.Context, checks map[string]HealthCheck, status *HealthStatus, level logrus.Level) []string {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := checks[name](checkCtx)
		cancel()

		if err != nil {
			status.Services[name] = "unhealthy"
			failed = append(failed, name)
			s.logger.WithError(err).WithField("service", name).Log(level, "Dependency is unhealthy")
			s.UpdateHealthMetrics(name, false)
			continue
		}
		status.Services[name] = "healthy"
		s.UpdateHealthMetrics(name, true)
	}
	return failed
}

// UpdateHealthMetrics updates health check metrics
func (s *HealthService) UpdateHealthMetrics(serviceName string, healthy bool) {
	if healthy {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(1)
	} else {
		s.healthCheckStatus.WithLabelValues(serviceName).Set(0)
	}
	s.lastHealthCheck.WithLabelValues(serviceName).Set(float64(time.Now().Unix()))
}
