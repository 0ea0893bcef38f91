package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/database"
	"github.com/temcen/stayrank/internal/messaging"
	"github.com/temcen/stayrank/internal/storage"
	"github.com/temcen/stayrank/internal/validation"
	"github.com/temcen/stayrank/pkg/models"
)

type Services struct {
	Auth           *AuthService
	Health         *HealthService
	RateLimit      *RateLimitService
	Recommendation *RecommendationEngine
	Interactions   *InteractionTracker
	Graph          *InteractionGraph
	Bus            *messaging.InteractionBus
	Validator      *validation.SchemaValidator
	Metrics        *Metrics
}

func New(cfg *config.Config, logger *logrus.Logger, db *database.Database) (*Services, error) {
	validator, err := validation.NewSchemaValidator()
	if err != nil {
		return nil, err
	}

	catalog := storage.NewHotelCatalog(db.PG)
	bookings := storage.NewBookingHistory(db.PG, catalog)
	behaviors := storage.NewBehaviorStore(db.PG)
	metrics := NewMetrics(logger)

	graph := NewInteractionGraph(NewNeo4jEdgeWriter(db.Neo4j), logger)

	return &Services{
		Auth:      NewAuthService(cfg, logger, db.Redis.Hot),
		Health:    NewHealthService(logger, db),
		RateLimit: NewRateLimitService(cfg, logger, db.Redis.Hot),
		Recommendation: NewRecommendationEngine(
			catalog, bookings, behaviors, NewRedisCache(db.Redis.Warm),
			cfg.Recommendation, metrics, logger,
		),
		Interactions: NewInteractionTracker(behaviors, graph, cfg.Recommendation.History, metrics, logger),
		Graph:        graph,
		Bus:          messaging.NewInteractionBus(cfg, validator, logger),
		Validator:    validator,
		Metrics:      metrics,
	}, nil
}

// ConsumeInteractions feeds the interaction topic into the tracker until ctx
// is done.
func (s *Services) ConsumeInteractions(ctx context.Context) error {
	return s.Bus.ConsumeInteractions(ctx, InteractionConsumer(s.Interactions))
}

// InteractionConsumer adapts a tracker to the bus. Events the tracker rejects
// as malformed are marked permanent so they skip the retry loop.
func InteractionConsumer(tracker InteractionTrackerInterface) messaging.InteractionHandler {
	return func(ctx context.Context, event *models.InteractionEvent) error {
		_, err := tracker.TrackUserInteraction(ctx, event)
		if errors.Is(err, ErrInvalidInteraction) || errors.Is(err, ErrUnknownInteractionType) {
			return messaging.Permanent(err)
		}
		return err
	}
}

// Close stops the graph worker after flushing and closes the Kafka clients.
func (s *Services) Close() error {
	s.Graph.Stop()
	return s.Bus.Close()
}
