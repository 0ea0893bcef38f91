package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/temcen/stayrank/pkg/models"
)

// HotelCatalog is the read-only hotel source used for candidates, fallback
// and trending lists.
type HotelCatalog interface {
	Find(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error)
	TopRated(ctx context.Context, limit int) ([]*models.Hotel, error)
	Trending(ctx context.Context, amenities, cities []string, location string, limit int) ([]*models.Hotel, error)
}

// BookingHistory returns a user's bookings with the booked hotels resolved
// where possible.
type BookingHistory interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
}

// BehaviorStore persists UserBehavior documents. Get returns nil, nil when the
// user has no record.
type BehaviorStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserBehavior, error)
	Save(ctx context.Context, behavior *models.UserBehavior) error
}

// Cache is a byte cache with expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// GraphSink receives interaction edges after a behavior update was saved.
type GraphSink interface {
	Enqueue(edge GraphEdge)
}

// RecommendationEngineInterface defines the read side used by the handlers
type RecommendationEngineInterface interface {
	GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, opts models.RecommendationOptions) *models.RecommendationResponse
	GetTrendingRecommendations(ctx context.Context, location string, limit int) *models.RecommendationResponse
}

// InteractionTrackerInterface defines the write side used by the handlers and
// the Kafka consumer
type InteractionTrackerInterface interface {
	TrackUserInteraction(ctx context.Context, event *models.InteractionEvent) (*models.UserBehavior, error)
	GetBehavior(ctx context.Context, userID uuid.UUID) (*models.UserBehavior, error)
}

// InteractionPublisher hands events to the asynchronous ingestion path.
type InteractionPublisher interface {
	PublishInteraction(ctx context.Context, event *models.InteractionEvent) (uuid.UUID, error)
}
