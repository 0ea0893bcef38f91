package models

import (
	"time"

	"github.com/google/uuid"
)

// Recommendation is one ranked hotel with its score and up to two reasons.
type Recommendation struct {
	Hotel     *Hotel          `json:"hotel"`
	Score     float64         `json:"score"`
	Reasons   []string        `json:"reasons"`
	Breakdown *ScoreBreakdown `json:"breakdown,omitempty"`
}

// ScoreBreakdown holds the per-factor contributions that sum to the score.
type ScoreBreakdown struct {
	Base        float64 `json:"base"`
	Location    float64 `json:"location"`
	Price       float64 `json:"price"`
	Amenity     float64 `json:"amenity"`
	Season      float64 `json:"season"`
	Similarity  float64 `json:"similarity"`
	Interaction float64 `json:"interaction"`
	Diversity   float64 `json:"diversity"`
}

// RecommendationOptions are the caller-facing knobs of the personalized path.
type RecommendationOptions struct {
	Limit               int         `json:"limit" validate:"min=1,max=50"`
	ExcludeBookedHotels bool        `json:"exclude_booked_hotels"`
	Location            string      `json:"location,omitempty"`
	PriceRange          *PriceRange `json:"price_range,omitempty"`
	Explain             bool        `json:"explain"`
}

type RecommendationSource string

const (
	SourcePersonalized RecommendationSource = "personalized"
	SourceFallback     RecommendationSource = "fallback"
	SourceTrending     RecommendationSource = "trending"
)

type RecommendationResponse struct {
	UserID          *uuid.UUID           `json:"user_id,omitempty"`
	Recommendations []Recommendation     `json:"recommendations"`
	Source          RecommendationSource `json:"source"`
	GeneratedAt     time.Time            `json:"generated_at"`
	CacheHit        bool                 `json:"cache_hit"`
}
