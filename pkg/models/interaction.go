package models

import (
	"time"

	"github.com/google/uuid"
)

type InteractionType string

const (
	InteractionSearch                 InteractionType = "search"
	InteractionHotelView              InteractionType = "hotel_view"
	InteractionBooking                InteractionType = "booking"
	InteractionRecommendationFeedback InteractionType = "recommendation_feedback"
	InteractionPreferences            InteractionType = "preferences"
)

// InteractionEvent is a single tracked event. Exactly the payload matching
// Type is expected to be set.
type InteractionEvent struct {
	UserID      uuid.UUID       `json:"user_id" validate:"required"`
	Type        InteractionType `json:"type" validate:"required,oneof=search hotel_view booking recommendation_feedback preferences"`
	Search      *SearchData     `json:"search,omitempty" validate:"omitempty"`
	HotelView   *HotelViewData  `json:"hotel_view,omitempty" validate:"omitempty"`
	Booking     *BookingData    `json:"booking,omitempty" validate:"omitempty"`
	Feedback    *FeedbackData   `json:"feedback,omitempty" validate:"omitempty"`
	Preferences *PreferenceData `json:"preferences,omitempty" validate:"omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

type SearchData struct {
	Query       SearchQuery `json:"query"`
	ResultCount int         `json:"result_count" validate:"gte=0"`
}

type HotelViewData struct {
	HotelID         uuid.UUID `json:"hotel_id" validate:"required"`
	DurationSeconds int       `json:"duration_seconds" validate:"gte=0"`
	Actions         []string  `json:"actions,omitempty"`
}

type BookingData struct {
	HotelID  uuid.UUID `json:"hotel_id" validate:"required"`
	City     string    `json:"city" validate:"required"`
	State    string    `json:"state" validate:"required"`
	CheckIn  time.Time `json:"check_in" validate:"required"`
	CheckOut time.Time `json:"check_out" validate:"required,gtfield=CheckIn"`
	RoomType string    `json:"room_type,omitempty"`
}

type FeedbackData struct {
	HotelID     uuid.UUID        `json:"hotel_id" validate:"required"`
	Recommended bool             `json:"recommended"`
	Clicked     bool             `json:"clicked"`
	Booked      bool             `json:"booked"`
	Feedback    FeedbackCategory `json:"feedback" validate:"required,oneof=liked disliked irrelevant perfect"`
}

type PreferenceData struct {
	TravelStyle        TravelStyle        `json:"travel_style,omitempty" validate:"omitempty,oneof=leisure business budget luxury family adventure"`
	LocationPreference LocationPreference `json:"location_preference,omitempty" validate:"omitempty,oneof=any city beach mountain countryside"`
	LoyaltyScore       *int               `json:"loyalty_score,omitempty" validate:"omitempty,min=0,max=100"`
	DiscoveryScore     *int               `json:"discovery_score,omitempty" validate:"omitempty,min=0,max=100"`

	// Explicitly stated booking preferences; nothing else writes these.
	PreferredPriceRange *PriceRange        `json:"preferred_price_range,omitempty" validate:"omitempty"`
	PreferredAmenities  map[string]float64 `json:"preferred_amenities,omitempty" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
}
