package models

import (
	"time"

	"github.com/google/uuid"
)

type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

type TravelStyle string

const (
	TravelLeisure   TravelStyle = "leisure"
	TravelBusiness  TravelStyle = "business"
	TravelBudget    TravelStyle = "budget"
	TravelLuxury    TravelStyle = "luxury"
	TravelFamily    TravelStyle = "family"
	TravelAdventure TravelStyle = "adventure"
)

type LocationPreference string

const (
	LocationAny         LocationPreference = "any"
	LocationCity        LocationPreference = "city"
	LocationBeach       LocationPreference = "beach"
	LocationMountain    LocationPreference = "mountain"
	LocationCountryside LocationPreference = "countryside"
)

type FeedbackCategory string

const (
	FeedbackLiked      FeedbackCategory = "liked"
	FeedbackDisliked   FeedbackCategory = "disliked"
	FeedbackIrrelevant FeedbackCategory = "irrelevant"
	FeedbackPerfect    FeedbackCategory = "perfect"
)

// UserBehavior is the per-user interaction document read by the scorer and
// written only by the interaction tracker. All history lists are newest-first.
type UserBehavior struct {
	UserID                 uuid.UUID        `json:"user_id"`
	Searches               []SearchRecord   `json:"searches"`
	HotelViews             []HotelView      `json:"hotel_views"`
	BookingPatterns        BookingPatterns  `json:"booking_patterns"`
	AIPreferences          AIPreferences    `json:"ai_preferences"`
	RecommendationFeedback []FeedbackRecord `json:"recommendation_feedback"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// NewUserBehavior returns the document created lazily on a user's first
// tracked interaction.
func NewUserBehavior(userID uuid.UUID, now time.Time) *UserBehavior {
	return &UserBehavior{
		UserID:     userID,
		Searches:   []SearchRecord{},
		HotelViews: []HotelView{},
		BookingPatterns: BookingPatterns{
			PreferredSeasons:    map[Season]int{},
			PreferredLocations:  []LocationCount{},
			PreferredAmenities:  map[string]float64{},
			PreferredRoomTypes:  map[string]int{},
			AverageStayDuration: 1,
		},
		AIPreferences: AIPreferences{
			TravelStyle:        TravelLeisure,
			LocationPreference: LocationAny,
			LoyaltyScore:       0,
			DiscoveryScore:     50,
		},
		RecommendationFeedback: []FeedbackRecord{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

type SearchQuery struct {
	Location   string      `json:"location,omitempty"`
	CheckIn    *time.Time  `json:"check_in,omitempty"`
	CheckOut   *time.Time  `json:"check_out,omitempty"`
	Guests     int         `json:"guests,omitempty"`
	PriceRange *PriceRange `json:"price_range,omitempty"`
	Amenities  []string    `json:"amenities,omitempty"`
}

type SearchRecord struct {
	Query       SearchQuery `json:"query"`
	Timestamp   time.Time   `json:"timestamp"`
	ResultCount int         `json:"result_count"`
}

type HotelView struct {
	HotelID         uuid.UUID `json:"hotel_id"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds int       `json:"duration_seconds"`
	Actions         []string  `json:"actions,omitempty"`
}

type LocationCount struct {
	City  string `json:"city"`
	State string `json:"state"`
	Count int    `json:"count"`
}

type BookingPatterns struct {
	PreferredSeasons    map[Season]int     `json:"preferred_seasons"`
	PreferredLocations  []LocationCount    `json:"preferred_locations"`
	PreferredPriceRange *PriceRange        `json:"preferred_price_range,omitempty"`
	PreferredAmenities  map[string]float64 `json:"preferred_amenities"`
	PreferredRoomTypes  map[string]int     `json:"preferred_room_types"`
	AverageStayDuration int                `json:"average_stay_duration"`
}

type AIPreferences struct {
	TravelStyle        TravelStyle        `json:"travel_style"`
	LocationPreference LocationPreference `json:"location_preference"`
	LoyaltyScore       int                `json:"loyalty_score"`
	DiscoveryScore     int                `json:"discovery_score"`
}

type FeedbackRecord struct {
	HotelID     uuid.UUID        `json:"hotel_id"`
	Recommended bool             `json:"recommended"`
	Clicked     bool             `json:"clicked"`
	Booked      bool             `json:"booked"`
	Feedback    FeedbackCategory `json:"feedback"`
	Timestamp   time.Time        `json:"timestamp"`
}
