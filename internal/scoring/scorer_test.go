package scoring

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/pkg/models"
)

var julyClock = func() time.Time { return time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC) }

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultScoringConfig(), julyClock)
}

func goaResort() *models.Hotel {
	return &models.Hotel{
		ID:        uuid.MustParse("7f1c2a8e-0d55-4c43-9a53-1b7d3f6f2a01"),
		Name:      "Sea Breeze",
		Active:    true,
		Rating:    models.Rating{Average: 4.2, Count: 150},
		Amenities: []string{"Swimming Pool", "Free WiFi", "Spa"},
		Rooms: []models.Room{
			{Type: "deluxe", BasePrice: 4000},
			{Type: "suite", BasePrice: 9000},
		},
		Location: models.Location{City: "Goa", State: "Goa"},
		Category: "Resort",
	}
}

func emptyBehavior() *models.UserBehavior {
	return models.NewUserBehavior(uuid.New(), julyClock())
}

func pastBooking(h *models.Hotel) models.Booking {
	return models.Booking{
		ID:       uuid.New(),
		HotelID:  h.ID,
		CheckIn:  time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2025, time.December, 4, 0, 0, 0, 0, time.UTC),
		Status:   models.BookingCompleted,
		Hotel:    h,
	}
}

func TestScorer_BasePopularityWithoutBehavior(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name     string
		rating   models.Rating
		expected float64
	}{
		{name: "review term below cap", rating: models.Rating{Average: 4.2, Count: 150}, expected: 57},
		{name: "review term capped at 20", rating: models.Rating{Average: 4.2, Count: 300}, expected: 62},
		{name: "no reviews", rating: models.Rating{Average: 0, Count: 0}, expected: 0},
		{name: "rounded to two decimals", rating: models.Rating{Average: 4.333, Count: 7}, expected: 44.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hotel := goaResort()
			hotel.Rating = tt.rating

			// bookings alone never add anything without a behavior record
			bookings := []models.Booking{pastBooking(goaResort())}
			assert.Equal(t, tt.expected, s.Score(hotel, nil, bookings))
		})
	}
}

func TestScorer_LocationFactor(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name      string
		locations []models.LocationCount
		expected  float64
	}{
		{
			name:      "exact match with same-state bonus",
			locations: []models.LocationCount{{City: "Goa", State: "Goa", Count: 3}},
			expected:  55,
		},
		{
			name:      "exact match is capped",
			locations: []models.LocationCount{{City: "Goa", State: "Goa", Count: 5}},
			expected:  60,
		},
		{
			name:      "different city in the same state",
			locations: []models.LocationCount{{City: "Panaji", State: "Goa", Count: 4}},
			expected:  10,
		},
		{
			name:      "case differences still match",
			locations: []models.LocationCount{{City: "goa", State: "GOA", Count: 1}},
			expected:  25,
		},
		{
			name:      "unrelated state",
			locations: []models.LocationCount{{City: "Jaipur", State: "Rajasthan", Count: 9}},
			expected:  0,
		},
		{
			name: "state bonus is applied once",
			locations: []models.LocationCount{
				{City: "Panaji", State: "Goa", Count: 1},
				{City: "Margao", State: "Goa", Count: 1},
			},
			expected: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			behavior := emptyBehavior()
			behavior.BookingPatterns.PreferredLocations = tt.locations

			b := s.Breakdown(goaResort(), behavior, nil)
			assert.Equal(t, tt.expected, b.Location)
		})
	}
}

func TestScorer_PriceFactor(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name     string
		rooms    []models.Room
		pref     *models.PriceRange
		expected float64
	}{
		{name: "no preferred range", rooms: goaResort().Rooms, pref: nil, expected: 0},
		{name: "cheapest room inside range", rooms: goaResort().Rooms, pref: &models.PriceRange{Min: 3000, Max: 5000}, expected: 30},
		{name: "above range uses nearest boundary", rooms: goaResort().Rooms, pref: &models.PriceRange{Min: 1000, Max: 2000}, expected: -2},
		{name: "below range penalty is capped", rooms: goaResort().Rooms, pref: &models.PriceRange{Min: 30000, Max: 60000}, expected: -20},
		{name: "no rooms falls back to default price", rooms: nil, pref: &models.PriceRange{Min: 4000, Max: 6000}, expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hotel := goaResort()
			hotel.Rooms = tt.rooms
			behavior := emptyBehavior()
			behavior.BookingPatterns.PreferredPriceRange = tt.pref

			assert.Equal(t, tt.expected, s.Breakdown(hotel, behavior, nil).Price)
		})
	}
}

func TestScorer_AmenityFactor(t *testing.T) {
	s := newTestScorer()
	behavior := emptyBehavior()
	behavior.BookingPatterns.PreferredAmenities = map[string]float64{
		"pool": 2,
		"WIFI": 1.5,
		"gym":  3,
		"":     5,
	}

	// pool -> "Swimming Pool", WIFI -> "Free WiFi", gym and the empty key match nothing
	assert.Equal(t, 35.0, s.Breakdown(goaResort(), behavior, nil).Amenity)
}

func TestScorer_SeasonFactor(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name     string
		seasons  map[models.Season]int
		expected float64
	}{
		{name: "current season below cap", seasons: map[models.Season]int{models.Summer: 2}, expected: 16},
		{name: "current season capped", seasons: map[models.Season]int{models.Summer: 5}, expected: 25},
		{name: "other season only", seasons: map[models.Season]int{models.Winter: 4}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			behavior := emptyBehavior()
			behavior.BookingPatterns.PreferredSeasons = tt.seasons
			assert.Equal(t, tt.expected, s.Breakdown(goaResort(), behavior, nil).Season)
		})
	}
}

func TestScorer_SimilarityAccumulatesOverBookings(t *testing.T) {
	s := newTestScorer()

	past := &models.Hotel{
		ID:       uuid.New(),
		Name:     "Palm Grove",
		Rating:   models.Rating{Average: 4.0, Count: 80},
		Rooms:    []models.Room{{Type: "deluxe", BasePrice: 4500}},
		Location: models.Location{City: "Kochi", State: "Kerala"},
		Category: "Resort",
	}
	far := &models.Hotel{
		ID:       uuid.New(),
		Name:     "Budget Inn",
		Rating:   models.Rating{Average: 3.0, Count: 10},
		Rooms:    []models.Room{{Type: "standard", BasePrice: 1200}},
		Category: "Hostel",
	}

	t.Run("one fully similar booking", func(t *testing.T) {
		b := s.Breakdown(goaResort(), emptyBehavior(), []models.Booking{pastBooking(past)})
		assert.Equal(t, 37.0, b.Similarity)
	})

	t.Run("repeated bookings are not capped", func(t *testing.T) {
		bookings := []models.Booking{pastBooking(past), pastBooking(past), pastBooking(far)}
		b := s.Breakdown(goaResort(), emptyBehavior(), bookings)
		assert.Equal(t, 74.0, b.Similarity)
	})

	t.Run("unresolved hotels are skipped", func(t *testing.T) {
		unresolved := pastBooking(past)
		unresolved.Hotel = nil
		b := s.Breakdown(goaResort(), emptyBehavior(), []models.Booking{unresolved})
		assert.Zero(t, b.Similarity)
	})

	t.Run("rating tolerance boundary is inclusive", func(t *testing.T) {
		edge := *far
		edge.Rating.Average = 3.7
		b := s.Breakdown(goaResort(), emptyBehavior(), []models.Booking{pastBooking(&edge)})
		assert.Equal(t, 10.0, b.Similarity)
	})
}

func TestScorer_InteractionFactor(t *testing.T) {
	s := newTestScorer()
	hotel := goaResort()

	tests := []struct {
		name     string
		views    []models.HotelView
		feedback []models.FeedbackRecord
		expected float64
	}{
		{
			name:     "viewed with short dwell",
			views:    []models.HotelView{{HotelID: hotel.ID, DurationSeconds: 90}},
			expected: 29,
		},
		{
			name:     "dwell bonus is capped",
			views:    []models.HotelView{{HotelID: hotel.ID, DurationSeconds: 600}},
			expected: 35,
		},
		{
			name:     "other hotels views ignored",
			views:    []models.HotelView{{HotelID: uuid.New(), DurationSeconds: 600}},
			expected: 0,
		},
		{
			name:     "liked",
			feedback: []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: models.FeedbackLiked}},
			expected: 25,
		},
		{
			name:     "perfect",
			feedback: []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: models.FeedbackPerfect}},
			expected: 25,
		},
		{
			name:     "disliked",
			feedback: []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: models.FeedbackDisliked}},
			expected: -30,
		},
		{
			name:     "irrelevant",
			feedback: []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: models.FeedbackIrrelevant}},
			expected: -15,
		},
		{
			name: "first feedback entry wins",
			feedback: []models.FeedbackRecord{
				{HotelID: hotel.ID, Feedback: models.FeedbackDisliked},
				{HotelID: hotel.ID, Feedback: models.FeedbackLiked},
			},
			expected: -30,
		},
		{
			name:     "view and feedback combine",
			views:    []models.HotelView{{HotelID: hotel.ID, DurationSeconds: 30}},
			feedback: []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: models.FeedbackLiked}},
			expected: 48,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			behavior := emptyBehavior()
			behavior.HotelViews = tt.views
			behavior.RecommendationFeedback = tt.feedback
			assert.Equal(t, tt.expected, s.Breakdown(hotel, behavior, nil).Interaction)
		})
	}
}

func TestScorer_DiversityBonus(t *testing.T) {
	s := newTestScorer()

	suite := goaResort()
	suite.Category = "Suite"
	suite.Location = models.Location{City: "Udaipur", State: "Rajasthan"}
	bookings := []models.Booking{pastBooking(goaResort())}

	t.Run("explorer gets both bonuses", func(t *testing.T) {
		behavior := emptyBehavior()
		behavior.AIPreferences.DiscoveryScore = 70
		assert.Equal(t, 35.0, s.Breakdown(suite, behavior, bookings).Diversity)
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		behavior := emptyBehavior()
		behavior.AIPreferences.DiscoveryScore = 60
		assert.Zero(t, s.Breakdown(suite, behavior, bookings).Diversity)
	})

	t.Run("already visited city only earns the category bonus", func(t *testing.T) {
		behavior := emptyBehavior()
		behavior.AIPreferences.DiscoveryScore = 90
		visited := goaResort()
		visited.Category = "Suite"
		visited.ID = uuid.New()

		b := s.Breakdown(visited, behavior, bookings)
		assert.Equal(t, 20.0, b.Diversity)
	})
}

func TestScorer_CompositeScore(t *testing.T) {
	s := newTestScorer()
	hotel := goaResort()

	behavior := emptyBehavior()
	behavior.BookingPatterns.PreferredLocations = []models.LocationCount{{City: "Goa", State: "Goa", Count: 3}}
	behavior.BookingPatterns.PreferredPriceRange = &models.PriceRange{Min: 3000, Max: 5000}
	behavior.BookingPatterns.PreferredAmenities = map[string]float64{"spa": 1.25}
	behavior.BookingPatterns.PreferredSeasons = map[models.Season]int{models.Summer: 1}
	behavior.HotelViews = []models.HotelView{{HotelID: hotel.ID, DurationSeconds: 45}}

	// 57 base + 55 location + 30 price + 12.5 amenity + 8 season + 24.5 view
	assert.Equal(t, 187.0, s.Score(hotel, behavior, nil))

	b := s.Breakdown(hotel, behavior, nil)
	assert.Equal(t, 57.0, b.Base)
	assert.Equal(t, 12.5, b.Amenity)
	assert.Equal(t, 24.5, b.Interaction)
}

func TestScorer_Deterministic(t *testing.T) {
	s := newTestScorer()
	hotel := goaResort()

	behavior := emptyBehavior()
	behavior.BookingPatterns.PreferredAmenities = map[string]float64{
		"pool": 0.1, "wifi": 0.2, "spa": 0.7, "bar": 0.3, "gym": 0.9,
	}
	behavior.AIPreferences.DiscoveryScore = 80
	bookings := []models.Booking{pastBooking(goaResort())}

	first := s.Score(hotel, behavior, bookings)
	for i := 0; i < 50; i++ {
		require.Equal(t, first, s.Score(hotel, behavior, bookings))
	}
}

func TestScorer_DoesNotMutateInputs(t *testing.T) {
	s := newTestScorer()
	hotel := goaResort()
	behavior := emptyBehavior()
	behavior.BookingPatterns.PreferredLocations = []models.LocationCount{{City: "Goa", State: "Goa", Count: 2}}
	behavior.HotelViews = []models.HotelView{{HotelID: hotel.ID, DurationSeconds: 10}}
	bookings := []models.Booking{pastBooking(goaResort())}

	hotelBefore := *goaResort()
	viewsBefore := append([]models.HotelView(nil), behavior.HotelViews...)

	s.Score(hotel, behavior, bookings)

	assert.Equal(t, hotelBefore, *hotel)
	assert.Equal(t, viewsBefore, behavior.HotelViews)
	assert.Len(t, bookings, 1)
}

func TestScorer_FeedbackMonotonicity(t *testing.T) {
	s := newTestScorer()
	hotel := goaResort()

	base := emptyBehavior()
	base.BookingPatterns.PreferredLocations = []models.LocationCount{{City: "Goa", State: "Goa", Count: 1}}
	before := s.Score(hotel, base, nil)

	for _, category := range []models.FeedbackCategory{models.FeedbackLiked, models.FeedbackPerfect} {
		liked := *base
		liked.RecommendationFeedback = []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: category}}
		assert.Greater(t, s.Score(hotel, &liked, nil), before, category)
	}

	disliked := *base
	disliked.RecommendationFeedback = []models.FeedbackRecord{{HotelID: hotel.ID, Feedback: models.FeedbackDisliked}}
	assert.Less(t, s.Score(hotel, &disliked, nil), before)
}

func TestSeasonOf(t *testing.T) {
	expected := map[time.Month]models.Season{
		time.January: models.Winter, time.February: models.Winter, time.March: models.Spring,
		time.April: models.Spring, time.May: models.Spring, time.June: models.Summer,
		time.July: models.Summer, time.August: models.Summer, time.September: models.Autumn,
		time.October: models.Autumn, time.November: models.Autumn, time.December: models.Winter,
	}
	for month, season := range expected {
		assert.Equal(t, season, SeasonOf(time.Date(2026, month, 15, 0, 0, 0, 0, time.UTC)), month.String())
	}
}
