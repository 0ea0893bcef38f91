// Package scoring implements the deterministic hotel scorer and the reason
// explainer used by the recommendation engine. Everything here is a pure
// function of its inputs: no I/O, no shared mutable state, and the inputs
// are never modified, so a scorer can be shared across goroutines.
package scoring

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/pkg/models"
)

// Float comparisons against configured tolerances use this slack so that
// 4.3-3.8 still counts as "within 0.5".
const epsilon = 1e-9

// Scorer maps a (hotel, behavior, bookings) snapshot to a score.
type Scorer struct {
	cfg config.ScoringConfig
	now func() time.Time
}

// NewScorer creates a scorer. now supplies the clock used for the seasonal
// factor; nil means time.Now.
func NewScorer(cfg config.ScoringConfig, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{cfg: cfg, now: now}
}

// Score returns the composite score rounded to two decimals. A nil behavior
// yields the base popularity only.
func (s *Scorer) Score(hotel *models.Hotel, behavior *models.UserBehavior, bookings []models.Booking) float64 {
	return s.Total(s.Breakdown(hotel, behavior, bookings))
}

// Breakdown returns the unrounded contribution of every factor. The rounded
// sum of the contributions is the score.
func (s *Scorer) Breakdown(hotel *models.Hotel, behavior *models.UserBehavior, bookings []models.Booking) models.ScoreBreakdown {
	b := models.ScoreBreakdown{
		Base: s.BasePopularity(hotel),
	}
	if behavior == nil {
		return b
	}

	b.Location = s.locationScore(hotel, behavior)
	b.Price = s.priceScore(hotel, behavior)
	b.Amenity = s.amenityScore(hotel, behavior)
	b.Season = s.seasonScore(behavior)
	b.Similarity = s.similarityScore(hotel, bookings)
	b.Interaction = s.interactionScore(hotel, behavior)
	b.Diversity = s.diversityScore(hotel, behavior, bookings)
	return b
}

// BasePopularity is rating*10 plus a capped review-count term. It is shared
// with the fallback and trending paths.
func (s *Scorer) BasePopularity(hotel *models.Hotel) float64 {
	reviews := math.Min(float64(hotel.Rating.Count)*s.cfg.ReviewMultiplier, s.cfg.ReviewCap)
	return hotel.Rating.Average*s.cfg.RatingMultiplier + reviews
}

// RoundedBase is BasePopularity rounded like a full score.
func (s *Scorer) RoundedBase(hotel *models.Hotel) float64 {
	return round2(s.BasePopularity(hotel))
}

// Total sums a breakdown and rounds it to two decimals.
func (s *Scorer) Total(b models.ScoreBreakdown) float64 {
	return round2(floats.Sum([]float64{
		b.Base, b.Location, b.Price, b.Amenity,
		b.Season, b.Similarity, b.Interaction, b.Diversity,
	}))
}

func (s *Scorer) locationScore(hotel *models.Hotel, behavior *models.UserBehavior) float64 {
	var score float64
	exactFound, stateFound := false, false

	for _, loc := range behavior.BookingPatterns.PreferredLocations {
		if !exactFound && sameFold(loc.City, hotel.Location.City) && sameFold(loc.State, hotel.Location.State) {
			score += math.Min(float64(loc.Count)*s.cfg.LocationPerCount, s.cfg.LocationCap)
			exactFound = true
		}
		if !stateFound && loc.State != "" && sameFold(loc.State, hotel.Location.State) {
			score += s.cfg.SameStateBonus
			stateFound = true
		}
	}
	return score
}

func (s *Scorer) priceScore(hotel *models.Hotel, behavior *models.UserBehavior) float64 {
	preferred := behavior.BookingPatterns.PreferredPriceRange
	if preferred == nil {
		return 0
	}

	price := s.roomPrice(hotel)
	if preferred.Contains(price) {
		return s.cfg.PriceInRangeBonus
	}

	distance := math.Min(math.Abs(price-preferred.Min), math.Abs(price-preferred.Max))
	if s.cfg.PricePenaltyDivide <= 0 {
		return -s.cfg.PricePenaltyCap
	}
	return -math.Min(distance/s.cfg.PricePenaltyDivide, s.cfg.PricePenaltyCap)
}

func (s *Scorer) amenityScore(hotel *models.Hotel, behavior *models.UserBehavior) float64 {
	preferred := behavior.BookingPatterns.PreferredAmenities
	if len(preferred) == 0 || len(hotel.Amenities) == 0 {
		return 0
	}

	have := NewAmenitySet(hotel.Amenities)
	var score float64
	// sorted so the float sum is identical on every call
	for _, amenity := range sortedKeys(preferred) {
		if _, ok := have.Match(amenity); ok {
			score += preferred[amenity] * s.cfg.AmenityMultiplier
		}
	}
	return score
}

func (s *Scorer) seasonScore(behavior *models.UserBehavior) float64 {
	count := behavior.BookingPatterns.PreferredSeasons[SeasonOf(s.now())]
	if count <= 0 {
		return 0
	}
	return math.Min(float64(count)*s.cfg.SeasonPerCount, s.cfg.SeasonCap)
}

// similarityScore accumulates over every resolved past booking without a cap.
func (s *Scorer) similarityScore(hotel *models.Hotel, bookings []models.Booking) float64 {
	var score float64
	price := s.roomPrice(hotel)

	for i := range bookings {
		booked := bookings[i].Hotel
		if booked == nil {
			continue
		}
		if hotel.Category != "" && sameFold(hotel.Category, booked.Category) {
			score += s.cfg.SimilarCategoryBonus
		}
		if math.Abs(hotel.Rating.Average-booked.Rating.Average) <= s.cfg.RatingTolerance+epsilon {
			score += s.cfg.SimilarRatingBonus
		}
		bookedPrice := s.roomPrice(booked)
		if bookedPrice > 0 && math.Abs(price-bookedPrice)/bookedPrice <= s.cfg.PriceTolerance+epsilon {
			score += s.cfg.SimilarPriceBonus
		}
	}
	return score
}

func (s *Scorer) interactionScore(hotel *models.Hotel, behavior *models.UserBehavior) float64 {
	var score float64

	for _, view := range behavior.HotelViews {
		if view.HotelID != hotel.ID {
			continue
		}
		dwell := 0.0
		if s.cfg.ViewDurationDivisor > 0 {
			dwell = math.Min(float64(view.DurationSeconds)/s.cfg.ViewDurationDivisor, s.cfg.ViewDurationCap)
		}
		score += s.cfg.ViewedBonus + dwell
		break
	}

	for _, fb := range behavior.RecommendationFeedback {
		if fb.HotelID != hotel.ID {
			continue
		}
		switch fb.Feedback {
		case models.FeedbackLiked, models.FeedbackPerfect:
			score += s.cfg.LikedBonus
		case models.FeedbackDisliked:
			score -= s.cfg.DislikedPenalty
		case models.FeedbackIrrelevant:
			score -= s.cfg.IrrelevantPenalty
		}
		break
	}
	return score
}

func (s *Scorer) diversityScore(hotel *models.Hotel, behavior *models.UserBehavior, bookings []models.Booking) float64 {
	if behavior.AIPreferences.DiscoveryScore <= s.cfg.DiscoveryThreshold {
		return 0
	}

	var score float64
	if hotel.Category != "" && !bookedAny(bookings, func(h *models.Hotel) bool {
		return sameFold(h.Category, hotel.Category)
	}) {
		score += s.cfg.NewCategoryBonus
	}
	if hotel.Location.City != "" && !bookedAny(bookings, func(h *models.Hotel) bool {
		return sameFold(h.Location.City, hotel.Location.City)
	}) {
		score += s.cfg.NewCityBonus
	}
	return score
}

// roomPrice is the cheapest room price, or the configured default for a
// hotel without rooms.
func (s *Scorer) roomPrice(hotel *models.Hotel) float64 {
	if price, ok := hotel.CheapestRoomPrice(); ok {
		return price
	}
	return s.cfg.DefaultRoomPrice
}

func bookedAny(bookings []models.Booking, match func(*models.Hotel) bool) bool {
	for i := range bookings {
		if bookings[i].Hotel != nil && match(bookings[i].Hotel) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
