package scoring

import (
	"fmt"
	"sort"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/pkg/models"
)

const (
	MaxReasons    = 2
	PopularReason = "Popular choice among travelers"
)

// Explainer derives short human-readable reasons for a hotel. It looks at the
// same snapshot as the scorer but never at the score itself.
type Explainer struct {
	cfg config.ScoringConfig
}

func NewExplainer(cfg config.ScoringConfig) *Explainer {
	return &Explainer{cfg: cfg}
}

// Explain returns at most two reasons in priority order: preferred
// destination, category of a previous booking, high rating, matched amenity.
// When none applies the generic popular-choice reason is returned.
func (e *Explainer) Explain(hotel *models.Hotel, behavior *models.UserBehavior, bookings []models.Booking) []string {
	reasons := make([]string, 0, MaxReasons)
	add := func(r string) bool {
		reasons = append(reasons, r)
		return len(reasons) >= MaxReasons
	}

	if behavior != nil && preferredDestination(hotel, behavior) {
		if add(fmt.Sprintf("You often stay in %s", hotel.Location.City)) {
			return reasons
		}
	}

	if prior := similarBooking(hotel, bookings); prior != nil {
		if add(fmt.Sprintf("Similar to %s, which you booked before", prior.Name)) {
			return reasons
		}
	}

	if hotel.Rating.Average >= e.cfg.HighlyRatedThreshold {
		if add(fmt.Sprintf("Highly rated by guests (%.1f/5)", hotel.Rating.Average)) {
			return reasons
		}
	}

	if behavior != nil {
		if amenity, ok := matchedAmenity(hotel, behavior); ok {
			if add(fmt.Sprintf("Offers %s, which you look for", amenity)) {
				return reasons
			}
		}
	}

	if len(reasons) == 0 {
		reasons = append(reasons, PopularReason)
	}
	return reasons
}

func preferredDestination(hotel *models.Hotel, behavior *models.UserBehavior) bool {
	for _, loc := range behavior.BookingPatterns.PreferredLocations {
		if sameFold(loc.City, hotel.Location.City) && sameFold(loc.State, hotel.Location.State) {
			return true
		}
	}
	return false
}

func similarBooking(hotel *models.Hotel, bookings []models.Booking) *models.Hotel {
	if hotel.Category == "" {
		return nil
	}
	for i := range bookings {
		booked := bookings[i].Hotel
		if booked != nil && booked.Name != "" && sameFold(booked.Category, hotel.Category) {
			return booked
		}
	}
	return nil
}

// matchedAmenity picks the heaviest preferred amenity the hotel offers and
// returns the hotel's own spelling of it.
func matchedAmenity(hotel *models.Hotel, behavior *models.UserBehavior) (string, bool) {
	preferred := behavior.BookingPatterns.PreferredAmenities
	if len(preferred) == 0 {
		return "", false
	}

	keys := sortedKeys(preferred)
	sort.SliceStable(keys, func(i, j int) bool {
		return preferred[keys[i]] > preferred[keys[j]]
	})

	have := NewAmenitySet(hotel.Amenities)
	for _, amenity := range keys {
		if match, ok := have.Match(amenity); ok {
			return match, true
		}
	}
	return "", false
}
