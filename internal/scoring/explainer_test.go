package scoring

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/pkg/models"
)

func TestExplainer_Explain(t *testing.T) {
	e := NewExplainer(config.DefaultScoringConfig())

	palmGrove := &models.Hotel{ID: uuid.New(), Name: "Palm Grove", Category: "Resort"}

	goaRegular := func() *models.UserBehavior {
		b := emptyBehavior()
		b.BookingPatterns.PreferredLocations = []models.LocationCount{{City: "Goa", State: "Goa", Count: 2}}
		return b
	}
	poolLover := func() *models.UserBehavior {
		b := emptyBehavior()
		b.BookingPatterns.PreferredAmenities = map[string]float64{"pool": 1, "spa": 2}
		return b
	}

	tests := []struct {
		name     string
		hotel    func() *models.Hotel
		behavior *models.UserBehavior
		bookings []models.Booking
		expected []string
	}{
		{
			name:     "destination and previous booking",
			hotel:    goaResort,
			behavior: goaRegular(),
			bookings: []models.Booking{pastBooking(palmGrove)},
			expected: []string{"You often stay in Goa", "Similar to Palm Grove, which you booked before"},
		},
		{
			name: "high rating without behavior",
			hotel: func() *models.Hotel {
				h := goaResort()
				h.Rating.Average = 4.7
				return h
			},
			expected: []string{"Highly rated by guests (4.7/5)"},
		},
		{
			name:     "heaviest matched amenity uses the hotel's spelling",
			hotel:    goaResort,
			behavior: poolLover(),
			expected: []string{"Offers Spa, which you look for"},
		},
		{
			name:     "nothing applies",
			hotel:    goaResort,
			behavior: emptyBehavior(),
			expected: []string{PopularReason},
		},
		{
			name: "capped at two reasons in priority order",
			hotel: func() *models.Hotel {
				h := goaResort()
				h.Rating.Average = 4.9
				return h
			},
			behavior: func() *models.UserBehavior {
				b := goaRegular()
				b.BookingPatterns.PreferredAmenities = map[string]float64{"spa": 1}
				return b
			}(),
			bookings: []models.Booking{pastBooking(palmGrove)},
			expected: []string{"You often stay in Goa", "Similar to Palm Grove, which you booked before"},
		},
		{
			name: "rating and amenity fill the remaining slots",
			hotel: func() *models.Hotel {
				h := goaResort()
				h.Rating.Average = 4.5
				return h
			},
			behavior: poolLover(),
			expected: []string{"Highly rated by guests (4.5/5)", "Offers Spa, which you look for"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasons := e.Explain(tt.hotel(), tt.behavior, tt.bookings)
			assert.Equal(t, tt.expected, reasons)
			assert.LessOrEqual(t, len(reasons), MaxReasons)
		})
	}
}
