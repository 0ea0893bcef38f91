package models

import (
	"time"

	"github.com/google/uuid"
)

// Hotel is the read-only snapshot of a catalog entry used by the recommender.
type Hotel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	Rating    Rating    `json:"rating" db:"rating"`
	Amenities []string  `json:"amenities,omitempty" db:"amenities"`
	Rooms     []Room    `json:"rooms,omitempty" db:"rooms"`
	Location  Location  `json:"location" db:"location"`
	Category  string    `json:"category,omitempty" db:"category"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Room struct {
	Type      string  `json:"type"`
	BasePrice float64 `json:"base_price"`
}

type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// CheapestRoomPrice returns the lowest room base price and false when the
// hotel has no rooms.
func (h *Hotel) CheapestRoomPrice() (float64, bool) {
	if len(h.Rooms) == 0 {
		return 0, false
	}
	cheapest := h.Rooms[0].BasePrice
	for _, room := range h.Rooms[1:] {
		if room.BasePrice < cheapest {
			cheapest = room.BasePrice
		}
	}
	return cheapest, true
}

// PriceRange is an inclusive [Min, Max] band in the catalog currency.
type PriceRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gtefield=Min"`
}

func (r PriceRange) Contains(price float64) bool {
	return price >= r.Min && price <= r.Max
}

// HotelFilter is the coarse candidate filter understood by the catalog.
type HotelFilter struct {
	ActiveOnly bool
	City       string // case-insensitive substring
	PriceRange *PriceRange
	Limit      int
}
