package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Booking is a past or pending reservation. Hotel is nil when the referenced
// hotel could not be resolved from the catalog.
type Booking struct {
	ID       uuid.UUID     `json:"id" db:"id"`
	UserID   uuid.UUID     `json:"user_id" db:"user_id"`
	HotelID  uuid.UUID     `json:"hotel_id" db:"hotel_id"`
	CheckIn  time.Time     `json:"check_in" db:"check_in"`
	CheckOut time.Time     `json:"check_out" db:"check_out"`
	Status   BookingStatus `json:"status" db:"status"`
	Hotel    *Hotel        `json:"hotel,omitempty"`
}

// Nights returns the number of nights between check-in and check-out, never
// less than one.
func (b *Booking) Nights() int {
	nights := int(math.Round(b.CheckOut.Sub(b.CheckIn).Hours() / 24))
	if nights < 1 {
		return 1
	}
	return nights
}
