package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/temcen/stayrank/pkg/models"
)

// BookingHistory reads a user's bookings and resolves the booked hotels.
type BookingHistory struct {
	db      DBTX
	catalog *HotelCatalog
}

func NewBookingHistory(db DBTX, catalog *HotelCatalog) *BookingHistory {
	return &BookingHistory{db: db, catalog: catalog}
}

// FindByUser returns every booking of the user, newest check-in first. A
// booking whose hotel no longer exists keeps a nil Hotel.
func (b *BookingHistory) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	rows, err := b.db.Query(ctx, `
		SELECT id, user_id, hotel_id, check_in, check_out, status
		FROM bookings
		WHERE user_id = $1
		ORDER BY check_in DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var (
		bookings []models.Booking
		hotelIDs []uuid.UUID
		seen     = make(map[uuid.UUID]bool)
	)
	for rows.Next() {
		var (
			bk     models.Booking
			status string
		)
		if err := rows.Scan(&bk.ID, &bk.UserID, &bk.HotelID, &bk.CheckIn, &bk.CheckOut, &status); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bk.Status = models.BookingStatus(status)
		bookings = append(bookings, bk)
		if !seen[bk.HotelID] {
			seen[bk.HotelID] = true
			hotelIDs = append(hotelIDs, bk.HotelID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	hotels, err := b.catalog.ByIDs(ctx, hotelIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve booked hotels: %w", err)
	}
	for i := range bookings {
		bookings[i].Hotel = hotels[bookings[i].HotelID]
	}
	return bookings, nil
}
