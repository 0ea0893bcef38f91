// Package storage holds the PostgreSQL implementations of the hotel catalog,
// booking history and behavior store consumed by the recommendation engine.
package storage

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/temcen/stayrank/pkg/models"
)

var ErrNotFound = errors.New("not found")

//go:embed schema.sql
var schema string

// DBTX is the subset of pgxpool.Pool used by the stores. pgxmock pools
// satisfy it as well.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// EnsureSchema creates the tables the stores read and write if they are
// missing.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

const hotelColumns = `h.id, h.name, h.active, h.rating_average, h.rating_count,
	COALESCE(h.amenities, '{}'), COALESCE(h.rooms, '[]'::jsonb),
	h.city, h.state, COALESCE(h.category, ''), h.created_at`

func scanHotels(rows pgx.Rows) ([]*models.Hotel, error) {
	defer rows.Close()

	var hotels []*models.Hotel
	for rows.Next() {
		var (
			h     models.Hotel
			rooms []byte
		)
		if err := rows.Scan(
			&h.ID, &h.Name, &h.Active, &h.Rating.Average, &h.Rating.Count,
			&h.Amenities, &rooms, &h.Location.City, &h.Location.State,
			&h.Category, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		if len(rooms) > 0 {
			if err := json.Unmarshal(rooms, &h.Rooms); err != nil {
				return nil, fmt.Errorf("failed to decode rooms of hotel %s: %w", h.ID, err)
			}
		}
		hotels = append(hotels, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hotels: %w", err)
	}
	return hotels, nil
}
