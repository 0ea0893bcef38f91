package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/temcen/stayrank/pkg/models"
)

// HotelCatalog reads hotel snapshots from the hotels table.
type HotelCatalog struct {
	db DBTX
}

func NewHotelCatalog(db DBTX) *HotelCatalog {
	return &HotelCatalog{db: db}
}

// Find returns hotels matching the filter ordered by rating, then id. City is
// matched as a case-insensitive substring; a price range keeps hotels with at
// least one room priced inside it.
func (c *HotelCatalog) Find(ctx context.Context, filter models.HotelFilter) ([]*models.Hotel, error) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActiveOnly {
		conditions = append(conditions, "h.active = TRUE")
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		conditions = append(conditions, "h.city ILIKE "+arg("%"+escapeLike(city)+"%"))
	}
	if pr := filter.PriceRange; pr != nil {
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(h.rooms, '[]'::jsonb)) r
			 WHERE (r->>'base_price')::float8 BETWEEN %s AND %s)`, arg(pr.Min), arg(pr.Max)))
	}

	query := "SELECT " + hotelColumns + " FROM hotels h"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY h.rating_average DESC, h.id"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotels: %w", err)
	}
	return scanHotels(rows)
}

// TopRated returns the highest rated active hotels.
func (c *HotelCatalog) TopRated(ctx context.Context, limit int) ([]*models.Hotel, error) {
	return c.Find(ctx, models.HotelFilter{ActiveOnly: true, Limit: limit})
}

// Trending returns active hotels that offer one of the amenities or sit in one
// of the cities, ordered by rating then recency. A non-empty location further
// restricts the city.
func (c *HotelCatalog) Trending(ctx context.Context, amenities, cities []string, location string, limit int) ([]*models.Hotel, error) {
	query := `SELECT ` + hotelColumns + ` FROM hotels h
		WHERE h.active = TRUE
		AND (
			EXISTS (SELECT 1 FROM unnest(COALESCE(h.amenities, '{}')) a WHERE a ILIKE ANY($1))
			OR h.city ILIKE ANY($2)
		)`
	args := []interface{}{likePatterns(amenities), likePatterns(cities)}

	if loc := strings.TrimSpace(location); loc != "" {
		args = append(args, "%"+escapeLike(loc)+"%")
		query += fmt.Sprintf(" AND h.city ILIKE $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY h.rating_average DESC, h.created_at DESC LIMIT $%d", len(args))

	rows, err := c.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending hotels: %w", err)
	}
	return scanHotels(rows)
}

// ByIDs resolves hotels by id. Unknown ids are absent from the result.
func (c *HotelCatalog) ByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Hotel, error) {
	found := make(map[uuid.UUID]*models.Hotel, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := c.db.Query(ctx, "SELECT "+hotelColumns+" FROM hotels h WHERE h.id = ANY($1)", ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotels by id: %w", err)
	}
	hotels, err := scanHotels(rows)
	if err != nil {
		return nil, err
	}
	for _, h := range hotels {
		found[h.ID] = h
	}
	return found, nil
}

func likePatterns(keywords []string) []string {
	patterns := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			patterns = append(patterns, "%"+escapeLike(k)+"%")
		}
	}
	return patterns
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
