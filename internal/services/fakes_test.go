package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/pkg/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fakeCatalog struct {
	mu sync.Mutex

	found     []*models.Hotel
	findErr   error
	findPanic bool
	filters   []models.HotelFilter

	topRated []*models.Hotel
	topErr   error

	trending      []*models.Hotel
	trendingErr   error
	trendingCalls int
	trendingArgs  [][]string
}

func (c *fakeCatalog) Find(_ context.Context, filter models.HotelFilter) ([]*models.Hotel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findPanic {
		panic("catalog exploded")
	}
	c.filters = append(c.filters, filter)
	return c.found, c.findErr
}

func (c *fakeCatalog) TopRated(_ context.Context, limit int) ([]*models.Hotel, error) {
	if c.topErr != nil {
		return nil, c.topErr
	}
	if len(c.topRated) > limit {
		return c.topRated[:limit], nil
	}
	return c.topRated, nil
}

func (c *fakeCatalog) Trending(_ context.Context, amenities, cities []string, _ string, _ int) ([]*models.Hotel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trendingCalls++
	c.trendingArgs = append(c.trendingArgs, amenities, cities)
	return c.trending, c.trendingErr
}

type fakeBookings struct {
	bookings []models.Booking
	err      error
}

func (b *fakeBookings) FindByUser(context.Context, uuid.UUID) ([]models.Booking, error) {
	return b.bookings, b.err
}

type fakeBehaviorStore struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]*models.UserBehavior
	getErr  error
	saveErr error
	saves   int
}

func newFakeBehaviorStore() *fakeBehaviorStore {
	return &fakeBehaviorStore{docs: map[uuid.UUID]*models.UserBehavior{}}
}

func (s *fakeBehaviorStore) Get(_ context.Context, userID uuid.UUID) (*models.UserBehavior, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.docs[userID], nil
}

func (s *fakeBehaviorStore) Save(_ context.Context, behavior *models.UserBehavior) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.docs[behavior.UserID] = behavior
	return nil
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

type recordingSink struct {
	mu    sync.Mutex
	edges []GraphEdge
}

func (s *recordingSink) Enqueue(edge GraphEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edge)
}

func hotel(name string, rating float64, reviews int, city string) *models.Hotel {
	return &models.Hotel{
		ID:        uuid.New(),
		Name:      name,
		Active:    true,
		Rating:    models.Rating{Average: rating, Count: reviews},
		Amenities: []string{"Free WiFi"},
		Rooms:     []models.Room{{Type: "Deluxe", BasePrice: 4000}},
		Location:  models.Location{City: city, State: "Goa"},
		Category:  "Resort",
	}
}
