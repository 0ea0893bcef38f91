package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/scoring"
	"github.com/temcen/stayrank/pkg/models"
)

const fallbackRatedReason = "Highly rated by our guests"

// RecommendationEngine builds personalized, fallback and trending hotel
// lists. The personalized path never returns an error: any failure while
// loading or ranking is answered with the fallback list.
type RecommendationEngine struct {
	catalog   HotelCatalog
	bookings  BookingHistory
	behaviors BehaviorStore
	cache     Cache
	scorer    *scoring.Scorer
	explainer *scoring.Explainer
	cfg       config.RecommendationConfig
	metrics   *Metrics
	logger    *logrus.Logger
	now       func() time.Time
}

// NewRecommendationEngine creates the engine. cache may be nil, in which case
// trending lists are always computed.
func NewRecommendationEngine(
	catalog HotelCatalog,
	bookings BookingHistory,
	behaviors BehaviorStore,
	cache Cache,
	cfg config.RecommendationConfig,
	metrics *Metrics,
	logger *logrus.Logger,
) *RecommendationEngine {
	e := &RecommendationEngine{
		catalog:   catalog,
		bookings:  bookings,
		behaviors: behaviors,
		cache:     cache,
		explainer: scoring.NewExplainer(cfg.Scoring),
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
	e.scorer = scoring.NewScorer(cfg.Scoring, func() time.Time { return e.now() })
	return e
}

// pipelineError tags a personalized-path failure with the stage it came from.
type pipelineError struct {
	stage string
	err   error
}

func (e *pipelineError) Error() string { return fmt.Sprintf("%s: %v", e.stage, e.err) }
func (e *pipelineError) Unwrap() error { return e.err }

// guarded runs fn as a pipeline stage, turning both errors and panics into a
// pipelineError.
func guarded(stage string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = &pipelineError{stage: "panic", err: fmt.Errorf("%s panicked: %v", stage, r)}
			}
		}()
		if fnErr := fn(); fnErr != nil {
			return &pipelineError{stage: stage, err: fnErr}
		}
		return nil
	}
}

// GetPersonalizedRecommendations ranks candidates for the user. A user
// without a behavior record is ranked on base popularity and booking history.
func (e *RecommendationEngine) GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, opts models.RecommendationOptions) *models.RecommendationResponse {
	start := time.Now()
	opts.Limit = e.clampLimit(opts.Limit)

	source := models.SourcePersonalized
	recs, err := e.personalized(ctx, userID, opts)
	if err != nil {
		reason := "error"
		var pe *pipelineError
		if errors.As(err, &pe) {
			reason = pe.stage
		}
		e.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"reason":  reason,
		}).Warn("Personalized recommendations failed, serving fallback")
		e.metrics.Fallbacks.WithLabelValues(reason).Inc()

		recs = e.GetFallbackRecommendations(ctx, opts.Limit)
		source = models.SourceFallback
	}

	e.observe(source, start)
	return &models.RecommendationResponse{
		UserID:          &userID,
		Recommendations: recs,
		Source:          source,
		GeneratedAt:     e.now(),
	}
}

func (e *RecommendationEngine) personalized(ctx context.Context, userID uuid.UUID, opts models.RecommendationOptions) ([]models.Recommendation, error) {
	var (
		behavior   *models.UserBehavior
		bookings   []models.Booking
		candidates []*models.Hotel
	)

	// the three reads are independent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(guarded("behavior_store", func() error {
		var err error
		behavior, err = e.behaviors.Get(gctx, userID)
		return err
	}))
	g.Go(guarded("booking_history", func() error {
		var err error
		bookings, err = e.bookings.FindByUser(gctx, userID)
		return err
	}))
	g.Go(guarded("candidates", func() error {
		var err error
		candidates, err = e.catalog.Find(gctx, models.HotelFilter{
			ActiveOnly: true,
			City:       opts.Location,
			PriceRange: opts.PriceRange,
			Limit:      opts.Limit * e.overFetchFactor(),
		})
		return err
	}))
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var recs []models.Recommendation
	err := guarded("ranking", func() error {
		recs = e.rank(candidates, behavior, bookings, opts)
		return nil
	})()
	return recs, err
}

// rank scores and explains every candidate, sorts by score keeping fetch
// order among ties, drops booked hotels when asked and truncates.
func (e *RecommendationEngine) rank(candidates []*models.Hotel, behavior *models.UserBehavior, bookings []models.Booking, opts models.RecommendationOptions) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(candidates))
	for _, hotel := range candidates {
		if hotel == nil {
			continue
		}
		breakdown := e.scorer.Breakdown(hotel, behavior, bookings)
		rec := models.Recommendation{
			Hotel:   hotel,
			Score:   e.scorer.Total(breakdown),
			Reasons: e.explainer.Explain(hotel, behavior, bookings),
		}
		if opts.Explain {
			rec.Breakdown = &breakdown
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if opts.ExcludeBookedHotels {
		recs = excludeBooked(recs, bookings)
	}
	if len(recs) > opts.Limit {
		recs = recs[:opts.Limit]
	}
	return recs
}

func excludeBooked(recs []models.Recommendation, bookings []models.Booking) []models.Recommendation {
	if len(bookings) == 0 {
		return recs
	}
	booked := make(map[uuid.UUID]struct{}, len(bookings))
	for _, b := range bookings {
		booked[b.HotelID] = struct{}{}
	}

	kept := recs[:0]
	for _, rec := range recs {
		if _, ok := booked[rec.Hotel.ID]; !ok {
			kept = append(kept, rec)
		}
	}
	return kept
}

// GetFallbackRecommendations returns the top rated active hotels with a fixed
// pair of reasons. It never fails: any error yields an empty list.
func (e *RecommendationEngine) GetFallbackRecommendations(ctx context.Context, limit int) (recs []models.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", r).Error("Fallback recommendations panicked")
			recs = []models.Recommendation{}
		}
	}()

	limit = e.clampLimit(limit)
	hotels, err := e.catalog.TopRated(ctx, limit)
	if err != nil {
		e.logger.WithError(err).Error("Failed to load fallback hotels")
		return []models.Recommendation{}
	}

	recs = make([]models.Recommendation, 0, len(hotels))
	for _, hotel := range hotels {
		if hotel == nil {
			continue
		}
		recs = append(recs, models.Recommendation{
			Hotel:   hotel,
			Score:   e.scorer.RoundedBase(hotel),
			Reasons: []string{fallbackRatedReason, scoring.PopularReason},
		})
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// GetTrendingRecommendations lists hotels matching the current season's
// amenity and city keywords, optionally narrowed to a location. Results are
// cached per season, location and limit.
func (e *RecommendationEngine) GetTrendingRecommendations(ctx context.Context, location string, limit int) *models.RecommendationResponse {
	start := time.Now()
	limit = e.clampLimit(limit)
	season := scoring.SeasonOf(e.now())
	cacheKey := fmt.Sprintf("trending:%s:%s:%d", season, scoring.Normalize(location), limit)

	resp := &models.RecommendationResponse{
		Source:      models.SourceTrending,
		GeneratedAt: e.now(),
	}

	if cached, ok := e.cachedRecommendations(ctx, cacheKey); ok {
		resp.Recommendations = cached
		resp.CacheHit = true
		e.observe(models.SourceTrending, start)
		return resp
	}

	keywords := e.cfg.Trending.Seasons[string(season)]
	hotels, err := e.catalog.Trending(ctx, keywords.Amenities, keywords.Cities, location, limit)
	if err != nil {
		e.logger.WithError(err).WithField("season", season).Warn("Trending query failed, serving fallback")
		e.metrics.Fallbacks.WithLabelValues("trending").Inc()
		resp.Recommendations = e.GetFallbackRecommendations(ctx, limit)
		resp.Source = models.SourceFallback
		e.observe(models.SourceFallback, start)
		return resp
	}

	recs := make([]models.Recommendation, 0, len(hotels))
	for _, hotel := range hotels {
		if hotel == nil {
			continue
		}
		reasons := []string{fmt.Sprintf("Trending this %s", season)}
		if first := e.explainer.Explain(hotel, nil, nil)[0]; first != scoring.PopularReason {
			reasons = append(reasons, first)
		}
		recs = append(recs, models.Recommendation{
			Hotel:   hotel,
			Score:   e.scorer.RoundedBase(hotel),
			Reasons: reasons,
		})
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}

	e.cacheRecommendations(ctx, cacheKey, recs)
	resp.Recommendations = recs
	e.observe(models.SourceTrending, start)
	return resp
}

func (e *RecommendationEngine) cachedRecommendations(ctx context.Context, key string) ([]models.Recommendation, bool) {
	if e.cache == nil {
		return nil, false
	}
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.WithError(err).WithField("key", key).Debug("Trending cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var recs []models.Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		e.logger.WithError(err).WithField("key", key).Warn("Discarding undecodable trending cache entry")
		return nil, false
	}
	return recs, true
}

func (e *RecommendationEngine) cacheRecommendations(ctx context.Context, key string, recs []models.Recommendation) {
	if e.cache == nil || e.cfg.Trending.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		e.logger.WithError(err).Warn("Failed to encode trending recommendations")
		return
	}
	if err := e.cache.Set(ctx, key, data, e.cfg.Trending.CacheTTL); err != nil {
		e.logger.WithError(err).WithField("key", key).Warn("Failed to cache trending recommendations")
	}
}

func (e *RecommendationEngine) clampLimit(limit int) int {
	if limit <= 0 {
		limit = e.cfg.Defaults.Limit
	}
	if e.cfg.Defaults.MaxLimit > 0 && limit > e.cfg.Defaults.MaxLimit {
		limit = e.cfg.Defaults.MaxLimit
	}
	if limit <= 0 {
		limit = 1
	}
	return limit
}

func (e *RecommendationEngine) overFetchFactor() int {
	if e.cfg.Defaults.OverFetchFactor < 1 {
		return 1
	}
	return e.cfg.Defaults.OverFetchFactor
}

func (e *RecommendationEngine) observe(source models.RecommendationSource, start time.Time) {
	e.metrics.Recommendations.WithLabelValues(string(source)).Inc()
	e.metrics.Duration.WithLabelValues(string(source)).Observe(time.Since(start).Seconds())
}
