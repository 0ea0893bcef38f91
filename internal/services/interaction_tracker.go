package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/scoring"
	"github.com/temcen/stayrank/pkg/models"
)

var (
	ErrInvalidInteraction     = errors.New("invalid interaction")
	ErrUnknownInteractionType = errors.New("unknown interaction type")
	ErrBehaviorNotFound       = errors.New("behavior not found")
)

// InteractionTracker is the only writer of UserBehavior documents. Each
// event is applied as a read-modify-write of the whole document; concurrent
// events for one user are last write wins.
type InteractionTracker struct {
	store   BehaviorStore
	graph   GraphSink
	history config.HistoryConfig
	metrics *Metrics
	logger  *logrus.Logger
	now     func() time.Time
}

// NewInteractionTracker creates a tracker. graph may be nil.
func NewInteractionTracker(store BehaviorStore, graph GraphSink, history config.HistoryConfig, metrics *Metrics, logger *logrus.Logger) *InteractionTracker {
	return &InteractionTracker{
		store:   store,
		graph:   graph,
		history: history,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// TrackUserInteraction applies the event to the user's behavior record,
// creating it on first use, and persists it. Persistence errors are returned
// so the caller can retry.
func (t *InteractionTracker) TrackUserInteraction(ctx context.Context, event *models.InteractionEvent) (*models.UserBehavior, error) {
	if err := checkPayload(event); err != nil {
		t.count(event, "rejected")
		return nil, err
	}

	behavior, err := t.store.Get(ctx, event.UserID)
	if err != nil {
		t.count(event, "error")
		return nil, fmt.Errorf("failed to load behavior: %w", err)
	}
	now := t.now()
	if behavior == nil {
		behavior = models.NewUserBehavior(event.UserID, now)
	}

	at := event.Timestamp
	if at.IsZero() {
		at = now
	}

	switch event.Type {
	case models.InteractionSearch:
		behavior.Searches = prependBounded(behavior.Searches, models.SearchRecord{
			Query:       event.Search.Query,
			Timestamp:   at,
			ResultCount: event.Search.ResultCount,
		}, t.history.SearchCap)

	case models.InteractionHotelView:
		behavior.HotelViews = prependBounded(behavior.HotelViews, models.HotelView{
			HotelID:         event.HotelView.HotelID,
			Timestamp:       at,
			DurationSeconds: event.HotelView.DurationSeconds,
			Actions:         event.HotelView.Actions,
		}, t.history.ViewCap)

	case models.InteractionBooking:
		behavior.BookingPatterns = applyBooking(behavior.BookingPatterns, event.Booking)

	case models.InteractionRecommendationFeedback:
		behavior.RecommendationFeedback = prependBounded(behavior.RecommendationFeedback, models.FeedbackRecord{
			HotelID:     event.Feedback.HotelID,
			Recommended: event.Feedback.Recommended,
			Clicked:     event.Feedback.Clicked,
			Booked:      event.Feedback.Booked,
			Feedback:    event.Feedback.Feedback,
			Timestamp:   at,
		}, t.history.FeedbackCap)

	case models.InteractionPreferences:
		behavior.AIPreferences = applyPreferences(behavior.AIPreferences, event.Preferences)
		behavior.BookingPatterns = applyStatedPreferences(behavior.BookingPatterns, event.Preferences)
	}

	behavior.UpdatedAt = now
	if err := t.store.Save(ctx, behavior); err != nil {
		t.count(event, "error")
		t.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": event.UserID,
			"type":    event.Type,
		}).Error("Failed to persist behavior")
		return nil, fmt.Errorf("failed to save behavior: %w", err)
	}

	t.count(event, "ok")
	t.publishEdge(event, at)

	t.logger.WithFields(logrus.Fields{
		"user_id": event.UserID,
		"type":    event.Type,
	}).Debug("Tracked interaction")

	return behavior, nil
}

// GetBehavior returns the stored behavior or ErrBehaviorNotFound.
func (t *InteractionTracker) GetBehavior(ctx context.Context, userID uuid.UUID) (*models.UserBehavior, error) {
	behavior, err := t.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load behavior: %w", err)
	}
	if behavior == nil {
		return nil, ErrBehaviorNotFound
	}
	return behavior, nil
}

func checkPayload(event *models.InteractionEvent) error {
	if event == nil || event.UserID == uuid.Nil {
		return fmt.Errorf("%w: user id is required", ErrInvalidInteraction)
	}

	var present bool
	switch event.Type {
	case models.InteractionSearch:
		present = event.Search != nil
	case models.InteractionHotelView:
		present = event.HotelView != nil
	case models.InteractionBooking:
		present = event.Booking != nil
		if present && event.Booking.CheckOut.Before(event.Booking.CheckIn) {
			return fmt.Errorf("%w: check-out before check-in", ErrInvalidInteraction)
		}
	case models.InteractionRecommendationFeedback:
		present = event.Feedback != nil
		if present && !validFeedback(event.Feedback.Feedback) {
			return fmt.Errorf("%w: feedback %q", ErrInvalidInteraction, event.Feedback.Feedback)
		}
	case models.InteractionPreferences:
		present = event.Preferences != nil
		if present && (!inPercentRange(event.Preferences.LoyaltyScore) || !inPercentRange(event.Preferences.DiscoveryScore)) {
			return fmt.Errorf("%w: scores must be within [0,100]", ErrInvalidInteraction)
		}
		if present && event.Preferences.PreferredPriceRange != nil {
			pr := event.Preferences.PreferredPriceRange
			if pr.Min < 0 || pr.Max < pr.Min {
				return fmt.Errorf("%w: invalid price range", ErrInvalidInteraction)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInteractionType, event.Type)
	}

	if !present {
		return fmt.Errorf("%w: missing %s payload", ErrInvalidInteraction, event.Type)
	}
	return nil
}

func validFeedback(f models.FeedbackCategory) bool {
	switch f {
	case models.FeedbackLiked, models.FeedbackDisliked, models.FeedbackIrrelevant, models.FeedbackPerfect:
		return true
	}
	return false
}

func inPercentRange(v *int) bool {
	return v == nil || (*v >= 0 && *v <= 100)
}

// prependBounded returns a new list with item at the head, keeping at most
// limit entries. limit <= 0 keeps everything.
func prependBounded[T any](list []T, item T, limit int) []T {
	size := len(list) + 1
	if limit > 0 && size > limit {
		size = limit
	}
	out := make([]T, 0, size)
	out = append(out, item)
	out = append(out, list[:size-1]...)
	return out
}

// applyBooking folds a booking into the aggregated patterns. The stay
// duration is updated as round((old+nights)/2).
func applyBooking(patterns models.BookingPatterns, booking *models.BookingData) models.BookingPatterns {
	season := scoring.SeasonOf(booking.CheckIn)
	seasons := make(map[models.Season]int, len(patterns.PreferredSeasons)+1)
	for k, v := range patterns.PreferredSeasons {
		seasons[k] = v
	}
	seasons[season]++
	patterns.PreferredSeasons = seasons

	locations := make([]models.LocationCount, len(patterns.PreferredLocations), len(patterns.PreferredLocations)+1)
	copy(locations, patterns.PreferredLocations)
	found := false
	for i := range locations {
		if scoring.Normalize(locations[i].City) == scoring.Normalize(booking.City) &&
			scoring.Normalize(locations[i].State) == scoring.Normalize(booking.State) {
			locations[i].Count++
			found = true
			break
		}
	}
	if !found {
		locations = append(locations, models.LocationCount{City: booking.City, State: booking.State, Count: 1})
	}
	patterns.PreferredLocations = locations

	if booking.RoomType != "" {
		rooms := make(map[string]int, len(patterns.PreferredRoomTypes)+1)
		for k, v := range patterns.PreferredRoomTypes {
			rooms[k] = v
		}
		rooms[booking.RoomType]++
		patterns.PreferredRoomTypes = rooms
	}

	stay := models.Booking{CheckIn: booking.CheckIn, CheckOut: booking.CheckOut}
	patterns.AverageStayDuration = int(math.Round(float64(patterns.AverageStayDuration+stay.Nights()) / 2))
	return patterns
}

// applyStatedPreferences replaces the price range and merges amenity weights
// the user stated explicitly.
func applyStatedPreferences(patterns models.BookingPatterns, update *models.PreferenceData) models.BookingPatterns {
	if update.PreferredPriceRange != nil {
		pr := *update.PreferredPriceRange
		patterns.PreferredPriceRange = &pr
	}
	if len(update.PreferredAmenities) > 0 {
		amenities := make(map[string]float64, len(patterns.PreferredAmenities)+len(update.PreferredAmenities))
		for k, v := range patterns.PreferredAmenities {
			amenities[k] = v
		}
		for k, v := range update.PreferredAmenities {
			amenities[k] = v
		}
		patterns.PreferredAmenities = amenities
	}
	return patterns
}

func applyPreferences(prefs models.AIPreferences, update *models.PreferenceData) models.AIPreferences {
	if update.TravelStyle != "" {
		prefs.TravelStyle = update.TravelStyle
	}
	if update.LocationPreference != "" {
		prefs.LocationPreference = update.LocationPreference
	}
	if update.LoyaltyScore != nil {
		prefs.LoyaltyScore = *update.LoyaltyScore
	}
	if update.DiscoveryScore != nil {
		prefs.DiscoveryScore = *update.DiscoveryScore
	}
	return prefs
}

func (t *InteractionTracker) publishEdge(event *models.InteractionEvent, at time.Time) {
	if t.graph == nil {
		return
	}

	edge := GraphEdge{
		UserID:     event.UserID,
		Properties: map[string]interface{}{"timestamp": at.Unix()},
	}
	switch event.Type {
	case models.InteractionHotelView:
		edge.HotelID = event.HotelView.HotelID
		edge.Type = EdgeViewed
		edge.Properties["duration_seconds"] = event.HotelView.DurationSeconds
	case models.InteractionBooking:
		edge.HotelID = event.Booking.HotelID
		edge.Type = EdgeBooked
		edge.Properties["check_in"] = event.Booking.CheckIn.Unix()
	case models.InteractionRecommendationFeedback:
		edge.HotelID = event.Feedback.HotelID
		edge.Type = EdgeRated
		edge.Properties["feedback"] = string(event.Feedback.Feedback)
	default:
		return
	}
	t.graph.Enqueue(edge)
}

func (t *InteractionTracker) count(event *models.InteractionEvent, status string) {
	kind := "unknown"
	if event != nil {
		switch event.Type {
		case models.InteractionSearch, models.InteractionHotelView, models.InteractionBooking,
			models.InteractionRecommendationFeedback, models.InteractionPreferences:
			kind = string(event.Type)
		}
	}
	t.metrics.InteractionsTotal.WithLabelValues(kind, status).Inc()
}
