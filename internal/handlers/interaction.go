package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/middleware"
	"github.com/temcen/stayrank/internal/services"
	"github.com/temcen/stayrank/pkg/models"
)

const maxBatchSize = 100

type InteractionHandler struct {
	logger    *logrus.Logger
	tracker   services.InteractionTrackerInterface
	publisher services.InteractionPublisher
	validator *validator.Validate
}

func NewInteractionHandler(logger *logrus.Logger, tracker services.InteractionTrackerInterface, publisher services.InteractionPublisher) *InteractionHandler {
	return &InteractionHandler{
		logger:    logger,
		tracker:   tracker,
		publisher: publisher,
		validator: validator.New(),
	}
}

type batchRequest struct {
	Events []models.InteractionEvent `json:"events" validate:"dive"`
}

type batchResult struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// bindEvent decodes and validates the body. It writes the error response and
// returns false when the event is unusable or belongs to another user.
func (h *InteractionHandler) bindEvent(c *gin.Context) (*models.InteractionEvent, bool) {
	var event models.InteractionEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.WithError(err).Debug("Failed to bind interaction event")
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_REQUEST", "Invalid request format", err.Error()))
		return nil, false
	}

	if err := h.validator.Struct(&event); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("VALIDATION_FAILED", "Request validation failed", err.Error()))
		return nil, false
	}

	if !middleware.CanAccessUser(c, event.UserID) {
		c.JSON(http.StatusForbidden, errorResponse("FORBIDDEN", "Not allowed to record interactions for another user"))
		return nil, false
	}
	return &event, true
}

// Track applies the event synchronously and returns the updated behavior.
func (h *InteractionHandler) Track(c *gin.Context) {
	event, ok := h.bindEvent(c)
	if !ok {
		return
	}

	behavior, err := h.tracker.TrackUserInteraction(c.Request.Context(), event)
	if err != nil {
		h.respondTrackError(c, err, event)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    behavior,
		"message": "Interaction tracked successfully",
	})
}

// TrackAsync publishes the event to the interaction topic and returns
// immediately; the consumer applies it.
func (h *InteractionHandler) TrackAsync(c *gin.Context) {
	event, ok := h.bindEvent(c)
	if !ok {
		return
	}

	eventID, err := h.publisher.PublishInteraction(c.Request.Context(), event)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", event.UserID).Error("Failed to publish interaction")
		c.JSON(http.StatusServiceUnavailable, errorResponse("PUBLISH_FAILED", "Failed to queue interaction"))
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"event_id": eventID,
		"status":   "accepted",
	})
}

// TrackBatch applies each event in order. A failing event does not stop the
// rest of the batch.
func (h *InteractionHandler) TrackBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_REQUEST", "Invalid request format", err.Error()))
		return
	}
	if len(req.Events) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse("EMPTY_BATCH", "Batch request must contain at least one interaction"))
		return
	}
	if len(req.Events) > maxBatchSize {
		c.JSON(http.StatusBadRequest, errorResponse("BATCH_TOO_LARGE", fmt.Sprintf("Batch request must contain at most %d interactions", maxBatchSize)))
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("VALIDATION_FAILED", "Request validation failed", err.Error()))
		return
	}
	for i := range req.Events {
		if !middleware.CanAccessUser(c, req.Events[i].UserID) {
			c.JSON(http.StatusForbidden, errorResponse("FORBIDDEN", fmt.Sprintf("Interaction %d belongs to another user", i)))
			return
		}
	}

	results := make([]batchResult, 0, len(req.Events))
	processed := 0
	for i := range req.Events {
		if _, err := h.tracker.TrackUserInteraction(c.Request.Context(), &req.Events[i]); err != nil {
			h.logger.WithError(err).WithField("index", i).Warn("Batch interaction failed")
			results = append(results, batchResult{Index: i, Error: err.Error()})
			continue
		}
		processed++
		results = append(results, batchResult{Index: i, Success: true})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"results":         results,
			"total_processed": processed,
		},
		"message": "Batch interactions processed",
	})
}

func (h *InteractionHandler) respondTrackError(c *gin.Context, err error, event *models.InteractionEvent) {
	if errors.Is(err, services.ErrInvalidInteraction) || errors.Is(err, services.ErrUnknownInteractionType) {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_INTERACTION", "Interaction rejected", err.Error()))
		return
	}

	h.logger.WithError(err).WithFields(logrus.Fields{
		"user_id": event.UserID,
		"type":    event.Type,
	}).Error("Failed to track interaction")
	c.JSON(http.StatusInternalServerError, errorResponse("INTERACTION_FAILED", "Failed to record interaction"))
}
