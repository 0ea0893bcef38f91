package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/services"
	"github.com/temcen/stayrank/pkg/models"
)

type UserHandler struct {
	logger    *logrus.Logger
	tracker   services.InteractionTrackerInterface
	validator *validator.Validate
}

func NewUserHandler(logger *logrus.Logger, tracker services.InteractionTrackerInterface) *UserHandler {
	return &UserHandler{
		logger:    logger,
		tracker:   tracker,
		validator: validator.New(),
	}
}

func (h *UserHandler) GetBehavior(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_USER_ID", "Invalid user ID format"))
		return
	}

	behavior, err := h.tracker.GetBehavior(c.Request.Context(), userID)
	if errors.Is(err, services.ErrBehaviorNotFound) {
		c.JSON(http.StatusNotFound, errorResponse("BEHAVIOR_NOT_FOUND", "No behavior recorded for this user"))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load behavior")
		c.JSON(http.StatusInternalServerError, errorResponse("BEHAVIOR_LOOKUP_FAILED", "Failed to load behavior"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": behavior})
}

// UpdatePreferences records the stated preferences as a preferences
// interaction so the tracker stays the only writer of behavior.
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_USER_ID", "Invalid user ID format"))
		return
	}

	var prefs models.PreferenceData
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_REQUEST", "Invalid request format", err.Error()))
		return
	}
	if err := h.validator.Struct(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("VALIDATION_FAILED", "Request validation failed", err.Error()))
		return
	}

	behavior, err := h.tracker.TrackUserInteraction(c.Request.Context(), &models.InteractionEvent{
		UserID:      userID,
		Type:        models.InteractionPreferences,
		Preferences: &prefs,
	})
	if errors.Is(err, services.ErrInvalidInteraction) {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_PREFERENCES", "Preferences rejected", err.Error()))
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to update preferences")
		c.JSON(http.StatusInternalServerError, errorResponse("PREFERENCES_UPDATE_FAILED", "Failed to update preferences"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    behavior.AIPreferences,
		"message": "Preferences updated successfully",
	})
}
