package handlers

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/services"
	"github.com/temcen/stayrank/pkg/models"
)

type RecommendationHandler struct {
	engine    services.RecommendationEngineInterface
	defaults  config.DefaultsConfig
	validator *validator.Validate
	logger    *logrus.Logger
}

func NewRecommendationHandler(
	engine services.RecommendationEngineInterface,
	defaults config.DefaultsConfig,
	logger *logrus.Logger,
) *RecommendationHandler {
	return &RecommendationHandler{
		engine:    engine,
		defaults:  defaults,
		validator: validator.New(),
		logger:    logger,
	}
}

type recommendationQuery struct {
	Limit         int      `form:"limit" validate:"omitempty,min=1,max=50"`
	ExcludeBooked *bool    `form:"exclude_booked"`
	Location      string   `form:"location" validate:"max=100"`
	MinPrice      *float64 `form:"min_price" validate:"omitempty,gte=0"`
	MaxPrice      *float64 `form:"max_price" validate:"omitempty,gte=0"`
	Explain       bool     `form:"explain"`
}

type trendingQuery struct {
	Limit    int    `form:"limit" validate:"omitempty,min=1,max=50"`
	Location string `form:"location" validate:"max=100"`
}

// priceRange builds the filter band; an open end is unbounded.
func (q recommendationQuery) priceRange() *models.PriceRange {
	if q.MinPrice == nil && q.MaxPrice == nil {
		return nil
	}
	pr := &models.PriceRange{Min: 0, Max: math.MaxFloat64}
	if q.MinPrice != nil {
		pr.Min = *q.MinPrice
	}
	if q.MaxPrice != nil {
		pr.Max = *q.MaxPrice
	}
	return pr
}

// Get returns personalized recommendations for the user in the path. The
// engine never fails; problems show up as source "fallback".
func (h *RecommendationHandler) Get(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("INVALID_USER_ID", "Invalid user ID format"))
		return
	}

	var query recommendationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_QUERY_PARAM", "Invalid query parameters", err.Error()))
		return
	}
	if err := h.validator.Struct(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("VALIDATION_FAILED", "Query validation failed", err.Error()))
		return
	}

	priceRange := query.priceRange()
	if priceRange != nil {
		if err := h.validator.Struct(priceRange); err != nil {
			c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_PRICE_RANGE", "max_price must not be below min_price", err.Error()))
			return
		}
	}

	opts := models.RecommendationOptions{
		Limit:               query.Limit,
		ExcludeBookedHotels: h.defaults.ExcludeBookedHotels,
		Location:            query.Location,
		PriceRange:          priceRange,
		Explain:             query.Explain,
	}
	if query.ExcludeBooked != nil {
		opts.ExcludeBookedHotels = *query.ExcludeBooked
	}

	resp := h.engine.GetPersonalizedRecommendations(c.Request.Context(), userID, opts)

	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"source":  resp.Source,
		"count":   len(resp.Recommendations),
	}).Debug("Served recommendations")

	c.JSON(http.StatusOK, resp)
}

func (h *RecommendationHandler) Trending(c *gin.Context) {
	var query trendingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("INVALID_QUERY_PARAM", "Invalid query parameters", err.Error()))
		return
	}
	if err := h.validator.Struct(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponseWithDetails("VALIDATION_FAILED", "Query validation failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, h.engine.GetTrendingRecommendations(c.Request.Context(), query.Location, query.Limit))
}
