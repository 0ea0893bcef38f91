package handlers

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/middleware"
	"github.com/temcen/stayrank/internal/validation"
	"github.com/temcen/stayrank/pkg/models"
)

// MockRecommendationEngine is a mock implementation
type MockRecommendationEngine struct {
	mock.Mock
}

func (m *MockRecommendationEngine) GetPersonalizedRecommendations(ctx context.Context, userID uuid.UUID, opts models.RecommendationOptions) *models.RecommendationResponse {
	args := m.Called(ctx, userID, opts)
	return args.Get(0).(*models.RecommendationResponse)
}

func (m *MockRecommendationEngine) GetTrendingRecommendations(ctx context.Context, location string, limit int) *models.RecommendationResponse {
	args := m.Called(ctx, location, limit)
	return args.Get(0).(*models.RecommendationResponse)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// asCaller stands in for the auth middleware.
func asCaller(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextRole, role)
		c.Next()
	}
}

func sampleResponse(userID *uuid.UUID, source models.RecommendationSource) *models.RecommendationResponse {
	return &models.RecommendationResponse{
		UserID: userID,
		Recommendations: []models.Recommendation{
			{
				Hotel: &models.Hotel{
					ID:       uuid.New(),
					Name:     "Sea View",
					Active:   true,
					Rating:   models.Rating{Average: 4.8, Count: 200},
					Location: models.Location{City: "Panaji", State: "Goa"},
				},
				Score:   108,
				Reasons: []string{"You often stay in Panaji", "Highly rated by guests (4.8/5)"},
			},
		},
		Source:      source,
		GeneratedAt: time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC),
	}
}

func newRecommendationRouter(engine *MockRecommendationEngine, defaults config.DefaultsConfig) *gin.Engine {
	handler := NewRecommendationHandler(engine, defaults, testLogger())
	router := gin.New()
	router.GET("/recommendations/:userId", handler.Get)
	router.GET("/trending", handler.Trending)
	return router
}

func TestRecommendationHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	defaults := config.DefaultRecommendationConfig().Defaults

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedOpts   *models.RecommendationOptions
		errorCode      string
	}{
		{
			name:           "defaults",
			path:           "/recommendations/" + userID.String(),
			expectedStatus: http.StatusOK,
			expectedOpts:   &models.RecommendationOptions{ExcludeBookedHotels: true},
		},
		{
			name:           "all parameters",
			path:           "/recommendations/" + userID.String() + "?limit=10&exclude_booked=false&location=Goa&min_price=1000&max_price=6000&explain=true",
			expectedStatus: http.StatusOK,
			expectedOpts: &models.RecommendationOptions{
				Limit:      10,
				Location:   "Goa",
				PriceRange: &models.PriceRange{Min: 1000, Max: 6000},
				Explain:    true,
			},
		},
		{
			name:           "open ended price band",
			path:           "/recommendations/" + userID.String() + "?min_price=2500",
			expectedStatus: http.StatusOK,
			expectedOpts: &models.RecommendationOptions{
				ExcludeBookedHotels: true,
				PriceRange:          &models.PriceRange{Min: 2500, Max: math.MaxFloat64},
			},
		},
		{
			name:           "invalid user id",
			path:           "/recommendations/not-a-uuid",
			expectedStatus: http.StatusBadRequest,
			errorCode:      "INVALID_USER_ID",
		},
		{
			name:           "limit above maximum",
			path:           "/recommendations/" + userID.String() + "?limit=500",
			expectedStatus: http.StatusBadRequest,
			errorCode:      "VALIDATION_FAILED",
		},
		{
			name:           "non numeric limit",
			path:           "/recommendations/" + userID.String() + "?limit=many",
			expectedStatus: http.StatusBadRequest,
			errorCode:      "INVALID_QUERY_PARAM",
		},
		{
			name:           "inverted price band",
			path:           "/recommendations/" + userID.String() + "?min_price=5000&max_price=100",
			expectedStatus: http.StatusBadRequest,
			errorCode:      "INVALID_PRICE_RANGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockRecommendationEngine)
			if tt.expectedOpts != nil {
				engine.On("GetPersonalizedRecommendations", mock.Anything, userID, *tt.expectedOpts).
					Return(sampleResponse(&userID, models.SourcePersonalized)).Once()
			}
			router := newRecommendationRouter(engine, defaults)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.errorCode != "" {
				var body map[string]map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.errorCode, body["error"]["code"])
			}
			engine.AssertExpectations(t)
		})
	}
}

func TestRecommendationHandler_ResponseContract(t *testing.T) {
	gin.SetMode(gin.TestMode)

	sv, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	userID := uuid.New()
	engine := new(MockRecommendationEngine)
	engine.On("GetPersonalizedRecommendations", mock.Anything, userID, mock.Anything).
		Return(sampleResponse(&userID, models.SourceFallback))
	engine.On("GetTrendingRecommendations", mock.Anything, "Goa", 3).
		Return(sampleResponse(nil, models.SourceTrending))
	router := newRecommendationRouter(engine, config.DefaultRecommendationConfig().Defaults)

	for _, path := range []string{"/recommendations/" + userID.String(), "/trending?location=Goa&limit=3"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, http.StatusOK, w.Code)
		result := sv.ValidateRecommendationResponse(w.Body.Bytes())
		assert.True(t, result.Valid, "%s: %v", path, result.Errors)
	}
	engine.AssertExpectations(t)
}

func TestRecommendationHandler_Trending(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := new(MockRecommendationEngine)
	engine.On("GetTrendingRecommendations", mock.Anything, "", 0).
		Return(sampleResponse(nil, models.SourceTrending)).Twice()
	router := newRecommendationRouter(engine, config.DefaultRecommendationConfig().Defaults)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.RecommendationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.SourceTrending, resp.Source)
	assert.Len(t, resp.Recommendations, 1)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?limit=0", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trending?limit=51", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	engine.AssertExpectations(t)
}
