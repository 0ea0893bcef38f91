package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/internal/services"
)

type Handlers struct {
	Health         *HealthHandler
	Recommendation *RecommendationHandler
	Interaction    *InteractionHandler
	User           *UserHandler
	Admin          *AdminHandler
}

func New(logger *logrus.Logger, svcs *services.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Health:         NewHealthHandler(logger, svcs.Health),
		Recommendation: NewRecommendationHandler(svcs.Recommendation, cfg.Recommendation.Defaults, logger),
		Interaction:    NewInteractionHandler(logger, svcs.Interactions, svcs.Bus),
		User:           NewUserHandler(logger, svcs.Interactions),
		Admin:          NewAdminHandler(logger, cfg, svcs.Bus),
	}
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

func errorResponseWithDetails(code, message string, details interface{}) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	}
}
