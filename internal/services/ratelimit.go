package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/pkg/models"
)

// RateLimitService is a sliding-window limiter kept in a Redis sorted set
// per client. It fails open when Redis is unavailable.
type RateLimitService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
}

func NewRateLimitService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *RateLimitService {
	return &RateLimitService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
	}
}

func (s *RateLimitService) CheckLimit(clientID, role string) (*models.RateLimitInfo, error) {
	limit := s.limitForRole(role)
	window := s.config.Auth.RateLimit.Window
	now := time.Now()

	key := fmt.Sprintf("rate_limit:%s", clientID)
	windowStart := now.Add(-window)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipe := s.redisClient.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: strconv.FormatInt(now.UnixNano(), 10),
	})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.WithError(err).Error("Failed to execute rate limit pipeline")
		return &models.RateLimitInfo{
			Limit:     limit,
			Remaining: limit,
			ResetTime: now.Add(window).Unix(),
		}, nil
	}

	remaining := limit - int(countCmd.Val())
	if remaining < 0 {
		remaining = 0
	}

	return &models.RateLimitInfo{
		Limit:     limit,
		Remaining: remaining,
		ResetTime: now.Add(window).Unix(),
	}, nil
}

func (s *RateLimitService) IsAllowed(clientID, role string) (bool, *models.RateLimitInfo, error) {
	info, err := s.CheckLimit(clientID, role)
	if err != nil {
		return false, nil, err
	}
	return info.Remaining > 0, info, nil
}

func (s *RateLimitService) limitForRole(role string) int {
	if role == RoleAdmin {
		return s.config.Auth.RateLimit.Admin
	}
	return s.config.Auth.RateLimit.Default
}
