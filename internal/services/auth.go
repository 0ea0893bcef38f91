package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/temcen/stayrank/internal/config"
	"github.com/temcen/stayrank/pkg/models"
)

const (
	RoleGuest = "guest"
	RoleAdmin = "admin"
)

// AuthService issues and validates HS256 bearer tokens. When a Redis client
// is configured every token is also bound to a session key so it can be
// revoked before it expires.
type AuthService struct {
	config      *config.Config
	logger      *logrus.Logger
	redisClient *redis.Client
	jwtSecret   []byte
}

func NewAuthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *AuthService {
	return &AuthService{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		jwtSecret:   []byte(cfg.Auth.JWTSecret),
	}
}

func (s *AuthService) GenerateToken(userID uuid.UUID, role string) (string, error) {
	if role == "" {
		role = RoleGuest
	}

	now := time.Now()
	claims := &models.JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Auth.TokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "stayrank",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	if s.redisClient != nil {
		sessionKey := sessionKey(userID)
		if err := s.redisClient.Set(context.Background(), sessionKey, tokenString, s.config.Auth.TokenTTL).Err(); err != nil {
			// the token is still usable while Redis is down
			s.logger.WithError(err).Warn("Failed to store session in Redis")
		}
	}

	return tokenString, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if s.redisClient != nil {
		exists, err := s.redisClient.Exists(context.Background(), sessionKey(claims.UserID)).Result()
		if err != nil {
			s.logger.WithError(err).Warn("Failed to check session in Redis")
		} else if exists == 0 {
			return nil, fmt.Errorf("session not found or expired")
		}
	}

	return claims, nil
}

func (s *AuthService) RevokeToken(userID uuid.UUID) error {
	if s.redisClient == nil {
		return nil
	}
	if err := s.redisClient.Del(context.Background(), sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func sessionKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:%s", userID.String())
}
