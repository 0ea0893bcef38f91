package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Neo4j          Neo4jConfig          `mapstructure:"neo4j"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Hot  RedisInstanceConfig `mapstructure:"hot"`
	Warm RedisInstanceConfig `mapstructure:"warm"`
}

type RedisInstanceConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	GroupID string   `mapstructure:"group_id"`
	Topics  struct {
		UserInteractions    string `mapstructure:"user_interactions"`
		UserInteractionsDLQ string `mapstructure:"user_interactions_dlq"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string          `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration   `mapstructure:"token_ttl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Default int           `mapstructure:"default"`
	Admin   int           `mapstructure:"admin"`
	Window  time.Duration `mapstructure:"window"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RecommendationConfig struct {
	Scoring  ScoringConfig  `mapstructure:"scoring"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
	History  HistoryConfig  `mapstructure:"history"`
	Trending TrendingConfig `mapstructure:"trending"`
}

// ScoringConfig holds every constant of the heuristic scorer so the
// algorithm can be tuned without code changes.
type ScoringConfig struct {
	RatingMultiplier float64 `mapstructure:"rating_multiplier"`
	ReviewMultiplier float64 `mapstructure:"review_multiplier"`
	ReviewCap        float64 `mapstructure:"review_cap"`

	LocationPerCount float64 `mapstructure:"location_per_count"`
	LocationCap      float64 `mapstructure:"location_cap"`
	SameStateBonus   float64 `mapstructure:"same_state_bonus"`

	PriceInRangeBonus  float64 `mapstructure:"price_in_range_bonus"`
	PricePenaltyDivide float64 `mapstructure:"price_penalty_divisor"`
	PricePenaltyCap    float64 `mapstructure:"price_penalty_cap"`
	DefaultRoomPrice   float64 `mapstructure:"default_room_price"`

	AmenityMultiplier float64 `mapstructure:"amenity_multiplier"`

	SeasonPerCount float64 `mapstructure:"season_per_count"`
	SeasonCap      float64 `mapstructure:"season_cap"`

	SimilarCategoryBonus float64 `mapstructure:"similar_category_bonus"`
	SimilarRatingBonus   float64 `mapstructure:"similar_rating_bonus"`
	RatingTolerance      float64 `mapstructure:"rating_tolerance"`
	SimilarPriceBonus    float64 `mapstructure:"similar_price_bonus"`
	PriceTolerance       float64 `mapstructure:"price_tolerance"`

	ViewedBonus          float64 `mapstructure:"viewed_bonus"`
	ViewDurationDivisor  float64 `mapstructure:"view_duration_divisor"`
	ViewDurationCap      float64 `mapstructure:"view_duration_cap"`
	LikedBonus           float64 `mapstructure:"liked_bonus"`
	DislikedPenalty      float64 `mapstructure:"disliked_penalty"`
	IrrelevantPenalty    float64 `mapstructure:"irrelevant_penalty"`
	DiscoveryThreshold   int     `mapstructure:"discovery_threshold"`
	NewCategoryBonus     float64 `mapstructure:"new_category_bonus"`
	NewCityBonus         float64 `mapstructure:"new_city_bonus"`
	HighlyRatedThreshold float64 `mapstructure:"highly_rated_threshold"`
}

type DefaultsConfig struct {
	Limit               int  `mapstructure:"limit"`
	MaxLimit            int  `mapstructure:"max_limit"`
	ExcludeBookedHotels bool `mapstructure:"exclude_booked_hotels"`
	OverFetchFactor     int  `mapstructure:"over_fetch_factor"`
}

type HistoryConfig struct {
	SearchCap   int `mapstructure:"search_cap"`
	ViewCap     int `mapstructure:"view_cap"`
	FeedbackCap int `mapstructure:"feedback_cap"` // 0 keeps every entry
}

type TrendingConfig struct {
	CacheTTL time.Duration                `mapstructure:"cache_ttl"`
	Seasons  map[string]SeasonalKeywords `mapstructure:"seasons"`
}

type SeasonalKeywords struct {
	Amenities []string `mapstructure:"amenities"`
	Cities    []string `mapstructure:"cities"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	// Environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultScoringConfig returns the stock scorer constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		RatingMultiplier: 10,
		ReviewMultiplier: 0.1,
		ReviewCap:        20,

		LocationPerCount: 15,
		LocationCap:      50,
		SameStateBonus:   10,

		PriceInRangeBonus:  30,
		PricePenaltyDivide: 1000,
		PricePenaltyCap:    20,
		DefaultRoomPrice:   5000,

		AmenityMultiplier: 10,

		SeasonPerCount: 8,
		SeasonCap:      25,

		SimilarCategoryBonus: 15,
		SimilarRatingBonus:   10,
		RatingTolerance:      0.5,
		SimilarPriceBonus:    12,
		PriceTolerance:       0.3,

		ViewedBonus:          20,
		ViewDurationDivisor:  10,
		ViewDurationCap:      15,
		LikedBonus:           25,
		DislikedPenalty:      30,
		IrrelevantPenalty:    15,
		DiscoveryThreshold:   60,
		NewCategoryBonus:     20,
		NewCityBonus:         15,
		HighlyRatedThreshold: 4.5,
	}
}

// DefaultRecommendationConfig returns the recommendation section as it is
// after defaults are applied.
func DefaultRecommendationConfig() RecommendationConfig {
	return RecommendationConfig{
		Scoring: DefaultScoringConfig(),
		Defaults: DefaultsConfig{
			Limit:               6,
			MaxLimit:            50,
			ExcludeBookedHotels: true,
			OverFetchFactor:     3,
		},
		History: HistoryConfig{
			SearchCap:   50,
			ViewCap:     100,
			FeedbackCap: 0,
		},
		Trending: TrendingConfig{
			CacheTTL: 30 * time.Minute,
			Seasons: map[string]SeasonalKeywords{
				"spring": {
					Amenities: []string{"garden", "terrace", "outdoor"},
					Cities:    []string{"Udaipur", "Jaipur", "Rishikesh"},
				},
				"summer": {
					Amenities: []string{"beach", "pool", "water sports"},
					Cities:    []string{"Goa", "Kovalam", "Pondicherry", "Andaman"},
				},
				"autumn": {
					Amenities: []string{"trekking", "lake", "heritage"},
					Cities:    []string{"Mysore", "Varanasi", "Hampi"},
				},
				"winter": {
					Amenities: []string{"spa", "wellness", "fireplace"},
					Cities:    []string{"Shimla", "Manali", "Darjeeling", "Ooty", "Munnar"},
				},
			},
		},
	}
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "development")

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.max_idle_time", "15m")
	v.SetDefault("database.max_lifetime", "1h")
	v.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	v.SetDefault("redis.hot.max_retries", 3)
	v.SetDefault("redis.hot.pool_size", 10)
	v.SetDefault("redis.hot.timeout", "5s")
	v.SetDefault("redis.warm.max_retries", 3)
	v.SetDefault("redis.warm.pool_size", 5)
	v.SetDefault("redis.warm.timeout", "10s")

	// Kafka defaults
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", "behavior-trackers")
	v.SetDefault("kafka.topics.user_interactions", "user-interactions")
	v.SetDefault("kafka.topics.user_interactions_dlq", "user-interactions-dlq")

	// Auth defaults
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.rate_limit.default", 1000)
	v.SetDefault("auth.rate_limit.admin", 10000)
	v.SetDefault("auth.rate_limit.window", "1h")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Recommendation defaults
	rec := DefaultRecommendationConfig()
	s := rec.Scoring
	v.SetDefault("recommendation.scoring.rating_multiplier", s.RatingMultiplier)
	v.SetDefault("recommendation.scoring.review_multiplier", s.ReviewMultiplier)
	v.SetDefault("recommendation.scoring.review_cap", s.ReviewCap)
	v.SetDefault("recommendation.scoring.location_per_count", s.LocationPerCount)
	v.SetDefault("recommendation.scoring.location_cap", s.LocationCap)
	v.SetDefault("recommendation.scoring.same_state_bonus", s.SameStateBonus)
	v.SetDefault("recommendation.scoring.price_in_range_bonus", s.PriceInRangeBonus)
	v.SetDefault("recommendation.scoring.price_penalty_divisor", s.PricePenaltyDivide)
	v.SetDefault("recommendation.scoring.price_penalty_cap", s.PricePenaltyCap)
	v.SetDefault("recommendation.scoring.default_room_price", s.DefaultRoomPrice)
	v.SetDefault("recommendation.scoring.amenity_multiplier", s.AmenityMultiplier)
	v.SetDefault("recommendation.scoring.season_per_count", s.SeasonPerCount)
	v.SetDefault("recommendation.scoring.season_cap", s.SeasonCap)
	v.SetDefault("recommendation.scoring.similar_category_bonus", s.SimilarCategoryBonus)
	v.SetDefault("recommendation.scoring.similar_rating_bonus", s.SimilarRatingBonus)
	v.SetDefault("recommendation.scoring.rating_tolerance", s.RatingTolerance)
	v.SetDefault("recommendation.scoring.similar_price_bonus", s.SimilarPriceBonus)
	v.SetDefault("recommendation.scoring.price_tolerance", s.PriceTolerance)
	v.SetDefault("recommendation.scoring.viewed_bonus", s.ViewedBonus)
	v.SetDefault("recommendation.scoring.view_duration_divisor", s.ViewDurationDivisor)
	v.SetDefault("recommendation.scoring.view_duration_cap", s.ViewDurationCap)
	v.SetDefault("recommendation.scoring.liked_bonus", s.LikedBonus)
	v.SetDefault("recommendation.scoring.disliked_penalty", s.DislikedPenalty)
	v.SetDefault("recommendation.scoring.irrelevant_penalty", s.IrrelevantPenalty)
	v.SetDefault("recommendation.scoring.discovery_threshold", s.DiscoveryThreshold)
	v.SetDefault("recommendation.scoring.new_category_bonus", s.NewCategoryBonus)
	v.SetDefault("recommendation.scoring.new_city_bonus", s.NewCityBonus)
	v.SetDefault("recommendation.scoring.highly_rated_threshold", s.HighlyRatedThreshold)

	v.SetDefault("recommendation.defaults.limit", rec.Defaults.Limit)
	v.SetDefault("recommendation.defaults.max_limit", rec.Defaults.MaxLimit)
	v.SetDefault("recommendation.defaults.exclude_booked_hotels", rec.Defaults.ExcludeBookedHotels)
	v.SetDefault("recommendation.defaults.over_fetch_factor", rec.Defaults.OverFetchFactor)

	v.SetDefault("recommendation.history.search_cap", rec.History.SearchCap)
	v.SetDefault("recommendation.history.view_cap", rec.History.ViewCap)
	v.SetDefault("recommendation.history.feedback_cap", rec.History.FeedbackCap)

	v.SetDefault("recommendation.trending.cache_ttl", rec.Trending.CacheTTL.String())
	for season, keywords := range rec.Trending.Seasons {
		v.SetDefault("recommendation.trending.seasons."+season+".amenities", keywords.Amenities)
		v.SetDefault("recommendation.trending.seasons."+season+".cities", keywords.Cities)
	}

	// Security defaults
	v.SetDefault("security.cors.allowed_origins", []string{"*"})
	v.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("security.cors.allowed_headers", []string{"*"})
}
