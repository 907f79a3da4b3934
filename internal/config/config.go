package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Authorizer configuration
	AuthzURL      string
	AuthzClientID string

	// Ranking configuration. The weights are the tunable heart of the
	// recommendation engine; they live here so deployments can adjust them
	// and tests can override them without code changes.
	PageSize          int
	PoolLimit         int
	FollowingWeight   float64
	FollowedByWeight  float64
	CommentedWeight   float64
	CommenterWeight   float64
	ReactedWeight     float64
	ReactorWeight     float64
	PopularWeight     float64
	TimeDecay         float64
	PopularWindowDays int

	// Similarity configuration
	SimilarityThreshold  float64
	SimilarityCandidates int
	SimilarityResults    int
	SimilarityTimeout    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthzURL:          getEnv("AUTHZ_URL", ""),
		AuthzClientID:     getEnv("AUTHZ_CLIENT_ID", ""),

		PageSize:          getEnvAsInt("FEED_PAGE_SIZE", 10),
		PoolLimit:         getEnvAsInt("RANKING_POOL_LIMIT", 10),
		FollowingWeight:   getEnvAsFloat("RANKING_FOLLOWING_WEIGHT", 1.0),
		FollowedByWeight:  getEnvAsFloat("RANKING_FOLLOWED_BY_WEIGHT", 0.05),
		CommentedWeight:   getEnvAsFloat("RANKING_COMMENTED_WEIGHT", 0.7),
		CommenterWeight:   getEnvAsFloat("RANKING_COMMENTER_WEIGHT", 0.05),
		ReactedWeight:     getEnvAsFloat("RANKING_REACTED_WEIGHT", 0.5),
		ReactorWeight:     getEnvAsFloat("RANKING_REACTOR_WEIGHT", 0.05),
		PopularWeight:     getEnvAsFloat("RANKING_POPULAR_WEIGHT", 0.5),
		TimeDecay:         getEnvAsFloat("RANKING_TIME_DECAY", 0.00004),
		PopularWindowDays: getEnvAsInt("RANKING_POPULAR_WINDOW_DAYS", 30),

		SimilarityThreshold:  getEnvAsFloat("SIMILARITY_THRESHOLD", 0.2),
		SimilarityCandidates: getEnvAsInt("SIMILARITY_CANDIDATES", 500),
		SimilarityResults:    getEnvAsInt("SIMILARITY_RESULTS", 10),
		SimilarityTimeout:    time.Duration(getEnvAsInt("SIMILARITY_TIMEOUT_MS", 2000)) * time.Millisecond,
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.AuthzURL == "" {
		return nil, fmt.Errorf("AUTHZ_URL is required")
	}
	if cfg.AuthzClientID == "" {
		return nil, fmt.Errorf("AUTHZ_CLIENT_ID is required")
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("FEED_PAGE_SIZE must be >= 1")
	}

	return cfg, nil
}

// Default returns a Config with every tunable at its default value, for
// tests and callers that do not need the store or the Authorizer.
func Default() *Config {
	return &Config{
		PageSize:             10,
		PoolLimit:            10,
		FollowingWeight:      1.0,
		FollowedByWeight:     0.05,
		CommentedWeight:      0.7,
		CommenterWeight:      0.05,
		ReactedWeight:        0.5,
		ReactorWeight:        0.05,
		PopularWeight:        0.5,
		TimeDecay:            0.00004,
		PopularWindowDays:    30,
		SimilarityThreshold:  0.2,
		SimilarityCandidates: 500,
		SimilarityResults:    10,
		SimilarityTimeout:    2 * time.Second,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float or returns a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
