package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DATABASE", "manda")
	t.Setenv("DB_USER", "manda")
	t.Setenv("AUTHZ_URL", "http://localhost:8080")
	t.Setenv("AUTHZ_CLIENT_ID", "client")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "3000" || cfg.DBType != "mysql" {
		t.Errorf("unexpected server defaults: port=%s db=%s", cfg.Port, cfg.DBType)
	}
	if cfg.PageSize != 10 || cfg.PoolLimit != 10 {
		t.Errorf("unexpected paging defaults: %d/%d", cfg.PageSize, cfg.PoolLimit)
	}
	if cfg.FollowingWeight != 1.0 || cfg.PopularWeight != 0.5 {
		t.Errorf("unexpected weight defaults: %v/%v", cfg.FollowingWeight, cfg.PopularWeight)
	}
	if cfg.SimilarityThreshold != 0.2 || cfg.SimilarityTimeout != 2*time.Second {
		t.Errorf("unexpected similarity defaults: %v/%v", cfg.SimilarityThreshold, cfg.SimilarityTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FEED_PAGE_SIZE", "25")
	t.Setenv("RANKING_FOLLOWING_WEIGHT", "2.5")
	t.Setenv("SIMILARITY_TIMEOUT_MS", "500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PageSize != 25 {
		t.Errorf("FEED_PAGE_SIZE override ignored: %d", cfg.PageSize)
	}
	if cfg.FollowingWeight != 2.5 {
		t.Errorf("weight override ignored: %v", cfg.FollowingWeight)
	}
	if cfg.SimilarityTimeout != 500*time.Millisecond {
		t.Errorf("timeout override ignored: %v", cfg.SimilarityTimeout)
	}
}

func TestLoadRequiredFields(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_DATABASE", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without DB_DATABASE")
	}

	setRequiredEnv(t)
	t.Setenv("FEED_PAGE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for FEED_PAGE_SIZE 0")
	}
}
