package config

import (
	"os"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("MongoURI = %q", cfg.MongoURI)
	}
	if cfg.MongoDatabase != "travel_agent" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("RedisAddr = %q", cfg.RedisAddr)
	}
	if cfg.JWTIssuer != "travel-agent" {
		t.Errorf("JWTIssuer = %q", cfg.JWTIssuer)
	}
	if cfg.JWTAccessTTL != "168h" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "168h")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.LoginMaxAttempts != 5 {
		t.Errorf("LoginMaxAttempts = %d, want 5", cfg.LoginMaxAttempts)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	os.Clearenv()
	if _, err := Load(); err == nil {
		t.Fatal("Load without JWT_SECRET should fail")
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "too-short")
	if _, err := Load(); err == nil {
		t.Fatal("Load with short JWT_SECRET should fail")
	}
}

func TestLoad_BcryptCostBounds(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", testSecret)
	os.Setenv("BCRYPT_COST", "99")
	if _, err := Load(); err == nil {
		t.Fatal("Load with out-of-range BCRYPT_COST should fail")
	}
}

func TestDurations(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", testSecret)
	os.Setenv("JWT_ACCESS_TTL", "2h")
	os.Setenv("FEED_CACHE_TTL", "3m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.AccessTTL(); got != 2*time.Hour {
		t.Errorf("AccessTTL = %v", got)
	}
	if got := cfg.FeedTTL(); got != 3*time.Minute {
		t.Errorf("FeedTTL = %v", got)
	}
	if got := cfg.SessionTTL(); got != 24*time.Hour {
		t.Errorf("SessionTTL default = %v", got)
	}
}

func TestDurations_InvalidFallsBack(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", testSecret)
	os.Setenv("LOGIN_WINDOW", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.LoginWindowTTL(); got != 5*time.Minute {
		t.Errorf("LoginWindowTTL fallback = %v", got)
	}
}
