// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SessionStore の種別
const (
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// OAuth (GitHub)
	GitHubClientID     string
	GitHubClientSecret string
	GitHubOAuthBaseURL string
	GitHubAPIBaseURL   string
	OAuthTimeout       time.Duration

	// Session
	SessionStore           string
	SessionMaxAge          int // 秒。0は無期限
	SessionCleanupInterval time.Duration

	// Rate Limit（req/min/user）
	RateLimitGeneral  int
	RateLimitMutation int

	// Logging
	LogLevel string

	// Server
	ServerPort       string
	LoginRedirectURL string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.GitHubClientID = os.Getenv("GITHUB_CLIENT_ID")
	if cfg.GitHubClientID == "" {
		missing = append(missing, "GITHUB_CLIENT_ID")
	}

	cfg.GitHubClientSecret = os.Getenv("GITHUB_CLIENT_SECRET")
	if cfg.GitHubClientSecret == "" {
		missing = append(missing, "GITHUB_CLIENT_SECRET")
	}

	cfg.LoginRedirectURL = os.Getenv("LOGIN_REDIRECT_URL")
	if cfg.LoginRedirectURL == "" {
		missing = append(missing, "LOGIN_REDIRECT_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.GitHubOAuthBaseURL = strings.TrimRight(getEnvString("GITHUB_OAUTH_BASE_URL", "https://github.com"), "/")
	cfg.GitHubAPIBaseURL = strings.TrimRight(getEnvString("GITHUB_API_BASE_URL", "https://api.github.com"), "/")
	cfg.OAuthTimeout = getEnvDuration("OAUTH_TIMEOUT", 10*time.Second)
	cfg.SessionStore = getEnvString("SESSION_STORE", SessionStoreMemory)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 0)
	cfg.SessionCleanupInterval = getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitMutation = getEnvInt("RATE_LIMIT_MUTATION", 60)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.LoginRedirectURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStorePostgres {
		return nil, fmt.Errorf("invalid SESSION_STORE %q: must be %q or %q",
			cfg.SessionStore, SessionStoreMemory, SessionStorePostgres)
	}
	if cfg.SessionMaxAge < 0 {
		return nil, fmt.Errorf("invalid SESSION_MAX_AGE %d: must not be negative", cfg.SessionMaxAge)
	}
	if cfg.SessionCleanupInterval <= 0 {
		return nil, fmt.Errorf("invalid SESSION_CLEANUP_INTERVAL %s: must be positive", cfg.SessionCleanupInterval)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
