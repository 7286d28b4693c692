package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/problemlist/internal/config"
	"github.com/hitoshi/problemlist/internal/database"
	"github.com/hitoshi/problemlist/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		DatabaseURL:            unreachableDatabaseURL,
		GitHubClientID:         "cid",
		GitHubClientSecret:     "secret",
		GitHubOAuthBaseURL:     "http://127.0.0.1:1",
		GitHubAPIBaseURL:       "http://127.0.0.1:1",
		OAuthTimeout:           time.Second,
		SessionStore:           config.SessionStoreMemory,
		SessionCleanupInterval: time.Hour,
		RateLimitGeneral:       120,
		RateLimitMutation:      60,
		LoginRedirectURL:       "http://localhost:3000/",
		CORSAllowedOrigin:      "http://localhost:3000",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *server {
	t.Helper()
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	srv := newServer(cfg, db, prometheus.NewRegistry())
	t.Cleanup(srv.rateLimiter.Stop)
	return srv
}

func TestNewSessionRepo_SelectsStore(t *testing.T) {
	cfg := testConfig()
	if _, ok := newSessionRepo(cfg, nil).(*repository.MemorySessionRepo); !ok {
		t.Error("memory store expected by default")
	}

	cfg.SessionStore = config.SessionStorePostgres
	if _, ok := newSessionRepo(cfg, nil).(*repository.PostgresSessionRepo); !ok {
		t.Error("postgres store expected")
	}
}

func TestNewServer_ProtectedRoutesRequireSession(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal-api/list/my", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestNewServer_HealthReportsDatabaseDown(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestNewServer_AuthorizeUpstreamUnreachable(t *testing.T) {
	srv := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal-api/authorize?code=x", nil))

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
}

func TestNewServer_ExposesMetrics(t *testing.T) {
	srv := newTestServer(t, testConfig())

	// 1リクエスト分のメトリクスを発生させる
	srv.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/internal-api/list/my", nil))

	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `problemlist_http_status_total{status_code="401"} 1`) {
		t.Errorf("metrics missing 401 count:\n%s", w.Body.String())
	}
}
