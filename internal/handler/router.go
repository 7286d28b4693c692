package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/problemlist/internal/metrics"
	"github.com/hitoshi/problemlist/internal/middleware"
)

// APIPrefix は全APIエンドポイントの共通プレフィックス。
const APIPrefix = "/internal-api"

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger             // nilの場合はslog.Default()
	Metrics           metrics.MetricsCollector // nilの場合は記録しない
	MetricsGatherer   prometheus.Gatherer      // nilの場合は/metricsを公開しない
	HealthChecker     HealthChecker

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 問題リスト
	ListService ListServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → CORS → CSRF
//	  → (保護ルートのみ) Session → RateLimit(General) → (変更系のみ) RateLimit(Mutation)
//
// /authorize, /logout, /list/get/{id} はセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mc := deps.Metrics
	if mc == nil {
		mc = metrics.NopCollector{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(mc))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	listHandler := NewListHandler(deps.ListService)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CORSAllowedOrigin))

		// --- 認証不要のルート ---
		r.Get("/authorize", authHandler.Authorize)
		r.Post("/logout", authHandler.Logout)
		r.Get("/list/get/{id}", listHandler.Get)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get("/list/my", listHandler.ListMine)

			r.Group(func(r chi.Router) {
				r.Use(deps.RateLimiter.MutationMiddleware())

				r.Post("/list/create", listHandler.Create)
				r.Post("/list/update", listHandler.Update)
				r.Post("/list/delete", listHandler.Delete)
				r.Post("/list/item/add", listHandler.AddItem)
				r.Post("/list/item/update", listHandler.UpdateItem)
				r.Post("/list/item/delete", listHandler.DeleteItem)
			})
		})
	})

	return r
}
