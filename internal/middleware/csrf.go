package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/problemlist/internal/model"
)

// NewCSRFMiddleware は状態変更リクエストの送信元オリジンを検証するミドルウェアを返す。
// フロントエンドはトークンヘッダーを送らないため、Origin（無ければReferer）で判定する。
// どちらのヘッダーも無いリクエスト（ブラウザ以外のクライアント）は通過させる。
// 安全なメソッド（GET, HEAD, OPTIONS）は検証しない。
func NewCSRFMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	allowed := strings.TrimRight(allowedOrigin, "/")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isSafeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			origin := requestOrigin(r)
			if origin != "" && origin != allowed {
				slog.Warn("CSRF validation failed: origin mismatch",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("origin", origin),
				)
				WriteErrorResponse(w, http.StatusForbidden, &model.APIError{
					Code:     model.ErrCodeForbidden,
					Message:  "許可されていないオリジンからのリクエストです。",
					Category: "auth",
					Action:   "正規の画面から操作してください。",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestOrigin はOriginヘッダー、無ければRefererのscheme://hostを返す。
func requestOrigin(r *http.Request) string {
	if o := r.Header.Get("Origin"); o != "" {
		return strings.TrimRight(o, "/")
	}
	ref := r.Header.Get("Referer")
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "invalid"
	}
	return u.Scheme + "://" + u.Host
}

// isSafeMethod はHTTPメソッドが安全（読み取り専用）かどうかを判定する。
func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
