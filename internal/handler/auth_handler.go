// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/problemlist/internal/middleware"
	"github.com/hitoshi/problemlist/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Authorize(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	LoginRedirectURL string
	CookieDomain     string
	CookieSecure     bool
	SessionMaxAge    int // セッションCookieの有効期間（秒）。0はブラウザセッション限り
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Authorize はGitHubからのリダイレクトを受け、認可コードでログインを完了する。
// 成功時はセッショントークンをCookieに設定し、フロントエンドへ302でリダイレクトする。
// GET /internal-api/authorize?code=xxx
func (h *AuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		handleServiceError(w, model.NewInvalidRequestError("code is required"))
		return
	}

	session, err := h.service.Authorize(r.Context(), code)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	http.SetCookie(w, h.sessionCookie(session.ID, h.config.SessionMaxAge))
	http.Redirect(w, r, h.config.LoginRedirectURL, http.StatusFound)
}

// Logout は提示されたセッションを破棄し、Cookieを失効させる。
// Cookieが無い場合も成功とする。
// POST /internal-api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", logoutErr.Error()))
		}
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	w.WriteHeader(http.StatusOK)
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
