// Package auth はGitHub OAuthによるログインとセッション発行を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hitoshi/problemlist/internal/metrics"
	"github.com/hitoshi/problemlist/internal/model"
	"github.com/hitoshi/problemlist/internal/repository"
)

// IdentityProvider は外部IdPへの2つの呼び出しを抽象化する。
type IdentityProvider interface {
	// ExchangeCodeForToken は認可コードをアクセストークンに交換する。
	ExchangeCodeForToken(ctx context.Context, code string) (string, error)
	// FetchIdentity はアクセストークンで利用者の識別子を取得する。
	FetchIdentity(ctx context.Context, accessToken string) (*model.ExternalIdentity, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）。0は無期限
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	idp         IdentityProvider
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     metrics.MetricsCollector
	config      ServiceConfig
	now         func() time.Time
}

// NewService はServiceを生成する。mcがnilの場合はメトリクスを記録しない。
func NewService(
	idp IdentityProvider,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	mc metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Service{
		idp:         idp,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     mc,
		config:      config,
		now:         time.Now,
	}
}

// Authorize は認可コードを交換して利用者を特定し、新しいセッションを発行する。
// 内部ユーザーは初回ログイン時に作成される。
// 外部IdPとの通信失敗は*UpstreamAuthErrorを含むエラーを返し、状態は一切変更しない。
// 同じ利用者が繰り返しログインしても既存のセッションは無効化されない。
func (s *Service) Authorize(ctx context.Context, code string) (*model.Session, error) {
	if code == "" {
		return nil, model.NewInvalidRequestError("code is required")
	}

	// 1. 認可コードをアクセストークンに交換
	start := s.now()
	accessToken, err := s.idp.ExchangeCodeForToken(ctx, code)
	s.metrics.RecordUpstreamLatency(OpExchange, s.now().Sub(start))
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginUpstreamError)
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	// 2. アクセストークンで利用者の識別子を取得
	start = s.now()
	identity, err := s.idp.FetchIdentity(ctx, accessToken)
	s.metrics.RecordUpstreamLatency(OpIdentity, s.now().Sub(start))
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginUpstreamError)
		return nil, fmt.Errorf("failed to fetch identity: %w", err)
	}

	// 3. 内部ユーザーを用意
	userID := strconv.FormatInt(identity.ID, 10)
	if err := s.userRepo.EnsureExists(ctx, userID); err != nil {
		s.metrics.RecordLogin(metrics.LoginInternalError)
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	// 4. セッションを発行
	session, err := s.createSession(ctx, userID)
	if err != nil {
		s.metrics.RecordLogin(metrics.LoginInternalError)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.RecordLogin(metrics.LoginSuccess)
	slog.Info("user logged in", slog.String("user_id", userID))
	return session, nil
}

// Logout はセッションを破棄する。他のセッションには影響しない。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
	}
	if s.config.SessionMaxAge > 0 {
		session.ExpiresAt = now.Add(time.Duration(s.config.SessionMaxAge) * time.Second)
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
