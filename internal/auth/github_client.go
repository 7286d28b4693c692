package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/hitoshi/problemlist/internal/model"
)

const (
	defaultGitHubOAuthBaseURL = "https://github.com"
	defaultGitHubAPIBaseURL   = "https://api.github.com"
	defaultOAuthTimeout       = 10 * time.Second

	// 識別子取得時にGitHub APIが要求するUser-Agent
	gitHubUserAgent = "problemlist"
)

// 外部IdP呼び出しの種別（UpstreamAuthError.Op、メトリクスのラベル）
const (
	OpExchange = "exchange"
	OpIdentity = "identity"
)

// UpstreamAuthError は外部IdPとの通信失敗を表す。
// 接続エラー、非2xx応答、応答の欠損・解析失敗を含む。
type UpstreamAuthError struct {
	Op  string // OpExchange または OpIdentity
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("upstream auth failed during %s: %v", e.Op, e.Err)
}

// Unwrap は原因エラーを返す。
func (e *UpstreamAuthError) Unwrap() error {
	return e.Err
}

// GitHubClientConfig はGitHubClientの設定。
type GitHubClientConfig struct {
	ClientID     string
	ClientSecret string

	// テスト用にオーバーライド可能なベースURL
	OAuthBaseURL string
	APIBaseURL   string

	// 1回の外部呼び出し全体のタイムアウト
	Timeout time.Duration
}

// GitHubClient はGitHub OAuthの認可コード交換と利用者識別子の取得を行う。
// ローカル状態を持たず、並行に使用できる。リトライは行わない。
type GitHubClient struct {
	oauth      *oauth2.Config
	apiBaseURL string
	httpClient *http.Client
}

// NewGitHubClient はGitHubClientを生成する。
func NewGitHubClient(cfg GitHubClientConfig) *GitHubClient {
	if cfg.OAuthBaseURL == "" {
		cfg.OAuthBaseURL = defaultGitHubOAuthBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultGitHubAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultOAuthTimeout
	}

	return &GitHubClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.OAuthBaseURL + "/login/oauth/authorize",
				TokenURL:  cfg.OAuthBaseURL + "/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBaseURL: cfg.APIBaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ExchangeCodeForToken は認可コードをアクセストークンに交換する。
// 失敗は全て*UpstreamAuthErrorとして返す。
func (c *GitHubClient) ExchangeCodeForToken(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return "", &UpstreamAuthError{Op: OpExchange, Err: err}
	}
	if token.AccessToken == "" {
		return "", &UpstreamAuthError{Op: OpExchange, Err: fmt.Errorf("empty access token in response")}
	}

	return token.AccessToken, nil
}

// gitHubUser はGitHub APIの /user レスポンスのうち使用する項目。
// IDはポインタで受け、0と欠損を区別する。
type gitHubUser struct {
	ID *int64 `json:"id"`
}

// FetchIdentity はアクセストークンで利用者の数値IDを取得する。
// 失敗は全て*UpstreamAuthErrorとして返す。
func (c *GitHubClient) FetchIdentity(ctx context.Context, accessToken string) (*model.ExternalIdentity, error) {
	id, err := c.fetchUserID(ctx, accessToken)
	if err != nil {
		return nil, &UpstreamAuthError{Op: OpIdentity, Err: err}
	}
	return &model.ExternalIdentity{ID: id}, nil
}

func (c *GitHubClient) fetchUserID(ctx context.Context, accessToken string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBaseURL+"/user", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", gitHubUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read user response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("user fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user gitHubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return 0, fmt.Errorf("failed to parse user response: %w", err)
	}
	if user.ID == nil {
		return 0, fmt.Errorf("missing id in user response")
	}

	return *user.ID, nil
}

// compile-time interface check
var _ IdentityProvider = (*GitHubClient)(nil)
