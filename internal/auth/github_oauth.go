package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/hitoshi/recipebox/internal/model"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	defaultGitHubUserURL = "https://api.github.com/user"
	githubScope          = "user:email"

	// プロフィールレスポンスの上限サイズ
	maxProfileBytes = 1 << 20
)

// GitHubOAuthConfig はGitHub OAuthプロバイダーの設定。
type GitHubOAuthConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string

	// HTTPClient はトークン交換とプロフィール取得に使用する。nilの場合はhttp.DefaultClient。
	HTTPClient *http.Client

	// テスト用にオーバーライド可能なURL
	AuthURL  string
	TokenURL string
	UserURL  string
}

// GitHubOAuthProvider はGitHub OAuth 2.0による認証を提供する。
// トークン交換とプロフィール取得はサーキットブレーカー越しに行い、
// GitHubの障害が続く間は即座に失敗させる。
type GitHubOAuthProvider struct {
	oauth   *oauth2.Config
	userURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*model.Identity]
}

// NewGitHubOAuthProvider はGitHubOAuthProviderを生成する。
func NewGitHubOAuthProvider(config GitHubOAuthConfig) *GitHubOAuthProvider {
	endpoint := github.Endpoint
	endpoint.AuthStyle = oauth2.AuthStyleInParams
	if config.AuthURL != "" {
		endpoint.AuthURL = config.AuthURL
	}
	if config.TokenURL != "" {
		endpoint.TokenURL = config.TokenURL
	}
	userURL := config.UserURL
	if userURL == "" {
		userURL = defaultGitHubUserURL
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &GitHubOAuthProvider{
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.CallbackURL,
			Endpoint:     endpoint,
			Scopes:       []string{githubScope},
		},
		userURL: userURL,
		client:  client,
		breaker: newBreaker(),
	}
}

func newBreaker() *gobreaker.CircuitBreaker[*model.Identity] {
	return gobreaker.NewCircuitBreaker[*model.Identity](gobreaker.Settings{
		Name:        "github-oauth",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 不正な認可コード等、GitHubが応答を返した失敗は障害として数えない
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var retrieveErr *oauth2.RetrieveError
			return errors.As(err, &retrieveErr) &&
				retrieveErr.Response != nil && retrieveErr.Response.StatusCode < http.StatusInternalServerError
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// GetLoginURL はGitHubの認可URLを生成する。スコープはuser:email。
func (p *GitHubOAuthProvider) GetLoginURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// githubUser はGitHubのユーザーAPIのレスポンス。
type githubUser struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

// ExchangeCode は認可コードをアクセストークンに交換し、ユーザーの身元を取得する。
func (p *GitHubOAuthProvider) ExchangeCode(ctx context.Context, code string) (*model.Identity, error) {
	identity, err := p.breaker.Execute(func() (*model.Identity, error) {
		ctx := context.WithValue(ctx, oauth2.HTTPClient, p.client)

		token, err := p.oauth.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange token: %w", err)
		}

		user, err := p.fetchUser(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user profile: %w", err)
		}

		return &model.Identity{Username: user.Login, DisplayName: user.Name}, nil
	})
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// fetchUser はアクセストークンでGitHubのユーザー情報を取得する。
func (p *GitHubOAuthProvider) fetchUser(ctx context.Context, token *oauth2.Token) (*githubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read user response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user fetch failed with status %d", resp.StatusCode)
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	if user.Login == "" && user.Name == "" {
		return nil, errors.New("empty login in user response")
	}

	return &user, nil
}

// compile-time interface check
var _ OAuthProvider = (*GitHubOAuthProvider)(nil)
