package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/model"
	"github.com/hitoshi/recipebox/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- モック定義 ---

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*model.Identity, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://github.com/login/oauth/authorize?state=" + state
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*model.Identity, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return &model.Identity{Username: "octocat", DisplayName: "The Octocat"}, nil
}

type loginCounter struct {
	metrics.Nop
	results []string
}

func (c *loginCounter) RecordLogin(result string) {
	c.results = append(c.results, result)
}

func newTestService(provider OAuthProvider) (*Service, *repotest.SessionRepo, *loginCounter) {
	repo := repotest.NewSessionRepo()
	counter := &loginCounter{}
	svc := NewService(provider, repo, counter, ServiceConfig{SessionTTL: 24 * time.Hour})
	return svc, repo, counter
}

// --- テスト ---

func TestService_GetLoginURL(t *testing.T) {
	svc, _, _ := newTestService(&mockOAuthProvider{})

	url := svc.GetLoginURL("abc")

	assert.Equal(t, "https://github.com/login/oauth/authorize?state=abc", url)
}

func TestService_HandleCallback_CreatesSession(t *testing.T) {
	var gotCode string
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(_ context.Context, code string) (*model.Identity, error) {
			gotCode = code
			return &model.Identity{Username: "octocat", DisplayName: "The Octocat"}, nil
		},
	}
	svc, repo, counter := newTestService(provider)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	repo.Now = func() time.Time { return fixed }

	session, err := svc.HandleCallback(context.Background(), "good-code")
	require.NoError(t, err)

	assert.Equal(t, "good-code", gotCode)
	assert.Len(t, session.ID, 64)
	assert.Equal(t, "octocat", session.Identity.Username)
	assert.Equal(t, fixed.Add(24*time.Hour), session.ExpiresAt)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, []string{metrics.LoginSuccess}, counter.results)

	identity, err := svc.Authenticate(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "The Octocat", identity.DisplayName)
}

func TestService_HandleCallback_ExchangeFailure(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(context.Context, string) (*model.Identity, error) {
			return nil, errors.New("bad_verification_code")
		},
	}
	svc, repo, counter := newTestService(provider)

	session, err := svc.HandleCallback(context.Background(), "bad")

	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, []string{metrics.LoginFailure}, counter.results)
}

func TestService_HandleCallback_StoreFailure(t *testing.T) {
	svc, repo, counter := newTestService(&mockOAuthProvider{})
	repo.Err = errors.New("db down")

	session, err := svc.HandleCallback(context.Background(), "code")

	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Equal(t, []string{metrics.LoginFailure}, counter.results)
}

func TestService_HandleCallback_UniqueSessionIDs(t *testing.T) {
	svc, _, _ := newTestService(&mockOAuthProvider{})

	first, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)
	second, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestService_Authenticate_Anonymous(t *testing.T) {
	svc, _, _ := newTestService(&mockOAuthProvider{})

	tests := []struct {
		name      string
		sessionID string
	}{
		{name: "空のID", sessionID: ""},
		{name: "未知のID", sessionID: "does-not-exist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := svc.Authenticate(context.Background(), tt.sessionID)
			assert.NoError(t, err)
			assert.Nil(t, identity)
		})
	}
}

func TestService_Authenticate_Expired(t *testing.T) {
	svc, repo, _ := newTestService(&mockOAuthProvider{})
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	repo.Now = func() time.Time { return start }

	session, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)

	later := start.Add(24 * time.Hour)
	svc.now = func() time.Time { return later }
	repo.Now = func() time.Time { return later }

	identity, err := svc.Authenticate(context.Background(), session.ID)
	assert.NoError(t, err)
	assert.Nil(t, identity)
}

func TestService_Authenticate_StoreError(t *testing.T) {
	svc, repo, _ := newTestService(&mockOAuthProvider{})
	repo.Err = errors.New("db down")

	identity, err := svc.Authenticate(context.Background(), "some-id")

	assert.Error(t, err)
	assert.Nil(t, identity)
}

func TestService_Logout(t *testing.T) {
	svc, repo, _ := newTestService(&mockOAuthProvider{})

	session, err := svc.HandleCallback(context.Background(), "code")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), session.ID))
	assert.Equal(t, 0, repo.Len())

	identity, err := svc.Authenticate(context.Background(), session.ID)
	assert.NoError(t, err)
	assert.Nil(t, identity)

	// 2回目のログアウトもエラーにならない
	assert.NoError(t, svc.Logout(context.Background(), session.ID))
	assert.NoError(t, svc.Logout(context.Background(), ""))
}
