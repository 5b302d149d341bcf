package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/recipebox/internal/middleware"
	"github.com/hitoshi/recipebox/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func testAuthConfig() AuthHandlerConfig {
	return AuthHandlerConfig{
		BaseURL:         "http://localhost:3000",
		LoginFailureURL: "/login",
		SessionMaxAge:   86400,
	}
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// --- テスト ---

func TestAuthHandler_Login_RedirectsToOAuthURL(t *testing.T) {
	var gotState string
	svc := &mockAuthService{
		getLoginURLFn: func(state string) string {
			gotState = state
			return "https://github.com/login/oauth/authorize?state=" + state
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/auth/github", nil)
	w := httptest.NewRecorder()

	h.Login(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}

	location := resp.Header.Get("Location")
	if !strings.HasPrefix(location, "https://github.com/login/oauth/authorize") {
		t.Errorf("Location = %q, should point to GitHub", location)
	}

	stateCookie := findCookie(resp, "oauth_state")
	if stateCookie == nil {
		t.Fatal("expected oauth_state cookie to be set")
	}
	if stateCookie.Value != gotState || len(gotState) != 32 {
		t.Errorf("state cookie = %q, state passed to provider = %q", stateCookie.Value, gotState)
	}
	if !stateCookie.HttpOnly {
		t.Error("state cookie should be HttpOnly")
	}
}

func TestAuthHandler_Callback_Success_SetsCookieAndRedirects(t *testing.T) {
	var gotCode string
	svc := &mockAuthService{
		handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
			gotCode = code
			return &model.Session{
				ID:        "session-id-abc",
				Identity:  model.Identity{Username: "octocat"},
				ExpiresAt: time.Now().Add(24 * time.Hour),
			}, nil
		},
	}
	cfg := testAuthConfig()
	cfg.CookieSecure = true
	h := NewAuthHandler(svc, cfg)

	req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?code=test-code&state=test-state", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "test-state"})
	w := httptest.NewRecorder()

	h.Callback(w, req)

	resp := w.Result()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if location := resp.Header.Get("Location"); location != "http://localhost:3000" {
		t.Errorf("Location = %q, want %q", location, "http://localhost:3000")
	}
	if gotCode != "test-code" {
		t.Errorf("code = %q, want %q", gotCode, "test-code")
	}

	sessionCookie := findCookie(resp, middleware.SessionCookieName)
	if sessionCookie == nil {
		t.Fatal("expected session_id cookie to be set")
	}
	if sessionCookie.Value != "session-id-abc" {
		t.Errorf("session cookie value = %q, want %q", sessionCookie.Value, "session-id-abc")
	}
	if !sessionCookie.HttpOnly || !sessionCookie.Secure {
		t.Error("session cookie should be HttpOnly and Secure")
	}
	if sessionCookie.MaxAge != 86400 {
		t.Errorf("session cookie MaxAge = %d, want 86400", sessionCookie.MaxAge)
	}
	if sessionCookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("session cookie SameSite = %v, want %v", sessionCookie.SameSite, http.SameSiteLaxMode)
	}

	if stateCookie := findCookie(resp, "oauth_state"); stateCookie == nil || stateCookie.MaxAge >= 0 {
		t.Error("expected oauth_state cookie to be cleared")
	}
}

func TestAuthHandler_Callback_FailuresRedirectToFailureURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		stateCookie string
		callbackErr error
	}{
		{
			name:        "stateの不一致",
			url:         "/auth/github/callback?code=c&state=attacker",
			stateCookie: "expected",
		},
		{
			name: "stateクッキーなし",
			url:  "/auth/github/callback?code=c&state=s",
		},
		{
			name:        "同意拒否",
			url:         "/auth/github/callback?error=access_denied&state=s",
			stateCookie: "s",
		},
		{
			name:        "コードなし",
			url:         "/auth/github/callback?state=s",
			stateCookie: "s",
		},
		{
			name:        "交換失敗",
			url:         "/auth/github/callback?code=c&state=s",
			stateCookie: "s",
			callbackErr: errors.New("bad_verification_code"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockAuthService{
				handleCallbackFn: func(ctx context.Context, code string) (*model.Session, error) {
					called = true
					if tt.callbackErr != nil {
						return nil, tt.callbackErr
					}
					return &model.Session{ID: "should-not-be-set"}, nil
				},
			}
			h := NewAuthHandler(svc, testAuthConfig())

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.stateCookie != "" {
				req.AddCookie(&http.Cookie{Name: "oauth_state", Value: tt.stateCookie})
			}
			w := httptest.NewRecorder()

			h.Callback(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusFound {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusFound)
			}
			if location := resp.Header.Get("Location"); location != "/login" {
				t.Errorf("Location = %q, want %q", location, "/login")
			}
			if findCookie(resp, middleware.SessionCookieName) != nil {
				t.Error("session cookie must not be set on failure")
			}
			if tt.callbackErr == nil && called {
				t.Error("HandleCallback should not be called")
			}
		})
	}
}

func TestAuthHandler_Logout_ClearsCookieAndRedirects(t *testing.T) {
	var loggedOut string
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			loggedOut = sessionID
			return nil
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-to-delete"})
	w := httptest.NewRecorder()

	h.Logout(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusFound)
	}
	if location := resp.Header.Get("Location"); location != "/" {
		t.Errorf("Location = %q, want %q", location, "/")
	}
	if loggedOut != "session-to-delete" {
		t.Errorf("logged out session = %q, want %q", loggedOut, "session-to-delete")
	}

	cookie := findCookie(resp, middleware.SessionCookieName)
	if cookie == nil || cookie.MaxAge >= 0 || cookie.Value != "" {
		t.Error("expected session_id cookie to be cleared")
	}
}

func TestAuthHandler_Logout_ErrorsStillRedirect(t *testing.T) {
	svc := &mockAuthService{
		logoutFn: func(ctx context.Context, sessionID string) error {
			return errors.New("db down")
		},
	}
	h := NewAuthHandler(svc, testAuthConfig())

	for _, withCookie := range []bool{true, false} {
		req := httptest.NewRequest(http.MethodGet, "/logout", nil)
		if withCookie {
			req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "s"})
		}
		w := httptest.NewRecorder()

		h.Logout(w, req)

		if w.Code != http.StatusFound {
			t.Errorf("withCookie=%v: status = %d, want %d", withCookie, w.Code, http.StatusFound)
		}
	}
}

func TestAuthHandler_Status(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	// 未ログイン
	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/api/auth/status", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if strings.TrimSpace(w.Body.String()) != `{"loggedIn":false}` {
		t.Errorf("body = %s", w.Body.String())
	}

	// ログイン済み
	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	req = req.WithContext(middleware.ContextWithIdentity(req.Context(), &model.Identity{
		Username: "octocat", DisplayName: "The Octocat",
	}))
	w = httptest.NewRecorder()
	h.Status(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body struct {
		LoggedIn bool `json:"loggedIn"`
		User     struct {
			Username    string `json:"username"`
			DisplayName string `json:"displayName"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !body.LoggedIn || body.User.Username != "octocat" || body.User.DisplayName != "The Octocat" {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	tests := []struct {
		name     string
		identity *model.Identity
		want     string
	}{
		{name: "ユーザー名", identity: &model.Identity{Username: "octocat", DisplayName: "The Octocat"}, want: "octocat"},
		{name: "表示名にフォールバック", identity: &model.Identity{DisplayName: "The Octocat"}, want: "The Octocat"},
	}

	h := NewAuthHandler(&mockAuthService{}, testAuthConfig())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
			req = req.WithContext(middleware.ContextWithIdentity(req.Context(), tt.identity))
			w := httptest.NewRecorder()

			h.Me(w, req)

			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body["username"] != tt.want {
				t.Errorf("username = %q, want %q", body["username"], tt.want)
			}
		})
	}
}
