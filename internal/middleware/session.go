// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hitoshi/recipebox/internal/model"
	"github.com/munnerz/goautoneg"
)

// SessionCookieName はセッションIDを保持するCookie名。
const SessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに身元を格納するためのキー。
var identityContextKey = contextKey("identity")

// Authenticator はセッションIDから身元を解決するインターフェース。
// auth.Serviceが実装する。
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (*model.Identity, error)
}

// NewAuthenticateMiddleware はHTTP Only Cookieからセッションを読み取り、
// 認証済みであれば身元をリクエストコンテキストに注入するミドルウェアを返す。
// 未認証のリクエストはそのまま次へ渡す（匿名）。
// セッションストアの障害時のみ500を返す。
func NewAuthenticateMiddleware(authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := authenticator.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to authenticate session",
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// negotiableTypes はRequireAuthenticatedが拒否レスポンスを選ぶ候補。
// 先頭のJSONがデフォルトになる。
var negotiableTypes = []string{"application/json", "text/html"}

// RequireAuthenticated は匿名リクエストを拒否するミドルウェア。
// ブラウザ（text/htmlを優先するAccept）には"/"への302を、
// それ以外には401 JSONを返す。
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IdentityFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if goautoneg.Negotiate(r.Header.Get("Accept"), negotiableTypes) == "text/html" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		WriteAPIError(w, model.NewUnauthorizedError())
	})
}

// IdentityFromContext はリクエストコンテキストから身元を取得する。
// 匿名の場合はnilを返す。
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// ContextWithIdentity はコンテキストに身元を注入する。
// 外側にidentityHolderが置かれていれば、そこにも同じ身元を記録する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	if holder, ok := ctx.Value(identityHolderKey).(*identityHolder); ok {
		holder.identity = identity
	}
	return context.WithValue(ctx, identityContextKey, identity)
}

// identityHolderKey はidentityHolderを格納するためのキー。
var identityHolderKey = contextKey("identity_holder")

// identityHolder は内側で解決された身元を外側のミドルウェアから参照するための入れ物。
// ログ出力のように認証より外側で動くミドルウェアが使う。
type identityHolder struct {
	identity *model.Identity
}

func withIdentityHolder(ctx context.Context) (context.Context, *identityHolder) {
	holder := &identityHolder{}
	return context.WithValue(ctx, identityHolderKey, holder), holder
}
