package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/recipebox/internal/metrics"
	"github.com/hitoshi/recipebox/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Authenticator      middleware.Authenticator
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	AuthRateLimit      int // /auth/* のIP単位の上限（req/min）。0以下で無効
	Logger             *slog.Logger
	Metrics            metrics.Recorder
	MetricsHandler     http.Handler // nilの場合は/metricsを公開しない
	HealthChecker      HealthChecker
	HSTS               bool // HTTPSで公開する場合にStrict-Transport-Securityを付与する

	// 開発環境で500レスポンスにエラー詳細を含める
	ExposeErrorDetail bool

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// リソース
	IngredientService IngredientServiceInterface
	RecipeService     RecipeServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → RealIP → SecurityHeaders → CORS → Logging → Metrics
//
// セッションを参照するのは /api/* のみで、Authenticate はそのグループにだけ掛ける。
// /health、/metrics、/auth/*、/logout はセッションストアに触れない。
// /api/* のうちログイン状態の確認以外は RequireAuthenticated → RateLimit(General, Write) を追加で通る。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{HSTS: deps.HSTS}))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(recorder))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	ingredientHandler := NewIngredientHandler(deps.IngredientService, deps.ExposeErrorDetail)
	recipeHandler := NewRecipeHandler(deps.RecipeService, deps.ExposeErrorDetail)

	// --- 認証不要のルート ---

	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		if deps.AuthRateLimit > 0 {
			r.Use(middleware.NewAuthRateLimitMiddleware(deps.AuthRateLimit))
		}
		r.Get("/github", authHandler.Login)
		r.Get("/github/callback", authHandler.Callback)
	})
	r.Get("/logout", authHandler.Logout)

	// --- セッションを参照するルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthenticateMiddleware(deps.Authenticator))

		r.Get("/api/auth/status", authHandler.Status)

		// 認証が必要なルート
		// ミドルウェアスタック: RequireAuthenticated → RateLimit(General) → RateLimit(Write)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated)
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.GeneralMiddleware())
				r.Use(deps.RateLimiter.WriteMiddleware())
			}

			r.Get("/api/user/me", authHandler.Me)

			r.Route("/api/ingredients", func(r chi.Router) {
				r.Get("/", ingredientHandler.List)
				r.Post("/", ingredientHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", ingredientHandler.Get)
					r.Put("/", ingredientHandler.Update)
					r.Delete("/", ingredientHandler.Delete)
				})
			})

			r.Route("/api/recipes", func(r chi.Router) {
				r.Get("/", recipeHandler.List)
				r.Post("/", recipeHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", recipeHandler.Get)
					r.Put("/", recipeHandler.Update)
					r.Delete("/", recipeHandler.Delete)
				})
			})
		})
	})

	return r
}
