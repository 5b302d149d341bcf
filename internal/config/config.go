// Package config はアプリケーション設定の読み込みを提供する。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar は設定ファイルのパスを指定する環境変数名。
const ConfigPathEnvVar = "CONFIG_PATH"

// Config はアプリケーション全体の設定を保持する。
// 起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string `koanf:"database_url"`

	// OAuth
	GitHubClientID     string        `koanf:"github_client_id"`
	GitHubClientSecret string        `koanf:"github_client_secret"`
	GitHubCallbackURL  string        `koanf:"github_callback_url"`
	GitHubTimeout      time.Duration `koanf:"github_timeout"`
	LoginFailureURL    string        `koanf:"login_failure_url"`

	// Session
	SessionMaxAge          int           `koanf:"session_max_age"`
	SessionCleanupInterval time.Duration `koanf:"session_cleanup_interval"`

	// Rate Limit（いずれも1分あたりのリクエスト数）
	RateLimitGeneral int `koanf:"rate_limit_general"`
	RateLimitWrite   int `koanf:"rate_limit_write"`
	AuthRateLimit    int `koanf:"auth_rate_limit"`

	// Server
	ServerPort string `koanf:"server_port"`
	BaseURL    string `koanf:"base_url"`
	AppEnv     string `koanf:"app_env"`
	LogLevel   string `koanf:"log_level"`

	// Worker（/metricsのみを公開するリスナー）
	WorkerMetricsPort string `koanf:"worker_metrics_port"`

	// Cookie
	CookieSecure bool   `koanf:"-"`
	CookieDomain string `koanf:"cookie_domain"`

	// CORS
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// IsDevelopment は開発環境で動作しているかを返す。
// 開発環境では500エラーの詳細がレスポンスに含まれる。
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// SessionTTL はセッションの有効期間を返す。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionMaxAge) * time.Second
}

func defaultConfig() *Config {
	return &Config{
		GitHubTimeout:          10 * time.Second,
		LoginFailureURL:        "/login",
		SessionMaxAge:          86400,
		SessionCleanupInterval: time.Hour,
		RateLimitGeneral:       120,
		RateLimitWrite:         30,
		AuthRateLimit:          20,
		ServerPort:             "8080",
		WorkerMetricsPort:      "9091",
		AppEnv:                 "production",
		LogLevel:               "info",
		CORSAllowedOrigins:     []string{"http://localhost:3000"},
	}
}

// envKeys は設定に取り込む環境変数。これ以外の環境変数は無視する。
var envKeys = map[string]bool{
	"database_url":             true,
	"github_client_id":         true,
	"github_client_secret":     true,
	"github_callback_url":      true,
	"github_timeout":           true,
	"login_failure_url":        true,
	"session_max_age":          true,
	"session_cleanup_interval": true,
	"rate_limit_general":       true,
	"rate_limit_write":         true,
	"auth_rate_limit":          true,
	"server_port":              true,
	"worker_metrics_port":      true,
	"base_url":                 true,
	"app_env":                  true,
	"log_level":                true,
	"cookie_domain":            true,
	"cors_allowed_origins":     true,
}

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if envKeys[key] {
		return key
	}
	return ""
}

// Load は既定値・設定ファイル・環境変数の順に重ねてConfigを読み込む。
// 設定ファイルはCONFIG_PATHが指定された場合のみ読み込む。
// 必須項目が未設定の場合はまとめてエラーを返す。
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.CORSAllowedOrigins = trimList(cfg.CORSAllowedOrigins)
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate は必須項目と数値の範囲を検証する。
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"DATABASE_URL", c.DatabaseURL},
		{"GITHUB_CLIENT_ID", c.GitHubClientID},
		{"GITHUB_CLIENT_SECRET", c.GitHubClientSecret},
		{"GITHUB_CALLBACK_URL", c.GitHubCallbackURL},
		{"BASE_URL", c.BaseURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}

	var errs []error
	if c.SessionMaxAge <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_MAX_AGE must be positive, got %d", c.SessionMaxAge))
	}
	if c.RateLimitGeneral <= 0 || c.RateLimitWrite <= 0 || c.AuthRateLimit <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}
	if c.SessionCleanupInterval <= 0 {
		errs = append(errs, errors.New("SESSION_CLEANUP_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func trimList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
