// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値。
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Recorder はメトリクス記録のインターフェース。
// ミドルウェア・サービス層・ワーカーから利用する。
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordLogin(result string)
	RecordValidationFailure(resource string)
	RecordSessionsCleaned(count int64)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	requests           *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	logins             *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	sessionsCleaned    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_http_requests_total",
			Help: "HTTPリクエストの合計数",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recipebox_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_auth_logins_total",
			Help: "GitHubログインの結果別の合計数",
		}, []string{"result"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "recipebox_validation_failures_total",
			Help: "リソース別の入力検証失敗数",
		}, []string{"resource"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recipebox_sessions_cleaned_total",
			Help: "クリーンアップで削除された期限切れセッションの合計数",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestDuration,
		c.logins,
		c.validationFailures,
		c.sessionsCleaned,
	)

	return c
}

// RecordRequest はHTTPリクエストの件数と処理時間を記録する。
// routeにはchiのルートパターンを渡し、IDごとにラベルが増えないようにする。
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordValidationFailure は入力検証の失敗を記録する。
func (c *Collector) RecordValidationFailure(resource string) {
	c.validationFailures.WithLabelValues(resource).Inc()
}

// RecordSessionsCleaned は削除されたセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// Nop は何も記録しないRecorder。
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordLogin(string)                               {}
func (Nop) RecordValidationFailure(string)                   {}
func (Nop) RecordSessionsCleaned(int64)                      {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
