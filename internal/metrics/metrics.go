// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値
const (
	LoginSuccess       = "success"
	LoginUpstreamError = "upstream_error"
	LoginInternalError = "internal_error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordLogin(outcome string)
	RecordUpstreamLatency(op string, duration time.Duration)
	RecordListMutation(op, outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
	logins          *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	listMutations   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "problemlist_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "problemlist_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "problemlist_login_total",
			Help: "結果別のログイン試行数",
		}, []string{"outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "problemlist_upstream_latency_seconds",
			Help:    "外部IdP呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		listMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "problemlist_list_mutations_total",
			Help: "操作・結果別のリスト変更数",
		}, []string{"op", "outcome"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.logins,
		c.upstreamLatency,
		c.listMutations,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordUpstreamLatency は外部IdP呼び出し（exchange, identity）のレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(op string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordListMutation はリスト変更操作の結果を記録する。
func (c *Collector) RecordListMutation(op, outcome string) {
	c.listMutations.WithLabelValues(op, outcome).Inc()
}

// NopCollector は何も記録しないMetricsCollector。
type NopCollector struct{}

func (NopCollector) RecordHTTPStatus(int)                        {}
func (NopCollector) RecordRequestLatency(time.Duration)          {}
func (NopCollector) RecordLogin(string)                          {}
func (NopCollector) RecordUpstreamLatency(string, time.Duration) {}
func (NopCollector) RecordListMutation(string, string)           {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = NopCollector{}
)
