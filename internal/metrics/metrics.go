// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 同期オーケストレーターやワーカーから利用する。
type MetricsCollector interface {
	RecordSyncSuccess(synced, skipped int)
	RecordSyncFailure()
	RecordPushSuccess()
	RecordPushFailure()
	RecordProviderStatus(statusCode int)
	RecordProviderLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	syncSuccess     prometheus.Counter
	syncFail        prometheus.Counter
	eventsSynced    prometheus.Counter
	eventsSkipped   prometheus.Counter
	pushSuccess     prometheus.Counter
	pushFail        prometheus.Counter
	providerStatus  *prometheus.CounterVec
	providerLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "housemate_sync_success_total",
			Help: "カレンダー同期パス成功の合計数",
		}),
		syncFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "housemate_sync_fail_total",
			Help: "カレンダー同期パス失敗の合計数",
		}),
		eventsSynced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "housemate_events_synced_total",
			Help: "同期で取り込まれたイベントの合計数",
		}),
		eventsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "housemate_events_skipped_total",
			Help: "変換失敗でスキップされたイベントの合計数",
		}),
		pushSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "housemate_push_success_total",
			Help: "プロバイダーへのイベント作成成功の合計数",
		}),
		pushFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "housemate_push_fail_total",
			Help: "プロバイダーへのイベント作成失敗の合計数",
		}),
		providerStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "housemate_provider_status_total",
			Help: "プロバイダーのHTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "housemate_provider_latency_seconds",
			Help:    "プロバイダーAPIのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.syncSuccess,
		c.syncFail,
		c.eventsSynced,
		c.eventsSkipped,
		c.pushSuccess,
		c.pushFail,
		c.providerStatus,
		c.providerLatency,
	)

	return c
}

// RecordSyncSuccess は同期パス成功と取り込み・スキップ件数を記録する。
func (c *Collector) RecordSyncSuccess(synced, skipped int) {
	c.syncSuccess.Inc()
	c.eventsSynced.Add(float64(synced))
	c.eventsSkipped.Add(float64(skipped))
}

// RecordSyncFailure は同期パス失敗を記録する。
func (c *Collector) RecordSyncFailure() {
	c.syncFail.Inc()
}

// RecordPushSuccess はプッシュ成功を記録する。
func (c *Collector) RecordPushSuccess() {
	c.pushSuccess.Inc()
}

// RecordPushFailure はプッシュ失敗を記録する。
func (c *Collector) RecordPushFailure() {
	c.pushFail.Inc()
}

// RecordProviderStatus はプロバイダーのHTTPステータスコードを記録する。
func (c *Collector) RecordProviderStatus(statusCode int) {
	c.providerStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordProviderLatency はプロバイダーAPIのレイテンシを記録する。
func (c *Collector) RecordProviderLatency(duration time.Duration) {
	c.providerLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
