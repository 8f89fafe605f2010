package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 上游 API 调用延迟（秒）
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream REST API call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"method", "endpoint", "status"},
	)

	// console HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 提交前被拦截的校验失败
	ValidationRejectCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_reject_count",
			Help: "Total number of submissions blocked by client-side validation",
		},
		[]string{"rule"}, // rule: project_dates, task_dates, expenditure, hours, ...
	)

	// 轮询 tick 计数
	PollTickCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_tick_count",
			Help: "Total number of polling ticks",
		},
		[]string{"loop", "status"}, // status: success, failed
	)

	// 通知 / 动态广播计数
	AnnouncementCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "announcement_count",
			Help: "Total number of items announced on the event exchange",
		},
		[]string{"kind"}, // kind: notification, activity, count
	)

	// 熔断器状态（0 closed, 1 open, 2 half-open）
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "upstream_circuit_breaker_state",
			Help: "Upstream circuit breaker state",
		},
	)
)

// RecordUpstreamRequest 记录上游 API 调用延迟
func RecordUpstreamRequest(method, endpoint, status string, duration time.Duration) {
	UpstreamRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// IncrementValidationReject 增加校验拦截计数
func IncrementValidationReject(rule string) {
	ValidationRejectCount.WithLabelValues(rule).Inc()
}

// IncrementPollTick 增加轮询计数
func IncrementPollTick(loop, status string) {
	PollTickCount.WithLabelValues(loop, status).Inc()
}

// IncrementAnnouncement 增加广播计数
func IncrementAnnouncement(kind string) {
	AnnouncementCount.WithLabelValues(kind).Inc()
}

// SetCircuitBreakerState 记录熔断器状态
func SetCircuitBreakerState(state int) {
	CircuitBreakerState.Set(float64(state))
}
