package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of slow database queries",
		},
		[]string{"sql"},
	)

	// 时间线编辑计数
	TimelineEditCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeline_edit_count",
			Help: "Total number of timeline edits applied",
		},
		[]string{"result"}, // result: applied, rejected, version_conflict
	)

	// 阶段解析计数
	PhaseResolveCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phase_resolve_count",
			Help: "Total number of current-phase resolutions",
		},
		[]string{"source"}, // source: cache, computed, fallback
	)

	// 档期冲突检查计数
	ConflictCheckCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conflict_check_count",
			Help: "Total number of moderator availability checks",
		},
		[]string{"outcome"}, // outcome: available, conflicts
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery(sql string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(sql).Inc()
}

// IncrementTimelineEdit 增加时间线编辑计数
func IncrementTimelineEdit(result string) {
	TimelineEditCount.WithLabelValues(result).Inc()
}

// IncrementPhaseResolve 增加阶段解析计数
func IncrementPhaseResolve(source string) {
	PhaseResolveCount.WithLabelValues(source).Inc()
}

// IncrementConflictCheck 增加冲突检查计数
func IncrementConflictCheck(outcome string) {
	ConflictCheckCount.WithLabelValues(outcome).Inc()
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}
