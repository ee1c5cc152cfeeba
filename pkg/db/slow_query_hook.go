package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"resops/pkg/metrics"
)

type queryCtxKey string

const (
	queryStartKey queryCtxKey = "query_start_time"
	querySQLKey   queryCtxKey = "query_sql"
)

// SlowQueryTracer 慢查询监控 Tracer
type SlowQueryTracer struct {
	logger        *zap.Logger
	slowThreshold time.Duration // 慢查询阈值，默认 100ms
}

// NewSlowQueryTracer 创建慢查询 Tracer
func NewSlowQueryTracer(logger *zap.Logger, slowThreshold time.Duration) *SlowQueryTracer {
	if slowThreshold == 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &SlowQueryTracer{
		logger:        logger,
		slowThreshold: slowThreshold,
	}
}

// TraceQueryStart 查询开始时的钩子
func (t *SlowQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx = context.WithValue(ctx, queryStartKey, time.Now())
	ctx = context.WithValue(ctx, querySQLKey, data.SQL)
	return ctx
}

// TraceQueryEnd 查询结束时的钩子
func (t *SlowQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	startTime, ok := ctx.Value(queryStartKey).(time.Time)
	if !ok {
		return
	}

	duration := time.Since(startTime)

	// pgx v5 的 TraceQueryEndData 不带 SQL，需要从 context 取回
	sql, _ := ctx.Value(querySQLKey).(string)
	if sql == "" {
		sql = "unknown"
	}

	operation, table := queryLabels(sql)
	metrics.RecordDBQueryDuration(operation, table, duration)

	if duration <= t.slowThreshold {
		return
	}

	// 截断 SQL 语句（避免日志过长）
	if len(sql) > 200 {
		sql = sql[:200] + "..."
	}

	t.logger.Warn("slow-query",
		zap.String("sql", sql),
		zap.Duration("took", duration),
		zap.String("command_tag", data.CommandTag.String()),
	)

	metrics.IncrementSlowQuery(sql, duration)
}

// queryLabels 从 SQL 粗提取指标标签：动词 + 目标表。
// 解析失败时落到 "unknown"，绝不影响查询本身。
func queryLabels(sql string) (operation, table string) {
	operation, table = "unknown", "unknown"

	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return operation, table
	}
	operation = strings.ToLower(fields[0])

	// SELECT ... FROM t / DELETE FROM t / INSERT INTO t / UPDATE t
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "FROM", "INTO":
			if i+1 < len(fields) {
				table = strings.ToLower(strings.Trim(fields[i+1], `"(`))
			}
			return operation, table
		case "UPDATE":
			if i+1 < len(fields) {
				table = strings.ToLower(strings.Trim(fields[i+1], `"`))
			}
			return operation, table
		}
	}
	return operation, table
}
