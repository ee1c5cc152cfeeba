package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"resops/internal/handler"
	"resops/pkg/logger"
	"resops/pkg/metrics"
	"resops/pkg/reqid"
)

func NewRouter(
	projects *handler.ProjectHandler,
	timelines *handler.TimelineHandler,
	moderators *handler.ModeratorHandler,
	vendors *handler.VendorHandler,
	log *zap.Logger,
	db *pgxpool.Pool,
	rdb *redis.Client,
) *gin.Engine {
	r := gin.Default()

	// 请求 ID 中间件：入站没有就生成一个，回写到响应头
	r.Use(func(c *gin.Context) {
		id := c.GetHeader(reqid.HeaderName)
		if id == "" {
			id = reqid.New()
		}
		c.Request = c.Request.WithContext(reqid.WithContext(c.Request.Context(), id))
		c.Writer.Header().Set(reqid.HeaderName, id)
		c.Next()
	})

	// 添加请求日志中间件
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		metrics.RecordHTTPRequestDuration(c.Request.Method, c.FullPath(),
			strconv.Itoa(c.Writer.Status()), latency)
		logger.WithRequestID(c.Request.Context(), log).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	})

	// Health endpoints (放在最前面)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   Version,
		})
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			c.JSON(500, gin.H{"status": "redis_not_ready", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Projects
	r.GET("/projects", projects.ListProjects)
	r.POST("/projects", projects.CreateProject)
	r.GET("/projects/:id", projects.GetProject)
	r.POST("/projects/:id/assign-moderator", projects.AssignModerator)
	r.POST("/projects/:id/archive", projects.ArchiveProject)

	// Timeline
	r.POST("/timeline/validate", timelines.Validate)
	r.GET("/projects/:id/phase", timelines.GetPhase)
	r.PUT("/projects/:id/timeline/edit", timelines.ApplyEdit)
	r.GET("/projects/:id/deadlines", timelines.GetDeadlines)
	r.POST("/projects/:id/deadlines", timelines.AddDeadline)
	r.DELETE("/projects/:id/deadlines/:label", timelines.RemoveDeadline)

	// Moderators
	r.GET("/moderators", moderators.ListModerators)
	r.POST("/moderators", moderators.CreateModerator)
	r.POST("/moderators/:id/availability", moderators.CheckAvailability)
	r.GET("/moderators/:id/schedule", moderators.ListSchedule)
	r.POST("/moderators/:id/schedule", moderators.AddScheduleEntry)
	r.DELETE("/moderators/:id/schedule/:entry_id", moderators.RemoveScheduleEntry)

	// Vendors
	r.GET("/vendors", vendors.ListVendors)
	r.POST("/vendors", vendors.CreateVendor)
	r.GET("/vendors/:id", vendors.GetVendor)
	r.PUT("/vendors/:id", vendors.UpdateVendor)
	r.DELETE("/vendors/:id", vendors.DeleteVendor)

	return r
}
