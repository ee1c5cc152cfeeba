package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resops/internal/repository"
	"resops/internal/schedule"
	"resops/internal/service"
)

type TimelineHandler struct {
	timelines *service.TimelineService
	logger    *zap.Logger
}

func NewTimelineHandler(timelines *service.TimelineService, logger *zap.Logger) *TimelineHandler {
	return &TimelineHandler{timelines: timelines, logger: logger}
}

// Validate 校验一组分段；违规是数据不是错误，始终返回 200。
func (h *TimelineHandler) Validate(c *gin.Context) {
	var req struct {
		Segments []schedule.PhaseSegment `json:"segments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Validate: bad request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timeline, violations := h.timelines.ValidateTimeline(req.Segments)
	if violations != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid":      false,
			"violations": violations,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":    true,
		"timeline": timeline,
	})
}

// GetPhase 返回项目在指定日期（默认今天）的阶段与状态。
func (h *TimelineHandler) GetPhase(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	date := schedule.Today(time.Local)
	if raw := c.Query("date"); raw != "" {
		date, err = schedule.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	res, err := h.timelines.CurrentPhase(c.Request.Context(), projectID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("GetPhase: failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve phase"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"date":       date.String(),
		"phase":      res.Phase,
		"status":     res.Status,
		"fallback":   res.Fallback,
	})
}

// ApplyEdit 移动一个分段的边界并级联相邻调整。
func (h *TimelineHandler) ApplyEdit(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req struct {
		SegmentIndex int                    `json:"segment_index"`
		Field        schedule.BoundaryField `json:"field"`
		Date         schedule.CalendarDate  `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("ApplyEdit: bad request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Field.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field must be \"start\" or \"end\""})
		return
	}

	h.logger.Info("ApplyEdit request received",
		zap.Int("project_id", projectID),
		zap.Int("segment_index", req.SegmentIndex),
		zap.String("field", string(req.Field)),
		zap.String("date", req.Date.String()),
	)

	outcome, err := h.timelines.ApplyEdit(c.Request.Context(), projectID, req.SegmentIndex, req.Field, req.Date)
	if err != nil {
		var verr *schedule.ValidationError
		switch {
		case errors.As(err, &verr):
			// 编辑被整体拒绝，先前的合法状态原样保留
			c.JSON(http.StatusConflict, gin.H{
				"error":      "edit rejected",
				"violations": verr.Violations,
			})
		case errors.Is(err, schedule.ErrPhaseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "segment index out of range"})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, repository.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "concurrent edit, please retry"})
		default:
			h.logger.Error("ApplyEdit: failed",
				zap.Int("project_id", projectID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply edit"})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetDeadlines 返回派生加手工的截止日列表。
func (h *TimelineHandler) GetDeadlines(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	deadlines, err := h.timelines.Deadlines(c.Request.Context(), projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("GetDeadlines: failed",
			zap.Int("project_id", projectID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch deadlines"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deadlines": deadlines})
}

// AddDeadline 添加手工截止日条目。
func (h *TimelineHandler) AddDeadline(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req schedule.KeyDeadline
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Label == "" || req.Date.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "label and date required"})
		return
	}

	if err := h.timelines.AddDeadline(c.Request.Context(), projectID, req); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("AddDeadline: failed", zap.Int("project_id", projectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add deadline"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// RemoveDeadline 删除指定标签的手工截止日。
func (h *TimelineHandler) RemoveDeadline(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	label := c.Param("label")

	if err := h.timelines.RemoveDeadline(c.Request.Context(), projectID, label); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "deadline not found"})
			return
		}
		h.logger.Error("RemoveDeadline: failed", zap.Int("project_id", projectID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove deadline"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
