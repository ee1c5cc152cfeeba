package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resops/internal/model"
	"resops/internal/repository"
	"resops/internal/schedule"
	"resops/internal/service"
)

type ModeratorHandler struct {
	repo         *repository.ModeratorRepository
	availability *service.AvailabilityService
	logger       *zap.Logger
}

func NewModeratorHandler(repo *repository.ModeratorRepository, availability *service.AvailabilityService, logger *zap.Logger) *ModeratorHandler {
	return &ModeratorHandler{repo: repo, availability: availability, logger: logger}
}

func (h *ModeratorHandler) ListModerators(c *gin.Context) {
	moderators, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("ListModerators: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch moderators"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"moderators": moderators})
}

func (h *ModeratorHandler) CreateModerator(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		Specialty string `json:"specialty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	m := &model.Moderator{
		Name:      req.Name,
		Email:     req.Email,
		Specialty: req.Specialty,
		Active:    true,
	}
	id, err := h.repo.Insert(c.Request.Context(), m)
	if err != nil {
		h.logger.Error("CreateModerator: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create moderator"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// CheckAvailability 检查候选区间对主持人是否可用，返回全部冲突。
func (h *ModeratorHandler) CheckAvailability(c *gin.Context) {
	moderatorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moderator id"})
		return
	}

	var req struct {
		Start            schedule.CalendarDate `json:"start"`
		End              schedule.CalendarDate `json:"end"`
		ExcludeProjectID int                   `json:"exclude_project_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Start.IsZero() || req.End.IsZero() || req.Start.After(req.End) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must form a valid range"})
		return
	}

	result, err := h.availability.Check(c.Request.Context(), moderatorID,
		schedule.DateRange{Start: req.Start, End: req.End}, req.ExcludeProjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "moderator not found"})
			return
		}
		h.logger.Error("CheckAvailability: failed",
			zap.Int("moderator_id", moderatorID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check availability"})
		return
	}

	// 冲突是决策点不是错误：200 带完整冲突清单
	c.JSON(http.StatusOK, result)
}

// ListSchedule 返回主持人的手工档期条目。
func (h *ModeratorHandler) ListSchedule(c *gin.Context) {
	moderatorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moderator id"})
		return
	}

	entries, err := h.repo.ListScheduleEntries(c.Request.Context(), moderatorID)
	if err != nil {
		h.logger.Error("ListSchedule: failed",
			zap.Int("moderator_id", moderatorID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch schedule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// AddScheduleEntry 添加手工档期条目（confirmed / hold / unavailable）。
func (h *ModeratorHandler) AddScheduleEntry(c *gin.Context) {
	moderatorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moderator id"})
		return
	}

	var req struct {
		Start schedule.CalendarDate `json:"start"`
		End   schedule.CalendarDate `json:"end"`
		Kind  schedule.BookingKind  `json:"kind"`
		Label string                `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Start.IsZero() || req.End.IsZero() || req.Start.After(req.End) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must form a valid range"})
		return
	}
	switch req.Kind {
	case schedule.BookingConfirmed, schedule.BookingHold, schedule.BookingUnavailable:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be confirmed, hold or unavailable"})
		return
	}

	entry := &model.ScheduleEntry{
		ModeratorID: moderatorID,
		Start:       req.Start,
		End:         req.End,
		Kind:        req.Kind,
		Label:       req.Label,
	}
	id, err := h.repo.InsertScheduleEntry(c.Request.Context(), entry)
	if err != nil {
		h.logger.Error("AddScheduleEntry: failed",
			zap.Int("moderator_id", moderatorID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add schedule entry"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ModeratorHandler) RemoveScheduleEntry(c *gin.Context) {
	moderatorID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid moderator id"})
		return
	}
	entryID, err := strconv.Atoi(c.Param("entry_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.repo.DeleteScheduleEntry(c.Request.Context(), moderatorID, entryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "schedule entry not found"})
			return
		}
		h.logger.Error("RemoveScheduleEntry: failed",
			zap.Int("entry_id", entryID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove schedule entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
