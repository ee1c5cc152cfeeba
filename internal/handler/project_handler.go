package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resops/internal/model"
	"resops/internal/repository"
	"resops/internal/service"
)

type ProjectHandler struct {
	repo      *repository.ProjectRepository
	timelines *service.TimelineService
	logger    *zap.Logger
}

func NewProjectHandler(repo *repository.ProjectRepository, timelines *service.TimelineService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{repo: repo, timelines: timelines, logger: logger}
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("ListProjects: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch projects"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("GetProject: failed", zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch project"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req struct {
		Title  string `json:"title"`
		Client string `json:"client"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	p := &model.Project{
		Title:     req.Title,
		Client:    req.Client,
		LastPhase: "awaiting_kickoff",
	}
	id, err := h.repo.Insert(c.Request.Context(), p)
	if err != nil {
		h.logger.Error("CreateProject: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create project"})
		return
	}

	h.logger.Info("CreateProject: success", zap.Int("id", id), zap.String("title", req.Title))
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// AssignModerator 给项目指派主持人。冲突以告警返回，指派仍然生效。
func (h *ProjectHandler) AssignModerator(c *gin.Context) {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req struct {
		ModeratorID int `json:"moderator_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ModeratorID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "moderator_id required"})
		return
	}

	outcome, err := h.timelines.AssignModerator(c.Request.Context(), projectID, req.ModeratorID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project or moderator not found"})
		case errors.Is(err, repository.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "concurrent edit, please retry"})
		default:
			h.logger.Error("AssignModerator: failed",
				zap.Int("project_id", projectID),
				zap.Int("moderator_id", req.ModeratorID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign moderator"})
		}
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// ArchiveProject 归档项目；归档后项目级状态为 Complete。
func (h *ProjectHandler) ArchiveProject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	if err := h.repo.SetArchived(c.Request.Context(), id, true); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		h.logger.Error("ArchiveProject: failed", zap.Int("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to archive project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
