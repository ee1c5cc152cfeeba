package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"resops/internal/model"
	"resops/internal/repository"
)

type VendorHandler struct {
	repo   *repository.VendorRepository
	logger *zap.Logger
}

func NewVendorHandler(repo *repository.VendorRepository, logger *zap.Logger) *VendorHandler {
	return &VendorHandler{repo: repo, logger: logger}
}

func (h *VendorHandler) ListVendors(c *gin.Context) {
	vendors, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("ListVendors: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vendors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendors": vendors})
}

func (h *VendorHandler) GetVendor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	vendor, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
			return
		}
		h.logger.Error("GetVendor: failed", zap.Int("vendor_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vendor"})
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (h *VendorHandler) CreateVendor(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		Service string `json:"service"`
		Contact string `json:"contact"`
		Rating  int    `json:"rating"`
		Notes   string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 0 and 5"})
		return
	}

	v := &model.Vendor{
		Name:    req.Name,
		Service: req.Service,
		Contact: req.Contact,
		Rating:  req.Rating,
		Notes:   req.Notes,
	}
	id, err := h.repo.Insert(c.Request.Context(), v)
	if err != nil {
		h.logger.Error("CreateVendor: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create vendor"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *VendorHandler) UpdateVendor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	vendor, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
			return
		}
		h.logger.Error("UpdateVendor: fetch failed", zap.Int("vendor_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vendor"})
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Service *string `json:"service"`
		Contact *string `json:"contact"`
		Rating  *int    `json:"rating"`
		Notes   *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		vendor.Name = *req.Name
	}
	if req.Service != nil {
		vendor.Service = *req.Service
	}
	if req.Contact != nil {
		vendor.Contact = *req.Contact
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 0 and 5"})
			return
		}
		vendor.Rating = *req.Rating
	}
	if req.Notes != nil {
		vendor.Notes = *req.Notes
	}

	if err := h.repo.Update(c.Request.Context(), vendor); err != nil {
		h.logger.Error("UpdateVendor: failed", zap.Int("vendor_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update vendor"})
		return
	}
	c.JSON(http.StatusOK, vendor)
}

func (h *VendorHandler) DeleteVendor(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vendor id"})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vendor not found"})
			return
		}
		h.logger.Error("DeleteVendor: failed", zap.Int("vendor_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete vendor"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
