package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/repository"
)

// CreateBrandRequest represents the payload for registering a brand
type CreateBrandRequest struct {
	Name string `json:"name" binding:"required"`
}

// HandleListBrands handles GET /v1/brands
func HandleListBrands(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		brands, err := repos.Brand.List(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list brands", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		out := make([]gin.H, len(brands))
		for i, b := range brands {
			out[i] = gin.H{"id": b.ID.String(), "name": b.Name, "created_at": b.CreatedAt}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
	}
}

// HandleCreateBrand handles POST /v1/brands
func HandleCreateBrand(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBrandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name is required"})
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name must not be blank"})
			return
		}

		brand, err := repos.Brand.Upsert(c.Request.Context(), name)
		if err != nil {
			logger.Error("Failed to create brand", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{
			"id":         brand.ID.String(),
			"name":       brand.Name,
			"created_at": brand.CreatedAt,
		}})
	}
}
