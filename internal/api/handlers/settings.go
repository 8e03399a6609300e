package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/storage"
)

const maxDescriptionPhotoSize = 10 << 20

var allowedSettingKeys = map[string]bool{
	domain.SettingUniversalDescription: true,
	domain.SettingProductType:          true,
	domain.SettingVendor:               true,
	domain.SettingCollection:           true,
	domain.SettingMetafieldBrands:      true,
	domain.SettingMetafieldArrival:     true,
	domain.SettingMetafieldCutoff:      true,
	domain.SettingDescriptionPhotoKey:  true,
	domain.SettingLowStockThreshold:    true,
}

// HandleListSettings handles GET /v1/settings
func HandleListSettings(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := repos.Settings.GetMap(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list settings", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
	}
}

// HandleUpdateSettings handles PATCH /v1/settings
func HandleUpdateSettings(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req map[string]string
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}
		if len(req) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no settings to update"})
			return
		}

		for key := range req {
			if !allowedSettingKeys[key] {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("unknown setting key: %s", key)})
				return
			}
		}

		for key, value := range req {
			if _, err := repos.Settings.Upsert(c.Request.Context(), key, value); err != nil {
				logger.Error("Failed to update setting", zap.String("key", key), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
				return
			}
		}

		settings, err := repos.Settings.GetMap(c.Request.Context())
		if err != nil {
			logger.Error("Failed to reload settings", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": settings})
	}
}

// HandleGetDescriptionPhoto handles GET /v1/settings/description-photo
func HandleGetDescriptionPhoto(repos *repository.Repositories, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if media == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "media storage is not configured"})
			return
		}

		setting, err := repos.Settings.Get(c.Request.Context(), domain.SettingDescriptionPhotoKey)
		if err != nil || setting.Value == "" {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "description photo not set"})
			return
		}

		body, contentType, err := media.Get(c.Request.Context(), setting.Value)
		if err != nil {
			logger.Error("Failed to fetch description photo", zap.String("key", setting.Value), zap.Error(err))
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "description photo not found"})
			return
		}
		defer body.Close()

		c.Header("Content-Type", contentType)
		c.Status(http.StatusOK)
		if _, err := io.Copy(c.Writer, body); err != nil {
			logger.Warn("Failed to stream description photo", zap.Error(err))
		}
	}
}

// HandleUploadDescriptionPhoto handles PUT /v1/settings/description-photo
func HandleUploadDescriptionPhoto(repos *repository.Repositories, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if media == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "media storage is not configured"})
			return
		}

		file, err := c.FormFile("photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "photo file is required"})
			return
		}
		if file.Size > maxDescriptionPhotoSize {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "photo exceeds 10MB limit"})
			return
		}

		contentType := file.Header.Get("Content-Type")
		ext, ok := map[string]string{
			"image/jpeg": "jpg",
			"image/jpg":  "jpg",
			"image/png":  "png",
			"image/webp": "webp",
		}[contentType]
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": fmt.Sprintf("unsupported photo type: %s", contentType)})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read photo"})
			return
		}
		defer src.Close()

		key := "description-photo." + ext
		if err := media.Upload(c.Request.Context(), key, src, contentType); err != nil {
			logger.Error("Failed to upload description photo", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to upload photo"})
			return
		}

		if _, err := repos.Settings.Upsert(c.Request.Context(), domain.SettingDescriptionPhotoKey, key); err != nil {
			logger.Error("Failed to record description photo key", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"key": key}})
	}
}
