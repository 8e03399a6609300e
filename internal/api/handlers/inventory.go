package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/service"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

const defaultLowStockThreshold = 3

// UpdateInventoryRequest represents a single quantity update
type UpdateInventoryRequest struct {
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  *int       `json:"quantity" binding:"required"`
}

// BulkUpdateInventoryRequest represents a bulk quantity update
type BulkUpdateInventoryRequest struct {
	Updates []service.BulkUpdateItem `json:"updates" binding:"required"`
}

// HandleListInventory handles GET /v1/inventory
func HandleListInventory(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter repository.InventoryFilter

		if setIDStr := c.Query("set_id"); setIDStr != "" {
			setID, err := uuid.Parse(setIDStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid set_id"})
				return
			}
			filter.SetID = &setID
		}
		filter.Search = c.Query("search")

		threshold := defaultLowStockThreshold
		if setting, err := repos.Settings.Get(c.Request.Context(), domain.SettingLowStockThreshold); err == nil {
			if v, err := strconv.Atoi(setting.Value); err == nil {
				threshold = v
			}
		}
		if c.Query("low_stock") == "true" {
			filter.MaxAvailable = &threshold
		}

		records, err := repos.Inventory.List(c.Request.Context(), filter)
		if err != nil {
			logger.Error("Failed to list inventory", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		out := make([]gin.H, len(records))
		for i, rec := range records {
			out[i] = gin.H{
				"id":                        rec.ID.String(),
				"product_id":                rec.ProductID.String(),
				"variant_id":                rec.VariantID,
				"shopify_inventory_item_id": rec.ShopifyInventoryItemID,
				"available":                 rec.Available,
				"last_synced_at":            rec.LastSyncedAt,
				"product_code":              rec.ProductCode,
				"set_name":                  rec.SetName,
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":             true,
			"data":                out,
			"low_stock_threshold": threshold,
		})
	}
}

// HandleUpdateInventory handles PATCH /v1/inventory/:productId
func HandleUpdateInventory(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := uuid.Parse(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		var req UpdateInventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid quantity"})
			return
		}

		inventory := service.NewInventoryService(repos, client, cfg.Shopify.LocationID, logger)
		if err := inventory.UpdateOne(c.Request.Context(), productID, req.VariantID, *req.Quantity); err != nil {
			switch err.(type) {
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "inventory record not found"})
			default:
				logger.Error("Failed to update inventory", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// HandleBulkUpdateInventory handles POST /v1/inventory/bulk
func HandleBulkUpdateInventory(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkUpdateInventoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid updates array"})
			return
		}

		inventory := service.NewInventoryService(repos, client, cfg.Shopify.LocationID, logger)
		result, err := inventory.BulkUpdate(c.Request.Context(), req.Updates)
		if err != nil {
			if _, ok := err.(*errors.ErrValidation); ok {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
				return
			}
			logger.Error("Failed to bulk update inventory", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": result.Failed == 0,
			"updated": result.Updated,
			"failed":  result.Failed,
			"errors":  result.Errors,
			"message": result.Message,
		})
	}
}

// HandleSyncInventory handles POST /v1/inventory/sync
func HandleSyncInventory(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		inventory := service.NewInventoryService(repos, client, cfg.Shopify.LocationID, logger)
		result, err := inventory.SyncAll(c.Request.Context())
		if err != nil {
			logger.Error("Inventory sync failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":       result.Errors == 0,
			"synced":        result.Synced,
			"errors":        result.Errors,
			"error_details": result.ErrorDetails,
			"message":       result.Message,
		})
	}
}
