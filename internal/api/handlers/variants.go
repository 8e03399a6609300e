package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/service"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

// CreateVariantRequest represents a new color/size combination
type CreateVariantRequest struct {
	Color         string           `json:"color" binding:"required"`
	Size          string           `json:"size" binding:"required"`
	Inventory     int              `json:"inventory"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
}

// UpdateVariantRequest represents a partial variant update
type UpdateVariantRequest struct {
	VariantID         uuid.UUID        `json:"variant_id" binding:"required"`
	InventoryQuantity *int             `json:"inventory_quantity,omitempty"`
	PriceOverride     *decimal.Decimal `json:"price_override,omitempty"`
}

// CreateVariantOptionRequest represents a new color or size option
type CreateVariantOptionRequest struct {
	OptionType string `json:"option_type" binding:"required"`
	Name       string `json:"name" binding:"required"`
}

// HandleListVariants handles GET /v1/products/:id/variants
func HandleListVariants(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		variants := service.NewVariantService(repos, client, cfg.Shopify.LocationID, logger)
		out, err := variants.List(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to list variants")
			return
		}

		data := make([]gin.H, len(out))
		for i, v := range out {
			data[i] = variantResponse(v)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
	}
}

// HandleCreateVariant handles POST /v1/products/:id/variants
func HandleCreateVariant(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		var req CreateVariantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		variants := service.NewVariantService(repos, client, cfg.Shopify.LocationID, logger)
		variant, err := variants.Create(c.Request.Context(), id, service.CreateVariantInput{
			Color:         req.Color,
			Size:          req.Size,
			Inventory:     req.Inventory,
			PriceOverride: req.PriceOverride,
		})
		if err != nil {
			if _, ok := err.(*errors.ErrConflict); ok {
				c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
				return
			}
			respondRepoError(c, logger, err, "Failed to create variant")
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": variantResponse(variant)})
	}
}

// HandleUpdateVariant handles PATCH /v1/products/:id/variants
func HandleUpdateVariant(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		var req UpdateVariantRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "variant_id is required"})
			return
		}

		variants := service.NewVariantService(repos, client, cfg.Shopify.LocationID, logger)
		variant, err := variants.Update(c.Request.Context(), id, req.VariantID, service.UpdateVariantInput{
			InventoryQuantity: req.InventoryQuantity,
			PriceOverride:     req.PriceOverride,
		})
		if err != nil {
			respondRepoError(c, logger, err, "Failed to update variant")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": variantResponse(variant)})
	}
}

// HandleListVariantOptions handles GET /v1/variant-options
func HandleListVariantOptions(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter repository.VariantOptionFilter
		if t := c.Query("type"); t != "" {
			optionType := domain.VariantOptionType(t)
			if !optionType.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "type must be color or size"})
				return
			}
			filter.OptionType = &optionType
		}

		options, err := repos.VariantOption.List(c.Request.Context(), filter)
		if err != nil {
			logger.Error("Failed to list variant options", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		out := make([]gin.H, len(options))
		for i, o := range options {
			out[i] = gin.H{
				"id":            o.ID.String(),
				"option_type":   o.OptionType,
				"name":          o.Name,
				"display_order": o.DisplayOrder,
				"created_at":    o.CreatedAt,
			}
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
	}
}

// HandleCreateVariantOption handles POST /v1/variant-options
func HandleCreateVariantOption(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVariantOptionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "option_type and name are required"})
			return
		}

		optionType := domain.VariantOptionType(req.OptionType)
		if !optionType.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "option_type must be color or size"})
			return
		}

		option := &domain.VariantOption{
			OptionType: optionType,
			Name:       strings.TrimSpace(req.Name),
		}
		if option.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "name must not be blank"})
			return
		}

		if err := repos.VariantOption.Create(c.Request.Context(), option); err != nil {
			if _, ok := err.(*errors.ErrConflict); ok {
				c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
				return
			}
			logger.Error("Failed to create variant option", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{
			"id":            option.ID.String(),
			"option_type":   option.OptionType,
			"name":          option.Name,
			"display_order": option.DisplayOrder,
			"created_at":    option.CreatedAt,
		}})
	}
}

// HandleDeleteVariantOption handles DELETE /v1/variant-options/:id
func HandleDeleteVariantOption(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid option ID"})
			return
		}

		if err := repos.VariantOption.Delete(c.Request.Context(), id); err != nil {
			respondRepoError(c, logger, err, "Failed to delete variant option")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func variantResponse(v *domain.ProductVariant) gin.H {
	return gin.H{
		"id":                        v.ID.String(),
		"product_id":                v.ProductID.String(),
		"shopify_variant_id":        v.ShopifyVariantID,
		"shopify_inventory_item_id": v.ShopifyInventoryItemID,
		"color":                     v.Color,
		"size":                      v.Size,
		"inventory_quantity":        v.InventoryQuantity,
		"price_override":            v.PriceOverride,
		"created_at":                v.CreatedAt,
		"updated_at":                v.UpdatedAt,
	}
}
