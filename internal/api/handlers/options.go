package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
)

// HandleGetShopifyOptions handles GET /v1/shopify/options. It merges the
// store-side choices (product types, vendors, arrival choices) with the
// locally managed brand list and the configured collection title.
func HandleGetShopifyOptions(repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		options, err := client.GetProductOptions(c.Request.Context())
		if err != nil {
			logger.Error("Failed to fetch Shopify options", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		brands, err := repos.Brand.List(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list brands", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}
		brandNames := make([]string, len(brands))
		for i, b := range brands {
			brandNames[i] = b.Name
		}

		var collection string
		if setting, err := repos.Settings.Get(c.Request.Context(), domain.SettingCollection); err == nil {
			collection = setting.Value
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"product_types":   options.ProductTypes,
			"vendors":         options.Vendors,
			"arrival_choices": options.ArrivalChoices,
			"brands":          brandNames,
			"collection":      collection,
		}})
	}
}
