package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/api/handlers"
	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/internal/storage"
)

// NewRouter creates and configures the Gin router. media may be nil when R2 is
// not configured; video and description-photo endpoints then respond 503.
func NewRouter(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Fafa Shopify Admin API",
			"endpoints": []string{
				"GET /health",
				"GET /v1/sets",
				"POST /v1/sets",
				"GET /v1/sets/:id/next-code",
				"POST /v1/sets/:id/sync",
				"GET /v1/products",
				"POST /v1/products",
				"GET /v1/products/:id/variants",
				"GET /v1/variant-options",
				"GET /v1/shopify/options",
				"GET /v1/inventory",
				"POST /v1/inventory/sync",
				"POST /v1/inventory/bulk",
				"GET /v1/settings",
				"GET /v1/brands",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := router.Group("/v1")
	{
		sets := v1.Group("/sets")
		{
			sets.GET("", handlers.HandleListSets(repos, logger))
			sets.POST("", handlers.HandleCreateSet(repos, logger))
			sets.PATCH("/:id", handlers.HandleUpdateSet(repos, logger))
			sets.DELETE("/:id", handlers.HandleArchiveSet(repos, logger))
			sets.GET("/:id/margin", handlers.HandleSetMargin(repos, logger))
			sets.GET("/:id/next-code", handlers.HandleNextCode(repos, logger))
			sets.POST("/:id/sync", handlers.HandleSyncSet(cfg, repos, client, logger))
		}

		products := v1.Group("/products")
		{
			products.GET("", handlers.HandleListProducts(repos, logger))
			products.POST("", handlers.HandleCreateProduct(cfg, repos, client, media, logger))
			products.GET("/:id", handlers.HandleGetProduct(cfg, repos, client, logger))
			products.PATCH("/:id", handlers.HandleUpdateProduct(cfg, repos, client, logger))
			products.DELETE("/:id", handlers.HandleArchiveProduct(cfg, repos, client, logger))
			products.DELETE("/:id/images/:imageId", handlers.HandleDeleteProductImage(cfg, repos, client, logger))
			products.PUT("/:id/video", handlers.HandleUploadProductVideo(cfg, repos, client, media, logger))
			products.DELETE("/:id/video", handlers.HandleDeleteProductVideo(cfg, repos, client, media, logger))
			products.GET("/:id/variants", handlers.HandleListVariants(cfg, repos, client, logger))
			products.POST("/:id/variants", handlers.HandleCreateVariant(cfg, repos, client, logger))
			products.PATCH("/:id/variants", handlers.HandleUpdateVariant(cfg, repos, client, logger))
			products.GET("/:id/hangtags", handlers.HandleListHangtags(cfg, repos, client, media, logger))
			products.POST("/:id/hangtags", handlers.HandleAddHangtags(cfg, repos, client, media, logger))
			products.DELETE("/:id/hangtags", handlers.HandleDeleteHangtag(cfg, repos, client, media, logger))
		}

		variantOptions := v1.Group("/variant-options")
		{
			variantOptions.GET("", handlers.HandleListVariantOptions(repos, logger))
			variantOptions.POST("", handlers.HandleCreateVariantOption(repos, logger))
			variantOptions.DELETE("/:id", handlers.HandleDeleteVariantOption(repos, logger))
		}

		v1.GET("/shopify/options", handlers.HandleGetShopifyOptions(repos, client, logger))

		inventory := v1.Group("/inventory")
		{
			inventory.GET("", handlers.HandleListInventory(repos, logger))
			inventory.POST("/sync", handlers.HandleSyncInventory(cfg, repos, client, logger))
			inventory.POST("/bulk", handlers.HandleBulkUpdateInventory(cfg, repos, client, logger))
			inventory.PATCH("/:productId", handlers.HandleUpdateInventory(cfg, repos, client, logger))
		}

		settings := v1.Group("/settings")
		{
			settings.GET("", handlers.HandleListSettings(repos, logger))
			settings.PATCH("", handlers.HandleUpdateSettings(repos, logger))
			settings.GET("/description-photo", handlers.HandleGetDescriptionPhoto(repos, media, logger))
			settings.PUT("/description-photo", handlers.HandleUploadDescriptionPhoto(repos, media, logger))
		}

		brands := v1.Group("/brands")
		{
			brands.GET("", handlers.HandleListBrands(repos, logger))
			brands.POST("", handlers.HandleCreateBrand(repos, logger))
		}
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
