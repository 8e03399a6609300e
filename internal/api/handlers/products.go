package handlers

import (
	"io"
	"mime/multipart"
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
	"github.com/arthurando/fafa-shopify-v2/internal/storage"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	DescriptionCustom *string `json:"description_custom,omitempty"`
	Status            *string `json:"status,omitempty"`
}

// HandleListProducts handles GET /v1/products
func HandleListProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := repos.Product.List(c.Request.Context())
		if err != nil {
			logger.Error("Failed to list products", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}

		out := make([]gin.H, len(products))
		for i, p := range products {
			out[i] = productResponse(p)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
	}
}

// HandleCreateProduct handles POST /v1/products (multipart form)
func HandleCreateProduct(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "multipart form required"})
			return
		}

		setID, err := uuid.Parse(c.PostForm("set_id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "set_id is required"})
			return
		}

		input := service.CreateProductInput{
			SetID:             setID,
			DescriptionCustom: c.PostForm("description_custom"),
			Status:            domain.ProductStatus(c.DefaultPostForm("status", string(domain.ProductStatusDraft))),
		}

		for _, fh := range form.File["photos"] {
			upload, err := readUpload(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read photo: " + err.Error()})
				return
			}
			input.Photos = append(input.Photos, upload)
		}

		if videos := form.File["video"]; len(videos) > 0 {
			upload, err := readUpload(videos[0])
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read video: " + err.Error()})
				return
			}
			input.Video = &upload
		}

		products := service.NewProductService(cfg, repos, client, media, logger)
		product, err := products.Create(c.Request.Context(), input)
		if err != nil {
			switch err.(type) {
			case *errors.ErrValidation:
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			case *errors.ErrNotFound:
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
			case *errors.ErrAllocation:
				logger.Error("Product code allocation failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			default:
				logger.Error("Failed to create product", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": productResponse(product)})
	}
}

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		products := service.NewProductService(cfg, repos, client, nil, logger)
		product, images, err := products.GetWithImages(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to get product")
			return
		}

		resp := productResponse(product)
		resp["shopify_images"] = images
		c.JSON(http.StatusOK, gin.H{"success": true, "data": resp})
	}
}

// HandleUpdateProduct handles PATCH /v1/products/:id
func HandleUpdateProduct(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		var req UpdateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		input := service.UpdateProductInput{DescriptionCustom: req.DescriptionCustom}
		if req.Status != nil {
			status := domain.ProductStatus(*req.Status)
			input.Status = &status
		}

		products := service.NewProductService(cfg, repos, client, nil, logger)
		product, err := products.Update(c.Request.Context(), id, input)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to update product")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": productResponse(product)})
	}
}

// HandleArchiveProduct handles DELETE /v1/products/:id
func HandleArchiveProduct(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		products := service.NewProductService(cfg, repos, client, nil, logger)
		product, err := products.Archive(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to archive product")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": productResponse(product)})
	}
}

// HandleDeleteProductImage handles DELETE /v1/products/:id/images/:imageId
func HandleDeleteProductImage(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		imageID, err := strconv.ParseInt(c.Param("imageId"), 10, 64)
		if err != nil || imageID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid image ID"})
			return
		}

		products := service.NewProductService(cfg, repos, client, nil, logger)
		if err := products.DeleteImage(c.Request.Context(), id, imageID); err != nil {
			respondRepoError(c, logger, err, "Failed to delete product image")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// HandleUploadProductVideo handles PUT /v1/products/:id/video
func HandleUploadProductVideo(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		fh, err := c.FormFile("video")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "video file is required"})
			return
		}

		upload, err := readUpload(fh)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read video: " + err.Error()})
			return
		}

		products := service.NewProductService(cfg, repos, client, media, logger)
		if err := products.UploadVideo(c.Request.Context(), id, upload); err != nil {
			respondRepoError(c, logger, err, "Failed to upload product video")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// HandleDeleteProductVideo handles DELETE /v1/products/:id/video
func HandleDeleteProductVideo(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		products := service.NewProductService(cfg, repos, client, media, logger)
		if err := products.DeleteVideo(c.Request.Context(), id); err != nil {
			respondRepoError(c, logger, err, "Failed to delete product video")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// HandleListHangtags handles GET /v1/products/:id/hangtags
func HandleListHangtags(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		products := service.NewProductService(cfg, repos, client, media, logger)
		keys, code, err := products.ListHangtags(c.Request.Context(), id)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to list hangtags")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"hangtag_keys": keys,
			"product_code": code,
		}})
	}
}

// HandleAddHangtags handles POST /v1/products/:id/hangtags (multipart form)
func HandleAddHangtags(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "multipart form required"})
			return
		}

		var photos []service.Upload
		for _, fh := range form.File["photos"] {
			upload, err := readUpload(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read photo: " + err.Error()})
				return
			}
			photos = append(photos, upload)
		}

		products := service.NewProductService(cfg, repos, client, media, logger)
		keys, err := products.AddHangtags(c.Request.Context(), id, photos)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to upload hangtags")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"hangtag_keys": keys}})
	}
}

// HandleDeleteHangtag handles DELETE /v1/products/:id/hangtags?key=...
func HandleDeleteHangtag(cfg *config.Config, repos *repository.Repositories, client *shopify.Client, media *storage.R2Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid product ID"})
			return
		}

		key := c.Query("key")
		if key == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "key query parameter is required"})
			return
		}

		products := service.NewProductService(cfg, repos, client, media, logger)
		keys, err := products.DeleteHangtag(c.Request.Context(), id, key)
		if err != nil {
			respondRepoError(c, logger, err, "Failed to delete hangtag")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"hangtag_keys": keys}})
	}
}

func readUpload(fh *multipart.FileHeader) (service.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return service.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return service.Upload{}, err
	}

	return service.Upload{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

func productResponse(p *domain.Product) gin.H {
	return gin.H{
		"id":                        p.ID.String(),
		"set_id":                    p.SetID.String(),
		"product_code":              p.ProductCode,
		"shopify_product_id":        p.ShopifyProductID,
		"shopify_inventory_item_id": p.ShopifyInventoryItemID,
		"description_custom":        p.DescriptionCustom,
		"has_video":                 p.HasVideo,
		"hangtag_keys":              p.HangtagKeys,
		"status":                    p.Status,
		"is_archived":               p.IsArchived,
		"set_name":                  p.SetName,
		"set_prefix":                p.SetPrefix,
		"set_price":                 p.SetPrice,
		"created_at":                p.CreatedAt,
		"updated_at":                p.UpdatedAt,
	}
}
