package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/internal/storage"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

const (
	maxPhotoSize = 10 * 1024 * 1024
	maxVideoSize = 100 * 1024 * 1024

	// product titles carry the seasonal campaign name around the code
	productTitleFormat = "馬年賀年花【%s】"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/quicktime": true,
	"video/x-msvideo": true,
}

// Upload is an in-memory media file received from a multipart form
type Upload struct {
	Data        []byte
	ContentType string
}

// CreateProductInput describes a new listing
type CreateProductInput struct {
	SetID             uuid.UUID
	DescriptionCustom string
	Status            domain.ProductStatus
	Photos            []Upload
	Video             *Upload
}

// ProductAPI is the slice of the Shopify client the product service needs
type ProductAPI interface {
	CreateProduct(ctx context.Context, params shopify.CreateProductParams) (*shopify.Product, error)
	GetProduct(ctx context.Context, productID int64) (*shopify.Product, error)
	UpdateProduct(ctx context.Context, params shopify.UpdateProductParams) error
	ArchiveProduct(ctx context.Context, productID int64) error
	UploadImage(ctx context.Context, productID int64, base64Image, filename string) (string, error)
	DeleteImage(ctx context.Context, productID, imageID int64) error
	SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error
	SetInventoryItemCost(ctx context.Context, inventoryItemID int64, cost decimal.Decimal) error
	AddProductToCollectionByTitle(ctx context.Context, productID int64, title string) error
	UpdateProductMetafield(ctx context.Context, productID int64, namespace, key, value string) error
}

// MediaStore is the slice of the R2 store the product service needs
type MediaStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error
	UploadVideo(ctx context.Context, productCode string, body io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

type productService struct {
	cfg      *config.Config
	repos    *repository.Repositories
	client   ProductAPI
	media    MediaStore
	hangtags MediaStore
	codes    *codeService
	logger   *zap.Logger
}

// NewProductService creates a new product service. media may be nil when R2 is
// not configured; video and hangtag operations then fail with a validation
// error.
func NewProductService(cfg *config.Config, repos *repository.Repositories, client ProductAPI, media *storage.R2Store, logger *zap.Logger) *productService {
	s := &productService{
		cfg:    cfg,
		repos:  repos,
		client: client,
		codes:  NewCodeService(repos, logger),
		logger: logger,
	}
	if media != nil {
		s.media = media
		s.hangtags = media.WithBucket(cfg.R2.HangtagBucket)
	}
	return s
}

// Create mints the next product code for the set, mirrors the listing into
// Shopify (description, pricing, metafields, photos, initial stock of 1) and
// persists the local row. A failed code allocation aborts the whole flow.
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	set, err := s.repos.ProductSet.GetByID(ctx, input.SetID)
	if err != nil {
		return nil, err
	}

	code, err := s.codes.AllocateNextCode(ctx, set.ID, set.Prefix)
	if err != nil {
		return nil, err
	}

	settings, err := s.repos.Settings.GetMap(ctx)
	if err != nil {
		// settings only enrich the listing; creation proceeds without them
		s.logger.Warn("Failed to load settings for product create", zap.Error(err))
		settings = map[string]string{}
	}

	bodyHTML := EscapeHTML(MergeDescription(input.DescriptionCustom, settings[domain.SettingUniversalDescription]))
	if settings[domain.SettingDescriptionPhotoKey] != "" && s.cfg.AppBaseURL != "" {
		photoURL := s.cfg.AppBaseURL + "/v1/settings/description-photo"
		bodyHTML += fmt.Sprintf(`<img src="%s" alt="" style="max-width:100%%;height:auto;display:block;margin:16px 0;">`, photoURL)
	}

	status := input.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}

	shopifyProduct, err := s.client.CreateProduct(ctx, shopify.CreateProductParams{
		Title:         fmt.Sprintf(productTitleFormat, code),
		Handle:        code,
		BodyHTML:      bodyHTML,
		Price:         set.Price,
		OriginalPrice: set.OriginalPrice,
		ProductType:   settings[domain.SettingProductType],
		Vendor:        settings[domain.SettingVendor],
		Status:        string(status),
		Metafields:    buildMetafields(settings, code),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Shopify product: %w", err)
	}

	var inventoryItemID *int64
	if len(shopifyProduct.Variants) > 0 && shopifyProduct.Variants[0].InventoryItemID != 0 {
		id := shopifyProduct.Variants[0].InventoryItemID
		inventoryItemID = &id
	}

	if err := s.runPostCreateTasks(ctx, shopifyProduct.ID, inventoryItemID, set, code, input, settings); err != nil {
		return nil, err
	}

	product := &domain.Product{
		SetID:             set.ID,
		ProductCode:       code,
		ShopifyProductID:  &shopifyProduct.ID,
		DescriptionCustom: input.DescriptionCustom,
		HasVideo:          input.Video != nil,
		Status:            status,
	}
	product.ShopifyInventoryItemID = inventoryItemID

	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// runPostCreateTasks fans out the independent follow-ups of a Shopify create:
// initial stock level, item cost, photo uploads, collection link, R2 video.
// Collection linking is best-effort; everything else fails the creation.
func (s *productService) runPostCreateTasks(
	ctx context.Context,
	shopifyProductID int64,
	inventoryItemID *int64,
	set *domain.ProductSet,
	code string,
	input CreateProductInput,
	settings map[string]string,
) error {
	g, gctx := errgroup.WithContext(ctx)

	if inventoryItemID != nil && s.cfg.Shopify.LocationID != 0 {
		itemID := *inventoryItemID
		g.Go(func() error {
			return s.client.SetInventoryLevel(gctx, itemID, s.cfg.Shopify.LocationID, 1)
		})
	}

	if inventoryItemID != nil && set.Cost != nil {
		itemID := *inventoryItemID
		cost := *set.Cost
		g.Go(func() error {
			return s.client.SetInventoryItemCost(gctx, itemID, cost)
		})
	}

	for i, photo := range input.Photos {
		filename := fmt.Sprintf("%s_%d.jpg", code, i+1)
		encoded := base64.StdEncoding.EncodeToString(photo.Data)
		g.Go(func() error {
			_, err := s.client.UploadImage(gctx, shopifyProductID, encoded, filename)
			return err
		})
	}

	if title := settings[domain.SettingCollection]; title != "" {
		g.Go(func() error {
			if err := s.client.AddProductToCollectionByTitle(gctx, shopifyProductID, title); err != nil {
				s.logger.Warn("Failed to add product to collection",
					zap.String("collection", title),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	if input.Video != nil {
		if s.media == nil {
			return &errors.ErrValidation{Message: "video uploads are not configured"}
		}
		video := input.Video
		g.Go(func() error {
			_, err := s.media.UploadVideo(gctx, code, bytes.NewReader(video.Data))
			return err
		})
	}

	return g.Wait()
}

func validateCreateInput(input CreateProductInput) error {
	if input.SetID == uuid.Nil {
		return &errors.ErrValidation{Message: "set_id is required"}
	}
	if len(input.Photos) == 0 {
		return &errors.ErrValidation{Message: "at least one photo is required"}
	}
	if input.Status != "" && !input.Status.IsValid() {
		return &errors.ErrValidation{Message: "invalid status: " + string(input.Status)}
	}
	for _, photo := range input.Photos {
		if !allowedImageTypes[photo.ContentType] {
			return &errors.ErrValidation{Message: "invalid image type: " + photo.ContentType}
		}
		if len(photo.Data) > maxPhotoSize {
			return &errors.ErrValidation{Message: fmt.Sprintf("photo too large: %.2fMB, max %dMB", float64(len(photo.Data))/1024/1024, maxPhotoSize/1024/1024)}
		}
	}
	if input.Video != nil {
		if !allowedVideoTypes[input.Video.ContentType] {
			return &errors.ErrValidation{Message: "invalid video type: " + input.Video.ContentType}
		}
		if len(input.Video.Data) > maxVideoSize {
			return &errors.ErrValidation{Message: fmt.Sprintf("video too large: %.2fMB, max %dMB", float64(len(input.Video.Data))/1024/1024, maxVideoSize/1024/1024)}
		}
	}
	return nil
}

func buildMetafields(settings map[string]string, code string) []shopify.Metafield {
	var metafields []shopify.Metafield
	if v := settings[domain.SettingMetafieldBrands]; v != "" {
		metafields = append(metafields, shopify.Metafield{Namespace: "custom", Key: "_brands", Value: v, Type: "single_line_text_field"})
	}
	if v := settings[domain.SettingMetafieldArrival]; v != "" {
		metafields = append(metafields, shopify.Metafield{Namespace: "custom", Key: "estimate_arrival", Value: v, Type: "single_line_text_field"})
	}
	if v := settings[domain.SettingMetafieldCutoff]; v != "" {
		metafields = append(metafields, shopify.Metafield{Namespace: "custom", Key: "_cutoff", Value: v, Type: "date"})
	}
	metafields = append(metafields, shopify.Metafield{Namespace: "custom", Key: "stt_code", Value: code, Type: "single_line_text_field"})
	return metafields
}

// UpdateProductInput carries the patchable product fields
type UpdateProductInput struct {
	DescriptionCustom *string
	Status            *domain.ProductStatus
}

// Update patches description and status
func (s *productService) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, &errors.ErrValidation{Message: "invalid status: " + string(*input.Status)}
	}

	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.DescriptionCustom != nil {
		product.DescriptionCustom = *input.DescriptionCustom
	}
	if input.Status != nil {
		product.Status = *input.Status
	}

	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// GetWithImages returns a product and its Shopify images. Image fetch failures
// are tolerated so the admin UI still renders the local record.
func (s *productService) GetWithImages(ctx context.Context, id uuid.UUID) (*domain.Product, []shopify.Image, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	var images []shopify.Image
	if product.ShopifyProductID != nil {
		shopifyProduct, err := s.client.GetProduct(ctx, *product.ShopifyProductID)
		if err != nil {
			s.logger.Warn("Failed to fetch Shopify images", zap.String("product_id", id.String()), zap.Error(err))
		} else {
			images = shopifyProduct.Images
		}
	}

	return product, images, nil
}

// Archive archives the product on Shopify, then soft-deletes it locally
func (s *productService) Archive(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if product.ShopifyProductID != nil {
		if err := s.client.ArchiveProduct(ctx, *product.ShopifyProductID); err != nil {
			return nil, fmt.Errorf("failed to archive Shopify product: %w", err)
		}
	}

	if err := s.repos.Product.Archive(ctx, id); err != nil {
		return nil, err
	}

	product.Status = domain.ProductStatusArchived
	product.IsArchived = true
	return product, nil
}

// DeleteImage removes one Shopify image from the product
func (s *productService) DeleteImage(ctx context.Context, id uuid.UUID, imageID int64) error {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product.ShopifyProductID == nil {
		return &errors.ErrValidation{Message: "product has no Shopify listing"}
	}
	return s.client.DeleteImage(ctx, *product.ShopifyProductID, imageID)
}

// UploadVideo stores (or replaces) the product's video in R2
func (s *productService) UploadVideo(ctx context.Context, id uuid.UUID, video Upload) error {
	if s.media == nil {
		return &errors.ErrValidation{Message: "video uploads are not configured"}
	}
	if !allowedVideoTypes[video.ContentType] {
		return &errors.ErrValidation{Message: "invalid video type: " + video.ContentType}
	}
	if len(video.Data) > maxVideoSize {
		return &errors.ErrValidation{Message: fmt.Sprintf("video too large: %.2fMB, max %dMB", float64(len(video.Data))/1024/1024, maxVideoSize/1024/1024)}
	}

	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.HasVideo {
		if err := s.media.Delete(ctx, storage.VideoKey(product.ProductCode)); err != nil {
			s.logger.Warn("Failed to delete old video", zap.String("product_code", product.ProductCode), zap.Error(err))
		}
	}

	if _, err := s.media.UploadVideo(ctx, product.ProductCode, bytes.NewReader(video.Data)); err != nil {
		return err
	}

	return s.repos.Product.SetHasVideo(ctx, id, true)
}

// DeleteVideo removes the product's video from R2
func (s *productService) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	if s.media == nil {
		return &errors.ErrValidation{Message: "video uploads are not configured"}
	}

	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !product.HasVideo {
		return &errors.ErrValidation{Message: "product has no video"}
	}

	if err := s.media.Delete(ctx, storage.VideoKey(product.ProductCode)); err != nil {
		return err
	}

	return s.repos.Product.SetHasVideo(ctx, id, false)
}

// ListHangtags returns the product's hangtag photo keys
func (s *productService) ListHangtags(ctx context.Context, id uuid.UUID) ([]string, string, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	keys := product.HangtagKeys
	if keys == nil {
		keys = []string{}
	}
	return keys, product.ProductCode, nil
}

// AddHangtags uploads hangtag photos and appends their keys to the product.
// Keys continue the existing numbering, so deleting a photo never renumbers
// the rest.
func (s *productService) AddHangtags(ctx context.Context, id uuid.UUID, photos []Upload) ([]string, error) {
	if s.hangtags == nil {
		return nil, &errors.ErrValidation{Message: "hangtag uploads are not configured"}
	}
	if len(photos) == 0 {
		return nil, &errors.ErrValidation{Message: "at least one photo is required"}
	}
	for _, photo := range photos {
		if !allowedImageTypes[photo.ContentType] {
			return nil, &errors.ErrValidation{Message: "invalid image type: " + photo.ContentType}
		}
		if len(photo.Data) > maxPhotoSize {
			return nil, &errors.ErrValidation{Message: fmt.Sprintf("photo too large: %.2fMB, max %dMB", float64(len(photo.Data))/1024/1024, maxPhotoSize/1024/1024)}
		}
	}

	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	start := len(product.HangtagKeys)
	newKeys := make([]string, len(photos))

	g, gctx := errgroup.WithContext(ctx)
	for i, photo := range photos {
		photo := photo
		key := storage.HangtagKey(product.ProductCode, start+i+1)
		newKeys[i] = key
		g.Go(func() error {
			return s.hangtags.Upload(gctx, key, bytes.NewReader(photo.Data), photo.ContentType)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	keys := append(product.HangtagKeys, newKeys...)
	if err := s.repos.Product.UpdateHangtagKeys(ctx, id, keys); err != nil {
		return nil, err
	}

	return keys, nil
}

// DeleteHangtag removes one hangtag photo by key
func (s *productService) DeleteHangtag(ctx context.Context, id uuid.UUID, key string) ([]string, error) {
	if s.hangtags == nil {
		return nil, &errors.ErrValidation{Message: "hangtag uploads are not configured"}
	}

	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(product.HangtagKeys))
	found := false
	for _, k := range product.HangtagKeys {
		if k == key {
			found = true
			continue
		}
		keys = append(keys, k)
	}
	if !found {
		return nil, &errors.ErrNotFound{Resource: "hangtag", ID: key}
	}

	if err := s.hangtags.Delete(ctx, key); err != nil {
		return nil, err
	}

	if err := s.repos.Product.UpdateHangtagKeys(ctx, id, keys); err != nil {
		return nil, err
	}

	return keys, nil
}

// SetSyncResult aggregates a per-set Shopify re-sync
type SetSyncResult struct {
	Synced int      `json:"synced"`
	Total  int      `json:"total"`
	Errors []string `json:"errors,omitempty"`
}

// SyncSet re-pushes title, handle and pricing for every active product of a
// set. When the prefix changed, product codes are rewritten with the new
// prefix and the stt_code metafield follows. Per-product failures are
// collected and the rest of the set still syncs.
func (s *productService) SyncSet(ctx context.Context, setID uuid.UUID, oldPrefix, newPrefix string) (*SetSyncResult, error) {
	set, err := s.repos.ProductSet.GetByID(ctx, setID)
	if err != nil {
		return nil, err
	}

	products, err := s.repos.Product.ListBySetID(ctx, setID)
	if err != nil {
		return nil, err
	}

	result := &SetSyncResult{Total: len(products)}
	if len(products) == 0 {
		return result, nil
	}

	prefixChanged := oldPrefix != "" && newPrefix != "" && oldPrefix != newPrefix

	for _, product := range products {
		if err := s.syncProduct(ctx, set, product, oldPrefix, newPrefix, prefixChanged); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", product.ProductCode, err))
			continue
		}
		result.Synced++
	}

	return result, nil
}

func (s *productService) syncProduct(ctx context.Context, set *domain.ProductSet, product *domain.Product, oldPrefix, newPrefix string, prefixChanged bool) error {
	code := product.ProductCode

	if prefixChanged && strings.HasPrefix(code, oldPrefix) {
		code = newPrefix + strings.TrimPrefix(code, oldPrefix)
		if err := s.repos.Product.UpdateCode(ctx, product.ID, code); err != nil {
			return err
		}
	}

	if product.ShopifyProductID == nil {
		return nil
	}

	title := fmt.Sprintf(productTitleFormat, code)
	params := shopify.UpdateProductParams{
		ProductID: *product.ShopifyProductID,
		Title:     &title,
		Price:     &set.Price,
	}
	if prefixChanged {
		params.Handle = &code
	}
	if set.OriginalPrice != nil {
		params.CompareAtPrice = set.OriginalPrice
	} else {
		params.ClearCompareAt = true
	}

	if err := s.client.UpdateProduct(ctx, params); err != nil {
		return err
	}

	if prefixChanged {
		return s.client.UpdateProductMetafield(ctx, *product.ShopifyProductID, "custom", "stt_code", code)
	}

	return nil
}
