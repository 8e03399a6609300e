package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

const (
	// syncBatchSize bounds each inventory_levels query; Shopify caps the number
	// of item IDs accepted per call
	syncBatchSize = 50
	// syncBatchPause between batch dispatches, never after the last batch
	syncBatchPause = 1000 * time.Millisecond
)

// InventoryAPI is the slice of the Shopify client the inventory service needs
type InventoryAPI interface {
	GetInventoryLevels(ctx context.Context, locationID int64, inventoryItemIDs []int64) (map[int64]int, error)
	SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error
}

type inventoryService struct {
	repos      *repository.Repositories
	shopify    InventoryAPI
	locationID int64
	logger     *zap.Logger
	pause      func(time.Duration)
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repos *repository.Repositories, api InventoryAPI, locationID int64, logger *zap.Logger) *inventoryService {
	return &inventoryService{
		repos:      repos,
		shopify:    api,
		locationID: locationID,
		logger:     logger,
		pause:      time.Sleep,
	}
}

// SyncResult aggregates a reconciliation run
type SyncResult struct {
	Synced       int      `json:"synced"`
	Errors       int      `json:"errors"`
	ErrorDetails []string `json:"error_details,omitempty"`
	Message      string   `json:"message"`
}

// SyncAll refreshes the inventory cache for every active product with a Shopify
// inventory item reference. Batches run strictly sequentially; a failed batch
// counts all of its products as errored and the run continues with the next
// batch. Item IDs absent from Shopify's response are cached as quantity 0.
func (s *inventoryService) SyncAll(ctx context.Context) (*SyncResult, error) {
	products, err := s.repos.Product.ListSyncable(ctx)
	if err != nil {
		return nil, err
	}

	if len(products) == 0 {
		return &SyncResult{Message: "No products to sync"}, nil
	}

	result := &SyncResult{}

	for start := 0; start < len(products); start += syncBatchSize {
		if start > 0 {
			s.pause(syncBatchPause)
		}

		end := start + syncBatchSize
		if end > len(products) {
			end = len(products)
		}
		batch := products[start:end]
		batchNum := start/syncBatchSize + 1

		if err := s.syncBatch(ctx, batch); err != nil {
			result.Errors += len(batch)
			result.ErrorDetails = append(result.ErrorDetails, fmt.Sprintf("batch %d: %v", batchNum, err))
			s.logger.Warn("Inventory sync batch failed", zap.Int("batch", batchNum), zap.Error(err))
			continue
		}

		result.Synced += len(batch)
	}

	result.Message = fmt.Sprintf("Synced %d products", result.Synced)
	if result.Errors > 0 {
		result.Message += fmt.Sprintf(", %d errors", result.Errors)
	}

	s.logger.Info("Inventory sync finished",
		zap.Int("synced", result.Synced),
		zap.Int("errors", result.Errors),
	)

	return result, nil
}

func (s *inventoryService) syncBatch(ctx context.Context, batch []*domain.Product) error {
	itemIDs := make([]int64, 0, len(batch))
	for _, p := range batch {
		itemIDs = append(itemIDs, *p.ShopifyInventoryItemID)
	}

	levels, err := s.shopify.GetInventoryLevels(ctx, s.locationID, itemIDs)
	if err != nil {
		return err
	}

	now := time.Now()
	records := make([]*domain.InventoryRecord, len(batch))
	for i, p := range batch {
		records[i] = &domain.InventoryRecord{
			ProductID:              p.ID,
			VariantID:              nil,
			ShopifyInventoryItemID: *p.ShopifyInventoryItemID,
			// missing from the response means Shopify reports nothing in
			// stock, not "unknown"
			Available:    levels[*p.ShopifyInventoryItemID],
			LastSyncedAt: now,
		}
	}

	return s.repos.Inventory.UpsertBatch(ctx, records)
}

// BulkUpdateItem is one quantity update in a bulk request
type BulkUpdateItem struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// BulkUpdateResult aggregates a bulk update
type BulkUpdateResult struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message"`
}

// BulkUpdate applies every item independently and concurrently, then reports
// per-item successes and failures. The whole request is rejected up front when
// any item is malformed; after that one item's failure never blocks another.
func (s *inventoryService) BulkUpdate(ctx context.Context, items []BulkUpdateItem) (*BulkUpdateResult, error) {
	if len(items) == 0 {
		return nil, &errors.ErrValidation{Message: "updates array is empty"}
	}
	for _, item := range items {
		if item.ProductID == uuid.Nil {
			return nil, &errors.ErrValidation{Message: "product_id is required for every update"}
		}
		if item.Quantity < 0 {
			return nil, &errors.ErrValidation{Message: "quantity must not be negative"}
		}
	}

	outcomes := make([]error, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item BulkUpdateItem) {
			defer wg.Done()
			outcomes[i] = s.applyUpdate(ctx, item.ProductID, item.VariantID, item.Quantity)
		}(i, item)
	}
	wg.Wait()

	result := &BulkUpdateResult{}
	for i, err := range outcomes {
		if err == nil {
			result.Updated++
			continue
		}
		result.Failed++
		if _, isNotFound := err.(*errors.ErrNotFound); isNotFound {
			result.Errors = append(result.Errors, fmt.Sprintf("inventory record not found for product %s", items[i].ProductID))
		} else {
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.Message = fmt.Sprintf("Updated %d products", result.Updated)
	if result.Failed > 0 {
		result.Message += fmt.Sprintf(", %d failed", result.Failed)
	}

	return result, nil
}

// UpdateOne pushes one quantity to Shopify and overwrites the cache row
func (s *inventoryService) UpdateOne(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	if quantity < 0 {
		return &errors.ErrValidation{Message: "quantity must not be negative"}
	}
	return s.applyUpdate(ctx, productID, variantID, quantity)
}

func (s *inventoryService) applyUpdate(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, quantity int) error {
	record, err := s.repos.Inventory.GetByProductVariant(ctx, productID, variantID)
	if err != nil {
		return err
	}

	if err := s.shopify.SetInventoryLevel(ctx, record.ShopifyInventoryItemID, s.locationID, quantity); err != nil {
		return fmt.Errorf("failed to set inventory level for product %s: %w", productID, err)
	}

	return s.repos.Inventory.UpdateQuantity(ctx, productID, variantID, quantity, time.Now())
}
