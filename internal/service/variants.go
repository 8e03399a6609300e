package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

// VariantAPI is the slice of the Shopify client the variant service needs
type VariantAPI interface {
	CreateVariant(ctx context.Context, params shopify.CreateVariantParams) (*shopify.Variant, error)
	GetVariant(ctx context.Context, variantID int64) (*shopify.Variant, error)
	SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error
}

type variantService struct {
	repos      *repository.Repositories
	shopify    VariantAPI
	locationID int64
	logger     *zap.Logger
}

// NewVariantService creates a new variant service
func NewVariantService(repos *repository.Repositories, api VariantAPI, locationID int64, logger *zap.Logger) *variantService {
	return &variantService{
		repos:      repos,
		shopify:    api,
		locationID: locationID,
		logger:     logger,
	}
}

// List returns the product's variants in creation order
func (s *variantService) List(ctx context.Context, productID uuid.UUID) ([]*domain.ProductVariant, error) {
	if _, err := s.repos.Product.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.repos.Variant.ListByProductID(ctx, productID)
}

// CreateVariantInput describes one color/size combination to add
type CreateVariantInput struct {
	Color         string
	Size          string
	Inventory     int
	PriceOverride *decimal.Decimal
}

// Create mirrors a new color/size combination into Shopify, seeds its stock
// level and stores the local row plus its inventory cache entry
func (s *variantService) Create(ctx context.Context, productID uuid.UUID, input CreateVariantInput) (*domain.ProductVariant, error) {
	input.Color = strings.TrimSpace(input.Color)
	input.Size = strings.TrimSpace(input.Size)
	if input.Color == "" || input.Size == "" {
		return nil, &errors.ErrValidation{Message: "color and size are required"}
	}
	if input.Inventory < 0 {
		return nil, &errors.ErrValidation{Message: "inventory must not be negative"}
	}

	product, err := s.repos.Product.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.ShopifyProductID == nil {
		return nil, &errors.ErrValidation{Message: "product has no Shopify listing"}
	}

	price := product.SetPrice
	if input.PriceOverride != nil {
		price = *input.PriceOverride
	}

	shopifyVariant, err := s.shopify.CreateVariant(ctx, shopify.CreateVariantParams{
		ProductID: *product.ShopifyProductID,
		Option1:   input.Color,
		Option2:   input.Size,
		Price:     price,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Shopify variant: %w", err)
	}

	if shopifyVariant.InventoryItemID != 0 && s.locationID != 0 {
		if err := s.shopify.SetInventoryLevel(ctx, shopifyVariant.InventoryItemID, s.locationID, input.Inventory); err != nil {
			return nil, fmt.Errorf("failed to set variant inventory level: %w", err)
		}
	}

	variant := &domain.ProductVariant{
		ProductID:         productID,
		Color:             input.Color,
		Size:              input.Size,
		InventoryQuantity: input.Inventory,
		PriceOverride:     input.PriceOverride,
	}
	variant.ShopifyVariantID = &shopifyVariant.ID
	if shopifyVariant.InventoryItemID != 0 {
		itemID := shopifyVariant.InventoryItemID
		variant.ShopifyInventoryItemID = &itemID
	}

	if err := s.repos.Variant.Create(ctx, variant); err != nil {
		return nil, err
	}

	if variant.ShopifyInventoryItemID != nil {
		record := &domain.InventoryRecord{
			ProductID:              productID,
			VariantID:              &variant.ID,
			ShopifyInventoryItemID: *variant.ShopifyInventoryItemID,
			Available:              input.Inventory,
			LastSyncedAt:           time.Now(),
		}
		if err := s.repos.Inventory.UpsertBatch(ctx, []*domain.InventoryRecord{record}); err != nil {
			return nil, err
		}
	}

	return variant, nil
}

// UpdateVariantInput carries the patchable variant fields
type UpdateVariantInput struct {
	InventoryQuantity *int
	PriceOverride     *decimal.Decimal
}

// Update patches inventory and price override. A quantity change is pushed to
// Shopify first and mirrored into the inventory cache; the local row only
// changes after the push succeeds.
func (s *variantService) Update(ctx context.Context, productID, variantID uuid.UUID, input UpdateVariantInput) (*domain.ProductVariant, error) {
	if input.InventoryQuantity != nil && *input.InventoryQuantity < 0 {
		return nil, &errors.ErrValidation{Message: "inventory must not be negative"}
	}

	variant, err := s.repos.Variant.GetByID(ctx, variantID, productID)
	if err != nil {
		return nil, err
	}

	if input.InventoryQuantity != nil && variant.ShopifyVariantID != nil && s.locationID != 0 {
		shopifyVariant, err := s.shopify.GetVariant(ctx, *variant.ShopifyVariantID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch Shopify variant: %w", err)
		}
		if shopifyVariant.InventoryItemID != 0 {
			if err := s.shopify.SetInventoryLevel(ctx, shopifyVariant.InventoryItemID, s.locationID, *input.InventoryQuantity); err != nil {
				return nil, fmt.Errorf("failed to set variant inventory level: %w", err)
			}
		}
	}

	if input.InventoryQuantity != nil {
		variant.InventoryQuantity = *input.InventoryQuantity
	}
	if input.PriceOverride != nil {
		variant.PriceOverride = input.PriceOverride
	}

	if err := s.repos.Variant.Update(ctx, variant); err != nil {
		return nil, err
	}

	if input.InventoryQuantity != nil {
		if err := s.repos.Inventory.UpdateQuantity(ctx, productID, &variant.ID, *input.InventoryQuantity, time.Now()); err != nil {
			// variants without a Shopify inventory item have no cache row
			if _, ok := err.(*errors.ErrNotFound); !ok {
				return nil, err
			}
		}
	}

	return variant, nil
}
