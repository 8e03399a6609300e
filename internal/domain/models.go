package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSet is a pricing/prefix template from which product codes are minted.
// LastSequence is the highest sequence number ever issued for this set; it is
// mutated only through ProductSetRepository.IncrementSequence, never by
// read-modify-write at the application layer.
type ProductSet struct {
	ID            uuid.UUID
	Name          string
	Prefix        string
	Price         decimal.Decimal
	OriginalPrice *decimal.Decimal
	Cost          *decimal.Decimal
	LastSequence  int64
	IsArchived    bool
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// ProductCount is the number of active products in the set (joined, list only)
	ProductCount int
}

// Product is a single listing mirrored into Shopify
type Product struct {
	ID                     uuid.UUID
	SetID                  uuid.UUID
	ProductCode            string
	ShopifyProductID       *int64
	ShopifyInventoryItemID *int64
	DescriptionCustom      string
	HasVideo               bool
	HangtagKeys            []string
	Status                 ProductStatus
	IsArchived             bool
	CreatedAt              time.Time
	UpdatedAt              time.Time

	// Joined set fields (list/detail responses)
	SetName   string
	SetPrefix string
	SetPrice  decimal.Decimal
}

// InventoryRecord is the locally cached mirror of a Shopify stock level.
// Unique per (product, variant); a product without variants has exactly one
// record with a nil VariantID.
type InventoryRecord struct {
	ID                     uuid.UUID
	ProductID              uuid.UUID
	VariantID              *uuid.UUID
	ShopifyInventoryItemID int64
	Available              int
	LastSyncedAt           time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time

	// Joined fields (list only)
	ProductCode string
	SetName     string
}

// AppSetting is a catalog-wide key/value setting
type AppSetting struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Well-known setting keys
const (
	SettingUniversalDescription = "universal_product_description"
	SettingProductType          = "product_type"
	SettingVendor               = "vendor"
	SettingCollection           = "collection"
	SettingMetafieldBrands      = "metafield_brands"
	SettingMetafieldArrival     = "metafield_estimate_arrival"
	SettingMetafieldCutoff      = "metafield_cutoff"
	SettingDescriptionPhotoKey  = "description_photo_key"
	SettingLowStockThreshold    = "low_stock_threshold"
)

// ProductVariant is one color/size combination of a product, mirrored as a
// Shopify variant. PriceOverride, when set, replaces the set price for this
// combination only.
type ProductVariant struct {
	ID                     uuid.UUID
	ProductID              uuid.UUID
	ShopifyVariantID       *int64
	ShopifyInventoryItemID *int64
	Color                  string
	Size                   string
	InventoryQuantity      int
	PriceOverride          *decimal.Decimal
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// VariantOption is one selectable color or size name
type VariantOption struct {
	ID           uuid.UUID
	OptionType   VariantOptionType
	Name         string
	DisplayOrder int
	CreatedAt    time.Time
}

// Brand is a metafield brand option
type Brand struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
