package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
)

// ProductSetRepository defines product set data access methods
type ProductSetRepository interface {
	List(ctx context.Context) ([]*domain.ProductSet, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductSet, error)
	Create(ctx context.Context, set *domain.ProductSet) error
	Update(ctx context.Context, set *domain.ProductSet) error
	Archive(ctx context.Context, id uuid.UUID) error
	// IncrementSequence atomically bumps last_sequence by exactly 1 and returns
	// the new value. It is a single UPDATE ... RETURNING statement, so two
	// concurrent callers can never observe the same post-increment value.
	IncrementSequence(ctx context.Context, id uuid.UUID) (int64, error)
}

// ProductRepository defines product data access methods
type ProductRepository interface {
	List(ctx context.Context) ([]*domain.Product, error)
	ListBySetID(ctx context.Context, setID uuid.UUID) ([]*domain.Product, error)
	// ListSyncable returns active products with a Shopify inventory item reference
	ListSyncable(ctx context.Context) ([]*domain.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	UpdateCode(ctx context.Context, id uuid.UUID, code string) error
	SetHasVideo(ctx context.Context, id uuid.UUID, hasVideo bool) error
	UpdateHangtagKeys(ctx context.Context, id uuid.UUID, keys []string) error
	Archive(ctx context.Context, id uuid.UUID) error
}

// VariantRepository defines product variant data access methods
type VariantRepository interface {
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.ProductVariant, error)
	// GetByID scopes the lookup to one product so a variant ID from another
	// product reads as not found
	GetByID(ctx context.Context, id, productID uuid.UUID) (*domain.ProductVariant, error)
	Create(ctx context.Context, variant *domain.ProductVariant) error
	Update(ctx context.Context, variant *domain.ProductVariant) error
}

// VariantOptionFilter narrows variant option listings
type VariantOptionFilter struct {
	OptionType *domain.VariantOptionType
}

// VariantOptionRepository defines variant option data access methods
type VariantOptionRepository interface {
	List(ctx context.Context, filter VariantOptionFilter) ([]*domain.VariantOption, error)
	// Create assigns the next display_order within the option type; a
	// duplicate (type, name) pair returns ErrConflict
	Create(ctx context.Context, option *domain.VariantOption) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InventoryFilter narrows inventory listings
type InventoryFilter struct {
	SetID        *uuid.UUID
	Search       string // product code substring
	MaxAvailable *int   // low-stock filter: available <= threshold
}

// InventoryRepository defines inventory cache data access methods
type InventoryRepository interface {
	List(ctx context.Context, filter InventoryFilter) ([]*domain.InventoryRecord, error)
	GetByProductVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*domain.InventoryRecord, error)
	// UpsertBatch inserts or overwrites one row per record keyed by
	// (product_id, variant_id-or-null)
	UpsertBatch(ctx context.Context, records []*domain.InventoryRecord) error
	UpdateQuantity(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, available int, syncedAt time.Time) error
}

// SettingsRepository defines app settings data access methods
type SettingsRepository interface {
	GetAll(ctx context.Context) ([]*domain.AppSetting, error)
	GetMap(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (*domain.AppSetting, error)
	Upsert(ctx context.Context, key, value string) (*domain.AppSetting, error)
}

// BrandRepository defines brand data access methods
type BrandRepository interface {
	List(ctx context.Context) ([]*domain.Brand, error)
	Upsert(ctx context.Context, name string) (*domain.Brand, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	ProductSet    ProductSetRepository
	Product       ProductRepository
	Variant       VariantRepository
	VariantOption VariantOptionRepository
	Inventory     InventoryRepository
	Settings      SettingsRepository
	Brand         BrandRepository
}
