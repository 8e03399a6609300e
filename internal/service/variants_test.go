package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

// fakeVariantAPI hands out sequential variant IDs and records stock pushes
type fakeVariantAPI struct {
	mu        sync.Mutex
	created   []shopify.CreateVariantParams
	createErr error
	variants  map[int64]*shopify.Variant
	levels    map[int64]int
	nextID    int64
}

func newFakeVariantAPI() *fakeVariantAPI {
	return &fakeVariantAPI{
		variants: map[int64]*shopify.Variant{},
		levels:   map[int64]int{},
		nextID:   500,
	}
}

func (f *fakeVariantAPI) CreateVariant(ctx context.Context, params shopify.CreateVariantParams) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, params)
	f.nextID++
	variant := &shopify.Variant{
		ID:              f.nextID,
		Price:           params.Price.StringFixed(2),
		Option1:         params.Option1,
		Option2:         params.Option2,
		InventoryItemID: f.nextID + 9000,
	}
	f.variants[variant.ID] = variant
	return variant, nil
}

func (f *fakeVariantAPI) GetVariant(ctx context.Context, variantID int64) (*shopify.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.variants[variantID]; ok {
		return v, nil
	}
	return &shopify.Variant{ID: variantID}, nil
}

func (f *fakeVariantAPI) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[inventoryItemID] = available
	return nil
}

type stubVariantRepo struct {
	mu        sync.Mutex
	byProduct map[uuid.UUID][]*domain.ProductVariant
	created   []*domain.ProductVariant
	updated   []*domain.ProductVariant
	createErr error
}

func newStubVariantRepo() *stubVariantRepo {
	return &stubVariantRepo{byProduct: map[uuid.UUID][]*domain.ProductVariant{}}
}

func (s *stubVariantRepo) ListByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.ProductVariant, error) {
	return s.byProduct[productID], nil
}

func (s *stubVariantRepo) GetByID(ctx context.Context, id, productID uuid.UUID) (*domain.ProductVariant, error) {
	for _, v := range s.byProduct[productID] {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, &errors.ErrNotFound{Resource: "variant", ID: id.String()}
}

func (s *stubVariantRepo) Create(ctx context.Context, variant *domain.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	s.created = append(s.created, variant)
	s.byProduct[variant.ProductID] = append(s.byProduct[variant.ProductID], variant)
	return nil
}

func (s *stubVariantRepo) Update(ctx context.Context, variant *domain.ProductVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, variant)
	return nil
}

func variantTestProduct() *domain.Product {
	shopifyID := int64(9001)
	return &domain.Product{
		ID:               uuid.New(),
		ProductCode:      "HA001",
		ShopifyProductID: &shopifyID,
		SetPrice:         decimal.NewFromInt(128),
	}
}

func newVariantServiceForTest(product *domain.Product, variants *stubVariantRepo, inventory *stubInventoryRepo, api *fakeVariantAPI) *variantService {
	products := &stubProductRepo{byID: map[uuid.UUID]*domain.Product{}}
	if product != nil {
		products.byID[product.ID] = product
	}
	repos := &repository.Repositories{
		Product:   products,
		Variant:   variants,
		Inventory: inventory,
	}
	return NewVariantService(repos, api, 77, zap.NewNop())
}

func TestCreateVariantSeedsInventoryCache(t *testing.T) {
	product := variantTestProduct()
	variants := newStubVariantRepo()
	inventory := newStubInventoryRepo()
	api := newFakeVariantAPI()
	svc := newVariantServiceForTest(product, variants, inventory, api)

	variant, err := svc.Create(context.Background(), product.ID, CreateVariantInput{
		Color:     "紅色",
		Size:      "L",
		Inventory: 6,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if len(api.created) != 1 {
		t.Fatalf("made %d Shopify variant creates, want 1", len(api.created))
	}
	call := api.created[0]
	if call.Option1 != "紅色" || call.Option2 != "L" {
		t.Errorf("options = %q/%q, want 紅色/L", call.Option1, call.Option2)
	}
	// no override means the set price applies
	if !call.Price.Equal(decimal.NewFromInt(128)) {
		t.Errorf("price = %s, want 128", call.Price)
	}

	if variant.ShopifyInventoryItemID == nil {
		t.Fatal("inventory item ID not recorded on the variant")
	}
	if api.levels[*variant.ShopifyInventoryItemID] != 6 {
		t.Errorf("shopify stock = %d, want 6", api.levels[*variant.ShopifyInventoryItemID])
	}

	// the cache gains a variant-keyed row, separate from the product-level row
	row := inventory.rows[rowKey(product.ID, &variant.ID)]
	if row == nil {
		t.Fatal("no variant-keyed cache row written")
	}
	if row.Available != 6 {
		t.Errorf("cached available = %d, want 6", row.Available)
	}
	if row.ShopifyInventoryItemID != *variant.ShopifyInventoryItemID {
		t.Errorf("cached item ID = %d, want %d", row.ShopifyInventoryItemID, *variant.ShopifyInventoryItemID)
	}
}

func TestCreateVariantUsesPriceOverride(t *testing.T) {
	product := variantTestProduct()
	api := newFakeVariantAPI()
	svc := newVariantServiceForTest(product, newStubVariantRepo(), newStubInventoryRepo(), api)

	override := decimal.NewFromInt(88)
	if _, err := svc.Create(context.Background(), product.ID, CreateVariantInput{
		Color:         "白色",
		Size:          "M",
		PriceOverride: &override,
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if !api.created[0].Price.Equal(override) {
		t.Errorf("price = %s, want 88", api.created[0].Price)
	}
}

func TestCreateVariantValidation(t *testing.T) {
	product := variantTestProduct()
	api := newFakeVariantAPI()
	svc := newVariantServiceForTest(product, newStubVariantRepo(), newStubInventoryRepo(), api)

	tests := []struct {
		name  string
		input CreateVariantInput
	}{
		{"blank color", CreateVariantInput{Color: "  ", Size: "L"}},
		{"blank size", CreateVariantInput{Color: "紅色", Size: ""}},
		{"negative inventory", CreateVariantInput{Color: "紅色", Size: "L", Inventory: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), product.ID, tt.input)
			if _, ok := err.(*errors.ErrValidation); !ok {
				t.Fatalf("expected *errors.ErrValidation, got %T (%v)", err, err)
			}
		})
	}
	if len(api.created) != 0 {
		t.Errorf("rejected input must not reach Shopify")
	}
}

func TestCreateVariantRequiresShopifyListing(t *testing.T) {
	product := variantTestProduct()
	product.ShopifyProductID = nil
	svc := newVariantServiceForTest(product, newStubVariantRepo(), newStubInventoryRepo(), newFakeVariantAPI())

	_, err := svc.Create(context.Background(), product.ID, CreateVariantInput{Color: "紅色", Size: "L"})
	if _, ok := err.(*errors.ErrValidation); !ok {
		t.Fatalf("expected *errors.ErrValidation, got %T (%v)", err, err)
	}
}

func TestCreateVariantSurfacesDuplicate(t *testing.T) {
	product := variantTestProduct()
	variants := newStubVariantRepo()
	variants.createErr = &errors.ErrConflict{Message: "variant 紅色 / L already exists"}
	svc := newVariantServiceForTest(product, variants, newStubInventoryRepo(), newFakeVariantAPI())

	_, err := svc.Create(context.Background(), product.ID, CreateVariantInput{Color: "紅色", Size: "L"})
	if _, ok := err.(*errors.ErrConflict); !ok {
		t.Fatalf("expected *errors.ErrConflict, got %T (%v)", err, err)
	}
}

func TestUpdateVariantPushesQuantity(t *testing.T) {
	product := variantTestProduct()
	variants := newStubVariantRepo()
	inventory := newStubInventoryRepo()
	api := newFakeVariantAPI()
	svc := newVariantServiceForTest(product, variants, inventory, api)

	created, err := svc.Create(context.Background(), product.ID, CreateVariantInput{
		Color:     "紅色",
		Size:      "L",
		Inventory: 6,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	// UpdateQuantity resolves through the product-level stub index
	inventory.records[product.ID] = &domain.InventoryRecord{
		ProductID:              product.ID,
		VariantID:              &created.ID,
		ShopifyInventoryItemID: *created.ShopifyInventoryItemID,
	}

	qty := 3
	updated, err := svc.Update(context.Background(), product.ID, created.ID, UpdateVariantInput{InventoryQuantity: &qty})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.InventoryQuantity != 3 {
		t.Errorf("variant quantity = %d, want 3", updated.InventoryQuantity)
	}
	if api.levels[*created.ShopifyInventoryItemID] != 3 {
		t.Errorf("shopify stock = %d, want 3", api.levels[*created.ShopifyInventoryItemID])
	}
	if inventory.updated[product.ID] != 3 {
		t.Errorf("cached quantity = %d, want 3", inventory.updated[product.ID])
	}
	if len(variants.updated) != 1 {
		t.Errorf("variant row updated %d times, want 1", len(variants.updated))
	}
}

func TestUpdateVariantNotFound(t *testing.T) {
	product := variantTestProduct()
	svc := newVariantServiceForTest(product, newStubVariantRepo(), newStubInventoryRepo(), newFakeVariantAPI())

	qty := 1
	_, err := svc.Update(context.Background(), product.ID, uuid.New(), UpdateVariantInput{InventoryQuantity: &qty})
	if _, ok := err.(*errors.ErrNotFound); !ok {
		t.Fatalf("expected *errors.ErrNotFound, got %T (%v)", err, err)
	}
}

func TestUpdateVariantRejectsNegativeQuantity(t *testing.T) {
	product := variantTestProduct()
	svc := newVariantServiceForTest(product, newStubVariantRepo(), newStubInventoryRepo(), newFakeVariantAPI())

	qty := -1
	_, err := svc.Update(context.Background(), product.ID, uuid.New(), UpdateVariantInput{InventoryQuantity: &qty})
	if _, ok := err.(*errors.ErrValidation); !ok {
		t.Fatalf("expected *errors.ErrValidation, got %T (%v)", err, err)
	}
}
