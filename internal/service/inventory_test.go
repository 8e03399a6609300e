package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

// fakeInventoryAPI records calls and can fail selected fetches
type fakeInventoryAPI struct {
	mu          sync.Mutex
	levels      map[int64]int
	fetches     [][]int64
	sets        map[int64]int
	failFetch   map[int]error // keyed by 1-based fetch number
	failSetItem map[int64]error
}

func newFakeInventoryAPI() *fakeInventoryAPI {
	return &fakeInventoryAPI{
		levels:      map[int64]int{},
		sets:        map[int64]int{},
		failFetch:   map[int]error{},
		failSetItem: map[int64]error{},
	}
}

func (f *fakeInventoryAPI) GetInventoryLevels(ctx context.Context, locationID int64, ids []int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, ids)
	if err := f.failFetch[len(f.fetches)]; err != nil {
		return nil, err
	}
	out := make(map[int64]int)
	for _, id := range ids {
		if level, ok := f.levels[id]; ok {
			out[id] = level
		}
	}
	return out, nil
}

func (f *fakeInventoryAPI) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSetItem[inventoryItemID]; err != nil {
		return err
	}
	f.sets[inventoryItemID] = available
	return nil
}

type stubProductRepo struct {
	mu          sync.Mutex
	syncable    []*domain.Product
	bySet       []*domain.Product
	byID        map[uuid.UUID]*domain.Product
	created     []*domain.Product
	codeUpdates map[uuid.UUID]string
	hangtagKeys map[uuid.UUID][]string
}

func (s *stubProductRepo) List(ctx context.Context) ([]*domain.Product, error) { return nil, nil }
func (s *stubProductRepo) ListBySetID(ctx context.Context, setID uuid.UUID) ([]*domain.Product, error) {
	return s.bySet, nil
}
func (s *stubProductRepo) ListSyncable(ctx context.Context) ([]*domain.Product, error) {
	return s.syncable, nil
}
func (s *stubProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
}
func (s *stubProductRepo) Create(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, p)
	return nil
}
func (s *stubProductRepo) Update(ctx context.Context, p *domain.Product) error { return nil }
func (s *stubProductRepo) UpdateCode(ctx context.Context, id uuid.UUID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeUpdates == nil {
		s.codeUpdates = map[uuid.UUID]string{}
	}
	s.codeUpdates[id] = code
	return nil
}
func (s *stubProductRepo) SetHasVideo(ctx context.Context, id uuid.UUID, v bool) error { return nil }
func (s *stubProductRepo) UpdateHangtagKeys(ctx context.Context, id uuid.UUID, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hangtagKeys == nil {
		s.hangtagKeys = map[uuid.UUID][]string{}
	}
	s.hangtagKeys[id] = keys
	return nil
}
func (s *stubProductRepo) Archive(ctx context.Context, id uuid.UUID) error { return nil }

type stubInventoryRepo struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*domain.InventoryRecord // keyed by product ID
	upserted []*domain.InventoryRecord
	rows     map[string]*domain.InventoryRecord // conflict-keyed like the table
	updated  map[uuid.UUID]int
}

func newStubInventoryRepo() *stubInventoryRepo {
	return &stubInventoryRepo{
		records: map[uuid.UUID]*domain.InventoryRecord{},
		rows:    map[string]*domain.InventoryRecord{},
		updated: map[uuid.UUID]int{},
	}
}

// rowKey mirrors the table's partial unique indexes: one row per
// (product, variant), one per product when variant is NULL
func rowKey(productID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return productID.String()
	}
	return productID.String() + "/" + variantID.String()
}

func (s *stubInventoryRepo) List(ctx context.Context, f repository.InventoryFilter) ([]*domain.InventoryRecord, error) {
	return nil, nil
}

func (s *stubInventoryRepo) GetByProductVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*domain.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[productID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "inventory record", ID: productID.String()}
	}
	return record, nil
}

func (s *stubInventoryRepo) UpsertBatch(ctx context.Context, records []*domain.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, records...)
	for _, record := range records {
		s.rows[rowKey(record.ProductID, record.VariantID)] = record
	}
	return nil
}

func (s *stubInventoryRepo) UpdateQuantity(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, available int, syncedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[productID]; !ok {
		return &errors.ErrNotFound{Resource: "inventory record", ID: productID.String()}
	}
	s.updated[productID] = available
	return nil
}

func syncableProducts(n int) []*domain.Product {
	products := make([]*domain.Product, n)
	for i := range products {
		itemID := int64(1000 + i)
		products[i] = &domain.Product{
			ID:                     uuid.New(),
			ProductCode:            fmt.Sprintf("HA%03d", i+1),
			ShopifyInventoryItemID: &itemID,
		}
	}
	return products
}

func newInventoryServiceForTest(products *stubProductRepo, inventory *stubInventoryRepo, api *fakeInventoryAPI) (*inventoryService, *[]time.Duration) {
	svc := NewInventoryService(&repository.Repositories{
		Product:   products,
		Inventory: inventory,
	}, api, 77, zap.NewNop())

	var pauses []time.Duration
	svc.pause = func(d time.Duration) { pauses = append(pauses, d) }
	return svc, &pauses
}

func TestSyncAllBatchesAndPauses(t *testing.T) {
	products := syncableProducts(120)
	api := newFakeInventoryAPI()
	for _, p := range products {
		api.levels[*p.ShopifyInventoryItemID] = 5
	}
	inventory := newStubInventoryRepo()
	svc, pauses := newInventoryServiceForTest(&stubProductRepo{syncable: products}, inventory, api)

	result, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}

	if result.Synced != 120 || result.Errors != 0 {
		t.Errorf("result = %d synced / %d errors, want 120/0", result.Synced, result.Errors)
	}
	if len(api.fetches) != 3 {
		t.Fatalf("made %d fetches, want 3", len(api.fetches))
	}
	for i, want := range []int{50, 50, 20} {
		if len(api.fetches[i]) != want {
			t.Errorf("fetch %d had %d items, want %d", i+1, len(api.fetches[i]), want)
		}
	}
	// one pause between each pair of consecutive batches, never after the last
	if len(*pauses) != 2 {
		t.Fatalf("paused %d times, want 2", len(*pauses))
	}
	for _, d := range *pauses {
		if d != syncBatchPause {
			t.Errorf("pause = %v, want %v", d, syncBatchPause)
		}
	}
	if len(inventory.upserted) != 120 {
		t.Errorf("upserted %d records, want 120", len(inventory.upserted))
	}
}

func TestSyncAllSingleBatchNeverPauses(t *testing.T) {
	products := syncableProducts(50)
	api := newFakeInventoryAPI()
	inventory := newStubInventoryRepo()
	svc, pauses := newInventoryServiceForTest(&stubProductRepo{syncable: products}, inventory, api)

	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if len(*pauses) != 0 {
		t.Errorf("paused %d times for a single batch, want 0", len(*pauses))
	}
}

func TestSyncAllMissingItemsCacheAsZero(t *testing.T) {
	products := syncableProducts(3)
	api := newFakeInventoryAPI()
	// only the second product exists on Shopify's side
	api.levels[*products[1].ShopifyInventoryItemID] = 9
	inventory := newStubInventoryRepo()
	svc, _ := newInventoryServiceForTest(&stubProductRepo{syncable: products}, inventory, api)

	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}

	want := []int{0, 9, 0}
	for i, record := range inventory.upserted {
		if record.Available != want[i] {
			t.Errorf("record %d available = %d, want %d", i, record.Available, want[i])
		}
	}
}

func TestSyncAllFailedBatchDoesNotStopRun(t *testing.T) {
	products := syncableProducts(120)
	api := newFakeInventoryAPI()
	api.failFetch[2] = fmt.Errorf("rate limited")
	inventory := newStubInventoryRepo()
	svc, _ := newInventoryServiceForTest(&stubProductRepo{syncable: products}, inventory, api)

	result, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}

	if result.Synced != 70 {
		t.Errorf("synced = %d, want 70", result.Synced)
	}
	if result.Errors != 50 {
		t.Errorf("errors = %d, want 50", result.Errors)
	}
	if len(result.ErrorDetails) != 1 || !strings.Contains(result.ErrorDetails[0], "batch 2") {
		t.Errorf("error details = %v, want one entry naming batch 2", result.ErrorDetails)
	}
	if len(api.fetches) != 3 {
		t.Errorf("made %d fetches, want 3 (run must continue past the failure)", len(api.fetches))
	}
}

func TestSyncAllTwiceOverwritesQuantities(t *testing.T) {
	products := syncableProducts(60)
	api := newFakeInventoryAPI()
	for _, p := range products {
		api.levels[*p.ShopifyInventoryItemID] = 5
	}
	inventory := newStubInventoryRepo()
	svc, _ := newInventoryServiceForTest(&stubProductRepo{syncable: products}, inventory, api)

	if _, err := svc.SyncAll(context.Background()); err != nil {
		t.Fatalf("first SyncAll returned error: %v", err)
	}

	// stock moved on Shopify between runs
	for _, p := range products {
		api.levels[*p.ShopifyInventoryItemID] = 2
	}
	result, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("second SyncAll returned error: %v", err)
	}
	if result.Synced != 60 {
		t.Errorf("second run synced = %d, want 60", result.Synced)
	}

	// one row per product, holding the latest quantity, never an accumulation
	if len(inventory.rows) != 60 {
		t.Fatalf("cache holds %d rows after two runs, want 60", len(inventory.rows))
	}
	for _, p := range products {
		row := inventory.rows[rowKey(p.ID, nil)]
		if row == nil {
			t.Fatalf("no cache row for product %s", p.ProductCode)
		}
		if row.Available != 2 {
			t.Errorf("product %s available = %d, want 2", p.ProductCode, row.Available)
		}
	}
}

func TestSyncAllNoProducts(t *testing.T) {
	svc, pauses := newInventoryServiceForTest(&stubProductRepo{}, newStubInventoryRepo(), newFakeInventoryAPI())

	result, err := svc.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if result.Synced != 0 || result.Errors != 0 || len(*pauses) != 0 {
		t.Errorf("unexpected work for empty product list: %+v", result)
	}
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	api := newFakeInventoryAPI()
	inventory := newStubInventoryRepo()

	items := make([]BulkUpdateItem, 5)
	var missing uuid.UUID
	for i := range items {
		productID := uuid.New()
		items[i] = BulkUpdateItem{ProductID: productID, Quantity: i + 1}
		if i == 2 {
			// no cache row for this product
			missing = productID
			continue
		}
		inventory.records[productID] = &domain.InventoryRecord{
			ProductID:              productID,
			ShopifyInventoryItemID: int64(2000 + i),
		}
	}

	svc, _ := newInventoryServiceForTest(&stubProductRepo{}, inventory, api)
	result, err := svc.BulkUpdate(context.Background(), items)
	if err != nil {
		t.Fatalf("BulkUpdate returned error: %v", err)
	}

	if result.Updated != 4 {
		t.Errorf("updated = %d, want 4", result.Updated)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], missing.String()) {
		t.Errorf("errors = %v, want one entry naming product %s", result.Errors, missing)
	}
	if len(inventory.updated) != 4 {
		t.Errorf("cache updated for %d products, want 4", len(inventory.updated))
	}
}

func TestBulkUpdateRejectsBadInputBeforeAnyWork(t *testing.T) {
	api := newFakeInventoryAPI()
	inventory := newStubInventoryRepo()
	svc, _ := newInventoryServiceForTest(&stubProductRepo{}, inventory, api)

	good := uuid.New()
	inventory.records[good] = &domain.InventoryRecord{ProductID: good, ShopifyInventoryItemID: 3000}

	tests := []struct {
		name  string
		items []BulkUpdateItem
	}{
		{"empty", nil},
		{"missing product id", []BulkUpdateItem{{ProductID: good, Quantity: 1}, {Quantity: 2}}},
		{"negative quantity", []BulkUpdateItem{{ProductID: good, Quantity: 1}, {ProductID: uuid.New(), Quantity: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkUpdate(context.Background(), tt.items)
			if _, ok := err.(*errors.ErrValidation); !ok {
				t.Fatalf("expected *errors.ErrValidation, got %T (%v)", err, err)
			}
		})
	}

	if len(api.sets) != 0 || len(inventory.updated) != 0 {
		t.Errorf("rejected requests must not touch Shopify or the cache")
	}
}

func TestBulkUpdateShopifyFailureIsolated(t *testing.T) {
	api := newFakeInventoryAPI()
	inventory := newStubInventoryRepo()

	items := make([]BulkUpdateItem, 3)
	for i := range items {
		productID := uuid.New()
		items[i] = BulkUpdateItem{ProductID: productID, Quantity: 10}
		inventory.records[productID] = &domain.InventoryRecord{
			ProductID:              productID,
			ShopifyInventoryItemID: int64(4000 + i),
		}
	}
	api.failSetItem[4001] = fmt.Errorf("shopify 500")

	svc, _ := newInventoryServiceForTest(&stubProductRepo{}, inventory, api)
	result, err := svc.BulkUpdate(context.Background(), items)
	if err != nil {
		t.Fatalf("BulkUpdate returned error: %v", err)
	}

	if result.Updated != 2 || result.Failed != 1 {
		t.Errorf("result = %d updated / %d failed, want 2/1", result.Updated, result.Failed)
	}
	// the failed item must not be written to the cache
	if _, ok := inventory.updated[items[1].ProductID]; ok {
		t.Errorf("cache updated for product whose Shopify push failed")
	}
}

func TestUpdateOne(t *testing.T) {
	api := newFakeInventoryAPI()
	inventory := newStubInventoryRepo()
	productID := uuid.New()
	inventory.records[productID] = &domain.InventoryRecord{
		ProductID:              productID,
		ShopifyInventoryItemID: 5000,
	}

	svc, _ := newInventoryServiceForTest(&stubProductRepo{}, inventory, api)

	if err := svc.UpdateOne(context.Background(), productID, nil, 12); err != nil {
		t.Fatalf("UpdateOne returned error: %v", err)
	}
	if api.sets[5000] != 12 {
		t.Errorf("shopify level = %d, want 12", api.sets[5000])
	}
	if inventory.updated[productID] != 12 {
		t.Errorf("cached quantity = %d, want 12", inventory.updated[productID])
	}

	if err := svc.UpdateOne(context.Background(), productID, nil, -1); err == nil {
		t.Error("expected validation error for negative quantity")
	}
}
