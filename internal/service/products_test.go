package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
	"github.com/arthurando/fafa-shopify-v2/internal/storage"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type metafieldCall struct {
	ProductID int64
	Namespace string
	Key       string
	Value     string
}

// fakeProductAPI records calls and can fail selected operations
type fakeProductAPI struct {
	mu             sync.Mutex
	createCalls    []shopify.CreateProductParams
	createErr      error
	updateCalls    []shopify.UpdateProductParams
	failUpdateFor  map[int64]error
	metafieldCalls []metafieldCall
	uploads        []string
	levels         map[int64]int
	costs          map[int64]string
	collections    []string
}

func newFakeProductAPI() *fakeProductAPI {
	return &fakeProductAPI{
		failUpdateFor: map[int64]error{},
		levels:        map[int64]int{},
		costs:         map[int64]string{},
	}
}

func (f *fakeProductAPI) CreateProduct(ctx context.Context, params shopify.CreateProductParams) (*shopify.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createCalls = append(f.createCalls, params)
	id := int64(9000 + len(f.createCalls))
	return &shopify.Product{
		ID:       id,
		Title:    params.Title,
		Variants: []shopify.Variant{{ID: id * 10, InventoryItemID: id + 500}},
	}, nil
}

func (f *fakeProductAPI) GetProduct(ctx context.Context, productID int64) (*shopify.Product, error) {
	return &shopify.Product{ID: productID}, nil
}

func (f *fakeProductAPI) UpdateProduct(ctx context.Context, params shopify.UpdateProductParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdateFor[params.ProductID]; err != nil {
		return err
	}
	f.updateCalls = append(f.updateCalls, params)
	return nil
}

func (f *fakeProductAPI) ArchiveProduct(ctx context.Context, productID int64) error { return nil }

func (f *fakeProductAPI) UploadImage(ctx context.Context, productID int64, base64Image, filename string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, filename)
	return filename, nil
}

func (f *fakeProductAPI) DeleteImage(ctx context.Context, productID, imageID int64) error { return nil }

func (f *fakeProductAPI) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID int64, available int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[inventoryItemID] = available
	return nil
}

func (f *fakeProductAPI) SetInventoryItemCost(ctx context.Context, inventoryItemID int64, cost decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.costs[inventoryItemID] = cost.StringFixed(2)
	return nil
}

func (f *fakeProductAPI) AddProductToCollectionByTitle(ctx context.Context, productID int64, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections = append(f.collections, title)
	return nil
}

func (f *fakeProductAPI) UpdateProductMetafield(ctx context.Context, productID int64, namespace, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metafieldCalls = append(f.metafieldCalls, metafieldCall{productID, namespace, key, value})
	return nil
}

type stubSettingsRepo struct {
	m map[string]string
}

func (s *stubSettingsRepo) GetAll(ctx context.Context) ([]*domain.AppSetting, error) {
	var out []*domain.AppSetting
	for k, v := range s.m {
		out = append(out, &domain.AppSetting{Key: k, Value: v})
	}
	return out, nil
}

func (s *stubSettingsRepo) GetMap(ctx context.Context) (map[string]string, error) {
	if s.m == nil {
		return map[string]string{}, nil
	}
	return s.m, nil
}

func (s *stubSettingsRepo) Get(ctx context.Context, key string) (*domain.AppSetting, error) {
	if v, ok := s.m[key]; ok {
		return &domain.AppSetting{Key: key, Value: v}, nil
	}
	return nil, &errors.ErrNotFound{Resource: "app_setting", ID: key}
}

func (s *stubSettingsRepo) Upsert(ctx context.Context, key, value string) (*domain.AppSetting, error) {
	if s.m == nil {
		s.m = map[string]string{}
	}
	s.m[key] = value
	return &domain.AppSetting{Key: key, Value: value}, nil
}

func newProductServiceForTest(sets *stubSetRepo, products *stubProductRepo, api *fakeProductAPI) *productService {
	cfg := &config.Config{Shopify: config.ShopifyConfig{LocationID: 77}}
	repos := &repository.Repositories{
		ProductSet: sets,
		Product:    products,
		Settings:   &stubSettingsRepo{},
	}
	return NewProductService(cfg, repos, api, nil, zap.NewNop())
}

func testSet(prefix string) *domain.ProductSet {
	return &domain.ProductSet{
		ID:     uuid.New(),
		Name:   "testing",
		Prefix: prefix,
		Price:  decimal.NewFromInt(128),
	}
}

func validCreateInput(setID uuid.UUID) CreateProductInput {
	return CreateProductInput{
		SetID:  setID,
		Photos: []Upload{{Data: []byte("jpegdata"), ContentType: "image/jpeg"}},
	}
}

func TestCreateProductValidatesBeforeAnyWork(t *testing.T) {
	sets := &stubSetRepo{set: testSet("HA")}
	products := &stubProductRepo{}
	api := newFakeProductAPI()
	svc := newProductServiceForTest(sets, products, api)

	big := make([]byte, maxPhotoSize+1)

	tests := []struct {
		name  string
		input CreateProductInput
	}{
		{"no photos", CreateProductInput{SetID: sets.set.ID}},
		{"bad photo type", CreateProductInput{
			SetID:  sets.set.ID,
			Photos: []Upload{{Data: []byte("gif"), ContentType: "image/gif"}},
		}},
		{"oversize photo", CreateProductInput{
			SetID:  sets.set.ID,
			Photos: []Upload{{Data: big, ContentType: "image/jpeg"}},
		}},
		{"bad status", func() CreateProductInput {
			in := validCreateInput(sets.set.ID)
			in.Status = domain.ProductStatus("published")
			return in
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.input)
			if _, ok := err.(*errors.ErrValidation); !ok {
				t.Fatalf("expected *errors.ErrValidation, got %T (%v)", err, err)
			}
		})
	}

	if sets.sequence != 0 {
		t.Errorf("sequence incremented %d times for rejected input, want 0", sets.sequence)
	}
	if len(api.createCalls) != 0 || len(products.created) != 0 {
		t.Errorf("rejected input must not reach Shopify or the database")
	}
}

func TestCreateProductAbortsWhenAllocationFails(t *testing.T) {
	sets := &stubSetRepo{set: testSet("HA"), err: fmt.Errorf("connection reset")}
	products := &stubProductRepo{}
	api := newFakeProductAPI()
	svc := newProductServiceForTest(sets, products, api)

	_, err := svc.Create(context.Background(), validCreateInput(sets.set.ID))
	if _, ok := err.(*errors.ErrAllocation); !ok {
		t.Fatalf("expected *errors.ErrAllocation, got %T (%v)", err, err)
	}

	if len(api.createCalls) != 0 {
		t.Errorf("no Shopify product may be created when allocation fails")
	}
	if len(products.created) != 0 {
		t.Errorf("no local row may be written when allocation fails")
	}
}

func TestCreateProductMirrorsListing(t *testing.T) {
	sets := &stubSetRepo{set: testSet("HA")}
	products := &stubProductRepo{}
	api := newFakeProductAPI()
	svc := newProductServiceForTest(sets, products, api)

	product, err := svc.Create(context.Background(), validCreateInput(sets.set.ID))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if product.ProductCode != "HA001" {
		t.Errorf("product code = %q, want HA001", product.ProductCode)
	}
	if len(api.createCalls) != 1 {
		t.Fatalf("made %d Shopify creates, want 1", len(api.createCalls))
	}
	call := api.createCalls[0]
	if call.Handle != "HA001" {
		t.Errorf("handle = %q, want HA001", call.Handle)
	}
	if !strings.Contains(call.Title, "HA001") {
		t.Errorf("title %q does not carry the product code", call.Title)
	}
	var sttValue string
	for _, m := range call.Metafields {
		if m.Namespace == "custom" && m.Key == "stt_code" {
			sttValue = m.Value
		}
	}
	if sttValue != "HA001" {
		t.Errorf("stt_code metafield = %q, want HA001", sttValue)
	}
	if product.ShopifyInventoryItemID == nil {
		t.Fatal("inventory item ID not recorded")
	}
	// new listings start with one unit in stock
	if api.levels[*product.ShopifyInventoryItemID] != 1 {
		t.Errorf("initial stock = %d, want 1", api.levels[*product.ShopifyInventoryItemID])
	}
	if len(products.created) != 1 {
		t.Errorf("created %d local rows, want 1", len(products.created))
	}
	if len(api.uploads) != 1 || api.uploads[0] != "HA001_1.jpg" {
		t.Errorf("uploads = %v, want [HA001_1.jpg]", api.uploads)
	}
}

func syncTestProducts(set *domain.ProductSet) (*domain.Product, *domain.Product) {
	id11, id22 := int64(11), int64(22)
	p1 := &domain.Product{
		ID:               uuid.New(),
		SetID:            set.ID,
		ProductCode:      "HA001",
		ShopifyProductID: &id11,
	}
	p2 := &domain.Product{
		ID:               uuid.New(),
		SetID:            set.ID,
		ProductCode:      "XB777",
		ShopifyProductID: &id22,
	}
	return p1, p2
}

func TestSyncSetRewritesOnlyMatchingCodes(t *testing.T) {
	set := testSet("NH")
	p1, p2 := syncTestProducts(set)
	sets := &stubSetRepo{set: set}
	products := &stubProductRepo{bySet: []*domain.Product{p1, p2}}
	api := newFakeProductAPI()
	svc := newProductServiceForTest(sets, products, api)

	result, err := svc.SyncSet(context.Background(), set.ID, "HA", "NH")
	if err != nil {
		t.Fatalf("SyncSet returned error: %v", err)
	}
	if result.Synced != 2 || len(result.Errors) != 0 {
		t.Fatalf("result = %d synced / %v, want 2 synced and no errors", result.Synced, result.Errors)
	}

	// only the code carrying the old prefix is rewritten
	if got := products.codeUpdates[p1.ID]; got != "NH001" {
		t.Errorf("p1 code rewritten to %q, want NH001", got)
	}
	if _, ok := products.codeUpdates[p2.ID]; ok {
		t.Errorf("p2 code rewritten despite not carrying the old prefix")
	}

	// the stt_code metafield follows every product after a prefix change
	want := map[int64]string{11: "NH001", 22: "XB777"}
	if len(api.metafieldCalls) != 2 {
		t.Fatalf("made %d metafield calls, want 2", len(api.metafieldCalls))
	}
	for _, call := range api.metafieldCalls {
		if call.Namespace != "custom" || call.Key != "stt_code" {
			t.Errorf("unexpected metafield %s.%s", call.Namespace, call.Key)
		}
		if call.Value != want[call.ProductID] {
			t.Errorf("stt_code for product %d = %q, want %q", call.ProductID, call.Value, want[call.ProductID])
		}
	}

	for _, call := range api.updateCalls {
		if call.Handle == nil {
			t.Errorf("handle not re-pushed for product %d after prefix change", call.ProductID)
		}
	}
}

func TestSyncSetWithoutPrefixChange(t *testing.T) {
	set := testSet("HA")
	p1, _ := syncTestProducts(set)
	localOnly := &domain.Product{ID: uuid.New(), SetID: set.ID, ProductCode: "HA002"}
	sets := &stubSetRepo{set: set}
	products := &stubProductRepo{bySet: []*domain.Product{p1, localOnly}}
	api := newFakeProductAPI()
	svc := newProductServiceForTest(sets, products, api)

	result, err := svc.SyncSet(context.Background(), set.ID, "", "")
	if err != nil {
		t.Fatalf("SyncSet returned error: %v", err)
	}
	if result.Synced != 2 {
		t.Errorf("synced = %d, want 2 (local-only products count as synced)", result.Synced)
	}

	if len(products.codeUpdates) != 0 {
		t.Errorf("codes rewritten without a prefix change: %v", products.codeUpdates)
	}
	if len(api.metafieldCalls) != 0 {
		t.Errorf("stt_code pushed without a prefix change")
	}
	// the local-only product never reaches Shopify
	if len(api.updateCalls) != 1 {
		t.Fatalf("made %d Shopify updates, want 1", len(api.updateCalls))
	}
	call := api.updateCalls[0]
	if call.Handle != nil {
		t.Errorf("handle re-pushed without a prefix change")
	}
	// no original price on the set clears any compare-at price
	if !call.ClearCompareAt {
		t.Errorf("compare-at price not cleared for a set without original price")
	}
}

func TestSyncSetCollectsPerProductFailures(t *testing.T) {
	set := testSet("HA")
	p1, p2 := syncTestProducts(set)
	sets := &stubSetRepo{set: set}
	products := &stubProductRepo{bySet: []*domain.Product{p1, p2}}
	api := newFakeProductAPI()
	api.failUpdateFor[11] = fmt.Errorf("shopify 429")
	svc := newProductServiceForTest(sets, products, api)

	result, err := svc.SyncSet(context.Background(), set.ID, "", "")
	if err != nil {
		t.Fatalf("SyncSet returned error: %v", err)
	}

	if result.Synced != 1 || result.Total != 2 {
		t.Errorf("result = %d/%d, want 1 of 2 synced", result.Synced, result.Total)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "HA001:") {
		t.Errorf("errors = %v, want one entry prefixed with the failed product code", result.Errors)
	}
	// the second product still syncs after the first one fails
	if len(api.updateCalls) != 1 || api.updateCalls[0].ProductID != 22 {
		t.Errorf("update calls = %v, want exactly the surviving product 22", api.updateCalls)
	}
}

type fakeMediaStore struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
	deleted []string
}

func (f *fakeMediaStore) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[key] = contentType
	return nil
}

func (f *fakeMediaStore) UploadVideo(ctx context.Context, productCode string, body io.Reader) (string, error) {
	return storage.VideoKey(productCode), nil
}

func (f *fakeMediaStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func TestAddHangtagsContinuesNumbering(t *testing.T) {
	product := &domain.Product{ID: uuid.New(), ProductCode: "HA001", HangtagKeys: []string{"HA001/hangtag_1.jpg"}}
	products := &stubProductRepo{byID: map[uuid.UUID]*domain.Product{product.ID: product}}
	store := &fakeMediaStore{}
	svc := newProductServiceForTest(&stubSetRepo{}, products, newFakeProductAPI())
	svc.hangtags = store

	keys, err := svc.AddHangtags(context.Background(), product.ID, []Upload{
		{Data: []byte("a"), ContentType: "image/jpeg"},
		{Data: []byte("b"), ContentType: "image/png"},
	})
	if err != nil {
		t.Fatalf("AddHangtags returned error: %v", err)
	}

	want := []string{"HA001/hangtag_1.jpg", "HA001/hangtag_2.jpg", "HA001/hangtag_3.jpg"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if store.objects["HA001/hangtag_2.jpg"] != "image/jpeg" || store.objects["HA001/hangtag_3.jpg"] != "image/png" {
		t.Errorf("uploaded objects = %v", store.objects)
	}
	if got := products.hangtagKeys[product.ID]; len(got) != 3 {
		t.Errorf("persisted keys = %v, want all three", got)
	}
}

func TestAddHangtagsRejectsBadPhotos(t *testing.T) {
	product := &domain.Product{ID: uuid.New(), ProductCode: "HA001"}
	products := &stubProductRepo{byID: map[uuid.UUID]*domain.Product{product.ID: product}}
	store := &fakeMediaStore{}
	svc := newProductServiceForTest(&stubSetRepo{}, products, newFakeProductAPI())
	svc.hangtags = store

	for _, photos := range [][]Upload{
		nil,
		{{Data: []byte("gif"), ContentType: "image/gif"}},
		{{Data: make([]byte, maxPhotoSize+1), ContentType: "image/jpeg"}},
	} {
		if _, err := svc.AddHangtags(context.Background(), product.ID, photos); err == nil {
			t.Errorf("photos %d: expected an error", len(photos))
		} else if _, ok := err.(*errors.ErrValidation); !ok {
			t.Errorf("photos %d: err = %v, want ErrValidation", len(photos), err)
		}
	}
	if len(store.objects) != 0 {
		t.Errorf("nothing should be uploaded, got %v", store.objects)
	}
}

func TestDeleteHangtagKeepsRemainingKeys(t *testing.T) {
	product := &domain.Product{
		ID:          uuid.New(),
		ProductCode: "HA001",
		HangtagKeys: []string{"HA001/hangtag_1.jpg", "HA001/hangtag_2.jpg", "HA001/hangtag_3.jpg"},
	}
	products := &stubProductRepo{byID: map[uuid.UUID]*domain.Product{product.ID: product}}
	store := &fakeMediaStore{}
	svc := newProductServiceForTest(&stubSetRepo{}, products, newFakeProductAPI())
	svc.hangtags = store

	keys, err := svc.DeleteHangtag(context.Background(), product.ID, "HA001/hangtag_2.jpg")
	if err != nil {
		t.Fatalf("DeleteHangtag returned error: %v", err)
	}

	// survivors keep their original numbers
	if len(keys) != 2 || keys[0] != "HA001/hangtag_1.jpg" || keys[1] != "HA001/hangtag_3.jpg" {
		t.Errorf("keys = %v, want hangtag_1 and hangtag_3 untouched", keys)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "HA001/hangtag_2.jpg" {
		t.Errorf("deleted = %v", store.deleted)
	}

	if _, err := svc.DeleteHangtag(context.Background(), product.ID, "HA001/hangtag_9.jpg"); err == nil {
		t.Fatal("expected not-found for an unknown key")
	} else if _, ok := err.(*errors.ErrNotFound); !ok {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
