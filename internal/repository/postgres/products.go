package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

const productJoinedColumns = `
	p.id, p.set_id, p.product_code, p.shopify_product_id, p.shopify_inventory_item_id,
	p.description_custom, p.has_video, p.hangtag_keys, p.status, p.is_archived, p.created_at, p.updated_at,
	s.name, s.prefix, s.price
`

func (r *productRepository) List(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT ` + productJoinedColumns + `
		FROM fafa_products p
		JOIN fafa_product_sets s ON s.id = p.set_id
		WHERE p.is_archived = false
		ORDER BY p.created_at DESC
	`

	return r.queryProducts(ctx, query)
}

func (r *productRepository) ListBySetID(ctx context.Context, setID uuid.UUID) ([]*domain.Product, error) {
	query := `
		SELECT ` + productJoinedColumns + `
		FROM fafa_products p
		JOIN fafa_product_sets s ON s.id = p.set_id
		WHERE p.set_id = $1 AND p.is_archived = false
		ORDER BY p.product_code ASC
	`

	return r.queryProducts(ctx, query, setID)
}

func (r *productRepository) ListSyncable(ctx context.Context) ([]*domain.Product, error) {
	query := `
		SELECT ` + productJoinedColumns + `
		FROM fafa_products p
		JOIN fafa_product_sets s ON s.id = p.set_id
		WHERE p.is_archived = false AND p.shopify_inventory_item_id IS NOT NULL
		ORDER BY p.product_code ASC
	`

	return r.queryProducts(ctx, query)
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}

	return products, rows.Err()
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT ` + productJoinedColumns + `
		FROM fafa_products p
		JOIN fafa_product_sets s ON s.id = p.set_id
		WHERE p.id = $1
	`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.Error(err))
		return nil, err
	}

	return product, nil
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO fafa_products (id, set_id, product_code, shopify_product_id, shopify_inventory_item_id,
		                           description_custom, has_video, status, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.SetID,
		product.ProductCode,
		product.ShopifyProductID,
		product.ShopifyInventoryItemID,
		product.DescriptionCustom,
		product.HasVideo,
		product.Status,
		product.IsArchived,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create product", zap.String("product_code", product.ProductCode), zap.Error(err))
		return err
	}

	return nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE fafa_products
		SET description_custom = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	product.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.DescriptionCustom,
		product.Status,
		product.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update product", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: product.ID.String()}
	}

	return nil
}

func (r *productRepository) UpdateCode(ctx context.Context, id uuid.UUID, code string) error {
	query := `
		UPDATE fafa_products
		SET product_code = $2, updated_at = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, code, time.Now())
	if err != nil {
		r.logger.Error("Failed to update product code", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}

func (r *productRepository) SetHasVideo(ctx context.Context, id uuid.UUID, hasVideo bool) error {
	query := `
		UPDATE fafa_products
		SET has_video = $2, updated_at = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, hasVideo, time.Now())
	if err != nil {
		r.logger.Error("Failed to update product video flag", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}

func (r *productRepository) UpdateHangtagKeys(ctx context.Context, id uuid.UUID, keys []string) error {
	query := `
		UPDATE fafa_products
		SET hangtag_keys = $2, updated_at = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, pq.Array(keys), time.Now())
	if err != nil {
		r.logger.Error("Failed to update hangtag keys", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}

func (r *productRepository) Archive(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE fafa_products
		SET status = $2, is_archived = true, updated_at = $3
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, domain.ProductStatusArchived, time.Now())
	if err != nil {
		r.logger.Error("Failed to archive product", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product", ID: id.String()}
	}

	return nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var product domain.Product
	var shopifyProductID, shopifyInventoryItemID sql.NullInt64
	var descriptionCustom sql.NullString

	err := row.Scan(
		&product.ID,
		&product.SetID,
		&product.ProductCode,
		&shopifyProductID,
		&shopifyInventoryItemID,
		&descriptionCustom,
		&product.HasVideo,
		pq.Array(&product.HangtagKeys),
		&product.Status,
		&product.IsArchived,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.SetName,
		&product.SetPrefix,
		&product.SetPrice,
	)
	if err != nil {
		return nil, err
	}

	if shopifyProductID.Valid {
		product.ShopifyProductID = &shopifyProductID.Int64
	}
	if shopifyInventoryItemID.Valid {
		product.ShopifyInventoryItemID = &shopifyInventoryItemID.Int64
	}
	product.DescriptionCustom = descriptionCustom.String

	return &product, nil
}
