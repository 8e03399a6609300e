package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type variantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVariantRepository creates a new product variant repository
func NewVariantRepository(db *sql.DB, logger *zap.Logger) *variantRepository {
	return &variantRepository{
		db:     db,
		logger: logger,
	}
}

const variantColumns = `
	id, product_id, shopify_variant_id, shopify_inventory_item_id,
	color, size, inventory_quantity, price_override, created_at, updated_at
`

func (r *variantRepository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]*domain.ProductVariant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM fafa_product_variants
		WHERE product_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to list variants", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var variants []*domain.ProductVariant
	for rows.Next() {
		variant, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}

	return variants, rows.Err()
}

func (r *variantRepository) GetByID(ctx context.Context, id, productID uuid.UUID) (*domain.ProductVariant, error) {
	query := `
		SELECT ` + variantColumns + `
		FROM fafa_product_variants
		WHERE id = $1 AND product_id = $2
	`

	variant, err := scanVariant(r.db.QueryRowContext(ctx, query, id, productID))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "variant", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get variant", zap.Error(err))
		return nil, err
	}

	return variant, nil
}

func (r *variantRepository) Create(ctx context.Context, variant *domain.ProductVariant) error {
	query := `
		INSERT INTO fafa_product_variants (id, product_id, shopify_variant_id, shopify_inventory_item_id,
		                                   color, size, inventory_quantity, price_override, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = now
	}
	variant.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		variant.ID,
		variant.ProductID,
		variant.ShopifyVariantID,
		variant.ShopifyInventoryItemID,
		variant.Color,
		variant.Size,
		variant.InventoryQuantity,
		variant.PriceOverride,
		variant.CreatedAt,
		variant.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "variant " + variant.Color + " / " + variant.Size + " already exists"}
		}
		r.logger.Error("Failed to create variant", zap.String("product_id", variant.ProductID.String()), zap.Error(err))
		return err
	}

	return nil
}

func (r *variantRepository) Update(ctx context.Context, variant *domain.ProductVariant) error {
	query := `
		UPDATE fafa_product_variants
		SET inventory_quantity = $3, price_override = $4, updated_at = $5
		WHERE id = $1 AND product_id = $2
	`

	variant.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		variant.ID,
		variant.ProductID,
		variant.InventoryQuantity,
		variant.PriceOverride,
		variant.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to update variant", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "variant", ID: variant.ID.String()}
	}

	return nil
}

func scanVariant(row rowScanner) (*domain.ProductVariant, error) {
	var variant domain.ProductVariant
	var shopifyVariantID, shopifyInventoryItemID sql.NullInt64
	var priceOverride decimal.NullDecimal

	err := row.Scan(
		&variant.ID,
		&variant.ProductID,
		&shopifyVariantID,
		&shopifyInventoryItemID,
		&variant.Color,
		&variant.Size,
		&variant.InventoryQuantity,
		&priceOverride,
		&variant.CreatedAt,
		&variant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if shopifyVariantID.Valid {
		variant.ShopifyVariantID = &shopifyVariantID.Int64
	}
	if shopifyInventoryItemID.Valid {
		variant.ShopifyInventoryItemID = &shopifyInventoryItemID.Int64
	}
	if priceOverride.Valid {
		variant.PriceOverride = &priceOverride.Decimal
	}

	return &variant, nil
}
