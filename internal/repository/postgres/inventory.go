package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type inventoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInventoryRepository creates a new inventory cache repository
func NewInventoryRepository(db *sql.DB, logger *zap.Logger) *inventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *inventoryRepository) List(ctx context.Context, filter repository.InventoryFilter) ([]*domain.InventoryRecord, error) {
	query := `
		SELECT i.id, i.product_id, i.variant_id, i.shopify_inventory_item_id,
		       i.available, i.last_synced_at, i.created_at, i.updated_at,
		       p.product_code, s.name
		FROM fafa_inventory_cache i
		JOIN fafa_products p ON p.id = i.product_id
		JOIN fafa_product_sets s ON s.id = p.set_id
		WHERE p.is_archived = false
	`

	var args []interface{}
	if filter.SetID != nil {
		args = append(args, *filter.SetID)
		query += fmt.Sprintf(" AND p.set_id = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += fmt.Sprintf(" AND p.product_code ILIKE $%d", len(args))
	}
	if filter.MaxAvailable != nil {
		args = append(args, *filter.MaxAvailable)
		query += fmt.Sprintf(" AND i.available <= $%d", len(args))
	}
	query += " ORDER BY p.product_code ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list inventory", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var records []*domain.InventoryRecord
	for rows.Next() {
		var rec domain.InventoryRecord
		var variantID uuid.NullUUID
		err := rows.Scan(
			&rec.ID,
			&rec.ProductID,
			&variantID,
			&rec.ShopifyInventoryItemID,
			&rec.Available,
			&rec.LastSyncedAt,
			&rec.CreatedAt,
			&rec.UpdatedAt,
			&rec.ProductCode,
			&rec.SetName,
		)
		if err != nil {
			return nil, err
		}
		if variantID.Valid {
			rec.VariantID = &variantID.UUID
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

func (r *inventoryRepository) GetByProductVariant(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*domain.InventoryRecord, error) {
	query := `
		SELECT id, product_id, variant_id, shopify_inventory_item_id, available, last_synced_at, created_at, updated_at
		FROM fafa_inventory_cache
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
	`

	var rec domain.InventoryRecord
	var nullVariantID uuid.NullUUID

	err := r.db.QueryRowContext(ctx, query, productID, uuidOrNil(variantID)).Scan(
		&rec.ID,
		&rec.ProductID,
		&nullVariantID,
		&rec.ShopifyInventoryItemID,
		&rec.Available,
		&rec.LastSyncedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "inventory_record", ID: productID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get inventory record", zap.Error(err))
		return nil, err
	}

	if nullVariantID.Valid {
		rec.VariantID = &nullVariantID.UUID
	}

	return &rec, nil
}

// UpsertBatch overwrites one cache row per record. All rows of a batch commit or
// fail together so a failed batch counts fully against the sync run.
func (r *inventoryRepository) UpsertBatch(ctx context.Context, records []*domain.InventoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	withVariant := `
		INSERT INTO fafa_inventory_cache (id, product_id, variant_id, shopify_inventory_item_id, available, last_synced_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (product_id, variant_id) WHERE variant_id IS NOT NULL DO UPDATE SET
			shopify_inventory_item_id = EXCLUDED.shopify_inventory_item_id,
			available = EXCLUDED.available,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at
	`
	withoutVariant := `
		INSERT INTO fafa_inventory_cache (id, product_id, variant_id, shopify_inventory_item_id, available, last_synced_at, created_at, updated_at)
		VALUES ($1, $2, NULL, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id) WHERE variant_id IS NULL DO UPDATE SET
			shopify_inventory_item_id = EXCLUDED.shopify_inventory_item_id,
			available = EXCLUDED.available,
			last_synced_at = EXCLUDED.last_synced_at,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		rec.UpdatedAt = now

		if rec.VariantID != nil {
			_, err = tx.ExecContext(ctx, withVariant,
				rec.ID, rec.ProductID, *rec.VariantID, rec.ShopifyInventoryItemID,
				rec.Available, rec.LastSyncedAt, rec.CreatedAt, rec.UpdatedAt,
			)
		} else {
			_, err = tx.ExecContext(ctx, withoutVariant,
				rec.ID, rec.ProductID, rec.ShopifyInventoryItemID,
				rec.Available, rec.LastSyncedAt, rec.CreatedAt, rec.UpdatedAt,
			)
		}
		if err != nil {
			r.logger.Error("Failed to upsert inventory record", zap.String("product_id", rec.ProductID.String()), zap.Error(err))
			return err
		}
	}

	return tx.Commit()
}

func (r *inventoryRepository) UpdateQuantity(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, available int, syncedAt time.Time) error {
	query := `
		UPDATE fafa_inventory_cache
		SET available = $3, last_synced_at = $4, updated_at = $4
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
	`

	res, err := r.db.ExecContext(ctx, query, productID, uuidOrNil(variantID), available, syncedAt)
	if err != nil {
		r.logger.Error("Failed to update inventory quantity", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "inventory_record", ID: productID.String()}
	}

	return nil
}

func uuidOrNil(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return *id
}
