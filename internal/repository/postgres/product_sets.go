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

type productSetRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductSetRepository creates a new product set repository
func NewProductSetRepository(db *sql.DB, logger *zap.Logger) *productSetRepository {
	return &productSetRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productSetRepository) List(ctx context.Context) ([]*domain.ProductSet, error) {
	query := `
		SELECT s.id, s.name, s.prefix, s.price, s.original_price, s.cost,
		       s.last_sequence, s.is_archived, s.created_at, s.updated_at,
		       COUNT(p.id) FILTER (WHERE p.is_archived = false) AS product_count
		FROM fafa_product_sets s
		LEFT JOIN fafa_products p ON p.set_id = s.id
		WHERE s.is_archived = false
		GROUP BY s.id
		ORDER BY s.prefix ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list product sets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var sets []*domain.ProductSet
	for rows.Next() {
		set, err := scanProductSet(rows, true)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	return sets, rows.Err()
}

func (r *productSetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductSet, error) {
	query := `
		SELECT id, name, prefix, price, original_price, cost,
		       last_sequence, is_archived, created_at, updated_at
		FROM fafa_product_sets
		WHERE id = $1
	`

	var set domain.ProductSet
	var originalPrice, cost decimal.NullDecimal

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&set.ID,
		&set.Name,
		&set.Prefix,
		&set.Price,
		&originalPrice,
		&cost,
		&set.LastSequence,
		&set.IsArchived,
		&set.CreatedAt,
		&set.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product_set", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get product set", zap.Error(err))
		return nil, err
	}

	if originalPrice.Valid {
		set.OriginalPrice = &originalPrice.Decimal
	}
	if cost.Valid {
		set.Cost = &cost.Decimal
	}

	return &set, nil
}

func (r *productSetRepository) Create(ctx context.Context, set *domain.ProductSet) error {
	query := `
		INSERT INTO fafa_product_sets (id, name, prefix, price, original_price, cost, last_sequence, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	now := time.Now()
	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		set.ID,
		set.Name,
		set.Prefix,
		set.Price,
		nullDecimal(set.OriginalPrice),
		nullDecimal(set.Cost),
		set.LastSequence,
		set.IsArchived,
		set.CreatedAt,
		set.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "prefix already in use: " + set.Prefix}
		}
		r.logger.Error("Failed to create product set", zap.Error(err))
		return err
	}

	return nil
}

func (r *productSetRepository) Update(ctx context.Context, set *domain.ProductSet) error {
	query := `
		UPDATE fafa_product_sets
		SET name = $2, prefix = $3, price = $4, original_price = $5, cost = $6, is_archived = $7, updated_at = $8
		WHERE id = $1
	`

	set.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		set.ID,
		set.Name,
		set.Prefix,
		set.Price,
		nullDecimal(set.OriginalPrice),
		nullDecimal(set.Cost),
		set.IsArchived,
		set.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "prefix already in use: " + set.Prefix}
		}
		r.logger.Error("Failed to update product set", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product_set", ID: set.ID.String()}
	}

	return nil
}

func (r *productSetRepository) Archive(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE fafa_product_sets
		SET is_archived = true, updated_at = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to archive product set", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "product_set", ID: id.String()}
	}

	return nil
}

// IncrementSequence claims the next sequence number in a single atomic statement.
// Row-level locking in Postgres serializes concurrent increments on the same set.
func (r *productSetRepository) IncrementSequence(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `
		UPDATE fafa_product_sets
		SET last_sequence = last_sequence + 1, updated_at = NOW()
		WHERE id = $1 AND is_archived = false
		RETURNING last_sequence
	`

	var sequence int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&sequence)
	if err == sql.ErrNoRows {
		return 0, &errors.ErrNotFound{Resource: "product_set", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to increment set sequence", zap.String("set_id", id.String()), zap.Error(err))
		return 0, err
	}

	return sequence, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProductSet(row rowScanner, withCount bool) (*domain.ProductSet, error) {
	var set domain.ProductSet
	var originalPrice, cost decimal.NullDecimal

	dest := []interface{}{
		&set.ID,
		&set.Name,
		&set.Prefix,
		&set.Price,
		&originalPrice,
		&cost,
		&set.LastSequence,
		&set.IsArchived,
		&set.CreatedAt,
		&set.UpdatedAt,
	}
	if withCount {
		dest = append(dest, &set.ProductCount)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if originalPrice.Valid {
		set.OriginalPrice = &originalPrice.Decimal
	}
	if cost.Valid {
		set.Cost = &cost.Decimal
	}

	return &set, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
