package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type variantOptionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewVariantOptionRepository creates a new variant option repository
func NewVariantOptionRepository(db *sql.DB, logger *zap.Logger) *variantOptionRepository {
	return &variantOptionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *variantOptionRepository) List(ctx context.Context, filter repository.VariantOptionFilter) ([]*domain.VariantOption, error) {
	query := `
		SELECT id, option_type, name, display_order, created_at
		FROM fafa_variant_options
	`
	var args []interface{}
	if filter.OptionType != nil {
		query += ` WHERE option_type = $1`
		args = append(args, *filter.OptionType)
	}
	query += ` ORDER BY display_order ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list variant options", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var options []*domain.VariantOption
	for rows.Next() {
		var o domain.VariantOption
		if err := rows.Scan(&o.ID, &o.OptionType, &o.Name, &o.DisplayOrder, &o.CreatedAt); err != nil {
			return nil, err
		}
		options = append(options, &o)
	}

	return options, rows.Err()
}

func (r *variantOptionRepository) Create(ctx context.Context, option *domain.VariantOption) error {
	// display_order is assigned inside the INSERT so two concurrent creates
	// for the same type cannot pick the same slot
	query := `
		INSERT INTO fafa_variant_options (id, option_type, name, display_order, created_at)
		SELECT $1, $2, $3, COALESCE(MAX(display_order) + 1, 0), $4
		FROM fafa_variant_options
		WHERE option_type = $2
		RETURNING display_order
	`

	if option.ID == uuid.Nil {
		option.ID = uuid.New()
	}
	if option.CreatedAt.IsZero() {
		option.CreatedAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		option.ID,
		option.OptionType,
		option.Name,
		option.CreatedAt,
	).Scan(&option.DisplayOrder)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &errors.ErrConflict{Message: "this option already exists"}
		}
		r.logger.Error("Failed to create variant option", zap.String("name", option.Name), zap.Error(err))
		return err
	}

	return nil
}

func (r *variantOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fafa_variant_options WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete variant option", zap.Error(err))
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "variant option", ID: id.String()}
	}

	return nil
}
