package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
)

type brandRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBrandRepository creates a new brand repository
func NewBrandRepository(db *sql.DB, logger *zap.Logger) *brandRepository {
	return &brandRepository{
		db:     db,
		logger: logger,
	}
}

func (r *brandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	query := `
		SELECT id, name, created_at
		FROM fafa_brands
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list brands", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var brands []*domain.Brand
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt); err != nil {
			return nil, err
		}
		brands = append(brands, &b)
	}

	return brands, rows.Err()
}

func (r *brandRepository) Upsert(ctx context.Context, name string) (*domain.Brand, error) {
	// DO UPDATE instead of DO NOTHING so RETURNING yields the existing row on
	// conflict
	query := `
		INSERT INTO fafa_brands (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at
	`

	var b domain.Brand
	err := r.db.QueryRowContext(ctx, query, uuid.New(), name, time.Now()).
		Scan(&b.ID, &b.Name, &b.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert brand", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	return &b, nil
}
