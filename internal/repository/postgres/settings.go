package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/pkg/errors"
)

type settingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new app settings repository
func NewSettingsRepository(db *sql.DB, logger *zap.Logger) *settingsRepository {
	return &settingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *settingsRepository) GetAll(ctx context.Context) ([]*domain.AppSetting, error) {
	query := `
		SELECT key, value, updated_at
		FROM fafa_app_settings
		ORDER BY key ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to get settings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var settings []*domain.AppSetting
	for rows.Next() {
		var s domain.AppSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, &s)
	}

	return settings, rows.Err()
}

func (r *settingsRepository) GetMap(ctx context.Context) (map[string]string, error) {
	settings, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	m := make(map[string]string, len(settings))
	for _, s := range settings {
		m[s.Key] = s.Value
	}
	return m, nil
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*domain.AppSetting, error) {
	query := `
		SELECT key, value, updated_at
		FROM fafa_app_settings
		WHERE key = $1
	`

	var s domain.AppSetting
	err := r.db.QueryRowContext(ctx, query, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "app_setting", ID: key}
	}
	if err != nil {
		r.logger.Error("Failed to get setting", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, key, value string) (*domain.AppSetting, error) {
	query := `
		INSERT INTO fafa_app_settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	s := domain.AppSetting{Key: key, Value: value, UpdatedAt: time.Now()}

	if _, err := r.db.ExecContext(ctx, query, s.Key, s.Value, s.UpdatedAt); err != nil {
		r.logger.Error("Failed to upsert setting", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &s, nil
}
