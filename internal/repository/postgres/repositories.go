package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		ProductSet:    NewProductSetRepository(db, logger),
		Product:       NewProductRepository(db, logger),
		Variant:       NewVariantRepository(db, logger),
		VariantOption: NewVariantOptionRepository(db, logger),
		Inventory:     NewInventoryRepository(db, logger),
		Settings:      NewSettingsRepository(db, logger),
		Brand:         NewBrandRepository(db, logger),
	}
}
