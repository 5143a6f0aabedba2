package nutrition

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
)

// Repository selects backfill candidates and persists extracted facts.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListCandidates returns products the backfill should look at, with
// category and images attached. Images keep insertion order; the
// pipeline walks them in reverse. In missing-only mode a product
// qualifies when it has no nutrition row at all; reprocess-all also
// picks up rows whose calorie value is still unknown.
func (r *Repository) ListCandidates(ctx context.Context, reprocessAll bool) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Joins("LEFT JOIN nutritional_information ni ON ni.product_id = products.id")
	if reprocessAll {
		q = q.Where("ni.id IS NULL OR ni.calories IS NULL")
	} else {
		q = q.Where("ni.id IS NULL")
	}

	var rows []models.Product
	if err := q.Order("products.id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Upsert writes the cleaned facts for a product, overwriting every
// field of an existing row or inserting a new one. One commit per
// product.
func (r *Repository) Upsert(ctx context.Context, productID string, info models.NutritionalInformation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.NutritionalInformation
		err := tx.First(&existing, "product_id = ?", productID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			info.ProductID = productID
			return tx.Create(&info).Error
		case err != nil:
			return err
		}

		info.ID = existing.ID
		info.ProductID = productID
		return tx.Save(&info).Error
	})
}
