package catalog

import (
	"context"

	"gorm.io/gorm"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
)

// Repository loads catalog rows and converts them into detached DTOs.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Images").
		Preload("Nutrition").
		Preload("PriceHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		})
}

// ListAll loads the whole catalog with every relation eagerly attached.
// One call issues a fixed number of queries regardless of catalog size;
// readers of the returned slice never touch storage again.
func (r *Repository) ListAll(ctx context.Context) ([]ProductDTO, error) {
	var rows []models.Product
	if err := r.withRelations(ctx).Order("products.name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// ListWithProtein returns products with a known, positive protein value.
// Always hits storage so callers see backfill results immediately.
func (r *Repository) ListWithProtein(ctx context.Context) ([]ProductDTO, error) {
	var rows []models.Product
	err := r.withRelations(ctx).
		Joins("JOIN nutritional_information ni ON ni.product_id = products.id").
		Where("ni.protein IS NOT NULL AND ni.protein > 0").
		Order("products.name ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return toDTOs(rows), nil
}

// ListCategories returns every category ordered by id, parents first.
func (r *Repository) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).
		Order("parent_id IS NOT NULL, id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, 0, len(rows))
	for _, c := range rows {
		out = append(out, CategoryDTO{ID: c.ID, Name: c.Name, ParentID: copyInt(c.ParentID)})
	}
	return out, nil
}

func toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, productToDTO(row))
	}
	return out
}
