package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/metrics"
)

const syncJobName = "catalog-sync"

// CatalogAPI is the slice of the retailer client the syncer needs.
type CatalogAPI interface {
	Categories(ctx context.Context) ([]CategoryNode, error)
	ProductIDs(ctx context.Context, categoryID int64) ([]string, error)
	Product(ctx context.Context, id string) (*ProductDetail, error)
}

// SyncSummary counts what one sync run did.
type SyncSummary struct {
	Categories      int
	ProductsCreated int
	ProductsUpdated int
	ProductsSkipped int
	PricesRecorded  int
}

// Syncer mirrors the retailer catalog into local storage.
type Syncer struct {
	client  CatalogAPI
	db      *gorm.DB
	metrics *metrics.JobMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewSyncer(client CatalogAPI, db *gorm.DB, jobMetrics *metrics.JobMetrics, logg *logger.Logger) (*Syncer, error) {
	if client == nil {
		return nil, fmt.Errorf("catalog api client required")
	}
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &Syncer{
		client:  client,
		db:      db,
		metrics: jobMetrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Run syncs categories and products. Products already in storage are
// left untouched unless updateExisting is set; 404s on individual
// resources are skipped.
func (s *Syncer) Run(ctx context.Context, updateExisting bool) (SyncSummary, error) {
	start := s.now()
	var summary SyncSummary

	categories, err := s.client.Categories(ctx)
	if err != nil {
		s.metrics.IncFailure(syncJobName)
		return summary, fmt.Errorf("fetching categories: %w", err)
	}
	if err := s.upsertCategories(ctx, categories); err != nil {
		s.metrics.IncFailure(syncJobName)
		return summary, err
	}
	summary.Categories = len(categories)

	seen := make(map[string]struct{})
	for _, category := range categories {
		cctx := ctx
		if s.logg != nil {
			cctx = s.logg.WithCategoryID(ctx, category.ID)
		}
		ids, err := s.client.ProductIDs(cctx, category.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			s.metrics.IncFailure(syncJobName)
			return summary, fmt.Errorf("listing category %d: %w", category.ID, err)
		}

		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if err := s.syncProduct(cctx, id, category.ID, updateExisting, &summary); err != nil {
				s.metrics.IncFailure(syncJobName)
				return summary, err
			}
		}
	}

	s.metrics.ObserveDuration(syncJobName, s.now().Sub(start))
	s.metrics.IncSuccess(syncJobName)
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"categories": summary.Categories,
			"created":    summary.ProductsCreated,
			"updated":    summary.ProductsUpdated,
			"skipped":    summary.ProductsSkipped,
			"prices":     summary.PricesRecorded,
		}), "catalog sync finished")
	}
	return summary, nil
}

func (s *Syncer) upsertCategories(ctx context.Context, categories []CategoryNode) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, node := range categories {
			var existing models.Category
			err := tx.First(&existing, "id = ?", node.ID).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				created := models.Category{ID: node.ID, Name: node.Name, ParentID: node.ParentID}
				if err := tx.Create(&created).Error; err != nil {
					return fmt.Errorf("creating category %d: %w", node.ID, err)
				}
			case err != nil:
				return err
			default:
				existing.Name = node.Name
				existing.ParentID = node.ParentID
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("updating category %d: %w", node.ID, err)
				}
			}
		}
		return nil
	})
}

func (s *Syncer) syncProduct(ctx context.Context, id string, categoryID int64, updateExisting bool, summary *SyncSummary) error {
	var existing models.Product
	err := s.db.WithContext(ctx).First(&existing, "id = ?", id).Error
	exists := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if exists && !updateExisting {
		summary.ProductsSkipped++
		return nil
	}

	detail, err := s.client.Product(ctx, id)
	if errors.Is(err, ErrNotFound) {
		summary.ProductsSkipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetching product %s: %w", id, err)
	}

	priceChanged := !exists || !detail.Price.Equal(decimal.NewFromFloat(existing.Price))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.Product{
			ID:               detail.ID,
			EAN:              detail.EAN,
			Slug:             detail.Slug,
			Brand:            detail.Brand,
			Name:             detail.Name,
			Price:            detail.Price.InexactFloat64(),
			CategoryID:       categoryID,
			Description:      detail.Description,
			Origin:           detail.Origin,
			Packaging:        detail.Packaging,
			UnitName:         detail.UnitName,
			UnitSize:         detail.UnitSize,
			IsVariableWeight: detail.IsVariableWeight,
			IsPack:           detail.IsPack,
		}
		if exists {
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("updating product %s: %w", id, err)
			}
			summary.ProductsUpdated++
		} else {
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("creating product %s: %w", id, err)
			}
			summary.ProductsCreated++
		}

		if err := tx.Where("product_id = ?", detail.ID).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		for _, img := range detail.Images {
			image := models.ProductImage{
				ProductID:    detail.ID,
				ZoomURL:      img.ZoomURL,
				RegularURL:   img.RegularURL,
				ThumbnailURL: img.ThumbnailURL,
				Perspective:  img.Perspective,
			}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
		}

		if priceChanged {
			point := models.PriceHistory{
				ProductID: detail.ID,
				Price:     detail.Price.InexactFloat64(),
				Timestamp: s.now().UTC(),
			}
			if err := tx.Create(&point).Error; err != nil {
				return err
			}
			summary.PricesRecorded++
		}
		return nil
	})
}
