package nutrition

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
	"github.com/mercapi/mercapi-backend/pkg/logger"
	"github.com/mercapi/mercapi-backend/pkg/metrics"
)

const jobName = "nutrition-backfill"

// Extractor is the AI collaborator: label reading plus the metadata
// estimation fallback.
type Extractor interface {
	ExtractNutrition(ctx context.Context, imagePath string) (*gemini.Nutrition, error)
	EstimateNutrition(ctx context.Context, name, description, category string) (*gemini.Nutrition, error)
}

// Store is the persistence surface of the pipeline.
type Store interface {
	ListCandidates(ctx context.Context, reprocessAll bool) ([]models.Product, error)
	Upsert(ctx context.Context, productID string, info models.NutritionalInformation) error
}

// Summary counts what one backfill run did.
type Summary struct {
	Candidates     int
	Extracted      int
	Estimated      int
	SkippedNonFood int
	Failed         int
}

// Service walks backfill candidates and fills their nutrition rows from
// label photos, falling back to model-based estimation.
type Service struct {
	store     Store
	extractor Extractor
	fetcher   ImageFetcher
	metrics   *metrics.JobMetrics
	logg      *logger.Logger
}

func NewService(store Store, extractor Extractor, fetcher ImageFetcher, jobMetrics *metrics.JobMetrics, logg *logger.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("nutrition store required")
	}
	if extractor == nil {
		return nil, fmt.Errorf("nutrition extractor required")
	}
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}
	return &Service{
		store:     store,
		extractor: extractor,
		fetcher:   fetcher,
		metrics:   jobMetrics,
		logg:      logg,
	}, nil
}

// Run processes every candidate product once. Per-product failures are
// counted and logged; they never abort the run.
func (s *Service) Run(ctx context.Context, reprocessAll bool) (Summary, error) {
	start := time.Now()
	var summary Summary

	candidates, err := s.store.ListCandidates(ctx, reprocessAll)
	if err != nil {
		s.metrics.IncFailure(jobName)
		return summary, err
	}
	summary.Candidates = len(candidates)

	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		s.processProduct(ctx, &candidates[i], &summary)
	}

	s.metrics.ObserveDuration(jobName, time.Since(start))
	s.metrics.IncSuccess(jobName)
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"candidates": summary.Candidates,
			"extracted":  summary.Extracted,
			"estimated":  summary.Estimated,
			"skipped":    summary.SkippedNonFood,
			"failed":     summary.Failed,
		}), "nutrition backfill finished")
	}
	return summary, nil
}

func (s *Service) processProduct(ctx context.Context, product *models.Product, summary *Summary) {
	pctx := ctx
	if s.logg != nil {
		pctx = s.logg.WithProductID(ctx, product.ID)
	}

	if !isFoodProduct(product) {
		summary.SkippedNonFood++
		s.metrics.IncProcessed(jobName, "skipped_non_food")
		if s.logg != nil {
			s.logg.Warn(pctx, "skipping non-food product")
		}
		return
	}

	info, estimated := s.extract(pctx, product)
	if info == nil {
		summary.Failed++
		s.metrics.IncProcessed(jobName, "failed")
		return
	}

	if err := s.store.Upsert(pctx, product.ID, cleanNutrition(info)); err != nil {
		summary.Failed++
		s.metrics.IncProcessed(jobName, "failed")
		if s.logg != nil {
			s.logg.Error(pctx, "persisting nutrition facts", err)
		}
		return
	}

	if estimated {
		summary.Estimated++
		s.metrics.IncProcessed(jobName, "estimated")
	} else {
		summary.Extracted++
		s.metrics.IncProcessed(jobName, "extracted")
	}
}

// extract tries the product's images newest-first and stops at the
// first one yielding a calorie value, then falls back to estimation
// from metadata. The second return reports whether the fallback fired.
func (s *Service) extract(ctx context.Context, product *models.Product) (*gemini.Nutrition, bool) {
	for i := len(product.Images) - 1; i >= 0; i-- {
		info := s.extractFromImage(ctx, product.Images[i].ZoomURL)
		if info != nil && info.Calories.Valid {
			return info, false
		}
	}

	if s.logg != nil {
		s.logg.Warn(ctx, "no nutrition facts found in images, estimating from metadata")
	}
	info, err := s.extractor.EstimateNutrition(ctx, product.Name, stringOrEmpty(product.Description), categoryName(product))
	if err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "estimating nutrition facts", err)
		}
		return nil, false
	}
	return info, true
}

// extractFromImage downloads one image and runs the extractor on it.
// The temp file is removed whatever happens; errors only skip this
// image.
func (s *Service) extractFromImage(ctx context.Context, url string) *gemini.Nutrition {
	path, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "image_url", url), "downloading label image", err)
		}
		return nil
	}
	defer func() {
		if err := os.Remove(path); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "path", path), "removing temp image failed")
		}
	}()

	info, err := s.extractor.ExtractNutrition(ctx, path)
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "image_url", url), "extracting nutrition facts", err)
		}
		return nil
	}
	return info
}

func isFoodProduct(p *models.Product) bool {
	if p.Category == nil {
		return false
	}
	return IsFoodCategory(p.Category.Name)
}

func categoryName(p *models.Product) string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
