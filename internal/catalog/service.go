package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/mercapi/mercapi-backend/pkg/cache"
	pkgerrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

const (
	snapshotKey   = "all_products"
	categoriesKey = "categories"
)

// Lister is the storage surface the service reads through.
type Lister interface {
	ListAll(ctx context.Context) ([]ProductDTO, error)
	ListWithProtein(ctx context.Context) ([]ProductDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

// Service serves catalog reads from a TTL-cached snapshot. Concurrent
// cache misses collapse into one storage load.
type Service struct {
	repo       Lister
	products   *cache.Cache[[]ProductDTO]
	categories *cache.Cache[[]CategoryDTO]
	logg       *logger.Logger
}

// NewService constructs the catalog read service.
func NewService(repo Lister, ttl time.Duration, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &Service{
		repo:       repo,
		products:   cache.New[[]ProductDTO](ttl),
		categories: cache.New[[]CategoryDTO](ttl),
		logg:       logg,
	}, nil
}

// Snapshot returns the cached catalog, loading it once per TTL window.
func (s *Service) Snapshot(ctx context.Context) ([]ProductDTO, error) {
	return s.products.Do(ctx, snapshotKey, func(ctx context.Context) ([]ProductDTO, error) {
		start := time.Now()
		all, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading catalog snapshot")
		}
		if s.logg != nil {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"products":    len(all),
				"duration_ms": time.Since(start).Milliseconds(),
			}), "catalog snapshot refreshed")
		}
		return all, nil
	})
}

// FindByID looks a product up in the snapshot.
func (s *Service) FindByID(ctx context.Context, id string) (*ProductDTO, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			p := all[i]
			return &p, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", id))
}

// Page slices the snapshot. Page numbers start at 1; the second return
// value is the total product count.
func (s *Service) Page(ctx context.Context, page, size int) ([]ProductDTO, int, error) {
	all, err := s.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}
	return paginate(all, page, size), len(all), nil
}

// Categories returns one cached page of the category tree.
func (s *Service) Categories(ctx context.Context, page, size int) ([]CategoryDTO, int, error) {
	all, err := s.categories.Do(ctx, categoriesKey, func(ctx context.Context) ([]CategoryDTO, error) {
		cats, err := s.repo.ListCategories(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading categories")
		}
		return cats, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return paginate(all, page, size), len(all), nil
}

// HighProtein bypasses the cache: backfill writes must be visible on the
// next request, not after the snapshot expires.
func (s *Service) HighProtein(ctx context.Context) ([]ProductDTO, error) {
	return s.repo.ListWithProtein(ctx)
}

// Invalidate drops both cached snapshots. The sync job calls this after
// a catalog update.
func (s *Service) Invalidate() {
	s.products.Delete(snapshotKey)
	s.categories.Delete(categoriesKey)
}

func paginate[T any](all []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(all) {
		return []T{}
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	out := make([]T, end-start)
	copy(out, all[start:end])
	return out
}
