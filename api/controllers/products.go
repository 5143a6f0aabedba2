package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercapi/mercapi-backend/api/responses"
	"github.com/mercapi/mercapi-backend/api/validators"
	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/internal/matching"
	pkgerrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// CatalogService is the read surface the product endpoints consume.
type CatalogService interface {
	Snapshot(ctx context.Context) ([]catalog.ProductDTO, error)
	FindByID(ctx context.Context, id string) (*catalog.ProductDTO, error)
	Page(ctx context.Context, page, size int) ([]catalog.ProductDTO, int, error)
	Categories(ctx context.Context, page, size int) ([]catalog.CategoryDTO, int, error)
	HighProtein(ctx context.Context) ([]catalog.ProductDTO, error)
}

// CandidateFinder scores free-text names against catalog products.
type CandidateFinder interface {
	Closest(products []catalog.ProductDTO, name string, unitPrice *float64, threshold float64, maxResults int) []matching.Match
}

type pageEnvelope struct {
	Items any `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

// ListProducts returns one page of the cached catalog snapshot.
func ListProducts(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", defaultPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, total, err := svc.Page(r.Context(), page, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pageEnvelope{Items: items, Page: page, Size: size, Total: total})
	}
}

// GetProduct returns a single product with its relations.
func GetProduct(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID := chi.URLParam(r, "productId")
		if productID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id missing"))
			return
		}

		product, err := svc.FindByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// HighProteinProducts returns products with a recorded protein content,
// uncached so callers always see fresh nutrition rows.
func HighProteinProducts(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		items, err := svc.HighProtein(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

type closestMatch struct {
	Product catalog.ProductDTO `json:"product"`
	Score   float64            `json:"score"`
}

// ClosestProducts scores a free-text name, optionally with a unit price,
// against the catalog snapshot.
func ClosestProducts(svc CatalogService, finder CandidateFinder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || finder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "matching service unavailable"))
			return
		}

		name, err := validators.RequireQueryString(r, "name")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unitPrice, err := validators.ParseQueryFloat(r, "unit_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		threshold, err := validators.ParseQueryFloat(r, "threshold")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		maxResults, err := validators.ParseQueryInt(r, "max_results", 5, 1, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.Snapshot(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var thresholdVal float64
		if threshold != nil {
			thresholdVal = *threshold
		}

		matches := finder.Closest(products, name, unitPrice, thresholdVal, maxResults)
		out := make([]closestMatch, 0, len(matches))
		for _, m := range matches {
			out = append(out, closestMatch{Product: m.Product, Score: m.Score})
		}
		responses.WriteSuccess(w, out)
	}
}

// ListCategories returns one page of the category tree, parents first.
func ListCategories(svc CatalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", defaultPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, total, err := svc.Categories(r.Context(), page, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pageEnvelope{Items: items, Page: page, Size: size, Total: total})
	}
}
