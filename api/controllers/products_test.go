package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/internal/matching"
	"github.com/mercapi/mercapi-backend/pkg/config"
	pkgerrors "github.com/mercapi/mercapi-backend/pkg/errors"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

type testCatalogService struct {
	snapshotFn    func(ctx context.Context) ([]catalog.ProductDTO, error)
	findByIDFn    func(ctx context.Context, id string) (*catalog.ProductDTO, error)
	pageFn        func(ctx context.Context, page, size int) ([]catalog.ProductDTO, int, error)
	categoriesFn  func(ctx context.Context, page, size int) ([]catalog.CategoryDTO, int, error)
	highProteinFn func(ctx context.Context) ([]catalog.ProductDTO, error)
}

func (s *testCatalogService) Snapshot(ctx context.Context) ([]catalog.ProductDTO, error) {
	if s.snapshotFn != nil {
		return s.snapshotFn(ctx)
	}
	return nil, nil
}

func (s *testCatalogService) FindByID(ctx context.Context, id string) (*catalog.ProductDTO, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (s *testCatalogService) Page(ctx context.Context, page, size int) ([]catalog.ProductDTO, int, error) {
	if s.pageFn != nil {
		return s.pageFn(ctx, page, size)
	}
	return nil, 0, nil
}

func (s *testCatalogService) Categories(ctx context.Context, page, size int) ([]catalog.CategoryDTO, int, error) {
	if s.categoriesFn != nil {
		return s.categoriesFn(ctx, page, size)
	}
	return nil, 0, nil
}

func (s *testCatalogService) HighProtein(ctx context.Context) ([]catalog.ProductDTO, error) {
	if s.highProteinFn != nil {
		return s.highProteinFn(ctx)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func configMatcher() config.MatcherConfig {
	return config.MatcherConfig{Threshold: 60, NameWeight: 0.7, PriceWeight: 0.3}
}

func TestListProductsPassesPaging(t *testing.T) {
	svc := &testCatalogService{
		pageFn: func(ctx context.Context, page, size int) ([]catalog.ProductDTO, int, error) {
			if page != 2 || size != 5 {
				t.Fatalf("unexpected paging %d/%d", page, size)
			}
			return []catalog.ProductDTO{{ID: "4066", Name: "Arroz redondo"}}, 11, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&size=5", nil)
	resp := httptest.NewRecorder()
	ListProducts(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data struct {
			Items []catalog.ProductDTO `json:"items"`
			Page  int                  `json:"page"`
			Size  int                  `json:"size"`
			Total int                  `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Total != 11 || len(envelope.Data.Items) != 1 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
	if envelope.Data.Items[0].ID != "4066" {
		t.Fatalf("unexpected product %+v", envelope.Data.Items[0])
	}
}

func TestListProductsRejectsBadPage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=zero", nil)
	resp := httptest.NewRecorder()
	ListProducts(&testCatalogService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := &testCatalogService{
		findByIDFn: func(ctx context.Context, id string) (*catalog.ProductDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/9999", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", "9999")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	GetProduct(svc, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestGetProductFound(t *testing.T) {
	svc := &testCatalogService{
		findByIDFn: func(ctx context.Context, id string) (*catalog.ProductDTO, error) {
			if id != "4066" {
				t.Fatalf("unexpected id %q", id)
			}
			return &catalog.ProductDTO{ID: "4066", Name: "Arroz redondo"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/4066", nil)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("productId", "4066")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	resp := httptest.NewRecorder()
	GetProduct(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
}

func TestClosestProductsRequiresName(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/closest", nil)
	resp := httptest.NewRecorder()
	ClosestProducts(&testCatalogService{}, matching.New(configMatcher()), testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestClosestProductsMatchesSnapshot(t *testing.T) {
	svc := &testCatalogService{
		snapshotFn: func(ctx context.Context) ([]catalog.ProductDTO, error) {
			return []catalog.ProductDTO{
				{ID: "1", Name: "Leche entera", Price: 1.15},
				{ID: "2", Name: "Detergente lavadora", Price: 6.50},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/closest?name=leche+entera&unit_price=1.15", nil)
	resp := httptest.NewRecorder()
	ClosestProducts(svc, matching.New(configMatcher()), testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data []struct {
			Product catalog.ProductDTO `json:"product"`
			Score   float64            `json:"score"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected one match, got %d", len(envelope.Data))
	}
	if envelope.Data[0].Product.ID != "1" {
		t.Fatalf("unexpected match %+v", envelope.Data[0])
	}
	if envelope.Data[0].Score < 60 {
		t.Fatalf("score below threshold: %f", envelope.Data[0].Score)
	}
}

func TestHighProteinProducts(t *testing.T) {
	called := false
	svc := &testCatalogService{
		highProteinFn: func(ctx context.Context) ([]catalog.ProductDTO, error) {
			called = true
			return []catalog.ProductDTO{{ID: "4210", Name: "Lentejas pardinas"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/high-protein", nil)
	resp := httptest.NewRecorder()
	HighProteinProducts(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !called {
		t.Fatal("expected service called")
	}
}

func TestListCategories(t *testing.T) {
	svc := &testCatalogService{
		categoriesFn: func(ctx context.Context, page, size int) ([]catalog.CategoryDTO, int, error) {
			return []catalog.CategoryDTO{{ID: 12, Name: "Arroz, legumbres y pasta"}}, 1, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil)
	resp := httptest.NewRecorder()
	ListCategories(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Items []catalog.CategoryDTO `json:"items"`
			Total int                   `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Total != 1 || len(envelope.Data.Items) != 1 {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}
