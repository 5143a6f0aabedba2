package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/internal/matching"
	"github.com/mercapi/mercapi-backend/internal/reports"
	"github.com/mercapi/mercapi-backend/internal/tickets"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

type routerCatalog struct{}

func (routerCatalog) Snapshot(ctx context.Context) ([]catalog.ProductDTO, error) {
	return []catalog.ProductDTO{{ID: "4066", Name: "Arroz redondo", Price: 1.25}}, nil
}

func (routerCatalog) FindByID(ctx context.Context, id string) (*catalog.ProductDTO, error) {
	return &catalog.ProductDTO{ID: id}, nil
}

func (routerCatalog) Page(ctx context.Context, page, size int) ([]catalog.ProductDTO, int, error) {
	return []catalog.ProductDTO{{ID: "4066"}}, 1, nil
}

func (routerCatalog) Categories(ctx context.Context, page, size int) ([]catalog.CategoryDTO, int, error) {
	return []catalog.CategoryDTO{{ID: 12}}, 1, nil
}

func (routerCatalog) HighProtein(ctx context.Context) ([]catalog.ProductDTO, error) {
	return nil, nil
}

type routerTickets struct{}

func (routerTickets) ProcessImage(ctx context.Context, path string) (*tickets.TicketStats, error) {
	return &tickets.TicketStats{}, nil
}

type routerReports struct{}

func (routerReports) SubmitWrongMatch(ctx context.Context, report reports.WrongMatchReport) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (routerReports) SubmitWrongNutrition(ctx context.Context, report reports.WrongNutritionReport) (uuid.UUID, error) {
	return uuid.New(), nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.App.CORSOrigin = "http://localhost:5173"
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(
		cfg, logg, okPinger{}, okPinger{}, prometheus.NewRegistry(),
		routerCatalog{}, matching.New(cfg.Matcher), routerTickets{}, routerReports{},
	)
}

func TestRouterRoutes(t *testing.T) {
	router := newTestRouter(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health/live", http.StatusOK},
		{http.MethodGet, "/health/ready", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/api/v1/products", http.StatusOK},
		{http.MethodGet, "/api/v1/products/4066", http.StatusOK},
		{http.MethodGet, "/api/v1/products/closest?name=arroz", http.StatusOK},
		{http.MethodGet, "/api/v1/products/high-protein", http.StatusOK},
		{http.MethodGet, "/api/v1/categories", http.StatusOK},
		{http.MethodGet, "/api/v1/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != tc.status {
			t.Fatalf("%s %s: got %d want %d (%s)", tc.method, tc.path, resp.Code, tc.status, resp.Body.String())
		}
	}
}

func TestRouterSetsRequestID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
}
