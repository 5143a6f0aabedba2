package nutrition

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercapi/mercapi-backend/pkg/db/models"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
)

type fakeStore struct {
	candidates []models.Product
	upserts    map[string]models.NutritionalInformation
}

func (s *fakeStore) ListCandidates(context.Context, bool) ([]models.Product, error) {
	return s.candidates, nil
}

func (s *fakeStore) Upsert(_ context.Context, productID string, info models.NutritionalInformation) error {
	if s.upserts == nil {
		s.upserts = map[string]models.NutritionalInformation{}
	}
	s.upserts[productID] = info
	return nil
}

type fakeExtractor struct {
	// perImage maps fetched file contents (the image URL written by
	// fakeFetcher) to a result; nil entries mean "no calories found"
	perImage      map[string]*gemini.Nutrition
	estimation    *gemini.Nutrition
	estimationErr error

	extractCalls  []string
	estimateCalls int
}

func (e *fakeExtractor) ExtractNutrition(_ context.Context, imagePath string) (*gemini.Nutrition, error) {
	content, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, err
	}
	url := string(content)
	e.extractCalls = append(e.extractCalls, url)
	if info, ok := e.perImage[url]; ok && info != nil {
		return info, nil
	}
	return &gemini.Nutrition{}, nil
}

func (e *fakeExtractor) EstimateNutrition(context.Context, string, string, string) (*gemini.Nutrition, error) {
	e.estimateCalls++
	return e.estimation, e.estimationErr
}

// fakeFetcher writes the URL into a real temp file so the service's
// deferred cleanup has something to remove.
type fakeFetcher struct {
	fetched []string
	failFor map[string]bool
	files   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.fetched = append(f.fetched, url)
	if f.failFor[url] {
		return "", fmt.Errorf("download failed for %s", url)
	}
	tmp, err := os.CreateTemp("", "nutrition-fake-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.WriteString(url); err != nil {
		tmp.Close()
		return "", err
	}
	tmp.Close()
	f.files = append(f.files, tmp.Name())
	return tmp.Name(), nil
}

func foodProduct(id string, imageURLs ...string) models.Product {
	p := models.Product{
		ID: id, EAN: "e", Slug: "s", Name: "Producto " + id, Price: 1,
		Category: &models.Category{ID: 1, Name: "Arroz y pasta"},
	}
	for _, url := range imageURLs {
		p.Images = append(p.Images, models.ProductImage{ProductID: id, ZoomURL: url})
	}
	return p
}

func withCalories(v float64) *gemini.Nutrition {
	return &gemini.Nutrition{Calories: num(v), Protein: num(10)}
}

func newNutritionService(t *testing.T, store Store, extractor Extractor, fetcher ImageFetcher) *Service {
	t.Helper()
	svc, err := NewService(store, extractor, fetcher, nil, nil)
	require.NoError(t, err)
	return svc
}

func TestRunWalksImagesNewestFirstAndStopsEarly(t *testing.T) {
	store := &fakeStore{candidates: []models.Product{foodProduct("p1", "A", "B", "C")}}
	extractor := &fakeExtractor{perImage: map[string]*gemini.Nutrition{
		"B": withCalories(250),
	}}
	fetcher := &fakeFetcher{}
	svc := newNutritionService(t, store, extractor, fetcher)

	summary, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
	assert.Zero(t, summary.Estimated)

	// newest (C) first, stop once B yields calories, A never touched
	assert.Equal(t, []string{"C", "B"}, fetcher.fetched)
	assert.Equal(t, []string{"C", "B"}, extractor.extractCalls)
	assert.Zero(t, extractor.estimateCalls)

	require.Contains(t, store.upserts, "p1")
	require.NotNil(t, store.upserts["p1"].Calories)
	assert.Equal(t, 250.0, *store.upserts["p1"].Calories)

	for _, file := range fetcher.files {
		_, err := os.Stat(file)
		assert.True(t, os.IsNotExist(err), "temp image %s must be removed", file)
	}
}

func TestRunFallsBackToEstimationWhenImagesYieldNothing(t *testing.T) {
	store := &fakeStore{candidates: []models.Product{foodProduct("p1", "A")}}
	extractor := &fakeExtractor{estimation: withCalories(500)}
	fetcher := &fakeFetcher{}
	svc := newNutritionService(t, store, extractor, fetcher)

	summary, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Estimated)
	assert.Zero(t, summary.Extracted)
	assert.Equal(t, 1, extractor.estimateCalls)

	require.Contains(t, store.upserts, "p1")
	assert.Equal(t, 500.0, *store.upserts["p1"].Calories)
}

func TestRunEstimatesProductsWithoutImages(t *testing.T) {
	store := &fakeStore{candidates: []models.Product{foodProduct("p1")}}
	extractor := &fakeExtractor{estimation: withCalories(42)}
	svc := newNutritionService(t, store, extractor, &fakeFetcher{})

	summary, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Estimated)
	assert.Empty(t, extractor.extractCalls)
}

func TestRunSkipsNonFoodWithoutExtractorCalls(t *testing.T) {
	soap := foodProduct("soap")
	soap.Category = &models.Category{ID: 2, Name: "Limpieza y hogar"}
	store := &fakeStore{candidates: []models.Product{soap}}
	extractor := &fakeExtractor{}
	svc := newNutritionService(t, store, extractor, &fakeFetcher{})

	summary, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SkippedNonFood)
	assert.Empty(t, extractor.extractCalls)
	assert.Zero(t, extractor.estimateCalls)
	assert.Empty(t, store.upserts)
}

func TestRunContinuesPastImageDownloadFailures(t *testing.T) {
	store := &fakeStore{candidates: []models.Product{foodProduct("p1", "A", "B", "C")}}
	extractor := &fakeExtractor{perImage: map[string]*gemini.Nutrition{
		"A": withCalories(300),
	}}
	fetcher := &fakeFetcher{failFor: map[string]bool{"C": true, "B": true}}
	svc := newNutritionService(t, store, extractor, fetcher)

	summary, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Extracted)
	assert.Equal(t, []string{"C", "B", "A"}, fetcher.fetched)
	assert.Equal(t, []string{"A"}, extractor.extractCalls)
}

func TestRunCountsFailureWhenEstimationAlsoFails(t *testing.T) {
	store := &fakeStore{candidates: []models.Product{foodProduct("p1")}}
	extractor := &fakeExtractor{estimationErr: fmt.Errorf("model unavailable")}
	svc := newNutritionService(t, store, extractor, &fakeFetcher{})

	summary, err := svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Empty(t, store.upserts)
}

func TestBackfillIdempotentOnCompletedProducts(t *testing.T) {
	// end to end against storage: once a product has calories, a second
	// missing-only run finds no candidates and never calls the extractor
	conn := openTestDB(t)
	repo := NewRepository(conn)
	seedProduct(t, conn, "p1")

	extractor := &fakeExtractor{estimation: withCalories(120)}
	svc := newNutritionService(t, repo, extractor, &fakeFetcher{})
	ctx := context.Background()

	first, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Candidates)
	assert.Equal(t, 1, extractor.estimateCalls)

	second, err := svc.Run(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, second.Candidates)
	assert.Equal(t, 1, extractor.estimateCalls, "second run must not touch the extractor")
	assert.Empty(t, extractor.extractCalls)
}
