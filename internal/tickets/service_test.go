package tickets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/internal/matching"
	"github.com/mercapi/mercapi-backend/pkg/config"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
)

type fakeExtractor struct {
	ticket *gemini.Ticket
	err    error
	calls  int
}

func (e *fakeExtractor) ExtractTicket(context.Context, string) (*gemini.Ticket, error) {
	e.calls++
	return e.ticket, e.err
}

type fakeSnapshotter struct {
	products []catalog.ProductDTO
}

func (s *fakeSnapshotter) Snapshot(context.Context) ([]catalog.ProductDTO, error) {
	return s.products, nil
}

func newTicketService(t *testing.T, extracted *gemini.Ticket, products []catalog.ProductDTO) *Service {
	t.Helper()
	matcher := matching.New(config.MatcherConfig{Threshold: 60, NameWeight: 0.7, PriceWeight: 0.3})
	svc, err := NewService(&fakeExtractor{ticket: extracted}, &fakeSnapshotter{products: products}, matcher, 2000, nil)
	require.NoError(t, err)
	return svc
}

func ticketCatalog() []catalog.ProductDTO {
	return []catalog.ProductDTO{
		{
			ID: "1", Name: "Leche entera Hacendado", Price: 0.99, UnitSize: f(1),
			Nutrition: &catalog.NutritionDTO{Calories: f(63), Protein: f(3.1)},
		},
		{ID: "2", Name: "Arroz redondo", Price: 1.15},
	}
}

func TestProcessImageMatchesAndComputesStats(t *testing.T) {
	extracted := &gemini.Ticket{
		Items: []gemini.TicketItem{
			{Name: "LECHE ENTERA HACENDADO", Quantity: f(2), UnitPrice: f(0.99), TotalPrice: f(1.98)},
		},
		TotalPrice: f(1.98),
	}
	svc := newTicketService(t, extracted, ticketCatalog())

	got, err := svc.ProcessImage(context.Background(), "/tmp/receipt.jpg")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	item := got.Items[0]
	require.NotNil(t, item.Product)
	assert.Equal(t, "1", item.Product.ID)
	require.NotNil(t, item.Score)
	assert.Equal(t, 2.0, item.Quantity)
	require.NotNil(t, item.Stats)
	require.NotNil(t, item.Stats.Calories)
	assert.InDelta(t, 63*2*10, *item.Stats.Calories, 1e-9)
	require.NotNil(t, item.Stats.KcalPerEuro)
	assert.InDelta(t, 1260/1.98, *item.Stats.KcalPerEuro, 1e-9)
}

func TestProcessImageKeepsUnmatchedItemsWithNilStats(t *testing.T) {
	extracted := &gemini.Ticket{
		Items: []gemini.TicketItem{
			{Name: "PAPEL HIGIENICO DOBLE", Quantity: f(1), TotalPrice: f(2.50)},
		},
	}
	svc := newTicketService(t, extracted, ticketCatalog())

	got, err := svc.ProcessImage(context.Background(), "/tmp/receipt.jpg")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].Product)
	assert.Nil(t, got.Items[0].Score)
	assert.Nil(t, got.Items[0].Stats)
	assert.Equal(t, "PAPEL HIGIENICO DOBLE", got.Items[0].OriginalName)
}

func TestProcessImageDefaultsTicketTotalToItemSum(t *testing.T) {
	extracted := &gemini.Ticket{
		Items: []gemini.TicketItem{
			{Name: "LECHE ENTERA HACENDADO", TotalPrice: f(3.50)},
			{Name: "ARROZ REDONDO", TotalPrice: f(2.00)},
			{Name: "BOLSA", TotalPrice: nil},
		},
	}
	svc := newTicketService(t, extracted, ticketCatalog())

	got, err := svc.ProcessImage(context.Background(), "/tmp/receipt.jpg")
	require.NoError(t, err)
	require.NotNil(t, got.TotalPrice)
	assert.InDelta(t, 5.50, *got.TotalPrice, 1e-9)
}

func TestProcessImageKeepsExtractedTotalWhenPresent(t *testing.T) {
	extracted := &gemini.Ticket{
		TotalPrice: f(9.99),
		Items: []gemini.TicketItem{
			{Name: "ARROZ REDONDO", TotalPrice: f(2.00)},
		},
	}
	svc := newTicketService(t, extracted, ticketCatalog())

	got, err := svc.ProcessImage(context.Background(), "/tmp/receipt.jpg")
	require.NoError(t, err)
	require.NotNil(t, got.TotalPrice)
	assert.Equal(t, 9.99, *got.TotalPrice)
}

func TestProcessImageNilQuantityDefaultsToOne(t *testing.T) {
	extracted := &gemini.Ticket{
		Items: []gemini.TicketItem{
			{Name: "LECHE ENTERA HACENDADO", TotalPrice: f(0.99)},
		},
	}
	svc := newTicketService(t, extracted, ticketCatalog())

	got, err := svc.ProcessImage(context.Background(), "/tmp/receipt.jpg")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 1.0, got.Items[0].Quantity)
}
