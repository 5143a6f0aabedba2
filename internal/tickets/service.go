package tickets

import (
	"context"
	"fmt"

	"github.com/mercapi/mercapi-backend/internal/catalog"
	"github.com/mercapi/mercapi-backend/internal/matching"
	"github.com/mercapi/mercapi-backend/pkg/gemini"
	"github.com/mercapi/mercapi-backend/pkg/logger"
)

// Extractor reads a receipt photo into structured line items.
type Extractor interface {
	ExtractTicket(ctx context.Context, imagePath string) (*gemini.Ticket, error)
}

// Snapshotter serves the catalog the items are matched against.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]catalog.ProductDTO, error)
}

// ProductMatcher scores one receipt line against the catalog.
type ProductMatcher interface {
	Best(products []catalog.ProductDTO, name string, unitPrice *float64) *matching.Match
}

// Service turns a receipt image into per-item nutrition and cost stats.
type Service struct {
	extractor Extractor
	catalog   Snapshotter
	matcher   ProductMatcher
	dailyKcal float64
	logg      *logger.Logger
}

func NewService(extractor Extractor, cat Snapshotter, matcher ProductMatcher, dailyKcal float64, logg *logger.Logger) (*Service, error) {
	if extractor == nil {
		return nil, fmt.Errorf("ticket extractor required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if matcher == nil {
		return nil, fmt.Errorf("matcher required")
	}
	if dailyKcal <= 0 {
		dailyKcal = DefaultDailyKcal
	}
	return &Service{
		extractor: extractor,
		catalog:   cat,
		matcher:   matcher,
		dailyKcal: dailyKcal,
		logg:      logg,
	}, nil
}

// ProcessImage extracts the receipt at path, matches every line item
// against the catalog snapshot and computes item stats. Items nothing
// matched stay in the result with nil product and stats.
func (s *Service) ProcessImage(ctx context.Context, path string) (*TicketStats, error) {
	extracted, err := s.extractor.ExtractTicket(ctx, path)
	if err != nil {
		return nil, err
	}

	products, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	result := &TicketStats{
		TicketNumber: extracted.TicketNumber,
		Date:         extracted.Date,
		Time:         extracted.Time,
		TotalPrice:   extracted.TotalPrice,
		Items:        make([]TicketItem, 0, len(extracted.Items)),
	}

	for _, line := range extracted.Items {
		item := TicketItem{
			OriginalName: line.Name,
			Quantity:     quantityOrOne(line.Quantity),
			UnitPrice:    line.UnitPrice,
			TotalPrice:   line.TotalPrice,
		}

		match := s.matcher.Best(products, line.Name, line.UnitPrice)
		if match == nil {
			if s.logg != nil {
				s.logg.Warn(s.logg.WithField(ctx, "item_name", line.Name), "no catalog match for receipt item")
			}
			result.Items = append(result.Items, item)
			continue
		}

		product := match.Product
		score := match.Score
		item.Product = &product
		item.Score = &score
		item.Stats = computeItemStats(&product, item.Quantity, line.TotalPrice, s.dailyKcal)
		result.Items = append(result.Items, item)
	}

	if result.TotalPrice == nil {
		result.TotalPrice = sumItemTotals(result.Items)
	}
	return result, nil
}

// quantityOrOne defaults a missing extracted quantity to one unit.
func quantityOrOne(q *float64) float64 {
	if q == nil || *q <= 0 {
		return 1
	}
	return *q
}

// sumItemTotals adds the known item totals, nil when none is known.
func sumItemTotals(items []TicketItem) *float64 {
	var sum float64
	seen := false
	for _, item := range items {
		if item.TotalPrice != nil {
			sum += *item.TotalPrice
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &sum
}
