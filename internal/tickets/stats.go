package tickets

import "github.com/mercapi/mercapi-backend/internal/catalog"

// DefaultDailyKcal is the reference intake for cost_per_daily_kcal.
const DefaultDailyKcal = 2000

// computeItemStats derives nutrition totals and cost ratios for one
// matched item. Nutrition values are per 100g; unitSize is in kg, so
// total weight × 10 converts back to 100g units.
//
// Nil flows through every step: an unknown per-100g value makes its
// total nil, and a nil or non-positive denominator makes a ratio nil.
func computeItemStats(p *catalog.ProductDTO, quantity float64, totalPrice *float64, dailyKcal float64) *ItemStats {
	if p == nil || p.Nutrition == nil {
		return nil
	}
	if dailyKcal <= 0 {
		dailyKcal = DefaultDailyKcal
	}

	unitSize := 1.0
	if p.UnitSize != nil {
		unitSize = *p.UnitSize
	}
	totalWeight := unitSize * quantity

	n := p.Nutrition
	stats := &ItemStats{
		Calories: scaleNutrient(n.Calories, totalWeight),
		Proteins: scaleNutrient(n.Protein, totalWeight),
		Carbs:    scaleNutrient(n.TotalCarbohydrate, totalWeight),
		Fat:      scaleNutrient(n.TotalFat, totalWeight),
		Fiber:    scaleNutrient(n.DietaryFiber, totalWeight),
	}

	stats.CostPerDailyKcal = scaleRatio(totalPrice, stats.Calories, dailyKcal)
	stats.CostPer100gProtein = scaleRatio(totalPrice, stats.Proteins, 100)
	stats.CostPer100gCarb = scaleRatio(totalPrice, stats.Carbs, 100)
	stats.CostPer100gFat = scaleRatio(totalPrice, stats.Fat, 100)
	stats.KcalPerEuro = divide(stats.Calories, totalPrice)
	return stats
}

func scaleNutrient(per100g *float64, totalWeight float64) *float64 {
	if per100g == nil {
		return nil
	}
	v := *per100g * totalWeight * 10
	return &v
}

// scaleRatio computes price/denominator·scale, nil when either operand
// is missing or the denominator is not positive.
func scaleRatio(price, denominator *float64, scale float64) *float64 {
	if price == nil || denominator == nil || *denominator <= 0 {
		return nil
	}
	v := *price / *denominator * scale
	return &v
}

func divide(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator <= 0 {
		return nil
	}
	v := *numerator / *denominator
	return &v
}
