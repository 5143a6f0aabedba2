package tickets

import "github.com/mercapi/mercapi-backend/internal/catalog"

// ItemStats carries derived nutrition and cost-efficiency figures for
// one matched receipt item. Every field is independently optional: a
// missing operand makes the derived value nil, never zero.
type ItemStats struct {
	Calories *float64 `json:"calories"`
	Proteins *float64 `json:"proteins"`
	Carbs    *float64 `json:"carbs"`
	Fat      *float64 `json:"fat"`
	Fiber    *float64 `json:"fiber"`

	CostPerDailyKcal   *float64 `json:"cost_per_daily_kcal"`
	CostPer100gProtein *float64 `json:"cost_per_100g_protein"`
	CostPer100gCarb    *float64 `json:"cost_per_100g_carb"`
	CostPer100gFat     *float64 `json:"cost_per_100g_fat"`
	KcalPerEuro        *float64 `json:"kcal_per_euro"`
}

// TicketItem pairs one receipt line with its catalog match. Product,
// Score and Stats stay nil when no catalog product cleared the
// matching threshold.
type TicketItem struct {
	Product      *catalog.ProductDTO `json:"product"`
	Score        *float64            `json:"score"`
	OriginalName string              `json:"original_name"`
	Quantity     float64             `json:"quantity"`
	UnitPrice    *float64            `json:"unit_price"`
	TotalPrice   *float64            `json:"total_price"`
	Stats        *ItemStats          `json:"stats"`
}

// TicketStats is the processed receipt returned to the caller. It is
// never persisted.
type TicketStats struct {
	TicketNumber *int64       `json:"ticket_number"`
	Date         *string      `json:"date"`
	Time         *string      `json:"time"`
	TotalPrice   *float64     `json:"total_price"`
	Items        []TicketItem `json:"items"`
}
