package models

// NutritionalInformation holds per-100g nutrition facts for a product.
// Every numeric field is a pointer: nil means unknown, which is distinct
// from an explicit zero. Rows are created and updated only by the
// backfill pipeline.
type NutritionalInformation struct {
	ID                 int64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID          string   `gorm:"column:product_id;not null;uniqueIndex" json:"product_id"`
	Calories           *float64 `gorm:"column:calories" json:"calories"`
	TotalFat           *float64 `gorm:"column:total_fat" json:"total_fat"`
	SaturatedFat       *float64 `gorm:"column:saturated_fat" json:"saturated_fat"`
	PolyunsaturatedFat *float64 `gorm:"column:polyunsaturated_fat" json:"polyunsaturated_fat"`
	MonounsaturatedFat *float64 `gorm:"column:monounsaturated_fat" json:"monounsaturated_fat"`
	TransFat           *float64 `gorm:"column:trans_fat" json:"trans_fat"`
	TotalCarbohydrate  *float64 `gorm:"column:total_carbohydrate" json:"total_carbohydrate"`
	DietaryFiber       *float64 `gorm:"column:dietary_fiber" json:"dietary_fiber"`
	TotalSugars        *float64 `gorm:"column:total_sugars" json:"total_sugars"`
	Protein            *float64 `gorm:"column:protein" json:"protein"`
	Salt               *float64 `gorm:"column:salt" json:"salt"`
}

func (NutritionalInformation) TableName() string { return "nutritional_information" }
