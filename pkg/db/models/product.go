package models

// Product is a catalog entry keyed by the retailer-assigned identifier.
// The parser upserts rows on every sync run; associated rows are removed
// with the product.
type Product struct {
	ID               string   `gorm:"column:id;primaryKey" json:"id"`
	EAN              string   `gorm:"column:ean;not null" json:"ean"`
	Slug             string   `gorm:"column:slug;not null" json:"slug"`
	Brand            *string  `gorm:"column:brand" json:"brand,omitempty"`
	Name             string   `gorm:"column:name;not null" json:"name"`
	Price            float64  `gorm:"column:price;not null" json:"price"`
	CategoryID       int64    `gorm:"column:category_id;not null" json:"category_id"`
	Description      *string  `gorm:"column:description" json:"description,omitempty"`
	Origin           *string  `gorm:"column:origin" json:"origin,omitempty"`
	Packaging        *string  `gorm:"column:packaging" json:"packaging,omitempty"`
	UnitName         *string  `gorm:"column:unit_name" json:"unit_name,omitempty"`
	UnitSize         *float64 `gorm:"column:unit_size" json:"unit_size,omitempty"`
	IsVariableWeight bool     `gorm:"column:is_variable_weight;not null;default:false" json:"is_variable_weight"`
	IsPack           bool     `gorm:"column:is_pack;not null;default:false" json:"is_pack"`

	Category     *Category               `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images       []ProductImage          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
	Nutrition    *NutritionalInformation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"nutritional_information,omitempty"`
	PriceHistory []PriceHistory          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"price_history,omitempty"`
}

func (Product) TableName() string { return "products" }
