package models

// ProductImage stores package photo URLs for one perspective of a product.
// Insertion order follows the retailer's photo ordering; the nutrition
// backfill walks images newest-first.
type ProductImage struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID    string `gorm:"column:product_id;not null;index" json:"product_id"`
	ZoomURL      string `gorm:"column:zoom_url;not null" json:"zoom_url"`
	RegularURL   string `gorm:"column:regular_url;not null" json:"regular_url"`
	ThumbnailURL string `gorm:"column:thumbnail_url;not null" json:"thumbnail_url"`
	Perspective  int    `gorm:"column:perspective;not null" json:"perspective"`
}

func (ProductImage) TableName() string { return "product_images" }
