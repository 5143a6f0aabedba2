package models

import "time"

// PriceHistory is an append-only log of observed prices. The parser adds
// a row on first sight of a product and whenever the price changes; rows
// are never mutated or deleted.
type PriceHistory struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ProductID string    `gorm:"column:product_id;not null;index" json:"product_id"`
	Price     float64   `gorm:"column:price;not null" json:"price"`
	Timestamp time.Time `gorm:"column:timestamp;not null" json:"timestamp"`
}

func (PriceHistory) TableName() string { return "price_history" }
