package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchReport records user feedback about a wrong receipt-item match.
// Rows are written by the report worker draining the redis queue.
type MatchReport struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OriginalName  string    `gorm:"column:original_name;not null" json:"original_name"`
	OriginalPrice float64   `gorm:"column:original_price;not null" json:"original_price"`
	WrongMatchID  string    `gorm:"column:wrong_match_id;not null" json:"wrong_match_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MatchReport) TableName() string { return "match_reports" }

// NutritionReport records user feedback about wrong nutrition facts.
type NutritionReport struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID   string    `gorm:"column:product_id;not null" json:"product_id"`
	NutritionID int64     `gorm:"column:nutrition_id;not null" json:"nutrition_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (NutritionReport) TableName() string { return "nutrition_reports" }
