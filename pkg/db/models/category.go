package models

// Category is a retailer catalog section. Top-level categories have a nil
// ParentID; subcategories reference their parent, which must already exist.
type Category struct {
	ID       int64  `gorm:"column:id;primaryKey" json:"id"`
	Name     string `gorm:"column:name;not null" json:"name"`
	ParentID *int64 `gorm:"column:parent_id" json:"parent_id,omitempty"`
}

func (Category) TableName() string { return "categories" }
