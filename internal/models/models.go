package models

import (
	"time"
)

// Names are unique regardless of case; the unique indexes are on LOWER(name).
type Category struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"                                       json:"id"`
	Name     string `gorm:"not null;uniqueIndex:idx_categories_name_lower,expression:LOWER(name)" json:"name"`
	Position int    `gorm:"not null;default:0"                                             json:"position"`
}

// Product.CategoryID is nil for uncategorized products. A category cannot be
// deleted while a product still references it.
type Product struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"                                     json:"id"`
	Name       string    `gorm:"not null;uniqueIndex:idx_products_name_lower,expression:LOWER(name)" json:"name"`
	Price      int64     `gorm:"not null"                                                     json:"price"`
	Image      string    `gorm:"not null;default:''"                                          json:"image"`
	Position   int       `gorm:"not null;default:0"                                           json:"position"`
	CategoryID *uint     `gorm:"index"                                                        json:"category_id"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"                json:"-"`
	Inventory  int64     `gorm:"not null;default:0"                                           json:"inventory"`
}

type Order struct {
	ID        uint        `gorm:"primaryKey"                            json:"id"`
	CreatedAt time.Time   `gorm:"not null"                              json:"created_at"`
	Total     int64       `gorm:"not null"                              json:"total"`
	Lines     []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
}

// OrderLine keeps its own copy of the product name, category and price.
// ProductID is informational only; the product may be gone.
type OrderLine struct {
	ID              uint   `gorm:"primaryKey"      json:"id"`
	OrderID         uint   `gorm:"index;not null"  json:"order_id"`
	ProductID       uint   `gorm:"not null"        json:"product_id"`
	ProductName     string `gorm:"not null"        json:"product_name"`
	CategoryName    string `gorm:"not null"        json:"category_name"`
	UnitPrice       int64  `gorm:"not null"        json:"unit_price"`
	Quantity        int64  `gorm:"not null"        json:"quantity"`
	DiscountPercent int    `gorm:"not null"        json:"discount_percent"`
	LineTotal       int64  `gorm:"not null"        json:"line_total"`
}

func All() []any {
	return []any{&Category{}, &Product{}, &Order{}, &OrderLine{}}
}
