package domain

// Line is one requested line item of a purchase.
type Line struct {
	ProductID       uint  `json:"product_id"`
	Quantity        int64 `json:"qty"`
	DiscountPercent int   `json:"discount_percent"`
}

type ConflictReason string

const (
	ReasonNotFound          ConflictReason = "not_found"
	ReasonInsufficientStock ConflictReason = "insufficient_stock"
)

// UnknownCategory is reported and recorded for products without a category.
const UnknownCategory = "Unknown"

// Conflict is one reason a purchase could not be committed.
// Requested and Available are set only for stock shortages.
type Conflict struct {
	ProductID   uint           `json:"product_id"`
	Reason      ConflictReason `json:"reason"`
	ProductName string         `json:"product_name,omitempty"`
	Category    string         `json:"category,omitempty"`
	Requested   *int64         `json:"requested,omitempty"`
	Available   *int64         `json:"available,omitempty"`
}

func NotFoundConflict(productID uint) Conflict {
	return Conflict{ProductID: productID, Reason: ReasonNotFound}
}

func StockConflict(productID uint, name, category string, requested, available int64) Conflict {
	return Conflict{
		ProductID:   productID,
		Reason:      ReasonInsufficientStock,
		ProductName: name,
		Category:    category,
		Requested:   &requested,
		Available:   &available,
	}
}
