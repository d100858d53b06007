package transport

import (
	"strings"

	"github.com/Skotchmaster/boutique/internal/domain"
	"github.com/Skotchmaster/boutique/internal/service"
)

// Bulk payloads are lenient: entries with an id or quantity that is not a
// usable integer are dropped here and never reach the engine.

type PurchaseItem struct {
	ProductID       Loose `json:"product_id"`
	Qty             Loose `json:"qty"`
	DiscountPercent Loose `json:"discount_percent"`
}

type PurchaseRequest struct {
	Items []PurchaseItem `json:"items"`
}

// Lines drops items without a positive id and quantity. A discount that does
// not parse counts as none.
func (r PurchaseRequest) Lines() []domain.Line {
	out := make([]domain.Line, 0, len(r.Items))
	for _, it := range r.Items {
		id, ok := it.ProductID.ID()
		if !ok {
			continue
		}
		qty, ok := it.Qty.Int()
		if !ok || qty <= 0 {
			continue
		}
		pct, ok := it.DiscountPercent.Int()
		if !ok {
			pct = 0
		}
		pct = max(min(pct, domain.MaxDiscountPercent), domain.MinDiscountPercent)
		out = append(out, domain.Line{ProductID: id, Quantity: qty, DiscountPercent: int(pct)})
	}
	return out
}

func ParseIDs(raw []Loose) []uint {
	out := make([]uint, 0, len(raw))
	for _, r := range raw {
		if id, ok := r.ID(); ok {
			out = append(out, id)
		}
	}
	return out
}

type ReorderCategoriesRequest struct {
	OrderedCategoryIDs []Loose `json:"ordered_category_ids" validate:"required"`
}

type ReorderProductsRequest struct {
	OrderedProductIDs []Loose `json:"ordered_product_ids" validate:"required"`
}

type PositionItem struct {
	ID       Loose `json:"id"`
	Position Loose `json:"position"`
}

type PositionsRequest struct {
	Positions []PositionItem `json:"positions" validate:"required"`
}

func (r PositionsRequest) Entries() []service.PositionEntry {
	out := make([]service.PositionEntry, 0, len(r.Positions))
	for _, p := range r.Positions {
		id, ok := p.ID.ID()
		if !ok {
			continue
		}
		pos, ok := p.Position.Int()
		if !ok || pos <= 0 {
			continue
		}
		out = append(out, service.PositionEntry{ProductID: id, Position: int(pos)})
	}
	return out
}

type StockEntry struct {
	ProductID   Loose `json:"product_id"`
	ReceivedQty Loose `json:"received_qty"`
}

type ReceiveStockRequest struct {
	Entries []StockEntry `json:"entries"`
}

func (r ReceiveStockRequest) Receipts() []service.StockReceipt {
	out := make([]service.StockReceipt, 0, len(r.Entries))
	for _, e := range r.Entries {
		id, ok := e.ProductID.ID()
		if !ok {
			continue
		}
		qty, ok := e.ReceivedQty.Int()
		if !ok || qty == 0 {
			continue
		}
		out = append(out, service.StockReceipt{ProductID: id, Quantity: qty})
	}
	return out
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type CreateProductRequest struct {
	Name           string `json:"name"            validate:"required,max=200"`
	Price          Loose  `json:"price"`
	Image          string `json:"image"           validate:"max=512"`
	CategoryID     *uint  `json:"category_id"`
	StartInventory Loose  `json:"start_inventory"`
}

func (r CreateProductRequest) NewProduct() service.NewProduct {
	inv, ok := r.StartInventory.Int()
	if !ok {
		inv = 0
	}
	return service.NewProduct{
		Name:       r.Name,
		Price:      domain.CleanPrice(r.Price.String()),
		Image:      strings.TrimSpace(r.Image),
		CategoryID: r.CategoryID,
		Inventory:  inv,
	}
}

type PatchProductRequest struct {
	Name       *string `json:"name"        validate:"omitempty,max=200"`
	Price      *Loose  `json:"price"`
	Image      *string `json:"image"       validate:"omitempty,max=512"`
	Position   *int    `json:"position"    validate:"omitempty,min=1"`
	CategoryID *uint   `json:"category_id"`
}

func (r PatchProductRequest) Patch() service.ProductPatch {
	p := service.ProductPatch{
		Name:       r.Name,
		Image:      r.Image,
		Position:   r.Position,
		CategoryID: r.CategoryID,
	}
	if r.Price != nil && r.Price.IsSet() {
		price := domain.CleanPrice(r.Price.String())
		p.Price = &price
	}
	return p
}

type BulkProductEdit struct {
	ID uint `json:"id" validate:"required"`
	PatchProductRequest
}

type BulkUpdateRequest struct {
	Products []BulkProductEdit `json:"products" validate:"required,min=1,dive"`
}

func (r BulkUpdateRequest) Edits() []service.BulkEdit {
	out := make([]service.BulkEdit, 0, len(r.Products))
	for _, p := range r.Products {
		out = append(out, service.BulkEdit{ID: p.ID, ProductPatch: p.Patch()})
	}
	return out
}

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}
