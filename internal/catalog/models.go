package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	taxRate  = decimal.RequireFromString("1.1")
	maxPrice = decimal.RequireFromString("9999.99")
)

type Product struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Inventory    int             `json:"inventory"`
	LastUpdate   time.Time       `json:"last_update"`
	CollectionID int64           `json:"collection"`
	PromotionIDs []int64         `json:"promotions"`
}

// PriceWithTax is the unit price with the flat sales tax applied, rounded to cents.
func (p Product) PriceWithTax() decimal.Decimal {
	return p.UnitPrice.Mul(taxRate).Round(2)
}

func (p Product) Simple() SimpleProduct {
	return SimpleProduct{ID: p.ID, Title: p.Title, UnitPrice: p.UnitPrice}
}

// SimpleProduct is the product shape embedded in cart and order lines.
type SimpleProduct struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type NewProduct struct {
	Title        string          `json:"title" validate:"required,max=255"`
	Slug         string          `json:"slug" validate:"required,max=255"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Inventory    int             `json:"inventory" validate:"min=1"`
	CollectionID int64           `json:"collection" validate:"required"`
	PromotionIDs []int64         `json:"promotions"`
}

type ProductOrdering string

const (
	OrderByID             ProductOrdering = "id"
	OrderByUnitPrice      ProductOrdering = "unit_price"
	OrderByUnitPriceDesc  ProductOrdering = "-unit_price"
	OrderByLastUpdate     ProductOrdering = "last_update"
	OrderByLastUpdateDesc ProductOrdering = "-last_update"
)

type ProductFilter struct {
	CollectionID int64
	Ordering     ProductOrdering
}

type Collection struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product"`
	ProductsCount     int    `json:"products_count"`
}

type NewCollection struct {
	Title             string `json:"title" validate:"required,max=255"`
	FeaturedProductID *int64 `json:"featured_product"`
}

type Promotion struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Discount    float64 `json:"discount"`
}

type NewPromotion struct {
	Description string  `json:"description" validate:"required,max=255"`
	Discount    float64 `json:"discount" validate:"gte=0"`
}

type Review struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"-"`
	Date        time.Time `json:"date"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type NewReview struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"required"`
}
