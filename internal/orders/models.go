package orders

import (
	"fmt"
	"time"

	"storefront/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentComplete PaymentStatus = "complete"
	PaymentFailed   PaymentStatus = "failed"

	DefaultPaymentStatus = PaymentPending
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch ps := PaymentStatus(s); ps {
	case PaymentPending, PaymentComplete, PaymentFailed:
		return ps, nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

type Order struct {
	ID            int64         `json:"id"`
	CustomerID    int64         `json:"customer_id"`
	PlacedAt      time.Time     `json:"placed_at"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Items         []OrderItem   `json:"order_items"`
}

func (o Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// OrderItem carries the unit price the product had when the order was placed.
type OrderItem struct {
	ID        int64                 `json:"id"`
	OrderID   int64                 `json:"-"`
	Product   catalog.SimpleProduct `json:"product"`
	UnitPrice decimal.Decimal       `json:"unit_price"`
	Quantity  int                   `json:"quantity"`
}

// CartLine is a cart item joined with its product's current price.
type CartLine struct {
	ProductID int64
	Title     string
	UnitPrice decimal.Decimal
	Quantity  int
}

// OrderCreated is published once the order placement transaction has committed.
type OrderCreated struct {
	Order  Order
	CartID uuid.UUID
	UserID string
}

type Filter struct {
	// CustomerID restricts the listing to one customer; zero lists every order.
	CustomerID int64
}
