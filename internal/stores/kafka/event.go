package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/orders"

	"github.com/shopspring/decimal"
)

const (
	AccountCreatedTopic = `user-service.account-created`
	OrderCreatedTopic   = `storefront.order-created`
	ConsumerGroup       = `storefront`
)

// AccountCreated is the event the user service emits when a principal signs up.
type AccountCreated struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func DecodeAccountCreated(b []byte) (AccountCreated, error) {
	var e AccountCreated
	if err := json.Unmarshal(b, &e); err != nil {
		return AccountCreated{}, fmt.Errorf("failed to decode account created event: %w", err)
	}
	if e.ID == "" {
		return AccountCreated{}, fmt.Errorf("account created event has no id")
	}
	return e, nil
}

// OrderCreated is the wire form of orders.OrderCreated.
type OrderCreated struct {
	OrderID       int64              `json:"order_id"`
	CustomerID    int64              `json:"customer_id"`
	UserID        string             `json:"user_id"`
	CartID        string             `json:"cart_id"`
	PlacedAt      time.Time          `json:"placed_at"`
	PaymentStatus string             `json:"payment_status"`
	Items         []OrderCreatedItem `json:"items"`
	TotalPrice    decimal.Decimal    `json:"total_price"`
}

type OrderCreatedItem struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func NewOrderCreated(e orders.OrderCreated) OrderCreated {
	out := OrderCreated{
		OrderID:       e.Order.ID,
		CustomerID:    e.Order.CustomerID,
		UserID:        e.UserID,
		CartID:        e.CartID.String(),
		PlacedAt:      e.Order.PlacedAt,
		PaymentStatus: string(e.Order.PaymentStatus),
		Items:         make([]OrderCreatedItem, 0, len(e.Order.Items)),
		TotalPrice:    e.Order.TotalPrice(),
	}
	for _, item := range e.Order.Items {
		out.Items = append(out.Items, OrderCreatedItem{
			ProductID: item.Product.ID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}

func (e OrderCreated) Key() []byte {
	return []byte(strconv.FormatInt(e.OrderID, 10))
}
