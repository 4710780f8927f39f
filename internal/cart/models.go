package cart

import (
	"time"

	"storefront/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxQuantity is the largest quantity a single cart line may hold.
const MaxQuantity = 32767

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	Items     []CartItem `json:"items"`
}

func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

type CartItem struct {
	ID       int64                 `json:"id"`
	CartID   uuid.UUID             `json:"-"`
	Product  catalog.SimpleProduct `json:"product"`
	Quantity int                   `json:"quantity"`
}

func (i CartItem) TotalPrice() decimal.Decimal {
	return i.Product.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
