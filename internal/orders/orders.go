package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/customers"
	"storefront/internal/events"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/google/uuid"
)

// Tx is the set of operations order placement performs inside one transaction.
type Tx interface {
	customers.Provisioner
	// LockCart reports whether the cart exists and holds it until the transaction ends.
	LockCart(ctx context.Context, cartID uuid.UUID) (bool, error)
	CountCartItems(ctx context.Context, cartID uuid.UUID) (int, error)
	InsertOrder(ctx context.Context, o Order) (Order, error)
	CartLines(ctx context.Context, cartID uuid.UUID) ([]CartLine, error)
	InsertOrderItems(ctx context.Context, orderID int64, items []OrderItem) ([]OrderItem, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

type Repository interface {
	// WithOrderTx runs fn in a transaction, committing only when fn returns nil.
	WithOrderTx(ctx context.Context, fn func(Tx) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, f Filter) ([]Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

type Conf struct {
	repo Repository
	bus  *events.Bus[OrderCreated]
	now  func() time.Time
}

func NewConf(repo Repository, bus *events.Bus[OrderCreated]) (*Conf, error) {
	if repo == nil {
		return nil, errors.New("order repository is nil")
	}
	if bus == nil {
		bus = events.NewBus[OrderCreated]()
	}
	return &Conf{repo: repo, bus: bus, now: time.Now}, nil
}

// PlaceOrder turns the cart into an order for the principal. Validation, customer
// resolution, order and item creation and cart deletion commit together; the
// OrderCreated event is published only after the commit, and listeners never hold
// up the caller.
func (c *Conf) PlaceOrder(ctx context.Context, userID string, cartID uuid.UUID) (Order, error) {
	var order Order
	err := c.repo.WithOrderTx(ctx, func(tx Tx) error {
		exists, err := tx.LockCart(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		if !exists {
			return apperr.NotFound("cart_id", "No cart with the given ID was found.")
		}
		count, err := tx.CountCartItems(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to count cart items: %w", err)
		}
		if count == 0 {
			return apperr.Validation("cart_id", "The cart is empty.")
		}

		customer, err := customers.Ensure(ctx, tx, userID)
		if err != nil {
			return err
		}

		order, err = tx.InsertOrder(ctx, Order{
			CustomerID:    customer.ID,
			PlacedAt:      c.now().UTC(),
			PaymentStatus: DefaultPaymentStatus,
		})
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		lines, err := tx.CartLines(ctx, cartID)
		if err != nil {
			return fmt.Errorf("failed to read cart items: %w", err)
		}
		items := make([]OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, OrderItem{
				OrderID:   order.ID,
				Product:   simpleProduct(l),
				UnitPrice: l.UnitPrice,
				Quantity:  l.Quantity,
			})
		}
		order.Items, err = tx.InsertOrderItems(ctx, order.ID, items)
		if err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}

		if err := tx.DeleteCart(ctx, cartID); err != nil {
			return fmt.Errorf("failed to delete cart: %w", err)
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	slog.Info("order placed", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
		slog.Int64(logkey.OrderID, order.ID), slog.String(logkey.CartID, cartID.String()),
		slog.Int("Items", len(order.Items)))

	c.bus.Publish(ctx, OrderCreated{Order: order, CartID: cartID, UserID: userID})
	return order, nil
}

func (c *Conf) GetOrder(ctx context.Context, id int64) (Order, error) {
	return c.repo.GetOrder(ctx, id)
}

func (c *Conf) ListOrders(ctx context.Context, f Filter) ([]Order, error) {
	return c.repo.ListOrders(ctx, f)
}

func (c *Conf) UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (Order, error) {
	if _, err := ParsePaymentStatus(string(status)); err != nil {
		return Order{}, apperr.Validation("payment_status", fmt.Sprintf("%q is not a valid choice.", status))
	}
	return c.repo.UpdatePaymentStatus(ctx, id, status)
}

// DeleteOrder removes an order that has no items.
func (c *Conf) DeleteOrder(ctx context.Context, id int64) error {
	return c.repo.DeleteOrder(ctx, id)
}

func simpleProduct(l CartLine) catalog.SimpleProduct {
	return catalog.SimpleProduct{ID: l.ProductID, Title: l.Title, UnitPrice: l.UnitPrice}
}
