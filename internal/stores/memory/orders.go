package memory

import (
	"cmp"
	"context"
	"slices"

	"storefront/internal/apperr"
	"storefront/internal/customers"
	"storefront/internal/orders"

	"github.com/google/uuid"
)

func orderNotFound() error {
	return apperr.NotFound("id", "No order with the given ID was found.")
}

// orderTx operates on the private copy owned by a Store.write call.
type orderTx struct {
	st *state
}

func (s *Store) WithOrderTx(ctx context.Context, fn func(orders.Tx) error) error {
	return s.write(ctx, func(st *state) error {
		return fn(&orderTx{st: st})
	})
}

func (tx *orderTx) GetOrCreateCustomer(ctx context.Context, userID string) (customers.Customer, bool, error) {
	if err := ctx.Err(); err != nil {
		return customers.Customer{}, false, err
	}
	c, created := tx.st.getOrCreateCustomer(userID)
	return c, created, nil
}

func (tx *orderTx) LockCart(ctx context.Context, cartID uuid.UUID) (bool, error) {
	_, ok := tx.st.carts[cartID]
	return ok, ctx.Err()
}

func (tx *orderTx) CountCartItems(ctx context.Context, cartID uuid.UUID) (int, error) {
	n := 0
	for _, row := range tx.st.cartItems {
		if row.CartID == cartID {
			n++
		}
	}
	return n, ctx.Err()
}

func (tx *orderTx) InsertOrder(ctx context.Context, o orders.Order) (orders.Order, error) {
	if err := ctx.Err(); err != nil {
		return orders.Order{}, err
	}
	if _, ok := tx.st.customers[o.CustomerID]; !ok {
		return orders.Order{}, apperr.Validation("customer_id", "customer does not exist")
	}
	tx.st.seq.order++
	o.ID = tx.st.seq.order
	tx.st.orders[o.ID] = orderRow{ID: o.ID, CustomerID: o.CustomerID, PlacedAt: o.PlacedAt, PaymentStatus: string(o.PaymentStatus)}
	return o, nil
}

func (tx *orderTx) CartLines(ctx context.Context, cartID uuid.UUID) ([]orders.CartLine, error) {
	var lines []orders.CartLine
	for _, item := range tx.st.itemsOf(cartID) {
		lines = append(lines, orders.CartLine{
			ProductID: item.Product.ID,
			Title:     item.Product.Title,
			UnitPrice: item.Product.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return lines, ctx.Err()
}

func (tx *orderTx) InsertOrderItems(ctx context.Context, orderID int64, items []orders.OrderItem) ([]orders.OrderItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := tx.st.orders[orderID]; !ok {
		return nil, orderNotFound()
	}
	out := make([]orders.OrderItem, 0, len(items))
	for _, item := range items {
		if _, ok := tx.st.products[item.Product.ID]; !ok {
			return nil, apperr.Validation("product_id", "product does not exist")
		}
		tx.st.seq.orderItem++
		item.ID = tx.st.seq.orderItem
		item.OrderID = orderID
		tx.st.orderItems[item.ID] = orderItemRow{
			ID:        item.ID,
			OrderID:   orderID,
			ProductID: item.Product.ID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
		out = append(out, item)
	}
	return out, nil
}

func (tx *orderTx) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.st.deleteCart(cartID)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (orders.Order, error) {
	var o orders.Order
	err := s.read(ctx, func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return orderNotFound()
		}
		o = st.order(row)
		return nil
	})
	return o, err
}

func (s *Store) ListOrders(ctx context.Context, f orders.Filter) ([]orders.Order, error) {
	out := []orders.Order{}
	err := s.read(ctx, func(st *state) error {
		for _, row := range st.orders {
			if f.CustomerID != 0 && row.CustomerID != f.CustomerID {
				continue
			}
			out = append(out, st.order(row))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b orders.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status orders.PaymentStatus) (orders.Order, error) {
	var o orders.Order
	err := s.write(ctx, func(st *state) error {
		row, ok := st.orders[id]
		if !ok {
			return orderNotFound()
		}
		row.PaymentStatus = string(status)
		st.orders[id] = row
		o = st.order(row)
		return nil
	})
	return o, err
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return orderNotFound()
		}
		for _, oi := range st.orderItems {
			if oi.OrderID == id {
				return apperr.Protected("Order has one or more order items, so it can not be deleted.")
			}
		}
		delete(st.orders, id)
		return nil
	})
}

func (st *state) order(row orderRow) orders.Order {
	o := orders.Order{
		ID:            row.ID,
		CustomerID:    row.CustomerID,
		PlacedAt:      row.PlacedAt,
		PaymentStatus: orders.PaymentStatus(row.PaymentStatus),
		Items:         []orders.OrderItem{},
	}
	for _, oi := range st.orderItems {
		if oi.OrderID != row.ID {
			continue
		}
		o.Items = append(o.Items, orders.OrderItem{
			ID:        oi.ID,
			OrderID:   oi.OrderID,
			Product:   st.products[oi.ProductID].Simple(),
			UnitPrice: oi.UnitPrice,
			Quantity:  oi.Quantity,
		})
	}
	slices.SortFunc(o.Items, func(a, b orders.OrderItem) int { return cmp.Compare(a.ID, b.ID) })
	return o
}
