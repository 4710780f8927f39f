package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/customers"
	"storefront/internal/orders"

	"github.com/google/uuid"
)

func orderNotFound() error {
	return apperr.NotFound("id", "No order with the given ID was found.")
}

// orderTx runs the order placement statements on one database transaction.
type orderTx struct {
	tx *sql.Tx
}

func (s *Store) WithOrderTx(ctx context.Context, fn func(orders.Tx) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

func (o *orderTx) GetOrCreateCustomer(ctx context.Context, userID string) (customers.Customer, bool, error) {
	return getOrCreateCustomer(ctx, o.tx, userID)
}

// LockCart takes a row lock on the cart, so a second placement for the same cart
// blocks here until the first commits and then finds the cart gone.
func (o *orderTx) LockCart(ctx context.Context, cartID uuid.UUID) (bool, error) {
	var id uuid.UUID
	err := o.tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE id = $1 FOR UPDATE`, cartID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (o *orderTx) CountCartItems(ctx context.Context, cartID uuid.UUID) (int, error) {
	var n int
	err := o.tx.QueryRowContext(ctx, `SELECT count(*) FROM cart_items WHERE cart_id = $1`, cartID).Scan(&n)
	return n, err
}

func (o *orderTx) InsertOrder(ctx context.Context, order orders.Order) (orders.Order, error) {
	err := o.tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, placed_at, payment_status) VALUES ($1, $2, $3)
		RETURNING id`, order.CustomerID, order.PlacedAt, string(order.PaymentStatus)).Scan(&order.ID)
	if err != nil {
		return orders.Order{}, err
	}
	return order, nil
}

// CartLines joins each cart item with its product's price as of this statement.
func (o *orderTx) CartLines(ctx context.Context, cartID uuid.UUID) ([]orders.CartLine, error) {
	rows, err := o.tx.QueryContext(ctx, `
		SELECT p.id, p.title, p.unit_price, ci.quantity
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []orders.CartLine
	for rows.Next() {
		var l orders.CartLine
		if err := rows.Scan(&l.ProductID, &l.Title, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// InsertOrderItems writes every item with one multi-row INSERT.
func (o *orderTx) InsertOrderItems(ctx context.Context, orderID int64, items []orders.OrderItem) ([]orders.OrderItem, error) {
	if len(items) == 0 {
		return []orders.OrderItem{}, nil
	}
	args := make([]any, 0, len(items)*4)
	for _, item := range items {
		args = append(args, orderID, item.Product.ID, item.Quantity, item.UnitPrice)
	}
	rows, err := o.tx.QueryContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES `+placeholders(len(items), 4)+`
		RETURNING id, product_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[int64]int64, len(items))
	for rows.Next() {
		var id, productID int64
		if err := rows.Scan(&id, &productID); err != nil {
			return nil, err
		}
		ids[productID] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]orders.OrderItem, len(items))
	for i, item := range items {
		item.ID = ids[item.Product.ID]
		item.OrderID = orderID
		out[i] = item
	}
	return out, nil
}

func (o *orderTx) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return deleteCart(ctx, o.tx, cartID)
}

func (s *Store) GetOrder(ctx context.Context, id int64) (orders.Order, error) {
	var o orders.Order
	var status string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, customer_id, placed_at, payment_status FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Order{}, orderNotFound()
	}
	if err != nil {
		return orders.Order{}, classify(fmt.Errorf("failed to query order: %w", err))
	}
	o.PlacedAt = o.PlacedAt.UTC()
	o.PaymentStatus = orders.PaymentStatus(status)

	list := []orders.Order{o}
	if err := loadOrderItems(ctx, s.db, list); err != nil {
		return orders.Order{}, classify(err)
	}
	return list[0], nil
}

func (s *Store) ListOrders(ctx context.Context, f orders.Filter) ([]orders.Order, error) {
	query := `SELECT id, customer_id, placed_at, payment_status FROM orders`
	var args []any
	if f.CustomerID != 0 {
		query += ` WHERE customer_id = $1`
		args = append(args, f.CustomerID)
	}
	rows, err := s.db.QueryContext(ctx, query+` ORDER BY id`, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query orders: %w", err))
	}
	defer rows.Close()

	list := []orders.Order{}
	for rows.Next() {
		var o orders.Order
		var status string
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.PlacedAt, &status); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.PlacedAt = o.PlacedAt.UTC()
		o.PaymentStatus = orders.PaymentStatus(status)
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating orders: %w", err))
	}
	return list, classify(loadOrderItems(ctx, s.db, list))
}

func loadOrderItems(ctx context.Context, q querier, list []orders.Order) error {
	if len(list) == 0 {
		return nil
	}
	index := make(map[int64]int, len(list))
	ids := make([]int64, 0, len(list))
	for i := range list {
		list[i].Items = []orders.OrderItem{}
		index[list[i].ID] = i
		ids = append(ids, list[i].ID)
	}
	rows, err := q.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.unit_price, oi.quantity, p.id, p.title, p.unit_price
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1) ORDER BY oi.id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item orders.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.UnitPrice, &item.Quantity,
			&item.Product.ID, &item.Product.Title, &item.Product.UnitPrice); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		o := &list[index[item.OrderID]]
		o.Items = append(o.Items, item)
	}
	return rows.Err()
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id int64, status orders.PaymentStatus) (orders.Order, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET payment_status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return orders.Order{}, classify(fmt.Errorf("failed to update payment status: %w", err))
	}
	if err := requireAffected(res, orderNotFound); err != nil {
		return orders.Order{}, err
	}
	return s.GetOrder(ctx, id)
}

func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if pgCode(err) == codeForeignKeyViolation {
		return apperr.Protected("Order has one or more order items, so it can not be deleted.")
	}
	if err != nil {
		return classify(fmt.Errorf("failed to delete order: %w", err))
	}
	return requireAffected(res, orderNotFound)
}
