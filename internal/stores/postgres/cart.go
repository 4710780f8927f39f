package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/cart"

	"github.com/google/uuid"
)

const cartItemColumns = `ci.id, ci.cart_id, ci.quantity, p.id, p.title, p.unit_price`

func cartNotFound() error {
	return apperr.NotFound("cart_id", "No cart with the given ID was found.")
}

func cartItemNotFound() error {
	return apperr.NotFound("id", "No cart item with the given ID was found.")
}

func scanCartItem(row scanner) (cart.CartItem, error) {
	var item cart.CartItem
	err := row.Scan(&item.ID, &item.CartID, &item.Quantity, &item.Product.ID, &item.Product.Title, &item.Product.UnitPrice)
	return item, err
}

func (s *Store) InsertCart(ctx context.Context, c cart.Cart) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO carts (id, created_at) VALUES ($1, $2)`, c.ID, c.CreatedAt)
	if pgCode(err) == codeUniqueViolation {
		return apperr.Conflict("id", "cart already exists", err)
	}
	if err != nil {
		return classify(fmt.Errorf("failed to insert cart: %w", err))
	}
	return nil
}

func (s *Store) GetCart(ctx context.Context, id uuid.UUID) (cart.Cart, error) {
	c := cart.Cart{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM carts WHERE id = $1`, id).Scan(&c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cart.Cart{}, cartNotFound()
	}
	if err != nil {
		return cart.Cart{}, classify(fmt.Errorf("failed to query cart: %w", err))
	}
	c.CreatedAt = c.CreatedAt.UTC()
	if c.Items, err = listCartItems(ctx, s.db, id); err != nil {
		return cart.Cart{}, classify(err)
	}
	return c, nil
}

func (s *Store) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return classify(deleteCart(ctx, s.db, id))
}

func deleteCart(ctx context.Context, q querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return requireAffected(res, cartNotFound)
}

func (s *Store) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&ok)
	if err != nil {
		return false, classify(fmt.Errorf("failed to check product: %w", err))
	}
	return ok, nil
}

// MergeCartItem folds the quantity into the (cart, product) row with a single
// upsert, so concurrent adds accumulate instead of overwriting each other.
func (s *Store) MergeCartItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (cart.CartItem, error) {
	var item cart.CartItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id uuid.UUID
		err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE id = $1 FOR SHARE`, cartID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return cartNotFound()
		}
		if err != nil {
			return fmt.Errorf("failed to query cart: %w", err)
		}

		var itemID int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO cart_items (cart_id, product_id, quantity) VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			WHERE cart_items.quantity + EXCLUDED.quantity <= $4
			RETURNING id`, cartID, productID, quantity, cart.MaxQuantity).Scan(&itemID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return apperr.Validation("quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", cart.MaxQuantity))
		case pgCode(err) == codeForeignKeyViolation:
			return apperr.Validation("product_id", fmt.Sprintf("Product with ID %d does not exist.", productID))
		case err != nil:
			return fmt.Errorf("failed to merge cart item: %w", err)
		}
		item, err = getCartItem(ctx, tx, cartID, itemID)
		return err
	})
	return item, err
}

func (s *Store) GetCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) (cart.CartItem, error) {
	item, err := getCartItem(ctx, s.db, cartID, itemID)
	return item, classify(err)
}

func getCartItem(ctx context.Context, q querier, cartID uuid.UUID, itemID int64) (cart.CartItem, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+cartItemColumns+`
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1 AND ci.cart_id = $2`, itemID, cartID)
	item, err := scanCartItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return cart.CartItem{}, cartItemNotFound()
	}
	if err != nil {
		return cart.CartItem{}, fmt.Errorf("failed to query cart item: %w", err)
	}
	return item, nil
}

func (s *Store) SetCartItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (cart.CartItem, error) {
	var item cart.CartItem
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE cart_items SET quantity = $3 WHERE id = $1 AND cart_id = $2`,
			itemID, cartID, quantity)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		if err := requireAffected(res, cartItemNotFound); err != nil {
			return err
		}
		item, err = getCartItem(ctx, tx, cartID, itemID)
		return err
	})
	return item, err
}

func (s *Store) DeleteCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return classify(fmt.Errorf("failed to delete cart item: %w", err))
	}
	return requireAffected(res, cartItemNotFound)
}

func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartItem, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)`, cartID).Scan(&exists)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query cart: %w", err))
	}
	if !exists {
		return nil, cartNotFound()
	}
	items, err := listCartItems(ctx, s.db, cartID)
	return items, classify(err)
}

func listCartItems(ctx context.Context, q querier, cartID uuid.UUID) ([]cart.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+cartItemColumns+`
		FROM cart_items ci JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 ORDER BY ci.id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []cart.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}
	return items, nil
}
