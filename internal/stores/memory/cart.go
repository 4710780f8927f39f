package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"storefront/internal/apperr"
	"storefront/internal/cart"

	"github.com/google/uuid"
)

func cartNotFound() error {
	return apperr.NotFound("cart_id", "No cart with the given ID was found.")
}

func cartItemNotFound() error {
	return apperr.NotFound("id", "No cart item with the given ID was found.")
}

func (s *Store) InsertCart(ctx context.Context, c cart.Cart) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.carts[c.ID]; ok {
			return apperr.Conflict("id", "cart already exists", nil)
		}
		st.carts[c.ID] = c.CreatedAt
		return nil
	})
}

func (s *Store) GetCart(ctx context.Context, id uuid.UUID) (cart.Cart, error) {
	var c cart.Cart
	err := s.read(ctx, func(st *state) error {
		createdAt, ok := st.carts[id]
		if !ok {
			return cartNotFound()
		}
		c = cart.Cart{ID: id, CreatedAt: createdAt, Items: st.itemsOf(id)}
		return nil
	})
	return c, err
}

func (s *Store) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return s.write(ctx, func(st *state) error {
		return st.deleteCart(id)
	})
}

func (s *Store) ProductExists(ctx context.Context, productID int64) (bool, error) {
	var ok bool
	err := s.read(ctx, func(st *state) error {
		_, ok = st.products[productID]
		return nil
	})
	return ok, err
}

func (s *Store) MergeCartItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (cart.CartItem, error) {
	var item cart.CartItem
	err := s.write(ctx, func(st *state) error {
		if _, ok := st.carts[cartID]; !ok {
			return cartNotFound()
		}
		if _, ok := st.products[productID]; !ok {
			return apperr.Validation("product_id", fmt.Sprintf("Product with ID %d does not exist.", productID))
		}
		row, found := st.cartItemFor(cartID, productID)
		if found {
			row.Quantity += quantity
		} else {
			st.seq.cartItem++
			row = cartItemRow{ID: st.seq.cartItem, CartID: cartID, ProductID: productID, Quantity: quantity}
		}
		if row.Quantity > cart.MaxQuantity {
			return apperr.Validation("quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", cart.MaxQuantity))
		}
		st.cartItems[row.ID] = row
		item = st.cartItem(row)
		return nil
	})
	return item, err
}

func (s *Store) GetCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) (cart.CartItem, error) {
	var item cart.CartItem
	err := s.read(ctx, func(st *state) error {
		row, ok := st.cartItems[itemID]
		if !ok || row.CartID != cartID {
			return cartItemNotFound()
		}
		item = st.cartItem(row)
		return nil
	})
	return item, err
}

func (s *Store) SetCartItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (cart.CartItem, error) {
	var item cart.CartItem
	err := s.write(ctx, func(st *state) error {
		row, ok := st.cartItems[itemID]
		if !ok || row.CartID != cartID {
			return cartItemNotFound()
		}
		row.Quantity = quantity
		st.cartItems[itemID] = row
		item = st.cartItem(row)
		return nil
	})
	return item, err
}

func (s *Store) DeleteCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	return s.write(ctx, func(st *state) error {
		row, ok := st.cartItems[itemID]
		if !ok || row.CartID != cartID {
			return cartItemNotFound()
		}
		delete(st.cartItems, itemID)
		return nil
	})
}

func (s *Store) ListCartItems(ctx context.Context, cartID uuid.UUID) ([]cart.CartItem, error) {
	var items []cart.CartItem
	err := s.read(ctx, func(st *state) error {
		if _, ok := st.carts[cartID]; !ok {
			return cartNotFound()
		}
		items = st.itemsOf(cartID)
		return nil
	})
	return items, err
}

func (st *state) cartItemFor(cartID uuid.UUID, productID int64) (cartItemRow, bool) {
	for _, row := range st.cartItems {
		if row.CartID == cartID && row.ProductID == productID {
			return row, true
		}
	}
	return cartItemRow{}, false
}

func (st *state) cartItem(row cartItemRow) cart.CartItem {
	return cart.CartItem{
		ID:       row.ID,
		CartID:   row.CartID,
		Product:  st.products[row.ProductID].Simple(),
		Quantity: row.Quantity,
	}
}

func (st *state) itemsOf(cartID uuid.UUID) []cart.CartItem {
	items := []cart.CartItem{}
	for _, row := range st.cartItems {
		if row.CartID == cartID {
			items = append(items, st.cartItem(row))
		}
	}
	slices.SortFunc(items, func(a, b cart.CartItem) int { return cmp.Compare(a.ID, b.ID) })
	return items
}

// deleteCart removes the cart and, by cascade, its items.
func (st *state) deleteCart(id uuid.UUID) error {
	if _, ok := st.carts[id]; !ok {
		return cartNotFound()
	}
	for iid, row := range st.cartItems {
		if row.CartID == id {
			delete(st.cartItems, iid)
		}
	}
	delete(st.carts, id)
	return nil
}
