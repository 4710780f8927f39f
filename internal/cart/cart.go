package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/apperr"

	"github.com/google/uuid"
)

// Repository persists carts. MergeCartItem must be atomic: concurrent merges of the
// same (cart, product) pair accumulate into a single row.
type Repository interface {
	InsertCart(ctx context.Context, c Cart) error
	GetCart(ctx context.Context, id uuid.UUID) (Cart, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error
	ProductExists(ctx context.Context, productID int64) (bool, error)
	MergeCartItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (CartItem, error)
	GetCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) (CartItem, error)
	SetCartItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (CartItem, error)
	DeleteCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) error
	ListCartItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error)
}

type Conf struct {
	repo Repository
	now  func() time.Time
}

func NewConf(repo Repository) (Conf, error) {
	if repo == nil {
		return Conf{}, errors.New("cart repository is nil")
	}
	return Conf{repo: repo, now: time.Now}, nil
}

// CreateCart opens an empty cart under a fresh random token.
func (c Conf) CreateCart(ctx context.Context) (Cart, error) {
	cart := Cart{ID: uuid.New(), CreatedAt: c.now().UTC(), Items: []CartItem{}}
	if err := c.repo.InsertCart(ctx, cart); err != nil {
		return Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (c Conf) GetCart(ctx context.Context, id uuid.UUID) (Cart, error) {
	return c.repo.GetCart(ctx, id)
}

func (c Conf) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return c.repo.DeleteCart(ctx, id)
}

// AddItem puts quantity units of a product in the cart. Adding a product that is
// already in the cart increases the existing line instead of adding a second one.
func (c Conf) AddItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (CartItem, error) {
	ok, err := c.repo.ProductExists(ctx, productID)
	if err != nil {
		return CartItem{}, fmt.Errorf("failed to look up product: %w", err)
	}
	if !ok {
		return CartItem{}, apperr.Validation("product_id", fmt.Sprintf("Product with ID %d does not exist.", productID))
	}
	if err := checkQuantity(quantity); err != nil {
		return CartItem{}, err
	}
	return c.repo.MergeCartItem(ctx, cartID, productID, quantity)
}

// UpdateItem replaces the quantity of a cart line.
func (c Conf) UpdateItem(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) (CartItem, error) {
	if err := checkQuantity(quantity); err != nil {
		return CartItem{}, err
	}
	return c.repo.SetCartItemQuantity(ctx, cartID, itemID, quantity)
}

func (c Conf) GetItem(ctx context.Context, cartID uuid.UUID, itemID int64) (CartItem, error) {
	return c.repo.GetCartItem(ctx, cartID, itemID)
}

func (c Conf) RemoveItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	return c.repo.DeleteCartItem(ctx, cartID, itemID)
}

func (c Conf) ListItems(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	return c.repo.ListCartItems(ctx, cartID)
}

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return apperr.Validation("quantity", "Ensure this value is greater than or equal to 1.")
	}
	if quantity > MaxQuantity {
		return apperr.Validation("quantity", fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxQuantity))
	}
	return nil
}
