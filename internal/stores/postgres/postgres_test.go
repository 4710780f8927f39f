package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/customers"
	"storefront/internal/orders"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "($1, $2)", placeholders(1, 2))
	assert.Equal(t, "($1, $2, $3), ($4, $5, $6)", placeholders(2, 3))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), apperr.KindUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, apperr.KindUnavailable},
		{"connection failure", &pgconn.PgError{Code: "08006"}, apperr.KindUnavailable},
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation}, apperr.KindInternal},
		{"domain error", apperr.NotFound("id", "missing"), apperr.KindNotFound},
		{"plain", errors.New("boom"), apperr.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(classify(tt.err)))
		})
	}
	assert.NoError(t, classify(nil))
}

var (
	openOnce sync.Once
	shared   *Store
	openErr  error
)

// testStore connects to the database named by STOREFRONT_TEST_DATABASE_URL and
// skips the test when it is unset.
func testStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set")
	}
	openOnce.Do(func() {
		ctx := context.Background()
		db, err := Open(ctx, url)
		if err != nil {
			openErr = err
			return
		}
		if openErr = Migrate(ctx, db); openErr != nil {
			return
		}
		shared, openErr = New(db)
	})
	require.NoError(t, openErr)
	return shared
}

func seed(t *testing.T, s *Store, price string) (catalog.Product, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	col, err := s.InsertCollection(ctx, catalog.NewCollection{Title: "Bakery"})
	require.NoError(t, err)
	p, err := s.InsertProduct(ctx, catalog.NewProduct{
		Title:        "Bread",
		Slug:         "bread",
		UnitPrice:    decimal.RequireFromString(price),
		Inventory:    5,
		CollectionID: col.ID,
	})
	require.NoError(t, err)
	cartID := uuid.New()
	require.NoError(t, s.InsertCart(ctx, cart.Cart{ID: cartID}))
	return p, cartID
}

func TestMergeCartItemAccumulates(t *testing.T) {
	s := testStore(t)
	p, cartID := seed(t, s, "2.50")
	ctx := context.Background()

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := s.MergeCartItem(ctx, cartID, p.ID, 3)
			return err
		})
	}
	require.NoError(t, g.Wait())

	items, err := s.ListCartItems(ctx, cartID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 24, items[0].Quantity)

	_, err = s.MergeCartItem(ctx, cartID, p.ID, cart.MaxQuantity)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestGetOrCreateCustomerOnce(t *testing.T) {
	s := testStore(t)
	userID := "user-" + uuid.NewString()

	ids := make([]int64, 8)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			c, err := customers.Ensure(context.Background(), s, userID)
			ids[i] = c.ID
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestPlaceOrderCommitsAndRollsBack(t *testing.T) {
	s := testStore(t)
	p, cartID := seed(t, s, "100.00")
	ctx := context.Background()
	_, err := s.MergeCartItem(ctx, cartID, p.ID, 2)
	require.NoError(t, err)

	conf, err := orders.NewConf(s, nil)
	require.NoError(t, err)

	boom := errors.New("fault")
	err = s.WithOrderTx(ctx, func(tx orders.Tx) error {
		require.NoError(t, tx.DeleteCart(ctx, cartID))
		return boom
	})
	require.ErrorIs(t, err, boom)
	_, err = s.GetCart(ctx, cartID)
	require.NoError(t, err)

	order, err := conf.PlaceOrder(ctx, "user-"+uuid.NewString(), cartID)
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.NotZero(t, order.Items[0].ID)

	p.UnitPrice = decimal.RequireFromString("200.00")
	_, err = s.UpdateProduct(ctx, p.ID, catalog.NewProduct{
		Title: p.Title, Slug: p.Slug, UnitPrice: p.UnitPrice, Inventory: p.Inventory, CollectionID: p.CollectionID,
	})
	require.NoError(t, err)

	got, err := s.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100").Equal(got.Items[0].UnitPrice))

	_, err = s.GetCart(ctx, cartID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.True(t, apperr.Is(s.DeleteProduct(ctx, p.ID), apperr.KindProtected))
	assert.True(t, apperr.Is(s.DeleteOrder(ctx, order.ID), apperr.KindProtected))
}

func TestPlaceOrderSameCartConcurrently(t *testing.T) {
	s := testStore(t)
	p, cartID := seed(t, s, "3.00")
	ctx := context.Background()
	_, err := s.MergeCartItem(ctx, cartID, p.ID, 1)
	require.NoError(t, err)

	conf, err := orders.NewConf(s, nil)
	require.NoError(t, err)
	userID := "user-" + uuid.NewString()

	const racers = 6
	results := make([]error, racers)
	placed := make([]orders.Order, racers)
	var g errgroup.Group
	for i := range racers {
		g.Go(func() error {
			placed[i], results[i] = conf.PlaceOrder(ctx, userID, cartID)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var winner orders.Order
	succeeded := 0
	for i, err := range results {
		if err == nil {
			succeeded++
			winner = placed[i]
			continue
		}
		var ae *apperr.Error
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, apperr.KindNotFound, ae.Kind)
		assert.Equal(t, "cart_id", ae.Field)
	}
	require.Equal(t, 1, succeeded)
	require.Len(t, winner.Items, 1)
	assert.Equal(t, 1, winner.Items[0].Quantity)

	mine, err := conf.ListOrders(ctx, orders.Filter{CustomerID: winner.CustomerID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
