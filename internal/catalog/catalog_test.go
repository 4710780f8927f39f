package catalog_test

import (
	"context"
	"testing"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/stores/memory"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) (catalog.Conf, catalog.Collection) {
	t.Helper()
	conf, err := catalog.NewConf(memory.New())
	require.NoError(t, err)
	col, err := conf.CreateCollection(context.Background(), catalog.NewCollection{Title: "Toys"})
	require.NoError(t, err)
	return conf, col
}

func newProduct(collectionID int64, price string) catalog.NewProduct {
	return catalog.NewProduct{
		Title: "Kite", Slug: "kite", UnitPrice: decimal.RequireFromString(price), Inventory: 3, CollectionID: collectionID,
	}
}

func TestPriceWithTax(t *testing.T) {
	tests := []struct {
		price string
		want  string
	}{
		{"10.00", "11.00"},
		{"0.99", "1.09"},
		{"9999.99", "10999.99"},
		{"1.05", "1.16"},
	}
	for _, tc := range tests {
		p := catalog.Product{UnitPrice: decimal.RequireFromString(tc.price)}
		assert.Equal(t, tc.want, p.PriceWithTax().StringFixed(2), tc.price)
	}
}

func TestCreateProductValidation(t *testing.T) {
	conf, col := newCatalog(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		np    catalog.NewProduct
		field string
	}{
		{name: "ZeroPrice", np: newProduct(col.ID, "0"), field: "unit_price"},
		{name: "PriceTooHigh", np: newProduct(col.ID, "10000"), field: "unit_price"},
		{name: "ThreeDecimals", np: newProduct(col.ID, "1.999"), field: "unit_price"},
		{name: "MissingCollection", np: newProduct(col.ID+100, "1"), field: "collection"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := conf.CreateProduct(ctx, tc.np)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			assert.Equal(t, tc.field, ae.Field)
		})
	}

	np := newProduct(col.ID, "1")
	np.Inventory = 0
	_, err := conf.CreateProduct(ctx, np)
	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)

	np = newProduct(col.ID, "1")
	np.PromotionIDs = []int64{42}
	_, err = conf.CreateProduct(ctx, np)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestProductPromotionsAndOrdering(t *testing.T) {
	conf, col := newCatalog(t)
	ctx := context.Background()

	promo, err := conf.CreatePromotion(ctx, catalog.NewPromotion{Description: "Summer", Discount: 0.1})
	require.NoError(t, err)

	cheap := newProduct(col.ID, "1.50")
	cheap.PromotionIDs = []int64{promo.ID}
	c, err := conf.CreateProduct(ctx, cheap)
	require.NoError(t, err)
	assert.Equal(t, []int64{promo.ID}, c.PromotionIDs)

	_, err = conf.CreateProduct(ctx, newProduct(col.ID, "7.00"))
	require.NoError(t, err)

	desc, err := conf.ListProducts(ctx, catalog.ProductFilter{Ordering: catalog.OrderByUnitPriceDesc})
	require.NoError(t, err)
	require.Len(t, desc, 2)
	assert.Equal(t, "7.00", desc[0].UnitPrice.StringFixed(2))

	other, err := conf.CreateCollection(ctx, catalog.NewCollection{Title: "Empty"})
	require.NoError(t, err)
	none, err := conf.ListProducts(ctx, catalog.ProductFilter{CollectionID: other.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCollectionRules(t *testing.T) {
	conf, col := newCatalog(t)
	ctx := context.Background()

	missing := int64(77)
	_, err := conf.CreateCollection(ctx, catalog.NewCollection{Title: "Bad", FeaturedProductID: &missing})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	p, err := conf.CreateProduct(ctx, newProduct(col.ID, "3"))
	require.NoError(t, err)
	updated, err := conf.UpdateCollection(ctx, col.ID, catalog.NewCollection{Title: "Toys", FeaturedProductID: &p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.ProductsCount)

	err = conf.DeleteCollection(ctx, col.ID)
	assert.True(t, apperr.Is(err, apperr.KindProtected))

	require.NoError(t, conf.DeleteProduct(ctx, p.ID))
	got, err := conf.GetCollection(ctx, col.ID)
	require.NoError(t, err)
	assert.Nil(t, got.FeaturedProductID)
	require.NoError(t, conf.DeleteCollection(ctx, col.ID))
}

func TestReviews(t *testing.T) {
	conf, col := newCatalog(t)
	ctx := context.Background()
	p, err := conf.CreateProduct(ctx, newProduct(col.ID, "3"))
	require.NoError(t, err)

	r, err := conf.CreateReview(ctx, p.ID, catalog.NewReview{Name: "Ann", Description: "Flies well"})
	require.NoError(t, err)
	_, err = conf.CreateReview(ctx, 999, catalog.NewReview{Name: "Ann", Description: "?"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := conf.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, conf.DeleteReview(ctx, p.ID, r.ID))
	require.NoError(t, conf.DeleteProduct(ctx, p.ID))
	_, err = conf.ListReviews(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
