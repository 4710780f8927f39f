package catalog

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Repository is the catalog's view of the store. Implementations return
// apperr.NotFound for missing rows and apperr.Protected when a delete is blocked
// by a referencing row.
type Repository interface {
	InsertProduct(ctx context.Context, p NewProduct) (Product, error)
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, p NewProduct) (Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	InsertCollection(ctx context.Context, c NewCollection) (Collection, error)
	GetCollection(ctx context.Context, id int64) (Collection, error)
	ListCollections(ctx context.Context) ([]Collection, error)
	UpdateCollection(ctx context.Context, id int64, c NewCollection) (Collection, error)
	DeleteCollection(ctx context.Context, id int64) error

	InsertPromotion(ctx context.Context, p NewPromotion) (Promotion, error)
	ListPromotions(ctx context.Context) ([]Promotion, error)
	PromotionsExist(ctx context.Context, ids []int64) (bool, error)

	InsertReview(ctx context.Context, productID int64, r NewReview) (Review, error)
	ListReviews(ctx context.Context, productID int64) ([]Review, error)
	DeleteReview(ctx context.Context, productID, reviewID int64) error
}

type Conf struct {
	repo     Repository
	validate *validator.Validate
}

func NewConf(repo Repository) (Conf, error) {
	if repo == nil {
		return Conf{}, errors.New("catalog repository is nil")
	}
	return Conf{repo: repo, validate: validation.New()}, nil
}

func (c Conf) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	if err := c.checkProduct(ctx, np); err != nil {
		return Product{}, err
	}
	p, err := c.repo.InsertProduct(ctx, np)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product: %w", err)
	}
	return p, nil
}

func (c Conf) GetProduct(ctx context.Context, id int64) (Product, error) {
	return c.repo.GetProduct(ctx, id)
}

func (c Conf) ListProducts(ctx context.Context, f ProductFilter) ([]Product, error) {
	switch f.Ordering {
	case "":
		f.Ordering = OrderByID
	case OrderByID, OrderByUnitPrice, OrderByUnitPriceDesc, OrderByLastUpdate, OrderByLastUpdateDesc:
	default:
		return nil, apperr.Validation("ordering", fmt.Sprintf("cannot order by %q", f.Ordering))
	}
	return c.repo.ListProducts(ctx, f)
}

func (c Conf) UpdateProduct(ctx context.Context, id int64, np NewProduct) (Product, error) {
	if err := c.checkProduct(ctx, np); err != nil {
		return Product{}, err
	}
	return c.repo.UpdateProduct(ctx, id, np)
}

// DeleteProduct removes a product that no order item references.
func (c Conf) DeleteProduct(ctx context.Context, id int64) error {
	return c.repo.DeleteProduct(ctx, id)
}

func (c Conf) checkProduct(ctx context.Context, np NewProduct) error {
	if err := c.validate.Struct(np); err != nil {
		return err
	}
	if !np.UnitPrice.IsPositive() {
		return apperr.Validation("unit_price", "Ensure this value is greater than 0.")
	}
	if np.UnitPrice.GreaterThan(maxPrice) {
		return apperr.Validation("unit_price", "Ensure this value is less than or equal to 9999.99.")
	}
	if !np.UnitPrice.Equal(np.UnitPrice.Truncate(2)) {
		return apperr.Validation("unit_price", "Ensure that there are no more than 2 decimal places.")
	}
	if _, err := c.repo.GetCollection(ctx, np.CollectionID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("collection", fmt.Sprintf("Invalid pk %d - object does not exist.", np.CollectionID))
		}
		return err
	}
	if len(np.PromotionIDs) > 0 {
		ok, err := c.repo.PromotionsExist(ctx, np.PromotionIDs)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Validation("promotions", "One or more promotions do not exist.")
		}
	}
	return nil
}

func (c Conf) CreateCollection(ctx context.Context, nc NewCollection) (Collection, error) {
	if err := c.checkCollection(ctx, nc); err != nil {
		return Collection{}, err
	}
	return c.repo.InsertCollection(ctx, nc)
}

func (c Conf) GetCollection(ctx context.Context, id int64) (Collection, error) {
	return c.repo.GetCollection(ctx, id)
}

func (c Conf) ListCollections(ctx context.Context) ([]Collection, error) {
	return c.repo.ListCollections(ctx)
}

func (c Conf) UpdateCollection(ctx context.Context, id int64, nc NewCollection) (Collection, error) {
	if err := c.checkCollection(ctx, nc); err != nil {
		return Collection{}, err
	}
	return c.repo.UpdateCollection(ctx, id, nc)
}

// DeleteCollection removes a collection that no product belongs to.
func (c Conf) DeleteCollection(ctx context.Context, id int64) error {
	return c.repo.DeleteCollection(ctx, id)
}

func (c Conf) checkCollection(ctx context.Context, nc NewCollection) error {
	if err := c.validate.Struct(nc); err != nil {
		return err
	}
	if nc.FeaturedProductID == nil {
		return nil
	}
	if _, err := c.repo.GetProduct(ctx, *nc.FeaturedProductID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Validation("featured_product", fmt.Sprintf("Invalid pk %d - object does not exist.", *nc.FeaturedProductID))
		}
		return err
	}
	return nil
}

func (c Conf) CreatePromotion(ctx context.Context, np NewPromotion) (Promotion, error) {
	if err := c.validate.Struct(np); err != nil {
		return Promotion{}, err
	}
	return c.repo.InsertPromotion(ctx, np)
}

func (c Conf) ListPromotions(ctx context.Context) ([]Promotion, error) {
	return c.repo.ListPromotions(ctx)
}

func (c Conf) CreateReview(ctx context.Context, productID int64, nr NewReview) (Review, error) {
	if err := c.validate.Struct(nr); err != nil {
		return Review{}, err
	}
	if _, err := c.repo.GetProduct(ctx, productID); err != nil {
		return Review{}, err
	}
	return c.repo.InsertReview(ctx, productID, nr)
}

func (c Conf) ListReviews(ctx context.Context, productID int64) ([]Review, error) {
	if _, err := c.repo.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return c.repo.ListReviews(ctx, productID)
}

func (c Conf) DeleteReview(ctx context.Context, productID, reviewID int64) error {
	return c.repo.DeleteReview(ctx, productID, reviewID)
}
