package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/tags"
)

func productNotFound() error {
	return apperr.NotFound("id", "No product with the given ID was found.")
}

func collectionNotFound() error {
	return apperr.NotFound("id", "No collection with the given ID was found.")
}

func (s *Store) InsertProduct(ctx context.Context, np catalog.NewProduct) (catalog.Product, error) {
	var p catalog.Product
	err := s.write(ctx, func(st *state) error {
		st.seq.product++
		p = productFrom(st.seq.product, np)
		p.LastUpdate = s.now().UTC()
		st.products[p.ID] = p
		return nil
	})
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := s.read(ctx, func(st *state) error {
		var ok bool
		if p, ok = st.products[id]; !ok {
			return productNotFound()
		}
		return nil
	})
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, f catalog.ProductFilter) ([]catalog.Product, error) {
	out := []catalog.Product{}
	err := s.read(ctx, func(st *state) error {
		for _, p := range st.products {
			if f.CollectionID != 0 && p.CollectionID != f.CollectionID {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	slices.SortFunc(out, productOrder(f.Ordering))
	return out, err
}

func productOrder(o catalog.ProductOrdering) func(a, b catalog.Product) int {
	byID := func(a, b catalog.Product) int { return cmp.Compare(a.ID, b.ID) }
	switch o {
	case catalog.OrderByUnitPrice:
		return func(a, b catalog.Product) int { return cmp.Or(a.UnitPrice.Cmp(b.UnitPrice), byID(a, b)) }
	case catalog.OrderByUnitPriceDesc:
		return func(a, b catalog.Product) int { return cmp.Or(b.UnitPrice.Cmp(a.UnitPrice), byID(a, b)) }
	case catalog.OrderByLastUpdate:
		return func(a, b catalog.Product) int { return cmp.Or(a.LastUpdate.Compare(b.LastUpdate), byID(a, b)) }
	case catalog.OrderByLastUpdateDesc:
		return func(a, b catalog.Product) int { return cmp.Or(b.LastUpdate.Compare(a.LastUpdate), byID(a, b)) }
	}
	return byID
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, np catalog.NewProduct) (catalog.Product, error) {
	var p catalog.Product
	err := s.write(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return productNotFound()
		}
		p = productFrom(id, np)
		p.LastUpdate = s.now().UTC()
		st.products[id] = p
		return nil
	})
	return p, err
}

func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return productNotFound()
		}
		for _, oi := range st.orderItems {
			if oi.ProductID == id {
				return apperr.Protected("Product has one or more order items, so it can not be deleted.")
			}
		}
		for cid, c := range st.collections {
			if c.FeaturedProductID != nil && *c.FeaturedProductID == id {
				c.FeaturedProductID = nil
				st.collections[cid] = c
			}
		}
		for rid, r := range st.reviews {
			if r.ProductID == id {
				delete(st.reviews, rid)
			}
		}
		for iid, item := range st.cartItems {
			if item.ProductID == id {
				delete(st.cartItems, iid)
			}
		}
		st.dropTarget(tags.ProductTarget(id))
		delete(st.products, id)
		return nil
	})
}

func (s *Store) InsertCollection(ctx context.Context, nc catalog.NewCollection) (catalog.Collection, error) {
	var c catalog.Collection
	err := s.write(ctx, func(st *state) error {
		st.seq.collection++
		c = catalog.Collection{ID: st.seq.collection, Title: nc.Title, FeaturedProductID: nc.FeaturedProductID}
		st.collections[c.ID] = c
		return nil
	})
	return c, err
}

func (s *Store) GetCollection(ctx context.Context, id int64) (catalog.Collection, error) {
	var c catalog.Collection
	err := s.read(ctx, func(st *state) error {
		var ok bool
		if c, ok = st.collections[id]; !ok {
			return collectionNotFound()
		}
		c.ProductsCount = st.productsIn(id)
		return nil
	})
	return c, err
}

func (s *Store) ListCollections(ctx context.Context) ([]catalog.Collection, error) {
	out := []catalog.Collection{}
	err := s.read(ctx, func(st *state) error {
		for _, c := range st.collections {
			c.ProductsCount = st.productsIn(c.ID)
			out = append(out, c)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalog.Collection) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (s *Store) UpdateCollection(ctx context.Context, id int64, nc catalog.NewCollection) (catalog.Collection, error) {
	var c catalog.Collection
	err := s.write(ctx, func(st *state) error {
		if _, ok := st.collections[id]; !ok {
			return collectionNotFound()
		}
		c = catalog.Collection{ID: id, Title: nc.Title, FeaturedProductID: nc.FeaturedProductID}
		st.collections[id] = c
		c.ProductsCount = st.productsIn(id)
		return nil
	})
	return c, err
}

func (s *Store) DeleteCollection(ctx context.Context, id int64) error {
	return s.write(ctx, func(st *state) error {
		if _, ok := st.collections[id]; !ok {
			return collectionNotFound()
		}
		if st.productsIn(id) > 0 {
			return apperr.Protected("Collection has one or more products, so it can not be deleted.")
		}
		st.dropTarget(tags.CollectionTarget(id))
		delete(st.collections, id)
		return nil
	})
}

func (s *Store) InsertPromotion(ctx context.Context, np catalog.NewPromotion) (catalog.Promotion, error) {
	var p catalog.Promotion
	err := s.write(ctx, func(st *state) error {
		st.seq.promotion++
		p = catalog.Promotion{ID: st.seq.promotion, Description: np.Description, Discount: np.Discount}
		st.promotions[p.ID] = p
		return nil
	})
	return p, err
}

func (s *Store) ListPromotions(ctx context.Context) ([]catalog.Promotion, error) {
	out := []catalog.Promotion{}
	err := s.read(ctx, func(st *state) error {
		for _, p := range st.promotions {
			out = append(out, p)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalog.Promotion) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (s *Store) PromotionsExist(ctx context.Context, ids []int64) (bool, error) {
	ok := true
	err := s.read(ctx, func(st *state) error {
		for _, id := range ids {
			if _, found := st.promotions[id]; !found {
				ok = false
			}
		}
		return nil
	})
	return ok, err
}

func (s *Store) InsertReview(ctx context.Context, productID int64, nr catalog.NewReview) (catalog.Review, error) {
	var r catalog.Review
	err := s.write(ctx, func(st *state) error {
		if _, ok := st.products[productID]; !ok {
			return productNotFound()
		}
		st.seq.review++
		now := s.now().UTC()
		r = catalog.Review{
			ID:          st.seq.review,
			ProductID:   productID,
			Date:        now.Truncate(24 * time.Hour),
			Name:        nr.Name,
			Description: nr.Description,
		}
		st.reviews[r.ID] = r
		return nil
	})
	return r, err
}

func (s *Store) ListReviews(ctx context.Context, productID int64) ([]catalog.Review, error) {
	out := []catalog.Review{}
	err := s.read(ctx, func(st *state) error {
		for _, r := range st.reviews {
			if r.ProductID == productID {
				out = append(out, r)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b catalog.Review) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (s *Store) DeleteReview(ctx context.Context, productID, reviewID int64) error {
	return s.write(ctx, func(st *state) error {
		r, ok := st.reviews[reviewID]
		if !ok || r.ProductID != productID {
			return apperr.NotFound("id", "No review with the given ID was found.")
		}
		delete(st.reviews, reviewID)
		return nil
	})
}

func (st *state) productsIn(collectionID int64) int {
	n := 0
	for _, p := range st.products {
		if p.CollectionID == collectionID {
			n++
		}
	}
	return n
}

// dropTarget removes the tags and likes pointing at a deleted entity.
func (st *state) dropTarget(t tags.Target) {
	for id, ti := range st.taggedItems {
		if ti.Target == t {
			delete(st.taggedItems, id)
		}
	}
	for id, l := range st.likes {
		if l.Target == t {
			delete(st.likes, id)
		}
	}
}

func productFrom(id int64, np catalog.NewProduct) catalog.Product {
	return catalog.Product{
		ID:           id,
		Title:        np.Title,
		Slug:         np.Slug,
		Description:  np.Description,
		UnitPrice:    np.UnitPrice,
		Inventory:    np.Inventory,
		CollectionID: np.CollectionID,
		PromotionIDs: slices.Clone(np.PromotionIDs),
	}
}
