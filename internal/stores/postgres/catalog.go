package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/catalog"
	"storefront/internal/tags"
)

const productColumns = `p.id, p.title, p.slug, p.description, p.unit_price, p.inventory, p.last_update, p.collection_id`

var productOrderings = map[catalog.ProductOrdering]string{
	catalog.OrderByID:             "p.id",
	catalog.OrderByUnitPrice:      "p.unit_price, p.id",
	catalog.OrderByUnitPriceDesc:  "p.unit_price DESC, p.id",
	catalog.OrderByLastUpdate:     "p.last_update, p.id",
	catalog.OrderByLastUpdateDesc: "p.last_update DESC, p.id",
}

func productNotFound() error {
	return apperr.NotFound("id", "No product with the given ID was found.")
}

func collectionNotFound() error {
	return apperr.NotFound("id", "No collection with the given ID was found.")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.UnitPrice, &p.Inventory, &p.LastUpdate, &p.CollectionID)
	p.LastUpdate = p.LastUpdate.UTC()
	p.PromotionIDs = []int64{}
	return p, err
}

func (s *Store) InsertProduct(ctx context.Context, np catalog.NewProduct) (catalog.Product, error) {
	var p catalog.Product
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO products AS p (title, slug, description, unit_price, inventory, last_update, collection_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+productColumns,
			np.Title, np.Slug, np.Description, np.UnitPrice, np.Inventory, s.now().UTC(), np.CollectionID)
		var err error
		if p, err = scanProduct(row); err != nil {
			if pgCode(err) == codeForeignKeyViolation {
				return apperr.Validation("collection", fmt.Sprintf("Invalid pk %d - object does not exist.", np.CollectionID))
			}
			return fmt.Errorf("failed to insert product: %w", err)
		}
		p.PromotionIDs, err = setPromotions(ctx, tx, p.ID, np.PromotionIDs)
		return err
	})
	return p, err
}

func (s *Store) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := getProduct(ctx, s.db, id)
	return p, classify(err)
}

func getProduct(ctx context.Context, q querier, id int64) (catalog.Product, error) {
	row := q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, productNotFound()
	}
	if err != nil {
		return catalog.Product{}, fmt.Errorf("failed to query product: %w", err)
	}
	products := []catalog.Product{p}
	if err := loadPromotions(ctx, q, products); err != nil {
		return catalog.Product{}, err
	}
	return products[0], nil
}

func (s *Store) ListProducts(ctx context.Context, f catalog.ProductFilter) ([]catalog.Product, error) {
	order, ok := productOrderings[f.Ordering]
	if !ok {
		order = productOrderings[catalog.OrderByID]
	}
	query := `SELECT ` + productColumns + ` FROM products p`
	var args []any
	if f.CollectionID != 0 {
		query += ` WHERE p.collection_id = $1`
		args = append(args, f.CollectionID)
	}
	query += ` ORDER BY ` + order

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query products: %w", err))
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("error iterating products: %w", err))
	}
	return products, classify(loadPromotions(ctx, s.db, products))
}

func (s *Store) UpdateProduct(ctx context.Context, id int64, np catalog.NewProduct) (catalog.Product, error) {
	var p catalog.Product
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			UPDATE products AS p
			SET title = $2, slug = $3, description = $4, unit_price = $5, inventory = $6,
			    last_update = $7, collection_id = $8
			WHERE p.id = $1
			RETURNING `+productColumns,
			id, np.Title, np.Slug, np.Description, np.UnitPrice, np.Inventory, s.now().UTC(), np.CollectionID)
		var err error
		p, err = scanProduct(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return productNotFound()
		case pgCode(err) == codeForeignKeyViolation:
			return apperr.Validation("collection", fmt.Sprintf("Invalid pk %d - object does not exist.", np.CollectionID))
		case err != nil:
			return fmt.Errorf("failed to update product: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_promotions WHERE product_id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear promotions: %w", err)
		}
		p.PromotionIDs, err = setPromotions(ctx, tx, id, np.PromotionIDs)
		return err
	})
	return p, err
}

// DeleteProduct relies on the schema for the delete rules: order items restrict,
// the featured reference is set null, reviews and cart items cascade. Tags and
// likes have no foreign key and are removed here.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := dropTarget(ctx, tx, tags.ProductTarget(id)); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
		if pgCode(err) == codeForeignKeyViolation {
			return apperr.Protected("Product has one or more order items, so it can not be deleted.")
		}
		if err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return requireAffected(res, productNotFound)
	})
}

func setPromotions(ctx context.Context, tx *sql.Tx, productID int64, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO product_promotions (product_id, promotion_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`, productID, ids)
	if pgCode(err) == codeForeignKeyViolation {
		return nil, apperr.Validation("promotions", "One or more promotions do not exist.")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to attach promotions: %w", err)
	}
	return ids, nil
}

func loadPromotions(ctx context.Context, q querier, products []catalog.Product) error {
	if len(products) == 0 {
		return nil
	}
	index := make(map[int64]int, len(products))
	ids := make([]int64, 0, len(products))
	for i, p := range products {
		index[p.ID] = i
		ids = append(ids, p.ID)
	}
	rows, err := q.QueryContext(ctx, `
		SELECT product_id, promotion_id FROM product_promotions
		WHERE product_id = ANY($1) ORDER BY promotion_id`, ids)
	if err != nil {
		return fmt.Errorf("failed to query product promotions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var productID, promotionID int64
		if err := rows.Scan(&productID, &promotionID); err != nil {
			return fmt.Errorf("failed to scan product promotion: %w", err)
		}
		p := &products[index[productID]]
		p.PromotionIDs = append(p.PromotionIDs, promotionID)
	}
	return rows.Err()
}

const collectionColumns = `c.id, c.title, c.featured_product_id,
	(SELECT count(*) FROM products p WHERE p.collection_id = c.id)`

func scanCollection(row scanner) (catalog.Collection, error) {
	var (
		c        catalog.Collection
		featured sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Title, &featured, &c.ProductsCount); err != nil {
		return catalog.Collection{}, err
	}
	if featured.Valid {
		c.FeaturedProductID = &featured.Int64
	}
	return c, nil
}

func (s *Store) InsertCollection(ctx context.Context, nc catalog.NewCollection) (catalog.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO collections AS c (title, featured_product_id) VALUES ($1, $2)
		RETURNING `+collectionColumns, nc.Title, nc.FeaturedProductID)
	c, err := scanCollection(row)
	if pgCode(err) == codeForeignKeyViolation {
		return catalog.Collection{}, apperr.Validation("featured_product", "Featured product does not exist.")
	}
	if err != nil {
		return catalog.Collection{}, classify(fmt.Errorf("failed to insert collection: %w", err))
	}
	return c, nil
}

func (s *Store) GetCollection(ctx context.Context, id int64) (catalog.Collection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+collectionColumns+` FROM collections c WHERE c.id = $1`, id)
	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Collection{}, collectionNotFound()
	}
	if err != nil {
		return catalog.Collection{}, classify(fmt.Errorf("failed to query collection: %w", err))
	}
	return c, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]catalog.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+collectionColumns+` FROM collections c ORDER BY c.id`)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query collections: %w", err))
	}
	defer rows.Close()

	collections := []catalog.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, classify(rows.Err())
}

func (s *Store) UpdateCollection(ctx context.Context, id int64, nc catalog.NewCollection) (catalog.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE collections AS c SET title = $2, featured_product_id = $3
		WHERE c.id = $1
		RETURNING `+collectionColumns, id, nc.Title, nc.FeaturedProductID)
	c, err := scanCollection(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return catalog.Collection{}, collectionNotFound()
	case pgCode(err) == codeForeignKeyViolation:
		return catalog.Collection{}, apperr.Validation("featured_product", "Featured product does not exist.")
	case err != nil:
		return catalog.Collection{}, classify(fmt.Errorf("failed to update collection: %w", err))
	}
	return c, nil
}

func (s *Store) DeleteCollection(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := dropTarget(ctx, tx, tags.CollectionTarget(id)); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
		if pgCode(err) == codeForeignKeyViolation {
			return apperr.Protected("Collection has one or more products, so it can not be deleted.")
		}
		if err != nil {
			return fmt.Errorf("failed to delete collection: %w", err)
		}
		return requireAffected(res, collectionNotFound)
	})
}

func (s *Store) InsertPromotion(ctx context.Context, np catalog.NewPromotion) (catalog.Promotion, error) {
	p := catalog.Promotion{Description: np.Description, Discount: np.Discount}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO promotions (description, discount) VALUES ($1, $2) RETURNING id`,
		np.Description, np.Discount).Scan(&p.ID)
	if err != nil {
		return catalog.Promotion{}, classify(fmt.Errorf("failed to insert promotion: %w", err))
	}
	return p, nil
}

func (s *Store) ListPromotions(ctx context.Context) ([]catalog.Promotion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, description, discount FROM promotions ORDER BY id`)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query promotions: %w", err))
	}
	defer rows.Close()

	promotions := []catalog.Promotion{}
	for rows.Next() {
		var p catalog.Promotion
		if err := rows.Scan(&p.ID, &p.Description, &p.Discount); err != nil {
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, p)
	}
	return promotions, classify(rows.Err())
}

func (s *Store) PromotionsExist(ctx context.Context, ids []int64) (bool, error) {
	var missing bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM unnest($1::bigint[]) AS want(id)
			WHERE NOT EXISTS (SELECT 1 FROM promotions p WHERE p.id = want.id)
		)`, ids).Scan(&missing)
	if err != nil {
		return false, classify(fmt.Errorf("failed to check promotions: %w", err))
	}
	return !missing, nil
}

func (s *Store) InsertReview(ctx context.Context, productID int64, nr catalog.NewReview) (catalog.Review, error) {
	r := catalog.Review{ProductID: productID, Name: nr.Name, Description: nr.Description}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reviews (product_id, name, description, date) VALUES ($1, $2, $3, $4)
		RETURNING id, date`, productID, nr.Name, nr.Description, s.now().UTC()).Scan(&r.ID, &r.Date)
	if pgCode(err) == codeForeignKeyViolation {
		return catalog.Review{}, productNotFound()
	}
	if err != nil {
		return catalog.Review{}, classify(fmt.Errorf("failed to insert review: %w", err))
	}
	return r, nil
}

func (s *Store) ListReviews(ctx context.Context, productID int64) ([]catalog.Review, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, date, name, description FROM reviews
		WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to query reviews: %w", err))
	}
	defer rows.Close()

	reviews := []catalog.Review{}
	for rows.Next() {
		var r catalog.Review
		if err := rows.Scan(&r.ID, &r.ProductID, &r.Date, &r.Name, &r.Description); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, classify(rows.Err())
}

func (s *Store) DeleteReview(ctx context.Context, productID, reviewID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1 AND product_id = $2`, reviewID, productID)
	if err != nil {
		return classify(fmt.Errorf("failed to delete review: %w", err))
	}
	return requireAffected(res, func() error {
		return apperr.NotFound("id", "No review with the given ID was found.")
	})
}

func requireAffected(res sql.Result, notFound func() error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound()
	}
	return nil
}
