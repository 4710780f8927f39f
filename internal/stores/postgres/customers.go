package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/apperr"
	"storefront/internal/customers"
)

const customerColumns = `id, user_id, phone, birth_date, membership`

func scanCustomer(row scanner) (customers.Customer, error) {
	var (
		c          customers.Customer
		birthDate  sql.NullTime
		membership string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Phone, &birthDate, &membership); err != nil {
		return customers.Customer{}, err
	}
	if birthDate.Valid {
		d := customers.NewDate(birthDate.Time.Date())
		c.BirthDate = &d
	}
	c.Membership = customers.Membership(membership)
	return c, nil
}

func (s *Store) GetOrCreateCustomer(ctx context.Context, userID string) (customers.Customer, bool, error) {
	c, created, err := getOrCreateCustomer(ctx, s.db, userID)
	return c, created, classify(err)
}

// getOrCreateCustomer inserts first and reads second. ON CONFLICT DO NOTHING waits
// for a concurrent insert of the same user id, so the fallback read finds its row
// once that insert commits; if it rolled back instead, the caller gets a Conflict.
func getOrCreateCustomer(ctx context.Context, q querier, userID string) (customers.Customer, bool, error) {
	row := q.QueryRowContext(ctx, `
		INSERT INTO customers (user_id, membership) VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING `+customerColumns, userID, string(customers.DefaultMembership))
	c, err := scanCustomer(row)
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return customers.Customer{}, false, fmt.Errorf("failed to insert customer: %w", err)
	}

	row = q.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE user_id = $1`, userID)
	c, err = scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return customers.Customer{}, false, apperr.Conflict("user_id", "customer was created concurrently", err)
	}
	if err != nil {
		return customers.Customer{}, false, fmt.Errorf("failed to query customer: %w", err)
	}
	return c, false, nil
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (customers.Customer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return customers.Customer{}, apperr.NotFound("id", "No customer with the given ID was found.")
	}
	if err != nil {
		return customers.Customer{}, classify(fmt.Errorf("failed to query customer: %w", err))
	}
	return c, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c customers.Customer) (customers.Customer, error) {
	var birthDate sql.NullTime
	if c.BirthDate != nil {
		birthDate = sql.NullTime{Time: c.BirthDate.Time, Valid: true}
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE customers SET phone = $2, birth_date = $3, membership = $4
		WHERE id = $1
		RETURNING `+customerColumns, c.ID, c.Phone, birthDate, string(c.Membership))
	updated, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return customers.Customer{}, apperr.NotFound("id", "No customer with the given ID was found.")
	}
	if err != nil {
		return customers.Customer{}, classify(fmt.Errorf("failed to update customer: %w", err))
	}
	return updated, nil
}
