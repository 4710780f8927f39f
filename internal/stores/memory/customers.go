package memory

import (
	"context"

	"storefront/internal/apperr"
	"storefront/internal/customers"
)

func (s *Store) GetOrCreateCustomer(ctx context.Context, userID string) (customers.Customer, bool, error) {
	var (
		c       customers.Customer
		created bool
	)
	err := s.write(ctx, func(st *state) error {
		c, created = st.getOrCreateCustomer(userID)
		return nil
	})
	return c, created, err
}

func (s *Store) GetCustomer(ctx context.Context, id int64) (customers.Customer, error) {
	var c customers.Customer
	err := s.read(ctx, func(st *state) error {
		var ok bool
		if c, ok = st.customers[id]; !ok {
			return apperr.NotFound("id", "No customer with the given ID was found.")
		}
		return nil
	})
	return c, err
}

func (s *Store) UpdateCustomer(ctx context.Context, c customers.Customer) (customers.Customer, error) {
	err := s.write(ctx, func(st *state) error {
		current, ok := st.customers[c.ID]
		if !ok {
			return apperr.NotFound("id", "No customer with the given ID was found.")
		}
		// the principal a customer belongs to never changes
		c.UserID = current.UserID
		st.customers[c.ID] = c
		return nil
	})
	return c, err
}

// getOrCreateCustomer relies on the caller holding the store lock, which is what
// makes the lookup and the insert a single step.
func (st *state) getOrCreateCustomer(userID string) (customers.Customer, bool) {
	for _, c := range st.customers {
		if c.UserID == userID {
			return c, false
		}
	}
	st.seq.customer++
	c := customers.Customer{ID: st.seq.customer, UserID: userID, Membership: customers.DefaultMembership}
	st.customers[c.ID] = c
	return c, true
}
