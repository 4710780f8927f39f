package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/apperr"
	"storefront/pkg/logkey"
	"storefront/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// Provisioner resolves the customer of a principal, creating it on first use.
// Implementations insert first and fall back to a read when the unique key on
// user id is already taken; apperr.KindConflict is returned when neither works.
type Provisioner interface {
	GetOrCreateCustomer(ctx context.Context, userID string) (Customer, bool, error)
}

type Repository interface {
	Provisioner
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	UpdateCustomer(ctx context.Context, c Customer) (Customer, error)
}

// Ensure returns the single customer of userID, retrying once when the get-or-create
// lost a race with a concurrent insert.
func Ensure(ctx context.Context, p Provisioner, userID string) (Customer, error) {
	if userID == "" {
		return Customer{}, apperr.Validation("user_id", "principal id is required")
	}
	c, created, err := p.GetOrCreateCustomer(ctx, userID)
	if apperr.Is(err, apperr.KindConflict) {
		c, created, err = p.GetOrCreateCustomer(ctx, userID)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("failed to resolve customer: %w", err)
	}
	if created {
		slog.Info("customer provisioned", slog.String(logkey.UserID, userID), slog.Int64("CustomerID", c.ID))
	}
	return c, nil
}

type Conf struct {
	repo     Repository
	validate *validator.Validate
}

func NewConf(repo Repository) (Conf, error) {
	if repo == nil {
		return Conf{}, errors.New("customer repository is nil")
	}
	return Conf{repo: repo, validate: validation.New()}, nil
}

// EnsureCustomer guarantees exactly one customer row exists for the principal.
func (c Conf) EnsureCustomer(ctx context.Context, userID string) (Customer, error) {
	return Ensure(ctx, c.repo, userID)
}

func (c Conf) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	return c.repo.GetCustomer(ctx, id)
}

// UpdateProfile changes the contact details of the principal's customer.
func (c Conf) UpdateProfile(ctx context.Context, userID string, u CustomerUpdate) (Customer, error) {
	if err := c.validate.Struct(u); err != nil {
		return Customer{}, err
	}
	cust, err := c.EnsureCustomer(ctx, userID)
	if err != nil {
		return Customer{}, err
	}
	cust.Phone = u.Phone
	cust.BirthDate = u.BirthDate
	return c.repo.UpdateCustomer(ctx, cust)
}
