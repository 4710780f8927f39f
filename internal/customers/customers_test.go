package customers_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/customers"
	"storefront/internal/stores/memory"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// racyProvisioner loses the insert race a fixed number of times before succeeding.
type racyProvisioner struct {
	conflicts int
	calls     int
}

func (p *racyProvisioner) GetOrCreateCustomer(_ context.Context, userID string) (customers.Customer, bool, error) {
	p.calls++
	if p.calls <= p.conflicts {
		return customers.Customer{}, false, apperr.Conflict("user_id", "customer already exists", errors.New("duplicate key"))
	}
	return customers.Customer{ID: 7, UserID: userID, Membership: customers.MembershipBronze}, false, nil
}

func TestEnsureRetriesOneConflict(t *testing.T) {
	p := &racyProvisioner{conflicts: 1}
	c, err := customers.Ensure(context.Background(), p, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.ID)
	assert.Equal(t, 2, p.calls)
}

func TestEnsureGivesUpAfterSecondConflict(t *testing.T) {
	p := &racyProvisioner{conflicts: 2}
	_, err := customers.Ensure(context.Background(), p, "user-1")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 2, p.calls)
}

func TestEnsureRequiresPrincipal(t *testing.T) {
	p := &racyProvisioner{}
	_, err := customers.Ensure(context.Background(), p, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Zero(t, p.calls)
}

func TestEnsureCustomerConcurrent(t *testing.T) {
	conf, err := customers.NewConf(memory.New())
	require.NoError(t, err)

	ids := make([]int64, 16)
	var g errgroup.Group
	for i := range ids {
		g.Go(func() error {
			c, err := conf.EnsureCustomer(context.Background(), "user-1")
			ids[i] = c.ID
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	c, err := conf.GetCustomer(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, customers.MembershipBronze, c.Membership)
}

func TestUpdateProfile(t *testing.T) {
	conf, err := customers.NewConf(memory.New())
	require.NoError(t, err)
	ctx := context.Background()

	birth := customers.NewDate(1990, time.March, 4)
	c, err := conf.UpdateProfile(ctx, "user-1", customers.CustomerUpdate{Phone: "555-0100", BirthDate: &birth})
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, "555-0100", c.Phone)
	require.NotNil(t, c.BirthDate)
	assert.Equal(t, "1990-03-04", c.BirthDate.String())

	again, err := conf.EnsureCustomer(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, again.ID)
	assert.Equal(t, "555-0100", again.Phone)

	_, err = conf.UpdateProfile(ctx, "user-1", customers.CustomerUpdate{Phone: strings.Repeat("1", 256)})
	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)
}

func TestParseDate(t *testing.T) {
	d, err := customers.ParseDate("2001-12-31")
	require.NoError(t, err)
	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2001-12-31"`, string(b))

	_, err = customers.ParseDate("31/12/2001")
	assert.Error(t, err)

	var parsed customers.Date
	require.NoError(t, parsed.UnmarshalJSON([]byte(`"1999-01-02"`)))
	assert.Equal(t, "1999-01-02", parsed.String())
}

func TestParseMembership(t *testing.T) {
	m, err := customers.ParseMembership("gold")
	require.NoError(t, err)
	assert.Equal(t, customers.MembershipGold, m)
	_, err = customers.ParseMembership("platinum")
	assert.Error(t, err)
}
