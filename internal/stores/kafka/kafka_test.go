package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/events"
	"storefront/internal/orders"
	"storefront/pkg/ctxmanage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	topic      string
	key, value []byte
}

type fakeProducer struct {
	records []record
	err     error
}

func (f *fakeProducer) ProduceMessage(_ context.Context, topic string, key, value []byte) error {
	f.records = append(f.records, record{topic: topic, key: key, value: value})
	return f.err
}

func TestOrderCreatedListener(t *testing.T) {
	p := &fakeProducer{}
	cartID := uuid.New()
	placed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	event := orders.OrderCreated{
		CartID: cartID,
		UserID: "user-7",
		Order: orders.Order{
			ID:            12,
			CustomerID:    3,
			PlacedAt:      placed,
			PaymentStatus: orders.PaymentPending,
			Items: []orders.OrderItem{
				{ID: 1, Product: catalog.SimpleProduct{ID: 9}, UnitPrice: decimal.RequireFromString("2.50"), Quantity: 4},
			},
		},
	}

	require.NoError(t, OrderCreatedListener(p, OrderCreatedTopic)(context.Background(), event))
	require.Len(t, p.records, 1)
	assert.Equal(t, OrderCreatedTopic, p.records[0].topic)
	assert.Equal(t, "12", string(p.records[0].key))

	var got OrderCreated
	require.NoError(t, json.Unmarshal(p.records[0].value, &got))
	assert.Equal(t, cartID.String(), got.CartID)
	assert.Equal(t, "user-7", got.UserID)
	assert.Equal(t, "pending", got.PaymentStatus)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(9), got.Items[0].ProductID)
	assert.True(t, decimal.RequireFromString("10").Equal(got.TotalPrice))
}

func TestOrderCreatedListenerPropagatesProducerError(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	err := OrderCreatedListener(p, OrderCreatedTopic)(context.Background(), orders.OrderCreated{})
	assert.ErrorContains(t, err, "broker down")
}

// stalledProducer behaves like a client whose broker never answers.
type stalledProducer struct{}

func (stalledProducer) ProduceMessage(ctx context.Context, _ string, _, _ []byte) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestOrderCreatedListenerOnUnreachableBroker(t *testing.T) {
	bus := events.NewBus[orders.OrderCreated]()
	bus.SetListenerTimeout(30 * time.Millisecond)
	bus.Subscribe("kafka", OrderCreatedListener(stalledProducer{}, OrderCreatedTopic))

	start := time.Now()
	bus.Publish(context.Background(), orders.OrderCreated{Order: orders.Order{ID: 1}})
	assert.Less(t, time.Since(start), 30*time.Millisecond)

	waitCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.Wait(waitCtx))
	assert.Equal(t, int64(1), bus.Failures())
}

func TestAccountCreatedHandler(t *testing.T) {
	var ensured []string
	handle := AccountCreatedHandler(func(_ context.Context, userID string) error {
		ensured = append(ensured, userID)
		return nil
	})
	ctx := ctxmanage.WithTraceId(context.Background(), "trace")

	require.NoError(t, handle(ctx, []byte(`{"id":"auth0|1","name":"Ada"}`)))
	assert.Equal(t, []string{"auth0|1"}, ensured)

	assert.Error(t, handle(ctx, []byte(`{"name":"no id"}`)))
	assert.Error(t, handle(ctx, []byte(`not json`)))
	assert.Len(t, ensured, 1)
}

func TestNewConfRequiresBrokers(t *testing.T) {
	_, err := NewConf(nil, ConsumerGroup)
	assert.Error(t, err)
}
