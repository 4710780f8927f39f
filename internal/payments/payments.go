// Package payments takes pending orders through Stripe Checkout and turns signed
// Stripe webhooks into payment status changes.
package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"storefront/internal/apperr"
	"storefront/internal/orders"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

const metadataOrderID = "order_id"

// SessionCreator is the part of the Stripe API used to open checkout sessions.
type SessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Conf struct {
	sessions      SessionCreator
	webhookSecret string
	successURL    string
	cancelURL     string
	currency      stripe.Currency
}

func NewConf(secretKey, webhookSecret, successURL, cancelURL string) (*Conf, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is empty")
	}
	api := client.New(secretKey, nil)
	return NewConfWithSessions(api.CheckoutSessions, webhookSecret, successURL, cancelURL)
}

// NewConfWithSessions builds a Conf around an existing session client.
func NewConfWithSessions(sessions SessionCreator, webhookSecret, successURL, cancelURL string) (*Conf, error) {
	if sessions == nil {
		return nil, errors.New("stripe session client is nil")
	}
	if webhookSecret == "" {
		return nil, errors.New("stripe webhook secret is empty")
	}
	return &Conf{
		sessions:      sessions,
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
		currency:      stripe.CurrencyUSD,
	}, nil
}

type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession charges the order at the prices captured when it was placed.
func (c *Conf) CreateCheckoutSession(ctx context.Context, o orders.Order, userID string) (Session, error) {
	if o.PaymentStatus != orders.PaymentPending {
		return Session{}, apperr.Validation("payment_status", "Only pending orders can be paid.")
	}
	if len(o.Items) == 0 {
		return Session{}, apperr.Validation("order_items", "The order has no items.")
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(o.Items))
	for _, item := range o.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(c.currency)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Product.Title),
				},
				UnitAmount: stripe.Int64(item.UnitPrice.Shift(2).IntPart()),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	orderID := strconv.FormatInt(o.ID, 10)
	params := &stripe.CheckoutSessionParams{
		SubmitType:        stripe.String("pay"),
		LineItems:         lineItems,
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		ClientReferenceID: stripe.String(orderID),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				metadataOrderID: orderID,
				"user_id":       userID,
			},
		},
	}
	params.Context = ctx

	s, err := c.sessions.New(params)
	if err != nil {
		return Session{}, apperr.Unavailable("payment provider is unavailable", err)
	}
	return Session{ID: s.ID, URL: s.URL}, nil
}

// PaymentUpdate is the status an order moves to after a payment event.
type PaymentUpdate struct {
	OrderID         int64
	Status          orders.PaymentStatus
	PaymentIntentID string
}

// ParseWebhook verifies the Stripe signature and maps payment intent events to
// an update. ok is false for event types that do not affect orders.
func (c *Conf) ParseWebhook(payload []byte, signature string) (u PaymentUpdate, ok bool, err error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return PaymentUpdate{}, false, apperr.Validation("signature", "Webhook signature verification failed.")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		u.Status = orders.PaymentComplete
	case stripe.EventTypePaymentIntentPaymentFailed:
		u.Status = orders.PaymentFailed
	default:
		return PaymentUpdate{}, false, nil
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return PaymentUpdate{}, false, fmt.Errorf("failed to decode payment intent: %w", err)
	}
	raw, found := intent.Metadata[metadataOrderID]
	if !found {
		return PaymentUpdate{}, false, apperr.Validation(metadataOrderID, "Payment intent carries no order id.")
	}
	u.OrderID, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return PaymentUpdate{}, false, apperr.Validation(metadataOrderID, fmt.Sprintf("%q is not a valid order id.", raw))
	}
	u.PaymentIntentID = intent.ID
	return u, true, nil
}
