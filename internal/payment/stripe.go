// Package payment wraps the Stripe SDK behind the small surface the checkout
// flow needs: hosted checkout sessions, webhook verification and catalog
// price provisioning.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/price"
	"github.com/stripe/stripe-go/v76/product"
	"github.com/stripe/stripe-go/v76/webhook"
)

// ErrVerification marks a webhook payload that failed authenticity checks,
// as opposed to downstream failures after a verified event.
var ErrVerification = errors.New("webhook verification failed")

type LineItem struct {
	PriceID  string
	Quantity int64
}

type SessionParams struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	LineItems     []LineItem
	Metadata      map[string]string
}

type WebhookEvent struct {
	Type        string
	CheckoutRef string
	Metadata    map[string]string
}

type PriceParams struct {
	Name        string
	Image       string
	Description string
	// UnitAmount is in the currency's smallest unit (cents).
	UnitAmount int64
}

type Client struct {
	endpointSecret string
}

func NewClient(secretKey, endpointSecret string) *Client {
	stripe.Key = secretKey
	return &Client{endpointSecret: endpointSecret}
}

func (c *Client) CreateSession(ctx context.Context, p SessionParams) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, item := range p.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		CustomerEmail:      stripe.String(p.CustomerEmail),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
	}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

// ParseWebhook verifies the event signature against the endpoint secret and
// fails closed on any mismatch. Session details are only decoded for
// completed-checkout events.
func (c *Client) ParseWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.endpointSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	ev := &WebhookEvent{Type: string(event.Type)}
	if ev.Type == "checkout.session.completed" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerification, err)
		}
		ev.CheckoutRef = sess.ID
		ev.Metadata = sess.Metadata
	}
	return ev, nil
}

// CreatePrice provisions a Stripe product plus price for a new catalog entry
// and returns the price id the checkout line items reference.
func (c *Client) CreatePrice(ctx context.Context, p PriceParams) (string, error) {
	productParams := &stripe.ProductParams{
		Name:        stripe.String(p.Name),
		Description: stripe.String(p.Description),
	}
	productParams.Context = ctx
	if p.Image != "" {
		productParams.Images = stripe.StringSlice([]string{p.Image})
	}
	prod, err := product.New(productParams)
	if err != nil {
		return "", err
	}

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyUSD)),
		UnitAmount: stripe.Int64(p.UnitAmount),
		Product:    stripe.String(prod.ID),
	}
	priceParams.Context = ctx
	pr, err := price.New(priceParams)
	if err != nil {
		return "", err
	}
	return pr.ID, nil
}
