package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/voxmarket/voxmarket-api/config"
)

// PaymentIntent is the gateway-neutral view of a card payment intent. The
// client secret enables a one-time charge from the browser; the ID is what
// the client reports back once the charge succeeds.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// PaymentGateway abstracts the card processor. CreateIntent never mutates an
// order; VerifyCharge is consulted before the lifecycle engine moves an order
// out of awaiting_payment.
type PaymentGateway interface {
	CreateIntent(amountCents int64, currency, orderCode string) (*PaymentIntent, error)
	VerifyCharge(intentID string) (bool, error)
}

var paymentGatewayInstance PaymentGateway

// StripeGateway implements PaymentGateway against the Stripe API.
type StripeGateway struct{}

// InitPaymentGateway initializes the Stripe gateway from configuration.
func InitPaymentGateway(cfg *config.Config) PaymentGateway {
	stripe.Key = cfg.StripeSecretKey
	paymentGatewayInstance = &StripeGateway{}
	return paymentGatewayInstance
}

// GetPaymentGateway returns the initialized payment gateway instance
func GetPaymentGateway() PaymentGateway {
	return paymentGatewayInstance
}

// SetPaymentGateway sets the payment gateway instance (primarily for testing)
func SetPaymentGateway(g PaymentGateway) {
	paymentGatewayInstance = g
}

// CreateIntent creates a Stripe PaymentIntent for the given amount.
func (g *StripeGateway) CreateIntent(amountCents int64, currency, orderCode string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("order_code", orderCode)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// VerifyCharge reports whether the intent has actually succeeded. The client
// reports success, but the gateway is the authority.
func (g *StripeGateway) VerifyCharge(intentID string) (bool, error) {
	pi, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return false, fmt.Errorf("failed to look up payment intent %s: %w", intentID, err)
	}
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}
