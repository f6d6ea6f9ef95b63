package payment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sony/gobreaker"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// ErrNotConfigured is returned when no secret key was provided.
var ErrNotConfigured = errors.New("stripe: secret key not configured")

// intentCreator is the slice of the Stripe client the provider uses.
type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type StripeProvider struct {
	intents intentCreator
	cb      *gobreaker.CircuitBreaker
}

var _ ports.PaymentProvider = (*StripeProvider)(nil)

func NewStripeProvider(secretKey string, logger *slog.Logger) *StripeProvider {
	var intents intentCreator
	if secretKey != "" {
		sc := &client.API{}
		sc.Init(secretKey, nil)
		intents = sc.PaymentIntents
	}
	return newStripeProvider(intents, config.NewCircuitBreaker(config.BreakerStripe, logger, isCardError))
}

func newStripeProvider(intents intentCreator, cb *gobreaker.CircuitBreaker) *StripeProvider {
	return &StripeProvider{intents: intents, cb: cb}
}

// CreatePaymentIntent creates an intent with automatic payment methods and
// returns its client secret.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, amountMinorUnits int64, currency string) (string, error) {
	if p.intents == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinorUnits),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	res, err := p.cb.Execute(func() (interface{}, error) {
		return p.intents.New(params)
	})
	if err != nil {
		return "", err
	}
	pi, ok := res.(*stripe.PaymentIntent)
	if !ok || pi == nil {
		return "", errors.New("stripe: empty payment intent response")
	}
	return pi.ClientSecret, nil
}

// isCardError keeps request-level rejections from tripping the breaker.
func isCardError(err error) bool {
	if err == nil {
		return true
	}
	var serr *stripe.Error
	if errors.As(err, &serr) {
		return serr.Type == stripe.ErrorTypeCard || serr.Type == stripe.ErrorTypeInvalidRequest
	}
	return false
}
