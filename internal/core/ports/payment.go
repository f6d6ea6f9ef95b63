package ports

//go:generate mockgen -source=payment.go -destination=../../mocks/payment_mock.go -package=mocks

import "context"

// PaymentProvider creates payment intents on the external provider and
// returns the client secret the browser confirms the payment with.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountMinorUnits int64, currency string) (string, error)
}

// RateLimiter admits at most a configured number of hits per key per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
