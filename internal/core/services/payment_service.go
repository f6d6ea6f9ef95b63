package services

import (
	"context"
	"log/slog"
	"math"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type PaymentService struct {
	provider ports.PaymentProvider
	authz    *Authorizer
	currency string
	metrics  ports.Metrics
	logger   *slog.Logger
}

var _ ports.PaymentService = (*PaymentService)(nil)

func NewPaymentService(
	provider ports.PaymentProvider,
	authz *Authorizer,
	currency string,
	metrics ports.Metrics,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		provider: provider,
		authz:    authz,
		currency: currency,
		metrics:  orNopMetrics(metrics),
		logger:   orDiscard(logger),
	}
}

// maxMajorUnits is the largest amount whose minor units still fit in an int64.
const maxMajorUnits = math.MaxInt64 / 100

// ToMinorUnits converts a major-unit amount to the provider's integer minor
// units, rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func payable(amount float64) bool {
	if math.IsNaN(amount) || amount <= 0 || amount >= maxMajorUnits {
		return false
	}
	return ToMinorUnits(amount) >= 1
}

// CreateIntent returns the provider's client secret for amount. Amounts that
// are not positive once converted, or too large to convert, are rejected
// before the provider is called.
func (s *PaymentService) CreateIntent(ctx context.Context, id domain.Identity, amount float64) (string, error) {
	if !payable(amount) {
		s.metrics.PaymentIntent("rejected")
		return "", domain.Validation("amount must be positive")
	}

	caller, err := s.authz.Require(ctx, id, ActionPaymentCreateIntent, "")
	if err != nil {
		return "", err
	}

	minor := ToMinorUnits(amount)
	secret, err := s.provider.CreatePaymentIntent(ctx, minor, s.currency)
	if err != nil {
		s.metrics.PaymentIntent("failed")
		s.logger.ErrorContext(ctx, "payment intent failed", "email", caller.Email, "amount", minor, "error", err)
		return "", domain.Upstream("payment provider unavailable", err)
	}

	s.metrics.PaymentIntent("created")
	s.logger.InfoContext(ctx, "payment intent created", "email", caller.Email, "amount", minor, "currency", s.currency)
	return secret, nil
}
