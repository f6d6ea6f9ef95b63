package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// Authorizer resolves the caller's role and status from the store and applies
// Authorize. A caller without a user record is Forbidden, not Unauthenticated.
type Authorizer struct {
	users   ports.UserRepository
	metrics ports.Metrics
	logger  *slog.Logger
}

func NewAuthorizer(users ports.UserRepository, metrics ports.Metrics, logger *slog.Logger) *Authorizer {
	return &Authorizer{
		users:   users,
		metrics: orNopMetrics(metrics),
		logger:  orDiscard(logger),
	}
}

// Caller loads the user record behind id.
func (a *Authorizer) Caller(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if id.Email == "" {
		return nil, domain.ErrUnauthenticated
	}
	user, err := a.users.FindByEmail(ctx, id.Email)
	if errors.Is(err, domain.ErrNotFound) {
		a.logger.WarnContext(ctx, "caller has no user record", "email", id.Email)
		return nil, domain.Forbidden("unauthorized access")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Check applies the policy to an already loaded caller.
func (a *Authorizer) Check(ctx context.Context, caller *domain.User, action Action, ownerEmail string) error {
	decision := Authorize(ActorFromUser(*caller), action, ownerEmail)
	a.metrics.AuthorizationDecision(string(action), bool(decision))
	if decision == Deny {
		a.logger.WarnContext(ctx, "authorization denied",
			"action", string(action),
			"email", caller.Email,
			"role", string(caller.Role),
			"status", string(caller.Status),
		)
		return domain.Forbidden("forbidden")
	}
	return nil
}

// Require loads the caller and checks action in one step.
func (a *Authorizer) Require(ctx context.Context, id domain.Identity, action Action, ownerEmail string) (*domain.User, error) {
	caller, err := a.Caller(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := a.Check(ctx, caller, action, ownerEmail); err != nil {
		return nil, err
	}
	return caller, nil
}

type nopMetrics struct{}

func (nopMetrics) AuthorizationDecision(string, bool) {}
func (nopMetrics) LifecycleTransition(string, string) {}
func (nopMetrics) PaymentIntent(string)               {}

func orNopMetrics(m ports.Metrics) ports.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, ports.LifecycleEvent) error { return nil }

func orNopRecorder(r ports.EventRecorder) ports.EventRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
