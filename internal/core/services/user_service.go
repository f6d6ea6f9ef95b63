package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type UserService struct {
	users   ports.UserRepository
	authz   *Authorizer
	events  ports.EventRecorder
	metrics ports.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(
	users ports.UserRepository,
	authz *Authorizer,
	events ports.EventRecorder,
	metrics ports.Metrics,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:   users,
		authz:   authz,
		events:  orNopRecorder(events),
		metrics: orNopMetrics(metrics),
		logger:  orDiscard(logger),
		now:     time.Now,
	}
}

// Register creates the user on first sign up and reports created=false when
// the email is already registered. Role and status from the caller are
// ignored: every new user is an active donor. The unique index on email
// settles two registrations racing past the existence check.
func (s *UserService) Register(ctx context.Context, user domain.User) (bool, error) {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return false, domain.Validation("email is required")
	}

	existing, err := s.users.FindByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	user.Role = domain.RoleDonor
	user.Status = domain.UserActive
	user.CreatedAt = s.now().UTC()

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	s.logger.InfoContext(ctx, "user registered", "email", user.Email)
	return true, nil
}

func (s *UserService) Profile(ctx context.Context, id domain.Identity, email string) (*domain.User, error) {
	if _, err := s.authz.Require(ctx, id, ActionUserReadProfile, email); err != nil {
		return nil, err
	}
	return s.users.FindByEmail(ctx, email)
}

func (s *UserService) Role(ctx context.Context, id domain.Identity, email string) (domain.Role, error) {
	user, err := s.Profile(ctx, id, email)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id domain.Identity, email string, profile domain.Profile) error {
	if profile == (domain.Profile{}) {
		return domain.Validation("nothing to update")
	}
	if _, err := s.authz.Require(ctx, id, ActionUserUpdateProfile, email); err != nil {
		return err
	}
	return s.users.UpsertProfile(ctx, email, profile)
}

func (s *UserService) List(ctx context.Context, id domain.Identity, status string) ([]domain.User, error) {
	var filter domain.UserStatus
	if status != "" {
		st, err := domain.ParseUserStatus(status)
		if err != nil {
			return nil, err
		}
		filter = st
	}
	if _, err := s.authz.Require(ctx, id, ActionUserList, ""); err != nil {
		return nil, err
	}
	return s.users.List(ctx, filter)
}

// ChangeStatus applies a block or unblock command. Other commands change
// nothing and report changed=false.
func (s *UserService) ChangeStatus(ctx context.Context, id domain.Identity, email, command string) (bool, error) {
	caller, err := s.authz.Require(ctx, id, ActionUserChangeStatus, "")
	if err != nil {
		return false, err
	}

	status, ok := domain.StatusCommand(command)
	if !ok {
		s.logger.InfoContext(ctx, "user status command ignored", "email", email, "command", command)
		return false, nil
	}

	if err := s.users.SetStatus(ctx, email, status); err != nil {
		return false, err
	}

	s.metrics.LifecycleTransition("user", string(status))
	s.logger.InfoContext(ctx, "user status changed", "email", email, "to", string(status), "actor", caller.Email)
	recordEvent(ctx, s.events, s.logger, ports.LifecycleEvent{
		Type:       ports.EventUserStatusChanged,
		ResourceID: email,
		Actor:      caller.Email,
		To:         string(status),
	})
	return true, nil
}

func (s *UserService) ChangeRole(ctx context.Context, id domain.Identity, email, role string) error {
	r, err := domain.ParseRole(role)
	if err != nil {
		return err
	}
	caller, err := s.authz.Require(ctx, id, ActionUserChangeRole, "")
	if err != nil {
		return err
	}

	if err := s.users.SetRole(ctx, email, r); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "user role changed", "email", email, "to", string(r), "actor", caller.Email)
	recordEvent(ctx, s.events, s.logger, ports.LifecycleEvent{
		Type:       ports.EventUserRoleChanged,
		ResourceID: email,
		Actor:      caller.Email,
		To:         string(r),
	})
	return nil
}
