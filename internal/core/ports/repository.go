package ports

import (
	"context"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
)

// UserRepository persists users keyed by email. Insert returns
// domain.ErrAlreadyExists when the email is taken.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Insert(ctx context.Context, user domain.User) error
	List(ctx context.Context, status domain.UserStatus) ([]domain.User, error)
	UpsertProfile(ctx context.Context, email string, profile domain.Profile) error
	SetStatus(ctx context.Context, email string, status domain.UserStatus) error
	SetRole(ctx context.Context, email string, role domain.Role) error
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

type DonationRequestRepository interface {
	Insert(ctx context.Context, req domain.DonationRequest) (string, error)
	FindByID(ctx context.Context, id string) (*domain.DonationRequest, error)
	Find(ctx context.Context, filter domain.RequestFilter) ([]domain.DonationRequest, error)
	// FindRecent returns the requester's newest requests by donation date.
	FindRecent(ctx context.Context, requesterEmail string, limit int64) ([]domain.DonationRequest, error)
	Update(ctx context.Context, id string, patch domain.RequestPatch) error
	// UpsertStatus writes status, creating the document if it is absent.
	UpsertStatus(ctx context.Context, id string, status domain.RequestStatus) error
	UpsertDonor(ctx context.Context, id string, donor domain.DonorAssignment, status domain.RequestStatus) error
	Delete(ctx context.Context, id string) error
	EstimatedCount(ctx context.Context) (int64, error)
}

type BlogRepository interface {
	Insert(ctx context.Context, post domain.BlogPost) (string, error)
	FindByID(ctx context.Context, id string) (*domain.BlogPost, error)
	// Find lists posts with the given status, or all posts when status is "".
	Find(ctx context.Context, status domain.BlogStatus) ([]domain.BlogPost, error)
	Update(ctx context.Context, id string, patch domain.BlogPatch) error
	SetStatus(ctx context.Context, id string, status domain.BlogStatus) error
	Delete(ctx context.Context, id string) error
}

type FundRepository interface {
	Insert(ctx context.Context, fund domain.Fund) (string, error)
	List(ctx context.Context) ([]domain.Fund, error)
	// SumAmounts totals every fund amount coerced to a double; 0 when empty.
	SumAmounts(ctx context.Context) (float64, error)
}
