package ports

import (
	"context"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
)

type CredentialService interface {
	Issue(claims map[string]any) (domain.Credential, error)
	Revoke(token string) error
}

type IdentityVerifier interface {
	Verify(token string) (domain.Identity, error)
}

type UserService interface {
	Register(ctx context.Context, user domain.User) (bool, error)
	Profile(ctx context.Context, caller domain.Identity, email string) (*domain.User, error)
	Role(ctx context.Context, caller domain.Identity, email string) (domain.Role, error)
	UpdateProfile(ctx context.Context, caller domain.Identity, email string, profile domain.Profile) error
	List(ctx context.Context, caller domain.Identity, status string) ([]domain.User, error)
	ChangeStatus(ctx context.Context, caller domain.Identity, email, command string) (bool, error)
	ChangeRole(ctx context.Context, caller domain.Identity, email, role string) error
}

type DonationRequestService interface {
	Create(ctx context.Context, caller domain.Identity, req domain.DonationRequest) (string, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.DonationRequest, error)
	ListOwn(ctx context.Context, caller domain.Identity, email, status string) ([]domain.DonationRequest, error)
	Recent(ctx context.Context, caller domain.Identity, email string) ([]domain.DonationRequest, error)
	ListAll(ctx context.Context, caller domain.Identity, status string) ([]domain.DonationRequest, error)
	Search(ctx context.Context, filter domain.RequestFilter) ([]domain.DonationRequest, error)
	ListPending(ctx context.Context) ([]domain.DonationRequest, error)
	Update(ctx context.Context, caller domain.Identity, id string, patch domain.RequestPatch) error
	Delete(ctx context.Context, caller domain.Identity, id string) error
	ChangeStatus(ctx context.Context, caller domain.Identity, id, status string) error
	Donate(ctx context.Context, caller domain.Identity, id string) error
}

type BlogService interface {
	Create(ctx context.Context, caller domain.Identity, post domain.BlogPost) (string, error)
	List(ctx context.Context, caller domain.Identity, status string) ([]domain.BlogPost, error)
	ListPublished(ctx context.Context) ([]domain.BlogPost, error)
	Get(ctx context.Context, caller domain.Identity, id string) (*domain.BlogPost, error)
	GetPublished(ctx context.Context, id string) (*domain.BlogPost, error)
	Update(ctx context.Context, caller domain.Identity, id string, patch domain.BlogPatch) error
	Delete(ctx context.Context, caller domain.Identity, id string) error
	ToggleStatus(ctx context.Context, caller domain.Identity, id, requested string) (domain.BlogStatus, bool, error)
}

type DashboardService interface {
	Compute(ctx context.Context, caller domain.Identity) (domain.Dashboard, error)
}

type FundService interface {
	Record(ctx context.Context, caller domain.Identity, fund domain.Fund) (string, error)
	List(ctx context.Context, caller domain.Identity) ([]domain.Fund, error)
}

type PaymentService interface {
	CreateIntent(ctx context.Context, caller domain.Identity, amount float64) (string, error)
}
