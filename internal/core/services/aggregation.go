package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// DashboardService computes the dashboard totals fresh on every call. The
// three reads run concurrently and are not a consistent snapshot.
type DashboardService struct {
	users    ports.UserRepository
	funds    ports.FundRepository
	requests ports.DonationRequestRepository
	authz    *Authorizer
}

var _ ports.DashboardService = (*DashboardService)(nil)

func NewDashboardService(
	users ports.UserRepository,
	funds ports.FundRepository,
	requests ports.DonationRequestRepository,
	authz *Authorizer,
) *DashboardService {
	return &DashboardService{users: users, funds: funds, requests: requests, authz: authz}
}

func (s *DashboardService) Compute(ctx context.Context, id domain.Identity) (domain.Dashboard, error) {
	if _, err := s.authz.Require(ctx, id, ActionDashboardView, ""); err != nil {
		return domain.Dashboard{}, err
	}

	var out domain.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.users.CountByRole(gctx, domain.RoleDonor)
		out.TotalUsers = n
		return err
	})
	g.Go(func() error {
		sum, err := s.funds.SumAmounts(gctx)
		out.TotalFundingAmount = sum
		return err
	})
	g.Go(func() error {
		n, err := s.requests.EstimatedCount(gctx)
		out.TotalRequests = n
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.Dashboard{}, err
	}
	return out, nil
}
