package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

type FundService struct {
	funds  ports.FundRepository
	authz  *Authorizer
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.FundService = (*FundService)(nil)

func NewFundService(funds ports.FundRepository, authz *Authorizer, logger *slog.Logger) *FundService {
	return &FundService{funds: funds, authz: authz, logger: orDiscard(logger), now: time.Now}
}

// Record appends a fund entry for the caller. The amount stays as submitted
// text but must be a positive plain decimal so aggregation sums the same
// value the fund list shows.
func (s *FundService) Record(ctx context.Context, id domain.Identity, fund domain.Fund) (string, error) {
	fund.Amount = strings.TrimSpace(fund.Amount)
	if _, err := domain.ParseAmount(fund.Amount); err != nil {
		return "", err
	}

	caller, err := s.authz.Require(ctx, id, ActionFundCreate, "")
	if err != nil {
		return "", err
	}

	fund.ID = ""
	fund.DonorEmail = caller.Email
	if fund.DonorName == "" {
		fund.DonorName = caller.Name
	}
	if fund.Timestamp.IsZero() {
		fund.Timestamp = s.now().UTC()
	}

	fundID, err := s.funds.Insert(ctx, fund)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "fund recorded", "id", fundID, "donor", caller.Email, "amount", fund.Amount)
	return fundID, nil
}

func (s *FundService) List(ctx context.Context, id domain.Identity) ([]domain.Fund, error) {
	if _, err := s.authz.Require(ctx, id, ActionFundList, ""); err != nil {
		return nil, err
	}
	return s.funds.List(ctx)
}
