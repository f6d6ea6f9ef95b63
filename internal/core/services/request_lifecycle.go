package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

const recentRequestsLimit = 3

// DonationRequestService drives the donation request lifecycle:
// pending -> inprogress -> done, and pending -> canceled. ChangeStatus writes
// any valid status directly; reachability from the current status is not
// checked, the role-gated permission is what is trusted.
type DonationRequestService struct {
	requests ports.DonationRequestRepository
	authz    *Authorizer
	events   ports.EventRecorder
	metrics  ports.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.DonationRequestService = (*DonationRequestService)(nil)

func NewDonationRequestService(
	requests ports.DonationRequestRepository,
	authz *Authorizer,
	events ports.EventRecorder,
	metrics ports.Metrics,
	logger *slog.Logger,
) *DonationRequestService {
	return &DonationRequestService{
		requests: requests,
		authz:    authz,
		events:   orNopRecorder(events),
		metrics:  orNopMetrics(metrics),
		logger:   orDiscard(logger),
		now:      time.Now,
	}
}

func (s *DonationRequestService) Create(ctx context.Context, id domain.Identity, req domain.DonationRequest) (string, error) {
	if req.Status == "" {
		req.Status = domain.RequestPending
	} else if !req.Status.Valid() {
		return "", domain.Validation("unknown donation request status " + string(req.Status))
	}

	caller, err := s.authz.Require(ctx, id, ActionRequestCreate, "")
	if err != nil {
		return "", err
	}

	req.ID = ""
	req.RequesterEmail = caller.Email
	if req.RequesterName == "" {
		req.RequesterName = caller.Name
	}
	req.DonorName = ""
	req.DonorEmail = ""
	req.CreatedAt = s.now().UTC()

	reqID, err := s.requests.Insert(ctx, req)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "donation request created",
		"id", reqID,
		"requester", caller.Email,
		"status", string(req.Status),
	)
	return reqID, nil
}

// Get returns a request to its owner, volunteers and admins. Any other
// authenticated user may only see it while it is pending.
func (s *DonationRequestService) Get(ctx context.Context, id domain.Identity, reqID string) (*domain.DonationRequest, error) {
	caller, err := s.authz.Caller(ctx, id)
	if err != nil {
		return nil, err
	}
	req, err := s.requests.FindByID(ctx, reqID)
	if err != nil {
		return nil, err
	}

	action, owner := ActionRequestRead, req.RequesterEmail
	if req.Status == domain.RequestPending && Authorize(ActorFromUser(*caller), action, owner) == Deny {
		action, owner = ActionRequestReadPublic, ""
	}
	if err := s.authz.Check(ctx, caller, action, owner); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *DonationRequestService) ListOwn(ctx context.Context, id domain.Identity, email, status string) ([]domain.DonationRequest, error) {
	filter := domain.RequestFilter{RequesterEmail: email}
	if status != "" {
		st, err := domain.ParseRequestStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	if _, err := s.authz.Require(ctx, id, ActionRequestListOwn, email); err != nil {
		return nil, err
	}
	return s.requests.Find(ctx, filter)
}

func (s *DonationRequestService) Recent(ctx context.Context, id domain.Identity, email string) ([]domain.DonationRequest, error) {
	if _, err := s.authz.Require(ctx, id, ActionRequestListOwn, email); err != nil {
		return nil, err
	}
	return s.requests.FindRecent(ctx, email, recentRequestsLimit)
}

func (s *DonationRequestService) ListAll(ctx context.Context, id domain.Identity, status string) ([]domain.DonationRequest, error) {
	var filter domain.RequestFilter
	if status != "" {
		st, err := domain.ParseRequestStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = st
	}
	if _, err := s.authz.Require(ctx, id, ActionRequestListAll, ""); err != nil {
		return nil, err
	}
	return s.requests.Find(ctx, filter)
}

// Search is the public lookup by blood group and location.
func (s *DonationRequestService) Search(ctx context.Context, filter domain.RequestFilter) ([]domain.DonationRequest, error) {
	filter.RequesterEmail = ""
	filter.Status = ""
	return s.requests.Find(ctx, filter)
}

func (s *DonationRequestService) ListPending(ctx context.Context) ([]domain.DonationRequest, error) {
	return s.requests.Find(ctx, domain.RequestFilter{Status: domain.RequestPending})
}

func (s *DonationRequestService) Update(ctx context.Context, id domain.Identity, reqID string, patch domain.RequestPatch) error {
	if patch.Empty() {
		return domain.Validation("nothing to update")
	}
	if _, err := s.authorizeOwned(ctx, id, reqID, ActionRequestUpdate); err != nil {
		return err
	}
	return s.requests.Update(ctx, reqID, patch)
}

func (s *DonationRequestService) Delete(ctx context.Context, id domain.Identity, reqID string) error {
	caller, err := s.authorizeOwned(ctx, id, reqID, ActionRequestDelete)
	if err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, reqID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "donation request deleted", "id", reqID, "actor", caller.Email)
	return nil
}

// ChangeStatus writes target as the request status through an upsert.
func (s *DonationRequestService) ChangeStatus(ctx context.Context, id domain.Identity, reqID, target string) error {
	status, err := domain.ParseRequestStatus(target)
	if err != nil {
		return err
	}

	caller, err := s.authz.Caller(ctx, id)
	if err != nil {
		return err
	}

	var from domain.RequestStatus
	if BypassesOwnership(ActorFromUser(*caller), ActionRequestChangeStatus) {
		if err := s.authz.Check(ctx, caller, ActionRequestChangeStatus, ""); err != nil {
			return err
		}
	} else {
		current, err := s.requests.FindByID(ctx, reqID)
		if err != nil {
			return err
		}
		if err := s.authz.Check(ctx, caller, ActionRequestChangeStatus, current.RequesterEmail); err != nil {
			return err
		}
		from = current.Status
	}

	if err := s.requests.UpsertStatus(ctx, reqID, status); err != nil {
		return err
	}

	s.metrics.LifecycleTransition("donation_request", string(status))
	s.logger.InfoContext(ctx, "donation request status changed",
		"id", reqID,
		"to", string(status),
		"actor", caller.Email,
	)
	recordEvent(ctx, s.events, s.logger, ports.LifecycleEvent{
		Type:       ports.EventRequestStatusChanged,
		ResourceID: reqID,
		Actor:      caller.Email,
		From:       string(from),
		To:         string(status),
	})
	return nil
}

// Donate lets the caller take a pending request, which moves it to inprogress.
func (s *DonationRequestService) Donate(ctx context.Context, id domain.Identity, reqID string) error {
	caller, err := s.authz.Require(ctx, id, ActionRequestDonate, "")
	if err != nil {
		return err
	}
	req, err := s.requests.FindByID(ctx, reqID)
	if err != nil {
		return err
	}
	if req.Status != domain.RequestPending {
		return domain.Validation("donation request is not pending")
	}

	donor := domain.DonorAssignment{DonorName: caller.Name, DonorEmail: caller.Email}
	if err := s.requests.UpsertDonor(ctx, reqID, donor, domain.RequestInProgress); err != nil {
		return err
	}

	s.metrics.LifecycleTransition("donation_request", string(domain.RequestInProgress))
	s.logger.InfoContext(ctx, "donation request taken", "id", reqID, "donor", caller.Email)
	recordEvent(ctx, s.events, s.logger, ports.LifecycleEvent{
		Type:       ports.EventRequestDonated,
		ResourceID: reqID,
		Actor:      caller.Email,
		From:       string(req.Status),
		To:         string(domain.RequestInProgress),
	})
	return nil
}

// authorizeOwned loads the caller, and the request when the caller's role
// does not bypass ownership, then applies action.
func (s *DonationRequestService) authorizeOwned(ctx context.Context, id domain.Identity, reqID string, action Action) (*domain.User, error) {
	caller, err := s.authz.Caller(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := ""
	if !BypassesOwnership(ActorFromUser(*caller), action) {
		req, err := s.requests.FindByID(ctx, reqID)
		if err != nil {
			return nil, err
		}
		owner = req.RequesterEmail
	}
	if err := s.authz.Check(ctx, caller, action, owner); err != nil {
		return nil, err
	}
	return caller, nil
}
