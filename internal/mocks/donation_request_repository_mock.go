package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// StatusWrite records an upsert of a request status.
type StatusWrite struct {
	ID     string
	Status domain.RequestStatus
	Donor  *domain.DonorAssignment
}

// MockDonationRequestRepository implements ports.DonationRequestRepository in memory.
type MockDonationRequestRepository struct {
	mu sync.RWMutex

	requests map[string]domain.DonationRequest
	nextID   int

	// Call tracking for verification
	InsertCalls         []domain.DonationRequest
	FindByIDCalls       []string
	FindCalls           []domain.RequestFilter
	FindRecentCalls     []string
	UpdateCalls         []string
	StatusWrites        []StatusWrite
	DeleteCalls         []string
	EstimatedCountCalls int

	// Error injection for testing error scenarios
	InsertError         error
	FindByIDError       error
	FindError           error
	UpdateError         error
	UpsertStatusError   error
	DeleteError         error
	EstimatedCountError error
}

var _ ports.DonationRequestRepository = (*MockDonationRequestRepository)(nil)

func NewMockDonationRequestRepository() *MockDonationRequestRepository {
	return &MockDonationRequestRepository{requests: make(map[string]domain.DonationRequest)}
}

// SeedRequest stores req under req.ID for test setup.
func (m *MockDonationRequestRepository) SeedRequest(req domain.DonationRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[req.ID] = req
}

// Get returns the stored request without recording a call.
func (m *MockDonationRequestRepository) Get(id string) (domain.DonationRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	return r, ok
}

func (m *MockDonationRequestRepository) Insert(ctx context.Context, req domain.DonationRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls = append(m.InsertCalls, req)
	if m.InsertError != nil {
		return "", m.InsertError
	}
	m.nextID++
	req.ID = fmt.Sprintf("req-%d", m.nextID)
	m.requests[req.ID] = req
	return req.ID, nil
}

func (m *MockDonationRequestRepository) FindByID(ctx context.Context, id string) (*domain.DonationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindByIDCalls = append(m.FindByIDCalls, id)
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	r, ok := m.requests[id]
	if !ok {
		return nil, domain.NotFound("donation request not found")
	}
	return &r, nil
}

func (m *MockDonationRequestRepository) Find(ctx context.Context, f domain.RequestFilter) ([]domain.DonationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindCalls = append(m.FindCalls, f)
	if m.FindError != nil {
		return nil, m.FindError
	}
	out := []domain.DonationRequest{}
	for _, r := range m.requests {
		if matches(r, f) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockDonationRequestRepository) FindRecent(ctx context.Context, email string, limit int64) ([]domain.DonationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindRecentCalls = append(m.FindRecentCalls, email)
	if m.FindError != nil {
		return nil, m.FindError
	}
	out := []domain.DonationRequest{}
	for _, r := range m.requests {
		if r.RequesterEmail == email {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DonationDate > out[j].DonationDate })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockDonationRequestRepository) Update(ctx context.Context, id string, p domain.RequestPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, id)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	r, ok := m.requests[id]
	if !ok {
		return domain.NotFound("donation request not found")
	}
	apply(&r.RecipientName, p.RecipientName)
	apply(&r.District, p.District)
	apply(&r.Upazila, p.Upazila)
	apply(&r.HospitalName, p.HospitalName)
	apply(&r.FullAddress, p.FullAddress)
	apply(&r.BloodGroup, p.BloodGroup)
	apply(&r.DonationDate, p.DonationDate)
	apply(&r.DonationTime, p.DonationTime)
	apply(&r.RequestMessage, p.RequestMessage)
	m.requests[id] = r
	return nil
}

func (m *MockDonationRequestRepository) UpsertStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StatusWrites = append(m.StatusWrites, StatusWrite{ID: id, Status: status})
	if m.UpsertStatusError != nil {
		return m.UpsertStatusError
	}
	r := m.requests[id]
	r.ID = id
	r.Status = status
	m.requests[id] = r
	return nil
}

func (m *MockDonationRequestRepository) UpsertDonor(ctx context.Context, id string, donor domain.DonorAssignment, status domain.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StatusWrites = append(m.StatusWrites, StatusWrite{ID: id, Status: status, Donor: &donor})
	if m.UpsertStatusError != nil {
		return m.UpsertStatusError
	}
	r := m.requests[id]
	r.ID = id
	r.Status = status
	r.DonorName = donor.DonorName
	r.DonorEmail = donor.DonorEmail
	m.requests[id] = r
	return nil
}

func (m *MockDonationRequestRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.requests[id]; !ok {
		return domain.NotFound("donation request not found")
	}
	delete(m.requests, id)
	return nil
}

func (m *MockDonationRequestRepository) EstimatedCount(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.EstimatedCountCalls++
	if m.EstimatedCountError != nil {
		return 0, m.EstimatedCountError
	}
	return int64(len(m.requests)), nil
}

// CallCount returns the total number of repository calls made.
func (m *MockDonationRequestRepository) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.InsertCalls) + len(m.FindByIDCalls) + len(m.FindCalls) + len(m.FindRecentCalls) +
		len(m.UpdateCalls) + len(m.StatusWrites) + len(m.DeleteCalls) + m.EstimatedCountCalls
}

func matches(r domain.DonationRequest, f domain.RequestFilter) bool {
	return (f.RequesterEmail == "" || r.RequesterEmail == f.RequesterEmail) &&
		(f.Status == "" || r.Status == f.Status) &&
		(f.BloodGroup == "" || r.BloodGroup == f.BloodGroup) &&
		(f.District == "" || r.District == f.District) &&
		(f.Upazila == "" || r.Upazila == f.Upazila)
}

func apply(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
