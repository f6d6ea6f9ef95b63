package mocks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// MockBlogRepository implements ports.BlogRepository in memory.
type MockBlogRepository struct {
	mu sync.RWMutex

	posts  map[string]domain.BlogPost
	nextID int

	// Call tracking for verification
	InsertCalls    []domain.BlogPost
	FindByIDCalls  []string
	FindCalls      []domain.BlogStatus
	UpdateCalls    []string
	SetStatusCalls []domain.BlogStatus
	DeleteCalls    []string

	// Error injection for testing error scenarios
	InsertError    error
	FindError      error
	UpdateError    error
	SetStatusError error
	DeleteError    error
}

var _ ports.BlogRepository = (*MockBlogRepository)(nil)

func NewMockBlogRepository() *MockBlogRepository {
	return &MockBlogRepository{posts: make(map[string]domain.BlogPost)}
}

func (m *MockBlogRepository) SeedPost(p domain.BlogPost) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.ID] = p
}

func (m *MockBlogRepository) Get(id string) (domain.BlogPost, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	return p, ok
}

func (m *MockBlogRepository) Insert(ctx context.Context, p domain.BlogPost) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls = append(m.InsertCalls, p)
	if m.InsertError != nil {
		return "", m.InsertError
	}
	m.nextID++
	p.ID = fmt.Sprintf("blog-%d", m.nextID)
	m.posts[p.ID] = p
	return p.ID, nil
}

func (m *MockBlogRepository) FindByID(ctx context.Context, id string) (*domain.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindByIDCalls = append(m.FindByIDCalls, id)
	if m.FindError != nil {
		return nil, m.FindError
	}
	p, ok := m.posts[id]
	if !ok {
		return nil, domain.NotFound("blog post not found")
	}
	return &p, nil
}

func (m *MockBlogRepository) Find(ctx context.Context, status domain.BlogStatus) ([]domain.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindCalls = append(m.FindCalls, status)
	if m.FindError != nil {
		return nil, m.FindError
	}
	out := []domain.BlogPost{}
	for _, p := range m.posts {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockBlogRepository) Update(ctx context.Context, id string, patch domain.BlogPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, id)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	p, ok := m.posts[id]
	if !ok {
		return domain.NotFound("blog post not found")
	}
	apply(&p.Title, patch.Title)
	apply(&p.Thumbnail, patch.Thumbnail)
	apply(&p.Content, patch.Content)
	m.posts[id] = p
	return nil
}

func (m *MockBlogRepository) SetStatus(ctx context.Context, id string, status domain.BlogStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetStatusCalls = append(m.SetStatusCalls, status)
	if m.SetStatusError != nil {
		return m.SetStatusError
	}
	p, ok := m.posts[id]
	if !ok {
		return domain.NotFound("blog post not found")
	}
	p.Status = status
	m.posts[id] = p
	return nil
}

func (m *MockBlogRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.posts[id]; !ok {
		return domain.NotFound("blog post not found")
	}
	delete(m.posts, id)
	return nil
}

// MockFundRepository implements ports.FundRepository in memory.
type MockFundRepository struct {
	mu sync.RWMutex

	funds []domain.Fund

	InsertCalls     []domain.Fund
	ListCalls       int
	SumAmountsCalls int

	InsertError     error
	ListError       error
	SumAmountsError error
}

var _ ports.FundRepository = (*MockFundRepository)(nil)

func NewMockFundRepository() *MockFundRepository {
	return &MockFundRepository{}
}

func (m *MockFundRepository) SeedFund(f domain.Fund) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.funds = append(m.funds, f)
}

func (m *MockFundRepository) Insert(ctx context.Context, f domain.Fund) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls = append(m.InsertCalls, f)
	if m.InsertError != nil {
		return "", m.InsertError
	}
	f.ID = fmt.Sprintf("fund-%d", len(m.funds)+1)
	m.funds = append(m.funds, f)
	return f.ID, nil
}

func (m *MockFundRepository) List(ctx context.Context) ([]domain.Fund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]domain.Fund, len(m.funds))
	copy(out, m.funds)
	return out, nil
}

// SumAmounts mirrors the store's coercion: text that does not parse counts as 0.
func (m *MockFundRepository) SumAmounts(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SumAmountsCalls++
	if m.SumAmountsError != nil {
		return 0, m.SumAmountsError
	}
	var total float64
	for _, f := range m.funds {
		if v, err := strconv.ParseFloat(strings.TrimSpace(f.Amount), 64); err == nil {
			total += v
		}
	}
	return total, nil
}
