// Package mocks provides mock implementations of port interfaces for testing.
// The core depends on ports only, so services can be exercised against these
// in-memory doubles without a database.
package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// EmailValue records a call that targets a user by email.
type EmailValue struct {
	Email string
	Value string
}

// MockUserRepository implements ports.UserRepository in memory.
type MockUserRepository struct {
	mu sync.RWMutex

	users map[string]domain.User

	// Call tracking for verification
	FindByEmailCalls   []string
	InsertCalls        []domain.User
	ListCalls          []domain.UserStatus
	UpsertProfileCalls []EmailValue
	SetStatusCalls     []EmailValue
	SetRoleCalls       []EmailValue
	CountByRoleCalls   []domain.Role

	// Error injection for testing error scenarios
	FindByEmailError   error
	InsertError        error
	ListError          error
	UpsertProfileError error
	SetStatusError     error
	SetRoleError       error
	CountByRoleError   error
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]domain.User)}
}

// SeedUser adds a user to the mock repository for test setup.
func (m *MockUserRepository) SeedUser(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Email] = user
}

// Get returns the stored user without recording a call.
func (m *MockUserRepository) Get(email string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[email]
	return u, ok
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindByEmailCalls = append(m.FindByEmailCalls, email)
	if m.FindByEmailError != nil {
		return nil, m.FindByEmailError
	}

	u, ok := m.users[email]
	if !ok {
		return nil, domain.NotFound("user not found")
	}
	return &u, nil
}

func (m *MockUserRepository) Insert(ctx context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls = append(m.InsertCalls, user)
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, exists := m.users[user.Email]; exists {
		return domain.ErrAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls = append(m.ListCalls, status)
	if m.ListError != nil {
		return nil, m.ListError
	}

	out := []domain.User{}
	for _, u := range m.users {
		if status == "" || u.Status == status {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockUserRepository) UpsertProfile(ctx context.Context, email string, p domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertProfileCalls = append(m.UpsertProfileCalls, EmailValue{Email: email, Value: p.Name})
	if m.UpsertProfileError != nil {
		return m.UpsertProfileError
	}

	u := m.users[email]
	u.Email = email
	if p.Name != "" {
		u.Name = p.Name
	}
	if p.Avatar != "" {
		u.Avatar = p.Avatar
	}
	if p.BloodGroup != "" {
		u.BloodGroup = p.BloodGroup
	}
	if p.District != "" {
		u.District = p.District
	}
	if p.Upazila != "" {
		u.Upazila = p.Upazila
	}
	m.users[email] = u
	return nil
}

func (m *MockUserRepository) SetStatus(ctx context.Context, email string, status domain.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetStatusCalls = append(m.SetStatusCalls, EmailValue{Email: email, Value: string(status)})
	if m.SetStatusError != nil {
		return m.SetStatusError
	}
	u, ok := m.users[email]
	if !ok {
		return domain.NotFound("user not found")
	}
	u.Status = status
	m.users[email] = u
	return nil
}

func (m *MockUserRepository) SetRole(ctx context.Context, email string, role domain.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetRoleCalls = append(m.SetRoleCalls, EmailValue{Email: email, Value: string(role)})
	if m.SetRoleError != nil {
		return m.SetRoleError
	}
	u, ok := m.users[email]
	if !ok {
		return domain.NotFound("user not found")
	}
	u.Role = role
	m.users[email] = u
	return nil
}

func (m *MockUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CountByRoleCalls = append(m.CountByRoleCalls, role)
	if m.CountByRoleError != nil {
		return 0, m.CountByRoleError
	}
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// CallCount returns the total number of repository calls made.
func (m *MockUserRepository) CallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.FindByEmailCalls) + len(m.InsertCalls) + len(m.ListCalls) +
		len(m.UpsertProfileCalls) + len(m.SetStatusCalls) + len(m.SetRoleCalls) +
		len(m.CountByRoleCalls)
}
