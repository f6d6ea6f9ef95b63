package mocks

import (
	"time"

	"github.com/AchilleasB/blood-quest/donation-service/internal/core/domain"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

// NewTestUser returns an active user with the given role.
func NewTestUser(email string, role domain.Role) domain.User {
	return domain.User{
		Email:      email,
		Name:       "Test " + string(role),
		Role:       role,
		Status:     domain.UserActive,
		BloodGroup: "O+",
		District:   "Dhaka",
		Upazila:    "Dhanmondi",
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NewTestRequest returns a request owned by requesterEmail in the given status.
func NewTestRequest(id, requesterEmail string, status domain.RequestStatus) domain.DonationRequest {
	return domain.DonationRequest{
		ID:             id,
		RequesterEmail: requesterEmail,
		RecipientName:  "Recipient",
		District:       "Dhaka",
		Upazila:        "Dhanmondi",
		HospitalName:   "Dhaka Medical College",
		BloodGroup:     "A+",
		DonationDate:   "2025-03-01",
		DonationTime:   "10:00",
		Status:         status,
	}
}

// CreateTestEvent creates a sample lifecycle event for testing.
func CreateTestEvent() ports.LifecycleEvent {
	return ports.LifecycleEvent{
		ID:         "2b6f0cc9-3b0c-4a8e-9a51-4d3f1d7b2a11",
		Type:       ports.EventRequestStatusChanged,
		ResourceID: "req-1",
		Actor:      "volunteer@example.com",
		From:       string(domain.RequestPending),
		To:         string(domain.RequestInProgress),
		OccurredAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}
