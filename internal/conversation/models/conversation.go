package models

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a conversation.
type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusOngoing   Status = "ONGOING"
	StatusCompleted Status = "COMPLETED"
)

// ActiveStatuses are the states that count toward the one-active-conversation
// per candidate rule.
var ActiveStatuses = []Status{StatusCreated, StatusOngoing}

// ParseStatus resolves a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch Status(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusCreated:
		return StatusCreated, true
	case StatusOngoing:
		return StatusOngoing, true
	case StatusCompleted:
		return StatusCompleted, true
	default:
		return "", false
	}
}

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the status blocks new conversations for the candidate.
func (s Status) IsActive() bool {
	return s == StatusCreated || s == StatusOngoing
}

// CanTransitionTo reports whether s may advance to next. Statuses only move
// forward; a completed conversation is terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusCreated:
		return next == StatusOngoing || next == StatusCompleted
	case StatusOngoing:
		return next == StatusCompleted
	default:
		return false
	}
}

// Conversation tracks one candidate's application to one job.
//
// Invariants (store-wide):
//   - at most one conversation per candidate is active (CREATED or ONGOING)
//   - at most one conversation exists per (CandidateID, JobID)
//   - ID is globally unique
//
// JSON field names follow the records the webhook integration already consumes.
type Conversation struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	CandidateID string    `json:"candidateId"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewConversation builds a conversation in the CREATED state.
func NewConversation(id, jobID, candidateID string, now time.Time) *Conversation {
	return &Conversation{
		ID:          id,
		JobID:       jobID,
		CandidateID: candidateID,
		Status:      StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsActive reports whether the conversation is CREATED or ONGOING.
func (c *Conversation) IsActive() bool {
	return c.Status.IsActive()
}

// Candidate is an applicant profile. Profiles are written once and never
// updated afterwards.
type Candidate struct {
	ID           string    `json:"id"`
	PhoneNumber  string    `json:"phoneNumber"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	EmailAddress string    `json:"emailAddress"`
	CreatedAt    time.Time `json:"createdAt"`
}
