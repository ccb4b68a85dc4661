package audit

import (
	"context"
	"time"
)

// Action names an audited conversation lifecycle step.
type Action string

const (
	ActionConversationAdmitted     Action = "conversation_admitted"
	ActionConversationRejected     Action = "conversation_rejected"
	ActionConversationTransitioned Action = "conversation_transitioned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Action         Action    `json:"action"`
	CandidateID    string    `json:"candidate_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	JobID          string    `json:"job_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	// Reason is the rejection reason or the previous status of a transition.
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// Subject is the authenticated caller, when the bearer token named one.
	Subject string `json:"subject,omitempty"`
}

// Key is the partition key for the event: events for one candidate stay ordered.
func (e Event) Key() string {
	if e.CandidateID != "" {
		return e.CandidateID
	}
	return e.ConversationID
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
