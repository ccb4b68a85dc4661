package models

import "strings"

// ApplicationEvent is the inbound job-application webhook payload.
type ApplicationEvent struct {
	ID          string         `json:"id"`
	JobID       string         `json:"job_id"`
	CandidateID string         `json:"candidate_id"`
	Candidate   *CandidateInfo `json:"candidate"`
}

// CandidateInfo is the candidate profile embedded in an application event.
type CandidateInfo struct {
	PhoneNumber  string `json:"phone_number"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	EmailAddress string `json:"email_address"`
}

// Normalize trims surrounding whitespace from every field.
func (e *ApplicationEvent) Normalize() {
	e.ID = strings.TrimSpace(e.ID)
	e.JobID = strings.TrimSpace(e.JobID)
	e.CandidateID = strings.TrimSpace(e.CandidateID)
	if e.Candidate != nil {
		e.Candidate.PhoneNumber = strings.TrimSpace(e.Candidate.PhoneNumber)
		e.Candidate.FirstName = strings.TrimSpace(e.Candidate.FirstName)
		e.Candidate.LastName = strings.TrimSpace(e.Candidate.LastName)
		e.Candidate.EmailAddress = strings.TrimSpace(e.Candidate.EmailAddress)
	}
}

// CandidateProfile converts the embedded profile into a Candidate record.
func (e *ApplicationEvent) CandidateProfile() Candidate {
	c := Candidate{ID: e.CandidateID}
	if e.Candidate != nil {
		c.PhoneNumber = e.Candidate.PhoneNumber
		c.FirstName = e.Candidate.FirstName
		c.LastName = e.Candidate.LastName
		c.EmailAddress = e.Candidate.EmailAddress
	}
	return c
}

// StatusChangeEvent is published by the conversation runtime when a
// conversation advances.
type StatusChangeEvent struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}
