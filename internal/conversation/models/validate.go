package models

import "regexp"

const (
	msgRequired     = "This field is required"
	msgInvalidPhone = "Invalid phone number format."
	msgInvalidEmail = "Invalid email address format."
)

var (
	phonePattern = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
)

// FieldErrors maps a dot-joined payload path to a reason.
type FieldErrors map[string]string

// ValidateApplication checks required fields and then phone/email formats.
// Format checks only run on non-empty values so a missing field is reported
// once, as required.
func ValidateApplication(e *ApplicationEvent) FieldErrors {
	errs := FieldErrors{}
	if e == nil {
		e = &ApplicationEvent{}
	}
	info := e.Candidate
	if info == nil {
		info = &CandidateInfo{}
	}

	fields := []struct {
		path  string
		value string
	}{
		{"id", e.ID},
		{"job_id", e.JobID},
		{"candidate_id", e.CandidateID},
		{"candidate.phone_number", info.PhoneNumber},
		{"candidate.first_name", info.FirstName},
		{"candidate.last_name", info.LastName},
		{"candidate.email_address", info.EmailAddress},
	}
	for _, f := range fields {
		if f.value == "" {
			errs[f.path] = msgRequired
		}
	}

	if info.PhoneNumber != "" && !phonePattern.MatchString(info.PhoneNumber) {
		errs["candidate.phone_number"] = msgInvalidPhone
	}
	if info.EmailAddress != "" && !emailPattern.MatchString(info.EmailAddress) {
		errs["candidate.email_address"] = msgInvalidEmail
	}
	return errs
}
