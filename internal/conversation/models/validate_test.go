package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validEvent() *ApplicationEvent {
	return &ApplicationEvent{
		ID:          "application-i136",
		JobID:       "associated-job-i136",
		CandidateID: "candidate-i136",
		Candidate: &CandidateInfo{
			PhoneNumber:  "+1234567890",
			FirstName:    "John",
			LastName:     "Doe",
			EmailAddress: "john.doe@example.com",
		},
	}
}

func TestValidateApplication(t *testing.T) {
	t.Run("accepts a complete payload", func(t *testing.T) {
		assert.Empty(t, ValidateApplication(validEvent()))
	})

	t.Run("reports each missing top-level field", func(t *testing.T) {
		e := validEvent()
		e.ID = ""
		e.JobID = ""

		errs := ValidateApplication(e)
		assert.Equal(t, FieldErrors{
			"id":     "This field is required",
			"job_id": "This field is required",
		}, errs)
	})

	t.Run("uses dotted paths for nested fields", func(t *testing.T) {
		e := validEvent()
		e.Candidate.LastName = ""

		errs := ValidateApplication(e)
		assert.Equal(t, FieldErrors{"candidate.last_name": "This field is required"}, errs)
	})

	t.Run("missing candidate object marks every candidate field required", func(t *testing.T) {
		e := validEvent()
		e.Candidate = nil

		errs := ValidateApplication(e)
		assert.Len(t, errs, 4)
		assert.Equal(t, "This field is required", errs["candidate.phone_number"])
		assert.Equal(t, "This field is required", errs["candidate.email_address"])
	})

	t.Run("empty phone is reported as required, not malformed", func(t *testing.T) {
		e := validEvent()
		e.Candidate.PhoneNumber = ""

		errs := ValidateApplication(e)
		assert.Equal(t, "This field is required", errs["candidate.phone_number"])
	})

	t.Run("nil payload reports every field", func(t *testing.T) {
		assert.Len(t, ValidateApplication(nil), 7)
	})
}

func TestValidateApplicationFormats(t *testing.T) {
	phones := []struct {
		name  string
		value string
		valid bool
	}{
		{"letters in number", "+534ebc978", false},
		{"missing country code prefix", "5346789032", false},
		{"leading zero after plus", "+0123456789", false},
		{"too short", "+1234567", false},
		{"too long", "+1234567890123456", false},
		{"minimum length", "+12345678", true},
		{"maximum length", "+123456789012345", true},
	}
	for _, tc := range phones {
		t.Run("phone "+tc.name, func(t *testing.T) {
			e := validEvent()
			e.Candidate.PhoneNumber = tc.value
			errs := ValidateApplication(e)
			if tc.valid {
				assert.NotContains(t, errs, "candidate.phone_number")
				return
			}
			assert.Equal(t, "Invalid phone number format.", errs["candidate.phone_number"])
		})
	}

	emails := []struct {
		name  string
		value string
		valid bool
	}{
		{"no at sign", "not-quite-an-email", false},
		{"no tld", "jane@example", false},
		{"single letter tld", "jane@example.c", false},
		{"plus addressing", "jane+jobs@example.co.uk", true},
	}
	for _, tc := range emails {
		t.Run("email "+tc.name, func(t *testing.T) {
			e := validEvent()
			e.Candidate.EmailAddress = tc.value
			errs := ValidateApplication(e)
			if tc.valid {
				assert.NotContains(t, errs, "candidate.email_address")
				return
			}
			assert.Equal(t, "Invalid email address format.", errs["candidate.email_address"])
		})
	}
}

func TestNormalizeTrimsWhitespaceOnlyToEmpty(t *testing.T) {
	e := validEvent()
	e.JobID = "   "
	e.Candidate.FirstName = " John "
	e.Normalize()

	assert.Equal(t, "John", e.Candidate.FirstName)
	assert.Equal(t, FieldErrors{"job_id": "This field is required"}, ValidateApplication(e))
}
