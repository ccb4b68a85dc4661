package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"recruitline/internal/conversation/metrics"
	"recruitline/internal/conversation/models"
	"recruitline/internal/conversation/store/candidate"
	"recruitline/internal/conversation/store/conversation"
	dErrors "recruitline/pkg/domain-errors"
	audit "recruitline/pkg/platform/audit"
	"recruitline/pkg/platform/audit/publisher"
	auditmemory "recruitline/pkg/platform/audit/store/memory"
	"recruitline/pkg/requestcontext"
)

type AdmissionSuite struct {
	suite.Suite
	ctx           context.Context
	candidates    *candidate.InMemory
	conversations *conversation.InMemory
	auditStore    *auditmemory.InMemoryStore
	metrics       *metrics.Metrics
	ledger        *Ledger
	admission     *Admission
}

func TestAdmissionSuite(t *testing.T) {
	suite.Run(t, new(AdmissionSuite))
}

func (s *AdmissionSuite) SetupTest() {
	s.ctx = context.Background()
	s.candidates = candidate.NewInMemory()
	s.conversations = conversation.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())

	opts := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(publisher.NewPublisher(s.auditStore)),
		WithMetrics(s.metrics),
	}
	s.ledger = NewLedger(s.conversations, opts...)
	s.admission = NewAdmission(NewRegistry(s.candidates, opts...), s.ledger, NewShardedTx(0), opts...)
}

func validEvent(id, jobID, candidateID string) *models.ApplicationEvent {
	return &models.ApplicationEvent{
		ID:          id,
		JobID:       jobID,
		CandidateID: candidateID,
		Candidate: &models.CandidateInfo{
			PhoneNumber:  "+5346789032",
			FirstName:    "Ana",
			LastName:     "Pérez",
			EmailAddress: "ana.perez@example.com",
		},
	}
}

func (s *AdmissionSuite) TestAdmitCreatesConversation() {
	before := time.Now()
	c, err := s.admission.Admit(s.ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.Require().NoError(err)

	s.Equal("application-1", c.ID)
	s.Equal("job-1", c.JobID)
	s.Equal("candidate-1", c.CandidateID)
	s.Equal(models.StatusCreated, c.Status)
	s.False(c.CreatedAt.Before(before))

	stored, err := s.ledger.List(s.ctx, nil)
	s.Require().NoError(err)
	s.Len(stored, 1)

	profile, err := s.candidates.FindByID(s.ctx, "candidate-1")
	s.Require().NoError(err)
	s.Equal("ana.perez@example.com", profile.EmailAddress)

	events, _ := s.auditStore.ListByCandidate(s.ctx, "candidate-1")
	s.Require().Len(events, 1)
	s.Equal(audit.ActionConversationAdmitted, events[0].Action)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Admitted))
}

func (s *AdmissionSuite) TestAdmitUsesRequestTime() {
	fixed := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(s.ctx, fixed)

	c, err := s.admission.Admit(ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.Require().NoError(err)
	s.Equal(fixed, c.CreatedAt)
}

func (s *AdmissionSuite) TestValidationFailures() {
	s.Run("empty required fields", func() {
		event := &models.ApplicationEvent{
			ID:          "",
			JobID:       "job-1",
			CandidateID: "candidate-1",
			Candidate: &models.CandidateInfo{
				PhoneNumber:  "",
				FirstName:    "Ana",
				LastName:     "   ",
				EmailAddress: "ana@example.com",
			},
		}
		_, err := s.admission.Admit(s.ctx, event)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))

		derr, _ := dErrors.As(err)
		s.Equal("Validation errors", derr.Message)
		s.Equal(map[string]string{
			"id":                     "This field is required",
			"candidate.phone_number": "This field is required",
			"candidate.last_name":    "This field is required",
		}, derr.Details)
	})

	s.Run("bad formats", func() {
		for _, phone := range []string{"+534ebc978", "5346789032"} {
			event := validEvent("application-1", "job-1", "candidate-1")
			event.Candidate.PhoneNumber = phone
			event.Candidate.EmailAddress = "not-quite-an-email"

			_, err := s.admission.Admit(s.ctx, event)
			derr, ok := dErrors.As(err)
			s.Require().True(ok)
			s.Equal(dErrors.CodeValidation, derr.Code)
			s.Equal("Invalid phone number format.", derr.Details["candidate.phone_number"])
			s.Equal("Invalid email address format.", derr.Details["candidate.email_address"])
		}
	})

	s.Run("nothing is stored", func() {
		list, err := s.ledger.List(s.ctx, nil)
		s.Require().NoError(err)
		s.Empty(list)
		_, err = s.candidates.FindByID(s.ctx, "candidate-1")
		s.Error(err)
		s.Equal(3.0, testutil.ToFloat64(s.metrics.Rejected.WithLabelValues(metrics.ReasonValidation)))
	})
}

func (s *AdmissionSuite) TestNilEventIsValidationFailure() {
	_, err := s.admission.Admit(s.ctx, nil)
	derr, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeValidation, derr.Code)
	s.Len(derr.Details, 7)
}

func (s *AdmissionSuite) TestCandidateRegistrationIsIdempotent() {
	_, err := s.admission.Admit(s.ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.Require().NoError(err)
	_, err = s.ledger.Transition(s.ctx, "application-1", models.StatusCompleted)
	s.Require().NoError(err)

	second := validEvent("application-2", "job-2", "candidate-1")
	second.Candidate.FirstName = "Changed"
	_, err = s.admission.Admit(s.ctx, second)
	s.Require().NoError(err)

	profile, err := s.candidates.FindByID(s.ctx, "candidate-1")
	s.Require().NoError(err)
	s.Equal("Ana", profile.FirstName)
}

func (s *AdmissionSuite) TestActiveConversationInvariant() {
	_, err := s.admission.Admit(s.ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.Require().NoError(err)

	_, err = s.admission.Admit(s.ctx, validEvent("application-2", "job-2", "candidate-1"))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	derr, _ := dErrors.As(err)
	s.Equal("Candidate has an active conversation", derr.Message)

	_, err = s.ledger.Transition(s.ctx, "application-1", models.StatusOngoing)
	s.Require().NoError(err)
	_, err = s.admission.Admit(s.ctx, validEvent("application-2", "job-2", "candidate-1"))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "ONGOING is still active")

	list, _ := s.ledger.List(s.ctx, nil)
	s.Len(list, 1)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Rejected.WithLabelValues(metrics.ReasonActive)))
}

func (s *AdmissionSuite) TestDuplicateApplicationInvariant() {
	_, err := s.admission.Admit(s.ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.Require().NoError(err)
	_, err = s.ledger.Transition(s.ctx, "application-1", models.StatusCompleted)
	s.Require().NoError(err)

	_, err = s.admission.Admit(s.ctx, validEvent("application-2", "job-1", "candidate-1"))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	derr, _ := dErrors.As(err)
	s.Equal("Candidate has already applied for job", derr.Message)

	c, err := s.admission.Admit(s.ctx, validEvent("application-3", "job-2", "candidate-1"))
	s.Require().NoError(err)
	s.Equal(models.StatusCreated, c.Status)
}

func (s *AdmissionSuite) TestRejectionStillRegistersCandidate() {
	_, err := s.admission.Admit(s.ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.Require().NoError(err)

	_, err = s.admission.Admit(s.ctx, validEvent("application-1", "job-1", "candidate-2"))
	s.Require().True(dErrors.HasCode(err, dErrors.CodeConflict))
	derr, _ := dErrors.As(err)
	s.Equal("Conversation id already exists", derr.Message)

	_, err = s.candidates.FindByID(s.ctx, "candidate-2")
	s.NoError(err)

	events, _ := s.auditStore.ListByCandidate(s.ctx, "candidate-2")
	s.Require().Len(events, 1)
	s.Equal(audit.ActionConversationRejected, events[0].Action)
	s.Equal(metrics.ReasonConversationTaken, events[0].Reason)
}

func (s *AdmissionSuite) TestConcurrentAdmissionsForOneCandidate() {
	const workers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.admission.Admit(s.ctx, validEvent(
				fmt.Sprintf("application-%d", i), fmt.Sprintf("job-%d", i), "candidate-1"))
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(workers-1), conflicts.Load())
	active, err := s.ledger.FindActive(s.ctx, "candidate-1")
	s.Require().NoError(err)
	s.NotNil(active)
}

func (s *AdmissionSuite) TestCancelledContextFailsBeforeStoreAccess() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.admission.Admit(ctx, validEvent("application-1", "job-1", "candidate-1"))
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	_, err = s.candidates.FindByID(s.ctx, "candidate-1")
	s.Error(err)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Failures))
}
