package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"recruitline/internal/conversation/handler/mocks"
	"recruitline/internal/conversation/models"
	"recruitline/internal/platform/metrics"
	"recruitline/internal/platform/middleware"
	dErrors "recruitline/pkg/domain-errors"
	"recruitline/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

const apiToken = "test-token"

type ConversationHandlerSuite struct {
	suite.Suite
	admission *mocks.MockAdmitter
	reader    *mocks.MockReader
	dep       *mocks.MockDependency
	router    chi.Router
}

func TestConversationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConversationHandlerSuite))
}

func (s *ConversationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.admission = mocks.NewMockAdmitter(ctrl)
	s.reader = mocks.NewMockReader(ctrl)
	s.dep = mocks.NewMockDependency(ctrl)
	s.dep.EXPECT().Name().Return("postgres").AnyTimes()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.admission, s.reader, middleware.NewStaticToken(apiToken), logger,
		metrics.New(prometheus.NewRegistry()), s.dep)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *ConversationHandlerSuite) do(req *http.Request) *http.Request {
	return testutil.WithBearer(req, apiToken)
}

func sampleConversation(id string, status models.Status) *models.Conversation {
	created := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	return &models.Conversation{
		ID:          id,
		JobID:       "job-1",
		CandidateID: "cand-1",
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func validPayload() map[string]any {
	return map[string]any{
		"id":           "conv-1",
		"job_id":       "job-1",
		"candidate_id": "cand-1",
		"candidate": map[string]any{
			"phone_number":  "+5342789012",
			"first_name":    "Ada",
			"last_name":     "Lovelace",
			"email_address": "ada@example.com",
		},
	}
}

func (s *ConversationHandlerSuite) TestJobApplication() {
	t := s.T()

	testutil.When(t, "the application is admitted", func(t *testing.T) {
		s.admission.EXPECT().Admit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, event *models.ApplicationEvent) (*models.Conversation, error) {
				assert.Equal(t, "conv-1", event.ID)
				require.NotNil(t, event.Candidate)
				assert.Equal(t, "ada@example.com", event.Candidate.EmailAddress)
				return sampleConversation("conv-1", models.StatusCreated), nil
			})

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodPost, "/api/webhook/job-application", validPayload())))

		testutil.Then(t, "it responds 201 with the record", func(t *testing.T) {
			testutil.AssertStatus(t, rr, http.StatusCreated)
			env := testutil.DecodeEnvelope[models.Conversation](t, rr)
			assert.True(t, env.Success)
			assert.Equal(t, "conv-1", env.Data.ID)
			assert.Equal(t, models.StatusCreated, env.Data.Status)
			assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
		})
	})

	testutil.When(t, "the body is not JSON", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, s.do(testutil.NewRequestWithBody(t, http.MethodPost, "/api/webhook/job-application", "{not json")))
		testutil.AssertErrorMessage(t, rr, http.StatusBadRequest, "Invalid request body")
	})

	testutil.When(t, "validation fails", func(t *testing.T) {
		s.admission.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil,
			dErrors.WithDetails(dErrors.CodeValidation, "Validation errors", map[string]string{
				"candidate.phone_number": "Invalid phone number format.",
			}))

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodPost, "/api/webhook/job-application", validPayload())))

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
		body := testutil.DecodeError(t, rr)
		assert.Equal(t, "Validation errors", body.Message)
		assert.Equal(t, "Invalid phone number format.", body.Details["candidate.phone_number"])
	})

	testutil.When(t, "the candidate already has an active conversation", func(t *testing.T) {
		s.admission.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil,
			dErrors.New(dErrors.CodeConflict, "Candidate has an active conversation"))

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodPost, "/api/webhook/job-application", validPayload())))
		testutil.AssertErrorMessage(t, rr, http.StatusBadRequest, "Candidate has an active conversation")
	})

	testutil.When(t, "the store fails", func(t *testing.T) {
		s.admission.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil,
			dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "admission failed"))

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodPost, "/api/webhook/job-application", validPayload())))
		testutil.AssertInternalError(t, rr)
	})
}

func (s *ConversationHandlerSuite) TestListConversations() {
	t := s.T()
	all := []*models.Conversation{
		sampleConversation("conv-2", models.StatusOngoing),
		sampleConversation("conv-1", models.StatusCompleted),
	}

	t.Run("lists everything", func(t *testing.T) {
		s.reader.EXPECT().List(gomock.Any(), (*models.Status)(nil)).Return(all, nil)

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversations", nil)))

		testutil.AssertStatus(t, rr, http.StatusOK)
		env := testutil.DecodeEnvelope[[]models.Conversation](t, rr)
		require.Len(t, env.Data, 2)
		assert.Equal(t, "conv-2", env.Data[0].ID)
	})

	t.Run("filters by status case-insensitively", func(t *testing.T) {
		s.reader.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, filter *models.Status) ([]*models.Conversation, error) {
				require.NotNil(t, filter)
				assert.Equal(t, models.StatusCompleted, *filter)
				return all[1:], nil
			})

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversations/completed", nil)))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Len(t, testutil.DecodeEnvelope[[]models.Conversation](t, rr).Data, 1)
	})

	t.Run("unknown status lists everything", func(t *testing.T) {
		s.reader.EXPECT().List(gomock.Any(), (*models.Status)(nil)).Return(all, nil)

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversations/archived", nil)))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Len(t, testutil.DecodeEnvelope[[]models.Conversation](t, rr).Data, 2)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		s.reader.EXPECT().List(gomock.Any(), gomock.Any()).Return([]*models.Conversation{}, nil)

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversations", nil)))

		assert.JSONEq(t, `{"success":true,"data":[]}`, rr.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		s.reader.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversations", nil)))
		testutil.AssertInternalError(t, rr)
	})
}

func (s *ConversationHandlerSuite) TestGetConversation() {
	t := s.T()

	t.Run("found", func(t *testing.T) {
		s.reader.EXPECT().GetByID(gomock.Any(), "conv-1").Return(sampleConversation("conv-1", models.StatusCreated), nil)

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversation/conv-1", nil)))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "cand-1", testutil.DecodeEnvelope[models.Conversation](t, rr).Data.CandidateID)
	})

	t.Run("not found", func(t *testing.T) {
		s.reader.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, dErrors.New(dErrors.CodeNotFound, "Conversation not found"))

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/conversation/missing", nil)))
		testutil.AssertErrorMessage(t, rr, http.StatusNotFound, "Conversation not found")
	})
}

func (s *ConversationHandlerSuite) TestStatus() {
	t := s.T()

	t.Run("healthy", func(t *testing.T) {
		s.dep.EXPECT().Health(gomock.Any()).Return(nil)

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/status", nil)))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, `{"success":true,"data":{"status":"ok"}}`, rr.Body.String())
	})

	t.Run("dependency down", func(t *testing.T) {
		s.dep.EXPECT().Health(gomock.Any()).Return(errors.New("connection refused"))

		rr := testutil.DoRequest(s.router, s.do(testutil.NewJSONRequest(t, http.MethodGet, "/api/status", nil)))

		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})
}

func (s *ConversationHandlerSuite) TestRequiresBearerToken() {
	testutil.Given(s.T(), "a router guarded by a static token", func(t *testing.T) {
		testutil.When(t, "the header is missing", func(t *testing.T) {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(t, http.MethodGet, "/api/conversations", nil))
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			assert.JSONEq(t, `{"error":"Missing or invalid Authorization header"}`, rr.Body.String())
		})

		testutil.When(t, "the token is wrong", func(t *testing.T) {
			req := testutil.WithBearer(testutil.NewJSONRequest(t, http.MethodPost, "/api/webhook/job-application", validPayload()), "nope")
			rr := testutil.DoRequest(s.router, req)
			testutil.AssertStatus(t, rr, http.StatusUnauthorized)
			assert.JSONEq(t, `{"error":"Unauthorized: Invalid token"}`, rr.Body.String())
		})
	})
}
