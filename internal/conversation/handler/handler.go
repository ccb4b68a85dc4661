package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"recruitline/internal/conversation/models"
	"recruitline/internal/platform/metrics"
	"recruitline/internal/platform/middleware"
	dErrors "recruitline/pkg/domain-errors"
	"recruitline/pkg/platform/httputil"
	"recruitline/pkg/platform/middleware/metadata"
	"recruitline/pkg/platform/middleware/requesttime"
	"recruitline/pkg/requestcontext"
)

const maxBodyBytes = 1 << 20

// Admitter admits inbound job applications.
type Admitter interface {
	Admit(ctx context.Context, event *models.ApplicationEvent) (*models.Conversation, error)
}

// Reader serves conversation reads.
type Reader interface {
	List(ctx context.Context, filter *models.Status) ([]*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
}

// Dependency is a backing service reported by the status route.
type Dependency interface {
	Name() string
	Health(ctx context.Context) error
}

// Handler serves the conversation API.
type Handler struct {
	admission Admitter
	reader    Reader
	deps      []Dependency
	logger    *slog.Logger
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

// New creates a conversation Handler. m may be nil.
func New(
	admission Admitter,
	reader Reader,
	validator middleware.TokenValidator,
	logger *slog.Logger,
	m *metrics.Metrics,
	deps ...Dependency) *Handler {
	return &Handler{
		admission: admission,
		reader:    reader,
		deps:      deps,
		logger:    logger,
		metrics:   m,
		validator: validator,
	}
}

// Register mounts the API under /api with its middleware chain.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(metadata.ClientMetadata)
	api.Use(requesttime.Middleware)
	api.Use(middleware.Logger(h.logger))
	if h.metrics != nil {
		api.Use(middleware.Latency(h.metrics))
	}
	api.Use(middleware.RequireBearer(h.validator, h.logger))

	api.Get("/status", h.handleStatus)
	api.Get("/conversations", h.handleList)
	api.Get("/conversations/{status}", h.handleListByStatus)
	api.Get("/conversation/{id}", h.handleGetByID)
	api.Post("/webhook/job-application", h.handleJobApplication)

	r.Mount("/api", api)
}

type statusResponse struct {
	Status string `json:"status"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for _, dep := range h.deps {
		if err := dep.Health(ctx); err != nil {
			h.logger.ErrorContext(ctx, "dependency health check failed",
				"dependency", dep.Name(),
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, dep.Name()+" unavailable"))
			return
		}
	}
	httputil.WriteData(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, nil)
}

// handleListByStatus filters by a case-insensitive status. An unrecognised
// status lists everything.
func (h *Handler) handleListByStatus(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "status")
	status, ok := models.ParseStatus(raw)
	if !ok {
		h.logger.WarnContext(r.Context(), "unknown status filter, listing all conversations",
			"status", raw,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		h.list(w, r, nil)
		return
	}
	h.list(w, r, &status)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, filter *models.Status) {
	conversations, err := h.reader.List(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, "failed to list conversations", err)
		return
	}
	if conversations == nil {
		conversations = []*models.Conversation{}
	}
	httputil.WriteData(w, http.StatusOK, conversations)
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	conversation, err := h.reader.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "failed to get conversation", err)
		return
	}
	httputil.WriteData(w, http.StatusOK, conversation)
}

func (h *Handler) handleJobApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event models.ApplicationEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&event); err != nil {
		h.logger.WarnContext(ctx, "invalid job application body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return
	}

	conversation, err := h.admission.Admit(ctx, &event)
	if err != nil {
		h.writeError(w, r, "failed to admit job application", err)
		return
	}
	httputil.WriteData(w, http.StatusCreated, conversation)
}

// writeError logs server-side failures before writing the envelope. Client
// errors were already logged by the service.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	if httputil.StatusFor(dErrors.CodeOf(err)) >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
	httputil.WriteError(w, err)
}
