// Package events consumes conversation status changes from the event bus.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"recruitline/internal/conversation/models"
	"recruitline/internal/platform/kafka/consumer"
	"recruitline/internal/platform/metrics"
	dErrors "recruitline/pkg/domain-errors"
	"recruitline/pkg/requestcontext"
)

// Outcome labels for the status events counter.
const (
	OutcomeApplied = "applied"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Transitioner applies a status change. *service.Ledger implements it.
type Transitioner interface {
	Transition(ctx context.Context, id string, to models.Status) (*models.Conversation, error)
}

// StatusHandler applies StatusChangeEvents to the ledger.
type StatusHandler struct {
	ledger  Transitioner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewStatusHandler creates the handler. m may be nil.
func NewStatusHandler(ledger Transitioner, logger *slog.Logger, m *metrics.Metrics) *StatusHandler {
	return &StatusHandler{ledger: ledger, logger: logger, metrics: m}
}

// Handle applies one event. Malformed events, unknown conversations and
// transitions the ledger refuses are logged and skipped so the partition keeps
// moving; infrastructure failures are returned and stop the consumer.
func (h *StatusHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	// Correlate with the producer's record rather than an HTTP request.
	ctx = requestcontext.WithRequestID(ctx, string(msg.Key))

	var event models.StatusChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.skip(ctx, msg, "malformed status event", "error", err)
		return nil
	}
	if strings.TrimSpace(event.ConversationID) == "" {
		h.skip(ctx, msg, "status event without conversation id")
		return nil
	}
	status, ok := models.ParseStatus(event.Status)
	if !ok {
		h.skip(ctx, msg, "unknown status in status event",
			"conversation_id", event.ConversationID,
			"status", event.Status,
		)
		return nil
	}

	_, err := h.ledger.Transition(ctx, event.ConversationID, status)
	switch {
	case err == nil:
		h.count(OutcomeApplied)
		return nil
	case dErrors.HasCode(err, dErrors.CodeNotFound),
		dErrors.HasCode(err, dErrors.CodeInvalidState),
		dErrors.HasCode(err, dErrors.CodeConflict):
		h.skip(ctx, msg, "status event rejected",
			"conversation_id", event.ConversationID,
			"status", status.String(),
			"error", err,
		)
		return nil
	default:
		h.count(OutcomeFailed)
		h.logger.ErrorContext(ctx, "failed to apply status event",
			"conversation_id", event.ConversationID,
			"status", status.String(),
			"offset", msg.Offset,
			"error", err,
		)
		return err
	}
}

func (h *StatusHandler) skip(ctx context.Context, msg *consumer.Message, reason string, attrs ...any) {
	h.count(OutcomeSkipped)
	attrs = append(attrs, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
	h.logger.WarnContext(ctx, reason, attrs...)
}

func (h *StatusHandler) count(outcome string) {
	if h.metrics != nil {
		h.metrics.IncrementStatusEvent(outcome)
	}
}
