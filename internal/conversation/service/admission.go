package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recruitline/internal/conversation/metrics"
	"recruitline/internal/conversation/models"
	dErrors "recruitline/pkg/domain-errors"
	audit "recruitline/pkg/platform/audit"
	"recruitline/pkg/platform/sentinel"
	"recruitline/pkg/requestcontext"
)

const msgValidation = "Validation errors"

// Admission turns job-application events into conversations.
type Admission struct {
	registry *Registry
	ledger   *Ledger
	tx       AdmissionTx
	options
}

func NewAdmission(registry *Registry, ledger *Ledger, tx AdmissionTx, opts ...Option) *Admission {
	return &Admission{registry: registry, ledger: ledger, tx: tx, options: buildOptions(opts)}
}

// Admit validates the event, registers the candidate and creates the
// conversation. Validation runs before any store access. Registration, the
// active check, the duplicate check and the insert run in that order inside
// one candidate-scoped transaction.
//
// A rejected conversation still commits the candidate registration; only
// infrastructure failures roll it back.
func (a *Admission) Admit(ctx context.Context, event *models.ApplicationEvent) (*models.Conversation, error) {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "conversation.admit")
	defer span.End()
	if a.metrics != nil {
		defer a.metrics.ObserveAdmit(start)
	}

	if event == nil {
		event = &models.ApplicationEvent{}
	}
	event.Normalize()
	span.SetAttributes(
		attribute.String("conversation.id", event.ID),
		attribute.String("candidate.id", event.CandidateID),
		attribute.String("job.id", event.JobID),
	)

	if fieldErrs := models.ValidateApplication(event); len(fieldErrs) > 0 {
		err := dErrors.WithDetails(dErrors.CodeValidation, msgValidation, fieldErrs)
		if auditErr := a.emit(ctx, rejectionEvent(event, metrics.ReasonValidation)); auditErr != nil {
			a.logger.ErrorContext(ctx, "failed to audit rejected application", "error", auditErr)
		}
		a.rejected(ctx, span, event, metrics.ReasonValidation, err)
		return nil, err
	}

	var (
		created   *models.Conversation
		rejection *dErrors.Error
		reason    string
	)
	err := a.tx.RunInTx(ctx, event.CandidateID, func(txCtx context.Context) error {
		created, rejection, reason = nil, nil, ""

		if err := a.registry.Upsert(txCtx, event.CandidateID, event.CandidateProfile()); err != nil {
			return err
		}

		active, err := a.ledger.FindActive(txCtx, event.CandidateID)
		if err != nil {
			return err
		}
		if active != nil {
			rejection = dErrors.Wrap(sentinel.ErrActiveConversation, dErrors.CodeConflict, msgActiveConversation)
			reason = metrics.ReasonActive
			return a.emit(txCtx, rejectionEvent(event, reason))
		}

		applied, err := a.ledger.FindByCandidateAndJob(txCtx, event.CandidateID, event.JobID)
		if err != nil {
			return err
		}
		if applied != nil {
			rejection = dErrors.Wrap(sentinel.ErrDuplicateApplication, dErrors.CodeConflict, msgDuplicateApplication)
			reason = metrics.ReasonDuplicate
			return a.emit(txCtx, rejectionEvent(event, reason))
		}

		c, err := a.ledger.Create(txCtx, event.ID, event.JobID, event.CandidateID)
		if err != nil {
			if !dErrors.HasCode(err, dErrors.CodeConflict) {
				return err
			}
			rejection, _ = dErrors.As(err)
			reason = rejectionReason(err)
			return a.emit(txCtx, rejectionEvent(event, reason))
		}
		created = c
		return a.emit(txCtx, audit.Event{
			Action:         audit.ActionConversationAdmitted,
			CandidateID:    c.CandidateID,
			ConversationID: c.ID,
			JobID:          c.JobID,
			Status:         c.Status.String(),
			Timestamp:      c.CreatedAt,
		})
	})
	if err != nil {
		derr, ok := dErrors.As(err)
		if !ok {
			derr = dErrors.Wrap(err, dErrors.CodeInternal, "admission failed")
		}
		a.failed(ctx, span, event, derr)
		return nil, derr
	}
	if rejection != nil {
		a.rejected(ctx, span, event, reason, rejection)
		return nil, rejection
	}

	if a.metrics != nil {
		a.metrics.IncrementAdmitted()
	}
	span.SetAttributes(attribute.String("admission.outcome", "admitted"))
	a.logger.InfoContext(ctx, "conversation admitted",
		"conversation_id", created.ID,
		"candidate_id", created.CandidateID,
		"job_id", created.JobID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return created, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, sentinel.ErrActiveConversation):
		return metrics.ReasonActive
	case errors.Is(err, sentinel.ErrDuplicateApplication):
		return metrics.ReasonDuplicate
	default:
		return metrics.ReasonConversationTaken
	}
}

func rejectionEvent(event *models.ApplicationEvent, reason string) audit.Event {
	return audit.Event{
		Action:         audit.ActionConversationRejected,
		CandidateID:    event.CandidateID,
		ConversationID: event.ID,
		JobID:          event.JobID,
		Reason:         reason,
	}
}

func (a *Admission) rejected(ctx context.Context, span trace.Span, event *models.ApplicationEvent, reason string, err *dErrors.Error) {
	if a.metrics != nil {
		a.metrics.IncrementRejected(reason)
	}
	span.SetAttributes(
		attribute.String("admission.outcome", "rejected"),
		attribute.String("admission.reason", reason),
	)
	a.logger.WarnContext(ctx, "application rejected",
		"conversation_id", event.ID,
		"candidate_id", event.CandidateID,
		"job_id", event.JobID,
		"reason", reason,
		"message", err.Message,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func (a *Admission) failed(ctx context.Context, span trace.Span, event *models.ApplicationEvent, err *dErrors.Error) {
	if a.metrics != nil {
		a.metrics.IncrementFailures()
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Message)
	a.logger.ErrorContext(ctx, "admission failed",
		"conversation_id", event.ID,
		"candidate_id", event.CandidateID,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
