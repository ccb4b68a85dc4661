package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recruitline/internal/conversation/models"
	dErrors "recruitline/pkg/domain-errors"
	audit "recruitline/pkg/platform/audit"
	"recruitline/pkg/platform/sentinel"
	"recruitline/pkg/requestcontext"
)

const (
	msgActiveConversation   = "Candidate has an active conversation"
	msgDuplicateApplication = "Candidate has already applied for job"
	msgConversationIDTaken  = "Conversation id already exists"
	msgConversationNotFound = "Conversation not found"
)

// Ledger owns conversation records and the rules for creating and advancing them.
type Ledger struct {
	conversations ConversationStore
	options
}

func NewLedger(conversations ConversationStore, opts ...Option) *Ledger {
	return &Ledger{conversations: conversations, options: buildOptions(opts)}
}

// FindActive returns the candidate's CREATED or ONGOING conversation, or nil.
func (l *Ledger) FindActive(ctx context.Context, candidateID string) (*models.Conversation, error) {
	c, err := l.conversations.FindActiveByCandidate(ctx, candidateID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up active conversation")
	}
	return c, nil
}

// FindByCandidateAndJob returns the conversation for the pair in any status, or nil.
func (l *Ledger) FindByCandidateAndJob(ctx context.Context, candidateID, jobID string) (*models.Conversation, error) {
	c, err := l.conversations.FindByCandidateAndJob(ctx, candidateID, jobID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
	}
	return c, nil
}

// Create stores a new CREATED conversation stamped with the request time.
// Store-level uniqueness violations come back as conflicts that wrap the
// matching sentinel, so callers can tell them apart with errors.Is.
func (l *Ledger) Create(ctx context.Context, id, jobID, candidateID string) (*models.Conversation, error) {
	ctx, span := l.tracer.Start(ctx, "conversation.ledger.create", trace.WithAttributes(
		attribute.String("conversation.id", id),
		attribute.String("candidate.id", candidateID),
		attribute.String("job.id", jobID),
	))
	defer span.End()

	c := models.NewConversation(id, jobID, candidateID, requestcontext.Now(ctx))
	if err := l.conversations.Create(ctx, c); err != nil {
		derr := translateCreateErr(err)
		span.RecordError(derr)
		span.SetStatus(codes.Error, derr.Message)
		return nil, derr
	}
	return c, nil
}

func translateCreateErr(err error) *dErrors.Error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(sentinel.ErrAlreadyUsed, dErrors.CodeConflict, msgConversationIDTaken)
	case errors.Is(err, sentinel.ErrActiveConversation):
		return dErrors.Wrap(sentinel.ErrActiveConversation, dErrors.CodeConflict, msgActiveConversation)
	case errors.Is(err, sentinel.ErrDuplicateApplication):
		return dErrors.Wrap(sentinel.ErrDuplicateApplication, dErrors.CodeConflict, msgDuplicateApplication)
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create conversation")
	}
}

// List returns conversations newest first, filtered by status when filter is non-nil.
func (l *Ledger) List(ctx context.Context, filter *models.Status) ([]*models.Conversation, error) {
	list, err := l.conversations.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list conversations")
	}
	return list, nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	if c, ok := l.cached(ctx, id); ok {
		return c, nil
	}

	c, err := l.conversations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgConversationNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, c); err != nil {
			l.logger.WarnContext(ctx, "failed to cache conversation", "conversation_id", id, "error", err)
		}
	}
	return c, nil
}

// cached consults the cache. Cache failures degrade to a store read.
func (l *Ledger) cached(ctx context.Context, id string) (*models.Conversation, bool) {
	if l.cache == nil {
		return nil, false
	}
	c, err := l.cache.Get(ctx, id)
	switch {
	case err == nil:
		l.countCacheLookup("hit")
		return c, true
	case errors.Is(err, sentinel.ErrNotFound):
		l.countCacheLookup("miss")
	default:
		l.countCacheLookup("error")
		l.logger.WarnContext(ctx, "conversation cache read failed", "conversation_id", id, "error", err)
	}
	return nil, false
}

func (l *Ledger) countCacheLookup(result string) {
	if l.metrics != nil {
		l.metrics.IncrementCacheLookup(result)
	}
}

// Transition advances a conversation to status to. Only forward moves are
// allowed: CREATED to ONGOING or COMPLETED, and ONGOING to COMPLETED.
func (l *Ledger) Transition(ctx context.Context, id string, to models.Status) (*models.Conversation, error) {
	ctx, span := l.tracer.Start(ctx, "conversation.ledger.transition", trace.WithAttributes(
		attribute.String("conversation.id", id),
		attribute.String("conversation.status.to", to.String()),
	))
	defer span.End()

	c, err := l.conversations.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, msgConversationNotFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}

	from := c.Status
	if !from.CanTransitionTo(to) {
		return nil, dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("cannot move conversation from %s to %s", from, to))
	}

	now := requestcontext.Now(ctx)
	if err := l.conversations.UpdateStatus(ctx, id, from, to, now); err != nil {
		var derr *dErrors.Error
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			derr = dErrors.New(dErrors.CodeNotFound, msgConversationNotFound)
		case errors.Is(err, sentinel.ErrInvalidState):
			derr = dErrors.New(dErrors.CodeInvalidState, "conversation status changed concurrently")
		case errors.Is(err, sentinel.ErrActiveConversation):
			derr = dErrors.Wrap(sentinel.ErrActiveConversation, dErrors.CodeConflict, msgActiveConversation)
		default:
			derr = dErrors.Wrap(err, dErrors.CodeInternal, "failed to update conversation status")
		}
		span.RecordError(derr)
		span.SetStatus(codes.Error, derr.Message)
		return nil, derr
	}

	if l.cache != nil {
		if err := l.cache.Delete(ctx, id); err != nil {
			l.logger.WarnContext(ctx, "failed to invalidate cached conversation", "conversation_id", id, "error", err)
		}
	}

	c.Status = to
	c.UpdatedAt = now

	if l.metrics != nil {
		l.metrics.IncrementTransition(to.String())
	}
	if err := l.emit(ctx, audit.Event{
		Action:         audit.ActionConversationTransitioned,
		CandidateID:    c.CandidateID,
		ConversationID: c.ID,
		JobID:          c.JobID,
		Status:         to.String(),
		Reason:         from.String(),
	}); err != nil {
		l.logger.ErrorContext(ctx, "failed to audit conversation transition", "conversation_id", id, "error", err)
	}
	l.logger.InfoContext(ctx, "conversation status changed",
		"conversation_id", id,
		"candidate_id", c.CandidateID,
		"from", from.String(),
		"to", to.String(),
	)
	return c, nil
}
