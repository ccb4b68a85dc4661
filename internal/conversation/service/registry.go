package service

import (
	"context"

	"recruitline/internal/conversation/models"
	dErrors "recruitline/pkg/domain-errors"
	"recruitline/pkg/requestcontext"
)

// Registry records candidate profiles. Profiles are write-once: a repeated
// registration for the same candidate leaves the stored profile untouched.
type Registry struct {
	candidates CandidateStore
	options
}

func NewRegistry(candidates CandidateStore, opts ...Option) *Registry {
	return &Registry{candidates: candidates, options: buildOptions(opts)}
}

// Upsert inserts the profile under candidateID if no candidate with that id exists.
func (r *Registry) Upsert(ctx context.Context, candidateID string, profile models.Candidate) error {
	profile.ID = candidateID
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = requestcontext.Now(ctx)
	}

	created, err := r.candidates.CreateIfAbsent(ctx, profile)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register candidate")
	}
	if created {
		r.logger.DebugContext(ctx, "candidate registered",
			"candidate_id", candidateID,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}
