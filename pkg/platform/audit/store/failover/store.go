// Package failover routes audit events to a primary sink and falls back to a
// secondary one when the primary fails.
package failover

import (
	"context"
	"fmt"
	"log/slog"

	audit "recruitline/pkg/platform/audit"
	"recruitline/pkg/platform/circuit"
)

type Store struct {
	primary   audit.Store
	secondary audit.Store
	breaker   *circuit.Breaker
	logger    *slog.Logger
}

func New(primary, secondary audit.Store, breaker *circuit.Breaker, logger *slog.Logger) *Store {
	if breaker == nil {
		breaker = circuit.New("audit")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{primary: primary, secondary: secondary, breaker: breaker, logger: logger}
}

// Append tries the primary first. A failed event is written to the secondary
// so it is never lost silently.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	err := s.primary.Append(ctx, event)
	if err == nil {
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			s.logger.InfoContext(ctx, "audit sink recovered", "breaker", s.breaker.Name())
		}
		return nil
	}

	if _, change := s.breaker.RecordFailure(); change.Opened {
		s.logger.ErrorContext(ctx, "audit sink failing, circuit opened",
			"breaker", s.breaker.Name(),
			"error", err,
		)
	}
	if fbErr := s.secondary.Append(ctx, event); fbErr != nil {
		return fmt.Errorf("audit fallback append: %w", fbErr)
	}
	return nil
}
