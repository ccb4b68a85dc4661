package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"recruitline/internal/conversation/models"
	"recruitline/internal/conversation/store"
	"recruitline/pkg/platform/sentinel"
	"recruitline/pkg/platform/tx"
)

const conversationColumns = `id, job_id, candidate_id, status, created_at, updated_at`

// PostgresStore persists conversations in PostgreSQL. The schema's unique
// indexes back both conversation invariants; constraint violations are
// reported as sentinel errors.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed conversation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts the conversation. Inside a transaction the insert runs under a
// savepoint so a constraint violation leaves the rest of the transaction usable.
func (s *PostgresStore) Create(ctx context.Context, c *models.Conversation) error {
	query := `
		INSERT INTO conversations (id, job_id, candidate_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	q := tx.Pick(ctx, s.db)
	_, inTx := tx.From(ctx)
	if inTx {
		if _, err := q.ExecContext(ctx, `SAVEPOINT conversation_create`); err != nil {
			return fmt.Errorf("savepoint conversation create: %w", err)
		}
	}

	_, err := q.ExecContext(ctx, query, c.ID, c.JobID, c.CandidateID, string(c.Status), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if inTx {
			if _, rbErr := q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT conversation_create`); rbErr != nil {
				return fmt.Errorf("rollback conversation create: %w", errors.Join(err, rbErr))
			}
		}
		return translateInsertErr(err)
	}

	if inTx {
		if _, err := q.ExecContext(ctx, `RELEASE SAVEPOINT conversation_create`); err != nil {
			return fmt.Errorf("release savepoint conversation create: %w", err)
		}
	}
	return nil
}

func translateInsertErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == store.UniqueViolation {
		switch pqErr.Constraint {
		case store.ConstraintConversationPK:
			return sentinel.ErrAlreadyUsed
		case store.ConstraintOneActive:
			return sentinel.ErrActiveConversation
		case store.ConstraintCandidateJob:
			return sentinel.ErrDuplicateApplication
		}
	}
	return fmt.Errorf("insert conversation: %w", err)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	c, err := scanConversation(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapFindErr(err, "find conversation by id")
	}
	return c, nil
}

func (s *PostgresStore) FindActiveByCandidate(ctx context.Context, candidateID string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE candidate_id = $1 AND status = ANY($2)
		ORDER BY seq
		LIMIT 1`
	active := []string{string(models.StatusCreated), string(models.StatusOngoing)}
	c, err := scanConversation(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, candidateID, pq.Array(active)))
	if err != nil {
		return nil, wrapFindErr(err, "find active conversation")
	}
	return c, nil
}

func (s *PostgresStore) FindByCandidateAndJob(ctx context.Context, candidateID, jobID string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE candidate_id = $1 AND job_id = $2`
	c, err := scanConversation(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, candidateID, jobID))
	if err != nil {
		return nil, wrapFindErr(err, "find conversation by candidate and job")
	}
	return c, nil
}

// List returns conversations newest first, optionally filtered by status.
// seq breaks ties so equal timestamps keep insertion order.
func (s *PostgresStore) List(ctx context.Context, status *models.Status) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, seq ASC`

	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []*models.Conversation{}
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

// UpdateStatus is a compare-and-set on the current status.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, from, to models.Status, now time.Time) error {
	q := tx.Pick(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE conversations SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == store.UniqueViolation && pqErr.Constraint == store.ConstraintOneActive {
			return sentinel.ErrActiveConversation
		}
		return fmt.Errorf("update conversation status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update conversation status rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check conversation exists: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	var status string
	if err := row.Scan(&c.ID, &c.JobID, &c.CandidateID, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Status = models.Status(status)
	return &c, nil
}

func wrapFindErr(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
