package candidate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"recruitline/internal/conversation/models"
	"recruitline/pkg/platform/sentinel"
	"recruitline/pkg/platform/tx"
)

// PostgresStore persists candidate profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed candidate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateIfAbsent inserts the candidate; an existing row is left untouched.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, c models.Candidate) (bool, error) {
	query := `
		INSERT INTO candidates (id, phone_number, first_name, last_name, email_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		c.ID, c.PhoneNumber, c.FirstName, c.LastName, c.EmailAddress, c.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert candidate: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert candidate rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Candidate, error) {
	query := `
		SELECT id, phone_number, first_name, last_name, email_address, created_at
		FROM candidates
		WHERE id = $1
	`
	var c models.Candidate
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.PhoneNumber, &c.FirstName, &c.LastName, &c.EmailAddress, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find candidate by id: %w", err)
	}
	return &c, nil
}
