// Package store holds the conversation schema shared by the candidate and
// conversation PostgreSQL stores.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Constraint names the PostgreSQL stores translate into sentinel errors.
const (
	ConstraintConversationPK = "conversations_pkey"
	ConstraintOneActive      = "conversations_one_active_per_candidate"
	ConstraintCandidateJob   = "conversations_candidate_job_key"
)

// UniqueViolation is the SQLSTATE matched against *pq.Error.
const UniqueViolation = "23505"

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply conversation schema: %w", err)
	}
	return nil
}
