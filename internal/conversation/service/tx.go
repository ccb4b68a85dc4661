package service

import (
	"context"
	"sync"
	"time"

	dErrors "recruitline/pkg/domain-errors"
)

// AdmissionTx runs fn inside a transactional boundary scoped to one candidate.
// Implementations may wrap a database transaction or, in-memory, a lock shard.
//
// The runner commits when fn returns nil and rolls back otherwise, so callers
// report domain rejections out of band and keep the error return for
// infrastructure failures.
type AdmissionTx interface {
	RunInTx(ctx context.Context, candidateID string, fn func(txCtx context.Context) error) error
}

// Operations for different candidates land on different shards and proceed in
// parallel; operations for one candidate are serialized.
const numCandidateShards = 128

// DefaultTxTimeout bounds a transaction when the caller's context carries no deadline.
const DefaultTxTimeout = 5 * time.Second

// ShardedTx serializes admissions per candidate with sharded mutexes. It backs
// the in-memory stores.
type ShardedTx struct {
	shards  [numCandidateShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx builds a sharded in-memory transaction runner. A zero timeout
// uses DefaultTxTimeout.
func NewShardedTx(timeout time.Duration) *ShardedTx {
	return &ShardedTx{timeout: timeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, candidateID string, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = DefaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := shardFor(candidateID)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

func shardFor(candidateID string) int {
	return int(fnv1a(candidateID) % numCandidateShards)
}

func fnv1a(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
