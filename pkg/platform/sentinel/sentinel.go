package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about records, not validation failures:
//   - ErrNotFound: record does not exist in store
//   - ErrAlreadyUsed: a record with the same primary key already exists
//   - ErrActiveConversation: the candidate already holds a CREATED/ONGOING conversation
//   - ErrDuplicateApplication: a conversation already exists for the candidate+job pair
//   - ErrInvalidState: record is in the wrong state for the requested operation
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound             = errors.New("not found")
	ErrAlreadyUsed          = errors.New("already used")
	ErrActiveConversation   = errors.New("active conversation exists")
	ErrDuplicateApplication = errors.New("duplicate application")
	ErrInvalidState         = errors.New("invalid state")
	ErrUnavailable          = errors.New("unavailable")
)
