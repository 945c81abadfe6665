/*
errors.go - Infrastructure error types shared by stores and transports

PURPOSE:
  Errors that describe storage or decoding failures, as opposed to the
  business outcomes of the pension contract (see pension/errors.go).
  Stores return these (optionally wrapped) so callers can tell a broken
  database apart from a rejected operation.

ERROR CATEGORIES:
  1. Store errors - Transaction begin/commit failures
  2. Decode errors - Persisted values that no longer parse

USAGE:
  if errors.Is(err, generic.ErrCorruptRecord) {
      // stored row is unreadable, surface as internal error
  }

SEE ALSO:
  - pension/errors.go: Domain error taxonomy
  - store/sqlite/sqlite.go: Wraps these errors with table context
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTransactionFailed is returned when an atomic write cannot be committed.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrCorruptRecord is returned when a persisted value cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrStoreClosed is returned by stores used after Close.
	ErrStoreClosed = errors.New("store closed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// CorruptRecordError names the table and key of an undecodable row.
type CorruptRecordError struct {
	Table string
	Key   string
	Err   error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record in %s (key %s): %v", e.Table, e.Key, e.Err)
}

func (e *CorruptRecordError) Unwrap() []error {
	return []error{ErrCorruptRecord, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInfrastructure returns true if err came from the storage layer rather
// than from a business rule.
func IsInfrastructure(err error) bool {
	return errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrCorruptRecord) ||
		errors.Is(err, ErrStoreClosed)
}
