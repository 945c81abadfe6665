/*
errors.go - The contract's closed error taxonomy

PURPOSE:
  Every contract operation either succeeds or fails with exactly one of the
  kinds below. None of them are fatal; all are expected outcomes that
  callers must handle explicitly. Transports surface the kind verbatim:
  authorized actors rely on telling "not authorized" apart from "not found"
  apart from "not yet eligible".

ERROR KINDS:
  Unauthorized            caller lacks the role (or is not the owner)
  AlreadyRegistered       register of an identity already in the set
  NotRegistered           unregister of an identity not in the set
  PensionerNotFound       no record for the pensioner
  InvalidInput            parameter or stored value out of domain (tax rate > 100)
  PayoutNotApplicable     deceased, or already receiving a pension
  NotYetEligibleForPayout age eligibility gate is closed
  AlreadyDeceased         death already reported

USAGE:
  _, err := c.InitiatePayout(ctx, pensioner)
  switch {
  case errors.Is(err, pension.ErrNotYetEligibleForPayout):
  case errors.Is(err, pension.ErrPayoutNotApplicable):
  }

  pension.KindOf(err) // "NotYetEligibleForPayout"

SEE ALSO:
  - generic/errors.go: Infrastructure errors (KindInternal)
  - api/handlers.go: HTTP status mapping
*/
package pension

import (
	"errors"
	"fmt"

	"github.com/warp/pension-engine/generic"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrAlreadyRegistered       = errors.New("already registered")
	ErrNotRegistered           = errors.New("not registered")
	ErrPensionerNotFound       = errors.New("pensioner not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrPayoutNotApplicable     = errors.New("payout not applicable")
	ErrNotYetEligibleForPayout = errors.New("not yet eligible for payout")
	ErrAlreadyDeceased         = errors.New("already deceased")

	// ErrNotInitialized is returned by Open on a store that has no owner.
	ErrNotInitialized = errors.New("contract not initialized")

	// ErrAlreadyInitialized is returned by New on a store owned by someone else.
	ErrAlreadyInitialized = errors.New("contract already initialized")
)

// =============================================================================
// ERROR KINDS - Stable names for transports
// =============================================================================

type ErrorKind string

const (
	KindUnauthorized            ErrorKind = "Unauthorized"
	KindAlreadyRegistered       ErrorKind = "AlreadyRegistered"
	KindNotRegistered           ErrorKind = "NotRegistered"
	KindPensionerNotFound       ErrorKind = "PensionerNotFound"
	KindInvalidInput            ErrorKind = "InvalidInput"
	KindPayoutNotApplicable     ErrorKind = "PayoutNotApplicable"
	KindNotYetEligibleForPayout ErrorKind = "NotYetEligibleForPayout"
	KindAlreadyDeceased         ErrorKind = "AlreadyDeceased"
	KindNotInitialized          ErrorKind = "NotInitialized"
	KindAlreadyInitialized      ErrorKind = "AlreadyInitialized"
	KindInternal                ErrorKind = "Internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrUnauthorized, KindUnauthorized},
	{ErrAlreadyRegistered, KindAlreadyRegistered},
	{ErrNotRegistered, KindNotRegistered},
	{ErrPensionerNotFound, KindPensionerNotFound},
	{ErrInvalidInput, KindInvalidInput},
	{ErrPayoutNotApplicable, KindPayoutNotApplicable},
	{ErrNotYetEligibleForPayout, KindNotYetEligibleForPayout},
	{ErrAlreadyDeceased, KindAlreadyDeceased},
	{ErrNotInitialized, KindNotInitialized},
	{ErrAlreadyInitialized, KindAlreadyInitialized},
}

// KindOf returns the kind of err, "" for nil, KindInternal for anything
// outside the taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// ErrorForKind maps a kind name back to its sentinel. Clients decoding a
// transport response use it to rebuild errors.Is-comparable values.
func ErrorForKind(kind ErrorKind) (error, bool) {
	for _, k := range kinds {
		if k.kind == kind {
			return k.err, true
		}
	}
	return nil, false
}

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// OpError carries the operation and identities involved in a rejection.
type OpError struct {
	Op     string
	Caller generic.AccountID
	Target *generic.AccountID
	Err    error
}

func (e *OpError) Error() string {
	if e.Target != nil {
		return fmt.Sprintf("%s %s (caller %s): %v", e.Op, e.Target.Short(), e.Caller.Short(), e.Err)
	}
	return fmt.Sprintf("%s (caller %s): %v", e.Op, e.Caller.Short(), e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if err is one of the contract's business outcomes.
func IsClientError(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindInternal
}

// IsNotFound returns true if the error indicates a missing pensioner.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPensionerNotFound)
}
