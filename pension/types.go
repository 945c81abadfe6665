/*
Package pension implements the pension entitlement contract.

PURPOSE:
  A ledger-style state machine that tracks pension entitlements per account.
  Three authorized roles (companies, banks, tax offices) and one fixed owner
  feed employment, insurance, and tax data into per-pensioner records; the
  payout engine turns those records into deterministic per-period amounts.

KEY CONCEPTS IN THIS FILE (types.go):
  - Role: company, bank, or tax office authorization set
  - EmploymentStatus: Active, LongTermPause, LaidOff
  - Record: the per-pensioner record (employment data + lifecycle flags)
  - InsuranceEntry: bank-provided payout per period, append-only list
  - TaxConfig: at most one per pensioner, last write wins
  - State: lifecycle state derived from a record

LIFECYCLE:
  Unknown -> ActiveNoPayout -> ActiveEligible -> Paying
  Deceased is absorbing and reachable from any of the first three live
  states. A deceased record is never receiving a pension.

SEE ALSO:
  - access.go: AccessRegistry (role sets + owner)
  - ledger.go: Ledger (record store)
  - payout.go: Calculate (payout engine)
  - contract.go: Contract (message dispatch)
*/
package pension

import (
	"fmt"

	"github.com/warp/pension-engine/generic"
)

// =============================================================================
// ROLES
// =============================================================================

// Role names one of the three authorization sets controlled by the owner.
type Role string

const (
	RoleCompany   Role = "company"
	RoleBank      Role = "bank"
	RoleTaxOffice Role = "tax_office"
)

// Roles lists every role in a fixed order.
var Roles = []Role{RoleCompany, RoleBank, RoleTaxOffice}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCompany, RoleBank, RoleTaxOffice:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// =============================================================================
// EMPLOYMENT STATUS
// =============================================================================

type EmploymentStatus string

const (
	StatusActive        EmploymentStatus = "Active"
	StatusLongTermPause EmploymentStatus = "LongTermPause"
	StatusLaidOff       EmploymentStatus = "LaidOff"
)

func ParseEmploymentStatus(s string) (EmploymentStatus, error) {
	switch EmploymentStatus(s) {
	case StatusActive, StatusLongTermPause, StatusLaidOff:
		return EmploymentStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown employment status %q", ErrInvalidInput, s)
}

// =============================================================================
// RECORDS
// =============================================================================

// Record is the stored state of one pensioner.
//
// INVARIANTS:
//   - IsDeceased only ever moves false -> true.
//   - IsReceivingPension is never true while IsDeceased is true.
//   - PayoutAmount is set exactly once, by payout initiation.
type Record struct {
	YearsWorked                uint32
	CurrentSalary              generic.Amount
	Status                     EmploymentStatus
	IsDeceased                 bool
	IsReceivingPension         bool
	IsEligibleForPayoutAgeWise bool
	PayoutAmount               *generic.Amount
	SpouseBeneficiary          *generic.AccountID
}

// DefaultRecord is the record created on a pensioner's first employment
// update, before the employment fields are overwritten.
func DefaultRecord() Record {
	return Record{
		YearsWorked:                0,
		CurrentSalary:              0,
		Status:                     StatusActive,
		IsDeceased:                 false,
		IsReceivingPension:         false,
		IsEligibleForPayoutAgeWise: false,
		PayoutAmount:               nil,
		SpouseBeneficiary:          nil,
	}
}

// Clone returns a deep copy so callers never alias stored pointers.
func (r Record) Clone() Record {
	out := r
	if r.PayoutAmount != nil {
		v := *r.PayoutAmount
		out.PayoutAmount = &v
	}
	if r.SpouseBeneficiary != nil {
		v := *r.SpouseBeneficiary
		out.SpouseBeneficiary = &v
	}
	return out
}

// State derives the lifecycle state of a stored record.
func (r Record) State() State {
	switch {
	case r.IsDeceased:
		return StateDeceased
	case r.IsReceivingPension:
		return StatePaying
	case r.IsEligibleForPayoutAgeWise:
		return StateActiveEligible
	default:
		return StateActiveNoPayout
	}
}

// InsuranceEntry is one bank-provided insurance payout.
type InsuranceEntry struct {
	Bank            generic.AccountID
	PayoutPerPeriod generic.Amount
	Details         string
}

// TaxConfig is the tax office configuration applied to a pensioner.
type TaxConfig struct {
	TaxOffice      generic.AccountID
	RatePercentage uint8
}

// =============================================================================
// STATE
// =============================================================================

type State string

const (
	StateUnknown        State = "Unknown"
	StateActiveNoPayout State = "ActiveNoPayout"
	StateActiveEligible State = "ActiveEligible"
	StatePaying         State = "Paying"
	StateDeceased       State = "Deceased"
)
