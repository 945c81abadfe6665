/*
store.go - Persistence interface for contract state

PURPOSE:
  Defines the interface between the contract and its storage. The contract
  exclusively owns the keyed maps behind it:

    owner                 fixed at initialization
    role members          company / bank / tax office sets
    pensioners            AccountID -> Record
    insurances            AccountID -> []InsuranceEntry (append-only, ordered)
    tax configs           AccountID -> TaxConfig (last write wins)
    spouse benefits       beneficiary AccountID -> Amount (overwrite)

KEY INTERFACES:
  Store:   Keyed reads and writes, no business rules
  TxStore: Store plus WithTx for all-or-nothing operations

ATOMICITY:
  Every mutating contract operation runs inside WithTx. If the callback
  returns an error nothing it wrote is visible afterwards.

ALIASING:
  Implementations must return copies. A caller mutating a returned Record or
  slice must never change stored state.

IMPLEMENTATIONS:
  - store/memory/memory.go: In-memory with snapshot rollback
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - ledger.go: Higher-level record operations using Store
  - contract.go: Drives WithTx per operation
*/
package pension

import (
	"context"

	"github.com/warp/pension-engine/generic"
)

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	// Owner returns the owner identity and whether one has been set.
	Owner(ctx context.Context) (generic.AccountID, bool, error)

	// SetOwner records the owner. Called once, by initialization.
	SetOwner(ctx context.Context, owner generic.AccountID) error

	IsMember(ctx context.Context, role Role, id generic.AccountID) (bool, error)
	AddMember(ctx context.Context, role Role, id generic.AccountID) error
	RemoveMember(ctx context.Context, role Role, id generic.AccountID) error

	// Members returns the role set sorted by identity bytes.
	Members(ctx context.Context, role Role) ([]generic.AccountID, error)

	// GetRecord returns nil, nil when the pensioner has no record.
	GetRecord(ctx context.Context, id generic.AccountID) (*Record, error)
	PutRecord(ctx context.Context, id generic.AccountID, rec Record) error

	// Pensioners returns every pensioner with a record, sorted by identity bytes.
	Pensioners(ctx context.Context) ([]generic.AccountID, error)

	// Insurances returns entries in insertion order, nil when none exist.
	Insurances(ctx context.Context, id generic.AccountID) ([]InsuranceEntry, error)
	AppendInsurance(ctx context.Context, id generic.AccountID, entry InsuranceEntry) error

	// TaxConfig returns nil, nil when no tax office has configured the pensioner.
	TaxConfig(ctx context.Context, id generic.AccountID) (*TaxConfig, error)
	PutTaxConfig(ctx context.Context, id generic.AccountID, cfg TaxConfig) error

	// SpouseBenefit returns nil, nil when no benefit is stored for the beneficiary.
	SpouseBenefit(ctx context.Context, beneficiary generic.AccountID) (*generic.Amount, error)
	PutSpouseBenefit(ctx context.Context, beneficiary generic.AccountID, amount generic.Amount) error
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	// If fn returns nil, transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
