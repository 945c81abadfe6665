/*
ledger.go - Pensioner record store

PURPOSE:
  Wraps Store with the record rules of the contract:
  - Records are created lazily on the first employment update, from
    DefaultRecord(), and are never deleted.
  - Insurances are append-only and keep insertion order.
  - Tax configs are validated on write (and again on every read, see payout.go).
  - Spouse benefits overwrite, they never accumulate.

READ-MODIFY-WRITE:
  Callers get a copy of the record, change fields, and put it back. The
  contract does this inside one WithTx under its mutex, so no two
  operations can interleave the sequence for the same key.

SEE ALSO:
  - store.go: Persistence interface
  - contract.go: The only caller of put
*/
package pension

import (
	"context"

	"github.com/warp/pension-engine/generic"
)

// Ledger is the per-account record store.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// =============================================================================
// RECORDS
// =============================================================================

// Get returns the pensioner's record, or nil if none exists.
func (l *Ledger) Get(ctx context.Context, id generic.AccountID) (*Record, error) {
	rec, err := l.store.GetRecord(ctx, id)
	if err != nil || rec == nil {
		return nil, err
	}
	out := rec.Clone()
	return &out, nil
}

// Require returns the pensioner's record or ErrPensionerNotFound.
func (l *Ledger) Require(ctx context.Context, id generic.AccountID) (Record, error) {
	rec, err := l.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec == nil {
		return Record{}, ErrPensionerNotFound
	}
	return *rec, nil
}

// Exists reports whether the pensioner has a record.
func (l *Ledger) Exists(ctx context.Context, id generic.AccountID) (bool, error) {
	rec, err := l.store.GetRecord(ctx, id)
	return rec != nil, err
}

// GetOrCreateDefault returns the stored record or DefaultRecord(). Only the
// employment path uses it; nothing is written until put.
func (l *Ledger) GetOrCreateDefault(ctx context.Context, id generic.AccountID) (Record, error) {
	rec, err := l.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec == nil {
		return DefaultRecord(), nil
	}
	return *rec, nil
}

func (l *Ledger) put(ctx context.Context, id generic.AccountID, rec Record) error {
	return l.store.PutRecord(ctx, id, rec.Clone())
}

// Pensioners lists every identity with a record.
func (l *Ledger) Pensioners(ctx context.Context) ([]generic.AccountID, error) {
	return l.store.Pensioners(ctx)
}

// =============================================================================
// INSURANCES, TAX, SPOUSE BENEFITS
// =============================================================================

func (l *Ledger) Insurances(ctx context.Context, id generic.AccountID) ([]InsuranceEntry, error) {
	return l.store.Insurances(ctx, id)
}

func (l *Ledger) appendInsurance(ctx context.Context, id generic.AccountID, entry InsuranceEntry) error {
	return l.store.AppendInsurance(ctx, id, entry)
}

func (l *Ledger) TaxConfig(ctx context.Context, id generic.AccountID) (*TaxConfig, error) {
	return l.store.TaxConfig(ctx, id)
}

func (l *Ledger) putTaxConfig(ctx context.Context, id generic.AccountID, cfg TaxConfig) error {
	if err := ValidateTaxRate(cfg.RatePercentage); err != nil {
		return err
	}
	return l.store.PutTaxConfig(ctx, id, cfg)
}

func (l *Ledger) SpouseBenefit(ctx context.Context, beneficiary generic.AccountID) (*generic.Amount, error) {
	return l.store.SpouseBenefit(ctx, beneficiary)
}

func (l *Ledger) putSpouseBenefit(ctx context.Context, beneficiary generic.AccountID, amount generic.Amount) error {
	return l.store.PutSpouseBenefit(ctx, beneficiary, amount)
}

// Calculate runs the payout engine against rec and the pensioner's stored
// insurances and tax config.
func (l *Ledger) Calculate(ctx context.Context, id generic.AccountID, rec Record) (Payout, error) {
	insurances, err := l.Insurances(ctx, id)
	if err != nil {
		return Payout{}, err
	}
	tax, err := l.TaxConfig(ctx, id)
	if err != nil {
		return Payout{}, err
	}
	return Calculate(rec, insurances, tax)
}
