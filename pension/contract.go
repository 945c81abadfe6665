/*
contract.go - Message dispatch and state machine

PURPOSE:
  Contract is the only entry point to pension state. Each named operation
  checks the caller's authorization, reads and writes the Ledger, delegates
  payout math to Calculate, and commits the resulting transition atomically.

OPERATIONS:
  Owner:       Register/Unregister{Company,Bank,TaxOffice}, SetAgeEligibility
  Company:     UpdateEmployment
  Bank:        AddInsurance
  Tax office:  ApplyTaxRate
  Pensioner:   InitiatePayout, DesignateSpouse, FuturePayout (caller = pensioner)
  Anyone:      ReportDeath, accessors

STATE MACHINE (per pensioner):
  Unknown --UpdateEmployment--> ActiveNoPayout --SetAgeEligibility(true)--> ActiveEligible
  ActiveEligible --InitiatePayout--> Paying
  {ActiveNoPayout, ActiveEligible, Paying} --ReportDeath--> Deceased (absorbing)

CONCURRENCY:
  Calls are serialized behind one mutex and every mutation runs inside
  TxStore.WithTx. All checks happen before any write; an error rolls the
  whole operation back.

CALLER IDENTITY:
  Every operation takes the caller explicitly. The transport asserts it;
  the contract treats it as authoritative.

SEE ALSO:
  - access.go, ledger.go, payout.go: Components used here
  - errors.go: Failure kinds
*/
package pension

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/pension-engine/generic"
)

// Operation names, used for logging, metrics, and error context.
const (
	OpInitialize          = "initialize"
	OpRegisterCompany     = "register_company"
	OpUnregisterCompany   = "unregister_company"
	OpRegisterBank        = "register_bank"
	OpUnregisterBank      = "unregister_bank"
	OpRegisterTaxOffice   = "register_tax_office"
	OpUnregisterTaxOffice = "unregister_tax_office"
	OpUpdateEmployment    = "update_employment"
	OpAddInsurance        = "add_insurance"
	OpApplyTaxRate        = "apply_tax_rate"
	OpSetAgeEligibility   = "set_age_eligibility"
	OpInitiatePayout      = "initiate_payout"
	OpDesignateSpouse     = "designate_spouse"
	OpReportDeath         = "report_death"
	OpFuturePayout        = "get_future_payout"
)

// Observer receives one notification per completed operation. kind is ""
// on success.
type Observer interface {
	ObserveOperation(op string, kind ErrorKind, elapsed time.Duration)
}

// Contract is the pension contract bound to a store.
type Contract struct {
	mu       sync.Mutex
	store    TxStore
	owner    generic.AccountID
	logger   *slog.Logger
	observer Observer
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger sets the structured logger. Defaults to discarding output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Contract) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver sets the operation observer (metrics).
func WithObserver(o Observer) Option {
	return func(c *Contract) { c.observer = o }
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// New initializes a fresh store and fixes the owner to caller. It fails with
// ErrAlreadyInitialized if the store already has an owner.
func New(ctx context.Context, store TxStore, caller generic.AccountID, opts ...Option) (*Contract, error) {
	c := newContract(store, caller, opts)
	err := store.WithTx(ctx, func(s Store) error {
		_, ok, err := s.Owner(ctx)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyInitialized
		}
		return s.SetOwner(ctx, caller)
	})
	if err != nil {
		return nil, &OpError{Op: OpInitialize, Caller: caller, Err: err}
	}
	c.logger.Info("contract initialized", "owner", caller.String())
	return c, nil
}

// Open attaches to a store initialized by an earlier New.
func Open(ctx context.Context, store TxStore, opts ...Option) (*Contract, error) {
	owner, ok, err := store.Owner(ctx)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}
	if !ok {
		return nil, ErrNotInitialized
	}
	return newContract(store, owner, opts), nil
}

func newContract(store TxStore, owner generic.AccountID, opts []Option) *Contract {
	c := &Contract{
		store:  store,
		owner:  owner,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Owner returns the identity that initialized the contract.
func (c *Contract) Owner() generic.AccountID { return c.owner }

// =============================================================================
// REGISTRATION (owner only)
// =============================================================================

func (c *Contract) RegisterCompany(ctx context.Context, caller, company generic.AccountID) error {
	return c.register(ctx, OpRegisterCompany, caller, RoleCompany, company)
}

func (c *Contract) UnregisterCompany(ctx context.Context, caller, company generic.AccountID) error {
	return c.unregister(ctx, OpUnregisterCompany, caller, RoleCompany, company)
}

func (c *Contract) RegisterBank(ctx context.Context, caller, bank generic.AccountID) error {
	return c.register(ctx, OpRegisterBank, caller, RoleBank, bank)
}

func (c *Contract) UnregisterBank(ctx context.Context, caller, bank generic.AccountID) error {
	return c.unregister(ctx, OpUnregisterBank, caller, RoleBank, bank)
}

func (c *Contract) RegisterTaxOffice(ctx context.Context, caller, office generic.AccountID) error {
	return c.register(ctx, OpRegisterTaxOffice, caller, RoleTaxOffice, office)
}

func (c *Contract) UnregisterTaxOffice(ctx context.Context, caller, office generic.AccountID) error {
	return c.unregister(ctx, OpUnregisterTaxOffice, caller, RoleTaxOffice, office)
}

// Register adds id to role's set. The role-specific methods above are thin
// wrappers around it.
func (c *Contract) Register(ctx context.Context, caller generic.AccountID, role Role, id generic.AccountID) error {
	return c.register(ctx, "register_"+string(role), caller, role, id)
}

// Unregister removes id from role's set.
func (c *Contract) Unregister(ctx context.Context, caller generic.AccountID, role Role, id generic.AccountID) error {
	return c.unregister(ctx, "unregister_"+string(role), caller, role, id)
}

func (c *Contract) register(ctx context.Context, op string, caller generic.AccountID, role Role, id generic.AccountID) error {
	return c.mutate(ctx, op, caller, &id, func(reg *AccessRegistry, _ *Ledger) error {
		return reg.Register(ctx, caller, role, id)
	})
}

func (c *Contract) unregister(ctx context.Context, op string, caller generic.AccountID, role Role, id generic.AccountID) error {
	return c.mutate(ctx, op, caller, &id, func(reg *AccessRegistry, _ *Ledger) error {
		return reg.Unregister(ctx, caller, role, id)
	})
}

// =============================================================================
// ROLE OPERATIONS
// =============================================================================

// UpdateEmployment creates the record if absent, then overwrites years,
// salary, and status. Deceased and payout flags are untouched.
func (c *Contract) UpdateEmployment(ctx context.Context, caller, pensioner generic.AccountID, years uint32, salary generic.Amount, status EmploymentStatus) error {
	return c.mutate(ctx, OpUpdateEmployment, caller, &pensioner, func(reg *AccessRegistry, led *Ledger) error {
		if err := reg.EnsureAuthorized(ctx, RoleCompany, caller); err != nil {
			return err
		}
		if _, err := ParseEmploymentStatus(string(status)); err != nil {
			return err
		}
		rec, err := led.GetOrCreateDefault(ctx, pensioner)
		if err != nil {
			return err
		}
		rec.YearsWorked = years
		rec.CurrentSalary = salary
		rec.Status = status
		return led.put(ctx, pensioner, rec)
	})
}

// AddInsurance appends an insurance entry attributed to the calling bank.
func (c *Contract) AddInsurance(ctx context.Context, caller, pensioner generic.AccountID, payoutPerPeriod generic.Amount, details string) error {
	return c.mutate(ctx, OpAddInsurance, caller, &pensioner, func(reg *AccessRegistry, led *Ledger) error {
		if err := reg.EnsureAuthorized(ctx, RoleBank, caller); err != nil {
			return err
		}
		if err := requireExists(ctx, led, pensioner); err != nil {
			return err
		}
		return led.appendInsurance(ctx, pensioner, InsuranceEntry{
			Bank:            caller,
			PayoutPerPeriod: payoutPerPeriod,
			Details:         details,
		})
	})
}

// ApplyTaxRate overwrites the pensioner's tax config with the calling office.
func (c *Contract) ApplyTaxRate(ctx context.Context, caller, pensioner generic.AccountID, rate uint8) error {
	return c.mutate(ctx, OpApplyTaxRate, caller, &pensioner, func(reg *AccessRegistry, led *Ledger) error {
		if err := reg.EnsureAuthorized(ctx, RoleTaxOffice, caller); err != nil {
			return err
		}
		if err := requireExists(ctx, led, pensioner); err != nil {
			return err
		}
		return led.putTaxConfig(ctx, pensioner, TaxConfig{TaxOffice: caller, RatePercentage: rate})
	})
}

// SetAgeEligibility opens or closes the owner-controlled payout gate.
func (c *Contract) SetAgeEligibility(ctx context.Context, caller, pensioner generic.AccountID, eligible bool) error {
	return c.mutate(ctx, OpSetAgeEligibility, caller, &pensioner, func(reg *AccessRegistry, led *Ledger) error {
		if err := reg.EnsureOwner(caller); err != nil {
			return err
		}
		rec, err := led.Require(ctx, pensioner)
		if err != nil {
			return err
		}
		rec.IsEligibleForPayoutAgeWise = eligible
		return led.put(ctx, pensioner, rec)
	})
}

// =============================================================================
// PENSIONER OPERATIONS (caller = pensioner)
// =============================================================================

// InitiatePayout computes and stores the caller's payout and starts the
// pension. It succeeds at most once per pensioner.
func (c *Contract) InitiatePayout(ctx context.Context, caller generic.AccountID) (generic.Amount, error) {
	var amount generic.Amount
	err := c.mutate(ctx, OpInitiatePayout, caller, nil, func(_ *AccessRegistry, led *Ledger) error {
		rec, err := led.Require(ctx, caller)
		if err != nil {
			return err
		}
		if rec.IsDeceased || rec.IsReceivingPension {
			return ErrPayoutNotApplicable
		}
		if !rec.IsEligibleForPayoutAgeWise {
			return ErrNotYetEligibleForPayout
		}
		payout, err := led.Calculate(ctx, caller, rec)
		if err != nil {
			return err
		}
		net := payout.Net
		rec.PayoutAmount = &net
		rec.IsReceivingPension = true
		if err := led.put(ctx, caller, rec); err != nil {
			return err
		}
		amount = net
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// DesignateSpouse sets the caller's spouse beneficiary. Repeatable while alive.
func (c *Contract) DesignateSpouse(ctx context.Context, caller, spouse generic.AccountID) error {
	return c.mutate(ctx, OpDesignateSpouse, caller, &spouse, func(_ *AccessRegistry, led *Ledger) error {
		rec, err := led.Require(ctx, caller)
		if err != nil {
			return err
		}
		if rec.IsDeceased {
			return ErrPayoutNotApplicable
		}
		s := spouse
		rec.SpouseBeneficiary = &s
		return led.put(ctx, caller, rec)
	})
}

// FuturePayout returns the caller's payout estimate without changing state.
func (c *Contract) FuturePayout(ctx context.Context, caller generic.AccountID) (generic.Amount, error) {
	var amount generic.Amount
	err := c.read(ctx, OpFuturePayout, caller, nil, func(_ *AccessRegistry, led *Ledger) error {
		rec, err := led.Require(ctx, caller)
		if err != nil {
			return err
		}
		if rec.IsDeceased {
			return ErrPayoutNotApplicable
		}
		payout, err := led.Calculate(ctx, caller, rec)
		if err != nil {
			return err
		}
		amount = payout.Net
		return nil
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// =============================================================================
// DEATH REPORT (any caller)
// =============================================================================

// ReportDeath marks the pensioner deceased and stops any pension. If a spouse
// is designated, 20% of the pre-death net payout is stored for them and
// returned; otherwise the result is nil.
func (c *Contract) ReportDeath(ctx context.Context, caller, pensioner generic.AccountID) (*generic.Amount, error) {
	var benefit *generic.Amount
	err := c.mutate(ctx, OpReportDeath, caller, &pensioner, func(_ *AccessRegistry, led *Ledger) error {
		rec, err := led.Require(ctx, pensioner)
		if err != nil {
			return err
		}
		if rec.IsDeceased {
			return ErrAlreadyDeceased
		}
		// The engine sees the record while it is still alive.
		payout, err := led.Calculate(ctx, pensioner, rec)
		if err != nil {
			return err
		}

		rec.IsDeceased = true
		rec.IsReceivingPension = false

		var assigned *generic.Amount
		if rec.SpouseBeneficiary != nil {
			amount := SpouseBenefit(payout.Net)
			if err := led.putSpouseBenefit(ctx, *rec.SpouseBeneficiary, amount); err != nil {
				return err
			}
			assigned = &amount
		}
		if err := led.put(ctx, pensioner, rec); err != nil {
			return err
		}
		benefit = assigned
		return nil
	})
	if err != nil {
		return nil, err
	}
	return benefit, nil
}

// =============================================================================
// ACCESSORS (anyone, read-only)
// =============================================================================

func (c *Contract) IsCompanyAuthorized(ctx context.Context, id generic.AccountID) (bool, error) {
	return c.IsAuthorized(ctx, RoleCompany, id)
}

func (c *Contract) IsBankAuthorized(ctx context.Context, id generic.AccountID) (bool, error) {
	return c.IsAuthorized(ctx, RoleBank, id)
}

func (c *Contract) IsTaxOfficeAuthorized(ctx context.Context, id generic.AccountID) (bool, error) {
	return c.IsAuthorized(ctx, RoleTaxOffice, id)
}

func (c *Contract) IsAuthorized(ctx context.Context, role Role, id generic.AccountID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry(c.store).IsAuthorized(ctx, role, id)
}

// Members lists the identities registered for role.
func (c *Contract) Members(ctx context.Context, role Role) ([]generic.AccountID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry(c.store).Members(ctx, role)
}

// Pensioner returns a copy of the record, or nil.
func (c *Contract) Pensioner(ctx context.Context, id generic.AccountID) (*Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewLedger(c.store).Get(ctx, id)
}

// Pensioners lists every identity with a record.
func (c *Contract) Pensioners(ctx context.Context) ([]generic.AccountID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewLedger(c.store).Pensioners(ctx)
}

// Insurances returns the pensioner's insurances in insertion order, or nil.
func (c *Contract) Insurances(ctx context.Context, id generic.AccountID) ([]InsuranceEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewLedger(c.store).Insurances(ctx, id)
}

// TaxConfig returns the pensioner's tax config, or nil.
func (c *Contract) TaxConfig(ctx context.Context, id generic.AccountID) (*TaxConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewLedger(c.store).TaxConfig(ctx, id)
}

// SpouseBenefit returns the death benefit stored for the caller, or nil.
func (c *Contract) SpouseBenefit(ctx context.Context, caller generic.AccountID) (*generic.Amount, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return NewLedger(c.store).SpouseBenefit(ctx, caller)
}

// State returns the derived lifecycle state; StateUnknown if no record exists.
func (c *Contract) State(ctx context.Context, id generic.AccountID) (State, error) {
	rec, err := c.Pensioner(ctx, id)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return StateUnknown, nil
	}
	return rec.State(), nil
}

// =============================================================================
// DISPATCH
// =============================================================================

func (c *Contract) registry(s Store) *AccessRegistry {
	return NewAccessRegistry(s, c.owner)
}

func (c *Contract) mutate(ctx context.Context, op string, caller generic.AccountID, target *generic.AccountID, fn func(*AccessRegistry, *Ledger) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := c.store.WithTx(ctx, func(s Store) error {
		return fn(c.registry(s), NewLedger(s))
	})
	return c.finish(op, caller, target, start, err)
}

func (c *Contract) read(ctx context.Context, op string, caller generic.AccountID, target *generic.AccountID, fn func(*AccessRegistry, *Ledger) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	err := fn(c.registry(c.store), NewLedger(c.store))
	return c.finish(op, caller, target, start, err)
}

func (c *Contract) finish(op string, caller generic.AccountID, target *generic.AccountID, start time.Time, err error) error {
	kind := KindOf(err)
	if c.observer != nil {
		c.observer.ObserveOperation(op, kind, time.Since(start))
	}

	attrs := []any{"op", op, "caller", caller.Short()}
	if target != nil {
		attrs = append(attrs, "target", target.Short())
	}
	switch {
	case err == nil:
		c.logger.Debug("operation applied", attrs...)
		return nil
	case kind == KindInternal:
		c.logger.Error("operation failed", append(attrs, "error", err)...)
	default:
		c.logger.Info("operation rejected", append(attrs, "kind", string(kind))...)
	}

	var opErr *OpError
	if errors.As(err, &opErr) {
		return err
	}
	return &OpError{Op: op, Caller: caller, Target: target, Err: err}
}

func requireExists(ctx context.Context, led *Ledger, id generic.AccountID) error {
	ok, err := led.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPensionerNotFound
	}
	return nil
}
