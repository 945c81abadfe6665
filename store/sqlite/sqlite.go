/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements pension.TxStore and generic.AuditLog using SQLite. The same
  patterns apply to PostgreSQL with minor dialect differences.

INTERFACES IMPLEMENTED:
  pension.TxStore:  Contract state (owner, roles, records, insurances, tax, benefits)
  generic.AuditLog: Append-only audit trail

KEY TABLES:
  contract_meta:    Owner identity (written once)
  role_members:     Company / bank / tax office sets
  pensioners:       One row per pensioner record
  insurances:       Append-only, ordered by autoincrement seq
  tax_configs:      One row per pensioner, replaced on write
  spouse_benefits:  One row per beneficiary, replaced on write
  audit_log:        Append-only audit entries

ENCODING:
  Account IDs are stored as canonical "0x..." hex text, so ORDER BY on the
  column matches byte order. Amounts are stored as base-10 TEXT because
  SQLite integers are signed 64-bit and amounts use the full uint64 range.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection, which keeps
  ":memory:" databases coherent and matches SQLite's single writer.

USAGE:
  store, err := sqlite.New("./data/pension.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  contract, err := pension.Open(ctx, store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - pension/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// timestampLayout is fixed-width so that text order matches time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
	q  queries
}

var (
	_ pension.TxStore  = (*Store)(nil)
	_ generic.AuditLog = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, q: queries{db: db}}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contract_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS role_members (
		role TEXT NOT NULL,
		account_id TEXT NOT NULL,
		PRIMARY KEY (role, account_id)
	);

	CREATE TABLE IF NOT EXISTS pensioners (
		account_id TEXT PRIMARY KEY,
		years_worked INTEGER NOT NULL,
		current_salary TEXT NOT NULL,
		status TEXT NOT NULL,
		is_deceased BOOLEAN NOT NULL DEFAULT FALSE,
		is_receiving_pension BOOLEAN NOT NULL DEFAULT FALSE,
		is_eligible_age_wise BOOLEAN NOT NULL DEFAULT FALSE,
		payout_amount TEXT,
		spouse_beneficiary TEXT
	);

	-- Append-only; seq preserves insertion order
	CREATE TABLE IF NOT EXISTS insurances (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id TEXT NOT NULL,
		bank_id TEXT NOT NULL,
		payout_per_period TEXT NOT NULL,
		details TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_insurances_account
		ON insurances(account_id, seq);

	CREATE TABLE IF NOT EXISTS tax_configs (
		account_id TEXT PRIMARY KEY,
		tax_office_id TEXT NOT NULL,
		rate_percentage INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS spouse_benefits (
		beneficiary_id TEXT PRIMARY KEY,
		amount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		timestamp TEXT NOT NULL,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		target_id TEXT,
		payload_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_actor
		ON audit_log(actor_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_target
		ON audit_log(target_id, timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONTRACT STORE (pension.Store interface)
// =============================================================================

func (s *Store) Owner(ctx context.Context) (generic.AccountID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Owner(ctx)
}

func (s *Store) SetOwner(ctx context.Context, owner generic.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.SetOwner(ctx, owner)
}

func (s *Store) IsMember(ctx context.Context, role pension.Role, id generic.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.IsMember(ctx, role, id)
}

func (s *Store) AddMember(ctx context.Context, role pension.Role, id generic.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.AddMember(ctx, role, id)
}

func (s *Store) RemoveMember(ctx context.Context, role pension.Role, id generic.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.RemoveMember(ctx, role, id)
}

func (s *Store) Members(ctx context.Context, role pension.Role) ([]generic.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Members(ctx, role)
}

func (s *Store) GetRecord(ctx context.Context, id generic.AccountID) (*pension.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.GetRecord(ctx, id)
}

func (s *Store) PutRecord(ctx context.Context, id generic.AccountID, rec pension.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.PutRecord(ctx, id, rec)
}

func (s *Store) Pensioners(ctx context.Context) ([]generic.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Pensioners(ctx)
}

func (s *Store) Insurances(ctx context.Context, id generic.AccountID) ([]pension.InsuranceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.Insurances(ctx, id)
}

func (s *Store) AppendInsurance(ctx context.Context, id generic.AccountID, entry pension.InsuranceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.AppendInsurance(ctx, id, entry)
}

func (s *Store) TaxConfig(ctx context.Context, id generic.AccountID) (*pension.TaxConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.TaxConfig(ctx, id)
}

func (s *Store) PutTaxConfig(ctx context.Context, id generic.AccountID, cfg pension.TaxConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.PutTaxConfig(ctx, id, cfg)
}

func (s *Store) SpouseBenefit(ctx context.Context, beneficiary generic.AccountID) (*generic.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.q.SpouseBenefit(ctx, beneficiary)
}

func (s *Store) PutSpouseBenefit(ctx context.Context, beneficiary generic.AccountID, amount generic.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.PutSpouseBenefit(ctx, beneficiary, amount)
}

// =============================================================================
// TRANSACTIONAL STORE (pension.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store pension.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", generic.ErrTransactionFailed, err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{db: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", generic.ErrTransactionFailed, err)
	}
	return nil
}

// =============================================================================
// QUERIES - pension.Store over *sql.DB or *sql.Tx
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db execer
}

const ownerKey = "owner"

func (q *queries) Owner(ctx context.Context) (generic.AccountID, bool, error) {
	var raw string
	err := q.db.QueryRowContext(ctx, "SELECT value FROM contract_meta WHERE key = ?", ownerKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return generic.AccountID{}, false, nil
	}
	if err != nil {
		return generic.AccountID{}, false, fmt.Errorf("failed to load owner: %w", err)
	}
	id, err := decodeID("contract_meta", ownerKey, raw)
	if err != nil {
		return generic.AccountID{}, false, err
	}
	return id, true, nil
}

func (q *queries) SetOwner(ctx context.Context, owner generic.AccountID) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO contract_meta (key, value) VALUES (?, ?)", ownerKey, owner.String())
	if err != nil {
		return fmt.Errorf("failed to save owner: %w", err)
	}
	return nil
}

func (q *queries) IsMember(ctx context.Context, role pension.Role, id generic.AccountID) (bool, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM role_members WHERE role = ? AND account_id = ?",
		string(role), id.String(),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check %s membership: %w", role, err)
	}
	return count > 0, nil
}

func (q *queries) AddMember(ctx context.Context, role pension.Role, id generic.AccountID) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO role_members (role, account_id) VALUES (?, ?)",
		string(role), id.String())
	if err != nil {
		return fmt.Errorf("failed to add %s member: %w", role, err)
	}
	return nil
}

func (q *queries) RemoveMember(ctx context.Context, role pension.Role, id generic.AccountID) error {
	_, err := q.db.ExecContext(ctx,
		"DELETE FROM role_members WHERE role = ? AND account_id = ?",
		string(role), id.String())
	if err != nil {
		return fmt.Errorf("failed to remove %s member: %w", role, err)
	}
	return nil
}

func (q *queries) Members(ctx context.Context, role pension.Role) ([]generic.AccountID, error) {
	return q.queryIDs(ctx, "role_members",
		"SELECT account_id FROM role_members WHERE role = ? ORDER BY account_id ASC", string(role))
}

func (q *queries) GetRecord(ctx context.Context, id generic.AccountID) (*pension.Record, error) {
	var (
		rec    pension.Record
		years  int64
		salary string
		status string
		payout sql.NullString
		spouse sql.NullString
		key    = id.String()
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT years_worked, current_salary, status, is_deceased, is_receiving_pension,
		       is_eligible_age_wise, payout_amount, spouse_beneficiary
		FROM pensioners WHERE account_id = ?`, key,
	).Scan(&years, &salary, &status, &rec.IsDeceased, &rec.IsReceivingPension,
		&rec.IsEligibleForPayoutAgeWise, &payout, &spouse)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pensioner: %w", err)
	}

	if years < 0 || years > int64(^uint32(0)) {
		return nil, corrupt("pensioners", key, fmt.Errorf("years_worked %d out of range", years))
	}
	rec.YearsWorked = uint32(years)
	if rec.CurrentSalary, err = decodeAmount("pensioners", key, salary); err != nil {
		return nil, err
	}
	if rec.Status, err = pension.ParseEmploymentStatus(status); err != nil {
		return nil, corrupt("pensioners", key, err)
	}
	if payout.Valid {
		amt, err := decodeAmount("pensioners", key, payout.String)
		if err != nil {
			return nil, err
		}
		rec.PayoutAmount = &amt
	}
	if spouse.Valid {
		sid, err := decodeID("pensioners", key, spouse.String)
		if err != nil {
			return nil, err
		}
		rec.SpouseBeneficiary = &sid
	}
	return &rec, nil
}

func (q *queries) PutRecord(ctx context.Context, id generic.AccountID, rec pension.Record) error {
	var payout, spouse sql.NullString
	if rec.PayoutAmount != nil {
		payout = sql.NullString{String: rec.PayoutAmount.String(), Valid: true}
	}
	if rec.SpouseBeneficiary != nil {
		spouse = sql.NullString{String: rec.SpouseBeneficiary.String(), Valid: true}
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pensioners
		(account_id, years_worked, current_salary, status, is_deceased, is_receiving_pension,
		 is_eligible_age_wise, payout_amount, spouse_beneficiary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			years_worked = excluded.years_worked,
			current_salary = excluded.current_salary,
			status = excluded.status,
			is_deceased = excluded.is_deceased,
			is_receiving_pension = excluded.is_receiving_pension,
			is_eligible_age_wise = excluded.is_eligible_age_wise,
			payout_amount = excluded.payout_amount,
			spouse_beneficiary = excluded.spouse_beneficiary`,
		id.String(), int64(rec.YearsWorked), rec.CurrentSalary.String(), string(rec.Status),
		rec.IsDeceased, rec.IsReceivingPension, rec.IsEligibleForPayoutAgeWise, payout, spouse,
	)
	if err != nil {
		return fmt.Errorf("failed to save pensioner: %w", err)
	}
	return nil
}

func (q *queries) Pensioners(ctx context.Context) ([]generic.AccountID, error) {
	return q.queryIDs(ctx, "pensioners", "SELECT account_id FROM pensioners ORDER BY account_id ASC")
}

func (q *queries) Insurances(ctx context.Context, id generic.AccountID) ([]pension.InsuranceEntry, error) {
	key := id.String()
	rows, err := q.db.QueryContext(ctx, `
		SELECT bank_id, payout_per_period, details
		FROM insurances WHERE account_id = ? ORDER BY seq ASC`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query insurances: %w", err)
	}
	defer rows.Close()

	var entries []pension.InsuranceEntry
	for rows.Next() {
		var bank, amount, details string
		if err := rows.Scan(&bank, &amount, &details); err != nil {
			return nil, fmt.Errorf("failed to scan insurance: %w", err)
		}
		entry := pension.InsuranceEntry{Details: details}
		if entry.Bank, err = decodeID("insurances", key, bank); err != nil {
			return nil, err
		}
		if entry.PayoutPerPeriod, err = decodeAmount("insurances", key, amount); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (q *queries) AppendInsurance(ctx context.Context, id generic.AccountID, entry pension.InsuranceEntry) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO insurances (account_id, bank_id, payout_per_period, details)
		VALUES (?, ?, ?, ?)`,
		id.String(), entry.Bank.String(), entry.PayoutPerPeriod.String(), entry.Details)
	if err != nil {
		return fmt.Errorf("failed to append insurance: %w", err)
	}
	return nil
}

func (q *queries) TaxConfig(ctx context.Context, id generic.AccountID) (*pension.TaxConfig, error) {
	var (
		office string
		rate   int64
		key    = id.String()
	)
	err := q.db.QueryRowContext(ctx,
		"SELECT tax_office_id, rate_percentage FROM tax_configs WHERE account_id = ?", key,
	).Scan(&office, &rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tax config: %w", err)
	}
	if rate < 0 || rate > 255 {
		return nil, corrupt("tax_configs", key, fmt.Errorf("rate_percentage %d out of range", rate))
	}
	cfg := pension.TaxConfig{RatePercentage: uint8(rate)}
	if cfg.TaxOffice, err = decodeID("tax_configs", key, office); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (q *queries) PutTaxConfig(ctx context.Context, id generic.AccountID, cfg pension.TaxConfig) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO tax_configs (account_id, tax_office_id, rate_percentage)
		VALUES (?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			tax_office_id = excluded.tax_office_id,
			rate_percentage = excluded.rate_percentage`,
		id.String(), cfg.TaxOffice.String(), int64(cfg.RatePercentage))
	if err != nil {
		return fmt.Errorf("failed to save tax config: %w", err)
	}
	return nil
}

func (q *queries) SpouseBenefit(ctx context.Context, beneficiary generic.AccountID) (*generic.Amount, error) {
	var raw string
	key := beneficiary.String()
	err := q.db.QueryRowContext(ctx,
		"SELECT amount FROM spouse_benefits WHERE beneficiary_id = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load spouse benefit: %w", err)
	}
	amt, err := decodeAmount("spouse_benefits", key, raw)
	if err != nil {
		return nil, err
	}
	return &amt, nil
}

func (q *queries) PutSpouseBenefit(ctx context.Context, beneficiary generic.AccountID, amount generic.Amount) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO spouse_benefits (beneficiary_id, amount) VALUES (?, ?)
		ON CONFLICT(beneficiary_id) DO UPDATE SET amount = excluded.amount`,
		beneficiary.String(), amount.String())
	if err != nil {
		return fmt.Errorf("failed to save spouse benefit: %w", err)
	}
	return nil
}

func (q *queries) queryIDs(ctx context.Context, table, query string, args ...any) ([]generic.AccountID, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	ids := []generic.AccountID{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		id, err := decodeID(table, raw, raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =============================================================================
// AUDIT LOG (generic.AuditLog interface)
// =============================================================================

// Append adds an audit entry.
func (s *Store) Append(ctx context.Context, entry generic.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode audit payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, timestamp, actor_id, action, target_id, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.UTC().Format(timestampLayout),
		entry.ActorID.String(),
		string(entry.Action),
		nullID(entry.TargetID),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// Query returns audit entries matching filter, oldest first.
func (s *Store) Query(ctx context.Context, filter generic.AuditFilter) ([]generic.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		where []string
		args  []any
	)
	if filter.ActorID != nil {
		where = append(where, "actor_id = ?")
		args = append(args, filter.ActorID.String())
	}
	if filter.TargetID != nil {
		where = append(where, "target_id = ?")
		args = append(args, filter.TargetID.String())
	}
	if len(filter.Actions) > 0 {
		marks := make([]string, len(filter.Actions))
		for i, a := range filter.Actions {
			marks[i] = "?"
			args = append(args, string(a))
		}
		where = append(where, "action IN ("+strings.Join(marks, ", ")+")")
	}

	query := "SELECT id, timestamp, actor_id, action, target_id, payload_json FROM audit_log"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp ASC, id ASC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := []generic.AuditEntry{}
	for rows.Next() {
		var (
			e       generic.AuditEntry
			ts      string
			actor   string
			action  string
			target  sql.NullString
			payload sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &actor, &action, &target, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, corrupt("audit_log", e.ID, err)
		}
		if e.ActorID, err = decodeID("audit_log", e.ID, actor); err != nil {
			return nil, err
		}
		if target.Valid {
			if e.TargetID, err = decodeID("audit_log", e.ID, target.String); err != nil {
				return nil, err
			}
		}
		e.Action = generic.AuditAction(action)
		if payload.Valid && payload.String != "" && payload.String != "null" {
			if err := json.Unmarshal([]byte(payload.String), &e.Payload); err != nil {
				return nil, corrupt("audit_log", e.ID, err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo). The owner row is kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"role_members", "pensioners", "insurances", "tax_configs", "spouse_benefits", "audit_log"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullID(id generic.AccountID) sql.NullString {
	if id.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func decodeID(table, key, raw string) (generic.AccountID, error) {
	id, err := generic.ParseAccountID(raw)
	if err != nil {
		return id, corrupt(table, key, err)
	}
	return id, nil
}

func decodeAmount(table, key, raw string) (generic.Amount, error) {
	amt, err := generic.ParseAmount(raw)
	if err != nil {
		return 0, corrupt(table, key, err)
	}
	return amt, nil
}

func corrupt(table, key string, err error) error {
	return &generic.CorruptRecordError{Table: table, Key: key, Err: err}
}
