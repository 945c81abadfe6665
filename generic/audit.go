/*
audit.go - Append-only audit trail of who did what

PURPOSE:
  Records every accepted mutating call against the contract. The audit log
  is separate from contract state: it carries wall-clock timestamps and
  random IDs, so it must never feed a calculation.

APPEND-ONLY CONTRACT:
  AuditLog exposes Append and Query only. There is no Update or Delete.

SEE ALSO:
  - store/sqlite/sqlite.go: audit_log table
  - api/handlers.go: Writes entries after successful operations
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// AUDIT LOG
// =============================================================================

type AuditAction string

const (
	AuditRoleRegistered     AuditAction = "role_registered"
	AuditRoleUnregistered   AuditAction = "role_unregistered"
	AuditEmploymentUpdated  AuditAction = "employment_updated"
	AuditInsuranceAdded     AuditAction = "insurance_added"
	AuditTaxRateApplied     AuditAction = "tax_rate_applied"
	AuditEligibilityChanged AuditAction = "eligibility_changed"
	AuditPayoutInitiated    AuditAction = "payout_initiated"
	AuditSpouseDesignated   AuditAction = "spouse_designated"
	AuditDeathReported      AuditAction = "death_reported"
)

// AuditEntry records who did what when.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	ActorID   AccountID // caller identity
	Action    AuditAction
	TargetID  AccountID // pensioner or registered party, zero if none
	Payload   map[string]any
}

// AuditLog stores audit entries.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Query(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// AuditFilter narrows a Query. Nil fields match everything.
type AuditFilter struct {
	ActorID  *AccountID
	TargetID *AccountID
	Actions  []AuditAction
	Limit    int
}
