/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the pension domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Amounts travel as integers in the smallest currency unit ("amount").
  Responses add "amount_display", the same value in major units with two
  decimals, for humans. Clients must never parse the display form.

TYPES:
  Contract:    ContractDTO
  Roles:       RegisterRequest, MembersDTO, AuthorizedDTO
  Pensioners:  PensionerDTO, EmploymentRequest, InsuranceRequest, InsuranceDTO,
               TaxRequest, TaxConfigDTO, EligibilityRequest, SpouseRequest
  Payouts:     AmountDTO, OptionalAmountDTO
  Audit:       AuditEntryDTO
  Scenarios:   ScenarioDTO, ScenarioRunDTO
  Errors:      ErrorResponse

VALIDATION:
  Validation is done in handlers and in the contract, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - client/client.go: Decodes the same types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// CONTRACT AND ROLES
// =============================================================================

// ContractDTO describes the deployed contract.
type ContractDTO struct {
	Owner generic.AccountID `json:"owner"`
}

// RegisterRequest adds an identity to a role set.
type RegisterRequest struct {
	ID generic.AccountID `json:"id"`
}

// MembersDTO lists a role set.
type MembersDTO struct {
	Role    pension.Role        `json:"role"`
	Members []generic.AccountID `json:"members"`
}

// AuthorizedDTO answers a membership query.
type AuthorizedDTO struct {
	Role       pension.Role      `json:"role"`
	ID         generic.AccountID `json:"id"`
	Authorized bool              `json:"authorized"`
}

// =============================================================================
// PENSIONERS
// =============================================================================

// PensionerDTO is a pensioner record in API responses.
type PensionerDTO struct {
	ID                         generic.AccountID        `json:"id"`
	State                      pension.State            `json:"state"`
	YearsWorked                uint32                   `json:"years_worked"`
	CurrentSalary              generic.Amount           `json:"current_salary"`
	EmploymentStatus           pension.EmploymentStatus `json:"employment_status"`
	IsDeceased                 bool                     `json:"is_deceased"`
	IsReceivingPension         bool                     `json:"is_receiving_pension"`
	IsEligibleForPayoutAgeWise bool                     `json:"is_eligible_for_payout_age_wise"`
	PayoutAmount               *generic.Amount          `json:"payout_amount"`
	PayoutAmountDisplay        string                   `json:"payout_amount_display,omitempty"`
	SpouseBeneficiary          *generic.AccountID       `json:"spouse_beneficiary"`
}

// PensionersDTO lists every identity with a record.
type PensionersDTO struct {
	Pensioners []generic.AccountID `json:"pensioners"`
}

// EmploymentRequest is sent by a company.
type EmploymentRequest struct {
	YearsWorked   uint32                   `json:"years_worked"`
	CurrentSalary generic.Amount           `json:"current_salary"`
	Status        pension.EmploymentStatus `json:"status"`
}

// InsuranceRequest is sent by a bank.
type InsuranceRequest struct {
	PayoutPerPeriod generic.Amount `json:"payout_per_period"`
	Details         string         `json:"details"`
}

// InsuranceDTO is one insurance entry.
type InsuranceDTO struct {
	Bank                   generic.AccountID `json:"bank"`
	PayoutPerPeriod        generic.Amount    `json:"payout_per_period"`
	PayoutPerPeriodDisplay string            `json:"payout_per_period_display"`
	Details                string            `json:"details"`
}

// TaxRequest is sent by a tax office. Rate is an integer percentage.
type TaxRequest struct {
	RatePercentage uint8 `json:"rate_percentage"`
}

// TaxConfigDTO is a stored tax config. RateFraction is RatePercentage / 100.
type TaxConfigDTO struct {
	TaxOffice      generic.AccountID `json:"tax_office"`
	RatePercentage uint8             `json:"rate_percentage"`
	RateFraction   string            `json:"rate_fraction"`
}

// EligibilityRequest is sent by the owner.
type EligibilityRequest struct {
	Eligible bool `json:"eligible"`
}

// SpouseRequest is sent by a pensioner.
type SpouseRequest struct {
	Spouse generic.AccountID `json:"spouse"`
}

// =============================================================================
// PAYOUTS
// =============================================================================

// AmountDTO carries a required amount.
type AmountDTO struct {
	Amount        generic.Amount `json:"amount"`
	AmountDisplay string         `json:"amount_display"`
}

// OptionalAmountDTO carries an amount that may be absent (null).
type OptionalAmountDTO struct {
	Amount        *generic.Amount `json:"amount"`
	AmountDisplay string          `json:"amount_display,omitempty"`
}

// =============================================================================
// AUDIT
// =============================================================================

// AuditEntryDTO is one audit log entry.
type AuditEntryDTO struct {
	ID        string              `json:"id"`
	Timestamp string              `json:"timestamp"`
	Actor     generic.AccountID   `json:"actor"`
	Action    generic.AuditAction `json:"action"`
	Target    *generic.AccountID  `json:"target,omitempty"`
	Payload   map[string]any      `json:"payload,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a built-in scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Steps       int    `json:"steps"`
}

// ScenarioRunDTO is the outcome of a scenario run.
type ScenarioRunDTO struct {
	ScenarioID string `json:"scenario_id"`
	Passed     bool   `json:"passed"`
	Mismatches int    `json:"mismatches"`
	Trace      string `json:"trace"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is returned for every failed request. Kind is the
// contract's error kind, verbatim.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// displayAmount renders smallest units as major units with two decimals.
func displayAmount(a generic.Amount) string {
	return decimal.RequireFromString(a.String()).Shift(-2).StringFixed(2)
}

func toAmountDTO(a generic.Amount) AmountDTO {
	return AmountDTO{Amount: a, AmountDisplay: displayAmount(a)}
}

func toOptionalAmountDTO(a *generic.Amount) OptionalAmountDTO {
	if a == nil {
		return OptionalAmountDTO{}
	}
	v := *a
	return OptionalAmountDTO{Amount: &v, AmountDisplay: displayAmount(v)}
}

func toPensionerDTO(id generic.AccountID, rec pension.Record) PensionerDTO {
	dto := PensionerDTO{
		ID:                         id,
		State:                      rec.State(),
		YearsWorked:                rec.YearsWorked,
		CurrentSalary:              rec.CurrentSalary,
		EmploymentStatus:           rec.Status,
		IsDeceased:                 rec.IsDeceased,
		IsReceivingPension:         rec.IsReceivingPension,
		IsEligibleForPayoutAgeWise: rec.IsEligibleForPayoutAgeWise,
		PayoutAmount:               rec.PayoutAmount,
		SpouseBeneficiary:          rec.SpouseBeneficiary,
	}
	if rec.PayoutAmount != nil {
		dto.PayoutAmountDisplay = displayAmount(*rec.PayoutAmount)
	}
	return dto
}

func toInsuranceDTOs(entries []pension.InsuranceEntry) []InsuranceDTO {
	dtos := make([]InsuranceDTO, len(entries))
	for i, e := range entries {
		dtos[i] = InsuranceDTO{
			Bank:                   e.Bank,
			PayoutPerPeriod:        e.PayoutPerPeriod,
			PayoutPerPeriodDisplay: displayAmount(e.PayoutPerPeriod),
			Details:                e.Details,
		}
	}
	return dtos
}

func toTaxConfigDTO(cfg pension.TaxConfig) TaxConfigDTO {
	return TaxConfigDTO{
		TaxOffice:      cfg.TaxOffice,
		RatePercentage: cfg.RatePercentage,
		RateFraction:   decimal.New(int64(cfg.RatePercentage), -2).StringFixed(2),
	}
}

func toAuditEntryDTO(e generic.AuditEntry) AuditEntryDTO {
	dto := AuditEntryDTO{
		ID:        e.ID,
		Timestamp: e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Actor:     e.ActorID,
		Action:    e.Action,
		Payload:   e.Payload,
	}
	if !e.TargetID.IsZero() {
		t := e.TargetID
		dto.Target = &t
	}
	return dto
}
