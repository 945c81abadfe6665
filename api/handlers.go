/*
handlers.go - HTTP API handlers for the pension contract

PURPOSE:
  Exposes every contract operation via REST API. Handles HTTP request and
  response, JSON serialization, caller identity, and delegates to
  pension.Contract. No business rule lives here.

ENDPOINTS:
  Contract:
    GET    /api/contract                           Owner identity

  Roles (owner mutates, anyone reads):
    GET    /api/roles/{role}/members               List a role set
    POST   /api/roles/{role}/members               Register {"id": "0x..."}
    GET    /api/roles/{role}/members/{id}          Is id authorized
    DELETE /api/roles/{role}/members/{id}          Unregister

  Pensioners:
    GET    /api/pensioners                         List identities with a record
    GET    /api/pensioners/{id}                    Record (404 if absent)
    PUT    /api/pensioners/{id}/employment         Company: update employment
    GET    /api/pensioners/{id}/insurances         Insurance entries
    POST   /api/pensioners/{id}/insurances         Bank: add insurance
    GET    /api/pensioners/{id}/tax                Tax config (null if absent)
    PUT    /api/pensioners/{id}/tax                Tax office: apply tax rate
    PUT    /api/pensioners/{id}/eligibility        Owner: set age eligibility
    POST   /api/pensioners/{id}/death              Anyone: report death

  Caller as pensioner:
    GET    /api/me/payout                          Future payout estimate
    POST   /api/me/payout                          Initiate payout
    PUT    /api/me/spouse                          Designate spouse
    GET    /api/me/spouse-benefit                  Spouse benefit owed to caller

CALLER IDENTITY:
  Every request carries X-Caller-ID (the canonical "0x..." form). The
  transport asserts it; the contract trusts it.

ERROR HANDLING:
  Errors are returned as JSON with the contract's error kind verbatim:
  - 400: InvalidInput, malformed request
  - 403: Unauthorized
  - 404: PensionerNotFound, NotRegistered
  - 409: AlreadyRegistered, PayoutNotApplicable, NotYetEligibleForPayout, AlreadyDeceased
  - 500: Internal

SEE ALSO:
  - dto.go: Request/response data structures
  - audit.go: Audit trail of accepted mutations
  - scenarios.go: Scenario endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/metrics"
	"github.com/warp/pension-engine/pension"
)

// CallerHeader carries the caller identity of every request.
const CallerHeader = "X-Caller-ID"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Contract *pension.Contract

	// Audit receives one entry per accepted mutation. Optional.
	Audit generic.AuditLog

	// Metrics, when set, is served at /metrics and records payouts.
	Metrics *metrics.Metrics

	Logger *slog.Logger

	now   func() time.Time
	newID func() (string, error)
}

// NewHandler creates a handler bound to a contract.
func NewHandler(contract *pension.Contract, audit generic.AuditLog, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		Contract: contract,
		Audit:    audit,
		Metrics:  m,
		Logger:   logger,
		now:      time.Now,
		newID:    newAuditID,
	}
}

// =============================================================================
// CONTRACT
// =============================================================================

// GetContract returns the owner identity.
func (h *Handler) GetContract(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ContractDTO{Owner: h.Contract.Owner()})
}

// =============================================================================
// ROLE HANDLERS
// =============================================================================

// ListMembers returns the identities registered for a role.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	members, err := h.Contract.Members(r.Context(), role)
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MembersDTO{Role: role, Members: members})
}

// RegisterMember adds an identity to a role set. Owner only.
func (h *Handler) RegisterMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	var req RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Contract.Register(r.Context(), caller, role, req.ID); err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditRoleRegistered, req.ID, map[string]any{"role": string(role)})
	writeJSON(w, http.StatusCreated, AuthorizedDTO{Role: role, ID: req.ID, Authorized: true})
}

// GetMember reports whether an identity holds a role.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	authorized, err := h.Contract.IsAuthorized(r.Context(), role, id)
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthorizedDTO{Role: role, ID: id, Authorized: authorized})
}

// UnregisterMember removes an identity from a role set. Owner only.
func (h *Handler) UnregisterMember(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	if err := h.Contract.Unregister(r.Context(), caller, role, id); err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditRoleUnregistered, id, map[string]any{"role": string(role)})
	writeJSON(w, http.StatusOK, AuthorizedDTO{Role: role, ID: id, Authorized: false})
}

// =============================================================================
// PENSIONER HANDLERS
// =============================================================================

// ListPensioners returns every identity with a record.
func (h *Handler) ListPensioners(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Contract.Pensioners(r.Context())
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PensionersDTO{Pensioners: ids})
}

// GetPensioner returns a pensioner record.
func (h *Handler) GetPensioner(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	rec, err := h.Contract.Pensioner(r.Context(), id)
	if err != nil {
		writeContractError(w, err)
		return
	}
	if rec == nil {
		writeContractError(w, pension.ErrPensionerNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toPensionerDTO(id, *rec))
}

// UpdateEmployment creates or updates a record. Company only.
func (h *Handler) UpdateEmployment(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req EmploymentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = pension.StatusActive
	}

	err := h.Contract.UpdateEmployment(r.Context(), caller, id, req.YearsWorked, req.CurrentSalary, req.Status)
	if err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditEmploymentUpdated, id, map[string]any{
		"years_worked":   req.YearsWorked,
		"current_salary": req.CurrentSalary.String(),
		"status":         string(req.Status),
	})
	h.writePensioner(w, r, http.StatusOK, id)
}

// ListInsurances returns a pensioner's insurance entries in insertion order.
func (h *Handler) ListInsurances(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	entries, err := h.Contract.Insurances(r.Context(), id)
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsuranceDTOs(entries))
}

// AddInsurance appends an insurance entry. Bank only.
func (h *Handler) AddInsurance(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req InsuranceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Contract.AddInsurance(r.Context(), caller, id, req.PayoutPerPeriod, req.Details); err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditInsuranceAdded, id, map[string]any{
		"payout_per_period": req.PayoutPerPeriod.String(),
		"details":           req.Details,
	})
	writeJSON(w, http.StatusCreated, InsuranceDTO{
		Bank:                   caller,
		PayoutPerPeriod:        req.PayoutPerPeriod,
		PayoutPerPeriodDisplay: displayAmount(req.PayoutPerPeriod),
		Details:                req.Details,
	})
}

// GetTaxConfig returns a pensioner's tax config.
func (h *Handler) GetTaxConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	cfg, err := h.Contract.TaxConfig(r.Context(), id)
	if err != nil {
		writeContractError(w, err)
		return
	}
	if cfg == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, toTaxConfigDTO(*cfg))
}

// ApplyTaxRate overwrites a pensioner's tax config. Tax office only.
func (h *Handler) ApplyTaxRate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req TaxRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Contract.ApplyTaxRate(r.Context(), caller, id, req.RatePercentage); err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditTaxRateApplied, id, map[string]any{"rate_percentage": req.RatePercentage})
	writeJSON(w, http.StatusOK, toTaxConfigDTO(pension.TaxConfig{TaxOffice: caller, RatePercentage: req.RatePercentage}))
}

// SetAgeEligibility opens or closes the payout gate. Owner only.
func (h *Handler) SetAgeEligibility(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req EligibilityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Contract.SetAgeEligibility(r.Context(), caller, id, req.Eligible); err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditEligibilityChanged, id, map[string]any{"eligible": req.Eligible})
	h.writePensioner(w, r, http.StatusOK, id)
}

// ReportDeath marks a pensioner deceased. Any caller.
func (h *Handler) ReportDeath(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r)
	if !ok {
		return
	}

	benefit, err := h.Contract.ReportDeath(r.Context(), caller, id)
	if err != nil {
		writeContractError(w, err)
		return
	}
	payload := map[string]any{}
	if benefit != nil {
		payload["spouse_benefit"] = benefit.String()
	}
	h.record(r, caller, generic.AuditDeathReported, id, payload)
	writeJSON(w, http.StatusOK, toOptionalAmountDTO(benefit))
}

// =============================================================================
// CALLER-AS-PENSIONER HANDLERS
// =============================================================================

// GetFuturePayout returns the caller's payout estimate.
func (h *Handler) GetFuturePayout(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	amount, err := h.Contract.FuturePayout(r.Context(), caller)
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAmountDTO(amount))
}

// InitiatePayout starts the caller's pension.
func (h *Handler) InitiatePayout(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	amount, err := h.Contract.InitiatePayout(r.Context(), caller)
	if err != nil {
		writeContractError(w, err)
		return
	}
	h.Metrics.ObservePayout(uint64(amount))
	h.record(r, caller, generic.AuditPayoutInitiated, caller, map[string]any{"amount": amount.String()})
	writeJSON(w, http.StatusOK, toAmountDTO(amount))
}

// DesignateSpouse sets the caller's spouse beneficiary.
func (h *Handler) DesignateSpouse(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	var req SpouseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Contract.DesignateSpouse(r.Context(), caller, req.Spouse); err != nil {
		writeContractError(w, err)
		return
	}
	h.record(r, caller, generic.AuditSpouseDesignated, caller, map[string]any{"spouse": req.Spouse.String()})
	h.writePensioner(w, r, http.StatusOK, caller)
}

// GetSpouseBenefit returns the benefit stored for the caller as beneficiary.
func (h *Handler) GetSpouseBenefit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerParam(w, r)
	if !ok {
		return
	}
	benefit, err := h.Contract.SpouseBenefit(r.Context(), caller)
	if err != nil {
		writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOptionalAmountDTO(benefit))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writePensioner(w http.ResponseWriter, r *http.Request, status int, id generic.AccountID) {
	rec, err := h.Contract.Pensioner(r.Context(), id)
	if err != nil {
		writeContractError(w, err)
		return
	}
	if rec == nil {
		writeContractError(w, pension.ErrPensionerNotFound)
		return
	}
	writeJSON(w, status, toPensionerDTO(id, *rec))
}

func callerParam(w http.ResponseWriter, r *http.Request) (generic.AccountID, bool) {
	raw := r.Header.Get(CallerHeader)
	if raw == "" {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Missing "+CallerHeader+" header", nil)
		return generic.AccountID{}, false
	}
	id, err := generic.ParseAccountID(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid "+CallerHeader+" header", err)
		return generic.AccountID{}, false
	}
	return id, true
}

func idParam(w http.ResponseWriter, r *http.Request) (generic.AccountID, bool) {
	id, err := generic.ParseAccountID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid account id", err)
		return generic.AccountID{}, false
	}
	return id, true
}

func roleParam(w http.ResponseWriter, r *http.Request) (pension.Role, bool) {
	role, err := pension.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid role", err)
		return "", false
	}
	return role, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, string(pension.KindInvalidInput), "Invalid request body", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, kind, message string, err error) {
	resp := ErrorResponse{Error: message, Kind: kind}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeContractError maps a contract error to its HTTP status and surfaces
// the kind unchanged.
func writeContractError(w http.ResponseWriter, err error) {
	kind := pension.KindOf(err)
	if kind == pension.KindInternal {
		writeError(w, http.StatusInternalServerError, string(kind), "Internal error", nil)
		return
	}
	writeError(w, StatusForKind(kind), string(kind), rootMessage(err), err)
}

// StatusForKind returns the HTTP status used for an error kind.
func StatusForKind(kind pension.ErrorKind) int {
	switch kind {
	case pension.KindInvalidInput:
		return http.StatusBadRequest
	case pension.KindUnauthorized:
		return http.StatusForbidden
	case pension.KindPensionerNotFound, pension.KindNotRegistered:
		return http.StatusNotFound
	case pension.KindAlreadyRegistered, pension.KindPayoutNotApplicable,
		pension.KindNotYetEligibleForPayout, pension.KindAlreadyDeceased,
		pension.KindAlreadyInitialized:
		return http.StatusConflict
	case pension.KindNotInitialized:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// rootMessage returns the sentinel's message, without operation context.
func rootMessage(err error) string {
	if sentinel, ok := pension.ErrorForKind(pension.KindOf(err)); ok {
		return sentinel.Error()
	}
	return err.Error()
}
