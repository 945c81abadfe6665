/*
handlers_test.go - HTTP tests for the contract endpoints

Tests for:
- Role registration and caller identity
- The full payout flow over HTTP
- Error kinds surfaced verbatim with their status codes
- Audit entries written for accepted mutations
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/metrics"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/sqlite"
)

var (
	owner   = generic.DeriveAccountID("owner")
	acme    = generic.DeriveAccountID("acme")
	bank    = generic.DeriveAccountID("nordbank")
	revenue = generic.DeriveAccountID("revenue")
	alice   = generic.DeriveAccountID("alice")
	dave    = generic.DeriveAccountID("dave")
)

type testServer struct {
	t       *testing.T
	router  http.Handler
	store   *sqlite.Store
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	m := metrics.New()
	contract, err := pension.New(context.Background(), store, owner, pension.WithObserver(m))
	require.NoError(t, err)

	h := NewHandler(contract, store, m, nil)
	return &testServer{t: t, router: NewRouter(h), store: store, metrics: m}
}

func (s *testServer) do(method, path string, caller *generic.AccountID, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		req.Header.Set(CallerHeader, caller.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) mustOK(rec *httptest.ResponseRecorder) {
	s.t.Helper()
	require.Less(s.t, rec.Code, 300, rec.Body.String())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func as(id generic.AccountID) *generic.AccountID { return &id }

// setupPensioner registers all roles and gives alice salary 60000 over 20
// years, an insurance of 10000, and a 10% tax rate.
func (s *testServer) setupPensioner() {
	s.t.Helper()
	s.mustOK(s.do("POST", "/api/roles/company/members", as(owner), RegisterRequest{ID: acme}))
	s.mustOK(s.do("POST", "/api/roles/bank/members", as(owner), RegisterRequest{ID: bank}))
	s.mustOK(s.do("POST", "/api/roles/tax_office/members", as(owner), RegisterRequest{ID: revenue}))
	s.mustOK(s.do("PUT", "/api/pensioners/"+alice.String()+"/employment", as(acme),
		EmploymentRequest{YearsWorked: 20, CurrentSalary: 60000, Status: pension.StatusActive}))
	s.mustOK(s.do("POST", "/api/pensioners/"+alice.String()+"/insurances", as(bank),
		InsuranceRequest{PayoutPerPeriod: 10000, Details: "life"}))
	s.mustOK(s.do("PUT", "/api/pensioners/"+alice.String()+"/tax", as(revenue), TaxRequest{RatePercentage: 10}))
}

// =============================================================================
// CONTRACT AND ROLES
// =============================================================================

func TestGetContract_ReturnsOwner(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/api/contract", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, owner, decode[ContractDTO](t, rec).Owner)
}

func TestRegisterMember_OwnerOnly(t *testing.T) {
	// GIVEN: a fresh contract
	s := newTestServer(t)

	// WHEN: a non-owner registers a company
	rec := s.do("POST", "/api/roles/company/members", as(acme), RegisterRequest{ID: acme})

	// THEN: 403 with kind Unauthorized
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Unauthorized", decode[ErrorResponse](t, rec).Kind)

	// WHEN: the owner registers it twice
	assert.Equal(t, http.StatusCreated, s.do("POST", "/api/roles/company/members", as(owner), RegisterRequest{ID: acme}).Code)
	rec = s.do("POST", "/api/roles/company/members", as(owner), RegisterRequest{ID: acme})

	// THEN: the second is a conflict
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AlreadyRegistered", decode[ErrorResponse](t, rec).Kind)
}

func TestMembers_ListQueryAndUnregister(t *testing.T) {
	s := newTestServer(t)
	s.mustOK(s.do("POST", "/api/roles/bank/members", as(owner), RegisterRequest{ID: bank}))

	members := decode[MembersDTO](t, s.do("GET", "/api/roles/bank/members", nil, nil))
	assert.Equal(t, []generic.AccountID{bank}, members.Members)

	got := decode[AuthorizedDTO](t, s.do("GET", "/api/roles/bank/members/"+bank.String(), nil, nil))
	assert.True(t, got.Authorized)
	got = decode[AuthorizedDTO](t, s.do("GET", "/api/roles/company/members/"+bank.String(), nil, nil))
	assert.False(t, got.Authorized, "roles are independent sets")

	s.mustOK(s.do("DELETE", "/api/roles/bank/members/"+bank.String(), as(owner), nil))
	rec := s.do("DELETE", "/api/roles/bank/members/"+bank.String(), as(owner), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NotRegistered", decode[ErrorResponse](t, rec).Kind)
}

func TestRequests_ValidateTransportInput(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		caller *generic.AccountID
		body   any
	}{
		{"missing caller", "POST", "/api/roles/company/members", nil, RegisterRequest{ID: acme}},
		{"unknown role", "POST", "/api/roles/auditor/members", as(owner), RegisterRequest{ID: acme}},
		{"bad id", "GET", "/api/pensioners/0x1234", nil, nil},
		{"unknown field", "PUT", "/api/me/spouse", as(alice), map[string]string{"wife": dave.String()}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(tc.method, tc.path, tc.caller, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "InvalidInput", decode[ErrorResponse](t, rec).Kind)
		})
	}
}

// =============================================================================
// PAYOUT FLOW
// =============================================================================

func TestPayoutFlow(t *testing.T) {
	// GIVEN: alice with salary, insurance and tax configured
	s := newTestServer(t)
	s.setupPensioner()

	// WHEN: alice asks for an estimate
	rec := s.do("GET", "/api/me/payout", as(alice), nil)

	// THEN: 24000 base + 10000 insurance - 3400 tax
	require.Equal(t, http.StatusOK, rec.Code)
	estimate := decode[AmountDTO](t, rec)
	assert.Equal(t, generic.Amount(30600), estimate.Amount)
	assert.Equal(t, "306.00", estimate.AmountDisplay)

	// WHEN: alice initiates before eligibility
	rec = s.do("POST", "/api/me/payout", as(alice), nil)

	// THEN: rejected with the kind verbatim
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "NotYetEligibleForPayout", decode[ErrorResponse](t, rec).Kind)

	// WHEN: the owner opens the gate and alice initiates
	s.mustOK(s.do("PUT", "/api/pensioners/"+alice.String()+"/eligibility", as(owner), EligibilityRequest{Eligible: true}))
	rec = s.do("POST", "/api/me/payout", as(alice), nil)

	// THEN: the payout is fixed
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, generic.Amount(30600), decode[AmountDTO](t, rec).Amount)

	p := decode[PensionerDTO](t, s.do("GET", "/api/pensioners/"+alice.String(), nil, nil))
	assert.Equal(t, pension.StatePaying, p.State)
	require.NotNil(t, p.PayoutAmount)
	assert.Equal(t, generic.Amount(30600), *p.PayoutAmount)

	// AND: a second initiation is rejected
	rec = s.do("POST", "/api/me/payout", as(alice), nil)
	assert.Equal(t, "PayoutNotApplicable", decode[ErrorResponse](t, rec).Kind)
}

func TestInsurancesAndTax_Readback(t *testing.T) {
	s := newTestServer(t)
	s.setupPensioner()

	entries := decode[[]InsuranceDTO](t, s.do("GET", "/api/pensioners/"+alice.String()+"/insurances", nil, nil))
	require.Len(t, entries, 1)
	assert.Equal(t, bank, entries[0].Bank)
	assert.Equal(t, "100.00", entries[0].PayoutPerPeriodDisplay)

	tax := decode[*TaxConfigDTO](t, s.do("GET", "/api/pensioners/"+alice.String()+"/tax", nil, nil))
	require.NotNil(t, tax)
	assert.Equal(t, uint8(10), tax.RatePercentage)
	assert.Equal(t, "0.10", tax.RateFraction)

	none := decode[*TaxConfigDTO](t, s.do("GET", "/api/pensioners/"+dave.String()+"/tax", nil, nil))
	assert.Nil(t, none)
}

func TestApplyTaxRate_OverHundredIsInvalidInput(t *testing.T) {
	s := newTestServer(t)
	s.setupPensioner()

	rec := s.do("PUT", "/api/pensioners/"+alice.String()+"/tax", as(revenue), TaxRequest{RatePercentage: 101})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidInput", decode[ErrorResponse](t, rec).Kind)
}

func TestDeathFlow_SpouseBenefit(t *testing.T) {
	// GIVEN: alice with a designated spouse
	s := newTestServer(t)
	s.setupPensioner()
	s.mustOK(s.do("PUT", "/api/me/spouse", as(alice), SpouseRequest{Spouse: dave}))

	// WHEN: anyone reports alice's death
	rec := s.do("POST", "/api/pensioners/"+alice.String()+"/death", as(dave), nil)

	// THEN: 20% of the pre-death net 30600 goes to dave
	require.Equal(t, http.StatusOK, rec.Code)
	benefit := decode[OptionalAmountDTO](t, rec)
	require.NotNil(t, benefit.Amount)
	assert.Equal(t, generic.Amount(6120), *benefit.Amount)

	stored := decode[OptionalAmountDTO](t, s.do("GET", "/api/me/spouse-benefit", as(dave), nil))
	require.NotNil(t, stored.Amount)
	assert.Equal(t, generic.Amount(6120), *stored.Amount)

	// AND: a second report is rejected
	rec = s.do("POST", "/api/pensioners/"+alice.String()+"/death", as(dave), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "AlreadyDeceased", decode[ErrorResponse](t, rec).Kind)
}

func TestReportDeath_NoSpouseReturnsNull(t *testing.T) {
	s := newTestServer(t)
	s.setupPensioner()

	rec := s.do("POST", "/api/pensioners/"+alice.String()+"/death", as(owner), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"amount": null}`, rec.Body.String())
}

func TestGetPensioner_UnknownIs404(t *testing.T) {
	s := newTestServer(t)

	rec := s.do("GET", "/api/pensioners/"+alice.String(), nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PensionerNotFound", decode[ErrorResponse](t, rec).Kind)
}

// =============================================================================
// AUDIT AND METRICS
// =============================================================================

func TestAudit_RecordsAcceptedMutationsOnly(t *testing.T) {
	// GIVEN: a set-up pensioner and one rejected call
	s := newTestServer(t)
	s.setupPensioner()
	s.do("POST", "/api/me/payout", as(alice), nil) // NotYetEligibleForPayout

	// WHEN: the audit log is queried
	entries := decode[[]AuditEntryDTO](t, s.do("GET", "/api/audit", nil, nil))

	// THEN: six accepted mutations, in order, and nothing for the rejection
	actions := make([]generic.AuditAction, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
		assert.NotEmpty(t, e.ID)
	}
	assert.Equal(t, []generic.AuditAction{
		generic.AuditRoleRegistered,
		generic.AuditRoleRegistered,
		generic.AuditRoleRegistered,
		generic.AuditEmploymentUpdated,
		generic.AuditInsuranceAdded,
		generic.AuditTaxRateApplied,
	}, actions)

	// AND: filters narrow by target and action
	byTarget := decode[[]AuditEntryDTO](t, s.do("GET", "/api/audit?target="+alice.String()+"&action=tax_rate_applied", nil, nil))
	require.Len(t, byTarget, 1)
	assert.Equal(t, revenue, byTarget[0].Actor)
}

func TestMetrics_Endpoint(t *testing.T) {
	s := newTestServer(t)
	s.setupPensioner()

	rec := s.do("GET", "/metrics", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pension_operations_total{kind="ok",op="update_employment"} 1`)
}
