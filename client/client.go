/*
Package client is a Go client for the pension HTTP API.

PURPOSE:
  Wraps the REST surface of package api in typed methods. Every call is
  made as a fixed caller identity, sent in the X-Caller-ID header.

ERRORS:
  A non-2xx response is decoded into *APIError. Its Unwrap returns the
  contract sentinel for the response kind, so callers can branch with
  errors.Is(err, pension.ErrUnauthorized) exactly as they would in-process.

USAGE:
  c := client.New("http://localhost:8080", alice)
  amount, err := c.FuturePayout(ctx)
  if errors.Is(err, pension.ErrPensionerNotFound) {
      ...
  }

SEE ALSO:
  - api/handlers.go: Endpoints
  - cli/: Command line built on this client
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/warp/pension-engine/api"
	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// DefaultTimeout bounds each request when no HTTP client is supplied.
const DefaultTimeout = 10 * time.Second

// Client calls the API as one caller.
type Client struct {
	baseURL string
	caller  generic.AccountID
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for baseURL acting as caller.
func New(baseURL string, caller generic.AccountID, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		caller:  caller,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// As returns a copy of the client acting as another caller.
func (c *Client) As(caller generic.AccountID) *Client {
	out := *c
	out.caller = caller
	return &out
}

// Caller returns the identity this client acts as.
func (c *Client) Caller() generic.AccountID { return c.caller }

// =============================================================================
// ERRORS
// =============================================================================

// APIError is a failed response.
type APIError struct {
	Status  int
	Kind    pension.ErrorKind
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("%s (%d %s)", e.Kind, e.Status, e.Message)
}

// Unwrap returns the contract sentinel for Kind, if any.
func (e *APIError) Unwrap() error {
	if err, ok := pension.ErrorForKind(e.Kind); ok {
		return err
	}
	return nil
}

// =============================================================================
// CONTRACT AND ROLES
// =============================================================================

// Owner returns the contract owner.
func (c *Client) Owner(ctx context.Context) (generic.AccountID, error) {
	var out api.ContractDTO
	err := c.do(ctx, http.MethodGet, "/api/contract", nil, &out)
	return out.Owner, err
}

// Register adds id to role. Owner only.
func (c *Client) Register(ctx context.Context, role pension.Role, id generic.AccountID) error {
	return c.do(ctx, http.MethodPost, rolePath(role), api.RegisterRequest{ID: id}, nil)
}

// Unregister removes id from role. Owner only.
func (c *Client) Unregister(ctx context.Context, role pension.Role, id generic.AccountID) error {
	return c.do(ctx, http.MethodDelete, rolePath(role)+"/"+id.String(), nil, nil)
}

// IsAuthorized reports whether id holds role.
func (c *Client) IsAuthorized(ctx context.Context, role pension.Role, id generic.AccountID) (bool, error) {
	var out api.AuthorizedDTO
	err := c.do(ctx, http.MethodGet, rolePath(role)+"/"+id.String(), nil, &out)
	return out.Authorized, err
}

// Members lists role's set.
func (c *Client) Members(ctx context.Context, role pension.Role) ([]generic.AccountID, error) {
	var out api.MembersDTO
	err := c.do(ctx, http.MethodGet, rolePath(role), nil, &out)
	return out.Members, err
}

// =============================================================================
// PENSIONERS
// =============================================================================

// Pensioner returns a record, or nil if none exists.
func (c *Client) Pensioner(ctx context.Context, id generic.AccountID) (*api.PensionerDTO, error) {
	var out api.PensionerDTO
	err := c.do(ctx, http.MethodGet, pensionerPath(id, ""), nil, &out)
	if pension.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Pensioners lists every identity with a record.
func (c *Client) Pensioners(ctx context.Context) ([]generic.AccountID, error) {
	var out api.PensionersDTO
	err := c.do(ctx, http.MethodGet, "/api/pensioners", nil, &out)
	return out.Pensioners, err
}

// UpdateEmployment creates or updates a record. Company only.
func (c *Client) UpdateEmployment(ctx context.Context, id generic.AccountID, years uint32, salary generic.Amount, status pension.EmploymentStatus) error {
	req := api.EmploymentRequest{YearsWorked: years, CurrentSalary: salary, Status: status}
	return c.do(ctx, http.MethodPut, pensionerPath(id, "/employment"), req, nil)
}

// AddInsurance appends an insurance entry. Bank only.
func (c *Client) AddInsurance(ctx context.Context, id generic.AccountID, payoutPerPeriod generic.Amount, details string) error {
	req := api.InsuranceRequest{PayoutPerPeriod: payoutPerPeriod, Details: details}
	return c.do(ctx, http.MethodPost, pensionerPath(id, "/insurances"), req, nil)
}

// Insurances lists a pensioner's insurance entries.
func (c *Client) Insurances(ctx context.Context, id generic.AccountID) ([]api.InsuranceDTO, error) {
	var out []api.InsuranceDTO
	err := c.do(ctx, http.MethodGet, pensionerPath(id, "/insurances"), nil, &out)
	return out, err
}

// ApplyTaxRate sets a pensioner's tax rate. Tax office only.
func (c *Client) ApplyTaxRate(ctx context.Context, id generic.AccountID, rate uint8) error {
	return c.do(ctx, http.MethodPut, pensionerPath(id, "/tax"), api.TaxRequest{RatePercentage: rate}, nil)
}

// TaxConfig returns a pensioner's tax config, or nil.
func (c *Client) TaxConfig(ctx context.Context, id generic.AccountID) (*api.TaxConfigDTO, error) {
	var out *api.TaxConfigDTO
	err := c.do(ctx, http.MethodGet, pensionerPath(id, "/tax"), nil, &out)
	return out, err
}

// SetAgeEligibility opens or closes the payout gate. Owner only.
func (c *Client) SetAgeEligibility(ctx context.Context, id generic.AccountID, eligible bool) error {
	return c.do(ctx, http.MethodPut, pensionerPath(id, "/eligibility"), api.EligibilityRequest{Eligible: eligible}, nil)
}

// ReportDeath marks a pensioner deceased and returns the spouse benefit, if any.
func (c *Client) ReportDeath(ctx context.Context, id generic.AccountID) (*generic.Amount, error) {
	var out api.OptionalAmountDTO
	err := c.do(ctx, http.MethodPost, pensionerPath(id, "/death"), nil, &out)
	return out.Amount, err
}

// =============================================================================
// CALLER AS PENSIONER
// =============================================================================

// FuturePayout returns the caller's payout estimate.
func (c *Client) FuturePayout(ctx context.Context) (generic.Amount, error) {
	var out api.AmountDTO
	err := c.do(ctx, http.MethodGet, "/api/me/payout", nil, &out)
	return out.Amount, err
}

// InitiatePayout starts the caller's pension.
func (c *Client) InitiatePayout(ctx context.Context) (generic.Amount, error) {
	var out api.AmountDTO
	err := c.do(ctx, http.MethodPost, "/api/me/payout", nil, &out)
	return out.Amount, err
}

// DesignateSpouse sets the caller's spouse beneficiary.
func (c *Client) DesignateSpouse(ctx context.Context, spouse generic.AccountID) error {
	return c.do(ctx, http.MethodPut, "/api/me/spouse", api.SpouseRequest{Spouse: spouse}, nil)
}

// SpouseBenefit returns the benefit stored for the caller, or nil.
func (c *Client) SpouseBenefit(ctx context.Context) (*generic.Amount, error) {
	var out api.OptionalAmountDTO
	err := c.do(ctx, http.MethodGet, "/api/me/spouse-benefit", nil, &out)
	return out.Amount, err
}

// =============================================================================
// AUDIT AND SCENARIOS
// =============================================================================

// Audit returns audit entries about target (zero for all), oldest first.
func (c *Client) Audit(ctx context.Context, target generic.AccountID, limit int) ([]api.AuditEntryDTO, error) {
	q := url.Values{}
	if !target.IsZero() {
		q.Set("target", target.String())
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	path := "/api/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []api.AuditEntryDTO
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Scenarios lists the built-in scenarios.
func (c *Client) Scenarios(ctx context.Context) ([]api.ScenarioDTO, error) {
	var out []api.ScenarioDTO
	err := c.do(ctx, http.MethodGet, "/api/scenarios", nil, &out)
	return out, err
}

// RunScenario runs a built-in scenario on the server.
func (c *Client) RunScenario(ctx context.Context, id string) (*api.ScenarioRunDTO, error) {
	var out api.ScenarioRunDTO
	if err := c.do(ctx, http.MethodPost, "/api/scenarios/"+url.PathEscape(id)+"/run", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func rolePath(role pension.Role) string {
	return "/api/roles/" + url.PathEscape(string(role)) + "/members"
}

func pensionerPath(id generic.AccountID, suffix string) string {
	return "/api/pensioners/" + id.String() + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(api.CallerHeader, c.caller.String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Kind: pension.KindInternal, Message: http.StatusText(resp.StatusCode)}
		var er api.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Kind != "" {
			apiErr.Kind = pension.ErrorKind(er.Kind)
			apiErr.Message = er.Error
			apiErr.Details = er.Details
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
