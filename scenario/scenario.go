/*
Package scenario runs scripted sequences of contract calls and renders a
deterministic trace of their outcomes.

PURPOSE:
  A scenario is a YAML file naming actors by human-readable name, a list of
  steps (caller, operation, arguments), and the expected outcome of each.
  Scenarios run against a fresh in-memory contract, never against a live
  store, so they are safe to expose over the API for demos.

FILE FORMAT:
  id: basic-payout
  name: Basic Payout
  description: Salary, insurance and tax combine into one net payout
  category: payout
  owner: owner
  steps:
    - as: owner
      op: register_company
      target: acme
    - as: acme
      op: update_employment
      target: alice
      years: 20
      salary: 60000
    - as: alice
      op: get_future_payout
      expect: {amount: 30600}

ACTORS:
  Every name maps to generic.DeriveAccountID(name), so "alice" is the same
  identity in every scenario and in the CLI's derive-id command.

EXPECTATIONS:
  expect.kind is the verbatim error kind ("ok" for success, the default).
  expect.amount / expect.none / expect.state check the returned value.
  A mismatch is recorded in the trace; it does not stop the run.

SEE ALSO:
  - runner.go: Executes a scenario
  - builtin.go: Embedded scenarios
*/
package scenario

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/pension-engine/pension"
)

// Scenario is a scripted run against a fresh contract.
type Scenario struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`

	// Owner names the actor that initializes the contract.
	Owner string `yaml:"owner" json:"owner"`

	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one contract call. Only the fields the operation needs are read.
type Step struct {
	As     string `yaml:"as" json:"as"`
	Op     string `yaml:"op" json:"op"`
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// update_employment
	Years  uint32 `yaml:"years,omitempty" json:"years,omitempty"`
	Salary uint64 `yaml:"salary,omitempty" json:"salary,omitempty"`
	Status string `yaml:"status,omitempty" json:"status,omitempty"`

	// add_insurance
	Amount  uint64 `yaml:"amount,omitempty" json:"amount,omitempty"`
	Details string `yaml:"details,omitempty" json:"details,omitempty"`

	// apply_tax_rate; int so out-of-range rates reach the contract's check
	Rate int `yaml:"rate,omitempty" json:"rate,omitempty"`

	// set_age_eligibility, defaults to true
	Eligible *bool `yaml:"eligible,omitempty" json:"eligible,omitempty"`

	Expect *Expect `yaml:"expect,omitempty" json:"expect,omitempty"`
}

// Expect is the outcome a step must produce.
type Expect struct {
	Kind   string  `yaml:"kind,omitempty" json:"kind,omitempty"`
	Amount *uint64 `yaml:"amount,omitempty" json:"amount,omitempty"`
	None   bool    `yaml:"none,omitempty" json:"none,omitempty"`
	State  string  `yaml:"state,omitempty" json:"state,omitempty"`
}

// Operations a step may name. Mutations reuse the contract's op names.
const (
	OpGetPensioner     = "get_pensioner"
	OpGetSpouseBenefit = "get_spouse_benefit"
)

// needsTarget lists the operations that act on a named target.
var needsTarget = map[string]bool{
	pension.OpRegisterCompany:     true,
	pension.OpUnregisterCompany:   true,
	pension.OpRegisterBank:        true,
	pension.OpUnregisterBank:      true,
	pension.OpRegisterTaxOffice:   true,
	pension.OpUnregisterTaxOffice: true,
	pension.OpUpdateEmployment:    true,
	pension.OpAddInsurance:        true,
	pension.OpApplyTaxRate:        true,
	pension.OpSetAgeEligibility:   true,
	pension.OpDesignateSpouse:     true,
	pension.OpReportDeath:         true,
	OpGetPensioner:                true,
	pension.OpInitiatePayout:      false,
	pension.OpFuturePayout:        false,
	OpGetSpouseBenefit:            false,
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a scenario, rejecting unknown fields, and validates it.
func Parse(r io.Reader) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", sc.ID, err)
	}
	return &sc, nil
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(data []byte) (*Scenario, error) {
	return Parse(bytes.NewReader(data))
}

// Validate checks required fields and per-step arguments.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if step.As == "" {
			return fmt.Errorf("steps[%d]: as is required", i)
		}
		target, known := needsTarget[step.Op]
		if !known {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if target && step.Target == "" {
			return fmt.Errorf("steps[%d]: %s requires a target", i, step.Op)
		}
		if step.Status != "" {
			if _, err := pension.ParseEmploymentStatus(step.Status); err != nil {
				return fmt.Errorf("steps[%d]: %w", i, err)
			}
		}
		if step.Rate < 0 {
			return fmt.Errorf("steps[%d]: rate must be non-negative", i)
		}
		if e := step.Expect; e != nil && e.Kind != "" && e.Kind != KindOK {
			if _, ok := pension.ErrorForKind(pension.ErrorKind(e.Kind)); !ok {
				return fmt.Errorf("steps[%d]: unknown expected kind %q", i, e.Kind)
			}
		}
	}
	return nil
}
