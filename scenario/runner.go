package scenario

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/memory"
)

// KindOK is the outcome name of a successful step.
const KindOK = "ok"

// Event is the outcome of one step.
type Event struct {
	Seq    int    `json:"seq"`
	Actor  string `json:"actor"`
	Op     string `json:"op"`
	Target string `json:"target,omitempty"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`

	// Mismatch describes a failed expectation, empty when the step matched.
	Mismatch string `json:"mismatch,omitempty"`
}

// Result is the trace of a run.
type Result struct {
	ScenarioID string  `json:"scenario_id"`
	Events     []Event `json:"events"`
	Mismatches int     `json:"mismatches"`
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return r.Mismatches == 0 }

// String renders the trace. The output is deterministic for a given
// scenario, so it is compared byte-for-byte against golden files.
func (r *Result) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.ScenarioID)
	for _, e := range r.Events {
		fmt.Fprintf(&b, "%02d %s %s", e.Seq, e.Actor, e.Op)
		if e.Target != "" {
			fmt.Fprintf(&b, " %s", e.Target)
		}
		fmt.Fprintf(&b, ": %s", e.Kind)
		if e.Detail != "" {
			fmt.Fprintf(&b, " %s", e.Detail)
		}
		b.WriteString("\n")
		if e.Mismatch != "" {
			fmt.Fprintf(&b, "   !! %s\n", e.Mismatch)
		}
	}
	if r.Passed() {
		b.WriteString("result: pass\n")
	} else {
		fmt.Fprintf(&b, "result: fail (%d mismatches)\n", r.Mismatches)
	}
	return b.String()
}

// =============================================================================
// RUNNER
// =============================================================================

// Run executes sc against a fresh in-memory contract. Domain rejections are
// outcomes, not errors; Run fails only on infrastructure errors.
func Run(ctx context.Context, sc *Scenario, opts ...pension.Option) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	contract, err := pension.New(ctx, memory.New(), generic.DeriveAccountID(sc.Owner), opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize contract: %w", err)
	}

	res := &Result{ScenarioID: sc.ID}
	for i, step := range sc.Steps {
		out, err := execute(ctx, contract, step)
		kind := pension.KindOf(err)
		if kind == pension.KindInternal {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}

		ev := Event{
			Seq:    i + 1,
			Actor:  step.As,
			Op:     step.Op,
			Target: step.Target,
			Kind:   KindOK,
			Detail: out.detail(),
		}
		if err != nil {
			ev.Kind = string(kind)
			ev.Detail = ""
		}
		if msg := check(step.Expect, ev.Kind, out); msg != "" {
			ev.Mismatch = msg
			res.Mismatches++
		}
		res.Events = append(res.Events, ev)
	}
	return res, nil
}

// output is what a step returned, beyond its error.
type output struct {
	amount    *generic.Amount
	optional  bool // amount is an Option: nil renders "none"
	state     pension.State
	detailKey string
}

func (o output) detail() string {
	var parts []string
	if o.state != "" {
		parts = append(parts, "state="+string(o.state))
	}
	switch {
	case o.amount != nil:
		parts = append(parts, o.detailKey+"="+o.amount.String())
	case o.optional:
		parts = append(parts, o.detailKey+"=none")
	}
	return strings.Join(parts, " ")
}

func execute(ctx context.Context, c *pension.Contract, step Step) (output, error) {
	caller := generic.DeriveAccountID(step.As)
	target := generic.DeriveAccountID(step.Target)

	switch step.Op {
	case pension.OpRegisterCompany:
		return output{}, c.RegisterCompany(ctx, caller, target)
	case pension.OpUnregisterCompany:
		return output{}, c.UnregisterCompany(ctx, caller, target)
	case pension.OpRegisterBank:
		return output{}, c.RegisterBank(ctx, caller, target)
	case pension.OpUnregisterBank:
		return output{}, c.UnregisterBank(ctx, caller, target)
	case pension.OpRegisterTaxOffice:
		return output{}, c.RegisterTaxOffice(ctx, caller, target)
	case pension.OpUnregisterTaxOffice:
		return output{}, c.UnregisterTaxOffice(ctx, caller, target)

	case pension.OpUpdateEmployment:
		status := pension.StatusActive
		if step.Status != "" {
			status = pension.EmploymentStatus(step.Status)
		}
		return output{}, c.UpdateEmployment(ctx, caller, target, step.Years, generic.Amount(step.Salary), status)

	case pension.OpAddInsurance:
		return output{}, c.AddInsurance(ctx, caller, target, generic.Amount(step.Amount), step.Details)

	case pension.OpApplyTaxRate:
		if step.Rate > math.MaxUint8 {
			return output{}, fmt.Errorf("%w: tax rate %d out of range", pension.ErrInvalidInput, step.Rate)
		}
		return output{}, c.ApplyTaxRate(ctx, caller, target, uint8(step.Rate))

	case pension.OpSetAgeEligibility:
		eligible := step.Eligible == nil || *step.Eligible
		return output{}, c.SetAgeEligibility(ctx, caller, target, eligible)

	case pension.OpInitiatePayout:
		amount, err := c.InitiatePayout(ctx, caller)
		return output{amount: &amount, detailKey: "amount"}, err

	case pension.OpDesignateSpouse:
		return output{}, c.DesignateSpouse(ctx, caller, target)

	case pension.OpReportDeath:
		benefit, err := c.ReportDeath(ctx, caller, target)
		return output{amount: benefit, optional: true, detailKey: "benefit"}, err

	case pension.OpFuturePayout:
		amount, err := c.FuturePayout(ctx, caller)
		return output{amount: &amount, detailKey: "amount"}, err

	case OpGetSpouseBenefit:
		benefit, err := c.SpouseBenefit(ctx, caller)
		return output{amount: benefit, optional: true, detailKey: "amount"}, err

	case OpGetPensioner:
		rec, err := c.Pensioner(ctx, target)
		if err != nil || rec == nil {
			return output{state: pension.StateUnknown}, err
		}
		return output{state: rec.State(), amount: rec.PayoutAmount, optional: true, detailKey: "payout"}, nil
	}
	return output{}, fmt.Errorf("unknown op %q", step.Op)
}

// check compares a step's outcome with its expectation and returns a
// description of the first difference.
func check(want *Expect, kind string, out output) string {
	if want == nil {
		return ""
	}
	wantKind := want.Kind
	if wantKind == "" {
		wantKind = KindOK
	}
	if kind != wantKind {
		return fmt.Sprintf("expected %s, got %s", wantKind, kind)
	}
	if kind != KindOK {
		return ""
	}
	if want.Amount != nil {
		if out.amount == nil {
			return fmt.Sprintf("expected %s=%d, got none", out.detailKey, *want.Amount)
		}
		if uint64(*out.amount) != *want.Amount {
			return fmt.Sprintf("expected %s=%d, got %s", out.detailKey, *want.Amount, out.amount)
		}
	}
	if want.None && out.amount != nil {
		return fmt.Sprintf("expected %s=none, got %s", out.detailKey, out.amount)
	}
	if want.State != "" && string(out.state) != want.State {
		return fmt.Sprintf("expected state=%s, got %s", want.State, out.state)
	}
	return ""
}
