package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/pension-engine/generic"
)

// =============================================================================
// GENERAL COMMANDS
// =============================================================================

func newPensionerDataCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get-pensioner-data <pensioner-id>",
		Short: "Show a pensioner's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pensioner, err := identityArg(args[0], "pensioner id")
			if err != nil {
				return err
			}
			rec, err := opts.client(pensioner).Pensioner(cmd.Context(), pensioner)
			if err != nil {
				return callError("get-pensioner-data", err)
			}
			if rec == nil {
				return opts.output(cmd).Success("No record for "+pensioner.String(), nil)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Pensioner:        %s\n", rec.ID)
			fmt.Fprintf(&b, "State:            %s\n", rec.State)
			fmt.Fprintf(&b, "Years worked:     %d\n", rec.YearsWorked)
			fmt.Fprintf(&b, "Current salary:   %s\n", rec.CurrentSalary)
			fmt.Fprintf(&b, "Status:           %s\n", rec.EmploymentStatus)
			fmt.Fprintf(&b, "Deceased:         %t\n", rec.IsDeceased)
			fmt.Fprintf(&b, "Receiving:        %t\n", rec.IsReceivingPension)
			fmt.Fprintf(&b, "Age eligible:     %t\n", rec.IsEligibleForPayoutAgeWise)
			fmt.Fprintf(&b, "Payout amount:    %s\n", optionalAmount(rec.PayoutAmount))
			spouse := "none"
			if rec.SpouseBeneficiary != nil {
				spouse = rec.SpouseBeneficiary.String()
			}
			fmt.Fprintf(&b, "Spouse:           %s", spouse)
			return opts.output(cmd).Success(b.String(), rec)
		},
	}
}

func newReportDeathCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "report-death <deceased-id>",
		Short: "Report a pensioner's death (any caller)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "caller-id")
			if err != nil {
				return err
			}
			deceased, err := identityArg(args[0], "deceased id")
			if err != nil {
				return err
			}
			benefit, err := opts.client(caller).ReportDeath(cmd.Context(), deceased)
			if err != nil {
				return callError("report-death", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Death of %s recorded, spouse benefit: %s", deceased, optionalAmount(benefit)),
				map[string]any{"deceased": deceased, "benefit": benefit},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "caller-id", "", "identity reporting the death")
	return cmd
}

func newContractOwnerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get-contract-owner",
		Short: "Show the contract owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := opts.client(generic.AccountID{}).Owner(cmd.Context())
			if err != nil {
				return callError("get-contract-owner", err)
			}
			return opts.output(cmd).Success("Contract owner: "+owner.String(), map[string]any{"owner": owner})
		},
	}
}

func newDeriveIDCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "derive-id <name>",
		Short: "Print the identity a plain name maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := generic.DeriveAccountID(args[0])
			return opts.output(cmd).Success(id.String(), map[string]any{"name": args[0], "id": id})
		},
	}
}

func newAuditCommand(opts *RootOptions) *cobra.Command {
	var (
		target string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List audit log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var targetID generic.AccountID
			if target != "" {
				id, err := identityArg(target, "target")
				if err != nil {
					return err
				}
				targetID = id
			}
			entries, err := opts.client(generic.AccountID{}).Audit(cmd.Context(), targetID, limit)
			if err != nil {
				return callError("audit", err)
			}

			var b strings.Builder
			for i, e := range entries {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%s  %-24s %s", e.Timestamp, e.Action, e.Actor)
				if e.Target != nil {
					fmt.Fprintf(&b, " -> %s", e.Target)
				}
			}
			if len(entries) == 0 {
				b.WriteString("No audit entries")
			}
			return opts.output(cmd).Success(b.String(), entries)
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "only entries about this identity")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entries (0 for all)")
	return cmd
}

// =============================================================================
// SCENARIOS
// =============================================================================

func newScenarioCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "List and run built-in scenarios on the server",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.client(generic.AccountID{}).Scenarios(cmd.Context())
			if err != nil {
				return callError("scenario list", err)
			}
			var b strings.Builder
			for i, sc := range list {
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%-20s %-12s %s", sc.ID, sc.Category, sc.Name)
			}
			return opts.output(cmd).Success(b.String(), list)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "run <id>",
		Short: "Run a built-in scenario and print its trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, err := opts.client(generic.AccountID{}).RunScenario(cmd.Context(), args[0])
			if err != nil {
				return callError("scenario run", err)
			}
			if err := opts.output(cmd).Success(strings.TrimRight(run.Trace, "\n"), run); err != nil {
				return err
			}
			if !run.Passed {
				return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed with %d mismatches", run.ScenarioID, run.Mismatches))
			}
			return nil
		},
	})
	return cmd
}
