package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// roleCommand names the register/unregister pair of one role.
type roleCommand struct {
	role pension.Role
	noun string // command suffix, e.g. "tax-office"
}

var roleCommands = []roleCommand{
	{pension.RoleCompany, "company"},
	{pension.RoleBank, "bank"},
	{pension.RoleTaxOffice, "tax-office"},
}

// =============================================================================
// OWNER COMMANDS
// =============================================================================

func newRegisterCommand(opts *RootOptions, rc roleCommand) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "register-" + rc.noun + " <id>",
		Short: "Owner: register a " + strings.ReplaceAll(rc.noun, "-", " "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "owner-id-as-caller")
			if err != nil {
				return err
			}
			id, err := identityArg(args[0], rc.noun+" id")
			if err != nil {
				return err
			}
			if err := opts.client(caller).Register(cmd.Context(), rc.role, id); err != nil {
				return callError("register-"+rc.noun, err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Registered %s %s", rc.role, id),
				map[string]any{"role": rc.role, "id": id},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "owner-id-as-caller", "", "owner identity making the call")
	return cmd
}

func newUnregisterCommand(opts *RootOptions, rc roleCommand) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "unregister-" + rc.noun + " <id>",
		Short: "Owner: unregister a " + strings.ReplaceAll(rc.noun, "-", " "),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "owner-id-as-caller")
			if err != nil {
				return err
			}
			id, err := identityArg(args[0], rc.noun+" id")
			if err != nil {
				return err
			}
			if err := opts.client(caller).Unregister(cmd.Context(), rc.role, id); err != nil {
				return callError("unregister-"+rc.noun, err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Unregistered %s %s", rc.role, id),
				map[string]any{"role": rc.role, "id": id},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "owner-id-as-caller", "", "owner identity making the call")
	return cmd
}

func newSetAgeEligibilityCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "set-age-eligibility <pensioner-id> <true|false>",
		Short: "Owner: open or close a pensioner's payout gate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "owner-id-as-caller")
			if err != nil {
				return err
			}
			pensioner, err := identityArg(args[0], "pensioner id")
			if err != nil {
				return err
			}
			eligible, err := strconv.ParseBool(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid eligibility flag", err)
			}
			if err := opts.client(caller).SetAgeEligibility(cmd.Context(), pensioner, eligible); err != nil {
				return callError("set-age-eligibility", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Age eligibility of %s set to %t", pensioner, eligible),
				map[string]any{"pensioner": pensioner, "eligible": eligible},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "owner-id-as-caller", "", "owner identity making the call")
	return cmd
}

// =============================================================================
// ROLE COMMANDS
// =============================================================================

func newUpdateEmploymentCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "update-employment <pensioner-id> <years> <salary> <status>",
		Short: "Company: update a pensioner's employment details",
		Long: `Company: update a pensioner's employment details.

Creates the pensioner record on first use. Status is one of
Active, LongTermPause, LaidOff.

Example:
  pensionctl update-employment --company-id-as-caller acme alice 20 60000 Active`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "company-id-as-caller")
			if err != nil {
				return err
			}
			pensioner, err := identityArg(args[0], "pensioner id")
			if err != nil {
				return err
			}
			years, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid years", err)
			}
			salary, err := generic.ParseAmount(args[2])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid salary", err)
			}
			status, err := pension.ParseEmploymentStatus(args[3])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid status", err)
			}
			c := opts.client(caller)
			if err := c.UpdateEmployment(cmd.Context(), pensioner, uint32(years), salary, status); err != nil {
				return callError("update-employment", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Employment of %s updated: %d years, salary %s, %s", pensioner, years, salary, status),
				map[string]any{"pensioner": pensioner, "years_worked": years, "current_salary": salary, "status": status},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "company-id-as-caller", "", "authorized company making the call")
	return cmd
}

func newAddInsuranceCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "add-insurance <pensioner-id> <amount> <details>",
		Short: "Bank: add an insurance payout for a pensioner",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "bank-id-as-caller")
			if err != nil {
				return err
			}
			pensioner, err := identityArg(args[0], "pensioner id")
			if err != nil {
				return err
			}
			amount, err := generic.ParseAmount(args[1])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid amount", err)
			}
			if err := opts.client(caller).AddInsurance(cmd.Context(), pensioner, amount, args[2]); err != nil {
				return callError("add-insurance", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Insurance of %s added for %s", amount, pensioner),
				map[string]any{"pensioner": pensioner, "payout_per_period": amount, "details": args[2]},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "bank-id-as-caller", "", "authorized bank making the call")
	return cmd
}

func newSetTaxCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "set-tax <pensioner-id> <rate>",
		Short: "Tax office: set a pensioner's tax rate (0-100)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "office-id-as-caller")
			if err != nil {
				return err
			}
			pensioner, err := identityArg(args[0], "pensioner id")
			if err != nil {
				return err
			}
			rate, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid rate", err)
			}
			if err := opts.client(caller).ApplyTaxRate(cmd.Context(), pensioner, uint8(rate)); err != nil {
				return callError("set-tax", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Tax rate of %s set to %d%%", pensioner, rate),
				map[string]any{"pensioner": pensioner, "rate_percentage": rate},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "office-id-as-caller", "", "authorized tax office making the call")
	return cmd
}

// =============================================================================
// PENSIONER COMMANDS
// =============================================================================

func newPayoutEstimateCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "get-my-payout-estimate",
		Short: "Pensioner: estimate your payout per period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "pensioner-id-as-caller")
			if err != nil {
				return err
			}
			amount, err := opts.client(caller).FuturePayout(cmd.Context())
			if err != nil {
				return callError("get-my-payout-estimate", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Estimated payout: %s", amount),
				map[string]any{"amount": amount},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "pensioner-id-as-caller", "", "pensioner making the query")
	return cmd
}

func newInitiatePensionCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "initiate-my-pension",
		Short: "Pensioner: start your pension payout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "pensioner-id-as-caller")
			if err != nil {
				return err
			}
			amount, err := opts.client(caller).InitiatePayout(cmd.Context())
			if err != nil {
				return callError("initiate-my-pension", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Pension initiated: %s per period", amount),
				map[string]any{"amount": amount},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "pensioner-id-as-caller", "", "pensioner making the call")
	return cmd
}

func newDesignateSpouseCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "designate-spouse <spouse-id>",
		Short: "Pensioner: designate your spouse beneficiary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "pensioner-id-as-caller")
			if err != nil {
				return err
			}
			spouse, err := identityArg(args[0], "spouse id")
			if err != nil {
				return err
			}
			if err := opts.client(caller).DesignateSpouse(cmd.Context(), spouse); err != nil {
				return callError("designate-spouse", err)
			}
			return opts.output(cmd).Success(
				fmt.Sprintf("Spouse beneficiary set to %s", spouse),
				map[string]any{"spouse": spouse},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "pensioner-id-as-caller", "", "pensioner making the call")
	return cmd
}

func newSpouseBenefitCommand(opts *RootOptions) *cobra.Command {
	var callerFlag string
	cmd := &cobra.Command{
		Use:   "get-my-spouse-benefit",
		Short: "Spouse: show the death benefit owed to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller(callerFlag, "spouse-id-as-caller")
			if err != nil {
				return err
			}
			benefit, err := opts.client(caller).SpouseBenefit(cmd.Context())
			if err != nil {
				return callError("get-my-spouse-benefit", err)
			}
			return opts.output(cmd).Success(
				"Spouse benefit: "+optionalAmount(benefit),
				map[string]any{"amount": benefit},
			)
		},
	}
	cmd.Flags().StringVar(&callerFlag, "spouse-id-as-caller", "", "spouse beneficiary making the query")
	return cmd
}

func optionalAmount(a *generic.Amount) string {
	if a == nil {
		return "none"
	}
	return a.String()
}
