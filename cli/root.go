/*
Package cli implements pensionctl, the command line client of the pension API.

PURPOSE:
  One command per contract message. Each command sends its call to the
  server at --node-url as a caller identity, chosen per command with the
  role-specific flag (e.g. --company-id-as-caller) or globally with --as.

IDENTITIES:
  Any identity argument accepts the canonical "0x..." form or a plain name,
  which is mapped to the same identity the scenarios use
  (generic.DeriveAccountID). "pensionctl derive-id alice" prints it.

EXIT CODES:
  0  success
  1  the contract rejected the call (kind printed verbatim)
  2  command error: bad arguments, unreachable server

SEE ALSO:
  - client/client.go: HTTP client used by every command
  - cmd/pensionctl/main.go: Entry point
*/
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/pension-engine/client"
	"github.com/warp/pension-engine/generic"
)

// DefaultNodeURL is the server address used when --node-url is not given.
const DefaultNodeURL = "http://localhost:8080"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	NodeURL string
	Format  string // "json" | "text"
	As      string // default caller identity

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for pensionctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pensionctl",
		Short: "pensionctl - pension entitlement ledger client",
		Long:  "Send contract messages to a pension server and print the results.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.NodeURL, "node-url", DefaultNodeURL, "pension server URL")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "default caller identity (0x... or name)")

	// Owner commands
	for _, role := range roleCommands {
		cmd.AddCommand(newRegisterCommand(opts, role))
		cmd.AddCommand(newUnregisterCommand(opts, role))
	}
	cmd.AddCommand(newSetAgeEligibilityCommand(opts))

	// Role commands
	cmd.AddCommand(newUpdateEmploymentCommand(opts))
	cmd.AddCommand(newAddInsuranceCommand(opts))
	cmd.AddCommand(newSetTaxCommand(opts))

	// Pensioner commands
	cmd.AddCommand(newPayoutEstimateCommand(opts))
	cmd.AddCommand(newInitiatePensionCommand(opts))
	cmd.AddCommand(newDesignateSpouseCommand(opts))
	cmd.AddCommand(newSpouseBenefitCommand(opts))

	// General commands
	cmd.AddCommand(newPensionerDataCommand(opts))
	cmd.AddCommand(newReportDeathCommand(opts))
	cmd.AddCommand(newContractOwnerCommand(opts))
	cmd.AddCommand(newDeriveIDCommand(opts))
	cmd.AddCommand(newScenarioCommand(opts))
	cmd.AddCommand(newAuditCommand(opts))

	return cmd
}

// Execute runs pensionctl with args and returns the process exit code.
// Errors are reported on stdout in JSON mode and on stderr in text mode.
func Execute(args []string, stdout, stderr io.Writer) int {
	return execute(&RootOptions{}, args, stdout, stderr)
}

func execute(opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}
	out := &OutputFormatter{Format: opts.Format, Writer: stderr}
	if opts.Format == "json" {
		out.Writer = stdout
	}
	out.Error(err)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		// cobra argument and flag errors
		return ExitCommandError
	}
	return exitErr.Code
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseIdentity accepts "0x..." hex or a name.
func ParseIdentity(s string) (generic.AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return generic.AccountID{}, fmt.Errorf("empty identity")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return generic.ParseAccountID(s)
	}
	return generic.DeriveAccountID(s), nil
}

func identityArg(s, what string) (generic.AccountID, error) {
	id, err := ParseIdentity(s)
	if err != nil {
		return id, WrapExitError(ExitCommandError, "invalid "+what, err)
	}
	return id, nil
}

// caller resolves the caller identity from the command's own flag, falling
// back to --as.
func (o *RootOptions) caller(flagValue, flagName string) (generic.AccountID, error) {
	raw := flagValue
	if raw == "" {
		raw = o.As
	}
	if raw == "" {
		return generic.AccountID{}, NewExitError(ExitCommandError, "caller required: set --"+flagName+" or --as")
	}
	return identityArg(raw, "caller")
}

func (o *RootOptions) client(caller generic.AccountID) *client.Client {
	return client.New(o.NodeURL, caller, client.WithHTTPClient(o.HTTPClient))
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}
