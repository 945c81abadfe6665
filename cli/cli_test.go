package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/api"
	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/memory"
)

type cliRun struct {
	code   int
	stdout string
	stderr string
}

// newTestNode starts a server whose owner is the identity named "owner".
func newTestNode(t *testing.T) string {
	t.Helper()
	contract, err := pension.New(context.Background(), memory.New(), generic.DeriveAccountID("owner"))
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(contract, nil, nil, nil)))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, node string, args ...string) cliRun {
	t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--node-url", node}, args...)
	code := execute(&RootOptions{}, full, &stdout, &stderr)
	return cliRun{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func mustRun(t *testing.T, node string, args ...string) cliRun {
	t.Helper()
	r := run(t, node, args...)
	require.Equal(t, ExitSuccess, r.code, "args=%v stdout=%s stderr=%s", args, r.stdout, r.stderr)
	return r
}

func TestCLI_PayoutFlow(t *testing.T) {
	// GIVEN: a registered company and an eligible pensioner
	node := newTestNode(t)
	mustRun(t, node, "register-company", "--owner-id-as-caller", "owner", "acme")
	mustRun(t, node, "update-employment", "--company-id-as-caller", "acme", "alice", "20", "60000", "Active")
	mustRun(t, node, "register-bank", "--owner-id-as-caller", "owner", "firstbank")
	mustRun(t, node, "add-insurance", "--bank-id-as-caller", "firstbank", "alice", "10000", "life policy")
	mustRun(t, node, "register-tax-office", "--owner-id-as-caller", "owner", "irs")
	mustRun(t, node, "set-tax", "--office-id-as-caller", "irs", "alice", "10")
	mustRun(t, node, "set-age-eligibility", "--as", "owner", "alice", "true")

	// WHEN: alice estimates and then initiates
	estimate := mustRun(t, node, "get-my-payout-estimate", "--pensioner-id-as-caller", "alice")
	initiated := mustRun(t, node, "initiate-my-pension", "--pensioner-id-as-caller", "alice")

	// THEN: both report the fixed net payout
	assert.Equal(t, "Estimated payout: 30600\n", estimate.stdout)
	assert.Equal(t, "Pension initiated: 30600 per period\n", initiated.stdout)

	data := mustRun(t, node, "get-pensioner-data", "alice")
	assert.Contains(t, data.stdout, "State:            Paying")
	assert.Contains(t, data.stdout, "Payout amount:    30600")
}

func TestCLI_DeathFlow(t *testing.T) {
	node := newTestNode(t)
	mustRun(t, node, "register-company", "--as", "owner", "acme")
	mustRun(t, node, "update-employment", "--as", "acme", "alice", "20", "60000", "Active")
	mustRun(t, node, "register-bank", "--as", "owner", "firstbank")
	mustRun(t, node, "add-insurance", "--as", "firstbank", "alice", "10000", "life")
	mustRun(t, node, "register-tax-office", "--as", "owner", "irs")
	mustRun(t, node, "set-tax", "--as", "irs", "alice", "10")
	mustRun(t, node, "designate-spouse", "--pensioner-id-as-caller", "alice", "sam")

	r := mustRun(t, node, "--format", "json", "report-death", "--caller-id", "acme", "alice")

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Benefit *uint64 `json:"benefit"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data.Benefit)
	assert.Equal(t, uint64(6120), *resp.Data.Benefit)

	benefit := mustRun(t, node, "get-my-spouse-benefit", "--spouse-id-as-caller", "sam")
	assert.Equal(t, "Spouse benefit: 6120\n", benefit.stdout)
}

func TestCLI_ContractRejectionExitsOne(t *testing.T) {
	// GIVEN: acme is not a registered company
	node := newTestNode(t)

	// WHEN: acme updates employment
	r := run(t, node, "update-employment", "--company-id-as-caller", "acme", "alice", "20", "60000", "Active")

	// THEN: exit 1 with the contract kind
	assert.Equal(t, ExitFailure, r.code)
	assert.Contains(t, r.stderr, "Error [Unauthorized]")
	assert.Empty(t, r.stdout)
}

func TestCLI_JSONErrorOnStdout(t *testing.T) {
	node := newTestNode(t)

	r := run(t, node, "--format", "json", "initiate-my-pension", "--as", "nobody")

	assert.Equal(t, ExitFailure, r.code)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(pension.KindPensionerNotFound), resp.Error.Kind)
}

func TestCLI_CommandErrors(t *testing.T) {
	node := newTestNode(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing caller", []string{"get-my-payout-estimate"}},
		{"wrong arg count", []string{"set-tax", "--as", "irs", "alice"}},
		{"bad rate", []string{"set-tax", "--as", "irs", "alice", "300"}},
		{"bad status", []string{"update-employment", "--as", "acme", "alice", "1", "1", "Retired"}},
		{"bad bool", []string{"set-age-eligibility", "--as", "owner", "alice", "maybe"}},
		{"bad hex identity", []string{"get-pensioner-data", "0xzz"}},
		{"bad format", []string{"--format", "xml", "get-contract-owner"}},
		{"unknown command", []string{"frobnicate"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := run(t, node, tt.args...)
			assert.Equal(t, ExitCommandError, r.code, "stderr=%s", r.stderr)
			assert.Contains(t, r.stderr, "Error [CommandError]")
		})
	}
}

func TestCLI_UnreachableServer(t *testing.T) {
	r := run(t, "http://127.0.0.1:1", "get-contract-owner")
	assert.Equal(t, ExitCommandError, r.code)
}

func TestCLI_ContractOwnerAndDeriveID(t *testing.T) {
	node := newTestNode(t)
	ownerID := generic.DeriveAccountID("owner").String()

	derived := mustRun(t, node, "derive-id", "owner")
	assert.Equal(t, ownerID+"\n", derived.stdout)

	r := mustRun(t, node, "get-contract-owner")
	assert.Equal(t, "Contract owner: "+ownerID+"\n", r.stdout)

	// Hex and name forms are the same identity.
	mustRun(t, node, "register-company", "--as", ownerID, "acme")
	mustRun(t, node, "unregister-company", "--as", "owner", generic.DeriveAccountID("acme").String())
}

func TestCLI_ScenarioRun(t *testing.T) {
	node := newTestNode(t)

	list := mustRun(t, node, "scenario", "list")
	assert.Contains(t, list.stdout, "repeat-initiation")

	r := mustRun(t, node, "scenario", "run", "repeat-initiation")
	assert.True(t, strings.HasPrefix(r.stdout, "scenario: repeat-initiation\n"))
	assert.Contains(t, r.stdout, "result: pass")
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("  alice ")
	require.NoError(t, err)
	assert.Equal(t, generic.DeriveAccountID("alice"), id)

	again, err := ParseIdentity(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = ParseIdentity("")
	assert.Error(t, err)
}
