package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/api"
	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/memory"
)

var (
	owner = generic.DeriveAccountID("owner")
	acme  = generic.DeriveAccountID("acme")
	bob   = generic.DeriveAccountID("bob")
	carol = generic.DeriveAccountID("carol")
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	contract, err := pension.New(context.Background(), memory.New(), owner)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(contract, nil, nil, nil)))
	t.Cleanup(srv.Close)
	return New(srv.URL, owner, WithHTTPClient(srv.Client()))
}

func TestClient_RepeatInitiation(t *testing.T) {
	// GIVEN: bob with salary 70000 over 25 years, eligible
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, pension.RoleCompany, acme))
	require.NoError(t, c.As(acme).UpdateEmployment(ctx, bob, 25, 70000, pension.StatusActive))
	require.NoError(t, c.SetAgeEligibility(ctx, bob, true))

	// WHEN: bob initiates twice
	amount, err := c.As(bob).InitiatePayout(ctx)
	require.NoError(t, err)
	_, err = c.As(bob).InitiatePayout(ctx)

	// THEN: the first fixes 35000 and the second maps back to the sentinel
	assert.Equal(t, generic.Amount(35000), amount)
	assert.ErrorIs(t, err, pension.ErrPayoutNotApplicable)
	assert.Equal(t, pension.KindPayoutNotApplicable, pension.KindOf(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 409, apiErr.Status)

	rec, err := c.Pensioner(ctx, bob)
	require.NoError(t, err)
	require.NotNil(t, rec.PayoutAmount)
	assert.Equal(t, generic.Amount(35000), *rec.PayoutAmount)
}

func TestClient_OptionalResults(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	// Unknown pensioner and unset tax config are nil, not errors.
	rec, err := c.Pensioner(ctx, carol)
	require.NoError(t, err)
	assert.Nil(t, rec)

	tax, err := c.TaxConfig(ctx, carol)
	require.NoError(t, err)
	assert.Nil(t, tax)

	benefit, err := c.As(carol).SpouseBenefit(ctx)
	require.NoError(t, err)
	assert.Nil(t, benefit)
}

func TestClient_RoleScoping(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, pension.RoleCompany, acme))

	err := c.As(acme).Register(ctx, pension.RoleBank, acme)
	assert.ErrorIs(t, err, pension.ErrUnauthorized)

	ok, err := c.IsAuthorized(ctx, pension.RoleCompany, acme)
	require.NoError(t, err)
	assert.True(t, ok)

	members, err := c.Members(ctx, pension.RoleBank)
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, c.Unregister(ctx, pension.RoleCompany, acme))
	assert.ErrorIs(t, c.Unregister(ctx, pension.RoleCompany, acme), pension.ErrNotRegistered)
}

func TestClient_SpouseBenefit(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.Register(ctx, pension.RoleCompany, acme))
	require.NoError(t, c.As(acme).UpdateEmployment(ctx, carol, 30, 100000, pension.StatusActive))
	require.NoError(t, c.As(carol).DesignateSpouse(ctx, bob))

	benefit, err := c.As(bob).ReportDeath(ctx, carol)
	require.NoError(t, err)
	require.NotNil(t, benefit)
	assert.Equal(t, generic.Amount(12000), *benefit)

	_, err = c.ReportDeath(ctx, carol)
	assert.ErrorIs(t, err, pension.ErrAlreadyDeceased)
}

func TestClient_RunScenario(t *testing.T) {
	c := newTestClient(t)

	run, err := c.RunScenario(context.Background(), "spouse-benefit")

	require.NoError(t, err)
	assert.True(t, run.Passed, run.Trace)
}
