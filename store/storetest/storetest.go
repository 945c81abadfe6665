// Package storetest holds the behavior every pension.TxStore must share.
// Store packages run it from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// Factory returns an empty store.
type Factory func(t *testing.T) pension.TxStore

var (
	alice = generic.DeriveAccountID("alice")
	bob   = generic.DeriveAccountID("bob")
	sam   = generic.DeriveAccountID("sam")
	bank  = generic.DeriveAccountID("firstbank")
)

// Run exercises newStore against the pension.TxStore contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("Owner", func(t *testing.T) { testOwner(t, newStore(t)) })
	t.Run("Members", func(t *testing.T) { testMembers(t, newStore(t)) })
	t.Run("Records", func(t *testing.T) { testRecords(t, newStore(t)) })
	t.Run("Insurances", func(t *testing.T) { testInsurances(t, newStore(t)) })
	t.Run("TaxAndBenefits", func(t *testing.T) { testTaxAndBenefits(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollback(t, newStore(t)) })
	t.Run("CommitOnSuccess", func(t *testing.T) { testCommit(t, newStore(t)) })
}

func testOwner(t *testing.T, s pension.TxStore) {
	ctx := context.Background()
	_, ok, err := s.Owner(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	owner := generic.DeriveAccountID("owner")
	require.NoError(t, s.SetOwner(ctx, owner))
	got, ok, err := s.Owner(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, owner, got)
}

func testMembers(t *testing.T, s pension.TxStore) {
	ctx := context.Background()

	members, err := s.Members(ctx, pension.RoleBank)
	require.NoError(t, err)
	assert.Empty(t, members)

	require.NoError(t, s.AddMember(ctx, pension.RoleBank, sam))
	require.NoError(t, s.AddMember(ctx, pension.RoleBank, alice))
	require.NoError(t, s.AddMember(ctx, pension.RoleCompany, bob))

	ok, err := s.IsMember(ctx, pension.RoleBank, alice)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsMember(ctx, pension.RoleCompany, alice)
	require.NoError(t, err)
	assert.False(t, ok)

	members, err = s.Members(ctx, pension.RoleBank)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Less(t, members[0].String(), members[1].String())

	require.NoError(t, s.RemoveMember(ctx, pension.RoleBank, alice))
	ok, err = s.IsMember(ctx, pension.RoleBank, alice)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testRecords(t *testing.T, s pension.TxStore) {
	ctx := context.Background()

	rec, err := s.GetRecord(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, rec)

	payout := generic.Amount(30600)
	spouse := sam
	in := pension.Record{
		YearsWorked:                20,
		CurrentSalary:              generic.MaxAmount,
		Status:                     pension.StatusLaidOff,
		IsReceivingPension:         true,
		IsEligibleForPayoutAgeWise: true,
		PayoutAmount:               &payout,
		SpouseBeneficiary:          &spouse,
	}
	require.NoError(t, s.PutRecord(ctx, alice, in))
	require.NoError(t, s.PutRecord(ctx, bob, pension.DefaultRecord()))

	got, err := s.GetRecord(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, *got)

	// Returned records never alias stored state.
	*got.PayoutAmount = 1
	again, err := s.GetRecord(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, payout, *again.PayoutAmount)

	plain, err := s.GetRecord(ctx, bob)
	require.NoError(t, err)
	assert.Nil(t, plain.PayoutAmount)
	assert.Nil(t, plain.SpouseBeneficiary)

	ids, err := s.Pensioners(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []generic.AccountID{alice, bob}, ids)
	assert.Less(t, ids[0].String(), ids[1].String())
}

func testInsurances(t *testing.T, s pension.TxStore) {
	ctx := context.Background()

	list, err := s.Insurances(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)

	for i, details := range []string{"life", "disability", "life"} {
		require.NoError(t, s.AppendInsurance(ctx, alice, pension.InsuranceEntry{
			Bank:            bank,
			PayoutPerPeriod: generic.Amount(100 * (i + 1)),
			Details:         details,
		}))
	}

	list, err = s.Insurances(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "life", list[0].Details)
	assert.Equal(t, "disability", list[1].Details)
	assert.Equal(t, generic.Amount(300), list[2].PayoutPerPeriod)
	assert.Equal(t, bank, list[2].Bank)

	other, err := s.Insurances(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func testTaxAndBenefits(t *testing.T, s pension.TxStore) {
	ctx := context.Background()

	cfg, err := s.TaxConfig(ctx, alice)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	require.NoError(t, s.PutTaxConfig(ctx, alice, pension.TaxConfig{TaxOffice: bank, RatePercentage: 10}))
	require.NoError(t, s.PutTaxConfig(ctx, alice, pension.TaxConfig{TaxOffice: bob, RatePercentage: 25}))
	cfg, err = s.TaxConfig(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, pension.TaxConfig{TaxOffice: bob, RatePercentage: 25}, *cfg)

	benefit, err := s.SpouseBenefit(ctx, sam)
	require.NoError(t, err)
	assert.Nil(t, benefit)

	require.NoError(t, s.PutSpouseBenefit(ctx, sam, 6120))
	require.NoError(t, s.PutSpouseBenefit(ctx, sam, 400))
	benefit, err = s.SpouseBenefit(ctx, sam)
	require.NoError(t, err)
	require.NotNil(t, benefit)
	assert.Equal(t, generic.Amount(400), *benefit)
}

func testRollback(t *testing.T, s pension.TxStore) {
	ctx := context.Background()
	require.NoError(t, s.PutRecord(ctx, alice, pension.DefaultRecord()))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx pension.Store) error {
		rec, err := tx.GetRecord(ctx, alice)
		require.NoError(t, err)
		rec.IsDeceased = true
		require.NoError(t, tx.PutRecord(ctx, alice, *rec))
		require.NoError(t, tx.PutRecord(ctx, bob, pension.DefaultRecord()))
		require.NoError(t, tx.AppendInsurance(ctx, alice, pension.InsuranceEntry{Bank: bank, PayoutPerPeriod: 1}))
		require.NoError(t, tx.PutSpouseBenefit(ctx, sam, 99))
		require.NoError(t, tx.AddMember(ctx, pension.RoleCompany, bob))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := s.GetRecord(ctx, alice)
	require.NoError(t, err)
	assert.False(t, rec.IsDeceased)

	missing, err := s.GetRecord(ctx, bob)
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.Insurances(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, list)

	benefit, err := s.SpouseBenefit(ctx, sam)
	require.NoError(t, err)
	assert.Nil(t, benefit)

	ok, err := s.IsMember(ctx, pension.RoleCompany, bob)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testCommit(t *testing.T, s pension.TxStore) {
	ctx := context.Background()
	err := s.WithTx(ctx, func(tx pension.Store) error {
		if err := tx.PutRecord(ctx, alice, pension.DefaultRecord()); err != nil {
			return err
		}
		// Reads inside the transaction see its own writes.
		rec, err := tx.GetRecord(ctx, alice)
		if err != nil {
			return err
		}
		if rec == nil {
			return errors.New("write not visible inside transaction")
		}
		return tx.PutTaxConfig(ctx, alice, pension.TaxConfig{TaxOffice: bank, RatePercentage: 5})
	})
	require.NoError(t, err)

	rec, err := s.GetRecord(ctx, alice)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	cfg, err := s.TaxConfig(ctx, alice)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, uint8(5), cfg.RatePercentage)
}
