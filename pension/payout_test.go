package pension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

func employed(years uint32, salary generic.Amount) pension.Record {
	rec := pension.DefaultRecord()
	rec.YearsWorked = years
	rec.CurrentSalary = salary
	return rec
}

func TestCalculate(t *testing.T) {
	bank := generic.DeriveAccountID("bank")
	ins := func(amounts ...generic.Amount) []pension.InsuranceEntry {
		out := make([]pension.InsuranceEntry, len(amounts))
		for i, a := range amounts {
			out[i] = pension.InsuranceEntry{Bank: bank, PayoutPerPeriod: a}
		}
		return out
	}
	tax := func(rate uint8) *pension.TaxConfig {
		return &pension.TaxConfig{RatePercentage: rate}
	}

	tests := []struct {
		name       string
		rec        pension.Record
		insurances []pension.InsuranceEntry
		tax        *pension.TaxConfig
		want       pension.Payout
	}{
		{
			name:       "base insurance and tax",
			rec:        employed(20, 60000),
			insurances: ins(10000),
			tax:        tax(10),
			want:       pension.Payout{Base: 24000, Insurance: 10000, Gross: 34000, Tax: 3400, Net: 30600},
		},
		{
			name: "no tax config",
			rec:  employed(25, 70000),
			want: pension.Payout{Base: 35000, Gross: 35000, Net: 35000},
		},
		{
			name: "salary truncates to hundreds",
			rec:  employed(1, 199),
			want: pension.Payout{Base: 2, Gross: 2, Net: 2},
		},
		{
			name:       "multiple insurances sum",
			rec:        employed(0, 0),
			insurances: ins(100, 250, 650),
			want:       pension.Payout{Insurance: 1000, Gross: 1000, Net: 1000},
		},
		{
			name: "tax truncates",
			rec:  employed(1, 4950),
			tax:  tax(10),
			want: pension.Payout{Base: 98, Gross: 98, Tax: 9, Net: 89},
		},
		{
			name: "full tax",
			rec:  employed(10, 10000),
			tax:  tax(100),
			want: pension.Payout{Base: 2000, Gross: 2000, Tax: 2000, Net: 0},
		},
		{
			name: "zero tax",
			rec:  employed(10, 10000),
			tax:  tax(0),
			want: pension.Payout{Base: 2000, Gross: 2000, Net: 2000},
		},
		{
			name:       "saturates instead of wrapping",
			rec:        employed(^uint32(0), generic.MaxAmount),
			insurances: ins(generic.MaxAmount),
			want:       pension.Payout{Base: generic.MaxAmount, Insurance: generic.MaxAmount, Gross: generic.MaxAmount, Net: generic.MaxAmount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pension.Calculate(tt.rec, tt.insurances, tt.tax)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculate_InsuranceOrderDoesNotMatter(t *testing.T) {
	a := pension.InsuranceEntry{PayoutPerPeriod: 123}
	b := pension.InsuranceEntry{PayoutPerPeriod: 4567}
	rec := employed(7, 31000)

	ab, err := pension.Calculate(rec, []pension.InsuranceEntry{a, b}, nil)
	require.NoError(t, err)
	ba, err := pension.Calculate(rec, []pension.InsuranceEntry{b, a}, nil)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}

func TestCalculate_Rejections(t *testing.T) {
	// GIVEN: a stored rate above 100 (bypassing the write check)
	_, err := pension.Calculate(employed(20, 60000), nil, &pension.TaxConfig{RatePercentage: 150})
	// THEN: the read path rejects it
	assert.ErrorIs(t, err, pension.ErrInvalidInput)

	// GIVEN: a deceased record
	rec := employed(20, 60000)
	rec.IsDeceased = true
	_, err = pension.Calculate(rec, nil, nil)
	assert.ErrorIs(t, err, pension.ErrPayoutNotApplicable)
}

func TestValidateTaxRate(t *testing.T) {
	assert.NoError(t, pension.ValidateTaxRate(0))
	assert.NoError(t, pension.ValidateTaxRate(100))
	assert.ErrorIs(t, pension.ValidateTaxRate(101), pension.ErrInvalidInput)
	assert.ErrorIs(t, pension.ValidateTaxRate(255), pension.ErrInvalidInput)
}

func TestSpouseBenefit(t *testing.T) {
	assert.Equal(t, generic.Amount(6120), pension.SpouseBenefit(30600))
	assert.Equal(t, generic.Amount(0), pension.SpouseBenefit(4))
	assert.Equal(t, generic.Amount(1), pension.SpouseBenefit(9))
}

func TestRecord_State(t *testing.T) {
	rec := pension.DefaultRecord()
	assert.Equal(t, pension.StateActiveNoPayout, rec.State())

	rec.IsEligibleForPayoutAgeWise = true
	assert.Equal(t, pension.StateActiveEligible, rec.State())

	rec.IsReceivingPension = true
	assert.Equal(t, pension.StatePaying, rec.State())

	rec.IsDeceased = true
	assert.Equal(t, pension.StateDeceased, rec.State())
}

func TestRecord_CloneDoesNotAlias(t *testing.T) {
	amount := generic.Amount(10)
	spouse := generic.DeriveAccountID("sam")
	rec := pension.Record{PayoutAmount: &amount, SpouseBeneficiary: &spouse}

	clone := rec.Clone()
	*clone.PayoutAmount = 99
	*clone.SpouseBeneficiary = generic.DeriveAccountID("other")

	assert.Equal(t, generic.Amount(10), *rec.PayoutAmount)
	assert.Equal(t, generic.DeriveAccountID("sam"), *rec.SpouseBeneficiary)
}
