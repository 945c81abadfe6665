/*
payout.go - Deterministic payout calculation

PURPOSE:
  Pure, side-effect-free computation of the per-period payout of one
  pensioner from its record, insurances, and tax config.

ALGORITHM:
  1. Deceased record -> PayoutNotApplicable (checked here even though every
     caller already excludes it)
  2. base  = floor(salary / 100) * years * 2         saturating
  3. gross = base + sum(insurance payouts)            saturating
  4. tax   = floor(gross * rate / 100)                rate re-validated, > 100 is InvalidInput
     net   = gross - tax                              floors at zero
  5. no tax config: net = gross

ROUNDING:
  Every division truncates toward zero. Amounts are indivisible smallest
  units and truncation never creates value.

DEATH BENEFIT:
  SpouseBenefit(net) = floor(net * 20 / 100), where net is the payout of the
  record before it was marked deceased.

EXAMPLE:
  salary 60000, years 20, one insurance of 10000, tax 10%
    base 24000, gross 34000, tax 3400, net 30600

SEE ALSO:
  - ledger.go: Ledger.Calculate loads the inputs
  - contract.go: InitiatePayout, ReportDeath, FuturePayout
*/
package pension

import (
	"fmt"

	"github.com/warp/pension-engine/generic"
)

const (
	// SalaryDivisor scales salary to the base accrual unit.
	SalaryDivisor = 100

	// AccrualMultiplier is applied per year worked.
	AccrualMultiplier = 2

	// MaxTaxRate is the highest accepted tax percentage.
	MaxTaxRate = 100

	// SpouseBenefitPercentage of the pre-death net payout goes to the spouse.
	SpouseBenefitPercentage = 20
)

// Payout is the breakdown of one calculation. Net is the payable amount.
type Payout struct {
	Base      generic.Amount
	Insurance generic.Amount
	Gross     generic.Amount
	Tax       generic.Amount
	Net       generic.Amount
}

// ValidateTaxRate is the single tax rate check, shared by the write path and
// every read path. Stored rates are untrusted.
func ValidateTaxRate(rate uint8) error {
	if rate > MaxTaxRate {
		return fmt.Errorf("%w: tax rate %d%% exceeds %d%%", ErrInvalidInput, rate, MaxTaxRate)
	}
	return nil
}

// BasePayout returns floor(salary/100) * years * 2, saturating.
func BasePayout(salary generic.Amount, years uint32) generic.Amount {
	return salary.Div(SalaryDivisor).
		SaturatingMul(uint64(years)).
		SaturatingMul(AccrualMultiplier)
}

// Calculate computes the payout of rec. Insurance order does not matter.
func Calculate(rec Record, insurances []InsuranceEntry, tax *TaxConfig) (Payout, error) {
	if rec.IsDeceased {
		return Payout{}, ErrPayoutNotApplicable
	}

	var p Payout
	p.Base = BasePayout(rec.CurrentSalary, rec.YearsWorked)
	for _, ins := range insurances {
		p.Insurance = p.Insurance.SaturatingAdd(ins.PayoutPerPeriod)
	}
	p.Gross = p.Base.SaturatingAdd(p.Insurance)

	if tax == nil {
		p.Net = p.Gross
		return p, nil
	}
	if err := ValidateTaxRate(tax.RatePercentage); err != nil {
		return Payout{}, err
	}
	p.Tax = p.Gross.MulDivFloor(uint64(tax.RatePercentage), 100)
	p.Net = p.Gross.SaturatingSub(p.Tax)
	return p, nil
}

// SpouseBenefit returns the death benefit owed to a designated spouse.
func SpouseBenefit(preDeathNet generic.Amount) generic.Amount {
	return preDeathNet.MulDivFloor(SpouseBenefitPercentage, 100)
}
