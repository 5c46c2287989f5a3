// Package projection turns aggregated window sums into compounded, tax- and
// inflation-adjusted future values.
//
// Unlike the money engine this package is float64 throughout: it evaluates
// real-valued financial formulas, and rounds to two decimals only when the
// result leaves the process.
package projection

// Tax slab thresholds and marginal rates over annual income, in rupees.
const (
	slabBasic  = 250_000.0
	slabLower  = 500_000.0
	slabUpper  = 1_000_000.0
	rateLower  = 0.05
	rateMiddle = 0.20
	rateTop    = 0.30

	// DeductionCap is the absolute ceiling on the deductible principal.
	DeductionCap = 150_000.0

	// WageDeductibleShare caps the deduction at this share of annual wage.
	WageDeductibleShare = 0.10
)

// TaxOn computes the progressive tax due on an annual income. Income at or
// below the basic slab owes exactly zero.
func TaxOn(annualIncome float64) float64 {
	if annualIncome <= slabBasic {
		return 0
	}
	tax := 0.0
	if annualIncome > slabUpper {
		tax += (annualIncome - slabUpper) * rateTop
		annualIncome = slabUpper
	}
	if annualIncome > slabLower {
		tax += (annualIncome - slabLower) * rateMiddle
		annualIncome = slabLower
	}
	tax += (annualIncome - slabBasic) * rateLower
	return tax
}

// TaxBenefit is the tax saved by deducting the eligible part of principal from
// an annual income: the tax delta between the undeducted and deducted incomes.
func TaxBenefit(principal, annualWage float64) float64 {
	deduction := principal
	if wageCap := annualWage * WageDeductibleShare; wageCap < deduction {
		deduction = wageCap
	}
	if DeductionCap < deduction {
		deduction = DeductionCap
	}
	if deduction <= 0 {
		return 0
	}
	return TaxOn(annualWage) - TaxOn(annualWage-deduction)
}
