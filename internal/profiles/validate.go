package profiles

import "math"

// ValidationError describes the first business rule a profile violates.
// Validation failures are returned as values and never enter the pipeline.
type ValidationError struct {
	Rule string
}

func (e *ValidationError) Error() string {
	return e.Rule
}

func fail(rule string) error {
	return &ValidationError{Rule: rule}
}

// Validate checks a profile against the business rules in a fixed order and
// returns the first violated rule, or nil when the profile is acceptable.
// Malformed numeric input (NaN, Inf) is rejected with a generic error before
// any rule is evaluated.
func Validate(p *FinancialProfile) error {
	if p == nil || malformed(p) {
		return fail("Invalid input data")
	}

	if p.Income.AnnualSalaryUSD < 0 {
		return fail("Annual Salary must be non-negative")
	}
	if p.Income.OtherIncomeUSD < 0 {
		return fail("Other Income must be non-negative")
	}
	if p.Income.EmploymentStabilityMonths < 0 {
		return fail("Employment Stability must be non-negative")
	}

	if p.Liabilities.TotalOutstandingDebtUSD < 0 {
		return fail("Total Outstanding Debt must be non-negative")
	}
	if p.Liabilities.MonthlyDebtPaymentUSD < 0 {
		return fail("Monthly Debt Payment must be non-negative")
	}

	if p.CreditUtilization.TotalCreditLimitUSD <= 0 {
		return fail("Total Credit Limit must be greater than 0")
	}
	if p.CreditUtilization.CurrentUtilizedUSD < 0 {
		return fail("Current Utilized Credit must be non-negative")
	}
	if p.CreditUtilization.CurrentUtilizedUSD > p.CreditUtilization.TotalCreditLimitUSD {
		return fail("Current Utilized Credit cannot exceed Total Credit Limit")
	}

	// The debt-to-income rule only applies when a salary is reported.
	if p.Income.AnnualSalaryUSD > 0 {
		monthlyIncome := p.Income.AnnualSalaryUSD / 12
		if p.Liabilities.MonthlyDebtPaymentUSD > monthlyIncome {
			return fail("Monthly Debt Payment cannot exceed monthly income (Annual Salary / 12)")
		}
	}

	if p.CreditHistory.OldestAccountMonths < 0 {
		return fail("Oldest Account Months must be non-negative")
	}
	if p.CreditHistory.AverageAccountAgeMonths < 0 {
		return fail("Average Account Age must be non-negative")
	}
	if p.CreditHistory.OldestAccountMonths < p.CreditHistory.AverageAccountAgeMonths {
		return fail("Oldest Account Months must be greater than or equal to Average Account Age")
	}

	late := p.CreditHistory.LatePayments
	if late.ThirtyDays < 0 || late.SixtyDays < 0 || late.NinetyDays < 0 {
		return fail("Late Payments count must be non-negative")
	}

	if p.CreditMix.CreditCards < 0 || p.CreditMix.InstallmentLoans < 0 || p.CreditMix.Mortgage < 0 {
		return fail("Credit Mix counts must be non-negative")
	}

	if p.NewCredit.HardInquiriesLast12Months < 0 || p.NewCredit.NewAccountsLast12Months < 0 {
		return fail("New Credit counts must be non-negative")
	}

	return nil
}

func malformed(p *FinancialProfile) bool {
	fields := []float64{
		p.Income.AnnualSalaryUSD,
		p.Income.OtherIncomeUSD,
		p.Income.EmploymentStabilityMonths,
		p.Liabilities.TotalOutstandingDebtUSD,
		p.Liabilities.MonthlyDebtPaymentUSD,
		p.CreditUtilization.TotalCreditLimitUSD,
		p.CreditUtilization.CurrentUtilizedUSD,
		p.CreditHistory.OldestAccountMonths,
		p.CreditHistory.AverageAccountAgeMonths,
		p.CreditHistory.LatePayments.ThirtyDays,
		p.CreditHistory.LatePayments.SixtyDays,
		p.CreditHistory.LatePayments.NinetyDays,
		p.CreditMix.CreditCards,
		p.CreditMix.InstallmentLoans,
		p.CreditMix.Mortgage,
		p.NewCredit.HardInquiriesLast12Months,
		p.NewCredit.NewAccountsLast12Months,
	}

	for _, f := range fields {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return true
		}
	}
	return false
}
