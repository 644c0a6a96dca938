// Package profiles implements the financial-profile domain for Scorely.
// It provides the profile input type, pre-pipeline validation, and the
// persistence namespace that lets a run recover its original input.
package profiles

// Income holds salary and employment stability figures.
type Income struct {
	AnnualSalaryUSD           float64 `json:"annualSalaryUSD"`
	OtherIncomeUSD            float64 `json:"otherIncomeUSD"`
	EmploymentStabilityMonths float64 `json:"employmentStabilityMonths"`
}

// Liabilities holds outstanding debt figures.
type Liabilities struct {
	TotalOutstandingDebtUSD float64 `json:"totalOutstandingDebtUSD"`
	MonthlyDebtPaymentUSD   float64 `json:"monthlyDebtPaymentUSD"`
}

// CreditUtilization holds credit limit and usage figures.
type CreditUtilization struct {
	TotalCreditLimitUSD float64 `json:"totalCreditLimitUSD"`
	CurrentUtilizedUSD  float64 `json:"currentUtilizedUSD"`
}

// LatePayments counts delinquencies by severity bucket.
type LatePayments struct {
	ThirtyDays float64 `json:"30D"`
	SixtyDays  float64 `json:"60D"`
	NinetyDays float64 `json:"90D"`
}

// CreditHistory holds account age and delinquency figures.
type CreditHistory struct {
	OldestAccountMonths     float64      `json:"oldestAccountMonths"`
	AverageAccountAgeMonths float64      `json:"averageAccountAgeMonths"`
	LatePayments            LatePayments `json:"latePayments"`
}

// CreditMix counts open account types.
type CreditMix struct {
	CreditCards      float64 `json:"creditCards"`
	InstallmentLoans float64 `json:"installmentLoans"`
	Mortgage         float64 `json:"mortgage"`
}

// NewCredit counts recent credit-seeking activity.
type NewCredit struct {
	HardInquiriesLast12Months float64 `json:"hardInquiriesLast12Months"`
	NewAccountsLast12Months   float64 `json:"newAccountsLast12Months"`
}

// FinancialProfile is the user-supplied input to a scoring run.
// It is immutable once a run starts; the pipeline never mutates it.
// JSON field names match the wire format consumed by the enclave application.
type FinancialProfile struct {
	Income            Income            `json:"income"`
	Liabilities       Liabilities       `json:"liabilities"`
	CreditUtilization CreditUtilization `json:"creditUtilization"`
	CreditHistory     CreditHistory     `json:"creditHistory"`
	CreditMix         CreditMix         `json:"creditMix"`
	NewCredit         NewCredit         `json:"newCredit"`
}

// Example returns a representative, valid profile. Used by tests and
// as sample payload documentation.
func Example() FinancialProfile {
	return FinancialProfile{
		Income: Income{
			AnnualSalaryUSD:           72000,
			OtherIncomeUSD:            3000,
			EmploymentStabilityMonths: 42,
		},
		Liabilities: Liabilities{
			TotalOutstandingDebtUSD: 12000,
			MonthlyDebtPaymentUSD:   450,
		},
		CreditUtilization: CreditUtilization{
			TotalCreditLimitUSD: 25000,
			CurrentUtilizedUSD:  6250,
		},
		CreditHistory: CreditHistory{
			OldestAccountMonths:     84,
			AverageAccountAgeMonths: 48,
		},
		CreditMix: CreditMix{
			CreditCards:      4,
			InstallmentLoans: 1,
		},
		NewCredit: NewCredit{
			HardInquiriesLast12Months: 1,
		},
	}
}
