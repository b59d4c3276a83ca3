package billing

import (
	"github.com/shopspring/decimal"
)

// Contract holds the financial terms governing one enrolled student's
// billing. Immutable once the enrollment request is approved.
type Contract struct {
	// AnnualValue is the total amount owed over the contract term.
	AnnualValue decimal.Decimal

	// InstallmentCount is the number of monthly installments (typically 1-24).
	InstallmentCount int

	// MonthlyValue is AnnualValue / InstallmentCount rounded to 2 places.
	// Fixed at contract creation; installment amounts are copied from it
	// and never recomputed afterwards.
	MonthlyValue decimal.Decimal

	// DueDay is the target day-of-month (1-31) for each installment,
	// clamped per month by the generator.
	DueDay int

	// LateFeePercent is the percentage applied to an overdue installment's
	// amount. Non-negative.
	LateFeePercent decimal.Decimal

	// StartDate marks the first installment's reference month.
	StartDate Date
}

// NewContract builds a contract, deriving MonthlyValue from the annual
// value and installment count. It does not validate; call Validate before
// generating a schedule from untrusted input.
func NewContract(annual decimal.Decimal, installments, dueDay int, lateFeePct decimal.Decimal, start Date) Contract {
	return Contract{
		AnnualValue:      annual,
		InstallmentCount: installments,
		MonthlyValue:     MonthlyValue(annual, installments),
		DueDay:           dueDay,
		LateFeePercent:   lateFeePct,
		StartDate:        start,
	}
}

// MonthlyValue computes round(annual / count, 2). The rounded sum over all
// installments may differ from the annual value by up to one cent per the
// rounding tolerance; that discrepancy is expected.
func MonthlyValue(annual decimal.Decimal, count int) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return annual.Div(decimal.NewFromInt(int64(count))).Round(2)
}

// Validate checks contract terms for configuration errors. The generator
// itself is total over its documented domain and does not validate, so
// callers approving untrusted input must call this first.
func (c Contract) Validate() error {
	if c.InstallmentCount < 1 {
		return ErrInvalidInstallmentCount
	}
	if c.DueDay < 1 || c.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if !c.AnnualValue.IsPositive() {
		return ErrInvalidAnnualValue
	}
	if c.LateFeePercent.IsNegative() {
		return ErrInvalidLateFee
	}
	if c.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	return nil
}

// StartPeriod returns the period of the first installment.
func (c Contract) StartPeriod() PeriodKey {
	return PeriodKey{Year: c.StartDate.Year(), Month: c.StartDate.Month()}
}
