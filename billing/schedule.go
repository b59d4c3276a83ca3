package billing

import "github.com/shopspring/decimal"

// =============================================================================
// INSTALLMENT
// =============================================================================

// Status is the lifecycle state of an installment. Only "open" and "paid"
// are ever persisted; "overdue" is derived at read time by Resolve.
type Status string

const (
	StatusOpen    Status = "open"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Installment is one scheduled monthly payment derived from a Contract.
type Installment struct {
	// Sequence is the 1-based position within the schedule.
	Sequence int

	// Period is the (year, month) this installment bills for.
	Period PeriodKey

	// DueDate is Period's month with the contract due day, clamped to the
	// last valid day of that month.
	DueDate Date

	// Amount equals the contract's MonthlyValue at generation time. Fixed;
	// a later contract edit would not reflow into existing installments.
	Amount decimal.Decimal

	// LateFee is the fee accrued as of the last resolution instant. Zero
	// unless currently overdue. Never persisted as accrued-and-growing.
	LateFee decimal.Decimal

	// Status is open, paid, or overdue. Paid is terminal.
	Status Status

	// PaymentDate is set only when the installment is marked paid.
	PaymentDate *Date
}

// =============================================================================
// SCHEDULE GENERATOR
// =============================================================================

// Generate expands a contract into its full, ordered installment schedule.
//
// Generation is pure and deterministic: identical contracts always yield
// identical schedules, and the current date is never consulted. The
// schedule is produced once, in full, at approval time; it is never
// re-generated or re-dated afterwards.
//
// An InstallmentCount of zero yields an empty schedule. That is a
// degenerate, likely-misconfigured contract rather than an error here;
// callers guard with Contract.Validate.
func Generate(c Contract) []Installment {
	start := c.StartPeriod()
	schedule := make([]Installment, 0, c.InstallmentCount)

	for i := 0; i < c.InstallmentCount; i++ {
		period := start.AddMonths(i)
		schedule = append(schedule, Installment{
			Sequence: i + 1,
			Period:   period,
			DueDate:  DueDate(period, c.DueDay),
			Amount:   c.MonthlyValue,
			LateFee:  decimal.Zero,
			Status:   StatusOpen,
		})
	}
	return schedule
}
