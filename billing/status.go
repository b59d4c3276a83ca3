package billing

import "github.com/shopspring/decimal"

// =============================================================================
// STATUS RESOLVER - Read-time projection of installment state
// =============================================================================

// Resolve returns the installment's live status and accrued late fee as of
// the given date. It is a read-time projection: the persisted record only
// ever stores open/paid, and overdue-ness is derived fresh on every
// evaluation. Once a day crosses a due date, an open installment resolves
// as overdue without any write occurring.
//
// Paid is sticky and authoritative: a paid installment is returned
// unchanged regardless of the current date.
//
// The input is not mutated; a new derived view is returned, so Resolve is
// safe to call concurrently over shared schedules.
func Resolve(in Installment, lateFeePercent decimal.Decimal, today Date) Installment {
	if in.Status == StatusPaid {
		in.LateFee = decimal.Zero
		return in
	}

	if today.After(in.DueDate) {
		in.Status = StatusOverdue
		in.LateFee = accrueLateFee(in.Amount, lateFeePercent)
		return in
	}

	in.Status = StatusOpen
	in.LateFee = decimal.Zero
	return in
}

// ResolveSchedule resolves every installment in a schedule against the
// same date, preserving order.
func ResolveSchedule(schedule []Installment, lateFeePercent decimal.Decimal, today Date) []Installment {
	resolved := make([]Installment, len(schedule))
	for i, in := range schedule {
		resolved[i] = Resolve(in, lateFeePercent, today)
	}
	return resolved
}

// accrueLateFee computes round(amount * pct / 100, 2). The intermediate
// product is not pre-rounded; only the final fee is.
func accrueLateFee(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100)).Round(2)
}
