package billing

import "github.com/shopspring/decimal"

// =============================================================================
// PAYMENT RECORDER - The one-way paid transition
// =============================================================================

// MarkPaid returns the installment in its paid state: status paid, late
// fee cleared, payment date set to the given day.
//
// The transition is one-way. There is no unpay operation; reverting a
// mistaken payment is an out-of-band correction through the store.
// Marking an already-paid installment returns ErrAlreadyPaid even though
// the resulting state would be identical, so callers cannot silently
// double-process a payment.
func MarkPaid(in Installment, today Date) (Installment, error) {
	if in.Status == StatusPaid {
		return in, ErrAlreadyPaid
	}

	in.Status = StatusPaid
	in.LateFee = decimal.Zero
	in.PaymentDate = &today
	return in, nil
}

// FindBySequence locates an installment in a schedule by its 1-based
// sequence number.
func FindBySequence(schedule []Installment, seq int) (Installment, error) {
	for _, in := range schedule {
		if in.Sequence == seq {
			return in, nil
		}
	}
	return Installment{}, ErrInstallmentNotFound
}
