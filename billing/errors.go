package billing

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInstallmentCount is returned by Contract.Validate when the
	// installment count is below 1. Generate itself treats a zero count as
	// a degenerate empty schedule, not an error.
	ErrInvalidInstallmentCount = errors.New("installment count must be at least 1")

	// ErrInvalidDueDay is returned when the due day is outside 1-31.
	ErrInvalidDueDay = errors.New("due day must be between 1 and 31")

	// ErrInvalidAnnualValue is returned when the annual value is not positive.
	ErrInvalidAnnualValue = errors.New("annual value must be positive")

	// ErrInvalidLateFee is returned when the late-fee percentage is negative.
	ErrInvalidLateFee = errors.New("late fee percent must not be negative")

	// ErrMissingStartDate is returned when the contract has no start date.
	ErrMissingStartDate = errors.New("contract start date is required")

	// ErrAlreadyPaid is returned when marking an installment paid twice.
	// The resulting state would be identical, but the caller almost
	// certainly double-processed a payment, so it is surfaced as an error.
	ErrAlreadyPaid = errors.New("installment is already paid")

	// ErrInstallmentNotFound is returned when a sequence number does not
	// exist within a schedule.
	ErrInstallmentNotFound = errors.New("installment not found")
)

// IsConfigError reports whether the error is a contract configuration
// error from Validate.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidInstallmentCount) ||
		errors.Is(err, ErrInvalidDueDay) ||
		errors.Is(err, ErrInvalidAnnualValue) ||
		errors.Is(err, ErrInvalidLateFee) ||
		errors.Is(err, ErrMissingStartDate)
}
