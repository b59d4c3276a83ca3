package enrollment

import "errors"

var (
	// ErrRequestNotFound is returned when a request id does not exist.
	ErrRequestNotFound = errors.New("enrollment request not found")

	// ErrStudentNotFound is returned when a student id does not exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrRequestClosed is returned when approving or rejecting a request
	// that is no longer pending.
	ErrRequestClosed = errors.New("enrollment request is not pending")

	// ErrInvalidTerms is returned when approval terms fail to parse
	// (malformed decimals or dates). Contract-level range violations keep
	// their billing sentinels.
	ErrInvalidTerms = errors.New("invalid contract terms")
)

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrStudentNotFound)
}
