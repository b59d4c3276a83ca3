package enrollment

import (
	"context"

	"github.com/vanline/transport/billing"
)

// Store is the persistence collaborator for requests and students.
// Implementations must make RegisterPayment atomic: the paid transition is
// a single conditional update keyed by (student, sequence), never a
// read-modify-write of the whole record, so two concurrent payment
// registrations cannot silently clobber each other.
type Store interface {
	// CreateRequest persists a new request and fills in its ID.
	CreateRequest(ctx context.Context, req *Request) error

	// ListRequests returns requests newest-first, optionally filtered by
	// status (empty status = all).
	ListRequests(ctx context.Context, status RequestStatus) ([]Request, error)

	// GetRequest returns a request by id, or ErrRequestNotFound.
	GetRequest(ctx context.Context, id string) (*Request, error)

	// UpdateRequestStatus flips a pending request to approved/rejected.
	// Returns ErrRequestClosed if the request is no longer pending.
	UpdateRequestStatus(ctx context.Context, id string, status RequestStatus) error

	// CreateStudent persists a student with its contract and full schedule.
	CreateStudent(ctx context.Context, st *Student) error

	// ListStudents returns all students newest-first, schedules included.
	ListStudents(ctx context.Context) ([]Student, error)

	// GetStudent returns a student by id, or ErrStudentNotFound.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// RegisterPayment marks one installment paid. Returns
	// billing.ErrAlreadyPaid when the installment was paid before the
	// update landed, and billing.ErrInstallmentNotFound for an unknown
	// sequence.
	RegisterPayment(ctx context.Context, studentID string, seq int, paidOn billing.Date) error

	// SetSignedContractURL records the uploaded signed-contract location.
	SetSignedContractURL(ctx context.Context, studentID, url string) error
}
