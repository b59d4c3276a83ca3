// Package memory provides an in-memory enrollment.Store for testing/dev.
package memory

import (
	"context"
	"sync"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu       sync.RWMutex
	requests []enrollment.Request
	students []enrollment.Student
}

func New() *Store {
	return &Store{}
}

func (m *Store) CreateRequest(_ context.Context, req *enrollment.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Newest-first, mirroring the sqlite store's ORDER BY created_at DESC.
	m.requests = append([]enrollment.Request{*req}, m.requests...)
	return nil
}

func (m *Store) ListRequests(_ context.Context, status enrollment.RequestStatus) ([]enrollment.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []enrollment.Request
	for _, r := range m.requests {
		if status == "" || r.Status == status {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *Store) GetRequest(_ context.Context, id string) (*enrollment.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.requests {
		if r.ID == id {
			req := r
			return &req, nil
		}
	}
	return nil, enrollment.ErrRequestNotFound
}

func (m *Store) UpdateRequestStatus(_ context.Context, id string, status enrollment.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.requests {
		if m.requests[i].ID != id {
			continue
		}
		if m.requests[i].Status != enrollment.RequestPending {
			return enrollment.ErrRequestClosed
		}
		m.requests[i].Status = status
		return nil
	}
	return enrollment.ErrRequestNotFound
}

func (m *Store) CreateStudent(_ context.Context, st *enrollment.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.students = append([]enrollment.Student{cloneStudent(*st)}, m.students...)
	return nil
}

func (m *Store) ListStudents(_ context.Context) ([]enrollment.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]enrollment.Student, len(m.students))
	for i, st := range m.students {
		out[i] = cloneStudent(st)
	}
	return out, nil
}

func (m *Store) GetStudent(_ context.Context, id string) (*enrollment.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, st := range m.students {
		if st.ID == id {
			c := cloneStudent(st)
			return &c, nil
		}
	}
	return nil, enrollment.ErrStudentNotFound
}

// RegisterPayment applies the paid transition under the store lock, the
// in-memory equivalent of the sqlite conditional UPDATE.
func (m *Store) RegisterPayment(_ context.Context, studentID string, seq int, paidOn billing.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.students {
		if m.students[i].ID != studentID {
			continue
		}
		for j := range m.students[i].Installments {
			if m.students[i].Installments[j].Sequence != seq {
				continue
			}
			paid, err := billing.MarkPaid(m.students[i].Installments[j], paidOn)
			if err != nil {
				return err
			}
			m.students[i].Installments[j] = paid
			return nil
		}
		return billing.ErrInstallmentNotFound
	}
	return enrollment.ErrStudentNotFound
}

func (m *Store) SetSignedContractURL(_ context.Context, studentID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.students {
		if m.students[i].ID == studentID {
			m.students[i].SignedContractURL = url
			return nil
		}
	}
	return enrollment.ErrStudentNotFound
}

func cloneStudent(st enrollment.Student) enrollment.Student {
	ins := make([]billing.Installment, len(st.Installments))
	copy(ins, st.Installments)
	st.Installments = ins
	return st
}
