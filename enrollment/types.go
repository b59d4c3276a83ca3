/*
Package enrollment implements the transport enrollment workflow: guardians
submit requests, the administrator approves or rejects them, and approval
creates one active student record per requested child, each carrying a
billing contract and its generated installment schedule.

The package orchestrates the pure billing engine against the persistence
and notification collaborators. It owns no schedule math itself.
*/
package enrollment

import (
	"time"

	"github.com/vanline/transport/billing"
)

// RequestStatus is the lifecycle state of an enrollment request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// StudentApplication is one child listed on an enrollment request.
type StudentApplication struct {
	Name   string `json:"name" validate:"required"`
	School string `json:"school" validate:"required"`
	Shift  string `json:"shift" validate:"required"`
}

// Request is a guardian-submitted application for transport service,
// pending admin approval.
type Request struct {
	ID            string
	GuardianName  string
	GuardianCPF   string
	GuardianEmail string // optional; approval/rejection notices are sent here when set
	Phone         string
	Address       string
	Students      []StudentApplication
	Status        RequestStatus
	CreatedAt     time.Time
}

// Student is an enrolled student: the approved application data plus the
// billing contract and its installment schedule. The contract and schedule
// are owned by this record; installments are never shared across students.
type Student struct {
	ID           string
	RequestID    string
	Name         string
	School       string
	Shift        string
	GuardianName string
	GuardianCPF  string
	Phone        string
	Address      string

	Contract     billing.Contract
	Installments []billing.Installment

	SignedContractURL string
	Active            bool
	CreatedAt         time.Time
}

// ResolvedView returns the student's schedule projected against the given
// date. The stored record is untouched; overdue status and late fees are
// derived per read.
func (s Student) ResolvedView(today billing.Date) []billing.Installment {
	return billing.ResolveSchedule(s.Installments, s.Contract.LateFeePercent, today)
}
