package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
	"github.com/vanline/transport/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func seedRequest(t *testing.T, st *sqlite.Store) *enrollment.Request {
	t.Helper()
	req := &enrollment.Request{
		ID:            uuid.NewString(),
		GuardianName:  "Maria Souza",
		GuardianCPF:   "12345678901",
		GuardianEmail: "maria@example.com",
		Phone:         "11987654321",
		Address:       "Rua das Flores, 100",
		Students: []enrollment.StudentApplication{
			{Name: "Joao Souza", School: "Escola Azul", Shift: "morning"},
		},
		Status:    enrollment.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateRequest(context.Background(), req))
	return req
}

func seedStudent(t *testing.T, st *sqlite.Store, requestID string) *enrollment.Student {
	t.Helper()
	contract := billing.NewContract(
		decimal.RequireFromString("2400"), 12, 10,
		decimal.RequireFromString("2"), billing.NewDate(2024, time.January, 15))

	student := &enrollment.Student{
		ID:           uuid.NewString(),
		RequestID:    requestID,
		Name:         "Joao Souza",
		School:       "Escola Azul",
		Shift:        "morning",
		GuardianName: "Maria Souza",
		GuardianCPF:  "12345678901",
		Phone:        "11987654321",
		Address:      "Rua das Flores, 100",
		Contract:     contract,
		Installments: billing.Generate(contract),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateStudent(context.Background(), student))
	return student
}

func TestRequestRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	req := seedRequest(t, st)

	got, err := st.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.GuardianName, got.GuardianName)
	assert.Equal(t, req.Students, got.Students)
	assert.Equal(t, enrollment.RequestPending, got.Status)

	pending, err := st.ListRequests(ctx, enrollment.RequestPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = st.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, enrollment.ErrRequestNotFound)
}

func TestUpdateRequestStatus_PendingGuard(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	req := seedRequest(t, st)

	require.NoError(t, st.UpdateRequestStatus(ctx, req.ID, enrollment.RequestApproved))

	// A closed request cannot be flipped again.
	err := st.UpdateRequestStatus(ctx, req.ID, enrollment.RequestRejected)
	assert.ErrorIs(t, err, enrollment.ErrRequestClosed)

	err = st.UpdateRequestStatus(ctx, "missing", enrollment.RequestApproved)
	assert.ErrorIs(t, err, enrollment.ErrRequestNotFound)
}

func TestStudentRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	req := seedRequest(t, st)
	student := seedStudent(t, st, req.ID)

	got, err := st.GetStudent(ctx, student.ID)
	require.NoError(t, err)

	assert.Equal(t, student.Name, got.Name)
	assert.True(t, got.Contract.AnnualValue.Equal(student.Contract.AnnualValue))
	assert.True(t, got.Contract.MonthlyValue.Equal(student.Contract.MonthlyValue))
	assert.Equal(t, 12, got.Contract.InstallmentCount)
	assert.Equal(t, "2024-01-15", got.Contract.StartDate.String())
	require.Len(t, got.Installments, 12)

	for i, in := range got.Installments {
		assert.Equal(t, i+1, in.Sequence)
		assert.Equal(t, billing.StatusOpen, in.Status)
		assert.True(t, in.Amount.Equal(student.Installments[i].Amount))
		assert.True(t, in.DueDate.Equal(student.Installments[i].DueDate))
	}

	_, err = st.GetStudent(ctx, "missing")
	assert.ErrorIs(t, err, enrollment.ErrStudentNotFound)
}

func TestRegisterPayment_ConditionalUpdate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	req := seedRequest(t, st)
	student := seedStudent(t, st, req.ID)

	paidOn := billing.NewDate(2024, time.June, 15)
	require.NoError(t, st.RegisterPayment(ctx, student.ID, 3, paidOn))

	got, err := st.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	third := got.Installments[2]
	assert.Equal(t, billing.StatusPaid, third.Status)
	require.NotNil(t, third.PaymentDate)
	assert.Equal(t, "2024-06-15", third.PaymentDate.String())

	// Second registration loses the compare-and-swap.
	err = st.RegisterPayment(ctx, student.ID, 3, paidOn)
	assert.ErrorIs(t, err, billing.ErrAlreadyPaid)

	err = st.RegisterPayment(ctx, student.ID, 99, paidOn)
	assert.ErrorIs(t, err, billing.ErrInstallmentNotFound)

	err = st.RegisterPayment(ctx, "missing", 1, paidOn)
	assert.ErrorIs(t, err, enrollment.ErrStudentNotFound)
}

func TestSetSignedContractURL(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	req := seedRequest(t, st)
	student := seedStudent(t, st, req.ID)

	url := "/files/contracts/" + student.ID + "/contrato.pdf"
	require.NoError(t, st.SetSignedContractURL(ctx, student.ID, url))

	got, err := st.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, url, got.SignedContractURL)

	assert.ErrorIs(t, st.SetSignedContractURL(ctx, "missing", url), enrollment.ErrStudentNotFound)
}

func TestAdminAccounts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	admin := &sqlite.Admin{
		ID:           uuid.NewString(),
		Name:         "Wilma",
		Email:        "Admin@Example.com",
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
	}
	require.NoError(t, st.CreateAdmin(ctx, admin))

	// Email lookup is case-insensitive.
	got, err := st.FindAdminByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)

	_, err = st.FindAdminByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, sqlite.ErrAdminNotFound)
}
