/*
handlers_test.go - HTTP-level tests for the API

Tests for:
- Public enrollment submission and admin listing
- Auth: login, missing/invalid tokens
- Approval flow creating students with schedules
- Payment registration and double-payment conflict
- Signed contract upload and retrieval
- Printable contract and finance summary
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
	"github.com/vanline/transport/notify"
	"github.com/vanline/transport/storage"
	"github.com/vanline/transport/store/sqlite"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "s3cret-password"
)

type testServer struct {
	router http.Handler
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	service := enrollment.NewService(store, notify.Noop{}, log).
		WithClock(func() billing.Date { return billing.NewDate(2024, time.June, 15) })

	auth := NewAuthenticator(store, "test-secret")
	require.NoError(t, auth.EnsureAdmin(context.Background(), "Admin", testAdminEmail, testAdminPassword))

	blobs, err := storage.NewDisk(t.TempDir(), "/files")
	require.NoError(t, err)

	h := NewHandler(service, auth, blobs, log)
	ts := &testServer{router: NewRouter(h)}
	ts.token = ts.login(t)
	return ts
}

func (ts *testServer) login(t *testing.T) string {
	t.Helper()
	rec := ts.do(t, "POST", "/api/login", "", LoginRequest{
		Email:    testAdminEmail,
		Password: testAdminPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// do issues a JSON request; an empty token leaves the request anonymous.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func submitBody() enrollment.SubmitInput {
	return enrollment.SubmitInput{
		GuardianName: "Maria Souza",
		GuardianCPF:  "12345678901",
		Phone:        "11988887777",
		Address:      "Rua das Flores, 100",
		Students: []enrollment.StudentApplication{
			{Name: "Pedro Souza", School: "EM Monteiro Lobato", Shift: "morning"},
		},
	}
}

func termsBody() enrollment.ContractTerms {
	return enrollment.ContractTerms{
		AnnualValue:      "2400",
		InstallmentCount: 12,
		DueDay:           10,
		LateFeePercent:   "2",
		StartDate:        "2024-01-15",
	}
}

// submitAndApprove drives a request through approval and returns the student.
func (ts *testServer) submitAndApprove(t *testing.T) StudentDTO {
	t.Helper()

	rec := ts.do(t, "POST", "/api/requests", "", submitBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var req RequestDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&req))

	rec = ts.do(t, "POST", "/api/requests/"+req.ID+"/approve", ts.token, termsBody())
	require.Equal(t, http.StatusOK, rec.Code)
	var students []StudentDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&students))
	require.Len(t, students, 1)
	return students[0]
}

func TestSubmitRequest_Public(t *testing.T) {
	ts := newTestServer(t)

	// GIVEN: An anonymous guardian
	// WHEN: Submitting a valid enrollment request
	rec := ts.do(t, "POST", "/api/requests", "", submitBody())

	// THEN: The request is created as pending
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp RequestDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "pending", resp.Status)
	assert.Len(t, resp.Students, 1)
}

func TestSubmitRequest_ValidationError(t *testing.T) {
	ts := newTestServer(t)

	body := submitBody()
	body.GuardianCPF = "123" // too short

	rec := ts.do(t, "POST", "/api/requests", "", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "GET", "/api/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, "GET", "/api/students", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/login", "", LoginRequest{
		Email:    testAdminEmail,
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApproveRequest_CreatesStudentWithSchedule(t *testing.T) {
	ts := newTestServer(t)

	st := ts.submitAndApprove(t)

	assert.Equal(t, "Pedro Souza", st.Name)
	assert.Equal(t, "Maria Souza", st.GuardianName)
	assert.Equal(t, "200.00", st.Contract.MonthlyValue)
	require.Len(t, st.Installments, 12)
	assert.Equal(t, "2024-01", st.Installments[0].Period)
	assert.Equal(t, "2024-01-10", st.Installments[0].DueDate)
}

func TestApproveRequest_TwiceConflicts(t *testing.T) {
	ts := newTestServer(t)

	st := ts.submitAndApprove(t)

	rec := ts.do(t, "POST", "/api/requests/"+st.RequestID+"/approve", ts.token, termsBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApproveRequest_BadTerms(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/requests", "", submitBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var req RequestDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&req))

	terms := termsBody()
	terms.StartDate = "15/01/2024" // wrong format

	rec = ts.do(t, "POST", "/api/requests/"+req.ID+"/approve", ts.token, terms)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterPayment_AndConflictOnDouble(t *testing.T) {
	ts := newTestServer(t)
	st := ts.submitAndApprove(t)

	// WHEN: Paying installment 3
	rec := ts.do(t, "POST", "/api/students/"+st.ID+"/payments", ts.token, PaymentRequest{Sequence: 3})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated StudentDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "paid", updated.Installments[2].Status)
	assert.Equal(t, "2024-06-15", updated.Installments[2].PaymentDate)

	// THEN: Paying it again is a conflict
	rec = ts.do(t, "POST", "/api/students/"+st.ID+"/payments", ts.token, PaymentRequest{Sequence: 3})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// AND: An unknown sequence is not found
	rec = ts.do(t, "POST", "/api/students/"+st.ID+"/payments", ts.token, PaymentRequest{Sequence: 99})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStudent_ResolvesOverdue(t *testing.T) {
	ts := newTestServer(t)
	st := ts.submitAndApprove(t)

	rec := ts.do(t, "GET", "/api/students/"+st.ID, ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got StudentDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))

	// Clock is fixed at 2024-06-15: installments due Jan-Jun 10 are overdue.
	assert.Equal(t, "overdue", got.Installments[0].Status)
	assert.Equal(t, "4.00", got.Installments[0].LateFee)
	assert.Equal(t, "open", got.Installments[6].Status)
}

func TestFinanceSummary(t *testing.T) {
	ts := newTestServer(t)
	st := ts.submitAndApprove(t)

	rec := ts.do(t, "POST", "/api/students/"+st.ID+"/payments", ts.token, PaymentRequest{Sequence: 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "GET", "/api/finance/summary", ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var sum SummaryDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sum))
	assert.Equal(t, 1, sum.Students)
	assert.Equal(t, 1, sum.PaidCount)
	assert.Equal(t, 5, sum.OverdueCount)
	assert.Equal(t, 6, sum.OpenCount)
	assert.Equal(t, "200.00", sum.PaidTotal)
	assert.Equal(t, "20.00", sum.LateFeeTotal)
}

func TestUploadContractFile_RoundTrip(t *testing.T) {
	ts := newTestServer(t)
	st := ts.submitAndApprove(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "contrato-assinado.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 signed"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/students/"+st.ID+"/contract-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var up UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&up))
	assert.Equal(t, fmt.Sprintf("/files/contracts/%s/contrato-assinado.pdf", st.ID), up.URL)

	// The student record now points at the file.
	rec = ts.do(t, "GET", "/api/students/"+st.ID, ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got StudentDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, up.URL, got.SignedContractURL)

	// And the file is retrievable, both directly and via the student route.
	rec = ts.do(t, "GET", up.URL, ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 signed", rec.Body.String())

	rec = ts.do(t, "GET", "/api/students/"+st.ID+"/contract-file", ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 signed", rec.Body.String())
}

func TestGetContractFile_NoneUploaded(t *testing.T) {
	ts := newTestServer(t)
	st := ts.submitAndApprove(t)

	rec := ts.do(t, "GET", "/api/students/"+st.ID+"/contract-file", ts.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPrintContract(t *testing.T) {
	ts := newTestServer(t)
	st := ts.submitAndApprove(t)

	rec := ts.do(t, "GET", "/api/students/"+st.ID+"/contract.html", ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "CONTRATO DE PRESTACAO DE SERVICOS")
	assert.Contains(t, body, "Maria Souza")
	assert.Contains(t, body, "R$ 2.400,00")
	assert.Contains(t, body, "CLAUSULA 7")
}

func TestBRLFormatting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"200", "R$ 200,00"},
		{"2400", "R$ 2.400,00"},
		{"1234567.89", "R$ 1.234.567,89"},
		{"0.5", "R$ 0,50"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, brl(decimal.RequireFromString(tc.in)), "input %s", tc.in)
	}
}

func TestRejectRequest(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "POST", "/api/requests", "", submitBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	var req RequestDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&req))

	rec = ts.do(t, "POST", "/api/requests/"+req.ID+"/reject", ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rejected"))

	// Pending filter no longer returns it.
	rec = ts.do(t, "GET", "/api/requests?status=pending", ts.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []RequestDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Empty(t, list)
}
