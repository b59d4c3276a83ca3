/*
handlers.go - HTTP API handlers for the transport enrollment system

PURPOSE:
  Exposes the enrollment workflow and billing schedules via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Public:
    POST   /api/requests                  Submit enrollment request
    POST   /api/login                     Administrator login

  Requests (admin):
    GET    /api/requests                  List requests (?status=pending)
    GET    /api/requests/{id}             Get request details
    POST   /api/requests/{id}/approve     Approve with contract terms
    POST   /api/requests/{id}/reject      Reject request

  Students (admin):
    GET    /api/students                  List students, resolved schedules
    GET    /api/students/{id}             Get one student
    POST   /api/students/{id}/payments    Register installment payment
    POST   /api/students/{id}/contract-file  Upload signed contract
    GET    /api/students/{id}/contract-file  Fetch signed contract
    GET    /api/students/{id}/contract.html  Printable contract

  Finance (admin):
    GET    /api/finance/summary           Fleet financial summary

REQUEST FLOW:
  1. Parse HTTP request
  2. Call domain logic (enrollment service, billing engine)
  3. Serialize response
  4. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid contract terms
  - 401: Missing/invalid session token
  - 404: Request/student/installment not found
  - 409: Closed request, installment already paid
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Login and session token verification
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
	"github.com/vanline/transport/storage"
)

// maxUploadBytes caps signed-contract uploads at 10 MB.
const maxUploadBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *enrollment.Service
	Auth    *Authenticator
	Blobs   storage.Blobs
	Log     *logrus.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *enrollment.Service, auth *Authenticator, blobs storage.Blobs, log *logrus.Logger) *Handler {
	return &Handler{
		Service: service,
		Auth:    auth,
		Blobs:   blobs,
		Log:     log,
	}
}

// =============================================================================
// ENROLLMENT REQUEST ENDPOINTS
// =============================================================================

// SubmitRequest accepts a guardian's enrollment request. Public.
// POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var in enrollment.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	req, err := h.Service.Submit(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, err, "Failed to submit request")
		return
	}

	writeJSON(w, http.StatusCreated, toRequestDTO(*req))
}

// ListRequests returns enrollment requests, optionally filtered by status.
// GET /api/requests?status=pending
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	status := enrollment.RequestStatus(r.URL.Query().Get("status"))

	reqs, err := h.Service.ListRequests(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTOs(reqs))
}

// GetRequest returns one enrollment request.
// GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Service.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get request")
		return
	}

	writeJSON(w, http.StatusOK, toRequestDTO(*req))
}

// ApproveRequest approves a pending request with the supplied contract
// terms, creating one student per applicant with a full schedule.
// POST /api/requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var terms enrollment.ContractTerms
	if err := json.NewDecoder(r.Body).Decode(&terms); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	students, err := h.Service.Approve(r.Context(), chi.URLParam(r, "id"), terms)
	if err != nil {
		h.writeDomainError(w, err, "Failed to approve request")
		return
	}

	writeJSON(w, http.StatusOK, toStudentDTOs(students))
}

// RejectRequest rejects a pending request.
// POST /api/requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reject(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, err, "Failed to reject request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(enrollment.RequestRejected)})
}

// =============================================================================
// STUDENT ENDPOINTS
// =============================================================================

// ListStudents returns all students with schedules resolved against today.
// GET /api/students
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Service.ListStudents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list students", err)
		return
	}

	writeJSON(w, http.StatusOK, toStudentDTOs(students))
}

// GetStudent returns one student with a resolved schedule.
// GET /api/students/{id}
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get student")
		return
	}

	writeJSON(w, http.StatusOK, toStudentDTO(*st))
}

// RegisterPayment marks one installment paid and returns the refreshed
// student. Paying an already-paid installment is a conflict, not a no-op.
// POST /api/students/{id}/payments
func (h *Handler) RegisterPayment(w http.ResponseWriter, r *http.Request) {
	var body PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	st, err := h.Service.RegisterPayment(r.Context(), chi.URLParam(r, "id"), body.Sequence)
	if err != nil {
		h.writeDomainError(w, err, "Failed to register payment")
		return
	}

	writeJSON(w, http.StatusOK, toStudentDTO(*st))
}

// UploadContractFile stores the uploaded signed contract and records its
// URL on the student. Multipart form, field "file".
// POST /api/students/{id}/contract-file
func (h *Handler) UploadContractFile(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return
	}
	defer file.Close()

	// Look up first so a bad id fails before anything hits disk.
	if _, err := h.Service.GetStudent(r.Context(), studentID); err != nil {
		h.writeDomainError(w, err, "Failed to get student")
		return
	}

	url, err := h.Blobs.Save(studentID, header.Filename, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store file", err)
		return
	}

	if err := h.Service.AttachSignedContract(r.Context(), studentID, url); err != nil {
		h.writeDomainError(w, err, "Failed to attach contract")
		return
	}

	h.Log.WithFields(logrus.Fields{
		"student_id": studentID,
		"file":       header.Filename,
	}).Info("signed contract uploaded")

	writeJSON(w, http.StatusCreated, UploadResponse{URL: url})
}

// GetContractFile streams the student's uploaded signed contract.
// GET /api/students/{id}/contract-file
func (h *Handler) GetContractFile(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, err, "Failed to get student")
		return
	}
	if st.SignedContractURL == "" {
		writeError(w, http.StatusNotFound, "No signed contract on file", nil)
		return
	}

	f, err := h.Blobs.Open(st.SignedContractURL)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found", nil)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, f)
}

// ServeFile streams a previously uploaded file.
// GET /files/*
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	f, err := h.Blobs.Open(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "File not found", nil)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	io.Copy(w, f)
}

// =============================================================================
// FINANCE ENDPOINTS
// =============================================================================

// GetSummary returns the fleet financial summary as of today.
// GET /api/finance/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Service.Summarize(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute summary", err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryDTO(sum))
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login authenticates an administrator and returns a session token.
// POST /api/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, admin, err := h.Auth.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	h.Log.WithField("admin_id", admin.ID).Info("administrator logged in")

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		Name:  admin.Name,
		Email: admin.Email,
	})
}

// =============================================================================
// ERROR MAPPING & RESPONSE HELPERS
// =============================================================================

// writeDomainError maps domain errors onto HTTP status codes. Anything
// unrecognized is a 500 with the message hidden behind fallback.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var vErrs validator.ValidationErrors

	switch {
	case enrollment.IsNotFound(err), errors.Is(err, billing.ErrInstallmentNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, enrollment.ErrRequestClosed):
		writeError(w, http.StatusConflict, "Request already processed", err)
	case errors.Is(err, billing.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, "Installment already paid", err)
	case errors.As(err, &vErrs), errors.Is(err, enrollment.ErrInvalidTerms), billing.IsConfigError(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	default:
		h.Log.WithError(err).Error(fallback)
		writeError(w, http.StatusInternalServerError, fallback, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
