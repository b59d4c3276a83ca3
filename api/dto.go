/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
  - enrollment/service.go: SubmitInput / ContractTerms request payloads
*/
package api

import (
	"time"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// RequestDTO represents an enrollment request in API responses.
type RequestDTO struct {
	ID            string                          `json:"id"`
	GuardianName  string                          `json:"guardian_name"`
	GuardianCPF   string                          `json:"guardian_cpf"`
	GuardianEmail string                          `json:"guardian_email,omitempty"`
	Phone         string                          `json:"phone"`
	Address       string                          `json:"address"`
	Students      []enrollment.StudentApplication `json:"students"`
	Status        string                          `json:"status"`
	CreatedAt     string                          `json:"created_at"`
}

// ContractDTO represents contract terms in API responses.
type ContractDTO struct {
	AnnualValue      string `json:"annual_value"`
	InstallmentCount int    `json:"installment_count"`
	MonthlyValue     string `json:"monthly_value"`
	DueDay           int    `json:"due_day"`
	LateFeePercent   string `json:"late_fee_percent"`
	StartDate        string `json:"start_date"`
}

// InstallmentDTO represents one resolved installment.
type InstallmentDTO struct {
	Sequence    int    `json:"sequence"`
	Period      string `json:"period"`
	DueDate     string `json:"due_date"`
	Amount      string `json:"amount"`
	LateFee     string `json:"late_fee"`
	Status      string `json:"status"`
	PaymentDate string `json:"payment_date,omitempty"`
}

// StudentDTO represents an enrolled student with a resolved schedule.
type StudentDTO struct {
	ID                string           `json:"id"`
	RequestID         string           `json:"request_id"`
	Name              string           `json:"name"`
	School            string           `json:"school"`
	Shift             string           `json:"shift"`
	GuardianName      string           `json:"guardian_name"`
	GuardianCPF       string           `json:"guardian_cpf"`
	Phone             string           `json:"phone"`
	Address           string           `json:"address"`
	Contract          ContractDTO      `json:"contract"`
	Installments      []InstallmentDTO `json:"installments"`
	SignedContractURL string           `json:"signed_contract_url,omitempty"`
	Active            bool             `json:"active"`
	CreatedAt         string           `json:"created_at"`
}

// PaymentRequest marks one installment paid.
type PaymentRequest struct {
	Sequence int `json:"sequence"`
}

// SummaryDTO is the fleet financial summary.
type SummaryDTO struct {
	Students     int    `json:"students"`
	OpenCount    int    `json:"open_count"`
	PaidCount    int    `json:"paid_count"`
	OverdueCount int    `json:"overdue_count"`
	OpenTotal    string `json:"open_total"`
	PaidTotal    string `json:"paid_total"`
	OverdueTotal string `json:"overdue_total"`
	LateFeeTotal string `json:"late_fee_total"`
}

// LoginRequest authenticates an administrator.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token.
type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UploadResponse returns the stored file location.
type UploadResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRequestDTO(r enrollment.Request) RequestDTO {
	return RequestDTO{
		ID:            r.ID,
		GuardianName:  r.GuardianName,
		GuardianCPF:   r.GuardianCPF,
		GuardianEmail: r.GuardianEmail,
		Phone:         r.Phone,
		Address:       r.Address,
		Students:      r.Students,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

func toRequestDTOs(reqs []enrollment.Request) []RequestDTO {
	dtos := make([]RequestDTO, len(reqs))
	for i, r := range reqs {
		dtos[i] = toRequestDTO(r)
	}
	return dtos
}

func toContractDTO(c billing.Contract) ContractDTO {
	return ContractDTO{
		AnnualValue:      c.AnnualValue.StringFixed(2),
		InstallmentCount: c.InstallmentCount,
		MonthlyValue:     c.MonthlyValue.StringFixed(2),
		DueDay:           c.DueDay,
		LateFeePercent:   c.LateFeePercent.String(),
		StartDate:        c.StartDate.String(),
	}
}

func toInstallmentDTO(in billing.Installment) InstallmentDTO {
	dto := InstallmentDTO{
		Sequence: in.Sequence,
		Period:   in.Period.String(),
		DueDate:  in.DueDate.String(),
		Amount:   in.Amount.StringFixed(2),
		LateFee:  in.LateFee.StringFixed(2),
		Status:   string(in.Status),
	}
	if in.PaymentDate != nil {
		dto.PaymentDate = in.PaymentDate.String()
	}
	return dto
}

func toStudentDTO(st enrollment.Student) StudentDTO {
	installments := make([]InstallmentDTO, len(st.Installments))
	for i, in := range st.Installments {
		installments[i] = toInstallmentDTO(in)
	}
	return StudentDTO{
		ID:                st.ID,
		RequestID:         st.RequestID,
		Name:              st.Name,
		School:            st.School,
		Shift:             st.Shift,
		GuardianName:      st.GuardianName,
		GuardianCPF:       st.GuardianCPF,
		Phone:             st.Phone,
		Address:           st.Address,
		Contract:          toContractDTO(st.Contract),
		Installments:      installments,
		SignedContractURL: st.SignedContractURL,
		Active:            st.Active,
		CreatedAt:         st.CreatedAt.Format(time.RFC3339),
	}
}

func toStudentDTOs(students []enrollment.Student) []StudentDTO {
	dtos := make([]StudentDTO, len(students))
	for i, st := range students {
		dtos[i] = toStudentDTO(st)
	}
	return dtos
}

func toSummaryDTO(s enrollment.Summary) SummaryDTO {
	return SummaryDTO{
		Students:     s.Students,
		OpenCount:    s.OpenCount,
		PaidCount:    s.PaidCount,
		OverdueCount: s.OverdueCount,
		OpenTotal:    s.OpenTotal.StringFixed(2),
		PaidTotal:    s.PaidTotal.StringFixed(2),
		OverdueTotal: s.OverdueTotal.StringFixed(2),
		LateFeeTotal: s.LateFeeTotal.StringFixed(2),
	}
}
