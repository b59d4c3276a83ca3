package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vanline/transport/billing"
)

// Notifier delivers enrollment notifications. Failures are logged and
// swallowed by the service; notification is best-effort and never blocks
// the workflow.
type Notifier interface {
	RequestApproved(ctx context.Context, to, guardianName string, students []string) error
	RequestRejected(ctx context.Context, to, guardianName string) error
}

// SubmitInput is the guardian-facing submission payload.
type SubmitInput struct {
	GuardianName  string               `json:"guardian_name" validate:"required,min=3"`
	GuardianCPF   string               `json:"guardian_cpf" validate:"required,len=11,numeric"`
	GuardianEmail string               `json:"guardian_email" validate:"omitempty,email"`
	Phone         string               `json:"phone" validate:"required,min=8"`
	Address       string               `json:"address" validate:"required"`
	Students      []StudentApplication `json:"students" validate:"required,min=1,dive"`
}

// ContractTerms is the admin-supplied billing configuration at approval.
type ContractTerms struct {
	AnnualValue      string `json:"annual_value" validate:"required"`
	InstallmentCount int    `json:"installment_count" validate:"required,min=1,max=24"`
	DueDay           int    `json:"due_day" validate:"required,min=1,max=31"`
	LateFeePercent   string `json:"late_fee_percent" validate:"required"`
	StartDate        string `json:"start_date" validate:"required"`
}

// Service orchestrates the enrollment workflow over the store, the billing
// engine, and the notifier.
type Service struct {
	store    Store
	notifier Notifier
	log      *logrus.Logger
	validate *validator.Validate

	// now is swappable in tests; production uses billing.Today.
	now func() billing.Date
}

func NewService(store Store, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		log:      log,
		validate: validator.New(),
		now:      billing.Today,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() billing.Date) *Service {
	s.now = now
	return s
}

// =============================================================================
// REQUEST SUBMISSION & LISTING
// =============================================================================

// Submit validates and persists a new enrollment request as pending.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Request, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid enrollment request: %w", err)
	}

	req := &Request{
		ID:            uuid.NewString(),
		GuardianName:  in.GuardianName,
		GuardianCPF:   in.GuardianCPF,
		GuardianEmail: in.GuardianEmail,
		Phone:         in.Phone,
		Address:       in.Address,
		Students:      in.Students,
		Status:        RequestPending,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": req.ID,
		"students":   len(req.Students),
	}).Info("enrollment request submitted")
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, status RequestStatus) ([]Request, error) {
	return s.store.ListRequests(ctx, status)
}

func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	return s.store.GetRequest(ctx, id)
}

// =============================================================================
// APPROVAL / REJECTION
// =============================================================================

// Approve turns a pending request into active student records. The
// contract is validated, the installment schedule is generated once, in
// full, and every requested student receives its own copy. The request
// flips to approved only after all students are created.
func (s *Service) Approve(ctx context.Context, requestID string, terms ContractTerms) ([]Student, error) {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != RequestPending {
		return nil, ErrRequestClosed
	}

	contract, err := s.buildContract(terms)
	if err != nil {
		return nil, err
	}

	schedule := billing.Generate(contract)
	createdAt := time.Now().UTC()

	students := make([]Student, 0, len(req.Students))
	for _, app := range req.Students {
		st := Student{
			ID:           uuid.NewString(),
			RequestID:    req.ID,
			Name:         app.Name,
			School:       app.School,
			Shift:        app.Shift,
			GuardianName: req.GuardianName,
			GuardianCPF:  req.GuardianCPF,
			Phone:        req.Phone,
			Address:      req.Address,
			Contract:     contract,
			Installments: cloneSchedule(schedule),
			Active:       true,
			CreatedAt:    createdAt,
		}
		if err := s.store.CreateStudent(ctx, &st); err != nil {
			return nil, fmt.Errorf("create student %q: %w", app.Name, err)
		}
		students = append(students, st)
	}

	if err := s.store.UpdateRequestStatus(ctx, req.ID, RequestApproved); err != nil {
		return nil, fmt.Errorf("approve request: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"students":     len(students),
		"installments": len(schedule),
	}).Info("enrollment request approved")

	s.notifyApproved(ctx, req, students)
	return students, nil
}

// Reject flips a pending request to rejected.
func (s *Service) Reject(ctx context.Context, requestID string) error {
	req, err := s.store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status != RequestPending {
		return ErrRequestClosed
	}

	if err := s.store.UpdateRequestStatus(ctx, req.ID, RequestRejected); err != nil {
		return fmt.Errorf("reject request: %w", err)
	}

	s.log.WithField("request_id", req.ID).Info("enrollment request rejected")

	if req.GuardianEmail != "" {
		if err := s.notifier.RequestRejected(ctx, req.GuardianEmail, req.GuardianName); err != nil {
			s.log.WithError(err).Warn("rejection notice not delivered")
		}
	}
	return nil
}

func (s *Service) buildContract(terms ContractTerms) (billing.Contract, error) {
	if err := s.validate.Struct(terms); err != nil {
		return billing.Contract{}, fmt.Errorf("invalid contract terms: %w", err)
	}

	annual, err := decimalFromString(terms.AnnualValue)
	if err != nil {
		return billing.Contract{}, fmt.Errorf("%w: annual value: %v", ErrInvalidTerms, err)
	}
	lateFee, err := decimalFromString(terms.LateFeePercent)
	if err != nil {
		return billing.Contract{}, fmt.Errorf("%w: late fee percent: %v", ErrInvalidTerms, err)
	}
	start, err := billing.ParseDate(terms.StartDate)
	if err != nil {
		return billing.Contract{}, fmt.Errorf("%w: start date: %v", ErrInvalidTerms, err)
	}

	contract := billing.NewContract(annual, terms.InstallmentCount, terms.DueDay, lateFee, start)
	if err := contract.Validate(); err != nil {
		return billing.Contract{}, err
	}
	return contract, nil
}

func (s *Service) notifyApproved(ctx context.Context, req *Request, students []Student) {
	if req.GuardianEmail == "" {
		return
	}
	names := make([]string, len(students))
	for i, st := range students {
		names[i] = st.Name
	}
	if err := s.notifier.RequestApproved(ctx, req.GuardianEmail, req.GuardianName, names); err != nil {
		s.log.WithError(err).Warn("approval notice not delivered")
	}
}

// =============================================================================
// STUDENTS & PAYMENTS
// =============================================================================

// ListStudents returns all students with schedules resolved against today.
func (s *Service) ListStudents(ctx context.Context) ([]Student, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	today := s.now()
	for i := range students {
		students[i].Installments = students[i].ResolvedView(today)
	}
	return students, nil
}

// GetStudent returns one student with a resolved schedule.
func (s *Service) GetStudent(ctx context.Context, id string) (*Student, error) {
	st, err := s.store.GetStudent(ctx, id)
	if err != nil {
		return nil, err
	}
	st.Installments = st.ResolvedView(s.now())
	return st, nil
}

// RegisterPayment marks one installment paid and returns the refreshed
// student. The store performs the transition as an atomic conditional
// update; an installment that was already paid surfaces
// billing.ErrAlreadyPaid rather than silently succeeding.
func (s *Service) RegisterPayment(ctx context.Context, studentID string, seq int) (*Student, error) {
	today := s.now()
	if err := s.store.RegisterPayment(ctx, studentID, seq, today); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"student_id": studentID,
		"sequence":   seq,
		"paid_on":    today.String(),
	}).Info("payment registered")

	return s.GetStudent(ctx, studentID)
}

// AttachSignedContract records the blob-storage URL of the uploaded
// signed contract on the student.
func (s *Service) AttachSignedContract(ctx context.Context, studentID, url string) error {
	if _, err := s.store.GetStudent(ctx, studentID); err != nil {
		return err
	}
	if err := s.store.SetSignedContractURL(ctx, studentID, url); err != nil {
		return fmt.Errorf("attach signed contract: %w", err)
	}
	return nil
}

func cloneSchedule(schedule []billing.Installment) []billing.Installment {
	out := make([]billing.Installment, len(schedule))
	copy(out, schedule)
	return out
}
