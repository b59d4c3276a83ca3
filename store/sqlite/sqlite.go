/*
Package sqlite provides the SQLite-backed persistence collaborator.

PURPOSE:
  Implements enrollment.Store plus the admin credential lookup used by the
  API auth layer. The same patterns apply to PostgreSQL; only minor SQL
  dialect differences.

KEY TABLES:
  enrollment_requests: guardian applications (students embedded as JSON,
                       they have no identity until approval)
  students:            enrolled students with their contract terms
  installments:        one row per scheduled payment, keyed (student, seq)
  admins:              administrator credentials (bcrypt hashes)

DERIVED STATUS:
  The installments.status column only ever holds 'open' or 'paid'.
  Overdue-ness is a read-time projection computed by the billing package;
  persisting it would require a background job to keep it fresh.

PAYMENT ATOMICITY:
  RegisterPayment is a single conditional UPDATE guarded by
  status != 'paid'. Two concurrent registrations of the same installment
  cannot clobber each other: exactly one succeeds, the other sees
  billing.ErrAlreadyPaid.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

SEE ALSO:
  - enrollment/store.go: interface definition
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vanline/transport/billing"
	"github.com/vanline/transport/enrollment"
)

// Store implements enrollment.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS enrollment_requests (
		id TEXT PRIMARY KEY,
		guardian_name TEXT NOT NULL,
		guardian_cpf TEXT NOT NULL,
		guardian_email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		students_json TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON enrollment_requests(status);
	CREATE INDEX IF NOT EXISTS idx_requests_created
		ON enrollment_requests(created_at DESC);

	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		request_id TEXT NOT NULL,
		name TEXT NOT NULL,
		school TEXT NOT NULL,
		shift TEXT NOT NULL,
		guardian_name TEXT NOT NULL,
		guardian_cpf TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		annual_value TEXT NOT NULL,
		installment_count INTEGER NOT NULL,
		monthly_value TEXT NOT NULL,
		due_day INTEGER NOT NULL,
		late_fee_percent TEXT NOT NULL,
		start_date TEXT NOT NULL,
		signed_contract_url TEXT NOT NULL DEFAULT '',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_request
		ON students(request_id);
	CREATE INDEX IF NOT EXISTS idx_students_created
		ON students(created_at DESC);

	-- One row per scheduled payment. status holds only 'open' or 'paid';
	-- overdue is derived at read time.
	CREATE TABLE IF NOT EXISTS installments (
		student_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		period TEXT NOT NULL,
		due_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		payment_date TEXT,
		PRIMARY KEY (student_id, seq),
		FOREIGN KEY (student_id) REFERENCES students(id)
	);

	CREATE INDEX IF NOT EXISTS idx_installments_status
		ON installments(status);

	CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENROLLMENT REQUESTS
// =============================================================================

func (s *Store) CreateRequest(ctx context.Context, req *enrollment.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	studentsJSON, err := json.Marshal(req.Students)
	if err != nil {
		return fmt.Errorf("encode students: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enrollment_requests
		(id, guardian_name, guardian_cpf, guardian_email, phone, address, students_json, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.GuardianName, req.GuardianCPF, req.GuardianEmail,
		req.Phone, req.Address, string(studentsJSON), req.Status,
		req.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

func (s *Store) ListRequests(ctx context.Context, status enrollment.RequestStatus) ([]enrollment.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, guardian_name, guardian_cpf, guardian_email, phone, address, students_json, status, created_at
		FROM enrollment_requests`
	args := []any{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []enrollment.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, id string) (*enrollment.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, guardian_name, guardian_cpf, guardian_email, phone, address, students_json, status, created_at
		FROM enrollment_requests WHERE id = ?`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, enrollment.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateRequestStatus flips a pending request; the status guard in the
// WHERE clause makes concurrent approve/reject race-safe.
func (s *Store) UpdateRequestStatus(ctx context.Context, id string, status enrollment.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE enrollment_requests SET status = ?
		WHERE id = ? AND status = 'pending'`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update request status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM enrollment_requests WHERE id = ?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return enrollment.ErrRequestNotFound
		}
		return enrollment.ErrRequestClosed
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (enrollment.Request, error) {
	var (
		req          enrollment.Request
		studentsJSON string
		createdAt    string
	)
	err := row.Scan(&req.ID, &req.GuardianName, &req.GuardianCPF, &req.GuardianEmail,
		&req.Phone, &req.Address, &studentsJSON, &req.Status, &createdAt)
	if err == sql.ErrNoRows {
		return req, err
	}
	if err != nil {
		return req, fmt.Errorf("failed to scan request: %w", err)
	}

	if err := json.Unmarshal([]byte(studentsJSON), &req.Students); err != nil {
		return req, fmt.Errorf("decode students: %w", err)
	}
	req.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return req, nil
}

// =============================================================================
// STUDENTS & INSTALLMENTS
// =============================================================================

// CreateStudent writes the student row and its full schedule atomically.
func (s *Store) CreateStudent(ctx context.Context, st *enrollment.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO students
		(id, request_id, name, school, shift, guardian_name, guardian_cpf, phone, address,
		 annual_value, installment_count, monthly_value, due_day, late_fee_percent, start_date,
		 signed_contract_url, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.RequestID, st.Name, st.School, st.Shift,
		st.GuardianName, st.GuardianCPF, st.Phone, st.Address,
		st.Contract.AnnualValue.String(), st.Contract.InstallmentCount,
		st.Contract.MonthlyValue.String(), st.Contract.DueDay,
		st.Contract.LateFeePercent.String(), st.Contract.StartDate.String(),
		st.SignedContractURL, st.Active, st.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create student: %w", err)
	}

	for _, in := range st.Installments {
		var paymentDate any
		if in.PaymentDate != nil {
			paymentDate = in.PaymentDate.String()
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO installments (student_id, seq, period, due_date, amount, status, payment_date)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			st.ID, in.Sequence, in.Period.String(), in.DueDate.String(),
			in.Amount.String(), durableStatus(in.Status), paymentDate,
		)
		if err != nil {
			return fmt.Errorf("failed to create installment %d: %w", in.Sequence, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ListStudents(ctx context.Context) ([]enrollment.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectStudents+" ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var students []enrollment.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range students {
		if students[i].Installments, err = s.loadSchedule(ctx, students[i].ID); err != nil {
			return nil, err
		}
	}
	return students, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*enrollment.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, selectStudents+" WHERE id = ?", id)
	st, err := scanStudent(row)
	if err == sql.ErrNoRows {
		return nil, enrollment.ErrStudentNotFound
	}
	if err != nil {
		return nil, err
	}

	if st.Installments, err = s.loadSchedule(ctx, st.ID); err != nil {
		return nil, err
	}
	return &st, nil
}

// RegisterPayment performs the paid transition as a single conditional
// update. The status guard is the compare-and-swap: a concurrent
// registration of the same installment loses and gets ErrAlreadyPaid
// instead of silently overwriting.
func (s *Store) RegisterPayment(ctx context.Context, studentID string, seq int, paidOn billing.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE installments
		SET status = 'paid', payment_date = ?
		WHERE student_id = ? AND seq = ? AND status != 'paid'`,
		paidOn.String(), studentID, seq)
	if err != nil {
		return fmt.Errorf("failed to register payment: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx,
		"SELECT status FROM installments WHERE student_id = ? AND seq = ?",
		studentID, seq).Scan(&status)
	if err == sql.ErrNoRows {
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM students WHERE id = ?", studentID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return enrollment.ErrStudentNotFound
		}
		return billing.ErrInstallmentNotFound
	}
	if err != nil {
		return err
	}
	return billing.ErrAlreadyPaid
}

func (s *Store) SetSignedContractURL(ctx context.Context, studentID, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE students SET signed_contract_url = ? WHERE id = ?", url, studentID)
	if err != nil {
		return fmt.Errorf("failed to set contract url: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return enrollment.ErrStudentNotFound
	}
	return nil
}

const selectStudents = `
	SELECT id, request_id, name, school, shift, guardian_name, guardian_cpf, phone, address,
	       annual_value, installment_count, monthly_value, due_day, late_fee_percent, start_date,
	       signed_contract_url, active, created_at
	FROM students`

func scanStudent(row rowScanner) (enrollment.Student, error) {
	var (
		st        enrollment.Student
		annual    string
		monthly   string
		lateFee   string
		startDate string
		createdAt string
	)
	err := row.Scan(&st.ID, &st.RequestID, &st.Name, &st.School, &st.Shift,
		&st.GuardianName, &st.GuardianCPF, &st.Phone, &st.Address,
		&annual, &st.Contract.InstallmentCount, &monthly, &st.Contract.DueDay,
		&lateFee, &startDate, &st.SignedContractURL, &st.Active, &createdAt)
	if err == sql.ErrNoRows {
		return st, err
	}
	if err != nil {
		return st, fmt.Errorf("failed to scan student: %w", err)
	}

	if st.Contract.AnnualValue, err = decimal.NewFromString(annual); err != nil {
		return st, fmt.Errorf("decode annual value: %w", err)
	}
	if st.Contract.MonthlyValue, err = decimal.NewFromString(monthly); err != nil {
		return st, fmt.Errorf("decode monthly value: %w", err)
	}
	if st.Contract.LateFeePercent, err = decimal.NewFromString(lateFee); err != nil {
		return st, fmt.Errorf("decode late fee: %w", err)
	}
	if st.Contract.StartDate, err = billing.ParseDate(startDate); err != nil {
		return st, err
	}
	st.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return st, nil
}

func (s *Store) loadSchedule(ctx context.Context, studentID string) ([]billing.Installment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, period, due_date, amount, status, payment_date
		FROM installments WHERE student_id = ? ORDER BY seq ASC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query installments: %w", err)
	}
	defer rows.Close()

	var schedule []billing.Installment
	for rows.Next() {
		var (
			in          billing.Installment
			period      string
			dueDate     string
			amount      string
			status      string
			paymentDate sql.NullString
		)
		if err := rows.Scan(&in.Sequence, &period, &dueDate, &amount, &status, &paymentDate); err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}

		if in.Period, err = billing.ParsePeriodKey(period); err != nil {
			return nil, err
		}
		if in.DueDate, err = billing.ParseDate(dueDate); err != nil {
			return nil, err
		}
		if in.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		in.LateFee = decimal.Zero
		in.Status = billing.Status(status)
		if paymentDate.Valid && paymentDate.String != "" {
			d, err := billing.ParseDate(paymentDate.String)
			if err != nil {
				return nil, err
			}
			in.PaymentDate = &d
		}
		schedule = append(schedule, in)
	}
	return schedule, rows.Err()
}

// durableStatus maps a possibly-resolved status back to what the store
// persists: overdue is derived, never written.
func durableStatus(st billing.Status) billing.Status {
	if st == billing.StatusPaid {
		return billing.StatusPaid
	}
	return billing.StatusOpen
}

// =============================================================================
// ADMINS
// =============================================================================

// Admin is an administrator account able to operate the service.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// ErrAdminNotFound is returned when no admin matches a login email.
var ErrAdminNotFound = errors.New("admin not found")

// CreateAdmin inserts an administrator account.
func (s *Store) CreateAdmin(ctx context.Context, admin *Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		admin.ID, admin.Name, strings.ToLower(admin.Email),
		admin.PasswordHash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// FindAdminByEmail returns the admin account for a login email.
func (s *Store) FindAdminByEmail(ctx context.Context, email string) (*Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		admin     Admin
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM admins WHERE email = ?`, strings.ToLower(email)).
		Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrAdminNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find admin: %w", err)
	}
	admin.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &admin, nil
}
