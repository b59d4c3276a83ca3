/*
Package billing implements the contract billing engine.

PURPOSE:
  This package contains the pure domain logic for monthly installment
  billing: calendar arithmetic, schedule generation from a contract, and
  read-time status resolution (open / paid / overdue with accrued late fee).

KEY CONCEPTS:
  - Date: a calendar date (no time-of-day). All due-date comparisons are
    date-only; "today at 23:59" and "today at midnight" are the same day.
  - PeriodKey: the (year, month) an installment bills for. Unique within a
    schedule, chronologically ordered.
  - Installment: one scheduled monthly payment derived from a Contract.

DESIGN PRINCIPLES:
  1. Purity: generation and resolution are deterministic functions of their
     inputs. Nothing in this package reads the clock or touches storage.
  2. Precision: monetary values use decimal.Decimal, rounded to 2 places
     exactly where the domain says so (monthly value, late fee).
  3. Sticky paid: a paid installment is terminal. Resolution never
     recomputes it away.

SEE ALSO:
  - schedule.go: Contract -> []Installment expansion
  - status.go: read-time status projection
  - payment.go: the one-way paid transition
*/
package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Calendar date without time-of-day
// =============================================================================

// Date is a calendar date at UTC midnight. The zero value is "no date".
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date, time-of-day truncated.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// =============================================================================
// PERIOD KEY - The (year, month) an installment bills for
// =============================================================================

type PeriodKey struct {
	Year  int
	Month time.Month
}

// AddMonths returns the period n whole months after p. n may be negative;
// year rollover is handled in both directions.
func (p PeriodKey) AddMonths(n int) PeriodKey {
	year, month := AddMonths(p.Year, p.Month, n)
	return PeriodKey{Year: year, Month: month}
}

func (p PeriodKey) Next() PeriodKey { return p.AddMonths(1) }

func (p PeriodKey) Before(other PeriodKey) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// String formats as YYYY-MM, which sorts chronologically.
func (p PeriodKey) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriodKey parses a YYYY-MM string.
func ParsePeriodKey(s string) (PeriodKey, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return PeriodKey{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return PeriodKey{Year: t.Year(), Month: t.Month()}, nil
}

// =============================================================================
// CALENDAR ARITHMETIC
// =============================================================================

// AddMonths adds n whole months to (year, month) with correct year rollover
// in both directions.
func AddMonths(year int, month time.Month, n int) (int, time.Month) {
	total := year*12 + int(month) - 1 + n
	y, m := total/12, total%12
	if m < 0 {
		m += 12
		y--
	}
	return y, time.Month(m + 1)
}

// LastDayOfMonth returns the day count (28-31) of the given month,
// accounting for leap years.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}

// ClampDueDay resolves a requested day-of-month against a concrete month so
// the result never overflows into the following month (day 31 in a 30-day
// month resolves to 30, not to the 1st of the next month).
func ClampDueDay(year int, month time.Month, requestedDay int) int {
	if last := LastDayOfMonth(year, month); requestedDay > last {
		return last
	}
	return requestedDay
}

// DueDate builds the clamped due date for a period.
func DueDate(period PeriodKey, dueDay int) Date {
	return NewDate(period.Year, period.Month, ClampDueDay(period.Year, period.Month, dueDay))
}
