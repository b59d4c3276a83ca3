package enrollment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vanline/transport/billing"
)

// =============================================================================
// FINANCE SUMMARY - Fleet-wide derived totals
// =============================================================================

// Summary aggregates resolved installment state across all students. All
// figures are derived at read time from the same projection the student
// views use; nothing here is persisted.
type Summary struct {
	Students int

	OpenCount    int
	PaidCount    int
	OverdueCount int

	OpenTotal    decimal.Decimal
	PaidTotal    decimal.Decimal
	OverdueTotal decimal.Decimal

	// LateFeeTotal is the accrued fees on currently overdue installments.
	LateFeeTotal decimal.Decimal
}

// OverdueItem is one overdue installment, flattened for reminder digests.
type OverdueItem struct {
	StudentID   string
	StudentName string
	Guardian    string
	Sequence    int
	Period      billing.PeriodKey
	DueDate     billing.Date
	Amount      decimal.Decimal
	LateFee     decimal.Decimal
}

// Summarize computes the fleet financial summary as of today.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return Summary{}, err
	}

	today := s.now()
	sum := Summary{
		Students:     len(students),
		OpenTotal:    decimal.Zero,
		PaidTotal:    decimal.Zero,
		OverdueTotal: decimal.Zero,
		LateFeeTotal: decimal.Zero,
	}

	for _, st := range students {
		for _, in := range st.ResolvedView(today) {
			switch in.Status {
			case billing.StatusPaid:
				sum.PaidCount++
				sum.PaidTotal = sum.PaidTotal.Add(in.Amount)
			case billing.StatusOverdue:
				sum.OverdueCount++
				sum.OverdueTotal = sum.OverdueTotal.Add(in.Amount)
				sum.LateFeeTotal = sum.LateFeeTotal.Add(in.LateFee)
			default:
				sum.OpenCount++
				sum.OpenTotal = sum.OpenTotal.Add(in.Amount)
			}
		}
	}
	return sum, nil
}

// Overdue returns every currently overdue installment across all students,
// ordered as stored (students newest-first, installments by sequence).
// Read-only: the reminder job built on this never writes status.
func (s *Service) Overdue(ctx context.Context) ([]OverdueItem, error) {
	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now()
	var items []OverdueItem
	for _, st := range students {
		for _, in := range st.ResolvedView(today) {
			if in.Status != billing.StatusOverdue {
				continue
			}
			items = append(items, OverdueItem{
				StudentID:   st.ID,
				StudentName: st.Name,
				Guardian:    st.GuardianName,
				Sequence:    in.Sequence,
				Period:      in.Period,
				DueDate:     in.DueDate,
				Amount:      in.Amount,
				LateFee:     in.LateFee,
			})
		}
	}
	return items, nil
}

func decimalFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}
