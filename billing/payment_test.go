package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanline/transport/billing"
)

func TestMarkPaid(t *testing.T) {
	today := billing.NewDate(2024, time.June, 12)
	in := openInstallment(billing.NewDate(2024, time.June, 10), "200.00")
	in.Status = billing.StatusOverdue
	in.LateFee = money("4.00")

	paid, err := billing.MarkPaid(in, today)
	require.NoError(t, err)

	assert.Equal(t, billing.StatusPaid, paid.Status)
	assert.True(t, paid.LateFee.IsZero(), "fee clears on payment")
	require.NotNil(t, paid.PaymentDate)
	assert.True(t, paid.PaymentDate.Equal(today))
}

func TestMarkPaid_AlreadyPaid(t *testing.T) {
	today := billing.NewDate(2024, time.June, 12)
	in := openInstallment(billing.NewDate(2024, time.June, 10), "200.00")

	paid, err := billing.MarkPaid(in, today)
	require.NoError(t, err)

	_, err = billing.MarkPaid(paid, billing.NewDate(2024, time.June, 13))
	assert.ErrorIs(t, err, billing.ErrAlreadyPaid)
}

func TestFindBySequence(t *testing.T) {
	c := billing.NewContract(money("600"), 3, 10, money("2"), billing.NewDate(2024, time.January, 1))
	schedule := billing.Generate(c)

	in, err := billing.FindBySequence(schedule, 2)
	require.NoError(t, err)
	assert.Equal(t, "2024-02", in.Period.String())

	_, err = billing.FindBySequence(schedule, 4)
	assert.ErrorIs(t, err, billing.ErrInstallmentNotFound)
}
