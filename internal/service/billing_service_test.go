package service

import (
	"sync"
	"testing"
	"time"

	"subshare-be/internal/dto"
	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenewalAndRepricingScenario(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	assert.Equal(t, "13.98", instance.MonthlyUnitPrice)

	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	assert.Equal(t, "pending", created.Subscription.Status)

	first := created.FirstCharge
	assertSameTime(t, date(2024, 1, 1), first.PeriodStart)
	assertSameTime(t, date(2024, 2, 1), first.PeriodEnd)
	assert.Equal(t, "13.98", first.Amount)
	assert.Equal(t, "pending", first.Status)

	paid := env.confirm(t, first.Id, "pix", "pay_001")
	assert.Equal(t, "active", paid.Subscription.Status)
	assert.Equal(t, "paid", paid.Charge.Status)

	env.clock.Set(date(2024, 1, 28))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	require.Equal(t, 1, report.Created)
	renewal := report.Charges[0]
	assertSameTime(t, date(2024, 2, 1), renewal.PeriodStart)
	assertSameTime(t, date(2024, 3, 1), renewal.PeriodEnd)
	assert.Equal(t, "13.98", renewal.Amount)
	assert.Equal(t, "pending", renewal.Status)

	again, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 1, again.Skipped)
	assert.Len(t, env.charges(t, created.Subscription.Id), 2)

	adjusted, err := env.billing.AdjustPendingCharges(env.ctx, env.accountId, instance.Id, dec("15.00"))
	require.NoError(t, err)
	assert.Equal(t, 1, adjusted.UpdatedCharges)
	assert.Equal(t, 1, adjusted.UpdatedSubscriptions)
	assert.Equal(t, "13.98", adjusted.OldMonthlyUnitPrice)

	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, 2)
	assert.Equal(t, "paid", charges[0].Status)
	assert.Equal(t, "13.98", charges[0].Amount)
	assert.Equal(t, "pending", charges[1].Status)
	assert.Equal(t, "15.00", charges[1].Amount)

	assert.Len(t, env.recorder.OfType(events.TypeChargeCreated), 1)
	assert.Len(t, env.recorder.OfType(events.TypePriceAdjusted), 1)
}

func TestRunRenewalSweep_OutsideWindowCreatesNothing(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)

	env.clock.Set(date(2024, 1, 26))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Equal(t, 1, report.Skipped)
}

func TestRunRenewalSweep_IgnoresPendingSubscriptions(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	env.clock.Set(date(2024, 1, 30))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned)
	assert.Equal(t, 0, report.Created)
}

func TestRunRenewalSweep_ChainIsContiguousAndDoesNotDrift(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 31))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 31), true)

	wantEnds := []time.Time{
		date(2024, 2, 29),
		date(2024, 3, 31),
		date(2024, 4, 30),
		date(2024, 5, 31),
		date(2024, 6, 30),
	}
	latestEnd := created.FirstCharge.PeriodEnd
	for _, want := range wantEnds {
		assertSameTime(t, want, latestEnd)
		env.clock.Set(latestEnd.Add(-24 * time.Hour))
		report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
		require.NoError(t, err)
		require.Equal(t, 1, report.Created)
		latestEnd = report.Charges[0].PeriodEnd
	}

	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, len(wantEnds)+1)
	for i := 1; i < len(charges); i++ {
		assertSameTime(t, charges[i-1].PeriodEnd, charges[i].PeriodStart)
	}
}

func TestRunRenewalSweep_QuarterlyUsesCurrentPrice(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "quarterly", date(2024, 1, 1), true)
	assert.Equal(t, "41.94", created.FirstCharge.Amount)
	assertSameTime(t, date(2024, 4, 1), created.FirstCharge.PeriodEnd)

	_, err := env.billing.AdjustPendingCharges(env.ctx, env.accountId, instance.Id, dec("15.00"))
	require.NoError(t, err)

	env.clock.Set(date(2024, 3, 29))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)
	assert.Equal(t, "45.00", report.Charges[0].Amount)
	assertSameTime(t, date(2024, 7, 1), report.Charges[0].PeriodEnd)

	charges := env.charges(t, created.Subscription.Id)
	assert.Equal(t, "41.94", charges[0].Amount)
}

func TestRunRenewalSweep_SkipsScheduledCancellation(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)

	env.clock.Set(date(2024, 1, 10))
	_, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{})
	require.NoError(t, err)

	env.clock.Set(date(2024, 1, 28))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created)
	assert.Len(t, env.charges(t, created.Subscription.Id), 1)
}

func TestRunRenewalSweep_ScopedToAccount(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	mine := env.newInstance(t)
	env.newSubscription(t, mine.Id, "monthly", date(2024, 1, 1), true)

	owner := env.accountId
	env.accountId = uuid.New()
	theirs := env.newInstance(t)
	env.newSubscription(t, theirs.Id, "monthly", date(2024, 1, 1), true)

	env.clock.Set(date(2024, 1, 28))
	report, err := env.billing.RunRenewalSweep(env.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Created)

	report, err = env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Created)
}

func TestRunRenewalSweep_ConcurrentSweepsCreateOneCharge(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)
	env.clock.Set(date(2024, 1, 28))

	var wg sync.WaitGroup
	reports := make([]*dto.SweepReport, 4)
	for i := range reports {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
			assert.NoError(t, err)
			reports[i] = report
		}(i)
	}
	wg.Wait()

	total := 0
	for _, r := range reports {
		require.NotNil(t, r)
		assert.Equal(t, 0, r.Failed)
		total += r.Created
	}
	assert.Equal(t, 1, total)
	assert.Len(t, env.charges(t, created.Subscription.Id), 2)
}

func TestAdjustPendingCharges_Validation(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)

	_, err := env.billing.AdjustPendingCharges(env.ctx, env.accountId, instance.Id, dec("0"))
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput))

	_, err = env.billing.AdjustPendingCharges(env.ctx, uuid.New(), instance.Id, dec("15.00"))
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestAdjustPendingCharges_LeavesCanceledSubscriptionsAlone(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)

	_, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)

	res, err := env.billing.AdjustPendingCharges(env.ctx, env.accountId, instance.Id, dec("20.00"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.UpdatedSubscriptions)
	assert.Equal(t, 0, res.UpdatedCharges)

	sub, err := env.subs.Get(env.ctx, env.accountId, created.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "13.98", sub.MonthlyUnitPrice)
}

func TestCreateInitialCharge(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	_, err := env.billing.CreateInitialCharge(env.ctx, env.accountId, created.Subscription.Id)
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput), "second initial charge must be rejected")

	_, err = env.billing.CreateInitialCharge(env.ctx, env.accountId, uuid.New())
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestCreateInitialCharge_PrepaidIsPaidAtStart(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "semiannual", date(2024, 1, 15), true)

	assert.Equal(t, "active", created.Subscription.Status)
	first := created.FirstCharge
	assert.Equal(t, "paid", first.Status)
	assert.Equal(t, "83.88", first.Amount)
	require.NotNil(t, first.PaymentMethod)
	assert.Equal(t, "manual", *first.PaymentMethod)
	require.NotNil(t, first.PaymentDate)
	assertSameTime(t, date(2024, 1, 15), *first.PaymentDate)
	assertSameTime(t, date(2024, 7, 15), first.PeriodEnd)
}

func TestConfirmPayment_CardCreditIsHeld(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	res := env.confirm(t, created.FirstCharge.Id, "card", "ch_123")
	require.NotNil(t, res.Credit)
	assert.Equal(t, "13.98", res.Credit.Amount)
	assert.Equal(t, "pending", res.Credit.Status)

	balance, err := env.wallet.ComputeBalances(env.ctx, env.accountId)
	require.NoError(t, err)
	assert.Equal(t, "0.00", balance.Available)
	assert.Equal(t, "13.28", balance.Pending)

	env.clock.Advance(entity.HoldingWindowCard)
	balance, err = env.wallet.ComputeBalances(env.ctx, env.accountId)
	require.NoError(t, err)
	assert.Equal(t, "13.28", balance.Available)
	assert.Equal(t, "0.00", balance.Pending)
}

func TestConfirmPayment_ManualWritesNoLedger(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	res := env.confirm(t, created.FirstCharge.Id, "manual", "")
	assert.Nil(t, res.Credit)
	assert.Empty(t, env.ledger(t, env.accountId))
}

func TestConfirmPayment_Rejections(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	_, err := env.billing.ConfirmPayment(env.ctx, env.accountId, created.FirstCharge.Id, &dto.ConfirmPaymentRequest{Method: "pix"})
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput), "gateway methods need a reference")

	_, err = env.billing.ConfirmPayment(env.ctx, uuid.New(), created.FirstCharge.Id, &dto.ConfirmPaymentRequest{Method: "manual"})
	assert.True(t, apperror.Is(err, apperror.ErrNotFound), "other organizers cannot see the charge")

	env.confirm(t, created.FirstCharge.Id, "pix", "pay_1")
	_, err = env.billing.ConfirmPayment(env.ctx, env.accountId, created.FirstCharge.Id, &dto.ConfirmPaymentRequest{Method: "pix", GatewayReference: "pay_2"})
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput), "paid charges cannot be confirmed twice")
}

func TestListCharges_ReportsOverdue(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	env.clock.Set(date(2024, 2, 2))
	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, 1)
	assert.Equal(t, "overdue", charges[0].Status)
}
