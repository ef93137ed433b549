package service

import (
	"context"
	"errors"
	"testing"

	"subshare-be/internal/dto"
	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/pkg/logger"
	"subshare-be/pkg/events"
	"subshare-be/pkg/gateway"
	"subshare-be/pkg/gateway/fake"
	"subshare-be/pkg/notification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreate_RejectsSecondOpenSubscription(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	req := &dto.CreateSubscriptionRequest{
		ParticipantId:     uuid.New(),
		ServiceInstanceId: instance.Id,
		Frequency:         "monthly",
		StartDate:         date(2024, 1, 1),
		Prepaid:           true,
	}

	first, err := env.subs.Create(env.ctx, env.accountId, req)
	require.NoError(t, err)

	_, err = env.subs.Create(env.ctx, env.accountId, req)
	assert.True(t, apperror.Is(err, apperror.ErrDuplicateSubscription))

	_, err = env.subs.Cancel(env.ctx, env.accountId, first.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)

	again, err := env.subs.Create(env.ctx, env.accountId, req)
	require.NoError(t, err, "a canceled subscription frees the slot")
	assert.NotEqual(t, first.Subscription.Id, again.Subscription.Id)
}

func TestCreate_Validation(t *testing.T) {
	env := newTestEnv(t, date(2024, 6, 1))
	instance := env.newInstance(t)
	zero := dec("0")

	tests := []struct {
		name string
		req  dto.CreateSubscriptionRequest
		want error
	}{
		{
			name: "unknown frequency",
			req:  dto.CreateSubscriptionRequest{Frequency: "weekly", StartDate: date(2024, 6, 1)},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "missing participant",
			req:  dto.CreateSubscriptionRequest{Frequency: "monthly", StartDate: date(2024, 6, 1), ParticipantId: uuid.Nil},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "start date too far ahead",
			req:  dto.CreateSubscriptionRequest{Frequency: "monthly", StartDate: date(2025, 6, 10)},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "start date too far back",
			req:  dto.CreateSubscriptionRequest{Frequency: "monthly", StartDate: date(2023, 5, 1)},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "zero price",
			req:  dto.CreateSubscriptionRequest{Frequency: "monthly", StartDate: date(2024, 6, 1), MonthlyUnitPrice: &zero},
			want: apperror.ErrInvalidInput,
		},
		{
			name: "unknown service instance",
			req:  dto.CreateSubscriptionRequest{Frequency: "monthly", StartDate: date(2024, 6, 1), ServiceInstanceId: uuid.New()},
			want: apperror.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			if req.ParticipantId == uuid.Nil && tt.name != "missing participant" {
				req.ParticipantId = uuid.New()
			}
			if req.ServiceInstanceId == uuid.Nil {
				req.ServiceInstanceId = instance.Id
			}
			_, err := env.subs.Create(env.ctx, env.accountId, &req)
			assert.True(t, apperror.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCreate_OtherOrganizersInstanceIsNotFound(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)

	_, err := env.subs.Create(env.ctx, uuid.New(), &dto.CreateSubscriptionRequest{
		ParticipantId:     uuid.New(),
		ServiceInstanceId: instance.Id,
		Frequency:         "monthly",
		StartDate:         date(2024, 1, 1),
	})
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestCreate_PublishesEventWithFirstCharge(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	custom := dec("20")

	res, err := env.subs.Create(env.ctx, env.accountId, &dto.CreateSubscriptionRequest{
		ParticipantId:     uuid.New(),
		ServiceInstanceId: instance.Id,
		Frequency:         "annual",
		StartDate:         date(2024, 1, 1),
		MonthlyUnitPrice:  &custom,
	})
	require.NoError(t, err)
	assert.Equal(t, "20.00", res.Subscription.MonthlyUnitPrice)
	assert.Equal(t, "240.00", res.FirstCharge.Amount)
	assertSameTime(t, date(2025, 1, 1), res.FirstCharge.PeriodEnd)

	created := env.recorder.OfType(events.TypeSubscriptionCreated)
	require.Len(t, created, 1)
	assert.Equal(t, res.Subscription.Id, created[0].Payload()["subscription_id"])
}

func TestCancel_ScheduledAtEndOfPaidPeriod(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	env.confirm(t, created.FirstCharge.Id, "pix", "pay_1")

	env.clock.Set(date(2024, 1, 10))
	res, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{
		Reason:     "moving out",
		CanceledBy: "participant",
	})
	require.NoError(t, err)

	assert.Equal(t, entity.CancellationScheduled, res.Outcome)
	assert.Equal(t, "active", res.Subscription.Status)
	assertSameTime(t, date(2024, 2, 1), res.AccessUntil)
	require.NotNil(t, res.Subscription.CancellationDate)
	assertSameTime(t, date(2024, 2, 1), *res.Subscription.CancellationDate)
	require.NotNil(t, res.Subscription.CancellationReason)
	assert.Equal(t, "moving out", *res.Subscription.CancellationReason)
	assert.Nil(t, res.Refund)
	assert.Empty(t, env.gateway.RefundCalls())

	canceled := env.recorder.OfType(events.TypeSubscriptionCanceled)
	require.Len(t, canceled, 1)
	assert.Equal(t, entity.CancellationScheduled, canceled[0].Payload()["mode"])
}

func TestCancel_ImmediateRefundsLastPayment(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	env.confirm(t, created.FirstCharge.Id, "pix", "pay_1")

	balance, err := env.wallet.ComputeBalances(env.ctx, env.accountId)
	require.NoError(t, err)
	assert.Equal(t, "13.28", balance.Available)

	env.clock.Set(date(2024, 1, 10))
	res, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)

	assert.Equal(t, entity.CancellationImmediate, res.Outcome)
	assert.Equal(t, "canceled", res.Subscription.Status)
	assertSameTime(t, date(2024, 1, 10), res.AccessUntil)
	require.NotNil(t, res.Refund)
	assert.True(t, res.Refund.Succeeded)
	assert.Equal(t, "rf_1", res.Refund.Reference)
	assert.Empty(t, res.Warnings)

	calls := env.gateway.RefundCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "pay_1", calls[0].Reference)
	assert.Equal(t, "refund-"+created.FirstCharge.Id.String(), calls[0].IdempotencyKey)
	assert.True(t, calls[0].Amount.Equal(dec("13.98")))

	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, 1)
	assert.Equal(t, "refunded", charges[0].Status)
	assert.Equal(t, "rf_1", charges[0].Metadata[entity.MetaRefundReference])

	var reversals int
	for _, row := range env.ledger(t, env.accountId) {
		if row.Kind == entity.WalletKindRefundReversal {
			reversals++
			assert.True(t, row.Amount.Equal(dec("-13.98")))
		}
	}
	assert.Equal(t, 1, reversals)

	balance, err = env.wallet.ComputeBalances(env.ctx, env.accountId)
	require.NoError(t, err)
	assert.Equal(t, "0.00", balance.Available)
	assert.Equal(t, "0.00", balance.Pending)
}

func TestCancel_RefundFailureKeepsCancellation(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	env.confirm(t, created.FirstCharge.Id, "pix", "pay_1")
	env.gateway.SetRefundErr(errors.New("gateway timeout"))

	res, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)

	assert.Equal(t, "canceled", res.Subscription.Status)
	require.NotNil(t, res.Refund)
	assert.True(t, res.Refund.Attempted)
	assert.False(t, res.Refund.Succeeded)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "gateway timeout")

	sub, err := env.subs.Get(env.ctx, env.accountId, created.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "canceled", sub.Status)

	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, 1)
	assert.Equal(t, "paid", charges[0].Status)
	assert.Equal(t, "gateway timeout", charges[0].Metadata[entity.MetaRefundError])
	assert.Contains(t, charges[0].Metadata, entity.MetaRefundFailedAt)

	assert.Len(t, env.recorder.OfType(events.TypeRefundFailed), 1)

	balance, err := env.wallet.ComputeBalances(env.ctx, env.accountId)
	require.NoError(t, err)
	assert.Equal(t, "13.28", balance.Available, "ledger is untouched when the refund fails")
}

// ledgerOutageGateway refunds through the fake provider and then takes the
// ledger table offline, so the refund cannot be recorded.
type ledgerOutageGateway struct {
	*fake.Provider
	db *gorm.DB
}

func (g *ledgerOutageGateway) Refund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	res, err := g.Provider.Refund(ctx, req)
	if err != nil {
		return nil, err
	}
	return res, g.db.Migrator().RenameTable("wallet_transactions", "wallet_transactions_offline")
}

func TestCancel_UnrecordedRefundIsReconciled(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	env.confirm(t, created.FirstCharge.Id, "pix", "pay_1")

	gw := &ledgerOutageGateway{Provider: env.gateway, db: env.db}
	subs := NewSubscriptionService(env.factory, env.billing, env.wallet, gw, notification.NewEventPublisher(env.recorder, logger.NewNopLogger()), env.clock, logger.NewNopLogger())

	env.clock.Set(date(2024, 1, 10))
	res, err := subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)
	assert.Equal(t, "canceled", res.Subscription.Status)
	require.NotNil(t, res.Refund)
	assert.True(t, res.Refund.Succeeded)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "issued but not recorded")

	require.NoError(t, env.db.Migrator().RenameTable("wallet_transactions_offline", "wallet_transactions"))

	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, 1)
	assert.Equal(t, "paid", charges[0].Status)
	assert.Equal(t, "rf_1", charges[0].Metadata[entity.MetaRefundReference])
	assert.Contains(t, charges[0].Metadata, entity.MetaRefundRecordedAt)
	assert.Nil(t, charges[0].Metadata[entity.MetaRefundRecordedAt])

	reconciled, err := subs.ReconcileRefunds(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, reconciled.Reconciled)
	assert.Empty(t, reconciled.Errors)

	charges = env.charges(t, created.Subscription.Id)
	assert.Equal(t, "refunded", charges[0].Status)
	assert.NotNil(t, charges[0].Metadata[entity.MetaRefundRecordedAt])

	var reversals int
	for _, row := range env.ledger(t, env.accountId) {
		if row.Kind == entity.WalletKindRefundReversal {
			reversals++
		}
	}
	assert.Equal(t, 1, reversals)
	assert.Equal(t, "0.00", env.balance(t).Available)

	again, err := subs.ReconcileRefunds(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Reconciled, "reconciled charges are not picked up twice")
	assert.Len(t, env.gateway.RefundCalls(), 1)
}

func TestCancel_ManualPaymentIsNotRefunded(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)

	res, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)
	assert.Nil(t, res.Refund)
	assert.Empty(t, env.gateway.RefundCalls())
}

func TestCancel_PeriodEndWithoutPaidPeriodEndsNow(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	env.confirm(t, created.FirstCharge.Id, "manual", "")

	env.clock.Set(date(2024, 2, 5))
	res, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "period_end"})
	require.NoError(t, err)
	assert.Equal(t, entity.CancellationImmediate, res.Outcome)
	assert.Equal(t, "canceled", res.Subscription.Status)
}

func TestCancel_CancelsPendingChargesOfLostPeriods(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	env.confirm(t, created.FirstCharge.Id, "manual", "")

	env.clock.Set(date(2024, 1, 28))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Created)

	res, err := env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{})
	require.NoError(t, err)
	assert.Equal(t, entity.CancellationScheduled, res.Outcome)
	assert.Equal(t, 1, res.CanceledCharges)

	charges := env.charges(t, created.Subscription.Id)
	require.Len(t, charges, 2)
	assert.Equal(t, "paid", charges[0].Status)
	assert.Equal(t, "canceled", charges[1].Status)
	assert.Contains(t, charges[1].Metadata, entity.MetaCanceledByCancel)
}

func TestCancel_StateErrors(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)

	pending := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)
	_, err := env.subs.Cancel(env.ctx, env.accountId, pending.Subscription.Id, &dto.CancelSubscriptionRequest{})
	assert.True(t, apperror.Is(err, apperror.ErrInvalidStateForCancellation))

	active := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)
	_, err = env.subs.Cancel(env.ctx, env.accountId, active.Subscription.Id, &dto.CancelSubscriptionRequest{})
	require.NoError(t, err)
	_, err = env.subs.Cancel(env.ctx, env.accountId, active.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	assert.True(t, apperror.Is(err, apperror.ErrAlreadyCanceled), "scheduled cancellation counts as canceled")

	_, err = env.subs.Cancel(env.ctx, env.accountId, active.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "later"})
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput))

	_, err = env.subs.Cancel(env.ctx, uuid.New(), active.Subscription.Id, &dto.CancelSubscriptionRequest{})
	assert.True(t, apperror.Is(err, apperror.ErrNotFound))
}

func TestReactivate(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)

	_, err := env.subs.Reactivate(env.ctx, env.accountId, created.Subscription.Id)
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput), "nothing is scheduled yet")

	_, err = env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Reason: "budget"})
	require.NoError(t, err)

	sub, err := env.subs.Reactivate(env.ctx, env.accountId, created.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)
	assert.Nil(t, sub.CancellationDate)
	assert.Nil(t, sub.CancellationReason)
	assert.Len(t, env.recorder.OfType(events.TypeSubscriptionReactivated), 1)

	env.clock.Set(date(2024, 1, 28))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created, "renewals resume after reactivation")

	_, err = env.subs.Cancel(env.ctx, env.accountId, created.Subscription.Id, &dto.CancelSubscriptionRequest{Mode: "now"})
	require.NoError(t, err)
	_, err = env.subs.Reactivate(env.ctx, env.accountId, created.Subscription.Id)
	assert.True(t, apperror.Is(err, apperror.ErrAlreadyFinal))
}

func TestSuspendAndResume(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	created := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)

	sub, err := env.subs.Suspend(env.ctx, env.accountId, created.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "suspended", sub.Status)

	_, err = env.subs.Suspend(env.ctx, env.accountId, created.Subscription.Id)
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput))

	env.clock.Set(date(2024, 1, 28))
	report, err := env.billing.RunRenewalSweep(env.ctx, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Created, "suspended subscriptions are not renewed")

	sub, err = env.subs.Resume(env.ctx, env.accountId, created.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)

	assert.Len(t, env.recorder.OfType(events.TypeSubscriptionSuspended), 1)
	assert.Len(t, env.recorder.OfType(events.TypeSubscriptionResumed), 1)
}

func TestFinalizeScheduledCancellations(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	due := env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)
	later := env.newSubscription(t, instance.Id, "quarterly", date(2024, 1, 1), true)

	for _, id := range []uuid.UUID{due.Subscription.Id, later.Subscription.Id} {
		_, err := env.subs.Cancel(env.ctx, env.accountId, id, &dto.CancelSubscriptionRequest{})
		require.NoError(t, err)
	}

	env.clock.Set(date(2024, 1, 31))
	res, err := env.subs.FinalizeScheduledCancellations(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Finalized)

	env.clock.Set(date(2024, 2, 1))
	res, err = env.subs.FinalizeScheduledCancellations(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Finalized)
	assert.Empty(t, res.Errors)

	sub, err := env.subs.Get(env.ctx, env.accountId, due.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "canceled", sub.Status)
	sub, err = env.subs.Get(env.ctx, env.accountId, later.Subscription.Id)
	require.NoError(t, err)
	assert.Equal(t, "active", sub.Status)

	finalized := env.recorder.OfType(events.TypeSubscriptionCanceled)
	require.NotEmpty(t, finalized)
	assert.Equal(t, entity.CancellationFinalized, finalized[len(finalized)-1].Payload()["mode"])

	res, err = env.subs.FinalizeScheduledCancellations(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Finalized)
}

func TestList_FiltersByStatus(t *testing.T) {
	env := newTestEnv(t, date(2024, 1, 1))
	instance := env.newInstance(t)
	env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), true)
	env.newSubscription(t, instance.Id, "monthly", date(2024, 1, 1), false)

	all, err := env.subs.List(env.ctx, env.accountId, dto.SubscriptionListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := env.subs.List(env.ctx, env.accountId, dto.SubscriptionListQuery{Status: "active"})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "active", active[0].Status)

	others, err := env.subs.List(env.ctx, uuid.New(), dto.SubscriptionListQuery{})
	require.NoError(t, err)
	assert.Empty(t, others)

	_, err = env.subs.List(env.ctx, env.accountId, dto.SubscriptionListQuery{ParticipantId: "nope"})
	assert.True(t, apperror.Is(err, apperror.ErrInvalidInput))
}
