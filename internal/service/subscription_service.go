package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"subshare-be/internal/dto"
	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/pkg/clock"
	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/repository/specification"
	"subshare-be/internal/repository/unitofwork"
	"subshare-be/pkg/events"
	"subshare-be/pkg/gateway"
	"subshare-be/pkg/notification"
	"subshare-be/pkg/proration"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

type ISubscriptionService interface {
	Create(ctx context.Context, accountId uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	Cancel(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID, req *dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error)
	Reactivate(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error)
	Suspend(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error)
	Resume(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error)
	FinalizeScheduledCancellations(ctx context.Context) (*dto.FinalizeCancellationsResponse, error)
	ReconcileRefunds(ctx context.Context) (*dto.ReconcileRefundsResponse, error)
	Get(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error)
	List(ctx context.Context, accountId uuid.UUID, q dto.SubscriptionListQuery) ([]*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	billing    IBillingService
	wallet     IWalletService
	gateway    gateway.Provider
	publisher  notification.Publisher
	clock      clock.Clock
	logger     logger.ILogger
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	billing IBillingService,
	wallet IWalletService,
	gw gateway.Provider,
	publisher notification.Publisher,
	clk clock.Clock,
	logger logger.ILogger,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory: uowFactory,
		billing:    billing,
		wallet:     wallet,
		gateway:    gw,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
	}
}

func duplicateSubscription() error {
	return apperror.NewError("open subscription exists for participant and service instance").
		WithHint("participant already has an open subscription for this service").
		Mark(apperror.ErrDuplicateSubscription)
}

func (s *subscriptionService) Create(ctx context.Context, accountId uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	frequency := proration.Frequency(strings.ToLower(req.Frequency))
	if err := frequency.Validate(); err != nil {
		return nil, invalidInput(err.Error())
	}
	if req.ParticipantId == uuid.Nil {
		return nil, invalidInput("participant is required")
	}
	now := s.clock.Now(ctx)
	start := req.StartDate.UTC()
	if start.IsZero() || start.Before(now.Add(-entity.MaxStartDateSkew)) || start.After(now.Add(entity.MaxStartDateSkew)) {
		return nil, invalidInput("start date must be within one year of today")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	instance, err := findServiceInstance(ctx, uow, accountId, req.ServiceInstanceId, false)
	if err != nil {
		return nil, err
	}
	price := instance.MonthlyUnitPrice
	if req.MonthlyUnitPrice != nil {
		price = req.MonthlyUnitPrice.Round(proration.MoneyPlaces)
	}
	if !price.IsPositive() {
		return nil, invalidInput("monthly price must be positive")
	}

	// Checked inside the transaction; the partial unique index closes the
	// remaining window.
	open, err := uow.SubscriptionRepository().Count(ctx,
		specification.ByParticipantID{ParticipantID: req.ParticipantId},
		specification.ByServiceInstanceID{ServiceInstanceID: instance.Id},
		specification.StatusNot{Status: string(entity.SubscriptionStatusCanceled)},
	)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, duplicateSubscription()
	}

	status := entity.SubscriptionStatusPending
	if req.Prepaid {
		status = entity.SubscriptionStatusActive
	}
	sub := &entity.Subscription{
		Id:                uuid.New(),
		ParticipantId:     req.ParticipantId,
		ServiceInstanceId: instance.Id,
		Frequency:         frequency,
		MonthlyUnitPrice:  price,
		Status:            status,
		StartDate:         start,
		Prepaid:           req.Prepaid,
	}
	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateSubscription()
		}
		return nil, err
	}

	charge, err := s.billing.CreateInitialChargeTx(ctx, uow, sub)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateSubscription()
		}
		return nil, err
	}

	s.publisher.PublishSubscriptionCreated(ctx, accountId, sub, charge)
	s.logger.Info("SUBSCRIPTION", "Subscription created", map[string]interface{}{
		"subscription_id":     sub.Id.String(),
		"service_instance_id": instance.Id.String(),
		"status":              string(sub.Status),
	})

	return &dto.CreateSubscriptionResponse{
		Subscription: dto.NewSubscriptionResponse(sub),
		FirstCharge:  dto.NewChargeResponse(charge, now),
	}, nil
}

// Cancel either ends the subscription now or schedules the end at the close
// of the period already paid for. Refunds run after the commit and never undo
// the cancellation.
func (s *subscriptionService) Cancel(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID, req *dto.CancelSubscriptionRequest) (*dto.CancelSubscriptionResponse, error) {
	mode := entity.CancelMode(strings.ToLower(strings.TrimSpace(req.Mode)))
	switch mode {
	case "":
		mode = entity.CancelModeAuto
	case entity.CancelModeAuto, entity.CancelModeNow, entity.CancelModePeriodEnd:
	default:
		return nil, invalidInput("cancel mode must be auto, now or period_end")
	}

	now := s.clock.Now(ctx)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	sub, err := findSubscription(ctx, uow, accountId, subscriptionId, true)
	if err != nil {
		return nil, err
	}
	if sub.Status == entity.SubscriptionStatusCanceled || sub.CancellationScheduled() {
		return nil, apperror.NewErrorf("subscription %s already canceled", sub.Id).
			WithHint("subscription is already canceled or scheduled for cancellation").
			Mark(apperror.ErrAlreadyCanceled)
	}
	if sub.Status != entity.SubscriptionStatusActive && sub.Status != entity.SubscriptionStatusSuspended {
		return nil, apperror.NewErrorf("subscription %s is %s", sub.Id, sub.Status).
			WithHintf("a %s subscription cannot be canceled", sub.Status).
			Mark(apperror.ErrInvalidStateForCancellation)
	}

	charges, err := uow.ChargeRepository().FindAll(ctx, specification.BySubscriptionID{SubscriptionID: sub.Id})
	if err != nil {
		return nil, err
	}
	var lastPaid *entity.Charge
	if paid := lo.Filter(charges, func(c *entity.Charge, _ int) bool { return c.Status == entity.ChargeStatusPaid }); len(paid) > 0 {
		lastPaid = lo.MaxBy(paid, func(a, b *entity.Charge) bool { return a.PeriodEnd.After(b.PeriodEnd) })
	}

	scheduled := mode != entity.CancelModeNow && lastPaid != nil && lastPaid.PeriodEnd.After(now)
	outcome := entity.CancellationImmediate
	if scheduled {
		outcome = entity.CancellationScheduled
		sub.CancellationDate = lo.ToPtr(lastPaid.PeriodEnd)
	} else {
		sub.Status = entity.SubscriptionStatusCanceled
		sub.CancellationDate = lo.ToPtr(now)
	}
	if reason := strings.TrimSpace(req.Reason); reason != "" {
		sub.CancellationReason = &reason
	}
	if actor := strings.TrimSpace(req.CanceledBy); actor != "" {
		sub.CanceledBy = &actor
	}
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}

	canceledCharges, err := s.cancelUnowedCharges(ctx, uow, charges, sub, now)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	res := &dto.CancelSubscriptionResponse{
		Subscription:    dto.NewSubscriptionResponse(sub),
		Outcome:         outcome,
		AccessUntil:     *sub.CancellationDate,
		CanceledCharges: canceledCharges,
	}

	if !scheduled && lastPaid != nil && lastPaid.GatewayReference != nil && *lastPaid.GatewayReference != "" {
		effect := s.refundCharge(ctx, accountId, sub, lastPaid)
		res.Refund = &effect
		if effect.Error != "" {
			res.Warnings = append(res.Warnings, "refund: "+effect.Error)
		}
	}

	s.publisher.PublishSubscriptionCanceled(ctx, accountId, sub, outcome, *sub.CancellationDate)
	s.logger.Info("SUBSCRIPTION", "Subscription canceled", map[string]interface{}{
		"subscription_id":  sub.Id.String(),
		"mode":             string(mode),
		"outcome":          outcome,
		"canceled_charges": canceledCharges,
	})
	return res, nil
}

// cancelUnowedCharges cancels pending charges for periods the participant will
// no longer have: all of them for an immediate cancellation, those starting
// at or after the cancellation date otherwise.
func (s *subscriptionService) cancelUnowedCharges(ctx context.Context, uow unitofwork.UnitOfWork, charges []*entity.Charge, sub *entity.Subscription, now time.Time) (int, error) {
	immediate := sub.Status == entity.SubscriptionStatusCanceled
	count := 0
	for _, c := range charges {
		if c.Status != entity.ChargeStatusPending {
			continue
		}
		if !immediate && c.PeriodStart.Before(*sub.CancellationDate) {
			continue
		}
		c.Status = entity.ChargeStatusCanceled
		c.SetMeta(entity.MetaCanceledByCancel, now.Format(time.RFC3339))
		if err := uow.ChargeRepository().Update(ctx, c); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}

func (s *subscriptionService) refundCharge(ctx context.Context, accountId uuid.UUID, sub *entity.Subscription, charge *entity.Charge) dto.SideEffect {
	ctx = context.WithoutCancel(ctx)
	effect := dto.SideEffect{Attempted: true}

	result, err := s.gateway.Refund(ctx, gateway.RefundRequest{
		Reference:      *charge.GatewayReference,
		Amount:         charge.Amount,
		Reason:         "subscription canceled",
		IdempotencyKey: "refund-" + charge.Id.String(),
	})
	if err != nil {
		s.logger.Warn("SUBSCRIPTION", "Refund failed, cancellation kept", map[string]interface{}{
			"subscription_id": sub.Id.String(),
			"charge_id":       charge.Id.String(),
			"gateway":         s.gateway.Name(),
			"error":           err.Error(),
		})
		effect.Error = err.Error()
		if recErr := s.recordRefundFailure(ctx, charge.Id, err); recErr != nil {
			s.logger.Error("SUBSCRIPTION", "Failed to record refund failure", map[string]interface{}{
				"charge_id": charge.Id.String(),
				"error":     recErr.Error(),
			})
		}
		s.publisher.PublishRefundFailed(ctx, accountId, sub.ServiceInstanceId, charge, err.Error())
		return effect
	}

	effect.Succeeded = true
	effect.Reference = result.Reference
	if err := s.recordRefundWithRetry(ctx, charge.Id, result.Reference); err != nil {
		s.logger.Error("SUBSCRIPTION", "Refund issued but not recorded", map[string]interface{}{
			"charge_id": charge.Id.String(),
			"reference": result.Reference,
			"error":     err.Error(),
		})
		effect.Error = fmt.Sprintf("refund %s issued but not recorded: %v", result.Reference, err)
		if markErr := s.markRefundUnrecorded(ctx, charge.Id, result.Reference); markErr != nil {
			s.logger.Error("SUBSCRIPTION", "Failed to flag unrecorded refund", map[string]interface{}{
				"charge_id": charge.Id.String(),
				"reference": result.Reference,
				"error":     markErr.Error(),
			})
		}
	}
	return effect
}

const (
	refundRecordRetries  = 2
	refundRecordInterval = 50 * time.Millisecond
)

func (s *subscriptionService) recordRefundWithRetry(ctx context.Context, chargeId uuid.UUID, reference string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = refundRecordInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(b, refundRecordRetries), ctx)

	return backoff.Retry(func() error {
		err := s.recordRefund(ctx, chargeId, reference)
		if apperror.Is(err, apperror.ErrNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// recordRefund marks the charge refunded and reverses its wallet credit in
// one transaction. It is idempotent.
func (s *subscriptionService) recordRefund(ctx context.Context, chargeId uuid.UUID, reference string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	charge, err := uow.ChargeRepository().FindOne(ctx, specification.ByID{ID: chargeId}, specification.Locked{})
	if err != nil {
		return err
	}
	if charge == nil {
		return apperror.NewErrorf("charge %s not found", chargeId).Mark(apperror.ErrNotFound)
	}
	if charge.Status == entity.ChargeStatusRefunded {
		return nil
	}

	now := s.clock.Now(ctx).Format(time.RFC3339)
	charge.Status = entity.ChargeStatusRefunded
	charge.UnrecordedRefund = nil
	charge.SetMeta(entity.MetaRefundedAt, now)
	charge.SetMeta(entity.MetaRefundReference, reference)
	charge.SetMeta(entity.MetaRefundRecordedAt, now)
	if err := uow.ChargeRepository().Update(ctx, charge); err != nil {
		return err
	}

	credit, err := uow.WalletTransactionRepository().FindOne(ctx,
		specification.BySourceChargeID{ChargeID: charge.Id},
		specification.ByKind{Kind: string(entity.WalletKindPaymentCredit)},
	)
	if err != nil {
		return err
	}
	if credit != nil {
		if _, err := s.wallet.AppendRefundReversal(ctx, uow, credit.AccountId, credit.Id, charge.Amount); err != nil {
			return err
		}
	}

	if err := uow.Commit(); err != nil {
		return err
	}
	if credit != nil {
		s.wallet.InvalidateBalances(credit.AccountId)
	}
	return nil
}

// markRefundUnrecorded flags a charge whose gateway refund succeeded but
// whose reversal could not be written, for ReconcileRefunds to finish.
func (s *subscriptionService) markRefundUnrecorded(ctx context.Context, chargeId uuid.UUID, reference string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	charge, err := uow.ChargeRepository().FindOne(ctx, specification.ByID{ID: chargeId}, specification.Locked{})
	if err != nil {
		return err
	}
	if charge == nil || charge.Status == entity.ChargeStatusRefunded {
		return nil
	}
	charge.UnrecordedRefund = &reference
	charge.SetMeta(entity.MetaRefundReference, reference)
	charge.SetMeta(entity.MetaRefundRecordedAt, nil)
	if err := uow.ChargeRepository().Update(ctx, charge); err != nil {
		return err
	}
	return uow.Commit()
}

// ReconcileRefunds writes the missing reversal for every charge refunded at
// the gateway but left unrecorded.
func (s *subscriptionService) ReconcileRefunds(ctx context.Context) (*dto.ReconcileRefundsResponse, error) {
	charges, err := s.uowFactory.NewUnitOfWork(ctx).ChargeRepository().FindAll(ctx, specification.RefundUnrecorded{})
	if err != nil {
		return nil, err
	}

	res := &dto.ReconcileRefundsResponse{}
	for _, c := range charges {
		if err := s.recordRefund(ctx, c.Id, *c.UnrecordedRefund); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("charge %s: %v", c.Id, err))
			continue
		}
		res.Reconciled++
	}

	if len(charges) > 0 {
		s.logger.Info("SUBSCRIPTION", "Unrecorded refunds reconciled", map[string]interface{}{
			"found":      len(charges),
			"reconciled": res.Reconciled,
		})
	}
	return res, nil
}

func (s *subscriptionService) recordRefundFailure(ctx context.Context, chargeId uuid.UUID, cause error) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	charge, err := uow.ChargeRepository().FindOne(ctx, specification.ByID{ID: chargeId}, specification.Locked{})
	if err != nil {
		return err
	}
	if charge == nil {
		return apperror.NewErrorf("charge %s not found", chargeId).Mark(apperror.ErrNotFound)
	}
	charge.SetMeta(entity.MetaRefundError, cause.Error())
	charge.SetMeta(entity.MetaRefundFailedAt, s.clock.Now(ctx).Format(time.RFC3339))
	if err := uow.ChargeRepository().Update(ctx, charge); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *subscriptionService) Reactivate(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	sub, err := findSubscription(ctx, uow, accountId, subscriptionId, true)
	if err != nil {
		return nil, err
	}
	if sub.Status == entity.SubscriptionStatusCanceled {
		return nil, apperror.NewErrorf("subscription %s is canceled", sub.Id).
			WithHint("a canceled subscription cannot be reactivated, create a new one").
			Mark(apperror.ErrAlreadyFinal)
	}
	if sub.CancellationDate == nil {
		return nil, invalidInput("subscription has no scheduled cancellation")
	}

	sub.CancellationDate = nil
	sub.CancellationReason = nil
	sub.CanceledBy = nil
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publisher.PublishSubscriptionStatus(ctx, events.TypeSubscriptionReactivated, accountId, sub)
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) Suspend(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error) {
	return s.transition(ctx, accountId, subscriptionId,
		entity.SubscriptionStatusActive, entity.SubscriptionStatusSuspended, events.TypeSubscriptionSuspended)
}

func (s *subscriptionService) Resume(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error) {
	return s.transition(ctx, accountId, subscriptionId,
		entity.SubscriptionStatusSuspended, entity.SubscriptionStatusActive, events.TypeSubscriptionResumed)
}

func (s *subscriptionService) transition(ctx context.Context, accountId, subscriptionId uuid.UUID, from, to entity.SubscriptionStatus, eventType string) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	sub, err := findSubscription(ctx, uow, accountId, subscriptionId, true)
	if err != nil {
		return nil, err
	}
	if sub.Status != from {
		return nil, apperror.NewErrorf("subscription %s is %s, want %s", sub.Id, sub.Status, from).
			WithHintf("only %s subscriptions can become %s", from, to).
			Mark(apperror.ErrInvalidInput)
	}
	sub.Status = to
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publisher.PublishSubscriptionStatus(ctx, eventType, accountId, sub)
	return dto.NewSubscriptionResponse(sub), nil
}

// FinalizeScheduledCancellations flips due scheduled cancellations to
// canceled, one transaction per subscription.
func (s *subscriptionService) FinalizeScheduledCancellations(ctx context.Context) (*dto.FinalizeCancellationsResponse, error) {
	now := s.clock.Now(ctx)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	scheduled, err := uow.SubscriptionRepository().FindAll(ctx, specification.CancellationPending{})
	if err != nil {
		return nil, err
	}
	due := lo.Filter(scheduled, func(sub *entity.Subscription, _ int) bool {
		return !sub.CancellationDate.After(now)
	})

	res := &dto.FinalizeCancellationsResponse{}
	for _, candidate := range due {
		sub, accountId, err := s.finalizeOne(ctx, candidate.Id, now)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", candidate.Id, err))
			s.logger.Error("SUBSCRIPTION", "Failed to finalize cancellation", map[string]interface{}{
				"subscription_id": candidate.Id.String(),
				"error":           err.Error(),
			})
			continue
		}
		if sub == nil {
			continue
		}
		res.Finalized++
		s.publisher.PublishSubscriptionCanceled(ctx, accountId, sub, entity.CancellationFinalized, *sub.CancellationDate)
	}

	if res.Finalized > 0 {
		s.logger.Info("SUBSCRIPTION", "Scheduled cancellations finalized", map[string]interface{}{
			"finalized": res.Finalized,
			"failed":    len(res.Errors),
		})
	}
	return res, nil
}

func (s *subscriptionService) finalizeOne(ctx context.Context, subscriptionId uuid.UUID, now time.Time) (*entity.Subscription, uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, uuid.Nil, err
	}
	defer uow.Rollback()

	sub, err := findSubscription(ctx, uow, uuid.Nil, subscriptionId, true)
	if err != nil {
		return nil, uuid.Nil, err
	}
	// Reactivated or already finalized since the scan.
	if !sub.CancellationScheduled() || sub.CancellationDate.After(now) {
		return nil, uuid.Nil, nil
	}
	instance, err := findServiceInstance(ctx, uow, uuid.Nil, sub.ServiceInstanceId, false)
	if err != nil {
		return nil, uuid.Nil, err
	}

	sub.Status = entity.SubscriptionStatusCanceled
	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, uuid.Nil, err
	}
	charges, err := uow.ChargeRepository().FindAll(ctx, specification.BySubscriptionID{SubscriptionID: sub.Id})
	if err != nil {
		return nil, uuid.Nil, err
	}
	if _, err := s.cancelUnowedCharges(ctx, uow, charges, sub, now); err != nil {
		return nil, uuid.Nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, uuid.Nil, err
	}
	return sub, instance.AccountId, nil
}

func (s *subscriptionService) Get(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := findSubscription(ctx, uow, accountId, subscriptionId, false)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionResponse(sub), nil
}

func (s *subscriptionService) List(ctx context.Context, accountId uuid.UUID, q dto.SubscriptionListQuery) ([]*dto.SubscriptionResponse, error) {
	page := dto.ListQuery{Page: q.Page, Limit: q.Limit}
	offset := page.Normalize()

	specs := []specification.Specification{
		specification.SubscriptionOwnedBy{AccountID: accountId},
	}
	if q.Status != "" {
		specs = append(specs, specification.Filter("status", q.Status))
	}
	if q.ServiceInstanceId != "" {
		id, err := uuid.Parse(q.ServiceInstanceId)
		if err != nil {
			return nil, invalidInput("service_instance_id must be a UUID")
		}
		specs = append(specs, specification.ByServiceInstanceID{ServiceInstanceID: id})
	}
	if q.ParticipantId != "" {
		id, err := uuid.Parse(q.ParticipantId)
		if err != nil {
			return nil, invalidInput("participant_id must be a UUID")
		}
		specs = append(specs, specification.ByParticipantID{ParticipantID: id})
	}
	specs = append(specs,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: page.Limit, Offset: offset},
	)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	subs, err := uow.SubscriptionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	return lo.Map(subs, func(sub *entity.Subscription, _ int) *dto.SubscriptionResponse {
		return dto.NewSubscriptionResponse(sub)
	}), nil
}
