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
	"subshare-be/pkg/notification"
	"subshare-be/pkg/proration"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"gorm.io/gorm"
)

type IBillingService interface {
	CreateInitialCharge(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.ChargeResponse, error)
	// CreateInitialChargeTx writes the first charge inside the caller's
	// transaction.
	CreateInitialChargeTx(ctx context.Context, uow unitofwork.UnitOfWork, sub *entity.Subscription) (*entity.Charge, error)
	// RunRenewalSweep renews subscriptions of one organizer, or of all
	// organizers when accountId is uuid.Nil.
	RunRenewalSweep(ctx context.Context, accountId uuid.UUID) (*dto.SweepReport, error)
	AdjustPendingCharges(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, newMonthlyPrice decimal.Decimal) (*dto.AdjustPriceResponse, error)
	ConfirmPayment(ctx context.Context, accountId uuid.UUID, chargeId uuid.UUID, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error)
	ListCharges(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) ([]*dto.ChargeResponse, error)
}

type BillingOptions struct {
	SweepWindow     time.Duration
	SweepWorkers    int
	PlatformFeeRate decimal.Decimal
}

func DefaultBillingOptions() BillingOptions {
	return BillingOptions{
		SweepWindow:     entity.SweepWindow,
		SweepWorkers:    8,
		PlatformFeeRate: decimal.RequireFromString("0.05"),
	}
}

type billingService struct {
	uowFactory unitofwork.RepositoryFactory
	wallet     IWalletService
	publisher  notification.Publisher
	clock      clock.Clock
	logger     logger.ILogger
	opts       BillingOptions
}

func NewBillingService(
	uowFactory unitofwork.RepositoryFactory,
	wallet IWalletService,
	publisher notification.Publisher,
	clk clock.Clock,
	logger logger.ILogger,
	opts BillingOptions,
) IBillingService {
	if opts.SweepWorkers < 1 {
		opts.SweepWorkers = 1
	}
	return &billingService{
		uowFactory: uowFactory,
		wallet:     wallet,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
		opts:       opts,
	}
}

func (s *billingService) CreateInitialCharge(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) (*dto.ChargeResponse, error) {
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
		return nil, invalidInput("subscription is canceled")
	}
	instance, err := findServiceInstance(ctx, uow, uuid.Nil, sub.ServiceInstanceId, false)
	if err != nil {
		return nil, err
	}

	charge, err := s.CreateInitialChargeTx(ctx, uow, sub)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publisher.PublishChargeCreated(ctx, instance.AccountId, instance.Id, charge)
	return dto.NewChargeResponse(charge, s.clock.Now(ctx)), nil
}

func (s *billingService) CreateInitialChargeTx(ctx context.Context, uow unitofwork.UnitOfWork, sub *entity.Subscription) (*entity.Charge, error) {
	if err := sub.Frequency.Validate(); err != nil {
		return nil, invalidInput(err.Error())
	}
	existing, err := uow.ChargeRepository().Count(ctx,
		specification.BySubscriptionID{SubscriptionID: sub.Id},
		specification.StatusNot{Status: string(entity.ChargeStatusCanceled)},
	)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, invalidInput("subscription already has charges")
	}

	start := sub.StartDate.UTC()
	charge := &entity.Charge{
		Id:             uuid.New(),
		SubscriptionId: sub.Id,
		Amount:         proration.PeriodAmount(sub.MonthlyUnitPrice, sub.Frequency),
		Frequency:      sub.Frequency,
		PeriodStart:    start,
		PeriodEnd:      proration.NextPeriodEnd(start, sub.Frequency),
		Status:         entity.ChargeStatusPending,
	}
	if sub.Prepaid {
		charge.Status = entity.ChargeStatusPaid
		charge.PaymentDate = lo.ToPtr(start)
		charge.PaymentMethod = lo.ToPtr(entity.PaymentMethodManual)
	}

	if err := uow.ChargeRepository().Create(ctx, charge); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, invalidInput("a charge for this period already exists")
		}
		return nil, err
	}
	return charge, nil
}

type sweepOutcome struct {
	subscriptionId uuid.UUID
	accountId      uuid.UUID
	instanceId     uuid.UUID
	charge         *entity.Charge
	err            error
}

func (s *billingService) RunRenewalSweep(ctx context.Context, accountId uuid.UUID) (*dto.SweepReport, error) {
	started := time.Now()
	now := s.clock.Now(ctx)

	specs := []specification.Specification{
		specification.Filter("status", string(entity.SubscriptionStatusActive)),
	}
	if accountId != uuid.Nil {
		specs = append(specs, specification.SubscriptionOwnedBy{AccountID: accountId})
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	subs, err := uow.SubscriptionRepository().FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[sweepOutcome]().WithMaxGoroutines(s.opts.SweepWorkers)
	for _, sub := range subs {
		subscriptionId := sub.Id
		p.Go(func() sweepOutcome {
			return s.renewSubscription(ctx, subscriptionId, now)
		})
	}
	outcomes := p.Wait()

	report := &dto.SweepReport{
		Scanned: len(subs),
		Charges: []*dto.ChargeResponse{},
		RanAt:   now,
	}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", o.subscriptionId, o.err))
			s.logger.Error("BILLING", "Renewal failed", map[string]interface{}{
				"subscription_id": o.subscriptionId.String(),
				"error":           o.err.Error(),
			})
		case o.charge != nil:
			report.Created++
			report.Charges = append(report.Charges, dto.NewChargeResponse(o.charge, now))
			s.publisher.PublishChargeCreated(ctx, o.accountId, o.instanceId, o.charge)
		default:
			report.Skipped++
		}
	}
	report.Duration = time.Since(started)

	s.logger.Info("BILLING", "Renewal sweep finished", map[string]interface{}{
		"scanned": report.Scanned,
		"created": report.Created,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	return report, nil
}

// renewSubscription decides and inserts at most one renewal charge in a
// transaction of its own. The latest charge is read under the subscription
// row lock, so concurrent sweeps serialize on the same subscription.
func (s *billingService) renewSubscription(ctx context.Context, subscriptionId uuid.UUID, now time.Time) (out sweepOutcome) {
	out.subscriptionId = subscriptionId
	defer func() {
		if r := recover(); r != nil {
			out.charge = nil
			out.err = fmt.Errorf("panic: %v", r)
		}
	}()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		out.err = err
		return out
	}
	defer uow.Rollback()

	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.ByID{ID: subscriptionId},
		specification.Locked{},
	)
	if err != nil {
		out.err = err
		return out
	}
	if sub == nil || sub.Status != entity.SubscriptionStatusActive {
		return out
	}

	charges, err := uow.ChargeRepository().FindAll(ctx,
		specification.BySubscriptionID{SubscriptionID: sub.Id},
		specification.StatusNot{Status: string(entity.ChargeStatusCanceled)},
	)
	if err != nil {
		out.err = err
		return out
	}
	if len(charges) == 0 {
		s.logger.Warn("BILLING", "Active subscription without charges skipped", map[string]interface{}{
			"subscription_id": sub.Id.String(),
		})
		return out
	}
	latest := lo.MaxBy(charges, func(a, b *entity.Charge) bool {
		return a.PeriodEnd.After(b.PeriodEnd)
	})

	if now.Before(latest.PeriodEnd.Add(-s.opts.SweepWindow)) {
		return out
	}
	nextStart := latest.PeriodEnd
	if sub.CancellationDate != nil && !sub.CancellationDate.After(nextStart) {
		return out
	}

	charge := &entity.Charge{
		Id:             uuid.New(),
		SubscriptionId: sub.Id,
		Amount:         proration.PeriodAmount(sub.MonthlyUnitPrice, sub.Frequency),
		Frequency:      sub.Frequency,
		PeriodStart:    nextStart,
		PeriodEnd:      proration.AnchoredPeriodEnd(nextStart, sub.StartDate.Day(), sub.Frequency),
		Status:         entity.ChargeStatusPending,
	}
	if err := uow.ChargeRepository().Create(ctx, charge); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return out
		}
		out.err = err
		return out
	}

	instance, err := findServiceInstance(ctx, uow, uuid.Nil, sub.ServiceInstanceId, false)
	if err != nil {
		out.err = err
		return out
	}
	if err := uow.Commit(); err != nil {
		out.err = err
		return out
	}

	out.charge = charge
	out.accountId = instance.AccountId
	out.instanceId = instance.Id
	return out
}

func (s *billingService) AdjustPendingCharges(ctx context.Context, accountId uuid.UUID, serviceInstanceId uuid.UUID, newMonthlyPrice decimal.Decimal) (*dto.AdjustPriceResponse, error) {
	newMonthlyPrice = newMonthlyPrice.Round(proration.MoneyPlaces)
	if !newMonthlyPrice.IsPositive() {
		return nil, invalidInput("monthly price must be positive")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	instance, err := findServiceInstance(ctx, uow, accountId, serviceInstanceId, true)
	if err != nil {
		return nil, err
	}
	oldPrice := instance.MonthlyUnitPrice
	instance.MonthlyUnitPrice = newMonthlyPrice
	if err := uow.ServiceInstanceRepository().Update(ctx, instance); err != nil {
		return nil, err
	}

	subs, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.ByServiceInstanceID{ServiceInstanceID: instance.Id},
		specification.StatusNot{Status: string(entity.SubscriptionStatusCanceled)},
	)
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		sub.MonthlyUnitPrice = newMonthlyPrice
		if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
			return nil, err
		}
	}

	updated := 0
	if len(subs) > 0 {
		pending, err := uow.ChargeRepository().FindAll(ctx,
			specification.BySubscriptionIDs{SubscriptionIDs: lo.Map(subs, func(sub *entity.Subscription, _ int) uuid.UUID {
				return sub.Id
			})},
			specification.Filter("status", string(entity.ChargeStatusPending)),
		)
		if err != nil {
			return nil, err
		}
		for _, charge := range pending {
			amount := proration.PeriodAmount(newMonthlyPrice, charge.Frequency)
			if amount.Equal(charge.Amount) {
				continue
			}
			charge.Amount = amount
			if err := uow.ChargeRepository().Update(ctx, charge); err != nil {
				return nil, err
			}
			updated++
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.publisher.PublishPriceAdjusted(ctx, instance, oldPrice, updated)
	s.logger.Info("BILLING", "Pending charges repriced", map[string]interface{}{
		"service_instance_id": instance.Id.String(),
		"old_price":           oldPrice.StringFixed(2),
		"new_price":           newMonthlyPrice.StringFixed(2),
		"charges":             updated,
	})

	return &dto.AdjustPriceResponse{
		ServiceInstanceId:    instance.Id,
		OldMonthlyUnitPrice:  oldPrice.StringFixed(2),
		NewMonthlyUnitPrice:  newMonthlyPrice.StringFixed(2),
		UpdatedSubscriptions: len(subs),
		UpdatedCharges:       updated,
	}, nil
}

func (s *billingService) ConfirmPayment(ctx context.Context, accountId uuid.UUID, chargeId uuid.UUID, req *dto.ConfirmPaymentRequest) (*dto.ConfirmPaymentResponse, error) {
	method := entity.PaymentMethod(strings.ToLower(req.Method))
	switch method {
	case entity.PaymentMethodPix, entity.PaymentMethodCard, entity.PaymentMethodManual:
	default:
		return nil, invalidInput("payment method must be pix, card or manual")
	}
	gatewayRef := strings.TrimSpace(req.GatewayReference)
	if method.IsGateway() && gatewayRef == "" {
		return nil, invalidInput("gateway reference is required for pix and card payments")
	}

	now := s.clock.Now(ctx)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	charge, err := uow.ChargeRepository().FindOne(ctx, specification.ByID{ID: chargeId}, specification.Locked{})
	if err != nil {
		return nil, err
	}
	if charge == nil {
		return nil, apperror.NewErrorf("charge %s not found", chargeId).WithHint("charge not found").Mark(apperror.ErrNotFound)
	}
	sub, err := findSubscription(ctx, uow, accountId, charge.SubscriptionId, true)
	if err != nil {
		// Charges of other organizers read as missing.
		if apperror.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NewErrorf("charge %s not found", chargeId).WithHint("charge not found").Mark(apperror.ErrNotFound)
		}
		return nil, err
	}
	if charge.Status != entity.ChargeStatusPending {
		return nil, apperror.NewErrorf("charge %s is %s", charge.Id, charge.Status).
			WithHintf("only pending charges can be confirmed, this one is %s", charge.Status).
			Mark(apperror.ErrInvalidInput)
	}

	paidAt := now
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
	}
	charge.Status = entity.ChargeStatusPaid
	charge.PaymentDate = &paidAt
	charge.PaymentMethod = &method
	if gatewayRef != "" {
		charge.GatewayReference = &gatewayRef
	}
	if proof := strings.TrimSpace(req.PaymentProof); proof != "" {
		charge.PaymentProof = &proof
	}
	if err := uow.ChargeRepository().Update(ctx, charge); err != nil {
		return nil, err
	}

	if sub.Status == entity.SubscriptionStatusPending {
		sub.Status = entity.SubscriptionStatusActive
		if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
			return nil, err
		}
	}

	var credit *entity.WalletTransaction
	if method.IsGateway() {
		credit, err = s.wallet.AppendCredit(ctx, uow, CreditInput{
			AccountId:        accountId,
			ChargeId:         charge.Id,
			Gross:            charge.Amount,
			FeeRate:          s.opts.PlatformFeeRate,
			Method:           method,
			GatewayReference: charge.GatewayReference,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	s.wallet.InvalidateBalances(accountId)
	s.publisher.PublishChargePaid(ctx, accountId, sub.ServiceInstanceId, charge)

	res := &dto.ConfirmPaymentResponse{
		Charge:       dto.NewChargeResponse(charge, now),
		Subscription: dto.NewSubscriptionResponse(sub),
	}
	if credit != nil {
		res.Credit = dto.NewWalletTransactionResponse(credit)
	}
	return res, nil
}

func (s *billingService) ListCharges(ctx context.Context, accountId uuid.UUID, subscriptionId uuid.UUID) ([]*dto.ChargeResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := findSubscription(ctx, uow, accountId, subscriptionId, false)
	if err != nil {
		return nil, err
	}
	charges, err := uow.ChargeRepository().FindAll(ctx,
		specification.BySubscriptionID{SubscriptionID: sub.Id},
		specification.OrderBy{Field: "period_start"},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now(ctx)
	return lo.Map(charges, func(c *entity.Charge, _ int) *dto.ChargeResponse {
		return dto.NewChargeResponse(c, now)
	}), nil
}
