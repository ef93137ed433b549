package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"subshare-be/internal/dto"
	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/apperror"
	"subshare-be/internal/pkg/clock"
	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/repository/memory"
	"subshare-be/internal/repository/specification"
	"subshare-be/internal/repository/unitofwork"
	"subshare-be/pkg/gateway"
	"subshare-be/pkg/notification"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CreditInput describes a settled charge payment to be credited to the
// organizer's wallet.
type CreditInput struct {
	AccountId        uuid.UUID
	ChargeId         uuid.UUID
	Gross            decimal.Decimal
	FeeRate          decimal.Decimal
	Method           entity.PaymentMethod
	GatewayReference *string
}

type IWalletService interface {
	// AppendCredit and AppendRefundReversal write inside the caller's
	// transaction.
	AppendCredit(ctx context.Context, uow unitofwork.UnitOfWork, in CreditInput) (*entity.WalletTransaction, error)
	AppendRefundReversal(ctx context.Context, uow unitofwork.UnitOfWork, accountId uuid.UUID, creditId uuid.UUID, amount decimal.Decimal) (*entity.WalletTransaction, error)

	ComputeBalances(ctx context.Context, accountId uuid.UUID) (*dto.BalanceResponse, error)
	RequestWithdrawal(ctx context.Context, accountId uuid.UUID, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error)
	ReleaseClearedCredits(ctx context.Context) (int, error)
	ListTransactions(ctx context.Context, accountId uuid.UUID, q dto.ListQuery) ([]*dto.WalletTransactionResponse, error)
	InvalidateBalances(accountIds ...uuid.UUID)
}

type WalletOptions struct {
	MinimumWithdrawal decimal.Decimal
	CardHoldingWindow time.Duration
}

func DefaultWalletOptions() WalletOptions {
	return WalletOptions{
		MinimumWithdrawal: decimal.RequireFromString("10.00"),
		CardHoldingWindow: entity.HoldingWindowCard,
	}
}

type walletService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.BalanceCache
	gateway    gateway.Provider
	publisher  notification.Publisher
	clock      clock.Clock
	logger     logger.ILogger
	opts       WalletOptions
}

func NewWalletService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.BalanceCache,
	gw gateway.Provider,
	publisher notification.Publisher,
	clk clock.Clock,
	logger logger.ILogger,
	opts WalletOptions,
) IWalletService {
	return &walletService{
		uowFactory: uowFactory,
		cache:      cache,
		gateway:    gw,
		publisher:  publisher,
		clock:      clk,
		logger:     logger,
		opts:       opts,
	}
}

// AppendCredit books the gross payment and the platform fee as two rows.
// Card credits stay pending for the holding window, PIX credits clear at once.
func (s *walletService) AppendCredit(ctx context.Context, uow unitofwork.UnitOfWork, in CreditInput) (*entity.WalletTransaction, error) {
	if !in.Gross.IsPositive() {
		return nil, apperror.NewError("credit amount must be positive").
			WithHint("credit amount must be positive").
			Mark(apperror.ErrInvalidInput)
	}
	if in.FeeRate.IsNegative() || in.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, apperror.NewErrorf("fee rate %s out of range", in.FeeRate).
			WithHint("platform fee rate must be at least zero and below one").
			Mark(apperror.ErrInvalidInput)
	}
	if !in.Method.IsGateway() {
		return nil, apperror.NewErrorf("payment method %q is not settled through the gateway", in.Method).
			WithHint("only pix and card payments are credited to the wallet").
			Mark(apperror.ErrInvalidInput)
	}

	now := s.clock.Now(ctx)
	status := entity.WalletStatusCompleted
	availableAt := now
	if in.Method == entity.PaymentMethodCard {
		status = entity.WalletStatusPending
		availableAt = now.Add(s.opts.CardHoldingWindow)
	}

	repo := uow.WalletTransactionRepository()
	chargeId := in.ChargeId
	credit := &entity.WalletTransaction{
		Id:               uuid.New(),
		AccountId:        in.AccountId,
		Amount:           in.Gross.Round(2),
		Kind:             entity.WalletKindPaymentCredit,
		Status:           status,
		Description:      fmt.Sprintf("Payment for charge %s via %s", chargeId, in.Method),
		GatewayReference: in.GatewayReference,
		SourceChargeId:   &chargeId,
		AvailableAt:      availableAt,
	}
	if err := repo.Append(ctx, credit); err != nil {
		return nil, err
	}

	fee := in.Gross.Mul(in.FeeRate).Round(2)
	if fee.IsPositive() {
		creditId := credit.Id
		if err := repo.Append(ctx, &entity.WalletTransaction{
			Id:                     uuid.New(),
			AccountId:              in.AccountId,
			Amount:                 fee.Neg(),
			Kind:                   entity.WalletKindFeeDebit,
			Status:                 status,
			Description:            fmt.Sprintf("Platform fee for charge %s", chargeId),
			SourceChargeId:         &chargeId,
			ReferenceTransactionId: &creditId,
			AvailableAt:            availableAt,
		}); err != nil {
			return nil, err
		}
	}

	s.cache.Invalidate(in.AccountId)
	return credit, nil
}

// AppendRefundReversal reverses amount of a payment credit together with the
// matching share of its fee. Reversal rows inherit the credit's status and
// clearing time so a refund inside the holding window only reduces pending.
func (s *walletService) AppendRefundReversal(ctx context.Context, uow unitofwork.UnitOfWork, accountId uuid.UUID, creditId uuid.UUID, amount decimal.Decimal) (*entity.WalletTransaction, error) {
	repo := uow.WalletTransactionRepository()
	if err := repo.LockAccount(ctx, accountId); err != nil {
		return nil, err
	}

	credit, err := repo.FindOne(ctx,
		specification.ByID{ID: creditId},
		specification.ByAccountID{AccountID: accountId},
		specification.ByKind{Kind: string(entity.WalletKindPaymentCredit)},
	)
	if err != nil {
		return nil, err
	}
	if credit == nil {
		return nil, apperror.NewErrorf("payment credit %s not found", creditId).Mark(apperror.ErrNotFound)
	}

	amount = amount.Round(2)
	if !amount.IsPositive() || amount.GreaterThan(credit.Amount) {
		return nil, apperror.NewErrorf("refund amount %s out of range for credit %s", amount, credit.Amount).
			WithHint("refund amount must be positive and not exceed the original payment").
			Mark(apperror.ErrInvalidInput)
	}

	reversal := &entity.WalletTransaction{
		Id:                     uuid.New(),
		AccountId:              accountId,
		Amount:                 amount.Neg(),
		Kind:                   entity.WalletKindRefundReversal,
		Status:                 credit.Status,
		Description:            "Refund of " + credit.Description,
		SourceChargeId:         credit.SourceChargeId,
		ReferenceTransactionId: &credit.Id,
		AvailableAt:            credit.AvailableAt,
	}
	if err := repo.Append(ctx, reversal); err != nil {
		return nil, err
	}

	feeDebit, err := repo.FindOne(ctx,
		specification.Filter("reference_transaction_id", credit.Id),
		specification.ByKind{Kind: string(entity.WalletKindFeeDebit)},
	)
	if err != nil {
		return nil, err
	}
	if feeDebit != nil && feeDebit.Counted() {
		// Proportional share, so a full refund returns the whole fee.
		feeBack := feeDebit.Amount.Neg().Mul(amount).Div(credit.Amount).Round(2)
		if feeBack.IsPositive() {
			if err := repo.Append(ctx, &entity.WalletTransaction{
				Id:                     uuid.New(),
				AccountId:              accountId,
				Amount:                 feeBack,
				Kind:                   entity.WalletKindFeeReversal,
				Status:                 credit.Status,
				Description:            "Fee returned on refund",
				SourceChargeId:         credit.SourceChargeId,
				ReferenceTransactionId: &feeDebit.Id,
				AvailableAt:            credit.AvailableAt,
			}); err != nil {
				return nil, err
			}
		}
	}

	s.cache.Invalidate(accountId)
	return reversal, nil
}

func (s *walletService) ComputeBalances(ctx context.Context, accountId uuid.UUID) (*dto.BalanceResponse, error) {
	now := s.clock.Now(ctx)
	if cached, ok := s.cache.Get(accountId, now); ok {
		return dto.NewBalanceResponse(cached), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.WalletTransactionRepository().FindAll(ctx, specification.ByAccountID{AccountID: accountId})
	if err != nil {
		return nil, err
	}
	balances, nextRelease := entity.ComputeBalances(accountId, rows, now)
	s.cache.Save(&balances, nextRelease)
	return dto.NewBalanceResponse(&balances), nil
}

// RequestWithdrawal reserves the amount with a pending debit in one
// transaction, then calls the payout outside of it. A failed payout marks the
// debit failed, which returns the amount to the available balance.
func (s *walletService) RequestWithdrawal(ctx context.Context, accountId uuid.UUID, req *dto.WithdrawalRequest) (*dto.WithdrawalResponse, error) {
	amount := req.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, apperror.NewError("withdrawal amount must be positive").
			WithHint("withdrawal amount must be positive").
			Mark(apperror.ErrInvalidInput)
	}
	if amount.LessThan(s.opts.MinimumWithdrawal) {
		return nil, apperror.NewErrorf("withdrawal %s below minimum %s", amount, s.opts.MinimumWithdrawal).
			WithHintf("minimum withdrawal is %s", s.opts.MinimumWithdrawal.StringFixed(2)).
			Mark(apperror.ErrBelowMinimum)
	}
	payoutKey := strings.TrimSpace(req.PayoutKey)
	if payoutKey == "" {
		return nil, apperror.NewError("payout key missing").
			WithHint("register a payout key before withdrawing").
			Mark(apperror.ErrMissingPayoutKey)
	}

	txn, err := s.reserveWithdrawal(ctx, accountId, amount, req.Description)
	if err != nil {
		return nil, err
	}

	// The debit is committed; settle it even if the caller goes away.
	settleCtx := context.WithoutCancel(ctx)
	result, payoutErr := s.gateway.Payout(settleCtx, gateway.PayoutRequest{
		Amount:         amount,
		PayoutKey:      payoutKey,
		Description:    txn.Description,
		IdempotencyKey: "withdrawal-" + txn.Id.String(),
	})
	if payoutErr != nil {
		s.logger.Error("WALLET", "Payout failed", map[string]interface{}{
			"account_id":     accountId.String(),
			"transaction_id": txn.Id.String(),
			"amount":         amount.StringFixed(2),
			"error":          payoutErr.Error(),
		})
		txn.Status = entity.WalletStatusFailed
		if err := s.settleWithdrawal(settleCtx, txn, nil); err != nil {
			s.logger.Error("WALLET", "Failed to release withdrawal after payout failure", map[string]interface{}{
				"transaction_id": txn.Id.String(),
				"error":          err.Error(),
			})
		}
		s.publisher.PublishWithdrawal(settleCtx, txn, payoutErr)
		return nil, apperror.WithError(payoutErr).
			WithMessage("payout").
			WithHint("the payout could not be completed; the amount is available again, please retry").
			Mark(apperror.ErrGatewayFailure)
	}

	txn.Status = entity.WalletStatusCompleted
	ref := result.Reference
	if err := s.settleWithdrawal(settleCtx, txn, &ref); err != nil {
		// The money left; the row stays pending and keeps the amount reserved.
		s.logger.Error("WALLET", "Failed to complete withdrawal after payout", map[string]interface{}{
			"transaction_id": txn.Id.String(),
			"reference":      ref,
			"error":          err.Error(),
		})
		txn.Status = entity.WalletStatusPending
	} else {
		txn.GatewayReference = &ref
	}
	s.publisher.PublishWithdrawal(settleCtx, txn, nil)

	s.logger.Info("WALLET", "Withdrawal processed", map[string]interface{}{
		"account_id":     accountId.String(),
		"transaction_id": txn.Id.String(),
		"amount":         amount.StringFixed(2),
		"reference":      ref,
	})

	balance, err := s.ComputeBalances(settleCtx, accountId)
	if err != nil {
		return nil, err
	}
	return &dto.WithdrawalResponse{
		Transaction: dto.NewWalletTransactionResponse(txn),
		Balance:     balance,
	}, nil
}

func (s *walletService) reserveWithdrawal(ctx context.Context, accountId uuid.UUID, amount decimal.Decimal, description string) (*entity.WalletTransaction, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	repo := uow.WalletTransactionRepository()
	if err := repo.LockAccount(ctx, accountId); err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	rows, err := repo.FindAll(ctx, specification.ByAccountID{AccountID: accountId})
	if err != nil {
		return nil, err
	}
	balances, _ := entity.ComputeBalances(accountId, rows, now)
	if amount.GreaterThan(balances.Available) {
		return nil, apperror.NewErrorf("withdrawal %s exceeds available %s", amount, balances.Available).
			WithHintf("available balance is %s", balances.Available.StringFixed(2)).
			Mark(apperror.ErrInsufficientFunds)
	}

	if strings.TrimSpace(description) == "" {
		description = "Withdrawal"
	}
	txn := &entity.WalletTransaction{
		Id:          uuid.New(),
		AccountId:   accountId,
		Amount:      amount.Neg(),
		Kind:        entity.WalletKindWithdrawal,
		Status:      entity.WalletStatusPending,
		Description: description,
		AvailableAt: now,
	}
	if err := repo.Append(ctx, txn); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	s.cache.Invalidate(accountId)
	return txn, nil
}

func (s *walletService) settleWithdrawal(ctx context.Context, txn *entity.WalletTransaction, reference *string) error {
	defer s.cache.Invalidate(txn.AccountId)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.WalletTransactionRepository().UpdateStatus(ctx, txn.Id, txn.Status, reference)
}

// ReleaseClearedCredits completes held rows whose holding window has passed.
// Balances read the same at any moment with or without this job; it only
// keeps stored statuses in line with what the ledger already implies.
func (s *walletService) ReleaseClearedCredits(ctx context.Context) (int, error) {
	now := s.clock.Now(ctx)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer uow.Rollback()

	repo := uow.WalletTransactionRepository()
	pending, err := repo.FindAll(ctx, specification.Filter("status", string(entity.WalletStatusPending)))
	if err != nil {
		return 0, err
	}
	cleared := lo.Filter(pending, func(t *entity.WalletTransaction, _ int) bool {
		return t.Kind != entity.WalletKindWithdrawal && !t.AvailableAt.After(now)
	})
	for _, t := range cleared {
		if err := repo.UpdateStatus(ctx, t.Id, entity.WalletStatusCompleted, nil); err != nil {
			return 0, err
		}
	}
	if err := uow.Commit(); err != nil {
		return 0, err
	}

	accounts := lo.Uniq(lo.Map(cleared, func(t *entity.WalletTransaction, _ int) uuid.UUID {
		return t.AccountId
	}))
	s.InvalidateBalances(accounts...)
	if len(cleared) > 0 {
		s.logger.Info("WALLET", "Released cleared credits", map[string]interface{}{
			"rows":     len(cleared),
			"accounts": len(accounts),
		})
	}
	return len(cleared), nil
}

func (s *walletService) ListTransactions(ctx context.Context, accountId uuid.UUID, q dto.ListQuery) ([]*dto.WalletTransactionResponse, error) {
	offset := q.Normalize()
	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.WalletTransactionRepository().FindAll(ctx,
		specification.ByAccountID{AccountID: accountId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: q.Limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}
	return lo.Map(rows, func(t *entity.WalletTransaction, _ int) *dto.WalletTransactionResponse {
		return dto.NewWalletTransactionResponse(t)
	}), nil
}

func (s *walletService) InvalidateBalances(accountIds ...uuid.UUID) {
	for _, id := range accountIds {
		s.cache.Invalidate(id)
	}
}
