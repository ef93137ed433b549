package service

import (
	"context"
	"testing"
	"time"

	"subshare-be/internal/dto"
	"subshare-be/internal/entity"
	"subshare-be/internal/model"
	"subshare-be/internal/pkg/clock"
	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/repository/memory"
	"subshare-be/internal/repository/specification"
	"subshare-be/internal/repository/unitofwork"
	"subshare-be/pkg/database"
	"subshare-be/pkg/gateway/fake"
	"subshare-be/pkg/notification"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	ctx       context.Context
	db        *gorm.DB
	factory   unitofwork.RepositoryFactory
	clock     *clock.FixedClock
	gateway   *fake.Provider
	recorder  *notification.Recorder
	wallet    IWalletService
	billing   IBillingService
	subs      ISubscriptionService
	instances IServiceInstanceService
	accountId uuid.UUID
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, model.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := logger.NewNopLogger()
	clk := clock.NewFixedClock(now)
	gw := fake.NewProvider()
	recorder := &notification.Recorder{}
	publisher := notification.NewEventPublisher(recorder, log)
	factory := unitofwork.NewRepositoryFactory(db)

	wallet := NewWalletService(factory, memory.NewBalanceCache(time.Minute), gw, publisher, clk, log, DefaultWalletOptions())
	billing := NewBillingService(factory, wallet, publisher, clk, log, DefaultBillingOptions())

	return &testEnv{
		ctx:       context.Background(),
		db:        db,
		factory:   factory,
		clock:     clk,
		gateway:   gw,
		recorder:  recorder,
		wallet:    wallet,
		billing:   billing,
		subs:      NewSubscriptionService(factory, billing, wallet, gw, publisher, clk, log),
		instances: NewServiceInstanceService(factory, log),
		accountId: uuid.New(),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertSameTime(t *testing.T, want, got time.Time) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s", want.Format(time.RFC3339), got.Format(time.RFC3339))
}

// newInstance creates a service instance priced as a four-slot split of 55.90.
func (e *testEnv) newInstance(t *testing.T) *dto.ServiceInstanceResponse {
	t.Helper()
	total := dec("55.90")
	res, err := e.instances.Create(e.ctx, e.accountId, &dto.CreateServiceInstanceRequest{
		Name:         "Family streaming",
		PlanTotal:    &total,
		Slots:        4,
		ContactEmail: "organizer@example.com",
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) newSubscription(t *testing.T, instanceId uuid.UUID, frequency string, start time.Time, prepaid bool) *dto.CreateSubscriptionResponse {
	t.Helper()
	res, err := e.subs.Create(e.ctx, e.accountId, &dto.CreateSubscriptionRequest{
		ParticipantId:     uuid.New(),
		ServiceInstanceId: instanceId,
		Frequency:         frequency,
		StartDate:         start,
		Prepaid:           prepaid,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) confirm(t *testing.T, chargeId uuid.UUID, method, reference string) *dto.ConfirmPaymentResponse {
	t.Helper()
	res, err := e.billing.ConfirmPayment(e.ctx, e.accountId, chargeId, &dto.ConfirmPaymentRequest{
		Method:           method,
		GatewayReference: reference,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) charges(t *testing.T, subscriptionId uuid.UUID) []*dto.ChargeResponse {
	t.Helper()
	res, err := e.billing.ListCharges(e.ctx, e.accountId, subscriptionId)
	require.NoError(t, err)
	return res
}

func (e *testEnv) ledger(t *testing.T, accountId uuid.UUID) []*entity.WalletTransaction {
	t.Helper()
	rows, err := e.factory.NewUnitOfWork(e.ctx).WalletTransactionRepository().FindAll(e.ctx,
		specification.ByAccountID{AccountID: accountId},
		specification.OrderBy{Field: "created_at"},
	)
	require.NoError(t, err)
	return rows
}

// credit books a settled payment straight into the ledger.
func (e *testEnv) credit(t *testing.T, accountId uuid.UUID, gross string, rate string, method entity.PaymentMethod) *entity.WalletTransaction {
	t.Helper()
	uow := e.factory.NewUnitOfWork(e.ctx)
	require.NoError(t, uow.Begin(e.ctx))
	defer uow.Rollback()
	txn, err := e.wallet.AppendCredit(e.ctx, uow, CreditInput{
		AccountId: accountId,
		ChargeId:  uuid.New(),
		Gross:     dec(gross),
		FeeRate:   dec(rate),
		Method:    method,
	})
	require.NoError(t, err)
	require.NoError(t, uow.Commit())
	e.wallet.InvalidateBalances(accountId)
	return txn
}
