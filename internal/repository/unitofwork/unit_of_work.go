package unitofwork

import (
	"context"

	"subshare-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ServiceInstanceRepository() contract.ServiceInstanceRepository
	SubscriptionRepository() contract.SubscriptionRepository
	ChargeRepository() contract.ChargeRepository
	WalletTransactionRepository() contract.WalletTransactionRepository
}
