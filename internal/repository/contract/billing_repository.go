package contract

import (
	"context"

	"subshare-be/internal/entity"
	"subshare-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChargeRepository interface {
	Create(ctx context.Context, charge *entity.Charge) error
	Update(ctx context.Context, charge *entity.Charge) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Charge, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Charge, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

// WalletTransactionRepository is append-only. UpdateStatus is the single
// permitted in-place change.
type WalletTransactionRepository interface {
	Append(ctx context.Context, txn *entity.WalletTransaction) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.WalletTransactionStatus, gatewayReference *string) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WalletTransaction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WalletTransaction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// LockAccount serializes ledger writers of one account until the
	// surrounding transaction ends.
	LockAccount(ctx context.Context, accountID uuid.UUID) error
}
