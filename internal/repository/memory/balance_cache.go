package memory

import (
	"time"

	"subshare-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type cachedBalances struct {
	balances   entity.WalletBalances
	validUntil time.Time
}

// BalanceCache holds computed wallet balances per account. It is a read-side
// projection only: the ledger stays the source of truth and every write to an
// account's ledger must call Invalidate.
type BalanceCache struct {
	cache *cache.Cache
}

func NewBalanceCache(ttl time.Duration) *BalanceCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &BalanceCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

// Save stores balances until validUntil (ledger time), typically the moment
// the next held credit clears. A zero validUntil never expires on ledger time.
func (r *BalanceCache) Save(balances *entity.WalletBalances, validUntil time.Time) {
	r.cache.Set(balances.AccountId.String(), cachedBalances{
		balances:   *balances,
		validUntil: validUntil,
	}, cache.DefaultExpiration)
}

func (r *BalanceCache) Get(accountID uuid.UUID, now time.Time) (*entity.WalletBalances, bool) {
	x, found := r.cache.Get(accountID.String())
	if !found {
		return nil, false
	}
	entry := x.(cachedBalances)
	if !entry.validUntil.IsZero() && !now.Before(entry.validUntil) {
		r.cache.Delete(accountID.String())
		return nil, false
	}
	b := entry.balances
	b.AsOf = now
	return &b, true
}

func (r *BalanceCache) Invalidate(accountID uuid.UUID) {
	r.cache.Delete(accountID.String())
}
