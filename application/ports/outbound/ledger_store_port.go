package outbound

import (
	"context"

	"github.com/Lerfilm/opendrama-sub004/domain"
)

// AccountUpdateFn mutates an account in place. Returning an error leaves
// the stored account untouched and is surfaced to the caller unchanged.
type AccountUpdateFn func(acct *domain.Account) error

// LedgerStorePort is the transactional resource behind the token ledger.
// UpdateAccount must apply fn atomically against the stored record: two
// concurrent updates for the same user may never both observe the same
// prior state (row lock or optimistic version retry, the store's choice).
type LedgerStorePort interface {
	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	UpdateAccount(ctx context.Context, userID string, fn AccountUpdateFn) (*domain.Account, error)
	AppendEntry(ctx context.Context, entry domain.LedgerEntry) error
	HasEntryRef(ctx context.Context, userID string, ref string) (bool, error)
}
