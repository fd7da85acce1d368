package mock_backend

import (
	"context"
	"sync"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/domain"
)

// MemoryLedgerStore is an in-memory LedgerStorePort used by local runs and
// tests. The single mutex makes every UpdateAccount call atomic, matching
// the contract the DynamoDB store honors with version checks.
type MemoryLedgerStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	entries  []domain.LedgerEntry
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		accounts: make(map[string]domain.Account),
	}
}

func (s *MemoryLedgerStore) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := acct
	return &copied, nil
}

func (s *MemoryLedgerStore) UpdateAccount(ctx context.Context, userID string, fn outbound.AccountUpdateFn) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		acct = domain.Account{UserID: userID}
	}
	if err := fn(&acct); err != nil {
		return nil, err
	}
	acct.Version++
	s.accounts[userID] = acct

	copied := acct
	return &copied, nil
}

func (s *MemoryLedgerStore) AppendEntry(ctx context.Context, entry domain.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryLedgerStore) HasEntryRef(ctx context.Context, userID string, ref string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entry := range s.entries {
		if entry.UserID == userID && entry.Ref == ref {
			return true, nil
		}
	}
	return false, nil
}

// Seed installs an account directly, bypassing the ledger protocol.
func (s *MemoryLedgerStore) Seed(acct domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[acct.UserID] = acct
}

// Entries returns a copy of the audit log for one user, in append order.
func (s *MemoryLedgerStore) Entries(userID string) []domain.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.LedgerEntry, 0)
	for _, entry := range s.entries {
		if entry.UserID == userID {
			out = append(out, entry)
		}
	}
	return out
}
