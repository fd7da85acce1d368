package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/domain"
	"github.com/google/uuid"
)

type tokenLedger struct {
	logger outbound.LoggerPort
	store  outbound.LedgerStorePort
}

func NewTokenLedger(logger outbound.LoggerPort, store outbound.LedgerStorePort) inbound.TokenLedgerPort {
	return &tokenLedger{
		logger: logger,
		store:  store,
	}
}

func (l *tokenLedger) Reserve(ctx context.Context, userID string, amount int64, reason string) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("reserve amount must be positive, got %d", amount)
	}

	acct, err := l.store.UpdateAccount(ctx, userID, func(a *domain.Account) error {
		if a.Available() < amount {
			return domain.ErrInsufficientFunds
		}
		a.Reserved += amount
		return nil
	})
	if errors.Is(err, domain.ErrInsufficientFunds) {
		l.logger.DebugWithFields("reservation rejected", map[string]interface{}{
			"userID": userID,
			"amount": amount,
		})
		return false, nil
	}
	if err != nil {
		l.logger.Error(err, "failed to reserve tokens")
		return false, err
	}

	err = l.appendEntry(ctx, acct, domain.EntryReservation, amount, reason, "", nil)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *tokenLedger) ConfirmDeduction(ctx context.Context, userID string, amount int64, meta inbound.OperationMeta) error {
	if amount <= 0 {
		return fmt.Errorf("confirm amount must be positive, got %d", amount)
	}

	if meta.Ref != "" {
		settled, err := l.store.HasEntryRef(ctx, userID, meta.Ref)
		if err != nil {
			l.logger.Error(err, "failed to check settlement ref")
			return err
		}
		if settled {
			l.logger.DebugWithFields("deduction already settled, skipping", map[string]interface{}{
				"userID": userID,
				"ref":    meta.Ref,
			})
			return nil
		}
	}

	acct, err := l.store.UpdateAccount(ctx, userID, func(a *domain.Account) error {
		if a.Reserved < amount {
			return fmt.Errorf("confirm of %d exceeds reserved %d for user %s", amount, a.Reserved, a.UserID)
		}
		a.Balance -= amount
		a.Reserved -= amount
		a.TotalConsumed += amount
		return nil
	})
	if err != nil {
		l.logger.Error(err, "failed to confirm deduction")
		return err
	}

	return l.appendEntry(ctx, acct, domain.EntryConsumption, -amount, meta.Description, meta.Ref, meta.Extra)
}

func (l *tokenLedger) RefundReservation(ctx context.Context, userID string, amount int64, reason string) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amount)
	}

	acct, err := l.store.UpdateAccount(ctx, userID, func(a *domain.Account) error {
		if a.Reserved < amount {
			return domain.ErrRefundExceedsHold
		}
		a.Reserved -= amount
		return nil
	})
	if err != nil {
		l.logger.ErrorWithFields(err, "failed to refund reservation", map[string]interface{}{
			"userID": userID,
			"amount": amount,
		})
		return err
	}

	return l.appendEntry(ctx, acct, domain.EntryRefund, -amount, reason, "", nil)
}

func (l *tokenLedger) DirectDeduction(ctx context.Context, userID string, amount int64, meta inbound.OperationMeta) (bool, error) {
	if amount <= 0 {
		return false, fmt.Errorf("deduction amount must be positive, got %d", amount)
	}

	if meta.Ref != "" {
		settled, err := l.store.HasEntryRef(ctx, userID, meta.Ref)
		if err != nil {
			return false, err
		}
		if settled {
			return true, nil
		}
	}

	acct, err := l.store.UpdateAccount(ctx, userID, func(a *domain.Account) error {
		if a.Available() < amount {
			return domain.ErrInsufficientFunds
		}
		a.Balance -= amount
		a.TotalConsumed += amount
		return nil
	})
	if errors.Is(err, domain.ErrInsufficientFunds) {
		return false, nil
	}
	if err != nil {
		l.logger.Error(err, "failed to apply direct deduction")
		return false, err
	}

	err = l.appendEntry(ctx, acct, domain.EntryConsumption, -amount, meta.Description, meta.Ref, meta.Extra)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *tokenLedger) AddTokens(ctx context.Context, userID string, amount int64, source string, meta inbound.OperationMeta) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	entryType := domain.EntryBonus
	if source == "purchase" {
		entryType = domain.EntryPurchase
	}

	acct, err := l.store.UpdateAccount(ctx, userID, func(a *domain.Account) error {
		a.Balance += amount
		if entryType == domain.EntryPurchase {
			a.TotalPurchased += amount
		}
		return nil
	})
	if err != nil {
		l.logger.Error(err, "failed to credit tokens")
		return err
	}

	return l.appendEntry(ctx, acct, entryType, amount, meta.Description, meta.Ref, meta.Extra)
}

func (l *tokenLedger) GetAvailableBalance(ctx context.Context, userID string) (int64, error) {
	acct, err := l.store.GetAccount(ctx, userID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Available(), nil
}

func (l *tokenLedger) appendEntry(ctx context.Context, acct *domain.Account, entryType domain.LedgerEntryType,
	amount int64, description string, ref string, extra map[string]string) error {
	entry := domain.LedgerEntry{
		ID:           uuid.NewString(),
		UserID:       acct.UserID,
		Type:         entryType,
		Amount:       amount,
		BalanceAfter: acct.Balance,
		Description:  description,
		Ref:          ref,
		Metadata:     extra,
		CreatedAt:    time.Now().UTC(),
	}
	err := l.store.AppendEntry(ctx, entry)
	if err != nil {
		l.logger.ErrorWithFields(err, "failed to append ledger entry", map[string]interface{}{
			"userID": acct.UserID,
			"type":   string(entryType),
			"amount": amount,
		})
		return err
	}
	return nil
}
