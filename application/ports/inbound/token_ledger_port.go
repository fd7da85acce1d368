package inbound

import "context"

// OperationMeta carries audit context for a ledger mutation. Ref is a stable
// key for the logical unit of work (the segment id for chain settlements);
// a second confirm or direct deduction with an already-settled ref is a
// no-op, never a double charge.
type OperationMeta struct {
	Ref         string
	Description string
	Extra       map[string]string
}

type TokenLedgerPort interface {
	// Reserve earmarks amount from the available balance. Returns false
	// without mutating anything when available < amount.
	Reserve(ctx context.Context, userID string, amount int64, reason string) (bool, error)

	// ConfirmDeduction converts a prior reservation into a permanent charge.
	ConfirmDeduction(ctx context.Context, userID string, amount int64, meta OperationMeta) error

	// RefundReservation releases a reservation without charging.
	RefundReservation(ctx context.Context, userID string, amount int64, reason string) error

	// DirectDeduction is a one-shot charge with no prior reservation.
	// Returns false when available < amount.
	DirectDeduction(ctx context.Context, userID string, amount int64, meta OperationMeta) (bool, error)

	// AddTokens credits the account; source is "purchase" or anything else,
	// recorded as a bonus.
	AddTokens(ctx context.Context, userID string, amount int64, source string, meta OperationMeta) error

	GetAvailableBalance(ctx context.Context, userID string) (int64, error)
}
