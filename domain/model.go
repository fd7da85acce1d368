package domain

import (
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient available balance")
	ErrAccountNotFound   = errors.New("account not found")
	ErrSegmentNotFound   = errors.New("segment not found")
	ErrRefundExceedsHold = errors.New("refund exceeds reserved amount")
)

// Account is the per-user token record. Available funds are always
// Balance - Reserved; callers never mutate the fields directly, only
// through the token ledger operations.
type Account struct {
	UserID         string
	Balance        int64
	Reserved       int64
	TotalPurchased int64
	TotalConsumed  int64
	Version        int64
	UpdatedAt      time.Time
}

func (a Account) Available() int64 {
	return a.Balance - a.Reserved
}

type LedgerEntryType string

const (
	EntryPurchase    LedgerEntryType = "purchase"
	EntryConsumption LedgerEntryType = "consumption"
	EntryRefund      LedgerEntryType = "refund"
	EntryBonus       LedgerEntryType = "bonus"
	EntryReservation LedgerEntryType = "reservation"
)

// LedgerEntry is an append-only audit record, one per ledger mutation.
// Amount is the balance delta for purchase/bonus/consumption entries and
// the reserved delta for reservation/refund entries (refunds are negative).
// BalanceAfter is the account balance right after the mutation, so history
// can be rebuilt by replaying entries in order.
type LedgerEntry struct {
	ID           string
	UserID       string
	Type         LedgerEntryType
	Amount       int64
	BalanceAfter int64
	Description  string
	Ref          string
	Metadata     map[string]string
	CreatedAt    time.Time
}

type SegmentStatus string

const (
	SegmentPending    SegmentStatus = "pending"
	SegmentReserved   SegmentStatus = "reserved"
	SegmentSubmitted  SegmentStatus = "submitted"
	SegmentGenerating SegmentStatus = "generating"
	SegmentDone       SegmentStatus = "done"
	SegmentFailed     SegmentStatus = "failed"
)

// Segment is one unit of video generation work. Ordering within an episode
// is (SceneNum, SegmentIndex). A segment opens a new scene when its SceneNum
// differs from the previously processed one; that is derived during a run,
// never stored.
type Segment struct {
	ID             string
	ScriptID       string
	UserID         string
	EpisodeNum     int
	SceneNum       int
	SegmentIndex   int
	DurationSec    int
	Prompt         string
	Model          string
	Resolution     string
	Status         SegmentStatus
	ProviderTaskID string
	TokenCost      int64
	SeedImageURL   string
	VideoURL       string
	ErrorMessage   string
}

// CharacterRefs is reference material for a script's cast, resolved from
// the platform's script service and folded into anchor prompts and
// image-to-video reference lists.
type CharacterRefs struct {
	Descriptions []string
	ImageURLs    []string
}
