package inbound

import (
	"context"

	"github.com/Lerfilm/opendrama-sub004/domain"
)

type CheckResult struct {
	Status   domain.SegmentStatus
	VideoURL string
	Error    string
}

// SegmentStatusCheckerPort is the out-of-band poller: it queries the
// provider for an in-flight segment and applies the same conditional
// done/failed transitions as the chain runner. Only the caller whose
// transition wins settles the ledger.
type SegmentStatusCheckerPort interface {
	CheckSegment(ctx context.Context, segmentID string) (*CheckResult, error)
}
