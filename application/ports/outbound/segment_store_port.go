package outbound

import (
	"context"

	"github.com/Lerfilm/opendrama-sub004/domain"
)

// SegmentStorePort is the durable record of generation work. All status
// transitions are conditional: they succeed only if the segment is still in
// one of the expected prior states, and report the outcome as a bool. That
// compare-and-swap is what keeps the chain runner and the out-of-band status
// checker from settling the same segment twice.
type SegmentStorePort interface {
	GetSegment(ctx context.Context, segmentID string) (*domain.Segment, error)

	// ListByEpisode returns the episode's segments in the given statuses
	// (all statuses when the slice is empty), ordered by scene number then
	// segment index.
	ListByEpisode(ctx context.Context, scriptID string, episodeNum int, statuses []domain.SegmentStatus) ([]domain.Segment, error)

	SetSeedImage(ctx context.Context, segmentID string, seedImageURL string) error

	// MarkSubmitted transitions reserved -> submitted, storing the provider
	// task id.
	MarkSubmitted(ctx context.Context, segmentID string, providerTaskID string) (bool, error)

	// MarkGenerating transitions submitted -> generating.
	MarkGenerating(ctx context.Context, segmentID string) (bool, error)

	// MarkDone transitions submitted|generating -> done, storing the video
	// URL. Exactly one of two racing callers wins.
	MarkDone(ctx context.Context, segmentID string, videoURL string) (bool, error)

	// MarkFailed transitions any non-terminal status -> failed, recording
	// the error message.
	MarkFailed(ctx context.Context, segmentID string, errorMessage string) (bool, error)

	// FailRemaining marks each listed segment failed (non-terminal statuses
	// only) and returns the ids that actually transitioned, so the caller
	// can refund exactly those reservations.
	FailRemaining(ctx context.Context, segmentIDs []string, errorMessage string) ([]string, error)
}
