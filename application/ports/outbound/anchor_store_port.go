package outbound

import "context"

// AnchorStorePort mirrors anchor frames to durable storage so chain progress
// survives a crash mid-run.
type AnchorStorePort interface {
	SaveBytes(ctx context.Context, scriptID string, segmentID string, image []byte) (string, error)
	// MirrorURL downloads a transient remote image and stores it durably.
	MirrorURL(ctx context.Context, scriptID string, segmentID string, sourceURL string) (string, error)
}
