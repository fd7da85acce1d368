package outbound

import "context"

// FrameExtractorPort grabs a still frame from a finished clip near the given
// timestamp. Failures are handled exactly like provider failures by callers.
type FrameExtractorPort interface {
	ExtractFrame(ctx context.Context, videoURL string, atSec float64) ([]byte, error)
}
