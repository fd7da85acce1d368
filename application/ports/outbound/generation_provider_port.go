package outbound

import "context"

type TaskStatus string

const (
	TaskGenerating TaskStatus = "generating"
	TaskDone       TaskStatus = "done"
	TaskFailed     TaskStatus = "failed"
)

type SubmitTaskParams struct {
	Model       string
	Resolution  string
	Prompt      string
	ImageURLs   []string
	AspectRatio string
	DurationSec int
}

// TaskResult is the normalized shape every provider's raw status collapses
// into. Done always carries a resolvable VideoURL; a provider claiming
// success without one is reported as Failed.
type TaskResult struct {
	Status   TaskStatus
	VideoURL string
	Error    string
}

// GenerationProviderPort submits and polls video generation tasks. Concrete
// clients map the request into their own wire format, clamping the duration
// into the provider's supported range before submission.
type GenerationProviderPort interface {
	Submit(ctx context.Context, params SubmitTaskParams) (string, error)
	Query(ctx context.Context, model string, taskID string) (*TaskResult, error)
}
