package inbound

import "context"

type RunChainParams struct {
	ScriptID   string
	EpisodeNum int
	UserID     string
}

// ChainResult summarizes one chain invocation. Per-segment failures end up
// as terminal segment states, not errors; the error return of RunChain is
// reserved for infrastructure problems that prevented the run entirely.
type ChainResult struct {
	Total     int
	Completed int
	Failed    int
	Aborted   bool
	AbortedAt int
	Reason    string
}

// ChainRunnerPort walks an episode's reserved segments in order, threading
// each finished clip's last frame into the next submission. It returns only
// after the chain terminates; progress is observable out-of-band through
// segment state.
type ChainRunnerPort interface {
	RunChain(ctx context.Context, params RunChainParams) (*ChainResult, error)
}
