package inbound

import "context"

type DispatchParams struct {
	ScriptID    string
	EpisodeNums []int
	UserID      string
}

type EpisodeResult struct {
	EpisodeNum int
	Result     *ChainResult
	Err        error
}

// ChainDispatcherPort runs chains for several episodes of one script
// concurrently, one worker per episode. Episodes are independent; no
// ordering is guaranteed across them.
type ChainDispatcherPort interface {
	RunEpisodes(ctx context.Context, params DispatchParams) ([]EpisodeResult, error)
}
