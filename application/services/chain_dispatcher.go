package services

import (
	"context"
	"sort"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/channel_utils"
)

type chainDispatcher struct {
	logger     outbound.LoggerPort
	workerPool outbound.TaskDispatcher
	runner     inbound.ChainRunnerPort
}

// NewChainDispatcher fans one chain runner out over several episodes. Each
// episode gets its own worker; chains share nothing but the ledger and
// segment stores, which carry their own atomicity.
func NewChainDispatcher(logger outbound.LoggerPort, workerPool outbound.TaskDispatcher,
	runner inbound.ChainRunnerPort) inbound.ChainDispatcherPort {
	return &chainDispatcher{
		logger:     logger,
		workerPool: workerPool,
		runner:     runner,
	}
}

func (d *chainDispatcher) RunEpisodes(ctx context.Context, params inbound.DispatchParams) ([]inbound.EpisodeResult, error) {
	channels := make([]<-chan inbound.EpisodeResult, 0, len(params.EpisodeNums))
	for _, ep := range params.EpisodeNums {
		episodeNum := ep
		ch := make(chan inbound.EpisodeResult, 1)
		err := d.workerPool.Submit(func() {
			defer close(ch)
			res, runErr := d.runner.RunChain(ctx, inbound.RunChainParams{
				ScriptID:   params.ScriptID,
				EpisodeNum: episodeNum,
				UserID:     params.UserID,
			})
			ch <- inbound.EpisodeResult{EpisodeNum: episodeNum, Result: res, Err: runErr}
		})
		if err != nil {
			d.logger.Error(err, "failed to dispatch episode chain")
			return nil, err
		}
		channels = append(channels, ch)
	}

	merged, err := channel_utils.MergeChannels(d.workerPool, channels...)
	if err != nil {
		d.logger.Error(err, "failed to merge episode result channels")
		return nil, err
	}

	results := make([]inbound.EpisodeResult, 0, len(channels))
	for res := range merged {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].EpisodeNum < results[j].EpisodeNum
	})
	return results, nil
}
