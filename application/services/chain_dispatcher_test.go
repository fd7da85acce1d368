package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	mockbackend "github.com/Lerfilm/opendrama-sub004/mock"
)

type stubChainRunner struct {
	mu     sync.Mutex
	ran    []int
	failEp int
}

func (r *stubChainRunner) RunChain(ctx context.Context, params inbound.RunChainParams) (*inbound.ChainResult, error) {
	r.mu.Lock()
	r.ran = append(r.ran, params.EpisodeNum)
	r.mu.Unlock()

	if params.EpisodeNum == r.failEp {
		return nil, errors.New("store unavailable")
	}
	return &inbound.ChainResult{Total: 4, Completed: 4}, nil
}

func TestChainDispatcher_RunsEveryEpisode(t *testing.T) {
	runner := &stubChainRunner{}
	dispatcher := NewChainDispatcher(mockbackend.NoopLogger{}, mockbackend.GoroutineDispatcher{}, runner)

	results, err := dispatcher.RunEpisodes(context.Background(), inbound.DispatchParams{
		ScriptID:    "script-1",
		EpisodeNums: []int{3, 1, 2},
		UserID:      "u1",
	})
	if err != nil {
		t.Fatal("dispatch failed:", err)
	}

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, res := range results {
		if res.EpisodeNum != i+1 {
			t.Errorf("result %d is episode %d, want ascending order", i, res.EpisodeNum)
		}
		if res.Err != nil {
			t.Errorf("episode %d returned error: %v", res.EpisodeNum, res.Err)
		}
		if res.Result == nil || res.Result.Completed != 4 {
			t.Errorf("episode %d result = %+v", res.EpisodeNum, res.Result)
		}
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if len(runner.ran) != 3 {
		t.Errorf("runner invoked %d times, want 3", len(runner.ran))
	}
}

func TestChainDispatcher_EpisodeErrorStaysIsolated(t *testing.T) {
	runner := &stubChainRunner{failEp: 2}
	dispatcher := NewChainDispatcher(mockbackend.NoopLogger{}, mockbackend.GoroutineDispatcher{}, runner)

	results, err := dispatcher.RunEpisodes(context.Background(), inbound.DispatchParams{
		ScriptID:    "script-1",
		EpisodeNums: []int{1, 2, 3},
		UserID:      "u1",
	})
	if err != nil {
		t.Fatal("dispatch failed:", err)
	}

	for _, res := range results {
		wantErr := res.EpisodeNum == 2
		if (res.Err != nil) != wantErr {
			t.Errorf("episode %d error = %v", res.EpisodeNum, res.Err)
		}
	}
}
