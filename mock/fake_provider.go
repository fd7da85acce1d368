package mock_backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
)

type fakeTask struct {
	params outbound.SubmitTaskParams
	polls  int
}

// FakeProvider is a scriptable GenerationProviderPort. Tasks report
// generating for SucceedAfterPolls queries, then finish. Prompts listed in
// FailPrompts fail instead, and DoneWithoutURL makes successes come back
// with an empty video URL.
type FakeProvider struct {
	mu sync.Mutex

	SucceedAfterPolls int
	SubmitErr         error
	FailPrompts       map[string]string
	DoneWithoutURL    bool

	tasks   map[string]*fakeTask
	submits []outbound.SubmitTaskParams
	nextID  int
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		FailPrompts: make(map[string]string),
		tasks:       make(map[string]*fakeTask),
	}
}

var _ outbound.GenerationProviderPort = (*FakeProvider)(nil)

func (p *FakeProvider) Submit(ctx context.Context, params outbound.SubmitTaskParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.SubmitErr != nil {
		return "", p.SubmitErr
	}

	p.nextID++
	taskID := fmt.Sprintf("task-%d", p.nextID)
	p.tasks[taskID] = &fakeTask{params: params}
	p.submits = append(p.submits, params)
	return taskID, nil
}

func (p *FakeProvider) Query(ctx context.Context, model string, taskID string) (*outbound.TaskResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	task, ok := p.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("unknown task %s", taskID)
	}

	task.polls++
	if task.polls <= p.SucceedAfterPolls {
		return &outbound.TaskResult{Status: outbound.TaskGenerating}, nil
	}

	if msg, failed := p.FailPrompts[task.params.Prompt]; failed {
		return &outbound.TaskResult{Status: outbound.TaskFailed, Error: msg}, nil
	}

	if p.DoneWithoutURL {
		return &outbound.TaskResult{Status: outbound.TaskFailed, Error: "completed without video url"}, nil
	}

	return &outbound.TaskResult{
		Status:   outbound.TaskDone,
		VideoURL: fmt.Sprintf("https://videos.example/%s.mp4", taskID),
	}, nil
}

// Submits returns every submission in order.
func (p *FakeProvider) Submits() []outbound.SubmitTaskParams {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]outbound.SubmitTaskParams, len(p.submits))
	copy(out, p.submits)
	return out
}
