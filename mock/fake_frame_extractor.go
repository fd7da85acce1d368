package mock_backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
)

type FrameRequest struct {
	VideoURL string
	AtSec    float64
}

// FakeFrameExtractor records every extraction request.
type FakeFrameExtractor struct {
	mu sync.Mutex

	Err error

	requests []FrameRequest
}

func NewFakeFrameExtractor() *FakeFrameExtractor {
	return &FakeFrameExtractor{}
}

var _ outbound.FrameExtractorPort = (*FakeFrameExtractor)(nil)

func (e *FakeFrameExtractor) ExtractFrame(ctx context.Context, videoURL string, atSec float64) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.Err != nil {
		return nil, e.Err
	}

	e.requests = append(e.requests, FrameRequest{VideoURL: videoURL, AtSec: atSec})
	return []byte(fmt.Sprintf("frame:%s@%.1f", videoURL, atSec)), nil
}

func (e *FakeFrameExtractor) Requests() []FrameRequest {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]FrameRequest, len(e.requests))
	copy(out, e.requests)
	return out
}
