package mock_backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
)

// FakeImageGenerator returns a deterministic URL per call and records the
// prompts it was asked to render.
type FakeImageGenerator struct {
	mu sync.Mutex

	Err error

	prompts []string
}

func NewFakeImageGenerator() *FakeImageGenerator {
	return &FakeImageGenerator{}
}

var _ outbound.ImageGeneratorPort = (*FakeImageGenerator)(nil)

func (g *FakeImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Err != nil {
		return "", g.Err
	}

	g.prompts = append(g.prompts, prompt)
	return fmt.Sprintf("https://images.example/generated-%d.jpg", len(g.prompts)), nil
}

func (g *FakeImageGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}
