package outbound

import "context"

// ImageGeneratorPort produces a single text-to-image result and blocks until
// the hosted task finishes or ctx expires. The returned URL may point at
// provider-side transient storage; callers mirror it before relying on it.
type ImageGeneratorPort interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
