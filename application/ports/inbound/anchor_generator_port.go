package inbound

import "context"

type GenerateAnchorParams struct {
	Prompt        string
	Resolution    string
	CharacterDesc []string
}

// AnchorGeneratorPort produces a fresh scene anchor image from an enriched
// prompt, bounded by the configured anchor timeout. The returned URL is
// provider-side and transient.
type AnchorGeneratorPort interface {
	Generate(ctx context.Context, params GenerateAnchorParams) (string, error)
}
