package services

import (
	"context"
	"strings"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
)

type anchorGenerator struct {
	logger         outbound.LoggerPort
	imageGenerator outbound.ImageGeneratorPort
}

func NewAnchorGenerator(logger outbound.LoggerPort, imageGenerator outbound.ImageGeneratorPort) inbound.AnchorGeneratorPort {
	return &anchorGenerator{
		logger:         logger,
		imageGenerator: imageGenerator,
	}
}

func (g *anchorGenerator) Generate(ctx context.Context, params inbound.GenerateAnchorParams) (string, error) {
	prompt := g.enrichPrompt(params)

	g.logger.DebugWithFields("generating scene anchor", map[string]interface{}{
		"prompt": prompt,
	})

	url, err := g.imageGenerator.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error(err, "anchor image generation failed")
		return "", err
	}
	return url, nil
}

// enrichPrompt folds character descriptions into the scene prompt so a fresh
// anchor keeps the cast recognizable across scene boundaries.
func (g *anchorGenerator) enrichPrompt(params inbound.GenerateAnchorParams) string {
	parts := []string{params.Prompt}
	if len(params.CharacterDesc) > 0 {
		parts = append(parts, "Characters: "+strings.Join(params.CharacterDesc, "; "))
	}
	parts = append(parts, "cinematic still, first frame of a video scene")
	return strings.Join(parts, ". ")
}
