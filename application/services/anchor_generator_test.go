package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Lerfilm/opendrama-sub004/application/ports/inbound"
	mockbackend "github.com/Lerfilm/opendrama-sub004/mock"
)

func TestAnchorGenerator_EnrichesPromptWithCharacters(t *testing.T) {
	images := mockbackend.NewFakeImageGenerator()
	generator := NewAnchorGenerator(mockbackend.NoopLogger{}, images)

	url, err := generator.Generate(context.Background(), inbound.GenerateAnchorParams{
		Prompt:        "rain-soaked alley at night",
		CharacterDesc: []string{"Mara, a weary detective", "Theo, her informant"},
	})
	if err != nil {
		t.Fatal("generate failed:", err)
	}
	if url == "" {
		t.Fatal("generate returned empty url")
	}

	prompts := images.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("image generator called %d times", len(prompts))
	}
	prompt := prompts[0]
	if !strings.HasPrefix(prompt, "rain-soaked alley at night") {
		t.Errorf("prompt %q does not start with the scene prompt", prompt)
	}
	if !strings.Contains(prompt, "Characters: Mara, a weary detective; Theo, her informant") {
		t.Errorf("prompt %q missing character descriptions", prompt)
	}
	if !strings.Contains(prompt, "first frame of a video scene") {
		t.Errorf("prompt %q missing still-frame directive", prompt)
	}
}

func TestAnchorGenerator_NoCharacters(t *testing.T) {
	images := mockbackend.NewFakeImageGenerator()
	generator := NewAnchorGenerator(mockbackend.NoopLogger{}, images)

	_, err := generator.Generate(context.Background(), inbound.GenerateAnchorParams{Prompt: "empty warehouse"})
	if err != nil {
		t.Fatal("generate failed:", err)
	}
	if strings.Contains(images.Prompts()[0], "Characters:") {
		t.Errorf("prompt %q carries a character section with no cast", images.Prompts()[0])
	}
}
