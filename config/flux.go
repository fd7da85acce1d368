package config

import (
	"fmt"
	"os"
)

type FluxConfig struct {
	ApiUrl string
	ApiKey string
	Size   string
}

func GetFluxConfig() (*FluxConfig, error) {
	apiUrl := os.Getenv("FLUX_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("FLUX_API_URL must be set")
	}
	apiKey := os.Getenv("FLUX_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("FLUX_API_KEY must be set")
	}
	size := os.Getenv("FLUX_IMAGE_SIZE")
	if size == "" {
		return nil, fmt.Errorf("FLUX_IMAGE_SIZE must be set")
	}

	return &FluxConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Size:   size,
	}, nil
}
