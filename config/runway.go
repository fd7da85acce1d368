package config

import (
	"fmt"
	"os"
)

type RunwayConfig struct {
	ApiUrl string
	ApiKey string
}

func GetRunwayConfig() (*RunwayConfig, error) {
	apiUrl := os.Getenv("RUNWAY_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("RUNWAY_API_URL must be set")
	}
	apiKey := os.Getenv("RUNWAY_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RUNWAY_API_KEY must be set")
	}

	return &RunwayConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
	}, nil
}
