package config

import (
	"fmt"
	"os"
)

type KlingConfig struct {
	ApiUrl string
	ApiKey string
}

func GetKlingConfig() (*KlingConfig, error) {
	apiUrl := os.Getenv("KLING_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("KLING_API_URL must be set")
	}
	apiKey := os.Getenv("KLING_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("KLING_API_KEY must be set")
	}

	return &KlingConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
	}, nil
}
