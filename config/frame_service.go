package config

import (
	"fmt"
	"os"
)

type FrameServiceConfig struct {
	ApiUrl string
}

func GetFrameServiceConfig() (*FrameServiceConfig, error) {
	apiUrl := os.Getenv("FRAME_SERVICE_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("FRAME_SERVICE_URL must be set")
	}

	return &FrameServiceConfig{
		ApiUrl: apiUrl,
	}, nil
}
