package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type ChainConfig struct {
	PollInterval     time.Duration
	MaxVideoPolls    int
	AnchorTimeout    time.Duration
	MaxRefImages     int
	PreviewTokenCost int64
}

func GetChainConfig() (*ChainConfig, error) {
	pollIntervalSec, err := intFromEnv("CHAIN_POLL_INTERVAL_SECONDS")
	if err != nil {
		return nil, err
	}
	maxVideoPolls, err := intFromEnv("CHAIN_MAX_VIDEO_POLLS")
	if err != nil {
		return nil, err
	}
	anchorTimeoutSec, err := intFromEnv("ANCHOR_TIMEOUT_SECONDS")
	if err != nil {
		return nil, err
	}
	maxRefImages, err := intFromEnv("CHAIN_MAX_REF_IMAGES")
	if err != nil {
		return nil, err
	}
	previewTokenCost, err := intFromEnv("PREVIEW_TOKEN_COST")
	if err != nil {
		return nil, err
	}

	return &ChainConfig{
		PollInterval:     time.Duration(pollIntervalSec) * time.Second,
		MaxVideoPolls:    maxVideoPolls,
		AnchorTimeout:    time.Duration(anchorTimeoutSec) * time.Second,
		MaxRefImages:     maxRefImages,
		PreviewTokenCost: int64(previewTokenCost),
	}, nil
}

func intFromEnv(name string) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, fmt.Errorf("%s must be set", name)
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s", name)
	}
	return val, nil
}
