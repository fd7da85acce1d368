package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
)

const fluxPollInterval = 3 * time.Second

type fluxSubmitRequest struct {
	Prompt    string `json:"prompt"`
	ImageSize string `json:"image_size,omitempty"`
	NumImages int    `json:"num_images"`
}

type fluxSubmitResponse struct {
	RequestID string `json:"request_id"`
}

type fluxStatusResponse struct {
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type fluxResultResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type fluxImageClient struct {
	logger     outbound.LoggerPort
	fetcher    ContentFetcher
	fluxConfig *config.FluxConfig
}

// NewFluxImageClient generates anchor images through a queue-style hosted
// API: submit returns a request id, status is polled, and the result is
// fetched once the task completes. Generate blocks until the image is ready
// or ctx expires.
func NewFluxImageClient(logger outbound.LoggerPort, fetcher ContentFetcher, fluxConfig *config.FluxConfig) outbound.ImageGeneratorPort {
	return &fluxImageClient{
		logger:     logger,
		fetcher:    fetcher,
		fluxConfig: fluxConfig,
	}
}

func (f *fluxImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	requestID, err := f.submit(ctx, prompt)
	if err != nil {
		return "", err
	}

	ticker := time.NewTicker(fluxPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("anchor generation timed out for request %s: %w", requestID, ctx.Err())
		case <-ticker.C:
			status, err := f.queryStatus(ctx, requestID)
			if err != nil {
				return "", err
			}

			switch status.Status {
			case "COMPLETED":
				return f.fetchResult(ctx, requestID)
			case "FAILED":
				if status.Error != nil {
					return "", fmt.Errorf("image generation failed: %s", status.Error.Message)
				}
				return "", fmt.Errorf("image generation failed for request %s", requestID)
			case "IN_QUEUE", "IN_PROGRESS":
				continue
			default:
				return "", fmt.Errorf("unknown status %q for request %s", status.Status, requestID)
			}
		}
	}
}

func (f *fluxImageClient) submit(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(fluxSubmitRequest{
		Prompt:    prompt,
		ImageSize: f.fluxConfig.Size,
		NumImages: 1,
	})
	if err != nil {
		f.logger.Error(err, "Failed to marshal the flux request body")
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.fluxConfig.ApiUrl, bytes.NewBuffer(payload))
	if err != nil {
		f.logger.Error(err, "Failed to create the flux submit request")
		return "", err
	}
	f.setHeaders(req)

	rawRes, err := f.fetcher.FetchContent(req)
	if err != nil {
		return "", err
	}

	var res fluxSubmitResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		f.logger.Error(err, "Failed to unmarshal the flux submit response")
		return "", err
	}
	if res.RequestID == "" {
		return "", fmt.Errorf("flux submit response contains no request id")
	}

	return res.RequestID, nil
}

func (f *fluxImageClient) queryStatus(ctx context.Context, requestID string) (*fluxStatusResponse, error) {
	statusURL := fmt.Sprintf("%s/requests/%s/status", strings.TrimSuffix(f.fluxConfig.ApiUrl, "/"), requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, err
	}
	f.setHeaders(req)

	rawRes, err := f.fetcher.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var res fluxStatusResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		f.logger.Error(err, "Failed to unmarshal the flux status response")
		return nil, err
	}
	return &res, nil
}

func (f *fluxImageClient) fetchResult(ctx context.Context, requestID string) (string, error) {
	resultURL := fmt.Sprintf("%s/requests/%s", strings.TrimSuffix(f.fluxConfig.ApiUrl, "/"), requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return "", err
	}
	f.setHeaders(req)

	rawRes, err := f.fetcher.FetchContent(req)
	if err != nil {
		return "", err
	}

	var res fluxResultResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		f.logger.Error(err, "Failed to unmarshal the flux result response")
		return "", err
	}
	if len(res.Images) == 0 || res.Images[0].URL == "" {
		return "", fmt.Errorf("flux result for request %s contains no image url", requestID)
	}

	return res.Images[0].URL, nil
}

func (f *fluxImageClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Key "+f.fluxConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
