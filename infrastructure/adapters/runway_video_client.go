package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
)

type runwayPromptImage struct {
	URI      string `json:"uri"`
	Position string `json:"position"`
}

type runwaySubmitRequest struct {
	Model       string              `json:"model"`
	PromptText  string              `json:"promptText"`
	PromptImage []runwayPromptImage `json:"promptImage"`
	Duration    int                 `json:"duration"`
	Ratio       string              `json:"ratio,omitempty"`
}

type runwaySubmitResponse struct {
	ID string `json:"id"`
}

type runwayTaskResponse struct {
	ID      string   `json:"id"`
	Status  string   `json:"status"`
	Output  []string `json:"output"`
	Failure string   `json:"failure"`
}

type runwayVideoClient struct {
	logger       outbound.LoggerPort
	fetcher      ContentFetcher
	runwayConfig *config.RunwayConfig
}

// NewRunwayVideoClient talks to the Runway image-to-video API. Runway
// accepts clip durations between 2 and 10 seconds; out-of-range requests
// are clamped, not rejected.
func NewRunwayVideoClient(logger outbound.LoggerPort, fetcher ContentFetcher, runwayConfig *config.RunwayConfig) outbound.GenerationProviderPort {
	return &runwayVideoClient{
		logger:       logger,
		fetcher:      fetcher,
		runwayConfig: runwayConfig,
	}
}

func (r *runwayVideoClient) Submit(ctx context.Context, params outbound.SubmitTaskParams) (string, error) {
	promptImages := make([]runwayPromptImage, 0, len(params.ImageURLs))
	for i, url := range params.ImageURLs {
		position := "first"
		if i > 0 {
			position = "reference"
		}
		promptImages = append(promptImages, runwayPromptImage{URI: url, Position: position})
	}

	reqBody := runwaySubmitRequest{
		Model:       params.Model,
		PromptText:  params.Prompt,
		PromptImage: promptImages,
		Duration:    clampRunwayDuration(params.DurationSec),
		Ratio:       params.AspectRatio,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		r.logger.Error(err, "Failed to marshal the runway request body")
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.runwayConfig.ApiUrl+"/v1/image_to_video", bytes.NewBuffer(payload))
	if err != nil {
		r.logger.Error(err, "Failed to create the runway submit request")
		return "", err
	}
	r.setHeaders(req)

	rawRes, err := r.fetcher.FetchContent(req)
	if err != nil {
		return "", err
	}

	var res runwaySubmitResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		r.logger.Error(err, "Failed to unmarshal the runway submit response")
		return "", err
	}
	if res.ID == "" {
		return "", fmt.Errorf("runway submit response contains no task id")
	}

	return res.ID, nil
}

func (r *runwayVideoClient) Query(ctx context.Context, model string, taskID string) (*outbound.TaskResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.runwayConfig.ApiUrl+"/v1/tasks/"+taskID, nil)
	if err != nil {
		r.logger.Error(err, "Failed to create the runway query request")
		return nil, err
	}
	r.setHeaders(req)

	rawRes, err := r.fetcher.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var res runwayTaskResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		r.logger.Error(err, "Failed to unmarshal the runway query response")
		return nil, err
	}

	switch res.Status {
	case "PENDING", "RUNNING", "THROTTLED":
		return &outbound.TaskResult{Status: outbound.TaskGenerating}, nil
	case "SUCCEEDED":
		if len(res.Output) == 0 || res.Output[0] == "" {
			return &outbound.TaskResult{Status: outbound.TaskFailed, Error: "completed without video url"}, nil
		}
		return &outbound.TaskResult{Status: outbound.TaskDone, VideoURL: res.Output[0]}, nil
	case "FAILED", "CANCELLED":
		msg := res.Failure
		if msg == "" {
			msg = "runway task " + res.Status
		}
		return &outbound.TaskResult{Status: outbound.TaskFailed, Error: msg}, nil
	default:
		return &outbound.TaskResult{Status: outbound.TaskFailed, Error: "unknown runway task status: " + res.Status}, nil
	}
}

func (r *runwayVideoClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+r.runwayConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Runway-Version", "2024-11-06")
}

func clampRunwayDuration(durationSec int) int {
	if durationSec < 2 {
		return 2
	}
	if durationSec > 10 {
		return 10
	}
	return durationSec
}
