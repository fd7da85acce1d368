package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
)

type klingSubmitRequest struct {
	ModelName string   `json:"model_name"`
	Prompt    string   `json:"prompt"`
	Image     string   `json:"image,omitempty"`
	ImageList []string `json:"image_list,omitempty"`
	Duration  string   `json:"duration"`
	Mode      string   `json:"mode"`
}

type klingTaskData struct {
	TaskID        string `json:"task_id"`
	TaskStatus    string `json:"task_status"`
	TaskStatusMsg string `json:"task_status_msg"`
	TaskResult    struct {
		Videos []struct {
			URL      string `json:"url"`
			Duration string `json:"duration"`
		} `json:"videos"`
	} `json:"task_result"`
}

type klingResponse struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    klingTaskData `json:"data"`
}

type klingVideoClient struct {
	logger      outbound.LoggerPort
	fetcher     ContentFetcher
	klingConfig *config.KlingConfig
}

// NewKlingVideoClient talks to the Kling image-to-video API. Kling only
// accepts 5 or 10 second clips, so requested durations are clamped to the
// nearest supported value before submission.
func NewKlingVideoClient(logger outbound.LoggerPort, fetcher ContentFetcher, klingConfig *config.KlingConfig) outbound.GenerationProviderPort {
	return &klingVideoClient{
		logger:      logger,
		fetcher:     fetcher,
		klingConfig: klingConfig,
	}
}

func (k *klingVideoClient) Submit(ctx context.Context, params outbound.SubmitTaskParams) (string, error) {
	reqBody := klingSubmitRequest{
		ModelName: params.Model,
		Prompt:    params.Prompt,
		Duration:  strconv.Itoa(clampKlingDuration(params.DurationSec)),
		Mode:      "std",
	}
	if len(params.ImageURLs) > 0 {
		reqBody.Image = params.ImageURLs[0]
		if len(params.ImageURLs) > 1 {
			reqBody.ImageList = params.ImageURLs[1:]
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		k.logger.Error(err, "Failed to marshal the kling request body")
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.klingConfig.ApiUrl+"/v1/videos/image2video", bytes.NewBuffer(payload))
	if err != nil {
		k.logger.Error(err, "Failed to create the kling submit request")
		return "", err
	}
	k.setHeaders(req)

	rawRes, err := k.fetcher.FetchContent(req)
	if err != nil {
		return "", err
	}

	var res klingResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		k.logger.Error(err, "Failed to unmarshal the kling submit response")
		return "", err
	}
	if res.Code != 0 {
		return "", fmt.Errorf("kling submission rejected: %s (code %d)", res.Message, res.Code)
	}
	if res.Data.TaskID == "" {
		return "", fmt.Errorf("kling submit response contains no task id")
	}

	return res.Data.TaskID, nil
}

func (k *klingVideoClient) Query(ctx context.Context, model string, taskID string) (*outbound.TaskResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.klingConfig.ApiUrl+"/v1/videos/image2video/"+taskID, nil)
	if err != nil {
		k.logger.Error(err, "Failed to create the kling query request")
		return nil, err
	}
	k.setHeaders(req)

	rawRes, err := k.fetcher.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var res klingResponse
	err = json.Unmarshal(rawRes, &res)
	if err != nil {
		k.logger.Error(err, "Failed to unmarshal the kling query response")
		return nil, err
	}
	if res.Code != 0 {
		return nil, fmt.Errorf("kling query rejected: %s (code %d)", res.Message, res.Code)
	}

	switch res.Data.TaskStatus {
	case "submitted", "processing":
		return &outbound.TaskResult{Status: outbound.TaskGenerating}, nil
	case "succeed":
		if len(res.Data.TaskResult.Videos) == 0 || res.Data.TaskResult.Videos[0].URL == "" {
			return &outbound.TaskResult{Status: outbound.TaskFailed, Error: "completed without video url"}, nil
		}
		return &outbound.TaskResult{Status: outbound.TaskDone, VideoURL: res.Data.TaskResult.Videos[0].URL}, nil
	case "failed":
		msg := res.Data.TaskStatusMsg
		if msg == "" {
			msg = "kling task failed"
		}
		return &outbound.TaskResult{Status: outbound.TaskFailed, Error: msg}, nil
	default:
		return &outbound.TaskResult{Status: outbound.TaskFailed, Error: "unknown kling task status: " + res.Data.TaskStatus}, nil
	}
}

func (k *klingVideoClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+k.klingConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")
}

func clampKlingDuration(durationSec int) int {
	if durationSec <= 5 {
		return 5
	}
	return 10
}
