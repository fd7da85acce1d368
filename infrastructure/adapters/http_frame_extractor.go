package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
)

type extractFrameRequest struct {
	VideoURL string  `json:"video_url"`
	AtSec    float64 `json:"at_sec"`
}

type httpFrameExtractor struct {
	logger      outbound.LoggerPort
	fetcher     ContentFetcher
	frameConfig *config.FrameServiceConfig
}

// NewHTTPFrameExtractor calls the internal ffmpeg frame service: clip URL
// plus timestamp in, raw image bytes out. The service backs off to the last
// decodable frame when the timestamp lands past the end of the clip.
func NewHTTPFrameExtractor(logger outbound.LoggerPort, fetcher ContentFetcher, frameConfig *config.FrameServiceConfig) outbound.FrameExtractorPort {
	return &httpFrameExtractor{
		logger:      logger,
		fetcher:     fetcher,
		frameConfig: frameConfig,
	}
}

func (e *httpFrameExtractor) ExtractFrame(ctx context.Context, videoURL string, atSec float64) ([]byte, error) {
	payload, err := json.Marshal(extractFrameRequest{
		VideoURL: videoURL,
		AtSec:    atSec,
	})
	if err != nil {
		e.logger.Error(err, "Failed to marshal the frame extraction request")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.frameConfig.ApiUrl+"/extract", bytes.NewBuffer(payload))
	if err != nil {
		e.logger.Error(err, "Failed to create the frame extraction request")
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	image, err := e.fetcher.FetchContent(req)
	if err != nil {
		e.logger.ErrorWithFields(err, "Frame extraction failed", map[string]interface{}{
			"videoURL": videoURL,
			"atSec":    atSec,
		})
		return nil, err
	}
	return image, nil
}
