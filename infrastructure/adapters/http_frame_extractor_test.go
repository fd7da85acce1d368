package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lerfilm/opendrama-sub004/config"
)

func TestHTTPFrameExtractor_ExtractFrame(t *testing.T) {
	frame := []byte{0xff, 0xd8, 0xff, 0xe0}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("request path = %s", r.URL.Path)
		}
		var req extractFrameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error("failed to decode request:", err)
		}
		if req.VideoURL != "https://cdn.example/v.mp4" || req.AtSec != 5 {
			t.Errorf("request = %+v", req)
		}
		w.Write(frame)
	}))
	defer srv.Close()

	logger := NewZerologWrapper()
	extractor := NewHTTPFrameExtractor(logger, NewContentFetcher(logger), &config.FrameServiceConfig{ApiUrl: srv.URL})

	got, err := extractor.ExtractFrame(context.Background(), "https://cdn.example/v.mp4", 5)
	if err != nil {
		t.Fatal("extraction failed:", err)
	}
	if !bytes.Equal(got, frame) {
		t.Errorf("frame bytes = %v", got)
	}
}

func TestHTTPFrameExtractor_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "decode failure", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	logger := NewZerologWrapper()
	extractor := NewHTTPFrameExtractor(logger, NewContentFetcher(logger), &config.FrameServiceConfig{ApiUrl: srv.URL})

	if _, err := extractor.ExtractFrame(context.Background(), "https://cdn.example/v.mp4", 5); err == nil {
		t.Fatal("extraction against failing service succeeded")
	}
}
