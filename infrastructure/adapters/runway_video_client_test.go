package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lerfilm/opendrama-sub004/application/ports/outbound"
	"github.com/Lerfilm/opendrama-sub004/config"
)

func newRunwayTestClient(handler http.HandlerFunc) (outbound.GenerationProviderPort, *httptest.Server) {
	srv := httptest.NewServer(handler)
	logger := NewZerologWrapper()
	client := NewRunwayVideoClient(logger, NewContentFetcher(logger), &config.RunwayConfig{
		ApiUrl: srv.URL,
		ApiKey: "test-key",
	})
	return client, srv
}

func TestRunwayVideoClient_SubmitClampsDurationAndPositionsImages(t *testing.T) {
	var received runwaySubmitRequest
	client, srv := newRunwayTestClient(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Error("failed to decode submit body:", err)
		}
		if version := r.Header.Get("X-Runway-Version"); version == "" {
			t.Error("missing X-Runway-Version header")
		}
		fmt.Fprint(w, `{"id":"rt-1"}`)
	})
	defer srv.Close()

	cases := []struct {
		requested int
		want      int
	}{
		{1, 2},
		{2, 2},
		{5, 5},
		{12, 10},
	}
	for _, tc := range cases {
		taskID, err := client.Submit(context.Background(), outbound.SubmitTaskParams{
			Model:       "gen3a_turbo",
			Prompt:      "rooftop chase",
			ImageURLs:   []string{"https://anchors.example/a.jpg", "https://refs.example/b.jpg"},
			DurationSec: tc.requested,
		})
		if err != nil {
			t.Fatal("submit failed:", err)
		}
		if taskID != "rt-1" {
			t.Errorf("task id = %q", taskID)
		}
		if received.Duration != tc.want {
			t.Errorf("duration for %ds request = %d, want %d", tc.requested, received.Duration, tc.want)
		}
	}

	if len(received.PromptImage) != 2 {
		t.Fatalf("prompt images = %d, want 2", len(received.PromptImage))
	}
	if received.PromptImage[0].Position != "first" || received.PromptImage[1].Position != "reference" {
		t.Errorf("image positions = %s, %s", received.PromptImage[0].Position, received.PromptImage[1].Position)
	}
}

func TestRunwayVideoClient_QueryNormalizesStatuses(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    outbound.TaskStatus
		wantURL string
		wantErr string
	}{
		{
			name: "pending",
			body: `{"id":"rt-1","status":"PENDING"}`,
			want: outbound.TaskGenerating,
		},
		{
			name: "running",
			body: `{"id":"rt-1","status":"RUNNING"}`,
			want: outbound.TaskGenerating,
		},
		{
			name: "throttled",
			body: `{"id":"rt-1","status":"THROTTLED"}`,
			want: outbound.TaskGenerating,
		},
		{
			name:    "succeeded with output",
			body:    `{"id":"rt-1","status":"SUCCEEDED","output":["https://cdn.example/v.mp4"]}`,
			want:    outbound.TaskDone,
			wantURL: "https://cdn.example/v.mp4",
		},
		{
			name:    "succeeded without output",
			body:    `{"id":"rt-1","status":"SUCCEEDED","output":[]}`,
			want:    outbound.TaskFailed,
			wantErr: "completed without video url",
		},
		{
			name:    "failed",
			body:    `{"id":"rt-1","status":"FAILED","failure":"internal error"}`,
			want:    outbound.TaskFailed,
			wantErr: "internal error",
		},
		{
			name: "cancelled",
			body: `{"id":"rt-1","status":"CANCELLED"}`,
			want: outbound.TaskFailed,
		},
		{
			name: "unknown status",
			body: `{"id":"rt-1","status":"PAUSED"}`,
			want: outbound.TaskFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newRunwayTestClient(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			})
			defer srv.Close()

			res, err := client.Query(context.Background(), "gen3a_turbo", "rt-1")
			if err != nil {
				t.Fatal("query failed:", err)
			}
			if res.Status != tc.want {
				t.Errorf("status = %s, want %s", res.Status, tc.want)
			}
			if res.VideoURL != tc.wantURL {
				t.Errorf("video url = %q, want %q", res.VideoURL, tc.wantURL)
			}
			if tc.wantErr != "" && res.Error != tc.wantErr {
				t.Errorf("error = %q, want %q", res.Error, tc.wantErr)
			}
		})
	}
}
