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

func newKlingTestClient(handler http.HandlerFunc) (outbound.GenerationProviderPort, *httptest.Server) {
	srv := httptest.NewServer(handler)
	logger := NewZerologWrapper()
	client := NewKlingVideoClient(logger, NewContentFetcher(logger), &config.KlingConfig{
		ApiUrl: srv.URL,
		ApiKey: "test-key",
	})
	return client, srv
}

func TestKlingVideoClient_SubmitClampsDuration(t *testing.T) {
	var received klingSubmitRequest
	client, srv := newKlingTestClient(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Error("failed to decode submit body:", err)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization header = %q", auth)
		}
		fmt.Fprint(w, `{"code":0,"data":{"task_id":"kt-1"}}`)
	})
	defer srv.Close()

	cases := []struct {
		requested int
		want      string
	}{
		{3, "5"},
		{5, "5"},
		{7, "10"},
		{15, "10"},
	}
	for _, tc := range cases {
		taskID, err := client.Submit(context.Background(), outbound.SubmitTaskParams{
			Model:       "kling-v1",
			Prompt:      "rooftop chase",
			ImageURLs:   []string{"https://anchors.example/a.jpg", "https://refs.example/b.jpg"},
			DurationSec: tc.requested,
		})
		if err != nil {
			t.Fatal("submit failed:", err)
		}
		if taskID != "kt-1" {
			t.Errorf("task id = %q", taskID)
		}
		if received.Duration != tc.want {
			t.Errorf("duration for %ds request = %s, want %s", tc.requested, received.Duration, tc.want)
		}
		if received.Image != "https://anchors.example/a.jpg" {
			t.Errorf("seed image = %q", received.Image)
		}
		if len(received.ImageList) != 1 {
			t.Errorf("image list = %v", received.ImageList)
		}
	}
}

func TestKlingVideoClient_QueryNormalizesStatuses(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    outbound.TaskStatus
		wantURL string
		wantErr string
	}{
		{
			name: "submitted",
			body: `{"code":0,"data":{"task_id":"kt-1","task_status":"submitted"}}`,
			want: outbound.TaskGenerating,
		},
		{
			name: "processing",
			body: `{"code":0,"data":{"task_id":"kt-1","task_status":"processing"}}`,
			want: outbound.TaskGenerating,
		},
		{
			name:    "succeed with url",
			body:    `{"code":0,"data":{"task_id":"kt-1","task_status":"succeed","task_result":{"videos":[{"url":"https://cdn.example/v.mp4"}]}}}`,
			want:    outbound.TaskDone,
			wantURL: "https://cdn.example/v.mp4",
		},
		{
			name:    "succeed without url",
			body:    `{"code":0,"data":{"task_id":"kt-1","task_status":"succeed","task_result":{"videos":[]}}}`,
			want:    outbound.TaskFailed,
			wantErr: "completed without video url",
		},
		{
			name:    "failed",
			body:    `{"code":0,"data":{"task_id":"kt-1","task_status":"failed","task_status_msg":"moderation"}}`,
			want:    outbound.TaskFailed,
			wantErr: "moderation",
		},
		{
			name: "unknown status",
			body: `{"code":0,"data":{"task_id":"kt-1","task_status":"archived"}}`,
			want: outbound.TaskFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client, srv := newKlingTestClient(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tc.body)
			})
			defer srv.Close()

			res, err := client.Query(context.Background(), "kling-v1", "kt-1")
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

func TestKlingVideoClient_QueryRejectedCode(t *testing.T) {
	client, srv := newKlingTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1102,"message":"account in arrears"}`)
	})
	defer srv.Close()

	_, err := client.Query(context.Background(), "kling-v1", "kt-1")
	if err == nil {
		t.Fatal("query with error code succeeded")
	}
}
