package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(serverURL string) *HTTPClient {
	return NewHTTPClient(serverURL, "test-key", "", time.Millisecond, testLogger())
}

func textResponse(w http.ResponseWriter, text string) {
	json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": text}}}},
		},
	})
}

func TestRecommendFilter_ParsesFencedJSON(t *testing.T) {
	var receivedBody generateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key = %q, want test-key", r.URL.Query().Get("key"))
		}

		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &receivedBody)

		textResponse(w, "```json\n{\"filter\": \"Noir\"}\n```")
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	got, err := client.RecommendFilter(context.Background(), []byte{1, 2, 3}, "video/mp4",
		[]string{"None", "Noir", "Vintage", "Vibrant"})
	if err != nil {
		t.Fatalf("RecommendFilter: %v", err)
	}
	if got != "Noir" {
		t.Fatalf("filter = %q, want Noir", got)
	}

	if receivedBody.GenerationConfig == nil || receivedBody.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Fatal("request missing JSON response config")
	}
	parts := receivedBody.Contents[0].Parts
	if parts[0].InlineData == nil || parts[0].InlineData.Data != base64.StdEncoding.EncodeToString([]byte{1, 2, 3}) {
		t.Fatal("video not carried as base64 inline data")
	}
}

func TestGeneratePromptFromImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textResponse(w, "  A sweeping aerial shot over dunes at dusk.  ")
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).GeneratePromptFromImage(context.Background(), []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("GeneratePromptFromImage: %v", err)
	}
	if got != "A sweeping aerial shot over dunes at dusk." {
		t.Fatalf("prompt = %q", got)
	}
}

func TestGenerateVideoDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		textResponse(w, `{"sunoStyleTags":"lofi","youtubeTitle":"Title","youtubeDescription":"Desc","youtubeHashtags":["#a","#b"]}`)
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).GenerateVideoDetails(context.Background(), []byte("vid"), "video/mp4")
	if err != nil {
		t.Fatalf("GenerateVideoDetails: %v", err)
	}
	if got.YouTubeTitle != "Title" || len(got.YouTubeHashtags) != 2 {
		t.Fatalf("unexpected details: %+v", got)
	}
}

func TestGenerateImage(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G'}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inlineData": map[string]any{
						"mimeType": "image/png",
						"data":     base64.StdEncoding.EncodeToString(payload),
					}},
				}}},
			},
		})
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).GenerateImage(context.Background(), "a red cube")
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("image bytes mismatch: %v", got)
	}
}

func TestGenerateImage_NoOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GenerateImage(context.Background(), "nothing")
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("err = %v, want ErrNoOutput", err)
	}
}

func TestGenerateVideo_PollsToCompletion(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()

	mux.HandleFunc("/v1beta/models/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
	})
	mux.HandleFunc("/v1beta/operations/op-1", func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) < 3 {
			json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-1", "done": false})
			return
		}
		host := "http://" + r.Host
		json.NewEncoder(w).Encode(map[string]any{
			"name": "operations/op-1",
			"done": true,
			"response": map[string]any{
				"generateVideoResponse": map[string]any{
					"generatedSamples": []any{
						map[string]any{"video": map[string]any{"uri": host + "/files/out.mp4"}},
					},
				},
			},
		})
	})
	mux.HandleFunc("/files/out.mp4", func(w http.ResponseWriter, r *http.Request) {
		// The signed link must carry the key.
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("download key = %q, want test-key", r.URL.Query().Get("key"))
		}
		fmt.Fprint(w, "video-bytes")
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	got, err := newTestClient(server.URL).GenerateVideo(context.Background(), "a storm", nil, "")
	if err != nil {
		t.Fatalf("GenerateVideo: %v", err)
	}
	if string(got) != "video-bytes" {
		t.Fatalf("video bytes = %q", got)
	}
	if polls.Load() < 3 {
		t.Fatalf("polled %d times, want at least 3", polls.Load())
	}
}

func TestGenerateVideo_ContextCancelsPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"name": "operations/op-2", "done": false})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewHTTPClient(server.URL, "test-key", "", 50*time.Millisecond, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.GenerateVideo(ctx, "never finishes", nil, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGenerateVideo_MissingLinkIsNoOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"name":     "operations/op-3",
			"done":     true,
			"response": map[string]any{"generateVideoResponse": map[string]any{"generatedSamples": []any{}}},
		})
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GenerateVideo(context.Background(), "empty", nil, "")
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("err = %v, want ErrNoOutput", err)
	}
}

func TestCollaboratorError_IsRetryable(t *testing.T) {
	if !(&CollaboratorError{StatusCode: http.StatusInternalServerError}).IsRetryable() {
		t.Fatal("expected 5xx collaborator error to be retryable")
	}
	if (&CollaboratorError{StatusCode: http.StatusBadRequest}).IsRetryable() {
		t.Fatal("expected 4xx collaborator error to be permanent")
	}
}

func TestGenerate_ServerErrorSurfacesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":"overloaded"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GeneratePromptFromImage(context.Background(), []byte("x"), "image/png")

	var collabErr *CollaboratorError
	if !errors.As(err, &collabErr) {
		t.Fatalf("err = %v, want CollaboratorError", err)
	}
	if collabErr.StatusCode != http.StatusServiceUnavailable || !strings.Contains(collabErr.Body, "overloaded") {
		t.Fatalf("unexpected error detail: %+v", collabErr)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
	}
	for _, tc := range tests {
		if got := stripFences(tc.in); got != tc.want {
			t.Fatalf("stripFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
