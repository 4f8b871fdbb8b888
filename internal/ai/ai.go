// Package ai is the boundary to the generative collaborator. Everything the
// agent asks of it goes through the Client interface; a stub implementation
// keeps the rest of the agent functional without an API key.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoOutput means the collaborator answered but produced no usable media or
// text.
var ErrNoOutput = errors.New("collaborator returned no output")

// CollaboratorError represents a failed collaborator HTTP call.
type CollaboratorError struct {
	StatusCode int
	Body       string
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator request failed: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx) and network errors.
// Client errors (4xx) are considered permanent.
func (e *CollaboratorError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// VideoDetails is the publishing metadata generated for a finished video.
type VideoDetails struct {
	SunoStyleTags      string   `json:"sunoStyleTags"`
	YouTubeTitle       string   `json:"youtubeTitle"`
	YouTubeDescription string   `json:"youtubeDescription"`
	YouTubeHashtags    []string `json:"youtubeHashtags"`
}

// Client is the collaborator capability set the agent consumes.
type Client interface {
	// RecommendFilter asks for one filter name out of the given choices,
	// judged against the supplied video. The returned name is not
	// validated here; callers parse it against their own registry.
	RecommendFilter(ctx context.Context, videoData []byte, mimeType string, choices []string) (string, error)

	// GeneratePromptFromImage describes an image as a music-video prompt.
	GeneratePromptFromImage(ctx context.Context, imageData []byte, mimeType string) (string, error)

	// GenerateAudioPromptFromVideo writes a soundtrack prompt for a video.
	GenerateAudioPromptFromVideo(ctx context.Context, videoData []byte, mimeType string) (string, error)

	// GenerateVideoDetails produces publishing metadata for a video.
	GenerateVideoDetails(ctx context.Context, videoData []byte, mimeType string) (*VideoDetails, error)

	// GenerateImage renders a prompt to image bytes.
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)

	// GenerateVideo renders a prompt, optionally seeded with a still, to
	// video bytes. Long-running: blocks until the collaborator finishes or
	// ctx is cancelled.
	GenerateVideo(ctx context.Context, prompt string, imageData []byte, mimeType string) ([]byte, error)

	// GenerateSpeakingVideo animates a still image speaking the script.
	GenerateSpeakingVideo(ctx context.Context, imageData []byte, mimeType, script string) ([]byte, error)
}
