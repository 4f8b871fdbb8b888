package ai

import (
	"context"
	"log/slog"
)

// StubClient stands in for the collaborator when no API key is configured.
// Text features answer with canned output so the app stays usable offline;
// media generation reports ErrNoOutput.
type StubClient struct {
	logger *slog.Logger
}

func NewStubClient(logger *slog.Logger) *StubClient {
	return &StubClient{logger: logger}
}

func (s *StubClient) RecommendFilter(ctx context.Context, videoData []byte, mimeType string, choices []string) (string, error) {
	s.logger.Info("ai stub: filter recommendation requested", "choices", len(choices))
	if len(choices) == 0 {
		return "", ErrNoOutput
	}
	return choices[0], nil
}

func (s *StubClient) GeneratePromptFromImage(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	s.logger.Info("ai stub: image prompt requested", "bytes", len(imageData))
	return "A slow dolly shot through a neon-lit street after rain, reflections shimmering in the puddles.", nil
}

func (s *StubClient) GenerateAudioPromptFromVideo(ctx context.Context, videoData []byte, mimeType string) (string, error) {
	s.logger.Info("ai stub: audio prompt requested", "bytes", len(videoData))
	return "Downtempo electronic, moody pads, 90 BPM, sparse percussion, late-night atmosphere.", nil
}

func (s *StubClient) GenerateVideoDetails(ctx context.Context, videoData []byte, mimeType string) (*VideoDetails, error) {
	s.logger.Info("ai stub: video details requested", "bytes", len(videoData))
	return &VideoDetails{
		SunoStyleTags:      "downtempo, electronic, cinematic",
		YouTubeTitle:       "Untitled Session",
		YouTubeDescription: "Made with Clipdeck.",
		YouTubeHashtags:    []string{"#clipdeck", "#musicvideo"},
	}, nil
}

func (s *StubClient) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	s.logger.Info("ai stub: image generation requested", "prompt_len", len(prompt))
	return nil, ErrNoOutput
}

func (s *StubClient) GenerateVideo(ctx context.Context, prompt string, imageData []byte, mimeType string) ([]byte, error) {
	s.logger.Info("ai stub: video generation requested", "prompt_len", len(prompt))
	return nil, ErrNoOutput
}

func (s *StubClient) GenerateSpeakingVideo(ctx context.Context, imageData []byte, mimeType, script string) ([]byte, error) {
	s.logger.Info("ai stub: speaking video requested", "script_len", len(script))
	return nil, ErrNoOutput
}
