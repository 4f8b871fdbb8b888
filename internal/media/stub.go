package media

import (
	"context"
	"errors"
	"log/slog"
)

// ErrToolchainUnavailable is returned by the stub for operations that need a
// real decoder.
var ErrToolchainUnavailable = errors.New("ffmpeg toolchain unavailable")

// Stub keeps the agent running without ffmpeg installed. Binding and preview
// streaming still work; probing reports nothing and recording aborts at
// priming for lack of a drawing surface.
type Stub struct {
	logger *slog.Logger
}

func NewStub(logger *slog.Logger) *Stub {
	return &Stub{logger: logger}
}

func (s *Stub) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	s.logger.Info("media stub: probe requested (ffmpeg not installed)", "path", path)
	return &ProbeResult{}, nil
}

func (s *Stub) Frames(ctx context.Context, path string, fps float64) (FrameSource, error) {
	s.logger.Info("media stub: frame decode requested", "path", path, "fps", fps)
	return nil, ErrToolchainUnavailable
}

func (s *Stub) ExtractPCM(ctx context.Context, path string, tempo float64) ([]byte, error) {
	s.logger.Info("media stub: audio decode requested", "path", path, "tempo", tempo)
	return nil, ErrToolchainUnavailable
}
