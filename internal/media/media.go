// Package media is the decode boundary of the agent. Frame and audio decoding
// are delegated to the ffmpeg/ffprobe binaries behind the FFmpeg interface; a
// stub implementation keeps the rest of the agent functional on machines
// without the toolchain.
package media

import (
	"context"
	"image"
)

// ProbeResult describes one media file's playable properties.
type ProbeResult struct {
	Duration   float64
	Width      int
	Height     int
	Codec      string
	FrameRate  float64
	HasAudio   bool
	AudioCodec string
}

// FrameSource yields decoded video frames in presentation order. Next returns
// io.EOF when the media ends. Sources are pull-based: the recorder's sampling
// loop decides the pace.
type FrameSource interface {
	Next() (image.Image, error)
	Close() error
}

// PCM output format for extracted audio. The container writer depends on
// these staying fixed.
const (
	PCMSampleRate = 44100
	PCMChannels   = 2
	PCMBytesDepth = 2
)

// FFmpeg is the toolchain capability set the agent consumes.
type FFmpeg interface {
	// Probe inspects a file's duration, dimensions and audio presence.
	Probe(ctx context.Context, path string) (*ProbeResult, error)

	// Frames streams decoded frames sampled at the given frames-per-second
	// of source time.
	Frames(ctx context.Context, path string, fps float64) (FrameSource, error)

	// ExtractPCM decodes the file's audio track to s16le 44.1kHz stereo,
	// tempo-adjusted by the given multiplier.
	ExtractPCM(ctx context.Context, path string, tempo float64) ([]byte, error)
}
