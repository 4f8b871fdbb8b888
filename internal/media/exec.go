package media

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Exec runs the real ffmpeg/ffprobe binaries.
type Exec struct {
	ffmpegPath  string
	ffprobePath string
	logger      *slog.Logger
}

// NewExec resolves the binaries, preferring explicit paths over PATH lookup.
func NewExec(ffmpegPath, ffprobePath string, logger *slog.Logger) (*Exec, error) {
	if ffmpegPath == "" {
		p, err := exec.LookPath("ffmpeg")
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
		}
		ffmpegPath = p
	}
	if ffprobePath == "" {
		p, err := exec.LookPath("ffprobe")
		if err != nil {
			return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
		}
		ffprobePath = p
	}
	return &Exec{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}, nil
}

func (e *Exec) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if path == "" {
		return nil, fmt.Errorf("file path is required")
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := exec.CommandContext(ctx, e.ffprobePath, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		result.Duration = dur
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			result.Width = stream.Width
			result.Height = stream.Height
			result.Codec = stream.CodecName
			result.FrameRate = parseFrameRate(stream.RFrameRate)
		case "audio":
			result.HasAudio = true
			result.AudioCodec = stream.CodecName
		}
	}
	return result, nil
}

func (e *Exec) Frames(ctx context.Context, path string, fps float64) (FrameSource, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive")
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vf", fmt.Sprintf("fps=%g", fps),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "4",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	e.logger.Debug("frame decode started", "path", path, "fps", fps)
	return newPipeSource(stdout, cmd), nil
}

func (e *Exec) ExtractPCM(ctx context.Context, path string, tempo float64) ([]byte, error) {
	if tempo <= 0 {
		return nil, fmt.Errorf("tempo must be positive")
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-vn",
	}
	// atempo accepts 0.5..2.0, which covers every allowed playback rate.
	if tempo != 1 {
		args = append(args, "-filter:a", fmt.Sprintf("atempo=%g", tempo))
	}
	args = append(args,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(PCMSampleRate),
		"-ac", strconv.Itoa(PCMChannels),
		"pipe:1",
	)

	out, err := exec.CommandContext(ctx, e.ffmpegPath, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg audio decode failed: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no audio stream in %s", path)
	}
	return out, nil
}

// pipeSource wraps a running ffmpeg process emitting an MJPEG stream.
type pipeSource struct {
	splitter *mjpegSplitter
	closer   io.Closer
	cmd      *exec.Cmd
}

func newPipeSource(stdout io.ReadCloser, cmd *exec.Cmd) *pipeSource {
	return &pipeSource{
		splitter: newMJPEGSplitter(stdout),
		closer:   stdout,
		cmd:      cmd,
	}
}

func (s *pipeSource) Next() (image.Image, error) {
	return s.splitter.Next()
}

func (s *pipeSource) Close() error {
	s.closer.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	return s.cmd.Wait()
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// parseFrameRate converts ffprobe's "30000/1001" rational form to a float.
func parseFrameRate(s string) float64 {
	if s == "" {
		return 0
	}
	parts := strings.SplitN(s, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
