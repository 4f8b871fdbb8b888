// Package recorder captures the composite output: decoded video frames run
// through the active filter, paired with the tempo-adjusted audio tap, and
// muxed into an AVI export. A run walks Idle -> Priming -> Recording ->
// Finalizing -> Idle; a priming failure aborts straight back to Idle with the
// error recorded against the recording row.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/clipdeck/clipdeck-agent/internal/container"
	"github.com/clipdeck/clipdeck-agent/internal/filter"
	"github.com/clipdeck/clipdeck-agent/internal/media"
	"github.com/clipdeck/clipdeck-agent/internal/player"
	"github.com/clipdeck/clipdeck-agent/internal/session"
	"github.com/clipdeck/clipdeck-agent/internal/transport"
)

// State names one phase of the recorder lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StatePriming    State = "priming"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
)

// CaptureFPS is the wall-clock sampling frequency of the composite surface.
// The export always plays back at this frame rate; the playback rate is baked
// in by sampling the source that much faster or slower.
const CaptureFPS = 30

var (
	ErrBusy               = errors.New("a recording is already running")
	ErrMissingVideo       = errors.New("no video is bound to record")
	ErrCaptureUnsupported = errors.New("capture is not supported for this source")
	ErrNotRecording       = errors.New("no recording is running")
)

// Recorder drives capture runs against the session's bound media. At most one
// run exists at a time; Start while a run is live fails with ErrBusy.
type Recorder struct {
	sessions   *session.Service
	player     *player.Player
	ffmpeg     media.FFmpeg
	exportsDir string
	logger     *slog.Logger

	// tick is the wall interval between samples. Tests shrink it.
	tick time.Duration

	mu    sync.Mutex
	state State
	run   *run
}

// run holds everything owned by one capture attempt.
type run struct {
	rec    *session.Recording
	asset  *session.MediaAsset
	video  transport.Element
	source media.FrameSource
	pcm    []byte
	frames [][]byte
	subs   []elementSub

	stop chan struct{}
	done chan struct{}
}

type elementSub struct {
	ev transport.Event
	id int
}

func New(sessions *session.Service, p *player.Player, ffmpeg media.FFmpeg, exportsDir string, logger *slog.Logger) *Recorder {
	return &Recorder{
		sessions:   sessions,
		player:     p,
		ffmpeg:     ffmpeg,
		exportsDir: exportsDir,
		logger:     logger,
		tick:       time.Second / CaptureFPS,
		state:      StateIdle,
	}
}

// State reports the current lifecycle phase.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start primes a capture run and begins recording. The returned recording row
// is already persisted; on a priming failure it is left in the aborted state
// and the error is returned.
func (r *Recorder) Start(ctx context.Context) (*session.Recording, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.state = StatePriming
	r.mu.Unlock()

	rec, err := r.prime(ctx)
	if err != nil {
		r.mu.Lock()
		r.state = StateIdle
		r.run = nil
		r.mu.Unlock()
		return rec, err
	}
	return rec, nil
}

// Stop finalizes the live run, as if playback had been paused. It blocks
// until the export is assembled.
func (r *Recorder) Stop() (*session.Recording, error) {
	r.mu.Lock()
	active := r.run
	state := r.state
	r.mu.Unlock()

	if active == nil || state != StateRecording {
		return nil, ErrNotRecording
	}

	active.video.Pause()
	r.finish(active)
	<-active.done
	return active.rec, nil
}

// Latest returns the most recent recording row, or nil when none exists.
func (r *Recorder) Latest(ctx context.Context) (*session.Recording, error) {
	return r.sessions.Recordings().LatestRecording(ctx)
}

// prime gathers everything the run needs before the first sample: the bound
// video, the capture surface dimensions, the frame stream, the audio tap and
// the transport reset. The recording row exists from here on so a failed
// attempt still shows up in history.
func (r *Recorder) prime(ctx context.Context) (*session.Recording, error) {
	asset, err := r.sessions.Asset(ctx, session.SlotVideo)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrMissingVideo
	}

	rate := r.sessions.Rate(ctx)
	rec := &session.Recording{
		ID:        session.NewID(),
		Status:    session.RecordingStatusRunning,
		AssetID:   asset.ID,
		Filter:    string(r.sessions.Filter(ctx)),
		Rate:      rate,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := r.sessions.Recordings().CreateRecording(ctx, rec); err != nil {
		return nil, err
	}

	if err := ValidateOutputDir(r.exportsDir); err != nil {
		return rec, r.abort(ctx, rec, err)
	}
	if asset.Width <= 0 || asset.Height <= 0 {
		err := fmt.Errorf("%w: source dimensions unknown", ErrCaptureUnsupported)
		return rec, r.abort(ctx, rec, err)
	}

	// Sampling happens at CaptureFPS in wall time, so each sample advances
	// source time by rate/CaptureFPS seconds.
	source, err := r.ffmpeg.Frames(ctx, asset.Path, CaptureFPS/rate)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCaptureUnsupported, err)
		return rec, r.abort(ctx, rec, err)
	}

	active := &run{
		rec:    rec,
		asset:  asset,
		source: source,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	active.pcm = r.audioTap(ctx, asset, rate)

	// The run drives the same preview elements the user controls; pausing
	// the preview mid-run finalizes the take.
	video, _ := r.player.Elements()
	if video == nil {
		r.player.BindVideo(asset.Duration)
		video, _ = r.player.Elements()
	}
	active.video = video

	video.Pause()
	video.Seek(0)
	video.SetRate(rate)

	active.subs = append(active.subs,
		elementSub{ev: transport.EventEnded, id: video.Subscribe(transport.EventEnded, func() { r.finish(active) })},
		elementSub{ev: transport.EventPause, id: video.Subscribe(transport.EventPause, func() { r.finish(active) })},
	)

	r.mu.Lock()
	r.state = StateRecording
	r.run = active
	r.mu.Unlock()

	r.logger.Info("recording started",
		"recording_id", rec.ID,
		"asset_id", asset.ID,
		"filter", rec.Filter,
		"rate", rate,
		"audio", len(active.pcm) > 0,
	)

	video.Play()
	go r.loop(active)
	return rec, nil
}

// audioTap extracts the composite's audio track: the bound audio asset when
// present, otherwise the video's own track. A failed tap degrades to a silent
// recording rather than failing the run.
func (r *Recorder) audioTap(ctx context.Context, video *session.MediaAsset, rate float64) []byte {
	source := video
	if audio, err := r.sessions.Asset(ctx, session.SlotAudio); err == nil && audio != nil {
		source = audio
	} else if !video.HasAudio {
		return nil
	}

	pcm, err := r.ffmpeg.ExtractPCM(ctx, source.Path, rate)
	if err != nil {
		r.logger.Warn("audio tap failed, recording continues silent", "asset_id", source.ID, "error", err)
		return nil
	}
	return pcm
}

// loop is the cooperative sampling loop: once per tick it pulls the next
// frame, re-reads the active filter, and appends the rendered chunk. The
// filter re-read is what makes mid-recording filter changes land in the
// export.
func (r *Recorder) loop(active *run) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-active.stop:
			return
		case <-ticker.C:
		}

		frame, err := active.source.Next()
		if err != nil {
			// End of stream, or a decode failure; either way the take
			// is over and whatever was captured gets assembled.
			r.finish(active)
			return
		}

		sel := r.sessions.Filter(context.Background())
		rendered := filter.Apply(sel, frame)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, rendered, &jpeg.Options{Quality: 85}); err != nil {
			r.logger.Warn("frame encode failed, dropping sample", "error", err)
			continue
		}

		r.mu.Lock()
		if r.state == StateRecording && r.run == active {
			active.frames = append(active.frames, buf.Bytes())
		}
		r.mu.Unlock()
	}
}

// finish moves the run into Finalizing exactly once, tears down everything it
// owns, assembles the container and returns the recorder to Idle. It is safe
// to call from the sampling loop, from transport event handlers and from
// Stop concurrently.
func (r *Recorder) finish(active *run) {
	r.mu.Lock()
	if r.run != active || r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	r.state = StateFinalizing
	frames := active.frames
	r.mu.Unlock()

	close(active.stop)
	defer close(active.done)

	// Teardown happens unconditionally, whether assembly succeeds or not.
	defer func() {
		for _, sub := range active.subs {
			active.video.Unsubscribe(sub.ev, sub.id)
		}
		active.source.Close()
		active.video.Pause()
		active.video.Seek(0)

		r.mu.Lock()
		r.state = StateIdle
		r.run = nil
		r.mu.Unlock()
	}()

	ctx := context.Background()
	rec := active.rec

	if len(frames) == 0 {
		r.abort(ctx, rec, fmt.Errorf("no frames captured"))
		return
	}

	name := "edited-" + SanitizeName(active.asset.DisplayName, 120) + ".avi"
	path := filepath.Join(r.exportsDir, name)

	if err := r.assemble(path, active, frames); err != nil {
		os.Remove(path)
		r.abort(ctx, rec, err)
		return
	}

	rec.Status = session.RecordingStatusCompleted
	rec.OutputPath = path
	rec.OutputName = name
	rec.UpdatedAt = time.Now()
	if err := r.sessions.Recordings().UpdateRecording(ctx, rec); err != nil {
		r.logger.Error("failed to persist completed recording", "recording_id", rec.ID, "error", err)
	}

	r.logger.Info("recording completed",
		"recording_id", rec.ID,
		"output", name,
		"frames", len(frames),
		"pcm_bytes", len(active.pcm),
	)
}

func (r *Recorder) assemble(path string, active *run, frames [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export: %w", err)
	}
	defer f.Close()

	opts := container.Options{
		Width:          active.asset.Width,
		Height:         active.asset.Height,
		FPS:            CaptureFPS,
		SampleRate:     media.PCMSampleRate,
		Channels:       media.PCMChannels,
		BytesPerSample: media.PCMBytesDepth,
	}
	if err := container.WriteAVI(f, opts, frames, active.pcm); err != nil {
		return fmt.Errorf("failed to assemble export: %w", err)
	}
	return nil
}

// abort records a failed run against its row and passes the cause through.
func (r *Recorder) abort(ctx context.Context, rec *session.Recording, cause error) error {
	rec.Status = session.RecordingStatusAborted
	rec.Error = cause.Error()
	rec.UpdatedAt = time.Now()
	if err := r.sessions.Recordings().UpdateRecording(ctx, rec); err != nil {
		r.logger.Error("failed to persist aborted recording", "recording_id", rec.ID, "error", err)
	}
	r.logger.Warn("recording aborted", "recording_id", rec.ID, "error", cause)
	return cause
}
