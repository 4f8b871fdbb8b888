// Package player owns the preview transport pair: the video element that the
// user controls and the follower audio element locked to it while both media
// are bound. The recorder borrows these same elements for its capture run.
package player

import (
	"log/slog"
	"sync"

	"github.com/clipdeck/clipdeck-agent/internal/transport"
)

// Player manages the session's live elements. Elements are created on bind
// and torn down on clear; the synchronizer exists only while both are bound.
type Player struct {
	mu     sync.Mutex
	video  transport.Element
	audio  transport.Element
	lock   *transport.Synchronizer
	logger *slog.Logger
}

func New(logger *slog.Logger) *Player {
	return &Player{logger: logger}
}

// BindVideo replaces the video element with a fresh one of the given
// duration. An existing synchronizer is re-established against the new
// element.
func (p *Player) BindVideo(duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unlockLocked()
	p.video = transport.NewClock(duration, nil)
	p.relockLocked()
}

// BindAudio replaces the audio element.
func (p *Player) BindAudio(duration float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unlockLocked()
	p.audio = transport.NewClock(duration, nil)
	p.relockLocked()
}

// ClearVideo drops the video element and any synchronization with it.
func (p *Player) ClearVideo() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unlockLocked()
	p.video = nil
}

// ClearAudio drops the audio element. The video plays on independently.
func (p *Player) ClearAudio() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.unlockLocked()
	p.audio = nil
}

// Elements returns the current leader and follower; either may be nil.
func (p *Player) Elements() (video, audio transport.Element) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.video, p.audio
}

// Play starts the leader; the synchronizer mirrors onto the follower.
func (p *Player) Play() bool {
	video, _ := p.Elements()
	if video == nil {
		return false
	}
	video.Play()
	return true
}

func (p *Player) Pause() bool {
	video, _ := p.Elements()
	if video == nil {
		return false
	}
	video.Pause()
	return true
}

func (p *Player) Seek(position float64) bool {
	video, _ := p.Elements()
	if video == nil {
		return false
	}
	video.Seek(position)
	return true
}

// SetRate applies an allowed rate to the leader; the synchronizer copies it
// to the follower.
func (p *Player) SetRate(rate float64) error {
	if !transport.RateAllowed(rate) {
		return transport.ErrRateNotAllowed
	}
	video, _ := p.Elements()
	if video != nil {
		video.SetRate(rate)
	}
	return nil
}

// Status describes the preview transport for the API.
type Status struct {
	VideoBound bool    `json:"video_bound"`
	AudioBound bool    `json:"audio_bound"`
	Playing    bool    `json:"playing"`
	Position   float64 `json:"position_s"`
	Rate       float64 `json:"rate"`
}

func (p *Player) Status() Status {
	video, audio := p.Elements()

	st := Status{VideoBound: video != nil, AudioBound: audio != nil, Rate: 1}
	if video != nil {
		st.Playing = video.Playing()
		st.Position = video.Position()
		st.Rate = video.Rate()
	}
	return st
}

// unlockLocked tears down the synchronizer. Callers hold p.mu.
func (p *Player) unlockLocked() {
	if p.lock != nil {
		p.lock.Unlock()
		p.lock = nil
	}
}

// relockLocked re-establishes synchronization when both elements exist.
// Callers hold p.mu.
func (p *Player) relockLocked() {
	if p.video != nil && p.audio != nil {
		p.lock = transport.Lock(p.video, p.audio)
	}
}
