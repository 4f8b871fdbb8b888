package player

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/clipdeck/clipdeck-agent/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPlayer_MirrorsOntoFollower(t *testing.T) {
	p := New(testLogger())
	p.BindVideo(10)
	p.BindAudio(8)

	if !p.Play() {
		t.Fatal("Play with bound video returned false")
	}
	video, audio := p.Elements()
	if !video.Playing() || !audio.Playing() {
		t.Fatal("follower did not mirror play")
	}

	if err := p.SetRate(1.5); err != nil {
		t.Fatalf("SetRate: %v", err)
	}
	if audio.Rate() != 1.5 {
		t.Fatalf("follower rate = %g, want 1.5", audio.Rate())
	}

	p.Pause()
	if video.Playing() || audio.Playing() {
		t.Fatal("follower did not mirror pause")
	}
}

func TestPlayer_RejectsDisallowedRate(t *testing.T) {
	p := New(testLogger())
	p.BindVideo(10)

	if err := p.SetRate(3); !errors.Is(err, transport.ErrRateNotAllowed) {
		t.Fatalf("err = %v, want ErrRateNotAllowed", err)
	}
}

func TestPlayer_RebindReestablishesLock(t *testing.T) {
	p := New(testLogger())
	p.BindVideo(10)
	p.BindAudio(8)

	old, _ := p.Elements()
	p.BindVideo(20)

	if !p.Play() {
		t.Fatal("Play after rebind returned false")
	}
	_, audio := p.Elements()
	if !audio.Playing() {
		t.Fatal("follower not locked to the rebound leader")
	}
	events := []transport.Event{
		transport.EventPlay, transport.EventPause, transport.EventSeeking,
		transport.EventSeeked, transport.EventRateChange,
	}
	for _, ev := range events {
		if n := old.(*transport.Clock).SubscriberCount(ev); n != 0 {
			t.Fatalf("old leader still has %d %s subscriptions", n, ev)
		}
	}
}

func TestPlayer_ClearAudioLeavesVideoPlayable(t *testing.T) {
	p := New(testLogger())
	p.BindVideo(10)
	p.BindAudio(8)
	p.ClearAudio()

	if !p.Play() {
		t.Fatal("video alone should remain playable")
	}
	st := p.Status()
	if !st.VideoBound || st.AudioBound || !st.Playing {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestPlayer_UnboundTransportIsInert(t *testing.T) {
	p := New(testLogger())
	if p.Play() || p.Pause() || p.Seek(1) {
		t.Fatal("transport actions on an empty player should report false")
	}
	st := p.Status()
	if st.VideoBound || st.Playing || st.Rate != 1 {
		t.Fatalf("unexpected empty status: %+v", st)
	}
}
