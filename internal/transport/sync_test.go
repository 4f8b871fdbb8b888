package transport

import (
	"math"
	"testing"
	"time"
)

func lockedPair(t *testing.T) (*manualClock, *Clock, *Clock, *Synchronizer) {
	t.Helper()
	mc := newManualClock()
	video := NewClock(10, mc.Now)
	audio := NewClock(30, mc.Now)
	sync := Lock(video, audio)
	t.Cleanup(sync.Unlock)
	return mc, video, audio, sync
}

func TestSynchronizer_MirrorsPlayPause(t *testing.T) {
	_, video, audio, _ := lockedPair(t)

	video.Play()
	if !audio.Playing() {
		t.Fatal("audio should play when video plays")
	}

	video.Pause()
	if audio.Playing() {
		t.Fatal("audio should pause when video pauses")
	}
}

func TestSynchronizer_SnapsDriftBeyondTolerance(t *testing.T) {
	_, video, audio, _ := lockedPair(t)

	audio.Seek(5)
	video.Seek(1)

	if diff := math.Abs(video.Position() - audio.Position()); diff > DriftTolerance {
		t.Fatalf("positions diverge by %v after seek, want <= %v", diff, DriftTolerance)
	}
	if got := audio.Position(); got != 1 {
		t.Fatalf("audio position = %v, want snapped to video's 1", got)
	}
}

func TestSynchronizer_LeaderWins(t *testing.T) {
	_, video, audio, s := lockedPair(t)

	video.Seek(2)
	audio.Seek(9)
	s.Check()

	if got := video.Position(); got != 2 {
		t.Fatalf("video position changed to %v; the leader must never be adjusted", got)
	}
	if got := audio.Position(); got != 2 {
		t.Fatalf("audio position = %v, want 2", got)
	}
}

func TestSynchronizer_ToleratesSmallDrift(t *testing.T) {
	mc := newManualClock()
	video := NewClock(10, mc.Now)
	audio := NewClock(10, mc.Now)
	s := Lock(video, audio)
	defer s.Unlock()

	var seeks int
	audio.Subscribe(EventSeeking, func() { seeks++ })

	audio.Seek(0.05)
	s.Check()

	if seeks != 1 {
		t.Fatalf("audio re-seeked %d times for drift inside tolerance, want only the manual seek", seeks)
	}
}

func TestSynchronizer_CopiesRate(t *testing.T) {
	_, video, audio, _ := lockedPair(t)

	video.SetRate(1.5)
	if got := audio.Rate(); got != 1.5 {
		t.Fatalf("audio rate = %v, want 1.5", got)
	}
}

func TestSynchronizer_AttachSyncsImmediately(t *testing.T) {
	mc := newManualClock()
	video := NewClock(10, mc.Now)
	audio := NewClock(10, mc.Now)

	video.SetRate(2)
	video.Seek(3)
	audio.Seek(7)

	s := Lock(video, audio)
	defer s.Unlock()

	if got := audio.Position(); got != 3 {
		t.Fatalf("audio position after attach = %v, want 3", got)
	}
	if got := audio.Rate(); got != 2 {
		t.Fatalf("audio rate after attach = %v, want 2", got)
	}
}

func TestSynchronizer_UnlockRemovesEverySubscription(t *testing.T) {
	mc := newManualClock()
	video := NewClock(10, mc.Now)
	audio := NewClock(10, mc.Now)

	s := Lock(video, audio)
	s.Unlock()
	s.Unlock() // idempotent

	for _, ev := range []Event{EventPlay, EventPause, EventSeeking, EventSeeked, EventRateChange} {
		if got := video.SubscriberCount(ev); got != 0 {
			t.Fatalf("leader still has %d subscriber(s) for %s after Unlock", got, ev)
		}
	}

	video.Play()
	if audio.Playing() {
		t.Fatal("audio reacted to the leader after Unlock")
	}
}

func TestSynchronizer_NoDriftDuringPlayback(t *testing.T) {
	mc, video, audio, _ := lockedPair(t)

	video.Play()
	for i := 0; i < 50; i++ {
		mc.Advance(100 * time.Millisecond)
		if diff := math.Abs(video.Position() - audio.Position()); diff > DriftTolerance {
			t.Fatalf("drift %v exceeds tolerance at step %d", diff, i)
		}
	}
}
