package transport

import (
	"sync"
	"testing"
	"time"
)

// manualClock drives Clock elements deterministically in tests.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *manualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.t
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	m.t = m.t.Add(d)
	m.mu.Unlock()
}

func TestClock_PositionAdvancesWithRate(t *testing.T) {
	mc := newManualClock()
	c := NewClock(10, mc.Now)

	c.SetRate(2)
	c.Play()
	mc.Advance(1 * time.Second)

	if got := c.Position(); got != 2 {
		t.Fatalf("position = %v, want 2", got)
	}

	c.Pause()
	mc.Advance(5 * time.Second)
	if got := c.Position(); got != 2 {
		t.Fatalf("position advanced while paused: %v", got)
	}
}

func TestClock_EndOfMedia(t *testing.T) {
	mc := newManualClock()
	c := NewClock(3, mc.Now)

	var pauses, ends int
	c.Subscribe(EventPause, func() { pauses++ })
	c.Subscribe(EventEnded, func() { ends++ })

	c.Play()
	mc.Advance(5 * time.Second)

	if !c.Ended() {
		t.Fatal("expected ended after passing duration")
	}
	if c.Playing() {
		t.Fatal("expected playback stopped at end of media")
	}
	if got := c.Position(); got != 3 {
		t.Fatalf("position = %v, want clamp at duration 3", got)
	}

	// Repeated reads must not re-dispatch.
	_ = c.Ended()
	_ = c.Position()
	if pauses != 1 || ends != 1 {
		t.Fatalf("pause/ended dispatched %d/%d times, want 1/1", pauses, ends)
	}
}

func TestClock_SeekClampsAndDispatches(t *testing.T) {
	mc := newManualClock()
	c := NewClock(4, mc.Now)

	var seeking, seeked int
	c.Subscribe(EventSeeking, func() { seeking++ })
	c.Subscribe(EventSeeked, func() { seeked++ })

	c.Seek(-1)
	if got := c.Position(); got != 0 {
		t.Fatalf("seek(-1) position = %v, want 0", got)
	}
	c.Seek(99)
	if got := c.Position(); got != 4 {
		t.Fatalf("seek(99) position = %v, want 4", got)
	}
	if seeking != 2 || seeked != 2 {
		t.Fatalf("seeking/seeked dispatched %d/%d times, want 2/2", seeking, seeked)
	}
}

func TestClock_SeekClearsEnded(t *testing.T) {
	mc := newManualClock()
	c := NewClock(1, mc.Now)

	c.Play()
	mc.Advance(2 * time.Second)
	if !c.Ended() {
		t.Fatal("expected ended")
	}

	c.Seek(0)
	if c.Ended() {
		t.Fatal("seek should clear the ended flag")
	}
}

func TestClock_SetRateKeepsPosition(t *testing.T) {
	mc := newManualClock()
	c := NewClock(10, mc.Now)

	c.Play()
	mc.Advance(2 * time.Second)
	c.SetRate(2)
	mc.Advance(1 * time.Second)

	if got := c.Position(); got != 4 {
		t.Fatalf("position = %v, want 2 + 1*2 = 4", got)
	}
}

func TestClock_UnsubscribeStopsDelivery(t *testing.T) {
	c := NewClock(10, newManualClock().Now)

	calls := 0
	id := c.Subscribe(EventPlay, func() { calls++ })
	c.Play()
	c.Pause()
	c.Unsubscribe(EventPlay, id)
	c.Play()

	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
	if got := c.SubscriberCount(EventPlay); got != 0 {
		t.Fatalf("subscriber count = %d after unsubscribe, want 0", got)
	}
}

func TestRateAllowed(t *testing.T) {
	for _, r := range AllowedRates {
		if !RateAllowed(r) {
			t.Fatalf("rate %v should be allowed", r)
		}
	}
	for _, r := range []float64{0, -1, 0.75, 3} {
		if RateAllowed(r) {
			t.Fatalf("rate %v should be rejected", r)
		}
	}
}
