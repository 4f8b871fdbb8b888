package transport

import (
	"sync"
	"time"
)

// Clock is a wall-clock-driven Element. While playing, position advances by
// elapsed wall time multiplied by the playback rate, clamped at the duration.
// Reaching the duration pauses the element and dispatches pause then ended,
// matching media element semantics.
type Clock struct {
	mu sync.Mutex

	now      func() time.Time
	duration float64

	playing   bool
	ended     bool
	rate      float64
	anchorPos float64
	anchorAt  time.Time

	subs   map[Event]map[int]func()
	nextID int
}

// NewClock creates a stopped element of the given duration in seconds.
// A nil now func means time.Now; tests inject their own.
func NewClock(duration float64, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{
		now:      now,
		duration: duration,
		rate:     1,
		subs:     make(map[Event]map[int]func()),
	}
}

func (c *Clock) Play() {
	c.mu.Lock()
	if c.playing {
		c.mu.Unlock()
		return
	}
	c.playing = true
	c.ended = false
	c.anchorAt = c.now()
	c.mu.Unlock()

	c.dispatch(EventPlay)
}

func (c *Clock) Pause() {
	c.mu.Lock()
	if !c.playing {
		c.mu.Unlock()
		return
	}
	c.anchorPos = c.positionLocked()
	c.anchorAt = c.now()
	c.playing = false
	c.mu.Unlock()

	c.dispatch(EventPause)
}

func (c *Clock) Playing() bool {
	c.advance()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

func (c *Clock) Seek(positionSeconds float64) {
	if positionSeconds < 0 {
		positionSeconds = 0
	}
	if positionSeconds > c.duration {
		positionSeconds = c.duration
	}

	c.mu.Lock()
	c.anchorPos = positionSeconds
	c.anchorAt = c.now()
	c.ended = false
	c.mu.Unlock()

	c.dispatch(EventSeeking)
	c.dispatch(EventSeeked)
}

func (c *Clock) Position() float64 {
	c.advance()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positionLocked()
}

func (c *Clock) Duration() float64 {
	return c.duration
}

func (c *Clock) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// SetRate re-anchors the position under the old rate before applying the new
// one, so rate changes mid-playback do not warp the position.
func (c *Clock) SetRate(rate float64) {
	if rate <= 0 {
		return
	}

	c.mu.Lock()
	if rate == c.rate {
		c.mu.Unlock()
		return
	}
	c.anchorPos = c.positionLocked()
	c.anchorAt = c.now()
	c.rate = rate
	c.mu.Unlock()

	c.dispatch(EventRateChange)
}

func (c *Clock) Ended() bool {
	c.advance()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ended
}

func (c *Clock) Subscribe(ev Event, fn func()) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	if c.subs[ev] == nil {
		c.subs[ev] = make(map[int]func())
	}
	c.subs[ev][id] = fn
	return id
}

func (c *Clock) Unsubscribe(ev Event, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs[ev], id)
}

// SubscriberCount reports live handlers for one event. The synchronizer and
// recorder tests use it to prove symmetric teardown.
func (c *Clock) SubscriberCount(ev Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[ev])
}

// positionLocked computes the current position. Callers hold c.mu.
func (c *Clock) positionLocked() float64 {
	pos := c.anchorPos
	if c.playing {
		pos += c.now().Sub(c.anchorAt).Seconds() * c.rate
	}
	if pos > c.duration {
		pos = c.duration
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// advance detects end-of-media lazily on reads and dispatches pause and ended
// exactly once per run to the end.
func (c *Clock) advance() {
	c.mu.Lock()
	if !c.playing || c.positionLocked() < c.duration {
		c.mu.Unlock()
		return
	}
	c.anchorPos = c.duration
	c.anchorAt = c.now()
	c.playing = false
	c.ended = true
	c.mu.Unlock()

	c.dispatch(EventPause)
	c.dispatch(EventEnded)
}

// dispatch calls handlers outside the lock; handlers commonly call back into
// the element.
func (c *Clock) dispatch(ev Event) {
	c.mu.Lock()
	handlers := make([]func(), 0, len(c.subs[ev]))
	for _, fn := range c.subs[ev] {
		handlers = append(handlers, fn)
	}
	c.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}
