// Package transport models the playback surface of a media element: the
// capability set {play, pause, seek, position, rate} plus the transport events
// the elements dispatch. A Synchronizer locks a follower element to a leader
// for combined preview playback.
package transport

import "errors"

// Event identifies one transport event an element dispatches.
type Event string

const (
	EventPlay       Event = "play"
	EventPause      Event = "pause"
	EventSeeking    Event = "seeking"
	EventSeeked     Event = "seeked"
	EventRateChange Event = "ratechange"
	EventEnded      Event = "ended"
)

// DriftTolerance is the maximum position divergence, in seconds, the
// synchronizer lets the follower accumulate before snapping it back.
const DriftTolerance = 0.1

// AllowedRates is the fixed set of playback rate multipliers exposed to the
// user.
var AllowedRates = []float64{0.5, 1, 1.5, 2}

var ErrRateNotAllowed = errors.New("playback rate not in allowed set")

// RateAllowed reports whether rate is one of the fixed multipliers.
func RateAllowed(rate float64) bool {
	for _, r := range AllowedRates {
		if r == rate {
			return true
		}
	}
	return false
}

// Element is the playable-thing capability set. Video and audio are the same
// kind of element here; the synchronizer never cares which is which beyond
// leader/follower roles.
type Element interface {
	Play()
	Pause()
	Playing() bool

	Seek(positionSeconds float64)
	Position() float64
	Duration() float64

	Rate() float64
	SetRate(rate float64)

	Ended() bool

	// Subscribe registers a handler for one event and returns an id usable
	// with Unsubscribe. Every subscribe must be paired with an unsubscribe
	// on the lifecycle transition that tears the subscriber down.
	Subscribe(ev Event, fn func()) int
	Unsubscribe(ev Event, id int)
}
