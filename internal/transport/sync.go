package transport

import "math"

// Synchronizer keeps a follower element's transport locked to a leader. The
// leader is authoritative: corrections only ever flow leader -> follower.
// Attach subscribes to the leader's transport events; Detach removes exactly
// the subscriptions Attach added, so rebinding either element is always
// Detach-then-Attach with no dangling handlers.
type Synchronizer struct {
	leader   Element
	follower Element

	subs []subscription
}

type subscription struct {
	ev Event
	id int
}

// Lock attaches a new synchronizer and performs the initial position snap and
// rate copy.
func Lock(leader, follower Element) *Synchronizer {
	s := &Synchronizer{leader: leader, follower: follower}

	s.subscribe(EventPlay, func() { s.follower.Play() })
	s.subscribe(EventPause, func() { s.follower.Pause() })
	s.subscribe(EventSeeking, s.Check)
	s.subscribe(EventSeeked, s.Check)
	s.subscribe(EventRateChange, s.syncRate)

	s.Check()
	s.syncRate()
	return s
}

// Unlock detaches every subscription Attach created. Safe to call more than
// once.
func (s *Synchronizer) Unlock() {
	for _, sub := range s.subs {
		s.leader.Unsubscribe(sub.ev, sub.id)
	}
	s.subs = nil
}

// Check snaps the follower's position onto the leader's when they have drifted
// past the tolerance. One-directional: the leader is never adjusted.
func (s *Synchronizer) Check() {
	lead := s.leader.Position()
	if math.Abs(lead-s.follower.Position()) > DriftTolerance {
		s.follower.Seek(lead)
	}
}

func (s *Synchronizer) syncRate() {
	s.follower.SetRate(s.leader.Rate())
}

func (s *Synchronizer) subscribe(ev Event, fn func()) {
	id := s.leader.Subscribe(ev, fn)
	s.subs = append(s.subs, subscription{ev: ev, id: id})
}
