// Package audioclock bridges the audio callback thread and the UI tick
// (spec §5): a lock-free single-writer/single-reader slot carrying the
// latest published track timestamp, and a bounded channel for UI-to-audio
// "start playing this track" requests.
package audioclock

import (
	"sync/atomic"
	"time"
)

// TrackID identifies a playback request; a new request always carries a
// higher TrackID than the previous one.
type TrackID uint64

// Timestamp is published by the audio callback thread: it asserts that
// TrackTimestamp, within track TrackID, will be heard at wall-clock instant
// WillPlayAt.
type Timestamp struct {
	TrackID        TrackID
	TrackTimestamp time.Duration
	WillPlayAt     time.Time
}

// Slot is the lock-free channel the audio callback thread uses to publish
// its latest Timestamp for the UI tick to read. Go's atomic.Pointer already
// gives a wait-free single-writer/single-reader handoff of an immutable
// value — the same guarantee the reference implementation gets from a
// hand-rolled triple buffer, without needing one.
type Slot struct {
	current atomic.Pointer[Timestamp]
}

// Publish is called by the audio callback thread after producing ts.
func (s *Slot) Publish(ts Timestamp) {
	s.current.Store(&ts)
}

// Latest returns the most recently published Timestamp, or the zero value
// if nothing has been published yet.
func (s *Slot) Latest() (Timestamp, bool) {
	ts := s.current.Load()
	if ts == nil {
		return Timestamp{}, false
	}
	return *ts, true
}

// CurrentPosition computes the current playback position of track id,
// extrapolating from the latest published Timestamp against wall-clock time
// now. If nothing has been published yet, or the latest publication is
// still for a stale track (the audio thread hasn't caught up to the most
// recently requested track), it returns zero — per spec §5's "treat the
// position as zero until the audio thread catches up".
func (s *Slot) CurrentPosition(id TrackID, now time.Time) time.Duration {
	ts, ok := s.Latest()
	if !ok || ts.TrackID != id {
		return 0
	}

	if ts.WillPlayAt.After(now) {
		timeUntilPlayed := ts.WillPlayAt.Sub(now)
		if timeUntilPlayed > ts.TrackTimestamp {
			return 0
		}
		return ts.TrackTimestamp - timeUntilPlayed
	}
	timeSincePlayed := now.Sub(ts.WillPlayAt)
	return ts.TrackTimestamp + timeSincePlayed
}

// requestQueueCapacity bounds the UI-to-audio request channel (spec §5: "a
// lock-free bounded message channel").
const requestQueueCapacity = 8

// PlayRequest asks the audio thread to start playing a new track under id,
// superseding whatever was playing before.
type PlayRequest struct {
	ID    TrackID
	Track any // the concrete sample source; typed any so callers can pass
	// whatever playback source they're wiring without audioclock needing to
	// import its package.
}

// Requests is the bounded UI-to-audio channel. The UI thread sends
// PlayRequests; the audio thread drains it on every callback, keeping only
// the last message (spec §5: "starting a new track supersedes the previous
// one atomically at the audio thread on next message drain").
type Requests chan PlayRequest

// NewRequests creates a Requests channel with the standard bounded
// capacity.
func NewRequests() Requests {
	return make(Requests, requestQueueCapacity)
}

// Send enqueues req, dropping the oldest pending request if the channel is
// full rather than blocking the UI thread.
func (r Requests) Send(req PlayRequest) {
	select {
	case r <- req:
	default:
		select {
		case <-r:
		default:
		}
		select {
		case r <- req:
		default:
		}
	}
}

// DrainLatest consumes every pending request and returns the last one, if
// any — the one the audio thread should act on.
func (r Requests) DrainLatest() (PlayRequest, bool) {
	var last PlayRequest
	var found bool
	for {
		select {
		case req := <-r:
			last = req
			found = true
		default:
			return last, found
		}
	}
}
