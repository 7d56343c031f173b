package audioclock

import (
	"testing"
	"time"
)

func TestCurrentPositionBeforePublish(t *testing.T) {
	var s Slot
	if pos := s.CurrentPosition(1, time.Now()); pos != 0 {
		t.Fatalf("position before any publish = %v, want 0", pos)
	}
}

func TestCurrentPositionStaleTrackID(t *testing.T) {
	var s Slot
	now := time.Now()
	s.Publish(Timestamp{TrackID: 1, TrackTimestamp: 5 * time.Second, WillPlayAt: now})
	if pos := s.CurrentPosition(2, now); pos != 0 {
		t.Fatalf("position for a track id ahead of the published one = %v, want 0", pos)
	}
}

func TestCurrentPositionAfterPlaybackStarted(t *testing.T) {
	var s Slot
	started := time.Now().Add(-2 * time.Second)
	s.Publish(Timestamp{TrackID: 1, TrackTimestamp: 1 * time.Second, WillPlayAt: started})

	now := started.Add(2 * time.Second)
	pos := s.CurrentPosition(1, now)
	want := 3 * time.Second
	if pos != want {
		t.Fatalf("position = %v, want %v", pos, want)
	}
}

func TestCurrentPositionBeforePlaybackStarted(t *testing.T) {
	var s Slot
	now := time.Now()
	willPlayAt := now.Add(500 * time.Millisecond)
	s.Publish(Timestamp{TrackID: 1, TrackTimestamp: 1 * time.Second, WillPlayAt: willPlayAt})

	pos := s.CurrentPosition(1, now)
	want := 500 * time.Millisecond
	if pos != want {
		t.Fatalf("position = %v, want %v", pos, want)
	}
}

func TestRequestsDrainLatestKeepsMostRecent(t *testing.T) {
	r := NewRequests()
	r.Send(PlayRequest{ID: 1})
	r.Send(PlayRequest{ID: 2})
	r.Send(PlayRequest{ID: 3})

	req, ok := r.DrainLatest()
	if !ok || req.ID != 3 {
		t.Fatalf("DrainLatest = %+v, %v; want ID=3", req, ok)
	}

	if _, ok := r.DrainLatest(); ok {
		t.Fatalf("DrainLatest after drain should find nothing pending")
	}
}

func TestRequestsSendDropsOldestWhenFull(t *testing.T) {
	r := make(Requests, 2)
	r.Send(PlayRequest{ID: 1})
	r.Send(PlayRequest{ID: 2})
	r.Send(PlayRequest{ID: 3}) // channel full; oldest dropped to make room

	req, ok := r.DrainLatest()
	if !ok || req.ID != 3 {
		t.Fatalf("DrainLatest after overflow = %+v, %v; want ID=3", req, ok)
	}
}
