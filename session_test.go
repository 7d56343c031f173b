package plitki

import (
	"testing"
	"time"

	"github.com/plitki-go/plitki/internal/audioclock"
	"github.com/plitki-go/plitki/internal/judge"
	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

func oneLaneMap(t *testing.T, objs []mapmodel.Object) *mapmodel.Map {
	t.Helper()
	m, err := mapmodel.New([]mapmodel.Lane{{Objects: objs}}, nil, nil, scroll.DefaultMultiplier)
	if err != nil {
		t.Fatalf("mapmodel.New: %v", err)
	}
	return m
}

func ms(n int32) timing.MapTimestamp   { return timing.MapTimestampFromMillis(n) }
func gms(n int32) timing.GameTimestamp { return timing.GameTimestampFromMillis(n) }

func TestNewSessionWithoutAudioHasNilFeedback(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Feedback != nil {
		t.Fatalf("expected nil Feedback with WithoutAudio")
	}
}

func TestNewSessionWithAudioBuildsFeedback(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Feedback == nil {
		t.Fatalf("expected non-nil Feedback by default")
	}
}

func TestSessionKeyPressRecordsHitAndAdvancesCursor(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio(), WithHitWindow(timing.GameTimeDeltaFromMillis(100)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	ev := s.KeyPress(0, gms(1000))
	if ev == nil || ev.Kind != judge.EventHit {
		t.Fatalf("KeyPress in window: want Hit, got %+v", ev)
	}
	if s.State.Lanes[0].FirstActive != 1 {
		t.Fatalf("cursor did not advance")
	}
	counts := s.Histogram.Counts()
	if counts[0] != 1 {
		t.Fatalf("expected a perfect-bucket hit recorded, got %v", counts)
	}
}

func TestSessionTickRecordsAutoMissForUnplayedNote(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio(), WithHitWindow(timing.GameTimeDeltaFromMillis(100)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	s.Tick(gms(1200)) // well past the 1000+100 window, never pressed
	if s.State.Lanes[0].FirstActive != 1 {
		t.Fatalf("Tick should have swept the expired note past the cursor")
	}
	counts := s.Histogram.Counts()
	if counts[4] != 1 {
		t.Fatalf("expected one auto-miss recorded in bucket 4, got %v", counts)
	}
}

func TestSessionLongNoteHoldIsSustainedThenReleased(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewLongNote(ms(1000), ms(2000))})
	s, err := NewSession(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if ev := s.KeyPress(0, gms(1000)); ev == nil || ev.Kind != judge.EventHit {
		t.Fatalf("long note press: want Hit, got %+v", ev)
	}
	if s.Feedback.ActiveVoiceCount() == 0 {
		t.Fatalf("expected the sustained long-note voice to still be sounding")
	}
	if s.State.Lanes[0].FirstActive != 0 {
		t.Fatalf("cursor should not advance while a long note is held")
	}

	if ev := s.KeyRelease(0, gms(2000)); ev == nil || ev.Kind != judge.EventHit {
		t.Fatalf("long note release in window: want Hit, got %+v", ev)
	}
	if s.State.Lanes[0].FirstActive != 1 {
		t.Fatalf("cursor should advance once the long note is released")
	}
}

func TestSessionVisibleObjectsAndPixelY(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio(), WithHitPosition(900), WithViewportExtent(1080))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	mapPosition := s.MapPositionAt(gms(1000))
	visible := s.VisibleObjects(0, mapPosition)
	found := false
	for _, idx := range visible {
		if idx == 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("object at the judgement line should be visible, got %v", visible)
	}
	if y := s.PixelY(0, 0, mapPosition); y != 900 {
		t.Fatalf("PixelY at judgement line = %d, want 900", y)
	}
}

func TestSessionTickFromAudioClockBeforePublishTreatsPositionAsZero(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio())
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	now := s.TickFromAudioClock(audioclock.TrackID(1), time.Now())
	if now.T.Millis() != 0 {
		t.Fatalf("game timestamp before any publish = %v, want 0", now.T.Millis())
	}
}

func TestSessionTickFromAudioClockUsesPublishedPosition(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio(), WithHitWindow(timing.GameTimeDeltaFromMillis(100)))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	started := time.Now().Add(-1200 * time.Millisecond)
	s.Clock.Publish(audioclock.Timestamp{TrackID: 1, TrackTimestamp: 0, WillPlayAt: started})

	now := s.TickFromAudioClock(audioclock.TrackID(1), started.Add(1200*time.Millisecond))
	if now.T.Millis() < 1100 || now.T.Millis() > 1300 {
		t.Fatalf("game timestamp = %vms, want ~1200ms", now.T.Millis())
	}
	if s.State.Lanes[0].FirstActive != 1 {
		t.Fatalf("Tick should have judged the lone note a miss by ~1200ms")
	}
}

func TestSessionSetViewportExtentNoopWhenUnchanged(t *testing.T) {
	m := oneLaneMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	s, err := NewSession(m, WithoutAudio(), WithViewportExtent(1080))
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	before := s.lanes[0]
	s.SetViewportExtent(1080)
	if s.lanes[0] != before {
		t.Fatalf("SetViewportExtent with the same extent should not rebuild the conveyor")
	}
	s.SetViewportExtent(720)
	if s.viewportExtent != 720 {
		t.Fatalf("viewportExtent not updated")
	}
}
