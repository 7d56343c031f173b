package judge

import (
	"errors"
	"testing"

	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

func mustMap(t *testing.T, objs []mapmodel.Object) *mapmodel.Map {
	t.Helper()
	m, err := mapmodel.New([]mapmodel.Lane{{Objects: objs}}, nil, nil, scroll.DefaultMultiplier)
	if err != nil {
		t.Fatalf("mapmodel.New: %v", err)
	}
	return m
}

func ms(n int32) timing.MapTimestamp   { return timing.MapTimestampFromMillis(n) }
func gms(n int32) timing.GameTimestamp { return timing.GameTimestampFromMillis(n) }

// S2: a regular note can only be hit once key-press arrives within its hit
// window; a press that lands well before the window opens is a no-op and
// does not advance the cursor (note lock).
func TestRegularNoteLock(t *testing.T) {
	m := mustMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	gs := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))

	if ev := gs.KeyPress(0, gms(500)); ev != nil {
		t.Fatalf("press far before window: want nil, got %+v", ev)
	}
	if gs.Lanes[0].FirstActive != 0 {
		t.Fatalf("cursor advanced on out-of-window press")
	}

	ev := gs.KeyPress(0, gms(950))
	if ev == nil || ev.Kind != EventHit {
		t.Fatalf("press within window: want Hit, got %+v", ev)
	}
	if gs.Lanes[0].FirstActive != 1 {
		t.Fatalf("cursor did not advance after hit")
	}
	if !gs.Lanes[0].States[0].IsHit() {
		t.Fatalf("object not marked hit")
	}

	// Pressing again has no active object left; note-locked.
	if ev := gs.KeyPress(0, gms(960)); ev != nil {
		t.Fatalf("press after lane exhausted: want nil, got %+v", ev)
	}
}

// S3: pressing at a long note's start and releasing at its end both succeed.
func TestLongNoteHit(t *testing.T) {
	m := mustMap(t, []mapmodel.Object{mapmodel.NewLongNote(ms(1000), ms(5000))})
	gs := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))

	ev := gs.KeyPress(0, gms(1010))
	if ev == nil || ev.Kind != EventHit {
		t.Fatalf("press at start: want Hit, got %+v", ev)
	}
	if gs.Lanes[0].States[0].LN != Held {
		t.Fatalf("long note not Held after press, got %v", gs.Lanes[0].States[0].LN)
	}
	if gs.Lanes[0].FirstActive != 0 {
		t.Fatalf("cursor advanced while note still held")
	}

	ev = gs.KeyRelease(0, gms(5005))
	if ev == nil || ev.Kind != EventHit {
		t.Fatalf("release at end: want Hit, got %+v", ev)
	}
	if gs.Lanes[0].States[0].LN != Hit {
		t.Fatalf("long note not Hit after release, got %v", gs.Lanes[0].States[0].LN)
	}
	if gs.Lanes[0].FirstActive != 1 {
		t.Fatalf("cursor did not advance after release")
	}
}

// S4: releasing a held long note well before its end window marks it Missed
// and records HeldUntil.
func TestLongNoteReleasedEarly(t *testing.T) {
	m := mustMap(t, []mapmodel.Object{mapmodel.NewLongNote(ms(1000), ms(5000))})
	gs := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))

	if ev := gs.KeyPress(0, gms(1010)); ev == nil || ev.Kind != EventHit {
		t.Fatalf("press at start failed: %+v", ev)
	}

	ev := gs.KeyRelease(0, gms(3000))
	if ev == nil || ev.Kind != EventMiss {
		t.Fatalf("early release: want Miss, got %+v", ev)
	}
	st := gs.Lanes[0].States[0]
	if st.LN != Missed {
		t.Fatalf("long note not Missed after early release, got %v", st.LN)
	}
	if !st.HasHeldUntil || st.HeldUntil != ms(3000) {
		t.Fatalf("HeldUntil not recorded correctly: %+v", st)
	}
	if gs.Lanes[0].FirstActive != 1 {
		t.Fatalf("cursor did not advance after early release")
	}
}

// S5: a long note never pressed gets swept to Missed once its start window
// has fully elapsed, and is no longer reachable by a late press.
func TestLongNotePressedLate(t *testing.T) {
	m := mustMap(t, []mapmodel.Object{mapmodel.NewLongNote(ms(1000), ms(5000))})
	gs := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))

	ev := gs.KeyPress(0, gms(1200))
	if ev != nil {
		t.Fatalf("press after start window closed: want nil, got %+v", ev)
	}
	if gs.Lanes[0].FirstActive != 1 {
		t.Fatalf("cursor should have swept past the missed long note")
	}
	if gs.Lanes[0].States[0].LN != Missed {
		t.Fatalf("long note not Missed, got %v", gs.Lanes[0].States[0].LN)
	}
}

// S6: a global offset shifts the effective hit window in game time without
// changing the map-time object positions.
func TestGlobalOffsetShiftsWindow(t *testing.T) {
	m := mustMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	gs := NewGameState(m,
		WithHitWindow(timing.GameTimeDeltaFromMillis(50)),
		WithGlobalOffset(timing.GameTimeDeltaFromMillis(200)))

	// Without the offset, game time 1000 would be exactly on the object;
	// with a +200ms global offset, map_time = game_time + offset, so game
	// time 820 already maps to 1020 and should be within the 50ms window.
	ev := gs.KeyPress(0, gms(820))
	if ev == nil || ev.Kind != EventHit {
		t.Fatalf("offset-shifted press: want Hit, got %+v", ev)
	}
}

// The regular-object branch of Tick's start-window check is structurally
// unreachable, since a Regular object always has Start == End, so the
// end+window check always fires first. Guard this invariant with a direct
// construction that would only reach the panic if Object ever grew a
// Regular variant with Start != End.
func TestTickRegularStartBranchUnreachable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on malformed Regular object with Start != End")
		}
	}()

	m := mustMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000))})
	// Force the malformed shape this branch guards against; only reachable
	// via direct field manipulation, never through the public constructors.
	m.Lanes[0].Objects[0].End = ms(1000)
	m.Lanes[0].Objects[0].Start = ms(900)

	gs := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(10)))
	gs.Tick(0, gms(950))
}

func TestUpdateToLatestRejectsRegression(t *testing.T) {
	m := mustMap(t, []mapmodel.Object{mapmodel.NewRegular(ms(1000)), mapmodel.NewRegular(ms(2000))})
	ahead := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))
	ahead.KeyPress(0, gms(1000))

	behind := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)))

	if err := ahead.UpdateToLatest(behind); !errors.Is(err, ErrUpdateRegression) {
		t.Fatalf("copying a stale snapshot backward: want ErrUpdateRegression, got %v", err)
	}

	if err := behind.UpdateToLatest(ahead); err != nil {
		t.Fatalf("copying a more advanced snapshot forward should succeed: %v", err)
	}
	if behind.Lanes[0].FirstActive != 1 {
		t.Fatalf("behind did not adopt ahead's cursor")
	}
}

func TestRecentHitsRingBufferWraps(t *testing.T) {
	objs := make([]mapmodel.Object, 5)
	for i := range objs {
		objs[i] = mapmodel.NewRegular(ms(int32(1000 + i*1000)))
	}
	m := mustMap(t, objs)
	gs := NewGameState(m, WithHitWindow(timing.GameTimeDeltaFromMillis(100)), WithRecentHitsCapacity(3))

	for _, obj := range objs {
		gs.KeyPress(0, gms(int32(obj.Timestamp.T.Millis())))
	}

	hits := gs.RecentHits()
	if len(hits) != 3 {
		t.Fatalf("want 3 buffered hits, got %d", len(hits))
	}
}
