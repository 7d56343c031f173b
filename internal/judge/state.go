// Package judge implements the judgement state machine (spec §4.3): the
// per-lane active-object cursor, per-object hit/miss state, and the
// key-press/key-release/tick transitions that drive them.
package judge

import (
	"errors"
	"fmt"

	"github.com/plitki-go/plitki/internal/convert"
	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

// ErrUpdateRegression is returned by UpdateToLatest when the receiver's
// cursor has already advanced past the snapshot being copied in — a
// stale-update guard (spec §7, UpdateRegression). See SPEC_FULL.md §9 for
// why this is a returned error rather than a panic.
var ErrUpdateRegression = errors.New("judge: update_to_latest cursor regression")

const defaultHitWindowMillis = 164
const defaultRecentHitsCapacity = 32

// LongNoteState is the sub-state of a held object (spec §3, ObjectState sum
// type for LongNote).
type LongNoteState uint8

const (
	NotHit LongNoteState = iota
	Held
	Hit
	Missed
)

// ObjectState is the mutable per-object judgement state. For a Regular
// object only RegularHit is meaningful; for a LongNote, LN (and, once
// Missed, HeldUntil/HasHeldUntil) are meaningful.
type ObjectState struct {
	Kind         mapmodel.ObjectKind
	RegularHit   bool
	LN           LongNoteState
	HeldUntil    timing.MapTimestamp
	HasHeldUntil bool
}

// IsHit reports whether the object has been successfully hit.
func (s ObjectState) IsHit() bool {
	if s.Kind == mapmodel.Regular {
		return s.RegularHit
	}
	return s.LN == Hit
}

// LaneState holds per-object states for one lane plus the active cursor.
// Invariant: every index < FirstActive is in a terminal state (Hit or
// Missed); FirstActive only ever increases.
type LaneState struct {
	States      []ObjectState
	FirstActive int
}

func (l *LaneState) hasActive() bool { return l.FirstActive < len(l.States) }

// EventKind identifies the kind of judgement event emitted by key handling.
type EventKind uint8

const (
	EventHit EventKind = iota
	EventMiss
)

// HitResult carries the timing error of a successful hit, in game time.
type HitResult struct {
	Difference timing.GameTimeDelta
}

// Event is a judgement event pushed onto the recent-hits ring buffer and
// returned from KeyPress/KeyRelease.
type Event struct {
	Kind EventKind
	Lane int
	Hit  HitResult
}

// GameState is the live, mutable state of a play session: the shared map,
// scroll speed, timestamp converter, hit window, and per-lane states.
type GameState struct {
	Map         *mapmodel.Map
	ScrollSpeed scroll.Speed
	Converter   convert.Converter
	HitWindow   timing.GameTimeDelta
	Lanes       []LaneState
	recentHits  []Event
	recentHead  int
	recentCount int
	recentCap   int
}

// Option configures a GameState at construction time.
type Option func(*GameState)

// WithScrollSpeed sets the initial scroll speed (default 16, matching the
// reference implementation's default).
func WithScrollSpeed(s scroll.Speed) Option {
	return func(gs *GameState) { gs.ScrollSpeed = s }
}

// WithHitWindow overrides the default 164ms hit window.
func WithHitWindow(window timing.GameTimeDelta) Option {
	return func(gs *GameState) { gs.HitWindow = window }
}

// WithGlobalOffset sets the converter's device-latency offset.
func WithGlobalOffset(offset timing.GameTimeDelta) Option {
	return func(gs *GameState) { gs.Converter.GlobalOffset = offset }
}

// WithLocalOffset sets the converter's per-map calibration offset.
func WithLocalOffset(offset timing.MapTimeDelta) Option {
	return func(gs *GameState) { gs.Converter.LocalOffset = offset }
}

// WithRecentHitsCapacity overrides the default 32-entry recent-hits ring
// buffer capacity.
func WithRecentHitsCapacity(capacity int) Option {
	return func(gs *GameState) { gs.recentCap = capacity }
}

// NewGameState builds a GameState for m. m is assumed already validated (its
// lanes are sorted and non-overlapping per mapmodel.New); GameState does not
// re-validate it, since Map is the single source of truth for that
// invariant in this design.
func NewGameState(m *mapmodel.Map, opts ...Option) *GameState {
	gs := &GameState{
		Map:         m,
		ScrollSpeed: 16,
		HitWindow:   timing.GameTimeDeltaFromMillis(defaultHitWindowMillis),
		Lanes:       make([]LaneState, len(m.Lanes)),
		recentCap:   defaultRecentHitsCapacity,
	}
	for i, lane := range m.Lanes {
		states := make([]ObjectState, len(lane.Objects))
		for j, obj := range lane.Objects {
			states[j] = ObjectState{Kind: obj.Kind}
		}
		gs.Lanes[i] = LaneState{States: states}
	}
	for _, opt := range opts {
		opt(gs)
	}
	gs.recentHits = make([]Event, gs.recentCap)
	return gs
}

// HasActiveObjects reports whether lane still has an object that can change
// state.
func (gs *GameState) HasActiveObjects(lane int) bool {
	return gs.Lanes[lane].hasActive()
}

func (gs *GameState) pushEvent(ev Event) {
	if gs.recentCap == 0 {
		return
	}
	gs.recentHits[gs.recentHead] = ev
	gs.recentHead = (gs.recentHead + 1) % gs.recentCap
	if gs.recentCount < gs.recentCap {
		gs.recentCount++
	}
}

// RecentHits returns the events currently held in the ring buffer, oldest
// first.
func (gs *GameState) RecentHits() []Event {
	out := make([]Event, gs.recentCount)
	start := (gs.recentHead - gs.recentCount + gs.recentCap) % max(gs.recentCap, 1)
	for i := 0; i < gs.recentCount; i++ {
		out[i] = gs.recentHits[(start+i)%gs.recentCap]
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Tick sweeps lane forward from FirstActive while the object there has
// become unreachable (end+window < now, or for long notes, start+window <
// now and the note was never pressed). This implements the transition table
// in spec §4.3; it is called at the top of every KeyPress/KeyRelease and
// should also be called periodically (e.g. once per render tick) so missed
// objects are recorded even without input.
func (gs *GameState) Tick(lane int, now timing.GameTimestamp) {
	ls := &gs.Lanes[lane]
	nowMap := gs.Converter.GameToMap(now)
	windowMap := gs.Converter.GameToMapDuration(gs.HitWindow)
	objects := gs.Map.Lanes[lane].Objects

	for ls.hasActive() {
		idx := ls.FirstActive
		obj := objects[idx]
		state := &ls.States[idx]

		endPlusWindow := obj.End.Add(windowMap)
		if endPlusWindow.Less(nowMap) {
			if obj.Kind == mapmodel.LongNote {
				switch state.LN {
				case Held:
					state.LN = Hit
				case NotHit:
					state.LN = Missed
					state.HasHeldUntil = false
				}
			}
			ls.FirstActive++
			continue
		}

		startPlusWindow := obj.Start.Add(windowMap)
		if startPlusWindow.Less(nowMap) {
			if obj.Kind == mapmodel.Regular {
				panic(fmt.Sprintf("judge: unreachable regular object (lane %d, idx %d) with end==start reached the start-window branch", lane, idx))
			}
			if state.LN == NotHit {
				state.LN = Missed
				state.HasHeldUntil = false
				ls.FirstActive++
				continue
			}
			// Held: still within its hold window, nothing to do; fall
			// through to stop the sweep.
		}

		break
	}
}

// KeyPress handles a key-down event on lane at game timestamp now.
func (gs *GameState) KeyPress(lane int, now timing.GameTimestamp) *Event {
	gs.Tick(lane, now)
	ls := &gs.Lanes[lane]
	if !ls.hasActive() {
		return nil
	}

	nowMap := gs.Converter.GameToMap(now)
	windowMap := gs.Converter.GameToMapDuration(gs.HitWindow)
	idx := ls.FirstActive
	obj := gs.Map.Lanes[lane].Objects[idx]
	state := &ls.States[idx]

	startMinusWindow := obj.Start.SubDelta(windowMap)
	if nowMap.Less(startMinusWindow) {
		return nil
	}

	switch obj.Kind {
	case mapmodel.Regular:
		state.RegularHit = true
		ls.FirstActive++
		ev := Event{Kind: EventHit, Lane: lane, Hit: HitResult{Difference: now.Sub(gs.Converter.MapToGame(obj.Start))}}
		gs.pushEvent(ev)
		return &ev
	case mapmodel.LongNote:
		if state.LN == NotHit {
			state.LN = Held
			ev := Event{Kind: EventHit, Lane: lane, Hit: HitResult{Difference: now.Sub(gs.Converter.MapToGame(obj.Start))}}
			gs.pushEvent(ev)
			return &ev
		}
	}
	return nil
}

// KeyRelease handles a key-up event on lane at game timestamp now.
func (gs *GameState) KeyRelease(lane int, now timing.GameTimestamp) *Event {
	gs.Tick(lane, now)
	ls := &gs.Lanes[lane]
	if !ls.hasActive() {
		return nil
	}

	idx := ls.FirstActive
	obj := gs.Map.Lanes[lane].Objects[idx]
	state := &ls.States[idx]

	if obj.Kind != mapmodel.LongNote || state.LN != Held {
		return nil
	}

	nowMap := gs.Converter.GameToMap(now)
	windowMap := gs.Converter.GameToMapDuration(gs.HitWindow)
	endMinusWindow := obj.End.SubDelta(windowMap)

	var ev Event
	if !nowMap.Less(endMinusWindow) {
		state.LN = Hit
		ev = Event{Kind: EventHit, Lane: lane, Hit: HitResult{Difference: now.Sub(gs.Converter.MapToGame(obj.End))}}
	} else {
		state.LN = Missed
		state.HeldUntil = nowMap
		state.HasHeldUntil = true
		ev = Event{Kind: EventMiss, Lane: lane}
	}
	ls.FirstActive++
	gs.pushEvent(ev)
	return &ev
}

// UpdateToLatest copies the terminal states of latest into gs, advancing
// gs's cursors to match. It returns ErrUpdateRegression if gs's cursor in
// any lane has already advanced past latest's — copying an older snapshot
// backwards would silently un-judge notes, so this is rejected rather than
// applied.
func (gs *GameState) UpdateToLatest(latest *GameState) error {
	for i := range gs.Lanes {
		lane := &gs.Lanes[i]
		latestLane := &latest.Lanes[i]
		if lane.FirstActive > latestLane.FirstActive {
			return fmt.Errorf("%w: lane %d cursor %d ahead of latest %d",
				ErrUpdateRegression, i, lane.FirstActive, latestLane.FirstActive)
		}
	}

	gs.ScrollSpeed = latest.ScrollSpeed
	gs.Converter = latest.Converter
	gs.HitWindow = latest.HitWindow

	for i := range gs.Lanes {
		lane := &gs.Lanes[i]
		latestLane := &latest.Lanes[i]

		upper := latestLane.FirstActive
		if upper < len(lane.States) {
			upper++ // inclusive of the object currently changing state
		}
		copy(lane.States[lane.FirstActive:upper], latestLane.States[lane.FirstActive:upper])
		lane.FirstActive = latestLane.FirstActive
	}
	return nil
}
