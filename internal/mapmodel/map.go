// Package mapmodel holds the immutable beatmap representation (spec
// component "Map model"): lanes of objects, timing points, and scroll
// velocity changes, plus the validation performed when a map is loaded.
package mapmodel

import (
	"errors"
	"fmt"
	"sort"

	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

// ErrMapInvalid is returned when two consecutive objects of a lane overlap
// once New has sorted the lane; this rejects the map outright (spec §7,
// MapInvalid).
var ErrMapInvalid = errors.New("mapmodel: invalid map")

// TimeSignature is the beat count / beat unit pair of a TimingPoint.
type TimeSignature struct {
	BeatCount uint8
	BeatUnit  uint8
}

// TimingPoint marks a BPM or time-signature change.
type TimingPoint struct {
	Timestamp    timing.MapTimestamp
	BeatDuration timing.MapTimeDelta
	Signature    TimeSignature
}

// Lane is one vertical column of objects, sorted by start timestamp with no
// overlap between consecutive objects (object[i].End < object[i+1].Start).
type Lane struct {
	Objects []Object
}

// Map is an immutable beatmap: metadata, lanes, timing points, and scroll
// velocity changes. Once built by New, a Map is never mutated; it is shared
// read-only across every session playing it.
type Map struct {
	SongArtist        string
	SongTitle         string
	DifficultyName    string
	Mapper            string
	AudioFile         string
	TimingPoints      []TimingPoint
	Lanes             []Lane
	InitialMultiplier scroll.Multiplier
	positions         *scroll.Table
}

// New validates and constructs a Map. Lanes are sorted by object start
// timestamp if not already sorted; ErrMapInvalid is returned if, after
// sorting, any two consecutive objects in a lane overlap
// (object[i].End >= object[i+1].Start).
//
// svChanges need not be pre-normalized; New normalizes them against
// initial via scroll.NormalizeChanges.
func New(lanes []Lane, timingPoints []TimingPoint, svChanges []scroll.Change, initial scroll.Multiplier) (*Map, error) {
	m := &Map{
		TimingPoints:      timingPoints,
		Lanes:             make([]Lane, len(lanes)),
		InitialMultiplier: initial,
	}

	for i, lane := range lanes {
		objs := make([]Object, len(lane.Objects))
		copy(objs, lane.Objects)
		sort.SliceStable(objs, func(a, b int) bool {
			return objs[a].StartTimestamp().Less(objs[b].StartTimestamp())
		})
		for j := 1; j < len(objs); j++ {
			if !objs[j-1].EndTimestamp().Less(objs[j].StartTimestamp()) {
				return nil, fmt.Errorf("%w: lane %d objects %d and %d overlap or are out of order",
					ErrMapInvalid, i, j-1, j)
			}
		}
		m.Lanes[i] = Lane{Objects: objs}
	}

	normalized := scroll.NormalizeChanges(svChanges, initial)
	m.positions = scroll.NewTable(normalized, initial)

	return m, nil
}

// ScrollSpeedChanges returns the normalized SV change list backing the
// position integral.
func (m *Map) ScrollSpeedChanges() []scroll.Change { return m.positions.Changes() }

// PositionAt returns the integrated screen position at map timestamp t,
// per the piecewise-constant-multiplier integral (spec §4.1).
func (m *Map) PositionAt(t timing.MapTimestamp) scroll.Position {
	return m.positions.At(t)
}

// BPMAt returns the BPM in effect at t, derived from the last TimingPoint at
// or before t (or the first one, if t precedes all of them), and whether any
// timing point applies at all.
func (m *Map) BPMAt(t timing.MapTimestamp) (bpm float64, ok bool) {
	if len(m.TimingPoints) == 0 {
		return 0, false
	}
	active := m.TimingPoints[0]
	for _, tp := range m.TimingPoints {
		if tp.Timestamp.Compare(t) > 0 {
			break
		}
		active = tp
	}
	beatMs := float64(active.BeatDuration.D) / 100
	if beatMs <= 0 {
		return 0, false
	}
	return 60000 / beatMs, true
}

// LaneCount returns the number of lanes in the map.
func (m *Map) LaneCount() int { return len(m.Lanes) }
