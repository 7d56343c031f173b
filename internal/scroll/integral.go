package scroll

import (
	"sort"

	"github.com/plitki-go/plitki/internal/timing"
)

// Change is one scroll-velocity change: from Timestamp onward the multiplier
// in effect is Multiplier.
type Change struct {
	Timestamp  timing.MapTimestamp
	Multiplier Multiplier
}

// NormalizeChanges sorts, deduplicates, and prunes a raw SV-change list
// against an initial multiplier, per spec §4.4:
//  1. Stable-sort by timestamp.
//  2. Drop every change up to and including the last one that still carries
//     the initial multiplier (i.e. drop the leading run that doesn't change
//     anything).
//  3. Collapse runs that share a timestamp down to the last entry at that
//     timestamp, and drop entries that don't actually change the multiplier
//     from the previously kept one.
func NormalizeChanges(changes []Change, initial Multiplier) []Change {
	sorted := make([]Change, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Less(sorted[j].Timestamp)
	})

	firstMeaningful := -1
	for i, c := range sorted {
		if !c.Multiplier.Equal(initial) {
			firstMeaningful = i
			break
		}
	}
	if firstMeaningful == -1 {
		return nil
	}

	out := make([]Change, 0, len(sorted)-firstMeaningful)
	for i := firstMeaningful; i < len(sorted); i++ {
		if len(out) > 0 && sorted[i].Multiplier.Equal(out[len(out)-1].Multiplier) {
			continue
		}
		if i+1 < len(sorted) && sorted[i+1].Timestamp == sorted[i].Timestamp {
			continue
		}
		out = append(out, sorted[i])
	}
	return out
}

// Table precomputes the cumulative position at every SV change so that
// At(t) resolves in O(log n) instead of re-integrating from zero every call.
// Changes must already be normalized (see NormalizeChanges); Table does not
// renormalize them.
type Table struct {
	changes   []Change
	posAtChg  []Position
	initial   Multiplier
}

// NewTable builds a Table from a normalized list of SV changes and the
// multiplier that applies before the first change (or for all time, if
// changes is empty).
func NewTable(changes []Change, initial Multiplier) *Table {
	t := &Table{
		changes:  changes,
		posAtChg: make([]Position, len(changes)),
		initial:  initial,
	}
	var pos Position
	var prevT timing.MapTimestamp
	mult := initial
	for i, c := range changes {
		dt := int64(c.Timestamp.Sub(prevT).D)
		pos += Position(dt) * Position(mult.Raw())
		t.posAtChg[i] = pos
		prevT = c.Timestamp
		mult = c.Multiplier
	}
	return t
}

// At returns the integrated position at map timestamp t:
// pos(t) = pos_at_change[i] + (t - t_i) * m_i, where i is the index of the
// latest change at or before t (or the initial multiplier if t precedes the
// first change).
func (t *Table) At(ts timing.MapTimestamp) Position {
	// Find the last change with Timestamp <= ts.
	i := sort.Search(len(t.changes), func(i int) bool {
		return ts.Less(t.changes[i].Timestamp)
	}) - 1

	if i < 0 {
		dt := int64(ts.Sub(timing.MapTimestamp{}).D)
		return Position(dt) * Position(t.initial.Raw())
	}

	base := t.posAtChg[i]
	dt := int64(ts.Sub(t.changes[i].Timestamp).D)
	return base + Position(dt)*Position(t.changes[i].Multiplier.Raw())
}

// MultiplierAt returns the multiplier in effect at ts.
func (t *Table) MultiplierAt(ts timing.MapTimestamp) Multiplier {
	i := sort.Search(len(t.changes), func(i int) bool {
		return ts.Less(t.changes[i].Timestamp)
	}) - 1
	if i < 0 {
		return t.initial
	}
	return t.changes[i].Multiplier
}

// Changes returns the normalized SV change list backing this table.
func (t *Table) Changes() []Change { return t.changes }
