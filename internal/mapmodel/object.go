package mapmodel

import "github.com/plitki-go/plitki/internal/timing"

// ObjectKind distinguishes the two object shapes a lane can hold.
type ObjectKind uint8

const (
	// Regular is hit by a single tap.
	Regular ObjectKind = iota
	// LongNote is hit by holding a key from its start and releasing at its end.
	LongNote
)

// Object is an immutable hit object: either a Regular tap at Timestamp, or a
// LongNote spanning [Start, End]. For Regular objects Start == End == Timestamp.
type Object struct {
	Kind      ObjectKind
	Timestamp timing.MapTimestamp // valid for Regular
	Start     timing.MapTimestamp // valid for LongNote
	End       timing.MapTimestamp // valid for LongNote
}

// NewRegular constructs a Regular object hit at t.
func NewRegular(t timing.MapTimestamp) Object {
	return Object{Kind: Regular, Timestamp: t, Start: t, End: t}
}

// NewLongNote constructs a LongNote spanning [start, end]. The caller must
// ensure start <= end; this is enforced by Map construction, not here.
func NewLongNote(start, end timing.MapTimestamp) Object {
	return Object{Kind: LongNote, Start: start, End: end}
}

// StartTimestamp returns the first timestamp at which the object is visible.
func (o Object) StartTimestamp() timing.MapTimestamp {
	if o.Kind == Regular {
		return o.Timestamp
	}
	return o.Start
}

// EndTimestamp returns the last timestamp at which the object is visible.
func (o Object) EndTimestamp() timing.MapTimestamp {
	if o.Kind == Regular {
		return o.Timestamp
	}
	return o.End
}

// IsLongNote reports whether the object must be held.
func (o Object) IsLongNote() bool { return o.Kind == LongNote }
