// Package timing defines the fixed-point timestamp types used throughout the
// engine, and the phantom-tagged wrappers that keep map time and game time
// from being mixed by accident.
package timing

import "time"

// Timestamp is a point in time expressed in hundredths of a millisecond,
// stored as a signed 32-bit integer.
type Timestamp int32

// Delta is a difference between two Timestamps, in the same unit.
type Delta int32

const (
	minTimestamp = Timestamp(-1 << 31)
	maxTimestamp = Timestamp(1<<31 - 1)
	minDelta     = Delta(-1 << 31)
	maxDelta     = Delta(1<<31 - 1)
)

// FromMillis builds a Timestamp from a whole-millisecond count.
func FromMillis(ms int32) Timestamp { return Timestamp(ms) * 100 }

// FromDuration builds a Timestamp from a time.Duration, truncating to the
// nearest 1/100 ms.
func FromDuration(d time.Duration) Timestamp {
	return Timestamp(d.Nanoseconds() / 10000)
}

// Millis returns the whole-millisecond count, truncating any remainder.
func (t Timestamp) Millis() int32 { return int32(t) / 100 }

// Duration converts the timestamp to a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(int64(t) * 10000)
}

// DeltaFromMillis builds a Delta from a whole-millisecond count.
func DeltaFromMillis(ms int32) Delta { return Delta(ms) * 100 }

// DeltaFromDuration builds a Delta from a time.Duration.
func DeltaFromDuration(d time.Duration) Delta {
	return Delta(d.Nanoseconds() / 10000)
}

// Duration converts the delta to a time.Duration.
func (d Delta) Duration() time.Duration {
	return time.Duration(int64(d) * 10000)
}

// Sub returns t - other as a Delta.
func (t Timestamp) Sub(other Timestamp) Delta {
	return Delta(int64(t) - int64(other))
}

// Add returns t + d, saturating at the Timestamp bounds on overflow.
func (t Timestamp) Add(d Delta) Timestamp {
	sum := int64(t) + int64(d)
	return clampTimestamp(sum)
}

// SaturatingAdd is an alias for Add kept for call sites that want to make the
// saturating behavior explicit (matching the saturating_add naming of the
// reference implementation).
func (t Timestamp) SaturatingAdd(d Delta) Timestamp { return t.Add(d) }

// SaturatingSub returns t - d, saturating at the Timestamp bounds.
func (t Timestamp) SaturatingSub(d Delta) Timestamp {
	diff := int64(t) - int64(d)
	return clampTimestamp(diff)
}

func clampTimestamp(v int64) Timestamp {
	if v < int64(minTimestamp) {
		return minTimestamp
	}
	if v > int64(maxTimestamp) {
		return maxTimestamp
	}
	return Timestamp(v)
}

// Add returns d + other, saturating at the Delta bounds.
func (d Delta) Add(other Delta) Delta {
	return clampDelta(int64(d) + int64(other))
}

// Sub returns d - other, saturating at the Delta bounds.
func (d Delta) Sub(other Delta) Delta {
	return clampDelta(int64(d) - int64(other))
}

func clampDelta(v int64) Delta {
	if v < int64(minDelta) {
		return minDelta
	}
	if v > int64(maxDelta) {
		return maxDelta
	}
	return Delta(v)
}

// Less reports whether t orders before other.
func (t Timestamp) Less(other Timestamp) bool { return t < other }

// MapTimestamp is a Timestamp measured along the map (chart/music) clock.
// It is a distinct type from GameTimestamp so the two domains cannot be
// added together by accident; only a MapTimestamp and a MapTimeDelta may be
// combined, and subtracting two MapTimestamps yields a MapTimeDelta.
type MapTimestamp struct{ T Timestamp }

// MapTimeDelta is a difference between two MapTimestamps.
type MapTimeDelta struct{ D Delta }

// GameTimestamp is a Timestamp measured along the device/audio clock.
type GameTimestamp struct{ T Timestamp }

// GameTimeDelta is a difference between two GameTimestamps.
type GameTimeDelta struct{ D Delta }

// MapTimestampFromMillis builds a MapTimestamp from whole milliseconds.
func MapTimestampFromMillis(ms int32) MapTimestamp {
	return MapTimestamp{T: FromMillis(ms)}
}

// GameTimestampFromMillis builds a GameTimestamp from whole milliseconds.
func GameTimestampFromMillis(ms int32) GameTimestamp {
	return GameTimestamp{T: FromMillis(ms)}
}

// MapTimeDeltaFromMillis builds a MapTimeDelta from whole milliseconds.
func MapTimeDeltaFromMillis(ms int32) MapTimeDelta {
	return MapTimeDelta{D: DeltaFromMillis(ms)}
}

// GameTimeDeltaFromMillis builds a GameTimeDelta from whole milliseconds.
func GameTimeDeltaFromMillis(ms int32) GameTimeDelta {
	return GameTimeDelta{D: DeltaFromMillis(ms)}
}

// Sub returns m - other as a MapTimeDelta.
func (m MapTimestamp) Sub(other MapTimestamp) MapTimeDelta {
	return MapTimeDelta{D: m.T.Sub(other.T)}
}

// Add returns m + d, saturating on overflow.
func (m MapTimestamp) Add(d MapTimeDelta) MapTimestamp {
	return MapTimestamp{T: m.T.Add(d.D)}
}

// SubDelta returns m - d, saturating on overflow (MapTimestamp minus MapTimeDelta).
func (m MapTimestamp) SubDelta(d MapTimeDelta) MapTimestamp {
	return MapTimestamp{T: m.T.SaturatingSub(d.D)}
}

// Less reports whether m orders before other.
func (m MapTimestamp) Less(other MapTimestamp) bool { return m.T.Less(other.T) }

// Compare returns -1, 0, or 1 as m is less than, equal to, or greater than other.
func (m MapTimestamp) Compare(other MapTimestamp) int {
	switch {
	case m.T < other.T:
		return -1
	case m.T > other.T:
		return 1
	default:
		return 0
	}
}

// Add returns d + other, same as other.Add(d).
func (d MapTimeDelta) Add(other MapTimeDelta) MapTimeDelta {
	return MapTimeDelta{D: d.D.Add(other.D)}
}

// Sub returns d - other.
func (d MapTimeDelta) Sub(other MapTimeDelta) MapTimeDelta {
	return MapTimeDelta{D: d.D.Sub(other.D)}
}

// Sub returns g - other as a GameTimeDelta.
func (g GameTimestamp) Sub(other GameTimestamp) GameTimeDelta {
	return GameTimeDelta{D: g.T.Sub(other.T)}
}

// Add returns g + d, saturating on overflow.
func (g GameTimestamp) Add(d GameTimeDelta) GameTimestamp {
	return GameTimestamp{T: g.T.Add(d.D)}
}

// SubDelta returns g - d, saturating on overflow.
func (g GameTimestamp) SubDelta(d GameTimeDelta) GameTimestamp {
	return GameTimestamp{T: g.T.SaturatingSub(d.D)}
}

// Less reports whether g orders before other.
func (g GameTimestamp) Less(other GameTimestamp) bool { return g.T.Less(other.T) }

// Add returns d + other.
func (d GameTimeDelta) Add(other GameTimeDelta) GameTimeDelta {
	return GameTimeDelta{D: d.D.Add(other.D)}
}

// Sub returns d - other.
func (d GameTimeDelta) Sub(other GameTimeDelta) GameTimeDelta {
	return GameTimeDelta{D: d.D.Sub(other.D)}
}

// Neg returns the negated delta, saturating at the bounds (so negating
// Delta's minimum value saturates instead of overflowing).
func (d GameTimeDelta) Neg() GameTimeDelta {
	if d.D == minDelta {
		return GameTimeDelta{D: maxDelta}
	}
	return GameTimeDelta{D: -d.D}
}

// Neg returns the negated delta, saturating at the bounds.
func (d MapTimeDelta) Neg() MapTimeDelta {
	if d.D == minDelta {
		return MapTimeDelta{D: maxDelta}
	}
	return MapTimeDelta{D: -d.D}
}
