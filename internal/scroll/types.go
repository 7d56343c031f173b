// Package scroll holds the position/speed arithmetic (spec component 4.1 and
// 4.3): Position, ScrollSpeed, ScrollSpeedMultiplier, and the piecewise-linear
// position integral table built from a map's scroll-velocity changes.
package scroll

import (
	"errors"
	"fmt"
)

// ErrValueOutOfRange is returned when a ScrollSpeedMultiplier falls outside
// its valid [-2^24, 2^24) range.
var ErrValueOutOfRange = errors.New("scroll: value out of range")

// multiplierBound is 2^24; a ScrollSpeedMultiplier must satisfy
// -multiplierBound <= v < multiplierBound.
const multiplierBound = 1 << 24

// Position is an on-screen y-coordinate. The unit is 1/2e9 of a "vertical
// square screen": the object is at position 0 when the current map
// timestamp equals the object's own timestamp, and 2_000_000_000
// corresponds to one full square-screen's extent.
type Position int64

// Sub returns p - other.
func (p Position) Sub(other Position) Position { return p - other }

// Zero is the Position at the reference instant.
const Zero Position = 0

// Speed is the scrolling speed, in 1/20ths of vertical square screens per
// second: 20 means a note crosses the whole screen in one second, 10 in two
// seconds, 40 in half a second.
type Speed uint8

// Multiplier is the scroll speed multiplier (SV), ranging over
// [-2^24, 2^24), where 1000 is equivalent to a multiplier of 1.0.
type Multiplier struct{ v int32 }

// DefaultMultiplier is the multiplier equivalent to 1.0.
var DefaultMultiplier = Multiplier{v: 1000}

// NewMultiplier validates and constructs a Multiplier from its raw integer
// value (1000 == 1.0).
func NewMultiplier(value int32) (Multiplier, error) {
	if value < -multiplierBound || value >= multiplierBound {
		return Multiplier{}, fmt.Errorf("%w: scroll speed multiplier %d", ErrValueOutOfRange, value)
	}
	return Multiplier{v: value}, nil
}

// MustNewMultiplier is like NewMultiplier but panics on an out-of-range
// value; used at call sites that already know the value is a compile-time
// constant or otherwise pre-validated.
func MustNewMultiplier(value int32) Multiplier {
	m, err := NewMultiplier(value)
	if err != nil {
		panic(err)
	}
	return m
}

// FromFloat converts a conventional float multiplier (1.0 == default) to a
// Multiplier.
func FromFloat(value float64) (Multiplier, error) {
	return NewMultiplier(int32(value * 1000))
}

// Float returns the multiplier in conventional units (1.0 == default).
func (m Multiplier) Float() float64 { return float64(m.v) / 1000 }

// Raw returns the underlying integer value (1000 == 1.0).
func (m Multiplier) Raw() int32 { return m.v }

// Equal reports whether two multipliers carry the same value.
func (m Multiplier) Equal(other Multiplier) bool { return m.v == other.v }

// ScaledBy multiplies a position difference by a scroll speed, producing the
// raw screen-position-difference value consumed by conveyor.ToPixels. The
// multiplier itself is baked into the Position values produced by the
// integral Table.
func (p Position) ScaledBy(s Speed) int64 {
	return int64(p) * int64(s)
}
