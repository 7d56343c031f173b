// Package conveyor implements the visibility query API that turns map
// positions into on-screen pixel coordinates (spec §4.7): the pixel
// conversion helpers, and a per-lane visibility index whose query range
// slides as the map scrolls instead of being rebuilt every frame.
package conveyor

import (
	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
	"github.com/plitki-go/plitki/internal/visibility"
)

// PositionFunc resolves a map timestamp to a screen position, typically
// Map.PositionAt.
type PositionFunc func(ts timing.MapTimestamp) scroll.Position

// oneSquareScreen is the Position-unit extent of one full vertical square
// screen (spec §4.1): the denominator ToPixels/FromPixels convert against.
const oneSquareScreen = 2_000_000_000

// ToPixels maps a scaled position difference (a Position already multiplied
// by a scroll.Speed, e.g. via Position.ScaledBy) into integer pixels against
// a viewport extent. It is monotone and reversible up to ±1 pixel.
func ToPixels(scaledLength int64, viewportExtent int32) int32 {
	return int32(float64(scaledLength) / oneSquareScreen * float64(viewportExtent))
}

// FromPixels is the inverse of ToPixels: it recovers the scaled position
// difference that would render at pixels against a viewport extent.
func FromPixels(pixels int32, viewportExtent int32) int64 {
	return int64(float64(pixels) / float64(viewportExtent) * oneSquareScreen)
}

// WidgetHeight is the per-object on-screen sprite height, in pixels, at the
// current playfield width; it depends on width because sprites are
// aspect-scaled (spec §4.7).
type WidgetHeight func(objectIndex int) int32

// LaneConveyor is the visibility index for one lane: it maps the lane's
// objects' map positions onto a fixed-reference Position axis, independent
// of the current scroll speed and map position, so that scrolling and
// changing scroll speed only slide the query range rather than rebuild the
// index. The index must be rebuilt with Rebuild whenever the playfield
// width changes (since WidgetHeight depends on it).
type LaneConveyor struct {
	lane   mapmodel.Lane
	cache  *visibility.Cache[scroll.Position]
	extent int32
	starts []scroll.Position
}

// NewLaneConveyor builds a LaneConveyor for lane's objects, whose map
// positions are given by positions (typically Map.PositionAt), with widget
// heights (in pixels, relative to extent) supplied by height.
func NewLaneConveyor(lane mapmodel.Lane, positions PositionFunc, extent int32, height WidgetHeight) *LaneConveyor {
	lc := &LaneConveyor{lane: lane}
	lc.Rebuild(positions, extent, height)
	return lc
}

// Rebuild recomputes every object's cached extent; call this whenever the
// playfield width (and therefore WidgetHeight and extent) changes.
func (lc *LaneConveyor) Rebuild(positions PositionFunc, extent int32, height WidgetHeight) {
	lc.extent = extent
	objects := make([][2]scroll.Position, len(lc.lane.Objects))
	starts := make([]scroll.Position, len(lc.lane.Objects))
	for i, obj := range lc.lane.Objects {
		start := positions(obj.StartTimestamp())
		end := positions(obj.EndTimestamp())
		heightPos := scroll.Position(FromPixels(height(i), extent))
		objects[i] = [2]scroll.Position{start, end + heightPos}
		starts[i] = start
	}
	lc.cache = visibility.New(objects)
	lc.starts = starts
}

// VisibleObjects returns the indices of every object visible in the
// viewport, given the current map position, scroll speed, judgement-line
// pixel offset, and viewport pixel extent. Unlike Rebuild, this does not
// touch the cache's internal arrays — it only translates the viewport into
// the lane's fixed Position axis.
func (lc *LaneConveyor) VisibleObjects(mapPosition scroll.Position, speed scroll.Speed, hitPosition, viewportExtent int32) []int {
	if speed == 0 {
		return nil
	}
	lowScaled := FromPixels(-hitPosition, lc.extent)
	highScaled := FromPixels(viewportExtent-hitPosition, lc.extent)
	lowOffset := scroll.Position(lowScaled / int64(speed))
	highOffset := scroll.Position(highScaled / int64(speed))

	return lc.cache.VisibleObjects(mapPosition+lowOffset, mapPosition+highOffset)
}

// PixelY computes the on-screen y pixel of object at the current map
// position, scroll speed, judgement-line offset, and viewport extent:
// to_pixels((start_position - map_position) * speed) + hit_position.
func (lc *LaneConveyor) PixelY(object int, mapPosition scroll.Position, speed scroll.Speed, hitPosition, viewportExtent int32) int32 {
	diff := lc.starts[object].Sub(mapPosition)
	return ToPixels(diff.ScaledBy(speed), viewportExtent) + hitPosition
}
