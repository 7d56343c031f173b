package conveyor

import (
	"testing"

	"github.com/plitki-go/plitki/internal/mapmodel"
	"github.com/plitki-go/plitki/internal/scroll"
	"github.com/plitki-go/plitki/internal/timing"
)

func identityPositions(ts timing.MapTimestamp) scroll.Position {
	return scroll.Position(ts.T) * 1_000_000
}

func fixedHeight(px int32) WidgetHeight {
	return func(int) int32 { return px }
}

func TestToFromPixelsRoundTripsWithinOnePixel(t *testing.T) {
	cases := []struct {
		scaled int64
		extent int32
	}{
		{0, 1080}, {2_000_000_000, 1080}, {1_000_000_000, 1080}, {-500_000_000, 1080},
		{3_000_000_000, 720},
	}
	for _, c := range cases {
		px := ToPixels(c.scaled, c.extent)
		back := FromPixels(px, c.extent)
		diff := back - c.scaled
		if diff < 0 {
			diff = -diff
		}
		tolerance := int64(2_000_000_000 / int64(c.extent))
		if diff > tolerance+1 {
			t.Errorf("scaled=%d extent=%d: round trip diff %d exceeds tolerance %d", c.scaled, c.extent, diff, tolerance)
		}
	}
}

func TestLaneConveyorVisibleObjects(t *testing.T) {
	lane := mapmodel.Lane{Objects: []mapmodel.Object{
		mapmodel.NewRegular(timing.MapTimestampFromMillis(1000)),
		mapmodel.NewRegular(timing.MapTimestampFromMillis(5000)),
		mapmodel.NewRegular(timing.MapTimestampFromMillis(20000)),
	}}

	lc := NewLaneConveyor(lane, identityPositions, 1080, fixedHeight(50))

	mapPosition := identityPositions(timing.MapTimestampFromMillis(1000))
	visible := lc.VisibleObjects(mapPosition, 20, 100, 1080)

	found := map[int]bool{}
	for _, idx := range visible {
		found[idx] = true
	}
	if !found[0] {
		t.Errorf("object at the judgement line should be visible: visible=%v", visible)
	}
	if found[2] {
		t.Errorf("object far in the future should not be visible yet: visible=%v", visible)
	}
}

func TestLaneConveyorPixelYAtJudgementLine(t *testing.T) {
	lane := mapmodel.Lane{Objects: []mapmodel.Object{
		mapmodel.NewRegular(timing.MapTimestampFromMillis(1000)),
	}}
	lc := NewLaneConveyor(lane, identityPositions, 1080, fixedHeight(50))

	mapPosition := identityPositions(timing.MapTimestampFromMillis(1000))
	y := lc.PixelY(0, mapPosition, 20, 900, 1080)
	if y != 900 {
		t.Errorf("object exactly at map position should render at hit_position, got %d", y)
	}
}
