package visibility

import "testing"

func naiveVisible(objects [][2]int, rangeStart, rangeEnd int) []bool {
	out := make([]bool, len(objects))
	for i, o := range objects {
		out[i] = o[1] >= rangeStart && o[0] < rangeEnd
	}
	return out
}

func checkAgainstNaive(t *testing.T, objects [][2]int, rangeStart, rangeEnd int) {
	t.Helper()
	naive := naiveVisible(objects, rangeStart, rangeEnd)

	c := New(objects)
	c.VerifyInvariants()

	optimized := make([]bool, len(objects))
	for _, idx := range c.VisibleObjects(rangeStart, rangeEnd) {
		optimized[idx] = true
	}

	for i := range naive {
		if naive[i] && !optimized[i] {
			t.Fatalf("objects=%v range=[%d,%d): object %d should be visible but wasn't (naive=%v optimized=%v)",
				objects, rangeStart, rangeEnd, i, naive, optimized)
		}
	}
}

// Exhaustive over every two-object configuration with all four coordinates
// in [0,4], and every query range whose start and length are each in [0,2]
// — mirrors the reference
// implementation's visibility_cache_is_correct_for_all_small_inputs.
func TestVisibilityCacheExhaustiveSmallInputs(t *testing.T) {
	for b1 := 0; b1 <= 4; b1++ {
		for e1 := b1; e1 <= 4; e1++ {
			for b2 := 0; b2 <= 4; b2++ {
				for e2 := b2; e2 <= 4; e2++ {
					objects := [][2]int{{b1, e1}, {b2, e2}}
					for start := 0; start <= 2; start++ {
						for length := 0; length <= 2; length++ {
							checkAgainstNaive(t, objects, start, start+length)
						}
					}
				}
			}
		}
	}
}

// A handful of fixed overlap scenarios: objects whose start-order and
// end-order disagree, which is exactly the case recomputeOverlap exists to
// handle correctly.
func TestVisibilityCacheOverlappingObjects(t *testing.T) {
	objects := [][2]int{
		{0, 10}, // starts first, ends last
		{1, 2},
		{3, 4},
		{5, 9},
	}
	c := New(objects)
	c.VerifyInvariants()

	for _, tc := range []struct {
		start, end int
		want       []bool
	}{
		{0, 1, []bool{true, false, false, false}},
		{2, 3, []bool{true, true, false, false}},
		{9, 10, []bool{true, false, false, true}},
		{11, 12, []bool{false, false, false, false}},
	} {
		got := make([]bool, len(objects))
		for _, idx := range c.VisibleObjects(tc.start, tc.end) {
			got[idx] = true
		}
		for i := range tc.want {
			if tc.want[i] && !got[i] {
				t.Fatalf("range=[%d,%d): object %d should be visible, got %v", tc.start, tc.end, i, got)
			}
		}
	}
}

// Moving a held long note's start forward frame by frame, and moving other
// objects' ends backward and forward, must keep the cache consistent via
// Update rather than a
// rebuild — mirrors check_incremental in the reference implementation.
func TestVisibilityCacheIncrementalUpdate(t *testing.T) {
	objects := [][2]int{
		{0, 20},
		{5, 8},
		{10, 12},
		{15, 30},
	}
	c := New(objects)
	c.VerifyInvariants()

	steps := []struct {
		object   int
		start, end int
	}{
		{0, 2, 20},
		{0, 6, 20},
		{0, 9, 20},
		{3, 15, 18},
		{3, 15, 25},
		{1, 7, 8},
	}

	for _, s := range steps {
		c.Update(s.object, s.start, s.end)
		c.VerifyInvariants()
		objects[s.object] = [2]int{s.start, s.end}

		for start := 0; start <= 30; start += 5 {
			checkUpdatedAgainstNaive(t, c, objects, start, start+10)
		}
	}
}

func checkUpdatedAgainstNaive(t *testing.T, c *Cache[int], objects [][2]int, rangeStart, rangeEnd int) {
	t.Helper()
	naive := naiveVisible(objects, rangeStart, rangeEnd)
	optimized := make([]bool, len(objects))
	for _, idx := range c.VisibleObjects(rangeStart, rangeEnd) {
		optimized[idx] = true
	}
	for i := range naive {
		if naive[i] && !optimized[i] {
			t.Fatalf("after update, range=[%d,%d): object %d should be visible but wasn't", rangeStart, rangeEnd, i)
		}
	}
}

func TestVisibilityCacheNewPanicsOnInvertedObject(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for an object ending before it starts")
		}
	}()
	New([][2]int{{5, 1}})
}

func TestVisibilityCacheUpdatePanicsOnInvertedObject(t *testing.T) {
	c := New([][2]int{{0, 5}})
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for an update ending before it starts")
		}
	}()
	c.Update(0, 10, 2)
}

func TestVisibilityCacheEmpty(t *testing.T) {
	c := New([][2]int{})
	c.VerifyInvariants()
	if got := c.VisibleObjects(0, 10); len(got) != 0 {
		t.Fatalf("empty cache returned visible objects: %v", got)
	}
}
