// Package visibility implements the incrementally-updated object visibility
// index (spec §4.6): given a set of objects with [start, end] extents, it
// answers "which objects overlap this range" in O(log n + output) time, and
// supports moving a single object's start or end in amortized sublinear time
// without rebuilding from scratch — the access pattern a held long note's
// start position needs every render tick.
package visibility

import "cmp"

// Cache is an incrementally-updated visibility index over a fixed set of
// objects, each with a start and end position of type T. T must be totally
// ordered; positions are typically scroll.Position or a raw pixel/time unit.
//
// The zero value is not usable; construct with New.
type Cache[T cmp.Ordered] struct {
	startPos []T
	endPos   []T

	// sortedByStart[i] is the object index of the i-th object in start order.
	sortedByStart []int
	// sortedByEnd[i] is an index into sortedByStart: sortedByStart[sortedByEnd[i]]
	// is the object index of the i-th object in end order.
	sortedByEnd []int
	// indexByStart[object] is the position of object in sortedByStart.
	indexByStart []int
	// indexByEnd[object] is the position of object in sortedByEnd.
	indexByEnd []int

	// overlap[i] is true when sortedByStart and sortedByEnd disagree about
	// object order around index i; see recomputeOverlap.
	overlap []bool
}

// New builds a Cache over objects, a list of (start, end) extents in a fixed
// object order that the returned indices refer back into.
//
// New panics if any object's start is after its end.
func New[T cmp.Ordered](objects [][2]T) *Cache[T] {
	n := len(objects)
	for _, o := range objects {
		if o[0] > o[1] {
			panic("visibility: an object must not end before it starts")
		}
	}

	startPos := make([]T, n)
	endPos := make([]T, n)
	for i, o := range objects {
		startPos[i] = o[0]
		endPos[i] = o[1]
	}

	sortedByStart := make([]int, n)
	for i := range sortedByStart {
		sortedByStart[i] = i
	}
	sortStableInts(sortedByStart, func(idx int) T { return startPos[idx] })

	indexByStart := make([]int, n)
	for idxByStart, idx := range sortedByStart {
		indexByStart[idx] = idxByStart
	}

	sortedByEnd := make([]int, n)
	for i := range sortedByEnd {
		sortedByEnd[i] = i
	}
	sortStableInts(sortedByEnd, func(idx int) T { return endPos[sortedByStart[idx]] })

	indexByEnd := make([]int, n)
	for idxByEnd, idx := range sortedByEnd {
		indexByEnd[sortedByStart[idx]] = idxByEnd
	}

	c := &Cache[T]{
		startPos:      startPos,
		endPos:        endPos,
		sortedByStart: sortedByStart,
		sortedByEnd:   sortedByEnd,
		indexByStart:  indexByStart,
		indexByEnd:    indexByEnd,
		overlap:       make([]bool, n),
	}
	c.recomputeOverlap(0, len(c.sortedByEnd))
	return c
}

// sortStableInts stable-sorts idxs in place by key. Construction is the only
// place a full sort is needed; everything afterward is maintained
// incrementally by updateStartPosition/updateEndPosition.
func sortStableInts[T cmp.Ordered](idxs []int, key func(int) T) {
	mergeSortInts(idxs, key)
}

func mergeSortInts[T cmp.Ordered](idxs []int, key func(int) T) {
	n := len(idxs)
	if n < 2 {
		return
	}
	mid := n / 2
	left := append([]int(nil), idxs[:mid]...)
	right := append([]int(nil), idxs[mid:]...)
	mergeSortInts(left, key)
	mergeSortInts(right, key)

	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if key(left[i]) <= key(right[j]) {
			idxs[k] = left[i]
			i++
		} else {
			idxs[k] = right[j]
			j++
		}
		k++
	}
	for i < len(left) {
		idxs[k] = left[i]
		i++
		k++
	}
	for j < len(right) {
		idxs[k] = right[j]
		j++
		k++
	}
}

// StartPosition returns the stored start position of object.
func (c *Cache[T]) StartPosition(object int) T { return c.startPos[object] }

// EndPosition returns the stored end position of object.
func (c *Cache[T]) EndPosition(object int) T { return c.endPos[object] }

// Len returns the number of objects in the cache.
func (c *Cache[T]) Len() int { return len(c.startPos) }

// recomputeOverlap recomputes the overlap flags over [start, end), first
// extending the range to fully cover any overlap run it begins or ends in
// the middle of (recomputing from the middle of an overlap run produces
// invalid results).
func (c *Cache[T]) recomputeOverlap(start, end int) {
	if start >= end {
		return
	}

	if c.overlap[start] {
		for start > 0 && c.overlap[start-1] {
			start--
		}
	}
	if c.overlap[end-1] {
		for end < len(c.overlap) && c.overlap[end] {
			end++
		}
	}

	i := start
	for i < end {
		bIdx := c.sortedByEnd[i]
		if i == bIdx {
			c.overlap[i] = false
			i++
			continue
		}

		c.overlap[i] = true
		i++

		for i < end {
			newBIdx := c.sortedByEnd[i]
			if newBIdx > bIdx {
				bIdx = newBIdx
			}

			if i == newBIdx && i >= bIdx {
				c.overlap[i] = false
				i++
				break
			}

			c.overlap[i] = true
			i++
		}
	}
}

func (c *Cache[T]) updateStartPosition(object int, newStart T) {
	oldStart := c.startPos[object]
	if oldStart == newStart {
		return
	}
	c.startPos[object] = newStart

	if newStart > oldStart {
		firstChanged := c.indexByStart[object]
		onePastLastChanged := firstChanged

		for i := firstChanged; i < len(c.sortedByStart)-1; i++ {
			nextObject := c.sortedByStart[i+1]
			if c.startPos[nextObject] >= newStart {
				break
			}

			c.sortedByStart[i] = nextObject
			c.sortedByStart[i+1] = object
			c.indexByStart[nextObject] = i
			c.indexByStart[object] = i + 1
			c.sortedByEnd[c.indexByEnd[nextObject]] = i
			c.sortedByEnd[c.indexByEnd[object]] = i + 1

			onePastLastChanged = i + 2
		}

		c.recomputeOverlap(firstChanged, onePastLastChanged)
	} else {
		onePastLastChanged := c.indexByStart[object] + 1
		firstChanged := onePastLastChanged

		for i := onePastLastChanged - 1; i > 0; i-- {
			prevObject := c.sortedByStart[i-1]
			if c.startPos[prevObject] <= newStart {
				break
			}

			c.sortedByStart[i] = prevObject
			c.sortedByStart[i-1] = object
			c.indexByStart[prevObject] = i
			c.indexByStart[object] = i - 1
			c.sortedByEnd[c.indexByEnd[prevObject]] = i
			c.sortedByEnd[c.indexByEnd[object]] = i - 1

			firstChanged = i - 1
		}

		c.recomputeOverlap(firstChanged, onePastLastChanged)
	}
}

func (c *Cache[T]) updateEndPosition(object int, newEnd T) {
	oldEnd := c.endPos[object]
	if oldEnd == newEnd {
		return
	}
	c.endPos[object] = newEnd

	objectByStart := c.indexByStart[object]
	if newEnd > oldEnd {
		firstChanged := c.indexByEnd[object]
		onePastLastChanged := firstChanged

		for i := firstChanged; i < len(c.sortedByEnd)-1; i++ {
			nextObjectByStart := c.sortedByEnd[i+1]
			nextObject := c.sortedByStart[nextObjectByStart]
			if c.endPos[nextObject] >= newEnd {
				break
			}

			c.sortedByEnd[i] = nextObjectByStart
			c.sortedByEnd[i+1] = objectByStart
			c.indexByEnd[nextObject] = i
			c.indexByEnd[object] = i + 1

			onePastLastChanged = i + 2
		}

		c.recomputeOverlap(firstChanged, onePastLastChanged)
	} else {
		onePastLastChanged := c.indexByEnd[object] + 1
		firstChanged := onePastLastChanged

		for i := onePastLastChanged - 1; i > 0; i-- {
			prevObjectByStart := c.sortedByEnd[i-1]
			prevObject := c.sortedByStart[prevObjectByStart]
			if c.endPos[prevObject] <= newEnd {
				break
			}

			c.sortedByEnd[i] = prevObjectByStart
			c.sortedByEnd[i-1] = objectByStart
			c.indexByEnd[prevObject] = i
			c.indexByEnd[object] = i - 1

			firstChanged = i - 1
		}

		c.recomputeOverlap(firstChanged, onePastLastChanged)
	}
}

// Update moves object to new start and end positions.
//
// Update panics if newStart > newEnd.
func (c *Cache[T]) Update(object int, newStart, newEnd T) {
	if newStart > newEnd {
		panic("visibility: an object must not end before it starts")
	}
	c.updateStartPosition(object, newStart)
	c.updateEndPosition(object, newEnd)
}

// VisibleObjects returns the indices (into the slice passed to New) of every
// object whose [start, end] extent intersects [rangeStart, rangeEnd).
func (c *Cache[T]) VisibleObjects(rangeStart, rangeEnd T) []int {
	n := len(c.sortedByEnd)

	// First object that ends in or after the visible range; everything
	// before it ends too early to be visible.
	firstIdxByEnd := partitionPoint(n, func(i int) bool {
		return c.endPos[c.sortedByStart[c.sortedByEnd[i]]] < rangeStart
	})

	// If we landed inside an overlap run, walk back to its start: indices
	// inside an overlap run aren't interchangeable between sortedByEnd and
	// sortedByStart, so this is a conservative (possibly early) estimate of
	// the first visible index by start, never a late one.
	firstIdxByStart := 0
	for i := firstIdxByEnd - 1; i >= 0; i-- {
		if !c.overlap[i] {
			firstIdxByStart = i + 1
			break
		}
	}

	// First object that starts past the visible range.
	onePastLastIdxByStart := partitionPoint(len(c.sortedByStart), func(i int) bool {
		return c.startPos[c.sortedByStart[i]] < rangeEnd
	})

	if firstIdxByStart >= onePastLastIdxByStart {
		return nil
	}
	out := make([]int, onePastLastIdxByStart-firstIdxByStart)
	copy(out, c.sortedByStart[firstIdxByStart:onePastLastIdxByStart])
	return out
}

// partitionPoint returns the index of the first element in [0,n) for which
// pred is false, assuming pred is true for a prefix and false for the rest
// (mirroring Rust's slice::partition_point).
func partitionPoint(n int, pred func(int) bool) int {
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if pred(mid) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// VerifyInvariants checks every internal consistency invariant of the
// cache's four parallel arrays; it is exported for use from tests in other
// packages that exercise Cache against their own object model, and panics
// on the first violation found.
func (c *Cache[T]) VerifyInvariants() {
	for i := range c.startPos {
		if c.startPos[i] > c.endPos[i] {
			panic("visibility: invariant violated: start > end")
		}
	}

	for i := 1; i < len(c.sortedByStart); i++ {
		a, b := c.sortedByStart[i-1], c.sortedByStart[i]
		if c.startPos[a] > c.startPos[b] {
			panic("visibility: invariant violated: sortedByStart out of order")
		}
	}

	for i := 1; i < len(c.sortedByEnd); i++ {
		a, b := c.sortedByEnd[i-1], c.sortedByEnd[i]
		if c.endPos[c.sortedByStart[a]] > c.endPos[c.sortedByStart[b]] {
			panic("visibility: invariant violated: sortedByEnd out of order")
		}
	}

	for i := range c.startPos {
		if c.sortedByStart[c.indexByStart[i]] != i {
			panic("visibility: invariant violated: indexByStart inconsistent")
		}
	}

	for i := range c.startPos {
		if c.sortedByStart[c.sortedByEnd[c.indexByEnd[i]]] != i {
			panic("visibility: invariant violated: indexByEnd inconsistent")
		}
	}

	for i, overlap := range c.overlap {
		if !overlap && c.sortedByEnd[i] != i {
			panic("visibility: invariant violated: non-overlapping index misaligned")
		}
	}
}
