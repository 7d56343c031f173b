// Package stats implements hit-error bucketing and the weighted accuracy
// formula (spec §4.5).
package stats

import "github.com/plitki-go/plitki/internal/timing"

// bucketCount is the number of hit-error buckets: five hit-difference bands
// plus one bucket shared by the widest band and all misses.
const bucketCount = 6

// bucketWeights are the accuracy weights per bin, per spec §4.5.
var bucketWeights = [bucketCount]float64{100, 98.25, 65, 25, -100, -50}

// Histogram accumulates hit-error counts into the fixed millisecond buckets
// used for the accuracy calculation and any error-distribution display.
type Histogram struct {
	counts [bucketCount]int64
}

// bucketFor returns the bucket index for an absolute hit-error magnitude, in
// milliseconds: [0,18], [19,43], [44,76], [77,106], [107,127], [128,∞).
func bucketFor(absMillis int32) int {
	switch {
	case absMillis <= 18:
		return 0
	case absMillis <= 43:
		return 1
	case absMillis <= 76:
		return 2
	case absMillis <= 106:
		return 3
	case absMillis <= 127:
		return 4
	default:
		return 5
	}
}

// RecordHit buckets a successful hit by its absolute timing error.
func (h *Histogram) RecordHit(difference timing.GameTimeDelta) {
	hundredthsMs := int32(difference.D)
	if hundredthsMs < 0 {
		hundredthsMs = -hundredthsMs
	}
	h.counts[bucketFor(hundredthsMs/100)]++
}

// RecordMiss counts a miss in the widest (fifth) bucket, per spec.
func (h *Histogram) RecordMiss() {
	h.counts[4]++
}

// Counts returns a copy of the six bucket counts.
func (h *Histogram) Counts() [bucketCount]int64 { return h.counts }

// Accuracy computes the weighted accuracy percentage:
// max(0, Σcᵢwᵢ / (Σcᵢ·100)) · 100 — which reduces to the clamped weighted
// average of the per-bucket weights. An empty histogram returns 100.0.
func (h *Histogram) Accuracy() float64 {
	var total int64
	var weighted float64
	for i, c := range h.counts {
		total += c
		weighted += float64(c) * bucketWeights[i]
	}
	if total == 0 {
		return 100.0
	}

	acc := weighted / float64(total)
	if acc < 0 {
		acc = 0
	}
	return acc
}
