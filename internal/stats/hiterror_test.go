package stats

import (
	"math"
	"testing"

	"github.com/plitki-go/plitki/internal/timing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestEmptyHistogramAccuracy(t *testing.T) {
	var h Histogram
	if acc := h.Accuracy(); acc != 100.0 {
		t.Fatalf("empty histogram accuracy = %v, want 100.0", acc)
	}
}

func TestBucketBoundaries(t *testing.T) {
	cases := []struct {
		ms     int32
		bucket int
	}{
		{0, 0}, {18, 0},
		{19, 1}, {43, 1},
		{44, 2}, {76, 2},
		{77, 3}, {106, 3},
		{107, 4}, {127, 4},
		{128, 5}, {500, 5},
	}
	for _, c := range cases {
		if got := bucketFor(c.ms); got != c.bucket {
			t.Errorf("bucketFor(%d) = %d, want %d", c.ms, got, c.bucket)
		}
	}
}

func TestRecordHitUsesAbsoluteDifference(t *testing.T) {
	var h Histogram
	h.RecordHit(timing.GameTimeDeltaFromMillis(-10))
	h.RecordHit(timing.GameTimeDeltaFromMillis(10))
	counts := h.Counts()
	if counts[0] != 2 {
		t.Fatalf("want both +10ms and -10ms hits in bucket 0, got counts=%v", counts)
	}
}

func TestRecordMissGoesToBucketFour(t *testing.T) {
	var h Histogram
	h.RecordMiss()
	counts := h.Counts()
	if counts[4] != 1 {
		t.Fatalf("want miss in bucket 4, got counts=%v", counts)
	}
}

func TestAccuracyAllPerfect(t *testing.T) {
	var h Histogram
	for i := 0; i < 10; i++ {
		h.RecordHit(timing.GameTimeDeltaFromMillis(0))
	}
	if acc := h.Accuracy(); !almostEqual(acc, 100.0) {
		t.Fatalf("all-perfect accuracy = %v, want 100.0", acc)
	}
}

func TestAccuracyAllMisses(t *testing.T) {
	var h Histogram
	for i := 0; i < 5; i++ {
		h.RecordMiss()
	}
	if acc := h.Accuracy(); acc != 0 {
		t.Fatalf("all-miss accuracy = %v, want 0 (clamped)", acc)
	}
}

func TestAccuracyMixed(t *testing.T) {
	var h Histogram
	h.RecordHit(timing.GameTimeDeltaFromMillis(0))  // bucket 0, weight 100
	h.RecordHit(timing.GameTimeDeltaFromMillis(90)) // bucket 3, weight 25
	// total=2, weighted = 100+25 = 125 -> accuracy = 125/(2*100)*100 = 62.5
	if acc := h.Accuracy(); !almostEqual(acc, 62.5) {
		t.Fatalf("mixed accuracy = %v, want 62.5", acc)
	}
}
