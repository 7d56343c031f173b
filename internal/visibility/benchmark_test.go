package visibility

import "testing"

func makeNonOverlapping(n int) [][2]int {
	objects := make([][2]int, n)
	for i := range objects {
		objects[i] = [2]int{i, i}
	}
	return objects
}

func BenchmarkCacheCreate(b *testing.B) {
	objects := makeNonOverlapping(5000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := New(objects)
		_ = c
	}
}

func BenchmarkCacheVisibleObjects(b *testing.B) {
	c := New(makeNonOverlapping(5000))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.VisibleObjects(1000, 2000)
	}
}
