package runner

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000} {
		visits := make([]int32, n)
		ParallelFor(n, func(i int) {
			atomic.AddInt32(&visits[i], 1)
		})
		for i, c := range visits {
			require.Equal(t, int32(1), c, "n=%d index %d", n, i)
		}
	}
}

func TestParallelFor_WorkerCount(t *testing.T) {
	saved := Workers
	defer func() { Workers = saved }()

	for _, w := range []int{0, 1, 3, 64} {
		Workers = w
		var count atomic.Int64
		ParallelFor(10, func(int) { count.Add(1) })
		assert.Equal(t, int64(10), count.Load(), "workers=%d", w)
	}
}

func TestParallelForMD(t *testing.T) {
	t.Run("Box", func(t *testing.T) {
		extents := []int{3, 4, 2}
		var mu sync.Mutex
		seen := make(map[[3]int]int)
		ParallelForMD(extents, func(idx []int) {
			mu.Lock()
			seen[[3]int{idx[0], idx[1], idx[2]}]++
			mu.Unlock()
		})
		assert.Len(t, seen, 24)
		for key, c := range seen {
			assert.Equal(t, 1, c, "%v", key)
			assert.Less(t, key[0], 3)
			assert.Less(t, key[1], 4)
			assert.Less(t, key[2], 2)
		}
	})

	t.Run("RankZero", func(t *testing.T) {
		calls := 0
		ParallelForMD(nil, func(idx []int) {
			calls++
			assert.Empty(t, idx)
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("EmptyAxis", func(t *testing.T) {
		ParallelForMD([]int{4, 0, 2}, func([]int) {
			t.Fatal("no index expected")
		})
	})
}

func TestParallelReduce(t *testing.T) {
	sum := ParallelReduce(101, func(i int) int64 { return int64(i) })
	assert.Equal(t, int64(5050), sum)

	assert.Equal(t, 0.0, ParallelReduce(0, func(int) float64 { return 1 }))

	v := view.New[float64, space.Host]("x", layout.NewRight(10))
	defer v.Release()
	require.NoError(t, view.Fill(v, 0.5))
	dot := ParallelReduce(v.Extent(0), func(i int) float64 { return v.At1(i) * v.At1(i) })
	assert.InDelta(t, 2.5, dot, 1e-15)
}

func TestForEach(t *testing.T) {
	v := view.New[float64, space.Host]("grid", layout.NewLeft(5, 6))
	defer v.Release()

	ForEach(v, func(idx []int) {
		v.Set2(float64(idx[0]*10+idx[1]), idx[0], idx[1])
	})
	for i := 0; i < 5; i++ {
		for j := 0; j < 6; j++ {
			assert.Equal(t, float64(i*10+j), v.At2(i, j))
		}
	}

	// A strided subview visits only its own entries
	sub := view.Subview(v, view.Range(1, 4), view.Index(2))
	defer sub.Release()
	ForEach(sub, func(idx []int) {
		sub.Set1(-1, idx[0])
	})
	assert.Equal(t, -1.0, v.At2(1, 2))
	assert.Equal(t, -1.0, v.At2(3, 2))
	assert.Equal(t, 2.0, v.At2(0, 2))
	assert.Equal(t, 42.0, v.At2(4, 2))
}
