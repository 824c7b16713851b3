package runner

import (
	"runtime"
	"sync"

	"github.com/notargets/DGView/partitions"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
)

// Workers bounds the goroutines used by the host parallel loops
var Workers = runtime.GOMAXPROCS(0)

// ParallelFor calls fn(i) for every i in [0, n), one block partition of
// the range per worker goroutine. It returns when all calls have.
func ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	pl := partitions.Block(n, Workers)

	var wg sync.WaitGroup
	for p := 0; p < pl.NumPartitions(); p++ {
		begin, end := pl.Range(p)
		wg.Add(1)
		go func(begin, end int) {
			defer wg.Done()
			for i := begin; i < end; i++ {
				fn(i)
			}
		}(begin, end)
	}
	wg.Wait()
}

// ParallelForMD calls fn once per multi-index in the box spanned by
// extents. The leading axis is distributed; the rest run in order inside
// each worker. The idx slice is owned by the worker and reused between calls.
func ParallelForMD(extents []int, fn func(idx []int)) {
	rank := len(extents)
	if rank == 0 {
		fn(nil)
		return
	}
	for _, n := range extents {
		if n <= 0 {
			return
		}
	}
	inner := extents[1:]
	ParallelFor(extents[0], func(i int) {
		idx := make([]int, rank)
		idx[0] = i
		for {
			fn(idx)
			// odometer over the trailing axes, last axis fastest
			k := rank - 1
			for ; k >= 1; k-- {
				idx[k]++
				if idx[k] < inner[k-1] {
					break
				}
				idx[k] = 0
			}
			if k < 1 {
				return
			}
		}
	})
}

// ParallelReduce sums fn(i) over [0, n) with one partial sum per block
// partition. Partials are combined in partition order so results are
// deterministic for a fixed worker count.
func ParallelReduce[T view.Scalar](n int, fn func(i int) T) T {
	if n <= 0 {
		return 0
	}
	pl := partitions.Block(n, Workers)
	partial := make([]T, pl.NumPartitions())

	ParallelFor(len(partial), func(p int) {
		begin, end := pl.Range(p)
		var sum T
		for i := begin; i < end; i++ {
			sum += fn(i)
		}
		partial[p] = sum
	})

	var total T
	for _, s := range partial {
		total += s
	}
	return total
}

// ForEach calls fn for every index of a host view in parallel
func ForEach[T view.Scalar](v *view.View[T, space.Host], fn func(idx []int)) {
	ParallelForMD(v.Extents(), fn)
}
