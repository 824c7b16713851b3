package partitions

import (
	"fmt"
	"sort"

	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
)

// PartitionLayout splits a leading axis of Total() entries into contiguous
// partitions that execute together as one unit of parallel work
type PartitionLayout struct {
	K        []int // entries in each partition
	Offsets  []int // first entry of each partition, with the total appended
	KpartMax int   // padded size for uniform inner loops
}

// NumPartitions is the number of partitions
func (pl PartitionLayout) NumPartitions() int { return len(pl.K) }

// Total is the number of entries over all partitions
func (pl PartitionLayout) Total() int {
	if len(pl.Offsets) == 0 {
		return 0
	}
	return pl.Offsets[len(pl.Offsets)-1]
}

// Range returns the half open entry range of partition p
func (pl PartitionLayout) Range(p int) (begin, end int) {
	return pl.Offsets[p], pl.Offsets[p+1]
}

// GetPartition returns the partition containing entry k, or -1
func (pl PartitionLayout) GetPartition(k int) int {
	if k < 0 || k >= pl.Total() {
		return -1
	}
	// first partition whose end lies beyond k
	return sort.Search(len(pl.K), func(p int) bool { return pl.Offsets[p+1] > k })
}

// ValidateLayout checks partition consistency
func (pl PartitionLayout) ValidateLayout() error {
	if len(pl.Offsets) != len(pl.K)+1 {
		return fmt.Errorf("%d offsets for %d partitions", len(pl.Offsets), len(pl.K))
	}
	if pl.Offsets[0] != 0 {
		return fmt.Errorf("first offset %d != 0", pl.Offsets[0])
	}
	actualMax := 0
	for p, k := range pl.K {
		if k < 0 {
			return fmt.Errorf("partition %d: negative size %d", p, k)
		}
		if pl.Offsets[p+1]-pl.Offsets[p] != k {
			return fmt.Errorf("partition %d: offsets span %d != K %d",
				p, pl.Offsets[p+1]-pl.Offsets[p], k)
		}
		actualMax = max(actualMax, k)
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	return nil
}

// PartitionView returns one subview per partition, selecting the
// partition's range of the leading axis and all of every other axis. Each
// subview shares v's allocation and must be released by the caller.
func PartitionView[T view.Scalar, S space.Space](v *view.View[T, S], pl PartitionLayout) ([]*view.View[T, S], error) {
	if v.Rank() == 0 {
		return nil, fmt.Errorf("cannot partition a rank 0 view: %w", view.ErrRank)
	}
	if pl.Total() != v.Extent(0) {
		return nil, fmt.Errorf("layout covers %d entries, view %q has %d: %w",
			pl.Total(), v.Label(), v.Extent(0), view.ErrIncompatible)
	}
	sel := make([]view.Selector, v.Rank())
	for k := range sel {
		sel[k] = view.All
	}
	parts := make([]*view.View[T, S], 0, pl.NumPartitions())
	for p := 0; p < pl.NumPartitions(); p++ {
		sel[0] = view.Range(pl.Range(p))
		sub, err := view.TrySubview(v, sel...)
		if err != nil {
			for _, made := range parts {
				made.Release()
			}
			return nil, err
		}
		parts = append(parts, sub)
	}
	return parts, nil
}
