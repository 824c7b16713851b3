package partitions

import (
	"errors"
	"testing"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlock(t *testing.T) {
	tests := []struct {
		n, parts int
		k        []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{2, 5, []int{1, 1}},
		{0, 4, []int{0}},
		{7, 0, []int{7}},
	}
	for _, tt := range tests {
		pl := Block(tt.n, tt.parts)
		assert.Equal(t, tt.k, pl.K, "Block(%d, %d)", tt.n, tt.parts)
		assert.Equal(t, tt.n, pl.Total())
		require.NoError(t, pl.ValidateLayout())
	}
}

func TestBySize(t *testing.T) {
	pl := BySize(10, 4)
	assert.Equal(t, 3, pl.NumPartitions())
	assert.Equal(t, 4, pl.KpartMax)
	assert.Equal(t, 1, BySize(10, 0).NumPartitions())
	assert.Equal(t, 1, BySize(0, 8).NumPartitions())
}

func TestGetPartition(t *testing.T) {
	pl := Block(10, 3) // [0,4) [4,7) [7,10)
	want := []int{0, 0, 0, 0, 1, 1, 1, 2, 2, 2}
	for k, p := range want {
		assert.Equal(t, p, pl.GetPartition(k), "entry %d", k)
	}
	assert.Equal(t, -1, pl.GetPartition(-1))
	assert.Equal(t, -1, pl.GetPartition(10))

	begin, end := pl.Range(1)
	assert.Equal(t, 4, begin)
	assert.Equal(t, 7, end)
}

func TestValidateLayout(t *testing.T) {
	pl := Block(6, 2)
	pl.KpartMax = 4
	assert.Error(t, pl.ValidateLayout())

	pl = Block(6, 2)
	pl.K[0] = 2
	assert.Error(t, pl.ValidateLayout())

	pl = Block(6, 2)
	pl.Offsets = pl.Offsets[:2]
	assert.Error(t, pl.ValidateLayout())
}

func TestPartitionView(t *testing.T) {
	v := view.New[float64, space.Host]("u", layout.NewLeft(5, 3))
	defer v.Release()
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			v.Set2(float64(10*i+j), i, j)
		}
	}

	pl := Block(5, 2)
	parts, err := PartitionView(v, pl)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	defer func() {
		for _, p := range parts {
			p.Release()
		}
	}()

	assert.Equal(t, []int{3, 3}, parts[0].Extents())
	assert.Equal(t, []int{2, 3}, parts[1].Extents())
	assert.Equal(t, 3, v.UseCount())
	assert.Equal(t, 31.0, parts[1].At2(0, 1))

	// writes through a partition land in the parent
	parts[1].Set2(-1, 1, 2)
	assert.Equal(t, -1.0, v.At2(4, 2))

	_, err = PartitionView(v, Block(4, 2))
	assert.True(t, errors.Is(err, view.ErrIncompatible))

	scalar := view.New[float64, space.Host]("s", layout.NewRight())
	defer scalar.Release()
	_, err = PartitionView(scalar, Block(1, 1))
	assert.True(t, errors.Is(err, view.ErrRank))
}
