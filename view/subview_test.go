package view

import (
	"errors"
	"testing"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(t *testing.T, kind layout.Kind, m, n int) *hostView {
	t.Helper()
	l, err := layout.FromExtents(kind, m, n)
	require.NoError(t, err)
	v := New[float64, space.Host]("src", l)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			v.Set2(float64(i*10+j), i, j)
		}
	}
	return v
}

func TestSubviewFullRoundTrip(t *testing.T) {
	for _, kind := range []layout.Kind{layout.KindLeft, layout.KindRight} {
		t.Run(kind.String(), func(t *testing.T) {
			v := filled(t, kind, 3, 5)
			defer v.Release()
			s := Subview(v, All, All)
			defer s.Release()

			assert.Equal(t, v.Extents(), s.Extents())
			assert.Equal(t, kind, s.Kind())
			assert.Same(t, &v.Data()[0], &s.Data()[0])
			assert.True(t, Equal(v, s))
			for i := 0; i < 3; i++ {
				for j := 0; j < 5; j++ {
					assert.Equal(t, v.At(i, j), s.At(i, j))
				}
			}
			assert.Equal(t, 2, v.UseCount())
		})
	}
}

func TestSubviewSelectors(t *testing.T) {
	v := filled(t, layout.KindRight, 4, 6)
	defer v.Release()

	t.Run("Row", func(t *testing.T) {
		row := Subview(v, Index(2), All)
		defer row.Release()
		assert.Equal(t, 1, row.Rank())
		assert.Equal(t, layout.KindRight, row.Kind())
		assert.Equal(t, 23.0, row.At(3))
		row.Set(-1, 0)
		assert.Equal(t, -1.0, v.At(2, 0))
		v.Set(20, 2, 0)
	})
	t.Run("Column", func(t *testing.T) {
		col := Subview(v, All, Index(4))
		defer col.Release()
		assert.Equal(t, layout.KindStride, col.Kind())
		assert.Equal(t, []int{4}, col.Extents())
		assert.Equal(t, 6, col.Stride(0))
		assert.Equal(t, 34.0, col.At1(3))
		assert.False(t, col.SpanIsContiguous())
	})
	t.Run("Block", func(t *testing.T) {
		blk := Subview(v, Range(1, 3), Range(2, 5))
		defer blk.Release()
		assert.Equal(t, []int{2, 3}, blk.Extents())
		assert.Equal(t, 12.0, blk.At(0, 0))
		assert.Equal(t, 24.0, blk.At(1, 2))
		assert.Equal(t, 1*6+2, blk.Origin())
	})
	t.Run("Nested", func(t *testing.T) {
		blk := Subview(v, Range(1, 4), Range(1, 6))
		defer blk.Release()
		inner := Subview(blk, Index(1), Range(2, 4))
		defer inner.Release()
		assert.Equal(t, 23.0, inner.At(0))
		assert.Equal(t, 24.0, inner.At(1))
		assert.Equal(t, 3, v.UseCount())
	})
	t.Run("Scalar", func(t *testing.T) {
		s := Subview(v, Index(3), Index(5))
		defer s.Release()
		assert.Equal(t, 0, s.Rank())
		assert.Equal(t, 35.0, s.At())
	})
	t.Run("Empty", func(t *testing.T) {
		e := Subview(v, Range(2, 2), All)
		defer e.Release()
		assert.Equal(t, 0, e.Size())
		assert.Equal(t, 0, e.Span())
	})
}

func TestSubviewStaticExtents(t *testing.T) {
	v := NewConfig[float64, space.Host](Config{
		Label:  "static",
		Layout: layout.NewLeft(5, 3, 2),
		Shape:  layout.MustShape(layout.Dynamic, 3, 2),
	})
	defer v.Release()

	keep := Subview(v, Range(1, 4), All, All)
	defer keep.Release()
	assert.Equal(t, 1, keep.RankDynamic())
	assert.Equal(t, 3, keep.StaticExtent(1))
	assert.Equal(t, 2, keep.StaticExtent(2))

	// a ranged axis after a static one forces the static one dynamic
	mixed := Subview(v, Index(0), All, Range(0, 1))
	defer mixed.Release()
	assert.Equal(t, 2, mixed.RankDynamic())
	assert.Equal(t, layout.Dynamic, mixed.StaticExtent(0))
}

func TestSubviewViolations(t *testing.T) {
	v := filled(t, layout.KindRight, 2, 3)
	defer v.Release()

	_, err := TrySubview(v, All)
	assert.True(t, errors.Is(err, ErrRank))
	_, err = TrySubview(v, Index(2), All)
	assert.True(t, errors.Is(err, ErrBounds))
	_, err = TrySubview(v, All, Range(2, 4))
	assert.True(t, errors.Is(err, ErrBounds))
	_, err = TrySubview(v, All, Selector{})
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Equal(t, 1, v.UseCount())

	ve := violationOf(t, func() { Subview(v, All, All, All) })
	assert.Equal(t, RankMismatch, ve.Kind)
}

func TestSubviewOfUnmanaged(t *testing.T) {
	buf := make([]float64, 12)
	v := Wrap[float64, space.Host](buf, layout.NewLeft(3, 4))
	s := Subview(v, Index(1), All)
	assert.Zero(t, s.UseCount())
	s.Set(7, 2)
	assert.Equal(t, 7.0, buf[1+3*2])
}
