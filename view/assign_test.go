package view

import (
	"errors"
	"testing"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignableTypes(t *testing.T) {
	dyn2 := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, layout.Dynamic)
	dyn1s4 := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, 4)
	dyn1s5 := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, 5)
	left2 := MustTypeOf[space.Host](layout.KindLeft, layout.Dynamic, layout.Dynamic)
	stride2 := MustTypeOf[space.Host](layout.KindStride, layout.Dynamic, layout.Dynamic)
	dev2 := MustTypeOf[space.Device](layout.KindRight, layout.Dynamic, layout.Dynamic)
	dyn3 := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, layout.Dynamic, layout.Dynamic)
	left1 := MustTypeOf[space.Host](layout.KindLeft, layout.Dynamic)
	right1 := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic)
	const2 := dyn2
	const2.ReadOnly = true

	tests := []struct {
		name               string
		dst, src           Traits
		assignable, always bool
	}{
		{"identical", dyn2, dyn2, true, true},
		{"dynamic from static", dyn2, dyn1s4, true, true},
		{"static from dynamic", dyn1s4, dyn2, true, false},
		{"static mismatch", dyn1s4, dyn1s5, false, false},
		{"layout mismatch", left2, dyn2, false, false},
		{"stride from right", stride2, dyn2, true, true},
		{"right from stride", dyn2, stride2, true, false},
		{"rank 1 left from right", left1, right1, true, true},
		{"space mismatch", dyn2, dev2, false, false},
		{"rank mismatch", dyn3, dyn2, false, false},
		{"const from mutable", const2, dyn2, true, true},
		{"mutable from const", dyn2, const2, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.assignable, AssignableTypes(tt.dst, tt.src))
			assert.Equal(t, tt.always, AlwaysAssignable(tt.dst, tt.src))
		})
	}
}

func TestDynamicFromStatic(t *testing.T) {
	static := NewConfig[float64, space.Host](Config{
		Label:  "static",
		Layout: layout.NewRight(3, 4),
		Shape:  layout.MustShape(3, 4),
	})
	defer static.Release()
	static.Set(8, 2, 3)

	dynType := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, layout.Dynamic)
	dyn := Empty[float64, space.Host](dynType)
	assert.False(t, dyn.IsAllocated())
	assert.True(t, IsAssignable(dyn, static))

	dyn.Assign(static)
	defer dyn.Release()
	assert.Equal(t, []int{3, 4}, dyn.Extents())
	assert.Equal(t, 8.0, dyn.At(2, 3))
	assert.Equal(t, 2, static.UseCount())
	assert.Equal(t, 2, dyn.RankDynamic())
}

func TestStaticFromDynamicMismatch(t *testing.T) {
	src := New[float64, space.Host]("five", layout.NewRight(2, 5))
	defer src.Release()

	four := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, 4)
	dst := Empty[float64, space.Host](four)
	assert.False(t, IsAssignable(dst, src))

	ve := violationOf(t, func() { Convert(four, src) })
	assert.Equal(t, IncompatibleAssignment, ve.Kind)
	assert.True(t, errors.Is(ve, ErrIncompatible))
	assert.True(t, errors.Is(ve, layout.ErrInvalidExtent))
	assert.Equal(t, 1, src.UseCount(), "failed conversion must not share")

	ve = violationOf(t, func() { dst.Assign(src) })
	assert.Equal(t, IncompatibleAssignment, ve.Kind)

	five := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, 5)
	ok := Convert(five, src)
	defer ok.Release()
	assert.Equal(t, 5, ok.StaticExtent(1))
}

func TestEmptyKeepsLayout(t *testing.T) {
	for _, kind := range []layout.Kind{layout.KindLeft, layout.KindRight, layout.KindStride} {
		t.Run(kind.String(), func(t *testing.T) {
			typ := MustTypeOf[space.Host](kind, layout.Dynamic, 4)
			dst := Empty[float64, space.Host](typ)
			assert.Equal(t, kind, dst.Kind())
			assert.Equal(t, kind, dst.Traits().Layout)
			assert.Equal(t, 4, dst.StaticExtent(1))
		})
	}

	src := New[float64, space.Host]("left", layout.NewLeft(3, 4))
	defer src.Release()
	src.Set(7, 2, 3)
	dst := Empty[float64, space.Host](MustTypeOf[space.Host](layout.KindLeft, layout.Dynamic, 4))
	require.True(t, IsAssignable(dst, src))
	dst.Assign(src)
	defer dst.Release()
	assert.Equal(t, []int{1, 3}, dst.Strides())
	assert.Equal(t, 7.0, dst.At(2, 3))
}

func TestAssignReplacesAllocation(t *testing.T) {
	a := New[float64, space.Host]("a", layout.NewRight(2))
	b := New[float64, space.Host]("b", layout.NewRight(3))
	recA := a.track.Record()
	b.Set(5, 2)

	a.Assign(b)
	assert.True(t, recA.Released())
	assert.Equal(t, "b", a.Label())
	assert.Equal(t, 3, a.Extent(0))
	assert.Equal(t, 5.0, a.At(2))
	assert.Equal(t, 2, b.UseCount())

	a.Release()
	b.Release()
}

func TestStrideToRightNeedsCanonicalStrides(t *testing.T) {
	m := New[float64, space.Host]("m", layout.NewRight(4, 3))
	defer m.Release()
	right2 := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic, layout.Dynamic)

	rows := Subview(m, Range(1, 3), All)
	defer rows.Release()
	assert.Equal(t, layout.KindRight, rows.Kind())

	col := Subview(m, All, Range(0, 2))
	defer col.Release()
	assert.Equal(t, layout.KindStride, col.Kind())
	_, err := TryConvert(right2, col)
	assert.True(t, errors.Is(err, ErrIncompatible))

	whole := Convert(MustTypeOf[space.Host](layout.KindStride, layout.Dynamic, layout.Dynamic), m)
	defer whole.Release()
	back, err := TryConvert(right2, whole)
	require.NoError(t, err)
	defer back.Release()
	assert.Equal(t, layout.KindRight, back.Kind())
}

func TestUnmanagedConversion(t *testing.T) {
	src := New[float64, space.Host]("managed", layout.NewRight(4))
	defer src.Release()

	um := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic)
	um.Unmanaged = true
	u := Convert(um, src)
	assert.Equal(t, 1, src.UseCount())
	assert.Zero(t, u.UseCount())
	assert.Equal(t, "managed", u.Label())
	u.Set(3, 1)
	assert.Equal(t, 3.0, src.At(1))
	u.Release()
	assert.Equal(t, 1, src.UseCount())
}
