package view

import (
	"fmt"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
)

// Traits is the structural type of a view beyond its element type and
// memory space: rank and static extents, layout kind and access traits.
// Two views with equal element type, space and Traits are the same type.
type Traits struct {
	Shape  layout.Shape
	Layout layout.Kind
	Space  space.Kind

	ReadOnly     bool
	Unmanaged    bool
	Atomic       bool
	Restrict     bool
	RandomAccess bool
}

// TypeOf describes a view type in space S with the given layout kind and
// per-axis static extents (layout.Dynamic for run-time axes)
func TypeOf[S space.Space](kind layout.Kind, axes ...int) (Traits, error) {
	shape, err := layout.NewShape(axes...)
	if err != nil {
		return Traits{}, err
	}
	return Traits{Shape: shape, Layout: kind, Space: space.KindOf[S]()}, nil
}

// MustTypeOf is TypeOf that panics on error
func MustTypeOf[S space.Space](kind layout.Kind, axes ...int) Traits {
	t, err := TypeOf[S](kind, axes...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Traits) Rank() int        { return t.Shape.Rank() }
func (t Traits) RankDynamic() int { return t.Shape.RankDynamic() }

func (t Traits) String() string {
	s := fmt.Sprintf("View<%v %v %v", t.Shape, t.Layout, t.Space)
	for _, f := range []struct {
		on   bool
		name string
	}{
		{t.ReadOnly, "const"},
		{t.Unmanaged, "unmanaged"},
		{t.Atomic, "atomic"},
		{t.Restrict, "restrict"},
		{t.RandomAccess, "random-access"},
	} {
		if f.on {
			s += " " + f.name
		}
	}
	return s + ">"
}

// layoutAssignable reports whether a dst layout kind can be populated from
// a src layout kind of the given rank, and whether that needs a run-time
// stride check
func layoutAssignable(dst, src layout.Kind, rank int) (ok, runtime bool) {
	switch {
	case dst == src:
		return true, false
	case dst == layout.KindStride:
		return true, false
	case rank <= 1 && src != layout.KindStride:
		// Left and Right coincide below rank 2
		return true, false
	case src == layout.KindStride:
		return true, true
	}
	return false, false
}

// assignableTypes is the structural tier shared by AssignableTypes and the
// run-time checks. It returns nil when dst can be populated from src.
func assignableTypes(dst, src Traits) error {
	if dst.Space != src.Space {
		return fmt.Errorf("%v from %v: memory space %v is not %v", dst, src, src.Space, dst.Space)
	}
	if dst.Rank() != src.Rank() {
		return fmt.Errorf("%v from %v: rank %d is not %d", dst, src, src.Rank(), dst.Rank())
	}
	if ok, _ := layoutAssignable(dst.Layout, src.Layout, dst.Rank()); !ok {
		return fmt.Errorf("%v from %v: layout %v cannot become %v", dst, src, src.Layout, dst.Layout)
	}
	if src.ReadOnly && !dst.ReadOnly {
		return fmt.Errorf("%v from %v: drops read-only", dst, src)
	}
	for i := 0; i < dst.Rank(); i++ {
		d, s := dst.Shape.StaticExtent(i), src.Shape.StaticExtent(i)
		if d != layout.Dynamic && s != layout.Dynamic && d != s {
			return fmt.Errorf("%v from %v: static extent %d of axis %d is not %d", dst, src, s, i, d)
		}
	}
	return nil
}

// AssignableTypes reports whether some view of type src can populate a view
// of type dst: equal space and rank, a convertible layout, no dropped
// read-only trait and agreeing static extents. Views failing it can never
// be assigned; views passing it may still need the run-time extent check
// of IsAssignable.
func AssignableTypes(dst, src Traits) bool {
	return assignableTypes(dst, src) == nil
}

// AlwaysAssignable reports whether every view of type src can populate a
// view of type dst with no run-time check
func AlwaysAssignable(dst, src Traits) bool {
	if !AssignableTypes(dst, src) {
		return false
	}
	if _, runtime := layoutAssignable(dst.Layout, src.Layout, dst.Rank()); runtime {
		return false
	}
	return dst.RankDynamic() >= src.RankDynamic()
}
