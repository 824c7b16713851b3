package view

import (
	"fmt"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
)

// assignable is the run-time tier: the structural check of the two types,
// then the concrete extents of src against the static extents of dst and
// the strides of src against the layout of dst
func assignable(dst Traits, src layout.Map, srcTraits Traits) (layout.Map, error) {
	if err := assignableTypes(dst, srcTraits); err != nil {
		return layout.Map{}, err
	}
	if err := dst.Shape.Admits(src.Extents()); err != nil {
		return layout.Map{}, fmt.Errorf("%v from extents %v: %w", dst, src.Extents(), err)
	}
	m, ok := src.WithKind(dst.Layout)
	if !ok {
		return layout.Map{}, fmt.Errorf("%v from strides %v: not a %v mapping", dst, src.Strides(), dst.Layout)
	}
	return m, nil
}

// IsAssignable reports whether src can populate dst: the types must be
// structurally assignable and every static extent of dst must equal the
// corresponding extent of src
func IsAssignable[T Scalar, S space.Space](dst, src *View[T, S]) bool {
	_, err := assignable(dst.traits, src.m, src.traits)
	return err == nil
}

// Convert constructs a view of type dst from src, sharing src's
// allocation. Incompatible types or extents are fatal.
func Convert[T Scalar, S space.Space](dst Traits, src *View[T, S]) *View[T, S] {
	v, err := TryConvert(dst, src)
	if err != nil {
		fail(err.(*ViolationError))
	}
	return v
}

// TryConvert is Convert returning the violation as an error
func TryConvert[T Scalar, S space.Space](dst Traits, src *View[T, S]) (*View[T, S], error) {
	dst.Space = space.KindOf[S]()
	m, err := assignable(dst, src.m, src.traits)
	if err != nil {
		ve := violation(IncompatibleAssignment, src.Label(), nil, src.Extents(), "")
		ve.Cause = err
		return nil, ve
	}
	v := &View[T, S]{
		m:      m,
		data:   src.data,
		buf:    src.buf,
		origin: src.origin,
		traits: dst,
		label:  src.Label(),
	}
	if !dst.Unmanaged {
		v.track = src.track.Share()
	}
	return v, nil
}

// Assign replaces v's allocation and mapping with src's while v keeps its
// type. Incompatible sources are fatal.
func (v *View[T, S]) Assign(src *View[T, S]) {
	if err := v.TryAssign(src); err != nil {
		fail(err.(*ViolationError))
	}
}

// TryAssign is Assign returning the violation as an error
func (v *View[T, S]) TryAssign(src *View[T, S]) error {
	m, err := assignable(v.traits, src.m, src.traits)
	if err != nil {
		ve := violation(IncompatibleAssignment, v.Label(), nil, src.Extents(), "from %q", src.Label())
		ve.Cause = err
		return ve
	}
	if v.traits.Unmanaged {
		v.track.Release()
	} else {
		v.track.Assign(src.track)
	}
	v.m = m
	v.data = src.data
	v.buf = src.buf
	v.origin = src.origin
	v.label = src.Label()
	return nil
}

// Empty returns an unallocated view of type t, to be populated by Assign
func Empty[T Scalar, S space.Space](t Traits) *View[T, S] {
	t.Space = space.KindOf[S]()
	dims := make([]int, t.Rank())
	for i := range dims {
		if n := t.Shape.StaticExtent(i); n != layout.Dynamic {
			dims[i] = n
		}
	}
	// a strided type has no extents-only layout; start from right-major strides
	kind := t.Layout
	if !kind.IsExtentConstructible() {
		kind = layout.KindRight
	}
	l, err := layout.FromExtents(kind, dims...)
	if err != nil {
		panic(err)
	}
	m, ok := layout.MustMap(l).WithKind(t.Layout)
	if !ok {
		panic(fmt.Sprintf("Empty: %v map cannot be relabelled %v", kind, t.Layout))
	}
	return &View[T, S]{m: m, traits: t}
}
