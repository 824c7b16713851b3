package view

import (
	"fmt"
	"unsafe"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
)

// CreateMirror allocates a view in space D with the logical shape of src.
// Strided sources get a contiguous right-major mirror. Data is not copied.
func CreateMirror[T Scalar, D, S space.Space](src *View[T, S]) *View[T, D] {
	kind := src.m.Kind()
	if kind == layout.KindStride {
		kind = layout.KindRight
	}
	l, err := layout.FromExtents(kind, src.Extents()...)
	if err != nil {
		panic(err)
	}
	shape := src.traits.Shape
	if src.traits.Unmanaged {
		shape = layout.DynamicShape(src.Rank())
	}
	return NewConfig[T, D](Config{
		Label:  src.Label(),
		Layout: l,
		Shape:  shape,
	})
}

// CreateMirrorView returns src itself, shared, when it already lives in D
// and a new mirror otherwise
func CreateMirrorView[T Scalar, D, S space.Space](src *View[T, S]) *View[T, D] {
	if same, ok := any(src).(*View[T, D]); ok {
		return same.Copy()
	}
	return CreateMirror[T, D](src)
}

// window exposes the elements of a view to host code. Device views are
// staged through a host copy of their allocation up to the end of the
// span; commit writes such a copy back.
type window[T Scalar] struct {
	data   []T
	staged []T
	dev    *space.DeviceBuffer
}

func openWindow[T Scalar, S space.Space](v *View[T, S], load bool) (window[T], error) {
	if !v.track.Live() {
		return window[T]{}, violation(DanglingReference, v.Label(), nil, v.Extents(), "")
	}
	if v.data != nil || v.m.Span() == 0 {
		return window[T]{data: v.data}, nil
	}
	dev, ok := v.buf.(*space.DeviceBuffer)
	if !ok {
		return window[T]{}, fmt.Errorf("view %q has no host or device memory", v.Label())
	}
	staged := make([]T, v.origin+v.m.Span())
	if load {
		if err := dev.Read(unsafe.Pointer(&staged[0]), len(staged)*sizeOf[T]()); err != nil {
			return window[T]{}, fmt.Errorf("stage %q from device: %w", v.Label(), err)
		}
	}
	return window[T]{data: staged[v.origin:], staged: staged, dev: dev}, nil
}

func (w window[T]) commit() error {
	if w.dev == nil {
		return nil
	}
	return w.dev.Write(unsafe.Pointer(&w.staged[0]), len(w.staged)*sizeOf[T]())
}

// DeepCopy copies every element of src into dst. The views must have equal
// extents; they may differ in layout and memory space.
func DeepCopy[T Scalar, D, S space.Space](dst *View[T, D], src *View[T, S]) error {
	if !dst.m.SameShape(&src.m) {
		return violation(IncompatibleAssignment, dst.Label(), nil, dst.Extents(),
			"deep copy from %q with extents %v", src.Label(), src.Extents())
	}
	if dst.traits.ReadOnly {
		return violation(ReadOnlyViolation, dst.Label(), nil, dst.Extents(), "deep copy")
	}
	if dst.m.Size() == 0 {
		return nil
	}
	sw, err := openWindow(src, true)
	if err != nil {
		return err
	}
	// a gapless destination at the start of its allocation is overwritten
	// entirely and need not be loaded
	dw, err := openWindow(dst, !dst.m.Contiguous() || dst.origin != 0)
	if err != nil {
		return err
	}
	if dst.m.Kind() == src.m.Kind() && dst.m.Contiguous() && src.m.Contiguous() &&
		dst.m.Kind() != layout.KindStride {
		copy(dw.data[:dst.m.Span()], sw.data[:src.m.Span()])
	} else {
		forEachIndex(dst.m.Extents(), func(idx []int) {
			dw.data[dst.m.Offset(idx)] = sw.data[src.m.Offset(idx)]
		})
	}
	return dw.commit()
}

// Fill sets every element of v to val
func Fill[T Scalar, S space.Space](v *View[T, S], val T) error {
	if v.traits.ReadOnly {
		return violation(ReadOnlyViolation, v.Label(), nil, v.Extents(), "fill")
	}
	if v.m.Size() == 0 {
		return nil
	}
	w, err := openWindow(v, !v.m.Contiguous() || v.origin != 0)
	if err != nil {
		return err
	}
	forEachIndex(v.m.Extents(), func(idx []int) {
		w.data[v.m.Offset(idx)] = val
	})
	return w.commit()
}

// forEachIndex visits every multi-index of extents in right-major order
func forEachIndex(extents []int, fn func(idx []int)) {
	for _, n := range extents {
		if n == 0 {
			return
		}
	}
	idx := make([]int, len(extents))
	for {
		fn(idx)
		k := len(extents) - 1
		for ; k >= 0; k-- {
			idx[k]++
			if idx[k] < extents[k] {
				break
			}
			idx[k] = 0
		}
		if k < 0 {
			return
		}
	}
}
