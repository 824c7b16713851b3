package view

import (
	"unsafe"

	"github.com/notargets/DGView/space"
)

// Equal reports whether two views alias the same elements the same way:
// same memory space, layout kind, rank, data location, span and extents.
// Access traits such as read-only do not take part.
func Equal[T Scalar, A, B space.Space](a *View[T, A], b *View[T, B]) bool {
	if !space.Same[A, B]() {
		return false
	}
	if a.m.Kind() != b.m.Kind() || a.m.Span() != b.m.Span() || !a.m.SameShape(&b.m) {
		return false
	}
	return a.dataPointer() == b.dataPointer() &&
		a.buf == b.buf && (a.buf == nil || a.origin == b.origin)
}

// Equal reports whether v and o are the same view of the same data
func (v *View[T, S]) Equal(o *View[T, S]) bool {
	return Equal(v, o)
}

func (v *View[T, S]) dataPointer() unsafe.Pointer {
	if v.data == nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(v.data))
}
