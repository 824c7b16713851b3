package view

import "github.com/notargets/DGView/space"

// check verifies liveness, memory space, index count and bounds of idx
func (v *View[T, S]) check(idx []int) *ViolationError {
	if !v.track.Live() {
		return violation(DanglingReference, v.Label(), idx, v.Extents(), "")
	}
	if v.data == nil {
		if !space.HostAccessible[S]() {
			return violation(SpaceViolation, v.Label(), idx, v.Extents(),
				"host code cannot dereference %v", space.KindOf[S]())
		}
		return violation(DanglingReference, v.Label(), idx, v.Extents(), "view holds no memory")
	}
	if len(idx) != v.m.Rank() {
		return violation(RankMismatch, v.Label(), idx, v.Extents(),
			"%d indices for rank %d", len(idx), v.m.Rank())
	}
	if !v.m.InBounds(idx) {
		return violation(BoundsViolation, v.Label(), idx, v.Extents(), "")
	}
	return nil
}

func (v *View[T, S]) verify(idx ...int) {
	if ve := v.check(idx); ve != nil {
		fail(ve)
	}
}

func (v *View[T, S]) writable() {
	if v.traits.ReadOnly {
		fail(violation(ReadOnlyViolation, v.Label(), nil, v.Extents(), ""))
	}
}

func (v *View[T, S]) load(off int) T {
	if v.traits.Atomic {
		return atomicLoad(&v.data[off])
	}
	return v.data[off]
}

func (v *View[T, S]) store(off int, val T) {
	if v.traits.Atomic {
		atomicStore(&v.data[off], val)
		return
	}
	v.data[off] = val
}

// At returns the element at idx, one index per axis
func (v *View[T, S]) At(idx ...int) T {
	if Checked {
		v.verify(idx...)
	}
	return v.load(v.m.Offset(idx))
}

func (v *View[T, S]) At1(i0 int) T {
	if Checked {
		v.verify(i0)
	}
	return v.load(v.m.Offset1(i0))
}

func (v *View[T, S]) At2(i0, i1 int) T {
	if Checked {
		v.verify(i0, i1)
	}
	return v.load(v.m.Offset2(i0, i1))
}

func (v *View[T, S]) At3(i0, i1, i2 int) T {
	if Checked {
		v.verify(i0, i1, i2)
	}
	return v.load(v.m.Offset3(i0, i1, i2))
}

// Set stores val at idx
func (v *View[T, S]) Set(val T, idx ...int) {
	v.writable()
	if Checked {
		v.verify(idx...)
	}
	v.store(v.m.Offset(idx), val)
}

func (v *View[T, S]) Set1(val T, i0 int) {
	v.writable()
	if Checked {
		v.verify(i0)
	}
	v.store(v.m.Offset1(i0), val)
}

func (v *View[T, S]) Set2(val T, i0, i1 int) {
	v.writable()
	if Checked {
		v.verify(i0, i1)
	}
	v.store(v.m.Offset2(i0, i1), val)
}

func (v *View[T, S]) Set3(val T, i0, i1, i2 int) {
	v.writable()
	if Checked {
		v.verify(i0, i1, i2)
	}
	v.store(v.m.Offset3(i0, i1, i2), val)
}

// Ref returns a pointer to the element at idx
func (v *View[T, S]) Ref(idx ...int) *T {
	v.writable()
	if Checked {
		v.verify(idx...)
	}
	return &v.data[v.m.Offset(idx)]
}

// Add adds delta to the element at idx and returns the result. Views with
// the Atomic trait update the element atomically.
func (v *View[T, S]) Add(delta T, idx ...int) T {
	v.writable()
	if Checked {
		v.verify(idx...)
	}
	p := &v.data[v.m.Offset(idx)]
	if v.traits.Atomic {
		return atomicAdd(p, delta)
	}
	*p += delta
	return *p
}

// TryAt is At with every check performed and returned as an error,
// regardless of the build's checking mode
func (v *View[T, S]) TryAt(idx ...int) (T, error) {
	if ve := v.check(idx); ve != nil {
		var zero T
		return zero, ve
	}
	return v.load(v.m.Offset(idx)), nil
}

// TrySet is Set with every check performed and returned as an error
func (v *View[T, S]) TrySet(val T, idx ...int) error {
	if v.traits.ReadOnly {
		return violation(ReadOnlyViolation, v.Label(), idx, v.Extents(), "")
	}
	if ve := v.check(idx); ve != nil {
		return ve
	}
	v.store(v.m.Offset(idx), val)
	return nil
}
