package tracker

// Tracker is a view's reference to its allocation record. The zero value
// tracks nothing: unmanaged views hold it, and sharing or releasing it
// does nothing.
type Tracker struct {
	rec *Record
}

// Share returns a second reference to the same allocation
func (t Tracker) Share() Tracker {
	if t.rec != nil {
		t.rec.increment()
	}
	return t
}

// Release drops this reference and clears the tracker. The allocation is
// freed when no references remain.
func (t *Tracker) Release() {
	if t.rec == nil {
		return
	}
	r := t.rec
	t.rec = nil
	r.decrement()
}

// Assign makes t reference the same allocation as src, releasing what t
// referenced before
func (t *Tracker) Assign(src Tracker) {
	if t.rec == src.rec {
		return
	}
	next := src.Share()
	t.Release()
	*t = next
}

func (t Tracker) IsManaged() bool { return t.rec != nil }

// Record returns the allocation record, or nil when unmanaged
func (t Tracker) Record() *Record { return t.rec }

// UseCount is the number of live references, 0 when unmanaged
func (t Tracker) UseCount() int {
	if t.rec == nil {
		return 0
	}
	return t.rec.UseCount()
}

// Label is the allocation's label, empty when unmanaged
func (t Tracker) Label() string {
	if t.rec == nil {
		return ""
	}
	return t.rec.label
}

// Live reports whether the referenced buffer is still allocated. Unmanaged
// trackers are always live.
func (t Tracker) Live() bool {
	return t.rec == nil || !t.rec.Released()
}
