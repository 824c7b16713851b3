package tracker

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/notargets/DGView/space"
	"go.uber.org/zap"
)

// ErrOutOfMemory is returned, wrapped, when a space cannot satisfy a request
var ErrOutOfMemory = space.ErrOutOfMemory

// AllocError describes a failed allocation
type AllocError struct {
	Label string
	Space space.Kind
	Bytes int
	Err   error
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("allocation of %d bytes for %q in %v failed: %v", e.Bytes, e.Label, e.Space, e.Err)
}

func (e *AllocError) Unwrap() error { return e.Err }

// Record is one allocation shared by every view that references it. The
// buffer is freed when the last reference is released.
type Record struct {
	label   string
	kind    space.Kind
	buf     space.Buffer
	bytes   int
	count   atomic.Int64
	freed   atomic.Bool
	cleanup func()
}

func (r *Record) Label() string        { return r.label }
func (r *Record) Space() space.Kind    { return r.kind }
func (r *Record) Bytes() int           { return r.bytes }
func (r *Record) Buffer() space.Buffer { return r.buf }
func (r *Record) UseCount() int        { return int(r.count.Load()) }

// Released reports whether the buffer has been freed
func (r *Record) Released() bool { return r.freed.Load() }

func (r *Record) event() Event {
	return Event{Label: r.label, Space: r.kind, Bytes: r.bytes, UseCount: int(r.count.Load())}
}

func (r *Record) increment() {
	if r.count.Add(1) <= 1 {
		panic(fmt.Sprintf("tracker: share of released allocation %q", r.label))
	}
}

func (r *Record) decrement() {
	n := r.count.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		panic(fmt.Sprintf("tracker: allocation %q released more often than shared", r.label))
	}
	if !r.freed.CompareAndSwap(false, true) {
		return
	}
	r.buf.Free()
	if r.cleanup != nil {
		r.cleanup()
	}
	Logger().Debug("deallocate",
		zap.String("label", r.label),
		zap.Stringer("space", r.kind),
		zap.Int("bytes", r.bytes))
	currentHooks().OnRelease(r.event())
}

// Request describes one tracked allocation
type Request struct {
	Label     string
	Space     space.Space
	Bytes     int
	Alignment space.Alignment
	Arena     *space.Arena
	// Cleanup runs once, after the buffer is freed
	Cleanup func()
}

// Acquire allocates a buffer in the requested space and returns a tracker
// holding the only reference to it
func Acquire(req Request) (Tracker, error) {
	if req.Space == nil {
		return Tracker{}, &AllocError{Label: req.Label, Bytes: req.Bytes, Err: errors.New("no memory space")}
	}
	buf, err := req.Space.Allocate(space.Request{
		Label:     req.Label,
		Bytes:     req.Bytes,
		Alignment: req.Alignment,
		Arena:     req.Arena,
	})
	if err != nil {
		Logger().Error("allocation failed",
			zap.String("label", req.Label),
			zap.Stringer("space", req.Space.Kind()),
			zap.Int("bytes", req.Bytes),
			zap.Error(err))
		return Tracker{}, &AllocError{Label: req.Label, Space: req.Space.Kind(), Bytes: req.Bytes, Err: err}
	}
	return adopt(req.Label, req.Space.Kind(), buf, req.Cleanup), nil
}

// MustAcquire is Acquire that panics with an *AllocError on failure
func MustAcquire(req Request) Tracker {
	t, err := Acquire(req)
	if err != nil {
		panic(err)
	}
	return t
}

// Adopt starts tracking a buffer allocated elsewhere. The buffer is freed
// with the last reference.
func Adopt(label string, kind space.Kind, buf space.Buffer) Tracker {
	return adopt(label, kind, buf, nil)
}

func adopt(label string, kind space.Kind, buf space.Buffer, cleanup func()) Tracker {
	r := &Record{label: label, kind: kind, buf: buf, bytes: buf.Len(), cleanup: cleanup}
	r.count.Store(1)
	Logger().Debug("allocate",
		zap.String("label", label),
		zap.Stringer("space", kind),
		zap.Int("bytes", r.bytes))
	currentHooks().OnAcquire(r.event())
	return Tracker{rec: r}
}
