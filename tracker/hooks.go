package tracker

import (
	"sync/atomic"

	"github.com/notargets/DGView/space"
	"go.uber.org/zap"
)

// Event is passed to instrumentation hooks
type Event struct {
	Label    string
	Space    space.Kind
	Bytes    int
	UseCount int
}

// Hooks observe allocation and deallocation. They must not retain or
// release trackers.
type Hooks interface {
	OnAcquire(Event)
	OnRelease(Event)
}

type nopHooks struct{}

func (nopHooks) OnAcquire(Event) {}
func (nopHooks) OnRelease(Event) {}

type hookHolder struct{ h Hooks }

var hooks atomic.Pointer[hookHolder]

// SetHooks installs h for all later allocations and returns the previous
// hooks. nil restores the no-op hooks.
func SetHooks(h Hooks) Hooks {
	if h == nil {
		h = nopHooks{}
	}
	prev := hooks.Swap(&hookHolder{h: h})
	if prev == nil {
		return nopHooks{}
	}
	return prev.h
}

func currentHooks() Hooks {
	if p := hooks.Load(); p != nil {
		return p.h
	}
	return nopHooks{}
}

// LogHooks writes one structured log line per event
type LogHooks struct {
	Logger *zap.Logger
}

func (l LogHooks) OnAcquire(e Event) {
	l.Logger.Info("acquire",
		zap.String("label", e.Label),
		zap.Stringer("space", e.Space),
		zap.Int("bytes", e.Bytes),
		zap.Int("use_count", e.UseCount))
}

func (l LogHooks) OnRelease(e Event) {
	l.Logger.Info("release",
		zap.String("label", e.Label),
		zap.Stringer("space", e.Space),
		zap.Int("bytes", e.Bytes),
		zap.Int("use_count", e.UseCount))
}

// Counters tallies allocations for profiling
type Counters struct {
	Acquired  atomic.Int64
	Released  atomic.Int64
	LiveBytes atomic.Int64
	PeakBytes atomic.Int64
}

func (c *Counters) OnAcquire(e Event) {
	c.Acquired.Add(1)
	live := c.LiveBytes.Add(int64(e.Bytes))
	for {
		peak := c.PeakBytes.Load()
		if live <= peak || c.PeakBytes.CompareAndSwap(peak, live) {
			return
		}
	}
}

func (c *Counters) OnRelease(e Event) {
	c.Released.Add(1)
	c.LiveBytes.Add(-int64(e.Bytes))
}

// Fanout forwards events to several hooks in order
type Fanout []Hooks

func (f Fanout) OnAcquire(e Event) {
	for _, h := range f {
		h.OnAcquire(e)
	}
}

func (f Fanout) OnRelease(e Event) {
	for _, h := range f {
		h.OnRelease(e)
	}
}
