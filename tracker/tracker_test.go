package tracker

import (
	"errors"
	"sync"
	"testing"

	"github.com/notargets/DGView/space"
	"github.com/notargets/gocca"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAcquireShareRelease(t *testing.T) {
	cleanups := 0
	t1, err := Acquire(Request{
		Label:   "A",
		Space:   space.Host{},
		Bytes:   96,
		Cleanup: func() { cleanups++ },
	})
	require.NoError(t, err)
	assert.True(t, t1.IsManaged())
	assert.Equal(t, 1, t1.UseCount())
	assert.Equal(t, "A", t1.Label())
	assert.Equal(t, 96, t1.Record().Bytes())
	assert.Equal(t, space.HostKind, t1.Record().Space())

	t2 := t1.Share()
	assert.Equal(t, 2, t1.UseCount())
	assert.Equal(t, 2, t2.UseCount())
	assert.Same(t, t1.Record(), t2.Record())

	rec := t1.Record()
	t1.Release()
	assert.False(t, t1.IsManaged())
	assert.Equal(t, 1, t2.UseCount())
	assert.False(t, rec.Released())
	assert.Zero(t, cleanups)

	t2.Release()
	assert.True(t, rec.Released())
	assert.Equal(t, 1, cleanups)

	// released trackers are empty; releasing again is a no-op
	t2.Release()
	assert.Equal(t, 1, cleanups)
}

func TestUnmanaged(t *testing.T) {
	var tr Tracker
	s := tr.Share()
	assert.False(t, s.IsManaged())
	assert.Zero(t, s.UseCount())
	assert.Empty(t, s.Label())
	assert.True(t, s.Live())
	s.Release()
	tr.Release()
}

func TestAssign(t *testing.T) {
	a := MustAcquire(Request{Label: "a", Space: space.Host{}, Bytes: 8})
	b := MustAcquire(Request{Label: "b", Space: space.Host{}, Bytes: 8})
	recA := a.Record()

	a.Assign(b)
	assert.True(t, recA.Released())
	assert.Equal(t, "b", a.Label())
	assert.Equal(t, 2, b.UseCount())

	a.Assign(b)
	assert.Equal(t, 2, b.UseCount())

	a.Release()
	b.Release()
}

func TestOverRelease(t *testing.T) {
	a := MustAcquire(Request{Label: "x", Space: space.Host{}, Bytes: 8})
	alias, stale := a, a
	a.Release()
	assert.True(t, stale.Record().Released())

	assert.Panics(t, func() { alias.Release() })
	// the panicking Release still cleared alias
	assert.False(t, alias.IsManaged())
	assert.NotPanics(t, func() { alias.Share() })

	assert.Panics(t, func() { stale.Share() })
}

func TestAdoptDeviceMemory(t *testing.T) {
	device, err := gocca.NewDevice(`{"mode": "Serial"}`)
	require.NoError(t, err)
	defer device.Free()

	mem := device.Malloc(64, nil, nil)
	require.NotNil(t, mem)
	buf := space.WrapDeviceMemory(mem, 64)
	assert.Equal(t, 64, buf.Len())
	assert.Same(t, mem, buf.Memory())

	tr := Adopt("adopted", space.DeviceKind, buf)
	assert.Equal(t, 1, tr.UseCount())
	assert.Equal(t, space.DeviceKind, tr.Record().Space())
	assert.Equal(t, 64, tr.Record().Bytes())
	assert.Same(t, buf, tr.Record().Buffer())

	second := tr.Share()
	tr.Release()
	assert.NotNil(t, buf.Memory(), "freed while shared")
	second.Release()
	assert.Nil(t, buf.Memory())
	assert.True(t, second.Live(), "a cleared tracker is unmanaged")
}

func TestOutOfMemory(t *testing.T) {
	space.SetHostLimit(space.HostInUse() + 64)
	defer space.SetHostLimit(0)

	_, err := Acquire(Request{Label: "huge", Space: space.Host{}, Bytes: 1 << 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfMemory))
	var ae *AllocError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "huge", ae.Label)
	assert.Equal(t, space.HostKind, ae.Space)

	assert.PanicsWithError(t, ae.Error(), func() {
		MustAcquire(Request{Label: "huge", Space: space.Host{}, Bytes: 1 << 20})
	})
}

func TestConcurrentShareRelease(t *testing.T) {
	released := 0
	root := MustAcquire(Request{
		Label:   "shared",
		Space:   space.Host{},
		Bytes:   1024,
		Cleanup: func() { released++ },
	})
	rec := root.Record()

	const workers = 16
	const rounds = 1000
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				c := root.Share()
				c.Release()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, root.UseCount())
	assert.False(t, rec.Released())
	root.Release()
	assert.True(t, rec.Released())
	assert.Equal(t, 1, released)
}

func TestHooks(t *testing.T) {
	counters := &Counters{}
	core, logs := observer.New(zapcore.InfoLevel)
	prev := SetHooks(Fanout{counters, LogHooks{Logger: zap.New(core)}})
	defer SetHooks(prev)

	a := MustAcquire(Request{Label: "h1", Space: space.Host{}, Bytes: 100})
	b := MustAcquire(Request{Label: "h2", Space: space.Host{}, Bytes: 50})
	c := a.Share()
	assert.Equal(t, int64(2), counters.Acquired.Load())
	assert.Equal(t, int64(150), counters.LiveBytes.Load())

	a.Release()
	assert.Equal(t, int64(0), counters.Released.Load())
	c.Release()
	b.Release()
	assert.Equal(t, int64(2), counters.Released.Load())
	assert.Equal(t, int64(0), counters.LiveBytes.Load())
	assert.Equal(t, int64(150), counters.PeakBytes.Load())

	entries := logs.FilterMessage("acquire").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "h1", entries[0].ContextMap()["label"])
	assert.Len(t, logs.FilterMessage("release").All(), 2)
}
