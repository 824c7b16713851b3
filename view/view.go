package view

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/tracker"
)

// View is a multidimensional array of T residing in memory space S. It
// composes an offset map with a reference to its allocation; views made by
// Copy, Subview, Convert and Assign share the allocation, which is freed
// when the last of them is released.
type View[T Scalar, S space.Space] struct {
	track  tracker.Tracker
	m      layout.Map
	data   []T          // host window starting at the zero index, nil when S is not host addressable
	buf    space.Buffer // backing buffer, nil when wrapping a host slice
	origin int          // element offset of the zero index inside buf
	traits Traits
	label  string
}

// Config holds the allocation properties of a new view
type Config struct {
	Label  string
	Layout layout.Layout
	// Shape fixes static extents; the zero value makes every axis dynamic
	Shape layout.Shape

	ReadOnly     bool
	Atomic       bool
	Restrict     bool
	RandomAccess bool

	// WithoutInitializing skips zero filling device memory
	WithoutInitializing bool
	Alignment           space.Alignment
	// Arena serves Scratch space views; nil uses space.DefaultArena
	Arena *space.Arena
}

func (cfg Config) traits(kind space.Kind) (Traits, error) {
	shape := cfg.Shape
	if shape.Rank() == 0 && cfg.Layout.Rank != 0 {
		shape = layout.DynamicShape(cfg.Layout.Rank)
	}
	if err := shape.Admits(cfg.Layout.Extents()); err != nil {
		return Traits{}, err
	}
	return Traits{
		Shape:        shape,
		Layout:       cfg.Layout.Kind,
		Space:        kind,
		ReadOnly:     cfg.ReadOnly,
		Atomic:       cfg.Atomic,
		Restrict:     cfg.Restrict,
		RandomAccess: cfg.RandomAccess,
	}, nil
}

// New allocates a zero-initialized view labelled label over layout l.
// Allocation failure is fatal.
func New[T Scalar, S space.Space](label string, l layout.Layout) *View[T, S] {
	return NewConfig[T, S](Config{Label: label, Layout: l})
}

// NewConfig allocates a view as described by cfg. Invalid configurations
// and allocation failure are fatal.
func NewConfig[T Scalar, S space.Space](cfg Config) *View[T, S] {
	v, err := TryNew[T, S](cfg)
	if err != nil {
		var ve *ViolationError
		if !errors.As(err, &ve) {
			ve = violation(ConfigurationError, cfg.Label, nil, nil, "")
			ve.Cause = err
		}
		fail(ve)
	}
	return v
}

// TryNew allocates a view as described by cfg and returns violations as
// errors instead of failing
func TryNew[T Scalar, S space.Space](cfg Config) (*View[T, S], error) {
	kind := space.KindOf[S]()
	m, err := layout.NewMap(cfg.Layout)
	if err != nil {
		ve := violation(ConfigurationError, cfg.Label, nil, cfg.Layout.Extents(), "layout %v", cfg.Layout)
		ve.Cause = err
		return nil, ve
	}
	traits, err := cfg.traits(kind)
	if err != nil {
		vk := RankMismatch
		if errors.Is(err, layout.ErrInvalidExtent) {
			vk = ConfigurationError
		}
		ve := violation(vk, cfg.Label, nil, cfg.Layout.Extents(), "shape %v", cfg.Shape)
		ve.Cause = err
		return nil, ve
	}
	bytes, ok := layout.CheckedMul(m.Span(), sizeOf[T]())
	if !ok {
		return nil, violation(OutOfMemory, cfg.Label, nil, m.Extents(),
			"span of %d elements overflows the byte count", m.Span())
	}
	var s S
	track, err := tracker.Acquire(tracker.Request{
		Label:     cfg.Label,
		Space:     s,
		Bytes:     bytes,
		Alignment: cfg.Alignment,
		Arena:     cfg.Arena,
	})
	if err != nil {
		vk := OutOfMemory
		if errors.Is(err, space.ErrInvalidRequest) {
			vk = ConfigurationError
		}
		ve := violation(vk, cfg.Label, nil, m.Extents(), "")
		ve.Cause = err
		return nil, ve
	}
	v := &View[T, S]{
		track:  track,
		m:      m,
		buf:    track.Record().Buffer(),
		traits: traits,
		label:  cfg.Label,
	}
	v.data = hostWindow[T](v.buf, 0, m.Span())
	if v.data == nil && !cfg.WithoutInitializing && m.Span() > 0 {
		if err := zeroDevice[T](v.buf, m.Span()); err != nil {
			v.track.Release()
			ve := violation(ConfigurationError, cfg.Label, nil, m.Extents(), "initialize")
			ve.Cause = err
			return nil, ve
		}
	}
	return v, nil
}

// Alloc allocates a view of an extent-constructible layout kind from a
// shape and its run-time extents. Supplying a different number of dynamic
// extents than the shape's dynamic rank is fatal.
func Alloc[T Scalar, S space.Space](label string, kind layout.Kind, shape layout.Shape, dynamic ...int) *View[T, S] {
	if !kind.IsExtentConstructible() {
		fail(violation(ConfigurationError, label, nil, nil,
			"%v is not constructible from extents, supply a layout", kind))
	}
	extents, err := shape.Merge(dynamic...)
	if err != nil {
		ve := violation(RankMismatch, label, nil, dynamic, "shape %v", shape)
		ve.Cause = err
		fail(ve)
	}
	l, err := layout.FromExtents(kind, extents...)
	if err != nil {
		ve := violation(ConfigurationError, label, nil, extents, "")
		ve.Cause = err
		fail(ve)
	}
	return NewConfig[T, S](Config{Label: label, Layout: l, Shape: shape})
}

// Wrap makes an unmanaged view over existing host memory. The caller keeps
// ownership of data, which must hold the layout's span.
func Wrap[T Scalar, S space.Space](data []T, l layout.Layout) *View[T, S] {
	v, err := TryWrap[T, S](data, l)
	if err != nil {
		fail(err.(*ViolationError))
	}
	return v
}

// TryWrap is Wrap returning violations as errors
func TryWrap[T Scalar, S space.Space](data []T, l layout.Layout) (*View[T, S], error) {
	const label = "UNMANAGED"
	if !space.HostAccessible[S]() {
		return nil, violation(SpaceViolation, label, nil, l.Extents(),
			"host slice cannot back a %v view", space.KindOf[S]())
	}
	m, err := layout.NewMap(l)
	if err != nil {
		ve := violation(ConfigurationError, label, nil, l.Extents(), "layout %v", l)
		ve.Cause = err
		return nil, ve
	}
	if len(data) < m.Span() {
		return nil, violation(BoundsViolation, label, nil, l.Extents(),
			"buffer of %d elements is shorter than span %d", len(data), m.Span())
	}
	return &View[T, S]{
		m:      m,
		data:   data[:m.Span():m.Span()],
		traits: unmanagedTraits(m, space.KindOf[S]()),
	}, nil
}

// WrapBuffer makes an unmanaged view over a buffer of any space, starting
// origin elements into it
func WrapBuffer[T Scalar, S space.Space](buf space.Buffer, origin int, l layout.Layout) *View[T, S] {
	const label = "UNMANAGED"
	m, err := layout.NewMap(l)
	if err != nil {
		ve := violation(ConfigurationError, label, nil, l.Extents(), "layout %v", l)
		ve.Cause = err
		fail(ve)
	}
	if !fitsBuffer(buf, origin, m.Span(), sizeOf[T]()) {
		fail(violation(BoundsViolation, label, nil, l.Extents(),
			"origin %d + span %d exceeds %d byte buffer", origin, m.Span(), buf.Len()))
	}
	return &View[T, S]{
		m:      m,
		buf:    buf,
		origin: origin,
		data:   hostWindow[T](buf, origin, m.Span()),
		traits: unmanagedTraits(m, space.KindOf[S]()),
	}
}

// fitsBuffer reports whether elements [origin, origin+span) of the given
// size lie inside buf
func fitsBuffer(buf space.Buffer, origin, span, size int) bool {
	if origin < 0 {
		return false
	}
	end, ok := layout.CheckedAdd(origin, span)
	if !ok {
		return false
	}
	bytes, ok := layout.CheckedMul(end, size)
	return ok && bytes <= buf.Len()
}

func unmanagedTraits(m layout.Map, kind space.Kind) Traits {
	return Traits{
		Shape:     layout.DynamicShape(m.Rank()),
		Layout:    m.Kind(),
		Space:     kind,
		Unmanaged: true,
	}
}

func hostWindow[T Scalar](buf space.Buffer, origin, span int) []T {
	p := buf.HostPointer()
	if p == nil {
		return nil
	}
	base := unsafe.Add(p, origin*sizeOf[T]())
	return unsafe.Slice((*T)(base), span)
}

func zeroDevice[T Scalar](buf space.Buffer, span int) error {
	db, ok := buf.(*space.DeviceBuffer)
	if !ok {
		return fmt.Errorf("buffer %T is neither host addressable nor device memory", buf)
	}
	zeros := make([]T, span)
	return db.Write(unsafe.Pointer(&zeros[0]), span*sizeOf[T]())
}

// Copy returns a second view of the same type sharing v's allocation
func (v *View[T, S]) Copy() *View[T, S] {
	c := *v
	c.track = v.track.Share()
	return &c
}

// Release drops v's reference to its allocation and leaves v empty
func (v *View[T, S]) Release() {
	v.track.Release()
	v.data = nil
	v.buf = nil
	v.origin = 0
}

// AssignData rebinds v to unmanaged host memory, keeping its extents
func (v *View[T, S]) AssignData(data []T) {
	if !space.HostAccessible[S]() {
		fail(violation(SpaceViolation, v.Label(), nil, v.Extents(), "assign host data"))
	}
	if len(data) < v.m.Span() {
		fail(violation(BoundsViolation, v.Label(), nil, v.Extents(),
			"buffer of %d elements is shorter than span %d", len(data), v.m.Span()))
	}
	v.track.Release()
	v.data = data[:v.m.Span():v.m.Span()]
	v.buf = nil
	v.origin = 0
	v.label = ""
}

// Label is the allocation's label. Unmanaged views report "UNMANAGED";
// views derived from an allocation report its label.
func (v *View[T, S]) Label() string {
	if l := v.track.Label(); l != "" {
		return l
	}
	if v.label != "" {
		return v.label
	}
	return "UNMANAGED"
}

func (v *View[T, S]) Rank() int           { return v.m.Rank() }
func (v *View[T, S]) RankDynamic() int    { return v.traits.RankDynamic() }
func (v *View[T, S]) Extent(axis int) int { return v.m.Extent(axis) }
func (v *View[T, S]) Stride(axis int) int { return v.m.Stride(axis) }
func (v *View[T, S]) Extents() []int      { return v.m.Extents() }
func (v *View[T, S]) Strides() []int      { return v.m.Strides() }
func (v *View[T, S]) Span() int           { return v.m.Span() }
func (v *View[T, S]) Size() int           { return v.m.Size() }
func (v *View[T, S]) Traits() Traits      { return v.traits }
func (v *View[T, S]) Kind() layout.Kind   { return v.m.Kind() }
func (v *View[T, S]) Layout() layout.Layout {
	return v.m.Layout()
}

// StaticExtent is the extent fixed by the view's type, or layout.Dynamic
func (v *View[T, S]) StaticExtent(axis int) int {
	return v.traits.Shape.StaticExtent(axis)
}

// SpanIsContiguous reports whether the span holds no gaps
func (v *View[T, S]) SpanIsContiguous() bool { return v.m.Contiguous() }

// UseCount is the number of views sharing the allocation, 0 if unmanaged
func (v *View[T, S]) UseCount() int { return v.track.UseCount() }

// IsAllocated reports whether v references live memory
func (v *View[T, S]) IsAllocated() bool {
	return (v.data != nil || v.buf != nil) && v.track.Live()
}

// Data is the host-addressable window of the span, nil for device views
func (v *View[T, S]) Data() []T { return v.data }

// Buffer is the backing buffer, nil when wrapping a host slice
func (v *View[T, S]) Buffer() space.Buffer { return v.buf }

// Origin is the element offset of the zero index inside Buffer
func (v *View[T, S]) Origin() int { return v.origin }

func (v *View[T, S]) String() string {
	return fmt.Sprintf("%s%v%v", v.Label(), v.traits, v.m.Extents())
}
