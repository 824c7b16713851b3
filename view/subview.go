package view

import (
	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
)

type selectorKind int

const (
	selectIndex selectorKind = iota + 1
	selectRange
	selectAll
)

// Selector picks part of one axis for Subview
type Selector struct {
	kind       selectorKind
	begin, end int
}

// Index collapses an axis to one position
func Index(i int) Selector { return Selector{kind: selectIndex, begin: i, end: i + 1} }

// Range keeps the half-open interval [begin, end) of an axis
func Range(begin, end int) Selector { return Selector{kind: selectRange, begin: begin, end: end} }

// All keeps an entire axis and, where the ordering allows, its static extent
var All = Selector{kind: selectAll}

// Subview derives a view over part of src's index space, sharing its
// allocation. It takes one selector per axis; a wrong selector count or a
// selection outside the extents is fatal.
func Subview[T Scalar, S space.Space](src *View[T, S], sel ...Selector) *View[T, S] {
	v, err := TrySubview(src, sel...)
	if err != nil {
		fail(err.(*ViolationError))
	}
	return v
}

// TrySubview is Subview returning the violation as an error
func TrySubview[T Scalar, S space.Space](src *View[T, S], sel ...Selector) (*View[T, S], error) {
	rank := src.m.Rank()
	if len(sel) != rank {
		return nil, violation(RankMismatch, src.Label(), nil, src.Extents(),
			"subview takes %d selectors for rank %d, got %d", rank, rank, len(sel))
	}
	var (
		dims    = make([]int, 0, rank)
		strides = make([]int, 0, rank)
		static  = make([]int, 0, rank)
		offset  int
	)
	for axis, s := range sel {
		ext := src.m.Extent(axis)
		begin, end := s.begin, s.end
		if s.kind == selectAll {
			begin, end = 0, ext
		}
		switch s.kind {
		case selectIndex:
			if begin < 0 || begin >= ext {
				return nil, violation(BoundsViolation, src.Label(), []int{begin}, src.Extents(),
					"subview index on axis %d", axis)
			}
		case selectRange, selectAll:
			if begin < 0 || end < begin || end > ext {
				return nil, violation(BoundsViolation, src.Label(), []int{begin, end}, src.Extents(),
					"subview range on axis %d", axis)
			}
		default:
			return nil, violation(ConfigurationError, src.Label(), nil, src.Extents(),
				"zero Selector on axis %d", axis)
		}
		offset += begin * src.m.Stride(axis)
		if s.kind == selectIndex {
			continue
		}
		dims = append(dims, end-begin)
		strides = append(strides, src.m.Stride(axis))
		if s.kind == selectAll && src.traits.Shape.IsStatic(axis) {
			static = append(static, ext)
		} else {
			static = append(static, layout.Dynamic)
		}
	}
	// dynamic axes must lead, so a static axis before a dynamic one turns dynamic
	seenDynamic := false
	for i := len(static) - 1; i >= 0; i-- {
		if static[i] == layout.Dynamic {
			seenDynamic = true
		} else if seenDynamic {
			static[i] = layout.Dynamic
		}
	}

	m, err := layout.Derive(src.m.Kind(), dims, strides)
	if err != nil {
		ve := violation(ConfigurationError, src.Label(), nil, src.Extents(), "subview")
		ve.Cause = err
		return nil, ve
	}
	traits := src.traits
	traits.Shape = layout.MustShape(static...)
	traits.Layout = m.Kind()

	v := &View[T, S]{
		m:      m,
		buf:    src.buf,
		origin: src.origin + offset,
		traits: traits,
		label:  src.Label(),
	}
	if src.data != nil {
		if offset > len(src.data) {
			offset = len(src.data)
		}
		v.data = src.data[offset:]
		if len(v.data) > m.Span() {
			v.data = v.data[:m.Span():m.Span()]
		}
	}
	if !traits.Unmanaged {
		v.track = src.track.Share()
	}
	return v, nil
}
