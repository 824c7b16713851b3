package layout

import (
	"fmt"
	"math"
	"math/bits"
)

// CheckedMul returns a*b for non-negative operands, ok is false when the
// product does not fit in an int
func CheckedMul(a, b int) (int, bool) {
	hi, lo := bits.Mul(uint(a), uint(b))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true
}

// CheckedAdd returns a+b for non-negative operands, ok is false on overflow
func CheckedAdd(a, b int) (int, bool) {
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// strider computes the per-axis strides of one layout kind. ok is false
// when the extents are too large to address.
type strider interface {
	strides(l *Layout) (s [MaxRank]int, ok bool)
}

type leftStrider struct{}

func (leftStrider) strides(l *Layout) (s [MaxRank]int, ok bool) {
	acc := 1
	for i := 0; i < l.Rank; i++ {
		s[i] = acc
		if acc, ok = CheckedMul(acc, l.Dimension[i]); !ok {
			return s, false
		}
	}
	return s, true
}

type rightStrider struct{}

func (rightStrider) strides(l *Layout) (s [MaxRank]int, ok bool) {
	acc := 1
	for i := l.Rank - 1; i >= 0; i-- {
		s[i] = acc
		if acc, ok = CheckedMul(acc, l.Dimension[i]); !ok {
			return s, false
		}
	}
	return s, true
}

type explicitStrider struct{}

func (explicitStrider) strides(l *Layout) (s [MaxRank]int, ok bool) {
	copy(s[:l.Rank], l.Stride[:l.Rank])
	return s, true
}

var striders = map[Kind]strider{
	KindLeft:   leftStrider{},
	KindRight:  rightStrider{},
	KindStride: explicitStrider{},
}

// Map is the offset calculator of one array. The layout kind is consulted
// once, in NewMap, to fill the stride table; indexing is a dot product of
// indices and strides with no per-access dispatch.
type Map struct {
	kind    Kind
	rank    int
	dims    [MaxRank]int
	strides [MaxRank]int
	span    int
	size    int
}

// NewMap builds the offset calculator for a layout
func NewMap(l Layout) (Map, error) {
	if err := l.Validate(); err != nil {
		return Map{}, err
	}
	strides, ok := striders[l.Kind].strides(&l)
	if !ok {
		return Map{}, fmt.Errorf("%v: extents overflow the address range: %w", l, ErrInvalidExtent)
	}
	m := Map{
		kind:    l.Kind,
		rank:    l.Rank,
		dims:    l.Dimension,
		strides: strides,
	}
	for i := l.Rank; i < MaxRank; i++ {
		m.dims[i] = 0
		m.strides[i] = 0
	}
	if err := m.measure(); err != nil {
		return Map{}, err
	}
	return m, nil
}

// MustMap is NewMap that panics on error
func MustMap(l Layout) Map {
	m, err := NewMap(l)
	if err != nil {
		panic(err)
	}
	return m
}

// Derive builds a map over explicit extents and strides, as produced by
// slicing another map. The result keeps kind when the strides are the ones
// kind would compute for these extents, otherwise it is KindStride.
func Derive(kind Kind, dims, strides []int) (Map, error) {
	if len(dims) != len(strides) || len(dims) > MaxRank {
		return Map{}, fmt.Errorf("%d extents, %d strides: %w", len(dims), len(strides), ErrRankMismatch)
	}
	m := Map{kind: KindStride, rank: len(dims)}
	for i := range dims {
		if dims[i] < 0 || strides[i] < 0 {
			return Map{}, fmt.Errorf("axis %d extent %d stride %d: %w", i, dims[i], strides[i], ErrInvalidExtent)
		}
	}
	copy(m.dims[:], dims)
	copy(m.strides[:], strides)
	if err := m.measure(); err != nil {
		return Map{}, err
	}
	if kind != KindStride && m.canonicalFor(kind) {
		m.kind = kind
	}
	return m, nil
}

// measure fills span and size, failing when either overflows an int
func (m *Map) measure() error {
	span, ok := requiredSpan(m.rank, &m.dims, &m.strides)
	if !ok {
		return fmt.Errorf("%v%v/%v: span overflows the address range: %w",
			m.kind, m.dims[:m.rank], m.strides[:m.rank], ErrInvalidExtent)
	}
	// a zero extent empties the array whatever the other extents are
	size := 0
	if span > 0 {
		size = 1
		for i := 0; i < m.rank && ok; i++ {
			size, ok = CheckedMul(size, m.dims[i])
		}
	}
	if !ok {
		return fmt.Errorf("%v%v: element count overflows an int: %w",
			m.kind, m.dims[:m.rank], ErrInvalidExtent)
	}
	m.span, m.size = span, size
	return nil
}

func requiredSpan(rank int, dims, strides *[MaxRank]int) (int, bool) {
	for i := 0; i < rank; i++ {
		if dims[i] == 0 {
			return 0, true
		}
	}
	span := 1
	for i := 0; i < rank; i++ {
		reach, ok := CheckedMul(dims[i]-1, strides[i])
		if !ok {
			return 0, false
		}
		if span, ok = CheckedAdd(span, reach); !ok {
			return 0, false
		}
	}
	return span, true
}

// RequiredSpan returns the number of elements an allocation must hold to
// back every offset the layout can produce
func RequiredSpan(l Layout) (int, error) {
	m, err := NewMap(l)
	if err != nil {
		return 0, err
	}
	return m.span, nil
}

func (m *Map) canonicalFor(kind Kind) bool {
	l := m.Layout()
	want, ok := striders[kind].strides(&l)
	if !ok {
		return false
	}
	for i := 0; i < m.rank; i++ {
		if m.dims[i] > 1 && m.strides[i] != want[i] {
			return false
		}
	}
	return true
}

// WithKind relabels the map as another layout kind. It succeeds when the
// strides already satisfy that kind; any map can become KindStride.
func (m Map) WithKind(kind Kind) (Map, bool) {
	if kind == m.kind {
		return m, true
	}
	if kind != KindStride && !m.canonicalFor(kind) {
		return m, false
	}
	m.kind = kind
	return m, true
}

func (m *Map) Kind() Kind { return m.kind }
func (m *Map) Rank() int  { return m.rank }

// Span is the number of elements between the lowest and highest
// reachable offset, inclusive
func (m *Map) Span() int { return m.span }

// Extent returns the extent of axis, or 1 past the rank
func (m *Map) Extent(axis int) int {
	if axis < 0 || axis >= m.rank {
		return 1
	}
	return m.dims[axis]
}

// Stride returns the stride of axis, or 0 past the rank
func (m *Map) Stride(axis int) int {
	if axis < 0 || axis >= m.rank {
		return 0
	}
	return m.strides[axis]
}

// Extents returns all extents as a new slice
func (m *Map) Extents() []int {
	out := make([]int, m.rank)
	copy(out, m.dims[:m.rank])
	return out
}

// Strides returns all strides as a new slice
func (m *Map) Strides() []int {
	out := make([]int, m.rank)
	copy(out, m.strides[:m.rank])
	return out
}

// Size is the product of the extents
func (m *Map) Size() int { return m.size }

// Contiguous reports whether the span holds no gaps
func (m *Map) Contiguous() bool {
	return m.span == m.Size()
}

// Layout reconstructs a layout describing this map
func (m *Map) Layout() Layout {
	l := Layout{Kind: m.kind, Rank: m.rank, Dimension: m.dims}
	if m.kind == KindStride {
		l.Stride = m.strides
	}
	return l
}

// InBounds reports whether idx has one entry per axis, each inside its extent
func (m *Map) InBounds(idx []int) bool {
	if len(idx) != m.rank {
		return false
	}
	for i, v := range idx {
		if v < 0 || v >= m.dims[i] {
			return false
		}
	}
	return true
}

// Offset maps a full multi-index to a linear offset. Indices past the
// rank are ignored.
func (m *Map) Offset(idx []int) int {
	off := 0
	for i := 0; i < m.rank && i < len(idx); i++ {
		off += idx[i] * m.strides[i]
	}
	return off
}

func (m *Map) Offset1(i0 int) int {
	return i0 * m.strides[0]
}

func (m *Map) Offset2(i0, i1 int) int {
	return i0*m.strides[0] + i1*m.strides[1]
}

func (m *Map) Offset3(i0, i1, i2 int) int {
	return i0*m.strides[0] + i1*m.strides[1] + i2*m.strides[2]
}

// SameShape reports whether two maps have equal rank and extents
func (m *Map) SameShape(o *Map) bool {
	if m.rank != o.rank {
		return false
	}
	for i := 0; i < m.rank; i++ {
		if m.dims[i] != o.dims[i] {
			return false
		}
	}
	return true
}

func (m *Map) String() string {
	return fmt.Sprintf("%v%v/%v span=%d", m.kind, m.dims[:m.rank], m.strides[:m.rank], m.span)
}
