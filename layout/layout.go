package layout

import (
	"errors"
	"fmt"
)

// MaxRank is the largest number of dimensions a Layout can describe
const MaxRank = 8

var (
	ErrRankMismatch       = errors.New("rank mismatch")
	ErrInvalidExtent      = errors.New("invalid extent")
	ErrDynamicOrder       = errors.New("dynamic extents must precede static extents")
	ErrNotExtentBuildable = errors.New("layout is not constructible from extents")
)

// Kind selects the rule that maps a multi-index to a linear offset
type Kind int

const (
	// KindLeft varies the first index fastest (column-major for rank 2)
	KindLeft Kind = iota + 1
	// KindRight varies the last index fastest (row-major for rank 2)
	KindRight
	// KindStride carries an explicit stride per axis
	KindStride
)

func (k Kind) String() string {
	switch k {
	case KindLeft:
		return "LayoutLeft"
	case KindRight:
		return "LayoutRight"
	case KindStride:
		return "LayoutStride"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsExtentConstructible reports whether a layout of this kind can be built
// from extents alone. Strided layouts need explicit strides.
func (k Kind) IsExtentConstructible() bool {
	return k == KindLeft || k == KindRight
}

// Layout describes the extents of an array and, for KindStride, the
// distance in elements between neighbours along each axis.
type Layout struct {
	Kind      Kind
	Rank      int
	Dimension [MaxRank]int
	Stride    [MaxRank]int
}

// NewLeft returns a left-major layout over the given extents
func NewLeft(n ...int) Layout {
	return extentLayout(KindLeft, n)
}

// NewRight returns a right-major layout over the given extents
func NewRight(n ...int) Layout {
	return extentLayout(KindRight, n)
}

// NewStride takes alternating (extent, stride) pairs, one pair per axis
func NewStride(pairs ...int) Layout {
	if len(pairs)%2 != 0 {
		panic(fmt.Sprintf("NewStride needs (extent, stride) pairs, got %d values", len(pairs)))
	}
	rank := len(pairs) / 2
	if rank > MaxRank {
		panic(fmt.Sprintf("rank %d exceeds MaxRank %d", rank, MaxRank))
	}
	l := Layout{Kind: KindStride, Rank: rank}
	for i := 0; i < rank; i++ {
		l.Dimension[i] = pairs[2*i]
		l.Stride[i] = pairs[2*i+1]
	}
	return l
}

// FromExtents builds a layout of the given kind from extents. It fails
// for kinds that need more than extents to be described.
func FromExtents(kind Kind, n ...int) (Layout, error) {
	if !kind.IsExtentConstructible() {
		return Layout{}, fmt.Errorf("%v: %w", kind, ErrNotExtentBuildable)
	}
	if len(n) > MaxRank {
		return Layout{}, fmt.Errorf("rank %d exceeds MaxRank %d: %w", len(n), MaxRank, ErrRankMismatch)
	}
	return extentLayout(kind, n), nil
}

func extentLayout(kind Kind, n []int) Layout {
	if len(n) > MaxRank {
		panic(fmt.Sprintf("rank %d exceeds MaxRank %d", len(n), MaxRank))
	}
	l := Layout{Kind: kind, Rank: len(n)}
	copy(l.Dimension[:], n)
	return l
}

// Extents returns the dimensions of the layout as a slice of length Rank
func (l Layout) Extents() []int {
	out := make([]int, l.Rank)
	copy(out, l.Dimension[:l.Rank])
	return out
}

// Validate checks the layout for negative extents and strides
func (l Layout) Validate() error {
	if l.Rank < 0 || l.Rank > MaxRank {
		return fmt.Errorf("rank %d outside [0,%d]: %w", l.Rank, MaxRank, ErrRankMismatch)
	}
	switch l.Kind {
	case KindLeft, KindRight, KindStride:
	default:
		return fmt.Errorf("unknown layout kind %v", l.Kind)
	}
	for i := 0; i < l.Rank; i++ {
		if l.Dimension[i] < 0 {
			return fmt.Errorf("dimension %d is %d: %w", i, l.Dimension[i], ErrInvalidExtent)
		}
		if l.Kind == KindStride && l.Stride[i] < 0 {
			return fmt.Errorf("stride %d is %d: %w", i, l.Stride[i], ErrInvalidExtent)
		}
	}
	return nil
}

func (l Layout) String() string {
	if l.Kind == KindStride {
		return fmt.Sprintf("%v%v/%v", l.Kind, l.Dimension[:l.Rank], l.Stride[:l.Rank])
	}
	return fmt.Sprintf("%v%v", l.Kind, l.Dimension[:l.Rank])
}
