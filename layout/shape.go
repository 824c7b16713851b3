package layout

import "fmt"

// Dynamic marks an axis whose extent is supplied at run time
const Dynamic = -1

// Shape is the fixed part of an array type: its rank and, per axis, either
// a static extent or Dynamic. Dynamic axes always come first.
type Shape struct {
	rank        int
	rankDynamic int
	static      [MaxRank]int
}

// NewShape builds a shape from per-axis entries, each Dynamic or a
// non-negative static extent
func NewShape(axes ...int) (Shape, error) {
	if len(axes) > MaxRank {
		return Shape{}, fmt.Errorf("rank %d exceeds MaxRank %d: %w", len(axes), MaxRank, ErrRankMismatch)
	}
	s := Shape{rank: len(axes)}
	seenStatic := false
	for i, n := range axes {
		switch {
		case n == Dynamic:
			if seenStatic {
				return Shape{}, fmt.Errorf("axis %d: %w", i, ErrDynamicOrder)
			}
			s.rankDynamic++
		case n < 0:
			return Shape{}, fmt.Errorf("axis %d extent %d: %w", i, n, ErrInvalidExtent)
		default:
			seenStatic = true
		}
		s.static[i] = n
	}
	return s, nil
}

// MustShape is NewShape that panics on error
func MustShape(axes ...int) Shape {
	s, err := NewShape(axes...)
	if err != nil {
		panic(err)
	}
	return s
}

// DynamicShape returns a shape of the given rank with every axis dynamic
func DynamicShape(rank int) Shape {
	if rank < 0 || rank > MaxRank {
		panic(fmt.Sprintf("rank %d outside [0,%d]", rank, MaxRank))
	}
	s := Shape{rank: rank, rankDynamic: rank}
	for i := 0; i < rank; i++ {
		s.static[i] = Dynamic
	}
	return s
}

func (s Shape) Rank() int        { return s.rank }
func (s Shape) RankDynamic() int { return s.rankDynamic }

// IsStatic reports whether the extent of axis is fixed by the shape
func (s Shape) IsStatic(axis int) bool {
	return axis >= s.rankDynamic && axis < s.rank
}

// StaticExtent returns the fixed extent of axis, or Dynamic
func (s Shape) StaticExtent(axis int) int {
	if axis < 0 || axis >= s.rank {
		return Dynamic
	}
	return s.static[axis]
}

// Merge combines the shape with run-time extents. The number of dynamic
// values must equal the shape's dynamic rank.
func (s Shape) Merge(dynamic ...int) ([]int, error) {
	if len(dynamic) != s.rankDynamic {
		return nil, fmt.Errorf("shape %v takes %d dynamic extents, got %d: %w",
			s, s.rankDynamic, len(dynamic), ErrRankMismatch)
	}
	out := make([]int, s.rank)
	for i := 0; i < s.rank; i++ {
		if i < s.rankDynamic {
			if dynamic[i] < 0 {
				return nil, fmt.Errorf("dynamic extent %d is %d: %w", i, dynamic[i], ErrInvalidExtent)
			}
			out[i] = dynamic[i]
		} else {
			out[i] = s.static[i]
		}
	}
	return out, nil
}

// Admits reports whether concrete extents satisfy every static axis
func (s Shape) Admits(extents []int) error {
	if len(extents) != s.rank {
		return fmt.Errorf("shape %v has rank %d, extents %v: %w", s, s.rank, extents, ErrRankMismatch)
	}
	for i := s.rankDynamic; i < s.rank; i++ {
		if extents[i] != s.static[i] {
			return fmt.Errorf("axis %d is static %d, got %d: %w", i, s.static[i], extents[i], ErrInvalidExtent)
		}
	}
	return nil
}

func (s Shape) String() string {
	out := "["
	for i := 0; i < s.rank; i++ {
		if i > 0 {
			out += ","
		}
		if s.static[i] == Dynamic {
			out += "*"
		} else {
			out += fmt.Sprint(s.static[i])
		}
	}
	return out + "]"
}
