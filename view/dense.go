package view

import (
	"fmt"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// FromDense wraps the backing array of d as an unmanaged rank-2 view. The
// view is right-major when the rows are packed and strided otherwise.
func FromDense(d *mat.Dense) *View[float64, space.Host] {
	raw := d.RawMatrix()
	if raw.Stride == raw.Cols {
		return Wrap[float64, space.Host](raw.Data, layout.NewRight(raw.Rows, raw.Cols))
	}
	return Wrap[float64, space.Host](raw.Data, layout.NewStride(raw.Rows, raw.Stride, raw.Cols, 1))
}

// General describes a rank-2 host view as a row-major BLAS matrix without
// copying. It fails unless the second axis has unit stride and rows do
// not overlap.
func General(v *View[float64, space.Host]) (blas64.General, error) {
	if v.Rank() != 2 {
		return blas64.General{}, fmt.Errorf("view %q has rank %d, want 2", v.Label(), v.Rank())
	}
	rows, cols := v.Extent(0), v.Extent(1)
	stride := v.Stride(0)
	if cols > 1 && v.Stride(1) != 1 {
		return blas64.General{}, fmt.Errorf("view %q: axis 1 stride %d is not 1", v.Label(), v.Stride(1))
	}
	if rows > 1 && stride < cols {
		return blas64.General{}, fmt.Errorf("view %q: row stride %d overlaps rows of %d", v.Label(), stride, cols)
	}
	// a single row may carry any stride
	if stride < cols {
		stride = cols
	}
	if stride == 0 {
		stride = 1
	}
	return blas64.General{Rows: rows, Cols: cols, Stride: stride, Data: v.Data()}, nil
}

// AsDense is a *mat.Dense sharing v's memory, for row-contiguous views
func AsDense(v *View[float64, space.Host]) (*mat.Dense, error) {
	g, err := General(v)
	if err != nil {
		return nil, err
	}
	var d mat.Dense
	d.SetRawMatrix(g)
	return &d, nil
}

// ToDense copies a rank-2 host view of any layout into a new *mat.Dense
func ToDense(v *View[float64, space.Host]) *mat.Dense {
	if v.Rank() != 2 {
		fail(violation(RankMismatch, v.Label(), nil, v.Extents(), "ToDense needs rank 2"))
	}
	d := mat.NewDense(v.Extent(0), v.Extent(1), nil)
	for i := 0; i < v.Extent(0); i++ {
		for j := 0; j < v.Extent(1); j++ {
			d.Set(i, j, v.data[v.m.Offset2(i, j)])
		}
	}
	return d
}
