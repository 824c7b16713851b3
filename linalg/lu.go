// Package linalg provides dense factorizations of rank-2 host views through
// gonum's LAPACK implementation.
package linalg

import (
	"fmt"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// Matrix is a rank-2 float64 host view
type Matrix = view.View[float64, space.Host]

// Status follows the LAPACK info convention: 0 on success and k+1 when the
// k'th diagonal entry of U is exactly zero.
type Status int

// OK reports a nonsingular factorization
func (s Status) OK() bool { return s == 0 }

func (s Status) String() string {
	if s == 0 {
		return "ok"
	}
	return fmt.Sprintf("U(%d,%d) is exactly zero", s-1, s-1)
}

// staged is a row-major BLAS description of a view. When the view's own
// layout cannot be described that way, g addresses a right-major copy and
// commit writes it back.
type staged struct {
	g      blas64.General
	commit func() error
	tmp    *Matrix
}

func (s staged) release() {
	if s.tmp != nil {
		s.tmp.Release()
	}
}

func rowMajor(a *Matrix) (staged, error) {
	if g, err := view.General(a); err == nil {
		return staged{g: g, commit: func() error { return nil }}, nil
	}
	tmp := view.New[float64, space.Host](a.Label()+"_rowmajor", layout.NewRight(a.Extent(0), a.Extent(1)))
	if err := view.DeepCopy(tmp, a); err != nil {
		tmp.Release()
		return staged{}, err
	}
	g, err := view.General(tmp)
	if err != nil {
		tmp.Release()
		return staged{}, err
	}
	return staged{
		g:      g,
		commit: func() error { return view.DeepCopy(a, tmp) },
		tmp:    tmp,
	}, nil
}

func checkMatrix(a *Matrix, op string) error {
	if a == nil || !a.IsAllocated() {
		return fmt.Errorf("%s: %w", op, view.ErrDangling)
	}
	if a.Rank() != 2 {
		return fmt.Errorf("%s: view %q has rank %d, want 2: %w", op, a.Label(), a.Rank(), view.ErrRank)
	}
	if a.Traits().ReadOnly {
		return fmt.Errorf("%s: view %q: %w", op, a.Label(), view.ErrReadOnly)
	}
	return nil
}

func checkSquare(a *Matrix, op string) error {
	if err := checkMatrix(a, op); err != nil {
		return err
	}
	if a.Extent(0) != a.Extent(1) {
		return fmt.Errorf("%s: view %q is %dx%d, want square: %w",
			op, a.Label(), a.Extent(0), a.Extent(1), view.ErrIncompatible)
	}
	return nil
}

func zeroPivot(g blas64.General) Status {
	k := min(g.Rows, g.Cols)
	for i := 0; i < k; i++ {
		if g.Data[i*g.Stride+i] == 0 {
			return Status(i + 1)
		}
	}
	return 0
}

// Factor computes the LU factorization with partial pivoting of a in place:
// a = P*L*U, L unit lower triangular stored below the diagonal. Row i was
// interchanged with row ipiv(i). Any layout is accepted; views that are not
// row-contiguous are factored through a staging copy.
func Factor(a *Matrix, ipiv *view.View[int, space.Host]) (Status, error) {
	if err := checkMatrix(a, "factor"); err != nil {
		return 0, err
	}
	k := min(a.Extent(0), a.Extent(1))
	if ipiv == nil || ipiv.Rank() != 1 || ipiv.Extent(0) < k {
		return 0, fmt.Errorf("factor: pivot view must be rank 1 with at least %d entries: %w",
			k, view.ErrIncompatible)
	}

	st, err := rowMajor(a)
	if err != nil {
		return 0, fmt.Errorf("factor: %w", err)
	}
	defer st.release()

	piv := make([]int, k)
	status := Status(0)
	if k > 0 && !lapack64.Getrf(st.g, piv) {
		status = zeroPivot(st.g)
	}
	for i, p := range piv {
		ipiv.Set1(p, i)
	}
	if err := st.commit(); err != nil {
		return 0, fmt.Errorf("factor: %w", err)
	}
	return status, nil
}

// Getrf factors the m by n column-major matrix stored in a with leading
// dimension lda. Pivots are zero based. The returned status follows Factor.
func Getrf(m, n int, a []float64, lda int, ipiv []int) (Status, error) {
	if lda < max(1, m) {
		return 0, fmt.Errorf("getrf: leading dimension %d < %d: %w", lda, max(1, m), view.ErrIncompatible)
	}
	mv, err := view.TryWrap[float64, space.Host](a, layout.NewStride(m, 1, n, lda))
	if err != nil {
		return 0, fmt.Errorf("getrf: %w", err)
	}
	pv, err := view.TryWrap[int, space.Host](ipiv, layout.NewRight(min(m, n)))
	if err != nil {
		return 0, fmt.Errorf("getrf: %w", err)
	}
	return Factor(mv, pv)
}

// Invert replaces a square matrix with its inverse. A singular matrix is
// reported through the status and leaves a holding its LU factors.
func Invert(a *Matrix) (Status, error) {
	if err := checkSquare(a, "invert"); err != nil {
		return 0, err
	}
	n := a.Extent(0)
	if n == 0 {
		return 0, nil
	}
	st, err := rowMajor(a)
	if err != nil {
		return 0, fmt.Errorf("invert: %w", err)
	}
	defer st.release()

	piv := make([]int, n)
	if !lapack64.Getrf(st.g, piv) {
		status := zeroPivot(st.g)
		if err := st.commit(); err != nil {
			return 0, fmt.Errorf("invert: %w", err)
		}
		return status, nil
	}
	work := make([]float64, 1)
	lapack64.Getri(st.g, piv, work, -1)
	work = make([]float64, max(n, int(work[0])))
	lapack64.Getri(st.g, piv, work, len(work))
	if err := st.commit(); err != nil {
		return 0, fmt.Errorf("invert: %w", err)
	}
	return 0, nil
}

// Solve overwrites b with the solution x of a*x = b. a is overwritten with
// its LU factors. b is rank 1, or rank 2 holding one right hand side per
// column.
func Solve(a *Matrix, b *Matrix) (Status, error) {
	if err := checkSquare(a, "solve"); err != nil {
		return 0, err
	}
	if b == nil || !b.IsAllocated() {
		return 0, fmt.Errorf("solve: %w", view.ErrDangling)
	}
	if b.Traits().ReadOnly {
		return 0, fmt.Errorf("solve: view %q: %w", b.Label(), view.ErrReadOnly)
	}
	n := a.Extent(0)

	rhs := b
	switch b.Rank() {
	case 1:
		// a column of a rank-2 unmanaged view over the same storage
		rhs = view.Wrap[float64, space.Host](b.Data(), layout.NewStride(b.Extent(0), b.Stride(0), 1, 1))
	case 2:
	default:
		return 0, fmt.Errorf("solve: right hand side has rank %d: %w", b.Rank(), view.ErrRank)
	}
	if err := checkMatrix(rhs, "solve"); err != nil {
		return 0, err
	}
	if rhs.Extent(0) != n {
		return 0, fmt.Errorf("solve: %d right hand side rows for a %dx%d system: %w",
			rhs.Extent(0), n, n, view.ErrIncompatible)
	}
	if n == 0 || rhs.Extent(1) == 0 {
		return 0, nil
	}

	sa, err := rowMajor(a)
	if err != nil {
		return 0, fmt.Errorf("solve: %w", err)
	}
	defer sa.release()
	sb, err := rowMajor(rhs)
	if err != nil {
		return 0, fmt.Errorf("solve: %w", err)
	}
	defer sb.release()

	piv := make([]int, n)
	if !lapack64.Getrf(sa.g, piv) {
		status := zeroPivot(sa.g)
		return status, sa.commit()
	}
	lapack64.Getrs(blas.NoTrans, sa.g, sb.g, piv)
	if err := sa.commit(); err != nil {
		return 0, fmt.Errorf("solve: %w", err)
	}
	if err := sb.commit(); err != nil {
		return 0, fmt.Errorf("solve: %w", err)
	}
	return 0, nil
}
