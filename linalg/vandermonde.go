package linalg

import (
	"fmt"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/notargets/DGView/view"
)

// Vandermonde allocates the len(x) by degree+1 matrix V(i,j) = x[i]^j in
// the given layout kind.
func Vandermonde(label string, kind layout.Kind, x []float64, degree int) (*Matrix, error) {
	if degree < 0 {
		return nil, fmt.Errorf("vandermonde: negative degree %d: %w", degree, view.ErrIncompatible)
	}
	l, err := layout.FromExtents(kind, len(x), degree+1)
	if err != nil {
		return nil, fmt.Errorf("vandermonde: %w", err)
	}
	v, err := view.TryNew[float64, space.Host](view.Config{Label: label, Layout: l})
	if err != nil {
		return nil, fmt.Errorf("vandermonde: %w", err)
	}
	for i, xi := range x {
		p := 1.0
		for j := 0; j <= degree; j++ {
			v.Set2(p, i, j)
			p *= xi
		}
	}
	return v, nil
}

// InverseVandermonde returns the inverse of the square Vandermonde matrix
// on nodes x. Repeated nodes make V singular, reported through the status.
func InverseVandermonde(label string, kind layout.Kind, x []float64) (*Matrix, Status, error) {
	v, err := Vandermonde(label, kind, x, len(x)-1)
	if err != nil {
		return nil, 0, err
	}
	status, err := Invert(v)
	if err != nil || !status.OK() {
		v.Release()
		return nil, status, err
	}
	return v, 0, nil
}

// MonomialCoefficients returns c with sum_j c[j]*x[i]^j = f[i], the
// interpolating polynomial of degree len(x)-1 through the points.
func MonomialCoefficients(x, f []float64) ([]float64, Status, error) {
	if len(x) != len(f) {
		return nil, 0, fmt.Errorf("monomial coefficients: %d nodes, %d values: %w",
			len(x), len(f), view.ErrIncompatible)
	}
	v, err := Vandermonde("vandermonde", layout.KindLeft, x, len(x)-1)
	if err != nil {
		return nil, 0, err
	}
	defer v.Release()

	c := append([]float64(nil), f...)
	rhs := view.Wrap[float64, space.Host](c, layout.NewRight(len(c)))
	status, err := Solve(v, rhs)
	if err != nil || !status.OK() {
		return nil, status, err
	}
	return c, 0, nil
}
