package linalg

import (
	"errors"
	"testing"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestVandermonde(t *testing.T) {
	v, err := Vandermonde("V", layout.KindLeft, []float64{-1, 0, 2}, 3)
	require.NoError(t, err)
	defer v.Release()

	assert.Equal(t, []int{3, 4}, v.Extents())
	assert.Equal(t, layout.KindLeft, v.Kind())
	assert.Equal(t, "V", v.Label())
	assert.Equal(t, []float64{1, -1, 1, -1}, []float64{v.At2(0, 0), v.At2(0, 1), v.At2(0, 2), v.At2(0, 3)})
	assert.Equal(t, []float64{1, 0, 0, 0}, []float64{v.At2(1, 0), v.At2(1, 1), v.At2(1, 2), v.At2(1, 3)})
	assert.Equal(t, []float64{1, 2, 4, 8}, []float64{v.At2(2, 0), v.At2(2, 1), v.At2(2, 2), v.At2(2, 3)})

	_, err = Vandermonde("V", layout.KindRight, []float64{1}, -1)
	assert.True(t, errors.Is(err, view.ErrIncompatible))
	_, err = Vandermonde("V", layout.KindStride, []float64{1}, 1)
	assert.True(t, errors.Is(err, layout.ErrNotExtentBuildable))
}

func TestInverseVandermonde(t *testing.T) {
	x := []float64{-1, -0.5, 0.25, 1}
	for _, kind := range []layout.Kind{layout.KindLeft, layout.KindRight} {
		t.Run(kind.String(), func(t *testing.T) {
			vinv, status, err := InverseVandermonde("Vinv", kind, x)
			require.NoError(t, err)
			require.True(t, status.OK())
			defer vinv.Release()

			v, err := Vandermonde("V", kind, x, len(x)-1)
			require.NoError(t, err)
			defer v.Release()

			var prod mat.Dense
			prod.Mul(view.ToDense(v), view.ToDense(vinv))
			assert.True(t, mat.EqualApprox(&prod, eye(len(x)), 1e-12), "V*inv(V)\n%v", mat.Formatted(&prod))
		})
	}

	t.Run("RepeatedNodes", func(t *testing.T) {
		vinv, status, err := InverseVandermonde("Vinv", layout.KindRight, []float64{0, 1, 1})
		require.NoError(t, err)
		assert.False(t, status.OK())
		assert.Nil(t, vinv)
	})
}

func TestMonomialCoefficients(t *testing.T) {
	// f(x) = 2 - x + 3x^2
	x := []float64{-1, 0.5, 2}
	f := make([]float64, len(x))
	for i, xi := range x {
		f[i] = 2 - xi + 3*xi*xi
	}
	c, status, err := MonomialCoefficients(x, f)
	require.NoError(t, err)
	require.True(t, status.OK())
	assert.InDeltaSlice(t, []float64{2, -1, 3}, c, 1e-12)

	_, _, err = MonomialCoefficients(x, f[:2])
	assert.True(t, errors.Is(err, view.ErrIncompatible))
}
