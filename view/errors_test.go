package view

import (
	"errors"
	"testing"

	"github.com/notargets/DGView/layout"
	"github.com/notargets/DGView/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestViolationLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	v := New[float64, space.Host]("logged", layout.NewRight(2))
	defer v.Release()
	ro := MustTypeOf[space.Host](layout.KindRight, layout.Dynamic)
	ro.ReadOnly = true
	c := Convert(ro, v)
	defer c.Release()

	violationOf(t, func() { c.Set(1, 1) })
	entries := logs.FilterMessage("view violation").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "logged", fields["label"])
	assert.Equal(t, "ReadOnlyViolation", fields["kind"])
}

func TestSetLoggerNil(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	SetLogger(nil)
	require.NotNil(t, Logger())
	ve := violationOf(t, func() {
		Alloc[float64, space.Host]("quiet", layout.KindRight, layout.DynamicShape(2), 1)
	})
	assert.Equal(t, RankMismatch, ve.Kind)
}

func TestPolicyExit(t *testing.T) {
	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = exitProcess }()
	prev := SetPolicy(PolicyExit)
	defer SetPolicy(prev)

	assert.Panics(t, func() {
		Alloc[float64, space.Host]("exit", layout.KindRight, layout.DynamicShape(2), 1)
	})
	assert.Equal(t, 1, code)
}

func TestViolationError(t *testing.T) {
	e := violation(BoundsViolation, "A", []int{3, 0}, []int{3, 4}, "")
	assert.Equal(t, `BoundsViolation in view "A": indices [3 0] extents [3 4]`, e.Error())
	assert.True(t, errors.Is(e, ErrBounds))
	assert.False(t, errors.Is(e, ErrSpace))

	cause := errors.New("boom")
	e = violation(OutOfMemory, "B", nil, nil, "")
	e.Cause = cause
	assert.True(t, errors.Is(e, ErrOutOfMemory))
	assert.True(t, errors.Is(e, cause))
	assert.Equal(t, "OutOfMemory", OutOfMemory.String())
	assert.Equal(t, "Violation(99)", Violation(99).String())
}
