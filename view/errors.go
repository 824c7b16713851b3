package view

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/notargets/DGView/tracker"
	"go.uber.org/zap"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrIncompatible  = errors.New("incompatible view assignment")
	ErrRank          = errors.New("rank mismatch")
	ErrBounds        = errors.New("index out of bounds")
	ErrSpace         = errors.New("memory space not accessible")
	ErrReadOnly      = errors.New("write through read-only view")
	ErrDangling      = errors.New("access to released allocation")
	ErrOutOfMemory   = tracker.ErrOutOfMemory
)

// Violation classifies a ViolationError
type Violation int

const (
	ConfigurationError Violation = iota + 1
	IncompatibleAssignment
	RankMismatch
	BoundsViolation
	SpaceViolation
	ReadOnlyViolation
	DanglingReference
	OutOfMemory
)

var violationNames = map[Violation]string{
	ConfigurationError:     "ConfigurationError",
	IncompatibleAssignment: "IncompatibleAssignment",
	RankMismatch:           "RankMismatch",
	BoundsViolation:        "BoundsViolation",
	SpaceViolation:         "SpaceViolation",
	ReadOnlyViolation:      "ReadOnlyViolation",
	DanglingReference:      "DanglingReference",
	OutOfMemory:            "OutOfMemory",
}

func (v Violation) String() string {
	if s, ok := violationNames[v]; ok {
		return s
	}
	return fmt.Sprintf("Violation(%d)", int(v))
}

func (v Violation) sentinel() error {
	switch v {
	case ConfigurationError:
		return ErrConfiguration
	case IncompatibleAssignment:
		return ErrIncompatible
	case RankMismatch:
		return ErrRank
	case BoundsViolation:
		return ErrBounds
	case SpaceViolation:
		return ErrSpace
	case ReadOnlyViolation:
		return ErrReadOnly
	case DanglingReference:
		return ErrDangling
	case OutOfMemory:
		return ErrOutOfMemory
	}
	return nil
}

// ViolationError is a programming defect detected by a view: the view's
// label, the offending indices and the legal extents
type ViolationError struct {
	Kind    Violation
	Label   string
	Indices []int
	Extents []int
	Detail  string
	Cause   error
}

func (e *ViolationError) Error() string {
	msg := fmt.Sprintf("%v in view %q", e.Kind, e.Label)
	if e.Indices != nil {
		msg += fmt.Sprintf(": indices %v", e.Indices)
	}
	if e.Extents != nil {
		msg += fmt.Sprintf(" extents %v", e.Extents)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the violation's sentinel and its cause to errors.Is
func (e *ViolationError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func violation(kind Violation, label string, indices, extents []int, format string, args ...interface{}) *ViolationError {
	e := &ViolationError{Kind: kind, Label: label, Extents: extents}
	if indices != nil {
		e.Indices = append([]int{}, indices...)
	}
	if format != "" {
		e.Detail = fmt.Sprintf(format, args...)
	}
	return e
}

// Policy selects what a fatal violation does
type Policy int32

const (
	// PolicyPanic panics with the *ViolationError. Unrecovered, the panic
	// ends the process.
	PolicyPanic Policy = iota
	// PolicyExit logs the violation and exits the process with status 1
	PolicyExit
)

var policy atomic.Int32

var (
	exitProcess = os.Exit
	exit        = exitProcess
)

// SetPolicy selects the reaction to violations and returns the previous one
func SetPolicy(p Policy) Policy {
	return Policy(policy.Swap(int32(p)))
}

// fail reports a violation and does not return
func fail(e *ViolationError) {
	Logger().Error("view violation",
		zap.Stringer("kind", e.Kind),
		zap.String("label", e.Label),
		zap.Ints("indices", e.Indices),
		zap.Ints("extents", e.Extents),
		zap.String("detail", e.Detail),
		zap.NamedError("cause", e.Cause))
	if Policy(policy.Load()) == PolicyExit {
		_ = Logger().Sync()
		exit(1)
	}
	panic(e)
}
