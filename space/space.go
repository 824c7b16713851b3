package space

import (
	"errors"
	"fmt"
	"unsafe"
)

var (
	ErrOutOfMemory    = errors.New("out of memory")
	ErrNoDevice       = errors.New("no device registered for the device memory space")
	ErrInvalidRequest = errors.New("invalid allocation request")
)

// Alignment is the byte boundary an allocation starts on. Any power of two
// is accepted; the named values cover the usual hardware boundaries.
type Alignment int

const (
	NoAlignment    Alignment = 1
	CacheLineAlign Alignment = 64
	WarpAlign      Alignment = 128
	PageAlign      Alignment = 4096
)

// DefaultAlignment is the alignment used when a request leaves it unset
const DefaultAlignment = CacheLineAlign

// Kind identifies a memory space at run time
type Kind int

const (
	HostKind Kind = iota + 1
	DeviceKind
	ScratchKind
)

func (k Kind) String() string {
	switch k {
	case HostKind:
		return "HostSpace"
	case DeviceKind:
		return "DeviceSpace"
	case ScratchKind:
		return "ScratchSpace"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Space is implemented by the zero-sized memory space tags Host, Device
// and Scratch. Views carry the tag as a type parameter, so a view in one
// space cannot be assigned to a view in another.
type Space interface {
	Name() string
	Kind() Kind
	Allocate(req Request) (Buffer, error)
}

// Request describes one allocation
type Request struct {
	Label     string
	Bytes     int
	Alignment Alignment
	// Arena serves Scratch requests; nil selects the default arena
	Arena *Arena
}

func (r Request) validate() (int, error) {
	if r.Bytes < 0 {
		return 0, fmt.Errorf("%q: %d bytes: %w", r.Label, r.Bytes, ErrInvalidRequest)
	}
	align := r.Alignment
	if align == 0 {
		align = DefaultAlignment
	}
	if align < 0 || align&(align-1) != 0 {
		return 0, fmt.Errorf("%q: alignment %d is not a power of two: %w", r.Label, align, ErrInvalidRequest)
	}
	return int(align), nil
}

// Buffer is one contiguous allocation owned by a space
type Buffer interface {
	// Len is the usable size in bytes
	Len() int
	// HostPointer is the first byte, or nil when the host cannot address it
	HostPointer() unsafe.Pointer
	Free()
}

// Accessible reports whether code executing in exec may dereference memory
// residing in mem
func Accessible(exec, mem Kind) bool {
	switch exec {
	case HostKind:
		return mem == HostKind || mem == ScratchKind
	case DeviceKind:
		return mem == DeviceKind
	default:
		return false
	}
}

// KindOf returns the run-time kind of a space tag type
func KindOf[S Space]() Kind {
	var s S
	return s.Kind()
}

// NameOf returns the name of a space tag type
func NameOf[S Space]() string {
	var s S
	return s.Name()
}

// Same reports whether two space tag types are the same space
func Same[A, B Space]() bool {
	return KindOf[A]() == KindOf[B]()
}

// HostAccessible reports whether host code may dereference memory in S
func HostAccessible[S Space]() bool {
	return Accessible(HostKind, KindOf[S]())
}

func alignUp(p uintptr, align int) uintptr {
	a := uintptr(align)
	return (p + a - 1) &^ (a - 1)
}
