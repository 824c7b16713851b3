package space

import (
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Host is the heap memory space of the host process
type Host struct{}

func (Host) Name() string { return "HostSpace" }
func (Host) Kind() Kind   { return HostKind }

// maxHostBytes is the largest single heap request attempted, the 48-bit
// address space of current 64-bit platforms
const maxHostBytes = 1 << 48

var (
	hostLimit atomic.Int64
	hostInUse atomic.Int64
)

// SetHostLimit caps the bytes the host space hands out; 0 removes the cap
func SetHostLimit(bytes int64) {
	hostLimit.Store(bytes)
}

// HostInUse returns the bytes currently held by live host buffers
func HostInUse() int64 {
	return hostInUse.Load()
}

// Allocate returns a zeroed, aligned heap buffer
func (Host) Allocate(req Request) (Buffer, error) {
	align, err := req.validate()
	if err != nil {
		return nil, err
	}
	if req.Bytes > maxHostBytes {
		return nil, fmt.Errorf("%q: %d bytes exceeds the host address space: %w", req.Label, req.Bytes, ErrOutOfMemory)
	}
	n := int64(req.Bytes)
	if limit := hostLimit.Load(); limit > 0 {
		if hostInUse.Add(n) > limit {
			hostInUse.Add(-n)
			return nil, fmt.Errorf("%q: %d bytes over host limit %d: %w", req.Label, n, limit, ErrOutOfMemory)
		}
	} else {
		hostInUse.Add(n)
	}
	raw := make([]byte, req.Bytes+align)
	base := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	shift := int(alignUp(base, align) - base)
	return &HostBuffer{raw: raw, ptr: unsafe.Pointer(&raw[shift]), n: req.Bytes}, nil
}

// HostBuffer is heap memory. The aligned pointer is interior to raw, which
// keeps the backing array reachable for as long as the buffer is.
type HostBuffer struct {
	raw []byte
	ptr unsafe.Pointer
	n   int
}

func (b *HostBuffer) Len() int { return b.n }

func (b *HostBuffer) HostPointer() unsafe.Pointer { return b.ptr }

// Free drops the buffer's hold on its memory
func (b *HostBuffer) Free() {
	if b.raw == nil {
		return
	}
	hostInUse.Add(-int64(b.n))
	b.raw = nil
	b.ptr = nil
}
