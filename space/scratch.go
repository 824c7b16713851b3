package space

import (
	"fmt"
	"sync"
	"unsafe"
)

// DefaultScratchBytes sizes the arena used when a Scratch request names none
const DefaultScratchBytes = 1 << 20

// Scratch is short-lived team memory carved out of an Arena. Individual
// buffers are never freed; the arena is reset as a whole.
type Scratch struct{}

func (Scratch) Name() string { return "ScratchSpace" }
func (Scratch) Kind() Kind   { return ScratchKind }

var (
	defaultArenaOnce sync.Once
	defaultArena     *Arena
)

// DefaultArena returns the process-wide scratch arena
func DefaultArena() *Arena {
	defaultArenaOnce.Do(func() {
		defaultArena = NewArena(DefaultScratchBytes)
	})
	return defaultArena
}

func (Scratch) Allocate(req Request) (Buffer, error) {
	a := req.Arena
	if a == nil {
		a = DefaultArena()
	}
	return a.Allocate(req)
}

// Arena is a bump allocator over one host block
type Arena struct {
	mu   sync.Mutex
	raw  []byte
	base uintptr
	used int
}

// NewArena allocates an arena able to hand out bytes of scratch memory
func NewArena(bytes int) *Arena {
	if bytes < 0 {
		panic(fmt.Sprintf("NewArena: negative capacity %d", bytes))
	}
	raw := make([]byte, bytes)
	return &Arena{raw: raw, base: uintptr(unsafe.Pointer(unsafe.SliceData(raw)))}
}

// Allocate carves an aligned, zeroed buffer from the arena
func (a *Arena) Allocate(req Request) (Buffer, error) {
	align, err := req.validate()
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	start := int(alignUp(a.base+uintptr(a.used), align) - a.base)
	if start > len(a.raw) || req.Bytes > len(a.raw)-start {
		return nil, fmt.Errorf("%q: %d bytes, arena has %d of %d free: %w",
			req.Label, req.Bytes, len(a.raw)-a.used, len(a.raw), ErrOutOfMemory)
	}
	a.used = start + req.Bytes
	block := a.raw[start:a.used]
	clear(block)
	var ptr unsafe.Pointer
	if len(block) > 0 {
		ptr = unsafe.Pointer(&block[0])
	} else {
		ptr = unsafe.Pointer(unsafe.SliceData(a.raw))
	}
	return &ScratchBuffer{block: block, ptr: ptr}, nil
}

// Reset returns every buffer to the arena. Views over earlier buffers must
// not be used afterwards.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.used = 0
	a.mu.Unlock()
}

func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

func (a *Arena) Capacity() int { return len(a.raw) }

// ScratchBuffer is a slice of an arena
type ScratchBuffer struct {
	block []byte
	ptr   unsafe.Pointer
}

func (b *ScratchBuffer) Len() int                    { return len(b.block) }
func (b *ScratchBuffer) HostPointer() unsafe.Pointer { return b.ptr }

// Free is a no-op; the owning arena reclaims the memory on Reset
func (b *ScratchBuffer) Free() {}
