package space

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/notargets/gocca"
)

// Device is the global memory of the registered OCCA device. The host
// cannot dereference it; data moves through explicit copies.
type Device struct{}

func (Device) Name() string { return "DeviceSpace" }
func (Device) Kind() Kind   { return DeviceKind }

var current atomic.Pointer[gocca.OCCADevice]

// SetDevice registers the OCCA device that backs the Device space and
// returns the previous one
func SetDevice(dev *gocca.OCCADevice) *gocca.OCCADevice {
	return current.Swap(dev)
}

// CurrentDevice returns the registered device, or nil
func CurrentDevice() *gocca.OCCADevice {
	return current.Load()
}

// Allocate reserves device global memory. Contents are undefined.
func (Device) Allocate(req Request) (Buffer, error) {
	if _, err := req.validate(); err != nil {
		return nil, err
	}
	dev := current.Load()
	if dev == nil {
		return nil, fmt.Errorf("%q: %w", req.Label, ErrNoDevice)
	}
	bytes := req.Bytes
	if bytes == 0 {
		bytes = 1
	}
	mem := dev.Malloc(int64(bytes), nil, nil)
	if mem == nil {
		return nil, fmt.Errorf("%q: %d bytes on %s device: %w", req.Label, req.Bytes, dev.Mode(), ErrOutOfMemory)
	}
	return &DeviceBuffer{mem: mem, n: req.Bytes}, nil
}

// DeviceBuffer is one OCCA memory allocation
type DeviceBuffer struct {
	mem *gocca.OCCAMemory
	n   int
}

// WrapDeviceMemory adopts memory allocated elsewhere. Free on the result
// releases it.
func WrapDeviceMemory(mem *gocca.OCCAMemory, bytes int) *DeviceBuffer {
	return &DeviceBuffer{mem: mem, n: bytes}
}

func (b *DeviceBuffer) Len() int { return b.n }

// HostPointer is always nil: device memory is not host addressable
func (b *DeviceBuffer) HostPointer() unsafe.Pointer { return nil }

// Memory is the OCCA handle, for binding as a kernel argument
func (b *DeviceBuffer) Memory() *gocca.OCCAMemory { return b.mem }

// Read copies the first bytes of the buffer to host memory at dst
func (b *DeviceBuffer) Read(dst unsafe.Pointer, bytes int) error {
	if b.mem == nil {
		return fmt.Errorf("read from freed device buffer")
	}
	if bytes > b.n {
		return fmt.Errorf("read of %d bytes from %d byte device buffer", bytes, b.n)
	}
	if bytes > 0 {
		b.mem.CopyTo(dst, int64(bytes))
	}
	return nil
}

// Write copies bytes of host memory at src into the start of the buffer
func (b *DeviceBuffer) Write(src unsafe.Pointer, bytes int) error {
	if b.mem == nil {
		return fmt.Errorf("write to freed device buffer")
	}
	if bytes > b.n {
		return fmt.Errorf("write of %d bytes to %d byte device buffer", bytes, b.n)
	}
	if bytes > 0 {
		b.mem.CopyFrom(src, int64(bytes))
	}
	return nil
}

func (b *DeviceBuffer) Free() {
	if b.mem == nil {
		return
	}
	b.mem.Free()
	b.mem = nil
}
