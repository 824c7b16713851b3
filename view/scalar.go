package view

import (
	"sync/atomic"
	"unsafe"
)

// Scalar is the set of element types a View can hold. Every member is four
// or eight bytes wide, which is what the atomic access trait relies on.
type Scalar interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~int | ~uint32 | ~uint64
}

func sizeOf[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func atomicLoad[T Scalar](p *T) T {
	switch unsafe.Sizeof(*p) {
	case 4:
		bits := atomic.LoadUint32((*uint32)(unsafe.Pointer(p)))
		return *(*T)(unsafe.Pointer(&bits))
	default:
		bits := atomic.LoadUint64((*uint64)(unsafe.Pointer(p)))
		return *(*T)(unsafe.Pointer(&bits))
	}
}

func atomicStore[T Scalar](p *T, val T) {
	switch unsafe.Sizeof(*p) {
	case 4:
		atomic.StoreUint32((*uint32)(unsafe.Pointer(p)), *(*uint32)(unsafe.Pointer(&val)))
	default:
		atomic.StoreUint64((*uint64)(unsafe.Pointer(p)), *(*uint64)(unsafe.Pointer(&val)))
	}
}

// atomicAdd adds delta to *p and returns the new value
func atomicAdd[T Scalar](p *T, delta T) T {
	switch unsafe.Sizeof(*p) {
	case 4:
		addr := (*uint32)(unsafe.Pointer(p))
		for {
			oldBits := atomic.LoadUint32(addr)
			next := *(*T)(unsafe.Pointer(&oldBits)) + delta
			if atomic.CompareAndSwapUint32(addr, oldBits, *(*uint32)(unsafe.Pointer(&next))) {
				return next
			}
		}
	default:
		addr := (*uint64)(unsafe.Pointer(p))
		for {
			oldBits := atomic.LoadUint64(addr)
			next := *(*T)(unsafe.Pointer(&oldBits)) + delta
			if atomic.CompareAndSwapUint64(addr, oldBits, *(*uint64)(unsafe.Pointer(&next))) {
				return next
			}
		}
	}
}
