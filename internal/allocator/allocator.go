// Package allocator provides pooled byte-buffer allocation for cyclegc's
// ambient components. The only current consumer is
// internal/gcrcintrospect, which repeatedly encodes same-size JSON
// scratch buffers and wants to reuse them instead of allocating fresh
// on every request. This is a trimmed-down allocator: only the
// size-classed pool path (pool.go) and the plain system-allocator
// fallback below survive, since nothing else in this module manages
// memory manually.
package allocator

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// Allocator is the interface PoolAllocatorImpl and its
// SystemAllocatorImpl fallback both satisfy.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(ptr unsafe.Pointer)
	Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer
	TotalAllocated() uintptr
	TotalFreed() uintptr
	ActiveAllocations() int
	Stats() AllocatorStats
	Reset()
}

// AllocatorStats reports allocator-wide counters.
type AllocatorStats struct {
	TotalAllocated    uintptr
	TotalFreed        uintptr
	ActiveAllocations int
	AllocationCount   uint64
	FreeCount         uint64
	BytesInUse        uintptr
}

// Config configures a pool allocator and its fallback.
type Config struct {
	PoolSizes     []uintptr
	AlignmentSize uintptr
}

// alignUp aligns size up to the nearest multiple of alignment.
func alignUp(size, alignment uintptr) uintptr {
	if alignment == 0 {
		return size
	}

	return (size + alignment - 1) &^ (alignment - 1)
}

// copyMemory copies size bytes from src to dst.
func copyMemory(dst, src unsafe.Pointer, size uintptr) {
	dstSlice := (*[1 << 30]byte)(dst)[:size:size]
	srcSlice := (*[1 << 30]byte)(src)[:size:size]

	copy(dstSlice, srcSlice)
}

// SystemAllocatorImpl is the pool allocator's fallback for any size no
// pool covers: a thin, tracked wrapper over Go's own allocator.
type SystemAllocatorImpl struct {
	config          *Config
	mu              sync.Mutex
	allocatedSlices map[unsafe.Pointer][]byte
	totalAllocated  uintptr
	totalFreed      uintptr
	allocationCount uint64
	freeCount       uint64
}

// NewSystemAllocator creates a new system allocator.
func NewSystemAllocator(config *Config) *SystemAllocatorImpl {
	return &SystemAllocatorImpl{
		config:          config,
		allocatedSlices: make(map[unsafe.Pointer][]byte),
	}
}

// Alloc allocates size bytes, aligned to config.AlignmentSize.
func (sa *SystemAllocatorImpl) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	alignedSize := alignUp(size, sa.config.AlignmentSize)
	slice := make([]byte, alignedSize)
	ptr := unsafe.Pointer(&slice[0])

	sa.mu.Lock()
	sa.allocatedSlices[ptr] = slice
	sa.mu.Unlock()

	atomic.AddUintptr(&sa.totalAllocated, alignedSize)
	atomic.AddUint64(&sa.allocationCount, 1)

	return ptr
}

// Free releases ptr back to the system allocator.
func (sa *SystemAllocatorImpl) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	sa.mu.Lock()
	slice, exists := sa.allocatedSlices[ptr]

	if exists {
		delete(sa.allocatedSlices, ptr)
	}
	sa.mu.Unlock()

	if exists {
		atomic.AddUintptr(&sa.totalFreed, uintptr(len(slice)))
		atomic.AddUint64(&sa.freeCount, 1)
	}
}

// Realloc reallocates ptr to newSize, copying the old contents over.
func (sa *SystemAllocatorImpl) Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		return sa.Alloc(newSize)
	}

	if newSize == 0 {
		sa.Free(ptr)

		return nil
	}

	sa.mu.Lock()
	oldSlice, exists := sa.allocatedSlices[ptr]
	sa.mu.Unlock()

	newPtr := sa.Alloc(newSize)
	if newPtr == nil {
		return nil
	}

	if exists {
		copySize := uintptr(len(oldSlice))
		if newSize < copySize {
			copySize = newSize
		}

		copyMemory(newPtr, ptr, copySize)
	}

	sa.Free(ptr)

	return newPtr
}

// TotalAllocated returns total bytes allocated.
func (sa *SystemAllocatorImpl) TotalAllocated() uintptr {
	return atomic.LoadUintptr(&sa.totalAllocated)
}

// TotalFreed returns total bytes freed.
func (sa *SystemAllocatorImpl) TotalFreed() uintptr {
	return atomic.LoadUintptr(&sa.totalFreed)
}

// ActiveAllocations returns the number of allocations not yet freed.
func (sa *SystemAllocatorImpl) ActiveAllocations() int {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	return len(sa.allocatedSlices)
}

// Stats returns allocation statistics.
func (sa *SystemAllocatorImpl) Stats() AllocatorStats {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	return AllocatorStats{
		TotalAllocated:    atomic.LoadUintptr(&sa.totalAllocated),
		TotalFreed:        atomic.LoadUintptr(&sa.totalFreed),
		ActiveAllocations: len(sa.allocatedSlices),
		AllocationCount:   atomic.LoadUint64(&sa.allocationCount),
		FreeCount:         atomic.LoadUint64(&sa.freeCount),
		BytesInUse:        atomic.LoadUintptr(&sa.totalAllocated) - atomic.LoadUintptr(&sa.totalFreed),
	}
}

// Reset is a no-op: the system allocator has nothing to reset, entries
// are released as their callers free them.
func (sa *SystemAllocatorImpl) Reset() {}
