package allocator

import (
	"fmt"
	"sync"
	"unsafe"
)

// PoolAllocatorImpl allocates from a fixed set of size-classed pools,
// falling back to SystemAllocatorImpl for anything no pool covers.
type PoolAllocatorImpl struct {
	mu       sync.RWMutex
	config   *Config
	pools    map[uintptr]*Pool
	fallback Allocator
	stats    PoolStats
}

// Pool is a free list of fixed-size byte chunks for one size class,
// grown one 64KB chunk at a time as demand requires.
type Pool struct {
	mu        sync.Mutex
	size      uintptr
	chunks    [][]byte
	freeList  []unsafe.Pointer
	chunkSize uintptr
}

// PoolStats tracks pool-level allocation counters.
type PoolStats struct {
	TotalAllocated  uintptr
	TotalFreed      uintptr
	AllocationCount uint64
	FreeCount       uint64
}

// NewPoolAllocator creates a pool allocator with one pool per size in
// poolSizes.
func NewPoolAllocator(poolSizes []uintptr, config *Config) (*PoolAllocatorImpl, error) {
	if len(poolSizes) == 0 {
		return nil, fmt.Errorf("allocator: pool sizes cannot be empty")
	}

	pools := make(map[uintptr]*Pool, len(poolSizes))

	for _, size := range poolSizes {
		alignedSize := alignUp(size, config.AlignmentSize)
		pools[alignedSize] = &Pool{
			size:      alignedSize,
			chunkSize: 64 * 1024,
		}
	}

	return &PoolAllocatorImpl{
		config:   config,
		pools:    pools,
		fallback: NewSystemAllocator(config),
	}, nil
}

// Alloc allocates size bytes from the smallest pool that fits, falling
// back to the system allocator if no pool is large enough.
func (pa *PoolAllocatorImpl) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}

	alignedSize := alignUp(size, pa.config.AlignmentSize)

	poolSize := pa.findBestPool(alignedSize)
	if poolSize == 0 {
		return pa.fallback.Alloc(size)
	}

	pa.mu.RLock()
	pool := pa.pools[poolSize]
	pa.mu.RUnlock()

	ptr := pool.alloc()
	if ptr != nil {
		pa.mu.Lock()
		pa.stats.AllocationCount++
		pa.stats.TotalAllocated += poolSize
		pa.mu.Unlock()
	}

	return ptr
}

// Free returns ptr to the pool it was allocated from, or the system
// allocator if it wasn't pool-backed.
func (pa *PoolAllocatorImpl) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	poolSize := pa.findPoolForPointer(ptr)
	if poolSize == 0 {
		pa.fallback.Free(ptr)

		return
	}

	pa.mu.RLock()
	pool := pa.pools[poolSize]
	pa.mu.RUnlock()

	pool.free(ptr)

	pa.mu.Lock()
	pa.stats.FreeCount++
	pa.stats.TotalFreed += poolSize
	pa.mu.Unlock()
}

// Realloc reallocates ptr to newSize, reusing the same pool allocation
// when the new size still fits its current pool.
func (pa *PoolAllocatorImpl) Realloc(ptr unsafe.Pointer, newSize uintptr) unsafe.Pointer {
	if ptr == nil {
		return pa.Alloc(newSize)
	}

	if newSize == 0 {
		pa.Free(ptr)

		return nil
	}

	oldPoolSize := pa.findPoolForPointer(ptr)
	newAlignedSize := alignUp(newSize, pa.config.AlignmentSize)
	newPoolSize := pa.findBestPool(newAlignedSize)

	if oldPoolSize != 0 && oldPoolSize == newPoolSize {
		return ptr
	}

	newPtr := pa.Alloc(newSize)
	if newPtr == nil {
		return nil
	}

	copySize := oldPoolSize
	if newSize < oldPoolSize {
		copySize = newSize
	}

	if copySize > 0 {
		copyMemory(newPtr, ptr, copySize)
	}

	pa.Free(ptr)

	return newPtr
}

// TotalAllocated returns total bytes allocated across all pools and the
// fallback allocator.
func (pa *PoolAllocatorImpl) TotalAllocated() uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	return pa.stats.TotalAllocated + pa.fallback.TotalAllocated()
}

// TotalFreed returns total bytes freed across all pools and the
// fallback allocator.
func (pa *PoolAllocatorImpl) TotalFreed() uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	return pa.stats.TotalFreed + pa.fallback.TotalFreed()
}

// ActiveAllocations returns the number of allocations not yet freed.
func (pa *PoolAllocatorImpl) ActiveAllocations() int {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	return int(pa.stats.AllocationCount-pa.stats.FreeCount) + pa.fallback.ActiveAllocations()
}

// Stats returns allocation statistics, pools plus fallback combined.
func (pa *PoolAllocatorImpl) Stats() AllocatorStats {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	fb := pa.fallback.Stats()

	return AllocatorStats{
		TotalAllocated:    pa.stats.TotalAllocated + fb.TotalAllocated,
		TotalFreed:        pa.stats.TotalFreed + fb.TotalFreed,
		ActiveAllocations: int(pa.stats.AllocationCount-pa.stats.FreeCount) + fb.ActiveAllocations,
		AllocationCount:   pa.stats.AllocationCount + fb.AllocationCount,
		FreeCount:         pa.stats.FreeCount + fb.FreeCount,
		BytesInUse:        (pa.stats.TotalAllocated - pa.stats.TotalFreed) + fb.BytesInUse,
	}
}

// Reset clears every pool's free list and chunks, and resets the
// fallback allocator.
func (pa *PoolAllocatorImpl) Reset() {
	pa.mu.Lock()
	defer pa.mu.Unlock()

	for _, pool := range pa.pools {
		pool.reset()
	}

	pa.stats = PoolStats{}
	pa.fallback.Reset()
}

// findBestPool finds the smallest pool that can accommodate size, or 0
// if none can.
func (pa *PoolAllocatorImpl) findBestPool(size uintptr) uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	var best uintptr

	for poolSize := range pa.pools {
		if poolSize >= size && (best == 0 || poolSize < best) {
			best = poolSize
		}
	}

	return best
}

// findPoolForPointer finds which pool ptr was allocated from, or 0 if
// it came from the fallback allocator instead.
func (pa *PoolAllocatorImpl) findPoolForPointer(ptr unsafe.Pointer) uintptr {
	pa.mu.RLock()
	defer pa.mu.RUnlock()

	for poolSize, pool := range pa.pools {
		if pool.containsPointer(ptr) {
			return poolSize
		}
	}

	return 0
}

// alloc takes a chunk from the free list, growing the pool by one chunk
// first if it's empty.
func (p *Pool) alloc() unsafe.Pointer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 {
		if err := p.allocateChunk(); err != nil {
			return nil
		}
	}

	n := len(p.freeList)
	ptr := p.freeList[n-1]
	p.freeList = p.freeList[:n-1]

	return ptr
}

// free returns ptr to this pool's free list.
func (p *Pool) free(ptr unsafe.Pointer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.freeList = append(p.freeList, ptr)
}

// allocateChunk grows the pool by one chunk, splitting it into
// size-sized objects and pushing every one onto the free list.
func (p *Pool) allocateChunk() error {
	objectsPerChunk := p.chunkSize / p.size
	if objectsPerChunk == 0 {
		objectsPerChunk = 1
	}

	actualChunkSize := objectsPerChunk * p.size

	chunk := make([]byte, actualChunkSize)
	if len(chunk) == 0 {
		return fmt.Errorf("allocator: failed to allocate chunk")
	}

	p.chunks = append(p.chunks, chunk)

	for i := uintptr(0); i < objectsPerChunk; i++ {
		p.freeList = append(p.freeList, unsafe.Pointer(&chunk[i*p.size]))
	}

	return nil
}

// containsPointer reports whether ptr falls within one of this pool's
// chunks, aligned to an object boundary.
func (p *Pool) containsPointer(ptr unsafe.Pointer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	ptrAddr := uintptr(ptr)

	for _, chunk := range p.chunks {
		chunkStart := uintptr(unsafe.Pointer(&chunk[0]))
		chunkEnd := chunkStart + uintptr(len(chunk))

		if ptrAddr >= chunkStart && ptrAddr < chunkEnd && (ptrAddr-chunkStart)%p.size == 0 {
			return true
		}
	}

	return false
}

// reset clears this pool's chunks and free list.
func (p *Pool) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.chunks = nil
	p.freeList = p.freeList[:0]
}
