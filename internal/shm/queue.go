package shm

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"jotacomputing/counterbridge/internal/staticerr"
)

// Queue is a generic multi-writer multi-reader shared-memory circular
// queue. SHM layout:
//
//	[header: atomic int64 head][elem 0][elem 1]...[elem size-1]
//
// where elem = [T data][uint64 seqNo]. T must be a wire struct with a
// stable, padding-complete layout (internal/wire); the queue never
// interprets T's contents, only copies it.
//
// Multiple producers across processes may call Enqueue concurrently.
// Dequeue assumes a single consumer per attached Queue value: localTail is
// unsynchronized process-local state, matching hftbase's single-reader
// contract.
type Queue[T any] struct {
	seg       Segment
	header    *int64
	elems     uintptr
	size      int64
	mask      int64
	elemSize  uintptr
	dataSize  uintptr
	localTail int64
}

const queueHeaderSize = 8

// sizeFor returns the total byte size of a queue segment holding
// capacity elements of T, capacity rounded up to a power of two.
func sizeFor[T any](capacity int) (size int64, elemSize, dataSize uintptr) {
	size = nextPowerOf2(int64(capacity))
	var zero T
	dataSize = unsafe.Sizeof(zero)
	elemSize = dataSize + 8
	return size, elemSize, dataSize
}

// CreateQueue creates a new queue segment, or re-attaches to one that
// already exists under key (the creator re-initializes the header only
// when it actually allocated the segment).
func CreateQueue[T any](backend Backend, key Key, capacity int) (*Queue[T], error) {
	size, elemSize, dataSize := sizeFor[T](capacity)
	total := int(queueHeaderSize + uintptr(size)*elemSize)

	seg, err := CreateSegment(backend, key, total)
	if err != nil {
		return nil, fmt.Errorf("shm: create queue segment: %w: %w", err, staticerr.ErrQueueAttachFailed)
	}

	q := &Queue[T]{
		seg:      seg,
		header:   (*int64)(seg.Ptr()),
		elems:    uintptr(seg.Ptr()) + queueHeaderSize,
		size:     size,
		mask:     size - 1,
		elemSize: elemSize,
		dataSize: dataSize,
	}

	// Head starts at 1: slot 0 of a freshly zeroed segment already reads as
	// seqNo 0, which must compare empty against tail=1.
	if atomic.LoadInt64(q.header) == 0 {
		atomic.StoreInt64(q.header, 1)
	}
	q.localTail = atomic.LoadInt64(q.header)

	return q, nil
}

// OpenQueue attaches to an existing queue segment without creating it.
// The consumer's local tail starts at the current head, so a freshly
// attached reader skips history rather than replaying it.
func OpenQueue[T any](backend Backend, key Key, capacity int) (*Queue[T], error) {
	size, elemSize, dataSize := sizeFor[T](capacity)
	total := int(queueHeaderSize + uintptr(size)*elemSize)

	seg, err := OpenSegment(backend, key, total)
	if err != nil {
		return nil, fmt.Errorf("shm: open queue segment: %w: %w", err, staticerr.ErrQueueAttachFailed)
	}

	q := &Queue[T]{
		seg:      seg,
		header:   (*int64)(seg.Ptr()),
		elems:    uintptr(seg.Ptr()) + queueHeaderSize,
		size:     size,
		mask:     size - 1,
		elemSize: elemSize,
		dataSize: dataSize,
	}
	q.localTail = atomic.LoadInt64(q.header)
	return q, nil
}

// Enqueue copies value into the next slot and publishes it. Safe to call
// from any number of concurrent producers, in any process attached to the
// segment.
func (q *Queue[T]) Enqueue(value *T) {
	myHead := atomic.AddInt64(q.header, 1) - 1

	slotAddr := q.elems + uintptr(myHead&q.mask)*q.elemSize
	memCopy(unsafe.Pointer(slotAddr), unsafe.Pointer(value), q.dataSize)

	// seqNo publishes the slot; it must be written after the payload so a
	// reader observing the new seqNo also observes the new data.
	seqNoPtr := (*uint64)(unsafe.Pointer(slotAddr + q.dataSize))
	atomic.StoreUint64(seqNoPtr, uint64(myHead))
}

// Dequeue reads the next unread element into out, advancing the local
// tail. Returns false if nothing new has been published since the last
// call (the queue is "empty" from this reader's point of view).
//
// If producers have wrapped the ring more than once since the last
// Dequeue, the oldest unread entries are silently lost — the reader jumps
// straight to seqNo+1 of whatever it finds at its tail slot, same as the
// original MWMR queue's drop-oldest behavior under consumer lag.
func (q *Queue[T]) Dequeue(out *T) bool {
	slotAddr := q.elems + uintptr(q.localTail&q.mask)*q.elemSize
	seqNoPtr := (*uint64)(unsafe.Pointer(slotAddr + q.dataSize))

	seqNo := atomic.LoadUint64(seqNoPtr)
	if seqNo < uint64(q.localTail) {
		return false
	}

	memCopy(unsafe.Pointer(out), unsafe.Pointer(slotAddr), q.dataSize)
	q.localTail = int64(seqNo) + 1
	return true
}

// IsEmpty reports whether Dequeue would currently return false.
func (q *Queue[T]) IsEmpty() bool {
	slotAddr := q.elems + uintptr(q.localTail&q.mask)*q.elemSize
	seqNoPtr := (*uint64)(unsafe.Pointer(slotAddr + q.dataSize))
	return atomic.LoadUint64(seqNoPtr) < uint64(q.localTail)
}

// Head returns the current producer head (next sequence number to be
// assigned), mainly for diagnostics and tests.
func (q *Queue[T]) Head() int64 { return atomic.LoadInt64(q.header) }

// Capacity returns the queue's power-of-two element capacity.
func (q *Queue[T]) Capacity() int64 { return q.size }

// Close detaches this process's mapping without destroying the segment.
func (q *Queue[T]) Close() error { return q.seg.Detach() }

// Destroy detaches and removes the underlying segment. Only the process
// that owns the segment's lifecycle (typically the ORS) should call this.
func (q *Queue[T]) Destroy() error {
	if err := q.seg.Detach(); err != nil {
		return err
	}
	return q.seg.Remove()
}

func nextPowerOf2(v int64) int64 {
	if v <= 0 {
		return 1
	}
	if v&(v-1) == 0 {
		return v
	}
	r := int64(1)
	for r < v {
		r <<= 1
	}
	return r
}

func memCopy(dst, src unsafe.Pointer, n uintptr) {
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}
