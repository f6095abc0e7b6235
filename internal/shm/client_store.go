package shm

import (
	"sync/atomic"
	"unsafe"
)

// clientStoreSize is sizeof([2]int64): the live counter plus the first
// assigned value, mirroring LocklessShmClientStore<uint64_t>.
const clientStoreSize = 16

// ClientStore is a lock-free shared counter used to hand out unique
// correlation tokens (e.g. internal order sequence numbers) across
// processes attached to the same segment.
type ClientStore struct {
	seg   Segment
	data  *int64
	first *int64
}

// CreateClientStore creates a new counter segment seeded at initial.
func CreateClientStore(backend Backend, key Key, initial int64) (*ClientStore, error) {
	seg, err := CreateSegment(backend, key, clientStoreSize)
	if err != nil {
		return nil, err
	}
	cs := &ClientStore{
		seg:   seg,
		data:  (*int64)(seg.Ptr()),
		first: (*int64)(unsafe.Pointer(uintptr(seg.Ptr()) + 8)),
	}
	atomic.StoreInt64(cs.data, initial)
	*cs.first = initial
	return cs, nil
}

// OpenClientStore attaches to an existing counter segment.
func OpenClientStore(backend Backend, key Key) (*ClientStore, error) {
	seg, err := OpenSegment(backend, key, clientStoreSize)
	if err != nil {
		return nil, err
	}
	return &ClientStore{
		seg:   seg,
		data:  (*int64)(seg.Ptr()),
		first: (*int64)(unsafe.Pointer(uintptr(seg.Ptr()) + 8)),
	}, nil
}

// Value returns the current counter value.
func (cs *ClientStore) Value() int64 { return atomic.LoadInt64(cs.data) }

// Next atomically increments the counter and returns the pre-increment
// value, the slot this caller owns.
func (cs *ClientStore) Next() int64 { return atomic.AddInt64(cs.data, 1) - 1 }

// FirstValue returns the value the store was seeded with.
func (cs *ClientStore) FirstValue() int64 { return *cs.first }

func (cs *ClientStore) Close() error { return cs.seg.Detach() }

func (cs *ClientStore) Destroy() error {
	if err := cs.seg.Detach(); err != nil {
		return err
	}
	return cs.seg.Remove()
}
