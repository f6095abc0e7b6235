// Package shm implements the lock-free multi-writer multi-reader shared
// memory transport the bridge uses to exchange wire records with strategy
// and counter processes. Two interchangeable backends exist:
// a real SysV segment (sysvSegment, Linux production path) and a
// file-backed mmap segment (mmapSegment, used for local dev and tests
// without root-level IPC permissions).
package shm

import "unsafe"

// Segment is a block of memory, real or file-backed, that can host a
// queue header and its ring of elements. Both backends page-align their
// underlying allocation; Size() reflects the aligned size, not the
// requested one.
type Segment interface {
	Ptr() unsafe.Pointer
	Size() int
	// Detach releases this process's mapping without destroying the
	// segment for other attachers.
	Detach() error
	// Remove marks the segment for destruction once all attachers detach.
	// Only the creator should call this.
	Remove() error
}

// Backend selects which Segment implementation CreateSegment/OpenSegment
// use. Production deployments use BackendSysV; BackendMmap is for local
// development and CI where SysV IPC permissions are unavailable.
type Backend int

const (
	BackendSysV Backend = iota
	BackendMmap
)

// pageAlign rounds size up to the next multiple of the OS page size.
func pageAlign(size, pageSize int) int {
	if size%pageSize == 0 {
		return size
	}
	return size + pageSize - (size % pageSize)
}
