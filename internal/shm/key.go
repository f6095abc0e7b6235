package shm

import "fmt"

// Key identifies a segment independent of backend: SysVKey is used with
// BackendSysV, Path with BackendMmap. Config loads one or the other
// depending on the configured backend.
type Key struct {
	SysVKey int
	Path    string
}

// CreateSegment creates (or re-attaches to, if already present) the named
// segment, sized for size bytes rounded to the page boundary.
func CreateSegment(backend Backend, key Key, size int) (Segment, error) {
	switch backend {
	case BackendSysV:
		return createSysvSegment(key.SysVKey, size)
	case BackendMmap:
		return createMmapSegment(key.Path, size)
	default:
		return nil, fmt.Errorf("shm: unknown backend %d", backend)
	}
}

// OpenSegment attaches to an existing segment. size must match (or be
// smaller than) the size the creator used.
func OpenSegment(backend Backend, key Key, size int) (Segment, error) {
	switch backend {
	case BackendSysV:
		return openSysvSegment(key.SysVKey, size)
	case BackendMmap:
		return openMmapSegment(key.Path, size)
	default:
		return nil, fmt.Errorf("shm: unknown backend %d", backend)
	}
}
