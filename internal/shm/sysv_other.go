//go:build !linux

package shm

import "fmt"

func createSysvSegment(key, size int) (Segment, error) {
	return nil, fmt.Errorf("shm: BackendSysV is only supported on linux; use BackendMmap")
}

func openSysvSegment(key, size int) (Segment, error) {
	return nil, fmt.Errorf("shm: BackendSysV is only supported on linux; use BackendMmap")
}
