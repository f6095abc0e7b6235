//go:build linux

package shm

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// sysvSegment is a real SysV shared-memory attachment (shmget/shmat/shmdt),
// the production transport for the MWMR queues.
type sysvSegment struct {
	id   int
	data []byte
}

func createSysvSegment(key, size int) (Segment, error) {
	aligned := pageAlign(size, os.Getpagesize())
	id, err := unix.SysvShmGet(key, aligned, unix.IPC_CREAT|unix.IPC_EXCL|0o666)
	if err != nil {
		if err == unix.EEXIST {
			id, err = unix.SysvShmGet(key, aligned, unix.IPC_CREAT|0o666)
		}
		if err != nil {
			return nil, fmt.Errorf("shm: shmget(key=0x%x, size=%d, create): %w", key, aligned, err)
		}
	}
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: shmat(id=%d): %w", id, err)
	}
	return &sysvSegment{id: id, data: data}, nil
}

func openSysvSegment(key, size int) (Segment, error) {
	aligned := pageAlign(size, os.Getpagesize())
	id, err := unix.SysvShmGet(key, aligned, 0o666)
	if err != nil {
		return nil, fmt.Errorf("shm: shmget(key=0x%x, size=%d, attach): %w", key, aligned, err)
	}
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: shmat(id=%d): %w", id, err)
	}
	return &sysvSegment{id: id, data: data}, nil
}

func (s *sysvSegment) Ptr() unsafe.Pointer { return unsafe.Pointer(&s.data[0]) }
func (s *sysvSegment) Size() int           { return len(s.data) }

func (s *sysvSegment) Detach() error {
	return unix.SysvShmDetach(s.data)
}

func (s *sysvSegment) Remove() error {
	_, err := unix.SysvShmCtl(s.id, unix.IPC_RMID, nil)
	return err
}
