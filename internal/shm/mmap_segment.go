package shm

import (
	"fmt"
	"os"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

// mmapSegment is a file-backed stand-in for a SysV segment, used in local
// development and CI where SysV IPC permissions are unavailable. Any number
// of processes mapping the same path share the same bytes, same as a real
// SHM segment, so the queue's lock-free protocol is unaffected.
type mmapSegment struct {
	file *os.File
	m    mmap.MMap
}

func createMmapSegment(path string, size int) (Segment, error) {
	aligned := pageAlign(size, os.Getpagesize())
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("shm: open(%s): %w", path, err)
	}
	if err := f.Truncate(int64(aligned)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: truncate(%s, %d): %w", path, aligned, err)
	}
	m, err := mmap.MapRegion(f, aligned, mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap(%s): %w", path, err)
	}
	return &mmapSegment{file: f, m: m}, nil
}

func openMmapSegment(path string, size int) (Segment, error) {
	aligned := pageAlign(size, os.Getpagesize())
	f, err := os.OpenFile(path, os.O_RDWR, 0o666)
	if err != nil {
		return nil, fmt.Errorf("shm: open(%s): %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: stat(%s): %w", path, err)
	}
	if int(info.Size()) < aligned {
		f.Close()
		return nil, fmt.Errorf("shm: %s is %d bytes, want at least %d", path, info.Size(), aligned)
	}
	m, err := mmap.MapRegion(f, aligned, mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap(%s): %w", path, err)
	}
	return &mmapSegment{file: f, m: m}, nil
}

func (s *mmapSegment) Ptr() unsafe.Pointer { return unsafe.Pointer(&s.m[0]) }
func (s *mmapSegment) Size() int           { return len(s.m) }

func (s *mmapSegment) Detach() error {
	err := s.m.Unmap()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Remove deletes the backing file. In the mmap backend this plays the role
// of shmctl(IPC_RMID): it has no effect on processes that already mapped it.
func (s *mmapSegment) Remove() error {
	return os.Remove(s.file.Name())
}
