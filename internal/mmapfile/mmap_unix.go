//go:build !windows

// Package mmapfile memory-maps read-only binary artifacts so lookups touch
// only the pages they need instead of paying for a full read into the heap.
package mmapfile

import (
	"os"

	"golang.org/x/sys/unix"
)

// File is a read-only memory-mapped view of a file on disk. The zero value
// is not usable; construct with Open.
type File struct {
	f    *os.File
	data []byte
}

// Open maps the whole file into memory. The returned File must be Closed
// when it is no longer needed; the returned byte slice from Bytes must not
// be retained past Close.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	size := info.Size()
	if size == 0 {
		return &File{f: f, data: nil}, nil
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, data: data}, nil
}

// Bytes returns the mapped region. Valid until Close.
func (m *File) Bytes() []byte {
	return m.data
}

// Close unmaps the region and closes the underlying file descriptor.
func (m *File) Close() error {
	var unmapErr error
	if m.data != nil {
		unmapErr = unix.Munmap(m.data)
	}
	closeErr := m.f.Close()
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
