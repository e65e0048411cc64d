//go:build windows

package mmapfile

import "os"

// File is a read-only view of a file on disk. On windows this is a plain
// slurp rather than a true mapping; the reader API stays identical so
// callers never branch on platform.
type File struct {
	data []byte
}

// Open reads the whole file into memory.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &File{data: data}, nil
}

// Bytes returns the backing byte slice.
func (m *File) Bytes() []byte {
	return m.data
}

// Close releases the reference to the backing slice.
func (m *File) Close() error {
	m.data = nil
	return nil
}
