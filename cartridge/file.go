package cartridge

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type bytesFile struct {
	name string
	data []byte
}

// Bytes wraps data received from the browser. The data is copied.
func Bytes(name string, data []byte) File {
	b := make([]byte, len(data))
	copy(b, data)
	return &bytesFile{name: name, data: b}
}

func (f *bytesFile) Name() string { return f.name }

func (f *bytesFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type diskFile struct {
	path string

	// info is the file as it was when selected; statErr is reported by Open instead.
	info    os.FileInfo
	statErr error
}

// Disk refers to a cartridge file on the local filesystem. The file is stat-ed now and read
// later; if its size or modification time differs by then, Open fails rather than handing out
// different bytes than the ones selected.
func Disk(path string) File {
	info, err := os.Stat(path)
	return &diskFile{path: path, info: info, statErr: err}
}

func (f *diskFile) Name() string { return filepath.Base(f.path) }

func (f *diskFile) Open() (io.ReadCloser, error) {
	if f.statErr != nil {
		return nil, f.statErr
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.Size() != f.info.Size() || !info.ModTime().Equal(f.info.ModTime()) {
		_ = file.Close()
		return nil, fmt.Errorf("%s changed since it was selected", f.Name())
	}
	return file, nil
}
