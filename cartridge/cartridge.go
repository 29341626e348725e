// Package cartridge holds the user-chosen cartridge image and reads it on demand.
package cartridge

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidFile is returned by Select when the picker handed over nothing.
var ErrInvalidFile = errors.New("cartridge: no file provided")

// Extensions offered by the file picker. Advisory only; nothing rejects other names.
var Extensions = []string{".gba", ".rom", ".sfc", ".smc"}

// File is a named, byte-bearing handle supplied by the host's file selection primitive.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// Image is an immutable cartridge selection: a display name plus the handle its bytes come from.
// The bytes are kept after the first successful read so every later read sees the same content.
type Image struct {
	name string
	file File

	mu   sync.Mutex
	data []byte
}

func Select(f File) (*Image, error) {
	if f == nil {
		return nil, ErrInvalidFile
	}
	return &Image{name: f.Name(), file: f}, nil
}

// Name is the display name of the source file.
func (img *Image) Name() string { return img.name }

// ReadBytes reads the whole image and returns a copy the caller may modify. The underlying error
// is returned unwrapped so its message can be shown to the user as is.
func (img *Image) ReadBytes(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img.mu.Lock()
	cached := img.data
	img.mu.Unlock()
	if cached != nil {
		return append([]byte(nil), cached...), nil
	}

	data, err := img.read(ctx)
	if err != nil {
		return nil, err
	}

	img.mu.Lock()
	if img.data == nil {
		img.data = data
	}
	cached = img.data
	img.mu.Unlock()
	return append([]byte(nil), cached...), nil
}

func (img *Image) read(ctx context.Context) ([]byte, error) {
	rc, err := img.file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(rc)
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		if r.data == nil {
			r.data = []byte{}
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func HasKnownExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range Extensions {
		if ext == known {
			return true
		}
	}
	return false
}
