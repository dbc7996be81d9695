package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// sniffLimit matches the header length mimetype inspects.
const sniffLimit = 3072

// File is a user-selected image. Each selection gets a fresh ID, so picking
// the same path twice yields two distinct files.
type File struct {
	ID          string
	Name        string
	Path        string
	Size        int64
	ContentType string

	data []byte
}

// OpenFile stats the file at path and sniffs its content type. The file is
// not kept open; Open reopens it on demand.
func OpenFile(path string) (File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return File{}, errors.New("open image: path required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("open image: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return File{}, fmt.Errorf("open image: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("open image: %s is a directory", abs)
	}
	mtype, err := mimetype.DetectFile(abs)
	if err != nil {
		return File{}, fmt.Errorf("open image: sniff %s: %w", abs, err)
	}
	return File{
		ID:          uuid.NewString(),
		Name:        filepath.Base(abs),
		Path:        abs,
		Size:        info.Size(),
		ContentType: mtype.String(),
	}, nil
}

// FromBytes wraps in-memory image data as a File.
func FromBytes(name string, data []byte) File {
	header := data
	if len(header) > sniffLimit {
		header = header[:sniffLimit]
	}
	return File{
		ID:          uuid.NewString(),
		Name:        name,
		Size:        int64(len(data)),
		ContentType: mimetype.Detect(header).String(),
		data:        data,
	}
}

// Open returns a reader over the file contents. Callers must close it.
func (f File) Open() (io.ReadCloser, error) {
	if f.data != nil {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}
	if f.Path == "" {
		return nil, errors.New("open image: file has no contents")
	}
	return os.Open(f.Path)
}

// IsImage reports whether the sniffed content type is an image type.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

// IsZero reports whether f is the empty File.
func (f File) IsZero() bool {
	return f.ID == ""
}
