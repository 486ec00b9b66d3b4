package mapimporter

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Upload is a named, randomly readable byte source holding a map package.
// ZIP directories live at the end of the file, so sequential readers are not enough.
type Upload interface {
	Name() string
	Size() int64
	io.ReaderAt
}

// ValidateUpload checks that an upload is present and non-empty.
// Nil pointers of the upload types in this package count as absent.
func ValidateUpload(u Upload) error {
	if isNilUpload(u) || u.Size() <= 0 {
		return ErrNoUpload
	}
	return nil
}

func isNilUpload(u Upload) bool {
	switch v := u.(type) {
	case nil:
		return true
	case *BytesUpload:
		return v == nil || v.Reader == nil
	case *FileUpload:
		return v == nil || v.File == nil
	case *ReaderUpload:
		return v == nil || v.ReaderAt == nil
	}
	return false
}

// BytesUpload is an in-memory upload.
type BytesUpload struct {
	name string
	*bytes.Reader
}

// NewBytesUpload wraps data as an Upload named name.
func NewBytesUpload(name string, data []byte) *BytesUpload {
	return &BytesUpload{name: name, Reader: bytes.NewReader(data)}
}

// Name returns the original file name.
func (u *BytesUpload) Name() string { return u.name }

// FileUpload is an upload backed by a file on disk.
// Callers must Close it.
type FileUpload struct {
	*os.File
	size int64
}

// OpenFileUpload opens the file at path as an Upload.
func OpenFileUpload(path string) (*FileUpload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrNoUpload)
	}
	return &FileUpload{File: f, size: info.Size()}, nil
}

// Name returns the base name of the file.
func (u *FileUpload) Name() string { return filepath.Base(u.File.Name()) }

// Size returns the file size captured when it was opened.
func (u *FileUpload) Size() int64 { return u.size }

// ReaderUpload adapts any io.ReaderAt with a known size, such as a
// multipart.File, into an Upload.
type ReaderUpload struct {
	io.ReaderAt
	name string
	size int64
}

// NewReaderUpload wraps r as an Upload.
func NewReaderUpload(name string, r io.ReaderAt, size int64) *ReaderUpload {
	return &ReaderUpload{ReaderAt: r, name: name, size: size}
}

// Name returns the original file name.
func (u *ReaderUpload) Name() string { return u.name }

// Size returns the declared size.
func (u *ReaderUpload) Size() int64 { return u.size }
