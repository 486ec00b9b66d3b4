package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// LocalStore keeps blobs under a root directory.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory if needed. URLs returned by Put
// are baseURL joined with the key; with an empty baseURL they are file paths.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage path is empty: %w", mapimporter.ErrInvalidConfig)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", root, err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the storage directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) target(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Put copies the file at src under key.
func (s *LocalStore) Put(ctx context.Context, key string, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, err := s.target(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", key, err)
	}
	if err := copyFile(dst, src); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// URL returns the address a stored key is served from.
func (s *LocalStore) URL(key string) string {
	if s.baseURL == "" {
		dst, _ := s.target(key)
		return dst
	}
	u, err := url.JoinPath(s.baseURL, strings.Split(key, "/")...)
	if err != nil {
		return s.baseURL + "/" + key
	}
	return u
}

// Delete removes key. Missing keys are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	dst, err := s.target(key)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Open returns a reader for key. Used to serve downloads.
func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	dst, err := s.target(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(dst)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("blob %s: %w", key, mapimporter.ErrNotFound)
	}
	return f, err
}

func copyFile(dst, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

var _ mapimporter.BlobStore = (*LocalStore)(nil)
