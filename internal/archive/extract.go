package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zip"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// MetadataSuffix selects metadata members. Matching is case-sensitive.
const MetadataSuffix = ".xml"

// DefaultMaxExtractedSize bounds the total uncompressed size of a package.
const DefaultMaxExtractedSize int64 = 512 << 20

// MapPackage is an extracted map package.
type MapPackage struct {
	// Dir is the scratch directory holding every extracted member.
	Dir string
	// MetadataPath is the first metadata member in archive order.
	MetadataPath string
	// IgnoredMetadata lists further metadata members, which are not used.
	IgnoredMetadata []string
	// FilePaths lists every other member in archive order.
	FilePaths []string

	closeOnce sync.Once
	closeErr  error
}

// Close removes the scratch directory. Safe to call more than once.
func (p *MapPackage) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = os.RemoveAll(p.Dir)
	})
	return p.closeErr
}

type options struct {
	tempDir string
	maxSize int64
}

// Option configures extraction.
type Option func(*options)

// WithTempDir places scratch directories under dir instead of os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) {
		o.tempDir = dir
	}
}

// WithMaxExtractedSize overrides DefaultMaxExtractedSize.
func WithMaxExtractedSize(n int64) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// Extract unpacks upload into a new scratch directory.
//
// Errors: mapimporter.ErrNoUpload for a missing or empty upload,
// mapimporter.ErrNotAZipFile for anything that is not a readable ZIP,
// mapimporter.ErrInvalidEntryPath for members escaping the directory,
// mapimporter.ErrMetadataNotFound when no member ends in ".xml".
func Extract(upload mapimporter.Upload, opts ...Option) (_ *MapPackage, err error) {
	if err := mapimporter.ValidateUpload(upload); err != nil {
		return nil, err
	}

	o := options{maxSize: DefaultMaxExtractedSize}
	for _, opt := range opts {
		opt(&o)
	}

	zr, err := zip.NewReader(upload, upload.Size())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mapimporter.ErrNotAZipFile, err)
	}

	dir, err := os.MkdirTemp(o.tempDir, "*-mapactionzip")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	pkg := &MapPackage{Dir: dir}
	defer func() {
		if err != nil {
			pkg.Close()
		}
	}()

	var written int64
	for _, file := range zr.File {
		target, skip, err := entryTarget(dir, file)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}

		n, err := extractFile(file, target, o.maxSize-written)
		if err != nil {
			return nil, err
		}
		written += n

		if strings.HasSuffix(file.Name, MetadataSuffix) {
			if pkg.MetadataPath == "" {
				pkg.MetadataPath = target
			} else {
				pkg.IgnoredMetadata = append(pkg.IgnoredMetadata, target)
			}
			continue
		}
		pkg.FilePaths = append(pkg.FilePaths, target)
	}

	if pkg.MetadataPath == "" {
		return nil, mapimporter.ErrMetadataNotFound
	}
	return pkg, nil
}

// ExtractFile opens the archive at path and extracts it.
func ExtractFile(path string, opts ...Option) (*MapPackage, error) {
	upload, err := mapimporter.OpenFileUpload(path)
	if err != nil {
		return nil, err
	}
	defer upload.Close()
	return Extract(upload, opts...)
}

// entryTarget resolves the on-disk path of a member, rejecting names that
// would land outside dir. Directory members are created and skipped.
func entryTarget(dir string, file *zip.File) (string, bool, error) {
	name := filepath.FromSlash(file.Name)
	cleanName := filepath.Clean(name)
	if cleanName == "." || cleanName == "" {
		return "", true, nil
	}
	if filepath.IsAbs(cleanName) || filepath.VolumeName(cleanName) != "" ||
		cleanName == ".." || strings.HasPrefix(cleanName, ".."+string(os.PathSeparator)) {
		return "", false, fmt.Errorf("%w: %s", mapimporter.ErrInvalidEntryPath, file.Name)
	}

	target := filepath.Join(dir, cleanName)
	if !strings.HasPrefix(target, dir+string(os.PathSeparator)) {
		return "", false, fmt.Errorf("%w: %s", mapimporter.ErrInvalidEntryPath, file.Name)
	}

	if file.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", false, fmt.Errorf("create directory %s: %w", cleanName, err)
		}
		return "", true, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", false, fmt.Errorf("create directory for %s: %w", cleanName, err)
	}
	return target, false, nil
}

// extractFile copies one member to target, writing at most limit bytes.
func extractFile(file *zip.File, target string, limit int64) (int64, error) {
	rc, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", mapimporter.ErrNotAZipFile, file.Name, err)
	}
	defer rc.Close()

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", target, err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(rc, limit+1))
	if err != nil {
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) {
			return n, fmt.Errorf("%w: %s: %v", mapimporter.ErrNotAZipFile, file.Name, err)
		}
		return n, fmt.Errorf("write file %s: %w", target, err)
	}
	if n > limit {
		return n, fmt.Errorf("%w: extracted contents exceed the size limit", mapimporter.ErrUploadTooLarge)
	}
	return n, nil
}
