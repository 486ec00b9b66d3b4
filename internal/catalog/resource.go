package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mapaction/mapimporter/internal/checksum"
	"github.com/mapaction/mapimporter/internal/record"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// ErrNameTaken is returned when a dataset or group name is already in use.
var ErrNameTaken = errors.New("name already in use")

var (
	disallowedFilenameChars = regexp.MustCompile(`[^a-z0-9. -]`)
	repeatedDashes          = regexp.MustCompile(`-+`)
)

// MungeFilename turns a file name into the form used in resource URLs:
// lower case, accents folded, spaces as dashes, everything outside
// [a-z0-9.-] dropped.
func MungeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(strings.ToLower(record.FoldAccents(name)))
	name = disallowedFilenameChars.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, " ", "-")
	return repeatedDashes.ReplaceAllString(name, "-")
}

// FormatFromName returns the upper-case extension of name without the dot.
func FormatFromName(name string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ResourcePreparer turns payload files into stored resources.
type ResourcePreparer struct {
	Store           mapimporter.BlobStore
	MaxResourceSize int64
	Checksum        checksum.Calculator
}

// NewResourcePreparer returns a preparer with the default size limit.
// store may be nil, in which case files are described but not copied.
func NewResourcePreparer(store mapimporter.BlobStore) *ResourcePreparer {
	return &ResourcePreparer{
		Store:           store,
		MaxResourceSize: mapimporter.DefaultMaxResourceSize,
		Checksum:        checksum.New(),
	}
}

// Prepare checks the file at filePath against the size limit, hashes it
// and stores it under resourceID. Returns mapimporter.ErrUploadTooLarge when
// the file exceeds the limit.
func (p *ResourcePreparer) Prepare(ctx context.Context, datasetID, resourceID, filePath string) (*mapimporter.Resource, error) {
	sum, size, err := p.Checksum.CalculateFile(filePath)
	if err != nil {
		return nil, err
	}
	if p.MaxResourceSize > 0 && size > p.MaxResourceSize {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), mapimporter.ErrUploadTooLarge)
	}

	name := filepath.Base(filePath)
	key := BlobKey(resourceID, name)
	url := path.Join("/dataset", datasetID, "resource", resourceID, "download", MungeFilename(name))
	if p.Store != nil {
		url, err = p.Store.Put(ctx, key, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", name, err)
		}
	}

	return &mapimporter.Resource{
		ID:        resourceID,
		DatasetID: datasetID,
		Name:      name,
		Format:    FormatFromName(name),
		URL:       url,
		URLType:   mapimporter.URLTypeUpload,
		Size:      size,
		SHA256:    sum,
	}, nil
}

// Discard removes the stored blob of a resource.
func (p *ResourcePreparer) Discard(ctx context.Context, res *mapimporter.Resource) error {
	if p.Store == nil {
		return nil
	}
	return p.Store.Delete(ctx, BlobKey(res.ID, res.Name))
}

// BlobKey is the storage key of a resource's content.
func BlobKey(resourceID, name string) string {
	return resourceID + "/" + MungeFilename(name)
}
