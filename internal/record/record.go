package record

import (
	"fmt"
	"strings"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// DatasetRecord is the normalized form of one map package's metadata.
type DatasetRecord struct {
	Title         string              `json:"title"`
	Name          string              `json:"name"`
	Version       int                 `json:"version"`
	Notes         string              `json:"notes"`
	ProductThemes []string            `json:"product_themes"`
	DatasetType   string              `json:"type,omitempty"`
	Extras        []mapimporter.Extra `json:"extras"`
	LicenseID     string              `json:"license_id"`
	Status        string              `json:"status,omitempty"`
	OperationID   string              `json:"operation_id"`
	MapNumber     string              `json:"map_number"`
}

// PaddedOperationID returns the operation id left-padded with zeros to the
// width used for event group names.
func (r *DatasetRecord) PaddedOperationID() string {
	return PadOperationID(r.OperationID)
}

// SeriesName returns the name of the parent series dataset: Name without its
// trailing version component.
func (r *DatasetRecord) SeriesName() string {
	return strings.TrimSuffix(r.Name, fmt.Sprintf("-v%d", r.Version))
}

// RequireStatus fails with *mapimporter.MissingFieldError when no status was given.
func (r *DatasetRecord) RequireStatus() error {
	if strings.TrimSpace(r.Status) == "" {
		return &mapimporter.MissingFieldError{Field: FieldStatus}
	}
	return nil
}

// Dataset returns the catalog fields carried by the record.
func (r *DatasetRecord) Dataset() *mapimporter.Dataset {
	themes := make([]string, len(r.ProductThemes))
	copy(themes, r.ProductThemes)
	extras := make([]mapimporter.Extra, len(r.Extras))
	copy(extras, r.Extras)

	return &mapimporter.Dataset{
		Name:          r.Name,
		Title:         r.Title,
		Notes:         r.Notes,
		Version:       r.Version,
		Type:          r.DatasetType,
		LicenseID:     r.LicenseID,
		ProductThemes: themes,
		Extras:        extras,
	}
}

// PadOperationID left-pads id with zeros to mapimporter.OperationIDWidth.
// Longer ids are returned unchanged.
func PadOperationID(id string) string {
	if len(id) >= mapimporter.OperationIDWidth {
		return id
	}
	return strings.Repeat("0", mapimporter.OperationIDWidth-len(id)) + id
}
