package mapimporter

import (
	"context"
	"time"
)

// Extra is one free-form metadata entry attached to a dataset.
type Extra struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dataset is the catalog-side record a map package is imported into.
type Dataset struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Title         string     `json:"title"`
	Notes         string     `json:"notes"`
	Version       int        `json:"version"`
	Type          string     `json:"type,omitempty"`
	LicenseID     string     `json:"license_id"`
	OwnerOrg      string     `json:"owner_org,omitempty"`
	Private       bool       `json:"private"`
	ProductThemes []string   `json:"product_themes,omitempty"`
	Extras        []Extra    `json:"extras"`
	Resources     []Resource `json:"resources"`
	Groups        []string   `json:"groups,omitempty"`
	CreatedAt     time.Time  `json:"metadata_created"`
	UpdatedAt     time.Time  `json:"metadata_modified"`
}

// Resource is a payload file attached to a dataset.
type Resource struct {
	ID        string `json:"id"`
	DatasetID string `json:"package_id"`
	Name      string `json:"name"`
	Format    string `json:"format"`
	URL       string `json:"url"`
	URLType   string `json:"url_type"`
	Size      int64  `json:"size"`
	SHA256    string `json:"hash"`
	Position  int    `json:"position"`
}

// Group is an event (operation) that datasets are registered under.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Relationship is a directed link between two datasets.
type Relationship struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Type    string `json:"type"`
}

// Catalog is the host cataloguing system the importer writes to.
//
// Lookups return ErrNotFound (possibly wrapped) when nothing matches.
// CreateResource returns ErrUploadTooLarge when the file exceeds the
// catalog's size limit. Implementations are used from a single import at a
// time; callers serialise imports per operation id.
type Catalog interface {
	FindDataset(ctx context.Context, name string) (*Dataset, error)
	CreateDataset(ctx context.Context, dataset *Dataset) (*Dataset, error)
	// UpdateDataset overwrites the scalar fields, themes and extras of the
	// dataset identified by dataset.ID, including its name. Resources and
	// group memberships are left alone.
	UpdateDataset(ctx context.Context, dataset *Dataset) (*Dataset, error)
	DeleteDataset(ctx context.Context, id string) error

	CreateResource(ctx context.Context, datasetID string, filePath string) (*Resource, error)
	DeleteResource(ctx context.Context, id string) error

	FindGroupByOperationID(ctx context.Context, operationID string) (*Group, error)
	AddMembership(ctx context.Context, groupID string, datasetID string) error
	CreateRelationship(ctx context.Context, subjectID string, objectID string, relType string) error
}

// GroupStore is implemented by catalogs that can register event groups.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *Group) (*Group, error)
}

// VocabularyStore is implemented by catalogs that persist tag vocabularies.
type VocabularyStore interface {
	SyncVocabulary(ctx context.Context, name string, tags []string) error
	Vocabulary(ctx context.Context, name string) ([]string, error)
}

// RelationshipLister is implemented by catalogs that can report relationships.
type RelationshipLister interface {
	Relationships(ctx context.Context, datasetID string, relType string) ([]Relationship, error)
}

// DatasetLister is implemented by catalogs that can enumerate datasets.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]Dataset, error)
}

// BlobStore keeps the bytes of uploaded resources.
type BlobStore interface {
	// Put copies the file at path under key and returns the URL it is served from.
	Put(ctx context.Context, key string, path string) (string, error)
	Delete(ctx context.Context, key string) error
}
