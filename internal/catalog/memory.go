package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

// Memory is a mapimporter.Catalog held entirely in process memory.
// Safe for concurrent use.
type Memory struct {
	mu            sync.RWMutex
	datasets      map[string]*mapimporter.Dataset
	groups        map[string]*mapimporter.Group
	memberships   map[string][]string // dataset id -> group ids
	relationships []mapimporter.Relationship
	vocabularies  map[string][]string
	preparer      *ResourcePreparer
	now           func() time.Time
}

// MemoryOption configures a Memory catalog.
type MemoryOption func(*Memory)

// WithBlobStore stores resource content in store.
func WithBlobStore(store mapimporter.BlobStore) MemoryOption {
	return func(m *Memory) { m.preparer.Store = store }
}

// WithMaxResourceSize overrides the per-resource size limit. Zero disables it.
func WithMaxResourceSize(n int64) MemoryOption {
	return func(m *Memory) { m.preparer.MaxResourceSize = n }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory creates an empty catalog.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		datasets:     make(map[string]*mapimporter.Dataset),
		groups:       make(map[string]*mapimporter.Group),
		memberships:  make(map[string][]string),
		vocabularies: make(map[string][]string),
		preparer:     NewResourcePreparer(nil),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetMaxResourceSize changes the per-resource size limit.
func (m *Memory) SetMaxResourceSize(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preparer.MaxResourceSize = n
}

func (m *Memory) byName(name string) *mapimporter.Dataset {
	for _, ds := range m.datasets {
		if ds.Name == name {
			return ds
		}
	}
	return nil
}

func (m *Memory) lookup(nameOrID string) *mapimporter.Dataset {
	if ds, ok := m.datasets[nameOrID]; ok {
		return ds
	}
	return m.byName(nameOrID)
}

// snapshot returns a deep copy of ds with its group names filled in.
func (m *Memory) snapshot(ds *mapimporter.Dataset) *mapimporter.Dataset {
	out := *ds
	out.ProductThemes = append([]string(nil), ds.ProductThemes...)
	out.Extras = append([]mapimporter.Extra(nil), ds.Extras...)
	out.Resources = append([]mapimporter.Resource(nil), ds.Resources...)
	out.Groups = nil
	for _, gid := range m.memberships[ds.ID] {
		if g, ok := m.groups[gid]; ok {
			out.Groups = append(out.Groups, g.Name)
		}
	}
	return &out
}

// FindDataset looks a dataset up by name or id.
func (m *Memory) FindDataset(ctx context.Context, name string) (*mapimporter.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds := m.lookup(name)
	if ds == nil {
		return nil, fmt.Errorf("dataset %q: %w", name, mapimporter.ErrNotFound)
	}
	return m.snapshot(ds), nil
}

// ListDatasets returns every dataset ordered by name.
func (m *Memory) ListDatasets(ctx context.Context) ([]mapimporter.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]mapimporter.Dataset, 0, len(m.datasets))
	for _, ds := range m.datasets {
		out = append(out, *m.snapshot(ds))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateDataset stores a new dataset under a fresh id.
func (m *Memory) CreateDataset(ctx context.Context, dataset *mapimporter.Dataset) (*mapimporter.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if dataset.Name == "" {
		return nil, fmt.Errorf("dataset name is required")
	}
	if m.byName(dataset.Name) != nil {
		return nil, fmt.Errorf("dataset %q: %w", dataset.Name, ErrNameTaken)
	}

	ds := *dataset
	ds.ID = uuid.NewString()
	ds.Resources = nil
	ds.Groups = nil
	ds.ProductThemes = append([]string(nil), dataset.ProductThemes...)
	ds.Extras = append([]mapimporter.Extra(nil), dataset.Extras...)
	ds.CreatedAt = m.now().UTC()
	ds.UpdatedAt = ds.CreatedAt
	m.datasets[ds.ID] = &ds
	return m.snapshot(&ds), nil
}

// UpdateDataset overwrites the fields of an existing dataset.
func (m *Memory) UpdateDataset(ctx context.Context, dataset *mapimporter.Dataset) (*mapimporter.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds, ok := m.datasets[dataset.ID]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", dataset.ID, mapimporter.ErrNotFound)
	}
	if other := m.byName(dataset.Name); other != nil && other.ID != ds.ID {
		return nil, fmt.Errorf("dataset %q: %w", dataset.Name, ErrNameTaken)
	}

	ds.Name = dataset.Name
	ds.Title = dataset.Title
	ds.Notes = dataset.Notes
	ds.Version = dataset.Version
	ds.Type = dataset.Type
	ds.LicenseID = dataset.LicenseID
	ds.OwnerOrg = dataset.OwnerOrg
	ds.Private = dataset.Private
	ds.ProductThemes = append([]string(nil), dataset.ProductThemes...)
	ds.Extras = append([]mapimporter.Extra(nil), dataset.Extras...)
	ds.UpdatedAt = m.now().UTC()
	return m.snapshot(ds), nil
}

// DeleteDataset removes a dataset with its resources, memberships and relationships.
func (m *Memory) DeleteDataset(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds, ok := m.datasets[id]
	if !ok {
		return fmt.Errorf("dataset %q: %w", id, mapimporter.ErrNotFound)
	}
	for i := range ds.Resources {
		if err := m.preparer.Discard(ctx, &ds.Resources[i]); err != nil {
			return err
		}
	}
	delete(m.datasets, id)
	delete(m.memberships, id)

	kept := m.relationships[:0]
	for _, rel := range m.relationships {
		if rel.Subject != id && rel.Object != id {
			kept = append(kept, rel)
		}
	}
	m.relationships = kept
	return nil
}

// CreateResource attaches the file at filePath to a dataset.
func (m *Memory) CreateResource(ctx context.Context, datasetID string, filePath string) (*mapimporter.Resource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ds, ok := m.datasets[datasetID]
	if !ok {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, mapimporter.ErrNotFound)
	}

	res, err := m.preparer.Prepare(ctx, datasetID, uuid.NewString(), filePath)
	if err != nil {
		return nil, err
	}
	res.Position = len(ds.Resources)
	ds.Resources = append(ds.Resources, *res)
	ds.UpdatedAt = m.now().UTC()
	return res, nil
}

// DeleteResource removes a resource from whichever dataset holds it.
func (m *Memory) DeleteResource(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ds := range m.datasets {
		for i := range ds.Resources {
			if ds.Resources[i].ID != id {
				continue
			}
			if err := m.preparer.Discard(ctx, &ds.Resources[i]); err != nil {
				return err
			}
			ds.Resources = append(ds.Resources[:i], ds.Resources[i+1:]...)
			for j := range ds.Resources {
				ds.Resources[j].Position = j
			}
			ds.UpdatedAt = m.now().UTC()
			return nil
		}
	}
	return fmt.Errorf("resource %q: %w", id, mapimporter.ErrNotFound)
}

// CreateGroup registers an event group.
func (m *Memory) CreateGroup(ctx context.Context, group *mapimporter.Group) (*mapimporter.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, g := range m.groups {
		if g.Name == group.Name {
			return nil, fmt.Errorf("group %q: %w", group.Name, ErrNameTaken)
		}
	}
	g := *group
	g.ID = uuid.NewString()
	m.groups[g.ID] = &g
	out := g
	return &out, nil
}

// FindGroupByOperationID returns the group named operationID.
func (m *Memory) FindGroupByOperationID(ctx context.Context, operationID string) (*mapimporter.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, g := range m.groups {
		if g.Name == operationID {
			out := *g
			return &out, nil
		}
	}
	return nil, fmt.Errorf("group %q: %w", operationID, mapimporter.ErrNotFound)
}

// AddMembership registers a dataset under a group. Repeated calls are no-ops.
func (m *Memory) AddMembership(ctx context.Context, groupID string, datasetID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.groups[groupID]; !ok {
		return fmt.Errorf("group %q: %w", groupID, mapimporter.ErrNotFound)
	}
	if _, ok := m.datasets[datasetID]; !ok {
		return fmt.Errorf("dataset %q: %w", datasetID, mapimporter.ErrNotFound)
	}
	for _, gid := range m.memberships[datasetID] {
		if gid == groupID {
			return nil
		}
	}
	m.memberships[datasetID] = append(m.memberships[datasetID], groupID)
	return nil
}

// CreateRelationship links two datasets. Repeated calls are no-ops.
func (m *Memory) CreateRelationship(ctx context.Context, subjectID string, objectID string, relType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range []string{subjectID, objectID} {
		if _, ok := m.datasets[id]; !ok {
			return fmt.Errorf("dataset %q: %w", id, mapimporter.ErrNotFound)
		}
	}
	rel := mapimporter.Relationship{Subject: subjectID, Object: objectID, Type: relType}
	for _, existing := range m.relationships {
		if existing == rel {
			return nil
		}
	}
	m.relationships = append(m.relationships, rel)
	return nil
}

// Relationships lists the relationships of a dataset (by name or id) in
// which it is the subject. Subject and Object carry dataset names.
// An empty relType matches every type.
func (m *Memory) Relationships(ctx context.Context, datasetID string, relType string) ([]mapimporter.Relationship, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds := m.lookup(datasetID)
	if ds == nil {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, mapimporter.ErrNotFound)
	}

	var out []mapimporter.Relationship
	for _, rel := range m.relationships {
		if rel.Subject != ds.ID || (relType != "" && rel.Type != relType) {
			continue
		}
		object, ok := m.datasets[rel.Object]
		if !ok {
			continue
		}
		out = append(out, mapimporter.Relationship{Subject: ds.Name, Object: object.Name, Type: rel.Type})
	}
	return out, nil
}

// SyncVocabulary replaces the tags of a vocabulary.
func (m *Memory) SyncVocabulary(ctx context.Context, name string, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.vocabularies[name] = append([]string(nil), tags...)
	return nil
}

// Vocabulary returns the tags of a vocabulary.
func (m *Memory) Vocabulary(ctx context.Context, name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags, ok := m.vocabularies[name]
	if !ok {
		return nil, fmt.Errorf("vocabulary %q: %w", name, mapimporter.ErrNotFound)
	}
	return append([]string(nil), tags...), nil
}

var (
	_ mapimporter.Catalog            = (*Memory)(nil)
	_ mapimporter.GroupStore         = (*Memory)(nil)
	_ mapimporter.VocabularyStore    = (*Memory)(nil)
	_ mapimporter.RelationshipLister = (*Memory)(nil)
	_ mapimporter.DatasetLister      = (*Memory)(nil)
)
