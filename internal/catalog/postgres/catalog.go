// Package postgres stores the catalog in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mapaction/mapimporter/internal/catalog"
	"github.com/mapaction/mapimporter/internal/contract"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

const uniqueViolation = "23505"

const datasetColumns = `id, name, title, notes, version, dataset_type, license_id,
	owner_org, private, product_themes, extras, created_at, updated_at`

// Catalog is a mapimporter.Catalog backed by the tables of the contract schema.
type Catalog struct {
	conn     mapimporter.DBConnection
	preparer *catalog.ResourcePreparer
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithBlobStore stores resource content in store.
func WithBlobStore(store mapimporter.BlobStore) Option {
	return func(c *Catalog) { c.preparer.Store = store }
}

// WithMaxResourceSize overrides the per-resource size limit. Zero disables it.
func WithMaxResourceSize(n int64) Option {
	return func(c *Catalog) { c.preparer.MaxResourceSize = n }
}

// New creates a Catalog on conn. Panics if conn is nil.
func New(conn mapimporter.DBConnection, opts ...Option) *Catalog {
	if conn == nil {
		panic("conn cannot be nil")
	}
	c := &Catalog{conn: conn, preparer: catalog.NewResourcePreparer(nil)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Conn returns the connection the catalog runs on.
func (c *Catalog) Conn() mapimporter.DBConnection { return c.conn }

// Migrate applies the latest catalog schema.
func (c *Catalog) Migrate(ctx context.Context) (contract.Version, error) {
	return contract.Apply(ctx, c.conn, "")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilExtras(e []mapimporter.Extra) []mapimporter.Extra {
	if e == nil {
		return []mapimporter.Extra{}
	}
	return e
}

func scanDataset(row mapimporter.Row) (*mapimporter.Dataset, error) {
	var ds mapimporter.Dataset
	err := row.Scan(&ds.ID, &ds.Name, &ds.Title, &ds.Notes, &ds.Version, &ds.Type, &ds.LicenseID,
		&ds.OwnerOrg, &ds.Private, &ds.ProductThemes, &ds.Extras, &ds.CreatedAt, &ds.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ds, nil
}

// load fills in the resources and groups of ds.
func (c *Catalog) load(ctx context.Context, ds *mapimporter.Dataset) error {
	rows, err := c.conn.Query(ctx, `
		SELECT id, dataset_id, name, format, url, url_type, size, sha256, position
		FROM catalog_resource WHERE dataset_id = $1 ORDER BY position`, ds.ID)
	if err != nil {
		return fmt.Errorf("failed to list resources of %s: %w", ds.Name, err)
	}
	ds.Resources = nil
	for rows.Next() {
		var r mapimporter.Resource
		if err := rows.Scan(&r.ID, &r.DatasetID, &r.Name, &r.Format, &r.URL, &r.URLType, &r.Size, &r.SHA256, &r.Position); err != nil {
			rows.Close()
			return fmt.Errorf("failed to read resource of %s: %w", ds.Name, err)
		}
		ds.Resources = append(ds.Resources, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list resources of %s: %w", ds.Name, err)
	}

	rows, err = c.conn.Query(ctx, `
		SELECT g.name FROM catalog_membership m JOIN catalog_group g ON g.id = m.group_id
		WHERE m.dataset_id = $1 ORDER BY g.name`, ds.ID)
	if err != nil {
		return fmt.Errorf("failed to list groups of %s: %w", ds.Name, err)
	}
	defer rows.Close()
	ds.Groups = nil
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to read group of %s: %w", ds.Name, err)
		}
		ds.Groups = append(ds.Groups, name)
	}
	return rows.Err()
}

// FindDataset looks a dataset up by name or id.
func (c *Catalog) FindDataset(ctx context.Context, name string) (*mapimporter.Dataset, error) {
	ds, err := scanDataset(c.conn.QueryRow(ctx,
		`SELECT `+datasetColumns+` FROM catalog_dataset WHERE name = $1 OR id = $1
		ORDER BY (name = $1) DESC LIMIT 1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("dataset %q: %w", name, mapimporter.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dataset %q: %w", name, err)
	}
	if err := c.load(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ListDatasets returns every dataset ordered by name.
func (c *Catalog) ListDatasets(ctx context.Context) ([]mapimporter.Dataset, error) {
	rows, err := c.conn.Query(ctx, `SELECT `+datasetColumns+` FROM catalog_dataset ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	var out []mapimporter.Dataset
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}
		out = append(out, *ds)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	for i := range out {
		if err := c.load(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CreateDataset stores a new dataset under a fresh id.
func (c *Catalog) CreateDataset(ctx context.Context, dataset *mapimporter.Dataset) (*mapimporter.Dataset, error) {
	if dataset.Name == "" {
		return nil, fmt.Errorf("dataset name is required")
	}
	ds, err := scanDataset(c.conn.QueryRow(ctx, `
		INSERT INTO catalog_dataset (id, name, title, notes, version, dataset_type, license_id,
			owner_org, private, product_themes, extras)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+datasetColumns,
		uuid.NewString(), dataset.Name, dataset.Title, dataset.Notes, dataset.Version, dataset.Type,
		dataset.LicenseID, dataset.OwnerOrg, dataset.Private,
		nonNilStrings(dataset.ProductThemes), nonNilExtras(dataset.Extras)))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("dataset %q: %w", dataset.Name, catalog.ErrNameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset %q: %w", dataset.Name, err)
	}
	return ds, nil
}

// UpdateDataset overwrites the fields of an existing dataset.
func (c *Catalog) UpdateDataset(ctx context.Context, dataset *mapimporter.Dataset) (*mapimporter.Dataset, error) {
	ds, err := scanDataset(c.conn.QueryRow(ctx, `
		UPDATE catalog_dataset SET name = $2, title = $3, notes = $4, version = $5,
			dataset_type = $6, license_id = $7, owner_org = $8, private = $9,
			product_themes = $10, extras = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+datasetColumns,
		dataset.ID, dataset.Name, dataset.Title, dataset.Notes, dataset.Version, dataset.Type,
		dataset.LicenseID, dataset.OwnerOrg, dataset.Private,
		nonNilStrings(dataset.ProductThemes), nonNilExtras(dataset.Extras)))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, fmt.Errorf("dataset %q: %w", dataset.ID, mapimporter.ErrNotFound)
	case isUniqueViolation(err):
		return nil, fmt.Errorf("dataset %q: %w", dataset.Name, catalog.ErrNameTaken)
	case err != nil:
		return nil, fmt.Errorf("failed to update dataset %q: %w", dataset.Name, err)
	}
	if err := c.load(ctx, ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// DeleteDataset removes a dataset. Resources, memberships and
// relationships go with it through foreign key cascades.
func (c *Catalog) DeleteDataset(ctx context.Context, id string) error {
	ds, err := c.FindDataset(ctx, id)
	if err != nil {
		return err
	}
	if ds.ID != id {
		return fmt.Errorf("dataset %q: %w", id, mapimporter.ErrNotFound)
	}
	if _, err := c.conn.Exec(ctx, `DELETE FROM catalog_dataset WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete dataset %q: %w", ds.Name, err)
	}
	for i := range ds.Resources {
		if err := c.preparer.Discard(ctx, &ds.Resources[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateResource attaches the file at filePath to a dataset.
func (c *Catalog) CreateResource(ctx context.Context, datasetID string, filePath string) (*mapimporter.Resource, error) {
	var exists bool
	if err := c.conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalog_dataset WHERE id = $1)`, datasetID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check dataset %q: %w", datasetID, err)
	}
	if !exists {
		return nil, fmt.Errorf("dataset %q: %w", datasetID, mapimporter.ErrNotFound)
	}

	res, err := c.preparer.Prepare(ctx, datasetID, uuid.NewString(), filePath)
	if err != nil {
		return nil, err
	}

	err = c.conn.QueryRow(ctx, `
		INSERT INTO catalog_resource (id, dataset_id, name, format, url, url_type, size, sha256, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM catalog_resource WHERE dataset_id = $2))
		RETURNING position`,
		res.ID, res.DatasetID, res.Name, res.Format, res.URL, res.URLType, res.Size, res.SHA256,
	).Scan(&res.Position)
	if err != nil {
		_ = c.preparer.Discard(ctx, res)
		return nil, fmt.Errorf("failed to create resource %s: %w", res.Name, err)
	}
	return res, nil
}

// DeleteResource removes a resource and closes the gap in its dataset's ordering.
func (c *Catalog) DeleteResource(ctx context.Context, id string) error {
	res := mapimporter.Resource{ID: id}
	err := c.conn.QueryRow(ctx,
		`DELETE FROM catalog_resource WHERE id = $1 RETURNING dataset_id, name, position`, id,
	).Scan(&res.DatasetID, &res.Name, &res.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("resource %q: %w", id, mapimporter.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to delete resource %q: %w", id, err)
	}

	if _, err := c.conn.Exec(ctx,
		`UPDATE catalog_resource SET position = position - 1 WHERE dataset_id = $1 AND position > $2`,
		res.DatasetID, res.Position); err != nil {
		return fmt.Errorf("failed to reorder resources of %q: %w", res.DatasetID, err)
	}
	return c.preparer.Discard(ctx, &res)
}

// CreateGroup registers an event group.
func (c *Catalog) CreateGroup(ctx context.Context, group *mapimporter.Group) (*mapimporter.Group, error) {
	out := *group
	out.ID = uuid.NewString()
	_, err := c.conn.Exec(ctx, `INSERT INTO catalog_group (id, name, title) VALUES ($1, $2, $3)`,
		out.ID, out.Name, out.Title)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("group %q: %w", group.Name, catalog.ErrNameTaken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create group %q: %w", group.Name, err)
	}
	return &out, nil
}

// FindGroupByOperationID returns the group named operationID.
func (c *Catalog) FindGroupByOperationID(ctx context.Context, operationID string) (*mapimporter.Group, error) {
	var g mapimporter.Group
	err := c.conn.QueryRow(ctx, `SELECT id, name, title FROM catalog_group WHERE name = $1`, operationID).
		Scan(&g.ID, &g.Name, &g.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("group %q: %w", operationID, mapimporter.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group %q: %w", operationID, err)
	}
	return &g, nil
}

// AddMembership registers a dataset under a group. Repeated calls are no-ops.
func (c *Catalog) AddMembership(ctx context.Context, groupID string, datasetID string) error {
	tag, err := c.conn.Exec(ctx, `
		INSERT INTO catalog_membership (group_id, dataset_id)
		SELECT g.id, d.id FROM catalog_group g, catalog_dataset d
		WHERE g.id = $1 AND d.id = $2
		ON CONFLICT DO NOTHING`, groupID, datasetID)
	if err != nil {
		return fmt.Errorf("failed to add %q to group %q: %w", datasetID, groupID, err)
	}
	if tag.RowsAffected() == 0 {
		return c.membershipTargetsExist(ctx, groupID, datasetID)
	}
	return nil
}

func (c *Catalog) membershipTargetsExist(ctx context.Context, groupID, datasetID string) error {
	var groupExists, datasetExists bool
	err := c.conn.QueryRow(ctx, `SELECT
		EXISTS (SELECT 1 FROM catalog_group WHERE id = $1),
		EXISTS (SELECT 1 FROM catalog_dataset WHERE id = $2)`, groupID, datasetID).
		Scan(&groupExists, &datasetExists)
	switch {
	case err != nil:
		return fmt.Errorf("failed to check membership targets: %w", err)
	case !groupExists:
		return fmt.Errorf("group %q: %w", groupID, mapimporter.ErrNotFound)
	case !datasetExists:
		return fmt.Errorf("dataset %q: %w", datasetID, mapimporter.ErrNotFound)
	}
	return nil
}

// CreateRelationship links two datasets. Repeated calls are no-ops.
func (c *Catalog) CreateRelationship(ctx context.Context, subjectID string, objectID string, relType string) error {
	tag, err := c.conn.Exec(ctx, `
		INSERT INTO catalog_relationship (subject_id, object_id, rel_type)
		SELECT s.id, o.id, $3::text FROM catalog_dataset s, catalog_dataset o
		WHERE s.id = $1 AND o.id = $2
		ON CONFLICT DO NOTHING`, subjectID, objectID, relType)
	if err != nil {
		return fmt.Errorf("failed to link %q to %q: %w", subjectID, objectID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var n int
	if err := c.conn.QueryRow(ctx,
		`SELECT count(*) FROM catalog_dataset WHERE id IN ($1, $2)`, subjectID, objectID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check relationship targets: %w", err)
	}
	want := 2
	if subjectID == objectID {
		want = 1
	}
	if n < want {
		return fmt.Errorf("relationship %q -> %q: %w", subjectID, objectID, mapimporter.ErrNotFound)
	}
	return nil
}

// Relationships lists the relationships of a dataset (by name or id) in
// which it is the subject. Subject and Object carry dataset names.
// An empty relType matches every type.
func (c *Catalog) Relationships(ctx context.Context, datasetID string, relType string) ([]mapimporter.Relationship, error) {
	ds, err := c.FindDataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	rows, err := c.conn.Query(ctx, `
		SELECT o.name, r.rel_type FROM catalog_relationship r
		JOIN catalog_dataset o ON o.id = r.object_id
		WHERE r.subject_id = $1 AND ($2 = '' OR r.rel_type = $2)
		ORDER BY o.name, r.rel_type`, ds.ID, relType)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships of %s: %w", ds.Name, err)
	}
	defer rows.Close()

	var out []mapimporter.Relationship
	for rows.Next() {
		rel := mapimporter.Relationship{Subject: ds.Name}
		if err := rows.Scan(&rel.Object, &rel.Type); err != nil {
			return nil, fmt.Errorf("failed to read relationship of %s: %w", ds.Name, err)
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

// SyncVocabulary replaces the tags of a vocabulary.
func (c *Catalog) SyncVocabulary(ctx context.Context, name string, tags []string) error {
	unique := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if !seen[tag] {
			seen[tag] = true
			unique = append(unique, tag)
		}
	}

	if _, err := c.conn.Exec(ctx, `
		INSERT INTO catalog_vocabulary_tag (vocabulary, tag, position)
		SELECT $1::text, t.tag, t.ord::integer FROM unnest($2::text[]) WITH ORDINALITY AS t(tag, ord)
		ON CONFLICT (vocabulary, tag) DO UPDATE SET position = EXCLUDED.position`, name, unique); err != nil {
		return fmt.Errorf("failed to sync vocabulary %s: %w", name, err)
	}
	if _, err := c.conn.Exec(ctx,
		`DELETE FROM catalog_vocabulary_tag WHERE vocabulary = $1 AND NOT (tag = ANY($2::text[]))`,
		name, unique); err != nil {
		return fmt.Errorf("failed to prune vocabulary %s: %w", name, err)
	}
	return nil
}

// Vocabulary returns the tags of a vocabulary in sync order.
func (c *Catalog) Vocabulary(ctx context.Context, name string) ([]string, error) {
	rows, err := c.conn.Query(ctx,
		`SELECT tag FROM catalog_vocabulary_tag WHERE vocabulary = $1 ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", name, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("failed to read vocabulary %s: %w", name, err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", name, err)
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("vocabulary %q: %w", name, mapimporter.ErrNotFound)
	}
	return tags, nil
}

var (
	_ mapimporter.Catalog            = (*Catalog)(nil)
	_ mapimporter.GroupStore         = (*Catalog)(nil)
	_ mapimporter.VocabularyStore    = (*Catalog)(nil)
	_ mapimporter.RelationshipLister = (*Catalog)(nil)
	_ mapimporter.DatasetLister      = (*Catalog)(nil)
)
