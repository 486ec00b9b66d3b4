package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mapaction/mapimporter/internal/catalog"
	"github.com/mapaction/mapimporter/internal/contract"
	"github.com/mapaction/mapimporter/internal/db"
	testhelpers "github.com/mapaction/mapimporter/internal/testing"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, schema string, opts ...Option) *Catalog {
	t.Helper()
	connString := testhelpers.CreateSchema(t, testhelpers.RequireDatabase(t), schema)

	pool, err := pgxpool.New(context.Background(), connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	c := New(db.NewPoolAdapter(pool), opts...)
	v, err := c.Migrate(context.Background())
	require.NoError(t, err)
	require.Equal(t, contract.V1, v)
	return c
}

func writeFile(t *testing.T, name string, size int) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, make([]byte, size), 0o644))
	return p
}

func sampleDataset(name string) *mapimporter.Dataset {
	return &mapimporter.Dataset{
		Name:          name,
		Title:         "Central African Republic: Example Map",
		Notes:         "Example reference map.",
		Version:       1,
		LicenseID:     mapimporter.LicenseNotSpecified,
		OwnerOrg:      "mapaction",
		Private:       true,
		ProductThemes: []string{"Orientation and Reference"},
		Extras: []mapimporter.Extra{
			{Key: "ref", Value: "MA001_Aptivate_Example"},
			{Key: "scale", Value: "1: 4,000,000"},
		},
	}
}

func TestNew_PanicsOnNilConn(t *testing.T) {
	assert.Panics(t, func() { New(nil) })
}

func TestCatalog_DatasetRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t, "pgcatalog_datasets")

	created, err := c.CreateDataset(ctx, sampleDataset("ma001-v1"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := c.FindDataset(ctx, "ma001-v1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "mapaction", found.OwnerOrg)
	assert.True(t, found.Private)
	assert.Equal(t, []string{"Orientation and Reference"}, found.ProductThemes)
	assert.Equal(t, sampleDataset("").Extras, found.Extras)

	byID, err := c.FindDataset(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ma001-v1", byID.Name)

	_, err = c.CreateDataset(ctx, sampleDataset("ma001-v1"))
	assert.ErrorIs(t, err, catalog.ErrNameTaken)

	found.Name = "ma001-v2"
	found.Version = 2
	found.Extras = nil
	updated, err := c.UpdateDataset(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, "ma001-v2", updated.Name)
	assert.Equal(t, 2, updated.Version)
	assert.Empty(t, updated.Extras)

	_, err = c.FindDataset(ctx, "ma001-v1")
	assert.ErrorIs(t, err, mapimporter.ErrNotFound)

	missing := sampleDataset("nope")
	missing.ID = "no-such-id"
	_, err = c.UpdateDataset(ctx, missing)
	assert.ErrorIs(t, err, mapimporter.ErrNotFound)
}

func TestCatalog_Resources(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t, "pgcatalog_resources", WithMaxResourceSize(16))

	ds, err := c.CreateDataset(ctx, sampleDataset("ma001-v1"))
	require.NoError(t, err)

	first, err := c.CreateResource(ctx, ds.ID, writeFile(t, "MA001_Aptivate_Example-300dpi.jpeg", 8))
	require.NoError(t, err)
	second, err := c.CreateResource(ctx, ds.ID, writeFile(t, "MA001_Aptivate_Example-300dpi.pdf", 8))
	require.NoError(t, err)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, "JPEG", first.Format)

	_, err = c.CreateResource(ctx, ds.ID, writeFile(t, "big.pdf", 17))
	assert.ErrorIs(t, err, mapimporter.ErrUploadTooLarge)

	require.NoError(t, c.DeleteResource(ctx, first.ID))
	found, err := c.FindDataset(ctx, ds.ID)
	require.NoError(t, err)
	require.Len(t, found.Resources, 1)
	assert.Equal(t, second.ID, found.Resources[0].ID)
	assert.Equal(t, 0, found.Resources[0].Position)

	assert.ErrorIs(t, c.DeleteResource(ctx, first.ID), mapimporter.ErrNotFound)
	_, err = c.CreateResource(ctx, "missing", writeFile(t, "x.pdf", 1))
	assert.ErrorIs(t, err, mapimporter.ErrNotFound)
}

func TestCatalog_GroupsRelationshipsAndCascade(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t, "pgcatalog_links")

	g, err := c.CreateGroup(ctx, &mapimporter.Group{Name: "00189", Title: "Example event"})
	require.NoError(t, err)
	_, err = c.CreateGroup(ctx, &mapimporter.Group{Name: "00189"})
	assert.ErrorIs(t, err, catalog.ErrNameTaken)

	found, err := c.FindGroupByOperationID(ctx, "00189")
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)
	_, err = c.FindGroupByOperationID(ctx, "00190")
	assert.ErrorIs(t, err, mapimporter.ErrNotFound)

	child, err := c.CreateDataset(ctx, sampleDataset("ma001-v1"))
	require.NoError(t, err)
	parent, err := c.CreateDataset(ctx, sampleDataset("ma001"))
	require.NoError(t, err)

	require.NoError(t, c.AddMembership(ctx, g.ID, child.ID))
	require.NoError(t, c.AddMembership(ctx, g.ID, child.ID))
	assert.ErrorIs(t, c.AddMembership(ctx, "nope", child.ID), mapimporter.ErrNotFound)

	require.NoError(t, c.CreateRelationship(ctx, child.ID, parent.ID, mapimporter.RelationshipChildOf))
	require.NoError(t, c.CreateRelationship(ctx, child.ID, parent.ID, mapimporter.RelationshipChildOf))
	assert.ErrorIs(t, c.CreateRelationship(ctx, child.ID, "nope", mapimporter.RelationshipChildOf), mapimporter.ErrNotFound)

	rels, err := c.Relationships(ctx, "ma001-v1", mapimporter.RelationshipChildOf)
	require.NoError(t, err)
	assert.Equal(t, []mapimporter.Relationship{
		{Subject: "ma001-v1", Object: "ma001", Type: mapimporter.RelationshipChildOf},
	}, rels)

	withGroups, err := c.FindDataset(ctx, "ma001-v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"00189"}, withGroups.Groups)

	require.NoError(t, c.DeleteDataset(ctx, child.ID))
	all, err := c.ListDatasets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "ma001", all[0].Name)

	rels, err = c.Relationships(ctx, "ma001", "")
	require.NoError(t, err)
	assert.Empty(t, rels)
	assert.ErrorIs(t, c.DeleteDataset(ctx, child.ID), mapimporter.ErrNotFound)
}

func TestCatalog_Vocabulary(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t, "pgcatalog_vocab")

	_, err := c.Vocabulary(ctx, "product_themes")
	assert.ErrorIs(t, err, mapimporter.ErrNotFound)

	require.NoError(t, c.SyncVocabulary(ctx, "product_themes", []string{"Health", "Agriculture", "Health"}))
	tags, err := c.Vocabulary(ctx, "product_themes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Health", "Agriculture"}, tags)

	require.NoError(t, c.SyncVocabulary(ctx, "product_themes", []string{"Agriculture", "Logistics"}))
	tags, err = c.Vocabulary(ctx, "product_themes")
	require.NoError(t, err)
	assert.Equal(t, []string{"Agriculture", "Logistics"}, tags)
}
