package services

import (
	"context"
	"testing"

	"github.com/mapaction/mapimporter/internal/catalog"
	"github.com/mapaction/mapimporter/internal/testing/fixtures"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	svc, _ := newTestService(t, catalog.NewMemory())

	in, err := svc.Inspect(fixtures.ExamplePackage(t, "New", "1"))
	require.NoError(t, err)

	assert.Equal(t, "MA001_Aptivate_Example.zip", in.Upload)
	assert.Equal(t, "MA001_Aptivate_Example.xml", in.MetadataFile)
	assert.Equal(t, exampleName, in.Record.Name)
	assert.Equal(t, exampleSeries, in.SeriesName)
	assert.Equal(t, exampleEvent, in.Event)
	require.Len(t, in.Files, 2)
	assert.Equal(t, PackageFile{Name: "MA001_Aptivate_Example-300dpi.jpeg", Format: "JPEG", Size: int64(len(fixtures.ExampleFiles()[0].Data))}, in.Files[0])
	assert.Empty(t, in.Action)
}

func TestInspect_InvalidUpload(t *testing.T) {
	svc, _ := newTestService(t, catalog.NewMemory())

	_, err := svc.Inspect(mapimporter.NewBytesUpload("x.zip", []byte("nope")))

	requireUploadError(t, err, "File is not a zip file")
}

func TestPlan(t *testing.T) {
	ctx := context.Background()
	mem := newMemoryWithEvent(t)
	svc, _ := newTestService(t, mem)

	in, err := svc.Plan(ctx, fixtures.ExamplePackage(t, "New", "1"))
	require.NoError(t, err)
	assert.Equal(t, "create", in.Action)
	assert.False(t, in.Exists)
	assert.Empty(t, datasetNames(t, mem), "planning writes nothing")

	_, err = svc.Import(ctx, fixtures.ExamplePackage(t, "New", "1"), ImportOptions{})
	require.NoError(t, err)

	in, err = svc.Plan(ctx, fixtures.ExamplePackage(t, "Correction", "1"))
	require.NoError(t, err)
	assert.Equal(t, "update", in.Action)
	assert.True(t, in.Exists)

	_, err = svc.Plan(ctx, fixtures.ExamplePackage(t, "New", "1"))
	requireUploadError(t, err, "Status is 'New' but dataset '189-ma001-v1' already exists")
}

func TestPlan_UnknownOperation(t *testing.T) {
	svc, _ := newTestService(t, catalog.NewMemory())

	_, err := svc.Plan(context.Background(), fixtures.ExamplePackage(t, "New", "1"))

	requireUploadError(t, err, "Event with operationID '00189' does not exist")
}
