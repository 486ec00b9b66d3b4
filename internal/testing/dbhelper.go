package testing

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mapaction/mapimporter/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error

	minioOnce     sync.Once
	minioEndpoint string
	minioErr      error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: MAPIMPORTER_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("MAPIMPORTER_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("MAPIMPORTER_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// RequireMinio returns the endpoint of an S3-compatible server.
// Priority: MAPIMPORTER_TEST_S3_ENDPOINT env var > auto-started testcontainer > skip test.
func RequireMinio(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	if endpoint := os.Getenv("MAPIMPORTER_TEST_S3_ENDPOINT"); endpoint != "" {
		return endpoint
	}

	minioOnce.Do(func() {
		container, err := testinfra.StartMinio(context.Background())
		if err != nil {
			minioErr = err
			return
		}
		minioEndpoint = container.Endpoint
	})
	if minioErr != nil {
		t.Skipf("MAPIMPORTER_TEST_S3_ENDPOINT not set and Docker unavailable: %v", minioErr)
	}
	return minioEndpoint
}

// CreateSchema creates an isolated schema for one test and returns a
// connection string whose search_path points at it. The schema is dropped
// when the test ends.
func CreateSchema(t *testing.T, connString, schema string) string {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for schema creation: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema)); err != nil {
		t.Fatalf("Failed to create schema %s: %v", schema, err)
	}

	t.Cleanup(func() {
		cleanup, err := pgxpool.New(context.Background(), connString)
		if err != nil {
			t.Logf("Warning: Failed to connect for cleanup: %v", err)
			return
		}
		defer cleanup.Close()
		if _, err := cleanup.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", schema)); err != nil {
			t.Logf("Warning: Failed to drop schema %s: %v", schema, err)
		}
	})

	sep := "?"
	if strings.Contains(connString, "?") {
		sep = "&"
	}
	return connString + sep + "search_path=" + schema
}
