// Package contract holds the versioned SQL schema of the PostgreSQL catalog.
package contract

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/mapaction/mapimporter/pkg/mapimporter"
)

//go:embed catalog-v1.sql
var catalogV1SQL string

// Version represents a schema version identifier.
type Version string

const (
	V1     Version = "1"
	Latest Version = V1
)

var supportedVersions = map[Version]string{
	V1: "catalog-v1.sql",
}

// Load returns the SQL content for the specified schema version.
// If version is empty, the latest version is used.
// Returns the SQL content, the resolved version, and any error.
func Load(version string) (string, Version, error) {
	v := Version(version)
	if v == "" {
		v = Latest
	}

	switch v {
	case V1:
		return catalogV1SQL, v, nil
	default:
		return "", "", fmt.Errorf("unsupported schema version %q; supported: %v", version, SupportedVersions())
	}
}

// Apply executes the schema SQL for the specified version.
func Apply(ctx context.Context, conn mapimporter.DBConnection, version string) (Version, error) {
	sql, v, err := Load(version)
	if err != nil {
		return "", err
	}

	if _, err := conn.Exec(ctx, sql); err != nil {
		return "", fmt.Errorf("failed to apply catalog schema v%s: %w", v, err)
	}

	return v, nil
}

// Applied returns the highest schema version recorded in the database, or
// an empty Version when the schema has never been applied.
func Applied(ctx context.Context, conn mapimporter.DBConnection) (Version, error) {
	var exists bool
	if err := conn.QueryRow(ctx, "SELECT to_regclass('catalog_schema_version') IS NOT NULL").Scan(&exists); err != nil {
		return "", fmt.Errorf("failed to check catalog schema: %w", err)
	}
	if !exists {
		return "", nil
	}

	var v string
	err := conn.QueryRow(ctx, "SELECT version FROM catalog_schema_version ORDER BY version DESC LIMIT 1").Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read catalog schema version: %w", err)
	}
	return Version(v), nil
}

// SupportedVersions returns a sorted list of all supported schema versions.
func SupportedVersions() []Version {
	versions := make([]Version, 0, len(supportedVersions))
	for v := range supportedVersions {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// LatestVersion returns the current latest schema version.
func LatestVersion() Version {
	return Latest
}
