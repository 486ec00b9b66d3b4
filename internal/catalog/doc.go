// Package catalog provides an in-memory mapimporter.Catalog and the resource
// preparation shared by every catalog implementation.
//
// The in-memory catalog backs dry runs, the memory driver of the CLI and
// the service tests. The PostgreSQL catalog lives in catalog/postgres.
package catalog
