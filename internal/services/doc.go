// Package services orchestrates the import of map packages into a catalog.
//
// ImportService ties the pipeline together: the archive is extracted, its
// metadata parsed and normalised into a record, the record's declared status
// checked against the catalog, and the dataset then created or rewritten.
// Failures part-way through a write unwind what the call created, so the
// catalog never keeps a half-imported package.
package services
