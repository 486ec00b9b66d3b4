// Package storage implements mapimporter.BlobStore on a local directory and
// on S3-compatible object storage.
package storage
