// Package archive unpacks map packages into a private scratch directory.
//
// Every import gets a fresh directory. The returned MapPackage owns it and
// removes it on Close; Extract cleans up after itself on every failure path.
package archive
