// Package record turns a parsed metadata tree into a DatasetRecord.
//
// Building is a pure function of the tree: no catalog or file access. The
// first violated rule stops the build; errors are not aggregated.
package record
