// Package checksum computes content hashes of resource files.
//
// Hashes are recorded on every resource so that a correction which replaces
// resources can be audited against the originals.
//
// # Example Usage
//
//	calculator := checksum.New()
//	sum, size, err := calculator.CalculateFile(path)
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
