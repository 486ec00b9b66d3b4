// Package logging provides concrete implementations of the mapimporter.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: leveled, styled output to stderr via charmbracelet/log
//   - NullLogger: discards all messages
//   - RecordingLogger: keeps every entry in memory for assertions
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
