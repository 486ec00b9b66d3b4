package mapimporter

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Import completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitConfigError       = 10 // Invalid configuration
	ExitConnectionError   = 11 // Failed to connect to the catalog database
	ExitInvalidUpload     = 20 // The map package was rejected
	ExitLifecycleConflict = 21 // Status contradicts the existing catalog state
	ExitUnknownOperation  = 22 // No event group for the operation id
)

const (
	// LicenseNotSpecified is applied to every imported dataset; map metadata
	// never carries licence information.
	LicenseNotSpecified = "notspecified"

	// RelationshipChildOf links a map version to its parent series dataset.
	RelationshipChildOf = "child_of"

	// URLTypeUpload marks resources whose content lives in the blob store.
	URLTypeUpload = "upload"

	// OperationIDWidth is the zero-padded width of event group names.
	OperationIDWidth = 5

	// TemporaryNamePrefix prefixes the placeholder name a dataset carries
	// while its resources are being attached.
	TemporaryNamePrefix = "tmp-"

	// DefaultMaxResourceSize caps a single resource upload (10 MiB).
	DefaultMaxResourceSize int64 = 10 << 20

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// DefaultForceApprovalCountdown is how long --force waits before a
	// destructive operation proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultImportTimeout bounds a whole CLI import.
	DefaultImportTimeout = 3 * time.Minute
)
