package mapimporter

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	dataset, err := importer.Import(ctx, upload, opts)
//	if errors.Is(err, mapimporter.ErrNotAZipFile) {
//	    // Handle a file that is not a map package
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the catalog database connection failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNotFound is returned by Catalog lookups when nothing matches.
	ErrNotFound = errors.New("not found")

	// ErrNoUpload indicates that no file (or an empty one) was supplied.
	ErrNoUpload = errors.New("You must select a file to be imported")

	// ErrNotAZipFile indicates the upload could not be opened as a ZIP container.
	ErrNotAZipFile = errors.New("File is not a zip file")

	// ErrInvalidEntryPath indicates a ZIP member that would escape the scratch directory.
	ErrInvalidEntryPath = errors.New("Invalid entry path in zip file")

	// ErrMetadataNotFound indicates the archive contains no .xml member.
	ErrMetadataNotFound = errors.New("Could not find metadata XML in zip file")

	// ErrUploadTooLarge is surfaced by the Catalog when a resource exceeds the size limit.
	ErrUploadTooLarge = errors.New("File upload too large")
)

// XMLParseError reports malformed metadata XML with the parser's position.
type XMLParseError struct {
	Message string
	Line    int
	Column  int
}

func (e *XMLParseError) Error() string {
	return fmt.Sprintf("Error parsing XML: '%s: line %d, column %d'", e.Message, e.Line, e.Column)
}

// MissingFieldError reports a mandatory mapdata element that is absent or empty.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Unable to find mandatory field '%s' in metadata", e.Field)
}

// InvalidVersionNumberError reports a versionNumber that is not an integer.
type InvalidVersionNumberError struct {
	Raw string
}

func (e *InvalidVersionNumberError) Error() string {
	return fmt.Sprintf("Version number '%s' must be an integer", e.Raw)
}

// UnknownOperationError reports an operation id with no matching event group.
type UnknownOperationError struct {
	OperationID string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("Event with operationID '%s' does not exist", e.OperationID)
}

// LifecycleConflictError reports a package status that contradicts catalog state.
type LifecycleConflictError struct {
	Status string
	Name   string
	Reason string // "already exists" or "does not exist"
}

func (e *LifecycleConflictError) Error() string {
	return fmt.Sprintf("Status is '%s' but dataset '%s' %s", e.Status, e.Name, e.Reason)
}

// UploadField is the conventional field name carried by ValidationError.
const UploadField = "upload"

// ValidationError is the single "invalid input" outcome of an import.
// Field names the request parameter at fault, Message is safe to show to users.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrorSummary returns the user-facing summary keyed by the capitalised field name.
func (e *ValidationError) ErrorSummary() map[string]string {
	key := e.Field
	if key != "" {
		key = strings.ToUpper(key[:1]) + key[1:]
	}
	return map[string]string{key: e.Message}
}

var userFacingSentinels = []error{ErrNoUpload, ErrNotAZipFile, ErrInvalidEntryPath, ErrMetadataNotFound, ErrUploadTooLarge}

// NewUploadError wraps err as a validation failure of the upload field.
// The message is the taxonomy error's own text, without wrapping context.
func NewUploadError(err error) *ValidationError {
	return &ValidationError{Field: UploadField, Message: UserMessage(err), Err: err}
}

// UserMessage returns the message of the innermost taxonomy error in err's
// chain, or err.Error() when there is none.
func UserMessage(err error) string {
	var (
		validationErr *ValidationError
		parseErr      *XMLParseError
		missingErr    *MissingFieldError
		versionErr    *InvalidVersionNumberError
		operationErr  *UnknownOperationError
		conflictErr   *LifecycleConflictError
	)
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &parseErr):
		return parseErr.Error()
	case errors.As(err, &missingErr):
		return missingErr.Error()
	case errors.As(err, &versionErr):
		return versionErr.Error()
	case errors.As(err, &operationErr):
		return operationErr.Error()
	case errors.As(err, &conflictErr):
		return conflictErr.Error()
	}
	for _, sentinel := range userFacingSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

// IsInvalidInput reports whether err is attributable to the uploaded file or
// request parameters rather than to infrastructure.
func IsInvalidInput(err error) bool {
	if err == nil {
		return false
	}
	var (
		validationErr *ValidationError
		parseErr      *XMLParseError
		missingErr    *MissingFieldError
		versionErr    *InvalidVersionNumberError
		operationErr  *UnknownOperationError
		conflictErr   *LifecycleConflictError
	)
	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &parseErr),
		errors.As(err, &missingErr),
		errors.As(err, &versionErr),
		errors.As(err, &operationErr),
		errors.As(err, &conflictErr):
		return true
	}
	for _, sentinel := range userFacingSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		conflictErr  *LifecycleConflictError
		operationErr *UnknownOperationError
	)
	switch {
	case errors.As(err, &conflictErr):
		return ExitLifecycleConflict
	case errors.As(err, &operationErr):
		return ExitUnknownOperation
	case IsInvalidInput(err):
		return ExitInvalidUpload
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	}

	errStr := err.Error()
	if strings.HasPrefix(errStr, "unknown flag") ||
		strings.HasPrefix(errStr, "unknown shorthand flag") ||
		strings.HasPrefix(errStr, "unknown command") ||
		strings.HasPrefix(errStr, "invalid argument") ||
		strings.HasPrefix(errStr, "required flag") ||
		strings.Contains(errStr, "arg(s), received") ||
		strings.Contains(errStr, "arg(s), only received") {
		return ExitUsageError
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
