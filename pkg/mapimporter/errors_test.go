package mapimporter_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mapaction/mapimporter/pkg/mapimporter"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeForError_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown flag", errors.New("unknown flag --foo"), mapimporter.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x'"), mapimporter.ExitUsageError},
		{"accepts args", errors.New("accepts 1 arg(s), received 0"), mapimporter.ExitUsageError},
		{"minimum args", errors.New("requires at least 1 arg(s), only received 0"), mapimporter.ExitUsageError},
		{"required flag", errors.New("required flag \"owner-org\" not set"), mapimporter.ExitUsageError},
		{"general error", errors.New("something went wrong"), mapimporter.ExitGeneralError},
		{"nil error", nil, mapimporter.ExitSuccess},
		{"connection failed", mapimporter.ErrConnectionFailed, mapimporter.ExitConnectionError},
		{"connection refused text", errors.New("dial tcp: connection refused"), mapimporter.ExitConnectionError},
		{"invalid config", fmt.Errorf("bad storage driver: %w", mapimporter.ErrInvalidConfig), mapimporter.ExitConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapimporter.ExitCodeForError(tt.err))
		})
	}
}

func TestExitCodeForError_ImportOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not a zip", mapimporter.ErrNotAZipFile, mapimporter.ExitInvalidUpload},
		{"wrapped missing field", mapimporter.NewUploadError(&mapimporter.MissingFieldError{Field: "mapNumber"}), mapimporter.ExitInvalidUpload},
		{"too large", fmt.Errorf("attach: %w", mapimporter.ErrUploadTooLarge), mapimporter.ExitInvalidUpload},
		{"lifecycle", mapimporter.NewUploadError(&mapimporter.LifecycleConflictError{Status: "New", Name: "x", Reason: "already exists"}), mapimporter.ExitLifecycleConflict},
		{"unknown operation", &mapimporter.UnknownOperationError{OperationID: "00189"}, mapimporter.ExitUnknownOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapimporter.ExitCodeForError(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&mapimporter.XMLParseError{Message: "no element found", Line: 1, Column: 0}, "Error parsing XML: 'no element found: line 1, column 0'"},
		{&mapimporter.MissingFieldError{Field: "operationID"}, "Unable to find mandatory field 'operationID' in metadata"},
		{&mapimporter.InvalidVersionNumberError{Raw: "v1"}, "Version number 'v1' must be an integer"},
		{&mapimporter.UnknownOperationError{OperationID: "00189"}, "Event with operationID '00189' does not exist"},
		{&mapimporter.LifecycleConflictError{Status: "Correction", Name: "189-ma001-v1", Reason: "does not exist"}, "Status is 'Correction' but dataset '189-ma001-v1' does not exist"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestValidationError_ErrorSummary(t *testing.T) {
	err := mapimporter.NewUploadError(mapimporter.ErrMetadataNotFound)

	assert.Equal(t, map[string]string{"Upload": "Could not find metadata XML in zip file"}, err.ErrorSummary())
	assert.ErrorIs(t, err, mapimporter.ErrMetadataNotFound)
	assert.True(t, mapimporter.IsInvalidInput(err))
}

func TestIsInvalidInput_Infrastructure(t *testing.T) {
	assert.False(t, mapimporter.IsInvalidInput(nil))
	assert.False(t, mapimporter.IsInvalidInput(errors.New("database is down")))
	assert.False(t, mapimporter.IsInvalidInput(mapimporter.ErrNotFound))
}

func TestUserMessage_StripsWrappingContext(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: zip: not a valid zip file", mapimporter.ErrNotAZipFile), "File is not a zip file"},
		{fmt.Errorf("attach resource: %w", mapimporter.ErrUploadTooLarge), "File upload too large"},
		{fmt.Errorf("build: %w", &mapimporter.MissingFieldError{Field: "status"}), "Unable to find mandatory field 'status' in metadata"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, mapimporter.UserMessage(tt.err))
			assert.Equal(t, tt.want, mapimporter.NewUploadError(tt.err).Message)
		})
	}
}
