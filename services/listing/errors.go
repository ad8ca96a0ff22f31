package listing

import (
	"fmt"
	"strings"

	"restate/services/storage"
)

// PartialUploadError aggregates every failed upload of an ingestion attempt.
type PartialUploadError struct {
	Failures []*storage.UploadError
}

func (e *PartialUploadError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d image upload(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

// Unwrap exposes the individual upload errors to errors.Is and errors.As.
func (e *PartialUploadError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// IngestError reports the state an ingestion attempt failed in.
type IngestError struct {
	State State
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingestion failed while %s: %v", e.State, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}
