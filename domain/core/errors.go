package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Taxonomy roots. Every error produced by the pipeline wraps one of these.
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrExecution     = errors.New("execution error")
	ErrResource      = errors.New("resource error")

	// Configuration errors
	ErrUnsupportedLibrary = fmt.Errorf("%w: unsupported library", ErrConfiguration)
	ErrInvalidAllowList   = fmt.Errorf("%w: invalid import allow-list", ErrConfiguration)

	// Validation errors
	ErrGoalCount        = fmt.Errorf("%w: goal count mismatch", ErrValidation)
	ErrMalformedReply   = fmt.Errorf("%w: malformed collaborator response", ErrValidation)
	ErrNoDataset        = fmt.Errorf("%w: no dataset loaded", ErrValidation)
	ErrEmptyDataset     = fmt.Errorf("%w: dataset has no rows", ErrValidation)
	ErrUnsupportedInput = fmt.Errorf("%w: unsupported file type", ErrValidation)

	// Execution errors (per candidate, never fatal to a batch)
	ErrResultNotBound    = fmt.Errorf("%w: result variable not bound", ErrExecution)
	ErrImportNotAllowed  = fmt.Errorf("%w: import not allowed", ErrExecution)
	ErrCandidateFailed   = fmt.Errorf("%w: candidate raised", ErrExecution)
	ErrCandidateTimeout  = fmt.Errorf("%w: candidate exceeded time limit", ErrExecution)
	ErrRuntimeFailure    = fmt.Errorf("%w: runtime failure", ErrExecution)
	ErrExtractionFailure = fmt.Errorf("%w: output extraction failed", ErrExecution)

	// Resource errors
	ErrNoRaster = fmt.Errorf("%w: no raster to save", ErrResource)
)

// Error constructors with context
func NewUnsupportedLibraryError(name string) error {
	return fmt.Errorf("%w %q (supported: altair, matplotlib, seaborn, ggplot, plotly)", ErrUnsupportedLibrary, name)
}

func NewGoalCountError(want, got int) error {
	return fmt.Errorf("%w: expected %d goals, got %d", ErrGoalCount, want, got)
}

func NewImportNotAllowedError(module string) error {
	return fmt.Errorf("%w: %s", ErrImportNotAllowed, module)
}

func NewResultNotBoundError(name string) error {
	return fmt.Errorf("%w: name '%s' is not defined", ErrResultNotBound, name)
}

// Error checking helpers
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecution)
}

func IsResourceError(err error) bool {
	return errors.Is(err, ErrResource)
}
