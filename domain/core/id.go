package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID   ID
	ChartID ID
)

func (id RunID) String() string   { return ID(id).String() }
func (id ChartID) String() string { return ID(id).String() }

// NewRunID creates a time-ordered visualization run identifier
func NewRunID() RunID { return RunID(NewID()) }

// NewChartID creates a time-ordered chart identifier
func NewChartID() ChartID { return ChartID(NewID()) }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: run ID cannot be empty", ErrValidation)
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w: run ID %q is not a UUID", ErrValidation, s)
	}
	return RunID(s), nil
}
