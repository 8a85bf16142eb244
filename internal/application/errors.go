package application

import (
	"errors"
	"fmt"

	"graphdeck/internal/domain"
)

// Sentinel errors for common conditions
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidID        = errors.New("invalid ID")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrDuplicateID      = errors.New("identifier already in use")
	ErrClosed           = errors.New("persistence is closed")
	ErrSettings         = errors.New("local settings")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an entity missing from the graph store
type NotFoundError struct {
	Kind domain.EntityKind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// DuplicateIDError reports a create for an id already mirrored locally
type DuplicateIDError struct {
	Kind domain.EntityKind
	ID   int64
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("%s %d already exists", e.Kind, e.ID)
}

func (e *DuplicateIDError) Is(target error) bool {
	return target == ErrDuplicateID
}
