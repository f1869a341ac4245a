// Package apperr defines the error kinds shared by the domain services and
// their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAssociationCardinality: the patient id set is missing, empty,
	// holds more than MaxPatients entries, or repeats an id.
	ErrInvalidAssociationCardinality = errors.New("an appointment must have between 1 and 3 distinct patients")
	ErrReferenceNotFound             = errors.New("referenced entity not found")
	ErrNotFound                      = errors.New("not found")
	ErrConflictingIdentity           = errors.New("identity already in use")
	ErrReferenceInUse                = errors.New("entity is still referenced")
	ErrInvalidInput                  = errors.New("invalid input")
)

// ReferenceError names the first referenced entity that does not exist.
type ReferenceError struct {
	Kind string
	ID   int64
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s with ID %d does not exist", e.Kind, e.ID)
}

func (e *ReferenceError) Unwrap() error { return ErrReferenceNotFound }

func MissingReference(kind string, id int64) error {
	return &ReferenceError{Kind: kind, ID: id}
}

// InUseError is returned when deleting an entity that appointments still point to.
type InUseError struct {
	Kind string
	ID   int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s %d is referenced by one or more appointments", e.Kind, e.ID)
}

func (e *InUseError) Unwrap() error { return ErrReferenceInUse }

func InUse(kind string, id int64) error {
	return &InUseError{Kind: kind, ID: id}
}

// Invalid wraps a shape validation message as ErrInvalidInput.
func Invalid(format string, args ...interface{}) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

type inputError struct{ msg string }

func (e *inputError) Error() string { return e.msg }

func (e *inputError) Unwrap() error { return ErrInvalidInput }
