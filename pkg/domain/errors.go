package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is matching across the engine error taxonomy.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
)

// ErrDefinitionNotFound is returned by stores when a definition ID is unknown.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrInstanceNotFound is returned by stores when an instance ID is unknown.
var ErrInstanceNotFound = errors.New("instance not found")

// ValidationError reports input that violates a definition or execution rule.
// Reasons are kept in the order the rules were checked.
type ValidationError struct {
	Summary string
	Reasons []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Summary, strings.Join(e.Reasons, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Entity names the kind of record a NotFoundError refers to.
type Entity string

const (
	EntityDefinition Entity = "definition"
	EntityInstance   Entity = "instance"
	EntityAction     Entity = "action"
)

// NotFoundError reports a reference to an entity ID that does not exist.
type NotFoundError struct {
	Entity Entity
	ID     string
}

func (e *NotFoundError) Error() string {
	switch e.Entity {
	case EntityDefinition:
		return fmt.Sprintf("Workflow definition '%s' not found", e.ID)
	case EntityInstance:
		return fmt.Sprintf("Workflow instance '%s' not found", e.ID)
	case EntityAction:
		return fmt.Sprintf("Action '%s' not found in workflow definition", e.ID)
	default:
		return fmt.Sprintf("%s '%s' not found", e.Entity, e.ID)
	}
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InvalidStateError signals stored data that breaks an invariant the validators guarantee,
// such as a definition without an initial state. It indicates corruption, not caller misuse.
type InvalidStateError struct {
	DefinitionID string
	Reason       string
}

func (e *InvalidStateError) Error() string { return e.Reason }

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
