package hierarchy

import "errors"

var (
	// ErrInvalidEntity is returned when a handle is stale or null.
	ErrInvalidEntity = errors.New("hierarchy: invalid entity")
	// ErrSelfAttach is returned when an entity is attached to itself.
	ErrSelfAttach = errors.New("hierarchy: entity cannot be its own parent")
	// ErrAlreadyAttached is returned when the child already has a parent
	// under the same tag.
	ErrAlreadyAttached = errors.New("hierarchy: entity already has a parent")
	// ErrNotAttached is returned when detaching an entity without a parent.
	ErrNotAttached = errors.New("hierarchy: entity has no parent")
	// ErrCycle is returned when an attach would make an entity its own
	// ancestor.
	ErrCycle = errors.New("hierarchy: attach would create a cycle")
	// ErrBrokenLink is wrapped by every problem reported by Validate.
	ErrBrokenLink = errors.New("hierarchy: broken link")
)
