package transform

import (
	"errors"
	"fmt"

	"github.com/edwinsyarief/raikou"
)

// ErrIntegrity is wrapped by every IntegrityError.
var ErrIntegrity = errors.New("transform: hierarchy integrity violation")

// IntegrityError reports a hierarchy link that propagation could not follow.
// It usually means an entity was despawned without being detached first.
// Any IntegrityError fails the whole propagation step for the frame.
type IntegrityError struct {
	// Entity is the link that could not be followed.
	Entity raikou.Entity
	// Parent is the parent whose child chain was being walked.
	Parent raikou.Entity
	// Reason describes the violation.
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("transform: entity %v under parent %v: %s", e.Entity, e.Parent, e.Reason)
}

// Unwrap returns ErrIntegrity.
func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

const (
	reasonDangling     = "dangling child link"
	reasonWrongParent  = "child names a different parent"
	reasonChainTooLong = "sibling chain longer than recorded child count"
	reasonChainShort   = "sibling chain shorter than recorded child count"
	reasonTooDeep      = "hierarchy deeper than the world, cycle suspected"
)
