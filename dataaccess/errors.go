package dataaccess

import (
	"github.com/go-errors/errors"
	"github.com/xompass/vsaas-dal/database"
)

// The errors are returned as they are, never wrapped with a prefix, so
// errors.Is works with both the standard library and go-errors.
var (
	// ErrModelNotFound is the resolver error, re-exported for callers of
	// this package.
	ErrModelNotFound = database.ErrModelNotFound

	ErrParentIDMissing      = errors.New("parent id is required")
	ErrReferenceNotFound    = errors.New("reference field not found")
	ErrParentRecordNotFound = errors.New("parent record not found")
	ErrChildCreationFailed  = errors.New("child record was created without a primary key")

	// ErrInvalidUpdate is wrapped by the errors returned for update
	// documents that cannot be applied.
	ErrInvalidUpdate = errors.New("invalid update")
)
