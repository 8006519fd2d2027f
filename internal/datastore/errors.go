package datastore

import "errors"

// Contract violations. Empty results are never reported as errors.
var (
	// ErrReadOnly is returned when a mutation is attempted on a read-only copy
	ErrReadOnly = errors.New("datastore: index is read-only")
	// ErrAlreadyFrozen is returned by FreezeAndCopy while a snapshot is outstanding
	ErrAlreadyFrozen = errors.New("datastore: store is already frozen")
	// ErrNotFrozen is returned by MergeAndThaw when no snapshot is outstanding
	ErrNotFrozen = errors.New("datastore: store is not frozen")
	// ErrNilIndex is returned by MergeAndThaw when no index is supplied
	ErrNilIndex = errors.New("datastore: merge index is nil")
)
