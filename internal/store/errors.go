package store

import "errors"

// Sentinel errors returned by the store layer.
var (
	// ErrNoDraft indicates no draft exists for the requested employee.
	ErrNoDraft = errors.New("no draft for employee")

	// ErrNoSession indicates no session identity has been persisted yet.
	ErrNoSession = errors.New("no active session")
)
