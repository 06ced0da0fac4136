package sidecar

import "errors"

var (
	// ErrSpawnFailed is returned by Setup when the chosen launch path was
	// found but the sidecar could not be started. Startup should abort.
	ErrSpawnFailed = errors.New("sidecar: spawn failed")

	// ErrAlreadySetup is returned when Setup is called a second time.
	ErrAlreadySetup = errors.New("sidecar: already set up")
)
