package host

import "errors"

var (
	// ErrAlreadyRunning is returned when Run is called a second time.
	ErrAlreadyRunning = errors.New("host: already running")

	// ErrNoPath is returned when a platform directory cannot be determined.
	ErrNoPath = errors.New("host: path unavailable")
)
