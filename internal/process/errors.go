package process

import "errors"

// ErrAlreadyStarted is returned by Start when the manager has already
// spawned its process. A manager never spawns twice.
var ErrAlreadyStarted = errors.New("process: already started")
