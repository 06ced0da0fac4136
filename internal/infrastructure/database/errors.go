package database

import "errors"

// ErrNotFound is returned by OpenReadOnly when the database file does not exist.
var ErrNotFound = errors.New("database: file not found")
