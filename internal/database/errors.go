package database

import "errors"

// ErrNotFound is returned when an operation targets a row that does not
// exist. Repositories translate sql.ErrNoRows into this.
var ErrNotFound = errors.New("not found")
