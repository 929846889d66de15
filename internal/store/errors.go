// Package store provides the persistence backends for users, wine notes
// and photo files. Three note stores (JSON file, SQLite, PostgreSQL) and
// two photo stores (local directory, MinIO) implement the same contracts.
package store

import "errors"

var (
	// ErrNotFound is returned when a note does not exist or is not owned
	// by the requesting user. The two cases are deliberately
	// indistinguishable so that ids never leak across users.
	ErrNotFound = errors.New("note not found")

	// ErrPhotoNotFound is returned when a filename is not attached to the note.
	ErrPhotoNotFound = errors.New("photo not found")
)
