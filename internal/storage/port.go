// Package storage defines the key-value persistence port the stores read and
// write through, and its backends.
package storage

import (
	"fmt"
	"os"
)

// Keys under which the application persists its state.
const (
	KeyTrips    = "travel-app-trips"
	KeySettings = "travel-app-settings"
	KeyTheme    = "travel-app-theme"
)

// Port is the durable key-value interface. Values are JSON documents.
type Port interface {
	// Get returns the value stored under key, or apperr.ErrNotFound.
	Get(key string) ([]byte, error)
	// Set durably replaces the value under key.
	Set(key string, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
}

// Backend drivers.
const (
	DriverFS       = "fs"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver string
	Path   string // fs root directory or sqlite file
	DSN    string // postgres connection string
}

// Open returns the Port described by opts and a function releasing it.
func Open(opts Options) (Port, func() error, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case DriverFS, "":
		if err := os.MkdirAll(opts.Path, 0o755); err != nil {
			return nil, nil, fmt.Errorf("storage: create root: %w", err)
		}
		fs, err := NewFS(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	case DriverSQLite:
		db, err := OpenSQLite(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	case DriverPostgres:
		pg, err := OpenPostgres(opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() error { pg.Close(); return nil }, nil
	case DriverMemory:
		return NewMemory(), noop, nil
	default:
		return nil, nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
