package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotImplemented is returned by backends that do not support an operation.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrStorage indicates the backing medium could not be read or written.
	ErrStorage = errors.New("storage error")

	// ErrMalformedRecord indicates a stored row could not be decoded into a Record.
	ErrMalformedRecord = errors.New("malformed record")
)

// Record is one applied migration: its name and its encoded code.
type Record struct {
	Name string
	Code string
}

// RecordStore defines the contract for tracking applied migrations.
// Implementations are not required to be safe for concurrent use.
type RecordStore interface {
	// Save appends a record for an applied migration.
	// It must not lose previously saved records.
	Save(name, code string) error

	// List returns every stored record in the order it was saved.
	// A store that was never written to returns an empty slice and no error.
	List() ([]Record, error)

	// Remove deletes every record whose name matches.
	// Removing a name that is not stored is not an error.
	Remove(name string) error
}

// UnimplementedRecordStore can be embedded by partial backends.
// Every operation it provides fails with ErrNotImplemented.
type UnimplementedRecordStore struct{}

func (UnimplementedRecordStore) Save(name, code string) error {
	return fmt.Errorf("save %q: %w", name, ErrNotImplemented)
}

func (UnimplementedRecordStore) List() ([]Record, error) {
	return nil, fmt.Errorf("list: %w", ErrNotImplemented)
}

func (UnimplementedRecordStore) Remove(name string) error {
	return fmt.Errorf("remove %q: %w", name, ErrNotImplemented)
}

var _ RecordStore = UnimplementedRecordStore{}
