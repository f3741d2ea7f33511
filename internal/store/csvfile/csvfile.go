// Package csvfile implements store.RecordStore on a flat CSV file.
//
// Every record is one row of two fields, name and code, with standard CSV
// quoting. There is no header row and no version marker. The file is
// opened and closed on each call; nothing is buffered across calls.
// Payloads round-trip exactly except for CRLF pairs, which read back as LF.
//
// The store does no locking. Concurrent writers against the same file can
// lose or corrupt records, and Remove rewrites the file in place without
// an atomic rename or fsync, so a crash during Remove can truncate it.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/maloquacious/goobtool/internal/logger"
	"github.com/maloquacious/goobtool/internal/store"
	"github.com/spf13/afero"
)

const (
	fieldsPerRecord = 2
	filePerm        = 0o644
)

// Store implements store.RecordStore on a single CSV file.
type Store struct {
	fs   afero.Fs
	path string
}

var _ store.RecordStore = (*Store)(nil)

// New binds a Store to path on fs. It logs a warning that the backend is
// not meant for production data.
func New(fs afero.Fs, path string, log logger.Logger) *Store {
	log.Warn("using CSV record storage at %s: records can be easily lost, use it only for testing or if you know what you're doing", path)
	return &Store{
		fs:   fs,
		path: path,
	}
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Save(name, code string) (err error) {
	f, err := s.fs.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w: %w", s.path, store.ErrStorage, err)
	}
	defer closeFile(f, &err)

	if err := writeRows(f, []store.Record{{Name: name, Code: code}}); err != nil {
		return fmt.Errorf("failed to save migration %q: %w", name, err)
	}
	return nil
}

func (s *Store) List() (records []store.Record, err error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []store.Record{}, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w: %w", s.path, store.ErrStorage, err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fieldsPerRecord
	r.ReuseRecord = true

	records = []store.Record{}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%s: %w: %w", s.path, store.ErrMalformedRecord, err)
			}
			return nil, fmt.Errorf("failed to read %s: %w: %w", s.path, store.ErrStorage, err)
		}
		records = append(records, store.Record{Name: row[0], Code: row[1]})
	}
	return records, nil
}

func (s *Store) Remove(name string) (err error) {
	current, err := s.List()
	if err != nil {
		return err
	}

	kept := make([]store.Record, 0, len(current))
	for _, rec := range current {
		if rec.Name != name {
			kept = append(kept, rec)
		}
	}

	f, err := s.fs.OpenFile(s.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w: %w", s.path, store.ErrStorage, err)
	}
	defer closeFile(f, &err)

	if err := writeRows(f, kept); err != nil {
		return fmt.Errorf("failed to remove migration %q: %w", name, err)
	}
	return nil
}

func writeRows(w io.Writer, records []store.Record) error {
	cw := csv.NewWriter(w)
	for _, rec := range records {
		if err := cw.Write([]string{rec.Name, rec.Code}); err != nil {
			return fmt.Errorf("%w: %w", store.ErrStorage, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrStorage, err)
	}
	return nil
}

// closeFile closes f and reports the close error if nothing failed earlier.
func closeFile(f afero.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("failed to close %s: %w: %w", f.Name(), store.ErrStorage, cerr)
	}
}
