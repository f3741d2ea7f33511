// Package migrate applies and reverts SQL migrations, recording every
// applied migration in a store.RecordStore.
package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/maloquacious/goobtool/internal/logger"
	"github.com/maloquacious/goobtool/internal/store"
)

// ErrNotApplied indicates the named migration has no stored record.
var ErrNotApplied = errors.New("migration not applied")

// Executor runs a SQL script against the target database.
type Executor interface {
	Exec(ctx context.Context, script string) error
}

// Status describes one migration as seen by the runner.
type Status struct {
	Name    string
	Applied bool
	// Stale is set for records whose migration files no longer exist.
	Stale bool
}

// Runner diffs migration definitions against the record store.
type Runner struct {
	exec    Executor
	records store.RecordStore
	log     logger.Logger
}

// NewRunner returns a Runner applying migrations with exec and tracking them in records.
func NewRunner(exec Executor, records store.RecordStore, log logger.Logger) *Runner {
	return &Runner{
		exec:    exec,
		records: records,
		log:     log,
	}
}

// Apply brings the database in line with defs. Records with no matching
// definition are reverted first, newest first, using their stored code.
// Then each definition without a record is applied in order and saved.
// It returns the names of the migrations it applied.
func (r *Runner) Apply(ctx context.Context, defs []Migration) ([]string, error) {
	records, err := r.records.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}

	defined := make(map[string]bool, len(defs))
	for _, m := range defs {
		defined[m.Name] = true
	}
	applied := make(map[string]bool, len(records))
	for _, rec := range records {
		applied[rec.Name] = true
	}

	reverted := map[string]bool{}
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if defined[rec.Name] || reverted[rec.Name] {
			continue
		}
		reverted[rec.Name] = true
		r.log.Info("reverting stale migration %s", rec.Name)
		if err := r.revertRecord(ctx, rec); err != nil {
			return nil, err
		}
	}

	var done []string
	for _, m := range defs {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if applied[m.Name] {
			r.log.Debug("migration %s already applied", m.Name)
			continue
		}
		r.log.Info("applying migration %s", m.Name)
		if err := r.exec.Exec(ctx, m.Up); err != nil {
			return done, fmt.Errorf("migration %s: %w", m.Name, err)
		}
		if err := r.records.Save(m.Name, EncodeCode(m)); err != nil {
			return done, fmt.Errorf("migration %s applied but not recorded: %w", m.Name, err)
		}
		done = append(done, m.Name)
	}
	return done, nil
}

// Revert undoes the most recent record for name using its stored code and
// removes every record with that name.
func (r *Runner) Revert(ctx context.Context, name string) error {
	records, err := r.records.List()
	if err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Name == name {
			r.log.Info("reverting migration %s", name)
			return r.revertRecord(ctx, records[i])
		}
	}
	return fmt.Errorf("%s: %w", name, ErrNotApplied)
}

func (r *Runner) revertRecord(ctx context.Context, rec store.Record) error {
	down, err := DecodeCode(rec.Code)
	if err != nil {
		return fmt.Errorf("migration %s: %w", rec.Name, err)
	}
	if err := r.exec.Exec(ctx, down); err != nil {
		return fmt.Errorf("failed to revert migration %s: %w", rec.Name, err)
	}
	if err := r.records.Remove(rec.Name); err != nil {
		return fmt.Errorf("migration %s reverted but record not removed: %w", rec.Name, err)
	}
	return nil
}

// Status lists defs in order with their applied state, followed by stale records.
func (r *Runner) Status(defs []Migration) ([]Status, error) {
	records, err := r.records.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(records))
	for _, rec := range records {
		applied[rec.Name] = true
	}

	statuses := make([]Status, 0, len(defs))
	defined := make(map[string]bool, len(defs))
	for _, m := range defs {
		defined[m.Name] = true
		statuses = append(statuses, Status{Name: m.Name, Applied: applied[m.Name]})
	}
	for _, rec := range records {
		if defined[rec.Name] {
			continue
		}
		defined[rec.Name] = true
		statuses = append(statuses, Status{Name: rec.Name, Applied: true, Stale: true})
	}
	return statuses, nil
}
