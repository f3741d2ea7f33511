package migrate

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

// Migration is a named schema change with forward and backward SQL.
type Migration struct {
	Name string
	Up   string
	Down string
}

// Load reads NAME.up.sql and NAME.down.sql pairs from dir, sorted by name.
// Every up file needs a matching down file and vice versa.
func Load(fs afero.Fs, dir string) ([]Migration, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations dir: %w", err)
	}

	byName := map[string]*Migration{}
	get := func(name string) *Migration {
		m, ok := byName[name]
		if !ok {
			m = &Migration{Name: name}
			byName[name] = m
		}
		return m
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		var name string
		var up bool
		switch {
		case strings.HasSuffix(file, upSuffix):
			name, up = strings.TrimSuffix(file, upSuffix), true
		case strings.HasSuffix(file, downSuffix):
			name = strings.TrimSuffix(file, downSuffix)
		default:
			continue
		}
		if name == "" {
			return nil, fmt.Errorf("migration file %q has no name", file)
		}

		data, err := afero.ReadFile(fs, filepath.Join(dir, file))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		m := get(name)
		if up {
			m.Up = string(data)
		} else {
			m.Down = string(data)
		}
	}

	migrations := make([]Migration, 0, len(byName))
	for _, m := range byName {
		if m.Up == "" {
			return nil, fmt.Errorf("migration %q: missing or empty %s%s", m.Name, m.Name, upSuffix)
		}
		if m.Down == "" {
			return nil, fmt.Errorf("migration %q: missing or empty %s%s", m.Name, m.Name, downSuffix)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Name < migrations[j].Name
	})
	return migrations, nil
}

// EncodeCode produces the record payload for m: its down SQL in base64, so
// an applied migration can be reverted after its files are gone.
func EncodeCode(m Migration) string {
	return base64.StdEncoding.EncodeToString([]byte(m.Down))
}

// DecodeCode returns the down SQL stored in a record payload.
func DecodeCode(code string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(code)
	if err != nil {
		return "", fmt.Errorf("failed to decode migration code: %w", err)
	}
	return string(data), nil
}
