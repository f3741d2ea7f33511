package csvfile

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maloquacious/goobtool/internal/logger"
	"github.com/maloquacious/goobtool/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const recordFile = "/data/migrations.csv"

func newMemStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	return New(fs, recordFile, logger.Nop()), fs
}

func TestNewWarns(t *testing.T) {
	var buf bytes.Buffer
	New(afero.NewMemMapFs(), recordFile, logger.New(&buf, zerolog.DebugLevel))

	out := buf.String()
	require.Equal(t, 1, strings.Count(out, "\n"), "expected exactly one log line, got %q", out)
	require.Contains(t, out, "WRN")
	require.Contains(t, out, recordFile)
}

func TestListMissingFile(t *testing.T) {
	s, fs := newMemStore(t)

	records, err := s.List()
	require.NoError(t, err)
	require.NotNil(t, records)
	require.Empty(t, records)

	exists, err := afero.Exists(fs, recordFile)
	require.NoError(t, err)
	require.False(t, exists, "List must not create the file")
}

func TestSaveList(t *testing.T) {
	s, _ := newMemStore(t)

	require.NoError(t, s.Save("m1", "QUJD"))
	require.NoError(t, s.Save("m2", "WFla"))

	records, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{
		{Name: "m1", Code: "QUJD"},
		{Name: "m2", Code: "WFla"},
	}, records)
}

func TestSaveDuplicateNames(t *testing.T) {
	s, _ := newMemStore(t)

	require.NoError(t, s.Save("n", "c1"))
	require.NoError(t, s.Save("n", "c2"))

	records, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{
		{Name: "n", Code: "c1"},
		{Name: "n", Code: "c2"},
	}, records)
}

func TestPayloadFidelity(t *testing.T) {
	payloads := []string{
		`a,b,c`,
		`say "hello"`,
		"first line\nsecond line",
		"mixed, \"quoted\"\nand\n\nblank lines",
		"",
		"unicode: Ωmega ✓",
	}

	s, _ := newMemStore(t)
	for i, p := range payloads {
		require.NoError(t, s.Save(string(rune('a'+i)), p))
	}

	records, err := s.List()
	require.NoError(t, err)
	require.Len(t, records, len(payloads))
	for i, p := range payloads {
		require.Equal(t, string(rune('a'+i)), records[i].Name)
		require.Equal(t, p, records[i].Code)
	}
}

func TestFileFormat(t *testing.T) {
	s, fs := newMemStore(t)

	require.NoError(t, s.Save("plain", "QUJD"))
	require.NoError(t, s.Save("quoted", `x,"y"`))

	data, err := afero.ReadFile(fs, recordFile)
	require.NoError(t, err)
	require.Equal(t, "plain,QUJD\nquoted,\"x,\"\"y\"\"\"\n", string(data))
}

func TestRemove(t *testing.T) {
	tests := []struct {
		name   string
		seed   []store.Record
		remove string
		want   []store.Record
	}{
		{
			name:   "removes every match",
			seed:   []store.Record{{Name: "a", Code: "1"}, {Name: "b", Code: "2"}, {Name: "a", Code: "3"}},
			remove: "a",
			want:   []store.Record{{Name: "b", Code: "2"}},
		},
		{
			name:   "absent name is a no-op",
			seed:   []store.Record{{Name: "a", Code: "1"}, {Name: "b", Code: "2"}},
			remove: "zzz",
			want:   []store.Record{{Name: "a", Code: "1"}, {Name: "b", Code: "2"}},
		},
		{
			name:   "remove last record",
			seed:   []store.Record{{Name: "a", Code: "1"}},
			remove: "a",
			want:   []store.Record{},
		},
		{
			name:   "empty store",
			seed:   nil,
			remove: "a",
			want:   []store.Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newMemStore(t)
			for _, rec := range tt.seed {
				require.NoError(t, s.Save(rec.Name, rec.Code))
			}

			require.NoError(t, s.Remove(tt.remove))

			got, err := s.List()
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRemoveMissingFileCreatesEmptyFile(t *testing.T) {
	s, fs := newMemStore(t)

	require.NoError(t, s.Remove("m1"))

	data, err := afero.ReadFile(fs, recordFile)
	require.NoError(t, err)
	require.Empty(t, data)

	records, err := s.List()
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestCRLFReadsBackAsLF(t *testing.T) {
	s, _ := newMemStore(t)

	require.NoError(t, s.Save("m1", "a\r\nb\rc"))

	records, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{{Name: "m1", Code: "a\nb\rc"}}, records)
}

func TestScenario(t *testing.T) {
	s, _ := newMemStore(t)

	records, err := s.List()
	require.NoError(t, err)
	require.Empty(t, records)

	require.NoError(t, s.Save("m1", "QUJD"))
	records, err = s.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{{Name: "m1", Code: "QUJD"}}, records)

	require.NoError(t, s.Save("m2", "WFlа"))
	require.NoError(t, s.Remove("m1"))
	records, err = s.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{{Name: "m2", Code: "WFlа"}}, records)
}

func TestListSkipsBlankRows(t *testing.T) {
	s, fs := newMemStore(t)
	require.NoError(t, afero.WriteFile(fs, recordFile, []byte("m1,QUJD\n\n\nm2,WFla\n"), 0o644))

	records, err := s.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{{Name: "m1", Code: "QUJD"}, {Name: "m2", Code: "WFla"}}, records)
}

func TestListMalformedRow(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "one field", data: "m1,QUJD\nlonely\n"},
		{name: "three fields", data: "m1,QUJD,extra\n"},
		{name: "bad quoting", data: "m1,\"unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fs := newMemStore(t)
			require.NoError(t, afero.WriteFile(fs, recordFile, []byte(tt.data), 0o644))

			_, err := s.List()
			require.ErrorIs(t, err, store.ErrMalformedRecord)
		})
	}
}

func TestStorageErrors(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	s := New(fs, recordFile, logger.Nop())

	require.ErrorIs(t, s.Save("m1", "QUJD"), store.ErrStorage)
	require.ErrorIs(t, s.Remove("m1"), store.ErrStorage)
}

func TestListDirectoryIsStorageError(t *testing.T) {
	dir := t.TempDir()
	s := New(afero.NewOsFs(), dir, logger.Nop())

	_, err := s.List()
	require.ErrorIs(t, err, store.ErrStorage)
}

func TestOsFs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrations.csv")
	s := New(afero.NewOsFs(), path, logger.Nop())
	require.Equal(t, path, s.Path())

	require.NoError(t, s.Save("a", "1"))
	require.NoError(t, s.Save("b", "line\nbreak"))
	require.NoError(t, s.Save("a", "3"))
	require.NoError(t, s.Remove("a"))

	reopened := New(afero.NewOsFs(), path, logger.Nop())
	records, err := reopened.List()
	require.NoError(t, err)
	require.Equal(t, []store.Record{{Name: "b", Code: "line\nbreak"}}, records)
}
