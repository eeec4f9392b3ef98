package sink

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlab-mis/rdmsync/internal/record"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPersist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "failed-records")
	s := New(dir, discardLogger())
	s.now = func() time.Time {
		return time.Date(2021, 11, 3, 12, 0, 0, 0, time.UTC)
	}

	rec := record.New("jlab-publications")
	rec.Metadata.Title = "Form Factor Ratio"
	rec.CustomFields["rdm:pubID"] = "15782"

	s.Persist(rec, "create", "15782", "run-1")

	data, err := os.ReadFile(filepath.Join(dir, "create_2021-11-03_15782.json"))
	require.NoError(t, err)

	var a artifact
	require.NoError(t, json.Unmarshal(data, &a))
	assert.Equal(t, "create", a.Category)
	assert.Equal(t, "15782", a.NaturalKey)
	assert.Equal(t, "run-1", a.RunID)
	assert.Equal(t, "Form Factor Ratio", a.Record.Metadata.Title)
}

func TestPersistSanitizesFilename(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, discardLogger())
	s.now = func() time.Time {
		return time.Date(2021, 11, 3, 12, 0, 0, 0, time.UTC)
	}

	s.Persist(record.New(""), "create", "../15 782", "")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "create_2021-11-03_..-15-782.json", entries[0].Name())
}

func TestPersistUnwritableDirDoesNotPanic(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail; Persist
	// must swallow it.
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New(blocker, discardLogger())
	s.Persist(record.New(""), "create", "1", "")
}
