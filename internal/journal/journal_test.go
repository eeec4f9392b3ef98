package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{
		RunID: "run-1", Kind: "publication", NaturalKey: "15782",
		Outcome: "created", RecordID: "rec-7",
	}))
	require.NoError(t, j.Record(ctx, Entry{
		RunID: "run-1", Kind: "publication", NaturalKey: "15783",
		Outcome: "failed", Stage: "create", Detail: "status 500",
	}))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "15783", entries[0].NaturalKey)
	assert.Equal(t, "failed", entries[0].Outcome)
	assert.Equal(t, "create", entries[0].Stage)
	assert.Equal(t, "status 500", entries[0].Detail)
	assert.Equal(t, "15782", entries[1].NaturalKey)
	assert.Equal(t, "rec-7", entries[1].RecordID)
	assert.False(t, entries[1].NotedAt.IsZero())
}

func TestRecordIdempotent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	e := Entry{RunID: "run-1", Kind: "proposal", NaturalKey: "8841", Outcome: "created"}
	require.NoError(t, j.Record(ctx, e))

	// Same (run, kind, key) again: silent no-op, first row wins.
	e.Outcome = "failed"
	require.NoError(t, j.Record(ctx, e))

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "created", entries[0].Outcome)
}

func TestByKey(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Entry{RunID: "run-1", Kind: "publication", NaturalKey: "15782", Outcome: "created"}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "run-2", Kind: "publication", NaturalKey: "15782", Outcome: "versioned"}))
	require.NoError(t, j.Record(ctx, Entry{RunID: "run-2", Kind: "publication", NaturalKey: "15783", Outcome: "created"}))

	history, err := j.ByKey(ctx, "15782")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "run-2", history[0].RunID)
	assert.Equal(t, "versioned", history[0].Outcome)
	assert.Equal(t, "run-1", history[1].RunID)
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(context.Background(), Entry{RunID: "run-1", Kind: "proposal", NaturalKey: "1", Outcome: "created"}))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
