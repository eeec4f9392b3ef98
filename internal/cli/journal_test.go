package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlab-mis/rdmsync/internal/journal"
)

func seedJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	jnl, err := journal.Open(path)
	require.NoError(t, err)
	defer jnl.Close()

	ctx := context.Background()
	require.NoError(t, jnl.Record(ctx, journal.Entry{
		RunID: "run-1", Kind: "publication", NaturalKey: "15782", Outcome: "created", RecordID: "rec-7",
	}))
	require.NoError(t, jnl.Record(ctx, journal.Entry{
		RunID: "run-1", Kind: "proposal", NaturalKey: "8841", Outcome: "failed", Stage: "create", Detail: "status 500",
	}))
	return path
}

func TestJournalCommandList(t *testing.T) {
	path := seedJournal(t)

	stdout, _, err := execute(t, "journal", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "15782")
	assert.Contains(t, stdout, "created")
	assert.Contains(t, stdout, "stage=create")
	assert.Contains(t, stdout, "detail=status 500")
}

func TestJournalCommandByKey(t *testing.T) {
	path := seedJournal(t)

	stdout, _, err := execute(t, "journal", "--db", path, "--key", "15782")
	require.NoError(t, err)
	assert.Contains(t, stdout, "15782")
	assert.NotContains(t, stdout, "8841")
}

func TestJournalCommandJSON(t *testing.T) {
	path := seedJournal(t)

	stdout, _, err := execute(t, "journal", "--db", path, "--format", "json", "--key", "15782")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"NaturalKey": "15782"`)
	assert.Contains(t, stdout, `"RecordID": "rec-7"`)
}

func TestJournalCommandEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	jnl, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, jnl.Close())

	stdout, _, err := execute(t, "journal", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "no journal entries")
}

func TestJournalCommandNoDatabase(t *testing.T) {
	t.Setenv("RDMSYNC_HOST", "https://rdm.example.org")
	t.Setenv("RDMSYNC_TOKEN", "token")

	_, _, err := execute(t, "journal")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal database configured")
}
