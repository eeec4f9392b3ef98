package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runConfig writes a config file pointing both sources and the repository at
// test servers.
func runConfig(t *testing.T, proposalURL, publicationURL, repoURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
repository:
  host: ` + repoURL + `
  token: test-token
sources:
  proposal_url: ` + proposalURL + `
  publication_url: ` + publicationURL + `
artifact_dir: ` + filepath.Join(t.TempDir(), "failed") + `
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunDailyContinuesPastAbortedBatch(t *testing.T) {
	// Proposal source is down; publication source answers with an empty
	// window. The publication batches must still run and be reported.
	proposalSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer proposalSrv.Close()

	var publicationCalls int
	publicationSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		publicationCalls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer publicationSrv.Close()

	cfg := runConfig(t, proposalSrv.URL, publicationSrv.URL, "https://unused.example.org")

	stdout, _, err := execute(t, "run", "--config", cfg, "--date", "2026-08-01")

	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 of 4 batches aborted")

	// Both publication batches (new and modify) ran despite the proposal
	// outage, and their summaries were printed.
	assert.Equal(t, 2, publicationCalls)
	assert.Contains(t, stdout, "publication: fetched=0")
	assert.NotContains(t, stdout, "proposal:")
}

func TestRunDailyAllBatchesHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	cfg := runConfig(t, srv.URL, srv.URL, "https://unused.example.org")

	stdout, _, err := execute(t, "run", "--config", cfg, "--date", "2026-08-01")

	require.NoError(t, err)
	assert.Contains(t, stdout, "proposal: fetched=0")
	assert.Contains(t, stdout, "publication: fetched=0")
}
