package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
repository:
  host: https://rdm.example.org
  token: secret
  communities:
    proposals: jlab-proposals
    publications: jlab-publications
sources:
  proposal_url: https://portal.example.org/proposals.json
journal_path: /var/lib/rdmsync/journal.db
http_timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://rdm.example.org", cfg.Repository.Host)
	assert.Equal(t, "secret", cfg.Repository.Token)
	assert.Equal(t, "jlab-proposals", cfg.Repository.Communities.Proposals)
	assert.Equal(t, "jlab-publications", cfg.Repository.Communities.Publications)
	assert.Equal(t, "https://portal.example.org/proposals.json", cfg.Sources.ProposalURL)
	assert.Equal(t, "/var/lib/rdmsync/journal.db", cfg.JournalPath)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout.Std())

	// Defaults fill the gaps.
	assert.Equal(t, defaultPublicationURL, cfg.Sources.PublicationURL)
	assert.Equal(t, "failed-records", cfg.ArtifactDir)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
repository:
  host: https://file.example.org
  token: file-token
`)
	t.Setenv(EnvHost, "https://env.example.org")
	t.Setenv(EnvToken, "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.Repository.Host)
	assert.Equal(t, "env-token", cfg.Repository.Token)
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	t.Setenv(EnvHost, "https://env.example.org")
	t.Setenv(EnvToken, "env-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.org", cfg.Repository.Host)
	assert.Equal(t, defaultProposalURL, cfg.Sources.ProposalURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout.Std())
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Setenv(EnvHost, "")
	t.Setenv(EnvToken, "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository.host")

	t.Setenv(EnvHost, "https://env.example.org")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository.token")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "repository: [not a mapping"))
	assert.Error(t, err)
}
