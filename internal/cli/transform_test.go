package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestTransformProposal(t *testing.T) {
	path := writeInput(t, `{"id":8841,"title":"Neutron Skin","submitted_date":"2021-06-14",
		"authors":[{"first_name":"Grace","last_name":"Hopper"}],
		"experiment_hall":"ENPH-EH-HA","status":"A- Approved"}`)

	stdout, stderr, err := execute(t, "transform", "--kind", "proposals", "--community", "jlab-proposals", path)
	require.NoError(t, err)
	assert.Empty(t, stderr)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &payload))
	meta, ok := payload["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Neutron Skin", meta["title"])
	fields, ok := payload["custom_fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "8841", fields["pac:pacID"])
}

func TestTransformEnvelope(t *testing.T) {
	path := writeInput(t, `{"data":[
		{"pub_id":1,"title":"First","document_type":"Other","affiliation":"EIC"},
		{"pub_id":2,"title":"Second","document_type":"Other","affiliation":"EIC"}
	]}`)

	stdout, _, err := execute(t, "transform", "--kind", "publications", path)
	require.NoError(t, err)

	var payloads []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &payloads))
	assert.Len(t, payloads, 2)
}

func TestTransformWarnsOnFallback(t *testing.T) {
	path := writeInput(t, `{"pub_id":7,"title":"A Dataset","document_type":"Dataset","affiliation":"EIC"}`)

	_, stderr, err := execute(t, "transform", "--kind", "publications", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "document_type")
	assert.Contains(t, stderr, "other")
}

func TestTransformInvalidKind(t *testing.T) {
	path := writeInput(t, `{}`)

	_, _, err := execute(t, "transform", "--kind", "experiments", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTransformMissingFile(t *testing.T) {
	_, _, err := execute(t, "transform", "--kind", "proposals", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUnwrapData(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		raw, err := unwrapData([]byte(`{"data":[{"a":1},{"b":2}]}`))
		require.NoError(t, err)
		assert.Len(t, raw, 2)
	})
	t.Run("array", func(t *testing.T) {
		raw, err := unwrapData([]byte(`[{"a":1}]`))
		require.NoError(t, err)
		assert.Len(t, raw, 1)
	})
	t.Run("single object", func(t *testing.T) {
		raw, err := unwrapData([]byte(`{"a":1}`))
		require.NoError(t, err)
		assert.Len(t, raw, 1)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := unwrapData([]byte(`not json`))
		assert.Error(t, err)
	})
}
