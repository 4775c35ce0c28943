// cmd/tools/registry-check/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"loan-journey/internal/common/config"
	"loan-journey/pkg/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidate_Embedded(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runValidate(&out, ""))
	assert.Contains(t, out.String(), "Found 7 activities")
}

func TestRunValidate_DuplicateTaskType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"activities":[
		{"id":"a","taskType":"master-agent"},
		{"id":"b","taskType":"master-agent"}
	]}`), 0o644))

	err := runValidate(&bytes.Buffer{}, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate task type master-agent")
}

func TestRunList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runList(&out, ""))
	assert.Contains(t, out.String(), "underwriting-agent")
	assert.Contains(t, out.String(), "persist-application")
}

func TestCompare(t *testing.T) {
	reg, err := registry.Default()
	require.NoError(t, err)

	missing, unknown := compare(reg, map[string]config.WorkerConfig{
		"master-agent":  {Enabled: true},
		"franchise-ops": {Enabled: true},
	})
	assert.Len(t, missing, 6)
	assert.NotContains(t, missing, "master-agent")
	assert.Equal(t, []string{"franchise-ops"}, unknown)
}

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	help(&out)

	assert.Contains(t, out.String(), "Usage: registry-check <command> [flags]")
	assert.True(t, bytes.HasSuffix(out.Bytes(), []byte("about a command.\n")), "help ends with a single newline")
}
