// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)
	require.NoError(t, reg.Validate())
	assert.Len(t, reg.Activities, 7)
}

func TestDefault_FindByTaskType(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, taskType := range []string{
		"master-agent",
		"sales-agent",
		"verification-agent",
		"underwriting-agent",
		"sanction-agent",
		"persist-application",
		"send-notification",
	} {
		a, ok := reg.Find(taskType)
		assert.True(t, ok, taskType)
		assert.NotEmpty(t, a.InputSchema, taskType)
	}

	_, ok := reg.Find("unknown-agent")
	assert.False(t, ok)
	assert.Nil(t, reg.InputSchema("unknown-agent"))
}

func TestValidate_Duplicates(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "x"},
		{ID: "b", TaskType: "x"},
	}}
	assert.ErrorContains(t, reg.Validate(), "duplicate task type x")

	reg.Activities[1].ID = "a"
	assert.ErrorContains(t, reg.Validate(), "duplicate activity id a")
}

func TestValidate_BadSchema(t *testing.T) {
	reg := &ActivityRegistry{Activities: []Activity{
		{ID: "a", TaskType: "x", InputSchema: map[string]interface{}{"type": 12}},
	}}
	assert.Error(t, reg.Validate())
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, embedded, 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", reg.Version)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}
