package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorbotdev/mentorbot/internal/core"
)

func TestLoad_EmbeddedDefault(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	lists := table.ForRole(core.RoleDeterministic)
	assert.NotEmpty(t, lists.Intros)
	assert.NotEmpty(t, lists.Titles)
	assert.NotEmpty(t, lists.Quotes)
	assert.NotEmpty(t, lists.Reflections)
	assert.NotEmpty(t, lists.CheckIns)
	assert.NotEmpty(t, lists.Closings)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	doc := `
deterministic:
  intros: ["hi"]
  titles: ["On Testing"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	table, err := Load(path)
	require.NoError(t, err)

	lists := table.ForRole(core.RoleDeterministic)
	assert.Equal(t, []string{"hi"}, lists.Intros)
	assert.Equal(t, []string{"On Testing"}, lists.Titles)
	assert.Empty(t, lists.Quotes, "missing lists stay empty")
}

func TestLoad_UnknownRoleIsEmpty(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)

	lists := table.ForRole(core.Role("nope"))
	assert.Empty(t, lists.Intros)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
