package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInitCommand(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, handleInitCommand(root))
	// Running it again keeps the existing directories.
	require.NoError(t, handleInitCommand(root))

	for _, dir := range []string{"data", "templates", "reports"} {
		assert.DirExists(t, filepath.Join(root, dir))
	}
}

func TestProjectPath(t *testing.T) {
	deps := &RootDependencies{Cwd: filepath.FromSlash("/home/me"), Base: filepath.FromSlash("/home/me/project")}

	assert.Equal(t, filepath.FromSlash("/home/me/project/templates/letter.md"), deps.projectPath("templates", "letter.md"))
	assert.Equal(t, filepath.FromSlash("/home/me/drafts/letter.md"), deps.projectPath("templates", filepath.FromSlash("drafts/letter.md")))
	assert.Equal(t, filepath.FromSlash("/tmp/letter.md"), deps.projectPath("templates", filepath.FromSlash("/tmp/letter.md")))
}

func TestCommandsAreRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"init", "create", "data", "convert", "join", "show", "watch"} {
		assert.True(t, names[name], name)
	}
}
