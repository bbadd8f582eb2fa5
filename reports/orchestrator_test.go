package reports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/resources"
	"github.com/meysamhadeli/buroca/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// newProject writes a band with three members. george has an invalid
// schedule so templates using it fail for him only.
func newProject(t *testing.T) (string, *Orchestrator) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "data/band.yml", "name: Beatles\n")
	writeFile(t, root, "data/person/john.yml", "name: John\nrole: singer\ndurations: [2]\noffsets: [0]\n")
	writeFile(t, root, "data/person/paul.yml", "name: Paul\nrole: bassist\ndurations: [1]\noffsets: [1]\n")
	writeFile(t, root, "data/person/george.yml", "name: George\nrole: guitarist\ndurations: [0]\noffsets: [0]\n")
	writeFile(t, root, "data/instrument/john.yml", "kind: guitar\n")
	writeFile(t, root, "data/instrument/paul.yml", "kind: bass\n")

	store, err := resources.NewStore(root, nil)
	require.NoError(t, err)
	return root, NewOrchestrator(store, templates.NewRenderer(nil), nil)
}

func TestNameFor(t *testing.T) {
	assert.Equal(t, filepath.Join("templates", "phrase-john.md"), NameFor(filepath.Join("templates", "phrase.md"), "john", ""))
	assert.Equal(t, "phrase-john.tex", NameFor("phrase.md", "john", "latex"))
	assert.Equal(t, "phrase-john.pdf", NameFor("phrase.md", "john", "PDF"))
	assert.Equal(t, "phrase-john", NameFor("phrase", "john", ""))
}

func TestAsReportPath(t *testing.T) {
	base := filepath.FromSlash("/project")
	assert.Equal(t, filepath.FromSlash("/project/reports/a.md"), AsReportPath(filepath.FromSlash("/project/templates/a.md"), base))
	assert.Equal(t, filepath.FromSlash("reports/a.md"), AsReportPath(filepath.FromSlash("data/a.md"), base))
	assert.Equal(t, filepath.FromSlash("/project/reports/a.md"), AsReportPath(filepath.FromSlash("/elsewhere/a.md"), base))
	assert.Equal(t, filepath.FromSlash("/project/reports/a.md"), AsReportPath("a.md", base))
}

func TestOrchestrator_RenderForEntity(t *testing.T) {
	root, o := newProject(t)
	tmpl := writeFile(t, root, "templates/phrase.md", "{{person.name}} is {{band.name}}'s {{person.role}}.")
	dest := filepath.Join(root, "out", "nested", "john.md")

	require.NoError(t, o.RenderForEntity(context.Background(), tmpl, dest, "john", ""))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "John is Beatles's singer.", string(data))
}

func TestOrchestrator_RenderForAllEntities(t *testing.T) {
	root, o := newProject(t)
	tmpl := writeFile(t, root, "templates/phrase.txt",
		"{{ person.name }} plays {% if instrument != nil %}{{ instrument.kind }}{% else %}nothing{% end %}")

	type step struct {
		index, total int
		entity       string
	}
	var steps []step
	result, err := o.RenderForAllEntities(context.Background(), tmpl, BatchOptions{
		Progress: func(index, total int, entity string) {
			steps = append(steps, step{index, total, entity})
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []step{{1, 3, "george"}, {2, 3, "john"}, {3, 3, "paul"}}, steps)
	require.Len(t, result.Written, 3)
	assert.Empty(t, result.Skipped)

	expected := map[string]string{
		"george": "George plays nothing",
		"john":   "John plays guitar",
		"paul":   "Paul plays bass",
	}
	for entity, content := range expected {
		path := filepath.Join(root, "reports", "phrase-"+entity+".txt")
		assert.Contains(t, result.Written, path)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	}
}

func TestOrchestrator_AbortsOnFirstError(t *testing.T) {
	root, o := newProject(t)
	tmpl := writeFile(t, root, "templates/schedule.md", `{{ cronogram("md", person.durations, person.offsets, 1) }}`)

	result, err := o.RenderForAllEntities(context.Background(), tmpl, BatchOptions{})
	require.Error(t, err)

	var renderErr *errs.TemplateRenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, filepath.Join(root, "reports", "schedule-george.md"), renderErr.Destination)
	assert.Empty(t, result.Written)

	_, statErr := os.Stat(filepath.Join(root, "reports", "schedule-john.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_SkipPolicy(t *testing.T) {
	root, o := newProject(t)
	tmpl := writeFile(t, root, "templates/schedule.md", `{{ cronogram("md", person.durations, person.offsets, 1) }}`)

	result, err := o.RenderForAllEntities(context.Background(), tmpl, BatchOptions{
		OnError: func(entity string, err error) error { return nil },
		NameFn: func(template, entity, format string) string {
			return filepath.Join(root, "custom", entity+".md")
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(root, "custom", "john.md"), filepath.Join(root, "custom", "paul.md")}, result.Written)
	require.Contains(t, result.Skipped, "george")

	data, err := os.ReadFile(filepath.Join(root, "custom", "paul.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "#     JAN   FEB")
}

func TestOrchestrator_InconsistentEntities(t *testing.T) {
	root, o := newProject(t)
	writeFile(t, root, "data/pet/ringo.yml", "kind: dog\n")
	tmpl := writeFile(t, root, "templates/phrase.md", "{{ person.name }}")

	_, err := o.RenderForAllEntities(context.Background(), tmpl, BatchOptions{})

	var inconsistent *errs.InconsistentResourceError
	assert.True(t, errors.As(err, &inconsistent))
}

func TestOrchestrator_Canceled(t *testing.T) {
	root, o := newProject(t)
	tmpl := writeFile(t, root, "templates/phrase.md", "{{ person.name }}")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := o.RenderForAllEntities(ctx, tmpl, BatchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Written)
}
