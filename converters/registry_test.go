package converters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meysamhadeli/buroca/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner records invocations and imitates the tools by creating the
// files they would produce.
type fakeRunner struct {
	calls  []call
	output string
	err    error
	// skipOutput leaves the expected file missing.
	skipOutput bool
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	if f.err != nil {
		return []byte(f.output), f.err
	}
	if f.skipOutput {
		return []byte(f.output), nil
	}

	switch name {
	case "pandoc", "pdfjam":
		for i, arg := range args {
			if arg == "-o" {
				if err := os.WriteFile(args[i+1], []byte(name), 0644); err != nil {
					return nil, err
				}
			}
		}
	case "libreoffice":
		var outDir, format, src string
		for i, arg := range args {
			switch arg {
			case "--outdir":
				outDir = args[i+1]
			case "--convert-to":
				format = args[i+1]
			}
		}
		src = args[len(args)-1]
		stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		if err := os.WriteFile(filepath.Join(outDir, stem+"."+format), []byte(name), 0644); err != nil {
			return nil, err
		}
	}
	return []byte(f.output), nil
}

func newRegistry(runner *fakeRunner) *Registry {
	return NewDefaultRegistry(Options{Runner: runner, PandocArgs: []string{"--toc"}})
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRegistry_SameFormatCopies(t *testing.T) {
	runner := &fakeRunner{}
	src := writeSource(t, "letter.md", "# Hi")
	dest := filepath.Join(t.TempDir(), "out", "letter.markdown")

	require.NoError(t, newRegistry(runner).Convert(context.Background(), src, dest, "", ""))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "# Hi", string(data))
	assert.Empty(t, runner.calls)

	// Copying a file onto itself keeps it.
	require.NoError(t, newRegistry(runner).Convert(context.Background(), src, src, "md", "md"))
	data, err = os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "# Hi", string(data))
}

func TestRegistry_MarkdownToHTMLInProcess(t *testing.T) {
	runner := &fakeRunner{}
	src := writeSource(t, "letter.md", "# Hello\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	dest := filepath.Join(t.TempDir(), "letter.html")

	require.NoError(t, newRegistry(runner).Convert(context.Background(), src, dest, "md", "html"))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<h1 id="hello">Hello</h1>`)
	assert.Contains(t, string(data), "<table>")
	assert.Empty(t, runner.calls)
}

func TestRegistry_MarkdownToPDFUsesPandoc(t *testing.T) {
	runner := &fakeRunner{}
	src := writeSource(t, "letter.md", "# Hi")
	dest := filepath.Join(t.TempDir(), "letter.pdf")

	require.NoError(t, newRegistry(runner).Convert(context.Background(), src, dest, "markdown", "pdf"))

	require.Len(t, runner.calls, 1)
	c := runner.calls[0]
	assert.Equal(t, "pandoc", c.name)
	assert.Equal(t, filepath.Dir(src), c.dir)
	assert.Equal(t, []string{"-f", "markdown", "-t", "latex", "--pdf-engine", "xelatex", "--toc", src, "-o", dest}, c.args)
	assert.FileExists(t, dest)
}

func TestRegistry_MarkdownToLatex(t *testing.T) {
	runner := &fakeRunner{}
	src := writeSource(t, "letter.md", "# Hi")
	dest := filepath.Join(t.TempDir(), "letter.tex")

	require.NoError(t, newRegistry(runner).Convert(context.Background(), src, dest, "", "latex"))
	require.Len(t, runner.calls, 1)
	assert.Contains(t, strings.Join(runner.calls[0].args, " "), "-t latex --standalone")
}

func TestRegistry_OfficeUsesLibreOffice(t *testing.T) {
	runner := &fakeRunner{}
	src := writeSource(t, "letter.odt", "zip")
	destDir := t.TempDir()
	dest := filepath.Join(destDir, "final.pdf")

	require.NoError(t, newRegistry(runner).Convert(context.Background(), src, dest, "", ""))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "libreoffice", runner.calls[0].name)
	assert.Contains(t, runner.calls[0].args, "--headless")
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "libreoffice", string(data))

	// The scratch directory is gone.
	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRegistry_OfficeSourcesPreferLibreOffice(t *testing.T) {
	cases := []struct {
		src, to, tool string
	}{
		{"letter.odt", "pdf", "libreoffice"},
		{"letter.docx", "pdf", "libreoffice"},
		{"letter.odt", "rtf", "libreoffice"},
		{"letter.docx", "txt", "libreoffice"},
		// libreoffice has no markdown writer
		{"letter.docx", "md", "pandoc"},
	}
	for _, tc := range cases {
		t.Run(tc.src+"->"+tc.to, func(t *testing.T) {
			runner := &fakeRunner{}
			src := writeSource(t, tc.src, "zip")
			dest := filepath.Join(t.TempDir(), "final."+tc.to)

			require.NoError(t, newRegistry(runner).Convert(context.Background(), src, dest, "", ""))

			require.Len(t, runner.calls, 1)
			assert.Equal(t, tc.tool, runner.calls[0].name)
		})
	}
}

func TestRegistry_ToolFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 43"), output: "! LaTeX Error"}
	src := writeSource(t, "letter.md", "# Hi")

	err := newRegistry(runner).Convert(context.Background(), src, filepath.Join(t.TempDir(), "letter.pdf"), "", "")

	var conversionErr *errs.ConversionError
	require.True(t, errors.As(err, &conversionErr))
	assert.Equal(t, "md", conversionErr.From)
	assert.Equal(t, "pdf", conversionErr.To)
	assert.Equal(t, "! LaTeX Error", conversionErr.Output)
}

func TestRegistry_MissingOutput(t *testing.T) {
	runner := &fakeRunner{skipOutput: true}
	src := writeSource(t, "letter.odt", "zip")

	err := newRegistry(runner).Convert(context.Background(), src, filepath.Join(t.TempDir(), "letter.pdf"), "", "")

	var conversionErr *errs.ConversionError
	assert.True(t, errors.As(err, &conversionErr))
}

func TestRegistry_Unsupported(t *testing.T) {
	r := newRegistry(&fakeRunner{})
	assert.False(t, r.Supports("pdf", "md"))
	assert.True(t, r.Supports("md", "md"))
	assert.True(t, r.Supports("markdown", "pdf"))
	assert.True(t, r.Supports("docx", "pdf"))

	src := writeSource(t, "report.pdf", "%PDF")
	err := r.Convert(context.Background(), src, filepath.Join(t.TempDir(), "report.md"), "", "")

	var unsupported *errs.UnsupportedFormatError
	assert.True(t, errors.As(err, &unsupported))
}

func TestRegistry_Join(t *testing.T) {
	runner := &fakeRunner{}
	dest := filepath.Join(t.TempDir(), "all", "joined.pdf")

	require.NoError(t, newRegistry(runner).Join(context.Background(), []string{"a.pdf", "b.pdf"}, dest))

	require.Len(t, runner.calls, 1)
	assert.Equal(t, "pdfjam", runner.calls[0].name)
	assert.Equal(t, []string{"-q", "-o", dest, "--", "a.pdf", "b.pdf"}, runner.calls[0].args)
	assert.FileExists(t, dest)

	assert.Error(t, newRegistry(runner).Join(context.Background(), nil, dest))
	assert.Error(t, NewRegistry(nil, nil).Join(context.Background(), []string{"a.pdf"}, dest))
}
