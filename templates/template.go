package templates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/meysamhadeli/buroca/resources/models"
	"github.com/open2b/scriggo"
	"github.com/open2b/scriggo/ast"
	"github.com/open2b/scriggo/native"
	"github.com/zeebo/xxh3"
)

// Template is a compiled template. Implementations render a namespace to w
// and know the format of what they produce.
type Template interface {
	// Name identifies the template, usually its source path.
	Name() string
	// Format is the native output format, a normalized extension.
	Format() string
	Render(ctx context.Context, ns models.Namespace, w io.Writer) error
}

var (
	_ Template = (*TextTemplate)(nil)
	_ Template = (*OfficeTemplate)(nil)
)

var errParsed = errors.New("parsed")

// absentType is the declared type of groups without a value.
var absentType = reflect.TypeOf(map[string]interface{}(nil))

// TextTemplate is a template evaluated by the scriggo engine. The engine is
// statically typed, so the template is built once per namespace shape (group
// names and value types) and the builds are cached.
type TextTemplate struct {
	name     string
	format   string
	fsys     formatFS
	renderer *Renderer

	mutex  sync.Mutex
	builds map[uint64]*scriggo.Template
}

func newTextTemplate(r *Renderer, name, format string, fsys fs.FS, file string, escaping scriggo.Format) (*TextTemplate, error) {
	t := &TextTemplate{
		name:     name,
		format:   format,
		fsys:     formatFS{FS: fsys, main: file, mainFormat: escaping},
		renderer: r,
		builds:   make(map[uint64]*scriggo.Template),
	}

	// Parse only, so syntax errors show up now. Type checking needs the
	// namespace and happens on first render.
	_, err := scriggo.BuildTemplate(t.fsys, file, &scriggo.BuildOptions{
		TreeTransformer: func(*ast.Tree) error { return errParsed },
	})
	if err != nil && !errors.Is(err, errParsed) {
		return nil, err
	}
	return t, nil
}

func (t *TextTemplate) Name() string   { return t.name }
func (t *TextTemplate) Format() string { return t.format }

// Render evaluates the template with the groups of ns as global variables.
func (t *TextTemplate) Render(ctx context.Context, ns models.Namespace, w io.Writer) error {
	globals, vars, key := t.renderer.globals(ns)

	compiled, err := t.build(key, globals)
	if err != nil {
		return err
	}
	return run(withFormat(ctx, t.format), compiled, w, vars)
}

type formatKey struct{}

// withFormat records the format of the running template so helpers can adapt
// their output to it.
func withFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, formatKey{}, format)
}

func formatFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	format, _ := ctx.Value(formatKey{}).(string)
	return format
}

func (t *TextTemplate) build(key uint64, globals native.Declarations) (*scriggo.Template, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if compiled, ok := t.builds[key]; ok {
		return compiled, nil
	}
	compiled, err := scriggo.BuildTemplate(t.fsys, t.fsys.main, &scriggo.BuildOptions{
		Globals:           globals,
		MarkdownConverter: t.renderer.markdown,
	})
	if err != nil {
		return nil, err
	}
	t.builds[key] = compiled
	t.renderer.logger.Debug("built template", "template", t.name, "shape", fmt.Sprintf("%016x", key))
	return compiled, nil
}

// run executes a built template. Helpers stop a render with env.Fatal, which
// makes Run panic with the helper's error; that panic is returned as an error.
func run(ctx context.Context, compiled *scriggo.Template, w io.Writer, vars map[string]interface{}) (err error) {
	defer func() {
		if v := recover(); v != nil {
			switch v := v.(type) {
			case error:
				err = v
			default:
				err = fmt.Errorf("%v", v)
			}
		}
	}()
	return compiled.Run(w, vars, &scriggo.RunOptions{Context: ctx})
}

// shapeKey fingerprints the helper registry version and the namespace shape.
func shapeKey(version uint64, shape []string) uint64 {
	return xxh3.HashString(fmt.Sprintf("%d|%s", version, strings.Join(shape, ";")))
}
