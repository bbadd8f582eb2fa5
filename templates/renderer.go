// Package templates compiles and renders report templates.
//
// Text templates use the scriggo template language; every resource group of
// the namespace is a global variable and helpers such as cronogram are global
// functions. Office documents (odt, docx, ...) are rendered part by part.
package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/converters/contracts"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/resources/models"
	"github.com/open2b/scriggo"
	"github.com/open2b/scriggo/native"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Options configures a Renderer.
type Options struct {
	// Helpers are the functions callable from templates. nil uses
	// DefaultHelpers.
	Helpers *Helpers
	// Converter turns rendered files into other formats. Without one only
	// native formats can be produced.
	Converter contracts.IConverter
	Logger    *log.Logger
}

// Renderer compiles templates and renders them against namespaces.
type Renderer struct {
	helpers   *Helpers
	converter contracts.IConverter
	logger    *log.Logger
	markdown  scriggo.Converter
}

// NewRenderer creates a renderer.
func NewRenderer(opts *Options) *Renderer {
	if opts == nil {
		opts = &Options{}
	}
	helpers := opts.Helpers
	if helpers == nil {
		helpers = DefaultHelpers()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	return &Renderer{
		helpers:   helpers,
		converter: opts.Converter,
		logger:    logger,
		markdown: func(src []byte, out io.Writer) error {
			return md.Convert(src, out)
		},
	}
}

// Helpers returns the helper registry used by the renderer.
func (r *Renderer) Helpers() *Helpers { return r.helpers }

// Compile parses source as a template producing formatHint ("md", "html",
// "txt", ...). Extended or imported files are not available to it.
func (r *Renderer) Compile(source, formatHint string) (Template, error) {
	format := NormalizeFormat(formatHint)
	if format == "" {
		format = "txt"
	}
	if IsOfficeFormat(format) {
		return nil, &errs.UnsupportedFormatError{Format: format, Context: "inline template"}
	}
	name := "template." + format
	t, err := newTextTemplate(r, name, format, scriggo.Files{name: []byte(source)}, name, engineFormat(format))
	if err != nil {
		return nil, wrapRenderError(name, err)
	}
	return t, nil
}

// CompileFile compiles the template at path. Office documents become an
// *OfficeTemplate, anything else a *TextTemplate that may extend or import
// files of its directory.
func (r *Renderer) CompileFile(path string) (Template, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path: %w", err)
	}
	format := FormatOf(absPath)

	if IsOfficeFormat(format) {
		data, err := os.ReadFile(absPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template: %w", err)
		}
		t, err := newOfficeTemplate(r, absPath, format, data)
		if err != nil {
			return nil, wrapRenderError(absPath, err)
		}
		return t, nil
	}

	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	dir, file := filepath.Split(absPath)
	t, err := newTextTemplate(r, absPath, format, os.DirFS(dir), file, engineFormat(format))
	if err != nil {
		return nil, wrapRenderError(absPath, err)
	}
	return t, nil
}

// Render renders t with ns and returns the output.
func (r *Renderer) Render(ctx context.Context, t Template, ns models.Namespace) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Render(ctx, ns, &buf); err != nil {
		return nil, wrapRenderError(t.Name(), err)
	}
	return buf.Bytes(), nil
}

// RenderToFile renders t with ns into dest, creating its parent directories.
// Nothing is written when rendering fails.
func (r *Renderer) RenderToFile(ctx context.Context, t Template, ns models.Namespace, dest string) error {
	var buf bytes.Buffer
	if err := t.Render(ctx, ns, &buf); err != nil {
		return wrapRenderError(dest, err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// RenderAndConvert renders t into dest. When outputFormat is empty or equal
// to the template format the output is written directly; otherwise it is
// rendered into a temporary directory, converted into dest, and the
// temporary directory is removed whatever the outcome.
func (r *Renderer) RenderAndConvert(ctx context.Context, t Template, ns models.Namespace, dest, outputFormat string) error {
	outputFormat = NormalizeFormat(outputFormat)
	if outputFormat == "" || outputFormat == t.Format() {
		return r.RenderToFile(ctx, t, ns, dest)
	}
	if r.converter == nil || !r.converter.Supports(t.Format(), outputFormat) {
		return &errs.UnsupportedFormatError{Format: t.Format() + " -> " + outputFormat, Context: "conversion"}
	}

	tmpDir, err := os.MkdirTemp("", "buroca-")
	if err != nil {
		return fmt.Errorf("failed to create temporary directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	stem := strings.TrimSuffix(filepath.Base(dest), filepath.Ext(dest))
	intermediate := filepath.Join(tmpDir, stem+"."+t.Format())

	var buf bytes.Buffer
	if err := t.Render(ctx, ns, &buf); err != nil {
		return wrapRenderError(dest, err)
	}
	if err := os.WriteFile(intermediate, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write intermediate file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	r.logger.Debug("converting", "from", t.Format(), "to", outputFormat, "dest", dest)
	return r.converter.Convert(ctx, intermediate, dest, t.Format(), outputFormat)
}

// globals declares the namespace groups next to the helpers. It returns the
// declarations, the variable values and a key identifying their shape.
func (r *Renderer) globals(ns models.Namespace) (native.Declarations, map[string]interface{}, uint64) {
	decls, version := r.helpers.declarations()
	vars := make(map[string]interface{}, len(ns))
	shape := make([]string, 0, len(ns))

	for _, name := range ns.Names() {
		if !token.IsIdentifier(name) {
			r.logger.Warn("resource group is not a valid identifier, skipping", "group", name)
			continue
		}
		if _, ok := decls[name]; ok {
			r.logger.Warn("resource group shadows helper", "group", name)
		}

		typ := absentType
		if value := ns[name]; value != nil {
			typ = reflect.TypeOf(value)
			vars[name] = value
		}
		decls[name] = reflect.Zero(reflect.PointerTo(typ)).Interface()
		shape = append(shape, name+" "+typ.String())
	}

	return decls, vars, shapeKey(version, shape)
}

// wrapRenderError turns any error raised while compiling or evaluating a
// template into an *errs.TemplateRenderError for dest.
func wrapRenderError(dest string, err error) error {
	var renderErr *errs.TemplateRenderError
	if errors.As(err, &renderErr) {
		wrapped := *renderErr
		wrapped.Destination = dest
		return &wrapped
	}

	var (
		buildErr *scriggo.BuildError
		panicErr *scriggo.PanicError
		exitErr  *scriggo.ExitError
	)
	switch {
	case errors.As(err, &buildErr):
		return &errs.TemplateRenderError{
			Destination: dest,
			Kind:        "BuildError",
			Message:     fmt.Sprintf("%s:%s: %s", filepath.Base(buildErr.Path()), buildErr.Position(), buildErr.Message()),
			Err:         err,
		}
	case errors.As(err, &panicErr):
		if cause, ok := panicErr.Message().(error); ok {
			return &errs.TemplateRenderError{Destination: dest, Kind: errs.Kind(cause), Message: cause.Error(), Err: cause}
		}
		return &errs.TemplateRenderError{Destination: dest, Kind: "PanicError", Message: panicErr.String(), Err: err}
	case errors.As(err, &exitErr):
		return &errs.TemplateRenderError{Destination: dest, Kind: "ExitError", Message: exitErr.Error(), Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &errs.TemplateRenderError{Destination: dest, Kind: "Canceled", Message: err.Error(), Err: err}
	}
	return &errs.TemplateRenderError{Destination: dest, Kind: errs.Kind(err), Message: err.Error(), Err: err}
}
