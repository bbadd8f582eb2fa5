// Package converters turns rendered documents into other formats and joins
// pdf reports.
package converters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/converters/contracts"
	"github.com/meysamhadeli/buroca/converters/goldmark"
	"github.com/meysamhadeli/buroca/converters/libreoffice"
	"github.com/meysamhadeli/buroca/converters/pandoc"
	"github.com/meysamhadeli/buroca/converters/pdfjam"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/templates"
	"github.com/meysamhadeli/buroca/utils"
)

// Options selects the external tools of a default registry.
type Options struct {
	Pandoc      string
	PandocArgs  []string
	PDFEngine   string
	LibreOffice string
	PDFJam      string
	Timeout     time.Duration
	// Runner replaces the command executor, mostly in tests.
	Runner utils.CommandRunner
	Logger *log.Logger
}

// Registry dispatches a conversion to the first converter supporting the
// format pair. Converting a file to its own format copies it.
type Registry struct {
	converters []contracts.IConverter
	joiner     contracts.IJoiner
	logger     *log.Logger
}

var (
	_ contracts.IConverter = (*Registry)(nil)
	_ contracts.IJoiner    = (*Registry)(nil)
)

// NewRegistry returns a registry trying converters in order.
func NewRegistry(joiner contracts.IJoiner, logger *log.Logger, converters ...contracts.IConverter) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{converters: converters, joiner: joiner, logger: logger}
}

// NewDefaultRegistry wires goldmark, pandoc, LibreOffice and pdfjam.
func NewDefaultRegistry(opts Options) *Registry {
	runner := opts.Runner
	if runner == nil {
		runner = utils.NewCommandExecutor(opts.Timeout)
	}
	return NewRegistry(
		pdfjam.NewJoiner(opts.PDFJam, runner, opts.Logger),
		opts.Logger,
		goldmark.NewConverter(true),
		// office sources keep their layout only through libreoffice
		libreoffice.NewConverter(opts.LibreOffice, runner, opts.Logger),
		pandoc.NewConverter(opts.Pandoc, opts.PDFEngine, opts.PandocArgs, runner, opts.Logger),
	)
}

// Register appends a converter. It is tried after the existing ones.
func (r *Registry) Register(c contracts.IConverter) {
	r.converters = append(r.converters, c)
}

func (r *Registry) Supports(from, to string) bool {
	from, to = templates.NormalizeFormat(from), templates.NormalizeFormat(to)
	if from == to {
		return true
	}
	return r.find(from, to) != nil
}

func (r *Registry) find(from, to string) contracts.IConverter {
	for _, c := range r.converters {
		if c.Supports(from, to) {
			return c
		}
	}
	return nil
}

// Convert converts src into dest. Empty formats are taken from the file
// extensions.
func (r *Registry) Convert(ctx context.Context, src, dest, from, to string) error {
	from = inferFormat(src, from)
	to = inferFormat(dest, to)

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if from == to {
		r.logger.Debug("copying", "src", src, "dest", dest)
		return copyFile(src, dest)
	}

	c := r.find(from, to)
	if c == nil {
		return &errs.UnsupportedFormatError{Format: from + " -> " + to, Context: "conversion"}
	}
	return c.Convert(ctx, src, dest, from, to)
}

// Join concatenates pdf files into dest.
func (r *Registry) Join(ctx context.Context, files []string, dest string) error {
	if r.joiner == nil {
		return errors.New("no pdf joiner configured")
	}
	return r.joiner.Join(ctx, files, dest)
}

func inferFormat(path, format string) string {
	if format = templates.NormalizeFormat(format); format != "" {
		return format
	}
	return templates.FormatOf(path)
}

func copyFile(src, dest string) error {
	absSrc, _ := filepath.Abs(src)
	absDest, _ := filepath.Abs(dest)
	if absSrc == absDest {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
