// Package pandoc runs conversions through the pandoc command line tool.
package pandoc

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/converters/contracts"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/utils"
)

// DefaultPDFEngine is the LaTeX engine used for pdf output.
const DefaultPDFEngine = "xelatex"

// readers and writers name buroca formats the way pandoc does.
var (
	readers = map[string]string{
		"md":   "markdown",
		"html": "html",
		"tex":  "latex",
		"rst":  "rst",
		"docx": "docx",
		"odt":  "odt",
	}
	writers = map[string]string{
		"md":   "markdown",
		"html": "html",
		"tex":  "latex",
		"rtf":  "rtf",
		"docx": "docx",
		"odt":  "odt",
		"txt":  "plain",
		"pdf":  "pdf",
	}
)

// Converter converts documents with pandoc.
type Converter struct {
	Binary    string
	PDFEngine string
	// Args are appended to every invocation.
	Args   []string
	Runner utils.CommandRunner
	Logger *log.Logger
}

var _ contracts.IConverter = (*Converter)(nil)

// NewConverter returns a pandoc converter using runner.
func NewConverter(binary, pdfEngine string, args []string, runner utils.CommandRunner, logger *log.Logger) *Converter {
	if binary == "" {
		binary = "pandoc"
	}
	if pdfEngine == "" {
		pdfEngine = DefaultPDFEngine
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Converter{Binary: binary, PDFEngine: pdfEngine, Args: args, Runner: runner, Logger: logger}
}

func (c *Converter) Supports(from, to string) bool {
	_, okFrom := readers[from]
	_, okTo := writers[to]
	return okFrom && okTo && from != to
}

// Arguments returns the pandoc command line converting src into dest.
func (c *Converter) Arguments(src, dest, from, to string) []string {
	args := []string{"-f", readers[from]}
	if to == "pdf" {
		// pdf goes through LaTeX.
		args = append(args, "-t", "latex", "--pdf-engine", c.PDFEngine)
	} else {
		args = append(args, "-t", writers[to], "--standalone")
	}
	args = append(args, c.Args...)
	return append(args, src, "-o", dest)
}

func (c *Converter) Convert(ctx context.Context, src, dest, from, to string) error {
	if !c.Supports(from, to) {
		return &errs.UnsupportedFormatError{Format: from + " -> " + to, Context: "pandoc conversion"}
	}
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}

	args := c.Arguments(src, absDest, from, to)
	c.Logger.Info("running pandoc", "from", from, "to", to, "dest", dest)

	// Relative resources such as images resolve against the source directory.
	output, err := c.Runner.Run(ctx, filepath.Dir(src), c.Binary, args...)
	if err != nil {
		return &errs.ConversionError{Source: src, Destination: dest, From: from, To: to, Output: string(output), Err: err}
	}
	if _, err := os.Stat(absDest); err != nil {
		return &errs.ConversionError{Source: src, Destination: dest, From: from, To: to, Output: string(output), Err: err}
	}
	return nil
}
