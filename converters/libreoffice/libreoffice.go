// Package libreoffice converts office documents with a headless LibreOffice.
package libreoffice

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/converters/contracts"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/utils"
)

var (
	textDocuments = []string{"odt", "docx", "doc", "rtf"}
	spreadsheets  = []string{"ods", "xlsx", "xls"}
	presentations = []string{"odp", "pptx"}
)

// targets lists the output formats reachable from each input format.
var targets = func() map[string][]string {
	m := make(map[string][]string)
	for _, f := range textDocuments {
		m[f] = []string{"pdf", "rtf", "txt", "html", "odt", "docx"}
	}
	for _, f := range spreadsheets {
		m[f] = []string{"pdf", "html", "csv", "ods", "xlsx"}
	}
	for _, f := range presentations {
		m[f] = []string{"pdf", "odp", "pptx"}
	}
	return m
}()

// Converter runs soffice --headless --convert-to.
type Converter struct {
	Binary string
	Runner utils.CommandRunner
	Logger *log.Logger
}

var _ contracts.IConverter = (*Converter)(nil)

// NewConverter returns a LibreOffice converter using runner.
func NewConverter(binary string, runner utils.CommandRunner, logger *log.Logger) *Converter {
	if binary == "" {
		binary = "libreoffice"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Converter{Binary: binary, Runner: runner, Logger: logger}
}

func (c *Converter) Supports(from, to string) bool {
	if from == to {
		return false
	}
	for _, t := range targets[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Convert writes into a scratch directory next to dest, because LibreOffice
// only accepts an output directory and names the file after the source.
func (c *Converter) Convert(ctx context.Context, src, dest, from, to string) error {
	if !c.Supports(from, to) {
		return &errs.UnsupportedFormatError{Format: from + " -> " + to, Context: "libreoffice conversion"}
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}

	outDir, err := os.MkdirTemp(filepath.Dir(dest), ".buroca-office-")
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{"--headless", "--norestore", "--convert-to", to, "--outdir", outDir, absSrc}
	c.Logger.Info("running libreoffice", "from", from, "to", to, "dest", dest)

	output, err := c.Runner.Run(ctx, outDir, c.Binary, args...)
	if err != nil {
		return &errs.ConversionError{Source: src, Destination: dest, From: from, To: to, Output: string(output), Err: err}
	}

	stem := strings.TrimSuffix(filepath.Base(absSrc), filepath.Ext(absSrc))
	produced := filepath.Join(outDir, stem+"."+to)
	if _, err := os.Stat(produced); err != nil {
		return &errs.ConversionError{Source: src, Destination: dest, From: from, To: to, Output: string(output), Err: err}
	}
	return moveFile(produced, dest)
}

func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
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
