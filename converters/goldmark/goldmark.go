// Package goldmark converts markdown to html in process.
package goldmark

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/meysamhadeli/buroca/converters/contracts"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Converter renders markdown files as html.
type Converter struct {
	md goldmark.Markdown
}

var _ contracts.IConverter = (*Converter)(nil)

// NewConverter returns a converter supporting GitHub flavored markdown.
// unsafe keeps raw html of the source in the output.
func NewConverter(unsafe bool) *Converter {
	var opts []goldmark.Option
	opts = append(opts,
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	if unsafe {
		opts = append(opts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	return &Converter{md: goldmark.New(opts...)}
}

func (c *Converter) Supports(from, to string) bool {
	return from == "md" && to == "html"
}

func (c *Converter) Convert(ctx context.Context, src, dest, from, to string) error {
	if !c.Supports(from, to) {
		return &errs.UnsupportedFormatError{Format: from + " -> " + to, Context: "goldmark conversion"}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	var buf bytes.Buffer
	if err := c.md.Convert(source, &buf); err != nil {
		return &errs.ConversionError{Source: src, Destination: dest, From: from, To: to, Err: err}
	}
	if err := os.WriteFile(dest, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}
