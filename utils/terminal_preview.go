package utils

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// DefaultTheme is the chroma style used for previews.
const DefaultTheme = "dracula"

// binaryFormats cannot be shown in a terminal.
var binaryFormats = map[string]bool{
	"pdf": true, "odt": true, "ods": true, "odp": true,
	"docx": true, "xlsx": true, "pptx": true, "doc": true, "xls": true,
}

// lexers maps document formats to chroma lexer names where they differ.
var lexers = map[string]string{
	"txt": "plaintext",
	"tex": "latex",
	"yml": "yaml",
}

// CanPreview reports whether documents of format can be shown in a terminal.
func CanPreview(format string) bool {
	return !binaryFormats[strings.ToLower(format)]
}

// RenderPreview writes content to w for a terminal: markdown is rendered
// with glamour, anything else is syntax highlighted with chroma.
func RenderPreview(ctx context.Context, w io.Writer, content, format, theme string, width int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	format = strings.ToLower(format)
	if !CanPreview(format) {
		return fmt.Errorf("cannot preview %s documents in a terminal", format)
	}
	if theme == "" {
		theme = DefaultTheme
	}

	if format == "md" || format == "markdown" {
		opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
		if width > 0 {
			opts = append(opts, glamour.WithWordWrap(width))
		}
		renderer, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return err
		}
		out, err := renderer.Render(content)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}

	lexer := format
	if name, ok := lexers[format]; ok {
		lexer = name
	}
	return quick.Highlight(w, content, lexer, "terminal256", theme)
}
