package templates

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/open2b/scriggo"
)

// formatAliases maps long format names to the extension used for files.
var formatAliases = map[string]string{
	"markdown": "md",
	"latex":    "tex",
	"htm":      "html",
	"text":     "txt",
}

// officeFormats are zip containers whose XML parts are rendered as templates.
var officeFormats = map[string][]string{
	"odt":  {"content.xml", "styles.xml"},
	"ods":  {"content.xml", "styles.xml"},
	"odp":  {"content.xml", "styles.xml"},
	"docx": {"word/document.xml", "word/header*.xml", "word/footer*.xml"},
	"xlsx": {"xl/sharedStrings.xml"},
	"pptx": {"ppt/slides/slide*.xml"},
}

// NormalizeFormat lower-cases f, drops a leading dot and applies aliases.
func NormalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	if alias, ok := formatAliases[f]; ok {
		return alias
	}
	return f
}

// FormatOf returns the format of a file from its extension, "txt" when it has
// none.
func FormatOf(path string) string {
	if format := NormalizeFormat(filepath.Ext(path)); format != "" {
		return format
	}
	return "txt"
}

// IsOfficeFormat reports whether format is rendered as an office document.
func IsOfficeFormat(format string) bool {
	_, ok := officeFormats[NormalizeFormat(format)]
	return ok
}

// engineFormat selects the escaping context used for values shown in a
// template of the given format.
func engineFormat(format string) scriggo.Format {
	switch NormalizeFormat(format) {
	case "md":
		return scriggo.FormatMarkdown
	case "html", "xml":
		return scriggo.FormatHTML
	case "css":
		return scriggo.FormatCSS
	case "js":
		return scriggo.FormatJS
	case "json":
		return scriggo.FormatJSON
	}
	return scriggo.FormatText
}

// formatFS reports file formats from their extension, except for the main
// file whose format is given by the caller.
type formatFS struct {
	fs.FS
	main       string
	mainFormat scriggo.Format
}

func (f formatFS) Format(name string) (scriggo.Format, error) {
	if name == f.main {
		return f.mainFormat, nil
	}
	return engineFormat(FormatOf(name)), nil
}
