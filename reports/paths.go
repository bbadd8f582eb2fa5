package reports

import (
	"path/filepath"
	"strings"

	"github.com/meysamhadeli/buroca/templates"
)

// ReportsDirName is the directory rendered documents are written to.
const ReportsDirName = "reports"

// sourceDirs are the directories whose files get a mirrored reports path.
var sourceDirs = map[string]bool{"templates": true, "data": true}

// NameFor turns "phrase.md" into "phrase-john.md". A non-empty format
// replaces the extension; format aliases such as markdown and latex are
// applied.
func NameFor(template, entity, format string) string {
	ext := filepath.Ext(template)
	stem := strings.TrimSuffix(template, ext)

	if format = templates.NormalizeFormat(format); format == "" {
		format = strings.TrimPrefix(ext, ".")
	}
	name := stem + "-" + entity
	if format != "" {
		name += "." + format
	}
	return name
}

// AsReportPath moves a path found under templates/ or data/ to the sibling
// reports/ directory. Any other path is placed directly under base/reports.
func AsReportPath(path, base string) string {
	dir, file := filepath.Split(path)
	dir = filepath.Clean(dir)
	if sourceDirs[filepath.Base(dir)] {
		return filepath.Join(filepath.Dir(dir), ReportsDirName, file)
	}
	return filepath.Join(base, ReportsDirName, file)
}

// DefaultName derives the output of template for entity: the NameFor name
// placed at the AsReportPath location.
func DefaultName(base string) NameFunc {
	return func(template, entity, format string) string {
		return AsReportPath(NameFor(template, entity, format), base)
	}
}
