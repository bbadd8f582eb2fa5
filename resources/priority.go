package resources

import (
	"path/filepath"
	"strings"
)

// formatPriority lists data formats from highest to lowest priority. When a
// group or entity slot is backed by several files the one whose extension
// appears first wins. xlsx, xls, html, xml and sqlite have no built-in loader;
// their ranks apply once one is added with Store.RegisterLoader.
var formatPriority = []string{
	"bson",
	"csv",
	"xlsx",
	"xls",
	"html",
	"xml",
	"sqlite",
	"ini",
	"cue",
	"hcl",
	"toml",
	"yml",
	"yaml",
	"json",
}

// directoryRank is lower than the rank of any file, so a file always beats a
// directory with the same name.
const directoryRank = -1

// Rank returns the priority of ext (with or without the leading dot). Higher
// wins; unknown extensions rank 0.
func Rank(ext string) int {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for i, format := range formatPriority {
		if format == ext {
			return len(formatPriority) - i
		}
	}
	return 0
}

// splitName splits a file name into stem and lower-cased extension.
func splitName(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), strings.ToLower(strings.TrimPrefix(ext, "."))
}
