package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreFileName lists extra patterns, one per line, skipped when discovering
// data files and when watching a project.
const IgnoreFileName = ".burocaignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// GetIgnorePatterns reads the patterns of the ignore file in dir. A missing
// file yields no patterns.
func GetIgnorePatterns(dir string) ([]string, error) {
	ignorePath := filepath.Join(dir, IgnoreFileName)

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking %s: %w", IgnoreFileName, err)
	}

	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}

	var validPatterns []string
	for _, pattern := range patterns {
		if doublestar.ValidatePattern(pattern) {
			validPatterns = append(validPatterns, pattern)
		}
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: validPatterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return validPatterns, nil
}

// IsDefaultIgnored reports whether a file or directory name is never data:
// hidden entries, editor backups and swap files.
func IsDefaultIgnored(name string) bool {
	name = strings.ToLower(filepath.Base(name))
	if name == "" || name == "." {
		return false
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, "#") {
		return true
	}
	for _, suffix := range []string{"~", ".swp", ".swo", ".bak", ".bkp", ".tmp"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// IsIgnored reports whether the slash separated relative path matches one of
// patterns.
func IsIgnored(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range patterns {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
		// "dir/" ignores everything below dir
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(rel+"/", pattern) {
			return true
		}
	}
	return false
}

func readIgnoreFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// ClearIgnoreCache clears all cached ignore patterns
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
