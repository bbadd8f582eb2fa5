// Package resources discovers the data files of a project and resolves them
// into one namespace per entity.
//
// A file directly under data/ is a shared group named after its stem. A
// directory under data/ is a per-entity group whose files are named after
// the entities. When several files compete for a slot the one with the
// highest format rank wins.
package resources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/resources/contracts"
	"github.com/meysamhadeli/buroca/resources/models"
	"github.com/meysamhadeli/buroca/utils"
)

// DataDirName is the directory under the project base holding data files.
const DataDirName = "data"

// Options configures a Store.
type Options struct {
	// Loaders maps extensions to loaders. nil uses DefaultLoaders.
	Loaders map[string]Loader
	Logger  *log.Logger
}

// Store resolves resource groups under <base>/data. Discovery runs on first
// use and is kept until Clear.
type Store struct {
	base    string
	dataDir string
	loaders map[string]Loader
	logger  *log.Logger
	cache   *ParseCache

	mutex      sync.RWMutex
	discovered bool
	groups     []models.Group
	// entityFiles maps a per-entity directory to its entity -> file table.
	entityFiles map[string]map[string]string
}

var _ contracts.IResourceStore = (*Store)(nil)

// NewStore creates a store rooted at the project directory base.
func NewStore(base string, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project path: %w", err)
	}

	loaders := DefaultLoaders()
	if opts.Loaders != nil {
		loaders = make(map[string]Loader, len(opts.Loaders))
		for ext, loader := range opts.Loaders {
			loaders[ext] = loader
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Store{
		base:        absBase,
		dataDir:     filepath.Join(absBase, DataDirName),
		loaders:     loaders,
		logger:      logger,
		cache:       NewParseCache(),
		entityFiles: make(map[string]map[string]string),
	}, nil
}

// Base returns the absolute project directory.
func (s *Store) Base() string { return s.base }

// DataDir returns the absolute data directory.
func (s *Store) DataDir() string { return s.dataDir }

// RegisterLoader adds or replaces the loader of ext and drops the discovery
// results, which depend on the set of known extensions.
func (s *Store) RegisterLoader(ext string, loader Loader) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.loaders[ext] = loader
	s.resetDiscovery()
}

// Extensions returns the extensions with a loader, highest priority first.
func (s *Store) Extensions() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return supportedExtensions(s.loaders)
}

// Clear forgets discovered groups and every parsed value.
func (s *Store) Clear() {
	s.mutex.Lock()
	s.resetDiscovery()
	s.mutex.Unlock()
	s.cache.Clear()
}

func (s *Store) resetDiscovery() {
	s.discovered = false
	s.groups = nil
	s.entityFiles = make(map[string]map[string]string)
}

// Groups returns the resource groups sorted by name.
func (s *Store) Groups() ([]models.Group, error) {
	if err := s.discover(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]models.Group(nil), s.groups...), nil
}

type candidate struct {
	group models.Group
	rank  int
}

func (s *Store) discover() error {
	s.mutex.RLock()
	done := s.discovered
	s.mutex.RUnlock()
	if done {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.discovered {
		return nil
	}

	entries, err := os.ReadDir(s.dataDir)
	if os.IsNotExist(err) {
		s.logger.Debug("no data directory", "path", s.dataDir)
		s.groups = nil
		s.discovered = true
		return nil
	}
	if err != nil {
		return &errs.ResourceLoadError{Path: s.dataDir, Err: err}
	}

	patterns, err := utils.GetIgnorePatterns(s.dataDir)
	if err != nil {
		return err
	}

	best := make(map[string]candidate)
	for _, entry := range entries {
		name := entry.Name()
		if utils.IsDefaultIgnored(name) || utils.IsIgnored(name, patterns) {
			continue
		}

		var c candidate
		if entry.IsDir() {
			c = candidate{
				group: models.Group{Name: name, Kind: models.PerEntity, Path: filepath.Join(s.dataDir, name)},
				rank:  directoryRank,
			}
		} else {
			stem, ext := splitName(name)
			if _, ok := s.loaders[ext]; !ok {
				s.logger.Debug("skipping file without loader", "file", name)
				continue
			}
			c = candidate{
				group: models.Group{Name: stem, Kind: models.Shared, Path: filepath.Join(s.dataDir, name), Format: ext},
				rank:  Rank(ext),
			}
		}

		if prev, ok := best[c.group.Name]; ok {
			if prev.rank >= c.rank {
				s.logger.Debug("ignoring lower priority source", "group", c.group.Name, "path", c.group.Path, "chosen", prev.group.Path)
				continue
			}
			s.logger.Debug("ignoring lower priority source", "group", c.group.Name, "path", prev.group.Path, "chosen", c.group.Path)
		}
		best[c.group.Name] = c
	}

	groups := make([]models.Group, 0, len(best))
	for _, c := range best {
		groups = append(groups, c.group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })

	s.groups = groups
	s.discovered = true
	return nil
}

// entityTable lists dir and maps every entity to its highest ranked file.
func (s *Store) entityTable(dir string) (map[string]string, error) {
	s.mutex.RLock()
	table, ok := s.entityFiles[dir]
	s.mutex.RUnlock()
	if ok {
		return table, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &errs.ResourceLoadError{Path: dir, Err: err}
	}
	patterns, err := utils.GetIgnorePatterns(dir)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	table = make(map[string]string)
	ranks := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() || utils.IsDefaultIgnored(entry.Name()) || utils.IsIgnored(entry.Name(), patterns) {
			continue
		}
		stem, ext := splitName(entry.Name())
		if _, ok := s.loaders[ext]; !ok {
			continue
		}
		if rank, seen := ranks[stem]; seen && rank >= Rank(ext) {
			continue
		}
		table[stem] = filepath.Join(dir, entry.Name())
		ranks[stem] = Rank(ext)
	}
	s.entityFiles[dir] = table
	return table, nil
}

// EntityNames returns the canonical entity list. Every per-entity directory
// must hold a subset of the entities of the largest one, which then defines
// the list. Otherwise an *errs.InconsistentResourceError names both
// directories.
func (s *Store) EntityNames() ([]string, error) {
	groups, err := s.Groups()
	if err != nil {
		return nil, err
	}

	type entitySet struct {
		dir   string
		names map[string]struct{}
	}
	var sets []entitySet
	for _, group := range groups {
		if group.Kind != models.PerEntity {
			continue
		}
		table, err := s.entityTable(group.Path)
		if err != nil {
			return nil, err
		}
		names := make(map[string]struct{}, len(table))
		for name := range table {
			names[name] = struct{}{}
		}
		sets = append(sets, entitySet{dir: group.Path, names: names})
	}
	if len(sets) == 0 {
		return []string{}, nil
	}

	// Largest first; ties keep name order so results do not depend on the
	// directory listing.
	sort.SliceStable(sets, func(i, j int) bool { return len(sets[i].names) > len(sets[j].names) })

	canonical := sets[0]
	for _, other := range sets[1:] {
		missing := difference(other.names, canonical.names)
		if len(missing) == 0 {
			continue
		}
		return nil, &errs.InconsistentResourceError{
			First:      canonical.dir,
			Second:     other.dir,
			OnlyFirst:  difference(canonical.names, other.names),
			OnlySecond: missing,
		}
	}

	names := make([]string, 0, len(canonical.names))
	for name := range canonical.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// difference returns the sorted members of a missing from b.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for name := range a {
		if _, ok := b[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// LoadEntityNamespace resolves every group for entity. Per-entity groups
// without a file for entity resolve to nil.
func (s *Store) LoadEntityNamespace(entity string) (models.Namespace, error) {
	groups, err := s.Groups()
	if err != nil {
		return nil, err
	}

	ns := make(models.Namespace, len(groups))
	for _, group := range groups {
		switch group.Kind {
		case models.Shared:
			value, err := s.Load(group.Path)
			if err != nil {
				return nil, err
			}
			ns[group.Name] = value
		case models.PerEntity:
			table, err := s.entityTable(group.Path)
			if err != nil {
				return nil, err
			}
			path, ok := table[entity]
			if !ok {
				s.logger.Debug("entity has no record", "group", group.Name, "entity", entity)
				ns[group.Name] = nil
				continue
			}
			value, err := s.Load(path)
			if err != nil {
				return nil, err
			}
			ns[group.Name] = value
		}
	}
	return ns, nil
}

// LoadAllEntities resolves the namespace of every canonical entity.
func (s *Store) LoadAllEntities() (*models.Entities, error) {
	names, err := s.EntityNames()
	if err != nil {
		return nil, err
	}

	entities := &models.Entities{
		Names:      names,
		Namespaces: make(map[string]models.Namespace, len(names)),
	}
	for _, name := range names {
		ns, err := s.LoadEntityNamespace(name)
		if err != nil {
			return nil, err
		}
		entities.Namespaces[name] = ns
	}
	return entities, nil
}

// Load parses the file at path with the loader of its extension. Values are
// memoized by absolute path, so the same path always yields the same value.
func (s *Store) Load(path string) (interface{}, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &errs.ResourceLoadError{Path: path, Err: err}
	}

	_, ext := splitName(absPath)
	s.mutex.RLock()
	loader, ok := s.loaders[ext]
	s.mutex.RUnlock()
	if !ok {
		return nil, &errs.ResourceLoadError{Path: absPath, Err: &errs.UnsupportedFormatError{Format: ext, Context: "data"}}
	}

	return s.cache.GetOrLoad(absPath, func() (interface{}, error) {
		s.logger.Debug("parsing data file", "path", absPath)
		value, err := loader.Load(absPath)
		if err != nil {
			return nil, &errs.ResourceLoadError{Path: absPath, Err: err}
		}
		return value, nil
	})
}

// CachedPaths returns the paths parsed so far.
func (s *Store) CachedPaths() []string {
	return s.cache.Paths()
}

// StalePaths returns parsed paths changed on disk since they were loaded.
func (s *Store) StalePaths() []string {
	return s.cache.StalePaths()
}

// GetPerformanceStats merges hit/miss counters with storage figures.
func (s *Store) GetPerformanceStats() map[string]interface{} {
	stats := s.cache.GetPerformanceStats()
	for key, value := range s.cache.GetCacheStats() {
		stats[key] = value
	}
	return stats
}

// ResetPerformanceStats resets the hit/miss counters.
func (s *Store) ResetPerformanceStats() {
	s.cache.ResetPerformanceStats()
}
