package resources

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/meysamhadeli/buroca/errs"
	"github.com/meysamhadeli/buroca/resources/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates rel under root with content, creating parent directories.
func writeFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// countingLoader wraps LoadYAML and counts parses per path.
type countingLoader struct {
	mutex sync.Mutex
	calls map[string]int
	total atomic.Int64
}

func newCountingLoader() *countingLoader {
	return &countingLoader{calls: make(map[string]int)}
}

func (c *countingLoader) Load(path string) (interface{}, error) {
	c.mutex.Lock()
	c.calls[path]++
	c.mutex.Unlock()
	c.total.Add(1)
	return LoadYAML(path)
}

func (c *countingLoader) count(path string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.calls[path]
}

func newBeatlesProject(t *testing.T) string {
	root := t.TempDir()
	writeFile(t, root, "data/band.yml", "name: Beatles\n")
	writeFile(t, root, "data/person/john.yml", "name: John\nrole: singer\n")
	writeFile(t, root, "data/person/paul.yml", "name: Paul\nrole: bass player\n")
	writeFile(t, root, "data/person/george.yml", "name: George\nrole: guitarist\n")
	writeFile(t, root, "data/instrument/john.yml", "kind: guitar\n")
	writeFile(t, root, "data/instrument/paul.yml", "kind: bass\n")
	return root
}

func TestStore_LoadEntityNamespace(t *testing.T) {
	root := newBeatlesProject(t)
	store, err := NewStore(root, nil)
	require.NoError(t, err)

	ns, err := store.LoadEntityNamespace("john")
	require.NoError(t, err)

	assert.Equal(t, []string{"band", "instrument", "person"}, ns.Names())
	assert.Equal(t, map[string]interface{}{"name": "Beatles"}, ns["band"])
	assert.Equal(t, map[string]interface{}{"name": "John", "role": "singer"}, ns["person"])
	assert.Equal(t, map[string]interface{}{"kind": "guitar"}, ns["instrument"])
}

func TestStore_MissingEntityFileIsAbsent(t *testing.T) {
	root := newBeatlesProject(t)
	store, err := NewStore(root, nil)
	require.NoError(t, err)

	ns, err := store.LoadEntityNamespace("george")
	require.NoError(t, err)

	assert.Contains(t, ns, "instrument")
	assert.True(t, ns.Absent("instrument"))
	assert.False(t, ns.Absent("person"))
}

func TestStore_Groups(t *testing.T) {
	root := newBeatlesProject(t)
	store, err := NewStore(root, nil)
	require.NoError(t, err)

	groups, err := store.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "band", groups[0].Name)
	assert.Equal(t, models.Shared, groups[0].Kind)
	assert.Equal(t, "yml", groups[0].Format)
	assert.Equal(t, models.PerEntity, groups[1].Kind)
	assert.Equal(t, filepath.Join(store.DataDir(), "person"), groups[2].Path)
}

func TestStore_SupersetWins(t *testing.T) {
	root := newBeatlesProject(t)
	store, err := NewStore(root, nil)
	require.NoError(t, err)

	names, err := store.EntityNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"george", "john", "paul"}, names)

	entities, err := store.LoadAllEntities()
	require.NoError(t, err)
	assert.Equal(t, 3, entities.Len())
	assert.True(t, entities.Namespaces["george"].Absent("instrument"))
	assert.Equal(t, "Paul", entities.Namespaces["paul"]["person"].(map[string]interface{})["name"])
}

func TestStore_InconsistentEntities(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/person/john.yml", "name: John\n")
	writeFile(t, root, "data/person/paul.yml", "name: Paul\n")
	writeFile(t, root, "data/instrument/paul.yml", "kind: bass\n")
	writeFile(t, root, "data/instrument/ringo.yml", "kind: drums\n")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	_, err = store.LoadAllEntities()
	require.Error(t, err)

	var inconsistent *errs.InconsistentResourceError
	require.True(t, errors.As(err, &inconsistent))
	assert.ElementsMatch(t,
		[]string{filepath.Join(store.DataDir(), "person"), filepath.Join(store.DataDir(), "instrument")},
		[]string{inconsistent.First, inconsistent.Second})
	assert.Contains(t, err.Error(), "instrument")
	assert.Contains(t, err.Error(), "person")
}

func TestStore_NoPerEntityDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/band.yml", "name: Beatles\n")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	entities, err := store.LoadAllEntities()
	require.NoError(t, err)
	assert.Equal(t, 0, entities.Len())
}

func TestStore_MissingDataDirectory(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	groups, err := store.Groups()
	require.NoError(t, err)
	assert.Empty(t, groups)

	ns, err := store.LoadEntityNamespace("john")
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestStore_FormatPriority(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/person/john.yml", "name: John from yaml\n")
	writeFile(t, root, "data/person/john.json", `{"name": "John from json"}`)
	writeFile(t, root, "data/band.json", `{"name": "json"}`)
	writeFile(t, root, "data/band.toml", `name = "toml"`)
	writeFile(t, root, "data/label.yml", "name: EMI\n")
	writeFile(t, root, "data/label/john.yml", "name: ignored\n")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	ns, err := store.LoadEntityNamespace("john")
	require.NoError(t, err)

	assert.Equal(t, "John from yaml", ns["person"].(map[string]interface{})["name"])
	assert.Equal(t, "toml", ns["band"].(map[string]interface{})["name"])
	assert.Equal(t, "EMI", ns["label"].(map[string]interface{})["name"])

	names, err := store.EntityNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"john"}, names)
}

func TestStore_IgnoresHiddenAndUnknownFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/band.yml", "name: Beatles\n")
	writeFile(t, root, "data/.secret.yml", "token: x\n")
	writeFile(t, root, "data/notes.txt", "not data\n")
	writeFile(t, root, "data/band.yml~", "name: backup\n")
	writeFile(t, root, "data/drafts.yml", "name: draft\n")
	writeFile(t, root, "data/.burocaignore", "drafts.*\n")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	groups, err := store.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "band", groups[0].Name)
}

func TestStore_LoadIsMemoized(t *testing.T) {
	root := newBeatlesProject(t)
	loader := newCountingLoader()
	store, err := NewStore(root, &Options{Loaders: map[string]Loader{"yml": loader}})
	require.NoError(t, err)

	bandPath := filepath.Join(store.DataDir(), "band.yml")

	first, err := store.Load(bandPath)
	require.NoError(t, err)
	second, err := store.Load(bandPath)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.count(bandPath))
	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer())

	_, err = store.LoadAllEntities()
	require.NoError(t, err)
	assert.Equal(t, 1, loader.count(bandPath))

	stats := store.GetPerformanceStats()
	assert.Greater(t, stats["cache_hits"].(int64), int64(0))
}

func TestStore_ConcurrentLoadsParseOnce(t *testing.T) {
	root := newBeatlesProject(t)
	loader := newCountingLoader()
	store, err := NewStore(root, &Options{Loaders: map[string]Loader{"yml": loader}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.LoadAllEntities()
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// band + 3 people + 2 instruments
	assert.Equal(t, int64(6), loader.total.Load())
}

func TestStore_Clear(t *testing.T) {
	root := newBeatlesProject(t)
	loader := newCountingLoader()
	store, err := NewStore(root, &Options{Loaders: map[string]Loader{"yml": loader}})
	require.NoError(t, err)

	_, err = store.LoadEntityNamespace("john")
	require.NoError(t, err)

	writeFile(t, root, "data/person/ringo.yml", "name: Ringo\n")
	names, err := store.EntityNames()
	require.NoError(t, err)
	assert.NotContains(t, names, "ringo")

	store.Clear()

	names, err = store.EntityNames()
	require.NoError(t, err)
	assert.Contains(t, names, "ringo")

	_, err = store.LoadEntityNamespace("john")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.count(filepath.Join(store.DataDir(), "band.yml")))
}

func TestStore_MalformedFile(t *testing.T) {
	root := t.TempDir()
	bad := writeFile(t, root, "data/band.yml", "name: [unclosed\n")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	_, err = store.LoadEntityNamespace("john")
	require.Error(t, err)

	var loadErr *errs.ResourceLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, bad, loadErr.Path)
}

func TestStore_LoadUnknownExtension(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "data/notes.txt", "hello")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	_, err = store.Load(path)
	var unsupported *errs.UnsupportedFormatError
	assert.True(t, errors.As(err, &unsupported))
}

func TestStore_RegisterLoader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/band.txt", "Beatles")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	groups, err := store.Groups()
	require.NoError(t, err)
	assert.Empty(t, groups)

	store.RegisterLoader("txt", LoaderFunc(func(path string) (interface{}, error) {
		data, err := os.ReadFile(path)
		return string(data), err
	}))

	ns, err := store.LoadEntityNamespace("john")
	require.NoError(t, err)
	assert.Equal(t, "Beatles", ns["band"])
}

func TestRank(t *testing.T) {
	assert.Greater(t, Rank("yml"), Rank("json"))
	assert.Greater(t, Rank(".toml"), Rank("yaml"))
	assert.Greater(t, Rank("bson"), Rank("csv"))
	assert.Greater(t, Rank("CSV"), Rank("ini"))
	assert.Equal(t, 0, Rank("txt"))
	assert.Greater(t, Rank("json"), directoryRank)

	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	exts := store.Extensions()
	assert.Equal(t, "bson", exts[0])
	assert.Equal(t, "json", exts[len(exts)-1])
}

func TestStore_ReservedRankNeedsLoader(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "data/band.yml", "name: Beatles\n")
	writeFile(t, root, "data/band.xlsx", "sheet")

	store, err := NewStore(root, nil)
	require.NoError(t, err)

	// without an xlsx loader the spreadsheet is not a candidate
	ns, err := store.LoadEntityNamespace("john")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "Beatles"}, ns["band"])

	store.RegisterLoader("xlsx", LoaderFunc(func(path string) (interface{}, error) {
		return map[string]interface{}{"name": "from sheet"}, nil
	}))

	ns, err = store.LoadEntityNamespace("john")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "from sheet"}, ns["band"])
}
