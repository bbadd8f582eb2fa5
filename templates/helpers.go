package templates

import (
	"fmt"
	"go/token"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/meysamhadeli/buroca/cronogram"
	"github.com/open2b/scriggo/native"
)

// Helpers is a registry of functions callable from templates. A renderer
// reads it at render time, so functions registered later are visible to
// templates compiled earlier.
type Helpers struct {
	mutex   sync.RWMutex
	funcs   map[string]interface{}
	version uint64
}

// NewHelpers returns an empty registry.
func NewHelpers() *Helpers {
	return &Helpers{funcs: make(map[string]interface{})}
}

// DefaultHelpers returns a registry holding the built-in helpers.
func DefaultHelpers() *Helpers {
	h := NewHelpers()
	h.MustRegister("cronogram", Cronogram)
	h.MustRegister("upper", strings.ToUpper)
	h.MustRegister("lower", strings.ToLower)
	h.MustRegister("title", title)
	h.MustRegister("join", join)
	h.MustRegister("defined", defined)
	h.MustRegister("fallback", fallback)
	h.MustRegister("markdown", func(s string) native.Markdown { return native.Markdown(s) })
	return h
}

// Register adds fn under name, replacing a previous helper with that name.
func (h *Helpers) Register(name string, fn interface{}) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("invalid helper name %q", name)
	}
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("helper %q is not a function", name)
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.funcs[name] = fn
	h.version++
	return nil
}

// MustRegister is like Register but panics on error.
func (h *Helpers) MustRegister(name string, fn interface{}) {
	if err := h.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the helper registered under name.
func (h *Helpers) Lookup(name string) (interface{}, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	fn, ok := h.funcs[name]
	return fn, ok
}

// Names returns the helper names in sorted order.
func (h *Helpers) Names() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	names := make([]string, 0, len(h.funcs))
	for name := range h.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// declarations returns the helpers as engine globals and the registry version
// they were read at.
func (h *Helpers) declarations() (native.Declarations, uint64) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	decls := make(native.Declarations, len(h.funcs))
	for name, fn := range h.funcs {
		decls[name] = fn
	}
	return decls, h.version
}

// Cronogram renders a schedule table. durations and offsets accept any list of
// numbers, so values read from data files can be passed directly. The table is
// surrounded by blank lines so it always starts a new markdown block.
//
// In html templates the markdown is converted to HTML, where the simple layout
// is not a table and a leading "#" starts a heading. There the pipe layout is
// always used and its "#" header cell is escaped.
func Cronogram(env native.Env, outputType string, durations, offsets interface{}, firstMonth interface{}, tickMark ...string) native.Markdown {
	d, err := toInts(durations)
	if err != nil {
		env.Fatal(fmt.Errorf("cronogram durations: %w", err))
	}
	o, err := toInts(offsets)
	if err != nil {
		env.Fatal(fmt.Errorf("cronogram offsets: %w", err))
	}
	month, err := toInt(firstMonth)
	if err != nil {
		env.Fatal(fmt.Errorf("cronogram first month: %w", err))
	}
	mark := cronogram.DefaultTickMark
	if len(tickMark) > 0 {
		mark = tickMark[0]
	}

	table, err := cronogram.Cronogram(outputType, d, o, month, mark)
	if err != nil {
		env.Fatal(err)
	}
	if formatFrom(env.Context()) == "html" {
		table, err = cronogram.Cronogram("md-pipe", d, o, month, mark)
		if err != nil {
			env.Fatal(err)
		}
		table = `\` + table
	}
	return native.Markdown("\n" + table + "\n")
}

func toInts(v interface{}) ([]int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]int, rv.Len())
	for i := range out {
		n, err := toInt(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

func toInt(v interface{}) (int, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int(f)) {
			return 0, fmt.Errorf("%v is not an integer", f)
		}
		return int(f), nil
	case reflect.String:
		return strconv.Atoi(strings.TrimSpace(rv.String()))
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

func title(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

// join joins the items of any list with sep.
func join(list interface{}, sep string) string {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Sprint(list)
	}
	items := make([]string, rv.Len())
	for i := range items {
		items[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return strings.Join(items, sep)
}

// defined reports whether v holds a value: nil, empty strings and empty
// collections are not defined.
func defined(v interface{}) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// fallback returns v when it is defined and otherwise.
func fallback(v interface{}, otherwise interface{}) interface{} {
	if defined(v) {
		return v
	}
	return otherwise
}
