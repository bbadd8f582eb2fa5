package resources

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"reflect"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Loader parses one data file.
type Loader interface {
	Load(path string) (interface{}, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (interface{}, error)

func (f LoaderFunc) Load(path string) (interface{}, error) { return f(path) }

// DefaultLoaders returns a fresh registry of the built-in loaders keyed by
// extension.
func DefaultLoaders() map[string]Loader {
	return map[string]Loader{
		"yml":  LoaderFunc(LoadYAML),
		"yaml": LoaderFunc(LoadYAML),
		"json": LoaderFunc(LoadJSON),
		"toml": LoaderFunc(LoadTOML),
		"ini":  LoaderFunc(LoadINI),
		"csv":  LoaderFunc(LoadCSV),
		"cue":  LoaderFunc(LoadCUE),
		"hcl":  LoaderFunc(LoadHCL),
		"bson": LoaderFunc(LoadBSON),
	}
}

func LoadYAML(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return orEmpty(normalize(value)), nil
}

func LoadJSON(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]interface{}{}, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var value interface{}
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	return normalize(value), nil
}

func LoadTOML(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	value := map[string]interface{}{}
	if err := toml.Unmarshal(data, &value); err != nil {
		return nil, err
	}
	return normalize(value), nil
}

// LoadINI maps keys of the default section to the top level and every other
// section to a nested map.
func LoadINI(path string) (interface{}, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, err
	}
	value := map[string]interface{}{}
	for _, section := range file.Sections() {
		target := value
		if section.Name() != ini.DefaultSection {
			target = map[string]interface{}{}
			value[section.Name()] = target
		}
		for _, key := range section.Keys() {
			target[key.Name()] = key.String()
		}
	}
	return value, nil
}

// LoadCSV returns one map per record keyed by the header row.
func LoadCSV(path string) (interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return []map[string]interface{}{}, nil
	}
	if err != nil {
		return nil, err
	}

	rows := []map[string]interface{}{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(header))
		for i, column := range header {
			if i < len(record) {
				row[column] = record[i]
			} else {
				row[column] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func LoadCUE(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	value := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, err
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, err
	}
	var decoded interface{}
	if err := value.Decode(&decoded); err != nil {
		return nil, err
	}
	return orEmpty(normalize(decoded)), nil
}

// LoadHCL reads the top-level attributes of an HCL file. Expressions are
// evaluated without variables or functions.
func LoadHCL(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file, diags := hclparse.NewParser().ParseHCL(data, path)
	if diags.HasErrors() {
		return nil, diags
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	value := make(map[string]interface{}, len(attrs))
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		native, err := ctyToNative(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		value[name] = native
	}
	return value, nil
}

func ctyToNative(v cty.Value) (interface{}, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := make([]interface{}, 0, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, native)
		}
		return list, nil
	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]interface{}, v.LengthInt())
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}

// LoadBSON reads one document, or a sequence of documents as written by
// mongodump, in which case a list is returned.
func LoadBSON(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var docs []interface{}
	for len(data) > 0 {
		if len(data) < 5 {
			return nil, fmt.Errorf("truncated bson document")
		}
		size := int(binary.LittleEndian.Uint32(data[:4]))
		if size < 5 || size > len(data) {
			return nil, fmt.Errorf("invalid bson document length %d", size)
		}
		decoder, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(data[:size]))
		if err != nil {
			return nil, err
		}
		decoder.DefaultDocumentM()
		doc := map[string]interface{}{}
		if err := decoder.Decode(&doc); err != nil {
			return nil, err
		}
		docs = append(docs, normalize(doc))
		data = data[size:]
	}

	switch len(docs) {
	case 0:
		return map[string]interface{}{}, nil
	case 1:
		return docs[0], nil
	}
	return docs, nil
}

func orEmpty(value interface{}) interface{} {
	if value == nil {
		return map[string]interface{}{}
	}
	return value
}

// normalize rewrites decoded values so that every loader yields the same
// shapes: map[string]interface{}, []interface{}, int, float64, string, bool.
func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case nil, string, bool, int, float64:
		return v
	case map[string]interface{}:
		for key, elem := range v {
			v[key] = normalize(elem)
		}
		return v
	case []interface{}:
		for i := range v {
			v[i] = normalize(v[i])
		}
		return v
	case []map[string]interface{}:
		for _, m := range v {
			normalize(m)
		}
		return v
	case []byte:
		return v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return int(reflect.ValueOf(v).Convert(reflect.TypeOf(0)).Int())
	case float32:
		return float64(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		m := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = normalize(iter.Value().Interface())
		}
		return m
	case reflect.Slice:
		list := make([]interface{}, rv.Len())
		for i := range list {
			list[i] = normalize(rv.Index(i).Interface())
		}
		return list
	}
	return value
}

// supportedExtensions lists the extensions of loaders, highest priority first.
func supportedExtensions(loaders map[string]Loader) []string {
	exts := make([]string, 0, len(loaders))
	for ext := range loaders {
		exts = append(exts, ext)
	}
	sortByRank(exts)
	return exts
}

func sortByRank(exts []string) {
	sort.Slice(exts, func(i, j int) bool { return less(exts[i], exts[j]) })
}

func less(a, b string) bool {
	if ra, rb := Rank(a), Rank(b); ra != rb {
		return ra > rb
	}
	return strings.Compare(a, b) < 0
}
