package term

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sorts inferred for bare scalars.
const (
	SortString = "String"
	SortInt    = "Int"
	SortBool   = "Bool"
)

// DecodeError reports a malformed configuration document.
// Path is a slash-separated location such as "T/state/term/args[1]".
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return "decode term: " + e.Message
	}
	return fmt.Sprintf("decode term at %s: %s", e.Path, e.Message)
}

// LoadFile reads a configuration from a .yaml, .yml or .json file.
func LoadFile(path string) (Term, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read term file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return DecodeJSON(data)
	case ".yaml", ".yml":
		return DecodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported term file extension %q (want .yaml, .yml or .json)", filepath.Ext(path))
	}
}

// DecodeYAML parses a YAML configuration document.
func DecodeYAML(data []byte) (Term, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return Decode(raw)
}

// DecodeJSON parses a JSON configuration document.
// Numbers are decoded with UseNumber so that floats can be rejected.
func DecodeJSON(data []byte) (Term, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return Decode(raw)
}

// Decode converts a generic document (as produced by yaml.v3 or
// encoding/json) into a Term.
//
// Recognised shapes:
//
//	{cell: k, term: <term>}          leaf cell
//	{cell: T, cells: [<cell>, ...]}  cell collection
//	{app: _+_, args: [<term>, ...]}  application
//	{const: "1", sort: Int}          constant
//	{var: X, sort: Int}              variable
//	"str" | 42 | true                constant with inferred sort
func Decode(raw any) (Term, error) {
	return decodeTerm(raw, "")
}

func decodeTerm(raw any, path string) (Term, error) {
	switch v := raw.(type) {
	case nil:
		return nil, &DecodeError{Path: path, Message: "null is not a term"}
	case map[string]any:
		return decodeMap(v, path)
	case string:
		return Const{Sort: SortString, Value: v}, nil
	case bool:
		return Const{Sort: SortBool, Value: strconv.FormatBool(v)}, nil
	case int:
		return Const{Sort: SortInt, Value: strconv.Itoa(v)}, nil
	case int64:
		return Const{Sort: SortInt, Value: strconv.FormatInt(v, 10)}, nil
	case uint64:
		return Const{Sort: SortInt, Value: strconv.FormatUint(v, 10)}, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("floats are not allowed in terms: %s", v)}
		}
		return Const{Sort: SortInt, Value: strconv.FormatInt(n, 10)}, nil
	case float64, float32:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("floats are not allowed in terms: %v", v)}
	case []any:
		return nil, &DecodeError{Path: path, Message: "a list is not a term (lists only appear under cells or args)"}
	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unsupported value type %T", raw)}
	}
}

func decodeMap(m map[string]any, path string) (Term, error) {
	switch {
	case has(m, "cell"):
		return decodeCell(m, path)
	case has(m, "app"):
		return decodeApp(m, path)
	case has(m, "const"):
		return decodeConst(m, path)
	case has(m, "var"):
		return decodeVar(m, path)
	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("object has none of cell/app/const/var (keys: %s)", strings.Join(keysOf(m), ", "))}
	}
}

func decodeCell(m map[string]any, path string) (*Cell, error) {
	if err := onlyKeys(m, path, "cell", "term", "cells"); err != nil {
		return nil, err
	}
	label, err := stringField(m, "cell", path)
	if err != nil {
		return nil, err
	}
	if label == "" {
		return nil, &DecodeError{Path: path, Message: "cell label must not be empty"}
	}
	cellPath := join(path, label)

	_, hasTerm := m["term"]
	_, hasCells := m["cells"]
	switch {
	case hasTerm && hasCells:
		return nil, &DecodeError{Path: cellPath, Message: "cell has both term and cells"}
	case !hasTerm && !hasCells:
		return nil, &DecodeError{Path: cellPath, Message: "cell has neither term nor cells"}
	case hasTerm:
		content, err := decodeTerm(m["term"], join(cellPath, "term"))
		if err != nil {
			return nil, err
		}
		return &Cell{Label: label, Kind: KindTerm, Content: content}, nil
	}

	items, ok := m["cells"].([]any)
	if !ok && m["cells"] != nil {
		return nil, &DecodeError{Path: cellPath, Message: "cells must be a list"}
	}
	cell := &Cell{Label: label, Kind: KindCellCollection, Children: make([]Term, 0, len(items))}
	for i, item := range items {
		child, err := decodeTerm(item, fmt.Sprintf("%s/cells[%d]", cellPath, i))
		if err != nil {
			return nil, err
		}
		cell.Children = append(cell.Children, child)
	}
	return cell, nil
}

func decodeApp(m map[string]any, path string) (App, error) {
	if err := onlyKeys(m, path, "app", "args"); err != nil {
		return App{}, err
	}
	label, err := stringField(m, "app", path)
	if err != nil {
		return App{}, err
	}
	app := App{Label: label}
	if m["args"] == nil {
		return app, nil
	}
	items, ok := m["args"].([]any)
	if !ok {
		return App{}, &DecodeError{Path: path, Message: "args must be a list"}
	}
	app.Args = make([]Term, 0, len(items))
	for i, item := range items {
		arg, err := decodeTerm(item, fmt.Sprintf("%s/args[%d]", join(path, label), i))
		if err != nil {
			return App{}, err
		}
		app.Args = append(app.Args, arg)
	}
	return app, nil
}

func decodeConst(m map[string]any, path string) (Const, error) {
	if err := onlyKeys(m, path, "const", "sort"); err != nil {
		return Const{}, err
	}
	inferred, err := decodeTerm(m["const"], path)
	if err != nil {
		return Const{}, err
	}
	c, ok := inferred.(Const)
	if !ok {
		return Const{}, &DecodeError{Path: path, Message: "const value must be a scalar"}
	}
	if has(m, "sort") {
		s, err := stringField(m, "sort", path)
		if err != nil {
			return Const{}, err
		}
		c.Sort = s
	}
	return c, nil
}

func decodeVar(m map[string]any, path string) (Var, error) {
	if err := onlyKeys(m, path, "var", "sort"); err != nil {
		return Var{}, err
	}
	name, err := stringField(m, "var", path)
	if err != nil {
		return Var{}, err
	}
	v := Var{Name: name, Sort: "K"}
	if has(m, "sort") {
		s, err := stringField(m, "sort", path)
		if err != nil {
			return Var{}, err
		}
		v.Sort = s
	}
	return v, nil
}

func has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

func stringField(m map[string]any, key, path string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", &DecodeError{Path: path, Message: fmt.Sprintf("%s must be a string", key)}
	}
	return s, nil
}

// onlyKeys rejects unknown keys so that typos ("cels:") fail loudly.
func onlyKeys(m map[string]any, path string, allowed ...string) error {
	for _, k := range keysOf(m) {
		known := false
		for _, a := range allowed {
			if k == a {
				known = true
				break
			}
		}
		if !known {
			return &DecodeError{Path: path, Message: fmt.Sprintf("unknown key %q", k)}
		}
	}
	return nil
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func join(path, elem string) string {
	if path == "" {
		return elem
	}
	return path + "/" + elem
}
