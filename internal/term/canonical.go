package term

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON.
// This is the ONLY serialization used for content hashes and golden files.
//
// Accepted values: Term variants, string, int, int64, bool, []string, []any,
// map[string]any and []Term. Floats and nil are rejected.
//
// Rules:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping, U+2028/U+2029 emitted literally
//  3. Strings are NFC normalized
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Canonical returns the canonical document for a term: the same shape
// Decode accepts, with every key spelled out.
func Canonical(t Term) (map[string]any, error) {
	switch v := t.(type) {
	case nil:
		return nil, fmt.Errorf("nil term has no canonical form")
	case *Cell:
		if v == nil {
			return nil, fmt.Errorf("nil cell has no canonical form")
		}
		if v.Kind == KindCellCollection {
			children := make([]any, len(v.Children))
			for i, child := range v.Children {
				c, err := Canonical(child)
				if err != nil {
					return nil, fmt.Errorf("%s/cells[%d]: %w", v.Label, i, err)
				}
				children[i] = c
			}
			return map[string]any{"cell": v.Label, "cells": children}, nil
		}
		content, err := Canonical(v.Content)
		if err != nil {
			return nil, fmt.Errorf("%s/term: %w", v.Label, err)
		}
		return map[string]any{"cell": v.Label, "term": content}, nil
	case App:
		args := make([]any, len(v.Args))
		for i, arg := range v.Args {
			a, err := Canonical(arg)
			if err != nil {
				return nil, fmt.Errorf("%s/args[%d]: %w", v.Label, i, err)
			}
			args[i] = a
		}
		return map[string]any{"app": v.Label, "args": args}, nil
	case Const:
		return map[string]any{"const": v.Value, "sort": v.Sort}, nil
	case Var:
		return map[string]any{"var": v.Name, "sort": v.Sort}, nil
	default:
		return nil, fmt.Errorf("unknown term type %T", t)
	}
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case Term:
		doc, err := Canonical(val)
		if err != nil {
			return err
		}
		return writeCanonicalObject(buf, doc)
	case string:
		writeCanonicalString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return writeCanonicalArray(buf, items)
	case []Term:
		items := make([]any, len(val))
		for i, t := range val {
			items[i] = t
		}
		return writeCanonicalArray(buf, items)
	case []any:
		return writeCanonicalArray(buf, val)
	case map[string]any:
		return writeCanonicalObject(buf, val)
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalArray(buf *bytes.Buffer, items []any) error {
	buf.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeCanonical(buf, item); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeCanonicalString(buf, k)
		buf.WriteByte(':')
		if err := writeCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeCanonicalString escapes only '"', '\\' and control characters.
func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)

	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// compareUTF16 orders strings by UTF-16 code units as RFC 8785 requires.
// Go's native string comparison is UTF-8 byte order, which differs for
// characters outside the BMP.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
