package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/kindex/internal/schema"
)

// marshalDocument converts a definition document to JSON TEXT.
// HTML escaping is disabled so labels like "<k>" are stored verbatim.
func marshalDocument(doc schema.Document) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalDocument parses JSON TEXT into a definition document.
func unmarshalDocument(data string) (schema.Document, error) {
	var doc schema.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return schema.Document{}, fmt.Errorf("unmarshal definition: %w", err)
	}
	return doc, nil
}

// marshalCells converts cell paths to JSON TEXT. nil becomes "[]".
func marshalCells(cells []string) (string, error) {
	if cells == nil {
		cells = []string{}
	}
	data, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("marshal cells: %w", err)
	}
	return string(data), nil
}

// unmarshalCells parses JSON TEXT into cell paths. Returns an empty slice, never nil.
func unmarshalCells(data string) ([]string, error) {
	cells := []string{}
	if data == "" {
		return cells, nil
	}
	if err := json.Unmarshal([]byte(data), &cells); err != nil {
		return nil, fmt.Errorf("unmarshal cells: %w", err)
	}
	return cells, nil
}
