package indexing

import (
	"fmt"

	"github.com/roach88/kindex/internal/term"
)

// DomainIndexKey is the hash domain for index keys.
const DomainIndexKey = "kindex/index-key/v1"

// Key fingerprints an ordered list of indexing cells.
//
// The key covers the labels and canonical contents of the cells in order.
// Strings are NFC-normalised by the canonical encoding, so two
// configurations share a key exactly when their indexing cells are equal
// up to Unicode normalisation. An empty list has a well-defined key.
func Key(cells []*term.Cell) (string, error) {
	items := make([]any, len(cells))
	for i, c := range cells {
		if c == nil {
			return "", fmt.Errorf("index key: cell %d is nil", i)
		}
		items[i] = c
	}

	data, err := term.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("index key: %w", err)
	}
	return term.HashWithDomain(DomainIndexKey, data), nil
}

// Labels returns the labels of cells, in order.
func Labels(cells []*term.Cell) []string {
	labels := make([]string, len(cells))
	for i, c := range cells {
		labels[i] = c.Label
	}
	return labels
}
