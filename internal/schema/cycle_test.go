package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainmentCyclesNone(t *testing.T) {
	cells := map[string]CellAttributes{
		"T":     {Label: "T", Children: []string{"k", "state"}},
		"k":     {Label: "k"},
		"state": {Label: "state"},
	}
	assert.Empty(t, ContainmentCycles(cells))
}

func TestContainmentCyclesSelfLoop(t *testing.T) {
	cells := map[string]CellAttributes{
		"T": {Label: "T", Children: []string{"T"}},
	}
	assert.Equal(t, [][]string{{"T", "T"}}, ContainmentCycles(cells))
}

func TestContainmentCyclesMultiNode(t *testing.T) {
	cells := map[string]CellAttributes{
		"T": {Label: "T", Children: []string{"c"}},
		"c": {Label: "c", Children: []string{"a"}},
		"a": {Label: "a", Children: []string{"b"}},
		"b": {Label: "b", Children: []string{"c"}},
	}
	assert.Equal(t, [][]string{{"a", "b", "c", "a"}}, ContainmentCycles(cells))
}

func TestContainmentCyclesIgnoresUnknownChildren(t *testing.T) {
	cells := map[string]CellAttributes{
		"T": {Label: "T", Children: []string{"ghost"}},
	}
	assert.Empty(t, ContainmentCycles(cells))
}
