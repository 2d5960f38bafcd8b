// Package compiler turns CUE definition sources into schema.Definitions.
//
// A definition declares every cell of a configuration by label:
//
//	definition: IMP: cells: {
//		T:       cells: ["k", "state", "streams"]
//		k:       {}
//		state:   {}
//		streams: cells: ["in", "out"]
//		in:      stream: "stdin"
//		out:     stream: "stdout"
//	}
//
// A cell may set "cells" (ordered child labels), "stream" (stdin, stdout,
// stderr or none) and "kind" ("term" or "cells"). Structural validation
// (unknown children, cycles, roots) is delegated to schema.NewDefinition.
package compiler
