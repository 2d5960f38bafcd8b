package schema

import "slices"

// ContainmentCycles finds cells that (transitively) contain themselves.
//
// The containment graph has an edge parent → child for every declared
// child. Strongly connected components are found with Tarjan's algorithm;
// each component of size > 1, or a self-loop, is returned as a closed path
// such as ["a", "b", "a"]. Nodes are visited in sorted label order so the
// result is deterministic.
func ContainmentCycles(cells map[string]CellAttributes) [][]string {
	labels := make([]string, 0, len(cells))
	for label := range cells {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		cycles  [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range cells[v].Children {
			if _, known := cells[w]; !known {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] != indices[v] {
			return
		}
		var scc []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 || slices.Contains(cells[v].Children, v) {
			cycles = append(cycles, cyclePath(scc, cells))
		}
	}

	for _, label := range labels {
		if _, visited := indices[label]; !visited {
			strongConnect(label)
		}
	}

	return cycles
}

// cyclePath walks from the smallest label of an SCC back to itself.
func cyclePath(scc []string, cells map[string]CellAttributes) []string {
	slices.Sort(scc)
	start := scc[0]

	members := make(map[string]bool, len(scc))
	for _, s := range scc {
		members[s] = true
	}

	path := []string{start}
	visited := map[string]bool{start: true}
	current := start
	for {
		next := ""
		for _, child := range cells[current].Children {
			if child == start {
				return append(path, start)
			}
			if members[child] && !visited[child] && next == "" {
				next = child
			}
		}
		if next == "" {
			return path
		}
		visited[next] = true
		path = append(path, next)
		current = next
	}
}
