package workspace

import (
	"github.com/harrison/cyrus/internal/models"
)

// Graph is a validated, acyclic dependency graph over the enabled members of
// a workspace. Members are addressed by index into a stable slice so the
// structure can be traversed concurrently without locks during scheduling.
//
// Graphs are built fresh per orchestration call: membership can change
// between runs, so nothing here is persisted.
type Graph struct {
	members    []models.Member // Enabled members in original descriptor order
	index      map[string]int  // Member name -> index into members
	deps       [][]int         // Index -> indices of its dependencies
	dependents [][]int         // Index -> indices of members that depend on it
}

// BuildGraph validates dependencies and constructs the graph from the full
// member list. Disabled members are excluded from the graph, but a dependency
// naming a disabled or nonexistent member is a configuration error rather
// than being silently dropped. A dependency cycle is a CycleError carrying
// the offending path. All validation happens here, before any execution.
func BuildGraph(members []models.Member) (*Graph, error) {
	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.Name] = true
	}

	g := &Graph{index: make(map[string]int)}
	for _, m := range members {
		if !m.Enabled {
			continue
		}
		g.index[m.Name] = len(g.members)
		g.members = append(g.members, m)
	}

	g.deps = make([][]int, len(g.members))
	g.dependents = make([][]int, len(g.members))
	for i, m := range g.members {
		for _, dep := range m.DependsOn {
			if dep == m.Name {
				return nil, NewConfigError("member %q depends on itself", m.Name)
			}
			j, enabled := g.index[dep]
			if !enabled {
				if known[dep] {
					return nil, NewConfigError("member %q depends on disabled member %q", m.Name, dep)
				}
				return nil, NewConfigError("member %q depends on unknown member %q", m.Name, dep)
			}
			g.deps[i] = append(g.deps[i], j)
			g.dependents[j] = append(g.dependents[j], i)
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	return g, nil
}

// findCycle runs DFS with color marking (white=unvisited, gray=on recursion
// stack, black=done). Revisiting a gray node means a back edge; the recursion
// stack from that node onward is the cycle. Returns nil when acyclic.
func (g *Graph) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	colors := make([]int, len(g.members))
	var stack []int

	var dfs func(int) []string
	dfs = func(node int) []string {
		colors[node] = gray
		stack = append(stack, node)

		for _, dep := range g.deps[node] {
			if colors[dep] == gray {
				// Extract the cycle from the recursion stack.
				start := 0
				for i, n := range stack {
					if n == dep {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start+1)
				for _, n := range stack[start:] {
					cycle = append(cycle, g.members[n].Name)
				}
				return append(cycle, g.members[dep].Name)
			}
			if colors[dep] == white {
				if cycle := dfs(dep); cycle != nil {
					return cycle
				}
			}
		}

		colors[node] = black
		stack = stack[:len(stack)-1]
		return nil
	}

	for i := range g.members {
		if colors[i] == white {
			if cycle := dfs(i); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Len returns the number of enabled members in the graph.
func (g *Graph) Len() int {
	return len(g.members)
}

// Members returns the enabled members in stable order.
func (g *Graph) Members() []models.Member {
	return g.members
}

// Member returns the member with the given name.
func (g *Graph) Member(name string) (models.Member, bool) {
	i, ok := g.index[name]
	if !ok {
		return models.Member{}, false
	}
	return g.members[i], true
}

// Dependencies returns the names of a member's direct dependencies.
func (g *Graph) Dependencies(name string) []string {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	deps := make([]string, 0, len(g.deps[i]))
	for _, j := range g.deps[i] {
		deps = append(deps, g.members[j].Name)
	}
	return deps
}
