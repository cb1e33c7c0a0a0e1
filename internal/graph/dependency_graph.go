// Package graph tracks extends relationships between theme definitions for
// build ordering and cache invalidation.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexisbeaulieu97/themekit/internal/domain/theme"
)

// ErrCircularDependency is returned when a dependency cycle is detected.
type ErrCircularDependency struct {
	Cycle []theme.Descriptor
}

func (e ErrCircularDependency) Error() string {
	if len(e.Cycle) == 0 {
		return "circular extends chain detected"
	}

	parts := make([]string, 0, len(e.Cycle)+1)
	for _, d := range e.Cycle {
		parts = append(parts, d.String())
	}
	parts = append(parts, e.Cycle[0].String())
	return fmt.Sprintf("circular extends chain detected: %s", strings.Join(parts, " -> "))
}

type nodeSet map[theme.Descriptor]struct{}

// DependencyGraph records which definitions depend on which. An edge points
// from a dependent to its dependency.
type DependencyGraph struct {
	nodes    nodeSet
	incoming map[theme.Descriptor]nodeSet
	outgoing map[theme.Descriptor]nodeSet
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(nodeSet),
		incoming: make(map[theme.Descriptor]nodeSet),
		outgoing: make(map[theme.Descriptor]nodeSet),
	}
}

// FromDefinitions builds a graph containing every definition and the edges
// each contributes through AppendDependencies.
func FromDefinitions(defs []*theme.Definition) *DependencyGraph {
	g := NewDependencyGraph()
	for _, def := range defs {
		g.AddNode(def.Descriptor())
		deps := theme.NewDependencies()
		def.AppendDependencies(deps)
		for _, dep := range deps.List() {
			g.AddEdge(def.Descriptor(), dep)
		}
	}
	return g
}

// AddNode ensures the descriptor exists within the graph.
func (g *DependencyGraph) AddNode(d theme.Descriptor) {
	if g.nodes == nil {
		g.nodes = make(nodeSet)
	}
	if g.incoming == nil {
		g.incoming = make(map[theme.Descriptor]nodeSet)
	}
	if g.outgoing == nil {
		g.outgoing = make(map[theme.Descriptor]nodeSet)
	}

	if _, exists := g.nodes[d]; exists {
		return
	}

	g.nodes[d] = struct{}{}
	g.incoming[d] = make(nodeSet)
	g.outgoing[d] = make(nodeSet)
}

// AddEdge records that dependent depends on dependency.
func (g *DependencyGraph) AddEdge(dependent, dependency theme.Descriptor) {
	g.AddNode(dependent)
	g.AddNode(dependency)

	g.outgoing[dependent][dependency] = struct{}{}
	g.incoming[dependency][dependent] = struct{}{}
}

// DetectCycles returns one cycle if present or nil when the graph is acyclic.
func (g *DependencyGraph) DetectCycles() []theme.Descriptor {
	visited := make(map[theme.Descriptor]bool)
	stack := make(map[theme.Descriptor]bool)
	var path []theme.Descriptor

	var cycle []theme.Descriptor
	var dfs func(node theme.Descriptor) bool

	dfs = func(node theme.Descriptor) bool {
		visited[node] = true
		stack[node] = true
		path = append(path, node)

		for _, dependency := range g.Dependencies(node) {
			if !visited[dependency] {
				if dfs(dependency) {
					return true
				}
			} else if stack[dependency] {
				idx := len(path) - 1
				for idx >= 0 && path[idx] != dependency {
					idx--
				}
				if idx >= 0 {
					cycle = append([]theme.Descriptor{}, path[idx:]...)
					return true
				}
			}
		}

		stack[node] = false
		path = path[:len(path)-1]
		return false
	}

	for _, node := range g.sortedNodes() {
		if !visited[node] {
			if dfs(node) {
				break
			}
		}
	}

	return cycle
}

// Cycles returns every node that sits on a cycle, sorted. Unlike DetectCycles
// it keeps searching after the first cycle.
func (g *DependencyGraph) Cycles() []theme.Descriptor {
	// A node is cyclic when it can reach itself.
	var cyclic []theme.Descriptor
	for _, node := range g.sortedNodes() {
		if g.reaches(node, node) {
			cyclic = append(cyclic, node)
		}
	}
	return cyclic
}

func (g *DependencyGraph) reaches(from, target theme.Descriptor) bool {
	seen := make(map[theme.Descriptor]bool)
	queue := g.Dependencies(from)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == target {
			return true
		}
		if seen[current] {
			continue
		}
		seen[current] = true
		queue = append(queue, g.Dependencies(current)...)
	}
	return false
}

// TopologicalSort returns nodes in dependency order (dependencies first).
func (g *DependencyGraph) TopologicalSort() ([]theme.Descriptor, error) {
	layers, err := g.Layers()
	if err != nil {
		return nil, err
	}
	var result []theme.Descriptor
	for _, layer := range layers {
		result = append(result, layer...)
	}
	return result, nil
}

// Layers groups nodes into waves: every node's dependencies sit in earlier
// waves, so the nodes of one wave can be processed concurrently.
func (g *DependencyGraph) Layers() ([][]theme.Descriptor, error) {
	remaining := make(map[theme.Descriptor]int, len(g.nodes))
	for node := range g.nodes {
		remaining[node] = len(g.outgoing[node])
	}

	var current []theme.Descriptor
	for node, deps := range remaining {
		if deps == 0 {
			current = append(current, node)
		}
	}
	sortDescriptors(current)

	var layers [][]theme.Descriptor
	processed := 0
	for len(current) > 0 {
		layers = append(layers, current)
		processed += len(current)

		var next []theme.Descriptor
		for _, node := range current {
			for _, dependent := range g.Dependents(node) {
				remaining[dependent]--
				if remaining[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sortDescriptors(next)
		current = next
	}

	if processed != len(g.nodes) {
		if cycle := g.DetectCycles(); len(cycle) > 0 {
			return nil, ErrCircularDependency{Cycle: cycle}
		}
		return nil, fmt.Errorf("dependency graph contains unresolved nodes")
	}

	return layers, nil
}

// Dependencies returns the direct dependencies of a node.
func (g *DependencyGraph) Dependencies(node theme.Descriptor) []theme.Descriptor {
	return sortedSet(g.outgoing[node])
}

// Dependents returns all nodes that directly rely on the supplied node.
func (g *DependencyGraph) Dependents(node theme.Descriptor) []theme.Descriptor {
	return sortedSet(g.incoming[node])
}

// Invalidated returns every node that transitively depends on node, sorted.
// These are the definitions whose merged namespace changes when node does.
func (g *DependencyGraph) Invalidated(node theme.Descriptor) []theme.Descriptor {
	seen := make(nodeSet)
	queue := g.Dependents(node)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := seen[current]; ok || current == node {
			continue
		}
		seen[current] = struct{}{}
		queue = append(queue, g.Dependents(current)...)
	}
	return sortedSet(seen)
}

// HasNode reports if the node exists in the graph.
func (g *DependencyGraph) HasNode(node theme.Descriptor) bool {
	if g == nil {
		return false
	}
	_, ok := g.nodes[node]
	return ok
}

// Len returns the number of nodes.
func (g *DependencyGraph) Len() int {
	return len(g.nodes)
}

func (g *DependencyGraph) sortedNodes() []theme.Descriptor {
	return sortedSet(g.nodes)
}

func sortedSet(set nodeSet) []theme.Descriptor {
	if len(set) == 0 {
		return nil
	}
	out := make([]theme.Descriptor, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sortDescriptors(out)
	return out
}

func sortDescriptors(ds []theme.Descriptor) {
	sort.Slice(ds, func(i, j int) bool {
		return ds[i].String() < ds[j].String()
	})
}
