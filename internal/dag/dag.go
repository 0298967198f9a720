// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for topological
// sorting and cycle detection. It is used by the dependency resolver to
// compute the pack load order.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing
	// topological ordering. Members lists every node left on a cycle,
	// sorted ascending.
	CycleError struct {
		Members []string
	}

	// Graph is a directed graph for topological sorting. Nodes are
	// identified by string keys. An edge from A to B means A must come
	// before B in the output order.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors.
		adjacency map[string][]string
		// nodes tracks all nodes in the graph.
		nodes map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Members, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodes:     make(map[string]bool),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	g.nodes[name] = true
}

// AddEdge adds a directed edge from -> to, meaning "from" must precede
// "to". Both nodes are implicitly added if they don't exist.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// TopologicalSort returns a dependency-respecting order using Kahn's
// algorithm. Ties among simultaneously ready nodes break by ascending key,
// which makes the output a pure function of the node and edge set — the
// same graph yields the same order on every run and every platform.
// Returns CycleError if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	// ready holds nodes with no unmet prerequisites, kept sorted so the
	// smallest key is always released next.
	var ready []string
	for node := range g.nodes {
		if inDegree[node] == 0 {
			ready = append(ready, node)
		}
	}
	slices.Sort(ready)

	result := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				at, _ := slices.BinarySearch(ready, neighbor)
				ready = slices.Insert(ready, at, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		stuck := make(map[string]bool, len(g.nodes))
		for node := range g.nodes {
			if inDegree[node] > 0 {
				stuck[node] = true
			}
		}
		members := g.cycleMembers(stuck)
		slices.Sort(members)
		return nil, &CycleError{Members: members}
	}

	return result, nil
}

// cycleMembers narrows the stuck node set down to the nodes that actually
// lie on a cycle. Kahn's algorithm already pruned nodes with no unmet
// prerequisites; pruning nodes with no outgoing edge back into the stuck
// set (repeatedly) removes downstream victims and leaves the cycles.
func (g *Graph) cycleMembers(stuck map[string]bool) []string {
	for {
		removed := false
		for node := range stuck {
			hasOut := false
			for _, neighbor := range g.adjacency[node] {
				if stuck[neighbor] {
					hasOut = true
					break
				}
			}
			if !hasOut {
				delete(stuck, node)
				removed = true
			}
		}
		if !removed {
			break
		}
	}

	members := make([]string, 0, len(stuck))
	for node := range stuck {
		members = append(members, node)
	}
	return members
}
