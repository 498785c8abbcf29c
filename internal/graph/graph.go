// Package graph provides a weighted undirected graph for table join
// relationships. It supports edge-weight accumulation, top-edge selection,
// induced subgraphs and maximal clique enumeration.
package graph

import (
	"fmt"
	"sort"
)

// Edge is an undirected weighted edge. A is always lexicographically
// smaller than B.
type Edge struct {
	A      string
	B      string
	Weight int64
}

type edgeKey struct {
	a, b string
}

// Graph represents a weighted undirected graph without self-loops.
type Graph struct {
	weights map[edgeKey]int64
	order   []edgeKey // first-insertion order of edges
	adj     map[string]map[string]struct{}
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		weights: make(map[edgeKey]int64),
		adj:     make(map[string]map[string]struct{}),
	}
}

// canonical orders the endpoints so that a < b.
func canonical(a, b string) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// AddNode adds an isolated node. Adding an existing node is a no-op.
func (g *Graph) AddNode(id string) {
	if _, exists := g.adj[id]; !exists {
		g.adj[id] = make(map[string]struct{})
	}
}

// AddEdge adds weight to the edge between a and b, creating the edge and
// both nodes if needed.
func (g *Graph) AddEdge(a, b string, weight int64) error {
	if a == b {
		return fmt.Errorf("self-loop detected: %s", a)
	}

	key := canonical(a, b)
	if _, exists := g.weights[key]; !exists {
		g.order = append(g.order, key)
	}
	g.weights[key] += weight

	g.AddNode(a)
	g.AddNode(b)
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
	return nil
}

// Weight returns the accumulated weight of the edge between a and b.
func (g *Graph) Weight(a, b string) (int64, bool) {
	w, ok := g.weights[canonical(a, b)]
	return w, ok
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.adj[a][b]
	return ok
}

// Edges returns all edges in first-insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.order))
	for _, key := range g.order {
		edges = append(edges, Edge{A: key.a, B: key.b, Weight: g.weights[key]})
	}
	return edges
}

// Nodes returns all node ids in sorted order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.adj))
	for id := range g.adj {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

// Neighbors returns the neighbors of id in sorted order.
func (g *Graph) Neighbors(id string) []string {
	neighbors := make([]string, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)
	return neighbors
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.adj)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.order)
}

// TopEdges returns the n heaviest edges. Edges of equal weight keep their
// (A, B) lexicographic order.
func (g *Graph) TopEdges(n int) []Edge {
	edges := g.Edges()
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Weight > edges[j].Weight
	})
	if n >= 0 && len(edges) > n {
		edges = edges[:n]
	}
	return edges
}

// Subgraph returns the subgraph induced on nodes: every edge of g whose
// endpoints are both in nodes. Nodes unknown to g are ignored.
func (g *Graph) Subgraph(nodes []string) *Graph {
	keep := make(map[string]bool, len(nodes))
	for _, id := range nodes {
		if _, exists := g.adj[id]; exists {
			keep[id] = true
		}
	}

	sub := NewGraph()
	for _, id := range nodes {
		if keep[id] {
			sub.AddNode(id)
		}
	}
	for _, key := range g.order {
		if keep[key.a] && keep[key.b] {
			_ = sub.AddEdge(key.a, key.b, g.weights[key])
		}
	}
	return sub
}
