package graph

import "sort"

// MaximalCliques enumerates all maximal cliques with the Bron-Kerbosch
// algorithm with pivoting. Isolated nodes form singleton cliques.
//
// Nodes and neighbor sets are visited in sorted order, so the discovery
// order of cliques is deterministic. Members of each clique are sorted.
func (g *Graph) MaximalCliques() [][]string {
	var cliques [][]string

	var expand func(r, p, x []string)
	expand = func(r, p, x []string) {
		if len(p) == 0 && len(x) == 0 {
			clique := append([]string(nil), r...)
			sort.Strings(clique)
			cliques = append(cliques, clique)
			return
		}

		pivot := g.choosePivot(p, x)
		for _, v := range append([]string(nil), p...) {
			if g.HasEdge(pivot, v) {
				continue
			}
			expand(append(r, v), g.keepNeighbors(p, v), g.keepNeighbors(x, v))
			p = remove(p, v)
			x = append(x, v)
		}
	}

	expand(nil, g.Nodes(), nil)
	return cliques
}

// choosePivot returns the vertex of p ∪ x with the most neighbors in p.
// Ties go to the first vertex seen, p before x.
func (g *Graph) choosePivot(p, x []string) string {
	best, bestCount := "", -1
	for _, set := range [][]string{p, x} {
		for _, u := range set {
			count := 0
			for _, v := range p {
				if g.HasEdge(u, v) {
					count++
				}
			}
			if count > bestCount {
				best, bestCount = u, count
			}
		}
	}
	return best
}

// keepNeighbors returns the members of set adjacent to v, preserving order.
func (g *Graph) keepNeighbors(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, u := range set {
		if g.HasEdge(u, v) {
			out = append(out, u)
		}
	}
	return out
}

func remove(set []string, v string) []string {
	out := make([]string, 0, len(set))
	for _, u := range set {
		if u != v {
			out = append(out, u)
		}
	}
	return out
}

// HotCliques takes the topEdges heaviest edges, induces the subgraph on
// their endpoints and returns up to topCliques maximal cliques, largest
// first. Cliques of equal size keep their discovery order.
func (g *Graph) HotCliques(topEdges, topCliques int) [][]string {
	edges := g.TopEdges(topEdges)
	if len(edges) == 0 {
		return [][]string{}
	}

	seen := make(map[string]bool)
	var nodes []string
	for _, e := range edges {
		for _, id := range []string{e.A, e.B} {
			if !seen[id] {
				seen[id] = true
				nodes = append(nodes, id)
			}
		}
	}

	cliques := g.Subgraph(nodes).MaximalCliques()
	sort.SliceStable(cliques, func(i, j int) bool {
		return len(cliques[i]) > len(cliques[j])
	})
	if topCliques >= 0 && len(cliques) > topCliques {
		cliques = cliques[:topCliques]
	}
	return cliques
}
