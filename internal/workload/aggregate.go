package workload

import (
	"github.com/leapstack-labs/ctxpack/internal/graph"
)

// stats accumulates weighted counters across all queries of one analysis.
type stats struct {
	scans       *counter[string]
	scanQueries *counter[string]
	columns     *counter[string]
	joinKeys    *counter[string]
	windows     *counter[string]
	groupBy     []GroupByPattern

	// perTable tracks column weights per physical table for hot columns.
	perTable      map[string]*counter[string]
	perTableOrder []string

	joins *graph.Graph
}

func newStats() *stats {
	return &stats{
		scans:       newCounter[string](),
		scanQueries: newCounter[string](),
		columns:     newCounter[string](),
		joinKeys:    newCounter[string](),
		windows:     newCounter[string](),
		groupBy:     []GroupByPattern{},
		perTable:    make(map[string]*counter[string]),
		joins:       graph.NewGraph(),
	}
}

func (s *stats) creditColumn(fqtn, col string, w int64) {
	s.columns.add(fqtn+"."+col, w)
	if fqtn == UnknownTable {
		return
	}
	c, ok := s.perTable[fqtn]
	if !ok {
		c = newCounter[string]()
		s.perTable[fqtn] = c
		s.perTableOrder = append(s.perTableOrder, fqtn)
	}
	c.add(col, w)
}

// addJoin records an equality between a.colA and b.colB. Self-joins and
// non-physical tables are ignored.
func (s *stats) addJoin(a, colA, b, colB string, w int64) {
	if a == b || !IsPhysical(a) || !IsPhysical(b) {
		return
	}
	if b < a {
		a, b = b, a
		colA, colB = colB, colA
	}
	if err := s.joins.AddEdge(a, b, w); err != nil {
		return
	}
	s.joinKeys.add(a+"|"+b+"|"+colA+"|"+colB, w)
}
