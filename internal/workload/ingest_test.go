package workload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDDL(t *testing.T) {
	got := NormalizeDDL([]Record{
		{"statement": "CREATE TABLE a.b.c (x int)"},
		{"ddl": "CREATE TABLE a.b.d (x int)"},
		{"sql": "CREATE TABLE a.b.e (x int)"},
		{"statement": "  ", "ddl": "CREATE TABLE a.b.f (x int)"},
		{"statement": 42},
		{"other": "CREATE TABLE a.b.g (x int)"},
		{},
	})

	assert.Equal(t, []DDLStmt{
		{Statement: "CREATE TABLE a.b.c (x int)"},
		{Statement: "CREATE TABLE a.b.d (x int)"},
		{Statement: "CREATE TABLE a.b.e (x int)"},
		{Statement: "CREATE TABLE a.b.f (x int)"},
	}, got)
}

func TestNormalizeQueries(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected []QueryStat
	}{
		{
			name:     "canonical keys",
			record:   Record{"queryid": "q1", "query": "SELECT 1 FROM a.b", "runquantity": 7},
			expected: []QueryStat{{ID: "q1", SQL: "SELECT 1 FROM a.b", Weight: 7}},
		},
		{
			name:     "camel case keys",
			record:   Record{"queryId": "q2", "query": "SELECT 2", "runQuantity": 3},
			expected: []QueryStat{{ID: "q2", SQL: "SELECT 2", Weight: 3}},
		},
		{
			name:     "numeric id and run_count",
			record:   Record{"id": 12, "query": "SELECT 3", "run_count": "40"},
			expected: []QueryStat{{ID: "12", SQL: "SELECT 3", Weight: 40}},
		},
		{
			name:     "float weight from json",
			record:   Record{"qid": "q4", "query": "SELECT 4", "runquantity": float64(25)},
			expected: []QueryStat{{ID: "q4", SQL: "SELECT 4", Weight: 25}},
		},
		{
			name:     "missing weight",
			record:   Record{"queryid": "q5", "query": "SELECT 5"},
			expected: []QueryStat{{ID: "q5", SQL: "SELECT 5", Weight: 1}},
		},
		{
			name:     "zero weight kept",
			record:   Record{"queryid": "q6", "query": "SELECT 6", "runquantity": 0},
			expected: []QueryStat{{ID: "q6", SQL: "SELECT 6", Weight: 0}},
		},
		{
			name:     "negative weight",
			record:   Record{"queryid": "q7", "query": "SELECT 7", "runquantity": -3},
			expected: []QueryStat{{ID: "q7", SQL: "SELECT 7", Weight: 1}},
		},
		{
			name:     "unparsable weight",
			record:   Record{"queryid": "q8", "query": "SELECT 8", "runquantity": "lots"},
			expected: []QueryStat{{ID: "q8", SQL: "SELECT 8", Weight: 1}},
		},
		{
			name:     "blank weight falls through to next key",
			record:   Record{"queryid": "q9", "query": "SELECT 9", "runquantity": " ", "run_count": 4},
			expected: []QueryStat{{ID: "q9", SQL: "SELECT 9", Weight: 4}},
		},
		{
			name:     "missing query text",
			record:   Record{"queryid": "q10", "runquantity": 2},
			expected: []QueryStat{{ID: "q10", SQL: PlaceholderQuery, Weight: 2}},
		},
		{
			name:     "blank query text",
			record:   Record{"queryid": "q11", "query": "   "},
			expected: []QueryStat{{ID: "q11", SQL: PlaceholderQuery, Weight: 1}},
		},
		{
			name:     "missing id is dropped",
			record:   Record{"query": "SELECT 1", "runquantity": 2},
			expected: []QueryStat{},
		},
		{
			name:     "blank id is dropped",
			record:   Record{"queryid": "", "query": "SELECT 1"},
			expected: []QueryStat{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeQueries([]Record{tt.record}))
		})
	}
}
