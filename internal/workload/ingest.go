package workload

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// PlaceholderQuery replaces missing or blank query text.
const PlaceholderQuery = "SELECT 1"

// Record is one raw DDL or query entry as decoded from a payload.
type Record map[string]any

// Accepted key names, in priority order.
var (
	ddlTextKeys  = []string{"statement", "ddl", "sql"}
	queryIDKeys  = []string{"queryid", "queryId", "id", "qid"}
	queryTextKey = "query"
	weightKeys   = []string{"runquantity", "runQuantity", "run_count"}
)

// DDLStmt is one DDL statement.
type DDLStmt struct {
	Statement string
}

// QueryStat is one workload query with its run weight.
type QueryStat struct {
	ID     string
	SQL    string
	Weight int64
}

// NormalizeDDL extracts DDL statement text from raw records. Records without
// a non-empty string under any accepted key are dropped.
func NormalizeDDL(records []Record) []DDLStmt {
	out := make([]DDLStmt, 0, len(records))
	for _, rec := range records {
		for _, key := range ddlTextKeys {
			if s, ok := rec[key].(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, DDLStmt{Statement: s})
				break
			}
		}
	}
	return out
}

// NormalizeQueries converts raw records into query stats. A record without an
// identifier is dropped. Missing or blank text becomes PlaceholderQuery.
// Missing, unparsable or negative weights become 1.
func NormalizeQueries(records []Record) []QueryStat {
	out := make([]QueryStat, 0, len(records))
	for _, rec := range records {
		id, ok := queryID(rec)
		if !ok {
			continue
		}
		sql, _ := rec[queryTextKey].(string)
		if strings.TrimSpace(sql) == "" {
			sql = PlaceholderQuery
		}
		out = append(out, QueryStat{ID: id, SQL: sql, Weight: weight(rec)})
	}
	return out
}

// queryID returns the first present identifier, stringified.
func queryID(rec Record) (string, bool) {
	for _, key := range queryIDKeys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		var id string
		if err := mapstructure.WeakDecode(v, &id); err != nil {
			continue
		}
		if id = strings.TrimSpace(id); id != "" {
			return id, true
		}
	}
	return "", false
}

// weight returns the run weight from the first present weight key.
func weight(rec Record) int64 {
	for _, key := range weightKeys {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString {
			if s = strings.TrimSpace(s); s == "" {
				continue
			}
			v = s
		}
		var w int64
		if err := mapstructure.WeakDecode(v, &w); err != nil || w < 0 {
			return 1
		}
		return w
	}
	return 1
}
