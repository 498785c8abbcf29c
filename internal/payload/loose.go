package payload

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/ctxpack/internal/workload"
)

var (
	looseCreateRe   = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)
	looseQueryIDRe  = regexp.MustCompile(`"queryid"\s*:\s*"([0-9a-fA-F-]{8,})"`)
	looseQueryIDAlt = regexp.MustCompile(`"queryId"\s*:\s*"([0-9a-fA-F-]{8,})"`)
	looseWeightRe   = regexp.MustCompile(`(?i)"runquantity"\s*:\s*([0-9]+)`)
	looseQueryRe    = regexp.MustCompile(`(?s)"query"\s*:\s*"(.*?)"`)
)

// Loose recovers what it can from a payload that is not valid JSON.
//
// Every CREATE TABLE catalog.schema.table becomes a minimal DDL statement.
// Each query id starts a block running to the next id; the block's run
// quantity and query text are taken when present. Truncated query text
// (containing "...") is replaced by workload.PlaceholderQuery.
func Loose(data []byte) *Payload {
	text := string(data)
	p := &Payload{
		DDL:     []workload.Record{},
		Queries: []workload.Record{},
		Loose:   true,
	}

	seen := make(map[string]struct{})
	for _, m := range looseCreateRe.FindAllStringSubmatch(text, -1) {
		fqtn := m[1] + "." + m[2] + "." + m[3]
		if _, ok := seen[fqtn]; ok {
			continue
		}
		seen[fqtn] = struct{}{}
		p.DDL = append(p.DDL, workload.Record{
			"statement": fmt.Sprintf("CREATE TABLE %s (x int)", fqtn),
		})
	}

	ids := looseQueryIDRe.FindAllStringSubmatchIndex(text, -1)
	if len(ids) == 0 {
		ids = looseQueryIDAlt.FindAllStringSubmatchIndex(text, -1)
	}
	for i, loc := range ids {
		end := len(text)
		if i+1 < len(ids) {
			end = ids[i+1][0]
		}
		block := text[loc[1]:end]

		weight := int64(1)
		if m := looseWeightRe.FindStringSubmatch(block); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				weight = n
			}
		}

		query := workload.PlaceholderQuery
		if m := looseQueryRe.FindStringSubmatch(block); m != nil {
			raw := m[1]
			if !strings.Contains(raw, "...") && strings.TrimSpace(raw) != "" {
				query = strings.NewReplacer("\r", " ", "\n", " ").Replace(raw)
			}
		}

		p.Queries = append(p.Queries, workload.Record{
			"queryid":     text[loc[2]:loc[3]],
			"query":       query,
			"runquantity": weight,
		})
	}
	return p
}
