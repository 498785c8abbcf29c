package payload

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/leapstack-labs/ctxpack/internal/workload"
)

// DefaultURL is the connection string stamped on generated payloads.
const DefaultURL = "jdbc:postgresql://localhost:5432/mydb?login=admin&password=secret"

// GenerateOptions controls synthetic payload generation.
type GenerateOptions struct {
	Tables  int
	Queries int
	Seed    int64
	URL     string
}

// Generate builds a synthetic payload. The same options always produce the
// same payload.
//
// Tables get random four-letter names and one of two column layouts. Each
// query joins two random tables with a GROUP BY, or half of the time is a
// CTE feeding an IN subquery instead.
func Generate(opts GenerateOptions) (*Payload, error) {
	if opts.Tables < 0 || opts.Queries < 0 {
		return nil, fmt.Errorf("table and query counts must not be negative")
	}
	if opts.Tables == 0 && opts.Queries > 0 {
		return nil, errors.New("queries need at least one table")
	}
	url := opts.URL
	if url == "" {
		url = DefaultURL
	}

	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec // synthetic data

	p := &Payload{
		URL:     url,
		DDL:     make([]workload.Record, 0, opts.Tables),
		Queries: make([]workload.Record, 0, opts.Queries),
	}

	names := make([]string, 0, opts.Tables)
	for range opts.Tables {
		name := randomTableName(rng)
		names = append(names, name)
		var stmt string
		if rng.Intn(2) == 0 {
			stmt = fmt.Sprintf("CREATE TABLE %s (id INT PRIMARY KEY, %s_name VARCHAR(100))", name, name)
		} else {
			stmt = fmt.Sprintf("CREATE TABLE %s (order_id INT PRIMARY KEY, user_id INT, amount DECIMAL)", name)
		}
		p.DDL = append(p.DDL, workload.Record{"statement": stmt})
	}

	for range opts.Queries {
		id, err := uuid.NewRandomFromReader(rng)
		if err != nil {
			return nil, fmt.Errorf("failed to generate query id: %w", err)
		}
		runs := 100 + rng.Intn(9901)

		var query string
		if len(names) >= 2 {
			t1, t2 := pickTwo(rng, names)
			query = fmt.Sprintf("SELECT u.id, u.name, COUNT(o.order_id) FROM %s u JOIN %s o ON u.id = o.user_id GROUP BY u.id", t1, t2)
			if rng.Intn(2) == 0 {
				t1, t2 = pickTwo(rng, names)
				query = fmt.Sprintf("WITH active_%[1]s AS (SELECT id FROM %[1]s WHERE active = true) SELECT * FROM %[2]s WHERE user_id IN (SELECT id FROM active_%[1]s)", t1, t2)
			}
		} else {
			query = "SELECT * FROM " + names[0]
		}

		p.Queries = append(p.Queries, workload.Record{
			"queryid":     id.String(),
			"query":       query,
			"runquantity": runs,
		})
	}
	return p, nil
}

func randomTableName(rng *rand.Rand) string {
	b := make([]byte, 4)
	for i := range b {
		b[i] = byte('a' + rng.Intn(26))
	}
	return string(b)
}

// pickTwo samples two entries at distinct positions.
func pickTwo(rng *rand.Rand, names []string) (string, string) {
	i := rng.Intn(len(names))
	j := rng.Intn(len(names) - 1)
	if j >= i {
		j++
	}
	return names[i], names[j]
}
