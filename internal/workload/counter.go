package workload

// counter accumulates weights per key and remembers first-insertion order.
type counter[K comparable] struct {
	counts map[K]int64
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int64)}
}

func (c *counter[K]) add(key K, weight int64) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += weight
}

func (c *counter[K]) get(key K) int64 {
	return c.counts[key]
}

// keys returns keys in first-insertion order.
func (c *counter[K]) keys() []K {
	return c.order
}

// stringSet is an insertion-ordered set of strings.
type stringSet struct {
	seen  map[string]struct{}
	items []string
}

func newStringSet() *stringSet {
	return &stringSet{seen: make(map[string]struct{})}
}

func (s *stringSet) add(items ...string) {
	for _, item := range items {
		if _, ok := s.seen[item]; ok {
			continue
		}
		s.seen[item] = struct{}{}
		s.items = append(s.items, item)
	}
}

func (s *stringSet) len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}
