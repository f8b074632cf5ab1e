package parser

import "fmt"

// Structural pattern identifiers. The set is fixed and small, so the cache
// never needs eviction.
const (
	PatternRecipe     = "recipe"
	PatternParameter  = "parameter"
	PatternDependency = "dependency"
	PatternAttribute  = "attribute"
	PatternComment    = "comment"
)

// AllPatterns lists every pattern the extraction layer uses.
var AllPatterns = []string{
	PatternRecipe,
	PatternParameter,
	PatternDependency,
	PatternAttribute,
	PatternComment,
}

// patternKinds maps a pattern identifier to the node kinds it captures.
var patternKinds = map[string][]string{
	PatternRecipe:     {KindRecipe},
	PatternParameter:  {KindParameter, KindVariadicParameter},
	PatternDependency: {KindDependency},
	PatternAttribute:  {KindAttribute},
	PatternComment:    {KindComment},
}

// Query is a compiled structural pattern: a set of node kinds to capture
// during a tree walk.
type Query struct {
	id    string
	kinds map[string]bool
}

func (q *Query) ID() string {
	return q.id
}

// Matches reports whether the node's kind is captured by this pattern.
func (q *Query) Matches(n Node) bool {
	return q.kinds[n.Kind()]
}

// Collect walks the tree depth-first and returns every matching node in
// source order.
func (q *Query) Collect(t *Tree) []Node {
	var out []Node
	t.Root().Walk(func(n Node) bool {
		if q.Matches(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryCache holds compiled queries keyed by pattern identifier. It is owned
// by a single Parser instance and grows monotonically over its lifetime.
type QueryCache struct {
	queries map[string]*Query
	hits    uint64
	misses  uint64
}

func NewQueryCache() *QueryCache {
	return &QueryCache{queries: make(map[string]*Query)}
}

// GetOrCompile returns the compiled query for a pattern, compiling and
// caching it on first use.
func (c *QueryCache) GetOrCompile(patternID string) (*Query, error) {
	if q, ok := c.queries[patternID]; ok {
		c.hits++
		return q, nil
	}
	kinds, ok := patternKinds[patternID]
	if !ok {
		return nil, fmt.Errorf("unknown structural pattern: %q", patternID)
	}
	c.misses++
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	q := &Query{id: patternID, kinds: set}
	c.queries[patternID] = q
	return q, nil
}

func (c *QueryCache) Len() int {
	return len(c.queries)
}

func (c *QueryCache) Hits() uint64 {
	return c.hits
}

func (c *QueryCache) Misses() uint64 {
	return c.misses
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *QueryCache) HitRate() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}
