package workload

import (
	"github.com/leapstack-labs/ctxpack/pkg/parser"
)

// cteEnv is an immutable snapshot of the CTE names visible at a point in a
// statement. Binding returns a new snapshot; earlier snapshots never change.
type cteEnv struct {
	name    string
	targets []string
	parent  *cteEnv
}

func (e *cteEnv) bind(name string, targets []string) *cteEnv {
	return &cteEnv{name: name, targets: targets, parent: e}
}

// lookup returns the physical tables behind a CTE name. A CTE that resolved
// to nothing is still found, so it shadows a table of the same name.
func (e *cteEnv) lookup(name string) ([]string, bool) {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.targets, true
		}
	}
	return nil, false
}

// block is the scope of one SELECT core: its sources, their bindings and the
// enclosing block for correlated references.
type block struct {
	parent   *block
	env      *cteEnv
	bindings map[string][]string
	bases    *stringSet
	// aliased holds the targets of sources that carry an explicit alias.
	aliased [][]string
	// qualified records, per column name, the tables it was seen qualified
	// with so far in this block.
	qualified map[string]*stringSet
}

func newBlock(parent *block, env *cteEnv) *block {
	return &block{
		parent:    parent,
		env:       env,
		bindings:  make(map[string][]string),
		bases:     newStringSet(),
		qualified: make(map[string]*stringSet),
	}
}

// bind registers a source name. Explicit aliases with targets also count
// towards the single-aliased-source rule.
func (b *block) bind(name string, targets []string, explicit bool) {
	if name == "" {
		return
	}
	b.bindings[name] = targets
	if explicit && len(targets) > 0 {
		b.aliased = append(b.aliased, targets)
	}
}

func (b *block) binding(name string) ([]string, bool) {
	for cur := b; cur != nil; cur = cur.parent {
		if targets, ok := cur.bindings[name]; ok {
			return targets, true
		}
	}
	return nil, false
}

func (b *block) seenQualified(col, fqtn string) {
	set, ok := b.qualified[col]
	if !ok {
		set = newStringSet()
		b.qualified[col] = set
	}
	set.add(fqtn)
}

// resolver turns table and column qualifiers into physical table names.
type resolver struct {
	defaults defaults
	short    shortNameIndex
}

// tableName resolves a table reference in a FROM clause.
func (r *resolver) tableName(tn *parser.TableName, env *cteEnv) []string {
	name := Unquote(tn.Name)
	if tn.Schema != "" {
		fqtn, _ := r.defaults.qualify(Unquote(tn.Catalog), Unquote(tn.Schema), name)
		if IsPhysical(fqtn) {
			return []string{fqtn}
		}
		return nil
	}
	if targets, ok := env.lookup(name); ok {
		return targets
	}
	return r.bare(name)
}

// bare resolves an unqualified table name through the short-name index and
// then the default schema.
func (r *resolver) bare(name string) []string {
	if fqtn, ok := r.short[name]; ok {
		return []string{fqtn}
	}
	if fqtn, ok := r.defaults.qualify("", "", name); ok && IsPhysical(fqtn) {
		return []string{fqtn}
	}
	return nil
}

// qualifier resolves the table part of a qualified column reference.
func (r *resolver) qualifier(col *parser.ColumnRef, b *block) []string {
	table := Unquote(col.Table)
	if col.Schema != "" {
		fqtn, _ := r.defaults.qualify(Unquote(col.Catalog), Unquote(col.Schema), table)
		if IsPhysical(fqtn) {
			return []string{fqtn}
		}
		return nil
	}
	if targets, ok := b.binding(table); ok {
		return targets
	}
	if targets, ok := b.env.lookup(table); ok {
		return targets
	}
	if fqtn, ok := r.short[table]; ok {
		return []string{fqtn}
	}
	return nil
}
