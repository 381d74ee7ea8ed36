// Package scope builds the scope tree: an overlay on a parsed script that
// records, per statement, derived table and join, which tables are visible
// under which alias and where every column reference sits.
//
// The tree is rebuilt for every request and never consults the catalog;
// resolution fills in Table.Object afterwards.
package scope

import (
	"metaql/catalog"
	"metaql/internal/domain"
	"metaql/internal/tsql"
)

// Node is any node of the scope tree.
type Node interface {
	// Parent returns the enclosing scope, nil for statements of the root.
	Parent() Scope
	// Fragment returns the parse-tree node this scope node was built from.
	Fragment() tsql.Node
	// Slot addresses the fragment within its parse-tree parent.
	Slot() tsql.Slot
}

// Scope is a node that provides tables: a statement, a derived table or a
// join.
type Scope interface {
	Node
	// Tables returns the direct table sources: *Table, *Derived, *CTERef or
	// *Join.
	Tables() []Node
	// Where returns the column references outside the select list.
	Where() []*Column
	// FlattenTables returns every table leaf in this subtree, descending into
	// joins and derived tables.
	FlattenTables() []*Table
	// Lookup finds a table source registered in this scope by alias, or by
	// raw name for unaliased tables. Keys match case-insensitively.
	Lookup(key string) Node
}

type nodeBase struct {
	parent Scope
	frag   tsql.Node
	slot   tsql.Slot
}

func (n *nodeBase) Parent() Scope       { return n.parent }
func (n *nodeBase) Fragment() tsql.Node { return n.frag }
func (n *nodeBase) Slot() tsql.Slot     { return n.slot }

type scopeBase struct {
	nodeBase
	tables []Node
	where  []*Column
	index  map[string]Node
}

func (s *scopeBase) Tables() []Node   { return s.tables }
func (s *scopeBase) Where() []*Column { return s.where }

func (s *scopeBase) Lookup(key string) Node {
	return s.index[catalog.Fold(key)]
}

func (s *scopeBase) FlattenTables() []*Table {
	var out []*Table
	for _, t := range s.tables {
		switch v := t.(type) {
		case *Table:
			out = append(out, v)
		case Scope:
			out = append(out, v.FlattenTables()...)
		}
	}
	return out
}

// mutable is implemented by every scope through scopeBase.
type mutable interface {
	addTable(n Node)
	addWhere(c *Column)
}

func (s *scopeBase) addTable(n Node)    { s.tables = append(s.tables, n) }
func (s *scopeBase) addWhere(c *Column) { s.where = append(s.where, c) }

// register indexes n under key; it reports false when the key is taken.
func (s *scopeBase) register(key string, n Node) bool {
	if key == "" {
		return true
	}
	if s.index == nil {
		s.index = make(map[string]Node)
	}
	k := catalog.Fold(key)
	if _, dup := s.index[k]; dup {
		return false
	}
	s.index[k] = n
	return true
}

// Script is the root: one Statement per query statement.
type Script struct {
	Statements []*Statement
	frag       *tsql.Script
}

// Fragment returns the parsed script.
func (s *Script) Fragment() *tsql.Script { return s.frag }

// Statement is the scope of a SELECT, INSERT, UPDATE or DELETE body, or of
// a subquery nested in one.
type Statement struct {
	scopeBase
	// Columns holds the select list in order.
	Columns []*Column
	// Subqueries holds statements nested in expressions and the right-hand
	// sides of set operations. They are not table sources.
	Subqueries []*Statement
	// CommonTables holds the WITH definitions of the statement, named by
	// their Alias.
	CommonTables []*Derived
}

// Derived is a subquery used as a table source.
type Derived struct {
	Statement
	Alias string
}

// Join is a joined pair of table sources. Where holds the ON columns.
type Join struct {
	scopeBase
	Kind tsql.JoinKind
}

// Table is a named table source.
type Table struct {
	nodeBase
	// Name is the raw dotted name as written.
	Name  string
	Alias string
	Ref   *tsql.NamedTable
	// Object and Database are filled in by resolution; Object stays nil for
	// plain physical tables.
	Object   *domain.ApplicationObject
	Database string
}

// Key returns the name the table is visible under: its alias or raw name.
func (t *Table) Key() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// CTERef is a FROM entry naming a common table expression. It is a table
// source but not a table leaf: resolution and rewriting leave it alone.
type CTERef struct {
	nodeBase
	Name  string
	Alias string
	CTE   *Derived
}

// Key returns the name the source is visible under: its alias or the
// expression name.
func (r *CTERef) Key() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Name
}

// Column is a column leaf. Select-list entries have Item set; Ref is the
// reference itself when the entry (or predicate operand) is a bare column
// reference. A computed select item keeps the references it contains in
// Operands.
type Column struct {
	nodeBase
	Name     string
	Alias    string
	Item     *tsql.SelectItem
	Ref      *tsql.ColumnRef
	Operands []*Column
}

// Statement returns the statement or derived table enclosing the column,
// skipping joins.
func (c *Column) Statement() *Statement {
	for s := c.parent; s != nil; s = s.Parent() {
		switch v := s.(type) {
		case *Statement:
			return v
		case *Derived:
			return &v.Statement
		}
	}
	return nil
}

// References returns the column references held by the leaf: its own Ref
// and those of its operands.
func (c *Column) References() []*Column {
	var out []*Column
	if c.Ref != nil {
		out = append(out, c)
	}
	for _, op := range c.Operands {
		out = append(out, op.References()...)
	}
	return out
}

// Warning is a structural inconsistency found while building.
type Warning struct {
	Span    tsql.Span
	Message string
}

// Tree is a built scope tree with indexes used by resolution and completion.
type Tree struct {
	Root     *Script
	Warnings []Warning

	tables  []*Table
	columns []*Column
	leaves  map[tsql.Node]Node
}

// Tables returns every table leaf in build order.
func (t *Tree) Tables() []*Table { return t.tables }

// Columns returns every leaf that holds a column reference, in build order:
// select-list entries, operands and predicate columns alike.
func (t *Tree) Columns() []*Column { return t.columns }

// LeafAt returns the table or column leaf built from fragment, or nil. A
// table is found by its NamedTable or by the table's name node.
func (t *Tree) LeafAt(fragment tsql.Node) Node {
	return t.leaves[fragment]
}

// LookupOutward searches s and then its ancestors for a table source
// registered under key.
func LookupOutward(s Scope, key string) Node {
	for ; s != nil; s = s.Parent() {
		if n := s.Lookup(key); n != nil {
			return n
		}
	}
	return nil
}
