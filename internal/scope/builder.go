package scope

import (
	"fmt"
	"strings"

	"metaql/catalog"
	"metaql/internal/tsql"
)

// TypeOfFunction is the pseudo-function folded into a type-code literal.
// Its argument names an entity, not a column, so the builder skips it.
const TypeOfFunction = "TYPEOF"

type builder struct {
	tree *Tree
	// ctes holds the common table expressions visible at the current point,
	// innermost last.
	ctes []*Derived
}

// frame is the traversal context: the innermost table scope, the statement
// that owns select-list entries, and the select item being built, if any.
// References met while item is nil are predicate columns.
type frame struct {
	scope Scope
	stmt  *Statement
	item  *Column
}

// Build builds the scope tree of a parsed script.
func Build(script *tsql.Script) *Tree {
	b := &builder{tree: &Tree{
		Root:   &Script{frag: script},
		leaves: make(map[tsql.Node]Node),
	}}
	for i, stmt := range script.Statements {
		b.topLevel(stmt, tsql.Slot{Parent: script, Field: "Statements", Index: i})
	}
	return b.tree
}

// topLevel adds the statements of stmt to the root. IF and BEGIN ... END
// contribute the statements they contain; an IF condition that references
// columns or queries gets a statement of its own.
func (b *builder) topLevel(stmt tsql.Node, slot tsql.Slot) {
	switch v := stmt.(type) {
	case *tsql.IfStmt:
		cond := newStatement(v, slot, nil)
		for _, c := range tsql.Children(v) {
			if c.Field == "Condition" {
				b.visit(c.Node, tsql.SlotOf(v, c), frame{scope: cond, stmt: cond})
				if len(cond.Where()) > 0 || len(cond.Subqueries) > 0 {
					b.tree.Root.Statements = append(b.tree.Root.Statements, cond)
				}
				continue
			}
			b.topLevel(c.Node, tsql.SlotOf(v, c))
		}
	case *tsql.BlockStmt:
		for _, c := range tsql.Children(v) {
			b.topLevel(c.Node, tsql.SlotOf(v, c))
		}
	default:
		if s := b.statement(stmt, slot, nil); s != nil {
			b.tree.Root.Statements = append(b.tree.Root.Statements, s)
		}
	}
}

// statement builds the scope of a statement body; other statements (DECLARE)
// have no scope.
func (b *builder) statement(n tsql.Node, slot tsql.Slot, parent Scope) *Statement {
	switch v := n.(type) {
	case *tsql.SelectStmt:
		s := newStatement(v, slot, parent)
		defer b.commonTables(v.With, s, parent)()
		b.selectBody(v, s, frame{scope: s, stmt: s})
		return s
	case *tsql.InsertStmt:
		s := newStatement(v, slot, parent)
		defer b.commonTables(v.With, s, parent)()
		f := frame{scope: s, stmt: s}
		b.children(v, f)
		return s
	case *tsql.UpdateStmt:
		s := newStatement(v, slot, parent)
		defer b.commonTables(v.With, s, parent)()
		b.targeted(v, v.Target, v.From, s)
		return s
	case *tsql.DeleteStmt:
		s := newStatement(v, slot, parent)
		defer b.commonTables(v.With, s, parent)()
		b.targeted(v, v.Target, v.From, s)
		return s
	}
	return nil
}

// commonTables builds a derived scope for every common table expression of
// s and makes it visible by name until the returned function runs. Each
// expression sees the ones defined before it and itself.
func (b *builder) commonTables(with *tsql.WithClause, s *Statement, parent Scope) func() {
	mark := len(b.ctes)
	if with != nil {
		for i, cte := range with.CTEs {
			slot := tsql.Slot{Parent: with, Field: "CTEs", Index: i}
			d := &Derived{Statement: *newStatement(cte, slot, parent)}
			if cte.Name != nil {
				d.Alias = cte.Name.Value
			}
			b.ctes = append(b.ctes, d)
			s.CommonTables = append(s.CommonTables, d)
			if cte.Query != nil {
				b.selectBody(cte.Query, &d.Statement, frame{scope: d, stmt: &d.Statement})
			}
		}
	}
	return func() { b.ctes = b.ctes[:mark] }
}

// commonTable returns the visible common table expression a one-part name
// refers to, or nil.
func (b *builder) commonTable(name *tsql.SchemaObjectName) *Derived {
	if name == nil || len(name.Parts) != 1 {
		return nil
	}
	key := catalog.Fold(name.Base())
	for i := len(b.ctes) - 1; i >= 0; i-- {
		if catalog.Fold(b.ctes[i].Alias) == key {
			return b.ctes[i]
		}
	}
	return nil
}

func newStatement(frag tsql.Node, slot tsql.Slot, parent Scope) *Statement {
	return &Statement{scopeBase: scopeBase{nodeBase: nodeBase{parent: parent, frag: frag, slot: slot}}}
}

// selectBody walks a query specification. The right-hand side of a set
// operation gets its own statement scope.
func (b *builder) selectBody(sel *tsql.SelectStmt, s *Statement, f frame) {
	for _, c := range tsql.Children(sel) {
		if c.Field == "Next" {
			next := b.statement(c.Node, tsql.SlotOf(sel, c), f.scope)
			s.Subqueries = append(s.Subqueries, next)
			continue
		}
		b.visit(c.Node, tsql.SlotOf(sel, c), f)
	}
}

// targeted walks UPDATE and DELETE. FROM is built first so that a target
// naming a FROM alias (UPDATE T SET ... FROM x AS T) is not registered as a
// second table.
func (b *builder) targeted(stmt tsql.Node, target *tsql.NamedTable, from *tsql.FromClause, s *Statement) {
	f := frame{scope: s, stmt: s}
	if from != nil {
		b.visit(from, tsql.Slot{Parent: stmt, Field: "From", Index: -1}, f)
	}
	for _, c := range tsql.Children(stmt) {
		switch c.Field {
		case "From":
			continue
		case "Target":
			if target != nil && len(target.Name.Parts) == 1 && target.Alias == nil && s.Lookup(target.Name.Base()) != nil {
				continue
			}
		}
		b.visit(c.Node, tsql.SlotOf(stmt, c), f)
	}
}

// visit dispatches on the recognized shapes; everything else is walked
// through under the same frame.
func (b *builder) visit(n tsql.Node, slot tsql.Slot, f frame) {
	switch v := n.(type) {
	case *tsql.SelectStmt:
		// A query nested in an expression or in INSERT ... SELECT.
		s := b.statement(v, slot, f.scope)
		f.stmt.Subqueries = append(f.stmt.Subqueries, s)
		return
	case *tsql.DerivedTable:
		b.derived(v, slot, f)
		return
	case *tsql.Join:
		b.join(v, slot, f)
		return
	case *tsql.NamedTable:
		b.table(v, slot, f)
		return
	case *tsql.SelectItem:
		b.selectItem(v, slot, f)
		return
	case *tsql.WithClause:
		// Built by commonTables before the statement body.
		return
	case *tsql.ColumnRef:
		b.column(v, slot, f)
		return
	case *tsql.FuncCall:
		if strings.EqualFold(v.Name, TypeOfFunction) {
			return
		}
	}
	b.children(n, f)
}

func (b *builder) children(n tsql.Node, f frame) {
	for _, c := range tsql.Children(n) {
		b.visit(c.Node, tsql.SlotOf(n, c), f)
	}
}

func (b *builder) derived(v *tsql.DerivedTable, slot tsql.Slot, f frame) {
	d := &Derived{Statement: *newStatement(v, slot, f.scope)}
	if v.Alias != nil {
		d.Alias = v.Alias.Value
	}
	b.attach(d, d.Alias, v.Span(), f)
	if v.Query != nil {
		inner := frame{scope: d, stmt: &d.Statement}
		b.selectBody(v.Query, &d.Statement, inner)
	}
}

func (b *builder) join(v *tsql.Join, slot tsql.Slot, f frame) {
	j := &Join{scopeBase: scopeBase{nodeBase: nodeBase{parent: f.scope, frag: v, slot: slot}}, Kind: v.Kind}
	b.attach(j, "", v.Span(), f)
	inner := frame{scope: j, stmt: f.stmt}
	b.children(v, inner)
}

func (b *builder) table(v *tsql.NamedTable, slot tsql.Slot, f frame) {
	if cte := b.commonTable(v.Name); cte != nil {
		r := &CTERef{nodeBase: nodeBase{parent: f.scope, frag: v, slot: slot}, CTE: cte, Name: v.Name.Base()}
		if v.Alias != nil {
			r.Alias = v.Alias.Value
		}
		b.attach(r, r.Key(), v.Span(), f)
		return
	}
	t := &Table{nodeBase: nodeBase{parent: f.scope, frag: v, slot: slot}, Ref: v}
	if v.Name != nil {
		t.Name = v.Name.String()
		b.tree.leaves[v.Name] = t
	}
	if v.Alias != nil {
		t.Alias = v.Alias.Value
	}
	b.tree.leaves[v] = t
	b.tree.tables = append(b.tree.tables, t)
	b.attach(t, t.Key(), v.Span(), f)
}

// attach adds a table source to the current scope and indexes it in every
// enclosing join up to and including the statement. A key already taken in
// the statement is a structural inconsistency: the source stays attached
// but is not indexed.
func (b *builder) attach(n Node, key string, span tsql.Span, f frame) {
	f.scope.(mutable).addTable(n)
	if key == "" {
		return
	}
	if !f.stmt.register(key, n) {
		b.tree.Warnings = append(b.tree.Warnings, Warning{
			Span:    span,
			Message: fmt.Sprintf("duplicate table alias or name %q in one scope", key),
		})
		return
	}
	for s := f.scope; s != nil; s = s.Parent() {
		j, ok := s.(*Join)
		if !ok {
			break
		}
		j.register(key, n)
	}
}

func (b *builder) selectItem(v *tsql.SelectItem, slot tsql.Slot, f frame) {
	col := &Column{nodeBase: nodeBase{parent: f.scope, frag: v, slot: slot}, Item: v}
	if v.Alias != nil {
		col.Alias = v.Alias.Value
	}
	f.stmt.Columns = append(f.stmt.Columns, col)

	if ref, ok := v.Expr.(*tsql.ColumnRef); ok {
		col.Name = ref.String()
		col.Ref = ref
		col.frag = ref
		col.slot = tsql.Slot{Parent: v, Field: "Expr", Index: -1}
		b.tree.leaves[ref] = col
		b.tree.columns = append(b.tree.columns, col)
		return
	}
	if v.Expr != nil {
		f.item = col
		b.visit(v.Expr, tsql.Slot{Parent: v, Field: "Expr", Index: -1}, f)
	}
}

func (b *builder) column(v *tsql.ColumnRef, slot tsql.Slot, f frame) {
	col := &Column{nodeBase: nodeBase{parent: f.scope, frag: v, slot: slot}, Name: v.String(), Ref: v}
	b.tree.leaves[v] = col
	b.tree.columns = append(b.tree.columns, col)
	if f.item != nil {
		f.item.Operands = append(f.item.Operands, col)
		return
	}
	f.scope.(mutable).addWhere(col)
}
