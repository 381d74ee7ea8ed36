package tsql

import "fmt"

// Child is a node together with the field of its parent that holds it.
// Index is the position within a list-valued field, or -1 for a single field.
type Child struct {
	Field string
	Index int
	Node  Node
}

// Slot addresses one child position of a parent node so that it can be
// replaced later.
type Slot struct {
	Parent Node
	Field  string
	Index  int
}

// IsZero reports whether the slot addresses nothing.
func (s Slot) IsZero() bool { return s.Parent == nil }

// SlotOf returns the slot of child c within parent.
func SlotOf(parent Node, c Child) Slot {
	return Slot{Parent: parent, Field: c.Field, Index: c.Index}
}

type children []Child

func (c *children) one(field string, n Node) {
	if isNilNode(n) {
		return
	}
	*c = append(*c, Child{Field: field, Index: -1, Node: n})
}

func isNilNode(n Node) bool {
	if n == nil {
		return true
	}
	switch v := n.(type) {
	case *SelectStmt:
		return v == nil
	case *WithClause:
		return v == nil
	case *WhereClause:
		return v == nil
	case *FromClause:
		return v == nil
	case *TopClause:
		return v == nil
	case *NamedTable:
		return v == nil
	case *Identifier:
		return v == nil
	case *DataType:
		return v == nil
	case *SchemaObjectName:
		return v == nil
	case *ColumnRef:
		return v == nil
	}
	return false
}

func listOf[T Node](c *children, field string, items []T) {
	for i, n := range items {
		if isNilNode(n) {
			continue
		}
		*c = append(*c, Child{Field: field, Index: i, Node: n})
	}
}

// Children returns the direct children of n in source order.
func Children(n Node) []Child {
	var c children
	switch v := n.(type) {
	case *Script:
		listOf(&c, "Statements", v.Statements)
	case *SelectStmt:
		c.one("With", v.With)
		c.one("Top", v.Top)
		listOf(&c, "Columns", v.Columns)
		c.one("Into", v.Into)
		c.one("From", v.From)
		c.one("Where", v.Where)
		listOf(&c, "GroupBy", v.GroupBy)
		c.one("Having", v.Having)
		c.one("Next", v.Next)
		listOf(&c, "OrderBy", v.OrderBy)
		c.one("Offset", v.Offset)
		c.one("Fetch", v.Fetch)
	case *WithClause:
		listOf(&c, "CTEs", v.CTEs)
	case *CommonTableExpr:
		c.one("Name", v.Name)
		listOf(&c, "Columns", v.Columns)
		c.one("Query", v.Query)
	case *IfStmt:
		c.one("Condition", v.Condition)
		c.one("Then", v.Then)
		c.one("Else", v.Else)
	case *BlockStmt:
		listOf(&c, "Statements", v.Statements)
	case *ParenTable:
		c.one("Source", v.Source)
	case *TopClause:
		c.one("Count", v.Count)
	case *SelectItem:
		c.one("Expr", v.Expr)
		c.one("Alias", v.Alias)
	case *FromClause:
		listOf(&c, "Tables", v.Tables)
	case *WhereClause:
		c.one("Condition", v.Condition)
	case *OrderItem:
		c.one("Expr", v.Expr)
	case *InsertStmt:
		c.one("With", v.With)
		c.one("Target", v.Target)
		listOf(&c, "Columns", v.Columns)
		listOf(&c, "Rows", v.Rows)
		c.one("Select", v.Select)
	case *ValuesRow:
		listOf(&c, "Values", v.Values)
	case *UpdateStmt:
		c.one("With", v.With)
		c.one("Top", v.Top)
		c.one("Target", v.Target)
		listOf(&c, "Set", v.Set)
		c.one("From", v.From)
		c.one("Where", v.Where)
	case *SetClause:
		c.one("Column", v.Column)
		c.one("Value", v.Value)
	case *DeleteStmt:
		c.one("With", v.With)
		c.one("Top", v.Top)
		c.one("Target", v.Target)
		c.one("From", v.From)
		c.one("Where", v.Where)
	case *DeclareStmt:
		listOf(&c, "Variables", v.Variables)
	case *VariableDecl:
		c.one("Type", v.Type)
		c.one("Value", v.Value)
	case *NamedTable:
		c.one("Name", v.Name)
		c.one("Alias", v.Alias)
	case *SchemaObjectName:
		listOf(&c, "Parts", v.Parts)
	case *DerivedTable:
		c.one("Query", v.Query)
		c.one("Alias", v.Alias)
	case *Join:
		c.one("Left", v.Left)
		c.one("Right", v.Right)
		c.one("On", v.On)
	case *ColumnRef:
		listOf(&c, "Parts", v.Parts)
	case *StarExpr:
		listOf(&c, "Qualifier", v.Qualifier)
	case *UnaryExpr:
		c.one("Expr", v.Expr)
	case *BinaryExpr:
		c.one("Left", v.Left)
		c.one("Right", v.Right)
	case *ParenExpr:
		c.one("Expr", v.Expr)
	case *FuncCall:
		listOf(&c, "Args", v.Args)
	case *CaseExpr:
		c.one("Operand", v.Operand)
		listOf(&c, "Whens", v.Whens)
		c.one("Else", v.Else)
	case *WhenClause:
		c.one("Condition", v.Condition)
		c.one("Result", v.Result)
	case *CastExpr:
		c.one("Expr", v.Expr)
		c.one("Type", v.Type)
	case *InExpr:
		c.one("Expr", v.Expr)
		listOf(&c, "List", v.List)
		c.one("Query", v.Query)
	case *BetweenExpr:
		c.one("Expr", v.Expr)
		c.one("Low", v.Low)
		c.one("High", v.High)
	case *LikeExpr:
		c.one("Expr", v.Expr)
		c.one("Pattern", v.Pattern)
		c.one("Escape", v.Escape)
	case *IsNullExpr:
		c.one("Expr", v.Expr)
	case *ExistsExpr:
		c.one("Query", v.Query)
	case *SubqueryExpr:
		c.one("Query", v.Query)
	}
	return c
}

// Walk visits n and its descendants in pre-order. fn receives each node and
// the slot it occupies (zero for the root). Returning false skips the
// node's children.
func Walk(n Node, fn func(n Node, slot Slot) bool) {
	walk(n, Slot{}, fn)
}

func walk(n Node, slot Slot, fn func(Node, Slot) bool) {
	if !fn(n, slot) {
		return
	}
	for _, c := range Children(n) {
		walk(c.Node, SlotOf(n, c), fn)
	}
}

// Get returns the node currently held by slot.
func Get(slot Slot) Node {
	for _, c := range Children(slot.Parent) {
		if c.Field == slot.Field && c.Index == slot.Index {
			return c.Node
		}
	}
	return nil
}

// Replace stores n into the slot, replacing whatever the parent held there.
func Replace(slot Slot, n Node) error {
	switch p := slot.Parent.(type) {
	case *SelectStmt:
		switch slot.Field {
		case "GroupBy":
			return setExprAt(p.GroupBy, slot, n)
		case "Having":
			return setExpr(&p.Having, slot, n)
		case "Offset":
			return setExpr(&p.Offset, slot, n)
		case "Fetch":
			return setExpr(&p.Fetch, slot, n)
		}
	case *IfStmt:
		if slot.Field == "Condition" {
			return setExpr(&p.Condition, slot, n)
		}
	case *TopClause:
		if slot.Field == "Count" {
			return setExpr(&p.Count, slot, n)
		}
	case *SelectItem:
		if slot.Field == "Expr" {
			return setExpr(&p.Expr, slot, n)
		}
	case *WhereClause:
		if slot.Field == "Condition" {
			return setExpr(&p.Condition, slot, n)
		}
	case *OrderItem:
		if slot.Field == "Expr" {
			return setExpr(&p.Expr, slot, n)
		}
	case *InsertStmt:
		if slot.Field == "Columns" {
			return setColumnAt(p.Columns, slot, n)
		}
	case *ValuesRow:
		if slot.Field == "Values" {
			return setExprAt(p.Values, slot, n)
		}
	case *SetClause:
		switch slot.Field {
		case "Column":
			ref, ok := n.(*ColumnRef)
			if !ok {
				return fmt.Errorf("tsql: %s of %T requires a column reference, got %T", slot.Field, p, n)
			}
			p.Column = ref
			return nil
		case "Value":
			return setExpr(&p.Value, slot, n)
		}
	case *VariableDecl:
		if slot.Field == "Value" {
			return setExpr(&p.Value, slot, n)
		}
	case *NamedTable:
		if slot.Field == "Name" {
			name, ok := n.(*SchemaObjectName)
			if !ok {
				return fmt.Errorf("tsql: %s of %T requires an object name, got %T", slot.Field, p, n)
			}
			p.Name = name
			return nil
		}
	case *Join:
		if slot.Field == "On" {
			return setExpr(&p.On, slot, n)
		}
	case *UnaryExpr:
		if slot.Field == "Expr" {
			return setExpr(&p.Expr, slot, n)
		}
	case *BinaryExpr:
		switch slot.Field {
		case "Left":
			return setExpr(&p.Left, slot, n)
		case "Right":
			return setExpr(&p.Right, slot, n)
		}
	case *ParenExpr:
		if slot.Field == "Expr" {
			return setExpr(&p.Expr, slot, n)
		}
	case *FuncCall:
		if slot.Field == "Args" {
			return setExprAt(p.Args, slot, n)
		}
	case *CaseExpr:
		switch slot.Field {
		case "Operand":
			return setExpr(&p.Operand, slot, n)
		case "Else":
			return setExpr(&p.Else, slot, n)
		}
	case *WhenClause:
		switch slot.Field {
		case "Condition":
			return setExpr(&p.Condition, slot, n)
		case "Result":
			return setExpr(&p.Result, slot, n)
		}
	case *CastExpr:
		if slot.Field == "Expr" {
			return setExpr(&p.Expr, slot, n)
		}
	case *InExpr:
		switch slot.Field {
		case "Expr":
			return setExpr(&p.Expr, slot, n)
		case "List":
			return setExprAt(p.List, slot, n)
		}
	case *BetweenExpr:
		switch slot.Field {
		case "Expr":
			return setExpr(&p.Expr, slot, n)
		case "Low":
			return setExpr(&p.Low, slot, n)
		case "High":
			return setExpr(&p.High, slot, n)
		}
	case *LikeExpr:
		switch slot.Field {
		case "Expr":
			return setExpr(&p.Expr, slot, n)
		case "Pattern":
			return setExpr(&p.Pattern, slot, n)
		case "Escape":
			return setExpr(&p.Escape, slot, n)
		}
	case *IsNullExpr:
		if slot.Field == "Expr" {
			return setExpr(&p.Expr, slot, n)
		}
	}
	return fmt.Errorf("tsql: cannot replace %s[%d] of %T", slot.Field, slot.Index, slot.Parent)
}

func setExpr(dst *Expr, slot Slot, n Node) error {
	e, ok := n.(Expr)
	if !ok {
		return fmt.Errorf("tsql: %s of %T requires an expression, got %T", slot.Field, slot.Parent, n)
	}
	*dst = e
	return nil
}

func setExprAt(list []Expr, slot Slot, n Node) error {
	if slot.Index < 0 || slot.Index >= len(list) {
		return fmt.Errorf("tsql: %s index %d out of range", slot.Field, slot.Index)
	}
	return setExpr(&list[slot.Index], slot, n)
}

func setColumnAt(list []*ColumnRef, slot Slot, n Node) error {
	if slot.Index < 0 || slot.Index >= len(list) {
		return fmt.Errorf("tsql: %s index %d out of range", slot.Field, slot.Index)
	}
	ref, ok := n.(*ColumnRef)
	if !ok {
		return fmt.Errorf("tsql: %s of %T requires a column reference, got %T", slot.Field, slot.Parent, n)
	}
	list[slot.Index] = ref
	return nil
}
