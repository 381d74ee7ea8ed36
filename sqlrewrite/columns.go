package sqlrewrite

import (
	"fmt"

	"metaql/internal/domain"
	"metaql/internal/resolve"
	"metaql/internal/scope"
	"metaql/internal/tsql"
)

// Text lengths of a 4-byte type code literal and a 20-byte reference
// literal.
var (
	typeCodeLiteralLen  = len(domain.TypeCodeLiteral(0))
	referenceLiteralLen = len(domain.Reference{}.Literal())
)

type columnEdit struct {
	slot tsql.Slot
	repl tsql.Node
}

// rewriteColumns replaces every resolvable column reference with its
// physical form. Replacements are computed against the untouched tree and
// applied afterwards, so a decision that depends on the opposite comparison
// operand always sees the operand as written.
func (rw *Rewriter) rewriteColumns(tree *scope.Tree) []resolve.Warning {
	var warns []resolve.Warning
	resolved := make(map[*tsql.ColumnRef]resolve.ColumnResolution)
	var cols []*scope.Column
	for _, col := range tree.Columns() {
		res, ok, w := rw.resolver.ResolveColumn(col)
		if w != nil {
			warns = append(warns, *w)
		}
		if ok {
			resolved[col.Ref] = res
			cols = append(cols, col)
		}
	}

	var edits []columnEdit
	for _, col := range cols {
		repl, w := columnReplacement(col, resolved[col.Ref], resolved)
		if w != nil {
			warns = append(warns, *w)
			continue
		}
		edits = append(edits, columnEdit{slot: col.Slot(), repl: repl})
	}
	for _, e := range edits {
		if err := tsql.Replace(e.slot, e.repl); err != nil {
			warns = append(warns, resolve.Warning{Code: WarnNotRewritable, Span: tsql.Get(e.slot).Span(), Message: err.Error()})
		}
	}
	return warns
}

func columnReplacement(col *scope.Column, res resolve.ColumnResolution, resolved map[*tsql.ColumnRef]resolve.ColumnResolution) (tsql.Node, *resolve.Warning) {
	prop := res.Property
	warn := func(code int, format string, args ...any) *resolve.Warning {
		return &resolve.Warning{Code: code, Span: col.Ref.Span(), Message: fmt.Sprintf(format, args...)}
	}
	field := func(purpose domain.FieldPurpose) (tsql.Node, *resolve.Warning) {
		f, ok := prop.Field(purpose)
		if !ok {
			return nil, warn(WarnMissingField, "%s.%s has no %s field", res.Object.QualifiedName(), prop.Name, purpose)
		}
		return fieldRef(col, res, f.Name), nil
	}
	others := comparedWith(col.Slot())

	switch prop.Shape() {
	case domain.ShapeValue:
		if res.Pseudo != resolve.PseudoNone {
			return nil, warn(WarnPseudoOnValue, "%s.%s is not a reference; .%s is ignored", res.Object.QualifiedName(), prop.Name, res.Pseudo)
		}
		f, err := prop.ValueField()
		if err != nil {
			return nil, warn(WarnMissingField, "%s: %v", res.Object.QualifiedName(), err)
		}
		return fieldRef(col, res, f.Name), nil

	case domain.ShapeSimpleReference:
		f, err := prop.ValueField()
		if err != nil {
			return nil, warn(WarnMissingField, "%s: %v", res.Object.QualifiedName(), err)
		}
		ref := fieldRef(col, res, f.Name)
		switch res.Pseudo {
		case resolve.PseudoType:
			if prop.ReferenceTypeCode == 0 {
				return nil, warn(WarnUnknownTypeCode, "%s.%s has no single referenced type", res.Object.QualifiedName(), prop.Name)
			}
			return tsql.NewBinaryLiteral(domain.TypeCodeLiteral(prop.ReferenceTypeCode)), nil
		case resolve.PseudoKind:
			return tsql.NewBinaryLiteral(domain.DiscriminatorLiteral), nil
		case resolve.PseudoNone:
			if anyOf(others, func(e tsql.Expr) bool { return isBareComposite(e, resolved) }) {
				if prop.ReferenceTypeCode == 0 {
					return nil, warn(WarnUnknownTypeCode, "%s.%s has no single referenced type to compare with a composite reference", res.Object.QualifiedName(), prop.Name)
				}
				return concat(ref, tsql.NewBinaryLiteral(domain.TypeCodeLiteral(prop.ReferenceTypeCode))), nil
			}
		}
		return ref, nil

	case domain.ShapeCompositeReference:
		switch res.Pseudo {
		case resolve.PseudoUUID:
			return field(domain.FieldObject)
		case resolve.PseudoType:
			return field(domain.FieldTypeCode)
		case resolve.PseudoKind:
			if _, ok := prop.Field(domain.FieldDiscriminator); !ok {
				return tsql.NewBinaryLiteral(domain.DiscriminatorLiteral), nil
			}
			return field(domain.FieldDiscriminator)
		}
		if len(others) > 0 && allOf(others, isTypeCodeLiteral) {
			return field(domain.FieldTypeCode)
		}
		if !scalarTolerant(col.Slot()) {
			return nil, warn(WarnCompositeScalar, "composite reference %s cannot be used as a single value here; use .uuid, .type or .TYPE", col.Name)
		}
		if q := inSubquery(col.Slot()); q != nil {
			if !selectsComposite(q, resolved) {
				return nil, warn(WarnCompositeScalar, "composite reference %s is compared with a subquery that does not select a composite reference; use .uuid or .type", col.Name)
			}
		} else if !allOf(others, func(e tsql.Expr) bool { return comparableWithComposite(e, resolved) }) {
			return nil, warn(WarnCompositeScalar, "composite reference %s is compared with values that are not references; use .uuid, .type or .TYPE", col.Name)
		}
		obj, w := field(domain.FieldObject)
		if w != nil {
			return nil, w
		}
		code, w := field(domain.FieldTypeCode)
		if w != nil {
			return nil, w
		}
		return concat(obj.(tsql.Expr), code.(tsql.Expr)), nil
	}
	return nil, warn(WarnNotRewritable, "unsupported property shape %s", prop.Shape())
}

// fieldRef builds the physical column reference. A qualified reference
// keeps its alias, or names the physical table when the table has none.
func fieldRef(col *scope.Column, res resolve.ColumnResolution, field string) *tsql.ColumnRef {
	if !res.Qualified {
		return tsql.NewColumnRef(field)
	}
	if res.Table.Alias != "" {
		alias := col.Ref.Parts[0]
		return &tsql.ColumnRef{Parts: []*tsql.Identifier{
			{Value: alias.Value, Quote: alias.Quote},
			tsql.NewIdentifier(field),
		}}
	}
	return tsql.NewColumnRef(res.Object.TableName, field)
}

// concat builds (left + right), the binary concatenation used to compare
// a reference as a whole.
func concat(left, right tsql.Expr) *tsql.ParenExpr {
	return &tsql.ParenExpr{Expr: &tsql.BinaryExpr{Left: left, Op: tsql.TOKEN_PLUS, Right: right}}
}

// comparedWith returns the operands the expression in slot is compared
// with: the other side of a comparison, the list of an IN whose left operand
// it is, or the left operand of the IN list it belongs to.
func comparedWith(slot tsql.Slot) []tsql.Expr {
	switch p := slot.Parent.(type) {
	case *tsql.BinaryExpr:
		if !p.IsComparison() {
			return nil
		}
		switch slot.Field {
		case "Left":
			return []tsql.Expr{unparen(p.Right)}
		case "Right":
			return []tsql.Expr{unparen(p.Left)}
		}
	case *tsql.InExpr:
		switch slot.Field {
		case "Expr":
			out := make([]tsql.Expr, 0, len(p.List))
			for _, e := range p.List {
				out = append(out, unparen(e))
			}
			return out
		case "List":
			return []tsql.Expr{unparen(p.Expr)}
		}
	}
	return nil
}

// inSubquery returns the subquery of the IN predicate whose left operand is
// slot, or nil.
func inSubquery(slot tsql.Slot) *tsql.SelectStmt {
	if in, ok := slot.Parent.(*tsql.InExpr); ok && slot.Field == "Expr" {
		return in.Query
	}
	return nil
}

// selectsComposite reports whether q selects exactly one column and that
// column is a bare composite reference.
func selectsComposite(q *tsql.SelectStmt, resolved map[*tsql.ColumnRef]resolve.ColumnResolution) bool {
	return len(q.Columns) == 1 && isBareComposite(unparen(q.Columns[0].Expr), resolved)
}

func unparen(e tsql.Expr) tsql.Expr {
	for {
		p, ok := e.(*tsql.ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

func anyOf(es []tsql.Expr, pred func(tsql.Expr) bool) bool {
	for _, e := range es {
		if pred(e) {
			return true
		}
	}
	return false
}

func allOf(es []tsql.Expr, pred func(tsql.Expr) bool) bool {
	for _, e := range es {
		if !pred(e) {
			return false
		}
	}
	return true
}

// comparableWithComposite reports whether e may be compared with the
// concatenated form of a composite reference. Literals and metadata
// properties of another shape cannot; expressions whose type is unknown here
// (variables, functions, plain columns) are trusted.
func comparableWithComposite(e tsql.Expr, resolved map[*tsql.ColumnRef]resolve.ColumnResolution) bool {
	switch v := e.(type) {
	case *tsql.Literal:
		switch v.Kind {
		case tsql.LiteralNull:
			return true
		case tsql.LiteralBinary:
			return len(v.Value) == referenceLiteralLen
		}
		return false
	case *tsql.ColumnRef:
		res, ok := resolved[v]
		if !ok {
			return true
		}
		if res.Pseudo != resolve.PseudoNone {
			return false
		}
		return res.Property.Shape() != domain.ShapeValue
	}
	return true
}

func isBareComposite(e tsql.Expr, resolved map[*tsql.ColumnRef]resolve.ColumnResolution) bool {
	ref, ok := e.(*tsql.ColumnRef)
	if !ok {
		return false
	}
	res, ok := resolved[ref]
	return ok && res.Pseudo == resolve.PseudoNone && res.Property.Shape() == domain.ShapeCompositeReference
}

func isTypeCodeLiteral(e tsql.Expr) bool {
	lit, ok := e.(*tsql.Literal)
	return ok && lit.Kind == tsql.LiteralBinary && len(lit.Value) == typeCodeLiteralLen
}

// scalarTolerant reports whether a composite reference may stand in slot as
// the concatenation of its object and type-code fields.
func scalarTolerant(slot tsql.Slot) bool {
	switch p := slot.Parent.(type) {
	case *tsql.SelectItem, *tsql.InExpr, *tsql.OrderItem:
		return true
	case *tsql.BinaryExpr:
		return p.IsComparison()
	case *tsql.SelectStmt:
		return slot.Field == "GroupBy"
	}
	return false
}
