package tsql

import (
	"strings"
)

// Generate formats a script or any AST node back to T-SQL text.
// The output is flat: keywords are upper-cased, identifiers keep the quoting
// style they were written with, and statements are separated by ";\n".
func Generate(n Node) string {
	f := &formatter{}
	f.formatNode(n)
	return strings.TrimSpace(f.buf.String())
}

// formatter is a simple SQL string builder. No indentation or pretty-printing.
type formatter struct {
	buf strings.Builder
}

func (f *formatter) write(s string) {
	f.buf.WriteString(s)
}

func (f *formatter) space() {
	f.buf.WriteByte(' ')
}

// commaSep writes items separated by ", ".
func (f *formatter) commaSep(n int, fn func(i int)) {
	for i := 0; i < n; i++ {
		if i > 0 {
			f.write(", ")
		}
		fn(i)
	}
}

func (f *formatter) formatNode(n Node) {
	switch n := n.(type) {
	case *Script:
		for i, stmt := range n.Statements {
			if i > 0 {
				f.write(";\n")
			}
			f.formatNode(stmt)
		}
	case Stmt:
		f.formatStmt(n)
	case TableRef:
		f.formatTableRef(n)
	case Expr:
		f.formatExpr(n)
	case *SchemaObjectName:
		f.formatObjectName(n)
	case *Identifier:
		f.formatIdent(n)
	case *SelectItem:
		f.formatSelectItem(n)
	case *FromClause:
		f.formatFrom(n)
	case *WhereClause:
		f.write("WHERE ")
		f.formatExpr(n.Condition)
	case *OrderItem:
		f.formatOrderItem(n)
	case *TopClause:
		f.formatTop(n)
	case *SetClause:
		f.formatSetClause(n)
	case *ValuesRow:
		f.formatValuesRow(n)
	case *VariableDecl:
		f.formatVariableDecl(n)
	case *DataType:
		f.formatDataType(n)
	case *WhenClause:
		f.formatWhen(n)
	case *WithClause:
		f.formatWith(n)
	case *CommonTableExpr:
		f.formatCTE(n)
	}
}

// QuoteIdent renders an identifier value with the given delimiter style.
// Embedded closing delimiters are escaped by doubling.
func QuoteIdent(value string, quote QuoteStyle) string {
	switch quote {
	case QuoteBracket:
		return "[" + strings.ReplaceAll(value, "]", "]]") + "]"
	case QuoteDouble:
		return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
	}
	return value
}

func (f *formatter) formatIdent(id *Identifier) {
	if id == nil {
		return
	}
	f.write(QuoteIdent(id.Value, id.Quote))
}

func (f *formatter) formatIdentPath(ids []*Identifier) {
	for i, id := range ids {
		if i > 0 {
			f.write(".")
		}
		f.formatIdent(id)
	}
}

func (f *formatter) formatObjectName(name *SchemaObjectName) {
	f.formatIdentPath(name.Parts)
}
