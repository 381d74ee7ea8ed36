package tsql

import "strings"

func (f *formatter) formatExpr(expr Expr) {
	switch e := expr.(type) {
	case nil:
		return
	case *ColumnRef:
		f.formatIdentPath(e.Parts)
	case *StarExpr:
		if len(e.Qualifier) > 0 {
			f.formatIdentPath(e.Qualifier)
			f.write(".")
		}
		f.write("*")
	case *Literal:
		f.formatLiteral(e)
	case *Variable:
		f.write(e.Name)
	case *UnaryExpr:
		if e.Op == TOKEN_NOT {
			f.write("NOT ")
		} else {
			f.write(e.Op.String())
		}
		f.formatExpr(e.Expr)
	case *BinaryExpr:
		f.formatExpr(e.Left)
		f.space()
		f.write(e.Op.String())
		f.space()
		f.formatExpr(e.Right)
	case *ParenExpr:
		f.write("(")
		f.formatExpr(e.Expr)
		f.write(")")
	case *FuncCall:
		f.formatFuncCall(e)
	case *CaseExpr:
		f.formatCase(e)
	case *CastExpr:
		f.write("CAST(")
		f.formatExpr(e.Expr)
		f.write(" AS ")
		f.formatDataType(e.Type)
		f.write(")")
	case *InExpr:
		f.formatExpr(e.Expr)
		f.writeNot(e.Not)
		f.write(" IN (")
		if e.Query != nil {
			f.formatSelect(e.Query)
		} else {
			f.commaSep(len(e.List), func(i int) {
				f.formatExpr(e.List[i])
			})
		}
		f.write(")")
	case *BetweenExpr:
		f.formatExpr(e.Expr)
		f.writeNot(e.Not)
		f.write(" BETWEEN ")
		f.formatExpr(e.Low)
		f.write(" AND ")
		f.formatExpr(e.High)
	case *LikeExpr:
		f.formatExpr(e.Expr)
		f.writeNot(e.Not)
		f.write(" LIKE ")
		f.formatExpr(e.Pattern)
		if e.Escape != nil {
			f.write(" ESCAPE ")
			f.formatExpr(e.Escape)
		}
	case *IsNullExpr:
		f.formatExpr(e.Expr)
		if e.Not {
			f.write(" IS NOT NULL")
		} else {
			f.write(" IS NULL")
		}
	case *ExistsExpr:
		f.write("EXISTS (")
		f.formatSelect(e.Query)
		f.write(")")
	case *SubqueryExpr:
		f.write("(")
		f.formatSelect(e.Query)
		f.write(")")
	}
}

func (f *formatter) writeNot(not bool) {
	if not {
		f.write(" NOT")
	}
}

func (f *formatter) formatLiteral(l *Literal) {
	switch l.Kind {
	case LiteralString:
		f.write("'" + strings.ReplaceAll(l.Value, "'", "''") + "'")
	case LiteralNString:
		f.write("N'" + strings.ReplaceAll(l.Value, "'", "''") + "'")
	case LiteralNull:
		f.write("NULL")
	default:
		f.write(l.Value)
	}
}

func (f *formatter) formatFuncCall(fn *FuncCall) {
	f.write(fn.Name)
	f.write("(")
	if fn.Distinct {
		f.write("DISTINCT ")
	}
	f.commaSep(len(fn.Args), func(i int) {
		f.formatExpr(fn.Args[i])
	})
	f.write(")")
}

func (f *formatter) formatCase(c *CaseExpr) {
	f.write("CASE")
	if c.Operand != nil {
		f.space()
		f.formatExpr(c.Operand)
	}
	for _, w := range c.Whens {
		f.space()
		f.formatWhen(w)
	}
	if c.Else != nil {
		f.write(" ELSE ")
		f.formatExpr(c.Else)
	}
	f.write(" END")
}

func (f *formatter) formatWhen(w *WhenClause) {
	f.write("WHEN ")
	f.formatExpr(w.Condition)
	f.write(" THEN ")
	f.formatExpr(w.Result)
}
