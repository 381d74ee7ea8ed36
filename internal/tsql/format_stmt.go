package tsql

import "strings"

func (f *formatter) formatStmt(stmt Stmt) {
	switch s := stmt.(type) {
	case *SelectStmt:
		f.formatSelect(s)
	case *InsertStmt:
		f.formatInsert(s)
	case *UpdateStmt:
		f.formatUpdate(s)
	case *DeleteStmt:
		f.formatDelete(s)
	case *DeclareStmt:
		f.formatDeclare(s)
	case *IfStmt:
		f.formatIf(s)
	case *BlockStmt:
		f.formatBlock(s)
	}
}

func (f *formatter) formatWith(w *WithClause) {
	if w == nil {
		return
	}
	f.write("WITH ")
	f.commaSep(len(w.CTEs), func(i int) {
		f.formatCTE(w.CTEs[i])
	})
	f.space()
}

func (f *formatter) formatCTE(cte *CommonTableExpr) {
	f.formatIdent(cte.Name)
	if len(cte.Columns) > 0 {
		f.write(" (")
		f.commaSep(len(cte.Columns), func(i int) {
			f.formatIdent(cte.Columns[i])
		})
		f.write(")")
	}
	f.write(" AS (")
	f.formatSelect(cte.Query)
	f.write(")")
}

func (f *formatter) formatSelect(s *SelectStmt) {
	f.formatWith(s.With)
	for q := s; q != nil; q = q.Next {
		f.formatQuerySpec(q)
		if q.Next != nil {
			f.space()
			f.write(string(q.SetOp))
			f.space()
		}
	}
	if len(s.OrderBy) > 0 {
		f.write(" ORDER BY ")
		f.commaSep(len(s.OrderBy), func(i int) {
			f.formatOrderItem(s.OrderBy[i])
		})
	}
	if s.Offset != nil {
		f.write(" OFFSET ")
		f.formatExpr(s.Offset)
		f.write(" ROWS")
	}
	if s.Fetch != nil {
		f.write(" FETCH NEXT ")
		f.formatExpr(s.Fetch)
		f.write(" ROWS ONLY")
	}
}

func (f *formatter) formatQuerySpec(s *SelectStmt) {
	f.write("SELECT ")
	if s.Distinct {
		f.write("DISTINCT ")
	}
	if s.Top != nil {
		f.formatTop(s.Top)
		f.space()
	}
	f.commaSep(len(s.Columns), func(i int) {
		f.formatSelectItem(s.Columns[i])
	})
	if s.Into != nil {
		f.write(" INTO ")
		f.formatObjectName(s.Into)
	}
	if s.From != nil {
		f.space()
		f.formatFrom(s.From)
	}
	if s.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(s.Where.Condition)
	}
	if len(s.GroupBy) > 0 {
		f.write(" GROUP BY ")
		f.commaSep(len(s.GroupBy), func(i int) {
			f.formatExpr(s.GroupBy[i])
		})
	}
	if s.Having != nil {
		f.write(" HAVING ")
		f.formatExpr(s.Having)
	}
}

func (f *formatter) formatTop(t *TopClause) {
	f.write("TOP ")
	if t.Parens {
		f.write("(")
		f.formatExpr(t.Count)
		f.write(")")
	} else {
		f.formatExpr(t.Count)
	}
	if t.Percent {
		f.write(" PERCENT")
	}
	if t.WithTies {
		f.write(" WITH TIES")
	}
}

func (f *formatter) formatSelectItem(item *SelectItem) {
	f.formatExpr(item.Expr)
	if item.Alias != nil {
		if item.As {
			f.write(" AS")
		}
		f.space()
		f.formatIdent(item.Alias)
	}
}

func (f *formatter) formatOrderItem(item *OrderItem) {
	f.formatExpr(item.Expr)
	if item.Direction != "" {
		f.space()
		f.write(item.Direction)
	}
}

func (f *formatter) formatFrom(from *FromClause) {
	f.write("FROM ")
	f.commaSep(len(from.Tables), func(i int) {
		f.formatTableRef(from.Tables[i])
	})
}

func (f *formatter) formatTableRef(ref TableRef) {
	switch t := ref.(type) {
	case *NamedTable:
		f.formatNamedTable(t)
	case *DerivedTable:
		f.write("(")
		f.formatSelect(t.Query)
		f.write(")")
		f.formatAlias(t.Alias, t.As)
	case *ParenTable:
		f.write("(")
		f.formatTableRef(t.Source)
		f.write(")")
	case *Join:
		f.formatTableRef(t.Left)
		f.space()
		keyword := t.Keyword
		if keyword == "" {
			keyword = string(t.Kind) + " JOIN"
		}
		f.write(keyword)
		f.space()
		f.formatTableRef(t.Right)
		if t.On != nil {
			f.write(" ON ")
			f.formatExpr(t.On)
		}
	}
}

func (f *formatter) formatNamedTable(t *NamedTable) {
	f.formatObjectName(t.Name)
	f.formatAlias(t.Alias, t.As)
	if len(t.Hints) > 0 {
		f.write(" WITH (")
		f.write(strings.Join(t.Hints, ", "))
		f.write(")")
	}
}

func (f *formatter) formatAlias(alias *Identifier, as bool) {
	if alias == nil {
		return
	}
	if as {
		f.write(" AS")
	}
	f.space()
	f.formatIdent(alias)
}

func (f *formatter) formatInsert(s *InsertStmt) {
	f.formatWith(s.With)
	f.write("INSERT INTO ")
	f.formatNamedTable(s.Target)
	if len(s.Columns) > 0 {
		f.write(" (")
		f.commaSep(len(s.Columns), func(i int) {
			f.formatExpr(s.Columns[i])
		})
		f.write(")")
	}
	if s.Select != nil {
		f.space()
		f.formatSelect(s.Select)
		return
	}
	f.write(" VALUES ")
	f.commaSep(len(s.Rows), func(i int) {
		f.formatValuesRow(s.Rows[i])
	})
}

func (f *formatter) formatValuesRow(row *ValuesRow) {
	f.write("(")
	f.commaSep(len(row.Values), func(i int) {
		f.formatExpr(row.Values[i])
	})
	f.write(")")
}

func (f *formatter) formatUpdate(s *UpdateStmt) {
	f.formatWith(s.With)
	f.write("UPDATE ")
	if s.Top != nil {
		f.formatTop(s.Top)
		f.space()
	}
	f.formatNamedTable(s.Target)
	f.write(" SET ")
	f.commaSep(len(s.Set), func(i int) {
		f.formatSetClause(s.Set[i])
	})
	if s.From != nil {
		f.space()
		f.formatFrom(s.From)
	}
	if s.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(s.Where.Condition)
	}
}

func (f *formatter) formatSetClause(set *SetClause) {
	f.formatExpr(set.Column)
	f.write(" = ")
	f.formatExpr(set.Value)
}

func (f *formatter) formatDelete(s *DeleteStmt) {
	f.formatWith(s.With)
	f.write("DELETE ")
	if s.Top != nil {
		f.formatTop(s.Top)
		f.space()
	}
	f.write("FROM ")
	f.formatNamedTable(s.Target)
	if s.From != nil {
		f.space()
		f.formatFrom(s.From)
	}
	if s.Where != nil {
		f.write(" WHERE ")
		f.formatExpr(s.Where.Condition)
	}
}

func (f *formatter) formatDeclare(s *DeclareStmt) {
	f.write("DECLARE ")
	f.commaSep(len(s.Variables), func(i int) {
		f.formatVariableDecl(s.Variables[i])
	})
}

func (f *formatter) formatVariableDecl(v *VariableDecl) {
	f.write(v.Name)
	f.space()
	f.formatDataType(v.Type)
	if v.Value != nil {
		f.write(" = ")
		f.formatExpr(v.Value)
	}
}

func (f *formatter) formatDataType(dt *DataType) {
	f.write(dt.Name)
	if len(dt.Args) > 0 {
		f.write("(")
		f.write(strings.Join(dt.Args, ", "))
		f.write(")")
	}
}

func (f *formatter) formatIf(s *IfStmt) {
	f.write("IF ")
	f.formatExpr(s.Condition)
	f.space()
	f.formatStmt(s.Then)
	if s.Else != nil {
		f.write(" ELSE ")
		f.formatStmt(s.Else)
	}
}

func (f *formatter) formatBlock(s *BlockStmt) {
	f.write("BEGIN\n")
	for _, stmt := range s.Statements {
		f.formatStmt(stmt)
		f.write(";\n")
	}
	f.write("END")
}
