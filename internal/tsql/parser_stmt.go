package tsql

import "fmt"

// parseSelectStatement parses a query specification followed by optional set
// operations and ORDER BY.
func (p *Parser) parseSelectStatement() *SelectStmt {
	start := p.token.Offset
	head := p.parseQuerySpec()
	if head == nil {
		return nil
	}

	cur := head
	for {
		var op SetOpType
		switch {
		case p.check(TOKEN_UNION) && p.checkPeek(TOKEN_ALL):
			p.nextToken()
			p.nextToken()
			op = SetOpUnionAll
		case p.match(TOKEN_UNION):
			op = SetOpUnion
		case p.match(TOKEN_EXCEPT):
			op = SetOpExcept
		case p.match(TOKEN_INTERSECT):
			op = SetOpIntersect
		}
		if op == SetOpNone {
			break
		}
		next := p.parseQuerySpec()
		if next == nil {
			return nil
		}
		cur.SetOp = op
		cur.Next = next
		cur = next
	}

	if p.check(TOKEN_ORDER) {
		head.OrderBy = p.parseOrderBy()
		if head.OrderBy == nil {
			return nil
		}
		if p.check(TOKEN_IDENT) && equalFoldASCII(p.token.Literal, "OFFSET") && !p.parseOffsetFetch(head) {
			return nil
		}
	}

	head.Pos = p.spanFrom(start)
	return head
}

// parseQuerySpec parses SELECT ... [FROM] [WHERE] [GROUP BY] [HAVING].
func (p *Parser) parseQuerySpec() *SelectStmt {
	start := p.token.Offset
	if !p.expect(TOKEN_SELECT) {
		return nil
	}

	s := &SelectStmt{}
	if p.match(TOKEN_DISTINCT) {
		s.Distinct = true
	} else {
		p.match(TOKEN_ALL)
	}

	if p.check(TOKEN_TOP) {
		if s.Top = p.parseTop(); s.Top == nil {
			return nil
		}
	}

	for {
		item := p.parseSelectItem()
		if item == nil {
			return nil
		}
		s.Columns = append(s.Columns, item)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}

	if p.match(TOKEN_INTO) {
		if s.Into = p.parseSchemaObjectName(); s.Into == nil {
			return nil
		}
	}

	if p.check(TOKEN_FROM) {
		if s.From = p.parseFromClause(); s.From == nil {
			return nil
		}
	}

	if p.check(TOKEN_WHERE) {
		if s.Where = p.parseWhereClause(); s.Where == nil {
			return nil
		}
	}

	if p.check(TOKEN_GROUP) {
		p.nextToken()
		if !p.expect(TOKEN_BY) {
			return nil
		}
		for {
			e := p.parseExpression()
			if e == nil {
				return nil
			}
			s.GroupBy = append(s.GroupBy, e)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}

	if p.match(TOKEN_HAVING) {
		if s.Having = p.parseExpression(); s.Having == nil {
			return nil
		}
	}

	s.Pos = p.spanFrom(start)
	return s
}

// parseOffsetFetch parses OFFSET n {ROW|ROWS} [FETCH {FIRST|NEXT} n {ROW|ROWS} ONLY].
func (p *Parser) parseOffsetFetch(s *SelectStmt) bool {
	p.nextToken() // skip OFFSET
	if s.Offset = p.parseExpression(); s.Offset == nil {
		return false
	}
	if !p.matchRows() {
		return false
	}
	if !p.matchSoftKeyword("FETCH") {
		return true
	}
	if !p.matchSoftKeyword("NEXT") && !p.matchSoftKeyword("FIRST") {
		p.unexpected()
		return false
	}
	if s.Fetch = p.parseExpression(); s.Fetch == nil {
		return false
	}
	if !p.matchRows() {
		return false
	}
	if !p.matchSoftKeyword("ONLY") {
		p.unexpected()
		return false
	}
	return true
}

func (p *Parser) matchRows() bool {
	if p.matchSoftKeyword("ROWS") || p.matchSoftKeyword("ROW") {
		return true
	}
	p.unexpected()
	return false
}

// parseTop parses TOP n | TOP (expr) [PERCENT] [WITH TIES].
func (p *Parser) parseTop() *TopClause {
	start := p.token.Offset
	p.nextToken() // skip TOP
	top := &TopClause{}
	if p.match(TOKEN_LPAREN) {
		top.Parens = true
		if top.Count = p.parseExpression(); top.Count == nil {
			return nil
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
	} else {
		if !p.check(TOKEN_NUMBER) && !p.check(TOKEN_VARIABLE) {
			p.unexpected()
			return nil
		}
		if top.Count = p.parsePrimary(); top.Count == nil {
			return nil
		}
	}
	top.Percent = p.match(TOKEN_PERCENT)
	if p.check(TOKEN_WITH) && p.peek.Type == TOKEN_IDENT && equalFoldASCII(p.peek.Literal, "TIES") {
		p.nextToken()
		p.nextToken()
		top.WithTies = true
	}
	top.Pos = p.spanFrom(start)
	return top
}

// parseSelectItem parses expr [[AS] alias].
func (p *Parser) parseSelectItem() *SelectItem {
	start := p.token.Offset
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}
	item := &SelectItem{Expr: expr}
	if p.match(TOKEN_AS) {
		item.As = true
		if item.Alias = p.parseAlias(); item.Alias == nil {
			return nil
		}
	} else if p.atAlias() {
		item.Alias = p.parseIdentifier()
	}
	item.Pos = p.spanFrom(start)
	return item
}

// parseAlias parses an alias after AS: an identifier or a string literal.
func (p *Parser) parseAlias() *Identifier {
	if p.check(TOKEN_STRING) {
		id := &Identifier{Value: p.token.Value(), Quote: QuoteBracket}
		id.Pos = Span{Start: p.token.Offset, End: p.token.End()}
		p.nextToken()
		return id
	}
	return p.parseIdentifier()
}

// parseIdentifier parses a regular or delimited identifier.
func (p *Parser) parseIdentifier() *Identifier {
	tok := p.token
	id := &Identifier{Value: tok.Value()}
	switch tok.Type {
	case TOKEN_IDENT:
	case TOKEN_QUOTED_IDENT:
		id.Quote = QuoteBracket
		if tok.Literal[0] == '"' {
			id.Quote = QuoteDouble
		}
	default:
		p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s, expected identifier", p.describe(tok)))
		return nil
	}
	p.nextToken()
	id.Pos = p.spanFrom(tok.Offset)
	return id
}

func (p *Parser) parseWhereClause() *WhereClause {
	start := p.token.Offset
	p.nextToken() // skip WHERE
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	w := &WhereClause{Condition: cond}
	w.Pos = p.spanFrom(start)
	return w
}

// parseOrderBy parses ORDER BY item [ASC|DESC], ...
func (p *Parser) parseOrderBy() []*OrderItem {
	p.nextToken() // skip ORDER
	if !p.expect(TOKEN_BY) {
		return nil
	}
	var items []*OrderItem
	for {
		start := p.token.Offset
		e := p.parseExpression()
		if e == nil {
			return nil
		}
		item := &OrderItem{Expr: e}
		switch {
		case p.match(TOKEN_ASC):
			item.Direction = "ASC"
		case p.match(TOKEN_DESC):
			item.Direction = "DESC"
		}
		item.Pos = p.spanFrom(start)
		items = append(items, item)
		if !p.match(TOKEN_COMMA) {
			return items
		}
	}
}

// parseInsertStatement parses INSERT [INTO] target [(columns)] VALUES (...) | SELECT ...
func (p *Parser) parseInsertStatement() *InsertStmt {
	start := p.token.Offset
	p.nextToken() // skip INSERT
	p.match(TOKEN_INTO)

	s := &InsertStmt{}
	if s.Target = p.parseNamedTable(false); s.Target == nil {
		return nil
	}

	if p.check(TOKEN_LPAREN) && !p.checkPeek(TOKEN_SELECT) {
		p.nextToken()
		for {
			cstart := p.token.Offset
			id := p.parseIdentifier()
			if id == nil {
				return nil
			}
			ref := &ColumnRef{Parts: []*Identifier{id}}
			ref.Pos = p.spanFrom(cstart)
			s.Columns = append(s.Columns, ref)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
	}

	switch {
	case p.match(TOKEN_VALUES):
		for {
			rstart := p.token.Offset
			if !p.expect(TOKEN_LPAREN) {
				return nil
			}
			row := &ValuesRow{}
			for {
				e := p.parseExpression()
				if e == nil {
					return nil
				}
				row.Values = append(row.Values, e)
				if !p.match(TOKEN_COMMA) {
					break
				}
			}
			if !p.expect(TOKEN_RPAREN) {
				return nil
			}
			row.Pos = p.spanFrom(rstart)
			s.Rows = append(s.Rows, row)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	case p.check(TOKEN_SELECT):
		if s.Select = p.parseSelectStatement(); s.Select == nil {
			return nil
		}
	default:
		p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s, expected VALUES or SELECT", p.describe(p.token)))
		return nil
	}

	s.Pos = p.spanFrom(start)
	return s
}

// parseUpdateStatement parses UPDATE [TOP (n)] target SET c = e, ... [FROM ...] [WHERE ...].
func (p *Parser) parseUpdateStatement() *UpdateStmt {
	start := p.token.Offset
	p.nextToken() // skip UPDATE

	s := &UpdateStmt{}
	if p.check(TOKEN_TOP) {
		if s.Top = p.parseTop(); s.Top == nil {
			return nil
		}
	}
	if s.Target = p.parseNamedTable(true); s.Target == nil {
		return nil
	}
	if !p.expect(TOKEN_SET) {
		return nil
	}
	for {
		cstart := p.token.Offset
		col, ok := p.parsePrimary().(*ColumnRef)
		if !ok {
			p.addError(DiagUnexpectedToken, "SET target must be a column")
			return nil
		}
		if !p.expect(TOKEN_EQ) {
			return nil
		}
		val := p.parseExpression()
		if val == nil {
			return nil
		}
		set := &SetClause{Column: col, Value: val}
		set.Pos = p.spanFrom(cstart)
		s.Set = append(s.Set, set)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	if p.check(TOKEN_FROM) {
		if s.From = p.parseFromClause(); s.From == nil {
			return nil
		}
	}
	if p.check(TOKEN_WHERE) {
		if s.Where = p.parseWhereClause(); s.Where == nil {
			return nil
		}
	}
	s.Pos = p.spanFrom(start)
	return s
}

// parseDeleteStatement parses DELETE [TOP (n)] [FROM] target [FROM ...] [WHERE ...].
func (p *Parser) parseDeleteStatement() *DeleteStmt {
	start := p.token.Offset
	p.nextToken() // skip DELETE

	s := &DeleteStmt{}
	if p.check(TOKEN_TOP) {
		if s.Top = p.parseTop(); s.Top == nil {
			return nil
		}
	}
	p.match(TOKEN_FROM)
	if s.Target = p.parseNamedTable(true); s.Target == nil {
		return nil
	}
	if p.check(TOKEN_FROM) {
		if s.From = p.parseFromClause(); s.From == nil {
			return nil
		}
	}
	if p.check(TOKEN_WHERE) {
		if s.Where = p.parseWhereClause(); s.Where == nil {
			return nil
		}
	}
	s.Pos = p.spanFrom(start)
	return s
}

// parseDeclareStatement parses DECLARE @a [AS] type [= value], ...
func (p *Parser) parseDeclareStatement() *DeclareStmt {
	start := p.token.Offset
	p.nextToken() // skip DECLARE

	s := &DeclareStmt{}
	for {
		vstart := p.token.Offset
		if !p.check(TOKEN_VARIABLE) {
			p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s, expected variable", p.describe(p.token)))
			return nil
		}
		decl := &VariableDecl{Name: p.token.Literal}
		p.nextToken()
		p.match(TOKEN_AS)
		if decl.Type = p.parseDataType(); decl.Type == nil {
			return nil
		}
		if p.match(TOKEN_EQ) {
			if decl.Value = p.parseExpression(); decl.Value == nil {
				return nil
			}
		}
		decl.Pos = p.spanFrom(vstart)
		s.Variables = append(s.Variables, decl)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	s.Pos = p.spanFrom(start)
	return s
}

// parseDataType parses name [(arg, ...)] where args are numbers or MAX.
func (p *Parser) parseDataType() *DataType {
	start := p.token.Offset
	id := p.parseIdentifier()
	if id == nil {
		return nil
	}
	dt := &DataType{Name: id.Value}
	if p.match(TOKEN_LPAREN) {
		for {
			if !p.check(TOKEN_NUMBER) && !p.check(TOKEN_IDENT) {
				p.unexpected()
				return nil
			}
			dt.Args = append(dt.Args, p.token.Literal)
			p.nextToken()
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
	}
	dt.Pos = p.spanFrom(start)
	return dt
}

// parseWithStatement parses WITH cte [, ...] and the statement that follows.
func (p *Parser) parseWithStatement() Stmt {
	start := p.token.Offset
	with := p.parseWithClause()
	if with == nil {
		return nil
	}
	switch p.token.Type {
	case TOKEN_SELECT:
		if s := p.parseSelectStatement(); s != nil {
			s.With, s.Pos.Start = with, start
			return s
		}
	case TOKEN_INSERT:
		if s := p.parseInsertStatement(); s != nil {
			s.With, s.Pos.Start = with, start
			return s
		}
	case TOKEN_UPDATE:
		if s := p.parseUpdateStatement(); s != nil {
			s.With, s.Pos.Start = with, start
			return s
		}
	case TOKEN_DELETE:
		if s := p.parseDeleteStatement(); s != nil {
			s.With, s.Pos.Start = with, start
			return s
		}
	default:
		p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s, expected SELECT, INSERT, UPDATE or DELETE", p.describe(p.token)))
	}
	return nil
}

// parseWithClause parses WITH name [(columns)] AS (query), ...
func (p *Parser) parseWithClause() *WithClause {
	start := p.token.Offset
	p.nextToken() // skip WITH
	w := &WithClause{}
	for {
		cstart := p.token.Offset
		name := p.parseIdentifier()
		if name == nil {
			return nil
		}
		cte := &CommonTableExpr{Name: name}
		if p.match(TOKEN_LPAREN) {
			for {
				id := p.parseIdentifier()
				if id == nil {
					return nil
				}
				cte.Columns = append(cte.Columns, id)
				if !p.match(TOKEN_COMMA) {
					break
				}
			}
			if !p.expect(TOKEN_RPAREN) {
				return nil
			}
		}
		if !p.expect(TOKEN_AS) || !p.expect(TOKEN_LPAREN) {
			return nil
		}
		if cte.Query = p.parseSelectStatement(); cte.Query == nil {
			return nil
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
		cte.Pos = p.spanFrom(cstart)
		w.CTEs = append(w.CTEs, cte)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	w.Pos = p.spanFrom(start)
	return w
}

// parseIfStatement parses IF condition statement [ELSE statement].
func (p *Parser) parseIfStatement() *IfStmt {
	start := p.token.Offset
	p.nextToken() // skip IF
	s := &IfStmt{}
	if s.Condition = p.parseExpression(); s.Condition == nil {
		return nil
	}
	if s.Then = p.parseStatement(); s.Then == nil {
		return nil
	}
	if p.match(TOKEN_ELSE) {
		if s.Else = p.parseStatement(); s.Else == nil {
			return nil
		}
	}
	s.Pos = p.spanFrom(start)
	return s
}

// parseBlock parses BEGIN statement ... END.
func (p *Parser) parseBlock() *BlockStmt {
	start := p.token.Offset
	p.nextToken() // skip BEGIN
	b := &BlockStmt{}
	for !p.check(TOKEN_END) {
		if p.check(TOKEN_EOF) {
			p.addError(DiagUnexpectedEOF, "BEGIN without END")
			return nil
		}
		if p.match(TOKEN_SEMICOLON) {
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		if !p.check(TOKEN_END) && !p.atStatementBoundary() {
			p.unexpected()
			return nil
		}
		b.Statements = append(b.Statements, stmt)
	}
	p.nextToken() // skip END
	b.Pos = p.spanFrom(start)
	return b
}
