package tsql

import (
	"fmt"
	"strings"
)

// Expression parsing using Pratt parser (precedence climbing).

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	start := p.token.Offset
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := p.getInfixPrecedence()
		if prec < minPrecedence || prec == PrecedenceNone {
			break
		}
		left = p.parseInfixExpr(left, prec, start)
		if left == nil {
			return nil
		}
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() Expr {
	start := p.token.Offset
	switch p.token.Type {
	case TOKEN_NOT:
		p.nextToken()
		return p.finishUnary(TOKEN_NOT, p.parseExpressionWithPrecedence(PrecedenceNot), start)
	case TOKEN_MINUS, TOKEN_PLUS, TOKEN_TILDE:
		op := p.token.Type
		p.nextToken()
		return p.finishUnary(op, p.parseExpressionWithPrecedence(PrecedenceUnary), start)
	case TOKEN_EXISTS:
		p.nextToken()
		if !p.expect(TOKEN_LPAREN) {
			return nil
		}
		query := p.parseSelectStatement()
		if query == nil || !p.expect(TOKEN_RPAREN) {
			return nil
		}
		e := &ExistsExpr{Query: query}
		e.Pos = p.spanFrom(start)
		return e
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) finishUnary(op TokenType, operand Expr, start int) Expr {
	if operand == nil {
		return nil
	}
	u := &UnaryExpr{Op: op, Expr: operand}
	u.Pos = p.spanFrom(start)
	return u
}

// getInfixPrecedence returns the precedence of the current token as an infix operator.
func (p *Parser) getInfixPrecedence() int {
	switch p.token.Type {
	case TOKEN_OR:
		return PrecedenceOr
	case TOKEN_AND:
		return PrecedenceAnd
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		return PrecedenceComparison
	case TOKEN_IS, TOKEN_IN, TOKEN_BETWEEN, TOKEN_LIKE:
		return PrecedenceComparison
	case TOKEN_NOT:
		switch p.peek.Type {
		case TOKEN_IN, TOKEN_BETWEEN, TOKEN_LIKE:
			return PrecedenceComparison
		}
		return PrecedenceNone
	case TOKEN_AMP, TOKEN_PIPE, TOKEN_CARET:
		return PrecedenceBitwise
	case TOKEN_PLUS, TOKEN_MINUS:
		return PrecedenceAddition
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_MOD:
		return PrecedenceMultiply
	default:
		return PrecedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand.
func (p *Parser) parseInfixExpr(left Expr, prec int, start int) Expr {
	not := false
	if p.check(TOKEN_NOT) {
		not = true
		p.nextToken()
	}

	switch p.token.Type {
	case TOKEN_IS:
		p.nextToken()
		e := &IsNullExpr{Expr: left, Not: p.match(TOKEN_NOT)}
		if !p.expect(TOKEN_NULL) {
			return nil
		}
		e.Pos = p.spanFrom(start)
		return e

	case TOKEN_IN:
		p.nextToken()
		return p.parseInExpr(left, not, start)

	case TOKEN_BETWEEN:
		p.nextToken()
		low := p.parseExpressionWithPrecedence(PrecedenceBitwise)
		if low == nil || !p.expect(TOKEN_AND) {
			return nil
		}
		high := p.parseExpressionWithPrecedence(PrecedenceBitwise)
		if high == nil {
			return nil
		}
		e := &BetweenExpr{Expr: left, Not: not, Low: low, High: high}
		e.Pos = p.spanFrom(start)
		return e

	case TOKEN_LIKE:
		p.nextToken()
		pattern := p.parseExpressionWithPrecedence(PrecedenceBitwise)
		if pattern == nil {
			return nil
		}
		e := &LikeExpr{Expr: left, Not: not, Pattern: pattern}
		if p.match(TOKEN_ESCAPE) {
			if e.Escape = p.parsePrimary(); e.Escape == nil {
				return nil
			}
		}
		e.Pos = p.spanFrom(start)
		return e

	default:
		op := p.token.Type
		p.nextToken()
		right := p.parseExpressionWithPrecedence(prec + 1)
		if right == nil {
			return nil
		}
		e := &BinaryExpr{Left: left, Op: op, Right: right}
		e.Pos = p.spanFrom(start)
		return e
	}
}

// parseInExpr parses the list or subquery after IN.
func (p *Parser) parseInExpr(left Expr, not bool, start int) Expr {
	if !p.expect(TOKEN_LPAREN) {
		return nil
	}
	e := &InExpr{Expr: left, Not: not}
	if p.check(TOKEN_SELECT) {
		if e.Query = p.parseSelectStatement(); e.Query == nil {
			return nil
		}
	} else {
		for {
			item := p.parseExpression()
			if item == nil {
				return nil
			}
			e.List = append(e.List, item)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}
	if !p.expect(TOKEN_RPAREN) {
		return nil
	}
	e.Pos = p.spanFrom(start)
	return e
}

// parsePrimary parses literals, references, function calls, CASE, CAST and
// parenthesized expressions.
func (p *Parser) parsePrimary() Expr {
	start := p.token.Offset
	tok := p.token

	switch tok.Type {
	case TOKEN_NUMBER:
		p.nextToken()
		return p.literal(LiteralNumber, tok.Literal, start)
	case TOKEN_STRING:
		p.nextToken()
		kind := LiteralString
		if tok.Literal[0] == 'N' || tok.Literal[0] == 'n' {
			kind = LiteralNString
		}
		return p.literal(kind, tok.Value(), start)
	case TOKEN_BINARY:
		p.nextToken()
		return p.literal(LiteralBinary, tok.Literal, start)
	case TOKEN_NULL:
		p.nextToken()
		return p.literal(LiteralNull, "NULL", start)
	case TOKEN_VARIABLE:
		p.nextToken()
		v := &Variable{Name: tok.Literal}
		v.Pos = p.spanFrom(start)
		return v
	case TOKEN_STAR:
		p.nextToken()
		s := &StarExpr{}
		s.Pos = p.spanFrom(start)
		return s
	case TOKEN_LPAREN:
		return p.parseParenExpr()
	case TOKEN_CASE:
		return p.parseCaseExpr()
	case TOKEN_CAST:
		return p.parseCastExpr()
	case TOKEN_LEFT, TOKEN_RIGHT:
		if p.checkPeek(TOKEN_LPAREN) {
			name := strings.ToUpper(tok.Literal)
			p.nextToken()
			return p.parseFuncCall(name, start)
		}
	case TOKEN_IDENT, TOKEN_QUOTED_IDENT:
		return p.parseIdentifierExpr()
	}

	p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s in expression", p.describe(tok)))
	return nil
}

func (p *Parser) literal(kind LiteralKind, value string, start int) *Literal {
	l := &Literal{Kind: kind, Value: value}
	l.Pos = p.spanFrom(start)
	return l
}

// parseIdentifierExpr parses a dotted reference, qualified star, or function call.
func (p *Parser) parseIdentifierExpr() Expr {
	start := p.token.Offset
	var parts []*Identifier
	for {
		id := p.parseIdentifier()
		if id == nil {
			return nil
		}
		parts = append(parts, id)
		if !p.check(TOKEN_DOT) {
			break
		}
		p.nextToken()
		if p.check(TOKEN_STAR) {
			p.nextToken()
			s := &StarExpr{Qualifier: parts}
			s.Pos = p.spanFrom(start)
			return s
		}
	}

	if p.check(TOKEN_LPAREN) {
		names := make([]string, len(parts))
		for i, id := range parts {
			names[i] = id.Value
		}
		return p.parseFuncCall(strings.Join(names, "."), start)
	}

	ref := &ColumnRef{Parts: parts}
	ref.Pos = p.spanFrom(start)
	return ref
}

// parseFuncCall parses (args) after a function name.
func (p *Parser) parseFuncCall(name string, start int) Expr {
	p.nextToken() // skip (
	fn := &FuncCall{Name: name}
	if !p.check(TOKEN_RPAREN) {
		fn.Distinct = p.match(TOKEN_DISTINCT)
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			fn.Args = append(fn.Args, arg)
			if !p.match(TOKEN_COMMA) {
				break
			}
		}
	}
	if !p.expect(TOKEN_RPAREN) {
		return nil
	}
	fn.Pos = p.spanFrom(start)
	return fn
}

// parseParenExpr parses (expr) or a scalar subquery (SELECT ...).
func (p *Parser) parseParenExpr() Expr {
	start := p.token.Offset
	p.nextToken() // skip (
	if p.check(TOKEN_SELECT) {
		query := p.parseSelectStatement()
		if query == nil || !p.expect(TOKEN_RPAREN) {
			return nil
		}
		e := &SubqueryExpr{Query: query}
		e.Pos = p.spanFrom(start)
		return e
	}
	inner := p.parseExpression()
	if inner == nil || !p.expect(TOKEN_RPAREN) {
		return nil
	}
	e := &ParenExpr{Expr: inner}
	e.Pos = p.spanFrom(start)
	return e
}

// parseCaseExpr parses CASE [operand] WHEN ... THEN ... [ELSE ...] END.
func (p *Parser) parseCaseExpr() Expr {
	start := p.token.Offset
	p.nextToken() // skip CASE
	c := &CaseExpr{}
	if !p.check(TOKEN_WHEN) {
		if c.Operand = p.parseExpression(); c.Operand == nil {
			return nil
		}
	}
	for p.check(TOKEN_WHEN) {
		wstart := p.token.Offset
		p.nextToken()
		cond := p.parseExpression()
		if cond == nil || !p.expect(TOKEN_THEN) {
			return nil
		}
		result := p.parseExpression()
		if result == nil {
			return nil
		}
		w := &WhenClause{Condition: cond, Result: result}
		w.Pos = p.spanFrom(wstart)
		c.Whens = append(c.Whens, w)
	}
	if len(c.Whens) == 0 {
		p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s, expected WHEN", p.describe(p.token)))
		return nil
	}
	if p.match(TOKEN_ELSE) {
		if c.Else = p.parseExpression(); c.Else == nil {
			return nil
		}
	}
	if !p.expect(TOKEN_END) {
		return nil
	}
	c.Pos = p.spanFrom(start)
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	start := p.token.Offset
	p.nextToken() // skip CAST
	if !p.expect(TOKEN_LPAREN) {
		return nil
	}
	inner := p.parseExpression()
	if inner == nil || !p.expect(TOKEN_AS) {
		return nil
	}
	dt := p.parseDataType()
	if dt == nil || !p.expect(TOKEN_RPAREN) {
		return nil
	}
	c := &CastExpr{Expr: inner, Type: dt}
	c.Pos = p.spanFrom(start)
	return c
}
