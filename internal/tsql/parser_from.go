package tsql

import (
	"fmt"
	"strings"
)

// === FROM Clause Parsing ===

// parseFromClause parses FROM source [, source ...].
func (p *Parser) parseFromClause() *FromClause {
	start := p.token.Offset
	p.nextToken() // skip FROM

	from := &FromClause{}
	for {
		ref := p.parseTableSource()
		if ref == nil {
			return nil
		}
		from.Tables = append(from.Tables, ref)
		if !p.match(TOKEN_COMMA) {
			break
		}
	}
	from.Pos = p.spanFrom(start)
	return from
}

// parseTableSource parses a table primary followed by any number of joins.
// Joins nest to the left: a JOIN b JOIN c is ((a JOIN b) JOIN c).
func (p *Parser) parseTableSource() TableRef {
	start := p.token.Offset
	left := p.parseTablePrimary()
	if left == nil {
		return nil
	}
	for p.isJoinStart() {
		join := p.parseJoin(left)
		if join == nil {
			return nil
		}
		join.Pos = p.spanFrom(start)
		left = join
	}
	return left
}

// parseTablePrimary parses a named table, a derived table or a
// parenthesized table source.
func (p *Parser) parseTablePrimary() TableRef {
	if p.check(TOKEN_LPAREN) && p.checkPeek(TOKEN_SELECT) {
		if dt := p.parseDerivedTable(); dt != nil {
			return dt
		}
		return nil
	}
	if p.check(TOKEN_LPAREN) {
		if pt := p.parseParenTable(); pt != nil {
			return pt
		}
		return nil
	}
	if t := p.parseNamedTable(true); t != nil {
		return t
	}
	return nil
}

// parseParenTable parses ( table_source ).
func (p *Parser) parseParenTable() *ParenTable {
	start := p.token.Offset
	p.nextToken() // skip (
	src := p.parseTableSource()
	if src == nil {
		return nil
	}
	if !p.expect(TOKEN_RPAREN) {
		return nil
	}
	t := &ParenTable{Source: src}
	t.Pos = p.spanFrom(start)
	return t
}

// parseDerivedTable parses (SELECT ...) [AS] alias.
func (p *Parser) parseDerivedTable() *DerivedTable {
	start := p.token.Offset
	p.nextToken() // skip (
	query := p.parseSelectStatement()
	if query == nil {
		return nil
	}
	if !p.expect(TOKEN_RPAREN) {
		return nil
	}
	dt := &DerivedTable{Query: query}
	if p.match(TOKEN_AS) {
		dt.As = true
		if dt.Alias = p.parseIdentifier(); dt.Alias == nil {
			return nil
		}
	} else if p.atAlias() {
		dt.Alias = p.parseIdentifier()
	}
	dt.Pos = p.spanFrom(start)
	return dt
}

// parseNamedTable parses name [[AS] alias] [WITH (hints)].
func (p *Parser) parseNamedTable(allowAlias bool) *NamedTable {
	start := p.token.Offset
	name := p.parseSchemaObjectName()
	if name == nil {
		return nil
	}
	t := &NamedTable{Name: name}
	if allowAlias {
		if p.match(TOKEN_AS) {
			t.As = true
			if t.Alias = p.parseIdentifier(); t.Alias == nil {
				return nil
			}
		} else if p.atAlias() {
			t.Alias = p.parseIdentifier()
		}
		if p.check(TOKEN_WITH) && p.checkPeek(TOKEN_LPAREN) {
			p.nextToken()
			p.nextToken()
			for {
				if !p.check(TOKEN_IDENT) {
					p.unexpected()
					return nil
				}
				t.Hints = append(t.Hints, strings.ToUpper(p.token.Literal))
				p.nextToken()
				if !p.match(TOKEN_COMMA) {
					break
				}
			}
			if !p.expect(TOKEN_RPAREN) {
				return nil
			}
		}
	}
	t.Pos = p.spanFrom(start)
	return t
}

// parseSchemaObjectName parses a dotted name of up to four parts.
// Consecutive dots leave an empty part: db..table.
func (p *Parser) parseSchemaObjectName() *SchemaObjectName {
	start := p.token.Offset
	first := p.parseIdentifier()
	if first == nil {
		return nil
	}
	name := &SchemaObjectName{Parts: []*Identifier{first}}
	for p.check(TOKEN_DOT) {
		p.nextToken()
		if p.check(TOKEN_DOT) {
			name.Parts = append(name.Parts, nil)
			continue
		}
		id := p.parseIdentifier()
		if id == nil {
			return nil
		}
		name.Parts = append(name.Parts, id)
	}
	if len(name.Parts) > 4 {
		p.addError(DiagUnexpectedToken, fmt.Sprintf("object name %q has more than four parts", name.String()))
		return nil
	}
	name.Pos = p.spanFrom(start)
	return name
}

// parseJoin parses a join clause with left as its left side.
func (p *Parser) parseJoin(left TableRef) *Join {
	join := &Join{Left: left}
	var words []string

	switch p.token.Type {
	case TOKEN_CROSS:
		p.nextToken()
		if p.matchSoftKeyword("APPLY") {
			return p.parseApply(join, JoinCrossApply)
		}
		join.Kind = JoinCross
		words = append(words, "CROSS")
	case TOKEN_OUTER:
		p.nextToken()
		if !p.matchSoftKeyword("APPLY") {
			p.unexpected()
			return nil
		}
		return p.parseApply(join, JoinOuterApply)
	case TOKEN_INNER:
		join.Kind = JoinInner
		words = append(words, "INNER")
		p.nextToken()
	case TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL:
		join.Kind = JoinKind(strings.ToUpper(p.token.Literal))
		words = append(words, string(join.Kind))
		p.nextToken()
		if p.match(TOKEN_OUTER) {
			words = append(words, "OUTER")
		}
	default:
		join.Kind = JoinInner
	}
	if !p.expect(TOKEN_JOIN) {
		return nil
	}
	join.Keyword = strings.Join(append(words, "JOIN"), " ")

	if join.Right = p.parseTablePrimary(); join.Right == nil {
		return nil
	}
	if join.Kind == JoinCross {
		return join
	}
	if !p.expect(TOKEN_ON) {
		return nil
	}
	if join.On = p.parseExpression(); join.On == nil {
		return nil
	}
	return join
}

// parseApply parses the right side of CROSS APPLY or OUTER APPLY.
func (p *Parser) parseApply(join *Join, kind JoinKind) *Join {
	join.Kind = kind
	join.Keyword = string(kind)
	if join.Right = p.parseTablePrimary(); join.Right == nil {
		return nil
	}
	return join
}
