package tsql

import (
	"fmt"
)

// Parser parses T-SQL scripts into an AST. It works on the significant
// tokens of the input; trivia is kept only on the resulting Script.
type Parser struct {
	tokens  []Token // significant tokens, EOF-terminated
	idx     int     // index of the current token
	token   Token   // current token
	peek    Token   // lookahead token
	peek2   Token   // second lookahead token
	prevEnd int     // end offset of the last consumed token
	diags   []Diagnostic
}

// NewParser creates a new parser for the given token stream.
func NewParser(tokens []Token) *Parser {
	sig := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if !t.Type.IsTrivia() {
			sig = append(sig, t)
		}
	}
	if len(sig) == 0 || sig[len(sig)-1].Type != TOKEN_EOF {
		sig = append(sig, Token{Type: TOKEN_EOF})
	}
	p := &Parser{tokens: sig, idx: -1}
	p.nextToken()
	return p
}

// Parse parses a script. Statements with syntax errors are reported as
// diagnostics and left out of the returned script; the token stream is always
// complete.
func Parse(text string) (*Script, []Diagnostic) {
	tokens := Tokenize(text)
	p := NewParser(tokens)
	script := p.parseScript()
	script.Tokens = tokens
	script.Pos = Span{Start: 0, End: len([]rune(text))}
	return script, p.diags
}

// ParseExpr parses a standalone expression.
func ParseExpr(text string) (Expr, error) {
	p := NewParser(Tokenize(text))
	expr := p.parseExpression()
	if len(p.diags) > 0 {
		return nil, fmt.Errorf("parse error: %s", p.diags[0].Message)
	}
	if !p.check(TOKEN_EOF) {
		return nil, fmt.Errorf("unexpected token after expression: %s", p.token.Literal)
	}
	return expr, nil
}

func (p *Parser) parseScript() *Script {
	script := &Script{}
	for !p.check(TOKEN_EOF) {
		if p.match(TOKEN_SEMICOLON) {
			continue
		}
		mark, startIdx := len(p.diags), p.idx
		stmt := p.parseStatement()
		if len(p.diags) == mark && !p.atStatementBoundary() {
			p.unexpected()
		}
		if len(p.diags) > mark || stmt == nil {
			if p.idx == startIdx {
				p.nextToken()
			}
			p.synchronize()
			continue
		}
		script.Statements = append(script.Statements, stmt)
	}
	return script
}

// parseStatement dispatches to the appropriate statement parser based on the first token.
func (p *Parser) parseStatement() Stmt {
	switch p.token.Type {
	case TOKEN_SELECT:
		if s := p.parseSelectStatement(); s != nil {
			return s
		}
	case TOKEN_INSERT:
		if s := p.parseInsertStatement(); s != nil {
			return s
		}
	case TOKEN_UPDATE:
		if s := p.parseUpdateStatement(); s != nil {
			return s
		}
	case TOKEN_DELETE:
		if s := p.parseDeleteStatement(); s != nil {
			return s
		}
	case TOKEN_DECLARE:
		if s := p.parseDeclareStatement(); s != nil {
			return s
		}
	case TOKEN_WITH:
		return p.parseWithStatement()
	case TOKEN_IDENT:
		switch {
		case equalFoldASCII(p.token.Literal, "IF"):
			if s := p.parseIfStatement(); s != nil {
				return s
			}
			return nil
		case equalFoldASCII(p.token.Literal, "BEGIN"):
			if s := p.parseBlock(); s != nil {
				return s
			}
			return nil
		}
		p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected token at start of statement: %s", p.describe(p.token)))
	default:
		p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected token at start of statement: %s", p.describe(p.token)))
	}
	return nil
}

// synchronize skips tokens up to the next statement boundary.
func (p *Parser) synchronize() {
	for !p.check(TOKEN_EOF) && !p.check(TOKEN_SEMICOLON) && !p.isStatementStart(p.token) {
		p.nextToken()
	}
}

func (p *Parser) atStatementBoundary() bool {
	return p.check(TOKEN_EOF) || p.check(TOKEN_SEMICOLON) || p.isStatementStart(p.token)
}

func (p *Parser) isStatementStart(tok Token) bool {
	switch tok.Type {
	case TOKEN_SELECT, TOKEN_INSERT, TOKEN_UPDATE, TOKEN_DELETE, TOKEN_DECLARE:
		return true
	case TOKEN_IDENT:
		return isStatementWord(tok.Literal)
	}
	return false
}

// isStatementWord reports whether an identifier opens a control-flow
// statement. Such words are never read as aliases.
func isStatementWord(s string) bool {
	return equalFoldASCII(s, "IF") || equalFoldASCII(s, "BEGIN")
}

// atAlias reports whether the current token can be an alias written
// without AS.
func (p *Parser) atAlias() bool {
	return p.check(TOKEN_QUOTED_IDENT) || p.check(TOKEN_IDENT) && !isStatementWord(p.token.Literal)
}

// === Token Helpers ===

func (p *Parser) at(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	if p.idx >= 0 && p.token.Type != TOKEN_EOF {
		p.prevEnd = p.token.End()
	}
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	p.token = p.at(p.idx)
	p.peek = p.at(p.idx + 1)
	p.peek2 = p.at(p.idx + 2)
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// matchSoftKeyword consumes the current token if it's an identifier matching
// the given soft keyword (case-insensitive).
func (p *Parser) matchSoftKeyword(keyword string) bool {
	if p.check(TOKEN_IDENT) && equalFoldASCII(p.token.Literal, keyword) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s, expected %s", p.describe(p.token), t))
	return false
}

// unexpected records an error for the current token.
func (p *Parser) unexpected() {
	p.addError(DiagUnexpectedToken, fmt.Sprintf("unexpected %s", p.describe(p.token)))
}

// addError records a diagnostic at the current token.
func (p *Parser) addError(code int, msg string) {
	switch p.token.Type {
	case TOKEN_EOF:
		code = DiagUnexpectedEOF
	case TOKEN_ILLEGAL:
		code = DiagIllegalChar
	}
	p.diags = append(p.diags, Diagnostic{
		Code:    code,
		Offset:  p.token.Offset,
		Line:    p.token.Line,
		Column:  p.token.Column,
		Message: msg,
	})
}

func (p *Parser) describe(tok Token) string {
	if tok.Type == TOKEN_EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", tok.Literal)
}

// spanFrom returns the span from start to the end of the last consumed token.
func (p *Parser) spanFrom(start int) Span {
	return Span{Start: start, End: p.prevEnd}
}

// === Keyword Classification ===

// isJoinStart returns true if the current token starts a join clause.
func (p *Parser) isJoinStart() bool {
	switch p.token.Type {
	case TOKEN_JOIN, TOKEN_INNER, TOKEN_CROSS:
		return true
	case TOKEN_OUTER:
		return p.peek.Type == TOKEN_IDENT && equalFoldASCII(p.peek.Literal, "APPLY")
	case TOKEN_LEFT, TOKEN_RIGHT, TOKEN_FULL:
		return p.checkPeek(TOKEN_JOIN) || p.checkPeek(TOKEN_OUTER)
	}
	return false
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
