// Package tsql provides a tolerant T-SQL lexer, parser, AST, and generator.
//
// The parser keeps every token of the input (including whitespace and
// comments) so that editor tooling can reason about incomplete scripts, and
// records rune offsets on every AST node so that callers can map a cursor
// position back to the fragment under it. Statements that fail to parse are
// reported as diagnostics and skipped; the rest of the script is still parsed.
package tsql

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
type TokenType int

// TOKEN_EOF and friends enumerate all token types produced by the lexer.
const (
	TOKEN_EOF     TokenType = iota // end of input
	TOKEN_ILLEGAL                  // unexpected character

	TOKEN_WHITESPACE // spaces, tabs, newlines
	TOKEN_COMMENT    // -- line or /* block */ comment

	TOKEN_IDENT        // identifier
	TOKEN_QUOTED_IDENT // [identifier] or "identifier"
	TOKEN_VARIABLE     // @name or @@name
	TOKEN_NUMBER       // 123, 45.67, 1e10
	TOKEN_STRING       // 'hello' or N'hello'
	TOKEN_BINARY       // 0x0000007B

	TOKEN_PLUS      // +
	TOKEN_MINUS     // -
	TOKEN_STAR      // *
	TOKEN_SLASH     // /
	TOKEN_MOD       // %
	TOKEN_AMP       // &
	TOKEN_PIPE      // |
	TOKEN_CARET     // ^
	TOKEN_TILDE     // ~
	TOKEN_EQ        // =
	TOKEN_NE        // != or <>
	TOKEN_LT        // <
	TOKEN_GT        // >
	TOKEN_LE        // <=
	TOKEN_GE        // >=
	TOKEN_DOT       // .
	TOKEN_COMMA     // ,
	TOKEN_SEMICOLON // ;
	TOKEN_LPAREN    // (
	TOKEN_RPAREN    // )

	// TOKEN_ALL and below are reserved keywords (alphabetical).
	TOKEN_ALL
	TOKEN_AND
	TOKEN_AS
	TOKEN_ASC
	TOKEN_BETWEEN
	TOKEN_BY
	TOKEN_CASE
	TOKEN_CAST
	TOKEN_CROSS
	TOKEN_DECLARE
	TOKEN_DELETE
	TOKEN_DESC
	TOKEN_DISTINCT
	TOKEN_ELSE
	TOKEN_END
	TOKEN_ESCAPE
	TOKEN_EXCEPT
	TOKEN_EXISTS
	TOKEN_FROM
	TOKEN_FULL
	TOKEN_GROUP
	TOKEN_HAVING
	TOKEN_IN
	TOKEN_INNER
	TOKEN_INSERT
	TOKEN_INTERSECT
	TOKEN_INTO
	TOKEN_IS
	TOKEN_JOIN
	TOKEN_LEFT
	TOKEN_LIKE
	TOKEN_NOT
	TOKEN_NULL
	TOKEN_ON
	TOKEN_OR
	TOKEN_ORDER
	TOKEN_OUTER
	TOKEN_PERCENT
	TOKEN_RIGHT
	TOKEN_SELECT
	TOKEN_SET
	TOKEN_THEN
	TOKEN_TOP
	TOKEN_UNION
	TOKEN_UPDATE
	TOKEN_VALUES
	TOKEN_WHEN
	TOKEN_WHERE
	TOKEN_WITH
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:          "EOF",
	TOKEN_ILLEGAL:      "ILLEGAL",
	TOKEN_WHITESPACE:   "WHITESPACE",
	TOKEN_COMMENT:      "COMMENT",
	TOKEN_IDENT:        "IDENT",
	TOKEN_QUOTED_IDENT: "QUOTED_IDENT",
	TOKEN_VARIABLE:     "VARIABLE",
	TOKEN_NUMBER:       "NUMBER",
	TOKEN_STRING:       "STRING",
	TOKEN_BINARY:       "BINARY",
	TOKEN_PLUS:         "+",
	TOKEN_MINUS:        "-",
	TOKEN_STAR:         "*",
	TOKEN_SLASH:        "/",
	TOKEN_MOD:          "%",
	TOKEN_AMP:          "&",
	TOKEN_PIPE:         "|",
	TOKEN_CARET:        "^",
	TOKEN_TILDE:        "~",
	TOKEN_EQ:           "=",
	TOKEN_NE:           "<>",
	TOKEN_LT:           "<",
	TOKEN_GT:           ">",
	TOKEN_LE:           "<=",
	TOKEN_GE:           ">=",
	TOKEN_DOT:          ".",
	TOKEN_COMMA:        ",",
	TOKEN_SEMICOLON:    ";",
	TOKEN_LPAREN:       "(",
	TOKEN_RPAREN:       ")",
}

// String returns the token type name. Keywords are rendered upper-case.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for kw, tt := range keywords {
		if tt == t {
			return strings.ToUpper(kw)
		}
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// IsKeyword reports whether the token type is a reserved keyword.
func (t TokenType) IsKeyword() bool {
	return t >= TOKEN_ALL
}

// IsTrivia reports whether the token carries no syntax (whitespace or comment).
func (t TokenType) IsTrivia() bool {
	return t == TOKEN_WHITESPACE || t == TOKEN_COMMENT
}

var keywords = map[string]TokenType{
	"all":       TOKEN_ALL,
	"and":       TOKEN_AND,
	"as":        TOKEN_AS,
	"asc":       TOKEN_ASC,
	"between":   TOKEN_BETWEEN,
	"by":        TOKEN_BY,
	"case":      TOKEN_CASE,
	"cast":      TOKEN_CAST,
	"cross":     TOKEN_CROSS,
	"declare":   TOKEN_DECLARE,
	"delete":    TOKEN_DELETE,
	"desc":      TOKEN_DESC,
	"distinct":  TOKEN_DISTINCT,
	"else":      TOKEN_ELSE,
	"end":       TOKEN_END,
	"escape":    TOKEN_ESCAPE,
	"except":    TOKEN_EXCEPT,
	"exists":    TOKEN_EXISTS,
	"from":      TOKEN_FROM,
	"full":      TOKEN_FULL,
	"group":     TOKEN_GROUP,
	"having":    TOKEN_HAVING,
	"in":        TOKEN_IN,
	"inner":     TOKEN_INNER,
	"insert":    TOKEN_INSERT,
	"intersect": TOKEN_INTERSECT,
	"into":      TOKEN_INTO,
	"is":        TOKEN_IS,
	"join":      TOKEN_JOIN,
	"left":      TOKEN_LEFT,
	"like":      TOKEN_LIKE,
	"not":       TOKEN_NOT,
	"null":      TOKEN_NULL,
	"on":        TOKEN_ON,
	"or":        TOKEN_OR,
	"order":     TOKEN_ORDER,
	"outer":     TOKEN_OUTER,
	"percent":   TOKEN_PERCENT,
	"right":     TOKEN_RIGHT,
	"select":    TOKEN_SELECT,
	"set":       TOKEN_SET,
	"then":      TOKEN_THEN,
	"top":       TOKEN_TOP,
	"union":     TOKEN_UNION,
	"update":    TOKEN_UPDATE,
	"values":    TOKEN_VALUES,
	"when":      TOKEN_WHEN,
	"where":     TOKEN_WHERE,
	"with":      TOKEN_WITH,
}

// lookupKeyword returns the token type for the given lowercase identifier.
// Returns TOKEN_IDENT if it's not a keyword.
func lookupKeyword(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return TOKEN_IDENT
}

// IsReservedWord reports whether s (in any case) is a reserved keyword.
func IsReservedWord(s string) bool {
	_, ok := keywords[strings.ToLower(s)]
	return ok
}

// Token represents a lexical token with its verbatim source text and position.
// Offset and Column count runes, not bytes; Line and Column are 1-based.
type Token struct {
	Type    TokenType
	Literal string
	Offset  int
	Line    int
	Column  int
}

// End returns the rune offset one past the last rune of the token.
func (t Token) End() int {
	return t.Offset + len([]rune(t.Literal))
}

// Contains reports whether the cursor sits inside or at the right edge of the
// token: start < cursor <= end.
func (t Token) Contains(cursor int) bool {
	return t.Offset < cursor && cursor <= t.End()
}

// Value returns the token's semantic value: unquoted identifiers, unescaped
// strings. Other tokens return their literal unchanged.
func (t Token) Value() string {
	switch t.Type {
	case TOKEN_QUOTED_IDENT:
		return unquoteIdent(t.Literal)
	case TOKEN_STRING:
		s := t.Literal
		if strings.HasPrefix(s, "N") || strings.HasPrefix(s, "n") {
			s = s[1:]
		}
		s = strings.TrimPrefix(s, "'")
		s = strings.TrimSuffix(s, "'")
		return strings.ReplaceAll(s, "''", "'")
	}
	return t.Literal
}

func unquoteIdent(s string) string {
	if len(s) < 2 {
		return s
	}
	switch s[0] {
	case '[':
		return strings.ReplaceAll(strings.TrimSuffix(s[1:], "]"), "]]", "]")
	case '"':
		return strings.ReplaceAll(strings.TrimSuffix(s[1:], `"`), `""`, `"`)
	}
	return s
}

// Precedence constants for operator precedence parsing (Pratt parser).
const (
	PrecedenceNone       = 0
	PrecedenceOr         = 1
	PrecedenceAnd        = 2
	PrecedenceNot        = 3
	PrecedenceComparison = 4 // =, <>, <, >, <=, >=, LIKE, IN, BETWEEN, IS
	PrecedenceBitwise    = 5 // &, |, ^
	PrecedenceAddition   = 6 // +, -
	PrecedenceMultiply   = 7 // *, /, %
	PrecedenceUnary      = 8 // -, +, ~ (prefix)
)
