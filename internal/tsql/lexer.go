package tsql

import (
	"strings"
	"unicode"
)

// Lexer tokenizes T-SQL input. Unlike a parser-only lexer it emits whitespace
// and comments as tokens so that the full stream reproduces the input.
type Lexer struct {
	input   []rune
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      rune // current char under examination
	line    int
	col     int
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: []rune(input), line: 1}
	l.readChar()
	return l
}

// readChar advances to the next character, tracking line and column.
func (l *Lexer) readChar() {
	if l.pos < len(l.input) && l.readPos > 0 {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 0
		}
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// Tokenize returns every token of text, trivia included, terminated by EOF.
func Tokenize(text string) []Token {
	l := NewLexer(text)
	var out []Token
	for {
		tok := l.NextToken()
		out = append(out, tok)
		if tok.Type == TOKEN_EOF {
			return out
		}
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	start, line, col := l.pos, l.line, l.col
	typ := l.scan()
	end := l.pos
	if end > len(l.input) {
		end = len(l.input)
	}
	return Token{
		Type:    typ,
		Literal: string(l.input[start:end]),
		Offset:  start,
		Line:    line,
		Column:  col,
	}
}

func (l *Lexer) scan() TokenType {
	if l.atEOF() {
		return TOKEN_EOF
	}

	switch {
	case isSpace(l.ch):
		for isSpace(l.ch) && !l.atEOF() {
			l.readChar()
		}
		return TOKEN_WHITESPACE
	case l.ch == '-' && l.peekChar() == '-':
		for l.ch != '\n' && !l.atEOF() {
			l.readChar()
		}
		return TOKEN_COMMENT
	case l.ch == '/' && l.peekChar() == '*':
		l.readChar() // skip /
		l.readChar() // skip *
		for !l.atEOF() {
			if l.ch == '*' && l.peekChar() == '/' {
				l.readChar() // skip *
				l.readChar() // skip /
				break
			}
			l.readChar()
		}
		return TOKEN_COMMENT
	}

	var typ TokenType
	switch l.ch {
	case '+':
		typ = TOKEN_PLUS
	case '-':
		typ = TOKEN_MINUS
	case '*':
		typ = TOKEN_STAR
	case '/':
		typ = TOKEN_SLASH
	case '%':
		typ = TOKEN_MOD
	case '&':
		typ = TOKEN_AMP
	case '|':
		typ = TOKEN_PIPE
	case '^':
		typ = TOKEN_CARET
	case '~':
		typ = TOKEN_TILDE
	case '=':
		typ = TOKEN_EQ
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			typ = TOKEN_LE
		case '>':
			l.readChar()
			typ = TOKEN_NE
		default:
			typ = TOKEN_LT
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			typ = TOKEN_GE
		} else {
			typ = TOKEN_GT
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			typ = TOKEN_NE
		} else {
			typ = TOKEN_ILLEGAL
		}
	case '.':
		if isDigit(l.peekChar()) {
			l.readNumber()
			return TOKEN_NUMBER
		}
		typ = TOKEN_DOT
	case ',':
		typ = TOKEN_COMMA
	case ';':
		typ = TOKEN_SEMICOLON
	case '(':
		typ = TOKEN_LPAREN
	case ')':
		typ = TOKEN_RPAREN
	case '\'':
		l.readString()
		return TOKEN_STRING
	case '[':
		l.readDelimited(']')
		return TOKEN_QUOTED_IDENT
	case '"':
		l.readDelimited('"')
		return TOKEN_QUOTED_IDENT
	case '@':
		l.readChar()
		if l.ch == '@' {
			l.readChar()
		}
		for isIdentPart(l.ch) {
			l.readChar()
		}
		return TOKEN_VARIABLE
	default:
		switch {
		case (l.ch == 'N' || l.ch == 'n') && l.peekChar() == '\'':
			l.readChar() // skip N
			l.readString()
			return TOKEN_STRING
		case l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X'):
			l.readChar() // skip 0
			l.readChar() // skip x
			for isHexDigit(l.ch) {
				l.readChar()
			}
			return TOKEN_BINARY
		case isIdentStart(l.ch):
			start := l.pos
			for isIdentPart(l.ch) {
				l.readChar()
			}
			return lookupKeyword(strings.ToLower(string(l.input[start:l.pos])))
		case isDigit(l.ch):
			l.readNumber()
			return TOKEN_NUMBER
		default:
			typ = TOKEN_ILLEGAL
		}
	}

	l.readChar()
	return typ
}

// readString consumes a single-quoted string literal.
// Handles '' escape for embedded quotes. An unterminated string runs to EOF.
func (l *Lexer) readString() {
	l.readChar() // skip opening quote
	for !l.atEOF() {
		if l.ch == '\'' {
			if l.peekChar() == '\'' {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return
		}
		l.readChar()
	}
}

// readDelimited consumes a [bracketed] or "quoted" identifier.
// A doubled closing delimiter is an escape.
func (l *Lexer) readDelimited(closing rune) {
	l.readChar() // skip opening delimiter
	for !l.atEOF() {
		if l.ch == closing {
			if l.peekChar() == closing {
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing delimiter
			return
		}
		l.readChar()
	}
}

// readNumber consumes a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar() // skip .
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f' || ch == '\v' || ch == 0xA0
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_' || ch == '#'
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' || ch == '#' || ch == '$' || ch == '@'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}
