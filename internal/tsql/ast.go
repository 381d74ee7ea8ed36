package tsql

// Span is a half-open range of rune offsets [Start, End) in the source text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether a cursor sits inside or at the right edge of the
// span: Start < cursor <= End.
func (s Span) Contains(cursor int) bool {
	return s.Start < cursor && cursor <= s.End
}

// Node is the base interface for all AST nodes.
type Node interface {
	Span() Span
	node()
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// TableRef is a marker interface for table reference nodes.
type TableRef interface {
	Node
	tableRefNode()
}

// base carries the source position of a node. Nodes synthesized by rewriting
// have a zero position.
type base struct {
	Pos Span
}

func (b *base) Span() Span { return b.Pos }
func (*base) node()        {}

// Script is the root of a parsed input: its statements and the complete token
// stream, trivia included.
type Script struct {
	base
	Statements []Stmt
	Tokens     []Token
}

// Severity grades a diagnostic.
type Severity int

// SeverityError and SeverityWarning enumerate severities. Syntax errors are
// errors; resolution problems found after parsing are warnings.
const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic describes a problem at a position in the source text.
type Diagnostic struct {
	Code     int
	Severity Severity
	Offset   int
	Line     int
	Column   int
	Message  string
}

// Position returns the 1-based line and column of a rune offset.
func (s *Script) Position(offset int) (line, column int) {
	line, column = 1, 1
	for _, t := range s.Tokens {
		if t.Type == TOKEN_EOF || t.End() <= offset {
			if t.Type != TOKEN_EOF {
				line, column = advance(t.Line, t.Column, t.Literal)
			}
			continue
		}
		line, column = t.Line, t.Column
		for _, r := range []rune(t.Literal)[:max(offset-t.Offset, 0)] {
			if r == '\n' {
				line++
				column = 1
			} else {
				column++
			}
		}
		return line, column
	}
	return line, column
}

// Warning builds a warning diagnostic positioned at offset.
func (s *Script) Warning(code, offset int, msg string) Diagnostic {
	line, col := s.Position(offset)
	return Diagnostic{Code: code, Severity: SeverityWarning, Offset: offset, Line: line, Column: col, Message: msg}
}

func advance(line, column int, text string) (int, int) {
	for _, r := range text {
		if r == '\n' {
			line++
			column = 1
		} else {
			column++
		}
	}
	return line, column
}

// Diagnostic codes produced by the parser.
const (
	DiagUnexpectedToken = 1001
	DiagUnexpectedEOF   = 1002
	DiagIllegalChar     = 1003
)
