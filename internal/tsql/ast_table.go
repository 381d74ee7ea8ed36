package tsql

import "strings"

// === Table Reference Nodes ===

// QuoteStyle records how an identifier was delimited in the source.
type QuoteStyle int

// QuoteNone and friends enumerate identifier delimiters.
const (
	QuoteNone    QuoteStyle = iota
	QuoteBracket            // [name]
	QuoteDouble             // "name"
)

// Identifier is a single name part.
type Identifier struct {
	base
	Value string
	Quote QuoteStyle
}

// NewIdentifier builds an identifier, bracket-quoting it when the value is
// not a valid regular identifier.
func NewIdentifier(value string) *Identifier {
	id := &Identifier{Value: value}
	if NeedsQuoting(value) {
		id.Quote = QuoteBracket
	}
	return id
}

// NeedsQuoting reports whether value must be delimited to be read back as a
// single identifier.
func NeedsQuoting(value string) bool {
	if value == "" || IsReservedWord(value) {
		return true
	}
	for i, r := range value {
		if i == 0 && !isIdentStart(r) {
			return true
		}
		if !isIdentPart(r) {
			return true
		}
	}
	return false
}

// SchemaObjectName is a dotted object name of up to four parts:
// [server.][database.][schema.]base. Empty parts (db..table) are nil.
type SchemaObjectName struct {
	base
	Parts []*Identifier
}

// part returns the identifier at position n counted from the right (0 = base).
func (s *SchemaObjectName) part(n int) *Identifier {
	i := len(s.Parts) - 1 - n
	if i < 0 || i >= len(s.Parts) {
		return nil
	}
	return s.Parts[i]
}

func identValue(id *Identifier) string {
	if id == nil {
		return ""
	}
	return id.Value
}

// Base returns the object name part.
func (s *SchemaObjectName) Base() string { return identValue(s.part(0)) }

// Schema returns the schema part or "".
func (s *SchemaObjectName) Schema() string { return identValue(s.part(1)) }

// Database returns the database part or "".
func (s *SchemaObjectName) Database() string { return identValue(s.part(2)) }

// Server returns the server part or "".
func (s *SchemaObjectName) Server() string { return identValue(s.part(3)) }

// String returns the dotted name with identifier values unquoted.
func (s *SchemaObjectName) String() string {
	vals := make([]string, len(s.Parts))
	for i, p := range s.Parts {
		vals[i] = identValue(p)
	}
	return strings.Join(vals, ".")
}

// NewSchemaObjectName builds a name from values; "" becomes an empty part.
func NewSchemaObjectName(values ...string) *SchemaObjectName {
	name := &SchemaObjectName{Parts: make([]*Identifier, len(values))}
	for i, v := range values {
		if v != "" {
			name.Parts[i] = NewIdentifier(v)
		}
	}
	return name
}

// NamedTable represents a table reference by name with an optional alias.
type NamedTable struct {
	base
	Name  *SchemaObjectName
	Alias *Identifier
	As    bool
	Hints []string // WITH (NOLOCK, ...)
}

func (*NamedTable) tableRefNode() {}

// DerivedTable represents a subquery in a FROM clause.
type DerivedTable struct {
	base
	Query *SelectStmt
	Alias *Identifier
	As    bool
}

func (*DerivedTable) tableRefNode() {}

// JoinKind represents the type of a join.
type JoinKind string

// JoinInner and friends enumerate join kinds.
const (
	JoinInner JoinKind = "INNER"
	JoinLeft  JoinKind = "LEFT"
	JoinRight JoinKind = "RIGHT"
	JoinFull  JoinKind = "FULL"
	JoinCross JoinKind = "CROSS"

	JoinCrossApply JoinKind = "CROSS APPLY"
	JoinOuterApply JoinKind = "OUTER APPLY"
)

// IsApply reports whether the kind is CROSS APPLY or OUTER APPLY.
func (k JoinKind) IsApply() bool {
	return k == JoinCrossApply || k == JoinOuterApply
}

// ParenTable is a parenthesized table source: (a JOIN b ON ...).
type ParenTable struct {
	base
	Source TableRef
}

func (*ParenTable) tableRefNode() {}

// Join represents two table sources joined by a qualified (ON) or cross
// join, or by APPLY.
type Join struct {
	base
	Kind    JoinKind
	Keyword string // join keywords as written, e.g. "LEFT OUTER JOIN"
	Left    TableRef
	Right   TableRef
	On      Expr
}

func (*Join) tableRefNode() {}
