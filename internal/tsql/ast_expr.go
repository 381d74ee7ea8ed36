package tsql

import "strings"

// === Expression Nodes ===

// ColumnRef represents a dotted column reference: [alias.]name[.pseudo].
type ColumnRef struct {
	base
	Parts []*Identifier
}

func (*ColumnRef) exprNode() {}

// Names returns the unquoted values of the reference parts.
func (c *ColumnRef) Names() []string {
	out := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		out[i] = p.Value
	}
	return out
}

// String returns the dotted reference with identifier values unquoted.
func (c *ColumnRef) String() string {
	return strings.Join(c.Names(), ".")
}

// NewColumnRef builds a column reference from name parts.
func NewColumnRef(parts ...string) *ColumnRef {
	ref := &ColumnRef{Parts: make([]*Identifier, len(parts))}
	for i, p := range parts {
		ref.Parts[i] = NewIdentifier(p)
	}
	return ref
}

// StarExpr represents * or qualifier.* in a select list or function call.
type StarExpr struct {
	base
	Qualifier []*Identifier
}

func (*StarExpr) exprNode() {}

// LiteralKind represents the type of a literal.
type LiteralKind int

// LiteralNumber and friends enumerate literal kinds.
const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralNString
	LiteralBinary
	LiteralNull
)

// Literal represents a literal value. Value holds the unescaped string for
// string literals and the source text for numbers and binaries.
type Literal struct {
	base
	Kind  LiteralKind
	Value string
}

func (*Literal) exprNode() {}

// NewBinaryLiteral builds a binary literal from its 0x-prefixed text.
func NewBinaryLiteral(text string) *Literal {
	return &Literal{Kind: LiteralBinary, Value: text}
}

// Variable represents a @variable reference.
type Variable struct {
	base
	Name string
}

func (*Variable) exprNode() {}

// UnaryExpr represents a unary expression (NOT x, -x, +x, ~x).
type UnaryExpr struct {
	base
	Op   TokenType
	Expr Expr
}

func (*UnaryExpr) exprNode() {}

// BinaryExpr represents a binary expression (left op right): arithmetic,
// comparison and AND/OR.
type BinaryExpr struct {
	base
	Left  Expr
	Op    TokenType
	Right Expr
}

func (*BinaryExpr) exprNode() {}

// IsComparison reports whether the operator is a comparison.
func (b *BinaryExpr) IsComparison() bool {
	switch b.Op {
	case TOKEN_EQ, TOKEN_NE, TOKEN_LT, TOKEN_GT, TOKEN_LE, TOKEN_GE:
		return true
	}
	return false
}

// ParenExpr represents a parenthesized expression.
type ParenExpr struct {
	base
	Expr Expr
}

func (*ParenExpr) exprNode() {}

// FuncCall represents a function call.
type FuncCall struct {
	base
	Name     string // function name as written, optionally schema-qualified
	Distinct bool
	Args     []Expr
}

func (*FuncCall) exprNode() {}

// CaseExpr represents CASE [operand] WHEN ... THEN ... [ELSE ...] END.
type CaseExpr struct {
	base
	Operand Expr
	Whens   []*WhenClause
	Else    Expr
}

func (*CaseExpr) exprNode() {}

// WhenClause represents a WHEN ... THEN ... clause.
type WhenClause struct {
	base
	Condition Expr
	Result    Expr
}

// CastExpr represents CAST(expr AS type).
type CastExpr struct {
	base
	Expr Expr
	Type *DataType
}

func (*CastExpr) exprNode() {}

// InExpr represents expr [NOT] IN (values) or expr [NOT] IN (subquery).
type InExpr struct {
	base
	Expr  Expr
	Not   bool
	List  []Expr
	Query *SelectStmt
}

func (*InExpr) exprNode() {}

// BetweenExpr represents expr [NOT] BETWEEN low AND high.
type BetweenExpr struct {
	base
	Expr Expr
	Not  bool
	Low  Expr
	High Expr
}

func (*BetweenExpr) exprNode() {}

// LikeExpr represents expr [NOT] LIKE pattern [ESCAPE escape].
type LikeExpr struct {
	base
	Expr    Expr
	Not     bool
	Pattern Expr
	Escape  Expr
}

func (*LikeExpr) exprNode() {}

// IsNullExpr represents expr IS [NOT] NULL.
type IsNullExpr struct {
	base
	Expr Expr
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// ExistsExpr represents EXISTS (subquery).
type ExistsExpr struct {
	base
	Query *SelectStmt
}

func (*ExistsExpr) exprNode() {}

// SubqueryExpr represents a scalar subquery.
type SubqueryExpr struct {
	base
	Query *SelectStmt
}

func (*SubqueryExpr) exprNode() {}
