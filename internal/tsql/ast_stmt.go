package tsql

// === Statement Nodes ===

// SelectStmt represents one SELECT query specification. Set operations chain
// through Next; ORDER BY belongs to the head of the chain.
type SelectStmt struct {
	base
	With     *WithClause
	Distinct bool
	Top      *TopClause
	Columns  []*SelectItem
	Into     *SchemaObjectName // SELECT ... INTO target
	From     *FromClause
	Where    *WhereClause
	GroupBy  []Expr
	Having   Expr
	SetOp    SetOpType   // operator joining this query to Next
	Next     *SelectStmt // right side of a set operation
	OrderBy  []*OrderItem
	Offset   Expr // OFFSET n ROWS, head of the chain only
	Fetch    Expr // FETCH NEXT n ROWS ONLY
}

func (*SelectStmt) stmtNode() {}

// WithClause is the list of common table expressions preceding a statement.
type WithClause struct {
	base
	CTEs []*CommonTableExpr
}

// CommonTableExpr is one name [(columns)] AS (query) definition.
type CommonTableExpr struct {
	base
	Name    *Identifier
	Columns []*Identifier
	Query   *SelectStmt
}

// SetOpType represents the type of set operation.
type SetOpType string

// SetOpNone and friends classify set operations (UNION, INTERSECT, EXCEPT).
const (
	SetOpNone      SetOpType = ""
	SetOpUnion     SetOpType = "UNION"
	SetOpUnionAll  SetOpType = "UNION ALL"
	SetOpIntersect SetOpType = "INTERSECT"
	SetOpExcept    SetOpType = "EXCEPT"
)

// TopClause represents TOP (n) [PERCENT] [WITH TIES].
type TopClause struct {
	base
	Count    Expr
	Parens   bool
	Percent  bool
	WithTies bool
}

// SelectItem represents an item in the SELECT list.
type SelectItem struct {
	base
	Expr  Expr
	Alias *Identifier
	As    bool // alias introduced with AS
}

// FromClause represents the FROM clause: a comma-separated list of sources.
type FromClause struct {
	base
	Tables []TableRef
}

// WhereClause wraps the search condition of a WHERE clause.
type WhereClause struct {
	base
	Condition Expr
}

// OrderItem represents an ORDER BY item.
type OrderItem struct {
	base
	Expr      Expr
	Direction string // "", "ASC" or "DESC"
}

// InsertStmt represents INSERT [INTO] target [(columns)] VALUES ... | SELECT ...
type InsertStmt struct {
	base
	With    *WithClause
	Target  *NamedTable
	Columns []*ColumnRef
	Rows    []*ValuesRow
	Select  *SelectStmt
}

func (*InsertStmt) stmtNode() {}

// ValuesRow is one parenthesized row of a VALUES list.
type ValuesRow struct {
	base
	Values []Expr
}

// UpdateStmt represents UPDATE target SET ... [FROM ...] [WHERE ...].
type UpdateStmt struct {
	base
	With   *WithClause
	Top    *TopClause
	Target *NamedTable
	Set    []*SetClause
	From   *FromClause
	Where  *WhereClause
}

func (*UpdateStmt) stmtNode() {}

// SetClause is one column = value assignment.
type SetClause struct {
	base
	Column *ColumnRef
	Value  Expr
}

// DeleteStmt represents DELETE [FROM] target [FROM ...] [WHERE ...].
type DeleteStmt struct {
	base
	With   *WithClause
	Top    *TopClause
	Target *NamedTable
	From   *FromClause
	Where  *WhereClause
}

func (*DeleteStmt) stmtNode() {}

// DeclareStmt represents DECLARE @a type [= value], ...
type DeclareStmt struct {
	base
	Variables []*VariableDecl
}

func (*DeclareStmt) stmtNode() {}

// VariableDecl is a single declared variable.
type VariableDecl struct {
	base
	Name  string // including the leading @
	Type  *DataType
	Value Expr
}

// DataType is a type name with optional arguments: nvarchar(max), numeric(10, 2).
type DataType struct {
	base
	Name string
	Args []string
}

// IfStmt represents IF condition statement [ELSE statement].
type IfStmt struct {
	base
	Condition Expr
	Then      Stmt
	Else      Stmt
}

func (*IfStmt) stmtNode() {}

// BlockStmt represents BEGIN ... END.
type BlockStmt struct {
	base
	Statements []Stmt
}

func (*BlockStmt) stmtNode() {}
