package tsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) Stmt {
	t.Helper()
	script, diags := Parse(sql)
	require.Empty(t, diags, "unexpected diagnostics for %q", sql)
	require.Len(t, script.Statements, 1)
	return script.Statements[0]
}

func TestParse_SelectWithTop(t *testing.T) {
	stmt := parseOne(t, "SELECT TOP 10 Ссылка AS [Ссылка] FROM Справочник.Номенклатура")
	sel, ok := stmt.(*SelectStmt)
	require.True(t, ok)

	require.NotNil(t, sel.Top)
	assert.False(t, sel.Top.Parens)
	require.Len(t, sel.Columns, 1)

	ref, ok := sel.Columns[0].Expr.(*ColumnRef)
	require.True(t, ok)
	assert.Equal(t, []string{"Ссылка"}, ref.Names())
	require.NotNil(t, sel.Columns[0].Alias)
	assert.Equal(t, "Ссылка", sel.Columns[0].Alias.Value)
	assert.Equal(t, QuoteBracket, sel.Columns[0].Alias.Quote)

	require.NotNil(t, sel.From)
	require.Len(t, sel.From.Tables, 1)
	table, ok := sel.From.Tables[0].(*NamedTable)
	require.True(t, ok)
	assert.Equal(t, "Справочник", table.Name.Schema())
	assert.Equal(t, "Номенклатура", table.Name.Base())
	assert.Equal(t, "", table.Name.Database())
}

func TestParse_ObjectNameSlots(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		server   string
		database string
		schema   string
		base     string
	}{
		{"one_part", "SELECT * FROM t", "", "", "", "t"},
		{"two_parts", "SELECT * FROM Документ.Продажа", "", "", "Документ", "Продажа"},
		{"three_parts", "SELECT * FROM trade.Документ.Продажа", "", "trade", "Документ", "Продажа"},
		{"four_parts", "SELECT * FROM srv.trade.Документ.Продажа", "srv", "trade", "Документ", "Продажа"},
		{"empty_schema", "SELECT * FROM trade.._Reference1", "", "trade", "", "_Reference1"},
		{"bracketed_compound", "SELECT * FROM Документ.[Продажа+Товары]", "", "", "Документ", "Продажа+Товары"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sel := parseOne(t, tc.sql).(*SelectStmt)
			table := sel.From.Tables[0].(*NamedTable)
			assert.Equal(t, tc.server, table.Name.Server())
			assert.Equal(t, tc.database, table.Name.Database())
			assert.Equal(t, tc.schema, table.Name.Schema())
			assert.Equal(t, tc.base, table.Name.Base())
		})
	}
}

func TestParse_TooManyNameParts(t *testing.T) {
	_, diags := Parse("SELECT * FROM a.b.c.d.e")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "more than four parts")
}

func TestParse_Joins(t *testing.T) {
	sel := parseOne(t, "SELECT * FROM a AS x LEFT JOIN b AS y ON x.id = y.id CROSS JOIN c").(*SelectStmt)
	require.Len(t, sel.From.Tables, 1)

	outer, ok := sel.From.Tables[0].(*Join)
	require.True(t, ok)
	assert.Equal(t, JoinCross, outer.Kind)
	assert.Nil(t, outer.On)

	inner, ok := outer.Left.(*Join)
	require.True(t, ok)
	assert.Equal(t, JoinLeft, inner.Kind)
	assert.Equal(t, "LEFT JOIN", inner.Keyword)
	cmp, ok := inner.On.(*BinaryExpr)
	require.True(t, ok)
	assert.True(t, cmp.IsComparison())
}

func TestParse_CommonTableExpressions(t *testing.T) {
	sel := parseOne(t, "WITH c AS (SELECT Код FROM Справочник.Номенклатура), d (k) AS (SELECT Код FROM c) SELECT * FROM d").(*SelectStmt)

	require.NotNil(t, sel.With)
	require.Len(t, sel.With.CTEs, 2)
	assert.Equal(t, "c", sel.With.CTEs[0].Name.Value)
	assert.Empty(t, sel.With.CTEs[0].Columns)
	require.Len(t, sel.With.CTEs[1].Columns, 1)
	assert.Equal(t, "k", sel.With.CTEs[1].Columns[0].Value)
	assert.Equal(t, 0, sel.Span().Start, "the statement starts at WITH")
	assert.Equal(t, "d", sel.From.Tables[0].(*NamedTable).Name.Base())
}

func TestParse_CommonTableExpressionNeedsStatement(t *testing.T) {
	_, diags := Parse("WITH c AS (SELECT 1) DECLARE @x int")
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "expected SELECT, INSERT, UPDATE or DELETE")
}

func TestParse_SelectInto(t *testing.T) {
	sel := parseOne(t, "SELECT Код INTO #tmp FROM Справочник.Номенклатура").(*SelectStmt)
	require.NotNil(t, sel.Into)
	assert.Equal(t, "#tmp", sel.Into.Base())
	assert.Equal(t, "Номенклатура", sel.From.Tables[0].(*NamedTable).Name.Base())
}

func TestParse_ParenthesizedTableSource(t *testing.T) {
	sel := parseOne(t, "SELECT * FROM a JOIN (b JOIN c ON b.id = c.id) ON a.id = b.id").(*SelectStmt)

	outer := sel.From.Tables[0].(*Join)
	paren, ok := outer.Right.(*ParenTable)
	require.True(t, ok)
	inner, ok := paren.Source.(*Join)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Left.(*NamedTable).Name.Base())
	assert.NotNil(t, outer.On)
}

func TestParse_Apply(t *testing.T) {
	sel := parseOne(t, "SELECT * FROM a CROSS APPLY (SELECT TOP 1 v FROM b) AS x OUTER APPLY (SELECT 1 AS o) AS y").(*SelectStmt)

	outer := sel.From.Tables[0].(*Join)
	assert.Equal(t, JoinOuterApply, outer.Kind)
	assert.True(t, outer.Kind.IsApply())
	assert.Nil(t, outer.On)
	inner := outer.Left.(*Join)
	assert.Equal(t, JoinCrossApply, inner.Kind)
	assert.Equal(t, "x", inner.Right.(*DerivedTable).Alias.Value)
}

func TestParse_OffsetFetch(t *testing.T) {
	sel := parseOne(t, "SELECT a FROM t ORDER BY a OFFSET @skip ROWS FETCH FIRST 1 ROW ONLY").(*SelectStmt)
	assert.Equal(t, "@skip", Generate(sel.Offset))
	assert.Equal(t, "1", Generate(sel.Fetch))

	_, diags := Parse("SELECT a FROM t ORDER BY a OFFSET 1 ROWS FETCH NEXT 1 ROWS")
	assert.Len(t, diags, 1)
}

func TestParse_IfElse(t *testing.T) {
	stmt := parseOne(t, "IF @x = 1 BEGIN SELECT 1; SELECT 2 END ELSE SELECT 3")
	s, ok := stmt.(*IfStmt)
	require.True(t, ok)
	block, ok := s.Then.(*BlockStmt)
	require.True(t, ok)
	assert.Len(t, block.Statements, 2)
	_, ok = s.Else.(*SelectStmt)
	assert.True(t, ok)
}

func TestParse_StatementWordsAreNotAliases(t *testing.T) {
	script, diags := Parse("SELECT a FROM t\nIF @x = 1 SELECT 2")
	require.Empty(t, diags)
	require.Len(t, script.Statements, 2)
	assert.Nil(t, script.Statements[0].(*SelectStmt).From.Tables[0].(*NamedTable).Alias)
}

func TestParse_UnterminatedBlock(t *testing.T) {
	_, diags := Parse("BEGIN SELECT 1")
	require.Len(t, diags, 1)
	assert.Equal(t, DiagUnexpectedEOF, diags[0].Code)
}

func TestParse_Spans(t *testing.T) {
	sql := "SELECT Т.Н FROM Справочник.Номенклатура AS Т"
	sel := parseOne(t, sql).(*SelectStmt)

	ref := sel.Columns[0].Expr.(*ColumnRef)
	assert.Equal(t, Span{Start: 7, End: 10}, ref.Span())

	table := sel.From.Tables[0].(*NamedTable)
	assert.Equal(t, Span{Start: 16, End: 39}, table.Name.Span())
	assert.Equal(t, Span{Start: 16, End: 44}, table.Span())
	assert.Equal(t, Span{Start: 0, End: 44}, sel.Span())
}

func TestParse_ErrorRecovery(t *testing.T) {
	script, diags := Parse("SELECT 1; SELECT FROM; SELECT 2")
	require.Len(t, diags, 1)
	assert.Equal(t, DiagUnexpectedToken, diags[0].Code)
	assert.Equal(t, 17, diags[0].Offset)
	assert.Len(t, script.Statements, 2)
}

func TestParse_IncompleteFrom(t *testing.T) {
	script, diags := Parse("SELECT f FROM ")
	require.Len(t, diags, 1)
	assert.Equal(t, DiagUnexpectedEOF, diags[0].Code)
	assert.Empty(t, script.Statements)

	last := script.Tokens[len(script.Tokens)-2]
	assert.Equal(t, TOKEN_WHITESPACE, last.Type, "trailing whitespace is kept in the token stream")
}

func TestParse_StatementsWithoutSemicolons(t *testing.T) {
	script, diags := Parse("DECLARE @p int = 1\nSELECT @p")
	require.Empty(t, diags)
	require.Len(t, script.Statements, 2)
	_, ok := script.Statements[0].(*DeclareStmt)
	assert.True(t, ok)
}

func TestParse_Expressions(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"precedence", "a + b * c", "*BinaryExpr"},
		{"not_in", "a NOT IN (1, 2)", "*InExpr"},
		{"between", "a BETWEEN 1 AND 2", "*BetweenExpr"},
		{"is_not_null", "a IS NOT NULL", "*IsNullExpr"},
		{"like", "a LIKE 'x%' ESCAPE '!'", "*LikeExpr"},
		{"exists", "EXISTS (SELECT 1)", "*ExistsExpr"},
		{"subquery", "(SELECT 1)", "*SubqueryExpr"},
		{"typeof", "TYPEOF(Справочник.Номенклатура)", "*FuncCall"},
		{"cast", "CAST(a AS binary(16))", "*CastExpr"},
		{"case", "CASE a WHEN 1 THEN 'x' END", "*CaseExpr"},
		{"left_function", "LEFT(a, 2)", "*FuncCall"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expr, err := ParseExpr(tc.sql)
			require.NoError(t, err)
			assert.Equal(t, tc.want, typeName(expr))
		})
	}
}

func TestParseExpr_Precedence(t *testing.T) {
	expr, err := ParseExpr("a + b * c")
	require.NoError(t, err)
	add := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_PLUS, add.Op)
	mul := add.Right.(*BinaryExpr)
	assert.Equal(t, TOKEN_STAR, mul.Op)

	expr, err = ParseExpr("a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)
	or := expr.(*BinaryExpr)
	assert.Equal(t, TOKEN_OR, or.Op)
	and := or.Right.(*BinaryExpr)
	assert.Equal(t, TOKEN_AND, and.Op)
}

func TestParseExpr_Errors(t *testing.T) {
	_, err := ParseExpr("a +")
	assert.Error(t, err)

	_, err = ParseExpr("a b")
	assert.Error(t, err)
}

func typeName(n Node) string {
	switch n.(type) {
	case *BinaryExpr:
		return "*BinaryExpr"
	case *InExpr:
		return "*InExpr"
	case *BetweenExpr:
		return "*BetweenExpr"
	case *IsNullExpr:
		return "*IsNullExpr"
	case *LikeExpr:
		return "*LikeExpr"
	case *ExistsExpr:
		return "*ExistsExpr"
	case *SubqueryExpr:
		return "*SubqueryExpr"
	case *FuncCall:
		return "*FuncCall"
	case *CastExpr:
		return "*CastExpr"
	case *CaseExpr:
		return "*CaseExpr"
	}
	return "other"
}
