package sqlrewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaql/catalog"
	"metaql/internal/domain"
	"metaql/internal/resolve"
	"metaql/internal/testutil"
	"metaql/internal/tsql"
)

func newRewriter(t *testing.T) *Rewriter {
	t.Helper()
	return New(testutil.Catalog(t))
}

func codes(diags []tsql.Diagnostic) []int {
	var out []int
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			"select_top",
			"SELECT TOP 10 Ссылка AS [Ссылка] FROM Справочник.Номенклатура",
			"SELECT TOP 10 _IDRRef AS [Ссылка] FROM _Reference123",
		},
		{
			"reference_predicate",
			"SELECT А.Наименование FROM Справочник.Контрагенты AS А JOIN Справочник.ДоговорыКонтрагентов AS Б ON А.Ссылка.uuid = Б.Владелец.uuid AND А.Ссылка.type = Б.Владелец.type",
			"SELECT А._Description FROM _Reference124 AS А JOIN _Reference125 AS Б ON А._IDRRef = Б._OwnerID_RRRef AND 0x0000007C = Б._OwnerID_RTRef",
		},
		{
			"bare_composite_is_object_plus_type_code",
			"SELECT Б.Владелец FROM Справочник.ДоговорыКонтрагентов AS Б",
			"SELECT (Б._OwnerID_RRRef + Б._OwnerID_RTRef) FROM _Reference125 AS Б",
		},
		{
			"simple_reference_discriminator",
			"SELECT Ссылка.TYPE FROM Справочник.Номенклатура",
			"SELECT 0x08 FROM _Reference123",
		},
		{
			"simple_reference_uuid",
			"SELECT Родитель.uuid FROM Справочник.Номенклатура",
			"SELECT _ParentIDRRef FROM _Reference123",
		},
		{
			"composite_pseudo_fields",
			"SELECT Основание.uuid, Основание.type, Основание.TYPE FROM Документ.Продажа",
			"SELECT _Fld202_RRRef, _Fld202_RTRef, _Fld202_TYPE FROM _Document200",
		},
		{
			"typeof_against_bare_composite",
			"SELECT Номер FROM Документ.Продажа WHERE Основание = TYPEOF(Справочник.Номенклатура)",
			"SELECT _Number FROM _Document200 WHERE _Fld202_RTRef = 0x0000007B",
		},
		{
			"typeof_in_select_list",
			"SELECT TYPEOF(archive.Справочник.Номенклатура)",
			"SELECT 0x0000004D",
		},
		{
			"simple_against_bare_composite",
			"SELECT 1 FROM Документ.Продажа AS Д JOIN Справочник.Контрагенты AS К ON Д.Основание = К.Ссылка",
			"SELECT 1 FROM _Document200 AS Д JOIN _Reference124 AS К ON (Д._Fld202_RRRef + Д._Fld202_RTRef) = (К._IDRRef + 0x0000007C)",
		},
		{
			"composite_in_order_by_and_in",
			"SELECT Номер FROM Документ.Продажа WHERE Основание IN (0x0000007B0403020106050807090A0B0C0D0E0F10, @ref) ORDER BY Основание",
			"SELECT _Number FROM _Document200 WHERE (_Fld202_RRRef + _Fld202_RTRef) IN (0x0000007B0403020106050807090A0B0C0D0E0F10, @ref) ORDER BY (_Fld202_RRRef + _Fld202_RTRef)",
		},
		{
			"composite_in_type_codes",
			"SELECT Номер FROM Документ.Продажа WHERE Основание IN (TYPEOF(Справочник.Номенклатура), TYPEOF(Справочник.Контрагенты))",
			"SELECT _Number FROM _Document200 WHERE _Fld202_RTRef IN (0x0000007B, 0x0000007C)",
		},
		{
			"composite_in_composite_subquery",
			"SELECT Номер FROM Документ.Продажа WHERE Основание IN (SELECT Д.Основание FROM Документ.Продажа AS Д)",
			"SELECT _Number FROM _Document200 WHERE (_Fld202_RRRef + _Fld202_RTRef) IN (SELECT (Д._Fld202_RRRef + Д._Fld202_RTRef) FROM _Document200 AS Д)",
		},
		{
			"simple_in_list_with_composite",
			"SELECT К.Наименование FROM Справочник.Контрагенты AS К, Документ.Продажа AS Д WHERE К.Ссылка IN (Д.Основание)",
			"SELECT К._Description FROM _Reference124 AS К, _Document200 AS Д WHERE (К._IDRRef + 0x0000007C) IN ((Д._Fld202_RRRef + Д._Fld202_RTRef))",
		},
		{
			"cross_database",
			"SELECT Наименование FROM archive.Справочник.Номенклатура",
			"SELECT _Description FROM archive.._Reference77",
		},
		{
			"main_database_named",
			"SELECT Код FROM erp.Справочник.Номенклатура",
			"SELECT _Code FROM _Reference123",
		},
		{
			"linked_server",
			"SELECT н.Наименование FROM srv.archive.Справочник.Номенклатура AS н",
			"SELECT н._Description FROM srv.archive.._Reference77 AS н",
		},
		{
			"table_part_dotted",
			"SELECT Т.Количество, Т.Номенклатура FROM Документ.Продажа.Товары AS Т",
			"SELECT Т._Fld205, Т._Fld204RRef FROM _Document200_VT203 AS Т",
		},
		{
			"table_part_compound",
			"SELECT Количество FROM Документ.[Продажа+Товары]",
			"SELECT _Fld205 FROM _Document200_VT203",
		},
		{
			"qualified_by_raw_name",
			"SELECT Справочник.Номенклатура.Код FROM Справочник.Номенклатура",
			"SELECT _Reference123._Code FROM _Reference123",
		},
		{
			"register_with_join",
			"SELECT Н.Наименование, SUM(Р.Количество) FROM РегистрНакопления.ТоварыНаСкладах AS Р JOIN Справочник.Номенклатура AS Н ON Р.Номенклатура = Н.Ссылка GROUP BY Н.Наименование",
			"SELECT Н._Description, SUM(Р._Fld302) FROM _AccumRg300 AS Р JOIN _Reference123 AS Н ON Р._Fld301RRef = Н._IDRRef GROUP BY Н._Description",
		},
		{
			"subquery_sees_outer_alias",
			"SELECT 1 FROM Справочник.Номенклатура AS н WHERE EXISTS (SELECT 1 FROM dbo.t WHERE t.k = н.Код)",
			"SELECT 1 FROM _Reference123 AS н WHERE EXISTS (SELECT 1 FROM dbo.t WHERE t.k = н._Code)",
		},
		{
			"delete",
			"DELETE FROM Документ.Продажа WHERE Номер = '1'",
			"DELETE FROM _Document200 WHERE _Number = '1'",
		},
		{
			"common_table_expression",
			"WITH c AS (SELECT Код FROM Справочник.Номенклатура) SELECT * FROM c",
			"WITH c AS (SELECT _Code FROM _Reference123) SELECT * FROM c",
		},
		{
			"select_into_temp_table",
			"SELECT Код INTO #tmp FROM Справочник.Номенклатура",
			"SELECT _Code INTO #tmp FROM _Reference123",
		},
		{
			"parenthesized_join",
			"SELECT Д.Номер FROM Документ.Продажа AS Д JOIN (Справочник.Контрагенты AS К JOIN Справочник.ДоговорыКонтрагентов AS Б ON Б.Наименование = К.Наименование) ON Д.Контрагент = К.Ссылка",
			"SELECT Д._Number FROM _Document200 AS Д JOIN (_Reference124 AS К JOIN _Reference125 AS Б ON Б._Description = К._Description) ON Д._Fld201RRef = К._IDRRef",
		},
		{
			"cross_apply_sees_left_side",
			"SELECT К.Наименование FROM Справочник.Контрагенты AS К CROSS APPLY (SELECT TOP 1 Д.Номер FROM Документ.Продажа AS Д WHERE Д.Контрагент = К.Ссылка ORDER BY Д.Дата DESC) AS П",
			"SELECT К._Description FROM _Reference124 AS К CROSS APPLY (SELECT TOP 1 Д._Number FROM _Document200 AS Д WHERE Д._Fld201RRef = К._IDRRef ORDER BY Д._Date_Time DESC) AS П",
		},
		{
			"offset_fetch",
			"SELECT Код FROM Справочник.Номенклатура ORDER BY Код OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY",
			"SELECT _Code FROM _Reference123 ORDER BY _Code OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY",
		},
		{
			"if_exists",
			"IF EXISTS (SELECT 1 FROM Справочник.Номенклатура WHERE Код = '1') SELECT Наименование FROM Справочник.Контрагенты",
			"IF EXISTS (SELECT 1 FROM _Reference123 WHERE _Code = '1') SELECT _Description FROM _Reference124",
		},
		{
			"plain_sql_untouched",
			"SELECT o.id, name FROM dbo.Orders AS o WHERE o.id > 10",
			"SELECT o.id, name FROM dbo.Orders AS o WHERE o.id > 10",
		},
	}

	rw := newRewriter(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := rw.Rewrite(tc.sql)
			assert.Empty(t, res.Diagnostics)
			assert.Equal(t, tc.want, res.SQL)
		})
	}
}

func TestRewrite_Idempotent(t *testing.T) {
	rw := newRewriter(t)
	for _, sql := range []string{
		"SELECT TOP 10 Ссылка AS [Ссылка] FROM Справочник.Номенклатура",
		"SELECT А.Наименование FROM Справочник.Контрагенты AS А JOIN Справочник.ДоговорыКонтрагентов AS Б ON А.Ссылка = Б.Владелец",
		"SELECT Основание FROM Документ.Продажа WHERE Основание = TYPEOF(Справочник.Номенклатура)",
		"SELECT Код.type FROM Справочник.Номенклатура",
	} {
		once := rw.Rewrite(sql)
		twice := rw.Rewrite(once.SQL)
		assert.Equal(t, once.SQL, twice.SQL, sql)
		assert.Empty(t, twice.Diagnostics, "rewritten SQL names no metadata: %s", once.SQL)
	}
}

func TestRewrite_Warnings(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
		code int
	}{
		{
			"pseudo_on_value_property",
			"SELECT Код.type FROM Справочник.Номенклатура",
			"SELECT Код.type FROM _Reference123",
			WarnPseudoOnValue,
		},
		{
			"composite_in_function",
			"SELECT COUNT(Основание) FROM Документ.Продажа",
			"SELECT COUNT(Основание) FROM _Document200",
			WarnCompositeScalar,
		},
		{
			"composite_in_scalar_subquery",
			"SELECT Д.Номер FROM Документ.Продажа AS Д WHERE Д.Основание IN (SELECT Т.Ссылка FROM Справочник.Контрагенты AS Т)",
			"SELECT Д._Number FROM _Document200 AS Д WHERE Д.Основание IN (SELECT Т._IDRRef FROM _Reference124 AS Т)",
			WarnCompositeScalar,
		},
		{
			"composite_in_mixed_list",
			"SELECT Номер FROM Документ.Продажа WHERE Основание IN (TYPEOF(Справочник.Номенклатура), 'x')",
			"SELECT _Number FROM _Document200 WHERE Основание IN (0x0000007B, 'x')",
			WarnCompositeScalar,
		},
		{
			"composite_compared_with_value",
			"SELECT Номер FROM Документ.Продажа WHERE Основание = Номер",
			"SELECT _Number FROM _Document200 WHERE Основание = _Number",
			WarnCompositeScalar,
		},
		{
			"unknown_entity",
			"SELECT 1 FROM Справочник.Нет",
			"SELECT 1 FROM Справочник.Нет",
			resolve.WarnUnknownEntity,
		},
		{
			"unknown_database",
			"SELECT 1 FROM nowhere.Справочник.Номенклатура",
			"SELECT 1 FROM nowhere.Справочник.Номенклатура",
			resolve.WarnUnknownDatabase,
		},
		{
			"unknown_property",
			"SELECT Т.Нет FROM Справочник.Номенклатура AS Т",
			"SELECT Т.Нет FROM _Reference123 AS Т",
			resolve.WarnUnknownProperty,
		},
		{
			"derived_table_boundary",
			"SELECT д.Код FROM (SELECT Код FROM Справочник.Номенклатура) AS д",
			"SELECT д.Код FROM (SELECT _Code FROM _Reference123) AS д",
			resolve.WarnSubqueryBoundary,
		},
		{
			"common_table_expression_boundary",
			"WITH c AS (SELECT Код FROM Справочник.Номенклатура) SELECT c.Код FROM c",
			"WITH c AS (SELECT _Code FROM _Reference123) SELECT c.Код FROM c",
			resolve.WarnSubqueryBoundary,
		},
		{
			"typeof_unknown",
			"SELECT TYPEOF(Справочник.Нет)",
			"SELECT TYPEOF(Справочник.Нет)",
			resolve.WarnUnknownEntity,
		},
		{
			"typeof_not_an_entity",
			"SELECT TYPEOF(dbo.t)",
			"SELECT TYPEOF(dbo.t)",
			WarnTypeOfUnresolved,
		},
		{
			"typeof_table_part",
			"SELECT TYPEOF(Документ.Продажа.Товары)",
			"SELECT TYPEOF(Документ.Продажа.Товары)",
			WarnUnknownTypeCode,
		},
	}

	rw := newRewriter(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := rw.Rewrite(tc.sql)
			assert.Equal(t, tc.want, res.SQL)
			assert.Equal(t, []int{tc.code}, codes(res.Diagnostics))
			for _, d := range res.Diagnostics {
				assert.Equal(t, tsql.SeverityWarning, d.Severity)
			}
			assert.False(t, res.HasErrors())
		})
	}
}

func TestRewrite_PropertyWithoutFields(t *testing.T) {
	ib := catalog.NewInfoBase("erp")
	require.NoError(t, ib.Add(&domain.ApplicationObject{
		Name:      "Номенклатура",
		Kind:      domain.KindCatalog,
		TypeCode:  123,
		TableName: "_Reference123",
		Properties: []*domain.MetadataProperty{
			{Name: "Код", Purpose: domain.PurposeSystem},
		},
	}))
	cat, err := catalog.New(ib)
	require.NoError(t, err)

	res := New(cat).Rewrite("SELECT Код FROM Справочник.Номенклатура")
	assert.Equal(t, "SELECT Код FROM _Reference123", res.SQL)
	assert.Equal(t, []int{WarnMissingField}, codes(res.Diagnostics))
}

func TestRewrite_WarningPosition(t *testing.T) {
	res := newRewriter(t).Rewrite("SELECT 1\nFROM Справочник.Нет")
	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Equal(t, 14, d.Offset)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, 6, d.Column)
}

func TestRewrite_SyntaxErrorReturnsInput(t *testing.T) {
	sql := "SELECT (Код FROM Справочник.Номенклатура"
	res := newRewriter(t).Rewrite(sql)
	assert.Equal(t, sql, res.SQL)
	require.NotEmpty(t, res.Diagnostics)
	assert.True(t, res.HasErrors())
}

func TestRewriteWithParams(t *testing.T) {
	rw := newRewriter(t)
	res := rw.RewriteWithParams(
		"DECLARE @p nvarchar(50), @n int; SELECT Код FROM Справочник.Номенклатура WHERE Наименование = @p AND Код > @n",
		map[string]any{"p": "Гвоздь", "@N": 5, "extra": true},
	)
	assert.Equal(t,
		"DECLARE @p nvarchar(50) = N'Гвоздь', @n int = 5;\nSELECT _Code FROM _Reference123 WHERE _Description = @p AND _Code > @n",
		res.SQL)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, WarnUnknownParameter, res.Diagnostics[0].Code)
	assert.Contains(t, res.Diagnostics[0].Message, `"extra"`)
}

func TestRewriteWithParams_NestedDeclare(t *testing.T) {
	res := newRewriter(t).RewriteWithParams(
		"IF 1 = 1 BEGIN DECLARE @n int; SELECT Код FROM Справочник.Номенклатура WHERE Код > @n END",
		map[string]any{"n": 5},
	)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, "IF 1 = 1 BEGIN\nDECLARE @n int = 5;\nSELECT _Code FROM _Reference123 WHERE _Code > @n;\nEND", res.SQL)
}

func TestRewriteWithParams_UnsupportedValue(t *testing.T) {
	res := newRewriter(t).RewriteWithParams("DECLARE @p int = 1", map[string]any{"p": struct{}{}})
	assert.Equal(t, "DECLARE @p int = 1", res.SQL)
	assert.Equal(t, []int{WarnUnknownParameter}, codes(res.Diagnostics))
}
