package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaql/internal/domain"
	"metaql/internal/scope"
	"metaql/internal/testutil"
	"metaql/internal/tsql"
)

func TestParseEntityName(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  EntityName
		ok    bool
	}{
		{"kind_name", []string{"Справочник", "Номенклатура"}, EntityName{Marker: "Справочник", Name: "Номенклатура"}, true},
		{"kind_owner_part", []string{"Документ", "Продажа", "Товары"}, EntityName{Marker: "Документ", Owner: "Продажа", Name: "Товары"}, true},
		{"kind_compound", []string{"Документ", "Продажа+Товары"}, EntityName{Marker: "Документ", Owner: "Продажа", Name: "Товары"}, true},
		{"db_kind_name", []string{"archive", "Справочник", "Номенклатура"}, EntityName{Database: "archive", Marker: "Справочник", Name: "Номенклатура"}, true},
		{"db_kind_owner_part", []string{"erp", "Документ", "Продажа", "Товары"}, EntityName{Database: "erp", Marker: "Документ", Owner: "Продажа", Name: "Товары"}, true},
		{"srv_db_kind_name", []string{"srv", "archive", "Справочник", "Номенклатура"}, EntityName{Server: "srv", Database: "archive", Marker: "Справочник", Name: "Номенклатура"}, true},
		{"srv_db_kind_compound", []string{"srv", "erp", "Документ", "Продажа+Товары"}, EntityName{Server: "srv", Database: "erp", Marker: "Документ", Owner: "Продажа", Name: "Товары"}, true},
		{"plain_table", []string{"dbo", "Orders"}, EntityName{}, false},
		{"single_part", []string{"Номенклатура"}, EntityName{}, false},
		{"physical_cross_db", []string{"archive", "", "_Reference77"}, EntityName{}, false},
		{"bad_compound", []string{"Документ", "+Товары"}, EntityName{}, false},
		{"too_many_parts", []string{"a", "b", "c", "Справочник", "d"}, EntityName{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseEntityName(tc.parts)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEntityName_StringAndCompound(t *testing.T) {
	n := EntityName{Database: "erp", Marker: "Документ", Owner: "Продажа", Name: "Товары"}
	assert.Equal(t, "erp.Документ.Продажа.Товары", n.String())
	assert.Equal(t, "Документ+Продажа+Товары", n.Compound())
}

func TestResolveTable(t *testing.T) {
	r := New(testutil.Catalog(t))

	res, w := r.ResolveTable(tsql.NewSchemaObjectName("Справочник", "Номенклатура"))
	require.Nil(t, w)
	require.NotNil(t, res.Object)
	assert.Equal(t, "_Reference123", res.Object.TableName)
	assert.Equal(t, "", res.Entity.Database, "no database slot means main")

	res, w = r.ResolveTable(tsql.NewSchemaObjectName("archive", "Справочник", "Номенклатура"))
	require.Nil(t, w)
	assert.Equal(t, "_Reference77", res.Object.TableName)

	res, w = r.ResolveTable(tsql.NewSchemaObjectName("Документ", "Продажа+Товары"))
	require.Nil(t, w)
	assert.Equal(t, "_Document200_VT203", res.Object.TableName)

	res, w = r.ResolveTable(tsql.NewSchemaObjectName("dbo", "Orders"))
	assert.Nil(t, w)
	assert.False(t, res.IsEntity)
	assert.Nil(t, res.Object)

	_, w = r.ResolveTable(tsql.NewSchemaObjectName("Справочник", "Нет"))
	require.NotNil(t, w)
	assert.Equal(t, WarnUnknownEntity, w.Code)

	_, w = r.ResolveTable(tsql.NewSchemaObjectName("nowhere", "Справочник", "Номенклатура"))
	require.NotNil(t, w)
	assert.Equal(t, WarnUnknownDatabase, w.Code)
}

// resolveAll parses sql, resolves tables and returns the tree.
func resolveAll(t *testing.T, r *Resolver, sql string) (*scope.Tree, []Warning) {
	t.Helper()
	script, diags := tsql.Parse(sql)
	require.Empty(t, diags)
	tree := scope.Build(script)
	return tree, r.ResolveTables(tree)
}

func columnByName(t *testing.T, tree *scope.Tree, name string) *scope.Column {
	t.Helper()
	for _, c := range tree.Columns() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no column %q", name)
	return nil
}

func TestResolveColumn_Aliased(t *testing.T) {
	r := New(testutil.Catalog(t))
	tree, warns := resolveAll(t, r, `SELECT А.Наименование FROM Справочник.Контрагенты AS А
JOIN Справочник.ДоговорыКонтрагентов AS Б ON А.Ссылка.uuid = Б.Владелец.uuid AND А.Ссылка.type = Б.Владелец.TYPE`)
	require.Empty(t, warns)

	res, ok, w := r.ResolveColumn(columnByName(t, tree, "А.Ссылка.uuid"))
	require.True(t, ok)
	require.Nil(t, w)
	assert.True(t, res.Qualified)
	assert.Equal(t, "Ссылка", res.Property.Name)
	assert.Equal(t, PseudoUUID, res.Pseudo)
	assert.Equal(t, "Контрагенты", res.Object.Name)

	res, ok, _ = r.ResolveColumn(columnByName(t, tree, "Б.Владелец.TYPE"))
	require.True(t, ok)
	assert.Equal(t, PseudoKind, res.Pseudo)
	assert.Equal(t, domain.ShapeCompositeReference, res.Property.Shape())

	res, ok, _ = r.ResolveColumn(columnByName(t, tree, "А.Ссылка.type"))
	require.True(t, ok)
	assert.Equal(t, PseudoType, res.Pseudo)
}

func TestResolveColumn_Unaliased(t *testing.T) {
	r := New(testutil.Catalog(t))
	tree, _ := resolveAll(t, r, "SELECT Наименование, Код AS К FROM Справочник.Номенклатура ORDER BY К")

	res, ok, w := r.ResolveColumn(columnByName(t, tree, "Наименование"))
	require.True(t, ok)
	assert.Nil(t, w)
	assert.False(t, res.Qualified)
	assert.Equal(t, "_Description", res.Property.Fields[0].Name)

	_, ok, w = r.ResolveColumn(columnByName(t, tree, "К"))
	assert.False(t, ok)
	assert.Nil(t, w, "a select-list alias is not an unknown property")
}

func TestResolveColumn_QualifiedByRawName(t *testing.T) {
	r := New(testutil.Catalog(t))
	tree, _ := resolveAll(t, r, "SELECT Справочник.Номенклатура.Код FROM Справочник.Номенклатура")

	res, ok, w := r.ResolveColumn(columnByName(t, tree, "Справочник.Номенклатура.Код"))
	require.True(t, ok)
	assert.Nil(t, w)
	assert.True(t, res.Qualified)
	assert.Equal(t, "Код", res.Property.Name)
}

func TestResolveColumn_Ambiguous(t *testing.T) {
	r := New(testutil.Catalog(t))
	tree, _ := resolveAll(t, r, "SELECT Наименование FROM Справочник.Номенклатура, Справочник.Контрагенты")

	res, ok, w := r.ResolveColumn(columnByName(t, tree, "Наименование"))
	require.True(t, ok, "first match wins")
	require.NotNil(t, w)
	assert.Equal(t, WarnAmbiguousProperty, w.Code)
	assert.Equal(t, "Номенклатура", res.Object.Name)
}

func TestResolveColumn_Failures(t *testing.T) {
	r := New(testutil.Catalog(t))

	t.Run("unknown_aliased_property", func(t *testing.T) {
		tree, _ := resolveAll(t, r, "SELECT Т.Нет FROM Справочник.Номенклатура AS Т")
		_, ok, w := r.ResolveColumn(columnByName(t, tree, "Т.Нет"))
		assert.False(t, ok)
		require.NotNil(t, w)
		assert.Equal(t, WarnUnknownProperty, w.Code)
		assert.Equal(t, tsql.Span{Start: 7, End: 12}, w.Span)
	})

	t.Run("unknown_unaliased_property", func(t *testing.T) {
		tree, _ := resolveAll(t, r, "SELECT Нет FROM Справочник.Номенклатура")
		_, ok, w := r.ResolveColumn(columnByName(t, tree, "Нет"))
		assert.False(t, ok)
		require.NotNil(t, w)
		assert.Equal(t, WarnUnknownProperty, w.Code)
	})

	t.Run("plain_tables_are_silent", func(t *testing.T) {
		tree, warns := resolveAll(t, r, "SELECT o.id, name FROM dbo.Orders AS o, Customers")
		assert.Empty(t, warns)
		for _, c := range tree.Columns() {
			_, ok, w := r.ResolveColumn(c)
			assert.False(t, ok)
			assert.Nil(t, w)
		}
	})

	t.Run("derived_boundary", func(t *testing.T) {
		tree, _ := resolveAll(t, r, "SELECT д.Код FROM (SELECT Код FROM Справочник.Номенклатура) AS д")
		_, ok, w := r.ResolveColumn(columnByName(t, tree, "д.Код"))
		assert.False(t, ok)
		require.NotNil(t, w)
		assert.Equal(t, WarnSubqueryBoundary, w.Code)

		res, ok, _ := r.ResolveColumn(tree.Root.Statements[0].Tables()[0].(*scope.Derived).Columns[0])
		require.True(t, ok, "inside the derived table the column resolves")
		assert.Equal(t, "Код", res.Property.Name)
	})

	t.Run("outer_alias_from_subquery", func(t *testing.T) {
		tree, _ := resolveAll(t, r, "SELECT 1 FROM Справочник.Номенклатура AS н WHERE EXISTS (SELECT 1 FROM t WHERE t.k = н.Код)")
		res, ok, _ := r.ResolveColumn(columnByName(t, tree, "н.Код"))
		require.True(t, ok)
		assert.Equal(t, "_Code", res.Property.Fields[0].Name)
	})

	t.Run("duplicate_alias", func(t *testing.T) {
		_, warns := resolveAll(t, r, "SELECT 1 FROM Справочник.Номенклатура AS x, Справочник.Контрагенты AS x")
		require.Len(t, warns, 1)
		assert.Equal(t, WarnDuplicateAlias, warns[0].Code)
	})
}

func TestParsePseudo(t *testing.T) {
	assert.Equal(t, PseudoUUID, ParsePseudo("uuid"))
	assert.Equal(t, PseudoType, ParsePseudo("type"))
	assert.Equal(t, PseudoKind, ParsePseudo("TYPE"))
	assert.Equal(t, PseudoNone, ParsePseudo("Type"))
	assert.Equal(t, PseudoNone, ParsePseudo("UUID"))
	assert.Equal(t, PseudoNone, ParsePseudo("Uuid"))
	assert.Equal(t, PseudoNone, ParsePseudo("Код"))
}
