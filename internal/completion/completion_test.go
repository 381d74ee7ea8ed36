package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaql/internal/testutil"
)

func texts(items []Suggestion) []string {
	var out []string
	for _, s := range items {
		out = append(out, s.Text)
	}
	return out
}

func TestContext_TableAfterFrom(t *testing.T) {
	c := New(testutil.Catalog(t))
	sql := "SELECT f FROM "

	ctx, diags := c.Context(sql, 14)
	assert.NotEmpty(t, diags, "the script is incomplete")
	assert.Equal(t, ContextTable, ctx.Kind)
	assert.Equal(t, "", ctx.Identifier)
	assert.Equal(t, 14, ctx.Offset)
	assert.Equal(t, 0, ctx.Length)

	items := c.Suggest(ctx)
	require.Len(t, items, 6, "every entity of the main database")
	for _, s := range items {
		assert.Equal(t, 14, s.Offset)
		assert.Equal(t, 0, s.Length)
	}
	assert.Contains(t, texts(items), "Справочник.Номенклатура")
	assert.NotContains(t, texts(items), "Документ.Продажа.Товары", "table parts are listed under their owner")
}

func TestComplete_AliasedColumn(t *testing.T) {
	c := New(testutil.Catalog(t))
	items, diags := c.Complete("SELECT Т.Н FROM Справочник.Номенклатура AS Т", 10)
	assert.Empty(t, diags)
	assert.Equal(t, []Suggestion{{Text: "Т.Наименование", Offset: 7, Length: 3, Category: "system", Rank: RankPrefix}}, items)
}

func TestComplete(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		cursor int // -1 means end of input
		want   []string
		offset int
		length int
	}{
		{
			name: "entity_by_marker", sql: "SELECT * FROM Справочник.Ном", cursor: -1,
			want: []string{"Справочник.Номенклатура"}, offset: 14, length: 14,
		},
		{
			name: "all_of_one_kind", sql: "SELECT * FROM Справочник.", cursor: -1,
			want:   []string{"Справочник.ДоговорыКонтрагентов", "Справочник.Контрагенты", "Справочник.Номенклатура"},
			offset: 14, length: 11,
		},
		{
			name: "table_parts", sql: "SELECT * FROM Документ.Продажа.", cursor: -1,
			want: []string{"Документ.Продажа.Товары"}, offset: 14, length: 17,
		},
		{
			name: "other_database", sql: "SELECT * FROM archive.Справочник.Н", cursor: -1,
			want: []string{"archive.Справочник.Номенклатура"}, offset: 14, length: 20,
		},
		{
			name: "substring_match_across_kinds", sql: "SELECT 1 FROM Товар", cursor: -1,
			want: []string{"РегистрНакопления.ТоварыНаСкладах"}, offset: 14, length: 5,
		},
		{
			name: "prefix_before_substring", sql: "SELECT 1 FROM Контр", cursor: -1,
			want:   []string{"Справочник.Контрагенты", "Справочник.ДоговорыКонтрагентов"},
			offset: 14, length: 5,
		},
		{
			name: "marker_fallback", sql: "SELECT 1 FROM Док", cursor: -1,
			want: []string{"Документ"}, offset: 14, length: 3,
		},
		{
			name: "transliterated_marker", sql: "SELECT 1 FROM Cat", cursor: -1,
			want: []string{"Справочник"}, offset: 14, length: 3,
		},
		{
			name: "join_after_broken_tail", sql: "SELECT * FROM Справочник.Номенклатура AS н JOIN Справочник.Контр", cursor: -1,
			want: []string{"Справочник.Контрагенты", "Справочник.ДоговорыКонтрагентов"}, offset: 48, length: 16,
		},
		{
			name: "unqualified_column_gets_alias", sql: "SELECT Наи FROM Справочник.Номенклатура AS н", cursor: 10,
			want: []string{"н.Наименование"}, offset: 7, length: 3,
		},
		{
			name: "unaliased_columns", sql: "SELECT Ко FROM Справочник.Номенклатура", cursor: 9,
			want: []string{"Код"}, offset: 7, length: 2,
		},
		{
			name: "join_columns", sql: "SELECT А.Наименование FROM Справочник.Контрагенты AS А JOIN Справочник.ДоговорыКонтрагентов AS Б ON Б.Вла = А.Ссылка", cursor: 105,
			want: []string{"Б.Владелец"}, offset: 100, length: 5,
		},
		{
			name: "pseudo_fields", sql: "SELECT н.Ссылка.t FROM Справочник.Номенклатура AS н", cursor: 17,
			want: []string{"н.Ссылка.TYPE", "н.Ссылка.type"}, offset: 7, length: 10,
		},
		{
			name: "outer_alias_in_subquery", sql: "SELECT 1 FROM Справочник.Номенклатура AS н WHERE EXISTS (SELECT 1 FROM t WHERE t.k = н.Род)", cursor: 90,
			want: []string{"н.Родитель"}, offset: 85, length: 5,
		},
	}

	c := New(testutil.Catalog(t))
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cursor := tc.cursor
			if cursor < 0 {
				cursor = len([]rune(tc.sql))
			}
			items, _ := c.Complete(tc.sql, cursor)
			assert.Equal(t, tc.want, texts(items))
			for _, s := range items {
				assert.Equal(t, tc.offset, s.Offset)
				assert.Equal(t, tc.length, s.Length)
			}
		})
	}
}

func TestComplete_NoContext(t *testing.T) {
	c := New(testutil.Catalog(t))
	for _, tc := range []struct {
		sql    string
		cursor int
	}{
		{"SELECT f WHERE ", 15},
		{"SELECT 1 FROM Справочник.Номенклатура AS Т", 42},
		{"SELECT 1 FROM t", 100},
		{"SELECT 1 FROM t", -1},
		{"", 0},
		{"SELECT 'abc", 10},
	} {
		items, _ := c.Complete(tc.sql, tc.cursor)
		assert.Empty(t, items, "%q at %d", tc.sql, tc.cursor)
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "table", ContextTable.String())
	assert.Equal(t, "column", ContextColumn.String())
	assert.Equal(t, "none", ContextNone.String())
}
