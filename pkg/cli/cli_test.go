package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaql/internal/testutil"
)

// isolate points the CLI at an empty config dir and clears the environment
// it reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("METAQL_CONFIG_DIR", t.TempDir())
	for _, k := range []string{"METAQL_CATALOG", "METAQL_MAIN_DATABASE", "METAQL_OUTPUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, testutil.CatalogYAML, 0o600))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestRewriteCmd_Stdin(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	out, _, err := run(t, "SELECT TOP 10 Ссылка AS [Ссылка] FROM Справочник.Номенклатура", "rewrite", "-c", cat)
	require.NoError(t, err)
	assert.Equal(t, "SELECT TOP 10 _IDRRef AS [Ссылка] FROM _Reference123\n", out)
}

func TestRewriteCmd_Files(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)
	a := writeFile(t, "a.sql", "SELECT Код FROM Справочник.Номенклатура")
	b := writeFile(t, "b.sql", "SELECT Наименование FROM archive.Справочник.Номенклатура")

	out, _, err := run(t, "", "rewrite", "-c", cat, "-j", "2", a, b)
	require.NoError(t, err)
	assert.Equal(t, "-- "+a+"\nSELECT _Code FROM _Reference123\n-- "+b+"\nSELECT _Description FROM archive.._Reference77\n", out)
}

func TestRewriteCmd_ParamsAndJSON(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	out, _, err := run(t, "DECLARE @n int; SELECT Код FROM Справочник.Номенклатура WHERE Код > @n",
		"rewrite", "-c", cat, "-o", "json", "--param", "@n=5", "--param", "extra=1")
	require.NoError(t, err)

	var got []rewriteOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, stdinName, got[0].File)
	assert.Equal(t, "DECLARE @n int = 5;\nSELECT _Code FROM _Reference123 WHERE _Code > @n", got[0].SQL)
	require.Len(t, got[0].Diagnostics, 1)
	assert.Equal(t, 2104, got[0].Diagnostics[0].Code)
	assert.False(t, got[0].HasErrors)
}

func TestRewriteCmd_Failures(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	_, stderr, err := run(t, "SELECT Нет FROM Справочник.Номенклатура", "rewrite", "-c", cat)
	require.NoError(t, err, "warnings alone do not fail")
	assert.Contains(t, stderr, "<stdin>:1:8: warning 2003:")

	_, _, err = run(t, "SELECT Нет FROM Справочник.Номенклатура", "rewrite", "-c", cat, "--strict")
	require.EqualError(t, err, "1 of 1 script(s) failed")

	_, _, err = run(t, "SELECT FROM (", "rewrite", "-c", cat)
	require.Error(t, err)

	_, _, err = run(t, "SELECT 1", "rewrite", "-c", cat, "--param", "novalue")
	require.ErrorContains(t, err, "want name=value")

	_, _, err = run(t, "SELECT 1", "rewrite")
	require.ErrorContains(t, err, "no catalog")
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"a=1", "@b = x", "c="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1), "@b": " x", "c": ""}, got)

	got, err = parseParams(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompleteCmd(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	out, _, err := run(t, "SELECT * FROM Справочник.Контр", "complete", "-c", cat)
	require.NoError(t, err)
	assert.Contains(t, out, "Справочник.Контрагенты")
	assert.NotContains(t, out, "Номенклатура")

	out, _, err = run(t, "SELECT Т.Н FROM Справочник.Номенклатура AS Т", "complete", "-c", cat, "--offset", "10", "-o", "json")
	require.NoError(t, err)
	var got completeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "column", got.Context)
	assert.Equal(t, []suggestionOutput{{Text: "Т.Наименование", Offset: 7, Length: 3, Category: "system", Rank: 0}}, got.Suggestions)

	_, _, err = run(t, "SELECT", "complete", "-c", cat, "--offset", "42")
	require.Error(t, err)
}

func TestEntitiesCmd(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	out, _, err := run(t, "", "entities", "-c", cat, "catalog", "контр")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "Справочник.Контрагенты")
	assert.Contains(t, lines[2], "_Reference125")

	out, _, err = run(t, "", "entities", "-c", cat, "-d", "archive", "-o", "json")
	require.NoError(t, err)
	var got []entityOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "_Reference77", got[0].Table)
}

func TestDescribeCmd(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	out, _, err := run(t, "", "describe", "-c", cat, "-o", "json", "Документ.Продажа")
	require.NoError(t, err)
	var got entityOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "_Document200", got.Table)
	assert.Equal(t, []string{"Документ.Продажа.Товары"}, got.TableParts)
	require.NotEmpty(t, got.Properties)

	out, _, err = run(t, "", "describe", "-c", cat, "Справочник.ДоговорыКонтрагентов")
	require.NoError(t, err)
	assert.Contains(t, out, "_OwnerID_TYPE, _OwnerID_RTRef, _OwnerID_RRRef")

	_, _, err = run(t, "", "describe", "-c", cat, "Справочник.Нет")
	require.Error(t, err)
}

func TestCatalogImportExport(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)
	store := filepath.Join(t.TempDir(), "catalog.db")

	_, stderr, err := run(t, "", "catalog", "import", cat, store)
	require.NoError(t, err)
	assert.Contains(t, stderr, "imported 2 database(s)")

	out, _, err := run(t, "SELECT Код FROM Справочник.Номенклатура", "rewrite", "-c", store)
	require.NoError(t, err)
	assert.Equal(t, "SELECT _Code FROM _Reference123\n", out)

	yamlOut := filepath.Join(t.TempDir(), "out.yaml")
	_, _, err = run(t, "", "catalog", "export", store, yamlOut)
	require.NoError(t, err)
	out, _, err = run(t, "", "catalog", "databases", "-c", yamlOut)
	require.NoError(t, err)
	assert.Contains(t, out, "erp")
	assert.Contains(t, out, "archive")
}

func TestRefCmd(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "", "ref", "encode", "123", "01020304-0506-0708-090a-0b0c0d0e0f10", "-o", "json")
	require.NoError(t, err)
	var enc refOutput
	require.NoError(t, json.Unmarshal([]byte(out), &enc))
	assert.Equal(t, "0x0000007B0403020106050807090A0B0C0D0E0F10", enc.Literal)

	out, _, err = run(t, "", "ref", "decode", enc.Literal, "-o", "json")
	require.NoError(t, err)
	var dec refOutput
	require.NoError(t, json.Unmarshal([]byte(out), &dec))
	assert.Equal(t, enc, dec)

	_, _, err = run(t, "", "ref", "decode", "0x00")
	require.Error(t, err)
	_, _, err = run(t, "", "ref", "encode", "x", "01020304-0506-0708-090a-0b0c0d0e0f10")
	require.Error(t, err)
}

func TestVersionCmd(t *testing.T) {
	isolate(t)
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "metaql version dev (commit: none)\n", out)
}

func TestOutputValidation(t *testing.T) {
	isolate(t)
	_, _, err := run(t, "", "version", "-o", "xml")
	require.ErrorContains(t, err, "unsupported output format")
}

func TestProfilePrecedence(t *testing.T) {
	isolate(t)
	cat := writeCatalog(t)

	_, _, err := run(t, "", "config", "set-profile", "--name", "default", "--catalog", cat, "--database", "archive")
	require.NoError(t, err)

	// profile supplies catalog and database
	out, _, err := run(t, "SELECT Наименование FROM Справочник.Номенклатура", "rewrite")
	require.NoError(t, err)
	assert.Equal(t, "SELECT _Description FROM _Reference77\n", out)

	// env beats profile
	t.Setenv("METAQL_MAIN_DATABASE", "erp")
	out, _, err = run(t, "SELECT Наименование FROM Справочник.Номенклатура", "rewrite")
	require.NoError(t, err)
	assert.Equal(t, "SELECT _Description FROM _Reference123\n", out)

	// flag beats env
	out, _, err = run(t, "SELECT Наименование FROM Справочник.Номенклатура", "rewrite", "-d", "archive")
	require.NoError(t, err)
	assert.Equal(t, "SELECT _Description FROM _Reference77\n", out)

	_, _, err = run(t, "", "version", "-p", "missing")
	require.ErrorContains(t, err, `profile "missing" not found`)
}
