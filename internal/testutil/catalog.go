// Package testutil provides a shared metadata catalog fixture for tests
// across the codebase, in the spirit of net/http/httptest.
//
// The fixture has a main database "erp" with catalogs, a document with a
// table part, a register and an enumeration, plus an "archive" database
// used by cross-database tests.
package testutil

import (
	"bytes"
	_ "embed"
	"testing"

	"metaql/catalog"
)

// CatalogYAML is the fixture in its YAML form.
//
//go:embed testdata/catalog.yaml
var CatalogYAML []byte

// Catalog decodes the fixture, failing the test on error.
func Catalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Decode(bytes.NewReader(CatalogYAML))
	if err != nil {
		t.Fatalf("decode fixture catalog: %v", err)
	}
	return c
}
