package sqlrewrite

import (
	"metaql/catalog"
	"metaql/internal/resolve"
	"metaql/internal/scope"
	"metaql/internal/tsql"
)

// rewriteTables replaces the name of every resolved entity table with its
// physical name. Kind markers stand in the schema slot, so the physical
// name leaves that slot empty: the bare table name in the main database,
// db..table in another one and srv.db..table through a linked server.
// Aliases are kept as written.
func (rw *Rewriter) rewriteTables(tree *scope.Tree) []resolve.Warning {
	var warns []resolve.Warning
	main := rw.Catalog().Main().Name()
	for _, t := range tree.Tables() {
		if t.Object == nil {
			continue
		}
		entity, _ := resolve.ParseEntityName(nameValues(t.Ref.Name))
		var name *tsql.SchemaObjectName
		switch {
		case entity.Server != "":
			name = tsql.NewSchemaObjectName(entity.Server, entity.Database, "", t.Object.TableName)
		case entity.Database != "" && catalog.Fold(entity.Database) != catalog.Fold(main):
			name = tsql.NewSchemaObjectName(entity.Database, "", t.Object.TableName)
		default:
			name = tsql.NewSchemaObjectName(t.Object.TableName)
		}
		slot := tsql.Slot{Parent: t.Ref, Field: "Name", Index: -1}
		if err := tsql.Replace(slot, name); err != nil {
			warns = append(warns, resolve.Warning{Code: WarnNotRewritable, Span: t.Ref.Span(), Message: err.Error()})
		}
	}
	return warns
}

func nameValues(name *tsql.SchemaObjectName) []string {
	values := make([]string, len(name.Parts))
	for i, p := range name.Parts {
		if p != nil {
			values[i] = p.Value
		}
	}
	return values
}
