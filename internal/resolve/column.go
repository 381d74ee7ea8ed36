package resolve

import (
	"fmt"
	"strings"

	"metaql/catalog"
	"metaql/internal/domain"
	"metaql/internal/scope"
)

// Pseudo is a pseudo-field suffix of a reference column.
type Pseudo int

// PseudoNone and friends enumerate pseudo-fields. The names are case
// sensitive: .type is the referenced type code, .TYPE the value-kind
// discriminator.
const (
	PseudoNone Pseudo = iota
	PseudoUUID        // .uuid
	PseudoType        // .type
	PseudoKind        // .TYPE
)

func (p Pseudo) String() string {
	switch p {
	case PseudoUUID:
		return "uuid"
	case PseudoType:
		return "type"
	case PseudoKind:
		return "TYPE"
	}
	return ""
}

// ParsePseudo recognizes a pseudo-field name.
func ParsePseudo(s string) Pseudo {
	switch s {
	case "uuid":
		return PseudoUUID
	case "type":
		return PseudoType
	case "TYPE":
		return PseudoKind
	}
	return PseudoNone
}

// ColumnResolution is a column reference mapped onto a property.
type ColumnResolution struct {
	Table    *scope.Table
	Object   *domain.ApplicationObject
	Property *domain.MetadataProperty
	Pseudo   Pseudo
	// Qualified reports whether the reference named its table.
	Qualified bool
}

// ResolveTables attaches application objects to every table leaf of the
// tree and reports unknown entities and structural problems.
func (r *Resolver) ResolveTables(tree *scope.Tree) []Warning {
	var warns []Warning
	for _, w := range tree.Warnings {
		warns = append(warns, Warning{Code: WarnDuplicateAlias, Span: w.Span, Message: w.Message})
	}
	for _, t := range tree.Tables() {
		res, w := r.ResolveTable(t.Ref.Name)
		if w != nil {
			warns = append(warns, *w)
		}
		t.Object = res.Object
		t.Database = res.Entity.Database
	}
	return warns
}

// ResolveColumn maps a column reference leaf onto a property. It returns
// ok=false when the reference does not name a property of a metadata
// table; a warning accompanies failures that involve metadata tables.
func (r *Resolver) ResolveColumn(col *scope.Column) (ColumnResolution, bool, *Warning) {
	if col.Ref == nil {
		return ColumnResolution{}, false, nil
	}
	parts := col.Ref.Names()
	warn := func(code int, format string, args ...any) *Warning {
		return &Warning{Code: code, Span: col.Ref.Span(), Message: fmt.Sprintf(format, args...)}
	}

	// Qualified: the longest prefix naming a visible table source.
	for k := len(parts) - 1; k >= 1; k-- {
		src := scope.LookupOutward(col.Parent(), strings.Join(parts[:k], "."))
		if src == nil {
			continue
		}
		rest := parts[k:]
		switch v := src.(type) {
		case *scope.Table:
			if v.Object == nil {
				return ColumnResolution{}, false, nil
			}
			name, pseudo, ok := splitPseudo(rest)
			if !ok {
				return ColumnResolution{}, false, warn(WarnUnknownProperty, "cannot resolve %s against %s", col.Name, v.Object.QualifiedName())
			}
			prop := v.Object.Property(name)
			if prop == nil {
				return ColumnResolution{}, false, warn(WarnUnknownProperty, "%s has no property %q", v.Object.QualifiedName(), name)
			}
			return ColumnResolution{Table: v, Object: v.Object, Property: prop, Pseudo: pseudo, Qualified: true}, true, nil
		case *scope.Derived:
			if hasMetadata(v.FlattenTables()) {
				return ColumnResolution{}, false, warn(WarnSubqueryBoundary, "%s refers to derived table %q and is not resolvable inline", col.Name, v.Alias)
			}
			return ColumnResolution{}, false, nil
		case *scope.CTERef:
			if hasMetadata(v.CTE.FlattenTables()) {
				return ColumnResolution{}, false, warn(WarnSubqueryBoundary, "%s refers to common table expression %q and is not resolvable inline", col.Name, v.Name)
			}
			return ColumnResolution{}, false, nil
		}
		return ColumnResolution{}, false, nil
	}

	// Unaliased: the first unaliased metadata table of the current scope
	// defining the property.
	name, pseudo, ok := splitPseudo(parts)
	if !ok {
		return ColumnResolution{}, false, nil
	}
	stmt := col.Statement()
	if stmt == nil {
		return ColumnResolution{}, false, nil
	}
	candidates := unaliased(stmt.Tables())
	var found []ColumnResolution
	for _, t := range candidates {
		if prop := t.Object.Property(name); prop != nil {
			found = append(found, ColumnResolution{Table: t, Object: t.Object, Property: prop, Pseudo: pseudo})
		}
	}
	switch {
	case len(found) > 1:
		return found[0], true, warn(WarnAmbiguousProperty, "property %q is defined by %d unaliased tables; using %s",
			name, len(found), found[0].Object.QualifiedName())
	case len(found) == 1:
		return found[0], true, nil
	}
	if len(candidates) > 0 && !isSelectAlias(stmt, name) {
		return ColumnResolution{}, false, warn(WarnUnknownProperty, "no unaliased table defines property %q", name)
	}
	return ColumnResolution{}, false, nil
}

// splitPseudo reads Name or Name.pseudo.
func splitPseudo(parts []string) (string, Pseudo, bool) {
	switch len(parts) {
	case 1:
		return parts[0], PseudoNone, true
	case 2:
		if p := ParsePseudo(parts[1]); p != PseudoNone {
			return parts[0], p, true
		}
	}
	return "", PseudoNone, false
}

// unaliased lists the metadata tables without an alias, descending into
// joins but not into derived tables.
func unaliased(sources []scope.Node) []*scope.Table {
	var out []*scope.Table
	for _, n := range sources {
		switch v := n.(type) {
		case *scope.Table:
			if v.Alias == "" && v.Object != nil {
				out = append(out, v)
			}
		case *scope.Join:
			out = append(out, unaliased(v.Tables())...)
		}
	}
	return out
}

func hasMetadata(tables []*scope.Table) bool {
	for _, t := range tables {
		if t.Object != nil {
			return true
		}
	}
	return false
}

func isSelectAlias(stmt *scope.Statement, name string) bool {
	for _, c := range stmt.Columns {
		if c.Alias != "" && catalog.Fold(c.Alias) == catalog.Fold(name) {
			return true
		}
	}
	return false
}
