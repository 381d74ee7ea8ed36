// Package resolve maps identifiers of a scope tree onto the metadata catalog:
// table names onto application objects, column references onto properties.
// Resolution is pure apart from filling in Table.Object on scope leaves.
package resolve

import (
	"fmt"
	"strings"

	"metaql/catalog"
	"metaql/internal/domain"
	"metaql/internal/tsql"
)

// Warning codes reported by resolution.
const (
	WarnUnknownDatabase   = 2001
	WarnUnknownEntity     = 2002
	WarnUnknownProperty   = 2003
	WarnAmbiguousProperty = 2004
	WarnSubqueryBoundary  = 2005
	WarnDuplicateAlias    = 2006
)

// Warning is a resolution problem located in the source text.
type Warning struct {
	Code    int
	Span    tsql.Span
	Message string
}

// EntityName is the positional reading of a multi-part table identifier
// that names an application object.
type EntityName struct {
	Server   string
	Database string // "" means the main database
	Marker   string
	Owner    string // owner of a table part, "" otherwise
	Name     string
}

// Compound returns the '+'-joined catalog name of the entity.
func (n EntityName) Compound() string {
	if n.Owner != "" {
		return n.Marker + "+" + n.Owner + "+" + n.Name
	}
	return n.Marker + "+" + n.Name
}

func (n EntityName) String() string {
	var parts []string
	if n.Server != "" {
		parts = append(parts, n.Server)
	}
	if n.Database != "" {
		parts = append(parts, n.Database)
	}
	parts = append(parts, n.Marker)
	if n.Owner != "" {
		parts = append(parts, n.Owner)
	}
	return strings.Join(append(parts, n.Name), ".")
}

// ParseEntityName reads [server, database, schema, table] slots from the
// right. The slot preceding the base identifier decides the shape:
//
//	Kind.Name, Kind.[Owner+Part], db.Kind.Name, srv.db.Kind.Name  schema slot is a marker
//	Kind.Owner.Part, db.Kind.Owner.Part                           database slot is a marker
//
// Empty slots are "". It reports false for anything else, such as plain
// physical tables.
func ParseEntityName(parts []string) (EntityName, bool) {
	at := func(n int) string {
		i := len(parts) - 1 - n
		if i < 0 {
			return ""
		}
		return parts[i]
	}
	if len(parts) < 2 || len(parts) > 4 || at(0) == "" {
		return EntityName{}, false
	}
	if domain.IsKindMarker(at(1)) {
		name := EntityName{Server: at(3), Database: at(2), Marker: at(1), Name: at(0)}
		if owner, part, ok := strings.Cut(name.Name, "+"); ok {
			if owner == "" || part == "" || strings.Contains(part, "+") {
				return EntityName{}, false
			}
			name.Owner, name.Name = owner, part
		}
		return name, true
	}
	if len(parts) >= 3 && domain.IsKindMarker(at(2)) && at(1) != "" {
		return EntityName{Database: at(3), Marker: at(2), Owner: at(1), Name: at(0)}, true
	}
	return EntityName{}, false
}

// TableResolution is the outcome of resolving a table identifier.
type TableResolution struct {
	Entity EntityName
	// Object is nil when the identifier does not name an entity or the
	// entity is unknown.
	Object *domain.ApplicationObject
	// IsEntity reports whether the identifier has the shape of an entity
	// reference, known or not.
	IsEntity bool
}

// Resolver resolves identifiers against a catalog.
type Resolver struct {
	cat *catalog.Catalog
}

// New returns a resolver over cat.
func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Catalog returns the catalog the resolver reads.
func (r *Resolver) Catalog() *catalog.Catalog { return r.cat }

// ResolveTable resolves a table name. Plain tables resolve to the zero
// resolution without a warning; entity-shaped names that the catalog does
// not know produce one.
func (r *Resolver) ResolveTable(name *tsql.SchemaObjectName) (TableResolution, *Warning) {
	if name == nil {
		return TableResolution{}, nil
	}
	values := make([]string, len(name.Parts))
	for i, p := range name.Parts {
		if p != nil {
			values[i] = p.Value
		}
	}
	res, w := r.ResolveEntity(values)
	if w != nil {
		w.Span = name.Span()
	}
	return res, w
}

// ResolveEntity resolves positional name parts; see ParseEntityName.
func (r *Resolver) ResolveEntity(parts []string) (TableResolution, *Warning) {
	entity, ok := ParseEntityName(parts)
	if !ok {
		return TableResolution{}, nil
	}
	res := TableResolution{Entity: entity, IsEntity: true}
	ib := r.cat.Database(entity.Database)
	if ib == nil {
		return res, &Warning{Code: WarnUnknownDatabase, Message: fmt.Sprintf("unknown database %q in %s", entity.Database, entity)}
	}
	res.Object = ib.LookupCompound(entity.Compound())
	if res.Object == nil {
		return res, &Warning{Code: WarnUnknownEntity, Message: fmt.Sprintf("unknown metadata object %s", entity)}
	}
	return res, nil
}
