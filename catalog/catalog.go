package catalog

import (
	"fmt"
	"sort"

	"metaql/internal/domain"
)

// Catalog is the set of named databases visible to a rewriting session.
// One database is the main database; the others are addressed by name in
// cross-database statements.
type Catalog struct {
	main      *InfoBase
	databases map[string]*InfoBase
}

// New builds a catalog and links reference type codes in every database.
// Database names must be unique, ignoring case.
func New(main *InfoBase, others ...*InfoBase) (*Catalog, error) {
	if main == nil {
		return nil, domain.ErrValidation("catalog requires a main database")
	}
	c := &Catalog{main: main, databases: make(map[string]*InfoBase)}
	for _, ib := range append([]*InfoBase{main}, others...) {
		key := Fold(ib.name)
		if _, dup := c.databases[key]; dup {
			return nil, domain.ErrConflict("duplicate database %q", ib.name)
		}
		c.databases[key] = ib
	}
	for _, ib := range c.databases {
		if err := ib.link(); err != nil {
			return nil, fmt.Errorf("link database %q: %w", ib.name, err)
		}
	}
	return c, nil
}

// Main returns the default database.
func (c *Catalog) Main() *InfoBase { return c.main }

// Database returns the database with the given name; "" means main.
func (c *Catalog) Database(name string) *InfoBase {
	if name == "" {
		return c.main
	}
	return c.databases[Fold(name)]
}

// Databases returns every database, main first and the rest by name.
func (c *Catalog) Databases() []*InfoBase {
	out := make([]*InfoBase, 0, len(c.databases))
	for _, ib := range c.databases {
		if ib != c.main {
			out = append(out, ib)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return append([]*InfoBase{c.main}, out...)
}

// LookupEntity finds an object of the main database by marker and name.
func (c *Catalog) LookupEntity(marker, name string) *domain.ApplicationObject {
	return c.main.LookupEntity(marker, name)
}

// LookupEntityByCompound resolves a compound name in the named database
// ("" means main). Unknown databases resolve to nil.
func (c *Catalog) LookupEntityByCompound(database, compound string) *domain.ApplicationObject {
	ib := c.Database(database)
	if ib == nil {
		return nil
	}
	return ib.LookupCompound(compound)
}

// SearchEntities searches the main database.
func (c *Catalog) SearchEntities(marker, substring string) []*domain.ApplicationObject {
	return c.main.SearchEntities(marker, substring)
}

// WithMain returns a catalog sharing c's databases with name as the main
// database.
func (c *Catalog) WithMain(name string) (*Catalog, error) {
	ib := c.Database(name)
	if ib == nil {
		return nil, domain.ErrNotFound("database %q not found", name)
	}
	return &Catalog{main: ib, databases: c.databases}, nil
}
