// Package catalog holds the metadata catalog: the application objects of one
// or more logical databases, one of which is the main database. A catalog is
// immutable once built and safe for concurrent readers.
package catalog

import (
	"strings"

	"metaql/internal/domain"
)

// InfoBase is one logical database of application objects.
type InfoBase struct {
	name      string
	objects   map[domain.Kind][]*domain.ApplicationObject
	byName    map[domain.Kind]map[string]*domain.ApplicationObject
	typeCodes map[int]*domain.ApplicationObject
}

// NewInfoBase creates an empty database with the given name.
func NewInfoBase(name string) *InfoBase {
	return &InfoBase{
		name:      name,
		objects:   make(map[domain.Kind][]*domain.ApplicationObject),
		byName:    make(map[domain.Kind]map[string]*domain.ApplicationObject),
		typeCodes: make(map[int]*domain.ApplicationObject),
	}
}

// Name returns the database name.
func (ib *InfoBase) Name() string { return ib.name }

// Add registers an object and wires its table parts to it. Names must be
// unique within a kind and non-zero type codes unique within the database.
func (ib *InfoBase) Add(obj *domain.ApplicationObject) error {
	if obj.Kind.Marker() == "" {
		return domain.ErrValidation("object %q: kind %s cannot be registered at top level", obj.Name, obj.Kind)
	}
	if obj.Name == "" {
		return domain.ErrValidation("%s object without a name", obj.Kind)
	}
	names := ib.byName[obj.Kind]
	if names == nil {
		names = make(map[string]*domain.ApplicationObject)
		ib.byName[obj.Kind] = names
	}
	key := Fold(obj.Name)
	if _, dup := names[key]; dup {
		return domain.ErrConflict("duplicate %s %q in database %q", obj.Kind, obj.Name, ib.name)
	}
	if obj.TypeCode != 0 {
		if other, dup := ib.typeCodes[obj.TypeCode]; dup {
			return domain.ErrConflict("type code %d of %s is already used by %s", obj.TypeCode, obj.QualifiedName(), other.QualifiedName())
		}
		ib.typeCodes[obj.TypeCode] = obj
	}
	for _, tp := range obj.TableParts {
		tp.Owner = obj
		tp.Kind = domain.KindTablePart
	}
	names[key] = obj
	ib.objects[obj.Kind] = append(ib.objects[obj.Kind], obj)
	return nil
}

// Entities returns the objects of one kind in registration order.
func (ib *InfoBase) Entities(kind domain.Kind) []*domain.ApplicationObject {
	return ib.objects[kind]
}

// All returns every top-level object, grouped by kind in presentation order.
func (ib *InfoBase) All() []*domain.ApplicationObject {
	var out []*domain.ApplicationObject
	for _, k := range domain.EntityKinds {
		out = append(out, ib.objects[k]...)
	}
	return out
}

// LookupEntity finds an object by kind marker and name.
func (ib *InfoBase) LookupEntity(marker, name string) *domain.ApplicationObject {
	kind, ok := domain.KindByMarker(marker)
	if !ok {
		return nil
	}
	return ib.byName[kind][Fold(name)]
}

// LookupByTypeCode finds an object by its type code.
func (ib *InfoBase) LookupByTypeCode(code int) *domain.ApplicationObject {
	return ib.typeCodes[code]
}

// LookupCompound resolves a '+'-joined compound name: Marker+Name or
// Marker+Owner+Part.
func (ib *InfoBase) LookupCompound(compound string) *domain.ApplicationObject {
	parts := strings.Split(compound, "+")
	if len(parts) < 2 || len(parts) > 3 {
		return nil
	}
	obj := ib.LookupEntity(parts[0], parts[1])
	if obj == nil || len(parts) == 2 {
		return obj
	}
	return obj.TablePart(parts[2])
}

// LookupQualified resolves a dotted name: Marker.Name or Marker.Owner.Part.
func (ib *InfoBase) LookupQualified(name string) *domain.ApplicationObject {
	return ib.LookupCompound(strings.ReplaceAll(name, ".", "+"))
}

// SearchEntities returns the objects whose name contains substring, ignoring
// case. An empty marker searches every kind; an unknown marker finds nothing.
func (ib *InfoBase) SearchEntities(marker, substring string) []*domain.ApplicationObject {
	kinds := domain.EntityKinds
	if marker != "" {
		kind, ok := domain.KindByMarker(marker)
		if !ok {
			return nil
		}
		kinds = []domain.Kind{kind}
	}
	var out []*domain.ApplicationObject
	for _, k := range kinds {
		for _, obj := range ib.objects[k] {
			if ContainsFold(obj.Name, substring) {
				out = append(out, obj)
			}
		}
	}
	return out
}

// link fills in reference type codes that can be derived from the catalog:
// the self reference of an object (or of a table part's owner) and
// references declared by qualified type name.
func (ib *InfoBase) link() error {
	for _, obj := range ib.All() {
		if err := ib.linkProperties(obj, obj.Properties); err != nil {
			return err
		}
		for _, tp := range obj.TableParts {
			if err := ib.linkProperties(tp, tp.Properties); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ib *InfoBase) linkProperties(obj *domain.ApplicationObject, props []*domain.MetadataProperty) error {
	for _, p := range props {
		if p.Shape() != domain.ShapeSimpleReference || p.ReferenceTypeCode != 0 {
			continue
		}
		switch {
		case p.IsSelfReference():
			owner := obj
			if obj.Owner != nil {
				owner = obj.Owner
			}
			p.ReferenceTypeCode = owner.TypeCode
		case p.ReferenceType != "":
			target := ib.LookupQualified(p.ReferenceType)
			if target == nil {
				return domain.ErrNotFound("%s.%s references unknown type %q", obj.QualifiedName(), p.Name, p.ReferenceType)
			}
			p.ReferenceTypeCode = target.TypeCode
		}
	}
	return nil
}
