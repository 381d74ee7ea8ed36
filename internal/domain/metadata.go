package domain

import (
	"fmt"
	"strings"
)

// Kind is the category of an application object.
type Kind int

// KindUnknown and friends enumerate application object kinds.
const (
	KindUnknown Kind = iota
	KindCatalog
	KindDocument
	KindInformationRegister
	KindAccumulationRegister
	KindAccountingRegister
	KindPublication
	KindCharacteristic
	KindAccount
	KindEnumeration
	KindTablePart
)

var kindNames = map[Kind]string{
	KindCatalog:              "catalog",
	KindDocument:             "document",
	KindInformationRegister:  "information-register",
	KindAccumulationRegister: "accumulation-register",
	KindAccountingRegister:   "accounting-register",
	KindPublication:          "publication",
	KindCharacteristic:       "characteristic",
	KindAccount:              "account",
	KindEnumeration:          "enumeration",
	KindTablePart:            "table-part",
}

// Kind markers are the reserved schema keywords that name an object kind in
// a query, as in Справочник.Номенклатура.
const (
	MarkerCatalog              = "Справочник"
	MarkerDocument             = "Документ"
	MarkerInformationRegister  = "РегистрСведений"
	MarkerAccumulationRegister = "РегистрНакопления"
	MarkerAccountingRegister   = "РегистрБухгалтерии"
	MarkerPublication          = "ПланОбмена"
	MarkerCharacteristic       = "ПланВидовХарактеристик"
	MarkerAccount              = "ПланСчетов"
	MarkerEnumeration          = "Перечисление"
)

var kindMarkers = map[Kind]string{
	KindCatalog:              MarkerCatalog,
	KindDocument:             MarkerDocument,
	KindInformationRegister:  MarkerInformationRegister,
	KindAccumulationRegister: MarkerAccumulationRegister,
	KindAccountingRegister:   MarkerAccountingRegister,
	KindPublication:          MarkerPublication,
	KindCharacteristic:       MarkerCharacteristic,
	KindAccount:              MarkerAccount,
	KindEnumeration:          MarkerEnumeration,
}

// EntityKinds lists every kind that has a marker, in presentation order.
var EntityKinds = []Kind{
	KindEnumeration,
	KindCatalog,
	KindDocument,
	KindCharacteristic,
	KindAccount,
	KindPublication,
	KindInformationRegister,
	KindAccumulationRegister,
	KindAccountingRegister,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Marker returns the reserved keyword for the kind, or "" for table parts.
func (k Kind) Marker() string {
	return kindMarkers[k]
}

// ParseKind parses a kind name such as "catalog" or "information-register".
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	if k, ok := KindByMarker(s); ok {
		return k, nil
	}
	return KindUnknown, ErrValidation("unknown object kind %q", s)
}

// KindByMarker returns the kind named by a marker keyword, case-insensitively.
func KindByMarker(marker string) (Kind, bool) {
	for k, m := range kindMarkers {
		if strings.EqualFold(m, marker) {
			return k, true
		}
	}
	return KindUnknown, false
}

// IsKindMarker reports whether s is one of the reserved kind markers.
func IsKindMarker(s string) bool {
	_, ok := KindByMarker(s)
	return ok
}

// Markers returns the kind markers in presentation order.
func Markers() []string {
	out := make([]string, len(EntityKinds))
	for i, k := range EntityKinds {
		out[i] = k.Marker()
	}
	return out
}

// ApplicationObject is a named metadata entity stored as one physical table.
type ApplicationObject struct {
	Name       string
	Kind       Kind
	TypeCode   int
	TableName  string
	Properties []*MetadataProperty
	TableParts []*ApplicationObject
	Owner      *ApplicationObject // set for table parts
}

// Property returns the property with the given name (case-insensitive) or nil.
func (o *ApplicationObject) Property(name string) *MetadataProperty {
	for _, p := range o.Properties {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// TablePart returns the table part with the given name (case-insensitive) or nil.
func (o *ApplicationObject) TablePart(name string) *ApplicationObject {
	for _, tp := range o.TableParts {
		if strings.EqualFold(tp.Name, name) {
			return tp
		}
	}
	return nil
}

// Marker returns the kind marker of the object, or of its owner for a table part.
func (o *ApplicationObject) Marker() string {
	if o.Owner != nil {
		return o.Owner.Kind.Marker()
	}
	return o.Kind.Marker()
}

// QualifiedName returns the dotted query name: Справочник.Номенклатура or
// Документ.Продажа.Товары for a table part.
func (o *ApplicationObject) QualifiedName() string {
	if o.Owner != nil {
		return o.Owner.QualifiedName() + "." + o.Name
	}
	return o.Kind.Marker() + "." + o.Name
}

// CompoundName returns the '+'-joined name: Справочник+Номенклатура or
// Документ+Продажа+Товары.
func (o *ApplicationObject) CompoundName() string {
	if o.Owner != nil {
		return o.Owner.CompoundName() + "+" + o.Name
	}
	return o.Kind.Marker() + "+" + o.Name
}

func (o *ApplicationObject) String() string { return o.QualifiedName() }

// PropertyPurpose classifies a property within its object.
type PropertyPurpose int

// PurposeProperty and friends enumerate property purposes.
const (
	PurposeProperty PropertyPurpose = iota
	PurposeSystem
	PurposeDimension
	PurposeMeasure
	PurposeHierarchy
)

var purposeNames = map[PropertyPurpose]string{
	PurposeProperty:  "property",
	PurposeSystem:    "system",
	PurposeDimension: "dimension",
	PurposeMeasure:   "measure",
	PurposeHierarchy: "hierarchy",
}

func (p PropertyPurpose) String() string {
	if name, ok := purposeNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePropertyPurpose parses a purpose name; "" means property.
func ParsePropertyPurpose(s string) (PropertyPurpose, error) {
	if s == "" {
		return PurposeProperty, nil
	}
	for p, name := range purposeNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return PurposeProperty, ErrValidation("unknown property purpose %q", s)
}

// FieldPurpose classifies a physical column of a property.
type FieldPurpose int

// FieldValue and friends enumerate field purposes.
const (
	FieldValue         FieldPurpose = iota
	FieldObject                     // identity bytes of a reference
	FieldTypeCode                   // type code of a composite reference
	FieldDiscriminator              // value-kind discriminator of a composite reference
)

var fieldPurposeNames = map[FieldPurpose]string{
	FieldValue:         "value",
	FieldObject:        "object",
	FieldTypeCode:      "type-code",
	FieldDiscriminator: "discriminator",
}

func (p FieldPurpose) String() string {
	if name, ok := fieldPurposeNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParseFieldPurpose parses a field purpose name; "" means value.
func ParseFieldPurpose(s string) (FieldPurpose, error) {
	if s == "" {
		return FieldValue, nil
	}
	for p, name := range fieldPurposeNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return FieldValue, ErrValidation("unknown field purpose %q", s)
}

// DatabaseField is one physical column backing a property.
type DatabaseField struct {
	Name    string
	Purpose FieldPurpose
}

// Well-known system property names.
const (
	ReferencePropertyName = "Ссылка"
	OwnerPropertyName     = "Владелец"
)

// MetadataProperty is a typed attribute of an application object.
type MetadataProperty struct {
	Name              string
	Purpose           PropertyPurpose
	IsReference       bool
	ReferenceTypeCode int
	// ReferenceType is the qualified name of the single referenced object
	// (Справочник.Контрагенты), empty for composite or value properties.
	ReferenceType string
	Fields        []DatabaseField
}

// Shape is the storage classification of a property.
type Shape int

// ShapeValue and friends enumerate property shapes.
const (
	ShapeValue Shape = iota
	ShapeSimpleReference
	ShapeCompositeReference
)

func (s Shape) String() string {
	switch s {
	case ShapeSimpleReference:
		return "simple-reference"
	case ShapeCompositeReference:
		return "composite-reference"
	}
	return "value"
}

// Shape classifies the property: more than one field is a composite
// reference; a single field is a simple reference when the property is
// reference-capable and a plain value otherwise.
func (p *MetadataProperty) Shape() Shape {
	switch {
	case len(p.Fields) > 1:
		return ShapeCompositeReference
	case p.IsReference || p.IsSelfReference():
		return ShapeSimpleReference
	}
	return ShapeValue
}

// IsSelfReference reports whether p is the system property holding the
// object's own identity.
func (p *MetadataProperty) IsSelfReference() bool {
	return p.Purpose == PurposeSystem && p.Name == ReferencePropertyName
}

// Field returns the first field with the given purpose.
func (p *MetadataProperty) Field(purpose FieldPurpose) (DatabaseField, bool) {
	for _, f := range p.Fields {
		if f.Purpose == purpose {
			return f, true
		}
	}
	return DatabaseField{}, false
}

// ValueField returns the single physical field of a value or simple
// reference property.
func (p *MetadataProperty) ValueField() (DatabaseField, error) {
	if len(p.Fields) != 1 {
		return DatabaseField{}, fmt.Errorf("property %s has %d fields", p.Name, len(p.Fields))
	}
	return p.Fields[0], nil
}
