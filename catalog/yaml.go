package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"metaql/internal/domain"
)

// catalogFile is the YAML document layout:
//
//	main: erp
//	databases:
//	  - name: erp
//	    objects:
//	      - kind: catalog
//	        name: Номенклатура
//	        type_code: 123
//	        table: _Reference123
//	        properties:
//	          - name: Ссылка
//	            purpose: system
//	            fields: [{name: _IDRRef}]
type catalogFile struct {
	Main      string         `yaml:"main"`
	Databases []databaseFile `yaml:"databases"`
}

type databaseFile struct {
	Name    string       `yaml:"name"`
	Objects []objectFile `yaml:"objects"`
}

type objectFile struct {
	Kind       string         `yaml:"kind,omitempty"`
	Name       string         `yaml:"name"`
	TypeCode   int            `yaml:"type_code,omitempty"`
	Table      string         `yaml:"table"`
	Properties []propertyFile `yaml:"properties,omitempty"`
	TableParts []objectFile   `yaml:"table_parts,omitempty"`
}

type propertyFile struct {
	Name              string      `yaml:"name"`
	Purpose           string      `yaml:"purpose,omitempty"`
	Reference         bool        `yaml:"reference,omitempty"`
	ReferenceType     string      `yaml:"reference_type,omitempty"`
	ReferenceTypeCode int         `yaml:"reference_type_code,omitempty"`
	Fields            []fieldFile `yaml:"fields"`
}

type fieldFile struct {
	Name    string `yaml:"name"`
	Purpose string `yaml:"purpose,omitempty"`
}

// Decode reads a catalog from its YAML form.
func Decode(r io.Reader) (*Catalog, error) {
	var doc catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, domain.ErrValidation("empty catalog document")
		}
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	return doc.build()
}

// Encode writes a catalog in its YAML form.
func Encode(w io.Writer, c *Catalog) error {
	doc := catalogFile{Main: c.main.name}
	for _, ib := range c.Databases() {
		df := databaseFile{Name: ib.name}
		for _, obj := range ib.All() {
			df.Objects = append(df.Objects, encodeObject(obj))
		}
		doc.Databases = append(doc.Databases, df)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog yaml: %w", err)
	}
	return enc.Close()
}

// LoadFile loads a catalog from a YAML document (.yaml, .yml) or a SQLite
// metadata store (.db, .sqlite, .sqlite3).
func LoadFile(ctx context.Context, path string) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		c, err := Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return c, nil
	case ".db", ".sqlite", ".sqlite3":
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("open catalog store: %w", err)
		}
		store, err := OpenStore(ctx, path)
		if err != nil {
			return nil, err
		}
		defer store.Close() //nolint:errcheck
		return store.Load(ctx)
	}
	return nil, domain.ErrValidation("unsupported catalog file %q: want .yaml, .yml, .db, .sqlite or .sqlite3", path)
}

func (doc *catalogFile) build() (*Catalog, error) {
	if len(doc.Databases) == 0 {
		return nil, domain.ErrValidation("catalog declares no databases")
	}
	mainName := doc.Main
	if mainName == "" {
		mainName = doc.Databases[0].Name
	}
	var main *InfoBase
	var others []*InfoBase
	for _, df := range doc.Databases {
		ib := NewInfoBase(df.Name)
		for _, of := range df.Objects {
			obj, err := of.build(false)
			if err != nil {
				return nil, fmt.Errorf("database %q: %w", df.Name, err)
			}
			if err := ib.Add(obj); err != nil {
				return nil, err
			}
		}
		if main == nil && Fold(df.Name) == Fold(mainName) {
			main = ib
		} else {
			others = append(others, ib)
		}
	}
	if main == nil {
		return nil, domain.ErrNotFound("main database %q is not declared", mainName)
	}
	return New(main, others...)
}

func (of *objectFile) build(part bool) (*domain.ApplicationObject, error) {
	kind := domain.KindTablePart
	if !part {
		var err error
		if kind, err = domain.ParseKind(of.Kind); err != nil {
			return nil, fmt.Errorf("object %q: %w", of.Name, err)
		}
	}
	obj := &domain.ApplicationObject{
		Name:      of.Name,
		Kind:      kind,
		TypeCode:  of.TypeCode,
		TableName: of.Table,
	}
	if obj.TableName == "" {
		return nil, domain.ErrValidation("object %q has no table", of.Name)
	}
	seen := make(map[string]bool)
	for _, pf := range of.Properties {
		if seen[Fold(pf.Name)] {
			return nil, domain.ErrConflict("object %q: duplicate property %q", of.Name, pf.Name)
		}
		seen[Fold(pf.Name)] = true
		p, err := pf.build()
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", of.Name, err)
		}
		obj.Properties = append(obj.Properties, p)
	}
	for _, tf := range of.TableParts {
		tp, err := tf.build(true)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", of.Name, err)
		}
		obj.TableParts = append(obj.TableParts, tp)
	}
	return obj, nil
}

func (pf *propertyFile) build() (*domain.MetadataProperty, error) {
	purpose, err := domain.ParsePropertyPurpose(pf.Purpose)
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", pf.Name, err)
	}
	p := &domain.MetadataProperty{
		Name:              pf.Name,
		Purpose:           purpose,
		IsReference:       pf.Reference || pf.ReferenceType != "" || pf.ReferenceTypeCode != 0,
		ReferenceType:     pf.ReferenceType,
		ReferenceTypeCode: pf.ReferenceTypeCode,
	}
	for _, ff := range pf.Fields {
		fp, err := domain.ParseFieldPurpose(ff.Purpose)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", pf.Name, err)
		}
		p.Fields = append(p.Fields, domain.DatabaseField{Name: ff.Name, Purpose: fp})
	}
	if err := validateFields(p); err != nil {
		return nil, err
	}
	return p, nil
}

// validateFields checks the field layout against the property shape: a
// composite reference needs one object field and one type-code field.
func validateFields(p *domain.MetadataProperty) error {
	if len(p.Fields) == 0 {
		return domain.ErrValidation("property %q has no fields", p.Name)
	}
	if p.Shape() != domain.ShapeCompositeReference {
		return nil
	}
	for _, want := range []domain.FieldPurpose{domain.FieldObject, domain.FieldTypeCode} {
		n := 0
		for _, f := range p.Fields {
			if f.Purpose == want {
				n++
			}
		}
		if n != 1 {
			return domain.ErrValidation("composite property %q needs exactly one %s field, has %d", p.Name, want, n)
		}
	}
	return nil
}

func encodeObject(obj *domain.ApplicationObject) objectFile {
	of := objectFile{Name: obj.Name, TypeCode: obj.TypeCode, Table: obj.TableName}
	if obj.Kind != domain.KindTablePart {
		of.Kind = obj.Kind.String()
	}
	for _, p := range obj.Properties {
		pf := propertyFile{
			Name:              p.Name,
			Reference:         p.IsReference,
			ReferenceType:     p.ReferenceType,
			ReferenceTypeCode: p.ReferenceTypeCode,
		}
		if p.Purpose != domain.PurposeProperty {
			pf.Purpose = p.Purpose.String()
		}
		for _, f := range p.Fields {
			ff := fieldFile{Name: f.Name}
			if f.Purpose != domain.FieldValue {
				ff.Purpose = f.Purpose.String()
			}
			pf.Fields = append(pf.Fields, ff)
		}
		of.Properties = append(of.Properties, pf)
	}
	for _, tp := range obj.TableParts {
		of.TableParts = append(of.TableParts, encodeObject(tp))
	}
	return of
}
