package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMarkers(t *testing.T) {
	k, ok := KindByMarker("справочник")
	require.True(t, ok, "markers match case-insensitively")
	assert.Equal(t, KindCatalog, k)

	assert.True(t, IsKindMarker("РегистрНакопления"))
	assert.False(t, IsKindMarker("dbo"))
	assert.Equal(t, "", KindTablePart.Marker())
	assert.Len(t, Markers(), len(EntityKinds))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("information-register")
	require.NoError(t, err)
	assert.Equal(t, KindInformationRegister, k)

	k, err = ParseKind("Документ")
	require.NoError(t, err)
	assert.Equal(t, KindDocument, k)

	_, err = ParseKind("widget")
	assert.Error(t, err)
}

func TestMetadataProperty_Shape(t *testing.T) {
	tests := []struct {
		name string
		prop MetadataProperty
		want Shape
	}{
		{
			name: "value",
			prop: MetadataProperty{Name: "Код", Fields: []DatabaseField{{Name: "_Code"}}},
			want: ShapeValue,
		},
		{
			name: "simple_reference",
			prop: MetadataProperty{Name: "Контрагент", IsReference: true, Fields: []DatabaseField{{Name: "_Fld10RRef"}}},
			want: ShapeSimpleReference,
		},
		{
			name: "self_reference",
			prop: MetadataProperty{Name: ReferencePropertyName, Purpose: PurposeSystem, Fields: []DatabaseField{{Name: "_IDRRef"}}},
			want: ShapeSimpleReference,
		},
		{
			name: "composite_reference",
			prop: MetadataProperty{Name: OwnerPropertyName, IsReference: true, Fields: []DatabaseField{
				{Name: "_OwnerID_TYPE", Purpose: FieldDiscriminator},
				{Name: "_OwnerID_RTRef", Purpose: FieldTypeCode},
				{Name: "_OwnerID_RRRef", Purpose: FieldObject},
			}},
			want: ShapeCompositeReference,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.prop.Shape())
		})
	}
}

func TestMetadataProperty_Field(t *testing.T) {
	p := MetadataProperty{Fields: []DatabaseField{
		{Name: "_Fld1_RTRef", Purpose: FieldTypeCode},
		{Name: "_Fld1_RRRef", Purpose: FieldObject},
	}}
	f, ok := p.Field(FieldObject)
	require.True(t, ok)
	assert.Equal(t, "_Fld1_RRRef", f.Name)

	_, ok = p.Field(FieldDiscriminator)
	assert.False(t, ok)

	_, err := p.ValueField()
	assert.Error(t, err)
}

func TestApplicationObject_Names(t *testing.T) {
	doc := &ApplicationObject{Name: "Продажа", Kind: KindDocument, TypeCode: 12}
	part := &ApplicationObject{Name: "Товары", Kind: KindTablePart, Owner: doc}
	doc.TableParts = []*ApplicationObject{part}

	assert.Equal(t, "Документ.Продажа", doc.QualifiedName())
	assert.Equal(t, "Документ+Продажа", doc.CompoundName())
	assert.Equal(t, "Документ.Продажа.Товары", part.QualifiedName())
	assert.Equal(t, "Документ+Продажа+Товары", part.CompoundName())
	assert.Equal(t, MarkerDocument, part.Marker())
	assert.Same(t, part, doc.TablePart("товары"))
	assert.Nil(t, doc.TablePart("Оплата"))
}
