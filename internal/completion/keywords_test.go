package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaql/internal/domain"
)

func TestKeywords_Match(t *testing.T) {
	kw := DefaultKeywords()
	assert.Equal(t, []string{domain.MarkerCatalog}, kw.Match("cat"))
	assert.Equal(t, []string{domain.MarkerCatalog}, kw.Match("спр"))
	assert.Equal(t, []string{domain.MarkerAccumulationRegister, domain.MarkerAccountingRegister}, kw.Match("Acc"))
	assert.Equal(t, domain.Markers(), kw.Match(""))
	assert.Empty(t, kw.Match("xyz"))
}

func TestLoadKeywords(t *testing.T) {
	kw, err := LoadKeywords([]byte("Документ: [Doc]\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{domain.MarkerDocument}, kw.Match("doc"))

	_, err = LoadKeywords([]byte("Таблица: [Tab]\n"))
	require.Error(t, err)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = LoadKeywords([]byte("[not a map"))
	assert.Error(t, err)
}

func TestKeywords_MarkersIsACopy(t *testing.T) {
	kw := DefaultKeywords()
	m := kw.Markers()
	m[0] = "changed"
	assert.NotEqual(t, "changed", kw.Markers()[0])
}
