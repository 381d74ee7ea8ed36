package completion

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"metaql/catalog"
	"metaql/internal/domain"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// defaultKeywords is parsed once and never modified.
var defaultKeywords = mustLoadKeywords(keywordsYAML)

// Keywords maps each kind marker to the prefix variants that select it.
// A Keywords value is immutable after loading.
type Keywords struct {
	markers  []string
	variants map[string][]string
}

// LoadKeywords parses a keyword table. Every key must be a kind marker.
func LoadKeywords(data []byte) (*Keywords, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse keyword table: %w", err)
	}
	k := &Keywords{variants: make(map[string][]string, len(raw))}
	for marker, variants := range raw {
		if !domain.IsKindMarker(marker) {
			return nil, domain.ErrValidation("keyword table: %q is not a kind marker", marker)
		}
		k.variants[marker] = variants
	}
	k.markers = domain.Markers()
	return k, nil
}

func mustLoadKeywords(data []byte) *Keywords {
	k, err := LoadKeywords(data)
	if err != nil {
		panic(err)
	}
	return k
}

// DefaultKeywords returns the built-in keyword table.
func DefaultKeywords() *Keywords { return defaultKeywords }

// Match returns the markers selected by input: those that, or one of whose
// variants, start with input ignoring case. An empty input selects every
// marker.
func (k *Keywords) Match(input string) []string {
	var out []string
	for _, m := range k.markers {
		if k.matches(m, input) {
			out = append(out, m)
		}
	}
	return out
}

func (k *Keywords) matches(marker, input string) bool {
	if catalog.HasPrefixFold(marker, input) {
		return true
	}
	for _, v := range k.variants[marker] {
		if catalog.HasPrefixFold(v, input) {
			return true
		}
	}
	return false
}

// Markers returns every marker in presentation order.
func (k *Keywords) Markers() []string {
	return append([]string(nil), k.markers...)
}
