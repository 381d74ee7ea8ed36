package completion

import (
	"sort"
	"strings"

	"metaql/catalog"
	"metaql/internal/domain"
	"metaql/internal/resolve"
	"metaql/internal/scope"
	"metaql/internal/tsql"
)

// Category values for suggestions that are not entities or properties.
const (
	CategoryKind   = "kind"
	CategoryPseudo = "pseudo"
)

// Rank orders suggestions: prefix matches before substring matches.
const (
	RankPrefix    = 0
	RankSubstring = 1
)

// Suggestion is one completion item. Every suggestion of a list replaces
// the same span.
type Suggestion struct {
	Text   string
	Offset int
	Length int
	// Category is the entity kind, property purpose, or one of the
	// Category constants.
	Category string
	Rank     int
}

// Completer suggests metadata names against one catalog snapshot. It is
// safe for concurrent use.
type Completer struct {
	resolver *resolve.Resolver
	keywords *Keywords
}

// New returns a completer over cat using the built-in keyword table.
func New(cat *catalog.Catalog) *Completer {
	return NewWithKeywords(cat, DefaultKeywords())
}

// NewWithKeywords returns a completer with a custom keyword table.
func NewWithKeywords(cat *catalog.Catalog, kw *Keywords) *Completer {
	return &Completer{resolver: resolve.New(cat), keywords: kw}
}

// Complete parses text and returns the suggestions for the identifier at
// cursor, a rune offset. Parse diagnostics are returned alongside; they
// never prevent completion.
func (c *Completer) Complete(text string, cursor int) ([]Suggestion, []tsql.Diagnostic) {
	ctx, diags := c.Context(text, cursor)
	return c.Suggest(ctx), diags
}

// Context parses text and resolves the completion context at cursor.
func (c *Completer) Context(text string, cursor int) (Context, []tsql.Diagnostic) {
	script, diags := tsql.Parse(text)
	if cursor < 0 || cursor > len([]rune(text)) {
		return Context{Cursor: cursor}, diags
	}
	tree := scope.Build(script)
	c.resolver.ResolveTables(tree)
	return Resolve(script, tree, cursor, len(diags) > 0), diags
}

// Suggest lists the suggestions for a resolved context, ordered by rank
// and then by text.
func (c *Completer) Suggest(ctx Context) []Suggestion {
	var out []Suggestion
	switch ctx.Kind {
	case ContextTable:
		out = c.tables(ctx)
	case ContextColumn:
		out = c.columns(ctx)
	default:
		return nil
	}
	for i := range out {
		out[i].Offset, out[i].Length = ctx.Offset, ctx.Length
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].Text < out[j].Text
	})
	return out
}

func (c *Completer) tables(ctx Context) []Suggestion {
	cat := c.resolver.Catalog()
	parts := ctx.Parts
	if len(parts) == 0 {
		parts = []string{""}
	}
	ib, prefix := cat.Main(), ""
	if len(parts) >= 2 && !domain.IsKindMarker(parts[0]) {
		if db := cat.Database(parts[0]); db != nil {
			ib, prefix = db, parts[0]+"."
			parts = parts[1:]
		}
	}

	var out []Suggestion
	switch {
	case len(parts) == 2 && domain.IsKindMarker(parts[0]):
		for _, obj := range ib.SearchEntities(parts[0], parts[1]) {
			out = append(out, entitySuggestion(prefix, obj, parts[1]))
		}
	case len(parts) == 3 && domain.IsKindMarker(parts[0]):
		owner := ib.LookupEntity(parts[0], parts[1])
		if owner == nil {
			return nil
		}
		for _, tp := range owner.TableParts {
			if catalog.ContainsFold(tp.Name, parts[2]) {
				out = append(out, entitySuggestion(prefix, tp, parts[2]))
			}
		}
	case len(parts) == 1:
		for _, obj := range ib.SearchEntities("", parts[0]) {
			out = append(out, entitySuggestion(prefix, obj, parts[0]))
		}
		if len(out) == 0 {
			out = c.markers(prefix, parts[0])
		}
	}
	return out
}

func entitySuggestion(prefix string, obj *domain.ApplicationObject, query string) Suggestion {
	return Suggestion{Text: prefix + obj.QualifiedName(), Category: obj.Kind.String(), Rank: rank(obj.Name, query)}
}

// markers offers the kind markers themselves: those selected by the
// keyword table first, or all of them when none is.
func (c *Completer) markers(prefix, query string) []Suggestion {
	matched := c.keywords.Match(query)
	all := matched
	r := RankPrefix
	if len(matched) == 0 {
		all, r = c.keywords.Markers(), RankSubstring
	}
	out := make([]Suggestion, 0, len(all))
	for _, m := range all {
		out = append(out, Suggestion{Text: prefix + m, Category: CategoryKind, Rank: r})
	}
	return out
}

func (c *Completer) columns(ctx Context) []Suggestion {
	if ctx.Scope == nil || len(ctx.Parts) == 0 {
		return nil
	}
	query := ctx.Parts[len(ctx.Parts)-1]
	qualifier := ctx.Parts[:len(ctx.Parts)-1]

	if len(qualifier) == 0 {
		var out []Suggestion
		seen := make(map[string]bool)
		for _, t := range ctx.Scope.FlattenTables() {
			for _, s := range properties(t, t.Alias, query) {
				if !seen[s.Text] {
					seen[s.Text] = true
					out = append(out, s)
				}
			}
		}
		return out
	}

	if t := visibleTable(ctx.Scope, qualifier); t != nil {
		return properties(t, t.Key(), query)
	}
	// Table.Property.pseudo
	if len(qualifier) >= 2 {
		t := visibleTable(ctx.Scope, qualifier[:len(qualifier)-1])
		if t == nil {
			return nil
		}
		prop := t.Object.Property(qualifier[len(qualifier)-1])
		if prop == nil || prop.Shape() == domain.ShapeValue {
			return nil
		}
		var out []Suggestion
		for _, p := range []resolve.Pseudo{resolve.PseudoUUID, resolve.PseudoType, resolve.PseudoKind} {
			if strings.HasPrefix(strings.ToLower(p.String()), strings.ToLower(query)) {
				out = append(out, Suggestion{
					Text:     t.Key() + "." + prop.Name + "." + p.String(),
					Category: CategoryPseudo,
					Rank:     RankPrefix,
				})
			}
		}
		return out
	}
	return nil
}

// visibleTable finds the resolved metadata table that qualifier names from
// s, looking outward through enclosing scopes.
func visibleTable(s scope.Scope, qualifier []string) *scope.Table {
	t, ok := scope.LookupOutward(s, strings.Join(qualifier, ".")).(*scope.Table)
	if !ok || t.Object == nil {
		return nil
	}
	return t
}

// properties lists the properties of t whose name contains query,
// qualified by qualifier when it is not empty.
func properties(t *scope.Table, qualifier, query string) []Suggestion {
	if t.Object == nil {
		return nil
	}
	var out []Suggestion
	for _, p := range t.Object.Properties {
		if !catalog.ContainsFold(p.Name, query) {
			continue
		}
		text := p.Name
		if qualifier != "" {
			text = qualifier + "." + p.Name
		}
		out = append(out, Suggestion{Text: text, Category: p.Purpose.String(), Rank: rank(p.Name, query)})
	}
	return out
}

func rank(name, query string) int {
	if catalog.HasPrefixFold(name, query) {
		return RankPrefix
	}
	return RankSubstring
}
