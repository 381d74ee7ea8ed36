// Package completion finds what the identifier under an editor cursor
// refers to and suggests metadata names for it.
//
// Context resolution tries two strategies in order. The structural strategy
// walks the parse tree to the deepest table or column leaf under the cursor.
// The lexical strategy reads the raw token stream and only runs when the
// script did not parse cleanly, which is the normal state of a query being
// typed.
package completion

import (
	"strings"

	"metaql/internal/scope"
	"metaql/internal/tsql"
)

// Kind classifies a completion context.
type Kind int

// ContextNone and friends enumerate context kinds.
const (
	ContextNone Kind = iota
	ContextTable
	ContextColumn
)

func (k Kind) String() string {
	switch k {
	case ContextTable:
		return "table"
	case ContextColumn:
		return "column"
	}
	return "none"
}

// Context is the identifier under the cursor together with the span that a
// chosen suggestion replaces.
type Context struct {
	Kind   Kind
	Cursor int
	// Offset and Length give the replacement span in runes.
	Offset int
	Length int
	// Identifier is the raw text of the span as typed, quotes included.
	Identifier string
	// Parts holds the unquoted name parts of Identifier.
	Parts []string
	// Scope is the scope enclosing a column identifier.
	Scope scope.Scope
}

// Span returns the replacement span.
func (c Context) Span() tsql.Span {
	return tsql.Span{Start: c.Offset, End: c.Offset + c.Length}
}

// strategy finds a context at cursor or returns the zero Context.
type strategy interface {
	resolve(script *tsql.Script, tree *scope.Tree, cursor int) Context
}

// Resolve returns the completion context at cursor. broken reports that
// parsing produced diagnostics, which enables the lexical fallback; a
// script without statements always gets it.
func Resolve(script *tsql.Script, tree *scope.Tree, cursor int, broken bool) Context {
	strategies := []strategy{structural{}}
	if broken || len(script.Statements) == 0 {
		strategies = append(strategies, lexical{})
	}
	for _, s := range strategies {
		if ctx := s.resolve(script, tree, cursor); ctx.Kind != ContextNone {
			ctx.Cursor = cursor
			return ctx
		}
	}
	return Context{Cursor: cursor}
}

// structural descends from the script through the children whose span
// contains the cursor and keeps the deepest node that is a scope leaf.
type structural struct{}

func (structural) resolve(script *tsql.Script, tree *scope.Tree, cursor int) Context {
	var leaf scope.Node
	for n := tsql.Node(script); n != nil; {
		var next tsql.Node
		for _, c := range tsql.Children(n) {
			if c.Node.Span().Contains(cursor) {
				next = c.Node
				break
			}
		}
		if next != nil {
			if l := tree.LeafAt(next); l != nil {
				leaf = l
			}
		}
		n = next
	}

	switch v := leaf.(type) {
	case *scope.Table:
		name := v.Ref.Name
		if name == nil || !name.Span().Contains(cursor) {
			return Context{}
		}
		return Context{
			Kind:       ContextTable,
			Offset:     name.Span().Start,
			Length:     name.Span().Len(),
			Identifier: sourceText(script, name.Span()),
			Parts:      nameParts(name),
		}
	case *scope.Column:
		span := v.Ref.Span()
		return Context{
			Kind:       ContextColumn,
			Offset:     span.Start,
			Length:     span.Len(),
			Identifier: sourceText(script, span),
			Parts:      v.Ref.Names(),
			Scope:      v.Parent(),
		}
	}
	return Context{}
}

// lexical reconstructs a table identifier from the tokens left of the
// cursor when the nearest keyword before it is FROM or JOIN.
type lexical struct{}

func (lexical) resolve(script *tsql.Script, _ *scope.Tree, cursor int) Context {
	toks := script.Tokens
	at := -1
	for i, t := range toks {
		if t.Type != tsql.TOKEN_EOF && t.Contains(cursor) {
			at = i
			break
		}
	}
	if at < 0 {
		return Context{}
	}
	switch toks[at].Type {
	case tsql.TOKEN_WHITESPACE, tsql.TOKEN_IDENT, tsql.TOKEN_QUOTED_IDENT, tsql.TOKEN_DOT:
	default:
		return Context{}
	}

	keyword := tsql.TOKEN_EOF
	for i := at - 1; i >= 0; i-- {
		if toks[i].Type.IsKeyword() {
			keyword = toks[i].Type
			break
		}
	}
	if keyword != tsql.TOKEN_FROM && keyword != tsql.TOKEN_JOIN {
		return Context{}
	}

	if toks[at].Type == tsql.TOKEN_WHITESPACE {
		return Context{Kind: ContextTable, Offset: cursor, Parts: []string{""}}
	}
	start := at
	for start > 0 && isNameToken(toks[start-1].Type) {
		start--
	}
	var raw strings.Builder
	parts := []string{""}
	for _, t := range toks[start : at+1] {
		raw.WriteString(t.Literal)
		if t.Type == tsql.TOKEN_DOT {
			parts = append(parts, "")
			continue
		}
		parts[len(parts)-1] += t.Value()
	}
	return Context{
		Kind:       ContextTable,
		Offset:     toks[start].Offset,
		Length:     toks[at].End() - toks[start].Offset,
		Identifier: raw.String(),
		Parts:      parts,
	}
}

func isNameToken(t tsql.TokenType) bool {
	return t == tsql.TOKEN_DOT || t == tsql.TOKEN_IDENT || t == tsql.TOKEN_QUOTED_IDENT
}

// sourceText returns the verbatim text of the tokens inside span.
func sourceText(script *tsql.Script, span tsql.Span) string {
	var b strings.Builder
	for _, t := range script.Tokens {
		if t.Offset >= span.Start && t.End() <= span.End && t.Type != tsql.TOKEN_EOF {
			b.WriteString(t.Literal)
		}
	}
	return b.String()
}

func nameParts(name *tsql.SchemaObjectName) []string {
	out := make([]string, len(name.Parts))
	for i, p := range name.Parts {
		if p != nil {
			out[i] = p.Value
		}
	}
	return out
}
