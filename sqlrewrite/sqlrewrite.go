// Package sqlrewrite rewrites metadata-aware T-SQL into plain T-SQL over the
// physical schema.
//
// A script is parsed once; the passes then mutate the parse tree in place:
// parameter binding, TYPEOF folding, scope building and table resolution,
// column rewrite and finally table rewrite. The mutated tree is formatted
// back to text. Resolution problems never abort a rewrite; they are returned
// as warning diagnostics and the offending fragment stays as written.
package sqlrewrite

import (
	"metaql/catalog"
	"metaql/internal/resolve"
	"metaql/internal/scope"
	"metaql/internal/tsql"
)

// Warning codes reported by the rewrite passes. Resolution warnings use
// the 2001-2006 range of package resolve.
const (
	WarnPseudoOnValue    = 2101
	WarnCompositeScalar  = 2102
	WarnMissingField     = 2103
	WarnUnknownParameter = 2104
	WarnTypeOfUnresolved = 2105
	WarnNotRewritable    = 2106
	WarnUnknownTypeCode  = 2107
)

// Result is the outcome of a rewrite: the generated SQL and the diagnostics
// collected on the way. When the input has syntax errors SQL is the input
// text unchanged.
type Result struct {
	SQL         string
	Diagnostics []tsql.Diagnostic
}

// HasErrors reports whether any diagnostic is an error.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == tsql.SeverityError {
			return true
		}
	}
	return false
}

// Rewriter rewrites scripts against one catalog snapshot. It holds no
// per-request state and is safe for concurrent use.
type Rewriter struct {
	resolver *resolve.Resolver
}

// New returns a rewriter over cat.
func New(cat *catalog.Catalog) *Rewriter {
	return &Rewriter{resolver: resolve.New(cat)}
}

// Catalog returns the catalog the rewriter reads.
func (rw *Rewriter) Catalog() *catalog.Catalog { return rw.resolver.Catalog() }

// Rewrite rewrites text.
func (rw *Rewriter) Rewrite(text string) Result {
	return rw.rewrite(text, nil)
}

// RewriteWithParams binds params into the DECLARE statements of text and
// rewrites it. Keys may be given with or without the leading @.
func (rw *Rewriter) RewriteWithParams(text string, params map[string]any) Result {
	return rw.rewrite(text, params)
}

func (rw *Rewriter) rewrite(text string, params map[string]any) Result {
	script, diags := tsql.Parse(text)
	if len(diags) > 0 {
		return Result{SQL: text, Diagnostics: diags}
	}

	var warns []resolve.Warning
	if params != nil {
		warns = append(warns, bindParameters(script, params)...)
	}
	warns = append(warns, rw.foldTypeOf(script)...)

	tree := scope.Build(script)
	warns = append(warns, rw.resolver.ResolveTables(tree)...)
	warns = append(warns, rw.rewriteColumns(tree)...)
	warns = append(warns, rw.rewriteTables(tree)...)

	res := Result{SQL: tsql.Generate(script)}
	for _, w := range warns {
		res.Diagnostics = append(res.Diagnostics, script.Warning(w.Code, w.Span.Start, w.Message))
	}
	return res
}
