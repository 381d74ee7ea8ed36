package sqlrewrite

import (
	"fmt"
	"strings"

	"metaql/internal/domain"
	"metaql/internal/resolve"
	"metaql/internal/scope"
	"metaql/internal/tsql"
)

// foldTypeOf replaces TYPEOF(entity) calls with the binary literal of the
// entity's type code. Calls that do not resolve stay as written.
func (rw *Rewriter) foldTypeOf(script *tsql.Script) []resolve.Warning {
	var warns []resolve.Warning
	warn := func(n tsql.Node, format string, args ...any) {
		warns = append(warns, resolve.Warning{Code: WarnTypeOfUnresolved, Span: n.Span(), Message: fmt.Sprintf(format, args...)})
	}

	tsql.Walk(script, func(n tsql.Node, slot tsql.Slot) bool {
		call, ok := n.(*tsql.FuncCall)
		if !ok || !strings.EqualFold(call.Name, scope.TypeOfFunction) {
			return true
		}
		if len(call.Args) != 1 {
			warn(call, "%s expects one entity name, got %d arguments", scope.TypeOfFunction, len(call.Args))
			return false
		}
		ref, ok := call.Args[0].(*tsql.ColumnRef)
		if !ok {
			warn(call, "%s expects an entity name", scope.TypeOfFunction)
			return false
		}
		res, w := rw.resolver.ResolveEntity(ref.Names())
		switch {
		case w != nil:
			w.Span = ref.Span()
			warns = append(warns, *w)
			return false
		case !res.IsEntity:
			warn(ref, "%s does not name a metadata object", ref)
			return false
		case res.Object.TypeCode == 0:
			warns = append(warns, resolve.Warning{
				Code:    WarnUnknownTypeCode,
				Span:    ref.Span(),
				Message: fmt.Sprintf("%s has no type code", res.Object.QualifiedName()),
			})
			return false
		}
		if err := tsql.Replace(slot, tsql.NewBinaryLiteral(domain.TypeCodeLiteral(res.Object.TypeCode))); err != nil {
			warns = append(warns, resolve.Warning{Code: WarnNotRewritable, Span: call.Span(), Message: err.Error()})
		}
		return false
	})
	return warns
}
