package api

import (
	"metaql/engine"
	"metaql/internal/domain"
	"metaql/internal/tsql"
	"metaql/sqlrewrite"
)

// RewriteRequest is the body of POST /v1/rewrite.
//
// Parameter values are JSON scalars, or one-key objects for binary types:
// {"uuid": "..."}, {"reference": "0x..."} and {"binary": "0x..."}.
type RewriteRequest struct {
	Script     string         `json:"script"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// RewriteResponse is the result of a rewrite.
type RewriteResponse struct {
	SQL         string       `json:"sql"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	HasErrors   bool         `json:"has_errors"`
}

// Diagnostic is a located problem. Offsets and columns count characters.
type Diagnostic struct {
	Code     int    `json:"code"`
	Severity string `json:"severity"`
	Offset   int    `json:"offset"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

// CompleteRequest is the body of POST /v1/complete.
type CompleteRequest struct {
	Script string `json:"script"`
	Offset int    `json:"offset"`
}

// CompletionContext describes the identifier under the cursor.
type CompletionContext struct {
	Kind       string   `json:"kind"`
	Identifier string   `json:"identifier"`
	Parts      []string `json:"parts,omitempty"`
	Offset     int      `json:"offset"`
	Length     int      `json:"length"`
}

// Suggestion is one completion candidate; Offset and Length give the span
// of text it replaces.
type Suggestion struct {
	Text     string `json:"text"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Category string `json:"category"`
	Rank     int    `json:"rank"`
}

// CompleteResponse is the result of a completion request.
type CompleteResponse struct {
	Context     CompletionContext `json:"context"`
	Suggestions []Suggestion      `json:"suggestions"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
}

// Entity is a metadata object as listed by the entities endpoints.
type Entity struct {
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	Kind          string     `json:"kind"`
	TypeCode      int        `json:"type_code,omitempty"`
	Table         string     `json:"table"`
	Properties    []Property `json:"properties,omitempty"`
	TableParts    []string   `json:"table_parts,omitempty"`
}

// Property is a property of an Entity.
type Property struct {
	Name      string   `json:"name"`
	Purpose   string   `json:"purpose"`
	Shape     string   `json:"shape"`
	Reference string   `json:"reference,omitempty"`
	Fields    []string `json:"fields"`
}

// EntityList is the body of GET /v1/entities.
type EntityList struct {
	Database string   `json:"database"`
	Entities []Entity `json:"entities"`
}

// === Mapping helpers ===

func diagnosticsToAPI(diags []tsql.Diagnostic) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, Diagnostic{
			Code:     d.Code,
			Severity: d.Severity.String(),
			Offset:   d.Offset,
			Line:     d.Line,
			Column:   d.Column,
			Message:  d.Message,
		})
	}
	return out
}

func rewriteToAPI(res sqlrewrite.Result) RewriteResponse {
	return RewriteResponse{
		SQL:         res.SQL,
		Diagnostics: diagnosticsToAPI(res.Diagnostics),
		HasErrors:   res.HasErrors(),
	}
}

func completionToAPI(res engine.CompletionResult) CompleteResponse {
	out := CompleteResponse{
		Context: CompletionContext{
			Kind:       res.Context.Kind.String(),
			Identifier: res.Context.Identifier,
			Parts:      res.Context.Parts,
			Offset:     res.Context.Offset,
			Length:     res.Context.Length,
		},
		Suggestions: make([]Suggestion, 0, len(res.Suggestions)),
		Diagnostics: diagnosticsToAPI(res.Diagnostics),
	}
	for _, s := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, Suggestion(s))
	}
	return out
}

func entityToAPI(obj *domain.ApplicationObject, detail bool) Entity {
	e := Entity{
		Name:          obj.Name,
		QualifiedName: obj.QualifiedName(),
		Kind:          obj.Kind.String(),
		TypeCode:      obj.TypeCode,
		Table:         obj.TableName,
	}
	if !detail {
		return e
	}
	for _, p := range obj.Properties {
		prop := Property{
			Name:      p.Name,
			Purpose:   p.Purpose.String(),
			Shape:     p.Shape().String(),
			Reference: p.ReferenceType,
			Fields:    make([]string, 0, len(p.Fields)),
		}
		for _, f := range p.Fields {
			prop.Fields = append(prop.Fields, f.Name)
		}
		e.Properties = append(e.Properties, prop)
	}
	for _, tp := range obj.TableParts {
		e.TableParts = append(e.TableParts, tp.QualifiedName())
	}
	return e
}
