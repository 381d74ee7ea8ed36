// Package engine is the entry point of the query engine: it binds one
// catalog snapshot to the rewriter and the completer and logs each request.
package engine

import (
	"context"
	"log/slog"
	"time"

	"metaql/catalog"
	"metaql/internal/completion"
	"metaql/internal/domain"
	"metaql/internal/tsql"
	"metaql/sqlrewrite"
)

// Service rewrites and completes scripts against a catalog. The catalog is
// never modified, so one Service serves concurrent requests.
type Service struct {
	cat       *catalog.Catalog
	rewriter  *sqlrewrite.Rewriter
	completer *completion.Completer
	logger    *slog.Logger
}

// NewService creates a Service over cat. A nil logger discards output.
func NewService(cat *catalog.Catalog, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		cat:       cat,
		rewriter:  sqlrewrite.New(cat),
		completer: completion.New(cat),
		logger:    logger,
	}
}

// Catalog returns the catalog the service reads.
func (s *Service) Catalog() *catalog.Catalog { return s.cat }

// Rewrite rewrites a script. Syntax errors and resolution warnings are
// returned in the result; the error is reserved for a cancelled context.
func (s *Service) Rewrite(ctx context.Context, script string) (sqlrewrite.Result, error) {
	return s.RewriteWithParams(ctx, script, nil)
}

// RewriteWithParams binds params into the script's DECLARE statements and
// rewrites it.
func (s *Service) RewriteWithParams(ctx context.Context, script string, params map[string]any) (sqlrewrite.Result, error) {
	if err := ctx.Err(); err != nil {
		return sqlrewrite.Result{}, err
	}
	start := time.Now()
	var res sqlrewrite.Result
	if params == nil {
		res = s.rewriter.Rewrite(script)
	} else {
		res = s.rewriter.RewriteWithParams(script, params)
	}
	s.logDiagnostics(ctx, "rewrite", res.Diagnostics)
	s.logger.DebugContext(ctx, "rewrite",
		"length", len(script),
		"params", len(params),
		"diagnostics", len(res.Diagnostics),
		"duration", time.Since(start))
	return res, nil
}

// CompletionResult is the outcome of a completion request.
type CompletionResult struct {
	Context     completion.Context
	Suggestions []completion.Suggestion
	Diagnostics []tsql.Diagnostic
}

// Complete returns suggestions for the identifier at offset, counted in
// runes. An offset outside the script is a validation error.
func (s *Service) Complete(ctx context.Context, script string, offset int) (CompletionResult, error) {
	if err := ctx.Err(); err != nil {
		return CompletionResult{}, err
	}
	if n := len([]rune(script)); offset < 0 || offset > n {
		return CompletionResult{}, domain.ErrValidation("offset %d is outside the script (0..%d)", offset, n)
	}
	start := time.Now()
	cctx, diags := s.completer.Context(script, offset)
	res := CompletionResult{
		Context:     cctx,
		Suggestions: s.completer.Suggest(cctx),
		Diagnostics: diags,
	}
	s.logger.DebugContext(ctx, "complete",
		"offset", offset,
		"context", cctx.Kind.String(),
		"identifier", cctx.Identifier,
		"suggestions", len(res.Suggestions),
		"duration", time.Since(start))
	return res, nil
}

// Entities lists the objects of a database whose name contains pattern.
// database "" means the main database; marker "" means every kind.
func (s *Service) Entities(ctx context.Context, database, marker, pattern string) ([]*domain.ApplicationObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ib := s.cat.Database(database)
	if ib == nil {
		return nil, domain.ErrNotFound("database %q not found", database)
	}
	if marker != "" && !domain.IsKindMarker(marker) {
		kind, err := domain.ParseKind(marker)
		if err != nil {
			return nil, err
		}
		if kind.Marker() == "" {
			return nil, domain.ErrValidation("kind %s cannot be listed", kind)
		}
		marker = kind.Marker()
	}
	return ib.SearchEntities(marker, pattern), nil
}

// Entity finds one object by its qualified name (Справочник.Номенклатура
// or Документ.Продажа.Товары) in a database.
func (s *Service) Entity(ctx context.Context, database, name string) (*domain.ApplicationObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ib := s.cat.Database(database)
	if ib == nil {
		return nil, domain.ErrNotFound("database %q not found", database)
	}
	obj := ib.LookupQualified(name)
	if obj == nil {
		return nil, domain.ErrNotFound("metadata object %q not found", name)
	}
	return obj, nil
}

func (s *Service) logDiagnostics(ctx context.Context, op string, diags []tsql.Diagnostic) {
	for _, d := range diags {
		s.logger.WarnContext(ctx, op+" diagnostic",
			"code", d.Code,
			"severity", d.Severity.String(),
			"line", d.Line,
			"column", d.Column,
			"message", d.Message)
	}
}
