// Package api serves the rewrite and completion engine over HTTP.
package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"metaql/engine"
	"metaql/internal/domain"
	"metaql/sqlrewrite"
)

// Engine is the subset of engine.Service the handler needs.
type Engine interface {
	RewriteWithParams(ctx context.Context, script string, params map[string]any) (sqlrewrite.Result, error)
	Complete(ctx context.Context, script string, offset int) (engine.CompletionResult, error)
	Entities(ctx context.Context, database, marker, pattern string) ([]*domain.ApplicationObject, error)
	Entity(ctx context.Context, database, name string) (*domain.ApplicationObject, error)
}

// Handler implements the HTTP endpoints.
type Handler struct {
	engine       Engine
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewHandler creates a Handler. maxBodyBytes <= 0 means 1 MiB.
func NewHandler(eng Engine, maxBodyBytes int64, logger *slog.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{engine: eng, maxBodyBytes: maxBodyBytes, logger: logger}
}

// decodeBody reads one JSON object. Numbers decode as json.Number so that
// integer parameters keep their exact value.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	dec.UseNumber()
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return domain.ErrValidation("invalid request body: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return domain.ErrValidation("invalid request body: trailing data")
	}
	return nil
}

// Rewrite handles POST /v1/rewrite.
func (h *Handler) Rewrite(w http.ResponseWriter, r *http.Request) {
	var req RewriteRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	params, err := decodeParameters(req.Parameters)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.RewriteWithParams(r.Context(), req.Script, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rewriteToAPI(res))
}

// Complete handles POST /v1/complete.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := h.decodeBody(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.engine.Complete(r.Context(), req.Script, req.Offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completionToAPI(res))
}

// ListEntities handles GET /v1/entities?database=&kind=&q=.
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	objs, err := h.engine.Entities(r.Context(), q.Get("database"), q.Get("kind"), q.Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := EntityList{Database: q.Get("database"), Entities: make([]Entity, 0, len(objs))}
	for _, obj := range objs {
		out.Entities = append(out.Entities, entityToAPI(obj, false))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetEntity handles GET /v1/entities/{name}?database=.
func (h *Handler) GetEntity(w http.ResponseWriter, r *http.Request) {
	obj, err := h.engine.Entity(r.Context(), r.URL.Query().Get("database"), chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entityToAPI(obj, true))
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeParameters converts JSON parameter values into the Go values the
// rewriter binds.
func decodeParameters(in map[string]any) (map[string]any, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]any, len(in))
	for name, v := range in {
		obj, ok := v.(map[string]any)
		if !ok {
			out[name] = v
			continue
		}
		if len(obj) != 1 {
			return nil, domain.ErrValidation("parameter %s: typed value needs exactly one of uuid, reference, binary", name)
		}
		for typ, raw := range obj {
			s, ok := raw.(string)
			if !ok {
				return nil, domain.ErrValidation("parameter %s: %s value must be a string", name, typ)
			}
			val, err := typedParameter(typ, s)
			if err != nil {
				return nil, domain.ErrValidation("parameter %s: %v", name, err)
			}
			out[name] = val
		}
	}
	return out, nil
}

func typedParameter(typ, s string) (any, error) {
	switch typ {
	case "uuid":
		return uuid.Parse(s)
	case "reference":
		if strings.HasPrefix(strings.TrimSpace(s), "{") {
			return domain.ParseReference(strings.TrimSpace(s))
		}
		return domain.DecodeReferenceHex(s)
	case "binary":
		b, err := hex.DecodeString(strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X"))
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown value type %q", typ)
}
