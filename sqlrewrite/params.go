package sqlrewrite

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"metaql/catalog"
	"metaql/internal/domain"
	"metaql/internal/resolve"
	"metaql/internal/tsql"
)

// DateTimeLayout is the literal form of bound time values. It is read back
// unambiguously by datetime and datetime2 regardless of language settings.
const DateTimeLayout = "2006-01-02T15:04:05.000"

// bindParameters sets the initial value of every declared variable named in
// params, at any nesting depth. Parameters that no DECLARE mentions are
// reported.
func bindParameters(script *tsql.Script, params map[string]any) []resolve.Warning {
	byName := make(map[string]string, len(params))
	for key := range params {
		byName[catalog.Fold(strings.TrimPrefix(key, "@"))] = key
	}

	var warns []resolve.Warning
	used := make(map[string]bool, len(params))
	tsql.Walk(script, func(n tsql.Node, _ tsql.Slot) bool {
		decl, ok := n.(*tsql.DeclareStmt)
		if !ok {
			return true
		}
		for _, v := range decl.Variables {
			key, ok := byName[catalog.Fold(strings.TrimPrefix(v.Name, "@"))]
			if !ok {
				continue
			}
			used[key] = true
			lit, err := makeLiteralExpr(params[key])
			if err != nil {
				warns = append(warns, resolve.Warning{
					Code:    WarnUnknownParameter,
					Span:    v.Span(),
					Message: fmt.Sprintf("parameter %s: %v", v.Name, err),
				})
				continue
			}
			v.Value = lit
		}
		return false
	})

	var unused []string
	for key := range params {
		if !used[key] {
			unused = append(unused, key)
		}
	}
	sort.Strings(unused)
	for _, key := range unused {
		warns = append(warns, resolve.Warning{
			Code:    WarnUnknownParameter,
			Message: fmt.Sprintf("parameter %q is not declared", key),
		})
	}
	return warns
}

// makeLiteralExpr converts a Go value to a T-SQL literal node.
func makeLiteralExpr(v any) (tsql.Expr, error) {
	switch val := v.(type) {
	case nil:
		return &tsql.Literal{Kind: tsql.LiteralNull}, nil
	case bool:
		if val {
			return &tsql.Literal{Kind: tsql.LiteralNumber, Value: "1"}, nil
		}
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: "0"}, nil
	case int:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case int8:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case int16:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case int32:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case int64:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case uint:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case uint8:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case uint16:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case uint32:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case uint64:
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: fmt.Sprintf("%d", val)}, nil
	case float32:
		return floatLiteral(float64(val), 32)
	case float64:
		return floatLiteral(val, 64)
	case json.Number:
		if _, err := val.Float64(); err != nil {
			return nil, fmt.Errorf("invalid number %q", val.String())
		}
		return &tsql.Literal{Kind: tsql.LiteralNumber, Value: val.String()}, nil
	case string:
		return &tsql.Literal{Kind: tsql.LiteralNString, Value: val}, nil
	case []byte:
		return tsql.NewBinaryLiteral("0x" + strings.ToUpper(hex.EncodeToString(val))), nil
	case uuid.UUID:
		return tsql.NewBinaryLiteral(identityLiteral(val)), nil
	case time.Time:
		return &tsql.Literal{Kind: tsql.LiteralString, Value: val.Format(DateTimeLayout)}, nil
	case domain.Reference:
		return tsql.NewBinaryLiteral(val.Literal()), nil
	default:
		return nil, fmt.Errorf("unsupported literal type: %T", v)
	}
}

func floatLiteral(f float64, bitSize int) (tsql.Expr, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v has no T-SQL literal", f)
	}
	return &tsql.Literal{Kind: tsql.LiteralNumber, Value: strconv.FormatFloat(f, 'g', -1, bitSize)}, nil
}

// identityLiteral renders a uuid in the byte order of stored identities.
func identityLiteral(id uuid.UUID) string {
	b := domain.Reference{ID: id}.Bytes()[4:]
	return "0x" + strings.ToUpper(hex.EncodeToString(b))
}

// ParseParamValue reads a command-line parameter value: null, true/false,
// integers, floats, 0x binaries, {code:uuid} references and uuids are
// recognized; anything else is a string.
func ParseParamValue(s string) any {
	switch {
	case strings.EqualFold(s, "null"):
		return nil
	case strings.EqualFold(s, "true"):
		return true
	case strings.EqualFold(s, "false"):
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if b, err := hex.DecodeString(s[2:]); err == nil {
			return b
		}
	}
	if strings.HasPrefix(s, "{") {
		if ref, err := domain.ParseReference(s); err == nil {
			return ref
		}
	}
	if id, err := uuid.Parse(s); err == nil && len(s) == 36 {
		return id
	}
	return s
}
