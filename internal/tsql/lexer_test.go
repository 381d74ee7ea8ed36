package tsql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Punctuation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantType TokenType
	}{
		{"plus", "+", TOKEN_PLUS},
		{"minus", "-", TOKEN_MINUS},
		{"star", "*", TOKEN_STAR},
		{"slash", "/", TOKEN_SLASH},
		{"mod", "%", TOKEN_MOD},
		{"eq", "=", TOKEN_EQ},
		{"ne_bang", "!=", TOKEN_NE},
		{"ne_diamond", "<>", TOKEN_NE},
		{"lt", "<", TOKEN_LT},
		{"gt", ">", TOKEN_GT},
		{"le", "<=", TOKEN_LE},
		{"ge", ">=", TOKEN_GE},
		{"dot", ".", TOKEN_DOT},
		{"comma", ",", TOKEN_COMMA},
		{"semicolon", ";", TOKEN_SEMICOLON},
		{"lparen", "(", TOKEN_LPAREN},
		{"rparen", ")", TOKEN_RPAREN},
		{"illegal", "?", TOKEN_ILLEGAL},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input).NextToken()
			assert.Equal(t, tc.wantType, tok.Type, "token type")
			assert.Equal(t, tc.input, tok.Literal, "token literal")
		})
	}
}

func TestLexer_Literals(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantType  TokenType
		wantValue string
	}{
		{"integer", "42", TOKEN_NUMBER, "42"},
		{"decimal", "3.14", TOKEN_NUMBER, "3.14"},
		{"scientific", "1e10", TOKEN_NUMBER, "1e10"},
		{"string", "'hello'", TOKEN_STRING, "hello"},
		{"string_escape", "'it''s'", TOKEN_STRING, "it's"},
		{"nstring", "N'Номенклатура'", TOKEN_STRING, "Номенклатура"},
		{"binary", "0x0000007B", TOKEN_BINARY, "0x0000007B"},
		{"variable", "@Период", TOKEN_VARIABLE, "@Период"},
		{"global_variable", "@@ROWCOUNT", TOKEN_VARIABLE, "@@ROWCOUNT"},
		{"bracket_ident", "[Ссылка]", TOKEN_QUOTED_IDENT, "Ссылка"},
		{"bracket_escape", "[a]]b]", TOKEN_QUOTED_IDENT, "a]b"},
		{"double_quoted", `"Дата"`, TOKEN_QUOTED_IDENT, "Дата"},
		{"cyrillic_ident", "Справочник", TOKEN_IDENT, "Справочник"},
		{"temp_table", "#tmp", TOKEN_IDENT, "#tmp"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tok := NewLexer(tc.input).NextToken()
			assert.Equal(t, tc.wantType, tok.Type)
			assert.Equal(t, tc.input, tok.Literal)
			assert.Equal(t, tc.wantValue, tok.Value())
		})
	}
}

func TestLexer_Keywords(t *testing.T) {
	for _, input := range []string{"SELECT", "select", "SeLeCt"} {
		tok := NewLexer(input).NextToken()
		assert.Equal(t, TOKEN_SELECT, tok.Type, input)
	}

	// Pseudo-field names stay identifiers.
	for _, input := range []string{"uuid", "type", "TYPE", "TYPEOF"} {
		tok := NewLexer(input).NextToken()
		assert.Equal(t, TOKEN_IDENT, tok.Type, input)
	}
}

func TestTokenize_KeepsTrivia(t *testing.T) {
	input := "SELECT a -- comment\n/* block */ FROM t"
	tokens := Tokenize(input)

	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Literal)
	}
	assert.Equal(t, input, sb.String(), "concatenated tokens reproduce the input")

	var comments int
	for _, tok := range tokens {
		if tok.Type == TOKEN_COMMENT {
			comments++
		}
	}
	assert.Equal(t, 2, comments)
	assert.Equal(t, TOKEN_EOF, tokens[len(tokens)-1].Type)
}

func TestTokenize_RuneOffsets(t *testing.T) {
	tokens := Tokenize("SELECT Т.Н")
	require.Len(t, tokens, 6)

	want := []struct {
		typ    TokenType
		offset int
		end    int
	}{
		{TOKEN_SELECT, 0, 6},
		{TOKEN_WHITESPACE, 6, 7},
		{TOKEN_IDENT, 7, 8},
		{TOKEN_DOT, 8, 9},
		{TOKEN_IDENT, 9, 10},
		{TOKEN_EOF, 10, 10},
	}
	for i, w := range want {
		assert.Equal(t, w.typ, tokens[i].Type, "token %d", i)
		assert.Equal(t, w.offset, tokens[i].Offset, "token %d offset", i)
		assert.Equal(t, w.end, tokens[i].End(), "token %d end", i)
	}
}

func TestTokenize_LineAndColumn(t *testing.T) {
	tokens := Tokenize("SELECT\n  a,\r\n  b")

	var idents []Token
	for _, tok := range tokens {
		if tok.Type == TOKEN_IDENT {
			idents = append(idents, tok)
		}
	}
	require.Len(t, idents, 2)
	assert.Equal(t, 2, idents[0].Line)
	assert.Equal(t, 3, idents[0].Column)
	assert.Equal(t, 3, idents[1].Line)
	assert.Equal(t, 3, idents[1].Column)
}

func TestToken_Contains(t *testing.T) {
	tok := Token{Type: TOKEN_IDENT, Literal: "abc", Offset: 5}
	assert.False(t, tok.Contains(5), "start is exclusive")
	assert.True(t, tok.Contains(6))
	assert.True(t, tok.Contains(8), "end is inclusive")
	assert.False(t, tok.Contains(9))
}

func TestLexer_UnterminatedString(t *testing.T) {
	tokens := Tokenize("SELECT 'abc")
	require.Len(t, tokens, 4)
	assert.Equal(t, TOKEN_STRING, tokens[2].Type)
	assert.Equal(t, "'abc", tokens[2].Literal)
}
