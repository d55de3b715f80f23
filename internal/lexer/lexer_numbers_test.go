package lexer

import "testing"

func TestNumericLiterals(t *testing.T) {
	tests := []struct {
		input        string
		expectedType TokenType
		expectedLit  string
	}{
		{"0", NUMBER, "0"},
		{"123", NUMBER, "123"},
		{"123.45", NUMBER, "123.45"},
		{"1.5e10", NUMBER, "1.5e10"},
		{"1.5E-10", NUMBER, "1.5E-10"},
		{"2e3", NUMBER, "2e3"},
		{"0xFF", NUMBER, "0xFF"},
		{"0Xff", NUMBER, "0Xff"},
		{"0b1010", NUMBER, "0b1010"},
		{"0o17", NUMBER, "0o17"},
		{"1_000_000", NUMBER, "1_000_000"},
		{"0xDE_AD", NUMBER, "0xDE_AD"},
		{"123n", BIGINT, "123n"},
		{"0xFFn", BIGINT, "0xFFn"},
		{".5", NUMBER, ".5"},
		{".5e2", NUMBER, ".5e2"},
	}

	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Errorf("%q: type = %q, want %q", tt.input, tok.Type, tt.expectedType)
		}
		if tok.Literal != tt.expectedLit {
			t.Errorf("%q: literal = %q, want %q", tt.input, tok.Literal, tt.expectedLit)
		}
		if len(l.Errors()) != 0 {
			t.Errorf("%q: unexpected errors: %v", tt.input, l.Errors())
		}
	}
}

func TestMalformedNumbers(t *testing.T) {
	tests := []string{
		"0x",
		"0b",
		"0o",
		"0b2", // no binary digits before the 2
		"1e",
		"1e+",
	}

	for _, input := range tests {
		l := New(input)
		_ = l.NextToken()
		if len(l.Errors()) == 0 {
			t.Errorf("%q: expected a lexer error", input)
		}
	}
}

func TestMemberAccessOnNumberBase(t *testing.T) {
	// '1.toString' is not lexed as a float: the digit check after '.'
	// requires a following digit.
	l := New("1.toString")
	expected := []TokenType{NUMBER, DOT, IDENT, EOF}
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: got %q, want %q", i, tok.Type, want)
		}
	}
}

func TestDotDotDotVersusDot(t *testing.T) {
	l := New("...rest")
	tok := l.NextToken()
	if tok.Type != DOTDOTDOT {
		t.Fatalf("expected DOTDOTDOT, got %q", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "rest" {
		t.Fatalf("expected IDENT rest, got %q (%q)", tok.Type, tok.Literal)
	}
}
