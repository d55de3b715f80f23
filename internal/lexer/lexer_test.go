package lexer

import "testing"

func TestNextTokenBasicProgram(t *testing.T) {
	input := `let five = 5;
const ten = 10;
function add(x: number, y: number): number {
	return x + y;
}`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{LET, "let"},
		{IDENT, "five"},
		{ASSIGN, "="},
		{NUMBER, "5"},
		{SEMICOLON, ";"},
		{CONST, "const"},
		{IDENT, "ten"},
		{ASSIGN, "="},
		{NUMBER, "10"},
		{SEMICOLON, ";"},
		{FUNCTION, "function"},
		{IDENT, "add"},
		{LPAREN, "("},
		{IDENT, "x"},
		{COLON, ":"},
		{IDENT, "number"},
		{COMMA, ","},
		{IDENT, "y"},
		{COLON, ":"},
		{IDENT, "number"},
		{RPAREN, ")"},
		{COLON, ":"},
		{IDENT, "number"},
		{LBRACE, "{"},
		{RETURN, "return"},
		{IDENT, "x"},
		{PLUS, "+"},
		{IDENT, "y"},
		{SEMICOLON, ";"},
		{RBRACE, "}"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - wrong token type. expected=%q, got=%q (%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - wrong literal. expected=%q, got=%q",
				i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	// '/' is exercised in TestDivisionVersusRegex; after most operators it
	// would lex as a regular expression literal.
	input := `= == === != !== < > <= >= << >> >>> + - * % ** ++ -- && || ?? ! & | ^ ~ ?. ... => @`

	expected := []TokenType{
		ASSIGN, EQ, EQ_STRICT, NOT_EQ, NEQ_STRICT,
		LESS, GREATER, LESS_EQ, GREATER_EQ,
		SHL, SHR, USHR,
		PLUS, MINUS, ASTERISK, PERCENT, POWER,
		INC, DEC, AMP_AMP, PIPE_PIPE, NULLISH, BANG,
		AMP, PIPE, CARET, TILDE,
		QUESTION_DOT, DOTDOTDOT, ARROW, AT, EOF,
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("token %d: expected %q, got %q (%q)", i, want, tok.Type, tok.Literal)
		}
	}
}

func TestCompoundAssignmentOperators(t *testing.T) {
	input := `x += 1; x -= 1; x *= 2; x /= 2; x %= 2; x **= 2; x &= 1; x |= 1; x ^= 1; x <<= 1; x >>= 1; x >>>= 1; x &&= y; x ||= y; x ??= y;`

	expected := []TokenType{
		PLUS_ASSIGN, MINUS_ASSIGN, ASTERISK_ASSIGN, SLASH_ASSIGN,
		PERCENT_ASSIGN, POWER_ASSIGN, AMP_ASSIGN, PIPE_ASSIGN, CARET_ASSIGN,
		SHL_ASSIGN, SHR_ASSIGN, USHR_ASSIGN, AND_ASSIGN, OR_ASSIGN,
		NULLISH_ASSIGN,
	}

	l := New(input)
	var got []TokenType
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type.IsAssignment() && tok.Type != ASSIGN {
			got = append(got, tok.Type)
		}
	}

	if len(got) != len(expected) {
		t.Fatalf("expected %d compound assignments, got %d", len(expected), len(got))
	}
	for i, want := range expected {
		if got[i] != want {
			t.Errorf("assignment %d: expected %q, got %q", i, want, got[i])
		}
	}
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	l := New("class Class CLASS")

	tok := l.NextToken()
	if tok.Type != CLASS {
		t.Errorf("expected CLASS keyword, got %q", tok.Type)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "Class" {
		t.Errorf("expected IDENT %q, got %q (%q)", "Class", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != IDENT || tok.Literal != "CLASS" {
		t.Errorf("expected IDENT %q, got %q (%q)", "CLASS", tok.Type, tok.Literal)
	}
}

func TestShiftVersusGenericClose(t *testing.T) {
	// The lexer always produces maximal tokens; resplitting is the parser's
	// job. Both of these must tokenize with SHR.
	tests := []struct {
		input    string
		expected []TokenType
	}{
		{"16 >> 2", []TokenType{NUMBER, SHR, NUMBER, EOF}},
		{"Partial<Readonly<T>>", []TokenType{IDENT, LESS, IDENT, LESS, IDENT, SHR, EOF}},
		{"a >>> b", []TokenType{IDENT, USHR, IDENT, EOF}},
		{"Map<string, Array<Array<number>>>", []TokenType{
			IDENT, LESS, IDENT, COMMA, IDENT, LESS, IDENT, LESS, IDENT, USHR, EOF,
		}},
	}

	for _, tt := range tests {
		l := New(tt.input)
		for i, want := range tt.expected {
			tok := l.NextToken()
			if tok.Type != want {
				t.Errorf("%q token %d: expected %q, got %q", tt.input, i, want, tok.Type)
				break
			}
		}
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("a b c")

	if tok := l.Peek(0); tok.Literal != "a" {
		t.Fatalf("Peek(0) = %q, want a", tok.Literal)
	}
	if tok := l.Peek(2); tok.Literal != "c" {
		t.Fatalf("Peek(2) = %q, want c", tok.Literal)
	}
	if tok := l.NextToken(); tok.Literal != "a" {
		t.Fatalf("NextToken after Peek = %q, want a", tok.Literal)
	}
}

func TestSaveRestoreState(t *testing.T) {
	l := New("a + b * c")

	_ = l.NextToken() // a
	state := l.SaveState()

	_ = l.NextToken() // +
	_ = l.NextToken() // b

	l.RestoreState(state)
	tok := l.NextToken()
	if tok.Type != PLUS {
		t.Fatalf("after restore, expected PLUS, got %q", tok.Type)
	}
}

func TestPositionTracking(t *testing.T) {
	input := "let x = 1;\nlet y = 2;"
	l := New(input)

	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		tokens = append(tokens, tok)
	}

	// 'y' is on line 2, column 5.
	yTok := tokens[6]
	if yTok.Literal != "y" {
		t.Fatalf("expected token y, got %q", yTok.Literal)
	}
	if yTok.Pos.Line != 2 || yTok.Pos.Column != 5 {
		t.Errorf("y position = %d:%d, want 2:5", yTok.Pos.Line, yTok.Pos.Column)
	}
}

func TestComments(t *testing.T) {
	input := `let a = 1; // trailing
/* block
   comment */ let b = 2;`

	l := New(input)
	var idents []string
	for {
		tok := l.NextToken()
		if tok.Type == EOF {
			break
		}
		if tok.Type == IDENT {
			idents = append(idents, tok.Literal)
		}
		if tok.Type == COMMENT {
			t.Errorf("comment token leaked without WithPreserveComments: %q", tok.Literal)
		}
	}
	if len(idents) != 2 || idents[0] != "a" || idents[1] != "b" {
		t.Errorf("idents = %v, want [a b]", idents)
	}
}

func TestPreserveComments(t *testing.T) {
	l := New("// hello\nx", WithPreserveComments(true))

	tok := l.NextToken()
	if tok.Type != COMMENT || tok.Literal != "// hello" {
		t.Fatalf("expected COMMENT %q, got %q (%q)", "// hello", tok.Type, tok.Literal)
	}
	tok = l.NextToken()
	if tok.Type != IDENT {
		t.Fatalf("expected IDENT after comment, got %q", tok.Type)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	l := New("/* never closed")
	tok := l.NextToken()
	if tok.Type != EOF {
		t.Errorf("expected EOF after skipping unterminated comment, got %q", tok.Type)
	}
	if len(l.Errors()) == 0 {
		t.Error("expected an error for unterminated block comment")
	}
}

func TestBOMStripping(t *testing.T) {
	l := New("\xEF\xBB\xBFlet x = 1;")
	tok := l.NextToken()
	if tok.Type != LET {
		t.Errorf("expected LET after BOM strip, got %q", tok.Type)
	}
}

func TestIllegalCharacter(t *testing.T) {
	l := New("let # = 1;")
	_ = l.NextToken() // let
	tok := l.NextToken()
	if tok.Type != ILLEGAL {
		t.Errorf("expected ILLEGAL, got %q", tok.Type)
	}
	if len(l.Errors()) == 0 {
		t.Error("expected an error for illegal character")
	}
}
