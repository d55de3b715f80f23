package lexer

import "testing"

func TestResplitGreater(t *testing.T) {
	tests := []struct {
		in     TokenType
		rest   TokenType
		splits bool
	}{
		{SHR, GREATER, true},
		{USHR, SHR, true},
		{SHR_ASSIGN, GREATER_EQ, true},
		{USHR_ASSIGN, SHR_ASSIGN, true},
		{GREATER, 0, false},
		{LESS, 0, false},
		{IDENT, 0, false},
	}

	for _, tt := range tests {
		in := NewToken(tt.in, tt.in.String(), Position{Line: 1, Column: 10, Offset: 9})
		rest, ok := ResplitGreater(in)
		if ok != tt.splits {
			t.Errorf("%q: splits = %v, want %v", tt.in, ok, tt.splits)
			continue
		}
		if !tt.splits {
			if rest != in {
				t.Errorf("%q: non-split must return the token unchanged", tt.in)
			}
			continue
		}
		if rest.Type != tt.rest {
			t.Errorf("%q: rest = %q, want %q", tt.in, rest.Type, tt.rest)
		}
		if rest.Pos.Column != in.Pos.Column+1 {
			t.Errorf("%q: rest column = %d, want %d", tt.in, rest.Pos.Column, in.Pos.Column+1)
		}
	}
}

func TestResplitChain(t *testing.T) {
	// '>>>' resplits to '>>', which resplits to '>'.
	tok := NewToken(USHR, ">>>", Position{Line: 1, Column: 1})

	tok, ok := ResplitGreater(tok)
	if !ok || tok.Type != SHR {
		t.Fatalf("first split: got %q, ok=%v", tok.Type, ok)
	}
	tok, ok = ResplitGreater(tok)
	if !ok || tok.Type != GREATER {
		t.Fatalf("second split: got %q, ok=%v", tok.Type, ok)
	}
	_, ok = ResplitGreater(tok)
	if ok {
		t.Fatal("single '>' must not split")
	}
}
