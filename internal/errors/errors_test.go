package errors

import (
	"strings"
	"testing"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{
		Pos:      lexer.Position{Line: 3, Column: 7},
		Severity: SeverityError,
		Code:     "TS2322",
		Message:  "type 'string' is not assignable to type 'number'",
		File:     "main.ts",
	}

	got := d.Error()
	want := "main.ts:3:7: error TS2322: type 'string' is not assignable to type 'number'"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDiagnosticListOrdering(t *testing.T) {
	dl := NewDiagnosticList()
	dl.AddError(lexer.Position{Line: 5, Column: 1}, "TS1005", "';' expected")
	dl.AddError(lexer.Position{Line: 2, Column: 3}, "TS2304", "cannot find name 'x'")
	dl.AddWarning(lexer.Position{Line: 2, Column: 3}, "TS6133", "'y' is declared but never used")

	if dl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", dl.Len())
	}
	if !dl.HasErrors() {
		t.Fatal("HasErrors() = false, want true")
	}
	if len(dl.Errors()) != 2 {
		t.Fatalf("Errors() returned %d, want 2", len(dl.Errors()))
	}

	dl.SortByPosition()
	all := dl.All()
	if all[0].Pos.Line != 2 || all[2].Pos.Line != 5 {
		t.Errorf("SortByPosition order wrong: lines %d, %d, %d",
			all[0].Pos.Line, all[1].Pos.Line, all[2].Pos.Line)
	}
	// Insertion order breaks the 2:3 tie: error before warning.
	if all[0].Severity != SeverityError {
		t.Error("tie not broken by insertion order")
	}
}

func TestFormatDiagnosticCaret(t *testing.T) {
	source := "let x = 1;\nlet y: number = 'str';\n"
	d := &Diagnostic{
		Pos:      lexer.Position{Line: 2, Column: 17},
		EndPos:   lexer.Position{Line: 2, Column: 22},
		Severity: SeverityError,
		Code:     "TS2322",
		Message:  "type 'string' is not assignable to type 'number'",
	}

	out := FormatDiagnostic(d, source, false)

	if !strings.Contains(out, "let y: number = 'str';") {
		t.Errorf("missing source line in:\n%s", out)
	}
	if !strings.Contains(out, "^^^^^") {
		t.Errorf("missing caret span in:\n%s", out)
	}
	if !strings.Contains(out, "[TS2322]") {
		t.Errorf("missing code in:\n%s", out)
	}
}

func TestFormatWithoutSource(t *testing.T) {
	d := &Diagnostic{
		Pos:      lexer.Position{Line: 1, Column: 1},
		Severity: SeverityError,
		Code:     "TS2307",
		Message:  "cannot find module './missing'",
	}

	out := FormatDiagnostic(d, "", false)
	if !strings.Contains(out, "cannot find module './missing'") {
		t.Errorf("missing message in:\n%s", out)
	}
	if strings.Contains(out, "|") {
		t.Errorf("unexpected source gutter without source:\n%s", out)
	}
}
