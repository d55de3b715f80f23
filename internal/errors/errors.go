// Package errors provides the diagnostic model shared by all compiler phases.
// Diagnostics carry position, severity, a stable code and a message, and are
// collected into ordered lists so a single run surfaces every error it can
// recover past. Formatting renders the offending source line with a caret.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/go-tscript/internal/lexer"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityHint:
		return "hint"
	}
	return "unknown"
}

// Diagnostic represents a single compile-time problem: lex, parse, resolve or
// type error. EndPos may equal Pos when no span is known.
type Diagnostic struct {
	Message  string
	Code     string
	File     string
	Pos      lexer.Position
	EndPos   lexer.Position
	Severity Severity
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s %s: %s",
			d.File, d.Pos.Line, d.Pos.Column, d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%d:%d: %s %s: %s",
		d.Pos.Line, d.Pos.Column, d.Severity, d.Code, d.Message)
}

// DiagnosticList is an ordered collection of diagnostics.
// All phases append to one list; ordering is by insertion, with SortByPosition
// available for final presentation.
type DiagnosticList struct {
	diags []*Diagnostic
}

// NewDiagnosticList creates an empty diagnostic list.
func NewDiagnosticList() *DiagnosticList {
	return &DiagnosticList{}
}

// Add appends a diagnostic to the list.
func (dl *DiagnosticList) Add(d *Diagnostic) {
	dl.diags = append(dl.diags, d)
}

// AddError appends an error-severity diagnostic.
func (dl *DiagnosticList) AddError(pos lexer.Position, code, message string) {
	dl.Add(&Diagnostic{
		Pos:      pos,
		EndPos:   pos,
		Severity: SeverityError,
		Code:     code,
		Message:  message,
	})
}

// AddWarning appends a warning-severity diagnostic.
func (dl *DiagnosticList) AddWarning(pos lexer.Position, code, message string) {
	dl.Add(&Diagnostic{
		Pos:      pos,
		EndPos:   pos,
		Severity: SeverityWarning,
		Code:     code,
		Message:  message,
	})
}

// All returns the diagnostics in insertion order.
func (dl *DiagnosticList) All() []*Diagnostic {
	return dl.diags
}

// Errors returns only the error-severity diagnostics.
func (dl *DiagnosticList) Errors() []*Diagnostic {
	var out []*Diagnostic
	for _, d := range dl.diags {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any error-severity diagnostic was recorded.
func (dl *DiagnosticList) HasErrors() bool {
	for _, d := range dl.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Len returns the number of diagnostics.
func (dl *DiagnosticList) Len() int {
	return len(dl.diags)
}

// SortByPosition orders diagnostics by file, then line, then column.
// Insertion order breaks ties so repeated runs render identically.
func (dl *DiagnosticList) SortByPosition() {
	sort.SliceStable(dl.diags, func(i, j int) bool {
		a, b := dl.diags[i], dl.diags[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		return a.Pos.Column < b.Pos.Column
	})
}

// Format renders every diagnostic with source context.
// Sources maps file name → source text; files not in the map render without
// a source excerpt.
func (dl *DiagnosticList) Format(sources map[string]string, color bool) string {
	var sb strings.Builder
	for i, d := range dl.diags {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatDiagnostic(d, sources[d.File], color))
	}
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic with source context.
// If color is true, ANSI color codes are used for terminal output.
func FormatDiagnostic(d *Diagnostic, source string, color bool) string {
	var sb strings.Builder

	if d.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d", title(d.Severity), d.File, d.Pos.Line, d.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d", title(d.Severity), d.Pos.Line, d.Pos.Column))
	}
	sb.WriteString(fmt.Sprintf(" [%s]\n", d.Code))

	sourceLine := getSourceLine(source, d.Pos.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		caretCol := d.Pos.Column
		if caretCol < 1 {
			caretCol = 1
		}
		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+caretCol-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		width := 1
		if d.EndPos.Line == d.Pos.Line && d.EndPos.Column > d.Pos.Column {
			width = d.EndPos.Column - d.Pos.Column
		}
		sb.WriteString(strings.Repeat("^", width))
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(d.Message)
	sb.WriteString("\n")
	return sb.String()
}

// title returns the capitalized severity name for headers.
func title(s Severity) string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityHint:
		return "Hint"
	}
	return "Diagnostic"
}

// getSourceLine extracts the given 1-based line from source text.
func getSourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}
