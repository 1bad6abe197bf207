package analysis

import (
	"sort"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/larkls/go-lark-lsp/internal/parser"
	"github.com/larkls/go-lark-lsp/internal/token"
)

// Stable diagnostic codes, used by clients and tests.
const (
	CodeSyntaxError         = "syntax-error"
	CodeUndefinedSymbol     = "undefined-symbol"
	CodeDuplicateDefinition = "duplicate-definition"
	CodeKindMismatch        = "kind-mismatch"
	CodeUnusedSymbol        = "unused-symbol"
	CodeCircularImport      = "circular-import"
	CodeImportNotFound      = "import-not-found"
)

// DiagnosticSource is the value of the diagnostic "source" field.
const DiagnosticSource = "go-lark-lsp"

func newDiagnostic(span token.Span, severity protocol.DiagnosticSeverity, code, message string) protocol.Diagnostic {
	src := DiagnosticSource
	c := protocol.IntegerOrString{Value: code}
	return protocol.Diagnostic{
		Range:    span.Range(),
		Severity: &severity,
		Code:     &c,
		Source:   &src,
		Message:  message,
	}
}

// FromSyntaxErrors converts recovered parse errors to diagnostics.
func FromSyntaxErrors(errs []*parser.SyntaxError) []protocol.Diagnostic {
	diags := make([]protocol.Diagnostic, 0, len(errs))
	for _, err := range errs {
		diags = append(diags, newDiagnostic(err.Span, protocol.DiagnosticSeverityError, CodeSyntaxError, err.Msg))
	}
	return diags
}

// Diagnose combines parser and resolver findings into the document's
// diagnostic list, sorted by span start and then severity (errors before
// warnings before information) so output is deterministic.
func Diagnose(syntaxErrs []*parser.SyntaxError, result *Result) []protocol.Diagnostic {
	diags := FromSyntaxErrors(syntaxErrs)
	if result != nil {
		diags = append(diags, result.Diagnostics...)
	}
	SortDiagnostics(diags)
	return diags
}

// SortDiagnostics orders diagnostics by start position, then severity.
func SortDiagnostics(diags []protocol.Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Range.Start, diags[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Character != b.Character {
			return a.Character < b.Character
		}
		return severityRank(diags[i].Severity) < severityRank(diags[j].Severity)
	})
}

func severityRank(s *protocol.DiagnosticSeverity) protocol.DiagnosticSeverity {
	if s == nil {
		return protocol.DiagnosticSeverityError
	}
	return *s
}
