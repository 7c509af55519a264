// Package defaultexpr implements the Default-Expression Translator (spec §4.1): a
// total function, per dialect, from a portable default-expression string to dialect SQL.
//
// Grounded on the teacher's internal/parser/sql.go formatExpr, which walks a pg_query AST
// and dispatches on node kind (AConst/FuncCall/TypeCast/SqlvalueFunction, with a numeric
// SVFOp opcode table for CURRENT_DATE/CURRENT_TIMESTAMP/etc.). This package performs the
// same job on the spec's own restricted string grammar instead of a parsed AST, since
// Portable Default Expressions (spec §3.4) are a much smaller language than SQL: a single
// shallow Parse produces a closed Expr variant, and three Render* functions replace the
// teacher's single formatExpr.
package defaultexpr

import "strings"

// Kind identifies which Expr variant was parsed.
type Kind int

const (
	// KindLiteral: a decimal number, a quoted string, true/false, or null.
	KindLiteral Kind = iota
	// KindNullary: a zero-argument recognized function, e.g. now().
	KindNullary
	// KindScalar: a recognized function call with arguments, e.g. lower(x).
	KindScalar
	// KindPassthrough: an unrecognized identifier applied with parentheses; rendered
	// verbatim per spec §3.4 ("Unknown identifiers applied with parentheses pass
	// through verbatim").
	KindPassthrough
)

// Literal sub-kinds, used by renderers that need to special-case booleans.
type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralTrue
	LiteralFalse
	LiteralNull
)

// Expr is the parsed, closed representation of a Portable Default Expression.
type Expr struct {
	Kind        Kind
	LiteralKind LiteralKind
	Literal     string // raw literal text (number as written, or 'quoted string' with quotes)
	Name        string // lowercased function name for Nullary/Scalar; for Passthrough, the name as written, or the whole text when it is not a call
	Args        []string // raw argument text, comma-split at top level, whitespace-trimmed
}

// Parse shallow-parses a Portable Default Expression (spec §3.4). It never fails: any
// input that doesn't match a recognized literal or function-call shape is returned as a
// KindPassthrough with the original text as Name when it looks like bare verbatim SQL.
func Parse(raw string) Expr {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Expr{Kind: KindPassthrough, Name: s}
	}

	if isQuotedString(s) {
		return Expr{Kind: KindLiteral, LiteralKind: LiteralString, Literal: s}
	}

	lower := strings.ToLower(s)
	switch lower {
	case "true":
		return Expr{Kind: KindLiteral, LiteralKind: LiteralTrue, Literal: s}
	case "false":
		return Expr{Kind: KindLiteral, LiteralKind: LiteralFalse, Literal: s}
	case "null":
		return Expr{Kind: KindLiteral, LiteralKind: LiteralNull, Literal: s}
	}

	if isNumericLiteral(s) {
		return Expr{Kind: KindLiteral, LiteralKind: LiteralNumber, Literal: s}
	}

	// Leading token is case-normalized; everything else (e.g. string-literal
	// arguments) is preserved verbatim, per spec §4.1.
	if name, argsText, ok := splitCall(s); ok {
		args := splitArgsTopLevel(argsText)
		lname := strings.ToLower(name)
		if isNullaryFunc(lname) && len(args) == 0 {
			return Expr{Kind: KindNullary, Name: lname}
		}
		if isScalarFunc(lname) {
			return Expr{Kind: KindScalar, Name: lname, Args: args}
		}
		return Expr{Kind: KindPassthrough, Name: name, Args: args}
	}

	// Not a call and not a recognized literal: treat as verbatim passthrough text.
	return Expr{Kind: KindPassthrough, Name: s}
}

func isQuotedString(s string) bool {
	return len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
}

func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	seenDot := false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' && !seenDot:
			seenDot = true
		case r == '-' && i == 0:
		default:
			return false
		}
	}
	return true
}

// splitCall splits "name(args)" into name and the raw args text: it splits at the first
// '(' and treats the final ')' as the outer call's close paren. Parentheses are not
// balance-checked here; nesting depth is only tracked later, by splitArgsTopLevel, when
// the args text is comma-split at the top level.
func splitCall(s string) (name string, argsText string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	name = strings.TrimSpace(s[:open])
	if name == "" {
		return "", "", false
	}
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return "", "", false
		}
	}
	return name, s[open+1 : len(s)-1], true
}

func splitArgsTopLevel(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var args []string
	depth := 0
	inString := false
	start := 0
	for i, r := range s {
		switch {
		case r == '\'':
			inString = !inString
		case inString:
			// inside a string literal, commas/parens don't split
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth == 0:
			args = append(args, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	args = append(args, strings.TrimSpace(s[start:]))
	return args
}

var nullaryFuncs = map[string]bool{
	"now":                true,
	"current_timestamp": true,
	"current_date":      true,
	"current_time":      true,
	"gen_uuid":          true,
	"uuid":              true,
}

func isNullaryFunc(name string) bool { return nullaryFuncs[name] }

var scalarFuncs = map[string]bool{
	"lower":     true,
	"upper":     true,
	"coalesce":  true,
	"length":    true,
	"substring": true,
	"trim":      true,
	"concat":    true,
	"abs":       true,
	"round":     true,
}

func isScalarFunc(name string) bool { return scalarFuncs[name] }
