package defaultexpr

import "strings"

// RenderPostgres renders a parsed Expr as PostgreSQL default-clause SQL.
func RenderPostgres(e Expr) string {
	switch e.Kind {
	case KindLiteral:
		return renderLiteral(e)
	case KindNullary:
		switch e.Name {
		case "now", "current_timestamp":
			return "CURRENT_TIMESTAMP"
		case "current_date":
			return "CURRENT_DATE"
		case "current_time":
			return "CURRENT_TIME"
		case "gen_uuid", "uuid":
			return "gen_random_uuid()"
		}
		return e.Name + "()"
	case KindScalar:
		return renderCall(e.Name, e.Args)
	default:
		return renderPassthrough(e)
	}
}

// RenderSQLite renders a parsed Expr as SQLite default-clause SQL.
func RenderSQLite(e Expr) string {
	switch e.Kind {
	case KindLiteral:
		// SQLite has no native boolean type (spec §8.2 Scenario A): columns declared
		// Boolean store 0/1, so a portable true/false literal must render as the
		// integer form rather than the bareword renderLiteral returns for other
		// dialects.
		switch e.LiteralKind {
		case LiteralTrue:
			return "1"
		case LiteralFalse:
			return "0"
		default:
			return renderLiteral(e)
		}
	case KindNullary:
		switch e.Name {
		case "now":
			return "(datetime('now'))"
		case "current_timestamp":
			return "CURRENT_TIMESTAMP"
		case "current_date":
			return "(date('now'))"
		case "current_time":
			return "(time('now'))"
		case "gen_uuid", "uuid":
			// SQLite has no built-in UUID generator; lower-hex randomblob is the
			// idiomatic approximation used throughout the ecosystem.
			return "(lower(hex(randomblob(16))))"
		}
		return e.Name + "()"
	case KindScalar:
		return renderCall(e.Name, e.Args)
	default:
		return renderPassthrough(e)
	}
}

// RenderSQLServer renders a parsed Expr as SQL Server default-clause SQL (spec §5.3).
func RenderSQLServer(e Expr) string {
	switch e.Kind {
	case KindLiteral:
		switch e.LiteralKind {
		case LiteralTrue:
			return "1"
		case LiteralFalse:
			return "0"
		default:
			return renderLiteral(e)
		}
	case KindNullary:
		switch e.Name {
		case "now":
			return "SYSUTCDATETIME()"
		case "current_timestamp":
			return "CURRENT_TIMESTAMP"
		case "current_date":
			return "CAST(SYSUTCDATETIME() AS DATE)"
		case "current_time":
			return "CAST(SYSUTCDATETIME() AS TIME)"
		case "gen_uuid", "uuid":
			return "NEWID()"
		}
		return e.Name + "()"
	case KindScalar:
		return renderCall(strings.ToUpper(e.Name), e.Args)
	default:
		return renderPassthrough(e)
	}
}

func renderLiteral(e Expr) string {
	switch e.LiteralKind {
	case LiteralTrue:
		return "true"
	case LiteralFalse:
		return "false"
	case LiteralNull:
		return "NULL"
	default:
		return e.Literal
	}
}

func renderCall(name string, args []string) string {
	return name + "(" + strings.Join(args, ", ") + ")"
}

// renderPassthrough renders an unrecognized call, or bare verbatim text, unchanged
// (spec §3.4: "Unknown identifiers applied with parentheses pass through verbatim").
func renderPassthrough(e Expr) string {
	if e.Args == nil && !strings.Contains(e.Name, "(") {
		return e.Name
	}
	return renderCall(e.Name, e.Args)
}
