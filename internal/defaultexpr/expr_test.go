package defaultexpr

import "testing"

func TestParse_Literals(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
		lk   LiteralKind
	}{
		{"42", KindLiteral, LiteralNumber},
		{"-3.5", KindLiteral, LiteralNumber},
		{"'hello'", KindLiteral, LiteralString},
		{"TRUE", KindLiteral, LiteralTrue},
		{"false", KindLiteral, LiteralFalse},
		{"NULL", KindLiteral, LiteralNull},
	}
	for _, c := range cases {
		got := Parse(c.in)
		if got.Kind != c.kind {
			t.Errorf("Parse(%q).Kind = %v, want %v", c.in, got.Kind, c.kind)
		}
		if got.Kind == KindLiteral && got.LiteralKind != c.lk {
			t.Errorf("Parse(%q).LiteralKind = %v, want %v", c.in, got.LiteralKind, c.lk)
		}
	}
}

func TestParse_NullaryFunctions(t *testing.T) {
	for _, name := range []string{"now()", "NOW()", "current_timestamp()", "gen_uuid()", "uuid()"} {
		got := Parse(name)
		if got.Kind != KindNullary {
			t.Errorf("Parse(%q).Kind = %v, want KindNullary", name, got.Kind)
		}
	}
}

func TestParse_ScalarFunctions(t *testing.T) {
	got := Parse("substring(name, 1, 3)")
	if got.Kind != KindScalar {
		t.Fatalf("Kind = %v, want KindScalar", got.Kind)
	}
	if got.Name != "substring" {
		t.Errorf("Name = %q, want substring", got.Name)
	}
	if len(got.Args) != 3 || got.Args[0] != "name" || got.Args[1] != "1" || got.Args[2] != "3" {
		t.Errorf("Args = %v, want [name 1 3]", got.Args)
	}
}

func TestParse_Passthrough(t *testing.T) {
	got := Parse("custom_func(1, 2)")
	if got.Kind != KindPassthrough {
		t.Fatalf("Kind = %v, want KindPassthrough", got.Kind)
	}
	got2 := Parse("nextval('users_id_seq')")
	if got2.Kind != KindPassthrough {
		t.Fatalf("Kind = %v, want KindPassthrough for nextval", got2.Kind)
	}
}

func TestParse_NestedArgsBalanced(t *testing.T) {
	got := Parse("coalesce(lower(name), 'x')")
	if got.Kind != KindScalar || got.Name != "coalesce" {
		t.Fatalf("unexpected parse: %+v", got)
	}
	if len(got.Args) != 2 || got.Args[0] != "lower(name)" || got.Args[1] != "'x'" {
		t.Errorf("Args = %v", got.Args)
	}
}

func TestRenderPostgres(t *testing.T) {
	cases := map[string]string{
		"now()":               "CURRENT_TIMESTAMP",
		"current_timestamp()": "CURRENT_TIMESTAMP",
		"current_date()":      "CURRENT_DATE",
		"current_time()":      "CURRENT_TIME",
		"gen_uuid()":          "gen_random_uuid()",
		"true":                "true",
		"false":               "false",
		"'x'":                 "'x'",
	}
	for in, want := range cases {
		got := RenderPostgres(Parse(in))
		if got != want {
			t.Errorf("RenderPostgres(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSQLite(t *testing.T) {
	// now() and current_timestamp() diverge on SQLite (spec §4.1): now() is the
	// dialect-idiomatic "get current time" expression, current_timestamp() is the
	// SQL-standard literal SQLite also understands.
	cases := map[string]string{
		"now()":               "(datetime('now'))",
		"current_timestamp()": "CURRENT_TIMESTAMP",
		"current_date()":      "(date('now'))",
		"current_time()":      "(time('now'))",
	}
	for in, want := range cases {
		if got := RenderSQLite(Parse(in)); got != want {
			t.Errorf("RenderSQLite(%q) = %q, want %q", in, got, want)
		}
	}
	uuidGot := RenderSQLite(Parse("gen_uuid()"))
	if uuidGot == "" {
		t.Errorf("RenderSQLite(gen_uuid()) returned empty")
	}
}

func TestRenderSQLServer_NullaryTime(t *testing.T) {
	// now() and current_timestamp() diverge on SQL Server too (spec §4.1): now() uses
	// the UTC-returning idiom, current_timestamp() stays the SQL-standard literal.
	cases := map[string]string{
		"now()":               "SYSUTCDATETIME()",
		"current_timestamp()": "CURRENT_TIMESTAMP",
		"current_date()":      "CAST(SYSUTCDATETIME() AS DATE)",
		"current_time()":      "CAST(SYSUTCDATETIME() AS TIME)",
	}
	for in, want := range cases {
		if got := RenderSQLServer(Parse(in)); got != want {
			t.Errorf("RenderSQLServer(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSQLite_Booleans(t *testing.T) {
	// SQLite has no native boolean type (spec §8.2 Scenario A): a portable true/false
	// literal must render as the 0/1 integer form SQLite actually stores.
	if got := RenderSQLite(Parse("true")); got != "1" {
		t.Errorf("RenderSQLite(true) = %q, want 1", got)
	}
	if got := RenderSQLite(Parse("false")); got != "0" {
		t.Errorf("RenderSQLite(false) = %q, want 0", got)
	}
}

// TestRender_TotalOverArbitraryInput is spec.md §8.1 property 4 ("default-translator
// totality"): Parse never panics or errors, and every Render* function returns a string
// for whatever Parse produces, for any input whatsoever — including malformed,
// mismatched-paren, and empty strings.
func TestRender_TotalOverArbitraryInput(t *testing.T) {
	inputs := []string{
		"", "   ", "42", "-3.5", "'it''s'", "TRUE", "False", "NULL",
		"now()", "gen_uuid()", "lower(name)", "coalesce(a, b, c)",
		"nextval('seq')", "unterminated(", "no_close_paren(a, b",
		"((()))", ")(", "plain_identifier", "weird$symbols!@#",
	}
	renderers := map[string]func(Expr) string{
		"postgres":  RenderPostgres,
		"sqlite":    RenderSQLite,
		"sqlserver": RenderSQLServer,
	}
	for _, in := range inputs {
		e := Parse(in)
		for name, render := range renderers {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("%s panicked rendering %q: %v", name, in, r)
					}
				}()
				_ = render(e)
			}()
		}
	}
}

func TestRenderSQLServer_Booleans(t *testing.T) {
	if got := RenderSQLServer(Parse("true")); got != "1" {
		t.Errorf("RenderSQLServer(true) = %q, want 1", got)
	}
	if got := RenderSQLServer(Parse("false")); got != "0" {
		t.Errorf("RenderSQLServer(false) = %q, want 0", got)
	}
	if got := RenderSQLServer(Parse("gen_uuid()")); got != "NEWID()" {
		t.Errorf("RenderSQLServer(gen_uuid()) = %q, want NEWID()", got)
	}
}
