package schema_test

import (
	"testing"

	"github.com/relschema/relschema/schema"
	"github.com/relschema/relschema/schema/postgres"
	"github.com/relschema/relschema/schema/sqlite"
	"github.com/relschema/relschema/schema/sqlserver"
)

// TestTranslateType_ExhaustiveOverAllVariants is the build-time-exhaustiveness backstop
// spec.md §9 asks for: Go has no sum-type exhaustiveness check, so each dialect's
// TranslateType type switch falls through to a default "unsupported" branch instead of
// failing to compile when a Type variant is added. This test iterates every variant in
// schema.AllTypeSamples and fails if any dialect rejects one outright, catching a missed
// switch case as a test failure rather than a silent runtime surprise.
func TestTranslateType_ExhaustiveOverAllVariants(t *testing.T) {
	translators := map[string]func(schema.Type) (string, error){
		"postgres":  postgres.TranslateType,
		"sqlite":    sqlite.TranslateType,
		"sqlserver": sqlserver.TranslateType,
	}
	for _, sample := range schema.AllTypeSamples() {
		for dialect, translate := range translators {
			if _, err := translate(sample); err != nil {
				t.Errorf("%s.TranslateType(%s) = error %v, want a handled case", dialect, sample, err)
			}
		}
	}
}
