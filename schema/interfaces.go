package schema

import (
	"context"
	"database/sql"
)

// Inspector reads a live database's catalog and reconstructs a Schema (spec §4.4).
// Grounded on the teacher's database.Introspector interface, collapsed from five
// methods (IntrospectSchema/GetTables/GetColumns/GetIndexes/GetForeignKeys) to the one
// operation the public API surface (spec §6.1) actually names; per-dialect packages may
// still expose the finer-grained methods internally (they do, for testability) but only
// Inspect is part of the portable contract.
type Inspector interface {
	Inspect(ctx context.Context, db *sql.DB) (Schema, error)
}

// Generator emits SQL text for one migration operation against one dialect (spec §4.3).
// It returns the ordered SQL statements to execute (more than one for, e.g., a
// PostgreSQL CreateTable that also emits a CREATE TYPE for an Enum column) and a short
// human description, grounded on the teacher's (sql string, description string) return
// shape used throughout database/postgres/generator.go and database/sqlite/generator.go.
type Generator interface {
	Generate(op Operation) (statements []string, description string, err error)
	Dialect() Dialect
}

// Driver bundles an Inspector and a Generator behind dialect identity and feature
// capability, grounded on the teacher's database.Driver interface (embeds Introspector +
// SQLGenerator, adds Name/SupportsFeature).
type Driver interface {
	Inspector
	Generator

	Name() string
	SupportsFeature(feature string) bool
	SupportsTransactionalDDL() bool
}

// Feature names recognized by Driver.SupportsFeature, mirrored from the teacher's
// database/sqlite/driver.go capability switch and extended for the new dialects.
const (
	FeatureCascade               = "CASCADE"
	FeatureAlterColumnType       = "ALTER_COLUMN_TYPE"
	FeatureAlterColumnNullable   = "ALTER_COLUMN_NULLABLE"
	FeatureAlterColumnDefault    = "ALTER_COLUMN_DEFAULT"
	FeatureAlterAddForeignKey    = "ALTER_ADD_FOREIGN_KEY"
	FeatureAlterDropForeignKey   = "ALTER_DROP_FOREIGN_KEY"
	FeatureForeignKeys           = "FOREIGN_KEYS"
	FeatureDropColumn            = "DROP_COLUMN"
	FeatureIdentityOnNonPK       = "IDENTITY_ON_NON_PK"
	FeatureInlineForeignKeysOnly = "INLINE_FOREIGN_KEYS_ONLY"
)
