package postgres

import (
	"context"
	"database/sql"

	"github.com/relschema/relschema/schema"
)

// Driver implements schema.Driver for PostgreSQL, grounded on the teacher's
// database/sqlite/driver.go embedding pattern (Introspector + Generator, forwarding
// methods, compile-time interface assertions).
type Driver struct {
	*Introspector
	*Generator
}

func NewDriver() *Driver {
	return &Driver{Introspector: &Introspector{}, Generator: &Generator{}}
}

func (d *Driver) Name() string { return "postgres" }

func (d *Driver) SupportsTransactionalDDL() bool { return true }

// SupportsFeature reports PostgreSQL's capability set (spec §5.1): the richest of the
// three dialects, supporting every incremental ALTER facet in place.
func (d *Driver) SupportsFeature(feature string) bool {
	switch feature {
	case schema.FeatureCascade,
		schema.FeatureAlterColumnType,
		schema.FeatureAlterColumnNullable,
		schema.FeatureAlterColumnDefault,
		schema.FeatureAlterAddForeignKey,
		schema.FeatureAlterDropForeignKey,
		schema.FeatureForeignKeys,
		schema.FeatureDropColumn,
		schema.FeatureIdentityOnNonPK:
		return true
	default:
		return false
	}
}

var _ schema.Driver = (*Driver)(nil)
var _ schema.Inspector = (*Introspector)(nil)
var _ schema.Generator = (*Generator)(nil)

func (d *Driver) Inspect(ctx context.Context, db *sql.DB) (schema.Schema, error) {
	return d.Introspector.Inspect(ctx, db)
}

func (d *Driver) Generate(op schema.Operation) ([]string, string, error) {
	return d.Generator.Generate(op)
}

func (d *Driver) Dialect() schema.Dialect { return schema.DialectPostgres }
