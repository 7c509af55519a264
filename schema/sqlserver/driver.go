package sqlserver

import (
	"context"
	"database/sql"

	"github.com/relschema/relschema/schema"
)

// Driver implements schema.Driver for SQL Server, following the teacher's
// Introspector+Generator embedding pattern generalized to a third dialect.
type Driver struct {
	*Introspector
	*Generator
}

func NewDriver() *Driver {
	return &Driver{Introspector: &Introspector{}, Generator: &Generator{}}
}

func (d *Driver) Name() string { return "sqlserver" }

// SupportsTransactionalDDL is false for SQL Server: the runner executes its statements
// per-statement rather than wrapped in a transaction (spec §4.6's explicit dialect table).
func (d *Driver) SupportsTransactionalDDL() bool { return false }

func (d *Driver) SupportsFeature(feature string) bool {
	switch feature {
	case schema.FeatureCascade,
		schema.FeatureAlterColumnType,
		schema.FeatureAlterColumnNullable,
		schema.FeatureAlterAddForeignKey,
		schema.FeatureAlterDropForeignKey,
		schema.FeatureForeignKeys,
		schema.FeatureDropColumn:
		return true
	case schema.FeatureAlterColumnDefault:
		// SQL Server default values are named constraints, not a column attribute
		// alterable in place — changing one is drop-constraint-then-add (generator.go
		// alterColumn), not a single ALTER COLUMN clause.
		return false
	case schema.FeatureIdentityOnNonPK:
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

func (d *Driver) Dialect() schema.Dialect { return schema.DialectSQLServer }
