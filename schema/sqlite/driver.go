package sqlite

import (
	"context"
	"database/sql"

	"github.com/relschema/relschema/schema"
)

// Driver implements schema.Driver for SQLite, grounded on the teacher's
// database/sqlite/driver.go embedding pattern.
type Driver struct {
	*Introspector
	*Generator
}

func NewDriver() *Driver {
	return &Driver{Introspector: &Introspector{}, Generator: &Generator{}}
}

func (d *Driver) Name() string { return "sqlite" }

// SupportsTransactionalDDL: SQLite DDL does run inside a transaction, but the
// table-rebuild idiom this package uses for several operation kinds already issues its
// own PRAGMA toggles around the rebuild, so the runner's outer transaction still applies
// cleanly on top.
func (d *Driver) SupportsTransactionalDDL() bool { return true }

// SupportsFeature reports SQLite's limited in-place ALTER capability (spec §5.2): every
// facet this driver can't alter in place, it instead performs via the table-rebuild
// idiom in generator.go, so the Operation set itself is still fully supported — these
// flags describe whether the runner should expect a single ALTER statement.
func (d *Driver) SupportsFeature(feature string) bool {
	switch feature {
	case schema.FeatureForeignKeys, schema.FeatureDropColumn:
		return true
	case schema.FeatureCascade,
		schema.FeatureAlterColumnType,
		schema.FeatureAlterColumnNullable,
		schema.FeatureAlterColumnDefault,
		schema.FeatureAlterAddForeignKey,
		schema.FeatureAlterDropForeignKey,
		schema.FeatureIdentityOnNonPK:
		return false
	case schema.FeatureInlineForeignKeysOnly:
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

func (d *Driver) Dialect() schema.Dialect { return schema.DialectSQLite }
