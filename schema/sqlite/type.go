// Package sqlite implements the schema.Driver contract for SQLite (spec §5.2): storage
// class affinity rather than fixed-width types, and no native ALTER COLUMN, so altering a
// column's type/nullability/default requires the table-rebuild idiom (see generator.go).
//
// Grounded on the teacher's database/sqlite/generator.go and driver.go embedding pattern.
package sqlite

import (
	"fmt"

	"github.com/relschema/relschema/schema"
)

// TranslateType renders a Portable Type as a SQLite column-type affinity string
// (spec §5.2). SQLite's type system is advisory (storage class affinity, not enforced
// width), so most variants collapse onto one of INTEGER/REAL/TEXT/BLOB/NUMERIC. On
// introspection Column.RawCatalogType holds only the declared SQLite type text; the
// original portable shape (e.g. a VarChar length) is not recovered.
func TranslateType(t schema.Type) (string, error) {
	switch v := t.(type) {
	case schema.TinyInt, schema.SmallInt, schema.Int, schema.BigInt:
		return "INTEGER", nil
	case schema.Decimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", v.Precision, v.Scale), nil
	case schema.Money, schema.SmallMoney:
		return "NUMERIC", nil
	case schema.Float, schema.Double:
		return "REAL", nil
	case schema.Char:
		return "TEXT", nil
	case schema.VarChar, schema.NChar, schema.NVarChar, schema.Text, schema.Xml:
		return "TEXT", nil
	case schema.Binary, schema.VarBinary, schema.Blob, schema.RowVersion:
		return "BLOB", nil
	case schema.Date, schema.DateTime, schema.DateTimeOffset, schema.Time:
		return "TEXT", nil
	case schema.Uuid:
		return "TEXT", nil
	case schema.Boolean:
		return "INTEGER", nil
	case schema.Json:
		return "TEXT", nil
	case schema.Geometry, schema.Geography:
		return "BLOB", nil
	case schema.Enum:
		return "TEXT", nil
	default:
		return "", &schema.UnsupportedTypeError{Dialect: schema.DialectSQLite, Variant: fmt.Sprintf("%T", t)}
	}
}
