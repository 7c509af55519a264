// Package postgres implements the schema.Driver contract for PostgreSQL (spec §5.1).
//
// Grounded on the teacher's database/postgres/generator.go (statement shapes,
// (sql, description) return convention) and database/postgres/introspector.go
// (information_schema/pg_catalog queries), generalized from the teacher's bare
// `col.Type`-as-string columns to the Portable Type family (schema.Type).
package postgres

import (
	"fmt"

	"github.com/relschema/relschema/schema"
)

// TranslateType renders a Portable Type as PostgreSQL column-type SQL (spec §5.1).
// Enum is handled separately by the generator, since it requires a side CREATE TYPE
// statement before the column definition can reference it.
func TranslateType(t schema.Type) (string, error) {
	switch v := t.(type) {
	case schema.TinyInt, schema.SmallInt:
		return "SMALLINT", nil
	case schema.Int:
		return "INTEGER", nil
	case schema.BigInt:
		return "BIGINT", nil
	case schema.Decimal:
		return fmt.Sprintf("NUMERIC(%d,%d)", v.Precision, v.Scale), nil
	case schema.Money:
		return "MONEY", nil
	case schema.SmallMoney:
		return "NUMERIC(10,4)", nil
	case schema.Float:
		return "REAL", nil
	case schema.Double:
		return "DOUBLE PRECISION", nil
	case schema.Char:
		return fmt.Sprintf("CHAR(%d)", v.Length), nil
	case schema.VarChar:
		if v.MaxLength == schema.MaxSentinel {
			return "TEXT", nil
		}
		return fmt.Sprintf("VARCHAR(%d)", v.MaxLength), nil
	case schema.NChar:
		return fmt.Sprintf("CHAR(%d)", v.Length), nil
	case schema.NVarChar:
		if v.MaxLength == schema.MaxSentinel {
			return "TEXT", nil
		}
		return fmt.Sprintf("VARCHAR(%d)", v.MaxLength), nil
	case schema.Text:
		return "TEXT", nil
	case schema.Binary, schema.VarBinary, schema.Blob:
		return "BYTEA", nil
	case schema.Date:
		return "DATE", nil
	case schema.Time:
		return fmt.Sprintf("TIME(%d)", v.Precision), nil
	case schema.DateTime:
		return fmt.Sprintf("TIMESTAMP(%d)", v.Precision), nil
	case schema.DateTimeOffset:
		return "TIMESTAMPTZ", nil
	case schema.RowVersion:
		// Postgres has no native row-versioning type; xmin is the usual analogue but
		// isn't a declarable column type, so a plain versioned byte column stands in.
		return "BYTEA", nil
	case schema.Uuid:
		return "UUID", nil
	case schema.Boolean:
		return "BOOLEAN", nil
	case schema.Json:
		return "JSONB", nil
	case schema.Xml:
		return "XML", nil
	case schema.Geometry:
		if v.SRID != nil {
			return fmt.Sprintf("geometry(Geometry,%d)", *v.SRID), nil
		}
		return "geometry", nil
	case schema.Geography:
		return fmt.Sprintf("geography(Geography,%d)", v.SRID), nil
	case schema.Enum:
		return v.Name, nil
	default:
		return "", &schema.UnsupportedTypeError{Dialect: schema.DialectPostgres, Variant: fmt.Sprintf("%T", t)}
	}
}
